package cart_test

import (
	"testing"

	"coffeelink/cart"
	"coffeelink/models"

	"github.com/brianvoe/gofakeit/v7"
	"github.com/google/go-cmp/cmp"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"
)

func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m)
}

var decimalEqual = cmp.Comparer(func(a, b decimal.Decimal) bool { return a.Equal(b) })

func product(id int64, price int64, stock int) models.Product {
	return models.Product{
		ID:     id,
		Nombre: gofakeit.ProductName(),
		Precio: decimal.NewFromInt(price),
		Stock:  stock,
	}
}

type recorder struct {
	got []cart.Notification
}

func (r *recorder) Notify(n cart.Notification) { r.got = append(r.got, n) }

func TestAddItemMergesSameProduct(t *testing.T) {
	c := cart.New(nil)
	a := product(1, 2000, 3)

	c.AddItem(a)
	c.AddItem(a)

	require.Equal(t, 1, c.Len())
	assert.Equal(t, 2, c.Quantity(a.ID))
	assert.Equal(t, 2, c.ItemCount())
}

func TestAddItemRefreshesProductSnapshot(t *testing.T) {
	c := cart.New(nil)
	a := product(1, 2000, 2)
	c.AddItem(a)
	c.AddItem(a)

	restocked := a
	restocked.Stock = 5
	restocked.Precio = decimal.NewFromInt(2500)
	c.AddItem(restocked)

	require.Equal(t, 1, c.Len())
	entry := c.Entries()[0]
	assert.Equal(t, 3, entry.Quantity)
	assert.Equal(t, 5, entry.Product.Stock)
	assert.True(t, entry.Product.Precio.Equal(decimal.NewFromInt(2500)))

	_, err := c.ChangeQuantity(a.ID, 1)
	require.NoError(t, err)
	assert.Equal(t, 4, c.Quantity(a.ID))
}

func TestAddItemKeepsInsertionOrder(t *testing.T) {
	c := cart.New(nil)
	a, b, d := product(1, 100, 5), product(2, 200, 5), product(3, 300, 5)

	c.AddItem(b)
	c.AddItem(a)
	c.AddItem(d)
	c.AddItem(b)

	want := []cart.Entry{
		{Product: b, Quantity: 2},
		{Product: a, Quantity: 1},
		{Product: d, Quantity: 1},
	}
	if diff := cmp.Diff(want, c.Entries(), decimalEqual); diff != "" {
		t.Fatalf("entries mismatch (-want +got):\n%s", diff)
	}
}

func TestChangeQuantityScenario(t *testing.T) {
	c := cart.New(nil)
	a := product(1, 2000, 3)
	c.AddItem(a)

	outcome, err := c.ChangeQuantity(a.ID, 1)
	require.NoError(t, err)
	assert.Equal(t, cart.Updated, outcome)
	assert.Equal(t, 2, c.Quantity(a.ID))
	assert.True(t, c.Total().Equal(decimal.NewFromInt(4000)), "total %s", c.Total())

	outcome, err = c.ChangeQuantity(a.ID, 5)
	require.ErrorIs(t, err, cart.ErrStockLimit)
	assert.Equal(t, cart.Unchanged, outcome)
	assert.Equal(t, 2, c.Quantity(a.ID))

	outcome, err = c.ChangeQuantity(a.ID, -2)
	require.NoError(t, err)
	assert.Equal(t, cart.Removed, outcome)
	assert.Zero(t, c.Len())
	assert.True(t, c.Total().IsZero())
}

func TestChangeQuantityUnknownProductIsNoop(t *testing.T) {
	rec := &recorder{}
	c := cart.New(rec)

	outcome, err := c.ChangeQuantity(42, 1)
	require.NoError(t, err)
	assert.Equal(t, cart.Unchanged, outcome)
	assert.Empty(t, rec.got)
}

func TestChangeQuantityToStockIsAllowed(t *testing.T) {
	c := cart.New(nil)
	a := product(7, 1500, 3)
	c.AddItem(a)

	_, err := c.ChangeQuantity(a.ID, 2)
	require.NoError(t, err)
	assert.Equal(t, 3, c.Quantity(a.ID))
	assert.True(t, c.Entries()[0].AtStock())
}

func TestRemoveItem(t *testing.T) {
	c := cart.New(nil)
	a, b := product(1, 100, 5), product(2, 200, 5)
	c.AddItem(a)
	c.AddItem(b)

	c.RemoveItem(a.ID)
	c.RemoveItem(99)

	require.Equal(t, 1, c.Len())
	assert.Equal(t, b.ID, c.Entries()[0].Product.ID)
}

func TestMutationsNotify(t *testing.T) {
	rec := &recorder{}
	c := cart.New(rec)
	a := product(1, 100, 1)

	c.AddItem(a)
	_, _ = c.ChangeQuantity(a.ID, 1)
	c.RemoveItem(a.ID)

	require.Len(t, rec.got, 3)
	assert.Equal(t, cart.LevelSuccess, rec.got[0].Level)
	assert.Equal(t, cart.LevelWarning, rec.got[1].Level)
	assert.Equal(t, cart.LevelInfo, rec.got[2].Level)
}

func TestClear(t *testing.T) {
	c := cart.New(nil)
	c.AddItem(product(1, 100, 5))
	c.Clear()

	assert.Zero(t, c.Len())
	assert.Zero(t, c.ItemCount())
}

// Random operation sequences must never break the quantity bounds, create a
// duplicate entry or let the total drift from the entries.
func TestRandomSequencesKeepInvariants(t *testing.T) {
	f := gofakeit.New(20261018)

	catalog := make([]models.Product, 6)
	for i := range catalog {
		catalog[i] = models.Product{
			ID:     int64(i + 1),
			Nombre: f.ProductName(),
			Precio: decimal.NewFromInt(int64(f.Number(500, 15000))),
			Stock:  f.Number(1, 6),
		}
	}

	for run := 0; run < 50; run++ {
		c := cart.New(nil)
		for step := 0; step < 200; step++ {
			p := catalog[f.Number(0, len(catalog)-1)]
			switch f.Number(0, 2) {
			case 0:
				if c.Quantity(p.ID) < p.Stock {
					c.AddItem(p)
				}
			case 1:
				before := c.Quantity(p.ID)
				delta := f.Number(-4, 4)
				_, err := c.ChangeQuantity(p.ID, delta)
				if err != nil {
					require.ErrorIs(t, err, cart.ErrStockLimit)
					require.Equal(t, before, c.Quantity(p.ID))
				}
			case 2:
				c.RemoveItem(p.ID)
			}

			seen := map[int64]bool{}
			sum := decimal.Zero
			for _, e := range c.Entries() {
				require.False(t, seen[e.Product.ID], "duplicate entry for %d", e.Product.ID)
				seen[e.Product.ID] = true
				require.GreaterOrEqual(t, e.Quantity, 1)
				require.LessOrEqual(t, e.Quantity, e.Product.Stock)
				sum = sum.Add(e.Product.Precio.Mul(decimal.NewFromInt(int64(e.Quantity))))
			}
			require.True(t, sum.Equal(c.Total()), "total %s, want %s", c.Total(), sum)
		}
	}
}
