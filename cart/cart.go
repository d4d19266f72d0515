// Package cart holds the client-side shopping cart of one browser.
//
// The cart is an ordered list of entries, one per product, kept in memory for
// the lifetime of the session that owns it. Stock figures come from the
// backend and are advisory: the cart only keeps quantities within the stock it
// was told about, the backend remains the authority at purchase time.
package cart

import (
	"errors"
	"fmt"
	"sync"

	"coffeelink/models"

	"github.com/shopspring/decimal"
)

// ErrStockLimit is returned when a change would raise a quantity above the
// advertised stock. The entry is left unchanged.
var ErrStockLimit = errors.New("stock limit reached")

// Outcome describes what a quantity change did to the cart.
type Outcome int

const (
	// Unchanged means no entry was touched.
	Unchanged Outcome = iota
	// Updated means the entry now holds a new quantity.
	Updated
	// Removed means the entry left the cart.
	Removed
)

// Entry is one product in the cart with the chosen quantity.
type Entry struct {
	Product  models.Product
	Quantity int
}

// Subtotal is the unit price times the quantity.
func (e Entry) Subtotal() decimal.Decimal {
	return e.Product.Precio.Mul(decimal.NewFromInt(int64(e.Quantity)))
}

// AtStock reports whether the quantity already equals the advertised stock.
func (e Entry) AtStock() bool {
	return e.Quantity >= e.Product.Stock
}

// Cart is safe for concurrent use.
type Cart struct {
	mu       sync.Mutex
	entries  []Entry
	notifier Notifier
}

// New returns an empty cart that reports mutations to n. A nil notifier is
// allowed.
func New(n Notifier) *Cart {
	if n == nil {
		n = NopNotifier{}
	}
	return &Cart{notifier: n}
}

// AddItem puts one unit of p in the cart. An existing entry grows by one; a
// new entry is appended. Stock is not checked here: callers only offer the
// action for products in stock.
func (c *Cart) AddItem(p models.Product) {
	c.mu.Lock()
	i := c.indexOf(p.ID)
	if i >= 0 {
		c.entries[i].Product = p
		c.entries[i].Quantity++
	} else {
		c.entries = append(c.entries, Entry{Product: p, Quantity: 1})
	}
	c.mu.Unlock()

	c.notifier.Notify(Notification{
		Level:   LevelSuccess,
		Message: fmt.Sprintf("%s agregado al carrito", p.Nombre),
	})
}

// ChangeQuantity adds delta to the quantity of productID. A result of zero or
// less removes the entry; a result above stock returns ErrStockLimit and keeps
// the entry as it was. Unknown products are ignored.
func (c *Cart) ChangeQuantity(productID int64, delta int) (Outcome, error) {
	c.mu.Lock()
	i := c.indexOf(productID)
	if i < 0 {
		c.mu.Unlock()
		return Unchanged, nil
	}
	entry := c.entries[i]
	next := entry.Quantity + delta

	switch {
	case next <= 0:
		c.entries = append(c.entries[:i], c.entries[i+1:]...)
		c.mu.Unlock()
		c.notifier.Notify(Notification{
			Level:   LevelInfo,
			Message: fmt.Sprintf("%s eliminado del carrito", entry.Product.Nombre),
		})
		return Removed, nil
	case next > entry.Product.Stock:
		c.mu.Unlock()
		c.notifier.Notify(Notification{
			Level:   LevelWarning,
			Message: fmt.Sprintf("Solo hay %d unidades de %s", entry.Product.Stock, entry.Product.Nombre),
		})
		return Unchanged, ErrStockLimit
	default:
		c.entries[i].Quantity = next
		c.mu.Unlock()
		c.notifier.Notify(Notification{
			Level:   LevelInfo,
			Message: fmt.Sprintf("Cantidad de %s: %d", entry.Product.Nombre, next),
		})
		return Updated, nil
	}
}

// RemoveItem drops the entry for productID if there is one.
func (c *Cart) RemoveItem(productID int64) {
	c.mu.Lock()
	i := c.indexOf(productID)
	if i < 0 {
		c.mu.Unlock()
		return
	}
	name := c.entries[i].Product.Nombre
	c.entries = append(c.entries[:i], c.entries[i+1:]...)
	c.mu.Unlock()

	c.notifier.Notify(Notification{
		Level:   LevelInfo,
		Message: fmt.Sprintf("%s eliminado del carrito", name),
	})
}

// Clear empties the cart silently.
func (c *Cart) Clear() {
	c.mu.Lock()
	c.entries = nil
	c.mu.Unlock()
}

// Total is recomputed from the entries on every call.
func (c *Cart) Total() decimal.Decimal {
	c.mu.Lock()
	defer c.mu.Unlock()

	total := decimal.Zero
	for _, e := range c.entries {
		total = total.Add(e.Subtotal())
	}
	return total
}

// ItemCount is the number of units across all entries.
func (c *Cart) ItemCount() int {
	c.mu.Lock()
	defer c.mu.Unlock()

	n := 0
	for _, e := range c.entries {
		n += e.Quantity
	}
	return n
}

// Len is the number of distinct products.
func (c *Cart) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.entries)
}

// Entries returns a copy of the entries in insertion order.
func (c *Cart) Entries() []Entry {
	c.mu.Lock()
	defer c.mu.Unlock()

	out := make([]Entry, len(c.entries))
	copy(out, c.entries)
	return out
}

// Quantity returns the quantity held for productID, zero if absent.
func (c *Cart) Quantity(productID int64) int {
	c.mu.Lock()
	defer c.mu.Unlock()

	if i := c.indexOf(productID); i >= 0 {
		return c.entries[i].Quantity
	}
	return 0
}

func (c *Cart) indexOf(productID int64) int {
	for i, e := range c.entries {
		if e.Product.ID == productID {
			return i
		}
	}
	return -1
}
