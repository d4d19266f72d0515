package session

import (
	"context"
	"testing"
	"time"

	"coffeelink/cart"
	"coffeelink/models"
	"coffeelink/storage"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRegistryRestoresOnFirstSight(t *testing.T) {
	ctx := t.Context()
	st := storage.NewMemory()
	require.NoError(t, st.Save(ctx, "browser-1", map[string]string{
		TokenKey: "t",
		UserKey:  `{"email":"ana@coffeelink.cl","rol":"cliente"}`,
	}))

	r := NewRegistry(st, nil)
	c, err := r.Get(ctx, "browser-1")
	require.NoError(t, err)

	u, ok := c.Session.CurrentUser()
	require.True(t, ok)
	assert.Equal(t, "ana@coffeelink.cl", u.Email)

	again, err := r.Get(ctx, "browser-1")
	require.NoError(t, err)
	assert.Same(t, c, again)
	assert.Equal(t, 1, r.Len())
}

func TestRegistryEmptyID(t *testing.T) {
	r := NewRegistry(storage.NewMemory(), nil)
	_, err := r.Get(t.Context(), "")
	assert.Error(t, err)
}

// blockingStorage holds Load until released so a racing request can observe
// the Unknown state.
type blockingStorage struct {
	*storage.Memory
	entered chan struct{}
	release chan struct{}
}

func (b *blockingStorage) Load(ctx context.Context, id string) (map[string]string, error) {
	close(b.entered)
	<-b.release
	return b.Memory.Load(ctx, id)
}

func TestRegistryConcurrentRequestSeesUnknown(t *testing.T) {
	st := &blockingStorage{
		Memory:  storage.NewMemory(),
		entered: make(chan struct{}),
		release: make(chan struct{}),
	}
	r := NewRegistry(st, nil)

	done := make(chan *Client)
	go func() {
		c, _ := r.Get(context.Background(), "browser-1")
		done <- c
	}()
	<-st.entered

	racing, err := r.Get(t.Context(), "browser-1")
	require.NoError(t, err)
	assert.Equal(t, Unknown, racing.Session.State())

	close(st.release)
	restored := <-done
	assert.Equal(t, Anonymous, restored.Session.State())
}

func TestFlashDrain(t *testing.T) {
	r := NewRegistry(storage.NewMemory(), nil)
	c, err := r.Get(t.Context(), "browser-1")
	require.NoError(t, err)

	c.Cart().AddItem(models.Product{ID: 3, Nombre: "Kenia", Stock: 1})
	c.Flash.Add(cart.LevelError, "boom")

	got := c.Flash.Drain()
	require.Len(t, got, 2)
	assert.Equal(t, cart.LevelError, got[1].Level)
	assert.Empty(t, c.Flash.Drain())
}

func TestClientRemembersShownProducts(t *testing.T) {
	r := NewRegistry(storage.NewMemory(), nil)
	c, err := r.Lookup("browser-1")
	require.NoError(t, err)

	_, ok := c.Product(4)
	assert.False(t, ok)

	c.RememberProducts([]models.Product{{ID: 4, Nombre: "Perú", Stock: 2}})
	c.RememberProducts([]models.Product{{ID: 4, Nombre: "Perú", Stock: 1}})

	p, ok := c.Product(4)
	require.True(t, ok)
	assert.Equal(t, 1, p.Stock)
}

func TestRegistrySweepDropsIdleClients(t *testing.T) {
	ctx := t.Context()
	st := storage.NewMemory()
	require.NoError(t, st.Save(ctx, "idle", map[string]string{
		TokenKey: "t",
		UserKey:  `{"email":"ana@coffeelink.cl","rol":"cliente"}`,
	}))

	clock := time.Date(2026, 1, 1, 12, 0, 0, 0, time.UTC)
	r := NewRegistry(st, nil)
	r.now = func() time.Time { return clock }

	idle, err := r.Get(ctx, "idle")
	require.NoError(t, err)
	idle.Cart().AddItem(models.Product{ID: 1, Nombre: "Kenia AA", Stock: 3})
	busy, err := r.Get(ctx, "busy")
	require.NoError(t, err)
	release, ok := busy.InFlight.TryAcquire("login")
	require.True(t, ok)
	defer release()

	clock = clock.Add(20 * time.Minute)
	_, err = r.Get(ctx, "fresh")
	require.NoError(t, err)

	clock = clock.Add(15 * time.Minute)
	assert.Equal(t, 1, r.Sweep(30*time.Minute))
	assert.Equal(t, 2, r.Len())

	back, err := r.Get(ctx, "idle")
	require.NoError(t, err)
	assert.NotSame(t, idle, back)
	assert.True(t, back.Session.IsAuthenticated())
	assert.Zero(t, back.Cart().Len())
}

func TestRegistryRunStopsWithContext(t *testing.T) {
	r := NewRegistry(storage.NewMemory(), nil)
	_, err := r.Lookup("browser-1")
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(t.Context())
	done := make(chan error, 1)
	go func() { done <- r.Run(ctx, time.Millisecond, 0) }()

	assert.Eventually(t, func() bool { return r.Len() == 0 }, time.Second, time.Millisecond)
	cancel()
	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(time.Second):
		t.Fatal("Run did not return after cancel")
	}
}
