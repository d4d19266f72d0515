package session

import (
	"context"
	"sync"
	"sync/atomic"
	"time"

	"coffeelink/cart"
	"coffeelink/inflight"
	"coffeelink/models"
	"coffeelink/storage"

	"go.uber.org/zap"
)

// Client is everything the storefront keeps for one browser.
type Client struct {
	ID       string
	Session  *Store
	Flash    *Flash
	InFlight *inflight.Guard

	restoring atomic.Bool
	lastSeen  atomic.Int64

	seenMu sync.RWMutex
	seen   map[int64]models.Product
}

// Cart is a shortcut for c.Session.Cart().
func (c *Client) Cart() *cart.Cart { return c.Session.Cart() }

// RememberProducts records the products last shown to this client, so a later
// form post can refer to them by id.
func (c *Client) RememberProducts(ps []models.Product) {
	c.seenMu.Lock()
	defer c.seenMu.Unlock()
	if c.seen == nil {
		c.seen = make(map[int64]models.Product, len(ps))
	}
	for _, p := range ps {
		c.seen[p.ID] = p
	}
}

// Product returns a product previously shown to this client.
func (c *Client) Product(id int64) (models.Product, bool) {
	c.seenMu.RLock()
	defer c.seenMu.RUnlock()
	p, ok := c.seen[id]
	return p, ok
}

// Registry owns the live clients of this process. A client is restored from
// storage the first time it is seen and dropped by Sweep once idle; its cart
// goes with it, its persisted session does not.
type Registry struct {
	storage storage.Storage
	log     *zap.Logger
	now     func() time.Time

	mu      sync.Mutex
	clients map[string]*Client
}

// NewRegistry returns an empty registry reading sessions from st
func NewRegistry(st storage.Storage, log *zap.Logger) *Registry {
	if log == nil {
		log = zap.NewNop()
	}
	return &Registry{
		storage: st,
		log:     log,
		now:     time.Now,
		clients: make(map[string]*Client),
	}
}

// Lookup returns the client for id without restoring it, creating it in the
// Unknown state when needed.
func (r *Registry) Lookup(id string) (*Client, error) {
	if id == "" {
		return nil, errNoClient
	}
	r.mu.Lock()
	defer r.mu.Unlock()

	now := r.now().UnixNano()
	if c, ok := r.clients[id]; ok {
		c.lastSeen.Store(now)
		return c, nil
	}
	flash := &Flash{}
	c := &Client{
		ID:       id,
		Session:  NewStore(id, r.storage, flash, r.log),
		Flash:    flash,
		InFlight: &inflight.Guard{},
	}
	c.lastSeen.Store(now)
	r.clients[id] = c
	return c, nil
}

// Get returns the client for id. The first call for a client restores its
// session before returning; calls racing with that restore return at once and
// see the Unknown state.
func (r *Registry) Get(ctx context.Context, id string) (*Client, error) {
	c, err := r.Lookup(id)
	if err != nil {
		return nil, err
	}
	if c.Session.IsLoading() && c.restoring.CompareAndSwap(false, true) {
		c.Session.Restore(context.WithoutCancel(ctx))
	}
	return c, nil
}

// Len is the number of live clients.
func (r *Registry) Len() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.clients)
}

// Sweep drops the clients not seen for idle and returns how many went.
// Clients with a request still in flight are kept.
func (r *Registry) Sweep(idle time.Duration) int {
	cutoff := r.now().Add(-idle).UnixNano()

	r.mu.Lock()
	defer r.mu.Unlock()
	n := 0
	for id, c := range r.clients {
		if c.lastSeen.Load() > cutoff || c.InFlight.Active() {
			continue
		}
		delete(r.clients, id)
		n++
	}
	return n
}

// Run sweeps every interval until ctx is done.
func (r *Registry) Run(ctx context.Context, interval, idle time.Duration) error {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return nil
		case <-ticker.C:
			if n := r.Sweep(idle); n > 0 {
				r.log.Debug("evicted idle clients", zap.Int("evicted", n), zap.Int("live", r.Len()))
			}
		}
	}
}
