// Package inflight rejects duplicate submissions of an action while a previous
// one is still outstanding.
package inflight

import "sync"

// Guard hands out per-key exclusive slots. The zero value is ready to use.
type Guard struct {
	busy sync.Map // key -> struct{}
}

// TryAcquire claims key. It never blocks: when the key is already held it
// returns ok=false. The returned release must be called exactly once.
func (g *Guard) TryAcquire(key string) (release func(), ok bool) {
	if _, loaded := g.busy.LoadOrStore(key, struct{}{}); loaded {
		return nil, false
	}
	var once sync.Once
	return func() { once.Do(func() { g.busy.Delete(key) }) }, true
}

// Busy reports whether key is currently held.
func (g *Guard) Busy(key string) bool {
	_, ok := g.busy.Load(key)
	return ok
}

// Active reports whether any key is held.
func (g *Guard) Active() bool {
	active := false
	g.busy.Range(func(any, any) bool {
		active = true
		return false
	})
	return active
}
