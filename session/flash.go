package session

import (
	"sync"

	"coffeelink/cart"
)

// Flash queues notifications until the next page render drains them.
type Flash struct {
	mu      sync.Mutex
	pending []cart.Notification
}

func (f *Flash) Notify(n cart.Notification) {
	f.mu.Lock()
	f.pending = append(f.pending, n)
	f.mu.Unlock()
}

// Add queues a message at the given level.
func (f *Flash) Add(level cart.Level, message string) {
	f.Notify(cart.Notification{Level: level, Message: message})
}

// Drain returns the queued notifications and empties the queue.
func (f *Flash) Drain() []cart.Notification {
	f.mu.Lock()
	defer f.mu.Unlock()

	out := f.pending
	f.pending = nil
	return out
}
