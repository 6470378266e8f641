// Package bridge carries "Inquire" selections from product cards to the
// contact form of the same page.
//
// A Bridge is owned by one page and handed to both sides explicitly. Delivery
// is synchronous and at-most-once: a publish reaches the listener registered
// at that moment or is dropped. Nothing is queued or replayed.
package bridge

import (
	"sync"

	"github.com/skfurniture/storefront/internal/model"
)

// Listener receives the product selected on a card.
type Listener func(p model.Product)

// Bridge holds at most one active listener.
type Bridge struct {
	mu       sync.Mutex
	listener Listener
	// gen identifies the current registration so a stale unsubscribe is a no-op.
	gen uint64
}

// New creates a Bridge with no listener.
func New() *Bridge {
	return &Bridge{}
}

// Subscribe makes l the active listener, replacing any previous one.
// The returned func removes l if it is still the active listener.
func (b *Bridge) Subscribe(l Listener) (unsubscribe func()) {
	b.mu.Lock()
	b.gen++
	gen := b.gen
	b.listener = l
	b.mu.Unlock()

	var once sync.Once
	return func() {
		once.Do(func() {
			b.mu.Lock()
			defer b.mu.Unlock()
			if b.gen == gen {
				b.listener = nil
			}
		})
	}
}

// Publish delivers p to the active listener and reports whether anyone
// received it. The listener runs on the caller's goroutine, outside the lock.
func (b *Bridge) Publish(p model.Product) bool {
	b.mu.Lock()
	l := b.listener
	b.mu.Unlock()

	if l == nil {
		return false
	}
	l(p)
	return true
}

// HasListener reports whether a listener is registered.
func (b *Bridge) HasListener() bool {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.listener != nil
}
