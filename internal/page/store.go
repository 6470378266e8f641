package page

import (
	"errors"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/patrickmn/go-cache"

	"github.com/skfurniture/storefront/internal/metrics"
	"github.com/skfurniture/storefront/pkg/backend"
)

// ErrSessionNotFound is returned when a page id is unknown or expired.
var ErrSessionNotFound = errors.New("page: session not found")

// Store holds live pages keyed by session id. Expired or replaced pages are
// closed so their form stops listening.
type Store struct {
	cache *cache.Cache
	ttl   time.Duration
}

// NewStore creates a Store. cleanupInterval <= 0 disables the background
// janitor; expired pages are then only dropped by DeleteExpired.
func NewStore(ttl, cleanupInterval time.Duration) *Store {
	c := cache.New(ttl, cleanupInterval)
	c.OnEvicted(func(id string, v any) {
		p, ok := v.(*Page)
		if !ok || !p.Close() {
			return
		}
		metrics.ActivePages.Dec()
		slog.Debug("page closed", "page_id", id)
	})
	return &Store{cache: c, ttl: ttl}
}

// Mount starts a fresh page, discarding the one previously held under
// previousID (if any).
func (s *Store) Mount(previousID string, client backend.Client) *Page {
	if previousID != "" {
		s.cache.Delete(previousID)
	}
	p := New(uuid.NewString(), client)
	s.cache.Set(p.ID, p, cache.DefaultExpiration)
	metrics.ActivePages.Inc()
	return p
}

// Get returns a live page and extends its lifetime. A page evicted while
// its lifetime was being extended is reported as not found.
func (s *Store) Get(id string) (*Page, error) {
	if id == "" {
		return nil, ErrSessionNotFound
	}
	v, ok := s.cache.Get(id)
	if !ok {
		return nil, ErrSessionNotFound
	}
	p, ok := v.(*Page)
	if ok && !p.Closed() {
		s.cache.Set(id, p, cache.DefaultExpiration)
		if !p.Closed() {
			return p, nil
		}
	}
	// Evicted while being looked up: drop whatever Set put back.
	s.cache.Delete(id)
	return nil, ErrSessionNotFound
}

// DeleteExpired closes every expired page.
func (s *Store) DeleteExpired() {
	s.cache.DeleteExpired()
}

// Len returns the number of pages held, expired ones included until swept.
func (s *Store) Len() int {
	return s.cache.ItemCount()
}

// TTL is how long an idle page is kept.
func (s *Store) TTL() time.Duration {
	return s.ttl
}
