// Package page keeps the state of each visitor's open storefront page.
//
// A page is created when the storefront is displayed (GET /) and lives until
// its session expires or the visitor loads the page again. It owns the
// catalog snapshot, the inquiry bridge and the contact form controller wired
// to that bridge.
package page

import (
	"errors"
	"sync"
	"sync/atomic"

	"github.com/skfurniture/storefront/internal/bridge"
	"github.com/skfurniture/storefront/internal/catalog"
	"github.com/skfurniture/storefront/internal/contact"
	"github.com/skfurniture/storefront/internal/metrics"
	"github.com/skfurniture/storefront/pkg/backend"
)

// ErrUnknownProduct is returned by Inquire for a key not on the page.
var ErrUnknownProduct = errors.New("page: unknown product")

// Page is one visitor's page.
type Page struct {
	ID      string
	Bridge  *bridge.Bridge
	Contact *contact.Controller

	mu      sync.RWMutex
	catalog catalog.View

	closed atomic.Bool
}

// New creates a page whose contact form listens on its own bridge.
func New(id string, client backend.Client) *Page {
	b := bridge.New()
	return &Page{
		ID:      id,
		Bridge:  b,
		Contact: contact.NewController(client, b),
		catalog: catalog.Loading(),
	}
}

// Catalog returns the page's current grid.
func (p *Page) Catalog() catalog.View {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return p.catalog
}

// SetCatalog replaces the grid wholesale.
func (p *Page) SetCatalog(v catalog.View) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.catalog = v
}

// Inquire publishes the card's product on the bridge. It reports whether a
// form was listening.
func (p *Page) Inquire(key string) (bool, error) {
	product, ok := p.Catalog().Find(key)
	if !ok {
		return false, ErrUnknownProduct
	}
	delivered := p.Bridge.Publish(product)
	if delivered {
		metrics.BridgeEvents.WithLabelValues("true").Inc()
	} else {
		metrics.BridgeEvents.WithLabelValues("false").Inc()
	}
	return delivered, nil
}

// Close tears the page down. It reports whether this call closed it.
func (p *Page) Close() bool {
	if !p.closed.CompareAndSwap(false, true) {
		return false
	}
	p.Contact.Close()
	return true
}

// Closed reports whether the page has been torn down.
func (p *Page) Closed() bool {
	return p.closed.Load()
}
