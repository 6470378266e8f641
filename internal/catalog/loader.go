// Package catalog loads the product grid shown on the storefront page.
package catalog

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strconv"
	"time"

	"github.com/skfurniture/storefront/internal/metrics"
	"github.com/skfurniture/storefront/internal/model"
	"github.com/skfurniture/storefront/pkg/backend"
)

// DefaultLimit is how many products the grid asks for.
const DefaultLimit = 24

// Visitor-facing copy.
const (
	MsgLoading    = "Loading products..."
	MsgLoadFailed = "Failed to load products"
	MsgEmpty      = "No products yet. Add some via the backend endpoint to see them here."
)

// ErrLoadFailed wraps every fetch or decode failure. Callers do not get to
// tell the two apart.
var ErrLoadFailed = errors.New("catalog: load failed")

// State is where a load is in its lifecycle.
type State string

const (
	StateLoading State = "loading"
	StateError   State = "error"
	StateReady   State = "ready"
)

// Card is one product in the grid.
type Card struct {
	// Key is unique within a View.
	Key     string
	Product model.Product
	Price   string
}

// View is a snapshot of the grid. It is replaced wholesale on each load.
type View struct {
	State State
	Error string
	Cards []Card
}

// Loading returns the view shown while the fetch is in flight.
func Loading() View {
	return View{State: StateLoading}
}

// IsLoading reports whether the fetch is still in flight.
func (v View) IsLoading() bool { return v.State == StateLoading }

// IsEmpty reports a successful load that returned no products.
func (v View) IsEmpty() bool { return v.State == StateReady && len(v.Cards) == 0 }

// Find returns the product behind a card key.
func (v View) Find(key string) (model.Product, bool) {
	for _, c := range v.Cards {
		if c.Key == key {
			return c.Product, true
		}
	}
	return model.Product{}, false
}

// Loader fetches the grid from the backend.
type Loader struct {
	client backend.Client
	limit  int
	logger *slog.Logger
}

// NewLoader creates a Loader. A non-positive limit means DefaultLimit.
func NewLoader(client backend.Client, limit int) *Loader {
	if limit <= 0 {
		limit = DefaultLimit
	}
	return &Loader{
		client: client,
		limit:  limit,
		logger: slog.Default().With("component", "catalog"),
	}
}

// Load performs one fetch. It always returns a renderable View; the error is
// for logging and is ErrLoadFailed-wrapped.
func (l *Loader) Load(ctx context.Context) (View, error) {
	start := time.Now()
	products, err := l.client.ListProducts(ctx, l.limit)
	metrics.BackendDuration.WithLabelValues("list_products").Observe(time.Since(start).Seconds())
	if err != nil {
		metrics.ProductLoads.WithLabelValues("error").Inc()
		l.logger.Warn("product load failed", "error", err)
		return View{State: StateError, Error: MsgLoadFailed}, fmt.Errorf("%w: %w", ErrLoadFailed, err)
	}

	// The grid is bounded even if the backend ignores the limit.
	if len(products) > l.limit {
		products = products[:l.limit]
	}

	cards := BuildCards(products, l.logger)
	if len(cards) == 0 {
		metrics.ProductLoads.WithLabelValues("empty").Inc()
	} else {
		metrics.ProductLoads.WithLabelValues("ok").Inc()
	}
	l.logger.Debug("products loaded", "count", len(cards))
	return View{State: StateReady, Cards: cards}, nil
}

// BuildCards assigns each product a unique key: its display key, or the
// display key plus "#n" for the n-th product sharing it.
func BuildCards(products []model.Product, logger *slog.Logger) []Card {
	cards := make([]Card, 0, len(products))
	seen := make(map[string]int, len(products))
	for _, p := range products {
		base := p.DisplayKey()
		key := base
		seen[base]++
		if n := seen[base]; n > 1 {
			key = base + "#" + strconv.Itoa(n)
			for seen[key] > 0 {
				n++
				key = base + "#" + strconv.Itoa(n)
			}
			seen[key]++
			if logger != nil {
				logger.Warn("duplicate product key", "key", base, "assigned", key)
			}
		}
		cards = append(cards, Card{
			Key:     key,
			Product: p,
			Price:   model.FormatPrice(p.Price),
		})
	}
	return cards
}
