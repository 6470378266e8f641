package handler

import (
	"github.com/skfurniture/storefront/internal/page"
)

// Handler serves operational endpoints.
type Handler struct {
	pages *page.Store
}

func New(pages *page.Store) *Handler {
	return &Handler{pages: pages}
}
