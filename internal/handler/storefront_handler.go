package handler

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/skfurniture/storefront/internal/catalog"
	"github.com/skfurniture/storefront/internal/contact"
	"github.com/skfurniture/storefront/internal/model"
	"github.com/skfurniture/storefront/internal/page"
	"github.com/skfurniture/storefront/internal/web"
	"github.com/skfurniture/storefront/pkg/backend"
)

// pageCookie carries the visitor's page session id.
const pageCookie = "sf_page"

// maxFormBytes bounds the contact form body.
const maxFormBytes = 64 << 10

// StorefrontHandler serves the page and its two form actions.
type StorefrontHandler struct {
	pages          *page.Store
	client         backend.Client
	renderer       *web.Renderer
	productLimit   int
	catalogTimeout time.Duration
}

// NewStorefrontHandler creates a StorefrontHandler. client is bound to a
// configured base URL; request headers never choose where it calls.
// catalogTimeout <= 0 leaves the product fetch bounded by the request only.
func NewStorefrontHandler(pages *page.Store, client backend.Client, renderer *web.Renderer, productLimit int, catalogTimeout time.Duration) *StorefrontHandler {
	return &StorefrontHandler{
		pages:          pages,
		client:         client,
		renderer:       renderer,
		productLimit:   productLimit,
		catalogTimeout: catalogTimeout,
	}
}

// Index handles GET /. Every display is a fresh mount: the previous page is
// discarded and the catalog is fetched once.
func (h *StorefrontHandler) Index(w http.ResponseWriter, r *http.Request) {
	var previousID string
	if c, err := r.Cookie(pageCookie); err == nil {
		previousID = c.Value
	}

	p := h.pages.Mount(previousID, h.client)
	h.setPageCookie(w, r, p.ID)

	ctx := r.Context()
	if h.catalogTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, h.catalogTimeout)
		defer cancel()
	}
	// Load logs its own failures; the view already carries the visitor copy.
	view, _ := catalog.NewLoader(h.client, h.productLimit).Load(ctx)
	p.SetCatalog(view)

	h.render(w, p, http.StatusOK, false)
}

// Inquire handles POST /inquire: the card's key arrives as "product" along
// with whatever the visitor has typed into the form so far.
func (h *StorefrontHandler) Inquire(w http.ResponseWriter, r *http.Request) {
	p, ok := h.currentPage(w, r)
	if !ok {
		return
	}

	p.Contact.Update(formFromRequest(r))
	key := r.PostFormValue("product")
	delivered, err := p.Inquire(key)
	if errors.Is(err, page.ErrUnknownProduct) {
		slog.Warn("inquire for unknown product", "page_id", p.ID, "key", key)
		h.render(w, p, http.StatusNotFound, false)
		return
	}
	if !delivered {
		slog.Warn("inquire not delivered", "page_id", p.ID, "key", key)
	}

	h.render(w, p, http.StatusOK, p.Contact.TakeScroll())
}

// Contact handles POST /contact. A repeat post while the first is still
// sending waits for it and shows its outcome.
func (h *StorefrontHandler) Contact(w http.ResponseWriter, r *http.Request) {
	p, ok := h.currentPage(w, r)
	if !ok {
		return
	}

	// The browser drops the first navigation on a double click; the lead
	// must still go out. The backend client's timeout bounds the call.
	ctx := context.WithoutCancel(r.Context())

	status := http.StatusOK
	if err := p.Contact.Submit(ctx, formFromRequest(r)); err != nil {
		switch {
		case errors.Is(err, contact.ErrInvalid):
			status = http.StatusUnprocessableEntity
		case errors.Is(err, contact.ErrSubmitInFlight):
			status = h.awaitInFlight(r, p)
		default:
			status = http.StatusBadGateway
		}
	}
	h.render(w, p, status, false)
}

// awaitInFlight waits for the page's pending submit and maps its outcome to
// a status. If the visitor leaves first the post is answered with 409.
func (h *StorefrontHandler) awaitInFlight(r *http.Request, p *page.Page) int {
	state, err := p.Contact.Wait(r.Context())
	if err != nil {
		return http.StatusConflict
	}
	if state.Status == model.StatusError {
		return http.StatusBadGateway
	}
	return http.StatusOK
}

// currentPage resolves the page behind the cookie. An unknown or expired
// session sends the visitor back to a fresh page.
func (h *StorefrontHandler) currentPage(w http.ResponseWriter, r *http.Request) (*page.Page, bool) {
	r.Body = http.MaxBytesReader(w, r.Body, maxFormBytes)
	if err := r.ParseForm(); err != nil {
		http.Error(w, "invalid form", http.StatusBadRequest)
		return nil, false
	}

	var id string
	if c, err := r.Cookie(pageCookie); err == nil {
		id = c.Value
	}
	p, err := h.pages.Get(id)
	if err != nil {
		slog.Info("page session expired", "page_id", id)
		http.Redirect(w, r, "/#contact", http.StatusSeeOther)
		return nil, false
	}
	return p, true
}

func (h *StorefrontHandler) render(w http.ResponseWriter, p *page.Page, status int, focus bool) {
	data := web.NewPageData(p.Catalog(), p.Contact.State(), focus)
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.Header().Set("Cache-Control", "no-store")
	// Render buffers, so the status is only committed once the page is built.
	rw := &deferredStatus{ResponseWriter: w, status: status}
	if err := h.renderer.Render(rw, data); err != nil {
		slog.Error("render failed", "page_id", p.ID, "error", err)
		http.Error(w, "internal error", http.StatusInternalServerError)
	}
}

func (h *StorefrontHandler) setPageCookie(w http.ResponseWriter, r *http.Request, id string) {
	http.SetCookie(w, &http.Cookie{
		Name:     pageCookie,
		Value:    id,
		Path:     "/",
		MaxAge:   int(h.pages.TTL().Seconds()),
		HttpOnly: true,
		Secure:   requestScheme(r) == "https",
		SameSite: http.SameSiteLaxMode,
	})
}

func formFromRequest(r *http.Request) contact.Form {
	return contact.Form{
		Name:    r.PostFormValue("name"),
		Email:   r.PostFormValue("email"),
		Phone:   r.PostFormValue("phone"),
		Message: r.PostFormValue("message"),
	}
}

func requestScheme(r *http.Request) string {
	if proto := r.Header.Get("X-Forwarded-Proto"); proto != "" {
		return strings.ToLower(strings.TrimSpace(strings.Split(proto, ",")[0]))
	}
	if r.TLS != nil {
		return "https"
	}
	return "http"
}

// deferredStatus writes the pending status with the first body byte.
type deferredStatus struct {
	http.ResponseWriter
	status      int
	wroteHeader bool
}

func (d *deferredStatus) Write(b []byte) (int, error) {
	if !d.wroteHeader {
		d.wroteHeader = true
		d.ResponseWriter.WriteHeader(d.status)
	}
	return d.ResponseWriter.Write(b)
}
