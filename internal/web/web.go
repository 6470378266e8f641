// Package web renders the storefront page from embedded templates.
package web

import (
	"bytes"
	"embed"
	"fmt"
	"html/template"
	"io"
	"io/fs"
	"net/http"
	"time"

	"github.com/skfurniture/storefront/internal/catalog"
	"github.com/skfurniture/storefront/internal/contact"
	"github.com/skfurniture/storefront/internal/model"
)

//go:embed views/*.html
var viewsFS embed.FS

//go:embed static/*
var staticFS embed.FS

// Brand is the retailer name shown in the navbar, hero and footer.
const Brand = "SK Furniture Home Decoration"

// PageData is everything the page template needs.
type PageData struct {
	Catalog catalog.View
	Contact contact.State
	// FocusContact is set after an Inquire so the message field gets focus.
	FocusContact bool
	Year         int
}

// NewPageData assembles PageData for the current year.
func NewPageData(v catalog.View, s contact.State, focus bool) PageData {
	return PageData{Catalog: v, Contact: s, FocusContact: focus, Year: time.Now().Year()}
}

// Renderer executes the page template.
type Renderer struct {
	templates *template.Template
}

// NewRenderer parses the embedded templates.
func NewRenderer() (*Renderer, error) {
	tmpl, err := template.New("").Funcs(funcMap()).ParseFS(viewsFS, "views/*.html")
	if err != nil {
		return nil, fmt.Errorf("parse templates: %w", err)
	}
	return &Renderer{templates: tmpl}, nil
}

// Render writes the full page. The page is buffered so a template error
// never produces a half-written response.
func (r *Renderer) Render(w io.Writer, data PageData) error {
	var buf bytes.Buffer
	if err := r.templates.ExecuteTemplate(&buf, "page", data); err != nil {
		return fmt.Errorf("render page: %w", err)
	}
	_, err := buf.WriteTo(w)
	return err
}

// Static serves the embedded stylesheet and images under /static/.
func Static() http.Handler {
	sub, err := fs.Sub(staticFS, "static")
	if err != nil {
		panic(err)
	}
	return http.StripPrefix("/static/", http.FileServer(http.FS(sub)))
}

func funcMap() template.FuncMap {
	return template.FuncMap{
		"brand":      func() string { return Brand },
		"msgLoading": func() string { return catalog.MsgLoading },
		"msgEmpty":   func() string { return catalog.MsgEmpty },
		"statusClass": func(s model.SubmitStatus) string {
			switch s {
			case model.StatusSuccess:
				return "note note-success"
			case model.StatusError:
				return "note note-error"
			default:
				return "note"
			}
		},
	}
}
