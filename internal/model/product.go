package model

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strings"
)

// ProductID is the backend's opaque product identifier. The backend may send
// it as a JSON number or a JSON string; either way it is kept as text.
type ProductID string

// UnmarshalJSON accepts numbers, strings and null.
func (id *ProductID) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if len(data) == 0 || bytes.Equal(data, []byte("null")) {
		*id = ""
		return nil
	}
	if data[0] == '"' {
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return err
		}
		*id = ProductID(s)
		return nil
	}
	var n json.Number
	if err := json.Unmarshal(data, &n); err != nil {
		return fmt.Errorf("product id: %w", err)
	}
	*id = ProductID(n.String())
	return nil
}

// Product is a catalog entry owned by the backend. The storefront only ever
// holds a read-only copy for the lifetime of a page.
type Product struct {
	ID          ProductID `json:"id,omitempty"`
	Title       string    `json:"title"`
	Description string    `json:"description"`
	Price       float64   `json:"price"`
	ImageURL    string    `json:"image_url,omitempty"`
	Featured    bool      `json:"featured"`
}

// DisplayKey returns the id, falling back to the title when the backend did
// not send one. Not guaranteed unique.
func (p Product) DisplayKey() string {
	if id := strings.TrimSpace(string(p.ID)); id != "" {
		return id
	}
	return p.Title
}

// FormatPrice renders a price the way cards show it: "$499.50".
func FormatPrice(price float64) string {
	return fmt.Sprintf("$%.2f", price)
}
