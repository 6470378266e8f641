// Package backend is the storefront's client for the catalog backend.
// Uses raw HTTP calls against the two endpoints the page needs.
package backend

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/skfurniture/storefront/internal/model"
)

const (
	productsPath = "/api/products"
	inquiryPath  = "/api/inquiry"

	// maxErrorBody caps how much of a failed response is read for its message.
	maxErrorBody = 64 << 10
)

// ErrNoOrigin is returned when the client has no base URL to call.
var ErrNoOrigin = errors.New("backend: no base URL")

// APIError is a non-2xx response from the backend.
type APIError struct {
	StatusCode int
	// Message is taken from an {"error": ...} or {"message": ...} body, if any.
	Message string
}

func (e *APIError) Error() string {
	if e.Message != "" {
		return fmt.Sprintf("backend: status %d: %s", e.StatusCode, e.Message)
	}
	return fmt.Sprintf("backend: status %d", e.StatusCode)
}

// Client is the contract the storefront consumes from the backend.
type Client interface {
	// ListProducts returns up to limit products. A body that is valid JSON
	// but not an array yields an empty list.
	ListProducts(ctx context.Context, limit int) ([]model.Product, error)
	// SubmitInquiry posts one lead. Only a 2xx status counts as success.
	SubmitInquiry(ctx context.Context, req model.InquiryRequest) error
}

// RealClient talks to the backend over HTTP.
type RealClient struct {
	// BaseURL is prepended to every path.
	BaseURL    string
	httpClient *http.Client
}

// NewClient creates a RealClient. A zero timeout leaves calls bounded only by
// their context.
func NewClient(baseURL string, timeout time.Duration) *RealClient {
	return &RealClient{
		BaseURL:    strings.TrimRight(baseURL, "/"),
		httpClient: &http.Client{Timeout: timeout},
	}
}

func (c *RealClient) endpoint(path string, query url.Values) (string, error) {
	if c.BaseURL == "" {
		return "", ErrNoOrigin
	}
	u := c.BaseURL + path
	if len(query) > 0 {
		u += "?" + query.Encode()
	}
	return u, nil
}

// ListProducts calls GET /api/products?limit=N.
func (c *RealClient) ListProducts(ctx context.Context, limit int) ([]model.Product, error) {
	q := url.Values{}
	if limit > 0 {
		q.Set("limit", strconv.Itoa(limit))
	}
	endpoint, err := c.endpoint(productsPath, q)
	if err != nil {
		return nil, err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Accept", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("backend list products: %w", err)
	}
	defer resp.Body.Close()

	if !isSuccess(resp.StatusCode) {
		return nil, fmt.Errorf("backend list products: %w", decodeAPIError(resp))
	}

	var raw json.RawMessage
	if err := json.NewDecoder(resp.Body).Decode(&raw); err != nil {
		return nil, fmt.Errorf("backend list products: decode: %w", err)
	}
	raw = bytes.TrimSpace(raw)
	if len(raw) == 0 || raw[0] != '[' {
		return []model.Product{}, nil
	}

	var products []model.Product
	if err := json.Unmarshal(raw, &products); err != nil {
		return nil, fmt.Errorf("backend list products: decode: %w", err)
	}
	if products == nil {
		products = []model.Product{}
	}
	return products, nil
}

// SubmitInquiry calls POST /api/inquiry. The success body is not read.
func (c *RealClient) SubmitInquiry(ctx context.Context, inquiry model.InquiryRequest) error {
	endpoint, err := c.endpoint(inquiryPath, nil)
	if err != nil {
		return err
	}

	jsonBody, err := json.Marshal(inquiry)
	if err != nil {
		return err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, bytes.NewReader(jsonBody))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("backend submit inquiry: %w", err)
	}
	defer resp.Body.Close()

	if !isSuccess(resp.StatusCode) {
		return fmt.Errorf("backend submit inquiry: %w", decodeAPIError(resp))
	}
	return nil
}

func isSuccess(code int) bool {
	return code >= http.StatusOK && code < http.StatusMultipleChoices
}

// decodeAPIError builds an APIError, picking up a structured message when
// the body carries one. Unparseable bodies leave Message empty.
func decodeAPIError(resp *http.Response) *APIError {
	apiErr := &APIError{StatusCode: resp.StatusCode}

	var body struct {
		Error   json.RawMessage `json:"error"`
		Message string          `json:"message"`
	}
	if err := json.NewDecoder(io.LimitReader(resp.Body, maxErrorBody)).Decode(&body); err != nil {
		return apiErr
	}

	// "error" is either a string or {"message": "..."}.
	if len(body.Error) > 0 {
		var s string
		if err := json.Unmarshal(body.Error, &s); err == nil {
			apiErr.Message = s
		} else {
			var nested struct {
				Message string `json:"message"`
			}
			if err := json.Unmarshal(body.Error, &nested); err == nil {
				apiErr.Message = nested.Message
			}
		}
	}
	if apiErr.Message == "" {
		apiErr.Message = body.Message
	}
	apiErr.Message = strings.TrimSpace(apiErr.Message)
	return apiErr
}
