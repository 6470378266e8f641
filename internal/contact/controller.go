// Package contact implements the quote-request form: its fields, the
// submission state machine and the status note shown under the button.
package contact

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"sync"
	"time"

	"github.com/go-playground/validator/v10"

	"github.com/skfurniture/storefront/internal/bridge"
	"github.com/skfurniture/storefront/internal/metrics"
	"github.com/skfurniture/storefront/internal/model"
	"github.com/skfurniture/storefront/pkg/backend"
)

// Visitor-facing copy.
const (
	NoteSuccess = "Thanks! We will reach out shortly."
	NoteError   = "Something went wrong. Please try again."
	NoteInvalid = "Please fill in your name, a valid email address and a message."

	inquiryTemplate = "I would like to know more about: %s"
)

var (
	// ErrSubmitInFlight is returned when a submit arrives while another is loading.
	ErrSubmitInFlight = errors.New("contact: submission already in flight")
	// ErrInvalid is returned when a required field is missing or the email is malformed.
	ErrInvalid = errors.New("contact: invalid form")
	// ErrSubmitFailed wraps backend and transport failures.
	ErrSubmitFailed = errors.New("contact: submission failed")
)

var validate = validator.New()

// Form holds the raw field values as the visitor typed them.
type Form struct {
	Name    string
	Email   string
	Phone   string
	Message string
}

// Request converts the form to the backend payload.
func (f Form) Request() model.InquiryRequest {
	return model.InquiryRequest{
		Name:    f.Name,
		Email:   f.Email,
		Phone:   f.Phone,
		Message: f.Message,
	}
}

// Validate applies the required/email checks to the trimmed fields.
func (f Form) Validate() error {
	trimmed := model.InquiryRequest{
		Name:    strings.TrimSpace(f.Name),
		Email:   strings.TrimSpace(f.Email),
		Phone:   strings.TrimSpace(f.Phone),
		Message: strings.TrimSpace(f.Message),
	}
	if err := validate.Struct(trimmed); err != nil {
		return fmt.Errorf("%w: %w", ErrInvalid, err)
	}
	return nil
}

// State is a snapshot of the form for rendering.
type State struct {
	Form   Form
	Status model.SubmitStatus
	Note   string
}

// Sending reports whether the submit button should be disabled.
func (s State) Sending() bool { return s.Status == model.StatusLoading }

// Controller owns one page's form. It is safe for concurrent use; a second
// Submit while one is in flight is rejected rather than queued.
type Controller struct {
	client backend.Client
	logger *slog.Logger

	mu     sync.Mutex
	form   Form
	status model.SubmitStatus
	note   string
	scroll bool
	// done is closed when the in-flight submit settles.
	done chan struct{}

	unsubscribe func()
}

// NewController creates a Controller and registers it as the bridge's
// listener until Close.
func NewController(client backend.Client, b *bridge.Bridge) *Controller {
	c := &Controller{
		client: client,
		logger: slog.Default().With("component", "contact"),
		status: model.StatusIdle,
	}
	if b != nil {
		c.unsubscribe = b.Subscribe(c.onInquire)
	}
	return c
}

// Close detaches the controller from its bridge.
func (c *Controller) Close() {
	if c.unsubscribe != nil {
		c.unsubscribe()
	}
}

// onInquire prefills the message for the selected product. Other fields are
// left as they are.
func (c *Controller) onInquire(p model.Product) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.form.Message = fmt.Sprintf(inquiryTemplate, p.Title)
	c.scroll = true
}

// State returns the current form snapshot.
func (c *Controller) State() State {
	c.mu.Lock()
	defer c.mu.Unlock()
	return State{Form: c.form, Status: c.status, Note: c.note}
}

// TakeScroll reports whether the form asked to be scrolled into view since
// the last call, and clears the request.
func (c *Controller) TakeScroll() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	s := c.scroll
	c.scroll = false
	return s
}

// Update replaces the field values, as typing does. Status and note are kept.
func (c *Controller) Update(f Form) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.form = f
}

// Submit sends f as one inquiry. It takes the field values first, so a
// rejected or failed submit leaves exactly what the visitor entered.
func (c *Controller) Submit(ctx context.Context, f Form) error {
	c.mu.Lock()
	if c.status == model.StatusLoading {
		c.mu.Unlock()
		metrics.Inquiries.WithLabelValues("in_flight").Inc()
		return ErrSubmitInFlight
	}
	c.form = f
	if err := f.Validate(); err != nil {
		c.status = model.StatusIdle
		c.note = NoteInvalid
		c.mu.Unlock()
		metrics.Inquiries.WithLabelValues("invalid").Inc()
		return err
	}
	c.status = model.StatusLoading
	c.note = ""
	done := make(chan struct{})
	c.done = done
	c.mu.Unlock()

	start := time.Now()
	err := c.client.SubmitInquiry(ctx, f.Request())
	metrics.BackendDuration.WithLabelValues("submit_inquiry").Observe(time.Since(start).Seconds())

	c.mu.Lock()
	defer c.mu.Unlock()
	defer close(done)
	if err != nil {
		c.status = model.StatusError
		c.note = errorNote(err)
		metrics.Inquiries.WithLabelValues("error").Inc()
		c.logger.Warn("inquiry submit failed", "error", err)
		return fmt.Errorf("%w: %w", ErrSubmitFailed, err)
	}

	c.status = model.StatusSuccess
	c.note = NoteSuccess
	c.form = Form{}
	metrics.Inquiries.WithLabelValues("success").Inc()
	c.logger.Info("inquiry submitted")
	return nil
}

// Wait blocks until no submit is in flight and returns the settled state.
// It gives up with ctx's error if ctx ends first.
func (c *Controller) Wait(ctx context.Context) (State, error) {
	c.mu.Lock()
	done := c.done
	loading := c.status == model.StatusLoading
	c.mu.Unlock()

	if loading && done != nil {
		select {
		case <-done:
		case <-ctx.Done():
			return c.State(), ctx.Err()
		}
	}
	return c.State(), nil
}

// errorNote puts the backend's own message, when it sent one, ahead of the
// retry prompt.
func errorNote(err error) string {
	var apiErr *backend.APIError
	if errors.As(err, &apiErr) && apiErr.Message != "" {
		return fmt.Sprintf("Something went wrong (%s). Please try again.", apiErr.Message)
	}
	return NoteError
}
