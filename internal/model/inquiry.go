package model

// InquiryRequest is the lead sent to POST /api/inquiry.
// name, email and message are required; phone is optional.
type InquiryRequest struct {
	Name    string `json:"name" validate:"required"`
	Email   string `json:"email" validate:"required,email"`
	Phone   string `json:"phone"`
	Message string `json:"message" validate:"required"`
}

// SubmitStatus is the state of the contact form's submission.
type SubmitStatus string

const (
	StatusIdle    SubmitStatus = "idle"
	StatusLoading SubmitStatus = "loading"
	StatusSuccess SubmitStatus = "success"
	StatusError   SubmitStatus = "error"
)
