// Package apierror holds the JSON envelopes for every 4xx/5xx response.
// Handlers never write raw errors, so DB and driver messages stay in the logs.
package apierror

// APIError is the canonical error envelope: {"detail": "..."}.
type APIError struct {
	Detail string `json:"detail"`
}

func New(msg string) *APIError {
	return &APIError{Detail: msg}
}

// ValidationError carries per-field messages, answered with 422. Keys are
// field paths such as "stock_maximo" or "items[2].cantidad".
type ValidationError struct {
	Detail string            `json:"detail"`
	Fields map[string]string `json:"fields"`
}

func NewValidation(fields map[string]string) *ValidationError {
	return &ValidationError{Detail: "Error de validacion", Fields: fields}
}

// WithDetail replaces the generic summary, e.g. with "Stock insuficiente".
func (e *ValidationError) WithDetail(msg string) *ValidationError {
	e.Detail = msg
	return e
}
