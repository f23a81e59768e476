package models

import "net/http"

// ErrorResponse describes a request failure with an HTTP status and message.
// Errors carries per-field validation messages for 422 responses.
type ErrorResponse struct {
	StatusCode int                 `json:"-"`
	Message    string              `json:"message"`
	Errors     map[string][]string `json:"errors,omitempty"`
}

// NewErrorResponse creates a new error with a status code and message.
func NewErrorResponse(statusCode int, message string) *ErrorResponse {
	return &ErrorResponse{
		StatusCode: statusCode,
		Message:    message}
}

// NewValidationError creates a 422 error carrying field-level messages.
func NewValidationError(message string, fieldErrors map[string][]string) *ErrorResponse {
	return &ErrorResponse{
		StatusCode: http.StatusUnprocessableEntity,
		Message:    message,
		Errors:     fieldErrors}
}

// Error implements the error interface.
func (e *ErrorResponse) Error() string {
	return e.Message
}
