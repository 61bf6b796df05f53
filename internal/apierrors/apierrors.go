// Package apierrors contains the error types exchanged between services and HTTP handlers.
package apierrors

import "net/http"

// APIError represents an error that should be translated into an HTTP response.
type APIError struct {
	Detail         string `json:"detail"`
	httpStatusCode int
}

// APIErrorOption determines the Functional Options used to create a new APIError.
type APIErrorOption func(err *APIError)

// WithDetail determines the error detail.
func WithDetail(detail string) APIErrorOption {
	return func(err *APIError) {
		err.Detail = detail
	}
}

// WithHTTPStatusCode determines the HTTP status code associated to the error.
func WithHTTPStatusCode(statusCode int) APIErrorOption {
	return func(err *APIError) {
		err.httpStatusCode = statusCode
	}
}

// NewAPIError creates a new APIError using the given options.
func NewAPIError(opts ...APIErrorOption) *APIError {
	err := &APIError{httpStatusCode: http.StatusInternalServerError}
	for _, opt := range opts {
		opt(err)
	}
	return err
}

func (a APIError) Error() string {
	return a.Detail
}

// HTTPStatusCode gets the HTTP status code associated to the error.
func (a APIError) HTTPStatusCode() int {
	return a.httpStatusCode
}

// ValidationError represents an invalid value given to a field.
type ValidationError struct {
	Field  string `json:"field"`
	Detail string `json:"detail"`
}

// NewValidationError creates a new ValidationError for the given field.
func NewValidationError(field string, detail string) *ValidationError {
	return &ValidationError{Field: field, Detail: detail}
}

func (v ValidationError) Error() string {
	return v.Field + " " + v.Detail
}
