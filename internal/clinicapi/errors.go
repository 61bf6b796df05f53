package clinicapi

import "fmt"

type Error string

const (
	// ErrNotAuthenticated tells the caller there is no usable session, either because
	// no token is stored, the token expired or the API rejected it.
	ErrNotAuthenticated = Error("not authenticated, sign in again")
)

func (e Error) Error() string {
	return string(e)
}

// APIError is an error response returned by the clinic API.
type APIError struct {
	StatusCode int    `json:"-"`
	Detail     string `json:"detail"`
}

func (e *APIError) Error() string {
	return fmt.Sprintf("clinic API returned %d: %s", e.StatusCode, e.Detail)
}
