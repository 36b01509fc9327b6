package api

import (
	"errors"
	"fmt"
	"net/http"
)

// Fallback messages used when the server gives no usable error text.
const (
	msgNetworkError  = "Network error"
	msgRequestFailed = "Request failed"
)

// APIError is a non-2xx response (or a 2xx envelope with success=false).
// Error returns the server-provided message so views can show it verbatim.
type APIError struct {
	Status  int
	Message string
	Method  string
	Path    string
}

func (e *APIError) Error() string {
	if e.Message == "" {
		return msgRequestFailed
	}
	return e.Message
}

// Detail returns a log-friendly description including the request line.
func (e *APIError) Detail() string {
	return fmt.Sprintf("%s %s: status %d: %s", e.Method, e.Path, e.Status, e.Error())
}

// IsUnauthorized reports whether err (or any error in its chain) is an
// APIError with status 401.
func IsUnauthorized(err error) bool {
	var apiErr *APIError
	return errors.As(err, &apiErr) && apiErr.Status == http.StatusUnauthorized
}

// AsAPIError extracts the APIError from err's chain.
func AsAPIError(err error) (*APIError, bool) {
	var apiErr *APIError
	ok := errors.As(err, &apiErr)
	return apiErr, ok
}

// DecodeError reports a response body whose shape matched none of the
// forms accepted for an endpoint.
type DecodeError struct {
	Endpoint string
	Reason   string
	Err      error
}

func (e *DecodeError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("decoding %s: %s: %v", e.Endpoint, e.Reason, e.Err)
	}
	return fmt.Sprintf("decoding %s: %s", e.Endpoint, e.Reason)
}

func (e *DecodeError) Unwrap() error {
	return e.Err
}

// IsDecodeError reports whether err (or any error in its chain) is a
// DecodeError.
func IsDecodeError(err error) bool {
	var decErr *DecodeError
	return errors.As(err, &decErr)
}
