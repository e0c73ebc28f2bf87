package nodebird

import (
	"errors"
	"net/http"
)

// HTTPError is an error that knows which status code it should be answered with
type HTTPError struct {
	Status  int
	Message string
	Err     error
}

func NewHTTPError(status int, message string) *HTTPError {
	return &HTTPError{Status: status, Message: message}
}

// NotFound is what every request that matches no route turns into
func NotFound() *HTTPError {
	return NewHTTPError(http.StatusNotFound, "Not Found")
}

func (e *HTTPError) Error() string {
	if e.Message != "" {
		return e.Message
	}
	if e.Err != nil {
		return e.Err.Error()
	}
	return http.StatusText(e.StatusCode())
}

func (e *HTTPError) Unwrap() error { return e.Err }

// StatusCode defaults to 500 when no status was set
func (e *HTTPError) StatusCode() int {
	if e.Status == 0 {
		return http.StatusInternalServerError
	}
	return e.Status
}

// StatusOf picks the response status for an error reaching the error handler
func StatusOf(err error) int {
	var he *HTTPError
	switch {
	case errors.As(err, &he):
		return he.StatusCode()
	case errors.Is(err, ErrUserNotFound), errors.Is(err, ErrPostNotFound):
		return http.StatusNotFound
	}
	return http.StatusInternalServerError
}
