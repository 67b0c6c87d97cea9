package gotoapi

import (
	"errors"
	"fmt"
	"net/http"
)

// StatusError is returned for any upstream response whose status is not 200
// OK. The response body, if any, is kept so callers can surface it.
type StatusError struct {
	Method        string
	URL           string
	StatusCode    int
	StatusMessage string
	Header        http.Header
	Body          string
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("goto api: %s %s: %s", e.Method, e.URL, e.StatusMessage)
}

// IsNotFound reports whether err is an upstream 404.
func IsNotFound(err error) bool {
	var se *StatusError
	return errors.As(err, &se) && se.StatusCode == http.StatusNotFound
}
