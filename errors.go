package unfurl

import (
	"errors"
	"net/http"

	"github.com/tvanier/unfurl/gotoapi"
)

// Kind classifies why a request could not produce a preview page.
type Kind int

// Error kinds.
const (
	// KindInternal is anything unexpected. Reported as 500.
	KindInternal Kind = iota
	// KindNotFound means the path does not name a meeting or webinar.
	KindNotFound
	// KindUpstream is an API failure that is passed through to the caller
	// with the upstream status code.
	KindUpstream
)

func (k Kind) String() string {
	switch k {
	case KindNotFound:
		return "not_found"
	case KindUpstream:
		return "upstream"
	default:
		return "internal"
	}
}

// Error is the only error type returned by Handler. StatusCode is the HTTP
// status the response will carry.
type Error struct {
	Kind       Kind
	StatusCode int
	Message    string
	Err        error
}

func (e *Error) Error() string {
	return e.Message
}

func (e *Error) Unwrap() error {
	return e.Err
}

func notFoundError(path string) *Error {
	return &Error{
		Kind:       KindNotFound,
		StatusCode: http.StatusNotFound,
		Message:    "No meeting or webinar found from " + path,
	}
}

// upstreamError converts a failed API call into an *Error, keeping the
// upstream status code when there is one.
func upstreamError(err error) *Error {
	var e *Error
	if errors.As(err, &e) {
		return e
	}
	var se *gotoapi.StatusError
	if errors.As(err, &se) {
		return &Error{
			Kind:       KindUpstream,
			StatusCode: se.StatusCode,
			Message:    se.Error(),
			Err:        err,
		}
	}
	return internalError(err)
}

func internalError(err error) *Error {
	return &Error{
		Kind:       KindInternal,
		StatusCode: http.StatusInternalServerError,
		Message:    err.Error(),
		Err:        err,
	}
}
