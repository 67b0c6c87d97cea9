/*
Package httphandler exposes an unfurl.Handler over plain HTTP, for running
the unfurler as a long-lived server rather than a function.

Every GET path is handed to the unfurler as is:

    $ curl -s localhost:8080/join/123456789
    <!doctype html>
    <html lang="en">
    ...

Responses carry the unfurler's status code, headers and body. Successful
pages are cacheable for an hour, errors for a minute. If the client goes
away before the page is ready, the non-standard 499 Client Closed Request
status is recorded and nothing is written.

HEAD is answered like GET, without the body. GET /healthz always answers
"ok".
*/
package httphandler

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/rs/zerolog/hlog"

	"github.com/tvanier/unfurl"
)

// StatusClientClosedRequest is recorded when the client disconnects before
// a response is ready (https://httpstatuses.com/499).
const StatusClientClosedRequest = 499

// Cache control
const (
	maxAgeOK  = 1 * time.Hour
	maxAgeErr = 1 * time.Minute
)

// Unfurler turns a request path into a response.
type Unfurler interface {
	Handle(ctx context.Context, path string) unfurl.Response
}

// New creates the HTTP handler for u.
func New(u Unfurler) http.Handler {
	h := &handler{unfurler: u}

	r := chi.NewRouter()
	r.Use(middleware.RealIP)
	r.Use(middleware.Recoverer)

	r.Get("/healthz", healthz)
	r.Head("/healthz", healthz)
	r.Get("/*", h.unfurl)
	r.Head("/*", h.unfurl)
	return r
}

type handler struct {
	unfurler Unfurler
}

func (h *handler) unfurl(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	resp := h.unfurler.Handle(ctx, r.URL.Path)

	// Special case when client closed connection, no need to respond
	if errors.Is(ctx.Err(), context.Canceled) {
		hlog.FromRequest(r).Info().Str("path", r.URL.Path).Msg("client closed connection")
		w.WriteHeader(StatusClientClosedRequest)
		return
	}

	for k, v := range resp.Headers {
		w.Header().Set(k, v)
	}
	w.Header().Set("Cache-Control", cacheControlValue(resp.StatusCode))
	w.WriteHeader(resp.StatusCode)
	_, _ = w.Write([]byte(resp.Body))
}

func healthz(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	w.Header().Set("Cache-Control", "no-store")
	_, _ = w.Write([]byte("ok"))
}

func cacheControlValue(code int) string {
	maxAge := maxAgeErr
	if code == http.StatusOK {
		maxAge = maxAgeOK
	}
	return fmt.Sprintf("public,max-age=%.0f", maxAge.Seconds())
}
