package gotoapi

import (
	"net/http"
)

// DefaultHeaders are injected into every request made to the API.
//
// Accept-Encoding is set explicitly so that brotli responses are accepted,
// which means the client is responsible for decoding bodies itself.
var DefaultHeaders = map[string]string{
	"Accept":          "application/json",
	"Accept-Encoding": "gzip, deflate, br",
	"Accept-Language": "en-US,en;q=0.5",
	"User-Agent":      "goto-unfurl/1.0 (+https://tvanier.netlify.com/goto)",
}

// headerTransport injects a fixed set of headers into every outgoing request.
type headerTransport struct {
	transport     http.RoundTripper
	injectHeaders map[string]string
}

var _ http.RoundTripper = &headerTransport{} // headerTransport implements http.RoundTripper

func newHeaderTransport(transport http.RoundTripper, injectHeaders map[string]string) *headerTransport {
	if transport == nil {
		transport = http.DefaultTransport
	}
	if injectHeaders == nil {
		injectHeaders = DefaultHeaders
	}
	return &headerTransport{
		transport:     transport,
		injectHeaders: injectHeaders,
	}
}

// RoundTrip executes a single HTTP transaction. Headers already present on
// the request win over injected ones.
func (t *headerTransport) RoundTrip(req *http.Request) (*http.Response, error) {
	req = req.Clone(req.Context())
	for key, value := range t.injectHeaders {
		if req.Header.Get(key) == "" {
			req.Header.Set(key, value)
		}
	}
	return t.transport.RoundTrip(req)
}
