package telemetry

import (
	"bytes"
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestInitDisabled(t *testing.T) {
	for _, exporter := range []string{"", ExporterNone} {
		shutdown, err := Init(context.Background(), Options{Exporter: exporter}, zerolog.Nop())
		require.NoError(t, err)
		assert.NoError(t, shutdown(context.Background()))
	}
}

func TestInitUnknownExporter(t *testing.T) {
	shutdown, err := Init(context.Background(), Options{Exporter: "carrier-pigeon"}, zerolog.Nop())
	assert.Error(t, err)
	assert.NotNil(t, shutdown)
}

func TestTransportSpans(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{}`))
	}))
	defer srv.Close()

	var buf bytes.Buffer
	shutdown, err := Init(context.Background(), Options{
		ServiceName: "unfurl-test",
		Exporter:    ExporterStdout,
		Writer:      &buf,
	}, zerolog.Nop())
	require.NoError(t, err)

	client := &http.Client{Transport: Transport(nil)}
	resp, err := client.Get(srv.URL + "/meetings/123456789")
	require.NoError(t, err)
	resp.Body.Close()
	assert.Equal(t, http.StatusOK, resp.StatusCode)

	require.NoError(t, shutdown(context.Background()))
	assert.Contains(t, buf.String(), "goto_api.GET")
	assert.Contains(t, buf.String(), "net.connect")
	assert.Contains(t, buf.String(), "unfurl-test")
}

type failingTransport struct{}

func (failingTransport) RoundTrip(*http.Request) (*http.Response, error) {
	return nil, errors.New("connection refused")
}

func TestTransportErrors(t *testing.T) {
	req := httptest.NewRequest("GET", "http://example.com/meetings/1", nil)
	_, err := Transport(failingTransport{}).RoundTrip(req)
	assert.EqualError(t, err, "connection refused")
}

func TestSampler(t *testing.T) {
	assert.Contains(t, newSampler(0).Description(), "AlwaysOnSampler")
	assert.Contains(t, newSampler(10).Description(), "TraceIDRatioBased{0.1}")
}
