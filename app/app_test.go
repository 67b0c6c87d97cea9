package app

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tvanier/unfurl/config"
)

func TestNewHandler(t *testing.T) {
	var paths []string
	upstream := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		paths = append(paths, r.URL.Path)
		w.Write([]byte(`{"subject": "Standup", "organizer": {"firstName": "Jane", "lastName": "Doe"}}`))
	}))
	defer upstream.Close()

	cfg := config.Default()
	cfg.MeetingAPIURL = upstream.URL + "/rest/2"
	cfg.AssetBaseURL = "https://assets.example.com"
	cfg.MeetingJoinURL = "https://meet.example.com/j/{id}"
	require.NoError(t, cfg.Validate())

	h := NewHandler(cfg, nil)
	resp := h.Handle(context.Background(), "/join/123-456-789")
	require.Equal(t, http.StatusOK, resp.StatusCode, resp.Body)
	assert.Equal(t, []string{"/rest/2/meetings/123-456-789"}, paths)
	assert.Contains(t, resp.Body, `content="https://meet.example.com/j/123-456-789"`)
	assert.Contains(t, resp.Body, `href="https://assets.example.com/favicon.ico"`)
}

func TestTelemetryOptions(t *testing.T) {
	cfg := config.Default()
	cfg.TraceExporter = "otlp"
	cfg.OTLPEndpoint = "collector:4317"
	opts := TelemetryOptions(cfg, "unfurl-server")
	assert.Equal(t, "unfurl-server", opts.ServiceName)
	assert.Equal(t, "otlp", opts.Exporter)
	assert.Equal(t, "collector:4317", opts.Endpoint)
	assert.Equal(t, 1, opts.SampleRate)
}
