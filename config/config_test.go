package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func envMap(m map[string]string) func(string) string {
	return func(k string) string { return m[k] }
}

func writeFile(t *testing.T, contents string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "unfurl.toml")
	require.NoError(t, os.WriteFile(path, []byte(contents), 0o600))
	return path
}

func TestDefaults(t *testing.T) {
	cfg, err := LoadFrom("", envMap(nil))
	require.NoError(t, err)
	assert.Equal(t, Default(), cfg)
	assert.Equal(t, "https://global.gotomeeting.com/rest/2", cfg.MeetingAPIURL)
	assert.Equal(t, 10*time.Second, cfg.UpstreamTimeout)
	assert.Equal(t, zerolog.InfoLevel, cfg.Level())
}

func TestFileAndEnvOverrides(t *testing.T) {
	path := writeFile(t, `
meeting_api_url = "http://localhost:9000/rest/2"
asset_base_url = "https://cdn.example.com/goto"
upstream_timeout = "3s"
log_level = "debug"

[trace]
exporter = "stdout"
sample_rate = 5
`)

	cfg, err := LoadFrom(path, envMap(map[string]string{
		"UNFURL_ASSET_BASE_URL":   "https://assets.example.com",
		"UNFURL_UPSTREAM_TIMEOUT": "1500ms",
		"PORT":                    "9090",
	}))
	require.NoError(t, err)

	// file only
	assert.Equal(t, "http://localhost:9000/rest/2", cfg.MeetingAPIURL)
	assert.Equal(t, zerolog.DebugLevel, cfg.Level())
	assert.Equal(t, "stdout", cfg.TraceExporter)
	assert.Equal(t, 5, cfg.TraceSampleRate)

	// env wins over file
	assert.Equal(t, "https://assets.example.com", cfg.AssetBaseURL)
	assert.Equal(t, 1500*time.Millisecond, cfg.UpstreamTimeout)
	assert.Equal(t, "9090", cfg.Port)

	// untouched defaults
	assert.Equal(t, "https://global.gotowebinar.com/api/V2", cfg.WebinarAPIURL)
}

func TestLoadErrors(t *testing.T) {
	testCases := map[string]struct {
		file string
		env  map[string]string
	}{
		"unknown file key":       {file: `nope = 1`},
		"malformed file":         {file: `meeting_api_url = `},
		"bad file duration":      {file: `upstream_timeout = "soon"`},
		"bad env duration":       {env: map[string]string{"UNFURL_UPSTREAM_TIMEOUT": "10"}},
		"negative timeout":       {env: map[string]string{"UNFURL_UPSTREAM_TIMEOUT": "-1s"}},
		"bad sample rate":        {env: map[string]string{"UNFURL_TRACE_SAMPLE_RATE": "often"}},
		"relative api url":       {env: map[string]string{"UNFURL_MEETING_API_URL": "/rest/2"}},
		"non http template":      {env: map[string]string{"UNFURL_MEETING_JOIN_URL": "ftp://example.com/{id}"}},
		"bad port":               {env: map[string]string{"PORT": "http"}},
		"bad log level":          {env: map[string]string{"LOG_LEVEL": "loud"}},
		"unknown trace exporter": {env: map[string]string{"UNFURL_TRACE_EXPORTER": "zipkin"}},
	}
	for name, tc := range testCases {
		t.Run(name, func(t *testing.T) {
			var path string
			if tc.file != "" {
				path = writeFile(t, tc.file)
			}
			_, err := LoadFrom(path, envMap(tc.env))
			assert.Error(t, err)
		})
	}
}

func TestMissingFile(t *testing.T) {
	_, err := LoadFrom(filepath.Join(t.TempDir(), "missing.toml"), envMap(nil))
	assert.Error(t, err)
}
