// Package app wires a config.Config into a ready to use unfurl.Handler. It
// is shared by the CLI, server and Lambda entry points.
package app

import (
	"net"
	"net/http"
	"time"

	"github.com/tvanier/unfurl"
	"github.com/tvanier/unfurl/config"
	"github.com/tvanier/unfurl/gotoapi"
	"github.com/tvanier/unfurl/telemetry"
)

const (
	// dialer
	dialTimeout = 2 * time.Second

	// transport
	transportIdleConnTimeout     = 90 * time.Second
	transportMaxIdleConnsPerHost = 20
	transportTLSHandshakeTimeout = 2 * time.Second
)

// NewTransport builds the traced transport used for every GoTo API call.
func NewTransport() http.RoundTripper {
	return telemetry.Transport(&http.Transport{
		Proxy: http.ProxyFromEnvironment,
		DialContext: (&net.Dialer{
			Timeout: dialTimeout,
		}).DialContext,
		ForceAttemptHTTP2:   true,
		IdleConnTimeout:     transportIdleConnTimeout,
		MaxIdleConnsPerHost: transportMaxIdleConnsPerHost,
		MaxIdleConns:        transportMaxIdleConnsPerHost * 3,
		TLSHandshakeTimeout: transportTLSHandshakeTimeout,
	})
}

// NewHandler creates the handler described by cfg. A nil transport means
// NewTransport().
func NewHandler(cfg *config.Config, transport http.RoundTripper) *unfurl.Handler {
	if transport == nil {
		transport = NewTransport()
	}
	client := gotoapi.New(gotoapi.Options{
		MeetingAPIURL: cfg.MeetingAPIURL,
		WebinarAPIURL: cfg.WebinarAPIURL,
		AvatarURL:     cfg.AvatarURL,
		Transport:     transport,
		Timeout:       cfg.UpstreamTimeout,
	})
	return unfurl.NewHandler(client, unfurl.Options{
		AssetBaseURL:       cfg.AssetBaseURL,
		MeetingJoinURL:     cfg.MeetingJoinURL,
		ConnectJoinURL:     cfg.ConnectJoinURL,
		WebinarRegisterURL: cfg.WebinarRegisterURL,
	})
}

// TelemetryOptions maps the tracing settings of cfg.
func TelemetryOptions(cfg *config.Config, serviceName string) telemetry.Options {
	return telemetry.Options{
		ServiceName: serviceName,
		Exporter:    cfg.TraceExporter,
		Endpoint:    cfg.OTLPEndpoint,
		SampleRate:  cfg.TraceSampleRate,
	}
}
