// Package config resolves the settings shared by the unfurl binaries.
//
// Values come from built-in defaults, then an optional TOML file named by
// UNFURL_CONFIG, then environment variables, each layer overriding the
// previous one.
package config

import (
	"bytes"
	"errors"
	"fmt"
	"net/url"
	"os"
	"strconv"
	"time"

	"github.com/pelletier/go-toml/v2"
	"github.com/rs/zerolog"

	"github.com/tvanier/unfurl"
	"github.com/tvanier/unfurl/gotoapi"
	"github.com/tvanier/unfurl/telemetry"
)

// EnvConfigFile names the environment variable pointing at a TOML file.
const EnvConfigFile = "UNFURL_CONFIG"

// Defaults not defined by the unfurl and gotoapi packages.
const (
	DefaultUpstreamTimeout = 10 * time.Second
	DefaultPort            = "8080"
	DefaultLogLevel        = "info"
)

// Config holds every setting of the unfurl binaries.
type Config struct {
	MeetingAPIURL      string
	WebinarAPIURL      string
	AvatarURL          string
	AssetBaseURL       string
	MeetingJoinURL     string // {id} template
	ConnectJoinURL     string // {id} template
	WebinarRegisterURL string // {id} template
	UpstreamTimeout    time.Duration

	Port     string
	LogLevel string

	TraceExporter   string
	OTLPEndpoint    string
	TraceSampleRate int
}

type fileConfig struct {
	MeetingAPIURL      string `toml:"meeting_api_url"`
	WebinarAPIURL      string `toml:"webinar_api_url"`
	AvatarURL          string `toml:"avatar_url"`
	AssetBaseURL       string `toml:"asset_base_url"`
	MeetingJoinURL     string `toml:"meeting_join_url"`
	ConnectJoinURL     string `toml:"connect_join_url"`
	WebinarRegisterURL string `toml:"webinar_register_url"`
	UpstreamTimeout    string `toml:"upstream_timeout"`
	Port               string `toml:"port"`
	LogLevel           string `toml:"log_level"`
	Trace              struct {
		Exporter   string `toml:"exporter"`
		Endpoint   string `toml:"endpoint"`
		SampleRate int    `toml:"sample_rate"`
	} `toml:"trace"`
}

// Default returns the built-in configuration.
func Default() *Config {
	return &Config{
		MeetingAPIURL:      gotoapi.DefaultMeetingAPIURL,
		WebinarAPIURL:      gotoapi.DefaultWebinarAPIURL,
		AvatarURL:          gotoapi.DefaultAvatarURL,
		AssetBaseURL:       unfurl.DefaultAssetBaseURL,
		MeetingJoinURL:     unfurl.DefaultMeetingJoinURL,
		ConnectJoinURL:     unfurl.DefaultConnectJoinURL,
		WebinarRegisterURL: unfurl.DefaultWebinarRegisterURL,
		UpstreamTimeout:    DefaultUpstreamTimeout,
		Port:               DefaultPort,
		LogLevel:           DefaultLogLevel,
		TraceExporter:      telemetry.ExporterNone,
		TraceSampleRate:    1,
	}
}

// Load resolves the configuration from the process environment.
func Load() (*Config, error) {
	return LoadFrom(os.Getenv(EnvConfigFile), os.Getenv)
}

// LoadFrom resolves the configuration from the TOML file at path, if path is
// not empty, and from the variables returned by getenv.
func LoadFrom(path string, getenv func(string) string) (*Config, error) {
	cfg := Default()

	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("error reading config file: %w", err)
		}
		if err := cfg.applyFile(data); err != nil {
			return nil, fmt.Errorf("error parsing config file %s: %w", path, err)
		}
	}

	if err := cfg.applyEnv(getenv); err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) applyFile(data []byte) error {
	var fc fileConfig
	if err := toml.NewDecoder(bytes.NewReader(data)).DisallowUnknownFields().Decode(&fc); err != nil {
		return err
	}

	setString(&c.MeetingAPIURL, fc.MeetingAPIURL)
	setString(&c.WebinarAPIURL, fc.WebinarAPIURL)
	setString(&c.AvatarURL, fc.AvatarURL)
	setString(&c.AssetBaseURL, fc.AssetBaseURL)
	setString(&c.MeetingJoinURL, fc.MeetingJoinURL)
	setString(&c.ConnectJoinURL, fc.ConnectJoinURL)
	setString(&c.WebinarRegisterURL, fc.WebinarRegisterURL)
	setString(&c.Port, fc.Port)
	setString(&c.LogLevel, fc.LogLevel)
	setString(&c.TraceExporter, fc.Trace.Exporter)
	setString(&c.OTLPEndpoint, fc.Trace.Endpoint)
	if fc.Trace.SampleRate != 0 {
		c.TraceSampleRate = fc.Trace.SampleRate
	}
	if fc.UpstreamTimeout != "" {
		d, err := time.ParseDuration(fc.UpstreamTimeout)
		if err != nil {
			return fmt.Errorf("invalid upstream_timeout: %w", err)
		}
		c.UpstreamTimeout = d
	}
	return nil
}

func (c *Config) applyEnv(getenv func(string) string) error {
	setString(&c.MeetingAPIURL, getenv("UNFURL_MEETING_API_URL"))
	setString(&c.WebinarAPIURL, getenv("UNFURL_WEBINAR_API_URL"))
	setString(&c.AvatarURL, getenv("UNFURL_AVATAR_URL"))
	setString(&c.AssetBaseURL, getenv("UNFURL_ASSET_BASE_URL"))
	setString(&c.MeetingJoinURL, getenv("UNFURL_MEETING_JOIN_URL"))
	setString(&c.ConnectJoinURL, getenv("UNFURL_CONNECT_JOIN_URL"))
	setString(&c.WebinarRegisterURL, getenv("UNFURL_WEBINAR_REGISTER_URL"))
	setString(&c.Port, getenv("PORT"))
	setString(&c.LogLevel, getenv("LOG_LEVEL"))
	setString(&c.TraceExporter, getenv("UNFURL_TRACE_EXPORTER"))
	setString(&c.OTLPEndpoint, getenv("UNFURL_OTLP_ENDPOINT"))

	if v := getenv("UNFURL_UPSTREAM_TIMEOUT"); v != "" {
		d, err := time.ParseDuration(v)
		if err != nil {
			return fmt.Errorf("invalid UNFURL_UPSTREAM_TIMEOUT: %w", err)
		}
		c.UpstreamTimeout = d
	}
	if v := getenv("UNFURL_TRACE_SAMPLE_RATE"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil {
			return fmt.Errorf("invalid UNFURL_TRACE_SAMPLE_RATE: %w", err)
		}
		c.TraceSampleRate = n
	}
	return nil
}

func setString(dst *string, v string) {
	if v != "" {
		*dst = v
	}
}

// Validate checks that the configuration is usable.
func (c *Config) Validate() error {
	for name, v := range map[string]string{
		"meeting api url":      c.MeetingAPIURL,
		"webinar api url":      c.WebinarAPIURL,
		"avatar url":           c.AvatarURL,
		"asset base url":       c.AssetBaseURL,
		"meeting join url":     c.MeetingJoinURL,
		"connect join url":     c.ConnectJoinURL,
		"webinar register url": c.WebinarRegisterURL,
	} {
		if err := validateURL(v); err != nil {
			return fmt.Errorf("invalid %s: %w", name, err)
		}
	}
	if c.UpstreamTimeout <= 0 {
		return fmt.Errorf("invalid upstream timeout %s: must be positive", c.UpstreamTimeout)
	}
	if port, err := strconv.Atoi(c.Port); err != nil || port <= 0 || port > 65535 {
		return fmt.Errorf("invalid port %q", c.Port)
	}
	if _, err := zerolog.ParseLevel(c.LogLevel); err != nil {
		return fmt.Errorf("invalid log level: %w", err)
	}
	switch c.TraceExporter {
	case "", telemetry.ExporterNone, telemetry.ExporterStdout, telemetry.ExporterOTLP:
	default:
		return fmt.Errorf("invalid trace exporter %q", c.TraceExporter)
	}
	return nil
}

// Level is the parsed LogLevel. Call Validate first.
func (c *Config) Level() zerolog.Level {
	level, err := zerolog.ParseLevel(c.LogLevel)
	if err != nil {
		return zerolog.InfoLevel
	}
	return level
}

func validateURL(raw string) error {
	u, err := url.Parse(raw)
	if err != nil {
		return err
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return errors.New("scheme must be http or https")
	}
	if u.Host == "" {
		return errors.New("missing host")
	}
	return nil
}
