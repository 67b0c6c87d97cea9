package main

import (
	"context"
	"net"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"
	_ "time/tzdata"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/hlog"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"

	"github.com/tvanier/unfurl/app"
	"github.com/tvanier/unfurl/config"
	"github.com/tvanier/unfurl/httphandler"
	"github.com/tvanier/unfurl/telemetry"
)

const shutdownGrace = 1 * time.Second

func main() {
	logger := zerolog.New(os.Stderr).With().Timestamp().Logger()

	cfg, err := config.Load()
	if err != nil {
		logger.Fatal().Err(err).Msg("invalid configuration")
	}
	logger = logger.Level(cfg.Level())

	stopTelemetry, err := telemetry.Init(context.Background(), app.TelemetryOptions(cfg, "unfurl-server"), logger)
	if err != nil {
		logger.Fatal().Err(err).Msg("error initializing telemetry")
	}
	defer func() {
		if err := stopTelemetry(context.Background()); err != nil {
			logger.Error().Err(err).Msg("error flushing telemetry")
		}
	}()

	srv := &http.Server{
		Addr:    net.JoinHostPort("", cfg.Port),
		Handler: applyMiddleware(httphandler.New(app.NewHandler(cfg, nil)), logger),
	}

	listenAndServeGracefully(srv, cfg.UpstreamTimeout+shutdownGrace, logger)
}

func listenAndServeGracefully(srv *http.Server, shutdownTimeout time.Duration, logger zerolog.Logger) {
	// exitCh will be closed when it is safe to exit, after the server has had
	// a chance to shut down gracefully
	exitCh := make(chan struct{})

	go func() {
		// wait for SIGTERM or SIGINT
		sigCh := make(chan os.Signal, 1)
		signal.Notify(sigCh, syscall.SIGTERM, syscall.SIGINT)
		sig := <-sigCh

		// start graceful shutdown
		logger.Info().Msgf("shutdown started by signal: %s", sig)
		ctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		if err := srv.Shutdown(ctx); err != nil {
			logger.Error().Err(err).Msg("shutdown error")
		}

		// indicate that it is now safe to exit
		close(exitCh)
	}()

	// start server
	logger.Info().Msgf("listening on %s", srv.Addr)
	if err := srv.ListenAndServe(); err != http.ErrServerClosed {
		logger.Error().Err(err).Msg("listen error")
		return
	}

	// wait until it is safe to exit
	<-exitCh
}

func applyMiddleware(h http.Handler, l zerolog.Logger) http.Handler {
	h = hlog.AccessHandler(accessLogger)(h)
	h = hlog.RequestIDHandler("request_id", "X-Request-Id")(h)
	h = hlog.NewHandler(l)(h)
	h = otelhttp.NewHandler(h, "unfurl")
	return h
}

func accessLogger(r *http.Request, status int, size int, duration time.Duration) {
	hlog.FromRequest(r).Info().
		Str("method", r.Method).
		Str("remote_addr", r.RemoteAddr).
		Stringer("url", r.URL).
		Int("status", status).
		Int("size", size).
		Dur("duration", duration).
		Send()
}
