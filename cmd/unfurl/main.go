package main

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"os"
	_ "time/tzdata"

	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"github.com/tvanier/unfurl"
	"github.com/tvanier/unfurl/app"
	"github.com/tvanier/unfurl/config"
	"github.com/tvanier/unfurl/telemetry"
)

type unfurler interface {
	Handle(ctx context.Context, path string) unfurl.Response
}

func main() {
	logger := zerolog.New(zerolog.ConsoleWriter{Out: os.Stderr}).With().Timestamp().Logger()

	cfg, err := config.Load()
	if err != nil {
		logger.Fatal().Err(err).Msg("invalid configuration")
	}
	logger = logger.Level(cfg.Level())

	stopTelemetry, err := telemetry.Init(context.Background(), app.TelemetryOptions(cfg, "unfurl-cli"), logger)
	if err != nil {
		logger.Fatal().Err(err).Msg("error initializing telemetry")
	}

	cmd := newRootCmd(app.NewHandler(cfg, nil), logger)
	err = cmd.ExecuteContext(context.Background())
	if stopErr := stopTelemetry(context.Background()); stopErr != nil {
		logger.Error().Err(stopErr).Msg("error flushing telemetry")
	}
	if err != nil {
		os.Exit(1)
	}
}

func newRootCmd(u unfurler, logger zerolog.Logger) *cobra.Command {
	var showHeaders bool

	cmd := &cobra.Command{
		Use:   "unfurl <path>",
		Short: "Render the link preview page for a GoTo path",
		Long: `Resolve a GoTo link path such as /join/123456789 or /register/1234567890
and print the preview page that would be served for it.

Configuration is read from UNFURL_CONFIG and UNFURL_* environment variables.`,
		Example: `  unfurl /join/123456789
  unfurl --headers /register/1234567890`,
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			if ctx == nil {
				ctx = context.Background()
			}
			ctx = logger.WithContext(ctx)
			resp := u.Handle(ctx, args[0])
			if err := printResponse(cmd.OutOrStdout(), resp, showHeaders); err != nil {
				return err
			}
			if resp.StatusCode != http.StatusOK {
				err := fmt.Errorf("unfurl %s: status %d", args[0], resp.StatusCode)
				logger.Error().Err(err).Send()
				return err
			}
			return nil
		},
	}
	cmd.Flags().BoolVar(&showHeaders, "headers", false, "print the status code and headers before the body")
	return cmd
}

func printResponse(w io.Writer, resp unfurl.Response, showHeaders bool) error {
	if showHeaders {
		if _, err := fmt.Fprintf(w, "Status: %d\n", resp.StatusCode); err != nil {
			return err
		}
		for k, v := range resp.Headers {
			if _, err := fmt.Fprintf(w, "%s: %s\n", k, v); err != nil {
				return err
			}
		}
		if _, err := fmt.Fprintln(w); err != nil {
			return err
		}
	}
	_, err := fmt.Fprintln(w, resp.Body)
	return err
}
