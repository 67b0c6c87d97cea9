package main

import (
	"context"
	"os"
	_ "time/tzdata"

	"github.com/aws/aws-lambda-go/events"
	"github.com/aws/aws-lambda-go/lambda"
	"github.com/rs/zerolog"

	"github.com/tvanier/unfurl"
	"github.com/tvanier/unfurl/app"
	"github.com/tvanier/unfurl/config"
	"github.com/tvanier/unfurl/telemetry"
)

type lambdaFunc func(context.Context, events.APIGatewayProxyRequest) (events.APIGatewayProxyResponse, error)

type unfurler interface {
	Handle(ctx context.Context, path string) unfurl.Response
}

func main() {
	logger := zerolog.New(os.Stderr).With().Timestamp().Logger()

	cfg, err := config.Load()
	if err != nil {
		logger.Fatal().Err(err).Msg("invalid configuration")
	}
	logger = logger.Level(cfg.Level())

	// Spans are flushed when the runtime freezes or stops the function, so
	// the shutdown func is not deferred from a main that never returns.
	if _, err := telemetry.Init(context.Background(), app.TelemetryOptions(cfg, "unfurl-lambda"), logger); err != nil {
		logger.Fatal().Err(err).Msg("error initializing telemetry")
	}

	lambda.Start(newLambdaHandler(app.NewHandler(cfg, nil), logger))
}

// newLambdaHandler adapts u to API Gateway proxy events. The function never
// returns an error: failures are reported through the response status.
func newLambdaHandler(u unfurler, logger zerolog.Logger) lambdaFunc {
	return func(ctx context.Context, req events.APIGatewayProxyRequest) (events.APIGatewayProxyResponse, error) {
		l := logger.With().Str("request_id", req.RequestContext.RequestID).Logger()
		ctx = l.WithContext(ctx)

		resp := u.Handle(ctx, req.Path)
		l.Info().
			Str("method", req.HTTPMethod).
			Str("path", req.Path).
			Int("status", resp.StatusCode).
			Send()

		return events.APIGatewayProxyResponse{
			StatusCode: resp.StatusCode,
			Headers:    resp.Headers,
			Body:       resp.Body,
		}, nil
	}
}
