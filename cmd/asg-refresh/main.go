// Command asg-refresh is a Lambda function that starts a rolling instance
// refresh on the Auto Scaling group named by ASG_NAME.
package main

import (
	"context"
	"errors"
	"fmt"
	"os"

	"github.com/aws/aws-lambda-go/lambda"
	"github.com/aws/aws-lambda-go/lambdacontext"
	"github.com/joho/godotenv"
	"go.uber.org/zap"

	"github.com/mcncl/genpost/internal/logging"
	"github.com/mcncl/genpost/internal/refresh"
)

func main() {
	// A .env file only exists for local invocations.
	if err := godotenv.Load(); err != nil && !errors.Is(err, os.ErrNotExist) {
		fmt.Fprintf(os.Stderr, ".env load warning: %v\n", err)
	}

	logger, err := logging.New(logging.Options{
		Level:  os.Getenv("LOG_LEVEL"),
		Format: "json",
		Output: os.Stdout,
	})
	if err != nil {
		fmt.Fprintf(os.Stderr, "logging setup error: %v\n", err)
		os.Exit(1)
	}
	defer func() { _ = logger.Sync() }()

	lambda.Start(func(ctx context.Context) (refresh.Result, error) {
		invocationLogger := logger
		if lc, ok := lambdacontext.FromContext(ctx); ok {
			invocationLogger = logger.With(zap.String("aws_request_id", lc.AwsRequestID))
		}
		return refresh.NewHandler(invocationLogger).Handle(ctx), nil
	})
}
