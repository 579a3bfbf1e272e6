package main

import (
	"context"
	"os"

	awslambda "github.com/aws/aws-lambda-go/lambda"
	zlog "github.com/rs/zerolog/log"

	"github.com/baechuer/real-time-ressys/services/reset-mailer/internal/bootstrap"
	lambdaadapter "github.com/baechuer/real-time-ressys/services/reset-mailer/internal/infrastructure/lambda"
	"github.com/baechuer/real-time-ressys/services/reset-mailer/internal/logger"
)

func main() {
	logger.Init()

	// Built once per cold start; warm invocations reuse the sender.
	h, _, _, err := bootstrap.NewHandler(context.Background())
	if err != nil {
		zlog.Error().Err(err).Msg("bootstrap failed")
		os.Exit(1)
	}

	awslambda.Start(lambdaadapter.NewAdapter(h, zlog.Logger).Invoke)
}
