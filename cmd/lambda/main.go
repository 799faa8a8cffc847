// Command lambda serves the same routes behind an API Gateway HTTP API or a Lambda
// function URL. Orders are processed before the response because the runtime is frozen
// once the invocation returns.
package main

import (
	"context"

	"github.com/aws/aws-lambda-go/lambda"
	"github.com/awslabs/aws-lambda-go-api-proxy/httpadapter"
	"github.com/cardaverse-ai/cardaverse-customcard/app"
	"github.com/cardaverse-ai/cardaverse-customcard/config"
	"github.com/sirupsen/logrus"
)

func main() {
	ctx := context.Background()

	ssmClient, err := config.NewSSMClient(ctx)
	if err != nil {
		logrus.Fatalf("Failed to create SSM client: %v", err)
	}
	if err := config.ResolveSecrets(ctx, ssmClient, config.SecretVars...); err != nil {
		logrus.Fatalf("Failed to resolve secrets: %v", err)
	}

	cfg, err := config.Load()
	if err != nil {
		logrus.Fatalf("Invalid configuration: %v", err)
	}
	cfg.SyncProcessing = true
	if cfg.LogFormat == "text" {
		cfg.LogFormat = "json"
	}
	if err := app.ConfigureLogging(cfg.LogLevel, cfg.LogFormat); err != nil {
		logrus.Fatal(err)
	}

	a, err := app.Build(ctx, cfg)
	if err != nil {
		logrus.Fatalf("Failed to start: %v", err)
	}

	adapter := httpadapter.NewV2(a.Router)
	lambda.Start(adapter.ProxyWithContext)
}
