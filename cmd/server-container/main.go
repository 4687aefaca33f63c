package main

import (
	"context"
	stdlog "log"

	"github.com/aws/aws-lambda-go/events"
	"github.com/aws/aws-lambda-go/lambda"
	ginadapter "github.com/awslabs/aws-lambda-go-api-proxy/gin"

	"github.com/umatt1/ai-chess-evaluator/app"
	"github.com/umatt1/ai-chess-evaluator/app/config"
)

var ginLambda *ginadapter.GinLambda

// init runs once per Lambda container (cold start)
func init() {
	cfg, err := config.LoadConfig()
	if err != nil {
		stdlog.Fatalf("failed to load config: %v", err)
	}
	log := app.NewLogger(cfg.Logs)

	// Initialize DB connection pool
	app.MustInitDB(cfg.DB, log)

	svc := app.NewService(cfg, log)
	if cfg.QueueURL != "" {
		queue, err := app.NewSQSQueue(context.Background(), cfg.QueueURL)
		if err != nil {
			log.Fatal().Err(err).Msg("failed to set up job queue")
		}
		svc.Queue = queue
	}

	// Wrap Gin router with Lambda adapter
	ginLambda = ginadapter.New(app.NewRouter(svc))
}

// Handler is the Lambda entrypoint for API Gateway REST/HTTP API (proxy integration)
func Handler(ctx context.Context, req events.APIGatewayProxyRequest) (events.APIGatewayProxyResponse, error) {
	return ginLambda.ProxyWithContext(ctx, req)
}

func main() {
	lambda.Start(Handler)
}
