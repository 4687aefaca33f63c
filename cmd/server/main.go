package main

import (
	"context"
	stdlog "log"

	"github.com/umatt1/ai-chess-evaluator/app"
	"github.com/umatt1/ai-chess-evaluator/app/config"
)

func main() {
	cfg, err := config.LoadConfig()
	if err != nil {
		stdlog.Fatalf("failed to load config: %v", err)
	}
	log := app.NewLogger(cfg.Logs)

	app.MustInitDB(cfg.DB, log)
	svc := app.NewService(cfg, log)

	if cfg.QueueURL == "" {
		log.Warn().Msg("QUEUE_URL missing in config; POST /jobs disabled")
	} else {
		queue, err := app.NewSQSQueue(context.Background(), cfg.QueueURL)
		if err != nil {
			log.Fatal().Err(err).Msg("failed to set up job queue")
		}
		svc.Queue = queue
	}

	router := app.NewRouter(svc)
	log.Info().Str("addr", "0.0.0.0:8080").Msg("listening")
	if err := router.Run("0.0.0.0:8080"); err != nil {
		log.Fatal().Err(err).Msg("server stopped")
	}
}
