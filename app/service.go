package app

import (
	"context"

	"github.com/rs/zerolog"

	"github.com/umatt1/ai-chess-evaluator/app/config"
	"github.com/umatt1/ai-chess-evaluator/app/models"
	"github.com/umatt1/ai-chess-evaluator/app/oracle"
	"github.com/umatt1/ai-chess-evaluator/app/search"
)

// JobQueue accepts queued searches. SQSQueue is the production implementation.
type JobQueue interface {
	Enqueue(ctx context.Context, msg models.JobMessage) error
}

// Service holds everything the HTTP handlers and the job worker share.
type Service struct {
	Config *config.Config
	Log    zerolog.Logger
	Engine *search.Engine
	Queue  JobQueue // nil disables POST /jobs
}

// NewService wires the oracle gateway and the search engine from cfg.
func NewService(cfg *config.Config, log zerolog.Logger) *Service {
	client := oracle.NewOpenAIClient(cfg.Oracle.URL, cfg.Oracle.Model, cfg.Oracle.MaxTokens, cfg.Oracle.Temperature)
	gateway := oracle.NewGateway(client, oracle.Policy{
		MaxAttempts: cfg.Oracle.MaxAttempts,
		BaseBackoff: cfg.Oracle.Backoff,
		MaxBackoff:  cfg.Oracle.MaxBackoff,
		CallTimeout: cfg.Oracle.CallTimeout,
		Concurrency: cfg.Oracle.Concurrency,
	}, log)
	return NewServiceWithScorer(cfg, log, gateway)
}

// NewServiceWithScorer is NewService with the oracle replaced by scorer.
func NewServiceWithScorer(cfg *config.Config, log zerolog.Logger, scorer search.Scorer) *Service {
	engine := search.NewEngine(search.ChessRules{}, scorer, search.Config{
		FanOut:  cfg.Search.FanOut,
		Memoize: cfg.Search.Memoize,
		Logger:  log,
	})
	return &Service{Config: cfg, Log: log, Engine: engine}
}
