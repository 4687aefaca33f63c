package main

import (
	"context"
	"encoding/json"
	"flag"
	stdlog "log"
	"os"
	"time"

	"github.com/umatt1/ai-chess-evaluator/app"
	"github.com/umatt1/ai-chess-evaluator/app/config"
	"github.com/umatt1/ai-chess-evaluator/app/oracle"
)

const startFEN = "rnbqkbnr/pppppppp/8/8/8/8/PPPPPPPP/RNBQKBNR w KQkq - 0 1"

func main() {
	start := time.Now()
	cfg, err := config.LoadConfig()
	if err != nil {
		stdlog.Fatalf("failed to load config: %v", err)
	}

	fen := flag.String("fen", startFEN, "position to evaluate")
	depth := flag.Int("depth", cfg.Search.DefaultDepth, "plies of lookahead (1-3)")
	key := flag.String("key", cfg.Oracle.APIKey, "oracle api key (defaults to ORACLE_API_KEY)")
	lines := flag.Int("lines", 5, "number of root lines to print")
	tree := flag.Bool("tree", false, "include the full search tree")
	flag.Parse()

	log := app.NewLogger(cfg.Logs)
	svc := app.NewService(cfg, log)

	ctx, cancel := context.WithTimeout(context.Background(), cfg.Search.Timeout)
	defer cancel()

	res, err := svc.Engine.Evaluate(ctx, *fen, *depth, oracle.Credentials{APIKey: *key})
	if err != nil {
		log.Fatal().Err(err).Msg("search failed")
	}

	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	if err := enc.Encode(app.BuildResponse(*fen, res, *lines, *tree)); err != nil {
		log.Fatal().Err(err).Msg("encode result")
	}
	log.Info().Dur("took", time.Since(start)).Msg("done")
}
