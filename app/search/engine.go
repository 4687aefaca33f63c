package search

import (
	"context"
	"fmt"
	"sort"
	"time"

	"github.com/rs/zerolog"

	"github.com/umatt1/ai-chess-evaluator/app/oracle"
)

const (
	MinDepth = 1
	MaxDepth = 3
)

// Config tunes a search engine.
type Config struct {
	// FanOut bounds how many sibling subtrees are evaluated at once.
	FanOut int
	// Memoize shares oracle results between transposed positions within one
	// search.
	Memoize bool
	Logger  zerolog.Logger
}

// Engine builds and scores move trees. It holds no per-search state and is
// safe for concurrent use.
type Engine struct {
	rules  MoveRules
	scorer Scorer
	cfg    Config
	log    zerolog.Logger
}

func NewEngine(rules MoveRules, scorer Scorer, cfg Config) *Engine {
	if cfg.FanOut < 1 {
		cfg.FanOut = 1
	}
	return &Engine{
		rules:  rules,
		scorer: scorer,
		cfg:    cfg,
		log:    cfg.Logger.With().Str("component", "search").Logger(),
	}
}

// Rules returns the rules engine the search uses.
func (e *Engine) Rules() MoveRules { return e.rules }

// Result is a fully scored tree plus the move chosen at the root.
type Result struct {
	Root *Node
	// BestMove is nil when the root has no children (depth 1 or terminal).
	BestMove    *MoveCandidate
	Score       float64
	Partial     bool
	Depth       int
	OracleCalls int64
	Elapsed     time.Duration
}

// Lines returns up to n root children ordered best first for the side to move.
// Ties keep enumeration order and failed lines sort last. n <= 0 returns all.
func (r *Result) Lines(n int) []*Node {
	lines := make([]*Node, len(r.Root.Children))
	copy(lines, r.Root.Children)
	side := r.Root.Position.SideToMove()
	sort.SliceStable(lines, func(i, j int) bool {
		a, b := lines[i], lines[j]
		if a.Failed() != b.Failed() {
			return !a.Failed()
		}
		return better(side, a.Score, b.Score)
	})
	if n > 0 && len(lines) > n {
		lines = lines[:n]
	}
	return lines
}

// search is the state of one Evaluate call.
type search struct {
	rules  MoveRules
	scorer Scorer
	creds  oracle.Credentials
	fanOut int
	log    zerolog.Logger
}

// Evaluate searches depth plies from fen and returns the scored tree. Depth 1
// is a single oracle call on the position itself; each extra ply expands one
// more level of legal moves.
func (e *Engine) Evaluate(ctx context.Context, fen string, depth int, creds oracle.Credentials) (*Result, error) {
	start := time.Now()
	if depth < MinDepth || depth > MaxDepth {
		return nil, fmt.Errorf("%w: depth %d outside [%d, %d]", ErrInvalidInput, depth, MinDepth, MaxDepth)
	}
	pos, err := e.rules.Parse(fen)
	if err != nil {
		return nil, err
	}

	calls := &counter{next: e.scorer}
	var scorer Scorer = calls
	if e.cfg.Memoize {
		scorer = newMemo(calls)
	}
	s := &search{
		rules:  e.rules,
		scorer: scorer,
		creds:  creds,
		fanOut: e.cfg.FanOut,
		log:    e.log.With().Str("root", string(pos)).Int("depth", depth).Logger(),
	}

	s.log.Info().Int("fan_out", s.fanOut).Bool("memoize", e.cfg.Memoize).Msg("search started")

	root, err := s.expand(ctx, &Node{Position: pos, Depth: depth - 1})
	if err != nil {
		s.log.Warn().Err(err).Int64("oracle_calls", calls.calls.Load()).Msg("search failed")
		return nil, err
	}

	res := &Result{
		Root:        root,
		Score:       root.Score,
		Partial:     root.Partial,
		Depth:       depth,
		OracleCalls: calls.calls.Load(),
		Elapsed:     time.Since(start),
	}
	if i := bestChild(root); i >= 0 {
		res.BestMove = root.Children[i].Move
	}

	s.log.Info().
		Int64("oracle_calls", res.OracleCalls).
		Int("nodes", root.Count()).
		Float64("score", res.Score).
		Bool("partial", res.Partial).
		Dur("elapsed", res.Elapsed).
		Msg("search complete")
	for i, line := range res.Lines(3) {
		if line.Failed() {
			break
		}
		s.log.Info().Int("rank", i+1).Str("move", line.MoveString()).Float64("score", line.Score).
			Str("side", root.Position.SideToMove().String()).Msg("move selection")
	}
	return res, nil
}

// expand resolves node and its whole subtree. The returned error is either the
// node's own failure (also stored in node.Err) or a fatal error that aborts the
// search.
func (s *search) expand(ctx context.Context, node *Node) (*Node, error) {
	if err := ctx.Err(); err != nil {
		return node, err
	}

	status, err := s.rules.TerminalStatus(node.Position)
	if err != nil {
		return node, err
	}
	node.Status = status
	if status.Terminal() {
		node.Score = terminalScore(status, node.Position.SideToMove())
		node.Scored = true
		return node, nil
	}

	if node.Depth == 0 {
		return s.leaf(ctx, node)
	}

	moves, err := s.rules.LegalMoves(node.Position)
	if err != nil {
		return node, err
	}
	s.log.Debug().Str("fen", string(node.Position)).Int("remaining", node.Depth).
		Int("moves", len(moves)).Msg("expanding")

	tasks := make([]Task[*Node], len(moves))
	for i := range moves {
		mv := moves[i]
		tasks[i] = func(ctx context.Context) (*Node, error) {
			return s.expand(ctx, &Node{Position: mv.Position, Move: &mv, Depth: node.Depth - 1})
		}
	}

	outcomes, err := FanOut(ctx, s.fanOut, tasks, IsFatal)
	if err != nil {
		return node, err
	}
	node.Children = make([]*Node, len(outcomes))
	for i, o := range outcomes {
		node.Children[i] = o.Value
	}

	backup(node)
	if node.Failed() {
		s.log.Debug().Err(node.Err).Str("fen", string(node.Position)).Msg("node failed")
	}
	return node, node.Err
}

func (s *search) leaf(ctx context.Context, node *Node) (*Node, error) {
	ev := s.scorer.Score(ctx, s.creds, string(node.Position))
	if ev.Err != nil {
		node.Err = ev.Err
		if !IsFatal(ev.Err) {
			s.log.Debug().Err(ev.Err).Str("fen", string(node.Position)).Msg("leaf failed")
		}
		return node, ev.Err
	}
	node.Score = ev.Score
	node.Scored = true
	node.Rationale = ev.Rationale
	return node, nil
}
