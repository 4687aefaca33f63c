package search

import (
	"context"
	"sync"
	"sync/atomic"

	"golang.org/x/sync/singleflight"

	"github.com/umatt1/ai-chess-evaluator/app/oracle"
)

// Scorer scores a single leaf position. oracle.Gateway is the production
// implementation.
type Scorer interface {
	Score(ctx context.Context, creds oracle.Credentials, fen string) oracle.Evaluation
}

type ScorerFunc func(ctx context.Context, creds oracle.Credentials, fen string) oracle.Evaluation

func (f ScorerFunc) Score(ctx context.Context, creds oracle.Credentials, fen string) oracle.Evaluation {
	return f(ctx, creds, fen)
}

// counter counts calls that reach the wrapped scorer.
type counter struct {
	next  Scorer
	calls atomic.Int64
}

func (c *counter) Score(ctx context.Context, creds oracle.Credentials, fen string) oracle.Evaluation {
	c.calls.Add(1)
	return c.next.Score(ctx, creds, fen)
}

// memo deduplicates oracle requests for transposed positions within one
// search. It must never outlive the search that created it.
type memo struct {
	next  Scorer
	group singleflight.Group

	mu   sync.Mutex
	seen map[string]oracle.Evaluation
}

func newMemo(next Scorer) *memo {
	return &memo{next: next, seen: make(map[string]oracle.Evaluation)}
}

func (m *memo) Score(ctx context.Context, creds oracle.Credentials, fen string) oracle.Evaluation {
	key := NormalizeFEN(fen)

	m.mu.Lock()
	ev, ok := m.seen[key]
	m.mu.Unlock()
	if ok {
		return ev
	}

	v, _, _ := m.group.Do(key, func() (interface{}, error) {
		ev := m.next.Score(ctx, creds, fen)
		if !IsFatal(ev.Err) {
			m.mu.Lock()
			m.seen[key] = ev
			m.mu.Unlock()
		}
		return ev, nil
	})
	return v.(oracle.Evaluation)
}
