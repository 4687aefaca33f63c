package oracle

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/rs/zerolog"
	"golang.org/x/sync/semaphore"
	"lukechampine.com/frand"
)

// Completer sends a prompt to the oracle and returns its raw text reply.
// Errors should wrap ErrAuth, ErrTransient, ErrParse or ErrRejected where the
// kind is known; anything else is treated as a transient transport failure.
type Completer interface {
	Complete(ctx context.Context, creds Credentials, prompt string) (string, error)
}

// Policy controls retries and load on the oracle.
type Policy struct {
	MaxAttempts int
	BaseBackoff time.Duration
	MaxBackoff  time.Duration
	CallTimeout time.Duration
	// Concurrency caps in-flight oracle calls across all searches sharing
	// the gateway.
	Concurrency int
}

func DefaultPolicy() Policy {
	return Policy{
		MaxAttempts: 3,
		BaseBackoff: 250 * time.Millisecond,
		MaxBackoff:  4 * time.Second,
		CallTimeout: 15 * time.Second,
		Concurrency: 8,
	}
}

// Gateway scores positions through a Completer.
type Gateway struct {
	client Completer
	policy Policy
	sem    *semaphore.Weighted
	log    zerolog.Logger
	sleep  func(ctx context.Context, d time.Duration) error
}

func NewGateway(client Completer, policy Policy, log zerolog.Logger) *Gateway {
	def := DefaultPolicy()
	if policy.MaxAttempts < 1 {
		policy.MaxAttempts = def.MaxAttempts
	}
	if policy.CallTimeout <= 0 {
		policy.CallTimeout = def.CallTimeout
	}
	if policy.Concurrency < 1 {
		policy.Concurrency = def.Concurrency
	}
	if policy.MaxBackoff < policy.BaseBackoff {
		policy.MaxBackoff = policy.BaseBackoff
	}
	return &Gateway{
		client: client,
		policy: policy,
		sem:    semaphore.NewWeighted(int64(policy.Concurrency)),
		log:    log.With().Str("component", "oracle").Logger(),
		sleep:  sleepCtx,
	}
}

// Score asks the oracle for fen's evaluation. Transient failures are retried
// with exponential backoff; auth, parse and rejected failures return at once.
// If ctx ends, Err is ctx's error.
func (g *Gateway) Score(ctx context.Context, creds Credentials, fen string) Evaluation {
	prompt := BuildPrompt(fen)

	var lastErr error
	for attempt := 1; attempt <= g.policy.MaxAttempts; attempt++ {
		if err := ctx.Err(); err != nil {
			return Evaluation{Err: err, Attempts: attempt - 1}
		}

		text, err := g.call(ctx, creds, prompt)
		if err == nil {
			score, rationale, perr := ParseScore(text)
			if perr != nil {
				g.log.Warn().Err(perr).Str("fen", fen).Msg("unusable oracle reply")
				return Evaluation{Err: perr, Attempts: attempt}
			}
			return Evaluation{Score: score, Rationale: rationale, Attempts: attempt}
		}

		if ctxErr := ctx.Err(); ctxErr != nil {
			return Evaluation{Err: ctxErr, Attempts: attempt}
		}
		if errors.Is(err, ErrAuth) {
			g.log.Error().Err(err).Msg("oracle refused credentials")
			return Evaluation{Err: err, Attempts: attempt}
		}
		if !errors.Is(err, ErrTransient) {
			return Evaluation{Err: err, Attempts: attempt}
		}

		lastErr = err
		if attempt == g.policy.MaxAttempts {
			break
		}
		wait := g.backoff(attempt)
		g.log.Warn().Err(err).Int("attempt", attempt).Dur("backoff", wait).Str("fen", fen).Msg("retrying oracle call")
		if err := g.sleep(ctx, wait); err != nil {
			return Evaluation{Err: err, Attempts: attempt}
		}
	}
	return Evaluation{
		Err:      fmt.Errorf("gave up after %d attempts: %w", g.policy.MaxAttempts, lastErr),
		Attempts: g.policy.MaxAttempts,
	}
}

// call makes one oracle request under the concurrency cap and the per-call
// deadline, normalizing the error into one of the oracle kinds.
func (g *Gateway) call(ctx context.Context, creds Credentials, prompt string) (string, error) {
	if err := g.sem.Acquire(ctx, 1); err != nil {
		return "", err
	}
	defer g.sem.Release(1)

	callCtx, cancel := context.WithTimeout(ctx, g.policy.CallTimeout)
	defer cancel()

	text, err := g.client.Complete(callCtx, creds, prompt)
	if err == nil {
		return text, nil
	}
	switch {
	case ctx.Err() != nil:
		return "", ctx.Err()
	case errors.Is(err, ErrAuth), errors.Is(err, ErrParse), errors.Is(err, ErrRejected), errors.Is(err, ErrTransient):
		return "", err
	case errors.Is(callCtx.Err(), context.DeadlineExceeded):
		return "", fmt.Errorf("%w: no reply within %s", ErrTransient, g.policy.CallTimeout)
	default:
		return "", fmt.Errorf("%w: %v", ErrTransient, err)
	}
}

// backoff doubles from BaseBackoff per attempt, capped at MaxBackoff, with
// jitter over the upper half.
func (g *Gateway) backoff(attempt int) time.Duration {
	if g.policy.BaseBackoff <= 0 {
		return 0
	}
	d := g.policy.BaseBackoff << (attempt - 1)
	if d > g.policy.MaxBackoff || d <= 0 {
		d = g.policy.MaxBackoff
	}
	if d <= 0 {
		return 0
	}
	half := d / 2
	return half + time.Duration(frand.Uint64n(uint64(half)+1))
}

func sleepCtx(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}
