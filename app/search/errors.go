package search

import (
	"context"
	"errors"

	"github.com/umatt1/ai-chess-evaluator/app/oracle"
)

var (
	// ErrInvalidInput covers unparseable positions, illegal moves and depths
	// outside [MinDepth, MaxDepth].
	ErrInvalidInput = errors.New("invalid input")

	// ErrAggregation is a node failure: every child evaluation failed.
	ErrAggregation = errors.New("all child evaluations failed")
)

// IsFatal reports whether err must abort the whole search. Everything else is
// a per-branch failure absorbed by the parent's partial policy.
func IsFatal(err error) bool {
	if err == nil {
		return false
	}
	return errors.Is(err, ErrInvalidInput) ||
		errors.Is(err, oracle.ErrAuth) ||
		errors.Is(err, context.Canceled) ||
		errors.Is(err, context.DeadlineExceeded)
}
