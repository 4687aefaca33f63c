package app

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"github.com/umatt1/ai-chess-evaluator/app/models"
	"github.com/umatt1/ai-chess-evaluator/app/oracle"
	"github.com/umatt1/ai-chess-evaluator/app/search"
)

func TestProcessJob(t *testing.T) {
	var gotKey string
	s := newTestService(search.ScorerFunc(func(ctx context.Context, creds oracle.Credentials, fen string) oracle.Evaluation {
		gotKey = creds.APIKey
		return oracle.Evaluation{Score: 0.1}
	}))

	if err := s.ProcessJob(context.Background(), models.JobMessage{JobID: "j1", FEN: startFEN, Depth: 1}, 1); err != nil {
		t.Fatalf("ProcessJob error = %v", err)
	}
	if gotKey != "sk-server" {
		t.Fatalf("job used key %q, want the server key", gotKey)
	}
}

func TestProcessJobErrors(t *testing.T) {
	s := newTestService(failingScorer(oracle.ErrAuth))
	err := s.ProcessJob(context.Background(), models.JobMessage{JobID: "j2", FEN: startFEN, Depth: 2}, 1)
	if !errors.Is(err, oracle.ErrAuth) || Retryable(err) {
		t.Fatalf("ProcessJob error = %v, want non-retryable ErrAuth", err)
	}

	err = s.ProcessJob(context.Background(), models.JobMessage{JobID: "j3", FEN: "nonsense", Depth: 2}, 1)
	if !errors.Is(err, search.ErrInvalidInput) || Retryable(err) {
		t.Fatalf("ProcessJob error = %v, want non-retryable ErrInvalidInput", err)
	}
}

func TestRedeliver(t *testing.T) {
	s := newTestService(tableScorer(nil, 0))
	s.Config.JobMaxReceives = 3
	transient := fmt.Errorf("gave up after 3 attempts: %w", oracle.ErrTransient)
	parse := fmt.Errorf("%w: no decimal", oracle.ErrParse)

	cases := []struct {
		name     string
		err      error
		receives int
		want     bool
	}{
		{"first try", transient, 1, true},
		{"below limit", parse, 2, true},
		{"at limit", parse, 3, false},
		{"past limit", transient, 7, false},
		{"never retryable", oracle.ErrAuth, 1, false},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if got := s.Redeliver(tc.err, tc.receives); got != tc.want {
				t.Fatalf("Redeliver(%v, %d) = %v, want %v", tc.err, tc.receives, got, tc.want)
			}
		})
	}

	s.Config.JobMaxReceives = 0
	if !s.Redeliver(transient, 100) {
		t.Fatalf("Redeliver without a limit = false, want true")
	}
}

func TestProcessJobLastDelivery(t *testing.T) {
	s := newTestService(failingScorer(oracle.ErrParse))
	s.Config.JobMaxReceives = 2
	msg := models.JobMessage{JobID: "j4", FEN: startFEN, Depth: 2}

	err := s.ProcessJob(context.Background(), msg, 1)
	if !errors.Is(err, search.ErrAggregation) || !s.Redeliver(err, 1) {
		t.Fatalf("first delivery error = %v, want a redeliverable ErrAggregation", err)
	}
	err = s.ProcessJob(context.Background(), msg, 2)
	if !errors.Is(err, search.ErrAggregation) || s.Redeliver(err, 2) {
		t.Fatalf("last delivery error = %v, want a final failure", err)
	}
}

func TestRetryable(t *testing.T) {
	cases := []struct {
		err  error
		want bool
	}{
		{fmt.Errorf("gave up after 3 attempts: %w", oracle.ErrTransient), true},
		{fmt.Errorf("%w: all failed", search.ErrAggregation), true},
		{context.DeadlineExceeded, true},
		{oracle.ErrAuth, false},
		{oracle.ErrRejected, false},
		{fmt.Errorf("%w: bad fen", search.ErrInvalidInput), false},
	}
	for _, tc := range cases {
		if got := Retryable(tc.err); got != tc.want {
			t.Fatalf("Retryable(%v) = %v, want %v", tc.err, got, tc.want)
		}
	}
}
