package search

import (
	"errors"
	"strings"
	"testing"
)

const (
	startFEN = "rnbqkbnr/pppppppp/8/8/8/8/PPPPPPPP/RNBQKBNR w KQkq - 0 1"
	// Fool's mate: white is mated.
	whiteMatedFEN = "rnb1kbnr/pppp1ppp/8/4p3/6Pq/5P2/PPPPP2P/RNBQKBNR w KQkq - 1 3"
	// Scholar's mate: black is mated.
	blackMatedFEN = "r1bqkb1r/pppp1Qpp/2n2n2/4p3/2B1P3/8/PPPP1PPP/RNB1K1NR b KQkq - 0 4"
	stalemateFEN  = "7k/5Q2/6K1/8/8/8/8/8 b - - 0 1"
	promotionFEN  = "8/P7/8/8/8/8/8/k6K w - - 0 1"
)

func TestChessRulesParse(t *testing.T) {
	rules := ChessRules{}

	t.Run("canonical", func(t *testing.T) {
		pos, err := rules.Parse(startFEN)
		if err != nil {
			t.Fatalf("Parse(start) error = %v", err)
		}
		if NormalizeFEN(string(pos)) != NormalizeFEN(startFEN) {
			t.Fatalf("Parse(start) = %q", pos)
		}
	})

	t.Run("missing counters", func(t *testing.T) {
		pos, err := rules.Parse("rnbqkbnr/pppppppp/8/8/8/8/PPPPPPPP/RNBQKBNR w KQkq -")
		if err != nil {
			t.Fatalf("Parse(4 fields) error = %v", err)
		}
		if len(strings.Fields(string(pos))) != 6 {
			t.Fatalf("Parse(4 fields) = %q, want 6 fields", pos)
		}
	})

	for _, bad := range []string{"", "not a fen", "rnbqkbnr/pppppppp/8/8/8/8/PPPPPPPP/RNBQKBNR x KQkq - 0 1", "rnbqkbnr/pppppppp/8/8/8/8/PPPPPPPP w KQkq - 0 1", "K7/8/8/8/8/8/8/8 w - - 0 1"} {
		t.Run("invalid "+bad, func(t *testing.T) {
			if _, err := rules.Parse(bad); !errors.Is(err, ErrInvalidInput) {
				t.Fatalf("Parse(%q) error = %v, want ErrInvalidInput", bad, err)
			}
		})
	}
}

func TestChessRulesLegalMovesStable(t *testing.T) {
	rules := ChessRules{}
	first, err := rules.LegalMoves(startFEN)
	if err != nil {
		t.Fatalf("LegalMoves error = %v", err)
	}
	if len(first) != 20 {
		t.Fatalf("start position has %d moves, want 20", len(first))
	}
	second, _ := rules.LegalMoves(startFEN)
	for i := range first {
		if first[i].Move != second[i].Move || first[i].Position != second[i].Position {
			t.Fatalf("enumeration order differs at %d: %s vs %s", i, first[i].Move, second[i].Move)
		}
	}
	for _, m := range first {
		if m.From+m.To != m.Move {
			t.Fatalf("candidate %+v: from/to do not match move", m)
		}
		if m.Position.SideToMove() != Black {
			t.Fatalf("after %s side to move = %s, want black", m.Move, m.Position.SideToMove())
		}
	}
}

func TestChessRulesPromotion(t *testing.T) {
	moves, err := ChessRules{}.LegalMoves(promotionFEN)
	if err != nil {
		t.Fatalf("LegalMoves error = %v", err)
	}
	promos := map[string]bool{}
	for _, m := range moves {
		if m.Promotion != "" {
			promos[m.Promotion] = true
			if m.Move != "a7a8"+m.Promotion {
				t.Fatalf("promotion move = %q", m.Move)
			}
		}
	}
	for _, p := range []string{"q", "r", "b", "n"} {
		if !promos[p] {
			t.Fatalf("missing promotion to %s in %v", p, promos)
		}
	}
}

func TestChessRulesApply(t *testing.T) {
	rules := ChessRules{}
	moves, _ := rules.LegalMoves(startFEN)

	for _, m := range moves {
		got, err := rules.Apply(startFEN, m.Move)
		if err != nil {
			t.Fatalf("Apply(%s) error = %v", m.Move, err)
		}
		if got != m.Position {
			t.Fatalf("Apply(%s) = %q, want %q", m.Move, got, m.Position)
		}
	}

	if _, err := rules.Apply(startFEN, "e2e5"); !errors.Is(err, ErrInvalidInput) {
		t.Fatalf("Apply(illegal) error = %v, want ErrInvalidInput", err)
	}
	if _, err := rules.Apply(startFEN, "zz"); !errors.Is(err, ErrInvalidInput) {
		t.Fatalf("Apply(garbage) error = %v, want ErrInvalidInput", err)
	}
}

func TestChessRulesTerminalStatus(t *testing.T) {
	cases := []struct {
		name string
		fen  Position
		want TerminalStatus
	}{
		{"start", startFEN, Ongoing},
		{"white mated", whiteMatedFEN, Checkmate},
		{"black mated", blackMatedFEN, Checkmate},
		{"stalemate", stalemateFEN, Stalemate},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			got, err := ChessRules{}.TerminalStatus(tc.fen)
			if err != nil {
				t.Fatalf("TerminalStatus error = %v", err)
			}
			if got != tc.want {
				t.Fatalf("TerminalStatus = %s, want %s", got, tc.want)
			}
		})
	}
}
