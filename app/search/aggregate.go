package search

import (
	"fmt"

	"github.com/umatt1/ai-chess-evaluator/app/oracle"
)

const (
	MateScore = oracle.MaxScore
	DrawScore = 0.0
)

// Combine returns max(scores) when the maximizing side is to move and
// min(scores) otherwise.
func Combine(side Side, scores []float64) (float64, error) {
	if len(scores) == 0 {
		return 0, ErrAggregation
	}
	best := scores[0]
	for _, s := range scores[1:] {
		if better(side, s, best) {
			best = s
		}
	}
	return best, nil
}

func better(side Side, a, b float64) bool {
	if side == Maximizer {
		return a > b
	}
	return a < b
}

// terminalScore is the rule score of a finished game. A mated side to move
// loses, so the sign is against it.
func terminalScore(status TerminalStatus, toMove Side) float64 {
	if status != Checkmate {
		return DrawScore
	}
	if toMove == Maximizer {
		return -MateScore
	}
	return MateScore
}

// backup scores n from its children. Failed children are skipped and mark n
// partial; if none succeeded n fails with ErrAggregation.
func backup(n *Node) {
	scores := make([]float64, 0, len(n.Children))
	failed := 0
	for _, c := range n.Children {
		if c.Failed() {
			failed++
			continue
		}
		scores = append(scores, c.Score)
		if c.Partial {
			n.Partial = true
		}
	}

	score, err := Combine(n.Position.SideToMove(), scores)
	if err != nil {
		n.Err = fmt.Errorf("%w: %d of %d children failed", ErrAggregation, failed, len(n.Children))
		return
	}
	n.Score = score
	n.Scored = true
	if failed > 0 {
		n.Partial = true
	}
}

// bestChild returns the index of the first successful child holding the
// extreme score for the side to move at n, or -1.
func bestChild(n *Node) int {
	side := n.Position.SideToMove()
	best := -1
	for i, c := range n.Children {
		if c.Failed() || !c.Scored {
			continue
		}
		if best < 0 || better(side, c.Score, n.Children[best].Score) {
			best = i
		}
	}
	return best
}
