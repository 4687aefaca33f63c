package app

import (
	"strings"

	"github.com/umatt1/ai-chess-evaluator/app/models"
	"github.com/umatt1/ai-chess-evaluator/app/search"
)

const defaultLines = 5

// BuildResponse turns a finished search into the API response. lines caps the
// number of root lines; withTree controls whether the full tree is attached.
func BuildResponse(fen string, res *search.Result, lines int, withTree bool) models.EvaluateResponse {
	out := models.EvaluateResponse{
		FEN:         fen,
		Depth:       res.Depth,
		Evaluation:  res.Score,
		Partial:     res.Partial,
		OracleCalls: res.OracleCalls,
		ElapsedMS:   res.Elapsed.Milliseconds(),
		Lines:       []models.Line{},
	}
	if res.BestMove != nil {
		mv := res.BestMove.Move
		out.BestMove = &mv
	}
	for _, n := range res.Lines(lines) {
		out.Lines = append(out.Lines, toLine(n))
	}
	if withTree {
		out.Tree = toTree(res.Root)
	}
	return out
}

func toLine(n *search.Node) models.Line {
	l := models.Line{
		Move:         n.MoveString(),
		Evaluation:   evaluation(n),
		Partial:      n.Partial,
		Continuation: n.PrincipalVariation(),
	}
	if l.Continuation == nil {
		l.Continuation = []string{}
	}
	if n.Err != nil {
		l.Error = n.Err.Error()
	}
	return l
}

func toTree(n *search.Node) *models.TreeNode {
	t := &models.TreeNode{
		Move:       n.MoveString(),
		FEN:        n.Position.String(),
		Evaluation: evaluation(n),
		Partial:    n.Partial,
		Rationale:  n.Rationale,
	}
	if n.Status.Terminal() {
		t.Terminal = n.Status.String()
	}
	if n.Err != nil {
		t.Error = n.Err.Error()
	}
	for _, c := range n.Children {
		t.Children = append(t.Children, toTree(c))
	}
	return t
}

func evaluation(n *search.Node) *float64 {
	if !n.Scored || n.Failed() {
		return nil
	}
	v := n.Score
	return &v
}

// nodeRow is one flattened tree node for storage. Path is the space separated
// move sequence from the root; the root's path is empty.
type nodeRow struct {
	Path       string
	ParentPath string
	Ply        int
	Move       string
	FEN        string
	Evaluation *float64
	Terminal   string
	Partial    bool
	Rationale  string
	Error      string
}

func flattenTree(root *search.Node) []nodeRow {
	var rows []nodeRow
	var walk func(n *search.Node, moves []string)
	walk = func(n *search.Node, moves []string) {
		row := nodeRow{
			Path:       strings.Join(moves, " "),
			Ply:        len(moves),
			Move:       n.MoveString(),
			FEN:        n.Position.String(),
			Evaluation: evaluation(n),
			Partial:    n.Partial,
			Rationale:  n.Rationale,
		}
		if len(moves) > 0 {
			row.ParentPath = strings.Join(moves[:len(moves)-1], " ")
		}
		if n.Status.Terminal() {
			row.Terminal = n.Status.String()
		}
		if n.Err != nil {
			row.Error = n.Err.Error()
		}
		rows = append(rows, row)
		for _, c := range n.Children {
			next := make([]string, len(moves), len(moves)+1)
			copy(next, moves)
			walk(c, append(next, c.MoveString()))
		}
	}
	walk(root, nil)
	return rows
}
