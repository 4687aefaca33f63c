package search

// Node is one position in the search tree. A node is owned by the task that
// built it until that task hands it back to the parent.
type Node struct {
	Position Position
	// Move is the move that produced Position; nil at the root.
	Move *MoveCandidate
	// Depth is the remaining lookahead in plies.
	Depth int

	Score  float64
	Scored bool
	Status TerminalStatus
	// Partial is set when this node or any scored descendant lost a child.
	Partial   bool
	Rationale string
	Err       error

	Children []*Node
}

func (n *Node) Failed() bool { return n.Err != nil }

// MoveString returns the UCI move that led here, or "" at the root.
func (n *Node) MoveString() string {
	if n.Move == nil {
		return ""
	}
	return n.Move.Move
}

// PrincipalVariation follows the best reply chain below n.
func (n *Node) PrincipalVariation() []string {
	var pv []string
	for cur := n; len(cur.Children) > 0; {
		i := bestChild(cur)
		if i < 0 {
			break
		}
		cur = cur.Children[i]
		pv = append(pv, cur.MoveString())
	}
	return pv
}

// Count returns the number of nodes in the subtree rooted at n.
func (n *Node) Count() int {
	total := 1
	for _, c := range n.Children {
		total += c.Count()
	}
	return total
}
