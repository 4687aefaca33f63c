package search

import "strings"

// Position is a FEN string. Values are produced only by MoveRules or by
// parsing request input, so they are always a valid encoding.
type Position string

type Side int

const (
	White Side = iota
	Black
)

// Maximizer is the side that positive scores favor. Aggregation never flips
// sign; it only picks the extreme for whoever is to move.
const Maximizer = White

func (s Side) String() string {
	if s == Black {
		return "black"
	}
	return "white"
}

// SideToMove reads the active color field of the FEN.
func (p Position) SideToMove() Side {
	fields := strings.Fields(string(p))
	if len(fields) > 1 && fields[1] == "b" {
		return Black
	}
	return White
}

func (p Position) String() string { return string(p) }

// NormalizeFEN strips move counters and keeps only the structural position:
// <pieces> <side> <castling> <en-passant>
func NormalizeFEN(fen string) string {
	parts := strings.Fields(fen)
	if len(parts) < 4 {
		// malformed FEN, return original
		return fen
	}
	return strings.Join(parts[:4], " ")
}
