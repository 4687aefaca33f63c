package search

import (
	"fmt"
	"strings"

	"github.com/notnil/chess"
)

type TerminalStatus int

const (
	Ongoing TerminalStatus = iota
	Checkmate
	Stalemate
	NoLegalMoves
)

func (t TerminalStatus) String() string {
	switch t {
	case Checkmate:
		return "checkmate"
	case Stalemate:
		return "stalemate"
	case NoLegalMoves:
		return "no-legal-moves"
	default:
		return "ongoing"
	}
}

func (t TerminalStatus) Terminal() bool { return t != Ongoing }

// MoveCandidate is a legal move in UCI notation paired with the position it
// produces.
type MoveCandidate struct {
	Move      string
	From      string
	To        string
	Promotion string
	Position  Position
}

// MoveRules is the rules engine the search trusts. Implementations must be
// deterministic, side-effect free and enumerate moves in a stable order.
type MoveRules interface {
	Parse(fen string) (Position, error)
	LegalMoves(pos Position) ([]MoveCandidate, error)
	Apply(pos Position, move string) (Position, error)
	TerminalStatus(pos Position) (TerminalStatus, error)
}

// ChessRules implements MoveRules on top of notnil/chess.
type ChessRules struct{}

var _ MoveRules = ChessRules{}

// Parse validates a FEN and returns it in canonical form. A FEN without the
// halfmove and fullmove counters gets "0 1".
func (r ChessRules) Parse(fen string) (Position, error) {
	fields := strings.Fields(fen)
	if len(fields) == 4 {
		fields = append(fields, "0", "1")
	}
	if len(fields) != 6 {
		return "", fmt.Errorf("%w: fen %q must have 6 fields", ErrInvalidInput, fen)
	}
	pos, err := r.position(Position(strings.Join(fields, " ")))
	if err != nil {
		return "", err
	}
	kings := map[chess.Color]int{}
	for _, p := range pos.Board().SquareMap() {
		if p.Type() == chess.King {
			kings[p.Color()]++
		}
	}
	if kings[chess.White] != 1 || kings[chess.Black] != 1 {
		return "", fmt.Errorf("%w: fen %q needs one king per side", ErrInvalidInput, fen)
	}
	return Position(pos.String()), nil
}

func (r ChessRules) LegalMoves(pos Position) ([]MoveCandidate, error) {
	p, err := r.position(pos)
	if err != nil {
		return nil, err
	}
	valid := p.ValidMoves()
	out := make([]MoveCandidate, 0, len(valid))
	for _, m := range valid {
		out = append(out, candidate(p, m))
	}
	return out, nil
}

func (r ChessRules) Apply(pos Position, move string) (Position, error) {
	p, err := r.position(pos)
	if err != nil {
		return "", err
	}
	decoded, err := chess.UCINotation{}.Decode(p, move)
	if err != nil {
		return "", fmt.Errorf("%w: move %q: %v", ErrInvalidInput, move, err)
	}
	// Decode does not check legality, so match against the generated list.
	for _, m := range p.ValidMoves() {
		if m.S1() == decoded.S1() && m.S2() == decoded.S2() && m.Promo() == decoded.Promo() {
			return Position(p.Update(m).String()), nil
		}
	}
	return "", fmt.Errorf("%w: move %q is not legal in %s", ErrInvalidInput, move, pos)
}

func (r ChessRules) TerminalStatus(pos Position) (TerminalStatus, error) {
	p, err := r.position(pos)
	if err != nil {
		return Ongoing, err
	}
	switch p.Status() {
	case chess.Checkmate:
		return Checkmate, nil
	case chess.Stalemate:
		return Stalemate, nil
	}
	if len(p.ValidMoves()) == 0 {
		return NoLegalMoves, nil
	}
	return Ongoing, nil
}

func (ChessRules) position(pos Position) (*chess.Position, error) {
	opt, err := chess.FEN(string(pos))
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidInput, err)
	}
	return chess.NewGame(opt).Position(), nil
}

func candidate(p *chess.Position, m *chess.Move) MoveCandidate {
	uci := chess.UCINotation{}.Encode(p, m)
	promo := ""
	if len(uci) == 5 {
		promo = uci[4:]
	}
	return MoveCandidate{
		Move:      uci,
		From:      m.S1().String(),
		To:        m.S2().String(),
		Promotion: promo,
		Position:  Position(p.Update(m).String()),
	}
}
