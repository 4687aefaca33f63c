package oracle

import (
	"fmt"
	"strings"

	"github.com/notnil/chess"
)

const (
	openingMoves      = 10
	middlegamePieces  = 20
	promptInstruction = `You are a chess position evaluator.
Answer with exactly one decimal number between -10.0 and 10.0 as the first thing in your reply.
Positive numbers favor White, negative numbers favor Black, 0.0 means equal.
Use decimal notation (0.5, not 1/2). You may follow the number with one short sentence of rationale,
but do not write any other number before the evaluation.`
)

var centerSquares = []chess.Square{chess.D4, chess.E4, chess.D5, chess.E5}

// materialOrder is the order pieces are listed in the material line.
var materialOrder = []chess.PieceType{chess.Pawn, chess.Knight, chess.Bishop, chess.Rook, chess.Queen}

type positionSummary struct {
	Turn          string
	Phase         string
	WhiteMaterial string
	BlackMaterial string
	WhiteCastling string
	BlackCastling string
	WhiteCenter   int
	BlackCenter   int
	LegalMoves    int
}

// BuildPrompt renders the scoring request for fen. The output depends only on
// fen, so identical positions always produce identical requests.
func BuildPrompt(fen string) string {
	var b strings.Builder
	b.WriteString(promptInstruction)
	b.WriteString("\n\nPosition:\nFEN: ")
	b.WriteString(fen)
	b.WriteString("\n")

	if s, err := summarize(fen); err == nil {
		fmt.Fprintf(&b, "Side to move: %s\n", s.Turn)
		fmt.Fprintf(&b, "Phase: %s\n", s.Phase)
		fmt.Fprintf(&b, "Material: White %s; Black %s\n", s.WhiteMaterial, s.BlackMaterial)
		fmt.Fprintf(&b, "Center control: White %d, Black %d\n", s.WhiteCenter, s.BlackCenter)
		fmt.Fprintf(&b, "Castling: White %s, Black %s\n", s.WhiteCastling, s.BlackCastling)
		fmt.Fprintf(&b, "Legal moves: %d\n", s.LegalMoves)
	}

	b.WriteString("\nConsider material (pawn=1, knight=3, bishop=3, rook=5, queen=9), king safety,\n")
	b.WriteString("pawn structure, piece activity and development.\n\nEvaluation:")
	return b.String()
}

func summarize(fen string) (positionSummary, error) {
	opt, err := chess.FEN(fen)
	if err != nil {
		return positionSummary{}, err
	}
	pos := chess.NewGame(opt).Position()

	counts := map[chess.Piece]int{}
	pieces := 0
	for _, p := range pos.Board().SquareMap() {
		counts[p]++
		if p.Type() != chess.King {
			pieces++
		}
	}

	// notnil/chess does not expose the fullmove counter; read it off the FEN.
	moveNum := 1
	if parts := strings.Fields(fen); len(parts) >= 6 {
		fmt.Sscanf(parts[5], "%d", &moveNum)
	}
	phase := "Endgame"
	switch {
	case moveNum <= openingMoves:
		phase = "Opening"
	case pieces > middlegamePieces:
		phase = "Middlegame"
	}

	turn := "White"
	if pos.Turn() == chess.Black {
		turn = "Black"
	}

	return positionSummary{
		Turn:          turn,
		Phase:         phase,
		WhiteMaterial: material(counts, chess.White),
		BlackMaterial: material(counts, chess.Black),
		WhiteCastling: castling(pos, chess.White),
		BlackCastling: castling(pos, chess.Black),
		WhiteCenter:   centerControl(fen, chess.White),
		BlackCenter:   centerControl(fen, chess.Black),
		LegalMoves:    len(pos.ValidMoves()),
	}, nil
}

func material(counts map[chess.Piece]int, c chess.Color) string {
	parts := make([]string, 0, len(materialOrder))
	for _, pt := range materialOrder {
		parts = append(parts, fmt.Sprintf("%d%s", counts[chess.NewPiece(pt, c)], strings.ToUpper(pt.String())))
	}
	return strings.Join(parts, " ")
}

func castling(pos *chess.Position, c chess.Color) string {
	cr := pos.CastleRights()
	if cr.CanCastle(c, chess.KingSide) || cr.CanCastle(c, chess.QueenSide) {
		return "can castle"
	}
	return "cannot castle"
}

// centerControl counts the center squares c can move a piece onto, as if it
// were c's turn.
func centerControl(fen string, c chess.Color) int {
	parts := strings.Fields(fen)
	if len(parts) < 4 {
		return 0
	}
	parts[1] = "w"
	if c == chess.Black {
		parts[1] = "b"
	}
	parts[3] = "-"
	opt, err := chess.FEN(strings.Join(parts, " "))
	if err != nil {
		return 0
	}
	reached := map[chess.Square]bool{}
	for _, m := range chess.NewGame(opt).Position().ValidMoves() {
		reached[m.S2()] = true
	}
	n := 0
	for _, sq := range centerSquares {
		if reached[sq] {
			n++
		}
	}
	return n
}
