package oracle

import (
	"strings"
	"testing"

	"github.com/notnil/chess"
)

func TestBuildPromptDeterministic(t *testing.T) {
	a := BuildPrompt(testFEN)
	b := BuildPrompt(testFEN)
	if a != b {
		t.Fatalf("BuildPrompt is not deterministic")
	}
	for _, want := range []string{
		"FEN: " + testFEN,
		"between -10.0 and 10.0",
		"Side to move: White",
		"Phase: Opening",
		"Material: White 8P 2N 2B 2R 1Q; Black 8P 2N 2B 2R 1Q",
		"Center control: White 2, Black 2",
		"Castling: White can castle, Black can castle",
		"Legal moves: 20",
	} {
		if !strings.Contains(a, want) {
			t.Fatalf("prompt missing %q:\n%s", want, a)
		}
	}
}

func TestBuildPromptEndgame(t *testing.T) {
	p := BuildPrompt("8/5k2/8/8/8/8/3K1R2/8 b - - 0 52")
	for _, want := range []string{"Side to move: Black", "Phase: Endgame", "White 0P 0N 0B 1R 0Q", "White cannot castle"} {
		if !strings.Contains(p, want) {
			t.Fatalf("prompt missing %q:\n%s", want, p)
		}
	}
}

func TestCenterControl(t *testing.T) {
	// after 1.e4 d5 White reaches d5, e5 and d4
	fen := "rnbqkbnr/ppp1pppp/8/3p4/4P3/8/PPPP1PPP/RNBQKBNR w KQkq d6 0 2"
	if got := centerControl(fen, chess.White); got != 3 {
		t.Fatalf("White center = %d, want 3", got)
	}
	if got := centerControl("8/5k2/8/8/8/8/3K1R2/8 b - - 0 52", chess.Black); got != 0 {
		t.Fatalf("Black center = %d, want 0", got)
	}
}

func TestBuildPromptUnparseableFEN(t *testing.T) {
	p := BuildPrompt("not a fen")
	if !strings.Contains(p, "FEN: not a fen") || strings.Contains(p, "Side to move") {
		t.Fatalf("unexpected prompt for bad fen:\n%s", p)
	}
}
