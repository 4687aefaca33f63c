package oracle

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"
)

// reDecimal finds a standalone decimal literal: digits glued to letters, such
// as the "2" in "e2e4", do not count.
var reDecimal = regexp.MustCompile(`(?:^|[^0-9A-Za-z_.])([-+]?(?:\d+(?:\.\d+)?|\.\d+))(?:[^0-9A-Za-z_.]|\.(?:[^0-9]|$)|$)`)

// unicodeMinus maps the dashes models write in place of an ASCII minus.
var unicodeMinus = strings.NewReplacer("\u2212", "-", "\u2013", "-")

// ParseScore extracts the score from an oracle reply. The first decimal
// literal is the score and whatever follows it is the rationale. Replies with
// no literal, or whose first literal is outside [MinScore, MaxScore], fail
// with ErrParse; scores are never clamped.
func ParseScore(text string) (float64, string, error) {
	text = unicodeMinus.Replace(text)
	m := reDecimal.FindStringSubmatchIndex(text)
	if m == nil {
		return 0, "", fmt.Errorf("%w: no decimal in %q", ErrParse, truncate(text, 80))
	}
	literal := text[m[2]:m[3]]
	v, err := strconv.ParseFloat(literal, 64)
	if err != nil {
		return 0, "", fmt.Errorf("%w: %q: %v", ErrParse, literal, err)
	}
	if v < MinScore || v > MaxScore {
		return 0, "", fmt.Errorf("%w: %s outside [%.1f, %.1f]", ErrParse, literal, MinScore, MaxScore)
	}
	rationale := strings.TrimLeft(strings.TrimSpace(text[m[3]:]), ".,;:)- ")
	return v, strings.TrimSpace(rationale), nil
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n] + "..."
}
