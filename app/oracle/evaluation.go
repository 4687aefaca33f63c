// Package oracle turns a chess position into a numeric score by asking an
// external language model, with a strict reply format and a bounded retry
// policy around the call.
package oracle

const (
	MinScore = -10.0
	MaxScore = 10.0
)

// Credentials authenticate requests to the oracle.
type Credentials struct {
	APIKey string
}

// String keeps keys out of logs and error messages.
func (c Credentials) String() string {
	if c.APIKey == "" {
		return "credentials(none)"
	}
	return "credentials(redacted)"
}

// Evaluation is the outcome of scoring one position: either a score in
// [MinScore, MaxScore] with optional rationale, or Err.
type Evaluation struct {
	Score     float64
	Rationale string
	Err       error
	// Attempts is how many oracle calls were made.
	Attempts int
}

func (e Evaluation) OK() bool { return e.Err == nil }
