package models

// EvaluateRequest is the body of POST /evaluate and POST /bot-move.
type EvaluateRequest struct {
	FEN    string `json:"fen"`
	Depth  int    `json:"depth"`          // plies, 1..3; 0 means server default
	APIKey string `json:"openai_api_key"` // oracle credentials, never stored
}

// Line is one root move with its backed-up score.
type Line struct {
	Move         string   `json:"move"` // UCI, e.g. "e2e4"
	Evaluation   *float64 `json:"evaluation"`
	Partial      bool     `json:"partial,omitempty"`
	Continuation []string `json:"continuation"` // best reply chain after Move
	Error        string   `json:"error,omitempty"`
}

// TreeNode is the annotated search tree returned for display.
type TreeNode struct {
	Move       string      `json:"move,omitempty"`
	FEN        string      `json:"fen"`
	Evaluation *float64    `json:"evaluation"`
	Terminal   string      `json:"terminal,omitempty"` // checkmate, stalemate, no-legal-moves
	Partial    bool        `json:"partial,omitempty"`
	Rationale  string      `json:"rationale,omitempty"`
	Error      string      `json:"error,omitempty"`
	Children   []*TreeNode `json:"children,omitempty"`
}

type EvaluateResponse struct {
	FEN         string    `json:"fen"`
	Depth       int       `json:"depth"`
	BestMove    *string   `json:"best_move"` // null at depth 1 or a finished game
	Evaluation  float64   `json:"evaluation"`
	Partial     bool      `json:"partial"`
	OracleCalls int64     `json:"oracle_calls"`
	ElapsedMS   int64     `json:"elapsed_ms"`
	Lines       []Line    `json:"lines"`
	Tree        *TreeNode `json:"tree,omitempty"`
}

type BotMoveResponse struct {
	FEN        string  `json:"fen"`
	BestMove   string  `json:"best_move"`
	Evaluation float64 `json:"evaluation"`
	Partial    bool    `json:"partial"`
	ResultFEN  string  `json:"result_fen"`
}
