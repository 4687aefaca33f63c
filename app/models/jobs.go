package models

import (
	"encoding/json"
	"time"
)

// JobRequest is the body of POST /jobs. Queued searches use the server's
// oracle key.
type JobRequest struct {
	FEN   string `json:"fen"`
	Depth int    `json:"depth"`
}

// JobMessage is what goes on the SQS queue.
type JobMessage struct {
	JobID string `json:"job_id"`
	FEN   string `json:"fen"`
	Depth int    `json:"depth"`
}

// JobStatus summarizes a queued search.
type JobStatus struct {
	ID        string          `json:"id"`
	Status    string          `json:"status"` // queued, running, completed, failed
	FEN       string          `json:"fen"`
	Depth     int             `json:"depth"`
	Error     string          `json:"error,omitempty"`
	Result    json.RawMessage `json:"result,omitempty"` // EvaluateResponse once completed
	CreatedAt time.Time       `json:"created_at"`
	UpdatedAt time.Time       `json:"updated_at"`
}

const (
	JobQueued    = "queued"
	JobRunning   = "running"
	JobCompleted = "completed"
	JobFailed    = "failed"
)
