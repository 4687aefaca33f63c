package oracle

import (
	"errors"
	"fmt"
	"net/http"
)

var (
	// ErrAuth is fatal: the credentials were refused. Never retried.
	ErrAuth = errors.New("oracle authentication failed")
	// ErrTransient covers network errors, rate limits, server errors and
	// per-call timeouts. Retried up to the policy bound.
	ErrTransient = errors.New("oracle temporarily unavailable")
	// ErrParse means a response arrived but held no in-range score.
	ErrParse = errors.New("oracle response has no valid score")
	// ErrRejected is any other refusal of the request. Not retried.
	ErrRejected = errors.New("oracle rejected request")
)

type httpError struct {
	Status int
	Body   string
}

func (e httpError) Error() string { return fmt.Sprintf("http %d: %s", e.Status, e.Body) }

// Unwrap maps the status onto the oracle error kinds so callers can use
// errors.Is.
func (e httpError) Unwrap() error { return classifyStatus(e.Status) }

func classifyStatus(status int) error {
	switch {
	case status == http.StatusUnauthorized || status == http.StatusForbidden:
		return ErrAuth
	case status == http.StatusRequestTimeout || status == http.StatusTooManyRequests || status >= 500:
		return ErrTransient
	default:
		return ErrRejected
	}
}
