package app

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/umatt1/ai-chess-evaluator/app/models"
	"github.com/umatt1/ai-chess-evaluator/app/oracle"
	"github.com/umatt1/ai-chess-evaluator/app/search"
)

// statusClientClosedRequest is nginx's code for a client that went away
// before the response was ready.
const statusClientClosedRequest = 499

func Health(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}

// EvaluatePosition runs a search with the caller's oracle key and returns the
// best move, the top lines and the scored tree.
//
// Query: ?lines=N (default 5), ?tree=false to omit the tree.
func (s *Service) EvaluatePosition(c *gin.Context) {
	var req models.EvaluateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body"})
		return
	}
	req.FEN = strings.TrimSpace(req.FEN)
	if req.FEN == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "missing fen"})
		return
	}
	if req.Depth == 0 {
		req.Depth = s.Config.Search.DefaultDepth
	}

	lines := defaultLines
	if q := c.Query("lines"); q != "" {
		if v, err := parsePositiveInt(q); err == nil {
			lines = v
		}
	}
	withTree := parseBoolDefault(c.Query("tree"), true)

	ctx, cancel := context.WithTimeout(c.Request.Context(), s.Config.Search.Timeout)
	defer cancel()

	res, err := s.Engine.Evaluate(ctx, req.FEN, req.Depth, oracle.Credentials{APIKey: req.APIKey})
	if err != nil {
		c.JSON(statusFor(err), gin.H{"error": err.Error()})
		return
	}

	if _, err := SaveSearch(ctx, "http", res); err != nil {
		// not fatal for the endpoint
		s.Log.Warn().Err(err).Msg("SaveSearch failed")
	}

	c.JSON(http.StatusOK, BuildResponse(req.FEN, res, lines, withTree))
}

// GetBotMove picks a move for the side to move. Finished games are rejected
// and the chosen move is checked against the rules before it is returned.
func (s *Service) GetBotMove(c *gin.Context) {
	var req models.EvaluateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body"})
		return
	}
	if req.Depth == 0 {
		req.Depth = s.Config.Search.DefaultDepth
	}
	if req.Depth < 2 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "bot moves need depth of at least 2"})
		return
	}

	rules := s.Engine.Rules()
	pos, err := rules.Parse(strings.TrimSpace(req.FEN))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	status, err := rules.TerminalStatus(pos)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	if status.Terminal() {
		c.JSON(http.StatusBadRequest, gin.H{"error": fmt.Sprintf("no legal moves available (%s)", status)})
		return
	}

	ctx, cancel := context.WithTimeout(c.Request.Context(), s.Config.Search.Timeout)
	defer cancel()

	res, err := s.Engine.Evaluate(ctx, string(pos), req.Depth, oracle.Credentials{APIKey: req.APIKey})
	if err != nil {
		c.JSON(statusFor(err), gin.H{"error": err.Error()})
		return
	}
	if res.BestMove == nil {
		c.JSON(http.StatusBadGateway, gin.H{"error": "search produced no move"})
		return
	}

	next, err := rules.Apply(pos, res.BestMove.Move)
	if err != nil || next != res.BestMove.Position {
		s.Log.Error().Err(err).Str("move", res.BestMove.Move).Str("fen", string(pos)).Msg("search chose an invalid move")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "search chose an invalid move"})
		return
	}

	if _, err := SaveSearch(ctx, "bot-move", res); err != nil {
		s.Log.Warn().Err(err).Msg("SaveSearch failed")
	}

	c.JSON(http.StatusOK, models.BotMoveResponse{
		FEN:        string(pos),
		BestMove:   res.BestMove.Move,
		Evaluation: res.Score,
		Partial:    res.Partial,
		ResultFEN:  string(next),
	})
}

// CreateSearchJob records a job and queues it for the worker.
func (s *Service) CreateSearchJob(c *gin.Context) {
	var req models.JobRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body"})
		return
	}
	if req.Depth == 0 {
		req.Depth = s.Config.Search.DefaultDepth
	}
	if req.Depth < search.MinDepth || req.Depth > search.MaxDepth {
		c.JSON(http.StatusBadRequest, gin.H{"error": fmt.Sprintf("depth must be between %d and %d", search.MinDepth, search.MaxDepth)})
		return
	}
	pos, err := s.Engine.Rules().Parse(strings.TrimSpace(req.FEN))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	if s.Queue == nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": "job queue not configured"})
		return
	}

	ctx, cancel := context.WithTimeout(c.Request.Context(), 10*time.Second)
	defer cancel()

	jobID, err := CreateJob(ctx, string(pos), req.Depth)
	if err != nil {
		s.Log.Error().Err(err).Msg("failed to create job")
		status := http.StatusInternalServerError
		if errors.Is(err, errNoDatabase) {
			status = http.StatusServiceUnavailable
		}
		c.JSON(status, gin.H{"error": "failed to create job"})
		return
	}

	msg := models.JobMessage{JobID: jobID, FEN: string(pos), Depth: req.Depth}
	if err := s.Queue.Enqueue(ctx, msg); err != nil {
		s.Log.Error().Err(err).Str("job_id", jobID).Msg("failed to enqueue job")
		if ferr := FailJob(ctx, jobID, "enqueue failed"); ferr != nil {
			s.Log.Warn().Err(ferr).Str("job_id", jobID).Msg("FailJob failed")
		}
		c.JSON(http.StatusBadGateway, gin.H{"error": "failed to enqueue job"})
		return
	}

	c.JSON(http.StatusAccepted, gin.H{
		"job_id": jobID,
		"status": models.JobQueued,
	})
}

// GetJobStatus returns status and, once finished, the stored result.
func GetJobStatus(c *gin.Context) {
	jobID := c.Param("jobid")
	if jobID == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "missing job id"})
		return
	}

	ctx, cancel := context.WithTimeout(c.Request.Context(), 5*time.Second)
	defer cancel()

	status, err := FindJobStatus(ctx, jobID)
	if err != nil {
		switch {
		case errors.Is(err, sql.ErrNoRows):
			c.JSON(http.StatusNotFound, gin.H{"error": "job not found"})
		case errors.Is(err, errNoDatabase):
			c.JSON(http.StatusServiceUnavailable, gin.H{"error": err.Error()})
		default:
			c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		}
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"job": status,
	})
}

// statusFor maps search and oracle errors onto HTTP statuses.
func statusFor(err error) int {
	switch {
	case errors.Is(err, search.ErrInvalidInput):
		return http.StatusBadRequest
	case errors.Is(err, oracle.ErrAuth):
		return http.StatusUnauthorized
	case errors.Is(err, context.DeadlineExceeded):
		return http.StatusGatewayTimeout
	case errors.Is(err, context.Canceled):
		return statusClientClosedRequest
	case errors.Is(err, search.ErrAggregation),
		errors.Is(err, oracle.ErrTransient),
		errors.Is(err, oracle.ErrParse),
		errors.Is(err, oracle.ErrRejected):
		return http.StatusBadGateway
	default:
		return http.StatusInternalServerError
	}
}
