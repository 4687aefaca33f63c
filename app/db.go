package app

import (
	"context"
	"database/sql"
	"errors"

	"github.com/lib/pq"
	"github.com/rs/zerolog"

	"github.com/umatt1/ai-chess-evaluator/app/config"
	"github.com/umatt1/ai-chess-evaluator/app/models"
	"github.com/umatt1/ai-chess-evaluator/app/search"
)

var db *sql.DB

var errNoDatabase = errors.New("database not configured")

// MustInitDB opens the global db and exits on error. Without POSTGRES_URL the
// service runs without persistence.
func MustInitDB(cfg config.PostgresConfig, log zerolog.Logger) {
	if !cfg.Enabled() {
		log.Warn().Msg("POSTGRES_URL not set; searches and jobs will not be stored")
		return
	}

	d, err := sql.Open("postgres", cfg.DSN())
	if err != nil {
		log.Fatal().Err(err).Msg("sql.Open")
	}

	if err := d.Ping(); err != nil {
		log.Fatal().Err(err).Msg("db.Ping")
	}

	log.Info().Str("host", cfg.URL).Msg("Connected to Postgres")
	db = d
}

// SaveSearch stores a finished search and its whole tree, returning the new
// search id. It is a no-op without a database.
func SaveSearch(ctx context.Context, source string, res *search.Result) (string, error) {
	if db == nil {
		// Allow test runs without a backing DB.
		return "", nil
	}

	// One transaction for everything
	tx, err := db.BeginTx(ctx, &sql.TxOptions{})
	if err != nil {
		return "", err
	}
	defer tx.Rollback()

	var bestMove sql.NullString
	if res.BestMove != nil {
		bestMove = sql.NullString{String: res.BestMove.Move, Valid: true}
	}

	var searchID string
	err = tx.QueryRowContext(ctx, `
		INSERT INTO searches (fen, depth, best_move, evaluation, partial, oracle_calls, elapsed_ms, source)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		RETURNING id;
	`, res.Root.Position.String(), res.Depth, bestMove, res.Score, res.Partial,
		res.OracleCalls, res.Elapsed.Milliseconds(), source).Scan(&searchID)
	if err != nil {
		return "", err
	}

	// 1) Temp staging table
	_, err = tx.ExecContext(ctx, `
		CREATE TEMP TABLE tmp_search_nodes (
			search_id    UUID,
			path         TEXT,
			parent_path  TEXT,
			ply          INT,
			move         TEXT,
			fen          TEXT,
			evaluation   DOUBLE PRECISION,
			terminal     TEXT,
			partial      BOOLEAN,
			rationale    TEXT,
			error        TEXT
		) ON COMMIT DROP;
	`)
	if err != nil {
		return "", err
	}

	// 2) COPY into tmp_search_nodes
	stmt, err := tx.PrepareContext(ctx, pq.CopyIn(
		"tmp_search_nodes",
		"search_id",
		"path",
		"parent_path",
		"ply",
		"move",
		"fen",
		"evaluation",
		"terminal",
		"partial",
		"rationale",
		"error",
	))
	if err != nil {
		return "", err
	}

	for _, r := range flattenTree(res.Root) {
		var eval sql.NullFloat64
		if r.Evaluation != nil {
			eval = sql.NullFloat64{Float64: *r.Evaluation, Valid: true}
		}
		if _, err := stmt.ExecContext(ctx,
			searchID,
			r.Path,
			r.ParentPath,
			r.Ply,
			r.Move,
			r.FEN,
			eval,
			r.Terminal,
			r.Partial,
			r.Rationale,
			r.Error,
		); err != nil {
			return "", err
		}
	}

	// finish COPY
	if _, err := stmt.ExecContext(ctx); err != nil {
		return "", err
	}
	if err := stmt.Close(); err != nil {
		return "", err
	}

	// 3) Move into the real table
	_, err = tx.ExecContext(ctx, `
		INSERT INTO search_nodes (
			search_id, path, parent_path, ply, move, fen,
			evaluation, terminal, partial, rationale, error
		)
		SELECT
			search_id, path, parent_path, ply, move, fen,
			evaluation, terminal, partial, rationale, error
		FROM tmp_search_nodes;
	`)
	if err != nil {
		return "", err
	}

	if err := tx.Commit(); err != nil {
		return "", err
	}
	return searchID, nil
}

func CreateJob(ctx context.Context, fen string, depth int) (string, error) {
	if db == nil {
		return "", errNoDatabase
	}
	const q = `
        INSERT INTO search_jobs (fen, depth, status)
        VALUES ($1, $2, $3)
        RETURNING id;
    `
	var jobID string
	if err := db.QueryRowContext(ctx, q, fen, depth, models.JobQueued).Scan(&jobID); err != nil {
		return "", err
	}
	return jobID, nil
}

// MarkJobRunning moves a job to running. Completed jobs are left alone so a
// redelivered message does not reopen them.
func MarkJobRunning(ctx context.Context, jobID string) error {
	if db == nil {
		return nil
	}
	const q = `
        UPDATE search_jobs
        SET status = $2, updated_at = now()
        WHERE id = $1 AND status <> $3;
    `
	_, err := db.ExecContext(ctx, q, jobID, models.JobRunning, models.JobCompleted)
	return err
}

func CompleteJob(ctx context.Context, jobID, searchID string, result []byte) error {
	if db == nil {
		return nil
	}
	var sid sql.NullString
	if searchID != "" {
		sid = sql.NullString{String: searchID, Valid: true}
	}
	const q = `
        UPDATE search_jobs
        SET status = $2, search_id = $3, result = $4, error = NULL, updated_at = now()
        WHERE id = $1;
    `
	_, err := db.ExecContext(ctx, q, jobID, models.JobCompleted, sid, result)
	return err
}

func FailJob(ctx context.Context, jobID, msg string) error {
	if db == nil {
		return nil
	}
	const q = `
        UPDATE search_jobs
        SET status = $2, error = $3, updated_at = now()
        WHERE id = $1;
    `
	_, err := db.ExecContext(ctx, q, jobID, models.JobFailed, msg)
	return err
}

// FindJobStatus fetches a job and its stored result.
func FindJobStatus(ctx context.Context, jobID string) (models.JobStatus, error) {
	if db == nil {
		return models.JobStatus{}, errNoDatabase
	}
	var (
		js     models.JobStatus
		errMsg sql.NullString
		result []byte
	)

	const q = `
        SELECT id, status, fen, depth, error, result, created_at, updated_at
        FROM search_jobs
        WHERE id = $1;
    `

	row := db.QueryRowContext(ctx, q, jobID)
	if err := row.Scan(&js.ID, &js.Status, &js.FEN, &js.Depth, &errMsg, &result, &js.CreatedAt, &js.UpdatedAt); err != nil {
		return models.JobStatus{}, err
	}
	js.Error = errMsg.String
	if len(result) > 0 {
		js.Result = result
	}
	return js, nil
}
