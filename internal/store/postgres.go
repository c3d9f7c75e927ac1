package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	_ "github.com/jackc/pgx/v5/stdlib"
)

type PostgresStore struct {
	db *sql.DB
}

func NewPostgres(dsn string) (*PostgresStore, error) {
	db, err := sql.Open("pgx", dsn)
	if err != nil {
		return nil, err
	}
	s := &PostgresStore{db: db}
	if err := s.migrate(context.Background()); err != nil {
		_ = db.Close()
		return nil, err
	}
	return s, nil
}

// Gateway and worker both start against the same database.
const migrationLockID = 731904417

func (s *PostgresStore) migrate(ctx context.Context) error {
	// Session-level advisory locks belong to one connection, so lock, migrate
	// and unlock all run on the same pinned connection.
	conn, err := s.db.Conn(ctx)
	if err != nil {
		return fmt.Errorf("failed to get migration connection: %w", err)
	}
	defer conn.Close()

	if _, err := conn.ExecContext(ctx, `SELECT pg_advisory_lock($1)`, migrationLockID); err != nil {
		return fmt.Errorf("failed to acquire migration lock: %w", err)
	}
	defer func() {
		_, _ = conn.ExecContext(context.Background(), `SELECT pg_advisory_unlock($1)`, migrationLockID)
	}()

	stmts := []string{
		`CREATE TABLE IF NOT EXISTS jobs (
			id UUID PRIMARY KEY,
			session_id TEXT NOT NULL,
			filename TEXT NOT NULL,
			status TEXT NOT NULL,
			error TEXT NOT NULL DEFAULT '',
			transcription TEXT NOT NULL DEFAULT '',
			summary TEXT NOT NULL DEFAULT '',
			precision DOUBLE PRECISION NOT NULL DEFAULT 0,
			recall DOUBLE PRECISION NOT NULL DEFAULT 0,
			f_score DOUBLE PRECISION NOT NULL DEFAULT 0,
			used_remote BOOLEAN NOT NULL DEFAULT false,
			model_id TEXT NOT NULL DEFAULT '',
			created_at TIMESTAMPTZ NOT NULL DEFAULT now(),
			updated_at TIMESTAMPTZ NOT NULL DEFAULT now()
		);`,
		`CREATE INDEX IF NOT EXISTS jobs_session_created_idx ON jobs (session_id, created_at DESC);`,
	}
	for _, stmt := range stmts {
		if _, err := conn.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("migrate jobs table: %w", err)
		}
	}
	return nil
}

func (s *PostgresStore) CreateJob(ctx context.Context, sessionID, filename string) (Job, error) {
	now := time.Now().UTC()
	job := Job{
		ID:        uuid.New(),
		SessionID: sessionID,
		Filename:  filename,
		Status:    StatusProcessing,
		CreatedAt: now,
		UpdatedAt: now,
	}
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO jobs(id, session_id, filename, status, created_at, updated_at) VALUES($1,$2,$3,$4,$5,$5)`,
		job.ID, sessionID, filename, StatusProcessing, now)
	if err != nil {
		return Job{}, fmt.Errorf("insert job: %w", err)
	}
	return job, nil
}

func (s *PostgresStore) CompleteJob(ctx context.Context, id uuid.UUID, res Result) error {
	r, err := s.db.ExecContext(ctx, `
		UPDATE jobs SET
			status=$1, error='', transcription=$2, summary=$3,
			precision=$4, recall=$5, f_score=$6, used_remote=$7, model_id=$8,
			updated_at=now()
		WHERE id=$9`,
		StatusDone, res.Transcription, res.Summary,
		res.Metrics.Precision, res.Metrics.Recall, res.Metrics.FScore,
		res.UsedRemote, res.ModelID, id)
	return affected(r, err)
}

func (s *PostgresStore) FailJob(ctx context.Context, id uuid.UUID, message string) error {
	r, err := s.db.ExecContext(ctx,
		`UPDATE jobs SET status=$1, error=$2, updated_at=now() WHERE id=$3`,
		StatusFailed, message, id)
	return affected(r, err)
}

const jobColumns = `id, session_id, filename, status, error, transcription, summary,
	precision, recall, f_score, used_remote, model_id, created_at, updated_at`

func (s *PostgresStore) GetJob(ctx context.Context, id uuid.UUID) (Job, error) {
	row := s.db.QueryRowContext(ctx, `SELECT `+jobColumns+` FROM jobs WHERE id=$1`, id)
	job, err := scanJob(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return Job{}, ErrJobNotFound
		}
		return Job{}, fmt.Errorf("failed to get job %s: %w", id, err)
	}
	return job, nil
}

func (s *PostgresStore) ListJobs(ctx context.Context, sessionID string, limit int) ([]Job, error) {
	if limit <= 0 {
		limit = 100
	}
	rows, err := s.db.QueryContext(ctx,
		`SELECT `+jobColumns+` FROM jobs WHERE session_id=$1 ORDER BY created_at DESC LIMIT $2`,
		sessionID, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := make([]Job, 0)
	for rows.Next() {
		job, err := scanJob(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, job)
	}
	return out, rows.Err()
}

func (s *PostgresStore) Close() error {
	return s.db.Close()
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanJob(row rowScanner) (Job, error) {
	var (
		job    Job
		status string
	)
	err := row.Scan(&job.ID, &job.SessionID, &job.Filename, &status, &job.Error,
		&job.Transcription, &job.Summary,
		&job.Metrics.Precision, &job.Metrics.Recall, &job.Metrics.FScore,
		&job.UsedRemote, &job.ModelID, &job.CreatedAt, &job.UpdatedAt)
	job.Status = JobStatus(status)
	return job, err
}

func affected(res sql.Result, err error) error {
	if err != nil {
		return err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return ErrJobNotFound
	}
	return nil
}
