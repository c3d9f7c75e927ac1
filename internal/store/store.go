package store

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"

	"audio-summarizer/internal/rouge"
)

type JobStatus string

const (
	StatusProcessing JobStatus = "processing"
	StatusDone       JobStatus = "done"
	StatusFailed     JobStatus = "failed"
)

var ErrJobNotFound = errors.New("job not found")

// Result is what a finished job produced.
type Result struct {
	Transcription string
	Summary       string
	Metrics       rouge.Metrics
	UsedRemote    bool
	ModelID       string
}

type Job struct {
	ID        uuid.UUID `json:"id"`
	SessionID string    `json:"-"`
	Filename  string    `json:"filename"`
	Status    JobStatus `json:"status"`
	Error     string    `json:"error,omitempty"`

	Transcription string        `json:"transcription,omitempty"`
	Summary       string        `json:"summary,omitempty"`
	Metrics       rouge.Metrics `json:"metrics"`
	UsedRemote    bool          `json:"useRemote"`
	ModelID       string        `json:"modelId,omitempty"`

	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

// Store defines the job persistence contract. ListJobs returns the newest jobs first.
type Store interface {
	CreateJob(ctx context.Context, sessionID, filename string) (Job, error)
	CompleteJob(ctx context.Context, id uuid.UUID, res Result) error
	FailJob(ctx context.Context, id uuid.UUID, message string) error
	GetJob(ctx context.Context, id uuid.UUID) (Job, error)
	ListJobs(ctx context.Context, sessionID string, limit int) ([]Job, error)
	Close() error
}
