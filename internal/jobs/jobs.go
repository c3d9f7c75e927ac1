// Package jobs records processing runs and moves them between the
// synchronous request path and the asynchronous worker.
package jobs

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"audio-summarizer/internal/engine"
	"audio-summarizer/internal/preference"
	"audio-summarizer/internal/queue"
	"audio-summarizer/internal/store"
)

const (
	enqueueAttempts = 3
	enqueueBackoff  = 200 * time.Millisecond
)

// Processor is the engine entry point.
type Processor interface {
	Process(ctx context.Context, filePath string, pref *preference.Preference) (engine.Outcome, error)
}

// Payload is the body of a transcribe task.
type Payload struct {
	JobID      uuid.UUID              `json:"job_id"`
	Path       string                 `json:"path"`
	Preference *preference.Preference `json:"preference,omitempty"`
}

type Service struct {
	engine Processor
	store  store.Store
	queue  queue.Queue
	log    *slog.Logger
}

// NewService wires a Service. q may be nil when no broker is configured.
func NewService(p Processor, s store.Store, q queue.Queue, log *slog.Logger) *Service {
	return &Service{engine: p, store: s, queue: q, log: log}
}

// Async reports whether jobs can be handed to a worker.
func (s *Service) Async() bool {
	return s.queue != nil
}

// Run processes path for job and records the outcome.
func (s *Service) Run(ctx context.Context, job store.Job, path string, pref *preference.Preference) (engine.Outcome, error) {
	out, err := s.engine.Process(ctx, path, pref)
	if err != nil {
		// Recording must survive a cancelled request context.
		if ferr := s.store.FailJob(context.WithoutCancel(ctx), job.ID, err.Error()); ferr != nil {
			s.log.Error("failed to record job failure", "job_id", job.ID, "err", ferr)
		}
		s.log.Warn("job failed", "job_id", job.ID, "file", job.Filename, "err", err)
		return engine.Outcome{}, err
	}

	res := store.Result{
		Transcription: out.Transcription,
		Summary:       out.Summary,
		Metrics:       out.Metrics,
		UsedRemote:    out.UsedRemote,
		ModelID:       out.ModelID,
	}
	if err := s.store.CompleteJob(context.WithoutCancel(ctx), job.ID, res); err != nil {
		s.log.Error("failed to record job result", "job_id", job.ID, "err", err)
	}
	s.log.Info("job done", "job_id", job.ID, "file", job.Filename, "remote", out.UsedRemote)
	return out, nil
}

// Enqueue hands job to the worker pool. The job is marked failed when the
// task cannot be published.
func (s *Service) Enqueue(ctx context.Context, job store.Job, path string, pref *preference.Preference) error {
	if s.queue == nil {
		return fmt.Errorf("enqueue job %s: no queue configured", job.ID)
	}
	body, err := json.Marshal(Payload{JobID: job.ID, Path: path, Preference: pref})
	if err != nil {
		return err
	}
	task := queue.Task{ID: uuid.New(), Type: queue.TaskTypeTranscribe, Payload: body, MaxAttempts: 1}
	if err := queue.EnqueueWithRetry(ctx, s.queue, task, enqueueAttempts, enqueueBackoff); err != nil {
		if ferr := s.store.FailJob(context.WithoutCancel(ctx), job.ID, "failed to enqueue job"); ferr != nil {
			s.log.Error("failed to record enqueue failure", "job_id", job.ID, "err", ferr)
		}
		return fmt.Errorf("enqueue job %s: %w", job.ID, err)
	}
	s.log.Info("job enqueued", "job_id", job.ID, "task_id", task.ID)
	return nil
}

// HandleTask is the queue handler for transcribe tasks. Processing failures
// are recorded on the job and not retried.
func (s *Service) HandleTask(ctx context.Context, task queue.Task) error {
	var p Payload
	if err := json.Unmarshal(task.Payload, &p); err != nil {
		return fmt.Errorf("decode task %s: %w", task.ID, err)
	}
	if p.JobID == uuid.Nil || p.Path == "" {
		return fmt.Errorf("decode task %s: job id and path are required", task.ID)
	}

	job, err := s.store.GetJob(ctx, p.JobID)
	if err != nil {
		return fmt.Errorf("load job %s: %w", p.JobID, err)
	}
	_, _ = s.Run(ctx, job, p.Path, p.Preference)
	return nil
}
