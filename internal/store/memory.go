package store

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"
)

// MemoryStore keeps jobs in process memory. Jobs are lost on restart.
type MemoryStore struct {
	mu   sync.RWMutex
	jobs map[uuid.UUID]Job
	now  func() time.Time
}

func NewMemory() *MemoryStore {
	return &MemoryStore{jobs: make(map[uuid.UUID]Job), now: time.Now}
}

func (s *MemoryStore) CreateJob(_ context.Context, sessionID, filename string) (Job, error) {
	now := s.now()
	job := Job{
		ID:        uuid.New(),
		SessionID: sessionID,
		Filename:  filename,
		Status:    StatusProcessing,
		CreatedAt: now,
		UpdatedAt: now,
	}
	s.mu.Lock()
	s.jobs[job.ID] = job
	s.mu.Unlock()
	return job, nil
}

func (s *MemoryStore) CompleteJob(_ context.Context, id uuid.UUID, res Result) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	job, ok := s.jobs[id]
	if !ok {
		return ErrJobNotFound
	}
	job.Status = StatusDone
	job.Error = ""
	job.Transcription = res.Transcription
	job.Summary = res.Summary
	job.Metrics = res.Metrics
	job.UsedRemote = res.UsedRemote
	job.ModelID = res.ModelID
	job.UpdatedAt = s.now()
	s.jobs[id] = job
	return nil
}

func (s *MemoryStore) FailJob(_ context.Context, id uuid.UUID, message string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	job, ok := s.jobs[id]
	if !ok {
		return ErrJobNotFound
	}
	job.Status = StatusFailed
	job.Error = message
	job.UpdatedAt = s.now()
	s.jobs[id] = job
	return nil
}

func (s *MemoryStore) GetJob(_ context.Context, id uuid.UUID) (Job, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	job, ok := s.jobs[id]
	if !ok {
		return Job{}, ErrJobNotFound
	}
	return job, nil
}

func (s *MemoryStore) ListJobs(_ context.Context, sessionID string, limit int) ([]Job, error) {
	s.mu.RLock()
	out := make([]Job, 0)
	for _, job := range s.jobs {
		if job.SessionID == sessionID {
			out = append(out, job)
		}
	}
	s.mu.RUnlock()

	sort.Slice(out, func(i, j int) bool {
		return out[i].CreatedAt.After(out[j].CreatedAt)
	})
	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

func (s *MemoryStore) Close() error { return nil }
