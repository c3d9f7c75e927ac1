package store

import (
	"context"

	"github.com/google/uuid"
	"github.com/stretchr/testify/mock"
)

// MockStore is a mock implementation of Store using testify/mock.
type MockStore struct {
	mock.Mock
}

func (m *MockStore) CreateJob(ctx context.Context, sessionID, filename string) (Job, error) {
	args := m.Called(ctx, sessionID, filename)
	return args.Get(0).(Job), args.Error(1)
}

func (m *MockStore) CompleteJob(ctx context.Context, id uuid.UUID, res Result) error {
	args := m.Called(ctx, id, res)
	return args.Error(0)
}

func (m *MockStore) FailJob(ctx context.Context, id uuid.UUID, message string) error {
	args := m.Called(ctx, id, message)
	return args.Error(0)
}

func (m *MockStore) GetJob(ctx context.Context, id uuid.UUID) (Job, error) {
	args := m.Called(ctx, id)
	return args.Get(0).(Job), args.Error(1)
}

func (m *MockStore) ListJobs(ctx context.Context, sessionID string, limit int) ([]Job, error) {
	args := m.Called(ctx, sessionID, limit)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]Job), args.Error(1)
}

func (m *MockStore) Close() error {
	args := m.Called()
	return args.Error(0)
}
