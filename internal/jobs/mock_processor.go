package jobs

import (
	"context"

	"github.com/stretchr/testify/mock"

	"audio-summarizer/internal/engine"
	"audio-summarizer/internal/preference"
)

// MockProcessor is a mock implementation of Processor using testify/mock.
type MockProcessor struct {
	mock.Mock
}

func (m *MockProcessor) Process(ctx context.Context, filePath string, pref *preference.Preference) (engine.Outcome, error) {
	args := m.Called(ctx, filePath, pref)
	return args.Get(0).(engine.Outcome), args.Error(1)
}
