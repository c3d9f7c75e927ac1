package transcriber

import (
	"context"

	"github.com/stretchr/testify/mock"
)

// MockTranscriber is a mock implementation of the transcriber contract using testify/mock.
type MockTranscriber struct {
	mock.Mock
}

func (m *MockTranscriber) Transcribe(ctx context.Context, filePath string) (Result, error) {
	args := m.Called(ctx, filePath)
	return args.Get(0).(Result), args.Error(1)
}
