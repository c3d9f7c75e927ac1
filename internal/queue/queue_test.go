package queue

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
)

func TestEnqueueWithRetry(t *testing.T) {
	task := Task{Type: TaskTypeTranscribe, Payload: []byte(`{}`)}
	errBroker := errors.New("broker unavailable")

	tests := []struct {
		name      string
		failures  int
		attempts  int
		wantErr   error
		wantCalls int
	}{
		{name: "first attempt succeeds", failures: 0, attempts: 3, wantCalls: 1},
		{name: "succeeds after retries", failures: 2, attempts: 3, wantCalls: 3},
		{name: "gives up after all attempts", failures: 3, attempts: 3, wantErr: errBroker, wantCalls: 3},
		{name: "zero attempts still tries once", failures: 1, attempts: 0, wantErr: errBroker, wantCalls: 1},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			q := new(MockQueue)
			if tt.failures > 0 {
				q.On("Enqueue", mock.Anything, task).Return(errBroker).Times(tt.failures)
			}
			q.On("Enqueue", mock.Anything, task).Return(nil).Maybe()

			err := EnqueueWithRetry(context.Background(), q, task, tt.attempts, time.Millisecond)

			if tt.wantErr != nil {
				assert.ErrorIs(t, err, tt.wantErr)
			} else {
				assert.NoError(t, err)
			}
			q.AssertNumberOfCalls(t, "Enqueue", tt.wantCalls)
		})
	}
}

func TestEnqueueWithRetryStopsOnCancel(t *testing.T) {
	q := new(MockQueue)
	q.On("Enqueue", mock.Anything, mock.Anything).Return(errors.New("down"))

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	err := EnqueueWithRetry(ctx, q, Task{Type: TaskTypeTranscribe}, 5, time.Hour)
	assert.ErrorIs(t, err, context.Canceled)
	q.AssertNumberOfCalls(t, "Enqueue", 1)
}

func TestSubject(t *testing.T) {
	assert.Equal(t, "tasks.transcribe", subject(TaskTypeTranscribe))
}
