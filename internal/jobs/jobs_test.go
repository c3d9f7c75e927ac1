package jobs

import (
	"context"
	"encoding/json"
	"errors"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"audio-summarizer/internal/engine"
	"audio-summarizer/internal/logger"
	"audio-summarizer/internal/preference"
	"audio-summarizer/internal/queue"
	"audio-summarizer/internal/rouge"
	"audio-summarizer/internal/store"
	"audio-summarizer/internal/transcriber"
)

func testOutcome() engine.Outcome {
	return engine.Outcome{
		Transcription: "the cat sat",
		Summary:       "cat sat",
		Metrics:       rouge.Metrics{Precision: 100, Recall: 66.67, FScore: 80},
	}
}

func TestRunRecordsSuccess(t *testing.T) {
	p := new(MockProcessor)
	s := new(store.MockStore)
	job := store.Job{ID: uuid.New(), Filename: "a.mp3"}

	p.On("Process", mock.Anything, "/up/a.mp3", (*preference.Preference)(nil)).Return(testOutcome(), nil)
	s.On("CompleteJob", mock.Anything, job.ID, store.Result{
		Transcription: "the cat sat",
		Summary:       "cat sat",
		Metrics:       rouge.Metrics{Precision: 100, Recall: 66.67, FScore: 80},
	}).Return(nil)

	svc := NewService(p, s, nil, logger.Discard())
	out, err := svc.Run(context.Background(), job, "/up/a.mp3", nil)

	require.NoError(t, err)
	assert.Equal(t, "cat sat", out.Summary)
	p.AssertExpectations(t)
	s.AssertExpectations(t)
	s.AssertNotCalled(t, "FailJob", mock.Anything, mock.Anything, mock.Anything)
}

func TestRunRecordsFailure(t *testing.T) {
	p := new(MockProcessor)
	s := new(store.MockStore)
	job := store.Job{ID: uuid.New(), Filename: "a.mp3"}
	toolErr := &transcriber.ExternalToolError{Message: transcriber.MsgNoOutput}

	p.On("Process", mock.Anything, "/up/a.mp3", mock.Anything).Return(engine.Outcome{}, toolErr)
	s.On("FailJob", mock.Anything, job.ID, toolErr.Error()).Return(nil)

	svc := NewService(p, s, nil, logger.Discard())
	_, err := svc.Run(context.Background(), job, "/up/a.mp3", &preference.Preference{Method: preference.MethodLocal})

	var got *transcriber.ExternalToolError
	require.ErrorAs(t, err, &got)
	s.AssertExpectations(t)
	s.AssertNotCalled(t, "CompleteJob", mock.Anything, mock.Anything, mock.Anything)
}

func TestRunIgnoresStoreErrorAfterSuccess(t *testing.T) {
	p := new(MockProcessor)
	s := new(store.MockStore)
	job := store.Job{ID: uuid.New()}

	p.On("Process", mock.Anything, mock.Anything, mock.Anything).Return(testOutcome(), nil)
	s.On("CompleteJob", mock.Anything, job.ID, mock.Anything).Return(errors.New("db down"))

	svc := NewService(p, s, nil, logger.Discard())
	out, err := svc.Run(context.Background(), job, "/x", nil)

	require.NoError(t, err)
	assert.Equal(t, testOutcome(), out)
}

func TestEnqueuePublishesTask(t *testing.T) {
	s := new(store.MockStore)
	q := new(queue.MockQueue)
	job := store.Job{ID: uuid.New()}
	pref := &preference.Preference{Method: preference.MethodRemote, ModelID: "m"}

	var published queue.Task
	q.On("Enqueue", mock.Anything, mock.AnythingOfType("queue.Task")).
		Run(func(args mock.Arguments) { published = args.Get(1).(queue.Task) }).
		Return(nil).Once()

	svc := NewService(new(MockProcessor), s, q, logger.Discard())
	require.True(t, svc.Async())
	require.NoError(t, svc.Enqueue(context.Background(), job, "/up/b.wav", pref))

	assert.Equal(t, queue.TaskTypeTranscribe, published.Type)
	var p Payload
	require.NoError(t, json.Unmarshal(published.Payload, &p))
	assert.Equal(t, Payload{JobID: job.ID, Path: "/up/b.wav", Preference: pref}, p)
	q.AssertExpectations(t)
}

func TestEnqueueFailureMarksJobFailed(t *testing.T) {
	s := new(store.MockStore)
	q := new(queue.MockQueue)
	job := store.Job{ID: uuid.New()}

	q.On("Enqueue", mock.Anything, mock.Anything).Return(errors.New("nats: no servers available"))
	s.On("FailJob", mock.Anything, job.ID, "failed to enqueue job").Return(nil).Once()

	svc := NewService(new(MockProcessor), s, q, logger.Discard())
	err := svc.Enqueue(context.Background(), job, "/up/b.wav", nil)

	require.Error(t, err)
	q.AssertNumberOfCalls(t, "Enqueue", enqueueAttempts)
	s.AssertExpectations(t)
}

func TestEnqueueWithoutQueue(t *testing.T) {
	svc := NewService(new(MockProcessor), new(store.MockStore), nil, logger.Discard())
	assert.False(t, svc.Async())
	assert.Error(t, svc.Enqueue(context.Background(), store.Job{ID: uuid.New()}, "/x", nil))
}

func TestHandleTask(t *testing.T) {
	job := store.Job{ID: uuid.New(), Filename: "c.mp3"}
	payload, err := json.Marshal(Payload{JobID: job.ID, Path: "/up/c.mp3"})
	require.NoError(t, err)

	t.Run("runs the job", func(t *testing.T) {
		p := new(MockProcessor)
		s := new(store.MockStore)
		s.On("GetJob", mock.Anything, job.ID).Return(job, nil)
		p.On("Process", mock.Anything, "/up/c.mp3", (*preference.Preference)(nil)).Return(testOutcome(), nil)
		s.On("CompleteJob", mock.Anything, job.ID, mock.Anything).Return(nil)

		svc := NewService(p, s, nil, logger.Discard())
		require.NoError(t, svc.HandleTask(context.Background(), queue.Task{Type: queue.TaskTypeTranscribe, Payload: payload}))
		p.AssertExpectations(t)
		s.AssertExpectations(t)
	})

	t.Run("processing failure is not retried", func(t *testing.T) {
		p := new(MockProcessor)
		s := new(store.MockStore)
		s.On("GetJob", mock.Anything, job.ID).Return(job, nil)
		p.On("Process", mock.Anything, mock.Anything, mock.Anything).
			Return(engine.Outcome{}, &transcriber.ExternalToolError{Message: "x"})
		s.On("FailJob", mock.Anything, job.ID, mock.Anything).Return(nil)

		svc := NewService(p, s, nil, logger.Discard())
		assert.NoError(t, svc.HandleTask(context.Background(), queue.Task{Payload: payload}))
		s.AssertExpectations(t)
	})

	t.Run("malformed payload", func(t *testing.T) {
		svc := NewService(new(MockProcessor), new(store.MockStore), nil, logger.Discard())
		assert.Error(t, svc.HandleTask(context.Background(), queue.Task{Payload: []byte("not json")}))
		assert.Error(t, svc.HandleTask(context.Background(), queue.Task{Payload: []byte(`{}`)}))
	})

	t.Run("unknown job", func(t *testing.T) {
		s := new(store.MockStore)
		s.On("GetJob", mock.Anything, job.ID).Return(store.Job{}, store.ErrJobNotFound)

		svc := NewService(new(MockProcessor), s, nil, logger.Discard())
		err := svc.HandleTask(context.Background(), queue.Task{Payload: payload})
		assert.ErrorIs(t, err, store.ErrJobNotFound)
	})
}
