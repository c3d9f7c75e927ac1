// Package engine turns an uploaded file into a transcription, a summary and a
// quality score. It drives the external transcriber, optionally re-summarizes
// through a hosted model, and scores the summary that will be shown.
package engine

import (
	"context"
	"log/slog"

	"audio-summarizer/internal/llm"
	"audio-summarizer/internal/preference"
	"audio-summarizer/internal/rouge"
	"audio-summarizer/internal/transcriber"
)

const (
	// RemotePrompt is prepended to the transcription sent to the hosted model.
	RemotePrompt = "Summarize the following transcription into a concise paragraph: "
	// FallbackPrefix starts the summary used when the hosted model fails.
	FallbackPrefix = "Error using Gemini API. Falling back to Python summary: "
)

// Transcriber produces the tool document for a file.
type Transcriber interface {
	Transcribe(ctx context.Context, filePath string) (transcriber.Result, error)
}

// Outcome is the result of a successful Process call.
type Outcome struct {
	Transcription string        `json:"transcription"`
	Summary       string        `json:"summary"`
	Metrics       rouge.Metrics `json:"metrics"`
	UsedRemote    bool          `json:"useRemote"`
	ModelID       string        `json:"modelId,omitempty"`
}

// Engine is stateless apart from its collaborators and safe for concurrent use.
type Engine struct {
	transcriber Transcriber
	remote      llm.Summarizer
	log         *slog.Logger
}

// New builds an Engine. remote may be nil, in which case remote requests
// always take the fallback path.
func New(t Transcriber, remote llm.Summarizer, log *slog.Logger) *Engine {
	return &Engine{transcriber: t, remote: remote, log: log}
}

// Process transcribes filePath and picks the summary according to pref
// (nil means local). The only error it returns is *transcriber.ExternalToolError;
// remote failures degrade to the local summary instead.
func (e *Engine) Process(ctx context.Context, filePath string, pref *preference.Preference) (Outcome, error) {
	res, err := e.transcriber.Transcribe(ctx, filePath)
	if err != nil {
		return Outcome{}, err
	}
	if res.Error != "" {
		return Outcome{}, &transcriber.ExternalToolError{Message: res.Error}
	}

	summary := res.Summary
	var modelID string
	if pref.IsRemote() {
		modelID = pref.ModelID
		summary = e.remoteSummary(ctx, res, modelID)
	}

	metrics := rouge.Score(res.Transcription, summary)
	e.log.Debug("processed file",
		"file", filePath,
		"remote", pref.IsRemote(),
		"model", modelID,
		"precision", metrics.Precision,
		"recall", metrics.Recall,
		"f_score", metrics.FScore,
	)

	return Outcome{
		Transcription: res.Transcription,
		Summary:       summary,
		Metrics:       metrics,
		UsedRemote:    pref.IsRemote(),
		ModelID:       modelID,
	}, nil
}

// remoteSummary never fails: any remote error becomes an annotated local summary.
func (e *Engine) remoteSummary(ctx context.Context, res transcriber.Result, modelID string) string {
	var (
		text string
		err  error
	)
	if e.remote == nil {
		err = &llm.RemoteAPIError{Provider: "none", Message: "no remote summarizer configured"}
	} else {
		text, err = e.remote.Summarize(ctx, RemotePrompt+res.Transcription, modelID)
	}
	if err != nil {
		e.log.Warn("remote summarization failed, using local summary", "err", err, "model", modelID)
		return Fallback(err, res.Summary)
	}
	return text
}

// Fallback builds the summary shown when the hosted model could not be used.
func Fallback(cause error, localSummary string) string {
	return FallbackPrefix + cause.Error() + "\n\n" + localSummary
}
