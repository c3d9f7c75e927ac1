package llm

import (
	"context"
	"fmt"
	"strings"
)

// Generation settings shared by every provider.
const (
	Temperature     = 0.7
	MaxOutputTokens = 800
)

// Summarizer sends one prompt to a hosted model and returns its text reply.
// An empty modelID selects the provider's configured default. Every failure
// is a *RemoteAPIError.
type Summarizer interface {
	Summarize(ctx context.Context, text, modelID string) (string, error)
}

// ModelLister reports the models a provider can serve.
type ModelLister interface {
	ListModels(ctx context.Context) ([]string, error)
}

// Client is what the web layer needs from a provider.
type Client interface {
	Summarizer
	ModelLister
}

// RemoteAPIError covers transport failures, non-2xx responses and responses
// that lack the expected text.
type RemoteAPIError struct {
	Provider   string
	StatusCode int // zero when no HTTP status is known
	Message    string
	Err        error
}

func (e *RemoteAPIError) Error() string {
	if e == nil {
		return ""
	}
	var b strings.Builder
	fmt.Fprintf(&b, "%s: %s", e.Provider, e.Message)
	if e.StatusCode != 0 {
		fmt.Fprintf(&b, " (status %d)", e.StatusCode)
	}
	if e.Err != nil {
		b.WriteString(": ")
		b.WriteString(e.Err.Error())
	}
	return b.String()
}

// Unwrap exposes the underlying cause for errors.Is / errors.As.
func (e *RemoteAPIError) Unwrap() error {
	if e == nil {
		return nil
	}
	return e.Err
}

func pickModel(modelID, fallback string) string {
	if m := strings.TrimSpace(modelID); m != "" {
		return m
	}
	return fallback
}
