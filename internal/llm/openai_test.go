package llm

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newOpenAIServer(t *testing.T, status int, body string, gotBody *map[string]any) *httptest.Server {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if gotBody != nil && strings.HasSuffix(r.URL.Path, "/chat/completions") {
			_ = json.NewDecoder(r.Body).Decode(gotBody)
		}
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(status)
		_, _ = w.Write([]byte(body))
	}))
	t.Cleanup(srv.Close)
	return srv
}

func newTestOpenAI(t *testing.T, baseURL string) *OpenAIClient {
	t.Helper()
	c, err := NewOpenAIClient(Options{APIKey: testKey, BaseURL: baseURL, Timeout: 5 * time.Second})
	require.NoError(t, err)
	return c
}

func TestOpenAISummarize(t *testing.T) {
	var body map[string]any
	srv := newOpenAIServer(t, http.StatusOK, `{
		"id": "chatcmpl-1",
		"object": "chat.completion",
		"created": 1,
		"model": "gpt-4o-mini",
		"choices": [{"index": 0, "finish_reason": "stop", "message": {"role": "assistant", "content": "Short summary."}}]
	}`, &body)
	c := newTestOpenAI(t, srv.URL)

	text, err := c.Summarize(context.Background(), "prompt text", "")

	require.NoError(t, err)
	assert.Equal(t, "Short summary.", text)
	assert.Equal(t, "gpt-4o-mini", body["model"])
	assert.InDelta(t, 0.7, body["temperature"], 1e-9)
	assert.EqualValues(t, 800, body["max_completion_tokens"])
}

func TestOpenAISummarizeFailures(t *testing.T) {
	tests := []struct {
		name       string
		status     int
		body       string
		wantStatus int
	}{
		{name: "no choices", status: http.StatusOK, body: `{"id":"x","choices":[]}`},
		{name: "empty content", status: http.StatusOK, body: `{"id":"x","choices":[{"index":0,"message":{"role":"assistant","content":""}}]}`},
		{name: "unauthorized", status: http.StatusUnauthorized, body: `{"error":{"message":"bad key","type":"invalid_request_error"}}`, wantStatus: http.StatusUnauthorized},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			srv := newOpenAIServer(t, tt.status, tt.body, nil)
			c := newTestOpenAI(t, srv.URL)

			_, err := c.Summarize(context.Background(), "prompt", "gpt-4o")

			var apiErr *RemoteAPIError
			require.True(t, errors.As(err, &apiErr), "expected RemoteAPIError, got %v", err)
			assert.Equal(t, "openai", apiErr.Provider)
			assert.Equal(t, tt.wantStatus, apiErr.StatusCode)
		})
	}
}

func TestOpenAIListModels(t *testing.T) {
	srv := newOpenAIServer(t, http.StatusOK,
		`{"object":"list","data":[{"id":"gpt-4o","object":"model","created":1,"owned_by":"openai"},{"id":"gpt-4o-mini","object":"model","created":1,"owned_by":"openai"}]}`, nil)
	c := newTestOpenAI(t, srv.URL)

	models, err := c.ListModels(context.Background())

	require.NoError(t, err)
	assert.Equal(t, []string{"gpt-4o", "gpt-4o-mini"}, models)
}
