package llm

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"google.golang.org/genai"
)

const (
	providerGemini       = "gemini"
	defaultGeminiModel   = "gemini-2.0-flash"
	defaultRemoteTimeout = 60 * time.Second
	geminiAPIVersion     = "v1"
)

// Options configures a provider client.
type Options struct {
	APIKey       string
	BaseURL      string
	DefaultModel string
	Timeout      time.Duration
	HTTPClient   *http.Client // optional
}

// GeminiClient calls the Gemini generateContent endpoint:
// POST {BaseURL}/v1/models/{model}:generateContent with the key in x-goog-api-key.
type GeminiClient struct {
	client       *genai.Client
	defaultModel string
	timeout      time.Duration
}

// NewGeminiClient builds a client. No request is made until the first call.
func NewGeminiClient(ctx context.Context, opts Options) (*GeminiClient, error) {
	if opts.APIKey == "" {
		return nil, fmt.Errorf("api key required")
	}
	if opts.DefaultModel == "" {
		opts.DefaultModel = defaultGeminiModel
	}
	if opts.Timeout <= 0 {
		opts.Timeout = defaultRemoteTimeout
	}
	cfg := &genai.ClientConfig{
		APIKey:     opts.APIKey,
		Backend:    genai.BackendGeminiAPI,
		HTTPClient: opts.HTTPClient,
		HTTPOptions: genai.HTTPOptions{
			APIVersion: geminiAPIVersion,
		},
	}
	if opts.BaseURL != "" {
		cfg.HTTPOptions.BaseURL = strings.TrimRight(opts.BaseURL, "/") + "/"
	}
	cli, err := genai.NewClient(ctx, cfg)
	if err != nil {
		return nil, fmt.Errorf("create gemini client: %w", err)
	}
	return &GeminiClient{
		client:       cli,
		defaultModel: opts.DefaultModel,
		timeout:      opts.Timeout,
	}, nil
}

func (c *GeminiClient) Summarize(ctx context.Context, text, modelID string) (string, error) {
	if c == nil || c.client == nil {
		return "", &RemoteAPIError{Provider: providerGemini, Message: "client not configured"}
	}
	reqCtx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	model := pickModel(modelID, c.defaultModel)
	contents := []*genai.Content{genai.NewContentFromText(text, genai.RoleUser)}
	resp, err := c.client.Models.GenerateContent(reqCtx, model, contents, &genai.GenerateContentConfig{
		Temperature:     genai.Ptr[float32](Temperature),
		MaxOutputTokens: MaxOutputTokens,
	})
	if err != nil {
		return "", geminiError("generate content for "+model, err)
	}
	return extractGeminiText(resp)
}

// extractGeminiText reads candidates[0].content.parts[0].text.
func extractGeminiText(resp *genai.GenerateContentResponse) (string, error) {
	fail := func(msg string) (string, error) {
		return "", &RemoteAPIError{Provider: providerGemini, Message: msg}
	}
	// The SDK decodes an empty candidates array to nil.
	if resp == nil || len(resp.Candidates) == 0 {
		return fail("no candidates in response")
	}
	cand := resp.Candidates[0]
	if cand == nil || cand.Content == nil {
		return fail("first candidate has no content")
	}
	if len(cand.Content.Parts) == 0 || cand.Content.Parts[0] == nil {
		return fail("first candidate content has no parts")
	}
	text := cand.Content.Parts[0].Text
	if text == "" {
		return fail("first content part has no text")
	}
	return text, nil
}

func (c *GeminiClient) ListModels(ctx context.Context) ([]string, error) {
	if c == nil || c.client == nil {
		return nil, &RemoteAPIError{Provider: providerGemini, Message: "client not configured"}
	}
	reqCtx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	names := make([]string, 0)
	for m, err := range c.client.Models.All(reqCtx) {
		if err != nil {
			return nil, geminiError("list models", err)
		}
		if m != nil && m.Name != "" {
			names = append(names, m.Name)
		}
	}
	return names, nil
}

func geminiError(msg string, err error) *RemoteAPIError {
	out := &RemoteAPIError{Provider: providerGemini, Message: msg, Err: err}
	var apiErr genai.APIError
	if errors.As(err, &apiErr) {
		out.StatusCode = apiErr.Code
	}
	return out
}
