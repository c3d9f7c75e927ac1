package llm

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/openai/openai-go/v3"
	"github.com/openai/openai-go/v3/option"
)

const (
	providerOpenAI     = "openai"
	defaultOpenAIModel = openai.ChatModelGPT4oMini
)

// OpenAIClient summarizes through the OpenAI Chat Completions API.
type OpenAIClient struct {
	client       *openai.Client
	defaultModel string
	timeout      time.Duration
}

// NewOpenAIClient builds a client against opts.BaseURL (api.openai.com when empty).
// The SDK's automatic retries are disabled.
func NewOpenAIClient(opts Options) (*OpenAIClient, error) {
	if opts.APIKey == "" {
		return nil, fmt.Errorf("api key required")
	}
	if opts.DefaultModel == "" {
		opts.DefaultModel = string(defaultOpenAIModel)
	}
	if opts.Timeout <= 0 {
		opts.Timeout = defaultRemoteTimeout
	}
	reqOpts := []option.RequestOption{
		option.WithAPIKey(opts.APIKey),
		option.WithMaxRetries(0),
	}
	if opts.BaseURL != "" {
		reqOpts = append(reqOpts, option.WithBaseURL(opts.BaseURL))
	}
	if opts.HTTPClient != nil {
		reqOpts = append(reqOpts, option.WithHTTPClient(opts.HTTPClient))
	}
	cli := openai.NewClient(reqOpts...)
	return &OpenAIClient{
		client:       &cli,
		defaultModel: opts.DefaultModel,
		timeout:      opts.Timeout,
	}, nil
}

func (c *OpenAIClient) Summarize(ctx context.Context, text, modelID string) (string, error) {
	if c == nil || c.client == nil {
		return "", &RemoteAPIError{Provider: providerOpenAI, Message: "client not configured"}
	}
	reqCtx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	model := pickModel(modelID, c.defaultModel)
	resp, err := c.client.Chat.Completions.New(reqCtx, openai.ChatCompletionNewParams{
		Model: openai.ChatModel(model),
		Messages: []openai.ChatCompletionMessageParamUnion{
			{
				OfUser: &openai.ChatCompletionUserMessageParam{
					Content: openai.ChatCompletionUserMessageParamContentUnion{
						OfString: openai.String(text),
					},
				},
			},
		},
		Temperature:         openai.Float(Temperature),
		MaxCompletionTokens: openai.Int(MaxOutputTokens),
	})
	if err != nil {
		return "", openAIError("chat completion for "+model, err)
	}
	if len(resp.Choices) == 0 {
		return "", &RemoteAPIError{Provider: providerOpenAI, Message: "no choices in response"}
	}
	if resp.Choices[0].Message.Content == "" {
		return "", &RemoteAPIError{Provider: providerOpenAI, Message: "first choice has no content"}
	}
	return resp.Choices[0].Message.Content, nil
}

func (c *OpenAIClient) ListModels(ctx context.Context) ([]string, error) {
	if c == nil || c.client == nil {
		return nil, &RemoteAPIError{Provider: providerOpenAI, Message: "client not configured"}
	}
	reqCtx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	page, err := c.client.Models.List(reqCtx)
	if err != nil {
		return nil, openAIError("list models", err)
	}
	names := make([]string, 0, len(page.Data))
	for _, m := range page.Data {
		names = append(names, m.ID)
	}
	return names, nil
}

func openAIError(msg string, err error) *RemoteAPIError {
	out := &RemoteAPIError{Provider: providerOpenAI, Message: msg, Err: err}
	var apiErr *openai.Error
	if errors.As(err, &apiErr) {
		out.StatusCode = apiErr.StatusCode
	}
	return out
}
