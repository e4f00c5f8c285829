// Package openai adapts the OpenAI Chat Completions API to the llm.Provider
// contract.
package openai

import (
	"context"
	"errors"
	"strings"

	openai "github.com/sashabaranov/go-openai"

	"manifesto-backend/internal/llm"
)

const providerID = "openai"

// Client implements llm.Provider using github.com/sashabaranov/go-openai.
type Client struct {
	client *openai.Client
	model  string
}

// NewClient constructs an OpenAI provider.
func NewClient(apiKey, model string) *Client {
	return &Client{
		client: openai.NewClient(apiKey),
		model:  model,
	}
}

func (c *Client) ID() string { return providerID }

// Analyze sends the prompt with JSON response formatting and low temperature.
func (c *Client) Analyze(ctx context.Context, prompt llm.Prompt) (llm.Response, error) {
	callCtx, cancel := context.WithTimeout(ctx, llm.Timeout(prompt))
	defer cancel()

	resp, err := c.client.CreateChatCompletion(callCtx, openai.ChatCompletionRequest{
		Model:       c.model,
		Temperature: 0.1,
		MaxTokens:   8192,
		ResponseFormat: &openai.ChatCompletionResponseFormat{
			Type: openai.ChatCompletionResponseFormatTypeJSONObject,
		},
		Messages: []openai.ChatCompletionMessage{
			{Role: openai.ChatMessageRoleSystem, Content: prompt.System},
			{Role: openai.ChatMessageRoleUser, Content: prompt.User},
		},
	})
	if err != nil {
		return llm.Response{}, c.mapError(err)
	}

	var b strings.Builder
	for _, choice := range resp.Choices {
		b.WriteString(choice.Message.Content)
	}
	text := strings.TrimSpace(b.String())
	if text == "" {
		return llm.Response{}, llm.NewProviderError(providerID, llm.KindEmptyResponse, "empty completion", nil)
	}

	return llm.Response{
		Text: text,
		Usage: llm.Usage{
			PromptTokens:     resp.Usage.PromptTokens,
			CompletionTokens: resp.Usage.CompletionTokens,
			TotalTokens:      resp.Usage.TotalTokens,
		},
	}, nil
}

// TestConnection verifies credentials by listing models. Never panics or
// returns an error; any failure reads as unhealthy.
func (c *Client) TestConnection(ctx context.Context) bool {
	if c == nil || c.client == nil {
		return false
	}
	_, err := c.client.ListModels(ctx)
	return err == nil
}

func (c *Client) mapError(err error) error {
	if errors.Is(err, context.DeadlineExceeded) {
		return llm.NewProviderError(providerID, llm.KindTimeout, "completion deadline exceeded", err)
	}
	var apiErr *openai.APIError
	if errors.As(err, &apiErr) {
		return llm.NewProviderError(providerID, llm.KindFromStatus(apiErr.HTTPStatusCode), apiErr.Message, err)
	}
	return llm.NewProviderError(providerID, llm.KindInternal, "completion failed", err)
}

var _ llm.Provider = (*Client)(nil)
