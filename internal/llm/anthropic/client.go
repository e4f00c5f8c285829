// Package anthropic adapts the Anthropic Messages API to the llm.Provider
// contract.
package anthropic

import (
	"context"
	"errors"
	"strings"

	anthropic "github.com/anthropics/anthropic-sdk-go"
	"github.com/anthropics/anthropic-sdk-go/option"

	"manifesto-backend/internal/llm"
)

const providerID = "anthropic"

// Client implements llm.Provider using the official Anthropic SDK.
type Client struct {
	client anthropic.Client
	model  anthropic.Model
}

// NewClient constructs an Anthropic provider.
func NewClient(apiKey, model string) *Client {
	return &Client{
		client: anthropic.NewClient(option.WithAPIKey(apiKey)),
		model:  anthropic.Model(model),
	}
}

func (c *Client) ID() string { return providerID }

// Analyze sends the prompt at low temperature and concatenates all text
// blocks of the reply.
func (c *Client) Analyze(ctx context.Context, prompt llm.Prompt) (llm.Response, error) {
	callCtx, cancel := context.WithTimeout(ctx, llm.Timeout(prompt))
	defer cancel()

	resp, err := c.client.Messages.New(callCtx, anthropic.MessageNewParams{
		Model:       c.model,
		MaxTokens:   8192,
		Temperature: anthropic.Float(0.1),
		System: []anthropic.TextBlockParam{
			{Text: prompt.System},
		},
		Messages: []anthropic.MessageParam{
			anthropic.NewUserMessage(anthropic.NewTextBlock(prompt.User)),
		},
	})
	if err != nil {
		return llm.Response{}, c.mapError(err)
	}

	var b strings.Builder
	for _, block := range resp.Content {
		b.WriteString(block.Text)
	}
	text := strings.TrimSpace(b.String())
	if text == "" {
		return llm.Response{}, llm.NewProviderError(providerID, llm.KindEmptyResponse, "empty message content", nil)
	}

	return llm.Response{
		Text: text,
		Usage: llm.Usage{
			PromptTokens:     int(resp.Usage.InputTokens),
			CompletionTokens: int(resp.Usage.OutputTokens),
			TotalTokens:      int(resp.Usage.InputTokens + resp.Usage.OutputTokens),
		},
	}, nil
}

// TestConnection issues a minimal one-token message. Never panics; any
// failure reads as unhealthy.
func (c *Client) TestConnection(ctx context.Context) bool {
	if c == nil {
		return false
	}
	_, err := c.client.Messages.New(ctx, anthropic.MessageNewParams{
		Model:     c.model,
		MaxTokens: 1,
		Messages: []anthropic.MessageParam{
			anthropic.NewUserMessage(anthropic.NewTextBlock("ping")),
		},
	})
	return err == nil
}

func (c *Client) mapError(err error) error {
	if errors.Is(err, context.DeadlineExceeded) {
		return llm.NewProviderError(providerID, llm.KindTimeout, "message deadline exceeded", err)
	}
	var apiErr *anthropic.Error
	if errors.As(err, &apiErr) {
		return llm.NewProviderError(providerID, llm.KindFromStatus(apiErr.StatusCode), "messages api error", err)
	}
	return llm.NewProviderError(providerID, llm.KindInternal, "message failed", err)
}

var _ llm.Provider = (*Client)(nil)
