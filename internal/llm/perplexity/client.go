// Package perplexity adapts the Perplexity chat API to the llm.Provider
// contract. The API is OpenAI-shaped but adds a top-level citations array in
// online (search-augmented) mode, so the adapter speaks HTTP directly instead
// of going through an OpenAI SDK that would drop the citations.
package perplexity

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"

	"manifesto-backend/internal/llm"
)

const (
	providerID     = "perplexity"
	defaultBaseURL = "https://api.perplexity.ai"
)

// Client implements llm.Provider against /chat/completions.
type Client struct {
	apiKey     string
	model      string
	baseURL    string
	httpClient *http.Client
}

// NewClient constructs a Perplexity provider.
func NewClient(apiKey, model string) *Client {
	return &Client{
		apiKey:     apiKey,
		model:      model,
		baseURL:    defaultBaseURL,
		httpClient: &http.Client{},
	}
}

func (c *Client) ID() string { return providerID }

type chatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type chatRequest struct {
	Model       string        `json:"model"`
	Messages    []chatMessage `json:"messages"`
	Temperature float32       `json:"temperature"`
	MaxTokens   int           `json:"max_tokens"`
}

type chatResponse struct {
	Choices []struct {
		Message chatMessage `json:"message"`
	} `json:"choices"`
	Citations []string `json:"citations,omitempty"`
	Usage     *struct {
		PromptTokens     int `json:"prompt_tokens"`
		CompletionTokens int `json:"completion_tokens"`
		TotalTokens      int `json:"total_tokens"`
	} `json:"usage,omitempty"`
	Error *struct {
		Message string `json:"message"`
		Type    string `json:"type"`
		Code    int    `json:"code"`
	} `json:"error,omitempty"`
}

// Analyze sends the prompt; online prompts get the longer budget and the
// citations that come back are surfaced on the response.
func (c *Client) Analyze(ctx context.Context, prompt llm.Prompt) (llm.Response, error) {
	callCtx, cancel := context.WithTimeout(ctx, llm.Timeout(prompt))
	defer cancel()

	reqBody := chatRequest{
		Model: c.model,
		Messages: []chatMessage{
			{Role: "system", Content: prompt.System},
			{Role: "user", Content: prompt.User},
		},
		Temperature: 0.1,
		MaxTokens:   8192,
	}
	payload, err := json.Marshal(reqBody)
	if err != nil {
		return llm.Response{}, llm.NewProviderError(providerID, llm.KindInternal, "marshal request", err)
	}

	req, err := http.NewRequestWithContext(callCtx, http.MethodPost, c.baseURL+"/chat/completions", bytes.NewReader(payload))
	if err != nil {
		return llm.Response{}, llm.NewProviderError(providerID, llm.KindInternal, "build request", err)
	}
	req.Header.Set("Authorization", "Bearer "+c.apiKey)
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		if errors.Is(err, context.DeadlineExceeded) {
			return llm.Response{}, llm.NewProviderError(providerID, llm.KindTimeout, "chat deadline exceeded", err)
		}
		return llm.Response{}, llm.NewProviderError(providerID, llm.KindInternal, "chat request failed", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return llm.Response{}, llm.NewProviderError(providerID, llm.KindInternal, "read response", err)
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return llm.Response{}, llm.NewProviderError(providerID, llm.KindFromStatus(resp.StatusCode),
			fmt.Sprintf("chat status %d", resp.StatusCode), nil)
	}

	var parsed chatResponse
	if err := json.Unmarshal(body, &parsed); err != nil {
		return llm.Response{}, llm.NewProviderError(providerID, llm.KindInternal, "parse response", err)
	}
	if parsed.Error != nil {
		return llm.Response{}, llm.NewProviderError(providerID, llm.KindFromStatus(parsed.Error.Code), parsed.Error.Message, nil)
	}

	var b strings.Builder
	for _, choice := range parsed.Choices {
		b.WriteString(choice.Message.Content)
	}
	text := strings.TrimSpace(b.String())
	if text == "" {
		return llm.Response{}, llm.NewProviderError(providerID, llm.KindEmptyResponse, "empty choices", nil)
	}

	out := llm.Response{Text: text, Citations: parsed.Citations}
	if parsed.Usage != nil {
		out.Usage = llm.Usage{
			PromptTokens:     parsed.Usage.PromptTokens,
			CompletionTokens: parsed.Usage.CompletionTokens,
			TotalTokens:      parsed.Usage.TotalTokens,
		}
	}
	return out, nil
}

// TestConnection issues a minimal completion. Never panics; any failure reads
// as unhealthy.
func (c *Client) TestConnection(ctx context.Context) bool {
	if c == nil || strings.TrimSpace(c.apiKey) == "" {
		return false
	}
	payload, err := json.Marshal(chatRequest{
		Model:     c.model,
		Messages:  []chatMessage{{Role: "user", Content: "ping"}},
		MaxTokens: 1,
	})
	if err != nil {
		return false
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/chat/completions", bytes.NewReader(payload))
	if err != nil {
		return false
	}
	req.Header.Set("Authorization", "Bearer "+c.apiKey)
	req.Header.Set("Content-Type", "application/json")
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return false
	}
	defer resp.Body.Close()
	_, _ = io.Copy(io.Discard, resp.Body)
	return resp.StatusCode >= 200 && resp.StatusCode <= 299
}

var _ llm.Provider = (*Client)(nil)
