// Package gemini adapts the Google Generative Language API to the
// llm.Provider contract via plain HTTP.
package gemini

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
	providerID     = "gemini"
	defaultBaseURL = "https://generativelanguage.googleapis.com/v1beta"
)

// Client implements llm.Provider against the generateContent endpoint.
type Client struct {
	apiKey     string
	model      string
	baseURL    string
	httpClient *http.Client
}

// NewClient constructs a Gemini provider.
func NewClient(apiKey, model string) *Client {
	return &Client{
		apiKey:     apiKey,
		model:      model,
		baseURL:    defaultBaseURL,
		httpClient: &http.Client{},
	}
}

func (c *Client) ID() string { return providerID }

type generateRequest struct {
	SystemInstruction *contentPart     `json:"system_instruction,omitempty"`
	Contents          []contentMessage `json:"contents"`
	GenerationConfig  generationConfig `json:"generationConfig"`
}

type contentMessage struct {
	Role  string `json:"role"`
	Parts []part `json:"parts"`
}

type contentPart struct {
	Parts []part `json:"parts"`
}

type part struct {
	Text string `json:"text"`
}

type generationConfig struct {
	Temperature      float32 `json:"temperature"`
	MaxOutputTokens  int     `json:"maxOutputTokens"`
	ResponseMimeType string  `json:"responseMimeType,omitempty"`
}

type generateResponse struct {
	Candidates []struct {
		Content struct {
			Parts []part `json:"parts"`
		} `json:"content"`
	} `json:"candidates"`
	UsageMetadata *struct {
		PromptTokenCount     int `json:"promptTokenCount"`
		CandidatesTokenCount int `json:"candidatesTokenCount"`
		TotalTokenCount      int `json:"totalTokenCount"`
	} `json:"usageMetadata,omitempty"`
	Error *struct {
		Code    int    `json:"code"`
		Message string `json:"message"`
		Status  string `json:"status"`
	} `json:"error,omitempty"`
}

// Analyze calls generateContent with JSON output mode and low temperature.
func (c *Client) Analyze(ctx context.Context, prompt llm.Prompt) (llm.Response, error) {
	callCtx, cancel := context.WithTimeout(ctx, llm.Timeout(prompt))
	defer cancel()

	reqBody := generateRequest{
		SystemInstruction: &contentPart{Parts: []part{{Text: prompt.System}}},
		Contents: []contentMessage{
			{Role: "user", Parts: []part{{Text: prompt.User}}},
		},
		GenerationConfig: generationConfig{
			Temperature:      0.1,
			MaxOutputTokens:  8192,
			ResponseMimeType: "application/json",
		},
	}
	payload, err := json.Marshal(reqBody)
	if err != nil {
		return llm.Response{}, llm.NewProviderError(providerID, llm.KindInternal, "marshal request", err)
	}

	endpoint := fmt.Sprintf("%s/models/%s:generateContent?key=%s", c.baseURL, c.model, c.apiKey)
	req, err := http.NewRequestWithContext(callCtx, http.MethodPost, endpoint, bytes.NewReader(payload))
	if err != nil {
		return llm.Response{}, llm.NewProviderError(providerID, llm.KindInternal, "build request", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		if errors.Is(err, context.DeadlineExceeded) {
			return llm.Response{}, llm.NewProviderError(providerID, llm.KindTimeout, "generate deadline exceeded", err)
		}
		return llm.Response{}, llm.NewProviderError(providerID, llm.KindInternal, "generate request failed", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return llm.Response{}, llm.NewProviderError(providerID, llm.KindInternal, "read response", err)
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return llm.Response{}, llm.NewProviderError(providerID, llm.KindFromStatus(resp.StatusCode),
			fmt.Sprintf("generate status %d", resp.StatusCode), nil)
	}

	var parsed generateResponse
	if err := json.Unmarshal(body, &parsed); err != nil {
		return llm.Response{}, llm.NewProviderError(providerID, llm.KindInternal, "parse response", err)
	}
	if parsed.Error != nil {
		return llm.Response{}, llm.NewProviderError(providerID, llm.KindFromStatus(parsed.Error.Code), parsed.Error.Message, nil)
	}

	var b strings.Builder
	for _, cand := range parsed.Candidates {
		for _, p := range cand.Content.Parts {
			b.WriteString(p.Text)
		}
	}
	text := strings.TrimSpace(b.String())
	if text == "" {
		return llm.Response{}, llm.NewProviderError(providerID, llm.KindEmptyResponse, "empty candidates", nil)
	}

	out := llm.Response{Text: text}
	if parsed.UsageMetadata != nil {
		out.Usage = llm.Usage{
			PromptTokens:     parsed.UsageMetadata.PromptTokenCount,
			CompletionTokens: parsed.UsageMetadata.CandidatesTokenCount,
			TotalTokens:      parsed.UsageMetadata.TotalTokenCount,
		}
	}
	return out, nil
}

// TestConnection lists models to verify the key. Never panics; any failure
// reads as unhealthy.
func (c *Client) TestConnection(ctx context.Context) bool {
	if c == nil || strings.TrimSpace(c.apiKey) == "" {
		return false
	}
	endpoint := fmt.Sprintf("%s/models?key=%s&pageSize=1", c.baseURL, c.apiKey)
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return false
	}
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return false
	}
	defer resp.Body.Close()
	_, _ = io.Copy(io.Discard, resp.Body)
	return resp.StatusCode >= 200 && resp.StatusCode <= 299
}

var _ llm.Provider = (*Client)(nil)
