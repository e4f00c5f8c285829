package perplexity

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"manifesto-backend/internal/llm"
)

func newTestClient(srv *httptest.Server) *Client {
	c := NewClient("test-key", "sonar-pro")
	c.baseURL = srv.URL
	c.httpClient = srv.Client()
	return c
}

func TestAnalyzeSurfacesCitations(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if got := r.Header.Get("Authorization"); got != "Bearer test-key" {
			t.Errorf("auth header = %q", got)
		}
		_ = json.NewEncoder(w).Encode(map[string]any{
			"choices": []map[string]any{
				{"message": map[string]string{"role": "assistant", "content": `{"policies":[]}`}},
			},
			"citations": []string{"https://example.com/a", "https://example.com/b"},
			"usage":     map[string]int{"prompt_tokens": 7, "completion_tokens": 3, "total_tokens": 10},
		})
	}))
	defer srv.Close()

	resp, err := newTestClient(srv).Analyze(context.Background(), llm.Prompt{Online: true})
	if err != nil {
		t.Fatalf("Analyze: %v", err)
	}
	if len(resp.Citations) != 2 {
		t.Fatalf("citations = %v", resp.Citations)
	}
	if resp.Usage.TotalTokens != 10 {
		t.Errorf("usage = %+v", resp.Usage)
	}
}

func TestAnalyzeQuotaError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusTooManyRequests)
	}))
	defer srv.Close()

	_, err := newTestClient(srv).Analyze(context.Background(), llm.Prompt{})
	var pe *llm.ProviderError
	if !errors.As(err, &pe) || pe.Kind != llm.KindQuota {
		t.Fatalf("error = %v, want quota", err)
	}
}

func TestAnalyzeBlankContentIsEmptyResponse(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_ = json.NewEncoder(w).Encode(map[string]any{
			"choices": []map[string]any{
				{"message": map[string]string{"role": "assistant", "content": "   "}},
			},
		})
	}))
	defer srv.Close()

	_, err := newTestClient(srv).Analyze(context.Background(), llm.Prompt{})
	var pe *llm.ProviderError
	if !errors.As(err, &pe) || pe.Kind != llm.KindEmptyResponse {
		t.Fatalf("error = %v, want empty_response", err)
	}
}
