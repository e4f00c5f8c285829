package analysis

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"

	"manifesto-backend/internal/llm"
	"manifesto-backend/internal/scrape"
)

func newTestRouter(h *Handler, admin bool) *gin.Engine {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.Use(func(c *gin.Context) {
		c.Set("userId", "user-1")
		c.Set("isAdmin", admin)
		c.Set("isGuest", false)
		c.Next()
	})
	h.RegisterRoutes(r.Group("/api/v1"))
	return r
}

const analyzeBody = `{
  "url": "https://example.com/manifesto",
  "candidateName": "山田太郎",
  "prefecture": "東京都",
  "electionType": "shugiin",
  "electionDate": "2026-10-25"
}`

func newTestHandler(limiter *fakeLimiter) (*Handler, *MemoryRepo) {
	scraper := &fakeScraper{content: htmlContent(strings.Repeat("政策", 100))}
	provider := &stubProvider{id: llm.ProviderGemini, response: llm.Response{Text: fullPolicyJSON}}
	repo := NewMemoryRepo()
	svc := newTestService(scraper, provider, limiter, repo)
	return NewHandler(svc, repo), repo
}

func TestStartAnalysisEndpoint(t *testing.T) {
	h, repo := newTestHandler(&fakeLimiter{allowed: true})
	r := newTestRouter(h, true)

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/api/v1/analyses", strings.NewReader(analyzeBody))
	req.Header.Set("Content-Type", "application/json")
	r.ServeHTTP(w, req)

	if w.Code != http.StatusCreated {
		t.Fatalf("status = %d, body = %s", w.Code, w.Body.String())
	}
	var result Result
	if err := json.Unmarshal(w.Body.Bytes(), &result); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if result.CandidateID != "東京都-山田太郎" {
		t.Fatalf("candidateId = %q", result.CandidateID)
	}
	if repo.LogCount() != 1 {
		t.Fatalf("log records = %d, want 1", repo.LogCount())
	}
}

func TestStartAnalysisRequiresAdmin(t *testing.T) {
	h, _ := newTestHandler(&fakeLimiter{allowed: true})
	r := newTestRouter(h, false)

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/api/v1/analyses", strings.NewReader(analyzeBody))
	req.Header.Set("Content-Type", "application/json")
	r.ServeHTTP(w, req)

	if w.Code != http.StatusForbidden {
		t.Fatalf("status = %d, want 403", w.Code)
	}
}

func TestStartAnalysisInvalidBody(t *testing.T) {
	h, _ := newTestHandler(&fakeLimiter{allowed: true})
	r := newTestRouter(h, true)

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/api/v1/analyses", strings.NewReader("not json"))
	req.Header.Set("Content-Type", "application/json")
	r.ServeHTTP(w, req)

	if w.Code != http.StatusBadRequest {
		t.Fatalf("status = %d, want 400", w.Code)
	}
}

func TestStartAnalysisRateLimited(t *testing.T) {
	h, _ := newTestHandler(&fakeLimiter{allowed: false})
	r := newTestRouter(h, true)

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/api/v1/analyses", strings.NewReader(analyzeBody))
	req.Header.Set("Content-Type", "application/json")
	r.ServeHTTP(w, req)

	if w.Code != http.StatusTooManyRequests {
		t.Fatalf("status = %d, want 429", w.Code)
	}
	if !strings.Contains(w.Body.String(), "rate_limit_exceeded") {
		t.Fatalf("body = %s", w.Body.String())
	}
}

func TestGetCandidateEndpoint(t *testing.T) {
	h, repo := newTestHandler(&fakeLimiter{allowed: true})
	r := newTestRouter(h, true)

	result := &Result{
		CandidateID:   "東京都-山田太郎",
		CandidateName: "山田太郎",
		Policies:      []Policy{{Title: "t"}},
		Metadata:      Metadata{Provider: llm.ProviderGemini, AnalyzedAt: time.Now().UTC()},
	}
	if err := repo.SaveResult(context.Background(), validRequest(), result, "user-1"); err != nil {
		t.Fatalf("seed: %v", err)
	}

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/api/v1/candidates/東京都-山田太郎", nil))
	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, body = %s", w.Code, w.Body.String())
	}

	w = httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/api/v1/candidates/unknown", nil))
	if w.Code != http.StatusNotFound {
		t.Fatalf("status = %d, want 404", w.Code)
	}
}

func TestListCandidatesEndpoint(t *testing.T) {
	h, _ := newTestHandler(&fakeLimiter{allowed: true})
	r := newTestRouter(h, true)

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/api/v1/candidates", nil))
	if w.Code != http.StatusOK {
		t.Fatalf("status = %d", w.Code)
	}
	if !strings.Contains(w.Body.String(), `"candidates":[]`) {
		t.Fatalf("body = %s", w.Body.String())
	}
}

func TestClassifyError(t *testing.T) {
	cases := []struct {
		name       string
		err        error
		wantStatus int
		wantCode   string
	}{
		{"rate limited", ErrRateLimited, http.StatusTooManyRequests, "rate_limit_exceeded"},
		{"quota exhausted", ErrQuotaExhausted, http.StatusTooManyRequests, "quota_exhausted"},
		{"invalid url", scrape.ErrInvalidURL, http.StatusBadRequest, "invalid_url"},
		{"unsupported content", scrape.ErrUnsupportedContent, http.StatusUnprocessableEntity, "unsupported_content"},
		{"content too short", ErrContentTooShort, http.StatusUnprocessableEntity, "content_too_short"},
		{"extraction timeout", scrape.ErrExtractionTimeout, http.StatusGatewayTimeout, "timeout"},
		{"extraction failed", scrape.ErrExtractionFailed, http.StatusBadGateway, "extraction_failed"},
		{"no provider", llm.ErrNoProviderAvailable, http.StatusServiceUnavailable, "no_provider_available"},
		{"malformed response", ErrMalformedResponse, http.StatusBadGateway, "malformed_response"},
		{"context deadline", context.DeadlineExceeded, http.StatusGatewayTimeout, "timeout"},
		{"request field", &RequestFieldError{Field: "url", Reason: "bad"}, http.StatusBadRequest, "invalid_request_field"},
		{"missing field", &MissingFieldError{Index: 0, Field: "title"}, http.StatusBadGateway, "missing_field"},
		{"provider auth", &llm.ProviderError{Kind: llm.KindAuth}, http.StatusBadGateway, "provider_auth"},
		{"provider timeout", &llm.ProviderError{Kind: llm.KindTimeout}, http.StatusGatewayTimeout, "timeout"},
		{"persistence", &PersistenceError{Err: errors.New("db down")}, http.StatusInternalServerError, "persistence_error"},
		{"unknown", errors.New("boom"), http.StatusInternalServerError, "internal_error"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			status, code, _ := classifyError(tc.err)
			if status != tc.wantStatus || code != tc.wantCode {
				t.Fatalf("classifyError(%v) = (%d, %q), want (%d, %q)", tc.err, status, code, tc.wantStatus, tc.wantCode)
			}
		})
	}
}
