package scrape

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"
)

func TestDetectKind(t *testing.T) {
	cases := []struct {
		rawURL string
		want   Kind
	}{
		{"https://example.com/manifesto.pdf", KindPDF},
		{"https://example.com/docs/POLICY.PDF", KindPDF},
		{"https://example.com/manifesto", KindHTML},
		{"https://example.com/manifesto.html", KindHTML},
		{"https://example.com/download?file=a.pdf", KindHTML}, // query string is not inspected
	}
	for _, tc := range cases {
		u, err := url.Parse(tc.rawURL)
		if err != nil {
			t.Fatalf("parse %s: %v", tc.rawURL, err)
		}
		if got := detectKind(u); got != tc.want {
			t.Errorf("detectKind(%s) = %s, want %s", tc.rawURL, got, tc.want)
		}
	}
}

func TestExtractRejectsInvalidURL(t *testing.T) {
	s := NewScraper()
	for _, raw := range []string{"ftp://example.com/a", "not a url at all\x7f://", "file:///etc/passwd", "/relative/path"} {
		if _, err := s.Extract(context.Background(), raw); !errors.Is(err, ErrInvalidURL) {
			t.Errorf("Extract(%q) error = %v, want ErrInvalidURL", raw, err)
		}
	}
}

func TestExtractHTMLPrefersContentRegion(t *testing.T) {
	body := `<html><head><title>山田太郎 公式サイト</title></head><body>
<nav>ホーム 政策 プロフィール お問い合わせ</nav>
<main>` + strings.Repeat("子育て支援を拡充し、保育所の待機児童をゼロにします。", 10) + `</main>
<footer>Copyright 2026</footer>
<script>console.log("tracking")</script>
</body></html>`
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/html; charset=utf-8")
		_, _ = w.Write([]byte(body))
	}))
	defer srv.Close()

	s := NewScraper()
	content, err := s.Extract(context.Background(), srv.URL+"/seisaku")
	if err != nil {
		t.Fatalf("Extract: %v", err)
	}
	if content.Kind != KindHTML {
		t.Fatalf("kind = %s, want html", content.Kind)
	}
	if content.Title != "山田太郎 公式サイト" {
		t.Errorf("title = %q", content.Title)
	}
	if content.Method != "selector:main" {
		t.Errorf("method = %q, want selector:main", content.Method)
	}
	if strings.Contains(content.Text, "tracking") || strings.Contains(content.Text, "Copyright") {
		t.Errorf("non-content text leaked into extraction: %q", content.Text)
	}
	if !strings.Contains(content.Text, "待機児童") {
		t.Errorf("expected policy text, got %q", content.Text)
	}
	if content.Length != len([]rune(content.Text)) {
		t.Errorf("length metadata mismatch: %d vs %d", content.Length, len([]rune(content.Text)))
	}
}

func TestExtractHTMLFallsBackToBody(t *testing.T) {
	// Content region exists but is under the 100-char threshold.
	body := `<html><body><main>短い</main><p>` +
		strings.Repeat("全ページから抽出されるべき本文です。", 20) + `</p></body></html>`
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(body))
	}))
	defer srv.Close()

	s := NewScraper()
	content, err := s.Extract(context.Background(), srv.URL)
	if err != nil {
		t.Fatalf("Extract: %v", err)
	}
	if content.Method != "body" {
		t.Errorf("method = %q, want body", content.Method)
	}
	if !strings.Contains(content.Text, "本文です") {
		t.Errorf("fallback text missing: %q", content.Text)
	}
}

func TestExtractHTTPErrorIsExtractionFailed(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "gone", http.StatusNotFound)
	}))
	defer srv.Close()

	s := NewScraper()
	if _, err := s.Extract(context.Background(), srv.URL); !errors.Is(err, ErrExtractionFailed) {
		t.Fatalf("error = %v, want ErrExtractionFailed", err)
	}
}

func TestExtractContextCancellation(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		<-r.Context().Done()
	}))
	defer srv.Close()

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	s := NewScraper()
	if _, err := s.Extract(ctx, srv.URL); err == nil {
		t.Fatal("expected error from canceled context")
	}
}
