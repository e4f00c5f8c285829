package scrape

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"path"
	"strings"
	"time"
)

const (
	// MaxTextLength caps extracted text handed to analysis.
	MaxTextLength = 50000
	// maxPDFBytes caps PDF downloads.
	maxPDFBytes = 50 << 20

	defaultTimeout   = 30 * time.Second
	defaultUserAgent = "ManifestoAnalyzer/1.0 (policy analysis; +https://github.com/manifesto-backend)"
)

// Kind identifies the content type of a scraped page.
type Kind string

const (
	KindHTML Kind = "html"
	KindPDF  Kind = "pdf"
)

var (
	ErrInvalidURL         = errors.New("invalid url")
	ErrUnsupportedContent = errors.New("unsupported content type")
	ErrExtractionTimeout  = errors.New("extraction timeout")
	ErrExtractionFailed   = errors.New("extraction failed")
)

// Content is the immutable result of a single extraction.
type Content struct {
	URL       string
	Kind      Kind
	Title     string
	Text      string
	ScrapedAt time.Time
	Length    int
	Method    string
}

// Scraper fetches a URL and extracts readable text from HTML pages or PDF documents.
type Scraper struct {
	httpClient *http.Client
	userAgent  string
	now        func() time.Time
}

// NewScraper constructs a Scraper with the standard 30s network budget.
func NewScraper() *Scraper {
	return &Scraper{
		httpClient: &http.Client{Timeout: defaultTimeout},
		userAgent:  defaultUserAgent,
		now:        time.Now,
	}
}

// Extract fetches the URL and returns cleaned readable text.
// Content kind is decided syntactically from the URL path: a .pdf extension
// means PDF, everything else is treated as HTML. No content sniffing is done,
// so a PDF served from an extensionless URL will go down the HTML path.
func (s *Scraper) Extract(ctx context.Context, rawURL string) (*Content, error) {
	parsed, err := url.Parse(strings.TrimSpace(rawURL))
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidURL, err)
	}
	if parsed.Scheme != "http" && parsed.Scheme != "https" {
		return nil, fmt.Errorf("%w: scheme %q", ErrInvalidURL, parsed.Scheme)
	}
	if parsed.Host == "" {
		return nil, fmt.Errorf("%w: missing host", ErrInvalidURL)
	}

	kind := detectKind(parsed)

	body, err := s.fetch(ctx, parsed.String())
	if err != nil {
		return nil, err
	}

	var (
		title  string
		text   string
		method string
	)
	switch kind {
	case KindPDF:
		if len(body) > maxPDFBytes {
			return nil, fmt.Errorf("%w: pdf exceeds %d bytes", ErrExtractionFailed, maxPDFBytes)
		}
		text, err = extractPDFText(body)
		if err != nil {
			return nil, fmt.Errorf("%w: pdf: %v", ErrExtractionFailed, err)
		}
		title = "PDF文書"
		method = "pdf"
	case KindHTML:
		title, text, method, err = extractHTMLText(bytes.NewReader(body))
		if err != nil {
			return nil, fmt.Errorf("%w: html: %v", ErrExtractionFailed, err)
		}
	default:
		return nil, ErrUnsupportedContent
	}

	text = NormalizeText(text)

	return &Content{
		URL:       parsed.String(),
		Kind:      kind,
		Title:     title,
		Text:      text,
		ScrapedAt: s.now().UTC(),
		Length:    len([]rune(text)),
		Method:    method,
	}, nil
}

func (s *Scraper) fetch(ctx context.Context, target string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, target, nil)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrExtractionFailed, err)
	}
	req.Header.Set("User-Agent", s.userAgent)
	req.Header.Set("Accept", "text/html,application/xhtml+xml,application/pdf,*/*;q=0.8")

	resp, err := s.httpClient.Do(req)
	if err != nil {
		if errors.Is(err, context.DeadlineExceeded) || strings.Contains(err.Error(), "Client.Timeout") {
			return nil, fmt.Errorf("%w: %v", ErrExtractionTimeout, err)
		}
		return nil, fmt.Errorf("%w: %v", ErrExtractionFailed, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, fmt.Errorf("%w: status %d", ErrExtractionFailed, resp.StatusCode)
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxPDFBytes+1))
	if err != nil {
		if errors.Is(err, context.DeadlineExceeded) {
			return nil, fmt.Errorf("%w: %v", ErrExtractionTimeout, err)
		}
		return nil, fmt.Errorf("%w: read body: %v", ErrExtractionFailed, err)
	}
	return body, nil
}

// detectKind inspects the URL path extension only.
func detectKind(u *url.URL) Kind {
	ext := strings.ToLower(path.Ext(u.Path))
	if ext == ".pdf" {
		return KindPDF
	}
	return KindHTML
}
