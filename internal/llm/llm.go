// Package llm defines the provider contract for manifesto analysis and the
// registry that selects among configured vendors.
package llm

import (
	"context"
	"time"
)

// Call budgets. Citation-augmented (online search) calls get a longer budget
// because the vendor performs live retrieval before generating.
const (
	PlainTimeout  = 60 * time.Second
	OnlineTimeout = 90 * time.Second
)

// Prompt is the fully rendered instruction pair sent to a provider.
type Prompt struct {
	System string
	User   string
	// Online requests the citation-augmented mode on providers that support
	// it; others ignore the flag.
	Online bool
}

// Usage reports token consumption for a single call.
type Usage struct {
	PromptTokens     int
	CompletionTokens int
	TotalTokens      int
}

// Response is the raw provider output. Text is the concatenation of all
// response parts; Citations carries source URLs when the provider returns
// them (online mode only).
type Response struct {
	Text      string
	Usage     Usage
	Citations []string
}

// Provider is implemented once per vendor. Analyze must map every
// vendor-specific failure into the *ProviderError taxonomy in errors.go.
// TestConnection never returns an error; any failure reads as false.
type Provider interface {
	ID() string
	Analyze(ctx context.Context, prompt Prompt) (Response, error)
	TestConnection(ctx context.Context) bool
}

// Timeout returns the call budget for the given prompt mode.
func Timeout(p Prompt) time.Duration {
	if p.Online {
		return OnlineTimeout
	}
	return PlainTimeout
}
