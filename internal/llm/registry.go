package llm

import (
	"context"
	"strings"
	"sync"
	"time"
)

// Provider identifiers. Priority order is fixed; "auto" walks it top-down.
const (
	ProviderGemini     = "gemini"
	ProviderOpenAI     = "openai"
	ProviderAnthropic  = "anthropic"
	ProviderPerplexity = "perplexity"

	PreferenceAuto = "auto"
)

var priorityOrder = []string{ProviderGemini, ProviderOpenAI, ProviderAnthropic, ProviderPerplexity}

// placeholderCredentials are sentinel values from example configs. A key equal
// to one of these is treated the same as no key at all.
var placeholderCredentials = map[string]struct{}{
	"your-api-key":     {},
	"your_api_key":     {},
	"your-key-here":    {},
	"changeme":         {},
	"change-me":        {},
	"xxx":              {},
	"sk-your-api-key":  {},
	"sk-xxxxxxxxxxxx":  {},
	"api-key-not-set":  {},
	"placeholder":      {},
}

// ValidCredential reports whether a configured secret is usable: present,
// non-empty, and not a known placeholder.
func ValidCredential(key string) bool {
	trimmed := strings.TrimSpace(key)
	if trimmed == "" {
		return false
	}
	_, isPlaceholder := placeholderCredentials[strings.ToLower(trimmed)]
	return !isPlaceholder
}

// Registry holds the providers whose credentials resolved at startup.
type Registry struct {
	providers map[string]Provider
}

// NewRegistry builds a registry from already-constructed providers, keeping
// only non-nil entries. Callers decide construction per vendor so that "is
// this vendor usable" stays separate from "how do I call it".
func NewRegistry(providers ...Provider) *Registry {
	r := &Registry{providers: make(map[string]Provider, len(providers))}
	for _, p := range providers {
		if p != nil {
			r.providers[p.ID()] = p
		}
	}
	return r
}

// IDs returns the registered provider identifiers in priority order.
func (r *Registry) IDs() []string {
	var out []string
	for _, id := range priorityOrder {
		if _, ok := r.providers[id]; ok {
			out = append(out, id)
		}
	}
	return out
}

// Select returns the provider matching the preference, or the first usable
// provider in priority order when the preference is "auto", empty, or names
// an unconfigured vendor.
func (r *Registry) Select(preference string) (Provider, error) {
	pref := strings.ToLower(strings.TrimSpace(preference))
	if pref != "" && pref != PreferenceAuto {
		if p, ok := r.providers[pref]; ok {
			return p, nil
		}
	}
	for _, id := range priorityOrder {
		if p, ok := r.providers[id]; ok {
			return p, nil
		}
	}
	return nil, ErrNoProviderAvailable
}

// TestAll runs every provider's connectivity self-test concurrently with a
// per-provider timeout. Used by the health surface only.
func (r *Registry) TestAll(ctx context.Context) map[string]bool {
	results := make(map[string]bool, len(r.providers))
	var (
		mu sync.Mutex
		wg sync.WaitGroup
	)
	for id, p := range r.providers {
		wg.Add(1)
		go func(id string, p Provider) {
			defer wg.Done()
			testCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
			defer cancel()
			ok := p.TestConnection(testCtx)
			mu.Lock()
			results[id] = ok
			mu.Unlock()
		}(id, p)
	}
	wg.Wait()
	return results
}
