package llm

import (
	"context"
	"errors"
	"testing"
)

type fakeProvider struct {
	id      string
	healthy bool
}

func (f *fakeProvider) ID() string { return f.id }
func (f *fakeProvider) Analyze(ctx context.Context, p Prompt) (Response, error) {
	return Response{Text: "{}"}, nil
}
func (f *fakeProvider) TestConnection(ctx context.Context) bool { return f.healthy }

func TestValidCredential(t *testing.T) {
	cases := []struct {
		key  string
		want bool
	}{
		{"", false},
		{"   ", false},
		{"your-api-key", false},
		{"YOUR-API-KEY", false},
		{"changeme", false},
		{"sk-your-api-key", false},
		{"sk-live-abc123", true},
		{"AIzaSyReal", true},
	}
	for _, tc := range cases {
		if got := ValidCredential(tc.key); got != tc.want {
			t.Errorf("ValidCredential(%q) = %v, want %v", tc.key, got, tc.want)
		}
	}
}

func TestSelectHonorsPreference(t *testing.T) {
	r := NewRegistry(
		&fakeProvider{id: ProviderGemini},
		&fakeProvider{id: ProviderAnthropic},
	)
	p, err := r.Select(ProviderAnthropic)
	if err != nil {
		t.Fatalf("Select: %v", err)
	}
	if p.ID() != ProviderAnthropic {
		t.Fatalf("selected %s, want anthropic", p.ID())
	}
}

func TestSelectAutoWalksPriority(t *testing.T) {
	r := NewRegistry(
		&fakeProvider{id: ProviderPerplexity},
		&fakeProvider{id: ProviderOpenAI},
	)
	p, err := r.Select(PreferenceAuto)
	if err != nil {
		t.Fatalf("Select: %v", err)
	}
	if p.ID() != ProviderOpenAI {
		t.Fatalf("selected %s, want openai (first in priority order)", p.ID())
	}
}

func TestSelectUnknownPreferenceFallsBack(t *testing.T) {
	r := NewRegistry(&fakeProvider{id: ProviderGemini})
	p, err := r.Select("openai")
	if err != nil {
		t.Fatalf("Select: %v", err)
	}
	if p.ID() != ProviderGemini {
		t.Fatalf("selected %s, want gemini", p.ID())
	}
}

func TestSelectEmptyRegistry(t *testing.T) {
	r := NewRegistry()
	if _, err := r.Select(PreferenceAuto); !errors.Is(err, ErrNoProviderAvailable) {
		t.Fatalf("error = %v, want ErrNoProviderAvailable", err)
	}
}

func TestTestAllNeverFails(t *testing.T) {
	r := NewRegistry(
		&fakeProvider{id: ProviderGemini, healthy: true},
		&fakeProvider{id: ProviderOpenAI, healthy: false},
	)
	results := r.TestAll(context.Background())
	if !results[ProviderGemini] || results[ProviderOpenAI] {
		t.Fatalf("unexpected results: %v", results)
	}
}

func TestKindOf(t *testing.T) {
	err := NewProviderError("openai", KindQuota, "rate limited upstream", nil)
	if got := KindOf(err); got != KindQuota {
		t.Fatalf("KindOf = %s", got)
	}
	if got := KindOf(errors.New("plain")); got != "" {
		t.Fatalf("KindOf(plain) = %q, want empty", got)
	}
}

func TestKindFromStatus(t *testing.T) {
	cases := map[int]ErrorKind{
		401: KindAuth,
		403: KindAuth,
		429: KindQuota,
		400: KindBadRequest,
		422: KindBadRequest,
		500: KindInternal,
		503: KindInternal,
	}
	for status, want := range cases {
		if got := KindFromStatus(status); got != want {
			t.Errorf("KindFromStatus(%d) = %s, want %s", status, got, want)
		}
	}
}
