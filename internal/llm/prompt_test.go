package llm

import (
	"strings"
	"testing"
)

func TestBuildPromptEmbedsCandidateAndContent(t *testing.T) {
	p := BuildPrompt(PromptInput{
		CandidateName:    "山田太郎",
		Prefecture:       "東京都",
		ElectionType:     "知事選挙",
		ElectionDate:     "2026-07-05",
		DetailLevel:      "detailed",
		IncludeTechnical: true,
		IncludePolitical: true,
		IncludeFinancial: true,
		IncludeTimeline:  true,
		Content:          "待機児童ゼロを実現します。",
	})
	for _, want := range []string{"山田太郎", "東京都", "知事選挙", "2026-07-05", "待機児童ゼロ", "detailed"} {
		if !strings.Contains(p.User, want) {
			t.Errorf("user prompt missing %q", want)
		}
	}
	for _, want := range []string{"policies", "feasibilityScore", "detailedEvaluation", "technical", "political", "financial", "timeline"} {
		if !strings.Contains(p.System, want) {
			t.Errorf("system prompt missing %q", want)
		}
	}
	if p.Online {
		t.Error("online should default to false")
	}
}

func TestBuildPromptDefaultsAspectsWhenAllDisabled(t *testing.T) {
	p := BuildPrompt(PromptInput{CandidateName: "a", Prefecture: "b", Content: "c"})
	if !strings.Contains(p.User, "technical, political, financial, timeline") {
		t.Errorf("expected all aspects listed when none toggled: %q", p.User)
	}
	if !strings.Contains(p.User, "standard") {
		t.Errorf("expected default detail level, got %q", p.User)
	}
}

func TestTimeoutBudgets(t *testing.T) {
	if got := Timeout(Prompt{}); got != PlainTimeout {
		t.Fatalf("plain timeout = %v", got)
	}
	if got := Timeout(Prompt{Online: true}); got != OnlineTimeout {
		t.Fatalf("online timeout = %v", got)
	}
}
