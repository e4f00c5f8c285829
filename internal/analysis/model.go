package analysis

import (
	"fmt"
	"net/url"
	"strings"
	"time"
)

// ElectionType is the closed set of supported election kinds.
type ElectionType string

const (
	ElectionShugiin     ElectionType = "shugiin"
	ElectionSangiin     ElectionType = "sangiin"
	ElectionGovernor    ElectionType = "governor"
	ElectionMayor       ElectionType = "mayor"
	ElectionPrefectural ElectionType = "prefectural"
	ElectionMunicipal   ElectionType = "municipal"
)

var electionTypes = map[ElectionType]struct{}{
	ElectionShugiin:     {},
	ElectionSangiin:     {},
	ElectionGovernor:    {},
	ElectionMayor:       {},
	ElectionPrefectural: {},
	ElectionMunicipal:   {},
}

// DetailLevel controls how verbose the per-aspect reports should be.
type DetailLevel string

const (
	DetailBasic    DetailLevel = "basic"
	DetailStandard DetailLevel = "standard"
	DetailDetailed DetailLevel = "detailed"
)

// Settings toggles evaluation aspects for a request. The zero value means
// "all aspects, standard detail".
type Settings struct {
	IncludeTechnical bool        `json:"includeTechnical"`
	IncludePolitical bool        `json:"includePolitical"`
	IncludeFinancial bool        `json:"includeFinancial"`
	IncludeTimeline  bool        `json:"includeTimeline"`
	DetailLevel      DetailLevel `json:"detailLevel"`
}

// DefaultSettings enables every aspect at standard detail.
func DefaultSettings() Settings {
	return Settings{
		IncludeTechnical: true,
		IncludePolitical: true,
		IncludeFinancial: true,
		IncludeTimeline:  true,
		DetailLevel:      DetailStandard,
	}
}

// Request is the immutable pipeline input. Validated once at entry; invalid
// requests never reach extraction.
type Request struct {
	URL           string       `json:"url"`
	CandidateName string       `json:"candidateName"`
	Prefecture    string       `json:"prefecture"`
	ElectionType  ElectionType `json:"electionType"`
	ElectionDate  time.Time    `json:"electionDate"`
	Provider      string       `json:"provider"`
	Settings      *Settings    `json:"settings,omitempty"`
}

// Validate checks every request field and returns the first violation as a
// *RequestFieldError.
func (r Request) Validate() error {
	parsed, err := url.Parse(strings.TrimSpace(r.URL))
	if err != nil || (parsed.Scheme != "http" && parsed.Scheme != "https") || parsed.Host == "" {
		return &RequestFieldError{Field: "url", Reason: "must be an absolute http or https URL"}
	}
	if n := len([]rune(strings.TrimSpace(r.CandidateName))); n < 1 || n > 100 {
		return &RequestFieldError{Field: "candidateName", Reason: "must be 1-100 characters"}
	}
	if n := len([]rune(strings.TrimSpace(r.Prefecture))); n < 1 || n > 50 {
		return &RequestFieldError{Field: "prefecture", Reason: "must be 1-50 characters"}
	}
	if _, ok := electionTypes[r.ElectionType]; !ok {
		return &RequestFieldError{Field: "electionType", Reason: fmt.Sprintf("unknown election type %q", r.ElectionType)}
	}
	if r.ElectionDate.IsZero() {
		return &RequestFieldError{Field: "electionDate", Reason: "is required"}
	}
	if r.Settings != nil {
		switch r.Settings.DetailLevel {
		case "", DetailBasic, DetailStandard, DetailDetailed:
		default:
			return &RequestFieldError{Field: "settings.detailLevel", Reason: fmt.Sprintf("unknown detail level %q", r.Settings.DetailLevel)}
		}
	}
	return nil
}

// EffectiveSettings returns the request settings with defaults applied.
func (r Request) EffectiveSettings() Settings {
	if r.Settings == nil {
		return DefaultSettings()
	}
	s := *r.Settings
	if s.DetailLevel == "" {
		s.DetailLevel = DetailStandard
	}
	return s
}

// Impact levels for a policy.
const (
	ImpactHigh   = "high"
	ImpactMedium = "medium"
	ImpactLow    = "low"
)

// Categories is the fixed closed set of policy categories. The first entry
// is the fallback for unrecognized values.
var Categories = []string{
	"経済政策",
	"社会保障",
	"教育・子育て",
	"環境・エネルギー",
	"外交・安全保障",
	"地方創生",
	"行政改革",
	"その他",
}

// Aspect names of the four evaluation axes.
const (
	AspectTechnical = "technical"
	AspectPolitical = "political"
	AspectFinancial = "financial"
	AspectTimeline  = "timeline"
)

// AspectNames lists the four axes in canonical order.
var AspectNames = []string{AspectTechnical, AspectPolitical, AspectFinancial, AspectTimeline}

// EvaluationDetail scores one aspect of one policy.
type EvaluationDetail struct {
	Score          int      `json:"score"`
	Summary        string   `json:"summary"`
	Report         string   `json:"report"`
	References     []string `json:"references"`
	SearchKeywords []string `json:"searchKeywords"`
}

// DetailedEvaluation always carries all four aspects; missing ones are
// replaced by the default detail, never left absent.
type DetailedEvaluation struct {
	Technical EvaluationDetail `json:"technical"`
	Political EvaluationDetail `json:"political"`
	Financial EvaluationDetail `json:"financial"`
	Timeline  EvaluationDetail `json:"timeline"`
}

// Policy is one validated policy evaluation.
type Policy struct {
	Title              string             `json:"title"`
	Category           string             `json:"category"`
	Description        string             `json:"description"`
	FeasibilityScore   int                `json:"feasibilityScore"`
	Impact             string             `json:"impact"`
	DetailedEvaluation DetailedEvaluation `json:"detailedEvaluation"`
}

// Metadata describes one completed analysis run.
type Metadata struct {
	Provider         string    `json:"provider"`
	AnalyzedAt       time.Time `json:"analyzedAt"`
	ProcessingTimeMs int64     `json:"processingTimeMs"`
	ContentLength    int       `json:"contentLength"`
	SourceURL        string    `json:"sourceUrl"`
}

// Result is the only entity handed to persistence.
type Result struct {
	CandidateID   string   `json:"candidateId"`
	CandidateName string   `json:"candidateName"`
	Policies      []Policy `json:"policies"`
	Metadata      Metadata `json:"analysisMetadata"`
}
