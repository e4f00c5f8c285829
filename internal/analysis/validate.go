package analysis

import (
	"encoding/json"
	"fmt"
	"strings"
)

const (
	maxSummaryLen     = 100
	maxReportLen      = 1000
	maxDescriptionLen = 100
	maxReferences     = 5
	maxKeywords       = 10

	defaultFeasibilityScore = 50
	defaultAspectScore      = 50
)

// defaultDetail is substituted for any evaluation aspect the provider left
// out. Score 50 marks "insufficient data", not a judgement.
func defaultDetail() EvaluationDetail {
	return EvaluationDetail{
		Score:          defaultAspectScore,
		Summary:        "十分な情報がないため評価できません",
		Report:         "マニフェストから該当する評価材料を読み取れなかったため、基準点の50点としています。",
		References:     []string{},
		SearchKeywords: []string{},
	}
}

// ParseResult locates the JSON object embedded in a raw provider response and
// validates it into a Result. Metadata fields are filled in by the caller.
//
// Extraction is deliberately lenient: models routinely wrap JSON in prose or
// code fences, so the substring from the first '{' to the last '}' is taken
// as the payload. That scan can false-positive when the surrounding prose
// itself contains braces; such input fails at the unmarshal step instead.
func ParseResult(raw, candidateName, prefecture string) (*Result, error) {
	payload, ok := extractJSONObject(raw)
	if !ok {
		return nil, fmt.Errorf("%w: no JSON object in response", ErrMalformedResponse)
	}

	var top struct {
		Policies []json.RawMessage `json:"policies"`
	}
	if err := json.Unmarshal([]byte(payload), &top); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMalformedResponse, err)
	}
	if top.Policies == nil {
		return nil, fmt.Errorf("%w: missing policies array", ErrMalformedResponse)
	}
	if len(top.Policies) == 0 {
		return nil, fmt.Errorf("%w: policies array is empty", ErrMalformedResponse)
	}

	policies := make([]Policy, 0, len(top.Policies))
	for i, rawPolicy := range top.Policies {
		policy, err := validatePolicy(i, rawPolicy)
		if err != nil {
			return nil, err
		}
		policies = append(policies, policy)
	}

	return &Result{
		CandidateID:   CandidateID(candidateName, prefecture),
		CandidateName: candidateName,
		Policies:      policies,
	}, nil
}

// extractJSONObject returns the substring from the first '{' to the last '}'.
func extractJSONObject(raw string) (string, bool) {
	start := strings.Index(raw, "{")
	end := strings.LastIndex(raw, "}")
	if start < 0 || end <= start {
		return "", false
	}
	return raw[start : end+1], true
}

// validatePolicy applies field-level validation with independent defaulting:
// a malformed field never aborts the policy, only that field is replaced.
// Only an entirely absent required field is an error.
func validatePolicy(index int, raw json.RawMessage) (Policy, error) {
	var fields map[string]json.RawMessage
	if err := json.Unmarshal(raw, &fields); err != nil {
		return Policy{}, &MissingFieldError{Index: index, Field: "policy"}
	}

	for _, required := range []string{"title", "category", "description", "feasibilityScore", "impact", "detailedEvaluation"} {
		if _, ok := fields[required]; !ok {
			return Policy{}, &MissingFieldError{Index: index, Field: required}
		}
	}

	policy := Policy{
		Title:            coerceString(fields["title"]),
		Category:         validateCategory(coerceString(fields["category"])),
		Description:      truncateRunes(coerceString(fields["description"]), maxDescriptionLen),
		FeasibilityScore: validateFeasibilityScore(fields["feasibilityScore"]),
		Impact:           validateImpact(coerceString(fields["impact"])),
	}

	var aspects map[string]json.RawMessage
	// A non-object detailedEvaluation degrades to "all aspects defaulted".
	_ = json.Unmarshal(fields["detailedEvaluation"], &aspects)
	policy.DetailedEvaluation = DetailedEvaluation{
		Technical: validateDetail(aspects[AspectTechnical]),
		Political: validateDetail(aspects[AspectPolitical]),
		Financial: validateDetail(aspects[AspectFinancial]),
		Timeline:  validateDetail(aspects[AspectTimeline]),
	}

	return policy, nil
}

// validateFeasibilityScore treats anything that is not a number inside
// [0,100] as invalid and falls back to the default. An out-of-range value
// like 150 is NOT clamped to 100: out-of-range means the model did not
// follow the rubric, so the value carries no information.
func validateFeasibilityScore(raw json.RawMessage) int {
	var f float64
	if err := json.Unmarshal(raw, &f); err != nil {
		return defaultFeasibilityScore
	}
	if f < 0 || f > 100 {
		return defaultFeasibilityScore
	}
	return int(f)
}

func validateImpact(impact string) string {
	switch impact {
	case ImpactHigh, ImpactMedium, ImpactLow:
		return impact
	}
	return ImpactMedium
}

func validateCategory(category string) string {
	for _, c := range Categories {
		if category == c {
			return category
		}
	}
	return Categories[0]
}

// validateDetail normalizes one evaluation aspect. Absent aspects get the
// fixed default; present ones are clamped and truncated field by field.
func validateDetail(raw json.RawMessage) EvaluationDetail {
	if len(raw) == 0 {
		return defaultDetail()
	}
	var fields map[string]json.RawMessage
	if err := json.Unmarshal(raw, &fields); err != nil {
		return defaultDetail()
	}
	if len(fields) == 0 {
		return defaultDetail()
	}

	detail := EvaluationDetail{
		Score:          clampScore(fields["score"]),
		Summary:        truncateRunes(coerceString(fields["summary"]), maxSummaryLen),
		Report:         truncateRunes(coerceString(fields["report"]), maxReportLen),
		References:     coerceStringSlice(fields["references"], maxReferences),
		SearchKeywords: coerceStringSlice(fields["searchKeywords"], maxKeywords),
	}
	return detail
}

// clampScore clamps an aspect score into [0,100]; non-numbers become the
// default. Unlike feasibilityScore, out-of-range aspect scores are clamped.
func clampScore(raw json.RawMessage) int {
	var f float64
	if err := json.Unmarshal(raw, &f); err != nil {
		return defaultAspectScore
	}
	if f < 0 {
		return 0
	}
	if f > 100 {
		return 100
	}
	return int(f)
}

func coerceString(raw json.RawMessage) string {
	var s string
	if err := json.Unmarshal(raw, &s); err != nil {
		return ""
	}
	return s
}

func coerceStringSlice(raw json.RawMessage, max int) []string {
	var values []any
	if err := json.Unmarshal(raw, &values); err != nil {
		return []string{}
	}
	out := make([]string, 0, len(values))
	for _, v := range values {
		if s, ok := v.(string); ok {
			out = append(out, s)
		}
		if len(out) == max {
			break
		}
	}
	return out
}

func truncateRunes(s string, max int) string {
	runes := []rune(s)
	if len(runes) <= max {
		return s
	}
	return string(runes[:max])
}

// BackfillReferences fills empty reference lists with citation URLs returned
// by a search-augmented provider. Non-empty lists are left alone.
func BackfillReferences(result *Result, citations []string) {
	if result == nil || len(citations) == 0 {
		return
	}
	if len(citations) > maxReferences {
		citations = citations[:maxReferences]
	}
	for i := range result.Policies {
		eval := &result.Policies[i].DetailedEvaluation
		for _, detail := range []*EvaluationDetail{&eval.Technical, &eval.Political, &eval.Financial, &eval.Timeline} {
			if len(detail.References) == 0 {
				detail.References = append([]string{}, citations...)
			}
		}
	}
}
