package analysis

import (
	"context"
	"errors"
	"fmt"
	"time"

	"manifesto-backend/internal/llm"
	"manifesto-backend/internal/ratelimit"
	"manifesto-backend/internal/scrape"
	"manifesto-backend/internal/shared/metrics"
	"manifesto-backend/internal/shared/telemetry"
	"manifesto-backend/internal/usage"
)

// State names the pipeline stages. Each state performs exactly one operation
// and moves forward only on success; any failure transitions to failed with
// the originating error and no partial retries.
type State string

const (
	StateValidating        State = "validating"
	StateRateLimiting      State = "rate_limiting"
	StateExtracting        State = "extracting"
	StateSelectingProvider State = "selecting_provider"
	StateAnalyzing         State = "analyzing"
	StateParsingResponse   State = "parsing_response"
	StatePersisting        State = "persisting"
	StateDone              State = "done"
)

const (
	// OperationAnalyze is the rate-limit operation key for manifesto analysis.
	OperationAnalyze = "analyze_manifesto"

	// minContentLength is the usability floor for extracted text.
	minContentLength = 100
)

// Scraper is the content-extraction collaborator.
type Scraper interface {
	Extract(ctx context.Context, rawURL string) (*scrape.Content, error)
}

// Service orchestrates the manifesto analysis pipeline.
type Service struct {
	Scraper   Scraper
	Providers *llm.Registry
	Limiter   ratelimit.Limiter
	Usage     *usage.Service
	Repo      Repo

	RateLimitMax    int
	RateLimitWindow time.Duration

	now func() time.Time
}

// NewService wires the pipeline collaborators.
func NewService(scraper Scraper, providers *llm.Registry, limiter ratelimit.Limiter, usageSvc *usage.Service, repo Repo, rateMax int, rateWindow time.Duration) *Service {
	return &Service{
		Scraper:         scraper,
		Providers:       providers,
		Limiter:         limiter,
		Usage:           usageSvc,
		Repo:            repo,
		RateLimitMax:    rateMax,
		RateLimitWindow: rateWindow,
		now:             time.Now,
	}
}

// Analyze runs one pipeline invocation end to end. Each invocation is
// independent; the only shared resources are the rate-limit store and the
// persistence store. Retry policy belongs to the caller.
func (s *Service) Analyze(ctx context.Context, req Request, userID string) (*Result, error) {
	start := s.now()
	metrics.IncAnalysisStarted()

	// Validating
	if err := req.Validate(); err != nil {
		return nil, s.fail(StateValidating, userID, start, err)
	}

	// RateLimiting. A limiter store failure fails open: the event is allowed
	// and the error only logged, never surfaced.
	allowed, err := s.Limiter.CheckAndRecord(ctx, userID, OperationAnalyze, s.RateLimitMax, s.RateLimitWindow)
	if err != nil {
		telemetry.Warn("analysis.ratelimit_fail_open", map[string]any{
			"user_id":   userID,
			"operation": OperationAnalyze,
			"error":     err.Error(),
		})
	}
	if !allowed {
		metrics.IncAnalysisRateLimited()
		return nil, s.fail(StateRateLimiting, userID, start, ErrRateLimited)
	}
	if s.Usage != nil {
		ok, _, usageErr := s.Usage.CanConsume(ctx, userID, 1)
		if usageErr != nil {
			telemetry.Warn("analysis.usage_check_failed", map[string]any{
				"user_id": userID,
				"error":   usageErr.Error(),
			})
		} else if !ok {
			return nil, s.fail(StateRateLimiting, userID, start, ErrQuotaExhausted)
		}
	}

	// Extracting
	content, err := s.Scraper.Extract(ctx, req.URL)
	if err != nil {
		return nil, s.fail(StateExtracting, userID, start, err)
	}
	if content.Length < minContentLength {
		return nil, s.fail(StateExtracting, userID, start,
			fmt.Errorf("%w: %d characters", ErrContentTooShort, content.Length))
	}

	// SelectingProvider
	provider, err := s.Providers.Select(req.Provider)
	if err != nil {
		return nil, s.fail(StateSelectingProvider, userID, start, err)
	}

	// Analyzing
	settings := req.EffectiveSettings()
	prompt := llm.BuildPrompt(llm.PromptInput{
		CandidateName:    req.CandidateName,
		Prefecture:       req.Prefecture,
		ElectionType:     string(req.ElectionType),
		ElectionDate:     req.ElectionDate.Format("2006-01-02"),
		DetailLevel:      string(settings.DetailLevel),
		IncludeTechnical: settings.IncludeTechnical,
		IncludePolitical: settings.IncludePolitical,
		IncludeFinancial: settings.IncludeFinancial,
		IncludeTimeline:  settings.IncludeTimeline,
		Content:          content.Text,
		Online:           provider.ID() == llm.ProviderPerplexity,
	})
	response, err := provider.Analyze(ctx, prompt)
	if err != nil {
		return nil, s.fail(StateAnalyzing, userID, start, err)
	}

	// ParsingResponse
	result, err := ParseResult(response.Text, req.CandidateName, req.Prefecture)
	if err != nil {
		telemetry.Error("analysis.parse_failed", map[string]any{
			"user_id":     userID,
			"operation":   OperationAnalyze,
			"provider":    provider.ID(),
			"raw_excerpt": truncateForLog(response.Text, 200),
			"error":       err.Error(),
			"elapsed_ms":  s.now().Sub(start).Milliseconds(),
		})
		metrics.IncAnalysisFailed()
		return nil, err
	}
	BackfillReferences(result, response.Citations)

	result.Metadata = Metadata{
		Provider:      provider.ID(),
		AnalyzedAt:    s.now().UTC(),
		ContentLength: content.Length,
		SourceURL:     content.URL,
	}
	result.Metadata.ProcessingTimeMs = s.now().Sub(start).Milliseconds()

	// Persisting
	if err := s.Repo.SaveResult(ctx, req, result, userID); err != nil {
		return nil, s.fail(StatePersisting, userID, start, &PersistenceError{Err: err})
	}
	if s.Usage != nil {
		if _, err := s.Usage.Consume(ctx, userID, 1); err != nil {
			telemetry.Warn("analysis.usage_consume_failed", map[string]any{
				"user_id": userID,
				"error":   err.Error(),
			})
		}
	}

	// Done. Processing time covers validating through persisting completion.
	result.Metadata.ProcessingTimeMs = s.now().Sub(start).Milliseconds()
	metrics.IncAnalysisCompleted()
	metrics.ObserveAnalysisDurationMs(float64(result.Metadata.ProcessingTimeMs))
	telemetry.Info("analysis.complete", map[string]any{
		"user_id":            userID,
		"candidate_id":       result.CandidateID,
		"provider":           result.Metadata.Provider,
		"policy_count":       len(result.Policies),
		"content_length":     result.Metadata.ContentLength,
		"processing_time_ms": result.Metadata.ProcessingTimeMs,
	})
	return result, nil
}

// TestProviders runs every configured provider's connectivity self-test.
// Operational only; results never feed back into the pipeline.
func (s *Service) TestProviders(ctx context.Context) map[string]bool {
	return s.Providers.TestAll(ctx)
}

// fail logs the terminal transition with enough context to reconstruct the
// failure and returns the originating error unchanged.
func (s *Service) fail(state State, userID string, start time.Time, err error) error {
	metrics.IncAnalysisFailed()
	telemetry.Error("analysis.failed", map[string]any{
		"state":      string(state),
		"user_id":    userID,
		"operation":  OperationAnalyze,
		"elapsed_ms": s.now().Sub(start).Milliseconds(),
		"error":      err.Error(),
	})
	return err
}

// errorsIsTimeout reports whether the failure was a deadline problem at any
// layer, for callers that branch on timeouts.
func errorsIsTimeout(err error) bool {
	if errors.Is(err, context.DeadlineExceeded) || errors.Is(err, scrape.ErrExtractionTimeout) {
		return true
	}
	return llm.KindOf(err) == llm.KindTimeout
}
