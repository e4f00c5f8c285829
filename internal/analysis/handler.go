package analysis

import (
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"

	"manifesto-backend/internal/llm"
	"manifesto-backend/internal/scrape"
	"manifesto-backend/internal/shared/server/middleware"
	"manifesto-backend/internal/shared/server/respond"
)

// Handler wires HTTP handlers to the analysis service.
type Handler struct {
	Svc  *Service
	Repo Repo
}

// NewHandler constructs a Handler.
func NewHandler(svc *Service, repo Repo) *Handler {
	return &Handler{Svc: svc, Repo: repo}
}

// RegisterRoutes attaches analysis routes to the router group. Starting an
// analysis is an administrative operation; reads are open to any identity.
func (h *Handler) RegisterRoutes(rg *gin.RouterGroup) {
	rg.POST("/analyses", middleware.RequireUser(), middleware.RequireAdmin(), h.startAnalysis)
	rg.GET("/candidates", h.listCandidates)
	rg.GET("/candidates/:id", h.getCandidate)
	rg.GET("/providers/health", h.providerHealth)
}

type analyzeRequestDTO struct {
	URL           string    `json:"url"`
	CandidateName string    `json:"candidateName"`
	Prefecture    string    `json:"prefecture"`
	ElectionType  string    `json:"electionType"`
	ElectionDate  string    `json:"electionDate"`
	Provider      string    `json:"provider"`
	Settings      *Settings `json:"settings"`
}

func (h *Handler) startAnalysis(c *gin.Context) {
	userID := middleware.UserIDFromContext(c)

	var dto analyzeRequestDTO
	if err := c.ShouldBindJSON(&dto); err != nil {
		respond.Error(c, http.StatusBadRequest, "invalid_request_field", "request body is not valid JSON", nil)
		return
	}

	var electionDate time.Time
	if dto.ElectionDate != "" {
		parsed, err := time.Parse("2006-01-02", dto.ElectionDate)
		if err != nil {
			respond.Error(c, http.StatusBadRequest, "invalid_request_field", "electionDate must be YYYY-MM-DD", nil)
			return
		}
		electionDate = parsed
	}

	req := Request{
		URL:           dto.URL,
		CandidateName: dto.CandidateName,
		Prefecture:    dto.Prefecture,
		ElectionType:  ElectionType(dto.ElectionType),
		ElectionDate:  electionDate,
		Provider:      dto.Provider,
		Settings:      dto.Settings,
	}

	result, err := h.Svc.Analyze(c.Request.Context(), req, userID)
	if err != nil {
		status, code, message := classifyError(err)
		respond.Error(c, status, code, message, nil)
		return
	}

	c.Set("candidateId", result.CandidateID)
	c.Set("provider", result.Metadata.Provider)
	respond.JSON(c, http.StatusCreated, result)
}

func (h *Handler) getCandidate(c *gin.Context) {
	candidateID := c.Param("id")
	if candidateID == "" {
		respond.Error(c, http.StatusBadRequest, "invalid_request_field", "candidate id is required", nil)
		return
	}
	candidate, err := h.Repo.GetCandidate(c.Request.Context(), candidateID)
	if err != nil {
		if errors.Is(err, ErrCandidateNotFound) {
			respond.Error(c, http.StatusNotFound, "not_found", "candidate not found", nil)
			return
		}
		respond.Error(c, http.StatusInternalServerError, "internal_error", "failed to fetch candidate", nil)
		return
	}
	respond.OK(c, candidate)
}

func (h *Handler) listCandidates(c *gin.Context) {
	limit := 20
	offset := 0
	if v := c.Query("limit"); v != "" {
		if parsed, err := strconv.Atoi(v); err == nil {
			limit = parsed
		}
	}
	if v := c.Query("offset"); v != "" {
		if parsed, err := strconv.Atoi(v); err == nil {
			offset = parsed
		}
	}
	candidates, err := h.Repo.ListCandidates(c.Request.Context(), limit, offset)
	if err != nil {
		respond.Error(c, http.StatusInternalServerError, "internal_error", "failed to list candidates", nil)
		return
	}
	if candidates == nil {
		candidates = []Candidate{}
	}
	respond.OK(c, gin.H{"candidates": candidates, "limit": limit, "offset": offset})
}

func (h *Handler) providerHealth(c *gin.Context) {
	respond.OK(c, gin.H{"providers": h.Svc.TestProviders(c.Request.Context())})
}

// classifyError maps the pipeline taxonomy onto HTTP. A specific taxonomy
// entry always wins over the generic fallback so callers can branch on code.
func classifyError(err error) (int, string, string) {
	var reqErr *RequestFieldError
	if errors.As(err, &reqErr) {
		return http.StatusBadRequest, "invalid_request_field", reqErr.Error()
	}
	var missingErr *MissingFieldError
	if errors.As(err, &missingErr) {
		return http.StatusBadGateway, "missing_field", missingErr.Error()
	}

	switch {
	case errors.Is(err, ErrRateLimited):
		return http.StatusTooManyRequests, "rate_limit_exceeded", "analysis rate limit exceeded, try again later"
	case errors.Is(err, ErrQuotaExhausted):
		return http.StatusTooManyRequests, "quota_exhausted", "analysis allowance for this period is spent"
	case errors.Is(err, scrape.ErrInvalidURL):
		return http.StatusBadRequest, "invalid_url", err.Error()
	case errors.Is(err, scrape.ErrUnsupportedContent):
		return http.StatusUnprocessableEntity, "unsupported_content", err.Error()
	case errors.Is(err, ErrContentTooShort):
		return http.StatusUnprocessableEntity, "content_too_short", err.Error()
	case errorsIsTimeout(err):
		return http.StatusGatewayTimeout, "timeout", err.Error()
	case errors.Is(err, scrape.ErrExtractionFailed):
		return http.StatusBadGateway, "extraction_failed", err.Error()
	case errors.Is(err, llm.ErrNoProviderAvailable):
		return http.StatusServiceUnavailable, "no_provider_available", err.Error()
	case errors.Is(err, ErrMalformedResponse):
		return http.StatusBadGateway, "malformed_response", err.Error()
	}

	switch llm.KindOf(err) {
	case llm.KindAuth:
		return http.StatusBadGateway, "provider_auth", "provider rejected configured credentials"
	case llm.KindQuota:
		return http.StatusBadGateway, "provider_quota", "provider quota exceeded"
	case llm.KindBadRequest:
		return http.StatusBadGateway, "provider_bad_request", "provider rejected the analysis request"
	case llm.KindEmptyResponse:
		return http.StatusBadGateway, "empty_response", "provider returned an empty response"
	case llm.KindInternal:
		return http.StatusBadGateway, "provider_internal", "provider failed"
	}

	var persistErr *PersistenceError
	if errors.As(err, &persistErr) {
		return http.StatusInternalServerError, "persistence_error", "failed to persist analysis"
	}

	return http.StatusInternalServerError, "internal_error", "analysis failed"
}
