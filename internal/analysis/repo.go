package analysis

import (
	"context"
	"time"
)

// Candidate is the read model for a persisted candidate.
type Candidate struct {
	ID             string       `json:"id"`
	Name           string       `json:"name"`
	Prefecture     string       `json:"prefecture"`
	ElectionType   ElectionType `json:"electionType"`
	ElectionDate   time.Time    `json:"electionDate"`
	SourceURL      string       `json:"sourceUrl"`
	LastProvider   string       `json:"lastProvider"`
	LastAnalyzedAt time.Time    `json:"lastAnalyzedAt"`
	Policies       []Policy     `json:"policies,omitempty"`
}

// Repo is the persistence collaborator. SaveResult must be a single atomic
// write: candidate merged/created, one policy row per policy, one append-only
// analysis log record — all or nothing.
type Repo interface {
	SaveResult(ctx context.Context, req Request, result *Result, userID string) error
	GetCandidate(ctx context.Context, candidateID string) (Candidate, error)
	ListCandidates(ctx context.Context, limit, offset int) ([]Candidate, error)
}
