package analysis

import (
	"context"
	"sort"
	"sync"
)

// MemoryRepo implements Repo in process, for tests and for running without a
// database.
type MemoryRepo struct {
	mu         sync.RWMutex
	candidates map[string]Candidate
	logs       []logRecord
}

type logRecord struct {
	CandidateID string
	UserID      string
	Provider    string
}

// NewMemoryRepo constructs an empty in-memory repo.
func NewMemoryRepo() *MemoryRepo {
	return &MemoryRepo{candidates: make(map[string]Candidate)}
}

// SaveResult stores candidate, policies, and a log record under one lock.
func (r *MemoryRepo) SaveResult(ctx context.Context, req Request, result *Result, userID string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	r.mu.Lock()
	defer r.mu.Unlock()

	policies := make([]Policy, len(result.Policies))
	copy(policies, result.Policies)

	r.candidates[result.CandidateID] = Candidate{
		ID:             result.CandidateID,
		Name:           result.CandidateName,
		Prefecture:     req.Prefecture,
		ElectionType:   req.ElectionType,
		ElectionDate:   req.ElectionDate,
		SourceURL:      result.Metadata.SourceURL,
		LastProvider:   result.Metadata.Provider,
		LastAnalyzedAt: result.Metadata.AnalyzedAt,
		Policies:       policies,
	}
	r.logs = append(r.logs, logRecord{
		CandidateID: result.CandidateID,
		UserID:      userID,
		Provider:    result.Metadata.Provider,
	})
	return nil
}

// GetCandidate returns a stored candidate.
func (r *MemoryRepo) GetCandidate(ctx context.Context, candidateID string) (Candidate, error) {
	if err := ctx.Err(); err != nil {
		return Candidate{}, err
	}
	r.mu.RLock()
	defer r.mu.RUnlock()
	c, ok := r.candidates[candidateID]
	if !ok {
		return Candidate{}, ErrCandidateNotFound
	}
	return c, nil
}

// ListCandidates returns stored candidates, most recently analyzed first.
func (r *MemoryRepo) ListCandidates(ctx context.Context, limit, offset int) ([]Candidate, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if limit <= 0 || limit > 100 {
		limit = 20
	}
	if offset < 0 {
		offset = 0
	}
	r.mu.RLock()
	defer r.mu.RUnlock()

	all := make([]Candidate, 0, len(r.candidates))
	for _, c := range r.candidates {
		c.Policies = nil
		all = append(all, c)
	}
	sort.Slice(all, func(i, j int) bool {
		return all[i].LastAnalyzedAt.After(all[j].LastAnalyzedAt)
	})
	if offset >= len(all) {
		return nil, nil
	}
	all = all[offset:]
	if len(all) > limit {
		all = all[:limit]
	}
	return all, nil
}

// LogCount reports the number of append-only analysis records (test helper).
func (r *MemoryRepo) LogCount() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.logs)
}

var _ Repo = (*MemoryRepo)(nil)
