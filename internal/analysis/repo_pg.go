package analysis

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"time"

	"github.com/google/uuid"
)

// PGRepo implements Repo using Postgres. All writes for one analysis happen
// inside a single transaction.
type PGRepo struct {
	DB *sql.DB
}

// SaveResult upserts the candidate, replaces its policies, and appends an
// analysis log record atomically.
func (r *PGRepo) SaveResult(ctx context.Context, req Request, result *Result, userID string) error {
	tx, err := r.DB.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	const upsertCandidate = `
INSERT INTO candidates (id, name, prefecture, election_type, election_date, source_url, last_provider, last_analyzed_at, updated_at)
VALUES ($1, $2, $3, $4, $5, $6, $7, $8, now())
ON CONFLICT (id) DO UPDATE SET
	name = EXCLUDED.name,
	prefecture = EXCLUDED.prefecture,
	election_type = EXCLUDED.election_type,
	election_date = EXCLUDED.election_date,
	source_url = EXCLUDED.source_url,
	last_provider = EXCLUDED.last_provider,
	last_analyzed_at = EXCLUDED.last_analyzed_at,
	updated_at = now()`
	if _, err := tx.ExecContext(ctx, upsertCandidate,
		result.CandidateID,
		result.CandidateName,
		req.Prefecture,
		string(req.ElectionType),
		req.ElectionDate,
		result.Metadata.SourceURL,
		result.Metadata.Provider,
		result.Metadata.AnalyzedAt,
	); err != nil {
		return err
	}

	if _, err := tx.ExecContext(ctx, `DELETE FROM policies WHERE candidate_id = $1`, result.CandidateID); err != nil {
		return err
	}

	const insertPolicy = `
INSERT INTO policies (id, candidate_id, title, category, description, feasibility_score, impact, evaluation, position)
VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)`
	for i, policy := range result.Policies {
		evaluation, err := json.Marshal(policy.DetailedEvaluation)
		if err != nil {
			return err
		}
		if _, err := tx.ExecContext(ctx, insertPolicy,
			uuid.NewString(),
			result.CandidateID,
			policy.Title,
			policy.Category,
			policy.Description,
			policy.FeasibilityScore,
			policy.Impact,
			evaluation,
			i,
		); err != nil {
			return err
		}
	}

	const insertLog = `
INSERT INTO analysis_logs (id, candidate_id, user_id, provider, source_url, content_length, processing_time_ms, policy_count, created_at)
VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)`
	if _, err := tx.ExecContext(ctx, insertLog,
		uuid.NewString(),
		result.CandidateID,
		userID,
		result.Metadata.Provider,
		result.Metadata.SourceURL,
		result.Metadata.ContentLength,
		result.Metadata.ProcessingTimeMs,
		len(result.Policies),
		result.Metadata.AnalyzedAt,
	); err != nil {
		return err
	}

	return tx.Commit()
}

// GetCandidate returns a candidate with its policies.
func (r *PGRepo) GetCandidate(ctx context.Context, candidateID string) (Candidate, error) {
	const query = `
SELECT id, name, prefecture, election_type, election_date, source_url, last_provider, last_analyzed_at
FROM candidates
WHERE id = $1`
	var c Candidate
	var electionType string
	err := r.DB.QueryRowContext(ctx, query, candidateID).Scan(
		&c.ID,
		&c.Name,
		&c.Prefecture,
		&electionType,
		&c.ElectionDate,
		&c.SourceURL,
		&c.LastProvider,
		&c.LastAnalyzedAt,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return Candidate{}, ErrCandidateNotFound
	}
	if err != nil {
		return Candidate{}, err
	}
	c.ElectionType = ElectionType(electionType)

	policies, err := r.policiesFor(ctx, candidateID)
	if err != nil {
		return Candidate{}, err
	}
	c.Policies = policies
	return c, nil
}

func (r *PGRepo) policiesFor(ctx context.Context, candidateID string) ([]Policy, error) {
	const query = `
SELECT title, category, description, feasibility_score, impact, evaluation
FROM policies
WHERE candidate_id = $1
ORDER BY position`
	rows, err := r.DB.QueryContext(ctx, query, candidateID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var policies []Policy
	for rows.Next() {
		var p Policy
		var evaluation []byte
		if err := rows.Scan(&p.Title, &p.Category, &p.Description, &p.FeasibilityScore, &p.Impact, &evaluation); err != nil {
			return nil, err
		}
		if err := json.Unmarshal(evaluation, &p.DetailedEvaluation); err != nil {
			return nil, err
		}
		policies = append(policies, p)
	}
	return policies, rows.Err()
}

// ListCandidates returns candidates ordered by most recent analysis.
func (r *PGRepo) ListCandidates(ctx context.Context, limit, offset int) ([]Candidate, error) {
	if limit <= 0 || limit > 100 {
		limit = 20
	}
	if offset < 0 {
		offset = 0
	}
	const query = `
SELECT id, name, prefecture, election_type, election_date, source_url, last_provider, last_analyzed_at
FROM candidates
ORDER BY last_analyzed_at DESC
LIMIT $1 OFFSET $2`
	rows, err := r.DB.QueryContext(ctx, query, limit, offset)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []Candidate
	for rows.Next() {
		var c Candidate
		var electionType string
		var electionDate time.Time
		if err := rows.Scan(&c.ID, &c.Name, &c.Prefecture, &electionType, &electionDate, &c.SourceURL, &c.LastProvider, &c.LastAnalyzedAt); err != nil {
			return nil, err
		}
		c.ElectionType = ElectionType(electionType)
		c.ElectionDate = electionDate
		out = append(out, c)
	}
	return out, rows.Err()
}

var _ Repo = (*PGRepo)(nil)
