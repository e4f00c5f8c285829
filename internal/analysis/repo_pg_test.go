package analysis

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
)

func sampleResult() *Result {
	return &Result{
		CandidateID:   "東京都-山田太郎",
		CandidateName: "山田太郎",
		Policies: []Policy{{
			Title:            "子育て支援の拡充",
			Category:         "教育・子育て",
			Description:      "保育所の増設",
			FeasibilityScore: 72,
			Impact:           ImpactHigh,
		}},
		Metadata: Metadata{
			Provider:         "gemini",
			AnalyzedAt:       time.Date(2026, 8, 30, 12, 0, 0, 0, time.UTC),
			ProcessingTimeMs: 4200,
			ContentLength:    1234,
			SourceURL:        "https://example.com/manifesto",
		},
	}
}

func TestPGRepoSaveResultIsTransactional(t *testing.T) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock.New: %v", err)
	}
	t.Cleanup(func() { _ = db.Close() })

	repo := &PGRepo{DB: db}
	req := validRequest()
	result := sampleResult()

	mock.ExpectBegin()
	mock.ExpectExec("INSERT INTO candidates").
		WithArgs(
			result.CandidateID,
			result.CandidateName,
			req.Prefecture,
			string(req.ElectionType),
			req.ElectionDate,
			result.Metadata.SourceURL,
			result.Metadata.Provider,
			result.Metadata.AnalyzedAt,
		).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec("DELETE FROM policies").
		WithArgs(result.CandidateID).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec("INSERT INTO policies").
		WithArgs(
			sqlmock.AnyArg(), // generated policy id
			result.CandidateID,
			result.Policies[0].Title,
			result.Policies[0].Category,
			result.Policies[0].Description,
			result.Policies[0].FeasibilityScore,
			result.Policies[0].Impact,
			sqlmock.AnyArg(), // evaluation jsonb
			0,
		).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec("INSERT INTO analysis_logs").
		WithArgs(
			sqlmock.AnyArg(), // generated log id
			result.CandidateID,
			"user-1",
			result.Metadata.Provider,
			result.Metadata.SourceURL,
			result.Metadata.ContentLength,
			result.Metadata.ProcessingTimeMs,
			1,
			result.Metadata.AnalyzedAt,
		).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectCommit()

	if err := repo.SaveResult(context.Background(), req, result, "user-1"); err != nil {
		t.Fatalf("SaveResult: %v", err)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("ExpectationsWereMet: %v", err)
	}
}

func TestPGRepoSaveResultRollsBackOnFailure(t *testing.T) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock.New: %v", err)
	}
	t.Cleanup(func() { _ = db.Close() })

	repo := &PGRepo{DB: db}
	req := validRequest()
	result := sampleResult()

	mock.ExpectBegin()
	mock.ExpectExec("INSERT INTO candidates").
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec("DELETE FROM policies").
		WillReturnError(errors.New("connection reset"))
	mock.ExpectRollback()

	if err := repo.SaveResult(context.Background(), req, result, "user-1"); err == nil {
		t.Fatal("expected error")
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("ExpectationsWereMet: %v", err)
	}
}

func TestPGRepoGetCandidate(t *testing.T) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock.New: %v", err)
	}
	t.Cleanup(func() { _ = db.Close() })

	repo := &PGRepo{DB: db}
	analyzedAt := time.Date(2026, 8, 30, 12, 0, 0, 0, time.UTC)

	mock.ExpectQuery("SELECT id, name, prefecture").
		WithArgs("東京都-山田太郎").
		WillReturnRows(sqlmock.NewRows([]string{
			"id", "name", "prefecture", "election_type", "election_date", "source_url", "last_provider", "last_analyzed_at",
		}).AddRow(
			"東京都-山田太郎", "山田太郎", "東京都", "shugiin",
			time.Date(2026, 10, 25, 0, 0, 0, 0, time.UTC),
			"https://example.com/manifesto", "gemini", analyzedAt,
		))
	mock.ExpectQuery(`FROM policies(?s).*ORDER BY position`).
		WithArgs("東京都-山田太郎").
		WillReturnRows(sqlmock.NewRows([]string{
			"title", "category", "description", "feasibility_score", "impact", "evaluation",
		}).AddRow(
			"子育て支援の拡充", "教育・子育て", "保育所の増設", 72, "high", []byte(`{}`),
		))

	candidate, err := repo.GetCandidate(context.Background(), "東京都-山田太郎")
	if err != nil {
		t.Fatalf("GetCandidate: %v", err)
	}
	if candidate.Name != "山田太郎" || candidate.ElectionType != ElectionShugiin {
		t.Fatalf("unexpected candidate: %+v", candidate)
	}
	if len(candidate.Policies) != 1 || candidate.Policies[0].FeasibilityScore != 72 {
		t.Fatalf("unexpected policies: %+v", candidate.Policies)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("ExpectationsWereMet: %v", err)
	}
}

func TestPGRepoSaveResultNumbersPolicies(t *testing.T) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock.New: %v", err)
	}
	t.Cleanup(func() { _ = db.Close() })

	repo := &PGRepo{DB: db}
	req := validRequest()
	result := sampleResult()
	result.Policies = append(result.Policies, Policy{
		Title:            "行政手続きのデジタル化",
		Category:         "行政改革",
		Description:      "申請手続きのオンライン化",
		FeasibilityScore: 60,
		Impact:           ImpactMedium,
	})

	mock.ExpectBegin()
	mock.ExpectExec("INSERT INTO candidates").
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec("DELETE FROM policies").
		WillReturnResult(sqlmock.NewResult(0, 1))
	// Positions follow the validated order so read-back is deterministic.
	for i := range result.Policies {
		mock.ExpectExec("INSERT INTO policies").
			WithArgs(
				sqlmock.AnyArg(),
				result.CandidateID,
				result.Policies[i].Title,
				result.Policies[i].Category,
				result.Policies[i].Description,
				result.Policies[i].FeasibilityScore,
				result.Policies[i].Impact,
				sqlmock.AnyArg(),
				i,
			).
			WillReturnResult(sqlmock.NewResult(0, 1))
	}
	mock.ExpectExec("INSERT INTO analysis_logs").
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectCommit()

	if err := repo.SaveResult(context.Background(), req, result, "user-1"); err != nil {
		t.Fatalf("SaveResult: %v", err)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("ExpectationsWereMet: %v", err)
	}
}

func TestPGRepoGetCandidateNotFound(t *testing.T) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock.New: %v", err)
	}
	t.Cleanup(func() { _ = db.Close() })

	repo := &PGRepo{DB: db}
	mock.ExpectQuery("SELECT id, name, prefecture").
		WithArgs("unknown").
		WillReturnRows(sqlmock.NewRows([]string{
			"id", "name", "prefecture", "election_type", "election_date", "source_url", "last_provider", "last_analyzed_at",
		}))

	if _, err := repo.GetCandidate(context.Background(), "unknown"); !errors.Is(err, ErrCandidateNotFound) {
		t.Fatalf("err = %v, want ErrCandidateNotFound", err)
	}
}
