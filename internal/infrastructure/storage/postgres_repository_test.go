package storage

import (
	"context"
	"database/sql"
	"os"
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"

	"NewsClassifier/internal/domain"
)

func sampleReport() domain.BatchReport {
	start := time.Date(2024, 3, 1, 9, 0, 0, 0, time.UTC)
	articles := []domain.Article{
		{ID: "a-1", Headline: "Bank profits", Date: start, Body: "text", Source: "csv"},
		{ID: "a-2", Headline: "No body"},
	}
	results := []domain.ClassificationResult{
		{Category: domain.CategoryBanking, Success: true, RawResponse: "4", ProcessingTime: 1500 * time.Millisecond, Sentiment: domain.SentimentPositive},
		domain.Failed(domain.FailureValidation, "missing body", 0),
	}
	stats := domain.NewBatchStatistics()
	for _, r := range results {
		stats.Record(r)
	}
	return domain.BatchReport{
		RunID:      uuid.NewString(),
		State:      domain.BatchCompleted,
		Articles:   articles,
		Results:    results,
		Stats:      stats,
		StartedAt:  start,
		FinishedAt: start.Add(3 * time.Second),
	}
}

func TestResultsInsertSQL(t *testing.T) {
	t.Parallel()

	repo := NewPostgresRepository(nil)
	report := sampleReport()

	query, args, err := repo.resultsInsert(report, 0, len(report.Results)).ToSql()
	if err != nil {
		t.Fatalf("ToSql: %v", err)
	}
	if !strings.HasPrefix(query, "INSERT INTO classification_results (run_id,position,article_id") {
		t.Fatalf("unexpected query: %s", query)
	}
	if !strings.Contains(query, "$28") || strings.Contains(query, "$29") {
		t.Fatalf("expected 28 dollar placeholders: %s", query)
	}
	if len(args) != 28 {
		t.Fatalf("expected 28 args, got %d", len(args))
	}

	if raw := args[9].(sql.NullString); !raw.Valid || raw.String != "4" {
		t.Fatalf("raw response should be stored: %+v", raw)
	}
	if raw := args[14+9].(sql.NullString); raw.Valid {
		t.Fatalf("absent raw response must be NULL: %+v", raw)
	}
	if date := args[14+4].(sql.NullTime); date.Valid {
		t.Fatalf("missing date must be NULL: %+v", date)
	}
	if ms := args[12].(int64); ms != 1500 {
		t.Fatalf("expected 1500ms, got %d", ms)
	}
	if tone := args[13].(string); tone != "positive" {
		t.Fatalf("expected sentiment column, got %q", tone)
	}
	if tone := args[14+13].(string); tone != "" {
		t.Fatalf("unanalysed sentiment should be empty, got %q", tone)
	}
}

func TestResultsInsertKeepsInputPositions(t *testing.T) {
	t.Parallel()

	report := sampleReport()
	report.Positions = []int{0, 3}

	_, args, err := NewPostgresRepository(nil).resultsInsert(report, 0, len(report.Results)).ToSql()
	if err != nil {
		t.Fatalf("ToSql: %v", err)
	}
	if first, second := args[1].(int), args[14+1].(int); first != 0 || second != 3 {
		t.Fatalf("expected input positions 0 and 3, got %d and %d", first, second)
	}
}

func TestResultsInsertStoresEmptySuccessfulAnswer(t *testing.T) {
	t.Parallel()

	report := sampleReport()
	report.Results[0].RawResponse = ""

	_, args, err := NewPostgresRepository(nil).resultsInsert(report, 0, 1).ToSql()
	if err != nil {
		t.Fatalf("ToSql: %v", err)
	}
	if raw := args[9].(sql.NullString); !raw.Valid || raw.String != "" {
		t.Fatalf("empty answer of a successful call must not be NULL: %+v", raw)
	}
}

func TestProcessedQuerySQL(t *testing.T) {
	t.Parallel()

	query, args, err := NewPostgresRepository(nil).processedQuery([]string{"a", "b"}).ToSql()
	if err != nil {
		t.Fatalf("ToSql: %v", err)
	}
	want := "SELECT DISTINCT article_id FROM classification_results WHERE article_id = ANY($1) AND success = $2"
	if query != want {
		t.Fatalf("unexpected query:\n got %s\nwant %s", query, want)
	}
	if len(args) != 2 {
		t.Fatalf("unexpected args %v", args)
	}
}

func TestNilDatabaseIsNoop(t *testing.T) {
	t.Parallel()

	repo := NewPostgresRepository(nil)
	if err := repo.SaveBatch(context.Background(), sampleReport()); err != nil {
		t.Fatalf("SaveBatch: %v", err)
	}
	seen, err := repo.AlreadyProcessed(context.Background(), []string{"a"})
	if err != nil || len(seen) != 0 {
		t.Fatalf("unexpected %v %v", seen, err)
	}
}

func TestPostgresRepositoryRoundTrip(t *testing.T) {
	dsn := os.Getenv("NEWS_CLASSIFIER_TEST_DSN")
	if dsn == "" {
		t.Skip("NEWS_CLASSIFIER_TEST_DSN not set")
	}

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	db, err := Open(ctx, dsn)
	if err != nil {
		t.Skipf("postgres unavailable: %v", err)
	}
	defer db.Close()

	if err := Migrate(ctx, db); err != nil {
		t.Fatalf("migrate: %v", err)
	}

	repo := NewPostgresRepository(db)
	report := sampleReport()
	report.Articles[0].ID = "roundtrip-" + report.RunID
	report.Articles[1].ID = "roundtrip-invalid-" + report.RunID

	if err := repo.SaveBatch(ctx, report); err != nil {
		t.Fatalf("save: %v", err)
	}
	// saving twice replaces rows
	if err := repo.SaveBatch(ctx, report); err != nil {
		t.Fatalf("save again: %v", err)
	}

	var count int
	if err := db.QueryRowContext(ctx, `SELECT COUNT(*) FROM classification_results WHERE run_id = $1`, report.RunID).Scan(&count); err != nil {
		t.Fatalf("count: %v", err)
	}
	if count != 2 {
		t.Fatalf("expected 2 rows, got %d", count)
	}

	seen, err := repo.AlreadyProcessed(ctx, []string{report.Articles[0].ID, report.Articles[1].ID})
	if err != nil {
		t.Fatalf("already processed: %v", err)
	}
	if !seen[report.Articles[0].ID] || seen[report.Articles[1].ID] {
		t.Fatalf("only successful results count as processed: %v", seen)
	}
}
