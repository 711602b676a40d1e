package storage

import (
	"context"
	"database/sql"
	"fmt"

	sq "github.com/Masterminds/squirrel"
	"github.com/lib/pq"

	"NewsClassifier/internal/domain"
	"NewsClassifier/internal/ports"
)

// PostgresRepository persists batch runs and their per-article results.
type PostgresRepository struct {
	db      *sql.DB
	builder sq.StatementBuilderType
}

var (
	_ ports.ResultRepository = (*PostgresRepository)(nil)
	_ ports.ProcessedLedger  = (*PostgresRepository)(nil)
)

// NewPostgresRepository wires a sql.DB implementation.
func NewPostgresRepository(db *sql.DB) *PostgresRepository {
	return &PostgresRepository{
		db:      db,
		builder: sq.StatementBuilder.PlaceholderFormat(sq.Dollar),
	}
}

// AlreadyProcessed returns the IDs that were classified successfully by an earlier run.
func (r *PostgresRepository) AlreadyProcessed(ctx context.Context, ids []string) (map[string]bool, error) {
	if r.db == nil || len(ids) == 0 {
		return map[string]bool{}, nil
	}

	query, args, err := r.processedQuery(ids).ToSql()
	if err != nil {
		return nil, fmt.Errorf("build processed query: %w", err)
	}

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query processed: %w", err)
	}

	result := make(map[string]bool)
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			_ = rows.Close()
			return nil, fmt.Errorf("scan id: %w", err)
		}
		result[id] = true
	}

	if rowsErr := rows.Err(); rowsErr != nil {
		_ = rows.Close()
		return nil, fmt.Errorf("rows iteration: %w", rowsErr)
	}

	if closeErr := rows.Close(); closeErr != nil {
		return nil, fmt.Errorf("close rows: %w", closeErr)
	}

	return result, nil
}

// SaveBatch stores the run summary and every result in one transaction.
// Saving the same run twice replaces its rows.
func (r *PostgresRepository) SaveBatch(ctx context.Context, report domain.BatchReport) (err error) {
	if r.db == nil {
		return nil
	}

	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback()
		}
	}()

	query, args, err := r.runUpsert(report).ToSql()
	if err != nil {
		return fmt.Errorf("build run upsert: %w", err)
	}
	if _, err = tx.ExecContext(ctx, query, args...); err != nil {
		return fmt.Errorf("upsert run: %w", err)
	}

	for from := 0; from < len(report.Results); from += rowsPerInsert {
		to := min(from+rowsPerInsert, len(report.Results))
		query, args, err = r.resultsInsert(report, from, to).ToSql()
		if err != nil {
			return fmt.Errorf("build results insert: %w", err)
		}
		if _, err = tx.ExecContext(ctx, query, args...); err != nil {
			return fmt.Errorf("insert results %d-%d: %w", from, to, err)
		}
	}

	if err = tx.Commit(); err != nil {
		return fmt.Errorf("commit: %w", err)
	}
	return nil
}

func (r *PostgresRepository) processedQuery(ids []string) sq.SelectBuilder {
	return r.builder.
		Select("DISTINCT article_id").
		From("classification_results").
		Where(sq.Expr("article_id = ANY(?)", pq.StringArray(ids))).
		Where(sq.Eq{"success": true})
}

func (r *PostgresRepository) runUpsert(report domain.BatchReport) sq.InsertBuilder {
	stats := report.Stats
	return r.builder.
		Insert("classification_runs").
		Columns("run_id", "state", "total", "succeeded", "failed", "validation_failed", "started_at", "finished_at").
		Values(report.RunID, string(report.State), stats.Total, stats.Succeeded, stats.Failed, stats.ValidationFailed, report.StartedAt, report.FinishedAt).
		Suffix(`ON CONFLICT (run_id) DO UPDATE
              SET state = EXCLUDED.state,
                  total = EXCLUDED.total,
                  succeeded = EXCLUDED.succeeded,
                  failed = EXCLUDED.failed,
                  validation_failed = EXCLUDED.validation_failed,
                  finished_at = EXCLUDED.finished_at`)
}

// rowsPerInsert keeps a statement well below the 65535 bind parameter limit.
const rowsPerInsert = 1000

func (r *PostgresRepository) resultsInsert(report domain.BatchReport, from, to int) sq.InsertBuilder {
	insert := r.builder.
		Insert("classification_results").
		Columns("run_id", "position", "article_id", "headline", "published_on", "source", "url",
			"category", "success", "raw_response", "failure", "reason", "processing_ms", "sentiment")

	for i := from; i < to; i++ {
		result := report.Results[i]
		var article domain.Article
		if i < len(report.Articles) {
			article = report.Articles[i]
		}
		insert = insert.Values(
			report.RunID,
			report.Position(i),
			article.ID,
			article.Headline,
			nullDate(article),
			article.Source,
			article.URL,
			string(result.Category),
			result.Success,
			sql.NullString{String: result.RawResponse, Valid: result.Success},
			string(result.Failure),
			result.Reason,
			result.ProcessingTime.Milliseconds(),
			string(result.Sentiment),
		)
	}

	return insert.Suffix(`ON CONFLICT (run_id, position) DO UPDATE
              SET category = EXCLUDED.category,
                  success = EXCLUDED.success,
                  raw_response = EXCLUDED.raw_response,
                  failure = EXCLUDED.failure,
                  reason = EXCLUDED.reason,
                  processing_ms = EXCLUDED.processing_ms,
                  sentiment = EXCLUDED.sentiment`)
}

func nullDate(article domain.Article) sql.NullTime {
	return sql.NullTime{Time: article.Date, Valid: !article.Date.IsZero()}
}
