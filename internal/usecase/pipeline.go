package usecase

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"NewsClassifier/internal/domain"
	"NewsClassifier/internal/ports"
)

// PipelineDeps wires all driven adapters into the classification pipeline.
type PipelineDeps struct {
	Source       ports.ArticleSource
	Orchestrator *Orchestrator
	Repositories []ports.ResultRepository
	Ledger       ports.ProcessedLedger
	Notifier     ports.Notifier
	ChunkSize    int
	Logger       *slog.Logger
}

// Pipeline fetches articles, classifies them chunk by chunk and persists each chunk
// as soon as it finishes.
type Pipeline struct {
	source       ports.ArticleSource
	orchestrator *Orchestrator
	repositories []ports.ResultRepository
	ledger       ports.ProcessedLedger
	notifier     ports.Notifier
	chunkSize    int
	logger       *slog.Logger
}

// Summary aggregates every chunk of one pipeline run.
type Summary struct {
	Reports []domain.BatchReport
	Stats   domain.BatchStatistics
}

// Cancelled reports whether any chunk stopped early.
func (s Summary) Cancelled() bool {
	for _, r := range s.Reports {
		if r.State == domain.BatchCancelled {
			return true
		}
	}
	return false
}

// NewPipeline constructs the orchestration component.
func NewPipeline(deps PipelineDeps) *Pipeline {
	if deps.Orchestrator == nil {
		panic("usecase: nil orchestrator")
	}
	return &Pipeline{
		source:       deps.Source,
		orchestrator: deps.Orchestrator,
		repositories: deps.Repositories,
		ledger:       deps.Ledger,
		notifier:     deps.Notifier,
		chunkSize:    deps.ChunkSize,
		logger:       deps.Logger,
	}
}

// Process runs one pass over the source.
func (p *Pipeline) Process(ctx context.Context) (Summary, error) {
	summary := Summary{Stats: domain.NewBatchStatistics()}
	if p.source == nil {
		return summary, nil
	}

	articles, err := p.source.Fetch(ctx)
	if err != nil {
		return summary, fmt.Errorf("fetch articles: %w", err)
	}
	if articles, err = p.skipProcessed(ctx, articles); err != nil {
		return summary, err
	}
	if len(articles) == 0 {
		p.info("no articles to classify")
		return summary, nil
	}

	var saveErrs []error
	for _, chunk := range chunkArticles(articles, p.chunkSize) {
		report := p.orchestrator.Run(ctx, chunk)
		summary.Reports = append(summary.Reports, report)
		for _, result := range report.Results {
			summary.Stats.Record(result)
		}

		// persistence is not cancelled with the batch so finished work is kept
		if err := p.save(context.WithoutCancel(ctx), report); err != nil {
			saveErrs = append(saveErrs, err)
		}
		if report.State == domain.BatchCancelled {
			break
		}
	}
	if err := errors.Join(saveErrs...); err != nil {
		return summary, err
	}

	if p.notifier == nil || summary.Cancelled() {
		return summary, nil
	}
	if message := FormatDigest(summary.Stats); message != "" {
		if err := p.notifier.PublishDigest(ctx, message); err != nil {
			return summary, fmt.Errorf("publish digest: %w", err)
		}
	}
	return summary, nil
}

// skipProcessed drops articles with an ID the ledger already holds. Articles without ID are kept.
func (p *Pipeline) skipProcessed(ctx context.Context, articles []domain.Article) ([]domain.Article, error) {
	if p.ledger == nil {
		return articles, nil
	}

	ids := make([]string, 0, len(articles))
	for _, art := range articles {
		if art.ID != "" {
			ids = append(ids, art.ID)
		}
	}
	if len(ids) == 0 {
		return articles, nil
	}

	skip, err := p.ledger.AlreadyProcessed(ctx, ids)
	if err != nil {
		return nil, fmt.Errorf("load processed: %w", err)
	}

	fresh := articles[:0:0]
	for _, art := range articles {
		if art.ID != "" && skip[art.ID] {
			continue
		}
		fresh = append(fresh, art)
	}
	if skipped := len(articles) - len(fresh); skipped > 0 {
		p.info("skipping already classified articles", "skipped", skipped)
	}
	return fresh, nil
}

func (p *Pipeline) save(ctx context.Context, report domain.BatchReport) error {
	if len(report.Results) == 0 {
		return nil
	}
	var errs []error
	for _, repo := range p.repositories {
		if repo == nil {
			continue
		}
		if err := repo.SaveBatch(ctx, report); err != nil {
			errs = append(errs, fmt.Errorf("save run %s: %w", report.RunID, err))
		}
	}
	return errors.Join(errs...)
}

func (p *Pipeline) info(msg string, args ...interface{}) {
	if p.logger == nil {
		return
	}
	p.logger.Info(msg, args...)
}

func chunkArticles(articles []domain.Article, size int) [][]domain.Article {
	if size <= 0 || size >= len(articles) {
		return [][]domain.Article{articles}
	}
	chunks := make([][]domain.Article, 0, (len(articles)+size-1)/size)
	for start := 0; start < len(articles); start += size {
		end := min(start+size, len(articles))
		chunks = append(chunks, articles[start:end])
	}
	return chunks
}
