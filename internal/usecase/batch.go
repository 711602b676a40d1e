package usecase

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	"NewsClassifier/internal/config"
	"NewsClassifier/internal/domain"
	"NewsClassifier/internal/ports"
)

// Orchestrator classifies a batch of articles with pacing, per-item isolation and
// cooperative cancellation.
type Orchestrator struct {
	classifier ports.Classifier
	sentiment  ports.SentimentAnalyzer
	interval   time.Duration
	workers    int
	observer   ports.BatchObserver
	logger     *slog.Logger

	now   func() time.Time
	sleep func(context.Context, time.Duration) error
	newID func() string
}

// OrchestratorOption adjusts an Orchestrator at construction.
type OrchestratorOption func(*Orchestrator)

// WithSentiment adds a paced tone call after every successful classification.
// A nil analyzer leaves sentiment off.
func WithSentiment(analyzer ports.SentimentAnalyzer) OrchestratorOption {
	return func(o *Orchestrator) {
		o.sentiment = analyzer
	}
}

// NewOrchestrator builds an orchestrator. A nil observer discards events.
func NewOrchestrator(classifier ports.Classifier, cfg config.BatchConfig, observer ports.BatchObserver, log *slog.Logger, opts ...OrchestratorOption) *Orchestrator {
	if classifier == nil {
		panic("usecase: nil classifier")
	}
	workers := cfg.Workers
	if workers < 1 {
		workers = 1
	}
	if observer == nil {
		observer = Observers(nil)
	}
	o := &Orchestrator{
		classifier: classifier,
		interval:   cfg.MinCallInterval,
		workers:    workers,
		observer:   observer,
		logger:     log,
		now:        time.Now,
		sleep:      sleepContext,
		newID:      uuid.NewString,
	}
	for _, apply := range opts {
		apply(o)
	}
	return o
}

type itemOutcome struct {
	result domain.ClassificationResult
	done   bool
}

// Run processes articles and always returns a report. Cancelling ctx stops new
// calls; the report then holds what finished, in input order.
func (o *Orchestrator) Run(ctx context.Context, articles []domain.Article) domain.BatchReport {
	report := domain.BatchReport{
		RunID:     o.newID(),
		State:     domain.BatchCompleted,
		StartedAt: o.now(),
		Stats:     domain.NewBatchStatistics(),
	}
	o.debug("batch started", "run_id", report.RunID, "articles", len(articles), "workers", o.workers)

	gate := newPacer(o.interval, o.now, o.sleep)
	outcomes := make([]itemOutcome, len(articles))
	if o.workers == 1 || len(articles) < 2 {
		o.runSequential(ctx, gate, articles, outcomes)
	} else {
		o.runPool(ctx, gate, articles, outcomes)
	}

	for i, outcome := range outcomes {
		if !outcome.done {
			report.State = domain.BatchCancelled
			continue
		}
		report.Articles = append(report.Articles, articles[i])
		report.Results = append(report.Results, outcome.result)
		report.Positions = append(report.Positions, i)
		report.Stats.Record(outcome.result)
	}
	report.FinishedAt = o.now()

	o.observer.BatchDone(report)
	return report
}

func (o *Orchestrator) runSequential(ctx context.Context, gate *pacer, articles []domain.Article, outcomes []itemOutcome) {
	for i, article := range articles {
		if ctx.Err() != nil {
			return
		}
		result, ok := o.process(ctx, gate, article)
		if !ok {
			return
		}
		outcomes[i] = itemOutcome{result: result, done: true}
		o.observer.ItemDone(i, article, result)
	}
}

func (o *Orchestrator) runPool(ctx context.Context, gate *pacer, articles []domain.Article, outcomes []itemOutcome) {
	var (
		g  errgroup.Group
		mu sync.Mutex
	)
	g.SetLimit(o.workers)

	for i, article := range articles {
		if ctx.Err() != nil {
			break
		}
		g.Go(func() error {
			if ctx.Err() != nil {
				return nil
			}
			result, ok := o.process(ctx, gate, article)
			if !ok {
				return nil
			}
			// each index is written by exactly one worker
			outcomes[i] = itemOutcome{result: result, done: true}

			mu.Lock()
			o.observer.ItemDone(i, article, result)
			mu.Unlock()
			return nil
		})
	}
	_ = g.Wait()
}

// process runs one item. ok is false when the batch was cancelled before the call started.
func (o *Orchestrator) process(ctx context.Context, gate *pacer, article domain.Article) (domain.ClassificationResult, bool) {
	if err := article.Validate(); err != nil {
		o.debug("article rejected", "headline", article.Headline, "error", err)
		return domain.Failed(domain.FailureValidation, err.Error(), 0), true
	}

	if err := gate.Wait(ctx); err != nil {
		return domain.ClassificationResult{}, false
	}
	result := o.classifier.Classify(context.WithoutCancel(ctx), article.Body)
	gate.Done()

	if o.sentiment != nil && result.Success {
		result.Sentiment = o.analyzeSentiment(ctx, gate, article)
	}
	return result, true
}

// analyzeSentiment makes the tone call through the same gate as classification.
// Cancellation or a gateway failure leaves the tone unanalysed; the category
// result stands either way.
func (o *Orchestrator) analyzeSentiment(ctx context.Context, gate *pacer, article domain.Article) domain.Sentiment {
	if err := gate.Wait(ctx); err != nil {
		return ""
	}
	sentiment, err := o.sentiment.AnalyzeSentiment(context.WithoutCancel(ctx), article.Body)
	gate.Done()

	if err != nil {
		o.debug("sentiment not analysed", "headline", article.Headline, "error", err)
		return ""
	}
	return sentiment
}

func (o *Orchestrator) debug(msg string, args ...interface{}) {
	if o.logger == nil {
		return
	}
	o.logger.Debug(msg, args...)
}
