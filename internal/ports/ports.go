package ports

import (
	"context"
	"time"

	"NewsClassifier/internal/domain"
)

// GenerateOptions tunes a single generation request.
type GenerateOptions struct {
	Temperature float64
	TopP        float64
	MaxTokens   int
	Timeout     time.Duration
}

// Completer performs exactly one request/response round trip to a model endpoint.
type Completer interface {
	Complete(ctx context.Context, prompt string, opts GenerateOptions) (string, error)
	Name() string
}

// ModelGateway returns the raw model answer for a prompt, retrying transient failures.
type ModelGateway interface {
	Call(ctx context.Context, prompt string, opts GenerateOptions) (string, error)
}

// Classifier turns article text into a classification result.
type Classifier interface {
	Classify(ctx context.Context, text string) domain.ClassificationResult
}

// SentimentAnalyzer reads the market tone of article text.
type SentimentAnalyzer interface {
	AnalyzeSentiment(ctx context.Context, text string) (domain.Sentiment, error)
}

// ArticleSource pulls articles to classify from upstream inputs.
type ArticleSource interface {
	Fetch(ctx context.Context) ([]domain.Article, error)
}

// ResultRepository persists a finished batch.
type ResultRepository interface {
	SaveBatch(ctx context.Context, report domain.BatchReport) error
}

// ProcessedLedger answers which article IDs were already classified by earlier runs.
type ProcessedLedger interface {
	AlreadyProcessed(ctx context.Context, ids []string) (map[string]bool, error)
}

// BatchObserver receives orchestration events. Implementations must not block for long;
// they run on the orchestrator's goroutine.
type BatchObserver interface {
	ItemDone(index int, article domain.Article, result domain.ClassificationResult)
	BatchDone(report domain.BatchReport)
}

// Notifier streams batch digests to Telegram or other channels.
type Notifier interface {
	PublishDigest(ctx context.Context, digest string) error
}

// Scheduler controls when pipelines execute.
type Scheduler interface {
	Start(ctx context.Context, job func(time.Time)) error
	Stop(ctx context.Context) error
}
