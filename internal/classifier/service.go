package classifier

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"NewsClassifier/internal/domain"
	"NewsClassifier/internal/ports"
)

// Service composes prompt building, the model gateway and normalization into a
// single classification of one article body.
type Service struct {
	gateway ports.ModelGateway
	options ports.GenerateOptions
	logger  *slog.Logger
	now     func() time.Time
}

var (
	_ ports.Classifier        = (*Service)(nil)
	_ ports.SentimentAnalyzer = (*Service)(nil)
)

// NewService wires the gateway. A nil gateway is a wiring bug and panics.
func NewService(gateway ports.ModelGateway, opts ports.GenerateOptions, log *slog.Logger) *Service {
	if gateway == nil {
		panic("classifier: nil model gateway")
	}
	return &Service{
		gateway: gateway,
		options: opts,
		logger:  log,
		now:     time.Now,
	}
}

// Classify never returns an error: gateway failures become an unsuccessful
// result in the others category.
func (s *Service) Classify(ctx context.Context, text string) domain.ClassificationResult {
	prompt := BuildPrompt(text)

	started := s.now()
	raw, err := s.gateway.Call(ctx, prompt, s.options)
	elapsed := s.now().Sub(started)

	if err != nil {
		s.debug("classification failed", "error", err, "elapsed", elapsed)
		return domain.Failed(domain.FailureGateway, err.Error(), elapsed)
	}

	category := Normalize(raw)
	s.debug("classified", "category", category, "raw", raw, "elapsed", elapsed)

	return domain.ClassificationResult{
		Category:       category,
		Success:        true,
		RawResponse:    raw,
		ProcessingTime: elapsed,
	}
}

// AnalyzeSentiment asks the model for the article's tone. Only gateway errors
// fail; any answer normalizes to a sentiment.
func (s *Service) AnalyzeSentiment(ctx context.Context, text string) (domain.Sentiment, error) {
	raw, err := s.gateway.Call(ctx, BuildSentimentPrompt(text), s.options)
	if err != nil {
		return "", fmt.Errorf("sentiment: %w", err)
	}
	sentiment := NormalizeSentiment(raw)
	s.debug("sentiment analysed", "sentiment", sentiment, "raw", raw)
	return sentiment, nil
}

func (s *Service) debug(msg string, args ...interface{}) {
	if s.logger != nil {
		s.logger.Debug(msg, args...)
	}
}
