package parser

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"NewsClassifier/internal/config"
	"NewsClassifier/internal/domain"
	"NewsClassifier/internal/ports"
	"NewsClassifier/internal/scanner"
)

// StrategySource implements ArticleSource via registered scanner strategies.
type StrategySource struct {
	registry *scanner.Registry
	sources  []config.SourceConfig
	logger   *slog.Logger
	now      func() time.Time
}

var _ ports.ArticleSource = (*StrategySource)(nil)

// NewStrategySource wires scanner registry with config-defined sources.
func NewStrategySource(reg *scanner.Registry, sources []config.SourceConfig, log *slog.Logger) *StrategySource {
	return &StrategySource{
		registry: reg,
		sources:  sources,
		logger:   log,
		now:      time.Now,
	}
}

// Fetch iterates over configured sources and executes their scanners in order.
func (s *StrategySource) Fetch(ctx context.Context) ([]domain.Article, error) {
	if s.registry == nil {
		return nil, fmt.Errorf("scanner registry is not configured")
	}

	s.debug("fetch sources", "sources", len(s.sources))

	var aggregated []domain.Article
	for _, src := range s.sources {
		s.debug("process source", "source", src.Name, "scanner", src.Scanner, "location", src.Location)
		strategy, err := s.registry.Resolve(src.Scanner)
		if err != nil {
			return nil, fmt.Errorf("source %s: %w", src.Name, err)
		}

		req := scanner.Request{
			SiteName: src.Name,
			Location: src.Location,
			Options:  src.Options,
		}
		if raw := req.Option("maxAge", ""); raw != "" {
			maxAge, err := time.ParseDuration(raw)
			if err != nil {
				return nil, fmt.Errorf("source %s: invalid maxAge %q: %w", src.Name, raw, err)
			}
			req.Since = s.now().Add(-maxAge)
		}

		results, err := strategy.Scan(ctx, req)
		if err != nil {
			return nil, fmt.Errorf("scan source %s: %w", src.Name, err)
		}

		for i := range results {
			if results[i].Source == "" {
				results[i].Source = src.Name
			}
		}
		s.debug("source produced articles", "source", src.Name, "count", len(results))
		aggregated = append(aggregated, results...)
	}

	s.debug("strategy source done", "total_articles", len(aggregated))
	return aggregated, nil
}

func (s *StrategySource) debug(msg string, args ...interface{}) {
	if s.logger != nil {
		s.logger.Debug(msg, args...)
	}
}
