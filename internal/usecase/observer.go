package usecase

import (
	"fmt"
	"log/slog"
	"strings"

	"NewsClassifier/internal/domain"
	"NewsClassifier/internal/ports"
)

// Observers fans events out to every member in order.
type Observers []ports.BatchObserver

var _ ports.BatchObserver = Observers(nil)

// ItemDone forwards the item event.
func (o Observers) ItemDone(index int, article domain.Article, result domain.ClassificationResult) {
	for _, obs := range o {
		if obs != nil {
			obs.ItemDone(index, article, result)
		}
	}
}

// BatchDone forwards the batch event.
func (o Observers) BatchDone(report domain.BatchReport) {
	for _, obs := range o {
		if obs != nil {
			obs.BatchDone(report)
		}
	}
}

// LogObserver writes per-item lines and the batch statistics to slog.
type LogObserver struct {
	logger *slog.Logger
}

var _ ports.BatchObserver = (*LogObserver)(nil)

// NewLogObserver scopes the logger to the batch component.
func NewLogObserver(log *slog.Logger) *LogObserver {
	if log == nil {
		log = slog.Default()
	}
	return &LogObserver{logger: log.With("component", "batch")}
}

// ItemDone logs a single classification.
func (l *LogObserver) ItemDone(index int, article domain.Article, result domain.ClassificationResult) {
	args := []any{
		"index", index,
		"headline", article.Headline,
		"category", result.Category,
		"elapsed", result.ProcessingTime,
	}
	if result.Success {
		l.logger.Info("article classified", args...)
		return
	}
	args = append(args, "failure", result.Failure, "reason", result.Reason)
	l.logger.Warn("article not classified", args...)
}

// BatchDone logs the run summary, the category distribution and, when tones were
// analysed, the sentiment distribution overall and per category.
func (l *LogObserver) BatchDone(report domain.BatchReport) {
	stats := report.Stats
	l.logger.Info("batch finished",
		"run_id", report.RunID,
		"state", report.State,
		"total", stats.Total,
		"succeeded", stats.Succeeded,
		"failed", stats.Failed,
		"validation_failed", stats.ValidationFailed,
		"success_rate", fmt.Sprintf("%.2f%%", stats.SuccessRate()*100),
		"duration", report.FinishedAt.Sub(report.StartedAt),
	)
	for _, share := range stats.Distribution() {
		l.logger.Info("category distribution",
			"run_id", report.RunID,
			"category", share.Category,
			"count", share.Count,
			"percent", fmt.Sprintf("%.2f%%", share.Percent),
		)
	}
	if stats.SentimentAnalyzed == 0 {
		return
	}
	for _, share := range stats.SentimentDistribution() {
		l.logger.Info("sentiment distribution",
			"run_id", report.RunID,
			"sentiment", share.Sentiment,
			"count", share.Count,
			"percent", fmt.Sprintf("%.2f%%", share.Percent),
		)
	}
	for _, category := range stats.Distribution() {
		for _, share := range stats.SentimentBreakdown(category.Category) {
			l.logger.Info("category sentiment",
				"run_id", report.RunID,
				"category", category.Category,
				"sentiment", share.Sentiment,
				"count", share.Count,
				"percent", fmt.Sprintf("%.2f%%", share.Percent),
			)
		}
	}
}

// FormatDigest renders batch statistics as a short plain-text message.
func FormatDigest(stats domain.BatchStatistics) string {
	if stats.Total == 0 {
		return ""
	}

	var b strings.Builder
	fmt.Fprintf(&b, "Classified %d articles: %d ok, %d failed (%d invalid), success rate %.2f%%\n",
		stats.Total, stats.Succeeded, stats.Failed, stats.ValidationFailed, stats.SuccessRate()*100)
	for _, share := range stats.Distribution() {
		fmt.Fprintf(&b, "- %s: %d (%.2f%%)\n", share.Category.Label(), share.Count, share.Percent)
	}
	if tones := stats.SentimentDistribution(); len(tones) > 0 {
		b.WriteString("Sentiment:")
		for i, share := range tones {
			sep := ","
			if i == 0 {
				sep = ""
			}
			fmt.Fprintf(&b, "%s %s %d (%.2f%%)", sep, share.Sentiment, share.Count, share.Percent)
		}
		b.WriteString("\n")
	}
	return b.String()
}
