package domain

import (
	"sort"
	"time"
)

// FailureKind tells why an item did not produce a model-backed category.
type FailureKind string

const (
	FailureNone       FailureKind = ""
	FailureValidation FailureKind = "validation"
	FailureGateway    FailureKind = "gateway"
)

// ClassificationResult is created once per article and never mutated afterwards.
// RawResponse is only meaningful when Success is true; a successful call may
// still have returned an empty answer. Sentiment is empty unless the tone was
// analysed.
type ClassificationResult struct {
	Category       Category
	Success        bool
	RawResponse    string
	ProcessingTime time.Duration
	Failure        FailureKind
	Reason         string
	Sentiment      Sentiment
}

// Failed builds a result for an item that could not be classified.
func Failed(kind FailureKind, reason string, elapsed time.Duration) ClassificationResult {
	return ClassificationResult{
		Category:       CategoryOthers,
		Success:        false,
		ProcessingTime: elapsed,
		Failure:        kind,
		Reason:         reason,
	}
}

// BatchStatistics aggregates results of one batch run.
type BatchStatistics struct {
	Total            int
	Succeeded        int
	Failed           int
	ValidationFailed int
	PerCategory      map[Category]int

	// Sentiment counters only cover results whose tone was analysed.
	SentimentAnalyzed    int
	PerSentiment         map[Sentiment]int
	PerCategorySentiment map[Category]map[Sentiment]int
}

// NewBatchStatistics returns statistics with every category and sentiment present at zero.
func NewBatchStatistics() BatchStatistics {
	per := make(map[Category]int, len(categoryOrder))
	for _, c := range categoryOrder {
		per[c] = 0
	}
	tones := make(map[Sentiment]int, len(sentimentOrder))
	for _, s := range sentimentOrder {
		tones[s] = 0
	}
	return BatchStatistics{
		PerCategory:          per,
		PerSentiment:         tones,
		PerCategorySentiment: make(map[Category]map[Sentiment]int),
	}
}

// Record folds a single result into the counters.
func (s *BatchStatistics) Record(result ClassificationResult) {
	if s.PerCategory == nil {
		*s = NewBatchStatistics()
	}
	s.Total++
	if result.Success {
		s.Succeeded++
	} else {
		s.Failed++
		if result.Failure == FailureValidation {
			s.ValidationFailed++
		}
	}
	s.PerCategory[result.Category]++

	if result.Sentiment == "" {
		return
	}
	if s.PerSentiment == nil {
		s.PerSentiment = make(map[Sentiment]int)
	}
	if s.PerCategorySentiment == nil {
		s.PerCategorySentiment = make(map[Category]map[Sentiment]int)
	}
	s.SentimentAnalyzed++
	s.PerSentiment[result.Sentiment]++
	tones := s.PerCategorySentiment[result.Category]
	if tones == nil {
		tones = make(map[Sentiment]int)
		s.PerCategorySentiment[result.Category] = tones
	}
	tones[result.Sentiment]++
}

// SuccessRate is Succeeded/Total, or zero for an empty batch.
func (s BatchStatistics) SuccessRate() float64 {
	if s.Total == 0 {
		return 0
	}
	return float64(s.Succeeded) / float64(s.Total)
}

// CategoryShare is one row of the category distribution.
type CategoryShare struct {
	Category Category
	Count    int
	Percent  float64
}

// Distribution lists non-empty categories by descending count, ties in canonical order.
func (s BatchStatistics) Distribution() []CategoryShare {
	shares := make([]CategoryShare, 0, len(s.PerCategory))
	for _, c := range categoryOrder {
		count := s.PerCategory[c]
		if count == 0 {
			continue
		}
		percent := 0.0
		if s.Total > 0 {
			percent = float64(count) / float64(s.Total) * 100
		}
		shares = append(shares, CategoryShare{Category: c, Count: count, Percent: percent})
	}
	sort.SliceStable(shares, func(i, j int) bool {
		return shares[i].Count > shares[j].Count
	})
	return shares
}

// SentimentShare is one row of a sentiment distribution.
type SentimentShare struct {
	Sentiment Sentiment
	Count     int
	Percent   float64
}

// SentimentDistribution lists non-empty sentiments over all analysed results.
func (s BatchStatistics) SentimentDistribution() []SentimentShare {
	return sentimentShares(s.PerSentiment, s.SentimentAnalyzed)
}

// SentimentBreakdown lists the sentiments analysed within one category, as a
// share of that category's analysed results.
func (s BatchStatistics) SentimentBreakdown(c Category) []SentimentShare {
	tones := s.PerCategorySentiment[c]
	total := 0
	for _, n := range tones {
		total += n
	}
	return sentimentShares(tones, total)
}

func sentimentShares(counts map[Sentiment]int, total int) []SentimentShare {
	var shares []SentimentShare
	for _, tone := range sentimentOrder {
		count := counts[tone]
		if count == 0 {
			continue
		}
		shares = append(shares, SentimentShare{
			Sentiment: tone,
			Count:     count,
			Percent:   float64(count) / float64(total) * 100,
		})
	}
	sort.SliceStable(shares, func(i, j int) bool {
		return shares[i].Count > shares[j].Count
	})
	return shares
}

// BatchState is the terminal state of a batch run.
type BatchState string

const (
	BatchCompleted BatchState = "completed"
	BatchCancelled BatchState = "cancelled"
)

// BatchReport is everything a batch run hands back to its caller.
// Results follow input order; a cancelled run holds only the processed prefix
// (or, with a worker pool, the items that finished). Positions[i] is the input
// index of Results[i].
type BatchReport struct {
	RunID      string
	State      BatchState
	Articles   []Article
	Results    []ClassificationResult
	Positions  []int
	Stats      BatchStatistics
	StartedAt  time.Time
	FinishedAt time.Time
}

// Position returns the input index of the i-th result. Reports assembled
// without positions are treated as complete, so i is returned unchanged.
func (r BatchReport) Position(i int) int {
	if i < len(r.Positions) {
		return r.Positions[i]
	}
	return i
}
