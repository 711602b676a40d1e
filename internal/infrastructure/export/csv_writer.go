package export

import (
	"context"
	"encoding/csv"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"sync"

	"NewsClassifier/internal/domain"
	"NewsClassifier/internal/ports"
)

var header = []string{"Headline", "Date", "Article", "Category", "Success", "Failure", "Reason", "ProcessingMs", "RawResponse", "Sentiment"}

// CSVWriter writes results next to their input columns. The first batch truncates the
// file; later batches of the same process append.
type CSVWriter struct {
	path       string
	dateFormat string

	mu      sync.Mutex
	started bool
}

var _ ports.ResultRepository = (*CSVWriter)(nil)

// NewCSVWriter targets path; dates use dateFormat.
func NewCSVWriter(path, dateFormat string) *CSVWriter {
	if dateFormat == "" {
		dateFormat = "2006-01-02"
	}
	return &CSVWriter{path: path, dateFormat: dateFormat}
}

// SaveBatch appends one row per result.
func (w *CSVWriter) SaveBatch(_ context.Context, report domain.BatchReport) error {
	w.mu.Lock()
	defer w.mu.Unlock()

	flags := os.O_CREATE | os.O_WRONLY | os.O_APPEND
	if !w.started {
		flags = os.O_CREATE | os.O_WRONLY | os.O_TRUNC
		if dir := filepath.Dir(w.path); dir != "." {
			if err := os.MkdirAll(dir, 0o755); err != nil {
				return fmt.Errorf("create output dir: %w", err)
			}
		}
	}

	file, err := os.OpenFile(w.path, flags, 0o644)
	if err != nil {
		return fmt.Errorf("open output: %w", err)
	}
	defer file.Close()

	out := csv.NewWriter(file)
	if !w.started {
		if err := out.Write(header); err != nil {
			return fmt.Errorf("write header: %w", err)
		}
	}

	for i, result := range report.Results {
		var article domain.Article
		if i < len(report.Articles) {
			article = report.Articles[i]
		}
		if err := out.Write(w.row(article, result)); err != nil {
			return fmt.Errorf("write row %d: %w", i, err)
		}
	}

	out.Flush()
	if err := out.Error(); err != nil {
		return fmt.Errorf("flush output: %w", err)
	}
	w.started = true
	return nil
}

func (w *CSVWriter) row(article domain.Article, result domain.ClassificationResult) []string {
	date := ""
	if !article.Date.IsZero() {
		date = article.Date.Format(w.dateFormat)
	}
	return []string{
		article.Headline,
		date,
		article.Body,
		string(result.Category),
		strconv.FormatBool(result.Success),
		string(result.Failure),
		result.Reason,
		strconv.FormatInt(result.ProcessingTime.Milliseconds(), 10),
		result.RawResponse,
		string(result.Sentiment),
	}
}
