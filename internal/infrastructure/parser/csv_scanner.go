package parser

import (
	"context"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"
	"time"

	"NewsClassifier/internal/domain"
	"NewsClassifier/internal/scanner"
)

// Input column names.
const (
	ColumnHeadline = "Headline"
	ColumnDate     = "Date"
	ColumnArticle  = "Article"
)

// ErrMissingColumns means the input header lacks a required column.
var ErrMissingColumns = errors.New("csv input is missing required columns")

// CSVScanner reads articles from a local CSV file with Headline, Date and Article columns.
// Rows with unparseable dates keep a zero date so validation rejects them per item.
type CSVScanner struct {
	dateFormat string
}

// NewCSVScanner uses dateFormat unless a source overrides it through the "dateFormat" option.
func NewCSVScanner(dateFormat string) *CSVScanner {
	if dateFormat == "" {
		dateFormat = time.DateOnly
	}
	return &CSVScanner{dateFormat: dateFormat}
}

// Name identifies the strategy inside the registry.
func (c *CSVScanner) Name() string {
	return "csv"
}

// Scan opens req.Location and decodes every row.
func (c *CSVScanner) Scan(ctx context.Context, req scanner.Request) ([]domain.Article, error) {
	file, err := os.Open(req.Location)
	if err != nil {
		return nil, fmt.Errorf("open csv: %w", err)
	}
	defer file.Close()

	return c.Read(ctx, file, req)
}

// Read decodes articles from any CSV stream.
func (c *CSVScanner) Read(ctx context.Context, r io.Reader, req scanner.Request) ([]domain.Article, error) {
	reader := csv.NewReader(r)
	reader.FieldsPerRecord = -1

	header, err := reader.Read()
	if err != nil {
		return nil, fmt.Errorf("read csv header: %w", err)
	}
	index, err := columnIndex(header)
	if err != nil {
		return nil, err
	}

	layout := req.Option("dateFormat", c.dateFormat)
	var articles []domain.Article
	for row := 1; ; row++ {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		record, err := reader.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("read csv row %d: %w", row, err)
		}

		article := domain.Article{
			ID:       req.SiteName + "#" + strconv.Itoa(row),
			Headline: strings.TrimSpace(field(record, index[ColumnHeadline])),
			Body:     field(record, index[ColumnArticle]),
			Source:   req.SiteName,
		}
		if raw := strings.TrimSpace(field(record, index[ColumnDate])); raw != "" {
			if parsed, err := time.Parse(layout, raw); err == nil {
				article.Date = parsed
			}
		}
		if !req.Since.IsZero() && !article.Date.IsZero() && article.Date.Before(req.Since) {
			continue
		}
		articles = append(articles, article)
	}

	return articles, nil
}

func columnIndex(header []string) (map[string]int, error) {
	index := make(map[string]int, len(header))
	for i, name := range header {
		index[strings.TrimSpace(strings.TrimPrefix(name, "\ufeff"))] = i
	}

	var missing []string
	for _, required := range []string{ColumnHeadline, ColumnDate, ColumnArticle} {
		if _, ok := index[required]; !ok {
			missing = append(missing, required)
		}
	}
	if len(missing) > 0 {
		return nil, fmt.Errorf("%w: %s", ErrMissingColumns, strings.Join(missing, ", "))
	}
	return index, nil
}

func field(record []string, i int) string {
	if i < len(record) {
		return record[i]
	}
	return ""
}
