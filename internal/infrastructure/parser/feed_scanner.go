package parser

import (
	"context"
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/mmcdole/gofeed"

	"NewsClassifier/internal/domain"
	"NewsClassifier/internal/scanner"
)

// FeedScanner reads RSS, Atom and JSON feeds.
type FeedScanner struct {
	client *http.Client
}

// NewFeedScanner wires an HTTP client; nil gets a 20s timeout client.
func NewFeedScanner(client *http.Client) *FeedScanner {
	if client == nil {
		client = &http.Client{Timeout: 20 * time.Second}
	}
	return &FeedScanner{client: client}
}

// Name identifies the strategy inside the registry.
func (f *FeedScanner) Name() string {
	return "rss"
}

// Scan fetches req.Location and converts feed items. The "limit" option caps the item count.
func (f *FeedScanner) Scan(ctx context.Context, req scanner.Request) ([]domain.Article, error) {
	fp := gofeed.NewParser()
	fp.Client = f.client
	fp.UserAgent = "NewsClassifier/1.0"

	feed, err := fp.ParseURLWithContext(req.Location, ctx)
	if err != nil {
		return nil, fmt.Errorf("parse feed %s: %w", req.Location, err)
	}

	limit := 0
	if raw := req.Option("limit", ""); raw != "" {
		if limit, err = strconv.Atoi(raw); err != nil {
			return nil, fmt.Errorf("feed %s: invalid limit %q", req.SiteName, raw)
		}
	}

	articles := make([]domain.Article, 0, len(feed.Items))
	for _, item := range feed.Items {
		if limit > 0 && len(articles) >= limit {
			break
		}
		article := feedArticle(item, req.SiteName)
		if !req.Since.IsZero() && !article.Date.IsZero() && article.Date.Before(req.Since) {
			continue
		}
		articles = append(articles, article)
	}
	return articles, nil
}

func feedArticle(item *gofeed.Item, site string) domain.Article {
	body := item.Content
	if body == "" {
		body = item.Description
	}

	var published time.Time
	switch {
	case item.PublishedParsed != nil:
		published = item.PublishedParsed.UTC()
	case item.UpdatedParsed != nil:
		published = item.UpdatedParsed.UTC()
	}

	id := item.GUID
	if id == "" {
		id = item.Link
	}

	return domain.Article{
		ID:       id,
		Headline: PlainText(item.Title),
		Date:     published,
		Body:     PlainText(body),
		URL:      item.Link,
		Source:   site,
	}
}
