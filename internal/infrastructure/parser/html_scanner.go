package parser

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"

	"NewsClassifier/internal/domain"
	"NewsClassifier/internal/scanner"
)

var dateExpr = regexp.MustCompile(`\d{1,2} [A-Za-z]{3} \d{4}`)

// Default CSS selectors; each can be overridden through source options of the same name.
const (
	defaultItemSelector     = "article"
	defaultHeadlineSelector = "h2"
	defaultBodySelector     = "p"
	defaultDateSelector     = "time"
	defaultLinkSelector     = "a[href]"
)

// HTMLScanner crawls paginated listing pages and extracts one article per item element.
type HTMLScanner struct {
	client *http.Client
}

// NewHTMLScanner wires an HTTP client.
func NewHTMLScanner(client *http.Client) *HTMLScanner {
	if client == nil {
		client = &http.Client{Timeout: 20 * time.Second}
	}
	return &HTMLScanner{client: client}
}

// Name identifies the strategy inside the registry.
func (h *HTMLScanner) Name() string {
	return "html"
}

type selectors struct {
	item, headline, body, date, link string
	dateLayout                       string
}

func selectorsFrom(req scanner.Request) selectors {
	return selectors{
		item:       req.Option("item", defaultItemSelector),
		headline:   req.Option("headline", defaultHeadlineSelector),
		body:       req.Option("body", defaultBodySelector),
		date:       req.Option("date", defaultDateSelector),
		link:       req.Option("link", defaultLinkSelector),
		dateLayout: req.Option("dateLayout", time.DateOnly),
	}
}

// Scan walks listing pages until a page is short, reaches articles older than req.Since,
// or the "maxPages" option is hit. Paging uses skip/show query parameters when "pageSize" is set.
func (h *HTMLScanner) Scan(ctx context.Context, req scanner.Request) ([]domain.Article, error) {
	sel := selectorsFrom(req)
	pageSize, err := intOption(req, "pageSize", 0)
	if err != nil {
		return nil, err
	}
	maxPages, err := intOption(req, "maxPages", 1)
	if err != nil {
		return nil, err
	}

	base, err := url.Parse(req.Location)
	if err != nil {
		return nil, fmt.Errorf("site %s: invalid url: %w", req.SiteName, err)
	}

	results := make([]domain.Article, 0)
	seen := map[string]struct{}{}
	for page, skip := 0, 0; page < maxPages; page, skip = page+1, skip+pageSize {
		pageURL := req.Location
		if pageSize > 0 {
			if pageURL, err = buildPageURL(req.Location, skip, pageSize); err != nil {
				return nil, err
			}
		}

		doc, err := h.fetchDocument(ctx, pageURL)
		if err != nil {
			return nil, fmt.Errorf("site %s: %w", req.SiteName, err)
		}

		pageArticles, shouldContinue := extractArticles(doc, base, sel, req.Since, req.SiteName, pageSize)
		for _, article := range pageArticles {
			if _, ok := seen[article.ID]; ok {
				continue
			}
			seen[article.ID] = struct{}{}
			results = append(results, article)
		}

		if !shouldContinue || pageSize == 0 {
			break
		}
	}

	return results, nil
}

func (h *HTMLScanner) fetchDocument(ctx context.Context, pageURL string) (*goquery.Document, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, pageURL, nil)
	if err != nil {
		return nil, fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("User-Agent", "NewsClassifier/1.0")

	resp, err := h.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("request document: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("listing returned %s", resp.Status)
	}

	doc, err := goquery.NewDocumentFromReader(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("parse document: %w", err)
	}

	return doc, nil
}

func extractArticles(doc *goquery.Document, base *url.URL, sel selectors, since time.Time, site string, pageSize int) ([]domain.Article, bool) {
	var (
		collected    []domain.Article
		continueScan = true
		processed    int
	)

	doc.Find(sel.item).EachWithBreak(func(_ int, item *goquery.Selection) bool {
		processed++

		article := parseEntry(item, base, sel, site)
		if !since.IsZero() && !article.Date.IsZero() && article.Date.Before(since) {
			continueScan = false
			return false
		}
		collected = append(collected, article)
		return true
	})

	if processed < pageSize {
		continueScan = false
	}

	return collected, continueScan
}

func parseEntry(item *goquery.Selection, base *url.URL, sel selectors, site string) domain.Article {
	link := item.Find(sel.link).First()
	href, _ := link.Attr("href")
	if ref, err := url.Parse(strings.TrimSpace(href)); err == nil && href != "" {
		href = base.ResolveReference(ref).String()
	}

	var body []string
	item.Find(sel.body).Each(func(_ int, p *goquery.Selection) {
		if text := collapseSpace(p.Text()); text != "" {
			body = append(body, text)
		}
	})

	id := href
	if dataID, ok := item.Attr("data-id"); ok && dataID != "" {
		id = dataID
	}

	return domain.Article{
		ID:       id,
		Headline: collapseSpace(item.Find(sel.headline).First().Text()),
		Date:     parseDate(item.Find(sel.date).First(), sel.dateLayout),
		Body:     strings.Join(body, "\n"),
		URL:      href,
		Source:   site,
	}
}

// parseDate prefers the datetime attribute, then the layout, then a "2 Jan 2006" fragment.
// Unknown dates stay zero.
func parseDate(node *goquery.Selection, layout string) time.Time {
	if attr, ok := node.Attr("datetime"); ok {
		for _, l := range []string{time.RFC3339, layout} {
			if parsed, err := time.Parse(l, strings.TrimSpace(attr)); err == nil {
				return parsed.UTC()
			}
		}
	}

	text := strings.TrimSpace(node.Text())
	if parsed, err := time.Parse(layout, text); err == nil {
		return parsed
	}
	if match := dateExpr.FindString(text); match != "" {
		if parsed, err := time.Parse("2 Jan 2006", match); err == nil {
			return parsed
		}
	}
	return time.Time{}
}

func intOption(req scanner.Request, name string, fallback int) (int, error) {
	raw := req.Option(name, "")
	if raw == "" {
		return fallback, nil
	}
	v, err := strconv.Atoi(raw)
	if err != nil || v < 0 {
		return 0, fmt.Errorf("site %s: invalid %s %q", req.SiteName, name, raw)
	}
	return v, nil
}

func buildPageURL(base string, skip, pageSize int) (string, error) {
	parsed, err := url.Parse(base)
	if err != nil {
		return "", fmt.Errorf("invalid listing url %s: %w", base, err)
	}

	query := parsed.Query()
	query.Set("skip", strconv.Itoa(skip))
	query.Set("show", strconv.Itoa(pageSize))
	parsed.RawQuery = query.Encode()
	return parsed.String(), nil
}
