package parser

import (
	"context"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/PuerkitoBio/goquery"

	"NewsClassifier/internal/scanner"
)

func TestBuildPageURL(t *testing.T) {
	t.Parallel()

	base := "https://news.example.com/markets?lang=en"
	u, err := buildPageURL(base, 200, 100)
	if err != nil {
		t.Fatalf("buildPageURL returned error: %v", err)
	}

	parsed, err := url.Parse(u)
	if err != nil {
		t.Fatalf("parse result: %v", err)
	}

	if parsed.Scheme != "https" || parsed.Host != "news.example.com" {
		t.Fatalf("unexpected host: %s", parsed.Host)
	}

	q := parsed.Query()
	if q.Get("skip") != "200" || q.Get("show") != "100" || q.Get("lang") != "en" {
		t.Fatalf("unexpected query: %s", parsed.RawQuery)
	}
}

func TestParseEntry(t *testing.T) {
	t.Parallel()

	html := `
	<article data-id="mkt-42">
	  <h2> Fed holds   rates steady </h2>
	  <time datetime="2025-11-08T14:00:00Z">8 Nov 2025</time>
	  <p>Policy makers kept rates unchanged.</p>
	  <p>Markets rallied.</p>
	  <a href="/story/42">Read more</a>
	</article>`

	doc, err := goquery.NewDocumentFromReader(strings.NewReader(html))
	if err != nil {
		t.Fatalf("new document: %v", err)
	}
	base, _ := url.Parse("https://news.example.com/markets")

	article := parseEntry(doc.Find("article").First(), base, selectorsFrom(scanner.Request{}), "wire")

	if article.ID != "mkt-42" {
		t.Fatalf("unexpected id: %s", article.ID)
	}
	if article.Headline != "Fed holds rates steady" {
		t.Fatalf("unexpected headline: %q", article.Headline)
	}
	if article.Body != "Policy makers kept rates unchanged.\nMarkets rallied." {
		t.Fatalf("unexpected body: %q", article.Body)
	}
	if article.URL != "https://news.example.com/story/42" {
		t.Fatalf("unexpected url: %s", article.URL)
	}
	if want := time.Date(2025, time.November, 8, 14, 0, 0, 0, time.UTC); !article.Date.Equal(want) {
		t.Fatalf("unexpected date: %v", article.Date)
	}
}

func TestParseDateFallbacks(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		html string
		want time.Time
	}{
		{"layout", `<time>2024-02-29</time>`, time.Date(2024, 2, 29, 0, 0, 0, 0, time.UTC)},
		{"fragment", `<time>Published: 7 Nov 2025</time>`, time.Date(2025, 11, 7, 0, 0, 0, 0, time.UTC)},
		{"unknown", `<time>yesterday</time>`, time.Time{}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			doc, err := goquery.NewDocumentFromReader(strings.NewReader(tt.html))
			if err != nil {
				t.Fatalf("new document: %v", err)
			}
			if got := parseDate(doc.Find("time").First(), time.DateOnly); !got.Equal(tt.want) {
				t.Fatalf("expected %v, got %v", tt.want, got)
			}
		})
	}
}

func TestHTMLScannerScan(t *testing.T) {
	t.Parallel()

	var pages int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&pages, 1)
		if r.URL.Query().Get("skip") != "0" {
			t.Errorf("scan should stop after the first page, got skip=%s", r.URL.Query().Get("skip"))
		}
		_, _ = w.Write([]byte(`
		<div class="item"><h3>Fresh story</h3><span class="when">8 Nov 2025</span><div class="txt">brand new.</div><a href="/a/1">x</a></div>
		<div class="item"><h3>Old story</h3><span class="when">1 Nov 2025</span><div class="txt">older.</div><a href="/a/2">x</a></div>`))
	}))
	defer server.Close()

	sc := NewHTMLScanner(server.Client())
	req := scanner.Request{
		SiteName: "wire",
		Location: server.URL + "/list",
		Since:    time.Date(2025, time.November, 5, 0, 0, 0, 0, time.UTC),
		Options: map[string]string{
			"item":     "div.item",
			"headline": "h3",
			"body":     ".txt",
			"date":     ".when",
			"pageSize": "2",
			"maxPages": "3",
		},
	}

	articles, err := sc.Scan(context.Background(), req)
	if err != nil {
		t.Fatalf("Scan error: %v", err)
	}
	if len(articles) != 1 {
		t.Fatalf("expected 1 article, got %d", len(articles))
	}
	if articles[0].Headline != "Fresh story" || articles[0].Body != "brand new." || articles[0].URL != server.URL+"/a/1" {
		t.Fatalf("unexpected article: %+v", articles[0])
	}
	if got := atomic.LoadInt32(&pages); got != 1 {
		t.Fatalf("expected 1 page request, got %d", got)
	}
}

func TestHTMLScannerInvalidOption(t *testing.T) {
	t.Parallel()

	sc := NewHTMLScanner(nil)
	_, err := sc.Scan(context.Background(), scanner.Request{SiteName: "wire", Location: "http://127.0.0.1:1", Options: map[string]string{"pageSize": "many"}})
	if err == nil || !strings.Contains(err.Error(), "invalid pageSize") {
		t.Fatalf("expected invalid option error, got %v", err)
	}
}
