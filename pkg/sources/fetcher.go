package sources

import (
	"bytes"
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"

	"github.com/samvad-hq/veille-cyber/internal/domain"
	"github.com/samvad-hq/veille-cyber/pkg/httpclient"
)

// Fetcher downloads and parses RSS/Atom feeds. Failures never escape it: a
// source that cannot be read contributes no items.
type Fetcher struct {
	client  httpclient.Client
	timeout time.Duration
	log     Logger
}

// NewFetcher builds a Fetcher. A zero timeout leaves only the client's own timeout in force.
func NewFetcher(client httpclient.Client, timeout time.Duration, log Logger) *Fetcher {
	if client == nil {
		client = httpclient.NewRestyClient(httpclient.Options{Timeout: timeout})
	}
	return &Fetcher{
		client:  client,
		timeout: timeout,
		log:     ensureLogger(log),
	}
}

// Outcome is the result of collecting several sources.
type Outcome struct {
	Items  []domain.FeedItem
	Failed []string
}

// FetchFeed returns at most limit entries of the feed at url, in document
// order. Any failure is logged and yields an empty slice.
func (f *Fetcher) FetchFeed(ctx context.Context, url string, limit int) []domain.FeedItem {
	items, err := f.fetch(ctx, url, limit, nil)
	if err != nil {
		f.log.WarnObj("feed source unavailable", "source_error", map[string]any{
			"url":   url,
			"error": err.Error(),
		})
		return []domain.FeedItem{}
	}
	return items
}

// Collect fetches each source in order and concatenates their entries.
func (f *Fetcher) Collect(ctx context.Context, list []Source, fallbackLimit int) Outcome {
	out := Outcome{Items: []domain.FeedItem{}}
	for _, src := range list {
		items, err := f.fetch(ctx, src.URL, src.EffectiveLimit(fallbackLimit), Headers(src))
		if err != nil {
			out.Failed = append(out.Failed, src.ID)
			f.log.WarnObj("feed source unavailable", "source_error", map[string]any{
				"source_id": src.ID,
				"url":       src.URL,
				"error":     err.Error(),
			})
			continue
		}
		f.log.InfoObj("feed source fetched", "source_result", map[string]any{
			"source_id": src.ID,
			"items":     len(items),
		})
		out.Items = append(out.Items, items...)
	}
	return out
}

func (f *Fetcher) fetch(ctx context.Context, url string, limit int, headers map[string]string) ([]domain.FeedItem, error) {
	if strings.TrimSpace(url) == "" {
		return nil, fmt.Errorf("feed url is empty")
	}
	if limit <= 0 {
		limit = DefaultLimit
	}
	if ctx == nil {
		ctx = context.Background()
	}
	if f.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, f.timeout)
		defer cancel()
	}

	resp, err := f.client.Get(ctx, url, headers)
	if err != nil {
		return nil, fmt.Errorf("fetch feed: %w", err)
	}
	body := resp.Body()
	if code := resp.StatusCode(); code < 200 || code > 299 {
		return nil, fmt.Errorf("feed returned status %d body: %s", code, responseSnippet(body))
	}

	return parseFeed(body, limit)
}

func parseFeed(body []byte, limit int) ([]domain.FeedItem, error) {
	// gofeed parsers keep per-document state, so each call gets its own.
	feed, err := newFeedParser().Parse(bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("parse feed: %w", err)
	}

	entries := feed.Items
	if len(entries) > limit {
		entries = entries[:limit]
	}

	items := make([]domain.FeedItem, 0, len(entries))
	for _, entry := range entries {
		if entry == nil {
			continue
		}
		items = append(items, domain.NewFeedItem(plainTitle(entry.Title), entry.Link, entry.Published))
	}
	return items, nil
}

// plainTitle reduces HTML-typed titles to their text content.
func plainTitle(title string) string {
	if !strings.Contains(title, "</") {
		return strings.TrimSpace(title)
	}
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(title))
	if err != nil {
		return strings.TrimSpace(title)
	}
	return strings.Join(strings.Fields(doc.Text()), " ")
}

func responseSnippet(body []byte) string {
	const maxLen = 512
	s := strings.TrimSpace(string(body))
	if len(s) > maxLen {
		return s[:maxLen] + "..."
	}
	if s == "" {
		return "<empty>"
	}
	return s
}
