package feed

import (
	"bytes"
	"cmp"
	"context"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"time"

	"github.com/mmcdole/gofeed"
)

// Fetcher retrieves a feed endpoint and converts its entries into article
// drafts. Fetch and parse failures are absorbed: one unreachable or malformed
// feed must never abort an ingestion cycle.
type Fetcher struct {
	httpClient   *http.Client
	gofeedParser *gofeed.Parser
	userAgent    string
	timeout      time.Duration
}

func NewFetcher(httpClient *http.Client, userAgent string, timeout time.Duration) *Fetcher {
	if httpClient == nil {
		httpClient = &http.Client{}
	}
	return &Fetcher{
		httpClient:   httpClient,
		gofeedParser: gofeed.NewParser(),
		userAgent:    userAgent,
		timeout:      timeout,
	}
}

// Run fetches and parses a single feed source. It always returns a slice,
// empty on any failure.
func (f *Fetcher) Run(ctx context.Context, source Source) []Draft {
	data, err := f.fetch(ctx, source.URL)
	if err != nil {
		slog.Warn("Feed fetch failed", "url", source.URL, "error", err)
		return nil
	}

	parsed, err := f.gofeedParser.Parse(bytes.NewReader(data))
	if err != nil {
		slog.Warn("Feed parse failed", "url", source.URL, "error", err)
		return nil
	}

	sourceName := cmp.Or(parsed.Title, "Unknown Source")

	drafts := make([]Draft, 0, len(parsed.Items))
	for _, item := range parsed.Items {
		drafts = append(drafts, f.normalizeItem(item, sourceName, source.Category))
	}

	slog.Info("Feed fetched", "url", source.URL, "source", sourceName,
		"category", source.Category, "entries", len(drafts))

	return drafts
}

func (f *Fetcher) normalizeItem(item *gofeed.Item, sourceName, category string) Draft {
	published := item.Published
	if published == "" && item.PublishedParsed != nil {
		published = item.PublishedParsed.Format("2006-01-02 15:04:05")
	}
	if published == "" {
		published = time.Now().Format("2006-01-02 15:04:05")
	}

	return Draft{
		Title:         cmp.Or(item.Title, "No Title"),
		Description:   cmp.Or(item.Description, "No Description"),
		Link:          item.Link,
		PublishedDate: published,
		Source:        sourceName,
		Category:      category,
		ImageURL:      ExtractImageURL(item),
	}
}

func (f *Fetcher) fetch(ctx context.Context, url string) ([]byte, error) {
	timeoutCtx, cancel := context.WithTimeout(ctx, f.timeout)
	defer cancel()

	req, err := http.NewRequestWithContext(timeoutCtx, "GET", url, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}

	req.Header.Set("User-Agent", f.userAgent)

	resp, err := f.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch feed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("HTTP error: %d %s", resp.StatusCode, resp.Status)
	}

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read response body: %w", err)
	}

	return data, nil
}
