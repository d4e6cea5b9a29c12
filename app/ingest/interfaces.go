package ingest

import (
	"context"

	"github.com/naijahub/newshub/app/feed"
)

// FeedFetcher retrieves one feed source into drafts, absorbing failures.
type FeedFetcher interface {
	Run(ctx context.Context, source feed.Source) []feed.Draft
}

// ImageAcquirer downloads and caches a remote image, reporting false when
// the caller should fall back.
type ImageAcquirer interface {
	Acquire(ctx context.Context, imageURL, articleTitle string) (string, bool)
}

// FallbackResolver maps categories to placeholder references and ensures the
// placeholder assets exist.
type FallbackResolver interface {
	Resolve(category string) string
	Bootstrap() error
}
