package database

import (
	"time"
)

// Article is a persisted article record. The url column is the sole dedup
// key; rows are insert-only except the posted_to_social flag.
type Article struct {
	ID             int64
	Title          string
	Description    string
	URL            string
	PublishedDate  string // feed-supplied string, display uses the first 10 chars
	Source         string
	Category       string
	ImageURL       string // remote candidate URL, may be empty
	LocalImagePath string // cache or placeholder reference
	PostedToSocial bool
	CreatedAt      time.Time
}

// RecentMode selects the ordering of the Recent read path.
type RecentMode string

const (
	// ModeLatest orders by ingestion time, most recent first.
	ModeLatest RecentMode = "latest"
	// ModeSample returns a uniform random sample over the full stored set.
	ModeSample RecentMode = "sample"
)

// Stats are aggregate counters computed live from the store.
type Stats struct {
	TotalArticles  int `json:"total_articles"`
	PostedToSocial int `json:"posted_to_social"`
	SourcesCount   int `json:"sources_count"`
}
