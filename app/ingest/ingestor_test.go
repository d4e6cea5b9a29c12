package ingest

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/naijahub/newshub/app/database"
	"github.com/naijahub/newshub/app/feed"
	"github.com/naijahub/newshub/app/images"
)

type stubFetcher struct {
	drafts  map[string][]feed.Draft // keyed by source URL
	block   chan struct{}           // when set, Run waits until closed
	mu      sync.Mutex
	fetches int
}

func (f *stubFetcher) Run(ctx context.Context, source feed.Source) []feed.Draft {
	if f.block != nil {
		<-f.block
	}
	f.mu.Lock()
	f.fetches++
	f.mu.Unlock()
	return f.drafts[source.URL]
}

type stubAcquirer struct {
	fail  bool
	mu    sync.Mutex
	calls int
}

func (a *stubAcquirer) Acquire(ctx context.Context, imageURL, articleTitle string) (string, bool) {
	a.mu.Lock()
	a.calls++
	a.mu.Unlock()
	if a.fail {
		return "", false
	}
	return "images/" + images.CacheKey(articleTitle, imageURL), true
}

type stubResolver struct{}

func (stubResolver) Resolve(category string) string {
	switch category {
	case "sports":
		return "images/fallbacks/sports.jpg"
	default:
		return "images/fallbacks/default.jpg"
	}
}

func (stubResolver) Bootstrap() error { return nil }

// memRepo is an in-memory ArticleRepository with URL dedup semantics.
type memRepo struct {
	mu       sync.Mutex
	articles []database.Article
	byURL    map[string]bool
}

func newMemRepo() *memRepo {
	return &memRepo{byURL: map[string]bool{}}
}

func (r *memRepo) InsertIfAbsent(article database.Article) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if article.URL == "" || r.byURL[article.URL] {
		return false, nil
	}
	article.ID = int64(len(r.articles) + 1)
	r.byURL[article.URL] = true
	r.articles = append(r.articles, article)
	return true, nil
}

func (r *memRepo) Recent(limit int, mode database.RecentMode) ([]database.Article, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]database.Article, len(r.articles))
	copy(out, r.articles)
	if len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

func (r *memRepo) GetStats() (database.Stats, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return database.Stats{TotalArticles: len(r.articles)}, nil
}

func (r *memRepo) MarkPosted(id int64) error { return nil }

func (r *memRepo) count() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.articles)
}

func singleEntryFetcher() *stubFetcher {
	return &stubFetcher{
		drafts: map[string][]feed.Draft{
			"https://feed.example/rss": {
				{
					Title:         "Test Article",
					Description:   `Summary containing <img src="https://img.example/p.jpg">`,
					Link:          "https://x.example/a1",
					PublishedDate: "2025-09-29 16:00:00",
					Source:        "Feed Source",
					Category:      "general",
					ImageURL:      "https://img.example/p.jpg",
				},
			},
		},
	}
}

func testSources() []feed.Source {
	return []feed.Source{{URL: "https://feed.example/rss", Category: "general"}}
}

func TestRunCycleStoresArticleWithCachedImage(t *testing.T) {
	repo := newMemRepo()
	ingestor := NewIngestor(singleEntryFetcher(), &stubAcquirer{}, stubResolver{}, repo, testSources(), 2)

	if err := ingestor.RunCycle(context.Background()); err != nil {
		t.Fatalf("RunCycle failed: %v", err)
	}

	if repo.count() != 1 {
		t.Fatalf("Expected 1 stored article, got %d", repo.count())
	}

	stored := repo.articles[0]
	want := "images/" + images.CacheKey("Test Article", "https://img.example/p.jpg")
	if stored.LocalImagePath != want {
		t.Errorf("Expected image reference %q, got %q", want, stored.LocalImagePath)
	}
	if stored.URL != "https://x.example/a1" {
		t.Errorf("Expected canonical URL preserved, got %q", stored.URL)
	}
}

func TestRunCycleIsIdempotent(t *testing.T) {
	repo := newMemRepo()
	ingestor := NewIngestor(singleEntryFetcher(), &stubAcquirer{}, stubResolver{}, repo, testSources(), 2)

	if err := ingestor.RunCycle(context.Background()); err != nil {
		t.Fatalf("First cycle failed: %v", err)
	}
	if err := ingestor.RunCycle(context.Background()); err != nil {
		t.Fatalf("Second cycle failed: %v", err)
	}

	if repo.count() != 1 {
		t.Errorf("Expected re-ingesting an unchanged feed to insert nothing, got %d articles", repo.count())
	}
}

func TestRunCycleFallsBackOnAcquisitionFailure(t *testing.T) {
	repo := newMemRepo()
	ingestor := NewIngestor(singleEntryFetcher(), &stubAcquirer{fail: true}, stubResolver{}, repo, testSources(), 2)

	if err := ingestor.RunCycle(context.Background()); err != nil {
		t.Fatalf("RunCycle failed: %v", err)
	}

	if repo.articles[0].LocalImagePath != "images/fallbacks/default.jpg" {
		t.Errorf("Expected fallback reference, got %q", repo.articles[0].LocalImagePath)
	}
}

func TestRunCycleFallsBackWithoutCandidate(t *testing.T) {
	fetcher := &stubFetcher{
		drafts: map[string][]feed.Draft{
			"https://feed.example/rss": {
				{Title: "No Image", Link: "https://x.example/a2", Category: "sports"},
			},
		},
	}
	repo := newMemRepo()
	acquirer := &stubAcquirer{}
	ingestor := NewIngestor(fetcher, acquirer, stubResolver{}, repo, testSources(), 2)

	if err := ingestor.RunCycle(context.Background()); err != nil {
		t.Fatalf("RunCycle failed: %v", err)
	}

	if repo.articles[0].LocalImagePath != "images/fallbacks/sports.jpg" {
		t.Errorf("Expected category placeholder, got %q", repo.articles[0].LocalImagePath)
	}
	if acquirer.calls != 0 {
		t.Errorf("Expected no acquisition attempts without a candidate URL, got %d", acquirer.calls)
	}
}

func TestRunCycleEmptyFeedsIsNotAnError(t *testing.T) {
	repo := newMemRepo()
	ingestor := NewIngestor(&stubFetcher{}, &stubAcquirer{}, stubResolver{}, repo, testSources(), 2)

	if err := ingestor.RunCycle(context.Background()); err != nil {
		t.Fatalf("Expected clean exit for empty run, got: %v", err)
	}
	if ingestor.LastSuccess() == nil {
		t.Error("Expected last-success timestamp set after an empty run")
	}
}

func TestRunCycleSingleFlight(t *testing.T) {
	block := make(chan struct{})
	fetcher := singleEntryFetcher()
	fetcher.block = block
	ingestor := NewIngestor(fetcher, &stubAcquirer{}, stubResolver{}, newMemRepo(), testSources(), 2)

	done := make(chan error, 1)
	go func() {
		done <- ingestor.RunCycle(context.Background())
	}()

	// Wait until the first cycle holds the guard.
	deadline := time.After(2 * time.Second)
	for !ingestor.IsRunning() {
		select {
		case <-deadline:
			t.Fatal("Timed out waiting for cycle to start")
		case <-time.After(5 * time.Millisecond):
		}
	}

	if err := ingestor.RunCycle(context.Background()); !errors.Is(err, ErrAlreadyRunning) {
		t.Errorf("Expected ErrAlreadyRunning for overlapping cycle, got: %v", err)
	}
	if ingestor.TryStart() {
		t.Error("Expected TryStart to refuse while a cycle is running")
	}

	close(block)
	if err := <-done; err != nil {
		t.Fatalf("First cycle failed: %v", err)
	}
	if ingestor.IsRunning() {
		t.Error("Expected guard released after cycle completion")
	}
}

func TestTryStartRunsCycle(t *testing.T) {
	repo := newMemRepo()
	ingestor := NewIngestor(singleEntryFetcher(), &stubAcquirer{}, stubResolver{}, repo, testSources(), 2)

	if !ingestor.TryStart() {
		t.Fatal("Expected TryStart to begin a cycle")
	}

	deadline := time.After(2 * time.Second)
	for ingestor.LastSuccess() == nil {
		select {
		case <-deadline:
			t.Fatal("Timed out waiting for background cycle")
		case <-time.After(5 * time.Millisecond):
		}
	}

	if repo.count() != 1 {
		t.Errorf("Expected background cycle to store 1 article, got %d", repo.count())
	}
}

func TestRunCycleHonorsCancellation(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	ingestor := NewIngestor(singleEntryFetcher(), &stubAcquirer{}, stubResolver{}, newMemRepo(), testSources(), 2)
	if err := ingestor.RunCycle(ctx); !errors.Is(err, context.Canceled) {
		t.Errorf("Expected context.Canceled, got: %v", err)
	}
}
