package ingest

import (
	"context"
	"errors"
	"log/slog"
	"sync"
	"time"

	"github.com/naijahub/newshub/app/database"
	"github.com/naijahub/newshub/app/feed"
)

// ErrAlreadyRunning is returned when a cycle is requested while another one
// holds the single-flight guard. Overlapping cycles only duplicate network
// load, so they are rejected rather than queued.
var ErrAlreadyRunning = errors.New("ingestion cycle already running")

// feedPause spaces out requests to remote hosts between feed sources.
const feedPause = 500 * time.Millisecond

// Ingestor runs the ingestion pipeline: fetch each configured feed, attach a
// cached or placeholder image to every draft, and persist the batch through
// the repository. A mutex-guarded flag makes cycles single-flight.
type Ingestor struct {
	fetcher     FeedFetcher
	acquirer    ImageAcquirer
	fallback    FallbackResolver
	repo        database.ArticleRepository
	sources     []feed.Source
	workerCount int
	ctx         context.Context
	cancel      context.CancelFunc
	wg          sync.WaitGroup

	mu          sync.Mutex
	running     bool
	lastSuccess *time.Time
}

func NewIngestor(fetcher FeedFetcher, acquirer ImageAcquirer, fallback FallbackResolver,
	repo database.ArticleRepository, sources []feed.Source, workerCount int) *Ingestor {
	if workerCount < 1 {
		workerCount = 1
	}
	ctx, cancel := context.WithCancel(context.Background())
	return &Ingestor{
		fetcher:     fetcher,
		acquirer:    acquirer,
		fallback:    fallback,
		repo:        repo,
		sources:     sources,
		workerCount: workerCount,
		ctx:         ctx,
		cancel:      cancel,
	}
}

// RunCycle executes one blocking ingestion cycle. It returns
// ErrAlreadyRunning when another cycle holds the guard.
func (i *Ingestor) RunCycle(ctx context.Context) error {
	if !i.tryAcquire() {
		return ErrAlreadyRunning
	}
	defer i.release()

	return i.cycle(ctx)
}

// TryStart launches a cycle in the background if none is running. It reports
// whether a new cycle was started. The cycle runs on the ingestor's own
// lifecycle context, not the caller's, so a short-lived trigger request does
// not cancel it.
func (i *Ingestor) TryStart() bool {
	if !i.tryAcquire() {
		return false
	}

	i.wg.Add(1)
	go func() {
		defer i.wg.Done()
		defer i.release()
		if err := i.cycle(i.ctx); err != nil {
			slog.Error("Background ingestion cycle failed", "error", err)
		}
	}()

	return true
}

// Stop cancels any in-flight background cycle and waits for it to unwind.
func (i *Ingestor) Stop() {
	i.cancel()
	i.wg.Wait()
}

// IsRunning reports whether an ingestion cycle is currently in flight.
func (i *Ingestor) IsRunning() bool {
	i.mu.Lock()
	defer i.mu.Unlock()
	return i.running
}

// LastSuccess returns the completion time of the last successful cycle, nil
// if none has completed yet. The web layer uses this to detect staleness.
func (i *Ingestor) LastSuccess() *time.Time {
	i.mu.Lock()
	defer i.mu.Unlock()
	if i.lastSuccess == nil {
		return nil
	}
	t := *i.lastSuccess
	return &t
}

func (i *Ingestor) tryAcquire() bool {
	i.mu.Lock()
	defer i.mu.Unlock()
	if i.running {
		return false
	}
	i.running = true
	return true
}

func (i *Ingestor) release() {
	i.mu.Lock()
	i.running = false
	i.mu.Unlock()
}

func (i *Ingestor) cycle(ctx context.Context) error {
	started := time.Now()
	slog.Info("Starting ingestion cycle", "feeds", len(i.sources))

	// Placeholders must exist before any draft can fall back to them. A
	// bootstrap failure is logged, not fatal: Resolve still returns stable
	// references and a later cycle can retry the synthesis.
	if err := i.fallback.Bootstrap(); err != nil {
		slog.Error("Fallback image bootstrap failed", "error", err)
	}

	var drafts []feed.Draft
	for n, source := range i.sources {
		if err := ctx.Err(); err != nil {
			return err
		}

		fetched := i.fetcher.Run(ctx, source)
		if len(fetched) > 0 {
			i.attachImages(ctx, fetched)
			drafts = append(drafts, fetched...)
		}

		// Space out requests so a run never hammers remote hosts.
		if n < len(i.sources)-1 {
			select {
			case <-ctx.Done():
				return ctx.Err()
			case <-time.After(feedPause):
			}
		}
	}

	if len(drafts) == 0 {
		slog.Info("Ingestion cycle produced no drafts", "duration", time.Since(started).String())
		i.markSuccess()
		return nil
	}

	inserted := 0
	for _, draft := range drafts {
		if err := ctx.Err(); err != nil {
			return err
		}

		ok, err := i.repo.InsertIfAbsent(database.Article{
			Title:          draft.Title,
			Description:    draft.Description,
			URL:            draft.Link,
			PublishedDate:  draft.PublishedDate,
			Source:         draft.Source,
			Category:       draft.Category,
			ImageURL:       draft.ImageURL,
			LocalImagePath: draft.LocalImagePath,
		})
		if err != nil {
			slog.Error("Failed to persist article", "url", draft.Link, "error", err)
			continue
		}
		if ok {
			inserted++
		}
	}

	i.markSuccess()

	slog.Info("Ingestion cycle completed",
		"duration", time.Since(started).String(),
		"drafts", len(drafts),
		"inserted", inserted,
		"duplicates", len(drafts)-inserted)

	return nil
}

// attachImages resolves the image reference for each draft: acquire the
// extracted candidate when there is one, otherwise (or on any acquisition
// failure) fall back to the category placeholder. Acquisitions are I/O bound
// and fan out to a bounded worker pool.
func (i *Ingestor) attachImages(ctx context.Context, drafts []feed.Draft) {
	jobs := make(chan int, len(drafts))
	for n := range drafts {
		jobs <- n
	}
	close(jobs)

	var wg sync.WaitGroup
	for w := 0; w < i.workerCount; w++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for n := range jobs {
				select {
				case <-ctx.Done():
					// Interrupted entries still get a valid reference.
					drafts[n].LocalImagePath = i.fallback.Resolve(drafts[n].Category)
					continue
				default:
				}

				draft := &drafts[n]
				if draft.ImageURL != "" {
					if ref, ok := i.acquirer.Acquire(ctx, draft.ImageURL, draft.Title); ok {
						draft.LocalImagePath = ref
						continue
					}
				}
				draft.LocalImagePath = i.fallback.Resolve(draft.Category)
			}
		}()
	}
	wg.Wait()
}

func (i *Ingestor) markSuccess() {
	now := time.Now()
	i.mu.Lock()
	i.lastSuccess = &now
	i.mu.Unlock()
}
