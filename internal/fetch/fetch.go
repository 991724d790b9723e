// Package fetch fans retrieval out across every tracked metric kind,
// isolating failures per metric.
package fetch

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/vitalvault/vitalvault/internal/metrics"
	"github.com/vitalvault/vitalvault/internal/models"
	"github.com/vitalvault/vitalvault/internal/source"
)

// Progress is an advisory snapshot emitted after each metric completes. It
// is never used for control flow.
type Progress struct {
	Fraction float64 // completed / total, in [0,1]
	Message  string  // "fetching <label>"
}

// ProgressFunc receives progress snapshots. May be nil.
type ProgressFunc func(Progress)

const defaultConcurrency = 4

// Fetcher issues one retrieval per registry kind against a sample source.
type Fetcher struct {
	src         source.Source
	log         *slog.Logger
	concurrency int
}

// New creates a Fetcher over the given source.
func New(src source.Source, log *slog.Logger) *Fetcher {
	return &Fetcher{src: src, log: log, concurrency: defaultConcurrency}
}

// FetchAll retrieves points for every tracked kind in [start, end). Kinds
// are fetched concurrently; a per-kind failure is logged and skipped, and
// kinds yielding no data are omitted from the result. The only fatal outcome
// is the source being categorically unavailable for every kind.
func (f *Fetcher) FetchAll(ctx context.Context, start, end time.Time, onProgress ProgressFunc) (map[metrics.Kind][]models.DataPoint, error) {
	total := len(metrics.Registry)

	var (
		mu          sync.Mutex
		out         = make(map[metrics.Kind][]models.DataPoint)
		completed   int
		unavailable int
	)

	sem := make(chan struct{}, f.concurrency)
	var wg sync.WaitGroup

	for _, entry := range metrics.Registry {
		wg.Add(1)
		go func(e metrics.Entry) {
			defer wg.Done()
			sem <- struct{}{}
			defer func() { <-sem }()

			points, err := f.src.Fetch(ctx, e.Kind, start, end)

			mu.Lock()
			defer mu.Unlock()

			if err != nil {
				if errors.Is(err, source.ErrUnavailable) {
					unavailable++
				}
				f.log.Warn("metric fetch failed, skipping",
					"metric", e.Label,
					"error", err,
				)
			} else if len(points) > 0 {
				out[e.Kind] = points
			}

			completed++
			if onProgress != nil {
				onProgress(Progress{
					Fraction: float64(completed) / float64(total),
					Message:  fmt.Sprintf("fetching %s", e.Label),
				})
			}
		}(entry)
	}

	wg.Wait()

	// Every single kind failing with ErrUnavailable means there is no
	// mechanism to retrieve anything at all.
	if unavailable == total {
		return nil, source.ErrUnavailable
	}
	return out, nil
}
