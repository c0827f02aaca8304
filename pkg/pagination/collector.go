package pagination

import (
	"context"
	"errors"
	"fmt"

	"github.com/Sternrassler/workshop-collector/pkg/clock"
	"github.com/Sternrassler/workshop-collector/pkg/progress"
	"github.com/Sternrassler/workshop-collector/pkg/workshop"
	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/rs/zerolog"
)

var (
	// ErrInvalidResponse is returned when the first page has no record
	// array or no numeric total.
	ErrInvalidResponse = errors.New("invalid response")

	// ErrTotalMismatch is returned when a later page carries no records and
	// declares a different total than the first page.
	ErrTotalMismatch = errors.New("total count mismatch")
)

// Prometheus metrics for collection runs.
var (
	pagesCollectedTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "workshop_pages_collected_total",
		Help: "Total pages accepted by the collector",
	})

	itemsCollectedTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "workshop_items_collected_total",
		Help: "Total records accepted by the collector",
	})

	collectionDuration = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "workshop_collection_duration_seconds",
		Help:    "Duration of collection runs in seconds",
		Buckets: []float64{1, 5, 15, 30, 60, 120, 300, 600, 1800},
	})

	collectionFailuresTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "workshop_collection_failures_total",
		Help: "Failed collection runs by reason",
	}, []string{"reason"})
)

// PageFetcher retrieves one page. *client.Client implements it.
type PageFetcher interface {
	FetchPage(ctx context.Context, apiKey string, appID uint32, cursor string) (*workshop.Page, error)
}

// Collector drives a PageFetcher from the first cursor to the last page.
type Collector struct {
	fetcher  PageFetcher
	reporter progress.Reporter
	clock    clock.Clock
	logger   zerolog.Logger
}

// NewCollector creates a collector. A nil reporter discards progress and a
// nil clock uses the system clock.
func NewCollector(fetcher PageFetcher, reporter progress.Reporter, clk clock.Clock, logger zerolog.Logger) *Collector {
	if reporter == nil {
		reporter = progress.Nop{}
	}
	if clk == nil {
		clk = clock.New()
	}
	return &Collector{
		fetcher:  fetcher,
		reporter: reporter,
		clock:    clk,
		logger:   logger,
	}
}

// run holds the state of one Collect call.
type run struct {
	*Collector
	logger  zerolog.Logger
	records []workshop.Record
	total   int64
}

// Collect retrieves every record of appID in API order.
//
// Fetch errors propagate unchanged (wrapped). The reporter receives Done on
// success and on failure.
func (c *Collector) Collect(ctx context.Context, apiKey string, appID uint32) (*workshop.Result, error) {
	r := &run{
		Collector: c,
		logger: c.logger.With().
			Str("run_id", uuid.NewString()).
			Uint32("app_id", appID).
			Logger(),
		records: []workshop.Record{},
	}

	start := c.clock.Now()
	r.logger.Info().Msg("Starting collection")

	err := r.collect(ctx, apiKey, appID)
	elapsed := c.clock.Now().Sub(start)
	collectionDuration.Observe(elapsed.Seconds())

	summary := progress.Summary{
		Collected: int64(len(r.records)),
		Total:     r.total,
		Elapsed:   elapsed,
		Err:       err,
	}
	c.reporter.Done(summary)

	if err != nil {
		collectionFailuresTotal.WithLabelValues(failureReason(err)).Inc()
		r.logger.Error().
			Err(err).
			Int64("collected", summary.Collected).
			Dur("elapsed", elapsed).
			Msg("Collection failed")
		return nil, err
	}

	r.logger.Info().
		Int64("collected", summary.Collected).
		Int64("total", summary.Total).
		Bool("complete", summary.Complete()).
		Dur("elapsed", elapsed).
		Msg("Collection finished")

	return &workshop.Result{
		Records: r.records,
		Total:   r.total,
		Elapsed: elapsed,
	}, nil
}

func (r *run) collect(ctx context.Context, apiKey string, appID uint32) error {
	page, err := r.fetch(ctx, apiKey, appID, workshop.InitialCursor)
	if err != nil {
		return fmt.Errorf("fetch first page: %w", err)
	}

	items, itemsOK := page.Items()
	total, totalOK := page.TotalCount()
	if !itemsOK {
		return fmt.Errorf("%w: first page has no record list", ErrInvalidResponse)
	}
	if !totalOK {
		return fmt.Errorf("%w: first page has no numeric total", ErrInvalidResponse)
	}

	r.total = total
	r.accept(items, total)

	for page.HasMore() && int64(len(r.records)) < r.total && itemsOK && len(items) > 0 {
		cursor := page.NextCursor

		page, err = r.fetch(ctx, apiKey, appID, cursor)
		if err != nil {
			return fmt.Errorf("fetch page at cursor %q: %w", cursor, err)
		}

		items, itemsOK = page.Items()
		pageTotal, pageTotalOK := page.TotalCount()

		if (!itemsOK || len(items) == 0) && (!pageTotalOK || pageTotal != r.total) {
			return fmt.Errorf("%w: first page declared %d, page at cursor %q declared %s",
				ErrTotalMismatch, r.total, cursor, describeTotal(page))
		}

		reported := r.total
		if pageTotalOK {
			reported = pageTotal
		}
		if !itemsOK {
			items = nil
		}
		r.accept(items, reported)
	}

	return nil
}

// fetch retrieves one page. A nil page counts as an empty, malformed one.
func (r *run) fetch(ctx context.Context, apiKey string, appID uint32, cursor string) (*workshop.Page, error) {
	page, err := r.fetcher.FetchPage(ctx, apiKey, appID, cursor)
	if err != nil {
		return nil, err
	}
	if page == nil {
		page = &workshop.Page{}
	}
	return page, nil
}

// accept appends a page's records and reports progress against total.
func (r *run) accept(items []workshop.Record, total int64) {
	r.records = append(r.records, items...)

	pagesCollectedTotal.Inc()
	itemsCollectedTotal.Add(float64(len(items)))

	r.logger.Debug().
		Int("page_items", len(items)).
		Int("collected", len(r.records)).
		Int64("total", total).
		Msg("Page collected")

	r.reporter.Report(int64(len(r.records)), total)
}

func describeTotal(page *workshop.Page) string {
	if n, ok := page.TotalCount(); ok {
		return fmt.Sprintf("%d", n)
	}
	if len(page.Total) == 0 {
		return "no total"
	}
	return string(page.Total)
}

func failureReason(err error) string {
	switch {
	case errors.Is(err, ErrInvalidResponse):
		return "invalid_response"
	case errors.Is(err, ErrTotalMismatch):
		return "total_mismatch"
	case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
		return "cancelled"
	default:
		return "fetch"
	}
}
