package pagination

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

// DefaultPageSize is the page size used when Config.PageSize is zero.
const DefaultPageSize = 100

// ErrInvalidPageSize is returned for a negative page size.
var ErrInvalidPageSize = errors.New("page size must be a positive integer")

// Prometheus metrics for pagination.
var (
	paginationPagesTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "jira_pagination_pages_total",
		Help: "Total pages requested by operation",
	}, []string{"operation"})

	paginationItemsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "jira_pagination_items_total",
		Help: "Total items received across pages by operation",
	}, []string{"operation"})
)

// Page is one page of a paginated result.
type Page[T any] struct {
	// StartAt is the offset of the first item.
	StartAt int
	// MaxResults is the page size the server applied.
	MaxResults int
	// Total is the server-declared result size; 0 means unknown or empty.
	Total int
	// Items are the page contents in server order.
	Items []T
}

// PageFetcher fetches a single page starting at startAt.
type PageFetcher[T any] interface {
	FetchPage(ctx context.Context, startAt, maxResults int) (*Page[T], error)
}

// PageFetcherFunc adapts a function to PageFetcher.
type PageFetcherFunc[T any] func(ctx context.Context, startAt, maxResults int) (*Page[T], error)

// FetchPage calls f.
func (f PageFetcherFunc[T]) FetchPage(ctx context.Context, startAt, maxResults int) (*Page[T], error) {
	return f(ctx, startAt, maxResults)
}

// Config holds fetcher configuration.
type Config struct {
	// PageSize is the number of items requested per page. Values above the
	// server maximum are passed through unchanged.
	PageSize int
}

// DefaultConfig returns the default fetcher configuration.
func DefaultConfig() Config {
	return Config{PageSize: DefaultPageSize}
}

// Fetcher walks every page of a PageFetcher.
type Fetcher[T any] struct {
	source PageFetcher[T]
	config Config
	logger zerolog.Logger
}

// NewFetcher creates a fetcher. A zero page size is replaced by DefaultPageSize.
func NewFetcher[T any](source PageFetcher[T], config Config) *Fetcher[T] {
	if config.PageSize == 0 {
		config.PageSize = DefaultPageSize
	}
	return &Fetcher[T]{
		source: source,
		config: config,
		logger: log.With().Str("component", "pagination").Logger(),
	}
}

// WithLogger returns the fetcher with a replaced logger.
func (f *Fetcher[T]) WithLogger(logger zerolog.Logger) *Fetcher[T] {
	f.logger = logger
	return f
}

// FetchAll requests pages sequentially until the result set is exhausted and
// returns all items in server order. operation labels logs and metrics.
// On any error nothing is returned except the error.
func (f *Fetcher[T]) FetchAll(ctx context.Context, operation string) ([]T, error) {
	pageSize := f.config.PageSize
	if pageSize < 0 {
		return nil, fmt.Errorf("%w (got %d)", ErrInvalidPageSize, pageSize)
	}

	start := time.Now()
	all := make([]T, 0)
	startAt := 0
	total := 0
	pages := 0

	for {
		if err := ctx.Err(); err != nil {
			return nil, fmt.Errorf("%s cancelled at startAt=%d: %w", operation, startAt, err)
		}

		f.logger.Debug().
			Str("operation", operation).
			Int("start_at", startAt).
			Int("max_results", pageSize).
			Msg("Fetching page")

		page, err := f.source.FetchPage(ctx, startAt, pageSize)
		paginationPagesTotal.WithLabelValues(operation).Inc()
		pages++
		if err != nil {
			f.logger.Error().
				Err(err).
				Str("operation", operation).
				Int("start_at", startAt).
				Int("pages", pages).
				Msg("Page fetch failed")
			return nil, fmt.Errorf("%s page at startAt=%d: %w", operation, startAt, err)
		}

		var items []T
		if page != nil {
			items = page.Items
			if page.Total > 0 && total == 0 {
				total = page.Total
			}
		}

		all = append(all, items...)
		paginationItemsTotal.WithLabelValues(operation).Add(float64(len(items)))
		startAt += pageSize

		event := f.logger.Info().
			Str("operation", operation).
			Int("fetched", len(all))
		if total > 0 {
			event = event.Int("total", total)
		}
		event.Msg("Fetch progress")

		if len(items) < pageSize {
			break
		}
		if total > 0 && startAt >= total {
			break
		}
	}

	f.logger.Info().
		Str("operation", operation).
		Int("items", len(all)).
		Int("pages", pages).
		Dur("duration", time.Since(start)).
		Msg("Fetch complete")

	return all, nil
}
