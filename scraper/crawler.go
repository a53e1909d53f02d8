// Package scraper drives the incremental crawl: paginated listing walk,
// per-variant dedup, cache-aware detail enrichment, and failure accounting.
package scraper

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	lru "github.com/hashicorp/golang-lru/v2"

	"mpbcrawl/config"
	"mpbcrawl/models"
	"mpbcrawl/notes"
	"mpbcrawl/parser"
	"mpbcrawl/report"
)

// Crawler runs one end-to-end crawl against the catalog. All mutable run
// state lives in a per-run context constructed inside Run, so one Crawler
// can execute any number of independent runs.
type Crawler struct {
	cfg       *config.Config
	client    *Client
	fetcher   *DetailFetcher
	paginator *Paginator
	cache     *notes.Cache
	metrics   *Metrics
}

// New builds a crawler with its own fetch client.
func New(cfg *config.Config, cache *notes.Cache, metrics *Metrics) (*Crawler, error) {
	client, err := NewClient(cfg, metrics)
	if err != nil {
		return nil, fmt.Errorf("build fetch client: %w", err)
	}
	return &Crawler{
		cfg:       cfg,
		client:    client,
		fetcher:   NewDetailFetcher(client, cfg.Crawl.DetailRetries),
		paginator: NewPaginator(cfg.Crawl.SearchURL, cfg.Crawl.PageSize),
		cache:     cache,
		metrics:   metrics,
	}, nil
}

// runState is the process-local state of a single run.
type runState struct {
	seen     *lru.Cache[string, struct{}]
	variants []models.Variant
	start    time.Time

	totalResults     int
	duplicates       int
	failedListing    int
	failedDetail     int
	cacheHits        int
	newDetailFetches int
}

func newRunState(seenCapacity int) (*runState, error) {
	// Beyond capacity the oldest URLs age out of the dedup set and a
	// re-listed variant would be counted again; the capacity default is
	// far above any real catalog size.
	seen, err := lru.New[string, struct{}](seenCapacity)
	if err != nil {
		return nil, fmt.Errorf("build seen set: %w", err)
	}
	return &runState{seen: seen, start: time.Now()}, nil
}

// Run walks the full listing from page one, enriching or reusing notes per
// variant, and returns the aggregated report. No fetch or parse failure
// aborts the run; cancellation ends it with status "failed", still
// producing a best-effort report.
func (c *Crawler) Run(ctx context.Context) (*models.RunReport, error) {
	if ctx == nil {
		ctx = context.Background()
	}

	st, err := newRunState(c.cfg.Crawl.SeenCapacity)
	if err != nil {
		return nil, err
	}

	slog.Info("starting crawl",
		slog.String("search_url", c.cfg.Crawl.SearchURL),
		slog.Int("page_size", c.paginator.PageSize()),
		slog.Int("known_notes", c.cache.Len()),
	)

	totalPages := 0
	first, err := c.fetchListing(ctx, c.paginator.PageURL(0))
	if err != nil {
		// A dead or malformed first page degrades to an empty run.
		st.failedListing++
		c.metrics.IncListingPage("failed")
		slog.Warn("first listing page failed", slog.Any("error", err))
	} else {
		c.metrics.IncListingPage("fetched")
		st.totalResults = first.TotalResults
		c.processRows(ctx, st, first.Results)
		totalPages = TotalPages(first.TotalResults, c.paginator.PageSize())
	}

	if max := c.cfg.Crawl.MaxPages; max > 0 && totalPages > max {
		totalPages = max
	}

	for pageIndex := 1; pageIndex < totalPages; pageIndex++ {
		if ctx.Err() != nil {
			break
		}

		offset := pageIndex * c.paginator.PageSize()
		page, err := c.fetchListing(ctx, c.paginator.PageURL(offset))
		if err != nil {
			st.failedListing++
			c.metrics.IncListingPage("failed")
			slog.Warn("listing page failed",
				slog.Int("offset", offset),
				slog.Any("error", err),
			)
			continue
		}
		c.metrics.IncListingPage("fetched")
		c.processRows(ctx, st, page.Results)
	}

	status := models.StatusCompleted
	if ctx.Err() != nil {
		status = models.StatusFailed
	}

	rep := report.Aggregate(st.variants, report.RunInfo{
		Status:              status,
		TotalResults:        st.totalResults,
		Duplicates:          st.duplicates,
		FailedListingPages:  st.failedListing,
		FailedDetailFetches: st.failedDetail,
		CacheHits:           st.cacheHits,
		NewDetailFetches:    st.newDetailFetches,
		Duration:            time.Since(st.start),
	})

	slog.Info("crawl finished",
		slog.String("status", status),
		slog.Int("variants", len(st.variants)),
		slog.Int("cache_hits", st.cacheHits),
		slog.Int("duplicates_skipped", st.duplicates),
		slog.Int("failed_listing_pages", st.failedListing),
		slog.Int("failed_detail_fetches", st.failedDetail),
	)

	return rep, nil
}

func (c *Crawler) fetchListing(ctx context.Context, pageURL string) (*models.ListingPage, error) {
	page, err := c.client.Get(ctx, "listing", pageURL)
	if err != nil {
		return nil, err
	}
	parsed, err := parser.ParseListingPage(page.Body)
	if err != nil {
		return nil, err
	}
	return parsed, nil
}

// processRows runs the per-row state machine over one listing page.
func (c *Crawler) processRows(ctx context.Context, st *runState, rows []models.ListingRow) {
	for _, row := range rows {
		if ctx.Err() != nil {
			return
		}
		c.processRow(ctx, st, row)
	}
}

func (c *Crawler) processRow(ctx context.Context, st *runState, row models.ListingRow) {
	sku := parser.FirstValue(row, "product_sku", "")
	if sku == "" {
		c.metrics.IncRowDiscarded()
		return
	}

	slug := parser.FirstValue(row, "model_url_segment", "")
	productURL := variantURL(c.cfg.Crawl.CatalogBaseURL, slug, sku)

	if st.seen.Contains(productURL) {
		st.duplicates++
		c.metrics.IncDuplicate()
		return
	}
	st.seen.Add(productURL, struct{}{})

	baseline := models.Variant{
		ProductTitle: parser.FirstValue(row, "model_name", ""),
		SKU:          sku,
		Price:        parser.ListingPrice(row),
		Condition:    parser.FirstValue(row, "product_condition", ""),
		Availability: models.InStock,
		ShutterCount: parser.FirstValue(row, "product_shutter_count", ""),
		URL:          productURL,
	}

	// Cache hit: the notes were enriched by an earlier run, no network
	// round trip needed for this variant.
	if cached, ok := c.cache.Get(sku); ok {
		baseline.Notes = cached
		st.cacheHits++
		c.metrics.IncCacheHit()
		st.variants = append(st.variants, baseline)
		return
	}

	st.newDetailFetches++
	body, ok := c.fetcher.Fetch(ctx, productURL)
	if !ok {
		st.failedDetail++
		c.metrics.IncDetailFetch(OutcomeFetchFailed)
		st.variants = append(st.variants, baseline)
		return
	}

	detail, parseErr := parser.ExtractDetail(body, productURL)
	if parseErr != nil {
		slog.Debug("detail payload degraded to markup fallbacks",
			slog.String("url", productURL),
			slog.Any("error", parseErr),
		)
	}
	if detail.ProductTitle == "" {
		// Fetched but unusable; keep the listing-derived record.
		st.failedDetail++
		c.metrics.IncDetailFetch(OutcomeUnusable)
		st.variants = append(st.variants, baseline)
		return
	}
	if detail.SKU == "" {
		detail.SKU = sku
	}

	c.metrics.IncDetailFetch(OutcomeEnriched)
	st.variants = append(st.variants, detail)
	c.cache.Append(ctx, detail.SKU, detail.Notes)
}

func variantURL(catalogBaseURL, slug, sku string) string {
	return fmt.Sprintf("%s/product/%s/sku-%s",
		strings.TrimRight(catalogBaseURL, "/"), slug, sku)
}
