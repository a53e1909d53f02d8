// Package models defines data structures for the crawler.
package models

// Availability values for a variant.
const (
	InStock    = "in_stock"
	OutOfStock = "out_of_stock"
)

// Run status values.
const (
	StatusCompleted = "completed"
	StatusFailed    = "failed"
)

// Facet is one multi-valued field slot in a search-service result row.
// Values can be strings or numbers depending on the field.
type Facet struct {
	Values []any `json:"values"`
}

// ListingRow is a single raw record from a search-result page.
type ListingRow map[string]Facet

// ListingPage mirrors the search-service response payload.
type ListingPage struct {
	TotalResults int          `json:"total_results"`
	Results      []ListingRow `json:"results"`
}

// Variant is the canonical in-memory form of one scraped product variant.
// Price is nil when neither the listing nor the detail page carried one.
type Variant struct {
	ProductTitle string
	SKU          string
	Price        *float64
	Condition    string
	Availability string
	ShutterCount string
	Notes        string
	URL          string
}

// ReportVariant is the aggregated, normalized form of a Variant as it
// appears in the final report. Nil pointers serialize as JSON null.
type ReportVariant struct {
	SKU          string   `json:"sku"`
	Price        *float64 `json:"price"`
	Condition    *string  `json:"condition"`
	Availability string   `json:"availability"`
	ShutterCount *int     `json:"shutter_count"`
	Notes        *string  `json:"notes"`
}

// ProductGroup collects the variants sharing a base catalog URL and title.
type ProductGroup struct {
	ProductURL   string          `json:"product_url"`
	ProductTitle string          `json:"product_title"`
	Variants     []ReportVariant `json:"variants"`
}

// Stats is the counters block of a run report. FailedPages is the legacy
// combined view; the two split counters are the authoritative ones.
type Stats struct {
	TotalVariantsExists      int `json:"total_variants_exists"`
	TotalProductsScrapped    int `json:"total_products_scrapped"`
	TotalVariantsScrapped    int `json:"total_variants_scrapped"`
	DuplicateVariantsSkipped int `json:"duplicate_variants_skipped"`
	FailedPages              int `json:"failed_pages"`
	FailedListingPages       int `json:"failed_listing_pages"`
	FailedDetailFetches      int `json:"failed_detail_fetches"`
	CacheHits                int `json:"cache_hits"`
	NewDetailFetches         int `json:"new_detail_fetches"`
	DurationSeconds          int `json:"duration_seconds"`
}

// RunReport is the durable output of one crawl run.
type RunReport struct {
	ScrapeRunID     string         `json:"scrape_run_id"`
	ScrapeTimestamp string         `json:"scrape_timestamp"`
	Status          string         `json:"status"`
	Stats           Stats          `json:"stats"`
	Products        []ProductGroup `json:"products"`
}
