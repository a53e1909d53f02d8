package scraper

import (
	"fmt"
	"net/url"
	"strings"
)

// Search-service query parameters shared by every listing request.
// field_list is the projection the crawler actually consumes.
var searchFields = []string{
	"model_name",
	"model_description",
	"product_price",
	"model_url_segment",
	"product_sku",
	"product_condition",
	"product_shutter_count",
	"product_id",
	"model_id",
}

// Paginator builds listing-page URLs at a fixed page size. The first page
// is offset 0; follow-up pages step the offset by the page size.
type Paginator struct {
	searchURL string
	pageSize  int
}

// NewPaginator binds the search endpoint and page size.
func NewPaginator(searchURL string, pageSize int) *Paginator {
	return &Paginator{
		searchURL: strings.TrimRight(searchURL, "?"),
		pageSize:  pageSize,
	}
}

// PageURL returns the search request URL for the given result offset.
func (p *Paginator) PageURL(offset int) string {
	params := url.Values{}
	params.Set("filter_query[object_type]", "product")
	params.Set("filter_query[product_condition_star_rating]", "[1 TO 5] AND NOT 0")
	params.Set("filter_query[model_market]", "EU")
	params.Set("filter_query[model_available]", "true")
	params.Set("filter_query[model_is_published_out]", "true")
	for _, field := range searchFields {
		params.Add("field_list", field)
	}
	params.Set("sort[product_last_online]", "DESC")
	params.Set("facet_minimum_count", "1")
	params.Set("minimum_match", "100%")
	params.Set("start", fmt.Sprintf("%d", offset))
	params.Set("rows", fmt.Sprintf("%d", p.pageSize))

	return p.searchURL + "?" + params.Encode()
}

// PageSize returns the fixed page size.
func (p *Paginator) PageSize() int {
	return p.pageSize
}

// TotalPages is the ceiling page count for totalResults. An exactly
// divisible total must not produce a trailing empty page: 1000 results at
// page size 1000 is one page, not two.
func TotalPages(totalResults, pageSize int) int {
	if totalResults <= 0 || pageSize <= 0 {
		return 0
	}
	return (totalResults + pageSize - 1) / pageSize
}
