// Package report reshapes the flat variant list of a run into the grouped
// product catalog and writes the durable run artifacts.
package report

import (
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"

	"mpbcrawl/models"
)

// skuMarker is the deterministic split point between a product's base URL
// and its per-variant suffix.
const skuMarker = "/sku-"

// RunInfo carries the run-level context the aggregator folds into the
// report alongside the variants.
type RunInfo struct {
	Status              string
	TotalResults        int
	Duplicates          int
	FailedListingPages  int
	FailedDetailFetches int
	CacheHits           int
	NewDetailFetches    int
	Duration            time.Duration
}

type groupKey struct {
	baseURL string
	title   string
}

// Aggregate groups variants by (base URL, title), preserving first-seen
// order of groups and of variants within a group. Two products sharing a
// title but not a base URL (or vice versa) stay distinct. The operation is
// deterministic for a given input sequence.
func Aggregate(variants []models.Variant, info RunInfo) *models.RunReport {
	groups := make(map[groupKey]int)
	products := make([]models.ProductGroup, 0)

	for _, v := range variants {
		key := groupKey{baseURL: baseURL(v.URL), title: v.ProductTitle}
		idx, ok := groups[key]
		if !ok {
			idx = len(products)
			groups[key] = idx
			products = append(products, models.ProductGroup{
				ProductURL:   key.baseURL,
				ProductTitle: key.title,
			})
		}
		products[idx].Variants = append(products[idx].Variants, normalize(v))
	}

	return &models.RunReport{
		ScrapeRunID:     uuid.NewString(),
		ScrapeTimestamp: time.Now().UTC().Format("2006-01-02T15:04:05Z"),
		Status:          info.Status,
		Stats: models.Stats{
			TotalVariantsExists:      info.TotalResults,
			TotalProductsScrapped:    len(products),
			TotalVariantsScrapped:    len(variants),
			DuplicateVariantsSkipped: info.Duplicates,
			FailedPages:              info.FailedListingPages + info.FailedDetailFetches,
			FailedListingPages:       info.FailedListingPages,
			FailedDetailFetches:      info.FailedDetailFetches,
			CacheHits:                info.CacheHits,
			NewDetailFetches:         info.NewDetailFetches,
			DurationSeconds:          int(info.Duration.Seconds()),
		},
		Products: products,
	}
}

func baseURL(variantURL string) string {
	if idx := strings.Index(variantURL, skuMarker); idx >= 0 {
		return variantURL[:idx]
	}
	return variantURL
}

func normalize(v models.Variant) models.ReportVariant {
	return models.ReportVariant{
		SKU:          v.SKU,
		Price:        v.Price,
		Condition:    nullableString(normalizeCondition(v.Condition)),
		Availability: v.Availability,
		ShutterCount: parseShutterCount(v.ShutterCount),
		Notes:        nullableString(v.Notes),
	}
}

// normalizeCondition turns "used_like_new" into "Used Like New".
func normalizeCondition(condition string) string {
	if condition == "" {
		return ""
	}
	words := strings.Split(strings.ReplaceAll(condition, "_", " "), " ")
	for i, word := range words {
		if word == "" {
			continue
		}
		words[i] = strings.ToUpper(word[:1]) + strings.ToLower(word[1:])
	}
	return strings.Join(words, " ")
}

func parseShutterCount(raw string) *int {
	trimmed := strings.TrimSpace(raw)
	if trimmed == "" {
		return nil
	}
	n, err := strconv.Atoi(trimmed)
	if err != nil {
		return nil
	}
	return &n
}

func nullableString(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}
