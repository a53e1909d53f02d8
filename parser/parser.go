// Package parser extracts typed fields from search-service rows and
// product detail pages. Extraction is lenient: missing fields resolve to
// zero values, and parse failures are returned as errors the caller may
// ignore rather than swallowed here.
package parser

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strconv"
	"strings"

	"github.com/PuerkitoBio/goquery"

	"mpbcrawl/models"
)

// ParseError marks a payload that could not be decoded. Callers treat most
// parse errors as a degraded page, not a run failure.
type ParseError struct {
	What string
	Err  error
}

func (e *ParseError) Error() string {
	return fmt.Sprintf("parse %s: %v", e.What, e.Err)
}

func (e *ParseError) Unwrap() error {
	return e.Err
}

// ParseListingPage decodes one search-service response body.
func ParseListingPage(body []byte) (*models.ListingPage, error) {
	var page models.ListingPage
	if err := json.Unmarshal(body, &page); err != nil {
		return nil, &ParseError{What: "listing page", Err: err}
	}
	return &page, nil
}

// FirstValue returns the first value of a facet-style field as a string,
// or def when the field is absent or empty.
func FirstValue(row models.ListingRow, key, def string) string {
	facet, ok := row[key]
	if !ok || len(facet.Values) == 0 {
		return def
	}
	return stringify(facet.Values[0], def)
}

func stringify(v any, def string) string {
	switch t := v.(type) {
	case string:
		return t
	case float64:
		return strconv.FormatFloat(t, 'f', -1, 64)
	case json.Number:
		return t.String()
	case bool:
		return strconv.FormatBool(t)
	case nil:
		return def
	default:
		return fmt.Sprint(t)
	}
}

// ListingPrice converts the listing's minor-unit price to a major-unit
// decimal. Returns nil when the field is absent or unparseable.
func ListingPrice(row models.ListingRow) *float64 {
	raw := FirstValue(row, "product_price", "")
	if raw == "" {
		return nil
	}
	minor, err := strconv.ParseFloat(raw, 64)
	if err != nil {
		return nil
	}
	major := minor / 100
	return &major
}

// detail-page payload shapes, mirroring the embedded page data.

type nextData struct {
	Props struct {
		PageProps detailPayload `json:"pageProps"`
	} `json:"props"`
}

type detailPayload struct {
	ModelInfo   modelInfo   `json:"modelInfo"`
	ProductInfo productInfo `json:"productInfo"`
}

type modelInfo struct {
	Brand struct {
		Name string `json:"name"`
	} `json:"brand"`
}

type productInfo struct {
	Name         string        `json:"name"`
	SKU          string        `json:"sku"`
	ListPrice    *float64      `json:"listPrice"`
	Condition    string        `json:"condition"`
	IsSold       bool          `json:"isSold"`
	Attributes   []attribute   `json:"attributes"`
	Observations []observation `json:"observations"`
}

type attribute struct {
	Name    string `json:"name"`
	Content string `json:"content"`
}

type observation struct {
	TierDescription string `json:"tierDescription"`
}

// ExtractDetail builds a Variant from a fetched detail page. Every field
// walks its fallback chain (structured payload first, rendered markup
// second); a page with no usable embedded payload still yields whatever the
// markup carries. The returned error reports a broken embedded payload and
// is informational only.
func ExtractDetail(body []byte, url string) (models.Variant, error) {
	doc, docErr := goquery.NewDocumentFromReader(bytes.NewReader(body))
	if docErr != nil {
		doc = nil
	}

	var payload detailPayload
	var payloadErr error
	if raw := findText(doc, "script#__NEXT_DATA__"); raw != "" {
		var data nextData
		if err := json.Unmarshal([]byte(raw), &data); err != nil {
			payloadErr = &ParseError{What: "detail payload", Err: err}
		} else {
			payload = data.Props.PageProps
		}
	} else {
		payloadErr = &ParseError{What: "detail payload", Err: fmt.Errorf("embedded data not found")}
	}

	info := payload.ProductInfo

	title := info.Name
	if title == "" {
		title = findText(doc, ".product-name")
	}
	if title == "" {
		title = payload.ModelInfo.Brand.Name
	}

	availability := models.InStock
	if info.IsSold {
		availability = models.OutOfStock
	}

	v := models.Variant{
		ProductTitle: title,
		SKU:          info.SKU,
		Price:        info.ListPrice,
		Condition:    info.Condition,
		Availability: availability,
		ShutterCount: shutterCount(info, doc),
		Notes:        joinObservations(info.Observations),
		URL:          url,
	}
	return v, payloadErr
}

func shutterCount(info productInfo, doc *goquery.Document) string {
	for _, attr := range info.Attributes {
		if strings.EqualFold(attr.Name, "shutter_count") {
			if content := strings.TrimSpace(attr.Content); content != "" {
				return content
			}
			break
		}
	}
	return findText(doc, `[data-testid="product-details__shutter-count-attribute__title"] strong`)
}

func joinObservations(obs []observation) string {
	parts := make([]string, 0, len(obs))
	for _, o := range obs {
		parts = append(parts, o.TierDescription)
	}
	return strings.Join(parts, ", ")
}

func findText(doc *goquery.Document, selector string) string {
	if doc == nil {
		return ""
	}
	return strings.TrimSpace(doc.Find(selector).First().Text())
}
