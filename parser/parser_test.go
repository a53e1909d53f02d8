package parser

import (
	"testing"

	"mpbcrawl/models"
)

func facetRow(values map[string][]any) models.ListingRow {
	row := make(models.ListingRow, len(values))
	for k, v := range values {
		row[k] = models.Facet{Values: v}
	}
	return row
}

func TestFirstValue(t *testing.T) {
	row := facetRow(map[string][]any{
		"product_sku":   {"1686414"},
		"product_price": {float64(150000)},
		"empty":         {},
	})

	tests := []struct {
		name     string
		key      string
		def      string
		expected string
	}{
		{name: "string value", key: "product_sku", def: "", expected: "1686414"},
		{name: "numeric value", key: "product_price", def: "", expected: "150000"},
		{name: "empty slot", key: "empty", def: "fallback", expected: "fallback"},
		{name: "missing field", key: "nope", def: "fallback", expected: "fallback"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := FirstValue(row, tt.key, tt.def); got != tt.expected {
				t.Fatalf("FirstValue(%q) = %q, want %q", tt.key, got, tt.expected)
			}
		})
	}
}

func TestListingPrice(t *testing.T) {
	tests := []struct {
		name     string
		values   []any
		expected *float64
	}{
		{name: "numeric minor units", values: []any{float64(150000)}, expected: f(1500)},
		{name: "string minor units", values: []any{"99900"}, expected: f(999)},
		{name: "unparseable", values: []any{"free"}, expected: nil},
		{name: "absent", values: nil, expected: nil},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			row := models.ListingRow{}
			if tt.values != nil {
				row["product_price"] = models.Facet{Values: tt.values}
			}
			got := ListingPrice(row)
			if (got == nil) != (tt.expected == nil) {
				t.Fatalf("ListingPrice = %v, want %v", got, tt.expected)
			}
			if got != nil && *got != *tt.expected {
				t.Fatalf("ListingPrice = %v, want %v", *got, *tt.expected)
			}
		})
	}
}

func f(v float64) *float64 { return &v }

func TestParseListingPage(t *testing.T) {
	body := []byte(`{"total_results": 2500, "results": [{"product_sku": {"values": ["123"]}}]}`)
	page, err := ParseListingPage(body)
	if err != nil {
		t.Fatalf("parse listing page: %v", err)
	}
	if page.TotalResults != 2500 {
		t.Fatalf("total_results = %d, want 2500", page.TotalResults)
	}
	if len(page.Results) != 1 {
		t.Fatalf("results = %d, want 1", len(page.Results))
	}
	if got := FirstValue(page.Results[0], "product_sku", ""); got != "123" {
		t.Fatalf("sku = %q, want 123", got)
	}
}

func TestParseListingPageMalformed(t *testing.T) {
	if _, err := ParseListingPage([]byte("<html>not json</html>")); err == nil {
		t.Fatalf("expected parse error for malformed payload")
	}
}

const detailHTML = `<html><body>
<h1 class="product-name"> Markup Title </h1>
<div data-testid="product-details__shutter-count-attribute__title"><strong> 5500 </strong></div>
<script id="__NEXT_DATA__" type="application/json">{"props":{"pageProps":{
  "modelInfo":{"brand":{"name":"Canon"}},
  "productInfo":{
    "name":"Canon EOS R5",
    "sku":"1686414",
    "listPrice":1500.5,
    "condition":"used_like_new",
    "isSold":false,
    "attributes":[{"name":"SHUTTER_COUNT","content":" 4200 "}],
    "observations":[{"tierDescription":"Small scratch"},{"tierDescription":"Dust in viewfinder"}]
  }}}}</script>
</body></html>`

func TestExtractDetail(t *testing.T) {
	v, err := ExtractDetail([]byte(detailHTML), "https://x/product/canon-eos-r5/sku-1686414")
	if err != nil {
		t.Fatalf("extract detail: %v", err)
	}

	if v.ProductTitle != "Canon EOS R5" {
		t.Fatalf("title = %q, want structured payload name", v.ProductTitle)
	}
	if v.SKU != "1686414" {
		t.Fatalf("sku = %q, want 1686414", v.SKU)
	}
	if v.Price == nil || *v.Price != 1500.5 {
		t.Fatalf("price = %v, want 1500.5 passthrough", v.Price)
	}
	if v.Condition != "used_like_new" {
		t.Fatalf("condition = %q", v.Condition)
	}
	if v.Availability != models.InStock {
		t.Fatalf("availability = %q, want in_stock when not sold", v.Availability)
	}
	if v.ShutterCount != "4200" {
		t.Fatalf("shutter count = %q, want trimmed attribute content", v.ShutterCount)
	}
	if v.Notes != "Small scratch, Dust in viewfinder" {
		t.Fatalf("notes = %q, want joined observations", v.Notes)
	}
}

func TestExtractDetailSoldVariant(t *testing.T) {
	body := `<html><body><script id="__NEXT_DATA__">{"props":{"pageProps":{"productInfo":{"name":"X","isSold":true}}}}</script></body></html>`
	v, err := ExtractDetail([]byte(body), "https://x/product/a/sku-1")
	if err != nil {
		t.Fatalf("extract detail: %v", err)
	}
	if v.Availability != models.OutOfStock {
		t.Fatalf("availability = %q, want out_of_stock for sold variant", v.Availability)
	}
}

func TestExtractDetailMarkupFallbacks(t *testing.T) {
	body := `<html><body>
<h1 class="product-name"> Markup Title </h1>
<div data-testid="product-details__shutter-count-attribute__title"><strong> 5500 </strong></div>
<script id="__NEXT_DATA__">{"props":{"pageProps":{"productInfo":{"sku":"9"}}}}</script>
</body></html>`

	v, err := ExtractDetail([]byte(body), "https://x/product/a/sku-9")
	if err != nil {
		t.Fatalf("extract detail: %v", err)
	}
	if v.ProductTitle != "Markup Title" {
		t.Fatalf("title = %q, want rendered-markup fallback", v.ProductTitle)
	}
	if v.ShutterCount != "5500" {
		t.Fatalf("shutter count = %q, want rendered-markup fallback", v.ShutterCount)
	}
}

func TestExtractDetailBrandFallback(t *testing.T) {
	body := `<html><body><script id="__NEXT_DATA__">{"props":{"pageProps":{"modelInfo":{"brand":{"name":"Nikon"}}}}}</script></body></html>`
	v, err := ExtractDetail([]byte(body), "https://x/product/a/sku-2")
	if err != nil {
		t.Fatalf("extract detail: %v", err)
	}
	if v.ProductTitle != "Nikon" {
		t.Fatalf("title = %q, want brand-name fallback", v.ProductTitle)
	}
}

func TestExtractDetailBrokenPayload(t *testing.T) {
	tests := []struct {
		name string
		body string
	}{
		{name: "no embedded payload", body: `<html><body><p>nothing here</p></body></html>`},
		{name: "invalid embedded json", body: `<html><body><script id="__NEXT_DATA__">{broken</script></body></html>`},
		{name: "empty body", body: ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			v, err := ExtractDetail([]byte(tt.body), "https://x/product/a/sku-3")
			if err == nil {
				t.Fatalf("expected payload error to be reported")
			}
			if v.ProductTitle != "" {
				t.Fatalf("title = %q, want empty for unusable page", v.ProductTitle)
			}
			if v.Availability != models.InStock {
				t.Fatalf("availability = %q, want in_stock default", v.Availability)
			}
		})
	}
}
