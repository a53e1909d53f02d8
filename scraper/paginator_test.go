package scraper

import (
	"strings"
	"testing"
)

func TestTotalPages(t *testing.T) {
	tests := []struct {
		name     string
		total    int
		pageSize int
		expected int
	}{
		{name: "zero results", total: 0, pageSize: 1000, expected: 0},
		{name: "partial page", total: 999, pageSize: 1000, expected: 1},
		{name: "exactly divisible", total: 1000, pageSize: 1000, expected: 1},
		{name: "one past a boundary", total: 1001, pageSize: 1000, expected: 2},
		{name: "several pages", total: 2500, pageSize: 1000, expected: 3},
		{name: "negative total", total: -5, pageSize: 1000, expected: 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := TotalPages(tt.total, tt.pageSize); got != tt.expected {
				t.Fatalf("TotalPages(%d, %d) = %d, want %d", tt.total, tt.pageSize, got, tt.expected)
			}
		})
	}
}

func TestPaginatorPageURL(t *testing.T) {
	p := NewPaginator("http://search.test/product/query/", 1000)

	url := p.PageURL(2000)
	if !strings.HasPrefix(url, "http://search.test/product/query/?") {
		t.Fatalf("unexpected url prefix: %s", url)
	}
	if !strings.Contains(url, "start=2000") {
		t.Fatalf("url missing offset: %s", url)
	}
	if !strings.Contains(url, "rows=1000") {
		t.Fatalf("url missing page size: %s", url)
	}
	if !strings.Contains(url, "field_list=product_sku") {
		t.Fatalf("url missing field projection: %s", url)
	}
}
