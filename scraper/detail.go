package scraper

import (
	"context"
	"log/slog"
	"net/http"
)

// DetailFetcher fetches a single product detail page with bounded retries.
// Exhausting the retries is reported as a failure value, not an error, so
// the orchestrator can fall back to listing-derived data.
type DetailFetcher struct {
	client   *Client
	attempts int
}

// NewDetailFetcher binds the fetch client and the retry bound.
func NewDetailFetcher(client *Client, attempts int) *DetailFetcher {
	if attempts <= 0 {
		attempts = 1
	}
	return &DetailFetcher{client: client, attempts: attempts}
}

// Fetch returns the raw page body, or ok=false after every attempt failed.
// Any non-200 response or transport error counts as a failed attempt.
func (f *DetailFetcher) Fetch(ctx context.Context, pageURL string) ([]byte, bool) {
	for attempt := 1; attempt <= f.attempts; attempt++ {
		if ctx.Err() != nil {
			return nil, false
		}

		page, err := f.client.Get(ctx, "detail", pageURL)
		if err == nil && page.StatusCode == http.StatusOK {
			return page.Body, true
		}

		slog.Debug("detail fetch attempt failed",
			slog.String("url", pageURL),
			slog.Int("attempt", attempt),
			slog.Int("status", page.StatusCode),
			slog.Any("error", err),
		)
	}

	slog.Warn("detail fetch exhausted retries",
		slog.String("url", pageURL),
		slog.Int("attempts", f.attempts),
	)
	return nil, false
}
