package scraper

import (
	"context"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"net/url"
	"sync"
	"time"

	"github.com/gocolly/colly/v2"
	"golang.org/x/time/rate"

	"mpbcrawl/config"
)

// Browser-shaped headers sent with every request, matching what the
// search service expects from the storefront.
var defaultHeaders = map[string]string{
	"accept":           "application/json, text/plain, */*",
	"accept-language":  "en-US,en;q=0.9",
	"content-language": "nl_NL",
	"referer":          "https://www.mpb.com/nl-nl/",
}

// Page is one fetched response.
type Page struct {
	StatusCode int
	Body       []byte
}

// Client issues single blocking page fetches through a colly collector.
// It is intentionally sequential: one request at a time, each gated by the
// politeness rate limiter. Not safe for concurrent use, which the crawl
// contract already forbids.
type Client struct {
	collector *colly.Collector
	limiter   *rate.Limiter
	metrics   *Metrics

	mu       sync.Mutex
	lastPage Page
	lastErr  error
}

// NewClient builds a client configured from cfg.
func NewClient(cfg *config.Config, metrics *Metrics) (*Client, error) {
	parsed, err := url.Parse(cfg.Crawl.CatalogBaseURL)
	if err != nil {
		return nil, fmt.Errorf("parse catalog base url: %w", err)
	}
	if parsed.Host == "" {
		return nil, fmt.Errorf("catalog base url must include a host")
	}

	collector := colly.NewCollector(
		colly.UserAgent(cfg.Crawl.UserAgent),
		colly.AllowURLRevisit(),
	)
	collector.SetRequestTimeout(cfg.Crawl.Timeout)
	collector.IgnoreRobotsTxt = !cfg.Crawl.RespectRobotsTxt
	collector.WithTransport(&http.Transport{
		Proxy: http.ProxyFromEnvironment,
		DialContext: (&net.Dialer{
			Timeout:   cfg.Crawl.Timeout,
			KeepAlive: 30 * time.Second,
		}).DialContext,
		MaxIdleConns:        100,
		IdleConnTimeout:     90 * time.Second,
		TLSHandshakeTimeout: 10 * time.Second,
	})
	if cfg.Crawl.ProxyURL != "" {
		if err := collector.SetProxy(cfg.Crawl.ProxyURL); err != nil {
			return nil, fmt.Errorf("configure proxy: %w", err)
		}
	}

	c := &Client{
		collector: collector,
		limiter:   rate.NewLimiter(rate.Limit(cfg.Crawl.RequestsPerSecond), 1),
		metrics:   metrics,
	}

	collector.OnRequest(func(r *colly.Request) {
		for k, v := range defaultHeaders {
			r.Headers.Set(k, v)
		}
		r.Ctx.Put("start", time.Now())
	})

	collector.OnResponse(func(r *colly.Response) {
		c.mu.Lock()
		c.lastPage = Page{StatusCode: r.StatusCode, Body: r.Body}
		c.mu.Unlock()
		if start, ok := r.Request.Ctx.GetAny("start").(time.Time); ok {
			c.metrics.ObserveDuration(time.Since(start))
		}
	})

	collector.OnError(func(r *colly.Response, err error) {
		status := 0
		if r != nil {
			status = r.StatusCode
		}
		c.mu.Lock()
		c.lastPage = Page{StatusCode: status}
		c.lastErr = err
		c.mu.Unlock()

		classified := Classify(err, status)
		if classified != nil {
			c.metrics.IncError(classified.Kind)
		}
		requestURL := ""
		if r != nil && r.Request != nil && r.Request.URL != nil {
			requestURL = r.Request.URL.String()
		}
		slog.Debug("request error",
			slog.String("url", requestURL),
			slog.Int("status", status),
			slog.Any("error", err),
		)
	})

	return c, nil
}

// SetTransport swaps the underlying RoundTripper; tests inject mock
// transports here.
func (c *Client) SetTransport(rt http.RoundTripper) {
	c.collector.WithTransport(rt)
}

// Get fetches one page after waiting on the politeness limiter. A non-nil
// error means the request never produced a response; a non-200 response is
// returned as a Page with its status and a FetchError.
func (c *Client) Get(ctx context.Context, phase, pageURL string) (Page, error) {
	if err := c.limiter.Wait(ctx); err != nil {
		return Page{}, err
	}

	c.mu.Lock()
	c.lastPage = Page{}
	c.lastErr = nil
	c.mu.Unlock()

	c.metrics.IncRequest(phase)
	visitErr := c.collector.Visit(pageURL)

	c.mu.Lock()
	page, fetchErr := c.lastPage, c.lastErr
	c.mu.Unlock()

	if fetchErr == nil {
		fetchErr = visitErr
	}
	if classified := Classify(fetchErr, page.StatusCode); classified != nil {
		return page, classified
	}
	return page, nil
}
