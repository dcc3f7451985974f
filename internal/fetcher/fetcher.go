// Package fetcher retrieves one page's HTML for link extraction. It is
// the pipeline's "perform GET with timeout, get status+body+final URL"
// capability; everything else treats it as an interface.
package fetcher

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"time"

	"github.com/gocolly/colly/v2"
	"github.com/rs/zerolog/log"
)

// PageResponse is the outcome of fetching a single page. A non-2xx
// status is data, not an error; only transport failures surface as
// errors from FetchPage.
type PageResponse struct {
	URL          string        // Requested URL
	FinalURL     string        // URL after redirects
	StatusCode   int           // HTTP status of the page fetch
	HTML         string        // Response body (empty on non-200)
	ResponseTime time.Duration // Wall-clock fetch duration
}

// Config holds page-fetch settings.
type Config struct {
	Timeout     time.Duration // Per-page timeout
	UserAgent   string        // User agent for page fetches
	MaxBodySize int           // Response size cap in bytes
}

// DefaultConfig returns page-fetch settings used for production scans.
func DefaultConfig() *Config {
	return &Config{
		Timeout:     15 * time.Second,
		UserAgent:   "Corella/1.0 (+https://corella.com.au/bot)",
		MaxBodySize: 4 << 20,
	}
}

// Fetcher fetches pages with a colly collector per request.
type Fetcher struct {
	config *Config
	colly  *colly.Collector
}

// New creates a Fetcher with the given configuration. If config is nil,
// default configuration is used.
func New(config *Config) *Fetcher {
	if config == nil {
		config = DefaultConfig()
	}

	c := colly.NewCollector(
		colly.UserAgent(config.UserAgent),
		colly.MaxDepth(1),
		colly.AllowURLRevisit(),
		colly.MaxBodySize(config.MaxBodySize),
	)

	c.SetClient(&http.Client{
		Timeout: config.Timeout,
		Transport: &http.Transport{
			MaxIdleConnsPerHost: 25,
			MaxConnsPerHost:     50,
			IdleConnTimeout:     120 * time.Second,
			TLSHandshakeTimeout: 10 * time.Second,
			ForceAttemptHTTP2:   true,
		},
	})

	return &Fetcher{config: config, colly: c}
}

// FetchPage retrieves the page at pageURL and returns its HTML and
// status. Handlers are registered on a clone so concurrent callers do
// not share response state.
func (f *Fetcher) FetchPage(ctx context.Context, pageURL string) (*PageResponse, error) {
	parsed, err := url.Parse(pageURL)
	if err != nil || parsed.Scheme == "" || parsed.Host == "" {
		return nil, fmt.Errorf("invalid page URL: %s", pageURL)
	}

	start := time.Now()
	res := &PageResponse{URL: pageURL, FinalURL: pageURL}

	// Clone() starts with an empty callback set, so every handler has to
	// be registered here, including the request headers.
	clone := f.colly.Clone()

	// Browser-like headers to avoid being blocked by the site under audit
	clone.OnRequest(func(r *colly.Request) {
		r.Headers.Set("Accept", "text/html,application/xhtml+xml,application/xml;q=0.9,*/*;q=0.8")
		r.Headers.Set("Accept-Language", "en-AU,en;q=0.9")

		log.Debug().
			Str("url", r.URL.String()).
			Msg("Fetching page")
	})

	clone.OnResponse(func(r *colly.Response) {
		res.StatusCode = r.StatusCode
		res.FinalURL = r.Request.URL.String()
		if r.StatusCode == http.StatusOK {
			res.HTML = string(r.Body)
		}
	})

	var fetchErr error
	clone.OnError(func(r *colly.Response, err error) {
		fetchErr = err
		if r != nil {
			res.StatusCode = r.StatusCode
		}
	})

	done := make(chan error, 1)
	go func() {
		if err := clone.Visit(pageURL); err != nil {
			done <- err
			return
		}
		clone.Wait()
		done <- nil
	}()

	select {
	case err = <-done:
	case <-ctx.Done():
		return nil, ctx.Err()
	}
	res.ResponseTime = time.Since(start)

	// Colly reports non-2xx statuses through OnError; a response with a
	// status code is still data for the caller.
	if res.StatusCode != 0 {
		log.Debug().
			Str("url", pageURL).
			Int("status", res.StatusCode).
			Dur("response_time", res.ResponseTime).
			Msg("Page fetched")
		return res, nil
	}

	if fetchErr == nil {
		fetchErr = err
	}
	if fetchErr == nil {
		fetchErr = fmt.Errorf("no response received for %s", pageURL)
	}

	log.Debug().
		Err(fetchErr).
		Str("url", pageURL).
		Msg("Page fetch failed")

	return nil, fetchErr
}
