// Package sitemap fetches a site's sitemap XML and flattens it into a
// raw URL list, following sitemap-index entries recursively.
package sitemap

import (
	"context"
	"encoding/xml"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/corella-au/corella/internal/util"
)

// maxDepth bounds sitemap-index recursion. Indices nested deeper than
// this are almost certainly malformed or self-referential.
const maxDepth = 5

// SitemapIndex is the <sitemapindex> document listing child sitemaps.
type SitemapIndex struct {
	XMLName  xml.Name `xml:"sitemapindex"`
	Sitemaps []Loc    `xml:"sitemap"`
}

// URLSet is the flat <urlset> document listing page URLs.
type URLSet struct {
	XMLName xml.Name `xml:"urlset"`
	URLs    []Loc    `xml:"url"`
}

// Loc carries the <loc> element shared by both document types.
type Loc struct {
	Loc string `xml:"loc"`
}

// Config holds sitemap-fetch settings.
type Config struct {
	Timeout   time.Duration
	UserAgent string
}

// DefaultConfig returns sitemap-fetch settings used for production scans.
func DefaultConfig() *Config {
	return &Config{
		Timeout:   30 * time.Second,
		UserAgent: "Corella/1.0 (+https://corella.com.au/bot)",
	}
}

// Client fetches and flattens sitemaps.
type Client struct {
	config *Config
	httpc  *http.Client
}

// New creates a sitemap Client.
func New(cfg *Config) *Client {
	if cfg == nil {
		cfg = DefaultConfig()
	}
	return &Client{
		config: cfg,
		httpc:  &http.Client{Timeout: cfg.Timeout},
	}
}

// FetchURLs retrieves the sitemap at sitemapURL and returns every page
// URL it lists, flattening sitemap-index entries. Child sitemap
// failures are logged and skipped; an unreachable or unparseable
// top-level sitemap is fatal.
func (c *Client) FetchURLs(ctx context.Context, sitemapURL string) ([]string, error) {
	seen := make(map[string]struct{})
	return c.fetch(ctx, sitemapURL, 0, seen)
}

// fetch is the recursive worker behind FetchURLs. The seen set and
// depth cap guard against self-referential sitemap indices.
func (c *Client) fetch(ctx context.Context, sitemapURL string, depth int, seen map[string]struct{}) ([]string, error) {
	if depth > maxDepth {
		return nil, fmt.Errorf("sitemap index nested deeper than %d levels at %s", maxDepth, sitemapURL)
	}
	if _, visited := seen[sitemapURL]; visited {
		return nil, fmt.Errorf("sitemap index references itself: %s", sitemapURL)
	}
	seen[sitemapURL] = struct{}{}

	content, err := c.get(ctx, sitemapURL)
	if err != nil {
		return nil, err
	}

	// Sniff the document type before committing to a decode, the way
	// real-world sitemaps are told apart in practice.
	if strings.Contains(content, "<sitemapindex") {
		return c.fetchIndex(ctx, sitemapURL, content, depth, seen)
	}

	var urlset URLSet
	if err := xml.Unmarshal([]byte(content), &urlset); err != nil {
		return nil, fmt.Errorf("parsing sitemap %s: %w", sitemapURL, err)
	}

	urls := make([]string, 0, len(urlset.URLs))
	for _, entry := range urlset.URLs {
		validURL := validLoc(entry.Loc)
		if validURL == "" {
			log.Debug().Str("invalid_url", entry.Loc).Msg("Skipping invalid URL from sitemap")
			continue
		}
		urls = append(urls, validURL)
	}

	log.Debug().
		Str("sitemap_url", sitemapURL).
		Int("url_count", len(urls)).
		Msg("Extracted URLs from sitemap")

	return urls, nil
}

// fetchIndex flattens a <sitemapindex> document. Child fetch failures
// are logged and skipped, not fatal to the overall fetch.
func (c *Client) fetchIndex(ctx context.Context, indexURL, content string, depth int, seen map[string]struct{}) ([]string, error) {
	var index SitemapIndex
	if err := xml.Unmarshal([]byte(content), &index); err != nil {
		return nil, fmt.Errorf("parsing sitemap index %s: %w", indexURL, err)
	}

	var urls []string
	for _, child := range index.Sitemaps {
		childURL := validLoc(child.Loc)
		if childURL == "" {
			log.Warn().Str("url", child.Loc).Msg("Invalid child sitemap URL, skipping")
			continue
		}

		childURLs, err := c.fetch(ctx, childURL, depth+1, seen)
		if err != nil {
			log.Warn().Err(err).Str("url", childURL).Msg("Failed to fetch child sitemap, skipping")
			continue
		}
		urls = append(urls, childURLs...)
	}

	log.Debug().
		Str("sitemap_url", indexURL).
		Int("children", len(index.Sitemaps)).
		Int("total_url_count", len(urls)).
		Msg("Flattened sitemap index")

	return urls, nil
}

// validLoc trims and validates a <loc> value, repairing a missing
// scheme. An explicit scheme is kept as-is. Returns "" for anything
// that cannot be made into an absolute http/https URL.
func validLoc(raw string) string {
	return util.NormaliseURL(raw)
}

// get fetches the sitemap document body.
func (c *Client) get(ctx context.Context, sitemapURL string) (string, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, sitemapURL, nil)
	if err != nil {
		return "", err
	}
	req.Header.Set("User-Agent", c.config.UserAgent)

	resp, err := c.httpc.Do(req)
	if err != nil {
		return "", fmt.Errorf("fetching sitemap %s: %w", sitemapURL, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("failed to fetch sitemap %s: status %d", sitemapURL, resp.StatusCode)
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", fmt.Errorf("reading sitemap %s: %w", sitemapURL, err)
	}

	return string(body), nil
}
