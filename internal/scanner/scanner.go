// Package scanner drives the crawl-and-check pipeline: it walks the
// cleaned sitemap URL list one page at a time, extracts each page's
// links, verifies them with bounded concurrency, and aggregates the
// scan report and its 404 list.
package scanner

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"

	"github.com/corella-au/corella/internal/extractor"
	"github.com/corella-au/corella/internal/fetcher"
	"github.com/corella-au/corella/internal/verifier"
)

// ErrNoURLs is returned when a scan is started with nothing to scan.
// It is the only fatal condition: everything else degrades into report
// fields.
var ErrNoURLs = errors.New("no URLs to scan")

// PageFetcher is the page-retrieval capability the scanner depends on.
// Implemented by internal/fetcher; stubbed in tests.
type PageFetcher interface {
	FetchPage(ctx context.Context, pageURL string) (*fetcher.PageResponse, error)
}

// Config holds orchestration settings, constructed once per run and
// passed down; the scanner never reads the environment.
type Config struct {
	WorkersPerBatch int           // Parallel link checks per batch
	BatchDelay      time.Duration // Politeness pause between batches
	PageDelay       time.Duration // Politeness pause between pages
	MaxPages        int           // 0 = no cap
}

// DefaultConfig returns orchestration settings used for production scans.
func DefaultConfig() *Config {
	return &Config{
		WorkersPerBatch: 10,
		BatchDelay:      500 * time.Millisecond,
		PageDelay:       time.Second,
	}
}

// Scanner owns one site's crawl-and-check pipeline.
type Scanner struct {
	config       *Config
	pages        PageFetcher
	checker      LinkChecker
	extractorCfg *extractor.Config
}

// New creates a Scanner from its collaborators. Nil configs fall back
// to defaults.
func New(cfg *Config, pages PageFetcher, checker LinkChecker, extractorCfg *extractor.Config) *Scanner {
	if cfg == nil {
		cfg = DefaultConfig()
	}
	if extractorCfg == nil {
		extractorCfg = extractor.DefaultConfig()
	}
	return &Scanner{
		config:       cfg,
		pages:        pages,
		checker:      checker,
		extractorCfg: extractorCfg,
	}
}

// Scan processes every URL in the cleaned sitemap list and returns the
// aggregated report. Pages are scanned strictly one at a time; only
// link verification within a page runs in parallel. Page fetch and
// link check failures never abort the scan.
func (s *Scanner) Scan(ctx context.Context, urls []string) (*Report, error) {
	if len(urls) == 0 {
		return nil, ErrNoURLs
	}

	if s.config.MaxPages > 0 && len(urls) > s.config.MaxPages {
		log.Info().
			Int("total", len(urls)).
			Int("cap", s.config.MaxPages).
			Msg("Page cap applied, truncating URL list")
		urls = urls[:s.config.MaxPages]
	}

	report := &Report{
		ScanID:    uuid.New().String(),
		StartedAt: time.Now().UTC(),
		Pages:     make([]PageResult, 0, len(urls)),
		Errors404: make([]BrokenLink, 0),
	}

	// Per-scan cache: a target linked from many pages is checked once
	checker := newCachedChecker(s.checker)

	pool := &batchPool{
		checker:   checker,
		batchSize: s.config.WorkersPerBatch,
		batchDelay: func(ctx context.Context) {
			pause(ctx, s.config.BatchDelay)
		},
	}

	log.Info().
		Str("scan_id", report.ScanID).
		Int("pages", len(urls)).
		Int("workers_per_batch", s.config.WorkersPerBatch).
		Msg("Starting scan")

	for i, pageURL := range urls {
		pageResult := s.scanPage(ctx, pageURL, pool)
		s.record(report, pageResult)

		if i < len(urls)-1 {
			pause(ctx, s.config.PageDelay)
		}
	}

	report.Duration = time.Since(report.StartedAt)

	log.Info().
		Str("scan_id", report.ScanID).
		Int("pages_scanned", report.PagesScanned).
		Int("links_checked", report.LinksChecked).
		Int("unique_targets", checker.cache.Len()).
		Int("errors_404", len(report.Errors404)).
		Dur("duration", report.Duration).
		Msg("Scan complete")

	return report, nil
}

// scanPage fetches one page, extracts its links, and verifies the
// checkable subset in batches.
func (s *Scanner) scanPage(ctx context.Context, pageURL string, pool *batchPool) PageResult {
	result := PageResult{URL: pageURL}

	page, err := s.pages.FetchPage(ctx, pageURL)
	if err != nil {
		log.Warn().Err(err).Str("url", pageURL).Msg("Page unreachable, recording and continuing")
		return result
	}
	result.StatusCode = page.StatusCode
	if page.StatusCode != http.StatusOK {
		log.Warn().
			Str("url", pageURL).
			Int("status", page.StatusCode).
			Msg("Page fetch returned non-200, recording and continuing")
		return result
	}
	result.Accessible = true

	links, err := extractor.ExtractLinks(page.HTML, pageURL, s.extractorCfg)
	if err != nil {
		log.Warn().Err(err).Str("url", pageURL).Msg("Link extraction failed, recording page without links")
		return result
	}
	result.Links = links

	checkable := make([]extractor.Link, 0, len(links))
	for _, link := range links {
		if verifier.IsCheckable(link) {
			checkable = append(checkable, link)
		}
	}

	result.Checks = pool.checkAll(ctx, checkable)

	for _, check := range result.Checks {
		switch check.Status {
		case verifier.StatusOK:
			result.OKCount++
		case verifier.StatusBroken:
			result.BrokenCount++
		case verifier.StatusWarning:
			result.WarningCount++
		case verifier.StatusTimeout:
			result.TimeoutCount++
		default:
			result.ErrorCount++
		}
	}
	if len(result.Checks) > 0 {
		result.SuccessRate = float64(result.OKCount) / float64(len(result.Checks))
	}

	return result
}

// record folds one page's outcome into the running report. Only the
// single orchestrating flow touches these counters, after each page's
// batches have settled.
func (s *Scanner) record(report *Report, page PageResult) {
	report.Pages = append(report.Pages, page)
	report.PagesScanned++
	if page.Accessible {
		report.PagesSucceeded++
	} else {
		report.PagesFailed++
	}

	report.LinksChecked += len(page.Checks)
	report.OKCount += page.OKCount
	report.BrokenCount += page.BrokenCount
	report.WarningCount += page.WarningCount
	report.ErrorCount += page.ErrorCount
	report.TimeoutCount += page.TimeoutCount

	for _, check := range page.Checks {
		if check.Link.IsInternal {
			report.LinksInternal++
		} else {
			report.LinksExternal++
		}

		if check.Status == verifier.StatusBroken && check.StatusCode == http.StatusNotFound {
			report.Errors404 = append(report.Errors404, BrokenLink{
				URL:        check.Link.TargetURL,
				FoundOn:    check.Link.FoundOn,
				LinkText:   check.Link.Text,
				Line:       check.Link.Line,
				IsInternal: check.Link.IsInternal,
			})
		}
	}
}

// pause sleeps for the politeness delay, returning early if the
// context ends.
func pause(ctx context.Context, d time.Duration) {
	if d <= 0 {
		return
	}
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-timer.C:
	case <-ctx.Done():
	}
}
