package api

import (
	"crypto/subtle"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/getsentry/sentry-go"
	"github.com/rs/zerolog/log"

	"github.com/corella-au/corella/internal/scanner"
	"github.com/corella-au/corella/internal/urlclean"
)

// ScanRequest is the body accepted by the on-demand scan endpoint.
// All fields are optional; an empty body runs a default scan.
type ScanRequest struct {
	SitemapURL string `json:"sitemap_url,omitempty"`
	Notify     *bool  `json:"notify,omitempty"`
	MaxPages   int    `json:"max_pages,omitempty"`
}

// SitemapStats summarises the URL discovery and cleaning phase.
type SitemapStats struct {
	URL           string          `json:"url"`
	OriginalCount int             `json:"original_count"`
	CleanedCount  int             `json:"cleaned_count"`
	ScannedCount  int             `json:"scanned_count"`
	Cleaning      urlclean.Report `json:"cleaning"`
}

// ScanStats summarises the verification phase.
type ScanStats struct {
	ScanID         string  `json:"scan_id"`
	PagesScanned   int     `json:"pages_scanned"`
	PagesSucceeded int     `json:"pages_succeeded"`
	PagesFailed    int     `json:"pages_failed"`
	LinksChecked   int     `json:"links_checked"`
	LinksInternal  int     `json:"links_internal"`
	LinksExternal  int     `json:"links_external"`
	OKCount        int     `json:"ok_count"`
	BrokenCount    int     `json:"broken_count"`
	WarningCount   int     `json:"warning_count"`
	ErrorCount     int     `json:"error_count"`
	TimeoutCount   int     `json:"timeout_count"`
	SuccessRate    float64 `json:"success_rate"`
	DurationMs     int64   `json:"duration_ms"`
}

// NotificationStats reports whether and what the scan notified.
type NotificationStats struct {
	Enabled bool `json:"enabled"`
	Sent    bool `json:"sent"`
	Count   int  `json:"count"`
}

// ScanResponse is the full result returned to the caller.
type ScanResponse struct {
	Success      bool                 `json:"success"`
	Timestamp    string               `json:"timestamp"`
	RequestID    string               `json:"request_id,omitempty"`
	Sitemap      SitemapStats         `json:"sitemap"`
	Scan         ScanStats            `json:"scan"`
	Errors404    []scanner.BrokenLink `json:"errors_404"`
	Notification NotificationStats    `json:"notification"`
}

// scanOptions is the resolved per-request configuration.
type scanOptions struct {
	sitemapURL string
	notify     bool
	maxPages   int
}

// ScanHandler handles POST /v1/scans, the on-demand scan trigger
func (h *Handler) ScanHandler(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		MethodNotAllowed(w, r)
		return
	}

	var req ScanRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil && !errors.Is(err, io.EOF) {
		BadRequest(w, r, "Invalid request body: "+err.Error())
		return
	}

	opts := scanOptions{
		sitemapURL: h.Config.SitemapURL,
		notify:     true,
		maxPages:   h.Config.MaxPages,
	}
	if req.SitemapURL != "" {
		if !validSitemapURL(req.SitemapURL) {
			BadRequest(w, r, "sitemap_url must be an absolute http(s) URL")
			return
		}
		opts.sitemapURL = req.SitemapURL
	}
	if req.Notify != nil {
		opts.notify = *req.Notify
	}
	if req.MaxPages > 0 && (opts.maxPages == 0 || req.MaxPages < opts.maxPages) {
		opts.maxPages = req.MaxPages
	}

	if opts.sitemapURL == "" {
		BadRequest(w, r, "No sitemap_url provided and no default configured")
		return
	}

	h.runScan(w, r, h.Scanner, opts)
}

// ScheduledScanHandler handles POST /v1/scans/scheduled, the trigger
// used by the external scheduler. It authenticates with a shared
// bearer token, always scans the configured sitemap, and always
// notifies.
func (h *Handler) ScheduledScanHandler(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		MethodNotAllowed(w, r)
		return
	}

	if h.Config.SchedulerToken == "" {
		ServiceUnavailable(w, r, "Scheduled scans are not configured")
		return
	}
	if !h.authoriseScheduler(r) {
		Unauthorised(w, r, "Invalid or missing scheduler token")
		return
	}

	if h.Config.SitemapURL == "" {
		InternalError(w, r, errors.New("no default sitemap configured"))
		return
	}

	maxPages := h.Config.ScheduledMaxPages
	if maxPages == 0 {
		maxPages = h.Config.MaxPages
	}
	runner := h.Scanner
	if h.ScheduledScanner != nil {
		runner = h.ScheduledScanner
	}

	h.runScan(w, r, runner, scanOptions{
		sitemapURL: h.Config.SitemapURL,
		notify:     true,
		maxPages:   maxPages,
	})
}

// authoriseScheduler validates the bearer token in constant time
func (h *Handler) authoriseScheduler(r *http.Request) bool {
	header := r.Header.Get("Authorization")
	token, ok := strings.CutPrefix(header, "Bearer ")
	if !ok {
		return false
	}
	return subtle.ConstantTimeCompare([]byte(token), []byte(h.Config.SchedulerToken)) == 1
}

// runScan executes the full pipeline: sitemap fetch, URL cleaning,
// page scan, notification, response. Pipeline-fatal failures (sitemap
// unreachable, nothing to scan) are reported to Sentry and the failure
// sink; everything downstream degrades into the report instead.
func (h *Handler) runScan(w http.ResponseWriter, r *http.Request, runner ScanRunner, opts scanOptions) {
	ctx := r.Context()

	log.Info().
		Str("request_id", GetRequestID(r)).
		Str("sitemap_url", opts.sitemapURL).
		Bool("notify", opts.notify).
		Int("max_pages", opts.maxPages).
		Msg("Starting link scan")

	rawURLs, err := h.Sitemap.FetchURLs(ctx, opts.sitemapURL)
	if err != nil {
		sentry.CaptureException(err)
		h.Notifier.NotifyFailure(ctx, "sitemap fetch", err)
		UpstreamError(w, r, err)
		return
	}

	cleaned := urlclean.CleanURLs(rawURLs, h.Config.Cleaning)
	cleaningReport := urlclean.CleaningReport(rawURLs, cleaned, h.Config.Cleaning)

	toScan := cleaned
	if opts.maxPages > 0 && len(toScan) > opts.maxPages {
		toScan = toScan[:opts.maxPages]
	}

	report, err := runner.Scan(ctx, toScan)
	if err != nil {
		sentry.CaptureException(err)
		if errors.Is(err, scanner.ErrNoURLs) {
			h.Notifier.NotifyFailure(ctx, "url cleaning", err)
			UpstreamError(w, r, err)
			return
		}
		h.Notifier.NotifyFailure(ctx, "scan", err)
		InternalError(w, r, err)
		return
	}

	notification := NotificationStats{Enabled: opts.notify}
	if opts.notify && len(report.Errors404) > 0 {
		sent, notifyErr := h.Notifier.NotifyBrokenLinks(ctx, report)
		if notifyErr != nil {
			// Already logged by the notifier; the scan result stands
			sentry.CaptureException(notifyErr)
		}
		notification.Sent = sent
		notification.Count = len(report.Errors404)
	}

	errors404 := report.Errors404
	if errors404 == nil {
		errors404 = []scanner.BrokenLink{}
	}

	response := ScanResponse{
		Success:   true,
		Timestamp: time.Now().Format(time.RFC3339),
		RequestID: GetRequestID(r),
		Sitemap: SitemapStats{
			URL:           opts.sitemapURL,
			OriginalCount: len(rawURLs),
			CleanedCount:  len(cleaned),
			ScannedCount:  len(toScan),
			Cleaning:      cleaningReport,
		},
		Scan:         scanStats(report),
		Errors404:    errors404,
		Notification: notification,
	}

	log.Info().
		Str("request_id", GetRequestID(r)).
		Str("scan_id", report.ScanID).
		Int("pages_scanned", report.PagesScanned).
		Int("links_checked", report.LinksChecked).
		Int("errors_404", len(report.Errors404)).
		Dur("duration", report.Duration).
		Msg("Link scan completed")

	WriteJSON(w, r, response, http.StatusOK)
}

// scanStats flattens a scan report into the response summary
func scanStats(report *scanner.Report) ScanStats {
	stats := ScanStats{
		ScanID:         report.ScanID,
		PagesScanned:   report.PagesScanned,
		PagesSucceeded: report.PagesSucceeded,
		PagesFailed:    report.PagesFailed,
		LinksChecked:   report.LinksChecked,
		LinksInternal:  report.LinksInternal,
		LinksExternal:  report.LinksExternal,
		OKCount:        report.OKCount,
		BrokenCount:    report.BrokenCount,
		WarningCount:   report.WarningCount,
		ErrorCount:     report.ErrorCount,
		TimeoutCount:   report.TimeoutCount,
		DurationMs:     report.Duration.Milliseconds(),
	}
	if report.LinksChecked > 0 {
		stats.SuccessRate = float64(report.OKCount) / float64(report.LinksChecked)
	}
	return stats
}

// validSitemapURL accepts absolute http(s) URLs only
func validSitemapURL(raw string) bool {
	u, err := url.Parse(raw)
	if err != nil {
		return false
	}
	return (u.Scheme == "http" || u.Scheme == "https") && u.Host != ""
}
