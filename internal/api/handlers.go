package api

import (
	"context"
	"net/http"

	"github.com/corella-au/corella/internal/scanner"
	"github.com/corella-au/corella/internal/urlclean"
)

// Version is the current API version (can be set via ldflags at build time)
var Version = "1.0.0"

// SitemapClient fetches and flattens a sitemap into page URLs
type SitemapClient interface {
	FetchURLs(ctx context.Context, sitemapURL string) ([]string, error)
}

// ScanRunner runs a link audit over a set of page URLs
type ScanRunner interface {
	Scan(ctx context.Context, urls []string) (*scanner.Report, error)
}

// NotificationSink delivers scan outcomes
type NotificationSink interface {
	NotifyBrokenLinks(ctx context.Context, report *scanner.Report) (bool, error)
	NotifyFailure(ctx context.Context, stage string, err error)
}

// Config holds API handler settings
type Config struct {
	// SitemapURL is the default sitemap audited when a request does
	// not override it. Scheduled scans always use this value.
	SitemapURL string

	// SchedulerToken authenticates the scheduled-scan endpoint.
	// Empty disables that endpoint entirely.
	SchedulerToken string

	// MaxPages caps pages per scan. Zero means no cap.
	MaxPages int

	// ScheduledMaxPages caps pages for scheduled scans, which run in
	// a bounded execution window. Zero falls back to MaxPages.
	ScheduledMaxPages int

	// Cleaning overrides the default URL cleaning rules. Nil uses
	// the defaults.
	Cleaning *urlclean.Config
}

// Handler holds dependencies for API handlers
type Handler struct {
	Config   *Config
	Sitemap  SitemapClient
	Scanner  ScanRunner
	Notifier NotificationSink

	// ScheduledScanner, when set, runs scheduled scans with a
	// stricter worker/timing profile. Nil falls back to Scanner.
	ScheduledScanner ScanRunner
}

// NewHandler creates a new API handler with dependencies
func NewHandler(cfg *Config, sitemapClient SitemapClient, scanRunner ScanRunner, notifier NotificationSink) *Handler {
	return &Handler{
		Config:   cfg,
		Sitemap:  sitemapClient,
		Scanner:  scanRunner,
		Notifier: notifier,
	}
}

// SetupRoutes configures all API routes
func (h *Handler) SetupRoutes(mux *http.ServeMux) {
	// Health check endpoint (no auth required)
	mux.HandleFunc("/health", h.HealthCheck)

	// Scan endpoints
	mux.HandleFunc("/v1/scans", h.ScanHandler)
	mux.HandleFunc("/v1/scans/scheduled", h.ScheduledScanHandler)
}

// HealthCheck handles basic health check requests
func (h *Handler) HealthCheck(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		MethodNotAllowed(w, r)
		return
	}

	WriteHealthy(w, r, "corella", Version)
}
