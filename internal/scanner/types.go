package scanner

import (
	"time"

	"github.com/corella-au/corella/internal/extractor"
	"github.com/corella-au/corella/internal/verifier"
)

// BrokenLink is the compact record kept for every 404 found, carrying
// enough context to locate the offending reference.
type BrokenLink struct {
	URL        string `json:"url"`         // Target that returned 404
	FoundOn    string `json:"found_on"`    // Page the reference was found on
	LinkText   string `json:"link_text"`   // Anchor/alt text of the reference
	Line       int    `json:"line"`        // Best-effort line number, 0 when unknown
	IsInternal bool   `json:"is_internal"` // Same hostname as the site under audit
}

// PageResult is one sitemap page's outcome.
type PageResult struct {
	URL          string                 `json:"url"`
	Accessible   bool                   `json:"accessible"`
	StatusCode   int                    `json:"status_code"`
	Links        []extractor.Link       `json:"links,omitempty"`
	Checks       []verifier.CheckResult `json:"checks,omitempty"`
	OKCount      int                    `json:"ok_count"`
	BrokenCount  int                    `json:"broken_count"`
	WarningCount int                    `json:"warning_count"`
	ErrorCount   int                    `json:"error_count"`
	TimeoutCount int                    `json:"timeout_count"`
	SuccessRate  float64                `json:"success_rate"`
}

// Report is the full outcome of one scan. It is owned by the scanner
// for the scan's lifetime and handed out immutable afterwards.
type Report struct {
	ScanID    string        `json:"scan_id"`
	StartedAt time.Time     `json:"started_at"`
	Duration  time.Duration `json:"duration_ms"`

	Pages []PageResult `json:"pages"`

	PagesScanned   int `json:"pages_scanned"`
	PagesSucceeded int `json:"pages_succeeded"`
	PagesFailed    int `json:"pages_failed"`

	LinksChecked  int `json:"links_checked"`
	LinksInternal int `json:"links_internal"`
	LinksExternal int `json:"links_external"`

	OKCount      int `json:"ok_count"`
	BrokenCount  int `json:"broken_count"`
	WarningCount int `json:"warning_count"`
	ErrorCount   int `json:"error_count"`
	TimeoutCount int `json:"timeout_count"`

	Errors404 []BrokenLink `json:"errors_404"`
}
