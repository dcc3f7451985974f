// Package verifier performs the HTTP existence check for a single
// extracted link and classifies the outcome.
package verifier

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"os"
	"strings"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/corella-au/corella/internal/extractor"
)

// Status classifies the outcome of checking one link.
type Status string

const (
	StatusOK      Status = "ok"      // Response obtained with status < 400
	StatusBroken  Status = "broken"  // Response obtained with status 404
	StatusWarning Status = "warning" // Response obtained with status >= 400, != 404
	StatusTimeout Status = "timeout" // Request timed out or connection aborted
	StatusError   Status = "error"   // Transport failure without an HTTP status
)

// CheckResult is an extracted link plus its verification outcome.
// Created once per checked link per scan and never retried by the
// orchestrator; the configured low retry count lives in this layer.
type CheckResult struct {
	Link         extractor.Link `json:"link"`
	Status       Status         `json:"status"`
	StatusCode   int            `json:"status_code"` // 0 when no response was obtained
	ResponseTime time.Duration  `json:"response_time_ms"`
	FinalURL     string         `json:"final_url,omitempty"` // URL after following redirects
	Redirected   bool           `json:"redirected,omitempty"`
	Error        string         `json:"error,omitempty"`
}

// Config holds verification settings, constructed once per run and
// passed down from the orchestrator.
type Config struct {
	Timeout       time.Duration // Per-request timeout
	MaxRedirects  int           // Redirect-follow bound per request
	UserAgent     string        // User agent for link checks
	RetryAttempts int           // Extra attempts on transport failure
	RetryDelay    time.Duration // Delay between retry attempts
}

// DefaultConfig returns verification settings used for production scans.
func DefaultConfig() *Config {
	return &Config{
		Timeout:       10 * time.Second,
		MaxRedirects:  10,
		UserAgent:     "Corella/1.0 (+https://corella.com.au/bot)",
		RetryAttempts: 1,
		RetryDelay:    500 * time.Millisecond,
	}
}

// Verifier checks link targets over HTTP.
type Verifier struct {
	config *Config
	client *http.Client
}

// New creates a Verifier. Every status code is surfaced as data; the
// client never turns 4xx/5xx into errors, and redirects are followed up
// to the configured bound.
func New(cfg *Config) *Verifier {
	if cfg == nil {
		cfg = DefaultConfig()
	}

	client := &http.Client{
		Timeout: cfg.Timeout,
		CheckRedirect: func(req *http.Request, via []*http.Request) error {
			if len(via) >= cfg.MaxRedirects {
				return fmt.Errorf("stopped after %d redirects", cfg.MaxRedirects)
			}
			return nil
		},
		Transport: &http.Transport{
			MaxIdleConnsPerHost: 25,
			MaxConnsPerHost:     50,
			IdleConnTimeout:     120 * time.Second,
			TLSHandshakeTimeout: 10 * time.Second,
			ForceAttemptHTTP2:   true,
		},
	}

	return &Verifier{config: cfg, client: client}
}

// IsCheckable reports whether a link can be verified at all. Targets
// without an http/https scheme, and references written as
// mailto:/tel:/javascript:, are structurally unfetchable and are
// filtered out upstream rather than reported as errors.
func IsCheckable(link extractor.Link) bool {
	raw := strings.ToLower(strings.TrimSpace(link.RawHref))
	for _, scheme := range []string{"mailto:", "tel:", "javascript:", "data:"} {
		if strings.HasPrefix(raw, scheme) {
			return false
		}
	}

	parsed, err := url.Parse(link.TargetURL)
	if err != nil {
		return false
	}
	if parsed.Scheme != "http" && parsed.Scheme != "https" {
		return false
	}
	return parsed.Host != ""
}

// CheckLink performs one GET against the link's target and classifies
// the result. It never returns an error: every failure mode maps to a
// status category on the result.
func (v *Verifier) CheckLink(ctx context.Context, link extractor.Link) CheckResult {
	result := CheckResult{
		Link:     link,
		FinalURL: link.TargetURL,
	}

	start := time.Now()
	resp, err := v.get(ctx, link.TargetURL)
	result.ResponseTime = time.Since(start)

	if err != nil {
		result.Error = err.Error()
		if isTimeout(err) {
			result.Status = StatusTimeout
		} else {
			result.Status = StatusError
		}
		log.Debug().
			Str("url", link.TargetURL).
			Str("status", string(result.Status)).
			Err(err).
			Msg("Link check failed without a response")
		return result
	}
	defer resp.Body.Close()

	// Drain so the connection can be reused for the remaining checks.
	_, _ = io.Copy(io.Discard, io.LimitReader(resp.Body, 1<<20))

	result.StatusCode = resp.StatusCode
	if resp.Request != nil && resp.Request.URL != nil {
		result.FinalURL = resp.Request.URL.String()
	}
	// Redirect detection by explicit comparison of requested vs final
	// URL; transport-internal flags are not relied on.
	result.Redirected = result.FinalURL != link.TargetURL

	switch {
	case resp.StatusCode == http.StatusNotFound:
		result.Status = StatusBroken
	case resp.StatusCode >= 400:
		result.Status = StatusWarning
	default:
		result.Status = StatusOK
	}

	log.Debug().
		Str("url", link.TargetURL).
		Int("status_code", result.StatusCode).
		Str("status", string(result.Status)).
		Dur("response_time", result.ResponseTime).
		Msg("Link checked")

	return result
}

// get performs the GET with the configured low retry count on transport
// failures. Responses are never retried, whatever their status code.
func (v *Verifier) get(ctx context.Context, targetURL string) (*http.Response, error) {
	var lastErr error

	for attempt := 0; attempt <= v.config.RetryAttempts; attempt++ {
		if attempt > 0 {
			select {
			case <-time.After(v.config.RetryDelay):
			case <-ctx.Done():
				return nil, ctx.Err()
			}
		}

		req, err := http.NewRequestWithContext(ctx, http.MethodGet, targetURL, nil)
		if err != nil {
			return nil, err
		}
		req.Header.Set("User-Agent", v.config.UserAgent)
		req.Header.Set("Accept", "text/html,application/xhtml+xml,application/xml;q=0.9,*/*;q=0.8")

		resp, err := v.client.Do(req)
		if err == nil {
			return resp, nil
		}
		lastErr = err

		// Timeouts are not worth retrying within a scan; they already
		// consumed the full per-request budget.
		if isTimeout(err) {
			break
		}
	}

	return nil, lastErr
}

// isTimeout reports whether a transport error is a timeout or aborted
// connection rather than a hard failure like DNS or refused connection.
func isTimeout(err error) bool {
	if errors.Is(err, context.DeadlineExceeded) || errors.Is(err, os.ErrDeadlineExceeded) {
		return true
	}
	var netErr interface{ Timeout() bool }
	if errors.As(err, &netErr) && netErr.Timeout() {
		return true
	}
	// url.Error wraps the transport error; its message keeps the
	// Client.Timeout marker.
	return strings.Contains(err.Error(), "Client.Timeout exceeded")
}
