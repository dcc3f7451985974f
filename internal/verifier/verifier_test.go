package verifier

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/corella-au/corella/internal/extractor"
)

func testConfig() *Config {
	cfg := DefaultConfig()
	cfg.Timeout = 2 * time.Second
	cfg.RetryAttempts = 0
	return cfg
}

func linkTo(targetURL string) extractor.Link {
	return extractor.Link{
		TargetURL: targetURL,
		RawHref:   targetURL,
		Kind:      extractor.KindAnchor,
		FoundOn:   "https://example.com/",
	}
}

func TestCheckLinkClassification(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("/ok", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	})
	mux.HandleFunc("/missing", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
	})
	mux.HandleFunc("/server-error", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	})
	mux.HandleFunc("/forbidden", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusForbidden)
	})
	ts := httptest.NewServer(mux)
	defer ts.Close()

	v := New(testConfig())

	tests := []struct {
		name           string
		path           string
		expectedStatus Status
		expectedCode   int
	}{
		{
			name:           "200_is_ok",
			path:           "/ok",
			expectedStatus: StatusOK,
			expectedCode:   http.StatusOK,
		},
		{
			name:           "404_is_broken",
			path:           "/missing",
			expectedStatus: StatusBroken,
			expectedCode:   http.StatusNotFound,
		},
		{
			name:           "500_is_warning",
			path:           "/server-error",
			expectedStatus: StatusWarning,
			expectedCode:   http.StatusInternalServerError,
		},
		{
			name:           "403_is_warning",
			path:           "/forbidden",
			expectedStatus: StatusWarning,
			expectedCode:   http.StatusForbidden,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result := v.CheckLink(context.Background(), linkTo(ts.URL+tt.path))
			assert.Equal(t, tt.expectedStatus, result.Status)
			assert.Equal(t, tt.expectedCode, result.StatusCode)
			assert.Greater(t, result.ResponseTime, time.Duration(0))
		})
	}
}

func TestCheckLinkFollowsRedirects(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("/old", func(w http.ResponseWriter, r *http.Request) {
		http.Redirect(w, r, "/new", http.StatusMovedPermanently)
	})
	mux.HandleFunc("/new", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	})
	ts := httptest.NewServer(mux)
	defer ts.Close()

	v := New(testConfig())
	result := v.CheckLink(context.Background(), linkTo(ts.URL+"/old"))

	// A redirect followed to a non-error status is ok, not flagged.
	assert.Equal(t, StatusOK, result.Status)
	assert.Equal(t, http.StatusOK, result.StatusCode)
	assert.True(t, result.Redirected)
	assert.Equal(t, ts.URL+"/new", result.FinalURL)
}

func TestCheckLinkRedirectBound(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("/loop", func(w http.ResponseWriter, r *http.Request) {
		http.Redirect(w, r, "/loop", http.StatusFound)
	})
	ts := httptest.NewServer(mux)
	defer ts.Close()

	cfg := testConfig()
	cfg.MaxRedirects = 3
	v := New(cfg)

	result := v.CheckLink(context.Background(), linkTo(ts.URL+"/loop"))
	assert.Equal(t, StatusError, result.Status)
	assert.NotEmpty(t, result.Error)
}

func TestCheckLinkTimeout(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		time.Sleep(2 * time.Second)
	}))
	defer ts.Close()

	cfg := testConfig()
	cfg.Timeout = 100 * time.Millisecond
	v := New(cfg)

	result := v.CheckLink(context.Background(), linkTo(ts.URL))
	assert.Equal(t, StatusTimeout, result.Status)
	assert.Equal(t, 0, result.StatusCode)
	assert.NotEmpty(t, result.Error)
}

func TestCheckLinkConnectionRefused(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	refusedURL := ts.URL
	ts.Close()

	v := New(testConfig())
	result := v.CheckLink(context.Background(), linkTo(refusedURL))

	assert.Equal(t, StatusError, result.Status)
	assert.Equal(t, 0, result.StatusCode)
	assert.NotEmpty(t, result.Error)
}

func TestCheckLinkRetriesTransportFailure(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	}))
	defer ts.Close()

	cfg := testConfig()
	cfg.RetryAttempts = 2
	cfg.RetryDelay = 10 * time.Millisecond
	v := New(cfg)

	// A healthy target succeeds on the first attempt regardless of the
	// retry budget.
	result := v.CheckLink(context.Background(), linkTo(ts.URL))
	assert.Equal(t, StatusOK, result.Status)
}

func TestIsCheckable(t *testing.T) {
	tests := []struct {
		name     string
		link     extractor.Link
		expected bool
	}{
		{
			name:     "https_target",
			link:     extractor.Link{TargetURL: "https://example.com/page", RawHref: "/page"},
			expected: true,
		},
		{
			name:     "http_target",
			link:     extractor.Link{TargetURL: "http://example.com/page", RawHref: "/page"},
			expected: true,
		},
		{
			name:     "mailto_ref",
			link:     extractor.Link{TargetURL: "mailto:hi@example.com", RawHref: "mailto:hi@example.com"},
			expected: false,
		},
		{
			name:     "tel_ref",
			link:     extractor.Link{TargetURL: "tel:+61212345678", RawHref: "tel:+61212345678"},
			expected: false,
		},
		{
			name:     "javascript_ref",
			link:     extractor.Link{TargetURL: "javascript:void(0)", RawHref: "javascript:void(0)"},
			expected: false,
		},
		{
			name:     "ftp_scheme",
			link:     extractor.Link{TargetURL: "ftp://example.com/file", RawHref: "ftp://example.com/file"},
			expected: false,
		},
		{
			name:     "missing_host",
			link:     extractor.Link{TargetURL: "https:///nohost", RawHref: "https:///nohost"},
			expected: false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, IsCheckable(tt.link))
		})
	}
}

func TestCheckLinkSetsUserAgent(t *testing.T) {
	var gotUA string
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotUA = r.Header.Get("User-Agent")
		w.WriteHeader(http.StatusOK)
	}))
	defer ts.Close()

	cfg := testConfig()
	cfg.UserAgent = "Corella-Test/1.0"
	v := New(cfg)

	result := v.CheckLink(context.Background(), linkTo(ts.URL))
	require.Equal(t, StatusOK, result.Status)
	assert.Equal(t, "Corella-Test/1.0", gotUA)
}
