package fetcher

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFetchPage(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("<html><body><a href=\"/next\">next</a></body></html>"))
	}))
	defer ts.Close()

	f := New(nil)
	res, err := f.FetchPage(context.Background(), ts.URL)
	require.NoError(t, err)

	assert.Equal(t, http.StatusOK, res.StatusCode)
	assert.Contains(t, res.HTML, "href=\"/next\"")
	assert.Greater(t, res.ResponseTime, time.Duration(0))
}

func TestFetchPageSendsBrowserHeaders(t *testing.T) {
	var accept, acceptLanguage, userAgent string
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		accept = r.Header.Get("Accept")
		acceptLanguage = r.Header.Get("Accept-Language")
		userAgent = r.Header.Get("User-Agent")
		w.WriteHeader(http.StatusOK)
	}))
	defer ts.Close()

	f := New(nil)
	_, err := f.FetchPage(context.Background(), ts.URL)
	require.NoError(t, err)

	assert.Contains(t, accept, "text/html")
	assert.Equal(t, "en-AU,en;q=0.9", acceptLanguage)
	assert.Equal(t, DefaultConfig().UserAgent, userAgent)
}

func TestFetchPageNon200IsData(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
	}))
	defer ts.Close()

	f := New(nil)
	res, err := f.FetchPage(context.Background(), ts.URL)
	require.NoError(t, err)

	assert.Equal(t, http.StatusNotFound, res.StatusCode)
	assert.Empty(t, res.HTML)
}

func TestFetchPageTransportFailure(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	deadURL := ts.URL
	ts.Close()

	f := New(nil)
	_, err := f.FetchPage(context.Background(), deadURL)
	assert.Error(t, err)
}

func TestFetchPageInvalidURL(t *testing.T) {
	f := New(nil)

	_, err := f.FetchPage(context.Background(), "not-a-url")
	assert.Error(t, err)

	_, err = f.FetchPage(context.Background(), "://missing-scheme")
	assert.Error(t, err)
}

func TestFetchPageCancelledContext(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		time.Sleep(time.Second)
	}))
	defer ts.Close()

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	f := New(nil)
	_, err := f.FetchPage(ctx, ts.URL)
	assert.Error(t, err)
}
