package sitemap

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const urlsetDoc = `<?xml version="1.0" encoding="UTF-8"?>
<urlset xmlns="http://www.sitemaps.org/schemas/sitemap/0.9">
	<url><loc>https://example.com/a</loc></url>
	<url><loc>https://example.com/b</loc></url>
	<url><loc>   https://example.com/c   </loc></url>
	<url><loc>not a url</loc></url>
</urlset>`

func TestFetchURLsFlatSitemap(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, urlsetDoc)
	}))
	defer ts.Close()

	client := New(nil)
	urls, err := client.FetchURLs(context.Background(), ts.URL+"/sitemap.xml")
	require.NoError(t, err)

	assert.Equal(t, []string{
		"https://example.com/a",
		"https://example.com/b",
		"https://example.com/c",
	}, urls)
}

func TestFetchURLsRepairsSchemelessLocs(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, `<?xml version="1.0" encoding="UTF-8"?>
<urlset xmlns="http://www.sitemaps.org/schemas/sitemap/0.9">
	<url><loc>example.com/bare</loc></url>
	<url><loc>http://example.com/plain</loc></url>
	<url><loc>ftp://example.com/file</loc></url>
</urlset>`)
	}))
	defer ts.Close()

	client := New(nil)
	urls, err := client.FetchURLs(context.Background(), ts.URL+"/sitemap.xml")
	require.NoError(t, err)

	assert.Equal(t, []string{
		"https://example.com/bare",
		"http://example.com/plain",
	}, urls)
}

func TestFetchURLsSitemapIndex(t *testing.T) {
	mux := http.NewServeMux()
	ts := httptest.NewServer(mux)
	defer ts.Close()

	mux.HandleFunc("/sitemap_index.xml", func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprintf(w, `<?xml version="1.0"?>
<sitemapindex xmlns="http://www.sitemaps.org/schemas/sitemap/0.9">
	<sitemap><loc>%s/pages.xml</loc></sitemap>
	<sitemap><loc>%s/posts.xml</loc></sitemap>
</sitemapindex>`, ts.URL, ts.URL)
	})
	mux.HandleFunc("/pages.xml", func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, `<urlset><url><loc>https://example.com/about</loc></url></urlset>`)
	})
	mux.HandleFunc("/posts.xml", func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, `<urlset><url><loc>https://example.com/blog/one</loc></url><url><loc>https://example.com/blog/two</loc></url></urlset>`)
	})

	client := New(nil)
	urls, err := client.FetchURLs(context.Background(), ts.URL+"/sitemap_index.xml")
	require.NoError(t, err)

	assert.Equal(t, []string{
		"https://example.com/about",
		"https://example.com/blog/one",
		"https://example.com/blog/two",
	}, urls)
}

func TestFetchURLsChildFailureSkipped(t *testing.T) {
	mux := http.NewServeMux()
	ts := httptest.NewServer(mux)
	defer ts.Close()

	mux.HandleFunc("/sitemap_index.xml", func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprintf(w, `<sitemapindex>
	<sitemap><loc>%s/missing.xml</loc></sitemap>
	<sitemap><loc>%s/good.xml</loc></sitemap>
</sitemapindex>`, ts.URL, ts.URL)
	})
	mux.HandleFunc("/good.xml", func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, `<urlset><url><loc>https://example.com/ok</loc></url></urlset>`)
	})

	client := New(nil)
	urls, err := client.FetchURLs(context.Background(), ts.URL+"/sitemap_index.xml")
	require.NoError(t, err)

	// The 404ing child is skipped, not fatal.
	assert.Equal(t, []string{"https://example.com/ok"}, urls)
}

func TestFetchURLsSelfReferentialIndex(t *testing.T) {
	mux := http.NewServeMux()
	ts := httptest.NewServer(mux)
	defer ts.Close()

	mux.HandleFunc("/sitemap_index.xml", func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprintf(w, `<sitemapindex>
	<sitemap><loc>%s/sitemap_index.xml</loc></sitemap>
	<sitemap><loc>%s/good.xml</loc></sitemap>
</sitemapindex>`, ts.URL, ts.URL)
	})
	mux.HandleFunc("/good.xml", func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, `<urlset><url><loc>https://example.com/ok</loc></url></urlset>`)
	})

	client := New(nil)
	urls, err := client.FetchURLs(context.Background(), ts.URL+"/sitemap_index.xml")
	require.NoError(t, err)

	// The cycle is cut by the seen-set guard; the rest still flattens.
	assert.Equal(t, []string{"https://example.com/ok"}, urls)
}

func TestFetchURLsTopLevelFailureFatal(t *testing.T) {
	tests := []struct {
		name    string
		handler http.HandlerFunc
	}{
		{
			name: "http_error",
			handler: func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(http.StatusInternalServerError)
			},
		},
		{
			name: "unparseable_body",
			handler: func(w http.ResponseWriter, r *http.Request) {
				fmt.Fprint(w, `<urlset><url><loc>unclosed`)
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ts := httptest.NewServer(tt.handler)
			defer ts.Close()

			client := New(nil)
			_, err := client.FetchURLs(context.Background(), ts.URL+"/sitemap.xml")
			assert.Error(t, err)
		})
	}
}

func TestFetchURLsUnreachable(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	deadURL := ts.URL
	ts.Close()

	client := New(nil)
	_, err := client.FetchURLs(context.Background(), deadURL+"/sitemap.xml")
	assert.Error(t, err)
}

func TestFetchURLsEmptySitemap(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, `<urlset xmlns="http://www.sitemaps.org/schemas/sitemap/0.9"></urlset>`)
	}))
	defer ts.Close()

	client := New(nil)
	urls, err := client.FetchURLs(context.Background(), ts.URL+"/sitemap.xml")
	require.NoError(t, err)
	assert.Empty(t, urls)
}
