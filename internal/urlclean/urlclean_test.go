package urlclean

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestCleanURLs(t *testing.T) {
	tests := []struct {
		name     string
		input    []string
		expected []string
	}{
		{
			name:     "empty_input",
			input:    []string{},
			expected: []string{},
		},
		{
			name:     "passthrough",
			input:    []string{"https://example.com/about"},
			expected: []string{"https://example.com/about"},
		},
		{
			name:     "sorted_output",
			input:    []string{"https://example.com/b", "https://example.com/a"},
			expected: []string{"https://example.com/a", "https://example.com/b"},
		},
		{
			name:     "tracking_params_stripped",
			input:    []string{"https://example.com/about?utm_source=mail&utm_campaign=june"},
			expected: []string{"https://example.com/about"},
		},
		{
			name:     "other_params_kept",
			input:    []string{"https://example.com/search?q=bees&utm_source=mail"},
			expected: []string{"https://example.com/search?q=bees"},
		},
		{
			name:     "fragment_cleared",
			input:    []string{"https://example.com/about#team"},
			expected: []string{"https://example.com/about"},
		},
		{
			name:     "locale_prefix_collapsed",
			input:    []string{"https://example.com/en-us/about"},
			expected: []string{"https://example.com/about"},
		},
		{
			name:     "short_locale_prefix_collapsed",
			input:    []string{"https://example.com/fr/contact"},
			expected: []string{"https://example.com/contact"},
		},
		{
			name:     "locale_root_collapses_to_slash",
			input:    []string{"https://example.com/en/"},
			expected: []string{"https://example.com/"},
		},
		{
			name:     "locale_duplicate_removed",
			input:    []string{"https://example.com/a", "https://example.com/en/a"},
			expected: []string{"https://example.com/a"},
		},
		{
			name:     "excluded_extension_dropped",
			input:    []string{"https://example.com/report.pdf", "https://example.com/about"},
			expected: []string{"https://example.com/about"},
		},
		{
			name: "excluded_extension_dropped_regardless_of_locale_and_query",
			input: []string{
				"https://example.com/en-gb/brochure.pdf?utm_source=ad",
				"https://example.com/logo.png",
			},
			expected: []string{},
		},
		{
			name:     "excluded_path_prefix_dropped",
			input:    []string{"https://example.com/admin/settings", "https://example.com/api/v1/users"},
			expected: []string{},
		},
		{
			name:     "unparseable_dropped_silently",
			input:    []string{"://bad url", "https://example.com/ok"},
			expected: []string{"https://example.com/ok"},
		},
		{
			name:     "non_http_scheme_dropped",
			input:    []string{"ftp://example.com/file", "https://example.com/ok"},
			expected: []string{"https://example.com/ok"},
		},
		{
			name: "exact_duplicates_collapsed",
			input: []string{
				"https://example.com/a",
				"https://example.com/a",
				"https://example.com/a#section",
			},
			expected: []string{"https://example.com/a"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, CleanURLs(tt.input, nil))
		})
	}
}

func TestCleanURLsIdempotent(t *testing.T) {
	input := []string{
		"https://example.com/en-au/products?utm_source=mail#top",
		"https://example.com/products",
		"https://example.com/fr/contact",
	}

	once := CleanURLs(input, nil)
	twice := CleanURLs(once, nil)
	assert.Equal(t, once, twice)
}

func TestCleanURLsSingleRepresentative(t *testing.T) {
	// All of these share the same canonical path after locale and
	// tracking-param stripping.
	input := []string{
		"https://example.com/pricing",
		"https://example.com/en/pricing",
		"https://example.com/en-us/pricing",
		"https://example.com/pricing?utm_medium=social",
		"https://example.com/pricing#plans",
	}

	cleaned := CleanURLs(input, nil)
	assert.Equal(t, []string{"https://example.com/pricing"}, cleaned)
}

func TestLocalePrefixFirstMatchWins(t *testing.T) {
	cfg := DefaultConfig()

	// /en-us/ appears before /en/ in the table, so only the full
	// language-region prefix is stripped.
	assert.Equal(t, "/about", collapseLocalePrefix("/en-us/about", cfg.LocalePrefixes))
	// A path that looks locale-prefixed twice is only rewritten once.
	assert.Equal(t, "/fr/about", collapseLocalePrefix("/en/fr/about", cfg.LocalePrefixes))
}

func TestCleaningReport(t *testing.T) {
	input := []string{
		"https://example.com/a",
		"https://example.com/en/a",
		"https://example.com/report.pdf",
		"https://example.com/b",
		"https://example.com/b?utm_source=x",
	}

	cleaned := CleanURLs(input, nil)
	report := CleaningReport(input, cleaned, nil)

	assert.Equal(t, 5, report.OriginalCount)
	assert.Equal(t, 2, report.CleanedCount)
	assert.Equal(t, 1, report.FileTypeExclusions)
	assert.Equal(t, 1, report.LocaleRewrites)
	assert.Equal(t, 2, report.DuplicatesRemoved)
}

func TestCleaningReportEmpty(t *testing.T) {
	report := CleaningReport(nil, nil, nil)
	assert.Zero(t, report.OriginalCount)
	assert.Zero(t, report.CleanedCount)
	assert.Zero(t, report.FileTypeExclusions)
	assert.Zero(t, report.LocaleRewrites)
	assert.Zero(t, report.DuplicatesRemoved)
}
