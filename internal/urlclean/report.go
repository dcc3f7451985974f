package urlclean

import (
	"net/url"
	"strings"
)

// Report describes what cleaning did to a raw URL list. It is purely
// informational and has no effect on the cleaned set itself.
type Report struct {
	OriginalCount      int `json:"original_count"`
	CleanedCount       int `json:"cleaned_count"`
	FileTypeExclusions int `json:"file_type_exclusions"`
	LocaleRewrites     int `json:"locale_rewrites"`
	DuplicatesRemoved  int `json:"duplicates_removed"`
}

// CleaningReport compares the raw and cleaned lists and counts the
// file-type exclusions, locale-prefix rewrites observed in the input,
// and duplicate collapses.
func CleaningReport(rawURLs, cleanedURLs []string, cfg *Config) Report {
	if cfg == nil {
		cfg = DefaultConfig()
	}

	report := Report{
		OriginalCount: len(rawURLs),
		CleanedCount:  len(cleanedURLs),
	}

	normalisedSeen := make(map[string]int)
	for _, raw := range rawURLs {
		parsed, err := url.Parse(strings.TrimSpace(raw))
		if err != nil {
			continue
		}

		if hasExcludedExtension(parsed.Path, cfg.ExcludedExtensions) {
			report.FileTypeExclusions++
			continue
		}

		if collapseLocalePrefix(parsed.Path, cfg.LocalePrefixes) != parsed.Path {
			report.LocaleRewrites++
		}

		if normalised, ok := normaliseURL(raw, cfg); ok {
			normalisedSeen[normalised]++
		}
	}

	for _, count := range normalisedSeen {
		if count > 1 {
			report.DuplicatesRemoved += count - 1
		}
	}

	return report
}
