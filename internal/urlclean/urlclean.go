// Package urlclean normalises a raw sitemap URL list into the
// deduplicated, sorted set of canonical page URLs worth scanning.
package urlclean

import (
	"net/url"
	"sort"
	"strings"

	"github.com/rs/zerolog/log"
)

// CleanURLs normalises each raw URL and returns the surviving set,
// deduplicated by exact string and sorted ascending for reproducible
// scan ordering. Unparseable URLs are dropped silently; an empty input
// yields an empty output.
func CleanURLs(rawURLs []string, cfg *Config) []string {
	if cfg == nil {
		cfg = DefaultConfig()
	}

	seen := make(map[string]struct{}, len(rawURLs))
	cleaned := make([]string, 0, len(rawURLs))

	for _, raw := range rawURLs {
		normalised, ok := normaliseURL(raw, cfg)
		if !ok {
			continue
		}
		if _, dup := seen[normalised]; dup {
			continue
		}
		seen[normalised] = struct{}{}
		cleaned = append(cleaned, normalised)
	}

	sort.Strings(cleaned)

	log.Debug().
		Int("raw_count", len(rawURLs)).
		Int("cleaned_count", len(cleaned)).
		Msg("Cleaned sitemap URL list")

	return cleaned
}

// normaliseURL applies the cleaning steps to a single URL. The second
// return value is false when the URL is unparseable or excluded.
func normaliseURL(raw string, cfg *Config) (string, bool) {
	parsed, err := url.Parse(strings.TrimSpace(raw))
	if err != nil {
		log.Debug().Str("url", raw).Err(err).Msg("Dropping unparseable sitemap URL")
		return "", false
	}
	if parsed.Scheme != "http" && parsed.Scheme != "https" {
		return "", false
	}

	stripTrackingParams(parsed, cfg.TrackingParams)
	parsed.Path = collapseLocalePrefix(parsed.Path, cfg.LocalePrefixes)
	parsed.Fragment = ""
	parsed.RawFragment = ""

	if hasExcludedExtension(parsed.Path, cfg.ExcludedExtensions) {
		return "", false
	}
	if hasExcludedPrefix(parsed.Path, cfg.ExcludedPathPrefixes) {
		return "", false
	}

	return parsed.String(), true
}

// stripTrackingParams removes the configured tracking/locale query
// parameters, preserving everything else.
func stripTrackingParams(u *url.URL, trackingParams []string) {
	if u.RawQuery == "" {
		return
	}

	query := u.Query()
	for _, param := range trackingParams {
		query.Del(param)
	}
	u.RawQuery = query.Encode()
}

// collapseLocalePrefix rewrites a locale-prefixed path to its canonical
// form. Only the first matching prefix in table order is applied, and
// the leading slash is always kept.
func collapseLocalePrefix(path string, prefixes []string) string {
	lower := strings.ToLower(path)
	for _, prefix := range prefixes {
		if strings.HasPrefix(lower, prefix) {
			stripped := path[len(prefix):]
			return "/" + stripped
		}
		// A bare locale path like /en matches the /en/ table entry.
		if lower == strings.TrimSuffix(prefix, "/") {
			return "/"
		}
	}
	return path
}

// hasExcludedExtension reports whether the path ends in a non-page file
// extension.
func hasExcludedExtension(path string, extensions []string) bool {
	lower := strings.ToLower(path)
	for _, ext := range extensions {
		if strings.HasSuffix(lower, ext) {
			return true
		}
	}
	return false
}

// hasExcludedPrefix reports whether the path falls under an excluded
// section of the site.
func hasExcludedPrefix(path string, prefixes []string) bool {
	lower := strings.ToLower(path)
	for _, prefix := range prefixes {
		if strings.HasPrefix(lower, prefix) {
			return true
		}
	}
	return false
}
