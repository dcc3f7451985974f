package util

import (
	"net/url"
	"strings"

	"github.com/rs/zerolog/log"
)

// NormaliseURL validates a URL and repairs a missing scheme, assuming
// https:// when none is given. An explicit http:// or https:// scheme
// is preserved. Returns "" when the URL cannot be made valid.
func NormaliseURL(rawURL string) string {
	rawURL = strings.TrimSpace(rawURL)
	if rawURL == "" {
		return ""
	}

	if !strings.Contains(rawURL, "://") {
		rawURL = "https://" + rawURL
	}

	parsedURL, err := url.Parse(rawURL)
	if err != nil || parsedURL.Host == "" {
		log.Debug().Str("url", rawURL).Err(err).Msg("Invalid URL format")
		return ""
	}
	if parsedURL.Scheme != "http" && parsedURL.Scheme != "https" {
		log.Debug().Str("url", rawURL).Msg("Unsupported URL scheme")
		return ""
	}

	return rawURL
}

// SameHost reports whether two hostnames refer to the same site,
// ignoring a leading www., letter case, and default ports. Used to
// decide whether an extracted link is internal or external to the site
// under audit.
func SameHost(a, b string) bool {
	return canonicalHost(a) == canonicalHost(b)
}

// canonicalHost lowercases a hostname and strips a www. prefix and any
// default port.
func canonicalHost(host string) string {
	host = strings.ToLower(host)
	host = strings.TrimPrefix(host, "www.")
	host = strings.TrimSuffix(host, ":80")
	host = strings.TrimSuffix(host, ":443")
	return host
}

// HostOf extracts the canonical hostname from a URL string. Returns ""
// when the URL cannot be parsed.
func HostOf(rawURL string) string {
	parsed, err := url.Parse(rawURL)
	if err != nil {
		return ""
	}
	return canonicalHost(parsed.Hostname())
}
