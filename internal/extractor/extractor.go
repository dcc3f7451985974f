// Package extractor parses a single page's HTML and returns every
// outbound reference with enough source metadata to report on it.
package extractor

import (
	"fmt"
	"net/url"
	"strings"

	"github.com/PuerkitoBio/goquery"
	"github.com/rs/zerolog/log"
	"golang.org/x/net/html"

	"github.com/corella-au/corella/internal/util"
)

// skippedSchemes are references that can never be fetched and are not
// reported as broken.
var skippedSchemes = []string{"javascript:", "mailto:", "tel:", "data:"}

// ExtractLinks scans the page's HTML for link-bearing elements and
// returns the resolved references in document order, deduplicated by
// target URL within the page (first occurrence wins, repeats increment
// its duplicate counter). The only error condition is an unparseable
// pageURL; HTML that contains no links yields an empty list.
func ExtractLinks(htmlContent, pageURL string, cfg *Config) ([]Link, error) {
	if cfg == nil {
		cfg = DefaultConfig()
	}

	base, err := url.Parse(pageURL)
	if err != nil {
		return nil, fmt.Errorf("invalid page URL %q: %w", pageURL, err)
	}
	siteHost := base.Hostname()

	doc, err := goquery.NewDocumentFromReader(strings.NewReader(htmlContent))
	if err != nil {
		return nil, fmt.Errorf("parsing HTML of %s: %w", pageURL, err)
	}

	links := make([]Link, 0)
	indexByTarget := make(map[string]int)

	collect := func(target elementTarget) {
		doc.Find(target.Selector).Each(func(i int, s *goquery.Selection) {
			raw := strings.TrimSpace(s.AttrOr(target.Attr, ""))
			if !isResolvable(raw) {
				return
			}

			resolved, err := base.Parse(raw)
			if err != nil {
				log.Debug().
					Str("page", pageURL).
					Str("href", raw).
					Msg("Skipping unresolvable reference")
				return
			}
			resolved.Fragment = ""
			targetURL := resolved.String()

			if idx, seen := indexByTarget[targetURL]; seen {
				links[idx].DuplicateCount++
				return
			}

			markup := openingTag(s)
			links = append(links, Link{
				TargetURL:      targetURL,
				RawHref:        raw,
				Kind:           target.Kind,
				Text:           truncate(elementText(s, target.Kind), cfg.TextMaxLen),
				IsInternal:     util.SameHost(resolved.Hostname(), siteHost),
				FoundOn:        pageURL,
				Line:           findLine(htmlContent, markup, raw),
				Snippet:        truncate(markup, cfg.SnippetMaxLen),
				DuplicateCount: 1,
			})
			indexByTarget[targetURL] = len(links) - 1
		})
	}

	collect(anchorTarget)
	if cfg.ScanResources {
		for _, target := range resourceTargets {
			collect(target)
		}
	}

	log.Debug().
		Str("page", pageURL).
		Int("links_found", len(links)).
		Msg("Extracted links from page")

	return links, nil
}

// isResolvable reports whether a raw reference is worth resolving.
// Empty references, pure fragments, and javascript/mailto/tel schemes
// are structurally unfetchable.
func isResolvable(raw string) bool {
	if raw == "" || strings.HasPrefix(raw, "#") {
		return false
	}
	lower := strings.ToLower(raw)
	for _, scheme := range skippedSchemes {
		if strings.HasPrefix(lower, scheme) {
			return false
		}
	}
	return true
}

// elementText returns the human-readable text for a reference: the
// anchor text for navigational links, or alt/title text for resources.
func elementText(s *goquery.Selection, kind ElementKind) string {
	if kind == KindAnchor {
		return normaliseWhitespace(s.Text())
	}
	if alt, ok := s.Attr("alt"); ok && alt != "" {
		return normaliseWhitespace(alt)
	}
	return normaliseWhitespace(s.AttrOr("title", ""))
}

// openingTag serialises just the element's opening tag, preserving
// attribute order from the source document.
func openingTag(s *goquery.Selection) string {
	if s.Length() == 0 {
		return ""
	}
	node := s.Get(0)
	if node.Type != html.ElementNode {
		return ""
	}

	var b strings.Builder
	b.WriteByte('<')
	b.WriteString(node.Data)
	for _, attr := range node.Attr {
		b.WriteByte(' ')
		b.WriteString(attr.Key)
		b.WriteString(`="`)
		b.WriteString(attr.Val)
		b.WriteByte('"')
	}
	b.WriteByte('>')
	return b.String()
}

// findLine scans the raw HTML for the element's markup and returns the
// 1-based line of the first match, falling back to the raw reference
// text when the serialised tag does not appear verbatim. This is a
// best-effort heuristic: minified or oddly formatted markup returns 0
// (unknown) or an approximate line, which is acceptable for reporting.
func findLine(rawHTML, markup, rawHref string) int {
	needle := normaliseWhitespace(markup)
	fallback := rawHref

	lines := strings.Split(rawHTML, "\n")
	if needle != "" {
		for i, line := range lines {
			if strings.Contains(normaliseWhitespace(line), needle) {
				return i + 1
			}
		}
	}
	if fallback != "" {
		for i, line := range lines {
			if strings.Contains(line, fallback) {
				return i + 1
			}
		}
	}
	return 0
}

// normaliseWhitespace collapses all runs of whitespace to single spaces
// and trims the ends.
func normaliseWhitespace(s string) string {
	return strings.Join(strings.Fields(s), " ")
}

// truncate bounds a string to max characters, appending an ellipsis
// marker when cut.
func truncate(s string, max int) string {
	if max <= 0 || len(s) <= max {
		return s
	}
	if max <= 3 {
		return s[:max]
	}
	return s[:max-3] + "..."
}
