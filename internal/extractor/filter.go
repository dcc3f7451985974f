package extractor

import (
	"github.com/corella-au/corella/internal/util"
)

// FilterOptions narrows an extracted link list. Zero values leave a
// dimension unfiltered.
type FilterOptions struct {
	Internal       *bool         // true = internal only, false = external only
	Kinds          []ElementKind // Keep only these element kinds
	ExcludeDomains []string      // Drop links whose target host matches one of these
}

// Filter returns the subset of links matching opts, preserving order.
// Not used by the base pipeline, but exposed for consumers that need a
// narrowed view (and for tests).
func Filter(links []Link, opts FilterOptions) []Link {
	kept := make([]Link, 0, len(links))

	for _, link := range links {
		if opts.Internal != nil && link.IsInternal != *opts.Internal {
			continue
		}
		if len(opts.Kinds) > 0 && !containsKind(opts.Kinds, link.Kind) {
			continue
		}
		if matchesDomain(link.TargetURL, opts.ExcludeDomains) {
			continue
		}
		kept = append(kept, link)
	}

	return kept
}

func containsKind(kinds []ElementKind, kind ElementKind) bool {
	for _, k := range kinds {
		if k == kind {
			return true
		}
	}
	return false
}

func matchesDomain(targetURL string, domains []string) bool {
	if len(domains) == 0 {
		return false
	}
	host := util.HostOf(targetURL)
	for _, domain := range domains {
		if util.SameHost(host, domain) {
			return true
		}
	}
	return false
}
