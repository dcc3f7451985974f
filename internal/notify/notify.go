// Package notify delivers scan outcomes to Slack. It fires only when a
// scan found 404s (or when the pipeline itself failed) and is always
// best-effort: a missing webhook or a failed send never affects the
// scan result.
package notify

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/rs/zerolog/log"
	"github.com/slack-go/slack"

	"github.com/corella-au/corella/internal/scanner"
	"github.com/corella-au/corella/internal/util"
)

// Config holds notification settings.
type Config struct {
	WebhookURL  string // Slack incoming-webhook URL; empty disables delivery
	MaxExamples int    // Cap on example links per section
}

// DefaultConfig returns notification settings used for production scans.
func DefaultConfig() *Config {
	return &Config{
		MaxExamples: 10,
	}
}

// Notifier sends Slack messages about scan outcomes.
type Notifier struct {
	config *Config
}

// New creates a Notifier.
func New(cfg *Config) *Notifier {
	if cfg == nil {
		cfg = DefaultConfig()
	}
	return &Notifier{config: cfg}
}

// NotifyBrokenLinks sends the 404 summary for a finished scan. Returns
// whether a message was actually delivered. Callers invoke this only
// when the 404 list is non-empty; an unconfigured webhook is skipped
// silently.
func (n *Notifier) NotifyBrokenLinks(ctx context.Context, report *scanner.Report) (bool, error) {
	if n.config.WebhookURL == "" {
		log.Debug().Msg("No Slack webhook configured, skipping broken-link notification")
		return false, nil
	}

	msg := n.buildBrokenLinksMessage(report)
	if err := slack.PostWebhookContext(ctx, n.config.WebhookURL, msg); err != nil {
		log.Error().Err(err).Msg("Failed to send broken-link notification to Slack")
		return false, err
	}

	log.Info().
		Int("errors_404", len(report.Errors404)).
		Msg("Broken-link notification sent to Slack")
	return true, nil
}

// NotifyFailure reports a fatal pipeline failure (unreachable sitemap,
// empty URL set). Best-effort: errors are logged and swallowed.
func (n *Notifier) NotifyFailure(ctx context.Context, stage string, failure error) {
	if n.config.WebhookURL == "" {
		log.Debug().Msg("No Slack webhook configured, skipping failure notification")
		return
	}

	msg := &slack.WebhookMessage{
		Text: fmt.Sprintf(":rotating_light: Link audit failed during %s: %v", stage, failure),
	}
	if err := slack.PostWebhookContext(ctx, n.config.WebhookURL, msg); err != nil {
		log.Error().Err(err).Msg("Failed to send failure notification to Slack")
		return
	}

	log.Info().Str("stage", stage).Msg("Failure notification sent to Slack")
}

// buildBrokenLinksMessage formats the 404 list: totals first, then
// capped example lists of internal errors and of external errors
// grouped by target domain.
func (n *Notifier) buildBrokenLinksMessage(report *scanner.Report) *slack.WebhookMessage {
	internal, external := splitErrors(report.Errors404)

	var b strings.Builder
	fmt.Fprintf(&b, ":warning: *%d broken link(s) found* across %d page(s) (%d links checked)\n",
		len(report.Errors404), report.PagesScanned, report.LinksChecked)

	if len(internal) > 0 {
		fmt.Fprintf(&b, "\n*Internal (%d):*\n", len(internal))
		for i, e := range internal {
			if i >= n.config.MaxExamples {
				fmt.Fprintf(&b, "…and %d more\n", len(internal)-n.config.MaxExamples)
				break
			}
			fmt.Fprintf(&b, "• <%s> — %q on %s\n", e.URL, e.LinkText, e.FoundOn)
		}
	}

	if len(external) > 0 {
		fmt.Fprintf(&b, "\n*External (%d):*\n", len(external))
		shown := 0
		for _, domain := range externalDomains(external) {
			if shown >= n.config.MaxExamples {
				break
			}
			group := external[domain]
			fmt.Fprintf(&b, "• %s (%d):\n", domain, len(group))
			for _, e := range group {
				if shown >= n.config.MaxExamples {
					break
				}
				fmt.Fprintf(&b, "    <%s> on %s\n", e.URL, e.FoundOn)
				shown++
			}
		}
	}

	return &slack.WebhookMessage{
		Text: b.String(),
		Attachments: []slack.Attachment{
			{
				Color: "#d00000",
				Fields: []slack.AttachmentField{
					{Title: "Pages scanned", Value: fmt.Sprintf("%d", report.PagesScanned), Short: true},
					{Title: "Links checked", Value: fmt.Sprintf("%d", report.LinksChecked), Short: true},
					{Title: "404s", Value: fmt.Sprintf("%d", len(report.Errors404)), Short: true},
					{Title: "Duration", Value: report.Duration.Round(time.Second).String(), Short: true},
				},
			},
		},
	}
}

// splitErrors partitions the 404 list into internal examples and
// external examples keyed by target domain.
func splitErrors(errors []scanner.BrokenLink) ([]scanner.BrokenLink, map[string][]scanner.BrokenLink) {
	var internal []scanner.BrokenLink
	external := make(map[string][]scanner.BrokenLink)

	for _, e := range errors {
		if e.IsInternal {
			internal = append(internal, e)
			continue
		}
		domain := util.HostOf(e.URL)
		if domain == "" {
			domain = "unknown"
		}
		external[domain] = append(external[domain], e)
	}

	return internal, external
}

// externalDomains returns the group keys in a stable order, largest
// group first.
func externalDomains(groups map[string][]scanner.BrokenLink) []string {
	domains := make([]string, 0, len(groups))
	for domain := range groups {
		domains = append(domains, domain)
	}
	sort.Slice(domains, func(i, j int) bool {
		if len(groups[domains[i]]) != len(groups[domains[j]]) {
			return len(groups[domains[i]]) > len(groups[domains[j]])
		}
		return domains[i] < domains[j]
	})
	return domains
}
