package research

import (
	"net/url"
	"regexp"
	"strings"

	"github.com/raagsetu/raag-engine/pkg/models"
)

// urlPattern matches http(s) URL tokens inside free text. Trailing
// punctuation is trimmed afterwards rather than encoded in the pattern.
var urlPattern = regexp.MustCompile(`https?://[^\s"'<>\])}]+`)

// scanSources derives a source list from a plain-text answer for providers
// that return no structured citation metadata: one source entry per unique
// URL token, with the domain parsed from the URL host.
func scanSources(text string) []models.Source {
	matches := urlPattern.FindAllString(text, -1)
	if len(matches) == 0 {
		return nil
	}

	seen := make(map[string]struct{}, len(matches))
	sources := make([]models.Source, 0, len(matches))
	for _, m := range matches {
		m = strings.TrimRight(m, ".,;:")
		if _, dup := seen[m]; dup {
			continue
		}
		seen[m] = struct{}{}
		sources = append(sources, models.Source{
			URL:    m,
			Domain: domainOf(m),
		})
	}
	return sources
}

func domainOf(raw string) string {
	u, err := url.Parse(raw)
	if err != nil {
		return ""
	}
	return strings.TrimPrefix(u.Hostname(), "www.")
}

// modelCandidates returns the ordered model list for one call: the hint (or
// configured primary) first, then the fallback list, deduplicated. The
// sequence is bounded; adapters stop at the first success.
func modelCandidates(primary, hint string, fallbacks []string) []string {
	first := primary
	if hint != "" {
		first = hint
	}

	candidates := make([]string, 0, 1+len(fallbacks))
	candidates = append(candidates, first)
	for _, m := range fallbacks {
		if m != first {
			candidates = append(candidates, m)
		}
	}
	return candidates
}
