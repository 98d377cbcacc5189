package normalize

import (
	"net/url"
	"regexp"
	"strings"
)

// parentheticalPattern matches annotations like "(accessed 2024)" that
// models append to URLs.
var parentheticalPattern = regexp.MustCompile(`\s*\([^)]*\)`)

// notFoundPhrases mark explanatory placeholder references that must be kept
// verbatim rather than tagged as non-URLs.
var notFoundPhrases = []string{
	"not found",
	"not available",
	"no information",
	"no specific",
	"no verifiable",
	"unavailable",
	"use structured mode",
	"is required",
}

// domainTokens suggest a segment was meant to be a URL even though it does
// not parse as one.
var domainTokens = []string{".com", ".org", ".edu", ".net", ".gov", "wikipedia"}

// CleanReference validates and classifies a reference string. Multi-source
// references are split on their separator, each segment classified
// independently, and the results rejoined with " | ":
//
//   - a valid absolute http(s) URL is kept verbatim
//   - a domain-like string that fails URL parsing is tagged "Invalid URL format"
//   - an explanatory not-found phrase is kept verbatim
//   - anything else is tagged "Non-URL reference"
func CleanReference(ref string) string {
	ref = strings.TrimSpace(ref)
	if ref == "" {
		return ""
	}

	segments := splitSources(ref)
	cleaned := make([]string, 0, len(segments))
	for _, seg := range segments {
		seg = strings.TrimSpace(seg)
		if seg == "" {
			continue
		}
		cleaned = append(cleaned, classifySegment(seg))
	}

	return strings.Join(cleaned, " | ")
}

// splitSources detects a multi-source separator. Comma splitting only
// happens when the string actually contains a URL, so explanatory sentences
// with commas stay whole.
func splitSources(ref string) []string {
	switch {
	case strings.Contains(ref, " | "):
		return strings.Split(ref, " | ")
	case strings.Contains(ref, "; "):
		return strings.Split(ref, "; ")
	case strings.Contains(ref, ", ") && strings.Contains(ref, "://"):
		return strings.Split(ref, ", ")
	default:
		return []string{ref}
	}
}

func classifySegment(seg string) string {
	stripped := strings.TrimSpace(parentheticalPattern.ReplaceAllString(seg, ""))
	if stripped == "" {
		stripped = seg
	}

	if isValidURL(stripped) {
		return stripped
	}

	lower := strings.ToLower(stripped)
	for _, phrase := range notFoundPhrases {
		if strings.Contains(lower, phrase) {
			return stripped
		}
	}

	for _, token := range domainTokens {
		if strings.Contains(lower, token) {
			return "Invalid URL format: " + stripped
		}
	}

	return "Non-URL reference: " + stripped
}

func isValidURL(s string) bool {
	u, err := url.Parse(s)
	if err != nil {
		return false
	}
	return (u.Scheme == "http" || u.Scheme == "https") && u.Host != ""
}
