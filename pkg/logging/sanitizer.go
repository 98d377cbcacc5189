package logging

import (
	"regexp"
)

// RedactedText is the replacement text for sensitive data.
const RedactedText = "[REDACTED]"

var (
	// Matches password=xxx, pwd=xxx, pass=xxx in connection strings.
	passwordPattern = regexp.MustCompile(`(?i)(password|pwd|pass)=[^;&\s]+`)

	// Matches bearer tokens (three base64url segments separated by dots).
	jwtPattern = regexp.MustCompile(`Bearer\s+[A-Za-z0-9-_]+\.[A-Za-z0-9-_]+\.[A-Za-z0-9-_]*`)

	// Matches provider API keys passed in query strings or error text
	// (OpenAI sk-..., Perplexity pplx-..., generic key=... values).
	apiKeyPattern = regexp.MustCompile(`(?i)(api[_-]?key|apikey|key)=[A-Za-z0-9-_]{20,}|\b(sk|pplx)-[A-Za-z0-9-_]{16,}`)

	// Matches user:pass@host credentials embedded in URLs.
	connStringPattern = regexp.MustCompile(`://[^:/\s]+:[^@\s]+@[^/\s]+`)
)

// SanitizeConnectionString removes credentials from a connection string
// before logging.
func SanitizeConnectionString(connStr string) string {
	if connStr == "" {
		return ""
	}
	sanitized := passwordPattern.ReplaceAllString(connStr, "${1}="+RedactedText)
	sanitized = connStringPattern.ReplaceAllString(sanitized, "://"+RedactedText+"@"+RedactedText)
	return sanitized
}

// SanitizeError scrubs credentials that upstream SDK errors sometimes echo
// back (API keys in 401 bodies, connection strings in pgx errors).
func SanitizeError(err error) string {
	if err == nil {
		return ""
	}
	msg := err.Error()
	msg = passwordPattern.ReplaceAllString(msg, "${1}="+RedactedText)
	msg = jwtPattern.ReplaceAllString(msg, "Bearer "+RedactedText)
	msg = apiKeyPattern.ReplaceAllString(msg, RedactedText)
	msg = connStringPattern.ReplaceAllString(msg, "://"+RedactedText+"@"+RedactedText)
	return msg
}
