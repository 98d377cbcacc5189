// Package normalize turns raw AI-provider output into the verifiable field
// schema. It is the single chokepoint every research source passes through,
// so downstream code never special-cases provider quirks.
package normalize

import (
	"encoding/json"
	"regexp"
	"strings"
)

// thinkTagPattern matches <think>...</think> reasoning blocks that some
// models emit before their answer.
var thinkTagPattern = regexp.MustCompile(`(?s)<think>.*?</think>`)

// fencePattern matches markdown code fences with an optional language tag.
var fencePattern = regexp.MustCompile("(?m)^```[a-zA-Z]*\\s*$")

// ExtractJSON extracts the first balanced JSON object from a response that
// may contain reasoning tags, markdown fences, or conversational text.
func ExtractJSON(response string) (string, error) {
	cleaned := thinkTagPattern.ReplaceAllString(response, "")
	cleaned = fencePattern.ReplaceAllString(cleaned, "")

	if jsonStr, ok := extractBalancedObject(cleaned); ok {
		if json.Valid([]byte(jsonStr)) {
			return jsonStr, nil
		}
	}

	// Last resort: the entire cleaned response may be valid JSON.
	trimmed := strings.TrimSpace(cleaned)
	if len(trimmed) > 0 && trimmed[0] == '{' && json.Valid([]byte(trimmed)) {
		return trimmed, nil
	}

	return "", &ParseError{Msg: "no valid JSON object found in response"}
}

// extractBalancedObject finds the first balanced {...} structure, tracking
// string literals and escapes so braces inside values don't break depth
// counting.
func extractBalancedObject(s string) (string, bool) {
	start := strings.IndexByte(s, '{')
	if start == -1 {
		return "", false
	}

	depth := 0
	inString := false
	escaped := false

	for i := start; i < len(s); i++ {
		c := s[i]

		if escaped {
			escaped = false
			continue
		}

		if c == '\\' && inString {
			escaped = true
			continue
		}

		if c == '"' {
			inString = !inString
			continue
		}

		if inString {
			continue
		}

		if c == '{' {
			depth++
		} else if c == '}' {
			depth--
			if depth == 0 {
				return s[start : i+1], true
			}
		}
	}

	return "", false
}
