// Package jsonutil contains helpers for the loosely-typed JSON that AI
// providers return.
package jsonutil

import (
	"encoding/json"
	"strconv"
	"strings"
)

// FlexibleStringValue converts a json.RawMessage to a string, handling the
// cases where a model returns an array, number, or boolean where the schema
// expects a string. Arrays are joined with ", ". Returns empty string for
// null/empty.
func FlexibleStringValue(raw json.RawMessage) string {
	if len(raw) == 0 || string(raw) == "null" {
		return ""
	}

	// Try string first
	var strVal string
	if err := json.Unmarshal(raw, &strVal); err == nil {
		return strVal
	}

	// Arrays of values are joined into a single comma-separated string
	var arrVal []json.RawMessage
	if err := json.Unmarshal(raw, &arrVal); err == nil {
		parts := make([]string, 0, len(arrVal))
		for _, el := range arrVal {
			if s := FlexibleStringValue(el); s != "" {
				parts = append(parts, s)
			}
		}
		return strings.Join(parts, ", ")
	}

	// Numbers: render integers without a trailing ".0"
	var numVal float64
	if err := json.Unmarshal(raw, &numVal); err == nil {
		if numVal == float64(int64(numVal)) {
			return strconv.FormatInt(int64(numVal), 10)
		}
		return strconv.FormatFloat(numVal, 'g', -1, 64)
	}

	var boolVal bool
	if err := json.Unmarshal(raw, &boolVal); err == nil {
		return strconv.FormatBool(boolVal)
	}

	// Objects and anything else keep their raw representation
	return string(raw)
}
