package normalize

import (
	"encoding/json"
	"strings"

	"github.com/raagsetu/raag-engine/pkg/jsonutil"
	"github.com/raagsetu/raag-engine/pkg/models"
	"github.com/raagsetu/raag-engine/pkg/schema"
)

// rawField is the {value, reference, verified} triple as a provider returns
// it, before type coercion.
type rawField struct {
	Value     json.RawMessage `json:"value"`
	Reference json.RawMessage `json:"reference"`
}

// Normalize parses raw provider output against a category schema and
// produces a complete field map: every schema field present, values coerced
// to strings, references cleaned and never empty, verified always false
// (verification is a user action, never a research result).
func Normalize(raw string, s *schema.CategorySchema) (models.FieldMap, error) {
	jsonStr, err := ExtractJSON(raw)
	if err != nil {
		return nil, err
	}

	var parsed map[string]json.RawMessage
	if err := json.Unmarshal([]byte(jsonStr), &parsed); err != nil {
		return nil, &ParseError{Msg: "response payload is not a JSON object", Cause: err}
	}

	fields := make(models.FieldMap, len(s.Fields))
	for _, f := range s.Fields {
		rawVal, ok := lookupField(parsed, f.Name)
		if !ok {
			fields[f.Name] = models.FieldValue{
				Value:     "",
				Reference: s.DefaultReference(f.Name),
				Verified:  false,
			}
			continue
		}

		value, reference := coerceField(rawVal)
		reference = CleanReference(reference)
		if reference == "" {
			reference = s.DefaultReference(f.Name)
		}

		fields[f.Name] = models.FieldValue{
			Value:     value,
			Reference: reference,
			Verified:  false,
		}
	}

	return fields, nil
}

// lookupField finds a schema field in the parsed object. Dotted names
// ("taali.count") are flat keys, but providers often return them nested
// ({"taali": {"count": ...}}), so one level of nesting is also checked.
func lookupField(parsed map[string]json.RawMessage, name string) (json.RawMessage, bool) {
	if raw, ok := parsed[name]; ok {
		return raw, true
	}

	parent, child, found := strings.Cut(name, ".")
	if !found {
		return nil, false
	}

	rawParent, ok := parsed[parent]
	if !ok {
		return nil, false
	}

	var nested map[string]json.RawMessage
	if err := json.Unmarshal(rawParent, &nested); err != nil {
		return nil, false
	}

	raw, ok := nested[child]
	return raw, ok
}

// coerceField turns a raw field entry into (value, reference) strings.
// A {value, reference} object is unpacked; anything else (bare string,
// array, number) is treated as the value itself with no reference.
func coerceField(raw json.RawMessage) (string, string) {
	var triple rawField
	if err := json.Unmarshal(raw, &triple); err == nil && triple.Value != nil {
		return jsonutil.FlexibleStringValue(triple.Value), jsonutil.FlexibleStringValue(triple.Reference)
	}
	return jsonutil.FlexibleStringValue(raw), ""
}
