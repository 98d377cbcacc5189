package models

// FieldValue is the atomic unit of verifiable research data: a value, the
// source reference backing it, and whether a user has verified it.
//
// Verified is only ever set true by explicit user action. A research merge
// that overwrites a field resets it to false.
type FieldValue struct {
	Value     string `json:"value"`
	Reference string `json:"reference"`
	Verified  bool   `json:"verified"`
}

// FieldMap is the normalized field set of one entity, keyed by schema field
// name. Composite taal fields use dotted keys ("taali.count").
type FieldMap map[string]FieldValue

// Clone returns a copy of the map so merge logic can stay pure.
func (m FieldMap) Clone() FieldMap {
	out := make(FieldMap, len(m))
	for k, v := range m {
		out[k] = v
	}
	return out
}

// ApplyFieldUpdates produces a new field map with updates applied over base.
// When preserveVerified is true, fields currently marked verified by a user
// are left untouched; otherwise every incoming field replaces the existing
// triple wholesale.
func ApplyFieldUpdates(base FieldMap, updates FieldMap, preserveVerified bool) FieldMap {
	out := base.Clone()
	for name, incoming := range updates {
		if preserveVerified {
			if existing, ok := out[name]; ok && existing.Verified {
				continue
			}
		}
		out[name] = incoming
	}
	return out
}
