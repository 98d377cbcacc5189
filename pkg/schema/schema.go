// Package schema declares the fixed field enumerations for each curated
// category. The definitions live in an embedded YAML document so the field
// lists stay data, not code.
package schema

import (
	_ "embed"
	"fmt"

	"gopkg.in/yaml.v3"

	"github.com/raagsetu/raag-engine/pkg/models"
)

//go:embed categories.yaml
var categoriesYAML []byte

// Field is one schema-declared field of a category.
type Field struct {
	Name     string `yaml:"name"`
	Required bool   `yaml:"required"`
}

// CategorySchema is the fixed field enumeration of one category.
type CategorySchema struct {
	Category models.Category
	Fields   []Field
}

// PlaceholderReference is the explanatory reference given to structured
// fields of an entity created by a summary-only search.
const PlaceholderReference = "Use Structured Mode to get detailed field data"

type schemaFile struct {
	Categories map[string]struct {
		Fields []Field `yaml:"fields"`
	} `yaml:"categories"`
}

var registry map[models.Category]*CategorySchema

func init() {
	var parsed schemaFile
	if err := yaml.Unmarshal(categoriesYAML, &parsed); err != nil {
		panic(fmt.Sprintf("invalid embedded category schema: %v", err))
	}

	registry = make(map[models.Category]*CategorySchema, len(parsed.Categories))
	for name, def := range parsed.Categories {
		cat, ok := models.ParseCategory(name)
		if !ok {
			panic(fmt.Sprintf("embedded schema declares unknown category %q", name))
		}
		registry[cat] = &CategorySchema{
			Category: cat,
			Fields:   def.Fields,
		}
	}
}

// ForCategory returns the schema for a category.
func ForCategory(cat models.Category) (*CategorySchema, error) {
	s, ok := registry[cat]
	if !ok {
		return nil, fmt.Errorf("no schema for category %q", cat)
	}
	return s, nil
}

// FieldNames returns the declared field names in schema order.
func (s *CategorySchema) FieldNames() []string {
	names := make([]string, len(s.Fields))
	for i, f := range s.Fields {
		names[i] = f.Name
	}
	return names
}

// Has reports whether the schema declares the given field.
func (s *CategorySchema) Has(name string) bool {
	for _, f := range s.Fields {
		if f.Name == name {
			return true
		}
	}
	return false
}

// DefaultReference is the explanatory reference synthesized for a field the
// research pass did not return. Required fields get a stronger message.
func (s *CategorySchema) DefaultReference(name string) string {
	for _, f := range s.Fields {
		if f.Name == name && f.Required {
			return fmt.Sprintf("%s is required - please provide the %s %s", titleWord(name), s.Category, name)
		}
	}
	return "Information not found in available sources - use Structured Mode search to research this field"
}

// DefaultFields returns a full field map of empty values with explanatory
// references, used to seed placeholder entities.
func (s *CategorySchema) DefaultFields(reference string) models.FieldMap {
	fields := make(models.FieldMap, len(s.Fields))
	for _, f := range s.Fields {
		fields[f.Name] = models.FieldValue{
			Value:     "",
			Reference: reference,
			Verified:  false,
		}
	}
	return fields
}

func titleWord(s string) string {
	if s == "" || s[0] < 'a' || s[0] > 'z' {
		return s
	}
	return string(s[0]-('a'-'A')) + s[1:]
}
