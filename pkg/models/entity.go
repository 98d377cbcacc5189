package models

import (
	"strings"
	"time"

	"github.com/google/uuid"
)

// Category identifies one of the curated knowledge domains.
type Category string

const (
	CategoryArtist Category = "artist"
	CategoryRaag   Category = "raag"
	CategoryTaal   Category = "taal"
)

// ParseCategory validates a category string from a URL path.
func ParseCategory(s string) (Category, bool) {
	switch Category(strings.ToLower(s)) {
	case CategoryArtist:
		return CategoryArtist, true
	case CategoryRaag:
		return CategoryRaag, true
	case CategoryTaal:
		return CategoryTaal, true
	default:
		return "", false
	}
}

// Entity is a persisted artist, raag, or taal: a named aggregate of
// verifiable field values plus an optional summary-mode sub-aggregate.
// Stored in engine_entities.
type Entity struct {
	ID       uuid.UUID `json:"id"`
	Category Category  `json:"category"`

	// Name duplicates Fields["name"].Value for case-insensitive lookup.
	Name string `json:"name"`

	Fields FieldMap `json:"fields"`

	// AllAbout holds the latest summary-mode result. Replaced wholesale on
	// every summary merge, never merged field by field.
	AllAbout *AllAboutData `json:"allAboutData,omitempty"`

	CreatedBy  string    `json:"created_by"`
	ModifiedBy string    `json:"modified_by"`
	CreatedAt  time.Time `json:"created_at"`
	UpdatedAt  time.Time `json:"updated_at"`
}

// NameField returns the entity's name field triple, if present.
func (e *Entity) NameField() (FieldValue, bool) {
	fv, ok := e.Fields["name"]
	return fv, ok
}

// AllAboutData is the summary-mode sub-aggregate owned by an entity.
type AllAboutData struct {
	Answer           FieldValue      `json:"answer"`
	Images           []Image         `json:"images"`
	Sources          []Source        `json:"sources"`
	Citations        []Citation      `json:"citations"`
	RelatedQuestions []string        `json:"relatedQuestions"`
	Metadata         SummaryMetadata `json:"metadata"`
}

// Image is a picture reference extracted from a summary-mode response.
type Image struct {
	URL    string `json:"url"`
	Origin string `json:"origin,omitempty"`
	Height int    `json:"height,omitempty"`
	Width  int    `json:"width,omitempty"`
}

// Source is a web source backing a summary-mode answer.
type Source struct {
	Title  string `json:"title,omitempty"`
	URL    string `json:"url"`
	Domain string `json:"domain,omitempty"`
}

// Citation is an inline citation marker from a search-augmented provider.
type Citation struct {
	Index int    `json:"index,omitempty"`
	URL   string `json:"url"`
}

// SummaryMetadata records which provider/model produced a summary result.
type SummaryMetadata struct {
	AIProvider  string    `json:"aiProvider"`
	AIModel     string    `json:"aiModel"`
	SearchQuery string    `json:"searchQuery"`
	Timestamp   time.Time `json:"timestamp"`
}
