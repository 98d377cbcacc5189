package models

import (
	"time"

	"github.com/google/uuid"
)

// AllAboutSnapshot is the standalone audit record of one summary-mode call.
// One row per search; never merged. Stored in engine_all_about_snapshots.
type AllAboutSnapshot struct {
	ID          uuid.UUID `json:"id"`
	Category    Category  `json:"category"`
	SearchQuery string    `json:"search_query"`

	Answer           FieldValue      `json:"answer"`
	Images           []Image         `json:"images"`
	Sources          []Source        `json:"sources"`
	Citations        []Citation      `json:"citations"`
	RelatedQuestions []string        `json:"related_questions"`
	Metadata         SummaryMetadata `json:"metadata"`

	CreatedAt time.Time `json:"created_at"`
}
