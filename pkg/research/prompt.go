package research

import (
	"fmt"
	"strings"

	"github.com/raagsetu/raag-engine/pkg/models"
	"github.com/raagsetu/raag-engine/pkg/schema"
)

// structuredSystemMessage frames every structured-mode call, independent of
// provider.
const structuredSystemMessage = "You are a meticulous researcher of Indian classical music. " +
	"You answer only with a single JSON object and never invent sources."

// categoryDescriptions gives the prompt its domain context per category.
var categoryDescriptions = map[models.Category]string{
	models.CategoryArtist: "a Hindustani or Carnatic classical music artist (vocalist or instrumentalist)",
	models.CategoryRaag:   "a raag (melodic framework) of Indian classical music",
	models.CategoryTaal:   "a taal (rhythmic cycle) of Indian classical music",
}

// fieldHints explain the non-obvious composite fields to the model.
var fieldHints = map[string]string{
	"taali.count":        "number of taali (clap) markings in the cycle",
	"taali.beatNumbers":  "beat numbers carrying a taali, comma separated",
	"khaali.count":       "number of khaali (wave) markings in the cycle",
	"khaali.beatNumbers": "beat numbers carrying a khaali, comma separated",
	"aroha":              "ascending note sequence",
	"avroha":             "descending note sequence",
	"vadi":               "most prominent note",
	"samvadi":            "second most prominent note",
	"matras":             "total beats in one cycle",
	"vibhags":            "number of divisions in the cycle",
}

// BuildStructuredPrompt renders the shared structured-mode prompt for one
// entity against its category schema. All three providers receive the same
// text; only transport differs.
func BuildStructuredPrompt(entityName string, s *schema.CategorySchema) string {
	var b strings.Builder

	fmt.Fprintf(&b, "Research %q, %s.\n\n", entityName, categoryDescriptions[s.Category])
	b.WriteString("Return ONLY a JSON object whose keys are exactly the field names listed below. ")
	b.WriteString("Each key maps to an object {\"value\": string, \"reference\": string, \"verified\": false}.\n\n")
	b.WriteString("Fields:\n")
	for _, f := range s.Fields {
		if hint, ok := fieldHints[f.Name]; ok {
			fmt.Fprintf(&b, "- %s (%s)\n", f.Name, hint)
		} else {
			fmt.Fprintf(&b, "- %s\n", f.Name)
		}
	}
	b.WriteString("\nRules:\n")
	b.WriteString("1. \"reference\" must contain only verifiable http(s) URLs you are confident exist.\n")
	b.WriteString("2. Join multiple source URLs with \" | \".\n")
	b.WriteString("3. If information for a field cannot be found, set \"value\" to \"\" and write a short ")
	b.WriteString("explanation in \"reference\" such as \"Information not found in available sources\". ")
	b.WriteString("Never fabricate a URL.\n")
	b.WriteString("4. Use the dotted field names verbatim as flat JSON keys.\n")

	return b.String()
}

// BuildSummaryQuery renders the free-text summary-mode query.
func BuildSummaryQuery(entityName string, category models.Category) string {
	return fmt.Sprintf("Tell me all about %s, %s. Include history, style, and significance.",
		entityName, categoryDescriptions[category])
}
