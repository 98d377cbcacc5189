// Package research wraps the upstream AI providers behind a single adapter
// contract. One parametrized prompt builder serves all providers; only the
// true per-provider differences (request shape, auth, citation metadata)
// live in the individual adapters.
package research

import (
	"context"
	"strings"

	"github.com/raagsetu/raag-engine/pkg/models"
	"github.com/raagsetu/raag-engine/pkg/schema"
)

// Provider identifies one of the supported upstream AI providers.
type Provider string

const (
	ProviderOpenAI     Provider = "openai"
	ProviderGemini     Provider = "gemini"
	ProviderPerplexity Provider = "perplexity"
)

// ParseProvider validates a provider string from a request.
func ParseProvider(s string) (Provider, bool) {
	switch Provider(strings.ToLower(s)) {
	case ProviderOpenAI:
		return ProviderOpenAI, true
	case ProviderGemini:
		return ProviderGemini, true
	case ProviderPerplexity:
		return ProviderPerplexity, true
	default:
		return "", false
	}
}

// SummaryResult is the outcome of one summary-mode ("all about") call.
// Empty citation/image/source lists are valid results, not errors.
type SummaryResult struct {
	Answer           string
	Images           []models.Image
	Sources          []models.Source
	Citations        []models.Citation
	RelatedQuestions []string

	// Model is the model that actually answered (after any fallback).
	Model string
}

// Adapter is the contract every provider integration satisfies.
//
// Research returns the provider's raw text output; normalization happens
// downstream in pkg/normalize, never in an adapter. Adapters perform no
// persistence and no retries beyond the configured fallback-model sequence.
type Adapter interface {
	// Research runs a structured-mode extraction for the named entity.
	// modelHint overrides the configured primary model when non-empty.
	Research(ctx context.Context, entityName string, s *schema.CategorySchema, modelHint string) (string, error)

	// Summarize runs a free-text "all about" query for the named entity.
	Summarize(ctx context.Context, entityName string, category models.Category) (*SummaryResult, error)

	// Provider returns the adapter's provider tag.
	Provider() Provider

	// Model returns the configured primary model name.
	Model() string
}
