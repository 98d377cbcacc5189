package research

import (
	"context"

	"github.com/raagsetu/raag-engine/pkg/models"
	"github.com/raagsetu/raag-engine/pkg/schema"
)

// MockAdapter is a configurable mock for testing research flows.
// Set the function fields to control behavior in tests.
type MockAdapter struct {
	// ResearchFunc is called when Research is invoked.
	// If nil, returns "{}" and nil error.
	ResearchFunc func(ctx context.Context, entityName string, s *schema.CategorySchema, modelHint string) (string, error)

	// SummarizeFunc is called when Summarize is invoked.
	// If nil, returns an empty SummaryResult.
	SummarizeFunc func(ctx context.Context, entityName string, category models.Category) (*SummaryResult, error)

	// ProviderTag is returned by Provider. Defaults to ProviderOpenAI.
	ProviderTag Provider

	// ModelName is returned by Model. Defaults to "mock-model".
	ModelName string

	// Call tracking for verification
	ResearchCalls  int
	SummarizeCalls int
}

// NewMockAdapter creates a new mock with sensible defaults.
func NewMockAdapter() *MockAdapter {
	return &MockAdapter{
		ProviderTag: ProviderOpenAI,
		ModelName:   "mock-model",
	}
}

// Research implements Adapter.
func (m *MockAdapter) Research(ctx context.Context, entityName string, s *schema.CategorySchema, modelHint string) (string, error) {
	m.ResearchCalls++
	if m.ResearchFunc != nil {
		return m.ResearchFunc(ctx, entityName, s, modelHint)
	}
	return "{}", nil
}

// Summarize implements Adapter.
func (m *MockAdapter) Summarize(ctx context.Context, entityName string, category models.Category) (*SummaryResult, error) {
	m.SummarizeCalls++
	if m.SummarizeFunc != nil {
		return m.SummarizeFunc(ctx, entityName, category)
	}
	return &SummaryResult{Model: m.Model()}, nil
}

// Provider implements Adapter.
func (m *MockAdapter) Provider() Provider {
	if m.ProviderTag == "" {
		return ProviderOpenAI
	}
	return m.ProviderTag
}

// Model implements Adapter.
func (m *MockAdapter) Model() string {
	if m.ModelName == "" {
		return "mock-model"
	}
	return m.ModelName
}

// Reset clears call tracking counters.
func (m *MockAdapter) Reset() {
	m.ResearchCalls = 0
	m.SummarizeCalls = 0
}

// Ensure MockAdapter implements Adapter at compile time.
var _ Adapter = (*MockAdapter)(nil)
