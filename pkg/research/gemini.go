package research

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"
	"google.golang.org/genai"

	"github.com/raagsetu/raag-engine/pkg/models"
	"github.com/raagsetu/raag-engine/pkg/schema"
)

// GeminiAdapter wraps the Gemini API via the google.golang.org/genai SDK.
// Like OpenAI it returns plain text, so summary-mode sources come from URL
// scanning.
type GeminiAdapter struct {
	client *genai.Client
	cfg    Config
	logger *zap.Logger
}

// NewGeminiAdapter creates the Gemini-like adapter. Client construction
// needs a context because the SDK may probe its backend; a missing key
// skips construction and surfaces as a config error per call.
func NewGeminiAdapter(ctx context.Context, cfg Config, logger *zap.Logger) (*GeminiAdapter, error) {
	a := &GeminiAdapter{
		cfg:    cfg,
		logger: logger.Named("gemini"),
	}

	if isPlaceholderKey(cfg.APIKey) {
		return a, nil
	}

	client, err := genai.NewClient(ctx, &genai.ClientConfig{
		APIKey:  cfg.APIKey,
		Backend: genai.BackendGeminiAPI,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create gemini client: %w", err)
	}
	a.client = client

	return a, nil
}

var _ Adapter = (*GeminiAdapter)(nil)

func (a *GeminiAdapter) Provider() Provider { return ProviderGemini }
func (a *GeminiAdapter) Model() string      { return a.cfg.Model }

// Research implements Adapter.
func (a *GeminiAdapter) Research(ctx context.Context, entityName string, s *schema.CategorySchema, modelHint string) (string, error) {
	content, _, err := a.generate(ctx, BuildStructuredPrompt(entityName, s), structuredSystemMessage, modelHint)
	return content, err
}

// Summarize implements Adapter.
func (a *GeminiAdapter) Summarize(ctx context.Context, entityName string, category models.Category) (*SummaryResult, error) {
	query := BuildSummaryQuery(entityName, category)
	content, model, err := a.generate(ctx, query, "", "")
	if err != nil {
		return nil, err
	}

	return &SummaryResult{
		Answer:  content,
		Sources: scanSources(content),
		Model:   model,
	}, nil
}

func (a *GeminiAdapter) generate(ctx context.Context, prompt, systemMessage, modelHint string) (string, string, error) {
	if a.client == nil {
		return "", "", NewConfigError(ProviderGemini)
	}

	var genConfig *genai.GenerateContentConfig
	if systemMessage != "" {
		genConfig = &genai.GenerateContentConfig{
			SystemInstruction: genai.NewContentFromText(systemMessage, genai.RoleUser),
		}
	}

	var lastErr error
	for _, model := range modelCandidates(a.cfg.Model, modelHint, a.cfg.FallbackModels) {
		callCtx, cancel := context.WithTimeout(ctx, a.cfg.timeout())
		start := time.Now()

		resp, err := a.client.Models.GenerateContent(callCtx, model, genai.Text(prompt), genConfig)
		cancel()

		if err != nil {
			lastErr = err
			if IsModelNotFound(err) {
				a.logger.Warn("Model rejected, trying fallback",
					zap.String("model", model),
					zap.Error(err))
				continue
			}
			return "", "", NewRequestError(ProviderGemini, model, err)
		}

		text := resp.Text()
		if text == "" {
			return "", "", NewRequestError(ProviderGemini, model, errNoChoices)
		}

		a.logger.Debug("Gemini call completed",
			zap.String("model", model),
			zap.Duration("elapsed", time.Since(start)))

		return text, model, nil
	}

	return "", "", NewRequestError(ProviderGemini, a.cfg.Model, lastErr)
}
