package research

import (
	"context"
	"strings"
	"time"

	"github.com/sashabaranov/go-openai"
	"go.uber.org/zap"

	"github.com/raagsetu/raag-engine/pkg/models"
	"github.com/raagsetu/raag-engine/pkg/schema"
)

// OpenAIAdapter wraps the OpenAI chat completions API. It has no
// search-augmented citation metadata, so summary-mode sources are derived by
// scanning the answer text for URLs.
type OpenAIAdapter struct {
	client *openai.Client
	cfg    Config
	logger *zap.Logger
}

// NewOpenAIAdapter creates the OpenAI-like adapter. A missing or
// placeholder API key leaves the client nil; calls then fail with a config
// error instead of a doomed network request.
func NewOpenAIAdapter(cfg Config, logger *zap.Logger) *OpenAIAdapter {
	a := &OpenAIAdapter{
		cfg:    cfg,
		logger: logger.Named("openai"),
	}

	if !isPlaceholderKey(cfg.APIKey) {
		clientConfig := openai.DefaultConfig(cfg.APIKey)
		if cfg.BaseURL != "" {
			clientConfig.BaseURL = strings.TrimSuffix(cfg.BaseURL, "/")
		}
		a.client = openai.NewClientWithConfig(clientConfig)
	}

	return a
}

var _ Adapter = (*OpenAIAdapter)(nil)

func (a *OpenAIAdapter) Provider() Provider { return ProviderOpenAI }
func (a *OpenAIAdapter) Model() string      { return a.cfg.Model }

// Research implements Adapter.
func (a *OpenAIAdapter) Research(ctx context.Context, entityName string, s *schema.CategorySchema, modelHint string) (string, error) {
	content, _, err := a.complete(ctx, BuildStructuredPrompt(entityName, s), structuredSystemMessage, modelHint)
	return content, err
}

// Summarize implements Adapter.
func (a *OpenAIAdapter) Summarize(ctx context.Context, entityName string, category models.Category) (*SummaryResult, error) {
	query := BuildSummaryQuery(entityName, category)
	content, model, err := a.complete(ctx, query, "", "")
	if err != nil {
		return nil, err
	}

	return &SummaryResult{
		Answer:  content,
		Sources: scanSources(content),
		Model:   model,
	}, nil
}

// complete runs one chat completion, walking the fallback-model list when a
// model is rejected as unknown. Returns the content and the model that
// answered.
func (a *OpenAIAdapter) complete(ctx context.Context, prompt, systemMessage, modelHint string) (string, string, error) {
	if a.client == nil {
		return "", "", NewConfigError(ProviderOpenAI)
	}

	messages := make([]openai.ChatCompletionMessage, 0, 2)
	if systemMessage != "" {
		messages = append(messages, openai.ChatCompletionMessage{
			Role: openai.ChatMessageRoleSystem, Content: systemMessage,
		})
	}
	messages = append(messages, openai.ChatCompletionMessage{
		Role: openai.ChatMessageRoleUser, Content: prompt,
	})

	var lastErr error
	for _, model := range modelCandidates(a.cfg.Model, modelHint, a.cfg.FallbackModels) {
		callCtx, cancel := context.WithTimeout(ctx, a.cfg.timeout())
		start := time.Now()

		resp, err := a.client.CreateChatCompletion(callCtx, openai.ChatCompletionRequest{
			Model:    model,
			Messages: messages,
		})
		cancel()

		if err != nil {
			lastErr = err
			if IsModelNotFound(err) {
				a.logger.Warn("Model rejected, trying fallback",
					zap.String("model", model),
					zap.Error(err))
				continue
			}
			return "", "", NewRequestError(ProviderOpenAI, model, err)
		}

		if len(resp.Choices) == 0 {
			return "", "", NewRequestError(ProviderOpenAI, model, errNoChoices)
		}

		a.logger.Debug("OpenAI call completed",
			zap.String("model", model),
			zap.Int("prompt_tokens", resp.Usage.PromptTokens),
			zap.Int("completion_tokens", resp.Usage.CompletionTokens),
			zap.Duration("elapsed", time.Since(start)))

		return resp.Choices[0].Message.Content, model, nil
	}

	return "", "", NewRequestError(ProviderOpenAI, a.cfg.Model, lastErr)
}
