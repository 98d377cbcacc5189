package research

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/raagsetu/raag-engine/pkg/models"
	"github.com/raagsetu/raag-engine/pkg/schema"
)

const defaultPerplexityBaseURL = "https://api.perplexity.ai"

// PerplexityAdapter wraps the Perplexity chat completions API over raw
// net/http. Perplexity has no official Go SDK, and its responses carry
// citations/images/related_questions arrays that OpenAI-compatible client
// libraries silently drop; summary mode needs that metadata.
type PerplexityAdapter struct {
	cfg        Config
	baseURL    string
	httpClient *http.Client
	logger     *zap.Logger
}

// NewPerplexityAdapter creates the Perplexity-like adapter.
func NewPerplexityAdapter(cfg Config, logger *zap.Logger) *PerplexityAdapter {
	baseURL := cfg.BaseURL
	if baseURL == "" {
		baseURL = defaultPerplexityBaseURL
	}

	return &PerplexityAdapter{
		cfg:     cfg,
		baseURL: strings.TrimSuffix(baseURL, "/"),
		httpClient: &http.Client{
			Timeout: cfg.timeout(),
		},
		logger: logger.Named("perplexity"),
	}
}

var _ Adapter = (*PerplexityAdapter)(nil)

func (a *PerplexityAdapter) Provider() Provider { return ProviderPerplexity }
func (a *PerplexityAdapter) Model() string      { return a.cfg.Model }

type perplexityMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type perplexityRequest struct {
	Model                  string              `json:"model"`
	Messages               []perplexityMessage `json:"messages"`
	ReturnImages           bool                `json:"return_images,omitempty"`
	ReturnRelatedQuestions bool                `json:"return_related_questions,omitempty"`
}

type perplexityImage struct {
	ImageURL  string `json:"image_url"`
	OriginURL string `json:"origin_url"`
	Height    int    `json:"height"`
	Width     int    `json:"width"`
}

type perplexityResponse struct {
	Choices []struct {
		Message struct {
			Content string `json:"content"`
		} `json:"message"`
	} `json:"choices"`
	Citations        []string          `json:"citations"`
	Images           []perplexityImage `json:"images"`
	RelatedQuestions []string          `json:"related_questions"`
}

// Research implements Adapter.
func (a *PerplexityAdapter) Research(ctx context.Context, entityName string, s *schema.CategorySchema, modelHint string) (string, error) {
	resp, _, err := a.chat(ctx, BuildStructuredPrompt(entityName, s), structuredSystemMessage, modelHint, false)
	if err != nil {
		return "", err
	}
	return resp.Choices[0].Message.Content, nil
}

// Summarize implements Adapter. Perplexity is search-augmented, so
// citations/images come straight from the response metadata; URL scanning
// is only the fallback when the metadata is empty.
func (a *PerplexityAdapter) Summarize(ctx context.Context, entityName string, category models.Category) (*SummaryResult, error) {
	query := BuildSummaryQuery(entityName, category)
	resp, model, err := a.chat(ctx, query, "", "", true)
	if err != nil {
		return nil, err
	}

	answer := resp.Choices[0].Message.Content

	result := &SummaryResult{
		Answer:           answer,
		RelatedQuestions: resp.RelatedQuestions,
		Model:            model,
	}

	for i, c := range resp.Citations {
		result.Citations = append(result.Citations, models.Citation{Index: i + 1, URL: c})
		result.Sources = append(result.Sources, models.Source{URL: c, Domain: domainOf(c)})
	}
	if len(result.Sources) == 0 {
		result.Sources = scanSources(answer)
	}

	for _, img := range resp.Images {
		result.Images = append(result.Images, models.Image{
			URL:    img.ImageURL,
			Origin: img.OriginURL,
			Height: img.Height,
			Width:  img.Width,
		})
	}

	return result, nil
}

// chat posts one chat completion, walking the fallback-model list when the
// model is rejected. The returned response always has at least one choice.
func (a *PerplexityAdapter) chat(ctx context.Context, prompt, systemMessage, modelHint string, withMetadata bool) (*perplexityResponse, string, error) {
	if isPlaceholderKey(a.cfg.APIKey) {
		return nil, "", NewConfigError(ProviderPerplexity)
	}

	messages := make([]perplexityMessage, 0, 2)
	if systemMessage != "" {
		messages = append(messages, perplexityMessage{Role: "system", Content: systemMessage})
	}
	messages = append(messages, perplexityMessage{Role: "user", Content: prompt})

	var lastErr error
	for _, model := range modelCandidates(a.cfg.Model, modelHint, a.cfg.FallbackModels) {
		resp, err := a.post(ctx, perplexityRequest{
			Model:                  model,
			Messages:               messages,
			ReturnImages:           withMetadata,
			ReturnRelatedQuestions: withMetadata,
		})
		if err != nil {
			lastErr = err
			if IsModelNotFound(err) {
				a.logger.Warn("Model rejected, trying fallback",
					zap.String("model", model),
					zap.Error(err))
				continue
			}
			return nil, "", NewRequestError(ProviderPerplexity, model, err)
		}

		if len(resp.Choices) == 0 {
			return nil, "", NewRequestError(ProviderPerplexity, model, errNoChoices)
		}

		return resp, model, nil
	}

	return nil, "", NewRequestError(ProviderPerplexity, a.cfg.Model, lastErr)
}

func (a *PerplexityAdapter) post(ctx context.Context, reqBody perplexityRequest) (*perplexityResponse, error) {
	payload, err := json.Marshal(reqBody)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal request: %w", err)
	}

	callCtx, cancel := context.WithTimeout(ctx, a.cfg.timeout())
	defer cancel()

	req, err := http.NewRequestWithContext(callCtx, http.MethodPost, a.baseURL+"/chat/completions", bytes.NewReader(payload))
	if err != nil {
		return nil, fmt.Errorf("failed to build request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+a.cfg.APIKey)
	req.Header.Set("Content-Type", "application/json")

	start := time.Now()
	resp, err := a.httpClient.Do(req)
	if err != nil {
		return nil, err
	}
	defer func() { _ = resp.Body.Close() }()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read response body: %w", err)
	}

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("HTTP %d: %s", resp.StatusCode, strings.TrimSpace(string(body)))
	}

	var parsed perplexityResponse
	if err := json.Unmarshal(body, &parsed); err != nil {
		return nil, fmt.Errorf("failed to decode response: %w", err)
	}

	a.logger.Debug("Perplexity call completed",
		zap.String("model", reqBody.Model),
		zap.Int("citations", len(parsed.Citations)),
		zap.Duration("elapsed", time.Since(start)))

	return &parsed, nil
}
