package services

import (
	"context"
	"fmt"
	"html"
	"io"
	"net/http"
	"net/url"
	"regexp"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/raagsetu/raag-engine/pkg/apperrors"
	"github.com/raagsetu/raag-engine/pkg/config"
	"github.com/raagsetu/raag-engine/pkg/models"
	"github.com/raagsetu/raag-engine/pkg/repositories"
	"github.com/raagsetu/raag-engine/pkg/schema"
)

const maxScrapeBody = 2 << 20 // 2 MiB is plenty for an encyclopedia page

var (
	paragraphPattern = regexp.MustCompile(`(?is)<p[^>]*>(.*?)</p>`)
	tagPattern       = regexp.MustCompile(`(?s)<[^>]+>`)
	footnotePattern  = regexp.MustCompile(`\[\d+\]`)
	spacePattern     = regexp.MustCompile(`\s+`)
)

// ScraperService is the non-AI fallback: it fetches a public web page for
// an entity and fills in whatever the page's lead text supports. Scraped
// data goes through the same upsert path as provider research, so verified
// fields are preserved the same way.
type ScraperService interface {
	// Scrape fetches pageURL (or the configured lookup URL when empty)
	// and upserts an entity from what it finds.
	Scrape(ctx context.Context, category models.Category, name, pageURL, userID string) (*models.Entity, error)
}

type scraperService struct {
	cfg      config.ScraperConfig
	client   *http.Client
	entities repositories.EntityRepository
	activity ActivityService
	logger   *zap.Logger
}

// NewScraperService creates a new ScraperService.
func NewScraperService(cfg config.ScraperConfig, entities repositories.EntityRepository, activity ActivityService, logger *zap.Logger) ScraperService {
	timeout := cfg.RequestTimeout
	if timeout <= 0 {
		timeout = 20 * time.Second
	}
	return &scraperService{
		cfg:      cfg,
		client:   &http.Client{Timeout: timeout},
		entities: entities,
		activity: activity,
		logger:   logger.Named("scraper-service"),
	}
}

var _ ScraperService = (*scraperService)(nil)

func (s *scraperService) Scrape(ctx context.Context, category models.Category, name, pageURL, userID string) (*models.Entity, error) {
	start := time.Now()

	name = strings.TrimSpace(name)
	if name == "" {
		return nil, fmt.Errorf("%w: name is required", apperrors.ErrValidation)
	}

	categorySchema, err := schema.ForCategory(category)
	if err != nil {
		return nil, err
	}

	if pageURL == "" {
		pageURL = fmt.Sprintf(s.cfg.LookupURL, url.PathEscape(strings.ReplaceAll(name, " ", "_")))
	}
	if u, err := url.Parse(pageURL); err != nil || (u.Scheme != "http" && u.Scheme != "https") {
		return nil, fmt.Errorf("%w: invalid page URL %q", apperrors.ErrValidation, pageURL)
	}

	body, err := s.fetch(ctx, pageURL)
	if err != nil {
		s.recordScrape(category, name, nil, start, userID, err)
		return nil, err
	}

	lead := leadText(body)
	if lead == "" {
		err := fmt.Errorf("no readable text found at %s", pageURL)
		s.recordScrape(category, name, nil, start, userID, err)
		return nil, err
	}

	fields := categorySchema.DefaultFields(schema.PlaceholderReference)
	fields["name"] = models.FieldValue{Value: name, Reference: pageURL}
	for _, target := range []string{"summary", "description"} {
		if categorySchema.Has(target) {
			fields[target] = models.FieldValue{Value: lead, Reference: pageURL}
			break
		}
	}

	entity, err := s.entities.UpsertStructured(ctx, category, fields, repositories.UpsertOptions{ModifiedBy: userID})
	if err != nil {
		s.recordScrape(category, name, nil, start, userID, err)
		return nil, fmt.Errorf("failed to persist scraped result: %w", err)
	}

	s.logger.Info("Scrape completed",
		zap.String("category", string(category)),
		zap.String("name", name),
		zap.String("url", pageURL),
		zap.Int("lead_chars", len(lead)),
		zap.Duration("duration", time.Since(start)))

	s.recordScrape(category, name, entity, start, userID, nil)
	return entity, nil
}

func (s *scraperService) fetch(ctx context.Context, pageURL string) (string, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, pageURL, nil)
	if err != nil {
		return "", fmt.Errorf("failed to create scrape request: %w", err)
	}
	req.Header.Set("User-Agent", "raag-engine/1.0 (research fallback)")

	resp, err := s.client.Do(req)
	if err != nil {
		return "", fmt.Errorf("failed to fetch %s: %w", pageURL, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusNotFound {
		return "", fmt.Errorf("%w: page %s", apperrors.ErrNotFound, pageURL)
	}
	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("unexpected status %d from %s", resp.StatusCode, pageURL)
	}

	raw, err := io.ReadAll(io.LimitReader(resp.Body, maxScrapeBody))
	if err != nil {
		return "", fmt.Errorf("failed to read page body: %w", err)
	}
	return string(raw), nil
}

// leadText extracts the first substantial paragraph of an HTML page. Short
// paragraphs (navigation, disambiguation notices) are skipped.
func leadText(body string) string {
	for _, m := range paragraphPattern.FindAllStringSubmatch(body, 10) {
		text := tagPattern.ReplaceAllString(m[1], "")
		text = html.UnescapeString(text)
		text = footnotePattern.ReplaceAllString(text, "")
		text = strings.TrimSpace(spacePattern.ReplaceAllString(text, " "))
		if len(text) >= 80 {
			return text
		}
	}
	return ""
}

func (s *scraperService) recordScrape(category models.Category, name string, entity *models.Entity, start time.Time, userID string, err error) {
	entry := &models.ActivityEntry{
		UserID:     userID,
		Category:   category,
		Action:     models.ActivityActionScrape,
		EntityName: name,
		Success:    err == nil,
		DurationMs: time.Since(start).Milliseconds(),
	}
	if entity != nil {
		id := entity.ID
		entry.EntityID = &id
	}
	if err != nil {
		entry.Detail = err.Error()
	}
	s.activity.Record(entry)
}
