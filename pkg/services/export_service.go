package services

import (
	"context"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/raagsetu/raag-engine/pkg/models"
	"github.com/raagsetu/raag-engine/pkg/schema"
)

// ExportService renders a stored entity as a markdown document, including
// field verification status and any summary-mode data with its citations.
type ExportService interface {
	ExportMarkdown(ctx context.Context, category models.Category, id uuid.UUID, userID string) (string, error)
}

type exportService struct {
	entities EntityService
	activity ActivityService
	logger   *zap.Logger
}

// NewExportService creates a new ExportService.
func NewExportService(entities EntityService, activity ActivityService, logger *zap.Logger) ExportService {
	return &exportService{
		entities: entities,
		activity: activity,
		logger:   logger.Named("export-service"),
	}
}

var _ ExportService = (*exportService)(nil)

func (s *exportService) ExportMarkdown(ctx context.Context, category models.Category, id uuid.UUID, userID string) (string, error) {
	entity, err := s.entities.Get(ctx, category, id)
	if err != nil {
		return "", err
	}

	categorySchema, err := schema.ForCategory(category)
	if err != nil {
		return "", err
	}

	var b strings.Builder
	fmt.Fprintf(&b, "# %s\n\n", entity.Name)
	fmt.Fprintf(&b, "_Category: %s_\n\n", category)

	b.WriteString("## Fields\n\n")
	b.WriteString("| Field | Value | Reference | Verified |\n")
	b.WriteString("| --- | --- | --- | --- |\n")
	// Schema order keeps exports stable across runs.
	for _, name := range categorySchema.FieldNames() {
		fv, ok := entity.Fields[name]
		if !ok {
			continue
		}
		mark := " "
		if fv.Verified {
			mark = "x"
		}
		fmt.Fprintf(&b, "| %s | %s | %s | [%s] |\n",
			escapeCell(name), escapeCell(fv.Value), escapeCell(fv.Reference), mark)
	}

	if aa := entity.AllAbout; aa != nil && aa.Answer.Value != "" {
		b.WriteString("\n## All About\n\n")
		b.WriteString(aa.Answer.Value)
		b.WriteString("\n")

		if len(aa.Citations) > 0 {
			b.WriteString("\n### Citations\n\n")
			for _, c := range aa.Citations {
				fmt.Fprintf(&b, "%d. %s\n", c.Index, c.URL)
			}
		}
		if len(aa.Sources) > 0 {
			b.WriteString("\n### Sources\n\n")
			for _, src := range aa.Sources {
				title := src.Title
				if title == "" {
					title = src.Domain
				}
				if title == "" {
					title = src.URL
				}
				fmt.Fprintf(&b, "- [%s](%s)\n", escapeCell(title), src.URL)
			}
		}
		if aa.Metadata.AIProvider != "" {
			fmt.Fprintf(&b, "\n_Summary by %s (%s) at %s_\n",
				aa.Metadata.AIProvider, aa.Metadata.AIModel,
				aa.Metadata.Timestamp.Format("2006-01-02 15:04 MST"))
		}
	}

	entityID := entity.ID
	s.activity.Record(&models.ActivityEntry{
		UserID:     userID,
		Category:   category,
		Action:     models.ActivityActionExport,
		EntityID:   &entityID,
		EntityName: entity.Name,
		Success:    true,
	})

	return b.String(), nil
}

// escapeCell keeps multi-line or pipe-containing values from breaking the
// markdown table.
func escapeCell(s string) string {
	s = strings.ReplaceAll(s, "|", "\\|")
	s = strings.ReplaceAll(s, "\n", " ")
	return s
}
