package models

import (
	"time"

	"github.com/google/uuid"
)

// Activity actions recorded in the activity log.
const (
	ActivityActionStructuredSearch = "structured_search"
	ActivityActionSummarySearch    = "summary_search"
	ActivityActionScrape           = "scrape"
	ActivityActionFieldUpdate      = "field_update"
	ActivityActionVerify           = "verify"
	ActivityActionBulkVerify       = "bulk_verify"
	ActivityActionDelete           = "delete"
	ActivityActionExport           = "export"
)

// ActivityEntry is one record in the request activity log. Stored in
// engine_activity_log; written asynchronously after the response is sent.
type ActivityEntry struct {
	ID            uuid.UUID  `json:"id"`
	UserID        string     `json:"user_id,omitempty"`
	Category      Category   `json:"category"`
	Action        string     `json:"action"`
	EntityID      *uuid.UUID `json:"entity_id,omitempty"`
	EntityName    string     `json:"entity_name,omitempty"`
	FieldsTouched []string   `json:"fields_touched,omitempty"`
	Success       bool       `json:"success"`
	DurationMs    int64      `json:"duration_ms"`
	Detail        string     `json:"detail,omitempty"`
	CreatedAt     time.Time  `json:"created_at"`
}
