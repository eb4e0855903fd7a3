package models

import "time"

// AuditOutcome is the result recorded for an audited operation
type AuditOutcome string

const (
	OutcomeSuccess AuditOutcome = "success"
	OutcomeFailure AuditOutcome = "failure"
)

// AuditEvent is one structured record of a mutating operation
type AuditEvent struct {
	ID         string         `json:"id" db:"id"`
	ActorID    int64          `json:"actor_id" db:"actor_id"`
	Action     string         `json:"action" db:"action"`
	EntityType string         `json:"entity_type" db:"entity_type"`
	EntityID   int64          `json:"entity_id,omitempty" db:"entity_id"`
	Outcome    AuditOutcome   `json:"outcome" db:"outcome"`
	Metadata   map[string]any `json:"metadata,omitempty" db:"metadata"`
	CreatedAt  time.Time      `json:"created_at" db:"created_at"`
}

// AuditFilter narrows audit log listings
type AuditFilter struct {
	ActorID    int64  `schema:"actor_id"`
	Action     string `schema:"action"`
	EntityType string `schema:"entity_type"`
	EntityID   int64  `schema:"entity_id"`
	Page       int    `schema:"page"`
	PageSize   int    `schema:"page_size"`
}

func (f *AuditFilter) Normalize() {
	f.Page, f.PageSize = normalizePage(f.Page, f.PageSize)
}

type AuditPage struct {
	Items    []*AuditEvent `json:"items"`
	Total    int           `json:"total"`
	Page     int           `json:"page"`
	PageSize int           `json:"page_size"`
}

// Stats summarizes stored content for the dashboard endpoint
type Stats struct {
	ArticlesByStatus map[ArticleStatus]int `json:"articles_by_status"`
	Categories       int                   `json:"categories"`
	Tags             int                   `json:"tags"`
}
