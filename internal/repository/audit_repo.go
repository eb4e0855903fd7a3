package repository

import (
	"context"
	"database/sql"
	"encoding/json"

	"github.com/Khoa280703/admin-vietsov-sub000/internal/database"
	"github.com/Khoa280703/admin-vietsov-sub000/internal/models"
)

type auditRepo struct {
	db *database.DB
}

// NewAuditRepo creates a new audit log repository
func NewAuditRepo(db *database.DB) AuditRepository {
	return &auditRepo{db: db}
}

// Insert stores one audit event. The caller assigns ID and CreatedAt.
func (r *auditRepo) Insert(ctx context.Context, event *models.AuditEvent) error {
	var metadata any
	if len(event.Metadata) > 0 {
		b, err := json.Marshal(event.Metadata)
		if err != nil {
			return err
		}
		metadata = string(b)
	}

	var entityID sql.NullInt64
	if event.EntityID != 0 {
		entityID = sql.NullInt64{Int64: event.EntityID, Valid: true}
	}

	query := `
		INSERT INTO audit_logs (id, actor_id, action, entity_type, entity_id, outcome, metadata, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
	`
	_, err := r.db.ExecContext(ctx, query,
		event.ID, event.ActorID, event.Action, event.EntityType,
		entityID, event.Outcome, metadata, event.CreatedAt,
	)
	return err
}

// List returns audit events newest first
func (r *auditRepo) List(ctx context.Context, filter models.AuditFilter) ([]*models.AuditEvent, int, error) {
	filter.Normalize()

	var where whereClause
	if filter.ActorID != 0 {
		where.add("actor_id = ?", filter.ActorID)
	}
	if filter.Action != "" {
		where.add("action = ?", filter.Action)
	}
	if filter.EntityType != "" {
		where.add("entity_type = ?", filter.EntityType)
	}
	if filter.EntityID != 0 {
		where.add("entity_id = ?", filter.EntityID)
	}

	var total int
	if err := r.db.QueryRowContext(ctx, "SELECT COUNT(*) FROM audit_logs"+where.String(), where.args...).Scan(&total); err != nil {
		return nil, 0, err
	}

	query := `SELECT id, actor_id, action, entity_type, entity_id, outcome, metadata, created_at FROM audit_logs` +
		where.String() + " ORDER BY created_at DESC, id"
	query += where.page(filter.Page, filter.PageSize)

	rows, err := r.db.QueryContext(ctx, query, where.args...)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()

	events := make([]*models.AuditEvent, 0, filter.PageSize)
	for rows.Next() {
		var event models.AuditEvent
		var entityID sql.NullInt64
		var metadata []byte
		if err := rows.Scan(&event.ID, &event.ActorID, &event.Action, &event.EntityType,
			&entityID, &event.Outcome, &metadata, &event.CreatedAt); err != nil {
			return nil, 0, err
		}
		event.EntityID = entityID.Int64
		if len(metadata) > 0 {
			if err := json.Unmarshal(metadata, &event.Metadata); err != nil {
				return nil, 0, err
			}
		}
		events = append(events, &event)
	}
	return events, total, rows.Err()
}
