package repository

import (
	"context"
	"database/sql"
	"time"

	"github.com/Khoa280703/admin-vietsov-sub000/internal/database"
	"github.com/Khoa280703/admin-vietsov-sub000/internal/models"
)

type tagRepo struct {
	db *database.DB
}

// NewTagRepo creates a new tag repository
func NewTagRepo(db *database.DB) TagRepository {
	return &tagRepo{db: db}
}

// Create inserts a new tag
func (r *tagRepo) Create(ctx context.Context, tag *models.Tag) error {
	query := `
		INSERT INTO tags (name, slug, description, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $4)
		RETURNING id, created_at, updated_at
	`
	return r.db.QueryRowContext(ctx, query, tag.Name, tag.Slug, tag.Description, time.Now()).
		Scan(&tag.ID, &tag.CreatedAt, &tag.UpdatedAt)
}

// Update writes name, slug and description
func (r *tagRepo) Update(ctx context.Context, tag *models.Tag) error {
	query := `
		UPDATE tags SET name = $2, slug = $3, description = $4, updated_at = $5
		WHERE id = $1
		RETURNING updated_at
	`
	err := r.db.QueryRowContext(ctx, query, tag.ID, tag.Name, tag.Slug, tag.Description, time.Now()).
		Scan(&tag.UpdatedAt)
	if err == sql.ErrNoRows {
		return nil
	}
	return err
}

// GetByID retrieves a tag by ID
func (r *tagRepo) GetByID(ctx context.Context, id int64) (*models.Tag, error) {
	query := "SELECT id, name, slug, description, created_at, updated_at FROM tags WHERE id = $1"
	tag, err := scanTag(r.db.QueryRowContext(ctx, query, id))
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return tag, nil
}

func scanTag(s scanner) (*models.Tag, error) {
	var tag models.Tag
	if err := s.Scan(&tag.ID, &tag.Name, &tag.Slug, &tag.Description, &tag.CreatedAt, &tag.UpdatedAt); err != nil {
		return nil, err
	}
	return &tag, nil
}

// NameExists compares names case-insensitively
func (r *tagRepo) NameExists(ctx context.Context, name string, excludeID int64) (bool, error) {
	var exists bool
	err := r.db.QueryRowContext(ctx,
		"SELECT EXISTS(SELECT 1 FROM tags WHERE LOWER(name) = LOWER($1) AND id <> $2)", name, excludeID,
	).Scan(&exists)
	return exists, err
}

func (r *tagRepo) SlugExists(ctx context.Context, slug string, excludeID int64) (bool, error) {
	var exists bool
	err := r.db.QueryRowContext(ctx,
		"SELECT EXISTS(SELECT 1 FROM tags WHERE slug = $1 AND id <> $2)", slug, excludeID,
	).Scan(&exists)
	return exists, err
}

func (r *tagRepo) MissingIDs(ctx context.Context, ids []int64) ([]int64, error) {
	return missingIDs(ctx, r.db, "tags", ids)
}

// Delete removes a tag and, by cascade, its article links
func (r *tagRepo) Delete(ctx context.Context, id int64) (bool, error) {
	res, err := r.db.ExecContext(ctx, "DELETE FROM tags WHERE id = $1", id)
	if err != nil {
		return false, err
	}
	n, err := res.RowsAffected()
	return n > 0, err
}

// List returns tags ordered by name
func (r *tagRepo) List(ctx context.Context, filter models.TagFilter) ([]*models.Tag, int, error) {
	filter.Normalize()

	var where whereClause
	if filter.Search != "" {
		where.add(`name ILIKE ? ESCAPE '\'`, containsPattern(filter.Search))
	}

	var total int
	if err := r.db.QueryRowContext(ctx, "SELECT COUNT(*) FROM tags"+where.String(), where.args...).Scan(&total); err != nil {
		return nil, 0, err
	}

	query := "SELECT id, name, slug, description, created_at, updated_at FROM tags" + where.String() + " ORDER BY name, id"
	query += where.page(filter.Page, filter.PageSize)

	rows, err := r.db.QueryContext(ctx, query, where.args...)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()

	tags := make([]*models.Tag, 0, filter.PageSize)
	for rows.Next() {
		tag, err := scanTag(rows)
		if err != nil {
			return nil, 0, err
		}
		tags = append(tags, tag)
	}
	return tags, total, rows.Err()
}

func (r *tagRepo) Count(ctx context.Context) (int, error) {
	var n int
	err := r.db.QueryRowContext(ctx, "SELECT COUNT(*) FROM tags").Scan(&n)
	return n, err
}
