package repository

import (
	"context"
	"database/sql"
	"time"

	"github.com/Khoa280703/admin-vietsov-sub000/internal/database"
	"github.com/Khoa280703/admin-vietsov-sub000/internal/models"
	"github.com/lib/pq"
)

const categoryColumns = `
	c.id, c.name, c.slug, c.type, c.description, c.display_order,
	c.is_active, c.parent_id, c.created_at, c.updated_at
`

// categoryRepo stores categories with a closure table of every
// (ancestor, descendant) pair, including the depth-0 self pair.
type categoryRepo struct {
	db *database.DB
}

// NewCategoryRepo creates a new category repository
func NewCategoryRepo(db *database.DB) CategoryRepository {
	return &categoryRepo{db: db}
}

// Create inserts the category and its closure rows
func (r *categoryRepo) Create(ctx context.Context, category *models.Category) error {
	return r.db.WithTx(ctx, func(tx *sql.Tx) error {
		query := `
			INSERT INTO categories (name, slug, type, description, display_order, is_active, parent_id, created_at, updated_at)
			VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $8)
			RETURNING id, created_at, updated_at
		`
		err := tx.QueryRowContext(ctx, query,
			category.Name, category.Slug, category.Type, category.Description,
			category.DisplayOrder, category.IsActive, category.ParentID, time.Now(),
		).Scan(&category.ID, &category.CreatedAt, &category.UpdatedAt)
		if err != nil {
			return err
		}

		_, err = tx.ExecContext(ctx, `
			INSERT INTO categories_closure (ancestor_id, descendant_id, depth)
			SELECT $1::bigint, $1::bigint, 0
			UNION ALL
			SELECT ancestor_id, $1::bigint, depth + 1
			FROM categories_closure
			WHERE descendant_id = $2::bigint
		`, category.ID, category.ParentID)
		return err
	})
}

// Update writes the scalar columns
func (r *categoryRepo) Update(ctx context.Context, category *models.Category) error {
	return updateCategory(ctx, r.db, category)
}

// UpdateWithParent writes the scalar columns and reattaches the subtree
// below parentID in one transaction
func (r *categoryRepo) UpdateWithParent(ctx context.Context, category *models.Category, parentID *int64) error {
	return r.db.WithTx(ctx, func(tx *sql.Tx) error {
		if err := updateCategory(ctx, tx, category); err != nil {
			return err
		}
		return moveTx(ctx, tx, category.ID, parentID)
	})
}

// Move reattaches the subtree rooted at id below parentID
func (r *categoryRepo) Move(ctx context.Context, id int64, parentID *int64) error {
	return r.db.WithTx(ctx, func(tx *sql.Tx) error {
		return moveTx(ctx, tx, id, parentID)
	})
}

type rowQuerier interface {
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

func updateCategory(ctx context.Context, q rowQuerier, category *models.Category) error {
	query := `
		UPDATE categories
		SET name = $2, slug = $3, type = $4, description = $5,
		    display_order = $6, is_active = $7, updated_at = $8
		WHERE id = $1
		RETURNING updated_at
	`
	err := q.QueryRowContext(ctx, query,
		category.ID, category.Name, category.Slug, category.Type, category.Description,
		category.DisplayOrder, category.IsActive, time.Now(),
	).Scan(&category.UpdatedAt)
	if err == sql.ErrNoRows {
		return nil
	}
	return err
}

func moveTx(ctx context.Context, tx *sql.Tx, id int64, parentID *int64) error {
	// drop links from outside ancestors into the subtree
	_, err := tx.ExecContext(ctx, `
		DELETE FROM categories_closure
		WHERE descendant_id IN (SELECT descendant_id FROM categories_closure WHERE ancestor_id = $1)
		  AND ancestor_id NOT IN (SELECT descendant_id FROM categories_closure WHERE ancestor_id = $1)
	`, id)
	if err != nil {
		return err
	}

	if parentID != nil {
		_, err = tx.ExecContext(ctx, `
			INSERT INTO categories_closure (ancestor_id, descendant_id, depth)
			SELECT sup.ancestor_id, sub.descendant_id, sup.depth + sub.depth + 1
			FROM categories_closure sup
			CROSS JOIN categories_closure sub
			WHERE sup.descendant_id = $2 AND sub.ancestor_id = $1
		`, id, *parentID)
		if err != nil {
			return err
		}
	}

	_, err = tx.ExecContext(ctx,
		"UPDATE categories SET parent_id = $2, updated_at = $3 WHERE id = $1",
		id, parentID, time.Now(),
	)
	return err
}

// GetByID retrieves a category by ID
func (r *categoryRepo) GetByID(ctx context.Context, id int64) (*models.Category, error) {
	row := r.db.QueryRowContext(ctx, "SELECT "+categoryColumns+" FROM categories c WHERE c.id = $1", id)
	category, err := scanCategory(row)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return category, nil
}

func scanCategory(s scanner) (*models.Category, error) {
	var c models.Category
	err := s.Scan(
		&c.ID, &c.Name, &c.Slug, &c.Type, &c.Description, &c.DisplayOrder,
		&c.IsActive, &c.ParentID, &c.CreatedAt, &c.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &c, nil
}

func (r *categoryRepo) queryCategories(ctx context.Context, query string, args ...any) ([]*models.Category, error) {
	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var categories []*models.Category
	for rows.Next() {
		c, err := scanCategory(rows)
		if err != nil {
			return nil, err
		}
		categories = append(categories, c)
	}
	return categories, rows.Err()
}

// SlugExists checks if another category already uses slug
func (r *categoryRepo) SlugExists(ctx context.Context, slug string, excludeID int64) (bool, error) {
	var exists bool
	err := r.db.QueryRowContext(ctx,
		"SELECT EXISTS(SELECT 1 FROM categories WHERE slug = $1 AND id <> $2)", slug, excludeID,
	).Scan(&exists)
	return exists, err
}

// HasChildren reports whether any category points at id as parent
func (r *categoryRepo) HasChildren(ctx context.Context, id int64) (bool, error) {
	var exists bool
	err := r.db.QueryRowContext(ctx,
		"SELECT EXISTS(SELECT 1 FROM categories WHERE parent_id = $1)", id,
	).Scan(&exists)
	return exists, err
}

// Children returns the direct children of id
func (r *categoryRepo) Children(ctx context.Context, id int64) ([]*models.Category, error) {
	return r.queryCategories(ctx,
		"SELECT "+categoryColumns+" FROM categories c WHERE c.parent_id = $1 ORDER BY c.display_order, c.name, c.id",
		id,
	)
}

// List returns every category matching filter
func (r *categoryRepo) List(ctx context.Context, filter models.TreeFilter) ([]*models.Category, error) {
	var where whereClause
	if filter.Type != "" {
		where.add("c.type = ?", filter.Type)
	}
	if filter.ActiveOnly {
		where.add("c.is_active = TRUE")
	}
	return r.queryCategories(ctx,
		"SELECT "+categoryColumns+" FROM categories c"+where.String()+" ORDER BY c.display_order, c.name, c.id",
		where.args...,
	)
}

// IsDescendant answers from the closure table in one lookup
func (r *categoryRepo) IsDescendant(ctx context.Context, ancestorID, nodeID int64) (bool, error) {
	var exists bool
	err := r.db.QueryRowContext(ctx, `
		SELECT EXISTS(
			SELECT 1 FROM categories_closure
			WHERE ancestor_id = $1 AND descendant_id = $2 AND depth > 0
		)
	`, ancestorID, nodeID).Scan(&exists)
	return exists, err
}

// Ancestors returns the path from the root to the parent of id
func (r *categoryRepo) Ancestors(ctx context.Context, id int64) ([]*models.Category, error) {
	return r.queryCategories(ctx, `
		SELECT `+categoryColumns+`
		FROM categories_closure cc
		JOIN categories c ON c.id = cc.ancestor_id
		WHERE cc.descendant_id = $1 AND cc.depth > 0
		ORDER BY cc.depth DESC
	`, id)
}

// MissingIDs returns the subset of ids with no category row
func (r *categoryRepo) MissingIDs(ctx context.Context, ids []int64) ([]int64, error) {
	return missingIDs(ctx, r.db, "categories", ids)
}

// Delete removes a category. Closure rows cascade; a remaining child
// makes the parent_id foreign key fail.
func (r *categoryRepo) Delete(ctx context.Context, id int64) (bool, error) {
	res, err := r.db.ExecContext(ctx, "DELETE FROM categories WHERE id = $1", id)
	if err != nil {
		return false, err
	}
	n, err := res.RowsAffected()
	return n > 0, err
}

func (r *categoryRepo) Count(ctx context.Context) (int, error) {
	var n int
	err := r.db.QueryRowContext(ctx, "SELECT COUNT(*) FROM categories").Scan(&n)
	return n, err
}

// missingIDs is shared by the category and tag repositories. table is
// always a constant from this package.
func missingIDs(ctx context.Context, db *database.DB, table string, ids []int64) ([]int64, error) {
	if len(ids) == 0 {
		return nil, nil
	}
	rows, err := db.QueryContext(ctx, `
		SELECT want.id
		FROM unnest($1::bigint[]) AS want(id)
		WHERE NOT EXISTS (SELECT 1 FROM `+table+` t WHERE t.id = want.id)
		ORDER BY want.id
	`, pq.Array(ids))
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var missing []int64
	for rows.Next() {
		var id int64
		if err := rows.Scan(&id); err != nil {
			return nil, err
		}
		missing = append(missing, id)
	}
	return missing, rows.Err()
}
