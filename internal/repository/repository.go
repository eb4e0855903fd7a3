package repository

import (
	"context"
	"fmt"
	"strings"

	"github.com/Khoa280703/admin-vietsov-sub000/internal/database"
	"github.com/Khoa280703/admin-vietsov-sub000/internal/models"
)

// Lookups return (nil, nil) when the row does not exist. Write errors are
// returned as the driver reports them so callers can classify constraint
// violations with the database package helpers.

// ArticleRepository defines the interface for article data operations
type ArticleRepository interface {
	// Create inserts the article and its associations, filling ID and timestamps
	Create(ctx context.Context, article *models.Article) error
	// Update rewrites every column and replaces both association sets
	Update(ctx context.Context, article *models.Article) error
	GetByID(ctx context.Context, id int64) (*models.Article, error)
	GetBySlug(ctx context.Context, slug string) (*models.Article, error)
	// SlugExists ignores the article with excludeID (0 excludes nothing)
	SlugExists(ctx context.Context, slug string, excludeID int64) (bool, error)
	Delete(ctx context.Context, id int64) (bool, error)
	List(ctx context.Context, filter models.ArticleFilter) ([]*models.Article, int, error)
	CountByStatus(ctx context.Context) (map[models.ArticleStatus]int, error)
}

// CategoryRepository defines the interface for category tree operations.
// Implementations keep the closure table consistent with parent links.
type CategoryRepository interface {
	Create(ctx context.Context, category *models.Category) error
	// Update writes scalar fields only; parent changes go through Move
	Update(ctx context.Context, category *models.Category) error
	// UpdateWithParent writes scalar fields and moves the subtree below
	// parentID atomically
	UpdateWithParent(ctx context.Context, category *models.Category, parentID *int64) error
	// Move sets the parent (nil detaches to root) and rewrites closure rows
	// of the whole subtree
	Move(ctx context.Context, id int64, parentID *int64) error
	GetByID(ctx context.Context, id int64) (*models.Category, error)
	SlugExists(ctx context.Context, slug string, excludeID int64) (bool, error)
	HasChildren(ctx context.Context, id int64) (bool, error)
	// Children returns direct children ordered by display order, then name
	Children(ctx context.Context, id int64) ([]*models.Category, error)
	// List returns matching categories ordered by display order, then name
	List(ctx context.Context, filter models.TreeFilter) ([]*models.Category, error)
	// IsDescendant reports whether nodeID lies strictly below ancestorID
	IsDescendant(ctx context.Context, ancestorID, nodeID int64) (bool, error)
	// Ancestors returns the chain from the root down to the direct parent
	Ancestors(ctx context.Context, id int64) ([]*models.Category, error)
	// MissingIDs returns the ids that do not exist
	MissingIDs(ctx context.Context, ids []int64) ([]int64, error)
	Delete(ctx context.Context, id int64) (bool, error)
	Count(ctx context.Context) (int, error)
}

// TagRepository defines the interface for tag data operations
type TagRepository interface {
	Create(ctx context.Context, tag *models.Tag) error
	Update(ctx context.Context, tag *models.Tag) error
	GetByID(ctx context.Context, id int64) (*models.Tag, error)
	NameExists(ctx context.Context, name string, excludeID int64) (bool, error)
	SlugExists(ctx context.Context, slug string, excludeID int64) (bool, error)
	MissingIDs(ctx context.Context, ids []int64) ([]int64, error)
	Delete(ctx context.Context, id int64) (bool, error)
	List(ctx context.Context, filter models.TagFilter) ([]*models.Tag, int, error)
	Count(ctx context.Context) (int, error)
}

// AuditRepository persists audit events
type AuditRepository interface {
	Insert(ctx context.Context, event *models.AuditEvent) error
	List(ctx context.Context, filter models.AuditFilter) ([]*models.AuditEvent, int, error)
}

// Repositories holds all repository interfaces
type Repositories struct {
	Article  ArticleRepository
	Category CategoryRepository
	Tag      TagRepository
	Audit    AuditRepository
}

// New creates all repositories with the given database connection
func New(db *database.DB) *Repositories {
	return &Repositories{
		Article:  NewArticleRepo(db),
		Category: NewCategoryRepo(db),
		Tag:      NewTagRepo(db),
		Audit:    NewAuditRepo(db),
	}
}

// scanner is satisfied by *sql.Row and *sql.Rows
type scanner interface {
	Scan(dest ...any) error
}

// whereClause accumulates AND-ed conditions with positional arguments
type whereClause struct {
	conds []string
	args  []any
}

// add appends cond, replacing each "?" with the next $n placeholder
func (w *whereClause) add(cond string, args ...any) {
	for _, arg := range args {
		w.args = append(w.args, arg)
		cond = strings.Replace(cond, "?", placeholder(len(w.args)), 1)
	}
	w.conds = append(w.conds, cond)
}

func (w *whereClause) String() string {
	if len(w.conds) == 0 {
		return ""
	}
	return " WHERE " + strings.Join(w.conds, " AND ")
}

// page appends LIMIT/OFFSET arguments and returns the clause
func (w *whereClause) page(page, size int) string {
	w.args = append(w.args, size, (page-1)*size)
	return " LIMIT " + placeholder(len(w.args)-1) + " OFFSET " + placeholder(len(w.args))
}

var likeEscaper = strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)

// containsPattern matches s literally anywhere in a LIKE ... ESCAPE '\' operand
func containsPattern(s string) string {
	return "%" + likeEscaper.Replace(s) + "%"
}

func placeholder(n int) string {
	return fmt.Sprintf("$%d", n)
}
