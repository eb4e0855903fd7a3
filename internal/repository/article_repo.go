package repository

import (
	"context"
	"database/sql"
	"encoding/json"
	"time"

	"github.com/Khoa280703/admin-vietsov-sub000/internal/database"
	"github.com/Khoa280703/admin-vietsov-sub000/internal/models"
	"github.com/lib/pq"
)

const articleColumns = `
	a.id, a.title, a.subtitle, a.slug, a.excerpt, a.content, a.content_html,
	a.meta_title, a.meta_description, a.meta_keywords, a.status,
	a.word_count, a.character_count, a.reading_time,
	a.review_notes, a.reviewed_by, a.reviewed_at, a.scheduled_at, a.published_at,
	a.author_id, a.created_at, a.updated_at,
	ARRAY(SELECT ac.category_id FROM article_categories ac WHERE ac.article_id = a.id ORDER BY ac.category_id),
	ARRAY(SELECT art.tag_id FROM article_tags art WHERE art.article_id = a.id ORDER BY art.tag_id)
`

// articleRepo is the concrete implementation of ArticleRepository
type articleRepo struct {
	db *database.DB
}

// NewArticleRepo creates a new article repository
func NewArticleRepo(db *database.DB) ArticleRepository {
	return &articleRepo{db: db}
}

// Create inserts a new article with its category and tag links
func (r *articleRepo) Create(ctx context.Context, article *models.Article) error {
	return r.db.WithTx(ctx, func(tx *sql.Tx) error {
		query := `
			INSERT INTO articles (
				title, subtitle, slug, excerpt, content, content_html,
				meta_title, meta_description, meta_keywords, status,
				word_count, character_count, reading_time,
				review_notes, reviewed_by, reviewed_at, scheduled_at, published_at,
				author_id, created_at, updated_at
			)
			VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16, $17, $18, $19, $20, $20)
			RETURNING id, created_at, updated_at
		`
		now := time.Now()
		err := tx.QueryRowContext(ctx, query,
			article.Title, article.Subtitle, article.Slug, article.Excerpt,
			jsonParam(article.Content), article.ContentHTML,
			article.MetaTitle, article.MetaDescription, article.MetaKeywords, article.Status,
			article.WordCount, article.CharacterCount, article.ReadingTime,
			article.ReviewNotes, article.ReviewedBy, article.ReviewedAt,
			article.ScheduledAt, article.PublishedAt,
			article.AuthorID, now,
		).Scan(&article.ID, &article.CreatedAt, &article.UpdatedAt)
		if err != nil {
			return err
		}

		return replaceLinks(ctx, tx, article)
	})
}

// Update writes the full article row and replaces its links
func (r *articleRepo) Update(ctx context.Context, article *models.Article) error {
	return r.db.WithTx(ctx, func(tx *sql.Tx) error {
		query := `
			UPDATE articles SET
				title = $2, subtitle = $3, slug = $4, excerpt = $5, content = $6, content_html = $7,
				meta_title = $8, meta_description = $9, meta_keywords = $10, status = $11,
				word_count = $12, character_count = $13, reading_time = $14,
				review_notes = $15, reviewed_by = $16, reviewed_at = $17,
				scheduled_at = $18, published_at = $19, updated_at = $20
			WHERE id = $1
			RETURNING updated_at
		`
		err := tx.QueryRowContext(ctx, query,
			article.ID,
			article.Title, article.Subtitle, article.Slug, article.Excerpt,
			jsonParam(article.Content), article.ContentHTML,
			article.MetaTitle, article.MetaDescription, article.MetaKeywords, article.Status,
			article.WordCount, article.CharacterCount, article.ReadingTime,
			article.ReviewNotes, article.ReviewedBy, article.ReviewedAt,
			article.ScheduledAt, article.PublishedAt, time.Now(),
		).Scan(&article.UpdatedAt)
		if err != nil {
			return err
		}

		if _, err := tx.ExecContext(ctx, "DELETE FROM article_categories WHERE article_id = $1", article.ID); err != nil {
			return err
		}
		if _, err := tx.ExecContext(ctx, "DELETE FROM article_tags WHERE article_id = $1", article.ID); err != nil {
			return err
		}
		return replaceLinks(ctx, tx, article)
	})
}

func replaceLinks(ctx context.Context, tx *sql.Tx, article *models.Article) error {
	if len(article.CategoryIDs) > 0 {
		_, err := tx.ExecContext(ctx, `
			INSERT INTO article_categories (article_id, category_id)
			SELECT $1, unnest($2::bigint[])
			ON CONFLICT DO NOTHING
		`, article.ID, pq.Array(article.CategoryIDs))
		if err != nil {
			return err
		}
	}
	if len(article.TagIDs) > 0 {
		_, err := tx.ExecContext(ctx, `
			INSERT INTO article_tags (article_id, tag_id)
			SELECT $1, unnest($2::bigint[])
			ON CONFLICT DO NOTHING
		`, article.ID, pq.Array(article.TagIDs))
		if err != nil {
			return err
		}
	}
	return nil
}

// GetByID retrieves an article by ID
func (r *articleRepo) GetByID(ctx context.Context, id int64) (*models.Article, error) {
	row := r.db.QueryRowContext(ctx, "SELECT "+articleColumns+" FROM articles a WHERE a.id = $1", id)
	return scanArticleRow(row)
}

// GetBySlug retrieves an article by slug
func (r *articleRepo) GetBySlug(ctx context.Context, slug string) (*models.Article, error) {
	row := r.db.QueryRowContext(ctx, "SELECT "+articleColumns+" FROM articles a WHERE a.slug = $1", slug)
	return scanArticleRow(row)
}

func scanArticleRow(row *sql.Row) (*models.Article, error) {
	article, err := scanArticle(row)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return article, nil
}

func scanArticle(s scanner) (*models.Article, error) {
	var article models.Article
	var content []byte
	err := s.Scan(
		&article.ID, &article.Title, &article.Subtitle, &article.Slug, &article.Excerpt,
		&content, &article.ContentHTML,
		&article.MetaTitle, &article.MetaDescription, &article.MetaKeywords, &article.Status,
		&article.WordCount, &article.CharacterCount, &article.ReadingTime,
		&article.ReviewNotes, &article.ReviewedBy, &article.ReviewedAt,
		&article.ScheduledAt, &article.PublishedAt,
		&article.AuthorID, &article.CreatedAt, &article.UpdatedAt,
		pq.Array(&article.CategoryIDs), pq.Array(&article.TagIDs),
	)
	if err != nil {
		return nil, err
	}
	if len(content) > 0 {
		article.Content = json.RawMessage(content)
	}
	return &article, nil
}

// SlugExists checks if another article already uses slug
func (r *articleRepo) SlugExists(ctx context.Context, slug string, excludeID int64) (bool, error) {
	var exists bool
	err := r.db.QueryRowContext(ctx,
		"SELECT EXISTS(SELECT 1 FROM articles WHERE slug = $1 AND id <> $2)", slug, excludeID,
	).Scan(&exists)
	return exists, err
}

// Delete removes an article; join rows go with it via ON DELETE CASCADE
func (r *articleRepo) Delete(ctx context.Context, id int64) (bool, error) {
	res, err := r.db.ExecContext(ctx, "DELETE FROM articles WHERE id = $1", id)
	if err != nil {
		return false, err
	}
	n, err := res.RowsAffected()
	return n > 0, err
}

// List returns one page of articles, newest first, and the total match count
func (r *articleRepo) List(ctx context.Context, filter models.ArticleFilter) ([]*models.Article, int, error) {
	filter.Normalize()

	var where whereClause
	if filter.Status != "" {
		where.add("a.status = ?", filter.Status)
	}
	if filter.AuthorID != 0 {
		where.add("a.author_id = ?", filter.AuthorID)
	}
	if filter.CategoryID != 0 {
		where.add("EXISTS(SELECT 1 FROM article_categories ac WHERE ac.article_id = a.id AND ac.category_id = ?)", filter.CategoryID)
	}
	if filter.TagID != 0 {
		where.add("EXISTS(SELECT 1 FROM article_tags art WHERE art.article_id = a.id AND art.tag_id = ?)", filter.TagID)
	}
	if filter.Search != "" {
		where.add(`a.title ILIKE ? ESCAPE '\'`, containsPattern(filter.Search))
	}

	var total int
	if err := r.db.QueryRowContext(ctx, "SELECT COUNT(*) FROM articles a"+where.String(), where.args...).Scan(&total); err != nil {
		return nil, 0, err
	}

	query := "SELECT " + articleColumns + " FROM articles a" + where.String() + " ORDER BY a.created_at DESC, a.id DESC"
	query += where.page(filter.Page, filter.PageSize)

	rows, err := r.db.QueryContext(ctx, query, where.args...)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()

	articles := make([]*models.Article, 0, filter.PageSize)
	for rows.Next() {
		article, err := scanArticle(rows)
		if err != nil {
			return nil, 0, err
		}
		articles = append(articles, article)
	}
	return articles, total, rows.Err()
}

// CountByStatus returns article counts keyed by status
func (r *articleRepo) CountByStatus(ctx context.Context) (map[models.ArticleStatus]int, error) {
	rows, err := r.db.QueryContext(ctx, "SELECT status, COUNT(*) FROM articles GROUP BY status")
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	counts := make(map[models.ArticleStatus]int)
	for rows.Next() {
		var status models.ArticleStatus
		var count int
		if err := rows.Scan(&status, &count); err != nil {
			return nil, err
		}
		counts[status] = count
	}
	return counts, rows.Err()
}

// jsonParam sends a document as text, or NULL when empty
func jsonParam(raw json.RawMessage) any {
	if len(raw) == 0 {
		return nil
	}
	return string(raw)
}
