package models

import (
	"encoding/json"
	"time"
)

// ArticleStatus is the review workflow state of an article
type ArticleStatus string

const (
	StatusDraft       ArticleStatus = "draft"
	StatusSubmitted   ArticleStatus = "submitted"
	StatusUnderReview ArticleStatus = "under_review"
	StatusApproved    ArticleStatus = "approved"
	StatusRejected    ArticleStatus = "rejected"
	StatusPublished   ArticleStatus = "published"
)

// ArticleStatuses lists every status in workflow order
var ArticleStatuses = []ArticleStatus{
	StatusDraft,
	StatusSubmitted,
	StatusUnderReview,
	StatusApproved,
	StatusRejected,
	StatusPublished,
}

func (s ArticleStatus) String() string {
	return string(s)
}

// IsValid returns true if s is a known status
func (s ArticleStatus) IsValid() bool {
	switch s {
	case StatusDraft, StatusSubmitted, StatusUnderReview,
		StatusApproved, StatusRejected, StatusPublished:
		return true
	default:
		return false
	}
}

// InReview reports whether s is an entry point of the review gate
func (s ArticleStatus) InReview() bool {
	return s == StatusSubmitted || s == StatusUnderReview
}

// AuthorEditable reports whether a non-admin owner may still edit the article
func (s ArticleStatus) AuthorEditable() bool {
	return s == StatusDraft || s == StatusSubmitted
}

// Article represents an article in the system
type Article struct {
	ID              int64           `json:"id" db:"id"`
	Title           string          `json:"title" db:"title"`
	Subtitle        *string         `json:"subtitle,omitempty" db:"subtitle"`
	Slug            string          `json:"slug" db:"slug"`
	Excerpt         *string         `json:"excerpt,omitempty" db:"excerpt"`
	Content         json.RawMessage `json:"content" db:"content"`
	ContentHTML     *string         `json:"content_html,omitempty" db:"content_html"`
	MetaTitle       *string         `json:"meta_title,omitempty" db:"meta_title"`
	MetaDescription *string         `json:"meta_description,omitempty" db:"meta_description"`
	MetaKeywords    *string         `json:"meta_keywords,omitempty" db:"meta_keywords"`
	Status          ArticleStatus   `json:"status" db:"status"`
	WordCount       int             `json:"word_count" db:"word_count"`
	CharacterCount  int             `json:"character_count" db:"character_count"`
	ReadingTime     int             `json:"reading_time" db:"reading_time"`
	ReviewNotes     *string         `json:"review_notes,omitempty" db:"review_notes"`
	ReviewedBy      *int64          `json:"reviewed_by,omitempty" db:"reviewed_by"`
	ReviewedAt      *time.Time      `json:"reviewed_at,omitempty" db:"reviewed_at"`
	ScheduledAt     *time.Time      `json:"scheduled_at,omitempty" db:"scheduled_at"`
	PublishedAt     *time.Time      `json:"published_at,omitempty" db:"published_at"`
	AuthorID        int64           `json:"author_id" db:"author_id"`
	CategoryIDs     []int64         `json:"category_ids" db:"-"` // article_categories
	TagIDs          []int64         `json:"tag_ids" db:"-"`      // article_tags
	CreatedAt       time.Time       `json:"created_at" db:"created_at"`
	UpdatedAt       time.Time       `json:"updated_at" db:"updated_at"`
}

// CreateArticleInput is the payload for a new article
type CreateArticleInput struct {
	Title           string          `json:"title" validate:"required,max=255"`
	Subtitle        *string         `json:"subtitle" validate:"omitempty,max=255"`
	Slug            *string         `json:"slug" validate:"omitempty,max=255"`
	Excerpt         *string         `json:"excerpt"`
	Content         json.RawMessage `json:"content"`
	ContentHTML     *string         `json:"content_html"`
	MetaTitle       *string         `json:"meta_title" validate:"omitempty,max=255"`
	MetaDescription *string         `json:"meta_description"`
	MetaKeywords    *string         `json:"meta_keywords"`
	ScheduledAt     *time.Time      `json:"scheduled_at"`
	CategoryIDs     []int64         `json:"category_ids" validate:"dive,gt=0"`
	TagIDs          []int64         `json:"tag_ids" validate:"dive,gt=0"`
}

// UpdateArticleInput is a partial update: nil fields are left unchanged.
// Content is absent when nil; a JSON null clears it.
type UpdateArticleInput struct {
	Title           *string         `json:"title" validate:"omitempty,min=1,max=255"`
	Subtitle        *string         `json:"subtitle" validate:"omitempty,max=255"`
	Slug            *string         `json:"slug" validate:"omitempty,max=255"`
	Excerpt         *string         `json:"excerpt"`
	Content         json.RawMessage `json:"content"`
	ContentHTML     *string         `json:"content_html"`
	MetaTitle       *string         `json:"meta_title" validate:"omitempty,max=255"`
	MetaDescription *string         `json:"meta_description"`
	MetaKeywords    *string         `json:"meta_keywords"`
	ScheduledAt     *time.Time      `json:"scheduled_at"`
	Status          *ArticleStatus  `json:"status" validate:"omitempty,article_status"`
	CategoryIDs     *[]int64        `json:"category_ids"`
	TagIDs          *[]int64        `json:"tag_ids"`
}

// ReviewInput carries optional reviewer notes for approve/reject
type ReviewInput struct {
	Notes *string `json:"notes"`
}

// StatusInput is the payload of the administrative status override
type StatusInput struct {
	Status ArticleStatus `json:"status" validate:"required,article_status"`
}

// ArticleFilter narrows article listings. Zero values mean "any".
type ArticleFilter struct {
	Status     string `schema:"status"`
	AuthorID   int64  `schema:"author_id"`
	CategoryID int64  `schema:"category_id"`
	TagID      int64  `schema:"tag_id"`
	Search     string `schema:"q"`
	Page       int    `schema:"page"`
	PageSize   int    `schema:"page_size"`
}

// Normalize clamps paging to sane bounds
func (f *ArticleFilter) Normalize() {
	f.Page, f.PageSize = normalizePage(f.Page, f.PageSize)
}

// ArticlePage is one page of an article listing
type ArticlePage struct {
	Items    []*Article `json:"items"`
	Total    int        `json:"total"`
	Page     int        `json:"page"`
	PageSize int        `json:"page_size"`
}

const (
	DefaultPageSize = 20
	MaxPageSize     = 100
)

func normalizePage(page, size int) (int, int) {
	if page < 1 {
		page = 1
	}
	if size < 1 {
		size = DefaultPageSize
	}
	if size > MaxPageSize {
		size = MaxPageSize
	}
	return page, size
}
