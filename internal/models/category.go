package models

import (
	"encoding/json"
	"time"
)

// CategoryType groups categories into independent trees
type CategoryType string

const (
	CategoryTypeEvent    CategoryType = "event"
	CategoryTypeNewsType CategoryType = "news_type"
	CategoryTypeOther    CategoryType = "other"
)

// IsValid returns true if t is a known category type
func (t CategoryType) IsValid() bool {
	switch t {
	case CategoryTypeEvent, CategoryTypeNewsType, CategoryTypeOther:
		return true
	default:
		return false
	}
}

// Category is a node of the category forest.
// Children is populated only by tree and node reads.
type Category struct {
	ID           int64        `json:"id" db:"id"`
	Name         string       `json:"name" db:"name"`
	Slug         string       `json:"slug" db:"slug"`
	Type         CategoryType `json:"type" db:"type"`
	Description  *string      `json:"description,omitempty" db:"description"`
	DisplayOrder int          `json:"order" db:"display_order"`
	IsActive     bool         `json:"is_active" db:"is_active"`
	ParentID     *int64       `json:"parent_id" db:"parent_id"`
	CreatedAt    time.Time    `json:"created_at" db:"created_at"`
	UpdatedAt    time.Time    `json:"updated_at" db:"updated_at"`

	Children []*Category `json:"children,omitempty" db:"-"`
}

// CreateCategoryInput is the payload for a new category
type CreateCategoryInput struct {
	Name         string       `json:"name" validate:"required,max=255"`
	Slug         *string      `json:"slug" validate:"omitempty,max=255"`
	Type         CategoryType `json:"type" validate:"required,category_type"`
	Description  *string      `json:"description"`
	DisplayOrder int          `json:"order"`
	IsActive     *bool        `json:"is_active"`
	ParentID     *int64       `json:"parent_id" validate:"omitempty,gt=0"`
}

// UpdateCategoryInput is a partial update: only supplied fields change.
type UpdateCategoryInput struct {
	Name         *string       `json:"name" validate:"omitempty,min=1,max=255"`
	Slug         *string       `json:"slug" validate:"omitempty,max=255"`
	Type         *CategoryType `json:"type" validate:"omitempty,category_type"`
	Description  *string       `json:"description"`
	DisplayOrder *int          `json:"order"`
	IsActive     *bool         `json:"is_active"`
	ParentID     NullableID    `json:"parent_id"`
}

// MoveCategoryInput is the payload of the explicit reparent operation.
// A null parent_id detaches the category to a root.
type MoveCategoryInput struct {
	ParentID *int64 `json:"parent_id" validate:"omitempty,gt=0"`
}

// TreeFilter restricts GetTree
type TreeFilter struct {
	Type       string `schema:"type"`
	ActiveOnly bool   `schema:"active_only"`
}

// NullableID distinguishes an absent JSON field from an explicit null.
type NullableID struct {
	Set   bool
	Valid bool
	Value int64
}

// UnmarshalJSON is only invoked when the key is present.
func (n *NullableID) UnmarshalJSON(b []byte) error {
	n.Set = true
	if string(b) == "null" {
		n.Valid = false
		n.Value = 0
		return nil
	}
	if err := json.Unmarshal(b, &n.Value); err != nil {
		return err
	}
	n.Valid = true
	return nil
}

func (n NullableID) MarshalJSON() ([]byte, error) {
	if !n.Valid {
		return []byte("null"), nil
	}
	return json.Marshal(n.Value)
}

// Ptr returns the referenced id or nil for null.
func (n NullableID) Ptr() *int64 {
	if !n.Valid {
		return nil
	}
	v := n.Value
	return &v
}
