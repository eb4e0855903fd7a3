package database

import (
	"errors"
	"fmt"
	"testing"

	"github.com/lib/pq"
	"github.com/stretchr/testify/assert"
)

func TestPostgresErrorClassification(t *testing.T) {
	unique := &pq.Error{Code: "23505", Constraint: "articles_slug_key"}
	fk := &pq.Error{Code: "23503", Constraint: "article_tags_tag_id_fkey"}
	wrapped := fmt.Errorf("insert article: %w", unique)

	assert.True(t, IsUniqueViolation(unique))
	assert.True(t, IsUniqueViolation(wrapped))
	assert.False(t, IsUniqueViolation(fk))
	assert.True(t, IsForeignKeyViolation(fk))
	assert.False(t, IsForeignKeyViolation(errors.New("plain")))

	assert.Equal(t, "articles_slug_key", ConstraintName(wrapped))
	assert.Equal(t, "", ConstraintName(errors.New("plain")))
}
