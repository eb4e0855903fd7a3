package validation

import (
	"testing"

	"github.com/Khoa280703/admin-vietsov-sub000/internal/apperr"
	"github.com/Khoa280703/admin-vietsov-sub000/internal/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func strPtr(s string) *string { return &s }

func TestValidateCreateArticle(t *testing.T) {
	v := NewValidator()
	long := make([]byte, 256)
	for i := range long {
		long[i] = 'a'
	}

	tests := []struct {
		name       string
		input      *models.CreateArticleInput
		wantFields []string
	}{
		{
			name:  "valid minimal article",
			input: &models.CreateArticleInput{Title: "Hello"},
		},
		{
			name:       "missing title",
			input:      &models.CreateArticleInput{},
			wantFields: []string{"title"},
		},
		{
			name:       "title too long",
			input:      &models.CreateArticleInput{Title: string(long)},
			wantFields: []string{"title"},
		},
		{
			name:       "non positive category id",
			input:      &models.CreateArticleInput{Title: "x", CategoryIDs: []int64{1, 0}},
			wantFields: []string{"category_ids[1]"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := v.Struct(tt.input)
			if len(tt.wantFields) == 0 {
				assert.NoError(t, err)
				return
			}
			require.Error(t, err)
			assert.True(t, apperr.IsInvalid(err))

			var appErr *apperr.Error
			require.ErrorAs(t, err, &appErr)
			for _, f := range tt.wantFields {
				assert.Contains(t, appErr.Details, f)
			}
		})
	}
}

func TestValidateDomainTags(t *testing.T) {
	v := NewValidator()

	bad := models.ArticleStatus("archived")
	err := v.Struct(&models.UpdateArticleInput{Status: &bad})
	require.Error(t, err)
	var appErr *apperr.Error
	require.ErrorAs(t, err, &appErr)
	assert.Equal(t, "must be a known article status", appErr.Details["status"])

	ok := models.StatusSubmitted
	assert.NoError(t, v.Struct(&models.UpdateArticleInput{Status: &ok}))

	assert.Error(t, v.Struct(&models.StatusInput{}))
	assert.NoError(t, v.Struct(&models.StatusInput{Status: models.StatusPublished}))

	err = v.Struct(&models.CreateCategoryInput{Name: "News", Type: "blog"})
	assert.True(t, apperr.IsInvalid(err))
	assert.NoError(t, v.Struct(&models.CreateCategoryInput{Name: "News", Type: models.CategoryTypeNewsType}))
}

func TestValidateUpdateTag(t *testing.T) {
	v := NewValidator()

	assert.NoError(t, v.Struct(&models.UpdateTagInput{}))
	assert.Error(t, v.Struct(&models.UpdateTagInput{Name: strPtr("")}))
}
