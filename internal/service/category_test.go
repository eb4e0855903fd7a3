package service_test

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/Khoa280703/admin-vietsov-sub000/internal/apperr"
	"github.com/Khoa280703/admin-vietsov-sub000/internal/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func (h *harness) createCategory(t *testing.T, name string, parent *int64, order int) *models.Category {
	t.Helper()
	c, err := h.svc.Category.Create(context.Background(), admin, &models.CreateCategoryInput{
		Name:         name,
		Type:         models.CategoryTypeNewsType,
		ParentID:     parent,
		DisplayOrder: order,
	})
	require.NoError(t, err)
	return c
}

func names(categories []*models.Category) []string {
	out := make([]string, len(categories))
	for i, c := range categories {
		out[i] = c.Name
	}
	return out
}

func TestCategoryTree_OrdersSiblings(t *testing.T) {
	h := newHarness(t)
	root := h.createCategory(t, "Root", nil, 0)
	h.createCategory(t, "Zeta", &root.ID, 1)
	h.createCategory(t, "Beta", &root.ID, 2)
	h.createCategory(t, "Alpha", &root.ID, 2)
	h.createCategory(t, "Another root", nil, 5)

	tree, err := h.svc.Category.GetTree(context.Background(), models.TreeFilter{})
	require.NoError(t, err)

	require.Len(t, tree, 2)
	assert.Equal(t, []string{"Root", "Another root"}, names(tree))
	assert.Equal(t, []string{"Zeta", "Alpha", "Beta"}, names(tree[0].Children))
	assert.Empty(t, tree[1].Children)
}

func TestCategoryTree_TypeFilterPromotesOrphans(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()

	event, err := h.svc.Category.Create(ctx, admin, &models.CreateCategoryInput{Name: "Events", Type: models.CategoryTypeEvent})
	require.NoError(t, err)
	_, err = h.svc.Category.Create(ctx, admin, &models.CreateCategoryInput{Name: "Local", Type: models.CategoryTypeNewsType, ParentID: &event.ID})
	require.NoError(t, err)

	tree, err := h.svc.Category.GetTree(ctx, models.TreeFilter{Type: string(models.CategoryTypeNewsType)})
	require.NoError(t, err)
	assert.Equal(t, []string{"Local"}, names(tree))

	_, err = h.svc.Category.GetTree(ctx, models.TreeFilter{Type: "weather"})
	requireKind(t, apperr.KindInvalid, err)
}

func TestCategoryDelete_RequiresLeaf(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()
	a := h.createCategory(t, "A", nil, 0)
	b := h.createCategory(t, "B", &a.ID, 0)

	requireKind(t, apperr.KindConflict, h.svc.Category.Delete(ctx, admin, a.ID))
	require.NoError(t, h.svc.Category.Delete(ctx, admin, b.ID))
	require.NoError(t, h.svc.Category.Delete(ctx, admin, a.ID))

	tree, err := h.svc.Category.GetTree(ctx, models.TreeFilter{})
	require.NoError(t, err)
	assert.Empty(t, tree)

	requireKind(t, apperr.KindNotFound, h.svc.Category.Delete(ctx, admin, a.ID))
}

func TestCategoryMove_RejectsCycles(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()
	a := h.createCategory(t, "A", nil, 0)
	b := h.createCategory(t, "B", &a.ID, 0)
	c := h.createCategory(t, "C", &b.ID, 0)

	_, err := h.svc.Category.Move(ctx, admin, a.ID, &models.MoveCategoryInput{ParentID: &a.ID})
	requireKind(t, apperr.KindConflict, err)

	_, err = h.svc.Category.Move(ctx, admin, a.ID, &models.MoveCategoryInput{ParentID: &c.ID})
	requireKind(t, apperr.KindConflict, err)

	_, err = h.svc.Category.Move(ctx, admin, a.ID, &models.MoveCategoryInput{ParentID: int64Ptr(999)})
	requireKind(t, apperr.KindNotFound, err)

	_, err = h.svc.Category.Update(ctx, admin, a.ID, &models.UpdateCategoryInput{
		ParentID: models.NullableID{Set: true, Valid: true, Value: b.ID},
	})
	requireKind(t, apperr.KindConflict, err)

	// the failed attempts changed nothing
	ancestors, err := h.svc.Category.Ancestors(ctx, c.ID)
	require.NoError(t, err)
	assert.Equal(t, []string{"A", "B"}, names(ancestors))
}

func TestCategoryMove_ReparentsSubtree(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()
	a := h.createCategory(t, "A", nil, 0)
	b := h.createCategory(t, "B", &a.ID, 0)
	c := h.createCategory(t, "C", &b.ID, 0)
	d := h.createCategory(t, "D", nil, 1)

	moved, err := h.svc.Category.Move(ctx, admin, b.ID, &models.MoveCategoryInput{ParentID: &d.ID})
	require.NoError(t, err)
	assert.Equal(t, d.ID, *moved.ParentID)

	ancestors, err := h.svc.Category.Ancestors(ctx, c.ID)
	require.NoError(t, err)
	assert.Equal(t, []string{"D", "B"}, names(ancestors))

	// detach to a root through Update with an explicit null
	updated, err := h.svc.Category.Update(ctx, admin, b.ID, &models.UpdateCategoryInput{ParentID: models.NullableID{Set: true}})
	require.NoError(t, err)
	assert.Nil(t, updated.ParentID)

	ancestors, err = h.svc.Category.Ancestors(ctx, c.ID)
	require.NoError(t, err)
	assert.Equal(t, []string{"B"}, names(ancestors))

	node, err := h.svc.Category.GetNode(ctx, a.ID)
	require.NoError(t, err)
	assert.NotNil(t, node.Children)
	assert.Empty(t, node.Children)
}

func TestCategoryUpdate_ReparentFailureKeepsFields(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()
	a := h.createCategory(t, "A", nil, 0)
	b := h.createCategory(t, "B", nil, 1)

	h.categories.MoveErr = errors.New("connection reset")
	_, err := h.svc.Category.Update(ctx, admin, b.ID, &models.UpdateCategoryInput{
		Name:     strPtr("Renamed"),
		ParentID: models.NullableID{Set: true, Valid: true, Value: a.ID},
	})
	requireKind(t, apperr.KindUnexpected, err)

	stored, err := h.svc.Category.GetNode(ctx, b.ID)
	require.NoError(t, err)
	assert.Equal(t, "B", stored.Name)
	assert.Nil(t, stored.ParentID)
	assert.NotContains(t, h.categories.Closure(), [2]int64{a.ID, b.ID})

	h.categories.MoveErr = nil
	updated, err := h.svc.Category.Update(ctx, admin, b.ID, &models.UpdateCategoryInput{
		Name:     strPtr("Renamed"),
		ParentID: models.NullableID{Set: true, Valid: true, Value: a.ID},
	})
	require.NoError(t, err)
	assert.Equal(t, "Renamed", updated.Name)
	assert.Equal(t, 1, h.categories.Closure()[[2]int64{a.ID, b.ID}])
}

func TestCategoryCreate_Errors(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()
	h.createCategory(t, "World News", nil, 0)

	_, err := h.svc.Category.Create(ctx, author, &models.CreateCategoryInput{Name: "Nope", Type: models.CategoryTypeOther})
	requireKind(t, apperr.KindForbidden, err)

	_, err = h.svc.Category.Create(ctx, admin, &models.CreateCategoryInput{Name: "World news", Type: models.CategoryTypeOther})
	requireKind(t, apperr.KindConflict, err)

	_, err = h.svc.Category.Create(ctx, admin, &models.CreateCategoryInput{Name: "Orphan", Type: models.CategoryTypeOther, ParentID: int64Ptr(42)})
	requireKind(t, apperr.KindNotFound, err)

	_, err = h.svc.Category.Create(ctx, admin, &models.CreateCategoryInput{Name: "Typeless", Type: "weather"})
	requireKind(t, apperr.KindInvalid, err)
}

func TestCategoryUpdate_SlugOnlyChangesWhenExplicit(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()
	c := h.createCategory(t, "Sports", nil, 0)

	got, err := h.svc.Category.Update(ctx, admin, c.ID, &models.UpdateCategoryInput{Name: strPtr("Sport & Games")})
	require.NoError(t, err)
	assert.Equal(t, "sports", got.Slug)
	assert.Equal(t, "Sport & Games", got.Name)

	got, err = h.svc.Category.Update(ctx, admin, c.ID, &models.UpdateCategoryInput{Slug: strPtr("sport-and-games")})
	require.NoError(t, err)
	assert.Equal(t, "sport-and-games", got.Slug)

	_, err = h.svc.Category.Update(ctx, author, c.ID, &models.UpdateCategoryInput{Name: strPtr("x")})
	requireKind(t, apperr.KindForbidden, err)

	_, err = h.svc.Category.Update(ctx, author, 999, &models.UpdateCategoryInput{})
	requireKind(t, apperr.KindNotFound, err)
}

func TestCategoryAudit(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()
	a := h.createCategory(t, "A", nil, 0)
	b := h.createCategory(t, "B", nil, 0)
	_, err := h.svc.Category.Move(ctx, admin, b.ID, &models.MoveCategoryInput{ParentID: &a.ID})
	require.NoError(t, err)

	events := h.audit.Snapshot()
	require.Len(t, events, 3)
	move := events[2]
	assert.Equal(t, "category.move", move.Action)
	assert.Equal(t, float64(a.ID), move.Metadata["to_parent"])
	assert.Nil(t, move.Metadata["from_parent"])
}

// Tags

func TestTagCreate_UniqueNameAndSlug(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()

	tag, err := h.svc.Tag.Create(ctx, admin, &models.CreateTagInput{Name: "  Golang  "})
	require.NoError(t, err)
	assert.Equal(t, "Golang", tag.Name)
	assert.Equal(t, "golang", tag.Slug)

	_, err = h.svc.Tag.Create(ctx, admin, &models.CreateTagInput{Name: "GOLANG", Slug: strPtr("other")})
	requireKind(t, apperr.KindConflict, err)

	_, err = h.svc.Tag.Create(ctx, admin, &models.CreateTagInput{Name: "Go lang", Slug: strPtr("golang")})
	requireKind(t, apperr.KindConflict, err)

	_, err = h.svc.Tag.Create(ctx, author, &models.CreateTagInput{Name: "Rust"})
	requireKind(t, apperr.KindForbidden, err)
}

func TestTagUpdate_Rename(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()
	tag, err := h.svc.Tag.Create(ctx, admin, &models.CreateTagInput{Name: "Databases"})
	require.NoError(t, err)
	_, err = h.svc.Tag.Create(ctx, admin, &models.CreateTagInput{Name: "Storage"})
	require.NoError(t, err)

	got, err := h.svc.Tag.Update(ctx, admin, tag.ID, &models.UpdateTagInput{Name: strPtr("Data Stores")})
	require.NoError(t, err)
	assert.Equal(t, "data-stores", got.Slug)

	_, err = h.svc.Tag.Update(ctx, admin, tag.ID, &models.UpdateTagInput{Name: strPtr("storage")})
	requireKind(t, apperr.KindConflict, err)

	_, err = h.svc.Tag.Update(ctx, admin, tag.ID, &models.UpdateTagInput{Slug: strPtr("storage")})
	requireKind(t, apperr.KindConflict, err)

	_, err = h.svc.Tag.Update(ctx, admin, tag.ID, &models.UpdateTagInput{Name: strPtr("   ")})
	requireKind(t, apperr.KindInvalid, err)
}

func TestTagDelete(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()
	tag, err := h.svc.Tag.Create(ctx, admin, &models.CreateTagInput{Name: "Temp"})
	require.NoError(t, err)

	requireKind(t, apperr.KindForbidden, h.svc.Tag.Delete(ctx, author, tag.ID))
	require.NoError(t, h.svc.Tag.Delete(ctx, admin, tag.ID))

	_, err = h.svc.Tag.Get(ctx, tag.ID)
	requireKind(t, apperr.KindNotFound, err)
	requireKind(t, apperr.KindNotFound, h.svc.Tag.Delete(ctx, admin, tag.ID))
}

func TestSlugsFitTheirColumns(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()

	tag, err := h.svc.Tag.Create(ctx, admin, &models.CreateTagInput{Name: strings.Repeat("ß", 100)})
	require.NoError(t, err)
	assert.Len(t, tag.Slug, 100)

	a, err := h.svc.Article.Create(ctx, author, &models.CreateArticleInput{Title: strings.Repeat("Æsir ", 51)})
	require.NoError(t, err)
	assert.LessOrEqual(t, len(a.Slug), 255)
	assert.True(t, strings.HasSuffix(a.Slug, "-aesir"))
}
