package repository_test

import (
	"context"
	"errors"
	"testing"

	"github.com/Khoa280703/admin-vietsov-sub000/internal/database"
	"github.com/Khoa280703/admin-vietsov-sub000/internal/mocks"
	"github.com/Khoa280703/admin-vietsov-sub000/internal/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func int64Ptr(v int64) *int64 { return &v }

func TestMockArticleRepository_SlugUniqueness(t *testing.T) {
	repo := mocks.NewMockArticleRepository()
	ctx := context.Background()

	first := &models.Article{Title: "One", Slug: "one", Status: models.StatusDraft, AuthorID: 1}
	require.NoError(t, repo.Create(ctx, first))
	assert.Equal(t, int64(1), first.ID)

	err := repo.Create(ctx, &models.Article{Title: "One again", Slug: "one", AuthorID: 2})
	assert.True(t, database.IsUniqueViolation(err))

	exists, err := repo.SlugExists(ctx, "one", first.ID)
	require.NoError(t, err)
	assert.False(t, exists, "own slug is excluded")

	exists, err = repo.SlugExists(ctx, "one", 0)
	require.NoError(t, err)
	assert.True(t, exists)
}

func TestMockArticleRepository_ReturnsCopies(t *testing.T) {
	repo := mocks.NewMockArticleRepository()
	ctx := context.Background()

	a := &models.Article{Title: "Copy", Slug: "copy", TagIDs: []int64{1}}
	require.NoError(t, repo.Create(ctx, a))

	got, err := repo.GetByID(ctx, a.ID)
	require.NoError(t, err)
	got.Title = "changed"
	got.TagIDs[0] = 99

	again, _ := repo.GetByID(ctx, a.ID)
	assert.Equal(t, "Copy", again.Title)
	assert.Equal(t, []int64{1}, again.TagIDs)
}

func TestMockArticleRepository_ListFilters(t *testing.T) {
	repo := mocks.NewMockArticleRepository()
	ctx := context.Background()

	seed := []*models.Article{
		{Title: "Go news", Slug: "go-news", Status: models.StatusDraft, AuthorID: 1, CategoryIDs: []int64{5}},
		{Title: "Rust news", Slug: "rust-news", Status: models.StatusPublished, AuthorID: 2, TagIDs: []int64{7}},
		{Title: "More Go", Slug: "more-go", Status: models.StatusPublished, AuthorID: 1},
	}
	for _, a := range seed {
		require.NoError(t, repo.Create(ctx, a))
	}

	items, total, err := repo.List(ctx, models.ArticleFilter{Status: "published"})
	require.NoError(t, err)
	assert.Equal(t, 2, total)
	assert.Equal(t, "more-go", items[0].Slug, "newest first")

	_, total, _ = repo.List(ctx, models.ArticleFilter{AuthorID: 1, Search: "go"})
	assert.Equal(t, 2, total)

	items, _, _ = repo.List(ctx, models.ArticleFilter{CategoryID: 5})
	require.Len(t, items, 1)
	assert.Equal(t, "go-news", items[0].Slug)

	items, total, _ = repo.List(ctx, models.ArticleFilter{Page: 2, PageSize: 2})
	assert.Equal(t, 3, total)
	assert.Len(t, items, 1)

	counts, err := repo.CountByStatus(ctx)
	require.NoError(t, err)
	assert.Equal(t, 2, counts[models.StatusPublished])
	assert.Equal(t, 1, counts[models.StatusDraft])
}

func TestMockArticleRepository_ForeignKeys(t *testing.T) {
	repos, _, _, _, _ := mocks.NewRepositories()
	ctx := context.Background()

	err := repos.Article.Create(ctx, &models.Article{Title: "x", Slug: "x", CategoryIDs: []int64{42}})
	assert.True(t, database.IsForeignKeyViolation(err))
}

func TestMockCategoryRepository_Hierarchy(t *testing.T) {
	repo := mocks.NewMockCategoryRepository()
	ctx := context.Background()

	root := &models.Category{Name: "Root", Slug: "root", Type: models.CategoryTypeNewsType, IsActive: true}
	require.NoError(t, repo.Create(ctx, root))
	child := &models.Category{Name: "Child", Slug: "child", Type: models.CategoryTypeNewsType, ParentID: int64Ptr(root.ID)}
	require.NoError(t, repo.Create(ctx, child))
	leaf := &models.Category{Name: "Leaf", Slug: "leaf", Type: models.CategoryTypeNewsType, ParentID: int64Ptr(child.ID)}
	require.NoError(t, repo.Create(ctx, leaf))

	below, err := repo.IsDescendant(ctx, root.ID, leaf.ID)
	require.NoError(t, err)
	assert.True(t, below)

	below, _ = repo.IsDescendant(ctx, leaf.ID, root.ID)
	assert.False(t, below)

	below, _ = repo.IsDescendant(ctx, root.ID, root.ID)
	assert.False(t, below, "a node is not its own descendant")

	chain, err := repo.Ancestors(ctx, leaf.ID)
	require.NoError(t, err)
	require.Len(t, chain, 2)
	assert.Equal(t, "root", chain[0].Slug)
	assert.Equal(t, "child", chain[1].Slug)

	_, err = repo.Delete(ctx, root.ID)
	assert.True(t, database.IsForeignKeyViolation(err))

	require.NoError(t, repo.Move(ctx, leaf.ID, nil))
	chain, _ = repo.Ancestors(ctx, leaf.ID)
	assert.Empty(t, chain)

	missing, err := repo.MissingIDs(ctx, []int64{root.ID, 99})
	require.NoError(t, err)
	assert.Equal(t, []int64{99}, missing)
}

type pair = [2]int64

func seedCategory(t *testing.T, repo *mocks.MockCategoryRepository, slug string, parent *int64) *models.Category {
	t.Helper()
	c := &models.Category{Name: slug, Slug: slug, Type: models.CategoryTypeOther, ParentID: parent}
	require.NoError(t, repo.Create(context.Background(), c))
	return c
}

func TestMockCategoryRepository_ClosureAfterSubtreeMove(t *testing.T) {
	repo := mocks.NewMockCategoryRepository()
	ctx := context.Background()

	a := seedCategory(t, repo, "a", nil)
	b := seedCategory(t, repo, "b", &a.ID)
	c := seedCategory(t, repo, "c", &b.ID)
	d := seedCategory(t, repo, "d", nil)

	assert.Equal(t, map[pair]int{
		{a.ID, a.ID}: 0, {b.ID, b.ID}: 0, {c.ID, c.ID}: 0, {d.ID, d.ID}: 0,
		{a.ID, b.ID}: 1, {b.ID, c.ID}: 1, {a.ID, c.ID}: 2,
	}, repo.Closure())

	require.NoError(t, repo.Move(ctx, b.ID, &d.ID))
	assert.Equal(t, map[pair]int{
		{a.ID, a.ID}: 0, {b.ID, b.ID}: 0, {c.ID, c.ID}: 0, {d.ID, d.ID}: 0,
		{d.ID, b.ID}: 1, {b.ID, c.ID}: 1, {d.ID, c.ID}: 2,
	}, repo.Closure())

	below, _ := repo.IsDescendant(ctx, a.ID, c.ID)
	assert.False(t, below)
	below, _ = repo.IsDescendant(ctx, d.ID, c.ID)
	assert.True(t, below)

	chain, err := repo.Ancestors(ctx, c.ID)
	require.NoError(t, err)
	require.Len(t, chain, 2)
	assert.Equal(t, []string{"d", "b"}, []string{chain[0].Slug, chain[1].Slug})

	// a deeper move keeps depths relative to the new parent
	require.NoError(t, repo.Move(ctx, d.ID, &a.ID))
	closure := repo.Closure()
	assert.Equal(t, 3, closure[pair{a.ID, c.ID}])
	assert.Equal(t, 2, closure[pair{a.ID, b.ID}])
	assert.Len(t, closure, 10)

	require.NoError(t, repo.Move(ctx, b.ID, nil))
	closure = repo.Closure()
	assert.NotContains(t, closure, pair{a.ID, c.ID})
	assert.NotContains(t, closure, pair{d.ID, b.ID})
	assert.Equal(t, 1, closure[pair{b.ID, c.ID}])
	assert.Len(t, closure, 6)

	_, err = repo.Delete(ctx, c.ID)
	require.NoError(t, err)
	for k := range repo.Closure() {
		assert.NotContains(t, []int64{k[0], k[1]}, c.ID)
	}
}

func TestMockCategoryRepository_UpdateWithParentIsAtomic(t *testing.T) {
	repo := mocks.NewMockCategoryRepository()
	ctx := context.Background()

	a := seedCategory(t, repo, "a", nil)
	b := seedCategory(t, repo, "b", nil)
	before := repo.Closure()

	renamed := *b
	renamed.Name = "Renamed"
	err := repo.UpdateWithParent(ctx, &renamed, int64Ptr(99))
	assert.True(t, database.IsForeignKeyViolation(err))

	repo.MoveErr = errors.New("connection reset")
	err = repo.UpdateWithParent(ctx, &renamed, &a.ID)
	require.Error(t, err)

	stored, _ := repo.GetByID(ctx, b.ID)
	assert.Equal(t, "b", stored.Name)
	assert.Nil(t, stored.ParentID)
	assert.Equal(t, before, repo.Closure())

	repo.MoveErr = nil
	require.NoError(t, repo.UpdateWithParent(ctx, &renamed, &a.ID))
	stored, _ = repo.GetByID(ctx, b.ID)
	assert.Equal(t, "Renamed", stored.Name)
	assert.Equal(t, a.ID, *stored.ParentID)
	assert.Equal(t, 1, repo.Closure()[pair{a.ID, b.ID}])
}

func TestMockTagRepository_NameIsCaseInsensitive(t *testing.T) {
	repo := mocks.NewMockTagRepository()
	ctx := context.Background()

	require.NoError(t, repo.Create(ctx, &models.Tag{Name: "Golang", Slug: "golang"}))
	err := repo.Create(ctx, &models.Tag{Name: "golang", Slug: "golang-2"})
	assert.True(t, database.IsUniqueViolation(err))

	exists, err := repo.NameExists(ctx, "GOLANG", 0)
	require.NoError(t, err)
	assert.True(t, exists)
}

func TestMockAuditRepository_ListNewestFirst(t *testing.T) {
	repo := mocks.NewMockAuditRepository()
	ctx := context.Background()

	for _, action := range []string{"article.create", "article.update", "tag.create"} {
		require.NoError(t, repo.Insert(ctx, &models.AuditEvent{Action: action, ActorID: 1}))
	}

	items, total, err := repo.List(ctx, models.AuditFilter{})
	require.NoError(t, err)
	assert.Equal(t, 3, total)
	assert.Equal(t, "tag.create", items[0].Action)

	_, total, _ = repo.List(ctx, models.AuditFilter{Action: "article.update"})
	assert.Equal(t, 1, total)
}
