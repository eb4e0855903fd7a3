//go:build integration

package repository_test

import (
	"context"
	"testing"

	"github.com/Khoa280703/admin-vietsov-sub000/internal/config"
	"github.com/Khoa280703/admin-vietsov-sub000/internal/database"
	"github.com/Khoa280703/admin-vietsov-sub000/internal/models"
	"github.com/Khoa280703/admin-vietsov-sub000/internal/repository"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// Run with: DB_HOST=... DB_NAME=... go test -tags=integration ./internal/repository/...
// The tables are truncated, so point it at a throwaway database.
func openTestDB(t *testing.T) *database.DB {
	t.Helper()
	cfg, err := config.Load()
	require.NoError(t, err)

	db, err := database.New(&cfg.Database, zerolog.Nop())
	if err != nil {
		t.Skipf("postgres not reachable: %v", err)
	}
	t.Cleanup(func() { db.Close() })

	require.NoError(t, db.RunMigrations("../../migrations"))
	_, err = db.Exec("TRUNCATE categories, categories_closure RESTART IDENTITY CASCADE")
	require.NoError(t, err)
	return db
}

func closureRows(t *testing.T, db *database.DB) map[pair]int {
	t.Helper()
	rows, err := db.Query("SELECT ancestor_id, descendant_id, depth FROM categories_closure")
	require.NoError(t, err)
	defer rows.Close()

	out := map[pair]int{}
	for rows.Next() {
		var a, d int64
		var depth int
		require.NoError(t, rows.Scan(&a, &d, &depth))
		out[pair{a, d}] = depth
	}
	require.NoError(t, rows.Err())
	return out
}

func TestCategoryRepo_ClosureTable(t *testing.T) {
	db := openTestDB(t)
	repo := repository.NewCategoryRepo(db)
	ctx := context.Background()

	create := func(slug string, parent *int64) *models.Category {
		c := &models.Category{Name: slug, Slug: slug, Type: models.CategoryTypeOther, IsActive: true, ParentID: parent}
		require.NoError(t, repo.Create(ctx, c))
		return c
	}
	a := create("a", nil)
	b := create("b", &a.ID)
	c := create("c", &b.ID)
	d := create("d", nil)

	assert.Equal(t, map[pair]int{
		{a.ID, a.ID}: 0, {b.ID, b.ID}: 0, {c.ID, c.ID}: 0, {d.ID, d.ID}: 0,
		{a.ID, b.ID}: 1, {b.ID, c.ID}: 1, {a.ID, c.ID}: 2,
	}, closureRows(t, db))

	require.NoError(t, repo.Move(ctx, b.ID, &d.ID))
	assert.Equal(t, map[pair]int{
		{a.ID, a.ID}: 0, {b.ID, b.ID}: 0, {c.ID, c.ID}: 0, {d.ID, d.ID}: 0,
		{d.ID, b.ID}: 1, {b.ID, c.ID}: 1, {d.ID, c.ID}: 2,
	}, closureRows(t, db))

	below, err := repo.IsDescendant(ctx, d.ID, c.ID)
	require.NoError(t, err)
	assert.True(t, below)
	below, _ = repo.IsDescendant(ctx, a.ID, c.ID)
	assert.False(t, below)
	below, _ = repo.IsDescendant(ctx, c.ID, c.ID)
	assert.False(t, below)

	chain, err := repo.Ancestors(ctx, c.ID)
	require.NoError(t, err)
	require.Len(t, chain, 2)
	assert.Equal(t, []string{"d", "b"}, []string{chain[0].Slug, chain[1].Slug})

	// rename and detach in one call
	b.Name = "Renamed"
	require.NoError(t, repo.UpdateWithParent(ctx, b, nil))
	stored, err := repo.GetByID(ctx, b.ID)
	require.NoError(t, err)
	assert.Equal(t, "Renamed", stored.Name)
	assert.Nil(t, stored.ParentID)
	assert.Len(t, closureRows(t, db), 5)

	// a failed reparent rolls the rename back too
	b.Name = "Lost"
	err = repo.UpdateWithParent(ctx, b, int64Ptr(9999))
	assert.True(t, database.IsForeignKeyViolation(err))
	stored, _ = repo.GetByID(ctx, b.ID)
	assert.Equal(t, "Renamed", stored.Name)
	assert.Len(t, closureRows(t, db), 5)

	_, err = repo.Delete(ctx, b.ID)
	assert.True(t, database.IsForeignKeyViolation(err))
	deleted, err := repo.Delete(ctx, c.ID)
	require.NoError(t, err)
	assert.True(t, deleted)
	assert.Len(t, closureRows(t, db), 3)
}
