package cache

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ovasilenko/jotkeeper/internal/client/models"

	_ "modernc.org/sqlite"
)

func setupCache(t *testing.T) *Cache {
	t.Helper()
	c, db, err := Open(context.Background(), ":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })
	return c
}

func TestCache_LoadMissingKeys(t *testing.T) {
	c := setupCache(t)
	ctx := context.Background()

	notes, err := c.LoadNotes(ctx)
	require.NoError(t, err)
	assert.Nil(t, notes)

	s, err := c.LoadSettings(ctx)
	require.NoError(t, err)
	assert.Equal(t, models.Settings{}, s)

	ts, err := c.LastSync(ctx)
	require.NoError(t, err)
	assert.Zero(t, ts)
}

func TestCache_SaveAndLoadNotes(t *testing.T) {
	c := setupCache(t)
	ctx := context.Background()

	notes := []models.Note{
		{ID: "n1", Content: "buy milk", CategoryID: models.GeneralCategoryID, Timestamp: 100},
		{ID: "n2", Content: "call mom", CategoryID: "work", Timestamp: 200, DeletedAt: 500},
	}
	require.NoError(t, c.SaveNotes(ctx, notes))

	got, err := c.LoadNotes(ctx)
	require.NoError(t, err)
	assert.Equal(t, notes, got)

	// overwrite replaces the whole collection
	require.NoError(t, c.SaveNotes(ctx, notes[:1]))
	got, err = c.LoadNotes(ctx)
	require.NoError(t, err)
	assert.Equal(t, notes[:1], got)
}

func TestCache_SaveAndLoadCategoriesAndActions(t *testing.T) {
	c := setupCache(t)
	ctx := context.Background()

	cats := models.DefaultCategories()
	require.NoError(t, c.SaveCategories(ctx, cats))
	gotCats, err := c.LoadCategories(ctx)
	require.NoError(t, err)
	assert.Equal(t, cats, gotCats)

	actions := []models.QuickAction{{ID: "q1", Text: "on my way", Timestamp: 10}}
	require.NoError(t, c.SaveQuickActions(ctx, actions))
	gotActions, err := c.LoadQuickActions(ctx)
	require.NoError(t, err)
	assert.Equal(t, actions, gotActions)
}

func TestCache_SettingsKeepClock(t *testing.T) {
	c := setupCache(t)
	ctx := context.Background()

	s := models.Settings{DisplayName: "Dan", Theme: "sunset", DarkMode: true, LastUpdated: 1234}
	require.NoError(t, c.SaveSettings(ctx, s))

	got, err := c.LoadSettings(ctx)
	require.NoError(t, err)
	assert.Equal(t, s, got)
}

func TestCache_LastSync(t *testing.T) {
	c := setupCache(t)
	ctx := context.Background()

	require.NoError(t, c.SetLastSync(ctx, 42))
	ts, err := c.LastSync(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(42), ts)
}
