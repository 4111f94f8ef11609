package tags

import (
	"context"
	"database/sql"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	_ "modernc.org/sqlite"
)

func newTestStore(t *testing.T) *Store {
	t.Helper()
	db, err := sql.Open("sqlite", filepath.Join(t.TempDir(), "tags.db"))
	require.NoError(t, err)
	db.SetMaxOpenConns(1)
	t.Cleanup(func() { db.Close() })

	store, err := NewStore(db)
	require.NoError(t, err)
	return store
}

func TestTagLifecycle(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	require.NoError(t, store.Create(ctx, "guild-1", "rules", "be nice", "user-1"))

	content, err := store.Get(ctx, "guild-1", "rules")
	require.NoError(t, err)
	assert.Equal(t, "be nice", content)

	require.NoError(t, store.Edit(ctx, "guild-1", "rules", "be very nice"))
	content, err = store.Get(ctx, "guild-1", "rules")
	require.NoError(t, err)
	assert.Equal(t, "be very nice", content)

	require.NoError(t, store.Delete(ctx, "guild-1", "rules"))
	_, err = store.Get(ctx, "guild-1", "rules")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestTagUniquePerGuild(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	require.NoError(t, store.Create(ctx, "guild-1", "rules", "be nice", "user-1"))
	assert.ErrorIs(t, store.Create(ctx, "guild-1", "rules", "other", "user-2"), ErrExists)

	// The same name is fine in another guild
	require.NoError(t, store.Create(ctx, "guild-2", "rules", "different rules", "user-3"))
}

func TestTagEditMissing(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	assert.ErrorIs(t, store.Edit(ctx, "guild-1", "nope", "content"), ErrNotFound)
	assert.ErrorIs(t, store.Delete(ctx, "guild-1", "nope"), ErrNotFound)
}

func TestTagList(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	names, err := store.List(ctx, "guild-1")
	require.NoError(t, err)
	assert.Empty(t, names)

	require.NoError(t, store.Create(ctx, "guild-1", "beta", "b", "user-1"))
	require.NoError(t, store.Create(ctx, "guild-1", "alpha", "a", "user-1"))

	names, err = store.List(ctx, "guild-1")
	require.NoError(t, err)
	assert.Equal(t, []string{"alpha", "beta"}, names)
}

func TestClosestSuggestion(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	require.NoError(t, store.Create(ctx, "guild-1", "rules", "be nice", "user-1"))
	require.NoError(t, store.Create(ctx, "guild-1", "faq", "ask away", "user-1"))

	suggestion, err := store.Closest(ctx, "guild-1", "rulez")
	require.NoError(t, err)
	assert.Equal(t, "rules", suggestion)

	_, err = store.Closest(ctx, "guild-1", "completely-unrelated")
	assert.ErrorIs(t, err, ErrNotFound)
}
