package sqlite

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jdholdren/pageturn/internal/pageturn"
)

func TestItem(t *testing.T) {
	r := newTestRepo(t)
	seeded := seedItems(t, r, 3)

	item, err := r.Item(context.Background(), "id-02")
	require.NoError(t, err)
	assert.Equal(t, "item_02", item.Name)
	assert.Equal(t, "games", item.Category)
	assert.True(t, seeded[1].CreatedAt.Equal(item.CreatedAt))

	_, err = r.Item(context.Background(), "id-99")
	assert.ErrorIs(t, err, pageturn.ErrNotFound)
}

func TestInsertItems_AssignsIDs(t *testing.T) {
	r := newTestRepo(t)

	items := []pageturn.Item{{Name: "a"}, {Name: "b"}}
	require.NoError(t, r.InsertItems(context.Background(), items))

	for _, item := range items {
		id, err := uuid.Parse(item.ID)
		require.NoError(t, err)
		assert.Equal(t, uuid.Version(7), id.Version())
		assert.False(t, item.CreatedAt.IsZero())
	}
	assert.Less(t, items[0].ID, items[1].ID, "ids follow insertion order")
}

func TestInsertItems_Conflict(t *testing.T) {
	r := newTestRepo(t)
	seedItems(t, r, 2)

	err := r.InsertItems(context.Background(), []pageturn.Item{{ID: "id-03", Name: "new"}, {ID: "id-01", Name: "dupe"}})
	assert.ErrorIs(t, err, pageturn.ErrConflict)

	// Nothing from the failed batch is kept
	_, err = r.Item(context.Background(), "id-03")
	assert.ErrorIs(t, err, pageturn.ErrNotFound)
}

func TestInsertItems_Batches(t *testing.T) {
	r := newTestRepo(t)
	seedItems(t, r, insertBatchSize+7)

	var n int
	require.NoError(t, r.db.Get(&n, "SELECT COUNT(*) FROM items;"))
	assert.Equal(t, insertBatchSize+7, n)
}
