package memory_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/PabloGalante/docshelf/internal/adapters/storage/memory"
	"github.com/PabloGalante/docshelf/internal/domain"
)

func TestInsertAndFindKeepsInsertionOrder(t *testing.T) {
	ctx := context.Background()
	store := memory.NewStore()

	for _, name := range []string{"a", "b", "c"} {
		_, err := store.InsertItem(ctx, "tasks", &domain.Item{Name: name})
		require.NoError(t, err)
	}

	var names []string
	for item, err := range store.FindItems(ctx, "tasks") {
		require.NoError(t, err)
		names = append(names, item.Name)
	}
	assert.Equal(t, []string{"a", "b", "c"}, names)

	cols, err := store.ListCollections(ctx)
	require.NoError(t, err)
	assert.Equal(t, []string{"tasks"}, cols, "insert creates the collection implicitly")
}

func TestCreateCollectionTwice(t *testing.T) {
	ctx := context.Background()
	store := memory.NewStore()

	require.NoError(t, store.CreateCollection(ctx, "tasks"))
	err := store.CreateCollection(ctx, "tasks")
	assert.ErrorIs(t, err, domain.ErrAlreadyExists)
}

func TestDeleteItem(t *testing.T) {
	ctx := context.Background()
	store := memory.NewStore()

	id, err := store.InsertItem(ctx, "tasks", &domain.Item{Name: "Buy milk"})
	require.NoError(t, err)

	n, err := store.DeleteItem(ctx, "tasks", id)
	require.NoError(t, err)
	assert.EqualValues(t, 1, n)

	n, err = store.DeleteItem(ctx, "tasks", id)
	require.NoError(t, err)
	assert.EqualValues(t, 0, n)

	_, err = store.DeleteItem(ctx, "tasks", "not-a-uuid")
	assert.ErrorIs(t, err, domain.ErrMalformedID)
}

func TestUnavailable(t *testing.T) {
	ctx := context.Background()
	store := memory.NewStore()
	store.SetUnavailable(true)

	assert.ErrorIs(t, store.Ping(ctx), domain.ErrUnavailableStore)

	_, err := store.ListCollections(ctx)
	assert.ErrorIs(t, err, domain.ErrUnavailableStore)

	for _, err := range store.FindItems(ctx, "tasks") {
		assert.ErrorIs(t, err, domain.ErrUnavailableStore)
	}
}
