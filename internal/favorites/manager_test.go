package favorites_test

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"

	"stonks/internal/favorites"
	"stonks/internal/testutil"
)

func TestManager_LoadAbsent(t *testing.T) {
	ctrl := gomock.NewController(t)
	store := testutil.NewMockStore(ctrl)

	store.EXPECT().
		Read(gomock.Any(), favorites.DefaultKey).
		Return(nil, false, nil).
		Times(1)

	m := favorites.NewManager(store, "", testutil.DiscardLogger())
	require.NoError(t, m.Load(context.Background()))
	require.Empty(t, m.IDs())
}

func TestManager_LoadExact(t *testing.T) {
	ctx := context.Background()
	store := favorites.NewMemoryStore()
	require.NoError(t, store.Write(ctx, favorites.DefaultKey, []string{"AAPL", "TSLA"}))

	m := favorites.NewManager(store, favorites.DefaultKey, testutil.DiscardLogger())
	require.NoError(t, m.Load(ctx))

	require.Equal(t, []string{"AAPL", "TSLA"}, m.IDs())
	require.True(t, m.IsFavorite("TSLA"))
	require.False(t, m.IsFavorite("MSFT"))
}

func TestManager_LoadError(t *testing.T) {
	ctrl := gomock.NewController(t)
	store := testutil.NewMockStore(ctrl)

	store.EXPECT().
		Read(gomock.Any(), "favs").
		Return(nil, false, errors.New("disk unavailable"))

	m := favorites.NewManager(store, "favs", testutil.DiscardLogger())
	err := m.Load(context.Background())
	require.Error(t, err)
	require.Contains(t, err.Error(), "disk unavailable")
}

func TestManager_ToggleTwiceWritesTwice(t *testing.T) {
	ctrl := gomock.NewController(t)
	store := testutil.NewMockStore(ctrl)

	store.EXPECT().
		Read(gomock.Any(), favorites.DefaultKey).
		Return([]string{"AAPL"}, true, nil)

	gomock.InOrder(
		store.EXPECT().Write(gomock.Any(), favorites.DefaultKey, []string{"AAPL", "MSFT"}).Return(nil),
		store.EXPECT().Write(gomock.Any(), favorites.DefaultKey, []string{"AAPL"}).Return(nil),
	)

	ctx := context.Background()
	m := favorites.NewManager(store, favorites.DefaultKey, testutil.DiscardLogger())
	require.NoError(t, m.Load(ctx))

	added, err := m.Toggle(ctx, "MSFT")
	require.NoError(t, err)
	require.True(t, added)

	added, err = m.Toggle(ctx, "MSFT")
	require.NoError(t, err)
	require.False(t, added)

	require.Equal(t, []string{"AAPL"}, m.IDs())
}

func TestManager_ToggleWriteFailureKeepsChange(t *testing.T) {
	ctrl := gomock.NewController(t)
	store := testutil.NewMockStore(ctrl)

	store.EXPECT().Read(gomock.Any(), gomock.Any()).Return(nil, false, nil)
	store.EXPECT().Write(gomock.Any(), gomock.Any(), []string{"AAPL"}).Return(errors.New("read-only"))

	ctx := context.Background()
	m := favorites.NewManager(store, "", testutil.DiscardLogger())
	require.NoError(t, m.Load(ctx))

	added, err := m.Toggle(ctx, "AAPL")
	require.Error(t, err)
	require.True(t, added)
	require.True(t, m.IsFavorite("AAPL"))
}

func TestManager_AcceptsUnknownIDs(t *testing.T) {
	ctx := context.Background()
	store := favorites.NewMemoryStore()

	m := favorites.NewManager(store, "", testutil.DiscardLogger())
	require.NoError(t, m.Load(ctx))

	_, err := m.Toggle(ctx, "NONEXISTENT1")
	require.NoError(t, err)

	// A second manager on the same store sees the persisted set.
	reloaded := favorites.NewManager(store, "", testutil.DiscardLogger())
	require.NoError(t, reloaded.Load(ctx))
	require.Equal(t, []string{"NONEXISTENT1"}, reloaded.IDs())
}
