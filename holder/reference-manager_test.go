package holder

import (
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"Mira/storage"
)

func testManager(t *testing.T, max int) (*ReferenceManager, *DiskAssetStore) {
	t.Helper()
	assets := NewDiskAssetStore(t.TempDir())
	sessions := storage.NewMemorySessionStorage()
	log := slog.New(slog.NewTextHandler(io.Discard, nil))
	return NewReferenceManager(sessions, assets, max, log), assets
}

func TestAddAsset_Capacity(t *testing.T) {
	rm, _ := testManager(t, 3)

	for i := 0; i < 3; i++ {
		_, err := rm.AddAsset(1, []byte{byte(i)})
		require.NoError(t, err, "upload %d within capacity", i+1)
	}

	_, err := rm.AddAsset(1, []byte("one too many"))
	assert.ErrorIs(t, err, ErrCapacityExceeded)
	assert.Len(t, rm.ListAssets(1), 3)

	// A reset makes room again.
	rm.ClearAssets(1)
	_, err = rm.AddAsset(1, []byte("fresh"))
	assert.NoError(t, err)
}

func TestListAssets_EmptyForUnknownUser(t *testing.T) {
	rm, _ := testManager(t, 3)
	assert.Empty(t, rm.ListAssets(42))
}

func TestLoadAsset_Roundtrip(t *testing.T) {
	rm, _ := testManager(t, 3)

	handle, err := rm.AddAsset(1, []byte("jpeg-bytes"))
	require.NoError(t, err)

	data, err := rm.LoadAsset(1, handle)
	require.NoError(t, err)
	assert.Equal(t, []byte("jpeg-bytes"), data)
}

func TestClearAssets_Idempotent(t *testing.T) {
	rm, _ := testManager(t, 3)

	_, err := rm.AddAsset(1, []byte("a"))
	require.NoError(t, err)
	_, err = rm.AddAsset(1, []byte("b"))
	require.NoError(t, err)

	rm.ClearAssets(1)
	assert.Empty(t, rm.ListAssets(1))

	// Second clear with nothing stored is not an error.
	rm.ClearAssets(1)
	assert.Empty(t, rm.ListAssets(1))

	// Clearing a user who never existed is fine too.
	rm.ClearAssets(99)
}

func TestClearAssets_ProceedsPastDeleteFailure(t *testing.T) {
	assets := NewDiskAssetStore(t.TempDir())
	sessions := storage.NewMemorySessionStorage()
	log := slog.New(slog.NewTextHandler(io.Discard, nil))
	rm := NewReferenceManager(sessions, assets, 3, log)

	handle, err := rm.AddAsset(1, []byte("a"))
	require.NoError(t, err)

	// Remove the file behind the manager's back; clearing still empties
	// the list.
	path, err := assets.path(1, handle)
	require.NoError(t, err)
	require.NoError(t, os.Remove(path))

	rm.ClearAssets(1)
	assert.Empty(t, rm.ListAssets(1))
}

func TestDiskAssetStore_RejectsTraversal(t *testing.T) {
	store := NewDiskAssetStore(t.TempDir())

	_, err := store.Load(1, filepath.Join("..", "escape.jpg"))
	assert.Error(t, err)
}
