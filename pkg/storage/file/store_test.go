package file_test

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/oceanbase/vecmem-go/pkg/storage"
	fileStore "github.com/oceanbase/vecmem-go/pkg/storage/file"
)

func setupFileTest(t *testing.T) *fileStore.Store {
	store, err := fileStore.NewStore(&fileStore.Config{Dir: filepath.Join(t.TempDir(), "vector_memory")})
	require.NoError(t, err)
	return store
}

func TestStore_ReadMissing(t *testing.T) {
	store := setupFileTest(t)
	ctx := context.Background()

	_, err := store.ReadIndex(ctx, "nobody")
	assert.ErrorIs(t, err, storage.ErrArtifactNotFound)

	_, err = store.ReadMetadata(ctx, "nobody")
	assert.ErrorIs(t, err, storage.ErrArtifactNotFound)
}

func TestStore_WriteAndRead(t *testing.T) {
	store := setupFileTest(t)
	ctx := context.Background()

	require.NoError(t, store.Write(ctx, "role-1", []byte("index"), []byte(`[]`)))

	index, err := store.ReadIndex(ctx, "role-1")
	require.NoError(t, err)
	assert.Equal(t, []byte("index"), index)

	meta, err := store.ReadMetadata(ctx, "role-1")
	require.NoError(t, err)
	assert.Equal(t, []byte(`[]`), meta)

	assert.FileExists(t, filepath.Join(store.Dir(), "vector_memory_role-1.index"))
	assert.FileExists(t, filepath.Join(store.Dir(), "vector_memory_role-1.json"))
}

func TestStore_OverwriteLeavesNoTempFiles(t *testing.T) {
	store := setupFileTest(t)
	ctx := context.Background()

	require.NoError(t, store.Write(ctx, "r", []byte("a"), []byte("1")))
	require.NoError(t, store.Write(ctx, "r", []byte("b"), []byte("2")))

	index, err := store.ReadIndex(ctx, "r")
	require.NoError(t, err)
	assert.Equal(t, []byte("b"), index)

	entries, err := os.ReadDir(store.Dir())
	require.NoError(t, err)
	assert.Len(t, entries, 2)
}

func TestStore_NilIndexRemovesIndexFile(t *testing.T) {
	store := setupFileTest(t)
	ctx := context.Background()

	require.NoError(t, store.Write(ctx, "r", []byte("a"), []byte("1")))
	require.NoError(t, store.Write(ctx, "r", nil, []byte("2")))

	_, err := store.ReadIndex(ctx, "r")
	assert.ErrorIs(t, err, storage.ErrArtifactNotFound)

	meta, err := store.ReadMetadata(ctx, "r")
	require.NoError(t, err)
	assert.Equal(t, []byte("2"), meta)
}

func TestStore_EscapesRoleID(t *testing.T) {
	store := setupFileTest(t)
	ctx := context.Background()

	role := "../escape/attempt"
	require.NoError(t, store.Write(ctx, role, []byte("x"), []byte("y")))

	assert.Equal(t, store.Dir(), filepath.Dir(store.IndexPath(role)))
	assert.Equal(t, store.Dir(), filepath.Dir(store.MetadataPath(role)))

	meta, err := store.ReadMetadata(ctx, role)
	require.NoError(t, err)
	assert.Equal(t, []byte("y"), meta)
}

func TestStore_CanceledContext(t *testing.T) {
	store := setupFileTest(t)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	assert.ErrorIs(t, store.Write(ctx, "r", nil, []byte("1")), context.Canceled)
}

func TestStore_WriteMetadataRenameFails(t *testing.T) {
	store := setupFileTest(t)
	ctx := context.Background()

	require.NoError(t, store.Write(ctx, "role", []byte("index-v1"), []byte("metadata-v1")))
	require.NoError(t, os.Remove(store.MetadataPath("role")))
	require.NoError(t, os.MkdirAll(filepath.Join(store.MetadataPath("role"), "busy"), 0755))

	err := store.Write(ctx, "role", []byte("index-v2"), []byte("metadata-v2"))
	require.Error(t, err)

	// The index already moved on; the pairing tag lets readers notice.
	index, err := store.ReadIndex(ctx, "role")
	require.NoError(t, err)
	assert.Equal(t, "index-v2", string(index))

	entries, err := os.ReadDir(store.Dir())
	require.NoError(t, err)
	for _, e := range entries {
		assert.NotContains(t, e.Name(), ".tmp", "temporary file left behind")
	}
}
