package sqlite_test

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/oceanbase/vecmem-go/pkg/storage"
	sqliteStore "github.com/oceanbase/vecmem-go/pkg/storage/sqlite"
)

func setupSQLiteTest(t *testing.T) (storage.ArtifactStore, string) {
	dbPath := filepath.Join(t.TempDir(), "nested", "vecmem.db")

	store, err := sqliteStore.NewClient(&sqliteStore.Config{DBPath: dbPath})
	require.NoError(t, err)
	require.NotNil(t, store)
	t.Cleanup(func() { _ = store.Close() })

	return store, dbPath
}

func TestSQLiteClient_ReadMissing(t *testing.T) {
	store, _ := setupSQLiteTest(t)
	ctx := context.Background()

	_, err := store.ReadIndex(ctx, "nobody")
	assert.ErrorIs(t, err, storage.ErrArtifactNotFound)

	_, err = store.ReadMetadata(ctx, "nobody")
	assert.ErrorIs(t, err, storage.ErrArtifactNotFound)
}

func TestSQLiteClient_WriteAndRead(t *testing.T) {
	store, _ := setupSQLiteTest(t)
	ctx := context.Background()

	index := []byte{'V', 'M', 'F', 'L', 0, 1, 2}
	require.NoError(t, store.Write(ctx, "role-1", index, []byte(`[{"text":"a"}]`)))

	got, err := store.ReadIndex(ctx, "role-1")
	require.NoError(t, err)
	assert.Equal(t, index, got)

	meta, err := store.ReadMetadata(ctx, "role-1")
	require.NoError(t, err)
	assert.JSONEq(t, `[{"text":"a"}]`, string(meta))
}

func TestSQLiteClient_Upsert(t *testing.T) {
	store, _ := setupSQLiteTest(t)
	ctx := context.Background()

	require.NoError(t, store.Write(ctx, "r", []byte("a"), []byte(`[1]`)))
	require.NoError(t, store.Write(ctx, "r", nil, []byte(`[2]`)))

	_, err := store.ReadIndex(ctx, "r")
	assert.ErrorIs(t, err, storage.ErrArtifactNotFound)

	meta, err := store.ReadMetadata(ctx, "r")
	require.NoError(t, err)
	assert.Equal(t, `[2]`, string(meta))
}

func TestSQLiteClient_Reopen(t *testing.T) {
	store, dbPath := setupSQLiteTest(t)
	ctx := context.Background()

	require.NoError(t, store.Write(ctx, "r", []byte("idx"), []byte(`[]`)))
	require.NoError(t, store.Close())

	reopened, err := sqliteStore.NewClient(&sqliteStore.Config{DBPath: dbPath})
	require.NoError(t, err)
	defer func() { _ = reopened.Close() }()

	got, err := reopened.ReadIndex(ctx, "r")
	require.NoError(t, err)
	assert.Equal(t, []byte("idx"), got)
}

func TestSQLiteClient_RejectsBadTableName(t *testing.T) {
	_, err := sqliteStore.NewClient(&sqliteStore.Config{
		DBPath:    filepath.Join(t.TempDir(), "x.db"),
		TableName: "memories; DROP TABLE x",
	})
	assert.ErrorIs(t, err, storage.ErrInvalidIdentifier)
}
