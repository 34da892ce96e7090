package core_test

import (
	"context"
	"errors"
	"strings"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	vecmem "github.com/oceanbase/vecmem-go/pkg/core"
	"github.com/oceanbase/vecmem-go/pkg/embedder/mock"
	"github.com/oceanbase/vecmem-go/pkg/storage"
	fileStore "github.com/oceanbase/vecmem-go/pkg/storage/file"
)

const testDimension = 64

// newTestClient builds a client over a mock embedder and a file store in a temp dir.
func newTestClient(t *testing.T, mutate func(c *vecmem.Config), opts ...vecmem.ClientOption) (*vecmem.Client, *fileStore.Store) {
	t.Helper()
	store, err := fileStore.NewStore(&fileStore.Config{Dir: t.TempDir()})
	require.NoError(t, err)
	return newClientOn(t, store, mutate, opts...), store
}

// newClientOn builds a client over an existing file store.
func newClientOn(t *testing.T, store *fileStore.Store, mutate func(c *vecmem.Config), opts ...vecmem.ClientOption) *vecmem.Client {
	t.Helper()
	config := vecmem.DefaultConfig()
	config.Dimension = testDimension
	if mutate != nil {
		mutate(config)
	}

	base := []vecmem.ClientOption{
		vecmem.WithLogger(zap.NewNop()),
		vecmem.WithEmbedder(mock.New(testDimension)),
		vecmem.WithArtifactStore(store),
	}
	client, err := vecmem.NewClient(config, append(base, opts...)...)
	require.NoError(t, err)
	return client
}

// rendered is the stored text of a user message with an explicit timestamp.
func rendered(timestamp, content string) string {
	return "Time: " + timestamp + "\nRole: user\nContent: " + content
}

// failingEmbedder fails every text containing one of its markers, or every text when
// it has none.
type failingEmbedder struct {
	inner   *mock.Embedder
	markers []string
}

func (f *failingEmbedder) Embed(ctx context.Context, text string) ([]float32, error) {
	if len(f.markers) == 0 {
		return nil, errors.New("embedding service unavailable")
	}
	for _, m := range f.markers {
		if strings.Contains(text, m) {
			return nil, errors.New("embedding service unavailable")
		}
	}
	return f.inner.Embed(ctx, text)
}

func (f *failingEmbedder) Dimensions() int { return testDimension }

func (f *failingEmbedder) Close() error { return nil }

// brokenStore reads nothing and fails every write.
type brokenStore struct{}

func (brokenStore) ReadIndex(context.Context, string) ([]byte, error) {
	return nil, storage.ErrArtifactNotFound
}

func (brokenStore) ReadMetadata(context.Context, string) ([]byte, error) {
	return nil, storage.ErrArtifactNotFound
}

func (brokenStore) Write(context.Context, string, []byte, []byte) error {
	return errors.New("disk full")
}

func (brokenStore) Close() error { return nil }

// flakyStore fails the first reads of the wrapped store with a transient error.
type flakyStore struct {
	*fileStore.Store
	failures int32
}

func (f *flakyStore) ReadMetadata(ctx context.Context, roleID string) ([]byte, error) {
	if atomic.AddInt32(&f.failures, -1) >= 0 {
		return nil, errors.New("connection reset by peer")
	}
	return f.Store.ReadMetadata(ctx, roleID)
}

func canceledContext() context.Context {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	return ctx
}
