package core_test

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	vecmem "github.com/oceanbase/vecmem-go/pkg/core"
	"github.com/oceanbase/vecmem-go/pkg/embedder/mock"
)

// evictionMessages returns 91 messages a minute apart. Messages 0, 4, ..., 76 mention
// a device command and score 6; the others score 3.
func evictionMessages() ([]vecmem.Message, []string) {
	base := time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)
	messages := make([]vecmem.Message, 91)
	contents := make([]string, 91)
	for i := range messages {
		if i%4 == 0 && i < 80 {
			contents[i] = fmt.Sprintf("Please turn on the light, entry %d", i)
		} else {
			contents[i] = fmt.Sprintf("chatting about the weather, entry %d", i)
		}
		messages[i] = vecmem.Message{
			Role:      "user",
			Content:   contents[i],
			Timestamp: base.Add(time.Duration(i) * time.Minute).Format(time.RFC3339),
		}
	}
	return messages, contents
}

// expectedSurvivors lists the surviving contents in rebuild order: the 20 important
// ones in insertion order, then the 50 most recent others, newest first.
func expectedSurvivors(contents []string) []string {
	var expected []string
	for i := 0; i < 80; i += 4 {
		expected = append(expected, contents[i])
	}
	for i := len(contents) - 1; i >= 0 && len(expected) < 70; i-- {
		if i%4 == 0 && i < 80 {
			continue
		}
		expected = append(expected, contents[i])
	}
	return expected
}

func evictionConfig(c *vecmem.Config) {
	c.MaxMemories = 100
	c.CleanThreshold = 0.9
	c.MemoryFilter.Enabled = false
	c.MemoryFilter.MinImportance = 5
}

func TestEviction(t *testing.T) {
	client, store := newTestClient(t, evictionConfig)
	defer client.Close()
	ctx := context.Background()

	messages, contents := evictionMessages()
	require.NoError(t, client.Save(ctx, "role-1", messages[:90]))
	assert.Equal(t, 90, client.Count(ctx, "role-1"))

	require.NoError(t, client.Save(ctx, "role-1", messages[90:]))
	assert.Equal(t, vecmem.RoleStats{Records: 70, Embedded: 70, Indexed: 70}, client.Stats(ctx, "role-1"))

	data, err := os.ReadFile(store.MetadataPath("role-1"))
	require.NoError(t, err)
	var records []vecmem.MemoryRecord
	require.NoError(t, json.Unmarshal(data, &records))

	expected := expectedSurvivors(contents)
	require.Len(t, records, len(expected))
	for i, r := range records {
		assert.True(t, strings.HasSuffix(r.Text, "Content: "+expected[i]), "position %d: %q", i, r.Text)
		assert.True(t, r.EmbeddingPresent)
	}

	// The rebuilt index still maps slots to the right records.
	last := messages[90]
	results := client.Query(ctx, "role-1", rendered(last.Timestamp, last.Content))
	require.Len(t, results, 1)
	assert.InDelta(t, 1.0, results[0].Similarity, 1e-6)
	assert.Equal(t, rendered(last.Timestamp, last.Content), results[0].Record.Text)
}

func TestEviction_IndexDisabled(t *testing.T) {
	client, _ := newTestClient(t, func(c *vecmem.Config) {
		evictionConfig(c)
		c.IndexEnabled = false
	})
	defer client.Close()
	ctx := context.Background()

	messages, contents := evictionMessages()
	require.NoError(t, client.Save(ctx, "role-1", messages))
	assert.Equal(t, vecmem.RoleStats{Records: 70}, client.Stats(ctx, "role-1"))

	results := client.Query(ctx, "role-1", "anything", vecmem.WithLimit(1))
	require.Len(t, results, 1)
	assert.True(t, results[0].FromRecency)
	assert.True(t, strings.HasSuffix(results[0].Record.Text, contents[90]))
}

func TestEviction_ReembedFailure(t *testing.T) {
	client, store := newTestClient(t, evictionConfig)
	ctx := context.Background()

	messages, _ := evictionMessages()
	require.NoError(t, client.Save(ctx, "role-1", messages[:90]))
	require.NoError(t, client.Close())

	// Reopened with an embedder that now fails on every unimportant text.
	provider := &failingEmbedder{inner: mock.New(testDimension), markers: []string{"weather"}}
	reopened := newClientOn(t, store, evictionConfig, vecmem.WithEmbedder(provider))
	defer reopened.Close()

	require.NoError(t, reopened.Save(ctx, "role-1", messages[90:]))

	// Indexed memories that fail to re-embed are dropped; the newest one was never
	// indexed and stays metadata-only.
	stats := reopened.Stats(ctx, "role-1")
	assert.Equal(t, vecmem.RoleStats{Records: 21, Embedded: 20, Indexed: 20}, stats)
	assert.Equal(t, 1, stats.Degraded())
}

func TestEviction_CanceledContextKeepsMemories(t *testing.T) {
	client, store := newTestClient(t, evictionConfig)
	ctx := context.Background()

	messages, contents := evictionMessages()
	require.NoError(t, client.Save(ctx, "role-1", messages[:90]))

	// Eviction triggered by a cancelled save still re-embeds every survivor.
	require.NoError(t, client.Save(canceledContext(), "role-1", messages[90:]))
	assert.Equal(t, vecmem.RoleStats{Records: 70, Embedded: 70, Indexed: 70}, client.Stats(ctx, "role-1"))
	require.NoError(t, client.Close())

	reopened := newClientOn(t, store, evictionConfig)
	defer reopened.Close()
	assert.Equal(t, vecmem.RoleStats{Records: 70, Embedded: 70, Indexed: 70}, reopened.Stats(ctx, "role-1"))

	last := messages[90]
	results := reopened.Query(ctx, "role-1", rendered(last.Timestamp, last.Content))
	require.Len(t, results, 1)
	assert.True(t, strings.HasSuffix(results[0].Record.Text, contents[90]))
}
