package core

import (
	"context"

	"go.uber.org/zap"

	"github.com/oceanbase/vecmem-go/pkg/intelligence"
)

// needsEviction reports whether the store grew past MaxMemories * CleanThreshold.
func (c *Client) needsEviction(s *entityStore) bool {
	return float64(len(s.records)) > float64(c.config.MaxMemories)*c.config.CleanThreshold
}

// evict trims the store to 70% of MaxMemories.
//
// Memories scoring at least the eviction importance are all kept; the remaining room
// goes to the most recent other memories. Kept memories are re-embedded in plan order
// and the index is rebuilt from the fresh vectors. A memory that was indexed and now
// fails to embed is dropped; one that was already metadata-only stays that way.
func (c *Client) evict(ctx context.Context, s *entityStore) {
	before := len(s.records)

	candidates := make([]intelligence.Candidate, before)
	for i, r := range s.records {
		candidates[i] = intelligence.Candidate{Text: r.Text, Timestamp: r.Timestamp}
	}
	plan := intelligence.PlanRetention(candidates, c.scorer, c.config.MaxMemories, c.config.evictionImportance())

	kept := make([]*MemoryRecord, 0, len(plan.Keep))
	vectors := make([][]float32, 0, len(plan.Keep))
	dropped := 0
	for _, i := range plan.Keep {
		record := s.records[i]
		if !c.config.IndexEnabled {
			kept = append(kept, record)
			vectors = append(vectors, nil)
			continue
		}

		vec, err := c.embed(ctx, record.Text)
		if err != nil {
			if record.EmbeddingPresent {
				dropped++
				c.logger.Debug("dropping memory that failed to re-embed",
					zap.String("role_id", s.roleID),
					zap.Int64("id", record.ID),
					zap.Error(err))
				continue
			}
		}
		kept = append(kept, record)
		vectors = append(vectors, vec)
	}

	s.replace(kept, vectors)

	c.logger.Info("evicted memories",
		zap.String("role_id", s.roleID),
		zap.Int("before", before),
		zap.Int("records", len(s.records)),
		zap.Int("embedded", s.embedded()),
		zap.Int("important", plan.Important),
		zap.Int("target", plan.Target),
		zap.Int("embedding_failures", dropped))
}
