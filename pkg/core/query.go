package core

import (
	"context"

	"go.uber.org/zap"

	"github.com/oceanbase/vecmem-go/pkg/intelligence"
)

// Query returns the memories of roleID most similar to text.
//
// Hits are ordered by ascending distance and filtered by the similarity threshold,
// where similarity is 1/(1+d) for the squared L2 distance d. When the role has no
// indexed memories, the index is disabled or text cannot be embedded, Query returns
// the most recent memories instead, marked FromRecency.
//
// Query never fails; an unknown role, or one whose artifacts cannot be read, yields an
// empty slice. A cancelled ctx only fails the query embedding.
//
// Example:
//
//	results := client.Query(ctx, "role-1", "what time do I wake up", core.WithLimit(5))
//	for _, r := range results {
//	    fmt.Println(r.Similarity, r.Record.Text)
//	}
func (c *Client) Query(ctx context.Context, roleID, text string, opts ...QueryOption) []*QueryResult {
	options := applyQueryOptions(opts)
	threshold := c.config.SimilarityThreshold
	if options.Threshold != nil {
		threshold = *options.Threshold
	}

	if roleID == "" {
		return []*QueryResult{}
	}

	log := c.logger.With(zap.String("role_id", roleID))

	s, err := c.registry.get(ctx, roleID)
	if err != nil {
		log.Warn("memory store unavailable, returning no memories", zap.Error(err))
		return []*QueryResult{}
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	if !c.config.IndexEnabled || s.embedded() == 0 {
		return recentResults(s, options.Limit)
	}

	vec, err := c.embed(ctx, text)
	if err != nil {
		log.Warn("query embedding failed, returning recent memories", zap.Error(err))
		return recentResults(s, options.Limit)
	}

	k := options.Limit
	if n := s.embedded(); k > n {
		k = n
	}
	hits, err := s.search(vec, k)
	if err != nil {
		log.Warn("index search failed, returning recent memories", zap.Error(err))
		return recentResults(s, options.Limit)
	}

	results := make([]*QueryResult, 0, len(hits))
	for _, h := range hits {
		similarity := 1 / (1 + float64(h.distance))
		if similarity < threshold {
			continue
		}
		results = append(results, &QueryResult{Record: h.record.clone(), Similarity: similarity})
	}

	log.Debug("query completed",
		zap.Int("candidates", len(hits)),
		zap.Int("results", len(results)))
	return results
}

// recentResults returns up to limit records, most recent first.
func recentResults(s *entityStore, limit int) []*QueryResult {
	timestamps := make([]string, len(s.records))
	for i, r := range s.records {
		timestamps[i] = r.Timestamp
	}
	order := intelligence.RecencyOrder(timestamps)
	if len(order) > limit {
		order = order[:limit]
	}

	results := make([]*QueryResult, 0, len(order))
	for _, i := range order {
		results = append(results, &QueryResult{Record: s.records[i].clone(), FromRecency: true})
	}
	return results
}
