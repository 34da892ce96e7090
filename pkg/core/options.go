package core

import (
	"go.uber.org/zap"

	"github.com/oceanbase/vecmem-go/pkg/embedder"
	"github.com/oceanbase/vecmem-go/pkg/intelligence"
	"github.com/oceanbase/vecmem-go/pkg/storage"
)

// DefaultQueryLimit is the number of memories Query returns by default.
const DefaultQueryLimit = 3

// ClientOption is a function type for configuring NewClient.
//
// Options override the components NewClient would otherwise build from Config.
type ClientOption func(*clientOptions)

type clientOptions struct {
	logger    *zap.Logger
	embedder  embedder.Provider
	artifacts storage.ArtifactStore
	scorer    *intelligence.Scorer
}

// WithLogger injects the logger instead of building one from Config.Log.
//
// Example:
//
//	client, _ := core.NewClient(cfg, core.WithLogger(zap.NewNop()))
func WithLogger(logger *zap.Logger) ClientOption {
	return func(opts *clientOptions) {
		opts.logger = logger
	}
}

// WithEmbedder injects the embedding provider instead of building one from
// Config.Embedder.
func WithEmbedder(provider embedder.Provider) ClientOption {
	return func(opts *clientOptions) {
		opts.embedder = provider
	}
}

// WithArtifactStore injects the artifact store instead of building one from
// Config.VectorStore.
func WithArtifactStore(store storage.ArtifactStore) ClientOption {
	return func(opts *clientOptions) {
		opts.artifacts = store
	}
}

// WithScorer replaces the default importance lexicon, e.g. for a different domain.
//
// Example:
//
//	lexicon := intelligence.DefaultLexicon()
//	lexicon.Devices = append(lexicon.Devices, "robot vacuum")
//	client, _ := core.NewClient(cfg, core.WithScorer(intelligence.NewScorer(lexicon)))
func WithScorer(scorer *intelligence.Scorer) ClientOption {
	return func(opts *clientOptions) {
		opts.scorer = scorer
	}
}

// QueryOption is a function type for configuring Query operations.
type QueryOption func(*QueryOptions)

// QueryOptions contains configuration options for Query operations.
type QueryOptions struct {
	// Limit sets the maximum number of results to return.
	Limit int

	// Threshold overrides Config.SimilarityThreshold when non-nil.
	Threshold *float64
}

// WithLimit sets the maximum number of results returned by Query.
// Non-positive values keep the default of 3.
//
// Example:
//
//	results := client.Query(ctx, "role-1", "light schedule", core.WithLimit(5))
func WithLimit(limit int) QueryOption {
	return func(opts *QueryOptions) {
		if limit > 0 {
			opts.Limit = limit
		}
	}
}

// WithThreshold overrides the similarity threshold for one Query.
func WithThreshold(threshold float64) QueryOption {
	return func(opts *QueryOptions) {
		opts.Threshold = &threshold
	}
}

func applyQueryOptions(opts []QueryOption) *QueryOptions {
	options := &QueryOptions{Limit: DefaultQueryLimit}
	for _, opt := range opts {
		opt(options)
	}
	return options
}
