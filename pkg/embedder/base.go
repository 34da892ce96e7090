// Package embedder provides interfaces for text embedding providers.
//
// It defines the Provider interface that all embedding implementations must satisfy,
// enabling text-to-vector conversion for nearest-neighbor search.
package embedder

import (
	"context"
	"errors"
	"fmt"
	"time"
)

// DefaultTimeout is the fixed budget of a single embedding call.
const DefaultTimeout = 10 * time.Second

var (
	// ErrNotConfigured indicates that the service URL or API key is missing.
	ErrNotConfigured = errors.New("embedding service not configured")

	// ErrNoEmbedding indicates that the response carried no embedding.
	ErrNoEmbedding = errors.New("no embedding in response")

	// ErrDimensionMismatch indicates that the returned vector is shorter than the
	// configured dimension.
	ErrDimensionMismatch = errors.New("embedding dimension mismatch")
)

// Provider defines the interface for embedding providers.
//
// All embedding implementations (compat, OpenAI, Qwen, mock) must implement this
// interface. A provider makes exactly one attempt per call; retries and fallback are
// the caller's decision.
type Provider interface {
	// Embed converts a text string into a vector embedding.
	//
	// Parameters:
	//   - ctx: Context for cancellation and timeout
	//   - text: The input text to embed
	//
	// Returns the embedding vector and any error.
	Embed(ctx context.Context, text string) ([]float32, error)

	// Dimensions returns the dimension of embedding vectors produced by this provider.
	Dimensions() int

	// Close closes the provider and releases resources.
	Close() error
}

// Fit validates vec against the target dimension.
//
// A longer vector is truncated to dim; a shorter one is rejected. A non-positive dim
// accepts any non-empty vector unchanged.
func Fit(vec []float32, dim int) ([]float32, error) {
	if len(vec) == 0 {
		return nil, ErrNoEmbedding
	}
	if dim <= 0 {
		return vec, nil
	}
	if len(vec) < dim {
		return nil, fmt.Errorf("%w: got %d, want %d", ErrDimensionMismatch, len(vec), dim)
	}
	return vec[:dim:dim], nil
}
