// Package compat provides an embedder for OpenAI-compatible embedding endpoints
// addressed by their full URL (Zhipu "embedding-3" and similar services).
//
// The request is a bearer-authenticated JSON POST of {model, input, dimensions};
// the vector is read from data[0].embedding.
package compat

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"

	"github.com/oceanbase/vecmem-go/pkg/embedder"
)

// DefaultModel is the model requested when none is configured.
const DefaultModel = "embedding-3"

// Client implements embedder.Provider against a single embeddings URL.
type Client struct {
	// client is the HTTP client for API requests.
	client *http.Client

	// url is the full embeddings endpoint.
	url string

	// apiKey is sent as a bearer token.
	apiKey string

	// model is the embedding model name to use.
	model string

	// dimensions is the target vector dimension; zero omits it from the request.
	dimensions int
}

// Config contains configuration for creating a compat embedder client.
type Config struct {
	// URL is the full embeddings endpoint, e.g. https://open.bigmodel.cn/api/paas/v4/embeddings.
	URL string

	// APIKey is the bearer token.
	APIKey string

	// Model is the model name (default: "embedding-3").
	Model string

	// Dimensions is the requested and validated vector dimension.
	Dimensions int

	// HTTPClient is a custom HTTP client (default: one with embedder.DefaultTimeout).
	HTTPClient *http.Client
}

// NewClient creates a new compat embedder client.
//
// Missing URL or key is not an error here: the client is still returned and every
// Embed call fails with embedder.ErrNotConfigured, so callers degrade instead of
// refusing to start.
func NewClient(cfg *Config) *Client {
	model := cfg.Model
	if model == "" {
		model = DefaultModel
	}

	client := cfg.HTTPClient
	if client == nil {
		client = &http.Client{Timeout: embedder.DefaultTimeout}
	}

	return &Client{
		client:     client,
		url:        cfg.URL,
		apiKey:     cfg.APIKey,
		model:      model,
		dimensions: cfg.Dimensions,
	}
}

type embeddingRequest struct {
	Model      string `json:"model"`
	Input      string `json:"input"`
	Dimensions int    `json:"dimensions,omitempty"`
}

type embeddingResponse struct {
	Data []struct {
		Embedding []float32 `json:"embedding"`
	} `json:"data"`
}

// Embed converts a single text to a vector.
func (c *Client) Embed(ctx context.Context, text string) ([]float32, error) {
	if c.url == "" || c.apiKey == "" {
		return nil, embedder.ErrNotConfigured
	}

	body, err := json.Marshal(embeddingRequest{
		Model:      c.model,
		Input:      text,
		Dimensions: c.dimensions,
	})
	if err != nil {
		return nil, fmt.Errorf("marshal request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.url, bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+c.apiKey)

	resp, err := c.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("send request: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		detail, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		return nil, fmt.Errorf("API request failed with status %d: %s", resp.StatusCode, string(detail))
	}

	var result embeddingResponse
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		return nil, fmt.Errorf("decode response: %w", err)
	}
	if len(result.Data) == 0 {
		return nil, embedder.ErrNoEmbedding
	}

	return embedder.Fit(result.Data[0].Embedding, c.dimensions)
}

// Dimensions returns the configured vector dimension.
func (c *Client) Dimensions() int {
	return c.dimensions
}

// Close is a no-op; HTTP clients need no explicit closing.
func (c *Client) Close() error {
	return nil
}
