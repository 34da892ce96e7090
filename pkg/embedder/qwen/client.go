// Package qwen provides Qwen Embedder implementation using Alibaba Cloud DashScope Text Embedding API.
//
// Qwen Embedder converts text into vector embeddings for similarity search.
// This package implements the embedder.Provider interface.
package qwen

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"

	"github.com/oceanbase/vecmem-go/pkg/embedder"
)

// Defaults for the DashScope text-embedding service.
const (
	DefaultBaseURL = "https://dashscope.aliyuncs.com/api/v1"
	DefaultModel   = "text-embedding-v4"
)

// Client implements embedder.Provider using Alibaba Cloud DashScope Text Embedding API.
type Client struct {
	client     *http.Client
	apiKey     string
	model      string
	baseURL    string
	dimensions int
}

// Config contains configuration for creating a Qwen Embedder client.
type Config struct {
	// APIKey is the DashScope API key.
	APIKey string

	// Model is the model name to use (default: "text-embedding-v4").
	Model string

	// BaseURL is the API base URL (default: DashScope official address).
	BaseURL string

	// Dimensions is the requested and validated vector dimension.
	Dimensions int

	// HTTPClient is a custom HTTP client (default: one with embedder.DefaultTimeout).
	HTTPClient *http.Client
}

// NewClient creates a new Qwen Embedder client.
func NewClient(cfg *Config) *Client {
	baseURL := cfg.BaseURL
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}

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
		apiKey:     cfg.APIKey,
		model:      model,
		baseURL:    baseURL,
		dimensions: cfg.Dimensions,
	}
}

type dashscopeRequest struct {
	Model      string              `json:"model"`
	Input      dashscopeInput      `json:"input"`
	Parameters *dashscopeParameter `json:"parameters,omitempty"`
	TextType   string              `json:"text_type"`
}

type dashscopeInput struct {
	Texts []string `json:"texts"`
}

type dashscopeParameter struct {
	Dimension int `json:"dimension"`
}

type dashscopeResponse struct {
	Output struct {
		Embeddings []struct {
			Embedding []float32 `json:"embedding"`
		} `json:"embeddings"`
	} `json:"output"`
}

// Embed converts a single text string into a vector embedding.
func (c *Client) Embed(ctx context.Context, text string) ([]float32, error) {
	if c.apiKey == "" {
		return nil, embedder.ErrNotConfigured
	}

	reqBody := dashscopeRequest{
		Model:    c.model,
		Input:    dashscopeInput{Texts: []string{text}},
		TextType: "document",
	}
	if c.dimensions > 0 {
		reqBody.Parameters = &dashscopeParameter{Dimension: c.dimensions}
	}

	jsonData, err := json.Marshal(reqBody)
	if err != nil {
		return nil, fmt.Errorf("marshal request: %w", err)
	}

	url := c.baseURL + "/services/embeddings/text-embedding/text-embedding"
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(jsonData))
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

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		return nil, fmt.Errorf("API request failed with status %d: %s", resp.StatusCode, string(body))
	}

	var response dashscopeResponse
	if err := json.NewDecoder(resp.Body).Decode(&response); err != nil {
		return nil, fmt.Errorf("decode response: %w", err)
	}
	if len(response.Output.Embeddings) == 0 {
		return nil, embedder.ErrNoEmbedding
	}

	return embedder.Fit(response.Output.Embeddings[0].Embedding, c.dimensions)
}

// Dimensions returns the dimension of embedding vectors produced by this provider.
func (c *Client) Dimensions() int {
	return c.dimensions
}

// Close is a no-op; HTTP clients do not need explicit closing.
func (c *Client) Close() error {
	return nil
}
