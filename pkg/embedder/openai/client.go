package openai

import (
	"context"
	"net/http"

	openai "github.com/sashabaranov/go-openai"

	"github.com/oceanbase/vecmem-go/pkg/embedder"
)

// DefaultModel is the model requested when none is configured.
const DefaultModel = "text-embedding-3-small"

// Client is an OpenAI Embedder client.
// It implements the embedder.Provider interface on top of the OpenAI Embeddings API.
type Client struct {
	client     *openai.Client
	model      openai.EmbeddingModel
	dimensions int
	configured bool
}

// Config is the configuration for OpenAI Embedder.
// APIKey: OpenAI API key (required for calls to succeed)
// Model: Model name to use, defaults to text-embedding-3-small
// BaseURL: API base URL, defaults to OpenAI official address
// Dimensions: Requested vector dimensions, sent with every request when positive
type Config struct {
	APIKey     string
	Model      string
	BaseURL    string
	Dimensions int

	// HTTPClient is a custom HTTP client (default: one with embedder.DefaultTimeout).
	HTTPClient *http.Client
}

// NewClient creates a new OpenAI Embedder client.
//
// Args:
//   - cfg: OpenAI Embedder configuration containing APIKey, BaseURL, Dimensions, etc.
//
// Returns:
//   - *Client: OpenAI Embedder client instance
func NewClient(cfg *Config) *Client {
	config := openai.DefaultConfig(cfg.APIKey)
	if cfg.BaseURL != "" {
		config.BaseURL = cfg.BaseURL
	}
	if cfg.HTTPClient != nil {
		config.HTTPClient = cfg.HTTPClient
	} else {
		config.HTTPClient = &http.Client{Timeout: embedder.DefaultTimeout}
	}

	model := cfg.Model
	if model == "" {
		model = DefaultModel
	}

	return &Client{
		client:     openai.NewClientWithConfig(config),
		model:      openai.EmbeddingModel(model),
		dimensions: cfg.Dimensions,
		configured: cfg.APIKey != "",
	}
}

// Embed converts a single text to a vector.
//
// Args:
//   - ctx: Context for controlling the request lifecycle
//   - text: Text content to vectorize
//
// Returns:
//   - []float32: Vector representation of the text, fitted to the configured dimension
//   - error: Returns an error if vectorization fails
func (c *Client) Embed(ctx context.Context, text string) ([]float32, error) {
	if !c.configured {
		return nil, embedder.ErrNotConfigured
	}

	resp, err := c.client.CreateEmbeddings(ctx, openai.EmbeddingRequest{
		Input:      []string{text},
		Model:      c.model,
		Dimensions: c.dimensions,
	})
	if err != nil {
		return nil, err
	}

	if len(resp.Data) == 0 {
		return nil, embedder.ErrNoEmbedding
	}

	return embedder.Fit(resp.Data[0].Embedding, c.dimensions)
}

// Dimensions returns the vector dimensions.
func (c *Client) Dimensions() int {
	return c.dimensions
}

// Close closes the client connection.
// The OpenAI SDK client does not require explicit closing; this method is retained for interface compatibility.
func (c *Client) Close() error {
	return nil
}
