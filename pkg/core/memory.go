package core

import (
	"context"
	"fmt"
	"time"

	"github.com/bwmarrin/snowflake"
	"go.uber.org/multierr"
	"go.uber.org/zap"

	"github.com/oceanbase/vecmem-go/pkg/embedder"
	compatEmbedder "github.com/oceanbase/vecmem-go/pkg/embedder/compat"
	mockEmbedder "github.com/oceanbase/vecmem-go/pkg/embedder/mock"
	openaiEmbedder "github.com/oceanbase/vecmem-go/pkg/embedder/openai"
	qwenEmbedder "github.com/oceanbase/vecmem-go/pkg/embedder/qwen"
	"github.com/oceanbase/vecmem-go/pkg/intelligence"
	"github.com/oceanbase/vecmem-go/pkg/logging"
	"github.com/oceanbase/vecmem-go/pkg/storage"
	fileStore "github.com/oceanbase/vecmem-go/pkg/storage/file"
	"github.com/oceanbase/vecmem-go/pkg/storage/oceanbase"
	postgresStore "github.com/oceanbase/vecmem-go/pkg/storage/postgres"
	sqliteStore "github.com/oceanbase/vecmem-go/pkg/storage/sqlite"
)

// Client is the main vecmem client.
//
// It keeps one bounded memory store per role id, each loaded lazily from the artifact
// store on first use. Operations on different roles run independently; operations on
// the same role are serialized.
//
// No operation fails because the embedding service is unavailable: memories are then
// kept without an index entry and queries fall back to the most recent memories.
//
// Example usage:
//
//	config, _ := core.LoadConfigFromEnv()
//	client, _ := core.NewClient(config)
//	defer client.Close()
//
//	_ = client.Save(ctx, "role-1", []core.Message{
//	    {Role: "user", Content: "Turn off the bedroom air conditioner at 23:00"},
//	})
//	results := client.Query(ctx, "role-1", "air conditioner schedule")
type Client struct {
	// config contains the validated client configuration.
	config *Config

	// artifacts persists index and metadata per role.
	artifacts storage.ArtifactStore

	// embedder is the embedding provider (nil when none is configured).
	embedder embedder.Provider

	// filter decides which memories are admitted.
	filter *intelligence.Filter

	// scorer rates memory importance for admission and eviction.
	scorer *intelligence.Scorer

	logger *zap.Logger

	registry *storeRegistry

	// snowflakeNode generates unique IDs for memories.
	snowflakeNode *snowflake.Node

	now func() time.Time
}

// NewClient creates a new vecmem client.
//
// The client is initialized with:
//   - Artifact store (file, SQLite, PostgreSQL or OceanBase)
//   - Embedding provider (compat, OpenAI, Qwen, mock or none)
//   - Admission filter and importance scorer
//   - Logger built from cfg.Log
//
// Each of these can be replaced with a ClientOption.
//
// Parameters:
//   - cfg: Configuration, typically derived from DefaultConfig
//   - opts: Component overrides (WithLogger, WithEmbedder, WithArtifactStore, WithScorer)
//
// Returns a new Client instance, or an error if initialization fails.
func NewClient(cfg *Config, opts ...ClientOption) (*Client, error) {
	if cfg == nil {
		return nil, NewMemoryError("NewClient", ErrInvalidConfig)
	}
	config := *cfg
	if err := config.Validate(); err != nil {
		return nil, err
	}

	options := &clientOptions{}
	for _, opt := range opts {
		opt(options)
	}

	logger := options.logger
	if logger == nil {
		l, err := logging.New(config.Log.Level, config.Log.Development)
		if err != nil {
			return nil, NewMemoryError("NewClient", fmt.Errorf("%w: %w", ErrInvalidConfig, err))
		}
		logger = l
	}

	artifacts := options.artifacts
	if artifacts == nil {
		store, err := initStorage(config.VectorStore)
		if err != nil {
			return nil, err
		}
		artifacts = store
	}

	provider := options.embedder
	if provider == nil {
		provider = initEmbedder(config.Embedder)
	}

	scorer := options.scorer
	if scorer == nil {
		scorer = intelligence.NewDefaultScorer()
	}

	// Initialize Snowflake ID generator
	node, err := snowflake.NewNode(1)
	if err != nil {
		return nil, NewMemoryError("NewClient", err)
	}

	client := &Client{
		config:        &config,
		artifacts:     artifacts,
		embedder:      provider,
		filter:        intelligence.NewFilter(config.filterRules(), scorer),
		scorer:        scorer,
		logger:        logger,
		snowflakeNode: node,
		now:           time.Now,
	}
	client.registry = newStoreRegistry(func(ctx context.Context, roleID string) (*entityStore, error) {
		return loadEntityStore(ctx, roleID, config.Dimension, config.IndexEnabled, artifacts, logger)
	})

	if config.IndexEnabled && provider == nil {
		logger.Warn("no embedding provider configured, memories will be kept without index")
	}
	logger.Info("vecmem client initialized",
		zap.String("vector_store", config.VectorStore.Provider),
		zap.String("embedder", config.Embedder.Provider),
		zap.Int("dimension", config.Dimension),
		zap.Int("max_memories", config.MaxMemories),
		zap.Bool("index_enabled", config.IndexEnabled))

	return client, nil
}

// Save memorizes messages for roleID, in order.
//
// Each message is rendered, passed through the admission filter and embedded. A
// message whose embedding fails is kept without an index entry. Both artifacts are
// persisted after every stored message; the store is trimmed first when it grew past
// MaxMemories * CleanThreshold.
//
// A nil error means every stored message was persisted. Persistence failures are
// combined and returned; the in-memory store keeps the messages regardless. An error
// reading the role's artifacts fails the call before anything is stored.
//
// Once started, Save runs to completion: cancelling ctx does not abandon it between
// messages or in the middle of an eviction.
//
// Example:
//
//	err := client.Save(ctx, "role-1", []core.Message{
//	    {Role: "user", Content: "I like the curtains half open in the afternoon"},
//	    {Role: "assistant", Content: "Noted, curtains half open after 14:00"},
//	})
func (c *Client) Save(ctx context.Context, roleID string, messages []Message) error {
	if roleID == "" {
		return NewMemoryError("Save", ErrInvalidInput)
	}
	if len(messages) == 0 {
		return nil
	}
	ctx = context.WithoutCancel(ctx)

	s, err := c.registry.get(ctx, roleID)
	if err != nil {
		return NewMemoryError("Save", err)
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	log := c.logger.With(zap.String("role_id", roleID))

	var errs error
	for _, msg := range messages {
		record := newRecord(c.snowflakeNode.Generate().Int64(), msg, c.now())

		if ok, reason := c.filter.Admit(record.Text); !ok {
			log.Debug("memory rejected by filter", zap.String("reason", string(reason)))
			continue
		}

		var vec []float32
		if c.config.IndexEnabled {
			v, err := c.embed(ctx, record.Text)
			if err != nil {
				log.Warn("embedding failed, keeping memory without index", zap.Error(err))
			} else {
				vec = v
			}
		}
		if err := s.append(record, vec); err != nil {
			log.Warn("index rejected embedding, keeping memory without index", zap.Error(err))
		}

		if c.needsEviction(s) {
			c.evict(ctx, s)
		}

		if err := s.persist(ctx, c.artifacts, c.logger); err != nil {
			errs = multierr.Append(errs, err)
		}
	}

	if errs != nil {
		return NewMemoryError("Save", errs)
	}
	return nil
}

// ClearAll removes every memory of roleID and persists the empty store.
//
// Calling it on an empty or unknown role is not an error. Like Save, it is not
// abandoned when ctx is cancelled.
func (c *Client) ClearAll(ctx context.Context, roleID string) error {
	if roleID == "" {
		return NewMemoryError("ClearAll", ErrInvalidInput)
	}
	ctx = context.WithoutCancel(ctx)

	s, err := c.registry.get(ctx, roleID)
	if err != nil {
		return NewMemoryError("ClearAll", err)
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	removed := len(s.records)
	s.reset()
	if err := s.persist(ctx, c.artifacts, c.logger); err != nil {
		return NewMemoryError("ClearAll", err)
	}

	c.logger.Info("cleared all memories",
		zap.String("role_id", roleID),
		zap.Int("records", removed))
	return nil
}

// Count returns the number of memories stored for roleID.
func (c *Client) Count(ctx context.Context, roleID string) int {
	return c.Stats(ctx, roleID).Records
}

// Stats returns record and index counts for roleID. It is zero when the role's
// artifacts cannot be read.
func (c *Client) Stats(ctx context.Context, roleID string) RoleStats {
	if roleID == "" {
		return RoleStats{}
	}
	s, err := c.registry.get(ctx, roleID)
	if err != nil {
		return RoleStats{}
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.stats()
}

// Roles returns the role ids loaded by this client so far.
func (c *Client) Roles() []string {
	return c.registry.roles()
}

// Role returns a handle bound to roleID.
func (c *Client) Role(roleID string) *RoleMemory {
	return &RoleMemory{client: c, roleID: roleID}
}

// Close closes the embedding provider and the artifact store.
//
// Stores are persisted on every mutation, so nothing is flushed here.
func (c *Client) Close() error {
	var err error
	if c.embedder != nil {
		err = multierr.Append(err, c.embedder.Close())
	}
	err = multierr.Append(err, c.artifacts.Close())
	_ = c.logger.Sync()
	if err != nil {
		return NewMemoryError("Close", err)
	}
	return nil
}

// embed calls the provider once under the fixed embedding timeout and fits the vector
// to the configured dimension.
func (c *Client) embed(ctx context.Context, text string) ([]float32, error) {
	if c.embedder == nil {
		return nil, fmt.Errorf("%w: %w", ErrEmbeddingFailed, embedder.ErrNotConfigured)
	}

	ctx, cancel := context.WithTimeout(ctx, embedder.DefaultTimeout)
	defer cancel()

	vec, err := c.embedder.Embed(ctx, text)
	if err == nil {
		vec, err = embedder.Fit(vec, c.config.Dimension)
	}
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrEmbeddingFailed, err)
	}
	return vec, nil
}

// initStorage initializes the artifact store.
func initStorage(cfg VectorStoreConfig) (storage.ArtifactStore, error) {
	r := &configReader{m: cfg.Config}

	var (
		store storage.ArtifactStore
		err   error
	)
	switch cfg.Provider {
	case "file":
		dir := r.str("index_path", fileStore.DefaultDir)
		if r.err == nil {
			store, err = fileStore.NewStore(&fileStore.Config{Dir: dir})
		}
	case "sqlite":
		sqliteCfg := &sqliteStore.Config{
			DBPath:    r.str("db_path", "./data/vecmem.db"),
			TableName: r.str("table_name", storage.DefaultTableName),
		}
		if r.err == nil {
			store, err = sqliteStore.NewClient(sqliteCfg)
		}
	case "postgres":
		pgCfg := &postgresStore.Config{
			Host:      r.str("host", "localhost"),
			Port:      r.int("port", 5432),
			User:      r.str("user", "postgres"),
			Password:  r.str("password", ""),
			DBName:    r.str("db_name", "vecmem"),
			TableName: r.str("table_name", storage.DefaultTableName),
			SSLMode:   r.str("ssl_mode", "disable"),
		}
		if r.err == nil {
			store, err = postgresStore.NewClient(pgCfg)
		}
	case "oceanbase":
		obCfg := &oceanbase.Config{
			Host:      r.str("host", "127.0.0.1"),
			Port:      r.int("port", 2881),
			User:      r.str("user", "root@sys"),
			Password:  r.str("password", ""),
			DBName:    r.str("db_name", "vecmem"),
			TableName: r.str("table_name", storage.DefaultTableName),
		}
		if r.err == nil {
			store, err = oceanbase.NewClient(obCfg)
		}
	default:
		return nil, NewMemoryError("initStorage", ErrInvalidConfig)
	}

	if r.err != nil {
		return nil, NewMemoryError("initStorage", r.err)
	}
	if err != nil {
		return nil, NewMemoryError("initStorage", fmt.Errorf("%w: %w", ErrStorageOperation, err))
	}
	return store, nil
}

// initEmbedder initializes the embedder provider. It returns nil for "none".
//
// Missing credentials are not an error: the provider fails each call instead, and the
// client degrades to metadata-only memories.
func initEmbedder(cfg EmbedderConfig) embedder.Provider {
	switch cfg.Provider {
	case "compat":
		return compatEmbedder.NewClient(&compatEmbedder.Config{
			URL:        cfg.APIURL,
			APIKey:     cfg.APIKey,
			Model:      cfg.Model,
			Dimensions: cfg.Dimensions,
		})
	case "openai":
		return openaiEmbedder.NewClient(&openaiEmbedder.Config{
			APIKey:     cfg.APIKey,
			Model:      cfg.Model,
			BaseURL:    cfg.BaseURL,
			Dimensions: cfg.Dimensions,
		})
	case "qwen":
		return qwenEmbedder.NewClient(&qwenEmbedder.Config{
			APIKey:     cfg.APIKey,
			Model:      cfg.Model,
			BaseURL:    cfg.BaseURL,
			Dimensions: cfg.Dimensions,
		})
	case "mock":
		return mockEmbedder.New(cfg.Dimensions)
	default:
		return nil
	}
}
