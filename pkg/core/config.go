package core

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/joho/godotenv"

	"github.com/oceanbase/vecmem-go/pkg/intelligence"
)

// Configuration defaults.
const (
	DefaultDimension           = 1024
	DefaultSimilarityThreshold = 0.65
	DefaultMaxMemories         = 5000
	DefaultCleanThreshold      = 0.9
)

// Config contains the complete configuration for a vecmem client.
//
// Start from DefaultConfig: zero values are meaningful for several fields
// (IndexEnabled, MemoryFilter.Enabled, SimilarityThreshold) and are not replaced by
// defaults.
//
// Example:
//
//	config := core.DefaultConfig()
//	config.Embedder = core.EmbedderConfig{
//	    Provider: "compat",
//	    APIURL:   "https://open.bigmodel.cn/api/paas/v4/embeddings",
//	    APIKey:   "...",
//	}
//	config.VectorStore = core.VectorStoreConfig{
//	    Provider: "sqlite",
//	    Config:   map[string]interface{}{"db_path": "./data/vecmem.db"},
//	}
type Config struct {
	// Dimension is the embedding dimension shared by every index.
	Dimension int `json:"dimension"`

	// SimilarityThreshold drops query hits whose 1/(1+d) similarity is below it.
	SimilarityThreshold float64 `json:"similarity_threshold"`

	// MaxMemories is the per-role capacity.
	MaxMemories int `json:"max_memories"`

	// CleanThreshold is the fill ratio of MaxMemories that triggers eviction.
	CleanThreshold float64 `json:"clean_threshold"`

	// IndexEnabled turns the nearest-neighbor index on. When off, memories are kept
	// metadata-only and queries return the most recent records.
	IndexEnabled bool `json:"index_enabled"`

	// Embedder contains embedding provider configuration.
	Embedder EmbedderConfig `json:"embedder"`

	// VectorStore contains artifact store configuration.
	VectorStore VectorStoreConfig `json:"vector_store"`

	// MemoryFilter contains admission filter configuration.
	MemoryFilter MemoryFilterConfig `json:"memory_filter"`

	// Log contains logger configuration.
	Log LogConfig `json:"log"`
}

// EmbedderConfig contains configuration for the embedding provider.
//
// Supported providers: compat, openai, qwen, mock, none
type EmbedderConfig struct {
	// Provider is the embedding provider name.
	Provider string `json:"provider"`

	// APIURL is the full embeddings endpoint (compat provider).
	APIURL string `json:"api_url,omitempty"`

	// APIKey is the API key for the embedding provider.
	APIKey string `json:"api_key"`

	// Model is the embedding model name (e.g., "embedding-3", "text-embedding-v4").
	Model string `json:"model"`

	// BaseURL is the base URL for the API (openai, qwen; optional).
	BaseURL string `json:"base_url,omitempty"`

	// Dimensions is the requested vector dimension. It defaults to Config.Dimension and
	// must equal it.
	Dimensions int `json:"dimensions,omitempty"`
}

// VectorStoreConfig contains configuration for the artifact store.
//
// Supported providers: file, sqlite, postgres, oceanbase
//
// Example:
//
//	storeConfig := core.VectorStoreConfig{
//	    Provider: "postgres",
//	    Config: map[string]interface{}{
//	        "host":     "localhost",
//	        "port":     5432,
//	        "user":     "postgres",
//	        "password": "...",
//	        "db_name":  "vecmem",
//	    },
//	}
type VectorStoreConfig struct {
	// Provider is the artifact store provider name.
	Provider string `json:"provider"`

	// Config contains provider-specific configuration.
	// For file: index_path
	// For SQLite: db_path, table_name
	// For PostgreSQL: host, port, user, password, db_name, table_name, ssl_mode
	// For OceanBase: host, port, user, password, db_name, table_name
	Config map[string]interface{} `json:"config"`
}

// MemoryFilterConfig contains configuration for the admission filter.
type MemoryFilterConfig struct {
	// Enabled turns admission filtering on.
	Enabled bool `json:"enabled"`

	// MinImportance rejects memories scoring below it when positive. A positive value
	// is also the eviction importance threshold, even when the filter is disabled.
	MinImportance int `json:"min_importance"`

	// MinTextLength and MaxTextLength bound the rendered memory length in characters.
	MinTextLength int `json:"min_text_length"`
	MaxTextLength int `json:"max_text_length"`

	// Keywords, when non-empty, admits only memories containing one of them.
	Keywords []string `json:"keywords,omitempty"`
}

// LogConfig contains logger configuration.
type LogConfig struct {
	// Level is one of debug, info, warn, error.
	Level string `json:"level"`

	// Development switches to the human-readable console encoder.
	Development bool `json:"development"`
}

// DefaultConfig returns a configuration with every default applied.
func DefaultConfig() *Config {
	return &Config{
		Dimension:           DefaultDimension,
		SimilarityThreshold: DefaultSimilarityThreshold,
		MaxMemories:         DefaultMaxMemories,
		CleanThreshold:      DefaultCleanThreshold,
		IndexEnabled:        true,
		Embedder:            EmbedderConfig{Provider: "compat"},
		VectorStore: VectorStoreConfig{
			Provider: "file",
			Config:   map[string]interface{}{},
		},
		MemoryFilter: MemoryFilterConfig{
			Enabled:       true,
			MinTextLength: intelligence.DefaultMinTextLength,
			MaxTextLength: intelligence.DefaultMaxTextLength,
		},
		Log: LogConfig{Level: "info"},
	}
}

// applyDefaults fills fields whose zero value is never valid.
func (c *Config) applyDefaults() {
	if c.Dimension == 0 {
		c.Dimension = DefaultDimension
	}
	if c.MaxMemories == 0 {
		c.MaxMemories = DefaultMaxMemories
	}
	if c.CleanThreshold == 0 {
		c.CleanThreshold = DefaultCleanThreshold
	}
	if c.Embedder.Dimensions == 0 {
		c.Embedder.Dimensions = c.Dimension
	}
	if c.VectorStore.Provider == "" {
		c.VectorStore.Provider = "file"
	}
	if c.VectorStore.Config == nil {
		c.VectorStore.Config = map[string]interface{}{}
	}
	if c.MemoryFilter.MaxTextLength == 0 {
		c.MemoryFilter.MaxTextLength = intelligence.DefaultMaxTextLength
	}
	if c.Log.Level == "" {
		c.Log.Level = "info"
	}
}

// evictionImportance is the importance threshold used by eviction.
func (c *Config) evictionImportance() int {
	if c.MemoryFilter.MinImportance > 0 {
		return c.MemoryFilter.MinImportance
	}
	return intelligence.DefaultEvictionImportance
}

// filterRules converts the filter configuration for the intelligence package.
func (c *Config) filterRules() intelligence.FilterRules {
	return intelligence.FilterRules{
		Enabled:       c.MemoryFilter.Enabled,
		MinImportance: c.MemoryFilter.MinImportance,
		MinTextLength: c.MemoryFilter.MinTextLength,
		MaxTextLength: c.MemoryFilter.MaxTextLength,
		Keywords:      c.MemoryFilter.Keywords,
	}
}

// LoadConfigFromEnv loads configuration from environment variables.
//
// The function:
//  1. Searches for .env or .env.example files (up to 5 directory levels up)
//  2. Loads environment variables from the found file
//  3. Parses environment variables over DefaultConfig
//
// Supported environment variables:
//   - VECMEM_DIMENSION, VECMEM_SIMILARITY_THRESHOLD, VECMEM_MAX_MEMORIES,
//     VECMEM_CLEAN_THRESHOLD, VECMEM_INDEX_ENABLED
//   - VECMEM_FILTER_ENABLED, VECMEM_FILTER_MIN_IMPORTANCE, VECMEM_FILTER_MIN_TEXT_LENGTH,
//     VECMEM_FILTER_MAX_TEXT_LENGTH, VECMEM_FILTER_KEYWORDS (comma separated)
//   - VECMEM_LOG_LEVEL, VECMEM_LOG_DEVELOPMENT
//   - EMBEDDING_PROVIDER, EMBEDDING_API_URL, EMBEDDING_API_KEY, EMBEDDING_MODEL,
//     EMBEDDING_BASE_URL, EMBEDDING_DIMENSIONS
//   - DATABASE_PROVIDER (file, sqlite, postgres, oceanbase)
//   - VECMEM_INDEX_PATH
//   - SQLITE_PATH, SQLITE_TABLE
//   - POSTGRES_HOST, POSTGRES_PORT, POSTGRES_USER, POSTGRES_PASSWORD, POSTGRES_DATABASE,
//     POSTGRES_TABLE, POSTGRES_SSLMODE
//   - OCEANBASE_HOST, OCEANBASE_PORT, OCEANBASE_USER, OCEANBASE_PASSWORD,
//     OCEANBASE_DATABASE, OCEANBASE_TABLE
//
// Example:
//
//	config, err := core.LoadConfigFromEnv()
//	if err != nil {
//	    log.Fatal(err)
//	}
func LoadConfigFromEnv() (*Config, error) {
	// Use FindEnvFile to locate .env file (supports upward search)
	if envPath, found := FindEnvFile(); found {
		_ = godotenv.Load(envPath)
	} else {
		_ = godotenv.Load()
	}

	env := envReader{}
	config := DefaultConfig()

	config.Dimension = env.int("VECMEM_DIMENSION", config.Dimension)
	config.SimilarityThreshold = env.float("VECMEM_SIMILARITY_THRESHOLD", config.SimilarityThreshold)
	config.MaxMemories = env.int("VECMEM_MAX_MEMORIES", config.MaxMemories)
	config.CleanThreshold = env.float("VECMEM_CLEAN_THRESHOLD", config.CleanThreshold)
	config.IndexEnabled = env.bool("VECMEM_INDEX_ENABLED", config.IndexEnabled)

	config.MemoryFilter.Enabled = env.bool("VECMEM_FILTER_ENABLED", config.MemoryFilter.Enabled)
	config.MemoryFilter.MinImportance = env.int("VECMEM_FILTER_MIN_IMPORTANCE", 0)
	config.MemoryFilter.MinTextLength = env.int("VECMEM_FILTER_MIN_TEXT_LENGTH", config.MemoryFilter.MinTextLength)
	config.MemoryFilter.MaxTextLength = env.int("VECMEM_FILTER_MAX_TEXT_LENGTH", config.MemoryFilter.MaxTextLength)
	if keywords := os.Getenv("VECMEM_FILTER_KEYWORDS"); keywords != "" {
		for _, kw := range strings.Split(keywords, ",") {
			if kw = strings.TrimSpace(kw); kw != "" {
				config.MemoryFilter.Keywords = append(config.MemoryFilter.Keywords, kw)
			}
		}
	}

	config.Log.Level = getEnvOrDefault("VECMEM_LOG_LEVEL", config.Log.Level)
	config.Log.Development = env.bool("VECMEM_LOG_DEVELOPMENT", false)

	config.Embedder = EmbedderConfig{
		Provider:   getEnvOrDefault("EMBEDDING_PROVIDER", "compat"),
		APIURL:     os.Getenv("EMBEDDING_API_URL"),
		APIKey:     os.Getenv("EMBEDDING_API_KEY"),
		Model:      os.Getenv("EMBEDDING_MODEL"),
		BaseURL:    os.Getenv("EMBEDDING_BASE_URL"),
		Dimensions: env.int("EMBEDDING_DIMENSIONS", config.Dimension),
	}

	provider := getEnvOrDefault("DATABASE_PROVIDER", "file")
	storeConfig := map[string]interface{}{}

	switch provider {
	case "file":
		storeConfig["index_path"] = getEnvOrDefault("VECMEM_INDEX_PATH", "data/vector_memory")
	case "sqlite":
		storeConfig["db_path"] = getEnvOrDefault("SQLITE_PATH", "./data/vecmem.db")
		storeConfig["table_name"] = getEnvOrDefault("SQLITE_TABLE", "vector_memory")
	case "postgres":
		storeConfig = map[string]interface{}{
			"host":       getEnvOrDefault("POSTGRES_HOST", "localhost"),
			"port":       env.int("POSTGRES_PORT", 5432),
			"user":       getEnvOrDefault("POSTGRES_USER", "postgres"),
			"password":   os.Getenv("POSTGRES_PASSWORD"),
			"db_name":    getEnvOrDefault("POSTGRES_DATABASE", "vecmem"),
			"table_name": getEnvOrDefault("POSTGRES_TABLE", "vector_memory"),
			"ssl_mode":   getEnvOrDefault("POSTGRES_SSLMODE", "disable"),
		}
	case "oceanbase":
		storeConfig = map[string]interface{}{
			"host":       getEnvOrDefault("OCEANBASE_HOST", "127.0.0.1"),
			"port":       env.int("OCEANBASE_PORT", 2881),
			"user":       getEnvOrDefault("OCEANBASE_USER", "root@sys"),
			"password":   os.Getenv("OCEANBASE_PASSWORD"),
			"db_name":    getEnvOrDefault("OCEANBASE_DATABASE", "vecmem"),
			"table_name": getEnvOrDefault("OCEANBASE_TABLE", "vector_memory"),
		}
	}
	config.VectorStore = VectorStoreConfig{Provider: provider, Config: storeConfig}

	if env.err != nil {
		return nil, NewMemoryError("LoadConfigFromEnv", env.err)
	}
	return config, nil
}

// LoadConfigFromEnvFile loads configuration from a specific .env file.
//
// Parameters:
//   - envPath: Path to the .env file
//
// Returns a Config instance, or an error if loading fails.
func LoadConfigFromEnvFile(envPath string) (*Config, error) {
	if err := godotenv.Load(envPath); err != nil {
		return nil, fmt.Errorf("failed to load .env file: %w", err)
	}
	return LoadConfigFromEnv()
}

// LoadConfigFromJSON loads configuration from a JSON file.
//
// Keys absent from the file keep their DefaultConfig values.
//
// Parameters:
//   - path: Path to the JSON configuration file
//
// Returns a Config instance, or an error if loading or parsing fails.
func LoadConfigFromJSON(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, NewMemoryError("LoadConfigFromJSON", err)
	}

	config := DefaultConfig()
	if err := json.Unmarshal(data, config); err != nil {
		return nil, NewMemoryError("LoadConfigFromJSON", err)
	}

	return config, nil
}

var (
	embedderProviders = map[string]bool{"compat": true, "openai": true, "qwen": true, "mock": true, "none": true, "": true}
	storeProviders    = map[string]bool{"file": true, "sqlite": true, "postgres": true, "oceanbase": true}
)

// Validate validates the configuration after applying defaults.
//
// Returns an error wrapping ErrInvalidConfig that names the offending field.
func (c *Config) Validate() error {
	c.applyDefaults()

	invalid := func(format string, args ...interface{}) error {
		return NewMemoryError("Validate", fmt.Errorf("%w: "+format, append([]interface{}{ErrInvalidConfig}, args...)...))
	}

	switch {
	case c.Dimension < 0:
		return invalid("dimension must be positive, got %d", c.Dimension)
	case c.Embedder.Dimensions != c.Dimension:
		return invalid("embedder dimensions %d differ from dimension %d", c.Embedder.Dimensions, c.Dimension)
	case c.SimilarityThreshold < 0 || c.SimilarityThreshold > 1:
		return invalid("similarity_threshold must be within [0, 1], got %v", c.SimilarityThreshold)
	case c.MaxMemories < 0:
		return invalid("max_memories must be positive, got %d", c.MaxMemories)
	case c.CleanThreshold < 0 || c.CleanThreshold > 1:
		return invalid("clean_threshold must be within (0, 1], got %v", c.CleanThreshold)
	case c.MemoryFilter.MinTextLength < 0 || c.MemoryFilter.MinTextLength > c.MemoryFilter.MaxTextLength:
		return invalid("text length bounds [%d, %d] are inconsistent", c.MemoryFilter.MinTextLength, c.MemoryFilter.MaxTextLength)
	case !embedderProviders[c.Embedder.Provider]:
		return invalid("unknown embedder provider %q", c.Embedder.Provider)
	case !storeProviders[c.VectorStore.Provider]:
		return invalid("unknown vector store provider %q", c.VectorStore.Provider)
	}
	return nil
}

// getEnvOrDefault gets an environment variable or returns the default value.
func getEnvOrDefault(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

// envReader parses typed environment variables and keeps the first parse error.
type envReader struct {
	err error
}

func (r *envReader) fail(key, value string, err error) {
	if r.err == nil {
		r.err = fmt.Errorf("%w: %s=%q: %v", ErrInvalidConfig, key, value, err)
	}
}

func (r *envReader) int(key string, def int) int {
	value := os.Getenv(key)
	if value == "" {
		return def
	}
	n, err := strconv.Atoi(value)
	if err != nil {
		r.fail(key, value, err)
		return def
	}
	return n
}

func (r *envReader) float(key string, def float64) float64 {
	value := os.Getenv(key)
	if value == "" {
		return def
	}
	f, err := strconv.ParseFloat(value, 64)
	if err != nil {
		r.fail(key, value, err)
		return def
	}
	return f
}

func (r *envReader) bool(key string, def bool) bool {
	value := os.Getenv(key)
	if value == "" {
		return def
	}
	b, err := strconv.ParseBool(value)
	if err != nil {
		r.fail(key, value, err)
		return def
	}
	return b
}

// FindEnvFile searches for .env or .env.example files.
//
// The search:
//  1. Checks the current directory
//  2. Searches up to 5 directory levels up
//  3. Returns the first .env or .env.example file found
//
// Returns:
//   - path: Path to the found file (empty if not found)
//   - found: True if a file was found, false otherwise
func FindEnvFile() (string, bool) {
	dir, err := os.Getwd()
	if err != nil {
		return "", false
	}
	for i := 0; i < 6; i++ {
		for _, name := range []string{".env", ".env.example"} {
			path := filepath.Join(dir, name)
			if _, err := os.Stat(path); err == nil {
				return path, true
			}
		}

		parent := filepath.Dir(dir)
		if parent == dir {
			break
		}
		dir = parent
	}

	return "", false
}
