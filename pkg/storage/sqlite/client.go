// Package sqlite provides SQLite implementation for artifact storage.
//
// SQLite is a lightweight, file-based database suitable for local development and
// single-process deployments. Each role is one row holding the encoded index as a
// BLOB and the metadata log as TEXT, so both artifacts change in a single statement.
package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	_ "github.com/mattn/go-sqlite3"

	"github.com/oceanbase/vecmem-go/pkg/storage"
)

// Client implements storage.ArtifactStore using SQLite as the backend.
type Client struct {
	// db is the SQLite database connection.
	db *sql.DB

	// tableName is the name of the table storing artifacts.
	tableName string
}

// Config contains configuration for creating a SQLite artifact store.
type Config struct {
	// DBPath is the path to the SQLite database file.
	DBPath string

	// TableName is the name of the table to use (default: vector_memory).
	TableName string
}

// NewClient creates a new SQLite artifact store client.
//
// Parameters:
//   - cfg: Configuration containing database path and table name
//
// Returns:
//   - *Client: The SQLite client instance
//   - error: Error if database connection or table creation fails
func NewClient(cfg *Config) (*Client, error) {
	tableName := cfg.TableName
	if tableName == "" {
		tableName = storage.DefaultTableName
	}
	if err := storage.ValidateIdentifier(tableName); err != nil {
		return nil, fmt.Errorf("NewSQLiteClient: %w", err)
	}

	// Create parent directory if it doesn't exist
	dbDir := filepath.Dir(cfg.DBPath)
	if dbDir != "" && dbDir != "." {
		if err := os.MkdirAll(dbDir, 0755); err != nil {
			return nil, fmt.Errorf("NewSQLiteClient: failed to create directory: %w", err)
		}
	}

	db, err := sql.Open("sqlite3", cfg.DBPath+"?_journal_mode=WAL&_busy_timeout=5000")
	if err != nil {
		return nil, fmt.Errorf("NewSQLiteClient: %w", err)
	}

	// Test connection
	if err := db.Ping(); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("NewSQLiteClient: %w", err)
	}

	client := &Client{
		db:        db,
		tableName: tableName,
	}

	if err := client.initTables(context.Background()); err != nil {
		_ = db.Close()
		return nil, err
	}

	return client, nil
}

// initTables initializes the database table structure.
func (c *Client) initTables(ctx context.Context) error {
	query := fmt.Sprintf(`
		CREATE TABLE IF NOT EXISTS %s (
			role_id TEXT PRIMARY KEY,
			index_blob BLOB,
			metadata TEXT NOT NULL,
			updated_at DATETIME DEFAULT CURRENT_TIMESTAMP
		)
	`, c.tableName)

	if _, err := c.db.ExecContext(ctx, query); err != nil {
		return fmt.Errorf("initTables: %w", err)
	}
	return nil
}

// ReadIndex returns the stored index of a role.
func (c *Client) ReadIndex(ctx context.Context, roleID string) ([]byte, error) {
	return c.readColumn(ctx, "index_blob", roleID)
}

// ReadMetadata returns the stored metadata of a role.
func (c *Client) ReadMetadata(ctx context.Context, roleID string) ([]byte, error) {
	return c.readColumn(ctx, "metadata", roleID)
}

func (c *Client) readColumn(ctx context.Context, column, roleID string) ([]byte, error) {
	query := fmt.Sprintf("SELECT %s FROM %s WHERE role_id = ?", column, c.tableName)

	var value []byte
	err := c.db.QueryRowContext(ctx, query, roleID).Scan(&value)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, storage.ErrArtifactNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("Read: %w", err)
	}
	if value == nil {
		return nil, storage.ErrArtifactNotFound
	}
	return value, nil
}

// Write upserts both artifacts of a role in one statement.
func (c *Client) Write(ctx context.Context, roleID string, index, metadata []byte) error {
	var indexArg interface{}
	if index != nil {
		indexArg = index
	}

	_, err := c.db.ExecContext(ctx, upsertQuery(c.tableName),
		roleID, indexArg, string(metadata), time.Now().UTC())
	if err != nil {
		return fmt.Errorf("Write: %w", err)
	}
	return nil
}

// Close closes the database connection.
func (c *Client) Close() error {
	return c.db.Close()
}
