package oceanbase

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/oceanbase/vecmem-go/pkg/storage"
)

// Client is an OceanBase artifact store speaking the MySQL protocol.
type Client struct {
	db        *sql.DB
	tableName string
}

// Config contains OceanBase configuration.
type Config struct {
	Host      string
	Port      int
	User      string
	Password  string
	DBName    string
	TableName string
}

// NewClient creates a new OceanBase client.
func NewClient(cfg *Config) (*Client, error) {
	tableName := cfg.TableName
	if tableName == "" {
		tableName = storage.DefaultTableName
	}
	if err := storage.ValidateIdentifier(tableName); err != nil {
		return nil, fmt.Errorf("NewOceanBaseClient: %w", err)
	}

	db, err := sql.Open("mysql", buildDSN(cfg))
	if err != nil {
		return nil, fmt.Errorf("NewOceanBaseClient: %w", err)
	}

	// Test connection
	if err := db.Ping(); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("NewOceanBaseClient: %w", err)
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

// initTables initializes the database table.
// Metadata is kept as LONGTEXT so the stored JSON is returned byte for byte.
func (c *Client) initTables(ctx context.Context) error {
	query := fmt.Sprintf(`
		CREATE TABLE IF NOT EXISTS %s (
			role_id VARCHAR(255) PRIMARY KEY,
			index_blob LONGBLOB,
			metadata LONGTEXT NOT NULL,
			updated_at DATETIME(6)
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

// Write upserts both artifacts of a role.
func (c *Client) Write(ctx context.Context, roleID string, index, metadata []byte) error {
	query := fmt.Sprintf(`
		INSERT INTO %s (role_id, index_blob, metadata, updated_at)
		VALUES (?, ?, ?, ?)
		ON DUPLICATE KEY UPDATE
			index_blob = VALUES(index_blob),
			metadata = VALUES(metadata),
			updated_at = VALUES(updated_at)
	`, c.tableName)

	var indexArg interface{}
	if index != nil {
		indexArg = index
	}

	if _, err := c.db.ExecContext(ctx, query, roleID, indexArg, string(metadata), time.Now().UTC()); err != nil {
		return fmt.Errorf("Write: %w", err)
	}
	return nil
}

// Close closes the connection.
func (c *Client) Close() error {
	return c.db.Close()
}
