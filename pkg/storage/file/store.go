// Package file provides the directory-backed artifact store.
//
// Each role owns two files under the base directory:
// vector_memory_<role>.index and vector_memory_<role>.json, where <role> is the
// path-escaped role id. Writes go to temporary files that are then renamed into place
// together.
package file

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"os"
	"path/filepath"

	"github.com/oceanbase/vecmem-go/pkg/storage"
)

// DefaultDir is the base directory used when none is configured.
const DefaultDir = "data/vector_memory"

const filePrefix = "vector_memory_"

// Store implements storage.ArtifactStore on a local directory.
type Store struct {
	dir string
}

// Config contains configuration for creating a file artifact store.
type Config struct {
	// Dir is the base directory (default: data/vector_memory).
	Dir string
}

// NewStore creates the base directory if needed and returns the store.
func NewStore(cfg *Config) (*Store, error) {
	dir := cfg.Dir
	if dir == "" {
		dir = DefaultDir
	}
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, fmt.Errorf("NewFileStore: failed to create directory: %w", err)
	}
	return &Store{dir: dir}, nil
}

// Dir returns the base directory.
func (s *Store) Dir() string {
	return s.dir
}

// IndexPath returns the index file path of a role.
func (s *Store) IndexPath(roleID string) string {
	return filepath.Join(s.dir, filePrefix+url.PathEscape(roleID)+".index")
}

// MetadataPath returns the metadata file path of a role.
func (s *Store) MetadataPath(roleID string) string {
	return filepath.Join(s.dir, filePrefix+url.PathEscape(roleID)+".json")
}

// ReadIndex reads the index file of a role.
func (s *Store) ReadIndex(ctx context.Context, roleID string) ([]byte, error) {
	return readFile(ctx, s.IndexPath(roleID))
}

// ReadMetadata reads the metadata file of a role.
func (s *Store) ReadMetadata(ctx context.Context, roleID string) ([]byte, error) {
	return readFile(ctx, s.MetadataPath(roleID))
}

func readFile(ctx context.Context, path string) ([]byte, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	data, err := os.ReadFile(path)
	if errors.Is(err, os.ErrNotExist) {
		return nil, storage.ErrArtifactNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("Read: %w", err)
	}
	return data, nil
}

// Write stages both artifacts as temporary files and renames them into place.
//
// The two renames are not atomic together: a failure between them leaves the new
// index next to the old metadata. Callers detect that with the index pairing tag
// (see storage.PairTag). A nil index removes the index file.
func (s *Store) Write(ctx context.Context, roleID string, index, metadata []byte) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	indexPath := s.IndexPath(roleID)
	metaPath := s.MetadataPath(roleID)

	var indexTmp string
	if index != nil {
		tmp, err := writeTemp(s.dir, index)
		if err != nil {
			return fmt.Errorf("Write: index: %w", err)
		}
		indexTmp = tmp
	}

	metaTmp, err := writeTemp(s.dir, metadata)
	if err != nil {
		if indexTmp != "" {
			_ = os.Remove(indexTmp)
		}
		return fmt.Errorf("Write: metadata: %w", err)
	}

	if indexTmp != "" {
		if err := os.Rename(indexTmp, indexPath); err != nil {
			_ = os.Remove(indexTmp)
			_ = os.Remove(metaTmp)
			return fmt.Errorf("Write: index: %w", err)
		}
	} else if err := os.Remove(indexPath); err != nil && !errors.Is(err, os.ErrNotExist) {
		_ = os.Remove(metaTmp)
		return fmt.Errorf("Write: index: %w", err)
	}

	if err := os.Rename(metaTmp, metaPath); err != nil {
		_ = os.Remove(metaTmp)
		return fmt.Errorf("Write: metadata: %w", err)
	}
	return nil
}

func writeTemp(dir string, data []byte) (string, error) {
	f, err := os.CreateTemp(dir, ".vecmem-*.tmp")
	if err != nil {
		return "", err
	}
	name := f.Name()
	if _, err := f.Write(data); err != nil {
		_ = f.Close()
		_ = os.Remove(name)
		return "", err
	}
	if err := f.Sync(); err != nil {
		_ = f.Close()
		_ = os.Remove(name)
		return "", err
	}
	if err := f.Close(); err != nil {
		_ = os.Remove(name)
		return "", err
	}
	return name, nil
}

// Close is a no-op.
func (s *Store) Close() error {
	return nil
}
