// Package storage provides the nearest-neighbor index and the persistence backends
// for per-role memory artifacts.
//
// Each role owns two artifacts: a binary index (see FlatL2) and a JSON metadata log.
// ArtifactStore implementations (file, SQLite, PostgreSQL, OceanBase) always write the
// two together so that a reader never observes one without the other.
package storage

import (
	"context"
	"errors"
	"fmt"
	"regexp"
)

// ErrArtifactNotFound is returned by ArtifactStore reads when no artifact exists for
// the role.
var ErrArtifactNotFound = errors.New("artifact not found")

// ErrInvalidIdentifier is returned when a configured table name is not a plain SQL
// identifier.
var ErrInvalidIdentifier = errors.New("invalid identifier")

// MetricType defines the distance metric for vector similarity.
type MetricType string

const (
	// MetricL2 uses squared Euclidean distance, as reported by FlatL2.
	MetricL2 MetricType = "l2"
)

// DefaultTableName is the table used by SQL backends when none is configured.
const DefaultTableName = "vector_memory"

// ArtifactStore defines the interface for artifact persistence backends.
//
// All implementations (file, SQLite, PostgreSQL, OceanBase) must implement this
// interface.
type ArtifactStore interface {
	// ReadIndex returns the encoded index of a role, or ErrArtifactNotFound.
	ReadIndex(ctx context.Context, roleID string) ([]byte, error)

	// ReadMetadata returns the encoded metadata log of a role, or ErrArtifactNotFound.
	ReadMetadata(ctx context.Context, roleID string) ([]byte, error)

	// Write stores both artifacts of a role as a unit.
	//
	// A nil index is stored as an absent index artifact; the metadata artifact is
	// always written.
	Write(ctx context.Context, roleID string, index, metadata []byte) error

	// Close closes the store and releases resources.
	Close() error
}

var identifierPattern = regexp.MustCompile(`^[A-Za-z_][A-Za-z0-9_]{0,63}$`)

// ValidateIdentifier rejects table names that cannot be interpolated into SQL safely.
func ValidateIdentifier(name string) error {
	if !identifierPattern.MatchString(name) {
		return fmt.Errorf("%w: %q", ErrInvalidIdentifier, name)
	}
	return nil
}
