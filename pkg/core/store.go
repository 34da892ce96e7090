package core

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"go.uber.org/zap"

	"github.com/oceanbase/vecmem-go/pkg/storage"
)

// entityStore holds the memories of one role: an ordered record log and, when the
// index is enabled, a flat L2 index over exactly the embedded records.
//
// slots[i] is the record position of index slot i. The number of slots always equals
// index.Len() and the number of records with EmbeddingPresent set.
type entityStore struct {
	// mu serializes Save, Query and ClearAll on this role.
	mu sync.Mutex

	roleID  string
	records []*MemoryRecord
	index   *storage.FlatL2
	slots   []int
}

func newEntityStore(roleID string, dim int, indexEnabled bool) *entityStore {
	s := &entityStore{roleID: roleID}
	if indexEnabled {
		s.index = storage.NewFlatL2(dim)
	}
	return s
}

// append adds a record. A nil vector, or a disabled index, keeps it metadata-only.
func (s *entityStore) append(record *MemoryRecord, vec []float32) error {
	record.EmbeddingPresent = false
	if vec != nil && s.index != nil {
		if _, err := s.index.Add(vec); err != nil {
			s.records = append(s.records, record)
			return err
		}
		s.slots = append(s.slots, len(s.records))
		record.EmbeddingPresent = true
	}
	s.records = append(s.records, record)
	return nil
}

// replace swaps in a new record log with matching vectors. vectors[i] is nil for
// records that stay metadata-only.
func (s *entityStore) replace(records []*MemoryRecord, vectors [][]float32) {
	s.records = nil
	s.slots = nil
	if s.index != nil {
		s.index.Reset()
	}
	for i, r := range records {
		// Vectors were fitted to the index dimension by the caller.
		_ = s.append(r, vectors[i])
	}
}

// reset empties the store.
func (s *entityStore) reset() {
	s.replace(nil, nil)
}

func (s *entityStore) embedded() int {
	return len(s.slots)
}

func (s *entityStore) stats() RoleStats {
	indexed := 0
	if s.index != nil {
		indexed = s.index.Len()
	}
	return RoleStats{Records: len(s.records), Embedded: s.embedded(), Indexed: indexed}
}

// hit is one search result resolved to its record.
type hit struct {
	record   *MemoryRecord
	distance float32
}

// search returns up to k nearest records by squared L2 distance.
func (s *entityStore) search(query []float32, k int) ([]hit, error) {
	if s.index == nil || s.index.Len() == 0 {
		return nil, nil
	}
	neighbors, err := s.index.Search(query, k)
	if err != nil {
		return nil, err
	}

	hits := make([]hit, 0, len(neighbors))
	for _, n := range neighbors {
		if n.Slot < 0 || n.Slot >= len(s.slots) {
			continue
		}
		hits = append(hits, hit{record: s.records[s.slots[n.Slot]], distance: n.Distance})
	}
	return hits, nil
}

// encode serializes both artifacts. The index is nil when the index is disabled and
// otherwise carries the pairing tag of the metadata it was written with.
func (s *entityStore) encode() (index, metadata []byte, err error) {
	metadata, err = encodeMetadata(s.records)
	if err != nil {
		return nil, nil, err
	}
	if s.index != nil {
		index, err = s.index.MarshalPaired(storage.PairTag(metadata))
		if err != nil {
			return nil, nil, err
		}
	}
	return index, metadata, nil
}

// persist writes both artifacts. In-memory state is left untouched on failure.
func (s *entityStore) persist(ctx context.Context, artifacts storage.ArtifactStore, logger *zap.Logger) error {
	index, metadata, err := s.encode()
	if err == nil {
		err = artifacts.Write(ctx, s.roleID, index, metadata)
	}
	if err != nil {
		logger.Error("failed to persist memory store",
			zap.String("role_id", s.roleID),
			zap.Int("records", len(s.records)),
			zap.Error(err))
		return fmt.Errorf("%w: persist: %w", ErrStorageOperation, err)
	}
	logger.Debug("persisted memory store",
		zap.String("role_id", s.roleID),
		zap.Int("records", len(s.records)),
		zap.Int("embedded", s.embedded()))
	return nil
}

// loadEntityStore restores a role from its artifacts.
//
// A failed read returns an error: the artifacts may be intact and must not be
// replaced by an empty store. A missing or undecodable artifact degrades to empty on
// its own. The two are then reconciled so that slot i maps to the i-th embedded
// record: an index paired with other metadata is dropped, surplus vectors are
// truncated and embedded records without a vector become metadata-only.
func loadEntityStore(ctx context.Context, roleID string, dim int, indexEnabled bool, artifacts storage.ArtifactStore, logger *zap.Logger) (*entityStore, error) {
	s := newEntityStore(roleID, dim, indexEnabled)
	log := logger.With(zap.String("role_id", roleID))

	var records []*MemoryRecord
	metadata, err := artifacts.ReadMetadata(ctx, roleID)
	switch {
	case errors.Is(err, storage.ErrArtifactNotFound):
		metadata = nil
	case err != nil:
		log.Error("failed to read memory metadata", zap.Error(err))
		return nil, fmt.Errorf("%w: read metadata: %w", ErrStorageOperation, err)
	default:
		records, err = decodeMetadata(metadata)
		if err != nil {
			log.Warn("failed to decode memory metadata, starting empty", zap.Error(err))
			records = nil
		}
	}

	var vectors *storage.FlatL2
	if indexEnabled {
		data, err := artifacts.ReadIndex(ctx, roleID)
		switch {
		case errors.Is(err, storage.ErrArtifactNotFound):
		case err != nil:
			log.Error("failed to read memory index", zap.Error(err))
			return nil, fmt.Errorf("%w: read index: %w", ErrStorageOperation, err)
		default:
			var pair uint32
			vectors, pair, err = storage.DecodeFlatL2(data, dim)
			switch {
			case err != nil:
				log.Warn("failed to decode memory index, starting empty", zap.Error(err))
				vectors = nil
			case pair != 0 && pair != storage.PairTag(metadata):
				log.Warn("memory index was written with other metadata, dropping it",
					zap.Int("vectors", vectors.Len()))
				vectors = nil
			}
		}
	}
	if vectors == nil && indexEnabled {
		vectors = storage.NewFlatL2(dim)
	}

	degraded := 0
	for _, r := range records {
		if !r.EmbeddingPresent {
			s.records = append(s.records, r)
			continue
		}
		if vectors == nil || len(s.slots) >= vectors.Len() {
			r.EmbeddingPresent = false
			degraded++
			s.records = append(s.records, r)
			continue
		}
		s.slots = append(s.slots, len(s.records))
		s.records = append(s.records, r)
	}
	if vectors != nil {
		if surplus := vectors.Len() - len(s.slots); surplus > 0 {
			log.Warn("dropping index vectors without metadata", zap.Int("vectors", surplus))
			vectors.Truncate(len(s.slots))
		}
		s.index = vectors
	}
	if degraded > 0 && indexEnabled {
		log.Warn("memories without index vectors kept metadata-only", zap.Int("records", degraded))
	}

	log.Debug("loaded memory store",
		zap.Int("records", len(s.records)),
		zap.Int("embedded", len(s.slots)))
	return s, nil
}
