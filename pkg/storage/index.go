package storage

import (
	"bytes"
	"encoding/binary"
	"errors"
	"fmt"
	"hash/crc32"
	"math"
	"sort"
)

const (
	indexMagic = "VMFL"

	// Version 2 adds the pairing tag; version 1 files are still read.
	indexVersion       = uint16(2)
	legacyIndexVersion = uint16(1)

	// indexHeaderSize is magic + version + dimension + count + pairing tag.
	indexHeaderSize       = 4 + 2 + 4 + 4 + 4
	legacyIndexHeaderSize = 4 + 2 + 4 + 4
)

var (
	// ErrDimensionMismatch is returned when a vector does not match the index dimension.
	ErrDimensionMismatch = errors.New("vector dimension mismatch")

	// ErrCorruptIndex is returned when an encoded index cannot be decoded.
	ErrCorruptIndex = errors.New("corrupt index artifact")
)

// Neighbor is one search hit: the slot of the stored vector and its squared L2
// distance to the query.
type Neighbor struct {
	Slot     int
	Distance float32
}

// FlatL2 is an exact nearest-neighbor index over fixed-dimension float32 vectors.
//
// Vectors are addressed by slot, the order in which they were added. Search compares
// the query against every stored vector. FlatL2 is not safe for concurrent mutation.
type FlatL2 struct {
	dim  int
	data []float32
}

// NewFlatL2 creates an empty index for vectors of the given dimension.
func NewFlatL2(dim int) *FlatL2 {
	return &FlatL2{dim: dim}
}

// Dimension returns the vector dimension.
func (f *FlatL2) Dimension() int {
	return f.dim
}

// Len returns the number of stored vectors.
func (f *FlatL2) Len() int {
	if f.dim <= 0 {
		return 0
	}
	return len(f.data) / f.dim
}

// Add appends a vector and returns its slot.
func (f *FlatL2) Add(vec []float32) (int, error) {
	if len(vec) != f.dim || f.dim <= 0 {
		return -1, fmt.Errorf("%w: got %d, want %d", ErrDimensionMismatch, len(vec), f.dim)
	}
	slot := f.Len()
	f.data = append(f.data, vec...)
	return slot, nil
}

// Vector returns a copy of the vector stored at slot.
func (f *FlatL2) Vector(slot int) []float32 {
	if slot < 0 || slot >= f.Len() {
		return nil
	}
	out := make([]float32, f.dim)
	copy(out, f.data[slot*f.dim:(slot+1)*f.dim])
	return out
}

// Truncate drops every vector at slot n and above.
func (f *FlatL2) Truncate(n int) {
	if n < 0 {
		n = 0
	}
	if n < f.Len() {
		f.data = f.data[:n*f.dim]
	}
}

// Reset removes all vectors.
func (f *FlatL2) Reset() {
	f.data = nil
}

// Search returns up to k nearest vectors ordered by ascending distance.
//
// k is clamped to Len. Ties keep slot order.
func (f *FlatL2) Search(query []float32, k int) ([]Neighbor, error) {
	if len(query) != f.dim {
		return nil, fmt.Errorf("%w: got %d, want %d", ErrDimensionMismatch, len(query), f.dim)
	}
	n := f.Len()
	if k > n {
		k = n
	}
	if k <= 0 {
		return nil, nil
	}

	hits := make([]Neighbor, n)
	for slot := 0; slot < n; slot++ {
		hits[slot] = Neighbor{Slot: slot, Distance: squaredL2(query, f.data[slot*f.dim:(slot+1)*f.dim])}
	}
	sort.SliceStable(hits, func(i, j int) bool {
		return hits[i].Distance < hits[j].Distance
	})
	return hits[:k], nil
}

func squaredL2(a, b []float32) float32 {
	var sum float32
	for i := range a {
		d := a[i] - b[i]
		sum += d * d
	}
	return sum
}

// PairTag returns the tag binding an index to the metadata artifact written with it.
// It is never zero; zero marks an unpaired index.
func PairTag(metadata []byte) uint32 {
	if sum := crc32.ChecksumIEEE(metadata); sum != 0 {
		return sum
	}
	return 1
}

// MarshalBinary encodes the index without a pairing tag.
func (f *FlatL2) MarshalBinary() ([]byte, error) {
	return f.MarshalPaired(0)
}

// MarshalPaired encodes the index as magic, version, dimension, count, pairing tag
// and the little-endian float32 payload.
func (f *FlatL2) MarshalPaired(pair uint32) ([]byte, error) {
	count := f.Len()
	buf := bytes.NewBuffer(make([]byte, 0, indexHeaderSize+4*len(f.data)))
	buf.WriteString(indexMagic)

	header := make([]byte, indexHeaderSize-len(indexMagic))
	binary.LittleEndian.PutUint16(header[0:2], indexVersion)
	binary.LittleEndian.PutUint32(header[2:6], uint32(f.dim))
	binary.LittleEndian.PutUint32(header[6:10], uint32(count))
	binary.LittleEndian.PutUint32(header[10:14], pair)
	buf.Write(header)

	word := make([]byte, 4)
	for _, v := range f.data[:count*f.dim] {
		binary.LittleEndian.PutUint32(word, math.Float32bits(v))
		buf.Write(word)
	}
	return buf.Bytes(), nil
}

// UnmarshalFlatL2 decodes an index produced by MarshalBinary or MarshalPaired.
//
// A positive dim must equal the encoded dimension.
func UnmarshalFlatL2(data []byte, dim int) (*FlatL2, error) {
	f, _, err := DecodeFlatL2(data, dim)
	return f, err
}

// DecodeFlatL2 decodes an index and returns its pairing tag, zero when the index
// carries none.
func DecodeFlatL2(data []byte, dim int) (*FlatL2, uint32, error) {
	if len(data) < legacyIndexHeaderSize || string(data[:4]) != indexMagic {
		return nil, 0, fmt.Errorf("%w: bad header", ErrCorruptIndex)
	}

	var pair uint32
	headerSize := legacyIndexHeaderSize
	switch v := binary.LittleEndian.Uint16(data[4:6]); v {
	case legacyIndexVersion:
	case indexVersion:
		if len(data) < indexHeaderSize {
			return nil, 0, fmt.Errorf("%w: bad header", ErrCorruptIndex)
		}
		pair = binary.LittleEndian.Uint32(data[14:18])
		headerSize = indexHeaderSize
	default:
		return nil, 0, fmt.Errorf("%w: unsupported version %d", ErrCorruptIndex, v)
	}

	encodedDim := int(binary.LittleEndian.Uint32(data[6:10]))
	count := int(binary.LittleEndian.Uint32(data[10:14]))
	if dim > 0 && encodedDim != dim {
		return nil, 0, fmt.Errorf("%w: got %d, want %d", ErrDimensionMismatch, encodedDim, dim)
	}

	payload := data[headerSize:]
	if encodedDim <= 0 && count > 0 || len(payload) != 4*count*encodedDim {
		return nil, 0, fmt.Errorf("%w: payload holds %d bytes for %d vectors", ErrCorruptIndex, len(payload), count)
	}

	values := make([]float32, count*encodedDim)
	for i := range values {
		values[i] = math.Float32frombits(binary.LittleEndian.Uint32(payload[4*i:]))
	}
	return &FlatL2{dim: encodedDim, data: values}, pair, nil
}
