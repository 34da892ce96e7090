package core_test

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	vecmem "github.com/oceanbase/vecmem-go/pkg/core"
)

func TestErrors(t *testing.T) {
	tests := []struct {
		name     string
		err      error
		expected string
	}{
		{name: "ErrInvalidConfig", err: vecmem.ErrInvalidConfig, expected: "invalid configuration"},
		{name: "ErrEmbeddingFailed", err: vecmem.ErrEmbeddingFailed, expected: "embedding generation failed"},
		{name: "ErrInvalidInput", err: vecmem.ErrInvalidInput, expected: "invalid input"},
		{name: "ErrStorageOperation", err: vecmem.ErrStorageOperation, expected: "storage operation failed"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, tt.err.Error())
		})
	}
}

func TestMemoryError(t *testing.T) {
	originalErr := errors.New("original error")
	memErr := vecmem.NewMemoryError("Save", originalErr)

	require.Error(t, memErr)
	assert.Equal(t, "vecmem: Save: original error", memErr.Error())

	var target *vecmem.MemoryError
	require.True(t, errors.As(memErr, &target))
	assert.Equal(t, "Save", target.Op)
	assert.Equal(t, originalErr, target.Err)
	assert.ErrorIs(t, memErr, originalErr)
}

func TestNewMemoryError_Nil(t *testing.T) {
	assert.NoError(t, vecmem.NewMemoryError("Save", nil))
}

func TestMemoryError_StorageCause(t *testing.T) {
	cause := errors.New("connection refused")
	err := vecmem.NewMemoryError("ClearAll", fmt.Errorf("%w: read metadata: %w", vecmem.ErrStorageOperation, cause))

	assert.EqualError(t, err, "vecmem: ClearAll: storage operation failed: read metadata: connection refused")
	assert.ErrorIs(t, err, vecmem.ErrStorageOperation)
	assert.ErrorIs(t, err, cause)
}
