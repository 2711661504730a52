package domain

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
)

// TestErrors_Existence tests that all error variables exist and are not nil
func TestErrors_Existence(t *testing.T) {
	tests := []struct {
		name string
		err  error
	}{
		{"ErrNotFound", ErrNotFound},
		{"ErrInvalidInput", ErrInvalidInput},
		{"ErrUnsupportedType", ErrUnsupportedType},
		{"ErrDimensionMismatch", ErrDimensionMismatch},
		{"ErrInvalidRequest", ErrInvalidRequest},
		{"ErrEmbeddingUnavailable", ErrEmbeddingUnavailable},
		{"ErrGenerationUnavailable", ErrGenerationUnavailable},
		{"ErrLLMUnavailable", ErrLLMUnavailable},
		{"ErrIndexUnavailable", ErrIndexUnavailable},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.NotNil(t, tt.err)
			assert.NotEmpty(t, tt.err.Error())
		})
	}
}

func TestErrors_AreDistinct(t *testing.T) {
	assert.False(t, errors.Is(ErrEmbeddingUnavailable, ErrGenerationUnavailable))
	assert.False(t, errors.Is(ErrGenerationUnavailable, ErrEmbeddingUnavailable))
	assert.False(t, errors.Is(ErrInvalidRequest, ErrInvalidInput))
}

func TestErrors_Wrapped(t *testing.T) {
	wrapped := fmt.Errorf("%w: openai: status 500", ErrGenerationUnavailable)

	assert.True(t, errors.Is(wrapped, ErrGenerationUnavailable))
	assert.False(t, errors.Is(wrapped, ErrEmbeddingUnavailable))
	assert.Contains(t, wrapped.Error(), "generation service unavailable")
}
