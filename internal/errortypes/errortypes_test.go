package errortypes

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestConstructorsWrapSentinels(t *testing.T) {
	tests := []struct {
		name     string
		err      error
		sentinel error
		code     Code
	}{
		{"model load", ModelLoad("/m.onnx", errors.New("boom")), ErrModelLoad, CodeModelLoad},
		{"model load nil cause", ModelLoad("/m.onnx", nil), ErrModelLoad, CodeModelLoad},
		{"degenerate", DegenerateEmbedding(0), ErrDegenerateEmbedding, CodeDegenerateEmbedding},
		{"dimension", DimensionMismatch(4, 3), ErrDimensionMismatch, CodeDimensionMismatch},
		{"invalid image", InvalidImage("size %dx%d", 1, 2), ErrInvalidImage, CodeInvalidImage},
		{"duplicate", DuplicateEntry("a"), ErrDuplicateEntry, CodeDuplicateEntry},
		{"not found", EntryNotFound("a"), ErrEntryNotFound, CodeEntryNotFound},
		{"feature file", InvalidFeatureFile("/f.npy", "shape %v", []int{2, 2}), ErrInvalidFeatureFile, CodeInvalidFeatureFile},
		{"image missing", ImageNotFound("a", "/img/a.jpg"), ErrImageNotFound, CodeImageNotFound},
		{"no query", NoQuery(), ErrNoQuery, CodeNoQuery},
		{"stem collision", StemCollision("cat", "/img/cat.png", "/img/sub/cat.png"), ErrStemCollision, CodeStemCollision},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			require.Error(t, tt.err)
			assert.ErrorIs(t, tt.err, tt.sentinel)
			assert.Equal(t, tt.code, CodeOf(tt.err))
		})
	}
}

func TestModelLoadKeepsCause(t *testing.T) {
	cause := errors.New("no such file")
	err := ModelLoad("/m.onnx", cause)
	assert.ErrorIs(t, err, cause)
	assert.True(t, Fatal(err))
	assert.False(t, Recoverable(err))
}

func TestRecoverable(t *testing.T) {
	assert.True(t, Recoverable(DegenerateEmbedding(0)))
	assert.True(t, Recoverable(fmt.Errorf("extract: %w", InvalidImage("bad"))))
	assert.False(t, Recoverable(DimensionMismatch(2, 3)))
	assert.False(t, Fatal(DimensionMismatch(2, 3)))
}

func TestCodeOfPlainError(t *testing.T) {
	assert.Equal(t, Code(""), CodeOf(nil))
	assert.Equal(t, Code(""), CodeOf(errors.New("plain")))
}
