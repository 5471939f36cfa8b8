// Package embedding turns decoded images into fixed-length, L2-normalized embeddings.
package embedding

import (
	"context"
	"image"

	"github.com/hyperjump/kagami/internal/errortypes"
	"github.com/hyperjump/kagami/internal/models"
)

// Extractor maps an image that already has the extractor's input size to an embedding.
// Implementations load their model once at construction and are deterministic per input.
type Extractor interface {
	Extract(ctx context.Context, img image.Image) (models.Embedding, error)
	Dimensions() int
	InputSize() (width, height int)
	Close() error
}

// Backend names an extractor implementation selectable from config.
type Backend string

const (
	// BackendONNX runs an ONNX model through onnxruntime (cgo builds only).
	BackendONNX Backend = "onnx"
	// BackendMock is the deterministic pooling extractor used in tests and dry runs.
	BackendMock Backend = "mock"
)

func checkSize(img image.Image, width, height int) error {
	if img == nil {
		return errortypes.InvalidImage("nil image")
	}
	b := img.Bounds()
	if b.Dx() != width || b.Dy() != height {
		return errortypes.InvalidImage("image is %dx%d, extractor expects %dx%d", b.Dx(), b.Dy(), width, height)
	}
	return nil
}
