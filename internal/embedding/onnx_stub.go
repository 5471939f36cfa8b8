//go:build !cgo
// +build !cgo

package embedding

import (
	"context"
	"errors"
	"image"

	"github.com/hyperjump/kagami/internal/errortypes"
	"github.com/hyperjump/kagami/internal/models"
)

// ONNXExtractor stub type when built without CGO (see onnx.go for real implementation).
type ONNXExtractor struct{}

// NewONNXExtractor always fails without CGO (ONNX not available).
func NewONNXExtractor(opts ONNXOptions) (*ONNXExtractor, error) {
	return nil, errortypes.ModelLoad(opts.ModelPath,
		errors.New("ONNX extractor requires CGO; build with CGO_ENABLED=1 and onnxruntime"))
}

func (*ONNXExtractor) Extract(context.Context, image.Image) (models.Embedding, error) {
	return nil, errors.New("ONNX extractor not available")
}

func (*ONNXExtractor) Dimensions() int       { return 0 }
func (*ONNXExtractor) InputSize() (int, int) { return 0, 0 }
func (*ONNXExtractor) Close() error          { return nil }
