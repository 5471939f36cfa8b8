package embedding

import (
	"context"
	"image"

	"github.com/hyperjump/kagami/internal/models"
)

// MockExtractor is a deterministic, model-free extractor. It scales pixels to [0, 1] and
// sum-pools the flattened NCHW tensor into Dimensions() buckets before normalizing.
// A fully black image therefore yields ErrDegenerateEmbedding.
type MockExtractor struct {
	dimensions    int
	width, height int
	pre           Preprocessing
}

// NewMockExtractor returns a mock extractor with the given output size and input size.
// Non-positive values fall back to DefaultDimensions and DefaultInputSize.
func NewMockExtractor(dimensions, width, height int) *MockExtractor {
	if dimensions <= 0 {
		dimensions = DefaultDimensions
	}
	if width <= 0 {
		width = DefaultInputSize
	}
	if height <= 0 {
		height = DefaultInputSize
	}
	return &MockExtractor{
		dimensions: dimensions,
		width:      width,
		height:     height,
		pre:        UnitScalePreprocessing(),
	}
}

func (m *MockExtractor) Extract(ctx context.Context, img image.Image) (models.Embedding, error) {
	if err := checkSize(img, m.width, m.height); err != nil {
		return nil, err
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	tensor := make([]float32, 3*m.width*m.height)
	if err := m.pre.Fill(tensor, img); err != nil {
		return nil, err
	}
	raw := make([]float32, m.dimensions)
	n := len(tensor)
	for i, v := range tensor {
		raw[i*m.dimensions/n] += v
	}
	return NormalizeL2(raw)
}

func (m *MockExtractor) Dimensions() int { return m.dimensions }

func (m *MockExtractor) InputSize() (int, int) { return m.width, m.height }

func (m *MockExtractor) Close() error { return nil }
