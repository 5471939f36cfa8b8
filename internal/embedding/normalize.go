package embedding

import (
	"math"

	"github.com/hyperjump/kagami/internal/errortypes"
	"github.com/hyperjump/kagami/internal/models"
)

// NormalizeL2 returns raw divided by its Euclidean norm. A zero, NaN or infinite norm is
// reported as ErrDegenerateEmbedding instead of producing non-finite values.
func NormalizeL2(raw []float32) (models.Embedding, error) {
	var sum float64
	for _, v := range raw {
		f := float64(v)
		sum += f * f
	}
	norm := math.Sqrt(sum)
	if norm == 0 || math.IsNaN(norm) || math.IsInf(norm, 0) {
		return nil, errortypes.DegenerateEmbedding(norm)
	}
	out := make(models.Embedding, len(raw))
	for i, v := range raw {
		out[i] = float32(float64(v) / norm)
	}
	return out, nil
}
