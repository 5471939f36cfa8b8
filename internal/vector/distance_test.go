package vector

import (
	"errors"
	"math"
	"math/rand"
	"testing"

	"github.com/hyperjump/kagami/internal/errortypes"
)

func TestEuclideanDistance(t *testing.T) {
	tests := []struct {
		name string
		a, b []float32
		want float64
	}{
		{"unit x vs origin", []float32{1, 0}, []float32{0, 0}, 1},
		{"3-4-5", []float32{0, 0}, []float32{3, 4}, 5},
		{"same", []float32{0.5, -2, 7}, []float32{0.5, -2, 7}, 0},
		{"empty", nil, nil, 0},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := EuclideanDistance(tt.a, tt.b)
			if err != nil {
				t.Fatalf("EuclideanDistance(%v, %v) error: %v", tt.a, tt.b, err)
			}
			if math.Abs(got-tt.want) > 1e-9 {
				t.Errorf("EuclideanDistance(%v, %v) = %v, want %v", tt.a, tt.b, got, tt.want)
			}
		})
	}
}

func TestEuclideanDistance_LengthMismatch(t *testing.T) {
	tests := []struct {
		name string
		a, b []float32
	}{
		{"longer first", []float32{1, 2, 3}, []float32{1, 2}},
		{"longer second", []float32{1}, []float32{1, 0}},
		{"one empty", nil, []float32{0}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := EuclideanDistance(tt.a, tt.b)
			if !errors.Is(err, errortypes.ErrDimensionMismatch) {
				t.Errorf("EuclideanDistance(%v, %v) error = %v, want dimension mismatch", tt.a, tt.b, err)
			}
		})
	}
}

func TestEuclideanDistance_IdentityAndSymmetry(t *testing.T) {
	r := rand.New(rand.NewSource(3))
	for i := 0; i < 100; i++ {
		a := make([]float32, 16)
		b := make([]float32, 16)
		for j := range a {
			a[j] = r.Float32()*2 - 1
			b[j] = r.Float32()*2 - 1
		}
		if d, _ := EuclideanDistance(a, a); d > 1e-6 {
			t.Fatalf("distance(a,a) = %v", d)
		}
		ab, _ := EuclideanDistance(a, b)
		ba, _ := EuclideanDistance(b, a)
		if ab != ba {
			t.Fatalf("not symmetric: %v vs %v", ab, ba)
		}
	}
}
