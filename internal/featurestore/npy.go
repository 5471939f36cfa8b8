package featurestore

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/sbinet/npyio"

	"github.com/hyperjump/kagami/internal/errortypes"
	"github.com/hyperjump/kagami/internal/models"
)

// ReadEmbedding reads one .npy feature file. Little-endian float32 and float64 arrays of shape
// (D) or (1, D) are accepted; float64 values are narrowed to float32.
func ReadEmbedding(path string) (models.Embedding, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open feature file: %w", err)
	}
	defer f.Close()

	r, err := npyio.NewReader(f)
	if err != nil {
		return nil, errortypes.InvalidFeatureFile(path, "read header: %v", err)
	}
	if r.Header.Descr.Fortran {
		return nil, errortypes.InvalidFeatureFile(path, "fortran-ordered arrays are not supported")
	}
	shape := r.Header.Descr.Shape
	switch {
	case len(shape) == 1:
	case len(shape) == 2 && shape[0] == 1:
	default:
		return nil, errortypes.InvalidFeatureFile(path, "shape %v is not (D) or (1, D)", shape)
	}

	switch r.Header.Descr.Type {
	case "<f4":
		var data []float32
		if err := r.Read(&data); err != nil {
			return nil, errortypes.InvalidFeatureFile(path, "read data: %v", err)
		}
		return models.Embedding(data), nil
	case "<f8":
		var data []float64
		if err := r.Read(&data); err != nil {
			return nil, errortypes.InvalidFeatureFile(path, "read data: %v", err)
		}
		out := make(models.Embedding, len(data))
		for i, v := range data {
			out[i] = float32(v)
		}
		return out, nil
	default:
		return nil, errortypes.InvalidFeatureFile(path, "dtype %q is not <f4 or <f8", r.Header.Descr.Type)
	}
}

// WriteEmbedding writes emb as a 1-D little-endian float32 array. The file is written to a
// temporary name in the same directory and renamed into place.
func WriteEmbedding(path string, emb models.Embedding) error {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("create feature directory: %w", err)
	}
	tmp, err := os.CreateTemp(dir, ".tmp-*.npy")
	if err != nil {
		return fmt.Errorf("create temp feature file: %w", err)
	}
	tmpName := tmp.Name()
	defer os.Remove(tmpName)

	if err := npyio.Write(tmp, []float32(emb)); err != nil {
		tmp.Close()
		return fmt.Errorf("write feature file: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("close feature file: %w", err)
	}
	if err := os.Rename(tmpName, path); err != nil {
		return fmt.Errorf("rename feature file: %w", err)
	}
	return nil
}
