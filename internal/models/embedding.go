// Package models defines core data structures for embeddings, gallery entries, and ranked matches.
package models

// Embedding is a fixed-length feature vector summarizing an image. Embeddings are treated as
// immutable once produced; containers copy them on insert.
type Embedding []float32

// Dimensions returns the vector length.
func (e Embedding) Dimensions() int {
	return len(e)
}

// Clone returns a copy that does not share storage with e.
func (e Embedding) Clone() Embedding {
	if e == nil {
		return nil
	}
	out := make(Embedding, len(e))
	copy(out, e)
	return out
}

// GalleryEntry pairs an image identifier with its embedding.
// ID is the filename stem shared by the feature file and the image file.
// ImagePath is where the image is expected to live; it may not exist.
type GalleryEntry struct {
	ID        string    `json:"id"`
	ImagePath string    `json:"image_path,omitempty"`
	Embedding Embedding `json:"-"`
}
