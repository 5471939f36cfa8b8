package models

import "time"

// ImageRecord is the catalog's note that an image file was ingested into the gallery.
type ImageRecord struct {
	ID          string    `json:"id"`
	Stem        string    `json:"stem"`
	ImagePath   string    `json:"image_path"`
	FeaturePath string    `json:"feature_path"`
	Size        int64     `json:"size"`
	ModTime     time.Time `json:"mtime"`
	Dimensions  int       `json:"dimensions"`
	IndexedAt   time.Time `json:"indexed_at"`
}

// Unchanged reports whether the file described by size and modTime is the one recorded.
func (r *ImageRecord) Unchanged(size int64, modTime time.Time) bool {
	return r != nil && r.Size == size && r.ModTime.Equal(modTime)
}
