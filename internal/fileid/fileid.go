// Package fileid derives stable catalog IDs from image file paths.
package fileid

import (
	"crypto/sha256"
	"encoding/hex"
	"path/filepath"
)

const prefix = "img:"

// ImageID returns a stable catalog ID for the image at absolutePath.
// Equivalent spellings of one path (trailing slash, "." segments) share an ID.
func ImageID(absolutePath string) string {
	hash := sha256.Sum256([]byte(filepath.Clean(absolutePath)))
	return prefix + hex.EncodeToString(hash[:16])
}

// Resolve returns the absolute, cleaned form of path and its ImageID.
func Resolve(path string) (string, string, error) {
	abs, err := filepath.Abs(path)
	if err != nil {
		return "", "", err
	}
	return abs, ImageID(abs), nil
}
