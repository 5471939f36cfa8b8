// Package errortypes defines the retrieval error taxonomy. Every error built here wraps one of the
// sentinels below so callers can branch with errors.Is, and carries an oops code plus structured
// context for logging.
package errortypes

import (
	"errors"
	"fmt"

	"github.com/samber/oops"
)

// Code is the machine-readable identifier attached to taxonomy errors.
type Code string

const (
	CodeModelLoad           Code = "embedding.model.load_failure"
	CodeDegenerateEmbedding Code = "embedding.normalize.degenerate"
	CodeInvalidImage        Code = "embedding.image.invalid"
	CodeDimensionMismatch   Code = "gallery.dimension.mismatch"
	CodeDuplicateEntry      Code = "gallery.entry.duplicate"
	CodeEntryNotFound       Code = "gallery.entry.not_found"
	CodeInvalidFeatureFile  Code = "featurestore.file.invalid"
	CodeNoQuery             Code = "session.query.missing"
	CodeImageNotFound       Code = "session.image.not_found"
	CodeStemCollision       Code = "indexer.stem.collision"
)

var (
	// ErrModelLoad means the extractor could not be constructed. Fatal at startup.
	ErrModelLoad = errors.New("model load failed")
	// ErrDegenerateEmbedding means an activation vector had zero (or non-finite) norm.
	// The query image should be rejected.
	ErrDegenerateEmbedding = errors.New("degenerate embedding")
	// ErrDimensionMismatch means two embeddings that must agree in length do not.
	ErrDimensionMismatch = errors.New("embedding dimension mismatch")
	// ErrInvalidImage means an image could not be decoded or has the wrong size.
	ErrInvalidImage = errors.New("invalid image")
	// ErrDuplicateEntry means Add was called with an identifier already in the gallery.
	ErrDuplicateEntry = errors.New("duplicate gallery entry")
	// ErrEntryNotFound means Replace was called with an identifier not in the gallery.
	ErrEntryNotFound = errors.New("gallery entry not found")
	// ErrInvalidFeatureFile means a stored feature file is not a usable 1-D float array.
	ErrInvalidFeatureFile = errors.New("invalid feature file")
	// ErrNoQuery means ranking was requested before a query image was loaded.
	ErrNoQuery = errors.New("no query image to rank")
	// ErrImageNotFound means a ranked entry references an image file that does not exist.
	ErrImageNotFound = errors.New("image not found")
	// ErrStemCollision means two existing image files share a file stem and therefore a
	// gallery identifier and feature file.
	ErrStemCollision = errors.New("image stem already taken")
)

// ModelLoad wraps cause as an ErrModelLoad.
func ModelLoad(modelPath string, cause error) error {
	b := oops.Code(CodeModelLoad).With("model_path", modelPath)
	if cause == nil {
		return b.Wrapf(ErrModelLoad, "load %s", modelPath)
	}
	return b.Wrapf(joined(ErrModelLoad, cause), "load %s", modelPath)
}

// DegenerateEmbedding reports an activation vector whose norm cannot be divided by.
func DegenerateEmbedding(norm float64) error {
	return oops.Code(CodeDegenerateEmbedding).
		With("norm", norm).
		Wrapf(ErrDegenerateEmbedding, "activation norm is %v", norm)
}

// DimensionMismatch reports an embedding of length got where want was required.
func DimensionMismatch(want, got int) error {
	return oops.Code(CodeDimensionMismatch).
		With("want", want, "got", got).
		Wrapf(ErrDimensionMismatch, "got %d, want %d", got, want)
}

// InvalidImage builds an ErrInvalidImage with a formatted reason.
func InvalidImage(format string, args ...any) error {
	return oops.Code(CodeInvalidImage).Wrapf(ErrInvalidImage, format, args...)
}

// DuplicateEntry reports an Add for an identifier already present.
func DuplicateEntry(id string) error {
	return oops.Code(CodeDuplicateEntry).With("id", id).Wrapf(ErrDuplicateEntry, "%s", id)
}

// EntryNotFound reports a Replace for an identifier not present.
func EntryNotFound(id string) error {
	return oops.Code(CodeEntryNotFound).With("id", id).Wrapf(ErrEntryNotFound, "%s", id)
}

// InvalidFeatureFile reports an unusable .npy file.
func InvalidFeatureFile(path string, format string, args ...any) error {
	return oops.Code(CodeInvalidFeatureFile).
		With("path", path).
		Wrapf(ErrInvalidFeatureFile, "%s: %s", path, fmt.Sprintf(format, args...))
}

// ImageNotFound reports a missing image file for a ranked entry.
func ImageNotFound(id, path string) error {
	return oops.Code(CodeImageNotFound).
		With("id", id, "image_path", path).
		Wrapf(ErrImageNotFound, "%s (%s)", id, path)
}

// StemCollision reports an ingest of incoming whose stem is held by the existing image file.
func StemCollision(stem, existing, incoming string) error {
	return oops.Code(CodeStemCollision).
		With("stem", stem, "existing", existing, "incoming", incoming).
		Wrapf(ErrStemCollision, "%s: %s already indexed as %s", incoming, stem, existing)
}

// NoQuery reports a ranking request without a loaded query.
func NoQuery() error {
	return oops.Code(CodeNoQuery).Wrap(ErrNoQuery)
}

// CodeOf returns the taxonomy code attached to err, or "" if none.
func CodeOf(err error) Code {
	if err == nil {
		return ""
	}
	oopsErr, ok := oops.AsOops(err)
	if !ok {
		return ""
	}
	switch c := oopsErr.Code().(type) {
	case Code:
		return c
	case string:
		return Code(c)
	case nil:
		return ""
	default:
		return Code(fmt.Sprintf("%v", c))
	}
}

// Fatal reports whether err must abort startup.
func Fatal(err error) bool {
	return errors.Is(err, ErrModelLoad)
}

// Recoverable reports whether err is scoped to a single query image and the caller
// can simply ask for another one.
func Recoverable(err error) bool {
	return errors.Is(err, ErrDegenerateEmbedding) || errors.Is(err, ErrInvalidImage)
}

func joined(sentinel, cause error) error {
	return fmt.Errorf("%w: %w", sentinel, cause)
}
