// Package indexer ingests image files into the gallery: embed, persist the feature file,
// add to the in-memory gallery and record the file in the catalog.
package indexer

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"

	"go.uber.org/zap"

	"github.com/hyperjump/kagami/internal/catalog"
	"github.com/hyperjump/kagami/internal/errortypes"
	"github.com/hyperjump/kagami/internal/featurestore"
	"github.com/hyperjump/kagami/internal/fileid"
	"github.com/hyperjump/kagami/internal/models"
	"github.com/hyperjump/kagami/internal/retrieval"
	"github.com/hyperjump/kagami/internal/vector"
)

// ErrExtensionNotAllowed is returned for files that are not configured image types.
var ErrExtensionNotAllowed = errors.New("extension not in allowed list")

// Indexer ingests image files into a gallery.
type Indexer struct {
	service *retrieval.Service
	gallery *vector.Gallery
	store   *featurestore.Store
	catalog catalog.Catalog
	logger  *zap.Logger
	// mu serializes ingests so the stem check and the gallery/feature/catalog writes
	// of one file are not interleaved with another.
	mu sync.Mutex
}

// IndexerOption configures an Indexer.
type IndexerOption func(*Indexer)

// WithLogger sets a logger for ingest events.
func WithLogger(l *zap.Logger) IndexerOption {
	return func(idx *Indexer) {
		if l != nil {
			idx.logger = l
		}
	}
}

// NewIndexer creates an indexer. cat may be nil, in which case every file is re-embedded.
func NewIndexer(
	service *retrieval.Service,
	gallery *vector.Gallery,
	store *featurestore.Store,
	cat catalog.Catalog,
	opts ...IndexerOption,
) *Indexer {
	idx := &Indexer{
		service: service,
		gallery: gallery,
		store:   store,
		catalog: cat,
		logger:  zap.NewNop(),
	}
	for _, opt := range opts {
		opt(idx)
	}
	return idx
}

// IngestFile embeds the image at path and adds it to the gallery under its file stem. An entry
// with the same stem is replaced only when it belongs to the same file or its file no longer
// exists; otherwise ErrStemCollision is returned and nothing is written. It returns false when
// the file was skipped because the catalog already records it with the same size and mtime and
// the gallery holds its entry.
func (idx *Indexer) IngestFile(ctx context.Context, path string) (bool, error) {
	absPath, id, err := fileid.Resolve(path)
	if err != nil {
		return false, fmt.Errorf("absolute path: %w", err)
	}
	if !idx.store.IsImage(absPath) {
		return false, fmt.Errorf("%w: %s", ErrExtensionNotAllowed, filepath.Ext(absPath))
	}
	info, err := os.Stat(absPath)
	if err != nil {
		return false, fmt.Errorf("stat file: %w", err)
	}
	if !info.Mode().IsRegular() {
		return false, fmt.Errorf("not a regular file: %s", absPath)
	}

	idx.mu.Lock()
	defer idx.mu.Unlock()

	stem := featurestore.Stem(absPath)
	if existing, ok := idx.gallery.ImagePath(stem); ok && existing != absPath && fileExists(existing) {
		return false, errortypes.StemCollision(stem, existing, absPath)
	}
	if skip, err := idx.shouldSkipFile(ctx, id, stem, info); err != nil {
		return false, err
	} else if skip {
		idx.logger.Debug("Skipping unchanged image", zap.String("path", absPath))
		return false, nil
	}

	data, err := os.ReadFile(absPath)
	if err != nil {
		return false, fmt.Errorf("read image: %w", err)
	}
	emb, err := idx.service.ExtractQuery(ctx, data)
	if err != nil {
		return false, fmt.Errorf("embed %s: %w", absPath, err)
	}
	featurePath, err := idx.store.Save(stem, emb)
	if err != nil {
		return false, err
	}

	entry := models.GalleryEntry{ID: stem, ImagePath: absPath, Embedding: emb}
	if _, err := idx.gallery.Upsert(entry); err != nil {
		return false, err
	}

	if idx.catalog != nil {
		rec := &models.ImageRecord{
			ID:          id,
			Stem:        stem,
			ImagePath:   absPath,
			FeaturePath: featurePath,
			Size:        info.Size(),
			ModTime:     info.ModTime(),
			Dimensions:  len(emb),
		}
		if err := idx.catalog.Upsert(ctx, rec); err != nil {
			return false, err
		}
	}
	idx.logger.Debug("Image ingested",
		zap.String("path", absPath),
		zap.String("id", stem),
		zap.Int("gallery_size", idx.gallery.Size()))
	return true, nil
}

func fileExists(path string) bool {
	_, err := os.Stat(path)
	return err == nil
}

func (idx *Indexer) shouldSkipFile(ctx context.Context, id, stem string, info os.FileInfo) (bool, error) {
	if idx.catalog == nil || !idx.gallery.Contains(stem) {
		return false, nil
	}
	rec, err := idx.catalog.Get(ctx, id)
	if err != nil {
		return false, fmt.Errorf("catalog lookup: %w", err)
	}
	return rec.Unchanged(info.Size(), info.ModTime()), nil
}

// Result summarizes a directory ingest.
type Result struct {
	Indexed   int
	Unchanged int
	Rejected  int
}

// IngestDirectory walks dir recursively and ingests every image file. Images that cannot be
// decoded, that embed to a degenerate vector or whose stem is taken by another file are logged
// and counted as rejected; any other error stops the walk.
func (idx *Indexer) IngestDirectory(ctx context.Context, dir string) (Result, error) {
	var res Result
	absDir, err := filepath.Abs(dir)
	if err != nil {
		return res, fmt.Errorf("absolute path: %w", err)
	}
	info, err := os.Stat(absDir)
	if err != nil {
		return res, fmt.Errorf("stat directory: %w", err)
	}
	if !info.IsDir() {
		return res, fmt.Errorf("not a directory: %s", absDir)
	}
	err = filepath.WalkDir(absDir, func(path string, d os.DirEntry, walkErr error) error {
		if walkErr != nil {
			return walkErr
		}
		if err := ctx.Err(); err != nil {
			return err
		}
		if d.IsDir() || !idx.store.IsImage(path) {
			return nil
		}
		// Resolve symlinks so we only ingest regular files
		finfo, statErr := os.Stat(path)
		if statErr != nil || !finfo.Mode().IsRegular() {
			return nil
		}
		indexed, ingestErr := idx.IngestFile(ctx, path)
		switch {
		case ingestErr != nil && (errortypes.Recoverable(ingestErr) || errors.Is(ingestErr, errortypes.ErrStemCollision)):
			idx.logger.Warn("Image rejected", zap.String("path", path), zap.Error(ingestErr))
			res.Rejected++
		case ingestErr != nil:
			return ingestErr
		case indexed:
			res.Indexed++
		default:
			res.Unchanged++
		}
		return nil
	})
	idx.logger.Info("Directory ingested",
		zap.String("dir", absDir),
		zap.Int("indexed", res.Indexed),
		zap.Int("unchanged", res.Unchanged),
		zap.Int("rejected", res.Rejected))
	return res, err
}

// ForgetFile removes the catalog record for path. The gallery is append-only, so the entry
// and its feature file stay until the next rebuild.
func (idx *Indexer) ForgetFile(ctx context.Context, path string) error {
	if idx.catalog == nil {
		return nil
	}
	_, id, err := fileid.Resolve(path)
	if err != nil {
		return fmt.Errorf("absolute path: %w", err)
	}
	if err := idx.catalog.Delete(ctx, id); err != nil {
		return fmt.Errorf("catalog delete: %w", err)
	}
	idx.logger.Debug("Image forgotten", zap.String("path", path))
	return nil
}
