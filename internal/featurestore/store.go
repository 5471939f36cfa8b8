// Package featurestore reads and writes the on-disk gallery: one .npy embedding per image,
// with the image file sharing the feature file's name stem.
package featurestore

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"runtime"
	"sort"
	"strings"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/hyperjump/kagami/internal/models"
)

// FeatureExt is the extension of feature files.
const FeatureExt = ".npy"

// DefaultImageExtensions are tried, in order, when resolving an image by stem.
var DefaultImageExtensions = []string{".jpg", ".jpeg", ".png"}

// Store locates feature and image files.
type Store struct {
	featureDir      string
	imageDir        string
	imageExtensions []string
	concurrency     int
	locator         ImageLocator
	logger          *zap.Logger
}

// ImageLocator returns the recorded image path for stem, or "" when it has none.
type ImageLocator func(ctx context.Context, stem string) (string, error)

// Option configures a Store.
type Option func(*Store)

// WithLogger sets the logger.
func WithLogger(l *zap.Logger) Option {
	return func(s *Store) {
		if l != nil {
			s.logger = l
		}
	}
}

// WithImageExtensions overrides the image extensions tried by stem.
func WithImageExtensions(exts []string) Option {
	return func(s *Store) {
		if len(exts) > 0 {
			s.imageExtensions = normalizeExtensions(exts)
		}
	}
}

// WithConcurrency bounds the number of feature files read at once.
func WithConcurrency(n int) Option {
	return func(s *Store) {
		if n > 0 {
			s.concurrency = n
		}
	}
}

// WithImageLocator makes Load prefer the image path recorded by l over resolution by stem in
// the image directory. Recorded paths that no longer exist fall back to stem resolution.
func WithImageLocator(l ImageLocator) Option {
	return func(s *Store) {
		s.locator = l
	}
}

// New returns a Store rooted at featureDir and imageDir.
func New(featureDir, imageDir string, opts ...Option) *Store {
	s := &Store{
		featureDir:      featureDir,
		imageDir:        imageDir,
		imageExtensions: DefaultImageExtensions,
		concurrency:     runtime.GOMAXPROCS(0),
		logger:          zap.NewNop(),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

func normalizeExtensions(exts []string) []string {
	out := make([]string, 0, len(exts))
	for _, e := range exts {
		e = strings.ToLower(strings.TrimSpace(e))
		if e == "" {
			continue
		}
		if !strings.HasPrefix(e, ".") {
			e = "." + e
		}
		out = append(out, e)
	}
	return out
}

// ImageExtensions returns the accepted image extensions.
func (s *Store) ImageExtensions() []string { return s.imageExtensions }

// IsImage reports whether path has an accepted image extension.
func (s *Store) IsImage(path string) bool {
	ext := strings.ToLower(filepath.Ext(path))
	for _, e := range s.imageExtensions {
		if e == ext {
			return true
		}
	}
	return false
}

// FeaturePath returns the feature file path for stem.
func (s *Store) FeaturePath(stem string) string {
	return filepath.Join(s.featureDir, stem+FeatureExt)
}

// Stem returns the file name of path without its extension.
func Stem(path string) string {
	base := filepath.Base(path)
	return strings.TrimSuffix(base, filepath.Ext(base))
}

// ImagePath resolves the image for stem: the first extension whose file exists, otherwise the
// path with the first configured extension. The returned file may not exist.
func (s *Store) ImagePath(stem string) string {
	for _, ext := range s.imageExtensions {
		p := filepath.Join(s.imageDir, stem+ext)
		if _, err := os.Stat(p); err == nil {
			return p
		}
	}
	ext := ".jpg"
	if len(s.imageExtensions) > 0 {
		ext = s.imageExtensions[0]
	}
	return filepath.Join(s.imageDir, stem+ext)
}

// List returns the stems of all feature files, sorted.
func (s *Store) List() ([]string, error) {
	dirEntries, err := os.ReadDir(s.featureDir)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, nil
		}
		return nil, fmt.Errorf("read feature directory: %w", err)
	}
	var stems []string
	for _, de := range dirEntries {
		if de.IsDir() || strings.ToLower(filepath.Ext(de.Name())) != FeatureExt {
			continue
		}
		if strings.HasPrefix(de.Name(), ".") {
			continue
		}
		stems = append(stems, Stem(de.Name()))
	}
	sort.Strings(stems)
	return stems, nil
}

// Load reads every feature file, in stem order, into gallery entries. A missing feature
// directory yields an empty gallery. Any unreadable file fails the whole load.
func (s *Store) Load(ctx context.Context) ([]models.GalleryEntry, error) {
	stems, err := s.List()
	if err != nil {
		return nil, err
	}
	entries := make([]models.GalleryEntry, len(stems))
	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(s.concurrency)
	for i, stem := range stems {
		g.Go(func() error {
			if err := ctx.Err(); err != nil {
				return err
			}
			emb, err := ReadEmbedding(s.FeaturePath(stem))
			if err != nil {
				return err
			}
			imagePath, err := s.locateImage(ctx, stem)
			if err != nil {
				return err
			}
			entries[i] = models.GalleryEntry{ID: stem, ImagePath: imagePath, Embedding: emb}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	s.logger.Info("Loaded feature store",
		zap.String("dir", s.featureDir),
		zap.Int("entries", len(entries)))
	return entries, nil
}

func (s *Store) locateImage(ctx context.Context, stem string) (string, error) {
	if s.locator != nil {
		p, err := s.locator(ctx, stem)
		if err != nil {
			return "", fmt.Errorf("locate image %s: %w", stem, err)
		}
		if p != "" {
			if _, statErr := os.Stat(p); statErr == nil {
				return p, nil
			}
		}
	}
	return s.ImagePath(stem), nil
}

// Save writes emb as the feature file for stem and returns its path.
func (s *Store) Save(stem string, emb models.Embedding) (string, error) {
	p := s.FeaturePath(stem)
	if err := WriteEmbedding(p, emb); err != nil {
		return "", err
	}
	s.logger.Debug("Saved feature file", zap.String("path", p), zap.Int("dimensions", len(emb)))
	return p, nil
}
