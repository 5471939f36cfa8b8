// Package retrieval is the caller-facing query-by-example API: load the gallery, turn a
// query image into an embedding, and rank the gallery against it.
package retrieval

import (
	"context"
	"fmt"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/hyperjump/kagami/internal/embedding"
	"github.com/hyperjump/kagami/internal/featurestore"
	"github.com/hyperjump/kagami/internal/models"
	"github.com/hyperjump/kagami/internal/vector"
)

// Service runs extraction and ranking.
type Service struct {
	extractor embedding.Extractor
	cache     *embedding.Cache
	logger    *zap.Logger
	// Extractors are not assumed safe for concurrent use.
	mu sync.Mutex
}

// Option configures a Service.
type Option func(*Service)

// WithLogger sets the logger.
func WithLogger(l *zap.Logger) Option {
	return func(s *Service) {
		if l != nil {
			s.logger = l
		}
	}
}

// WithCache enables an LRU cache of query embeddings with the given capacity.
func WithCache(capacity int) Option {
	return func(s *Service) {
		s.cache = embedding.NewCache(capacity)
	}
}

// NewService creates a retrieval service around extractor.
func NewService(extractor embedding.Extractor, opts ...Option) *Service {
	s := &Service{
		extractor: extractor,
		logger:    zap.NewNop(),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// LoadGallery builds a gallery from every feature file in store, pinned to the extractor's
// dimensionality so that a mismatched store fails at startup.
func (s *Service) LoadGallery(ctx context.Context, store *featurestore.Store) (*vector.Gallery, error) {
	start := time.Now()
	entries, err := store.Load(ctx)
	if err != nil {
		return nil, fmt.Errorf("load feature store: %w", err)
	}
	var opts []vector.Option
	if s.extractor != nil && s.extractor.Dimensions() > 0 {
		opts = append(opts, vector.WithDimensions(s.extractor.Dimensions()))
	}
	g, err := vector.Build(entries, opts...)
	if err != nil {
		return nil, fmt.Errorf("build gallery: %w", err)
	}
	s.logger.Info("Gallery loaded",
		zap.Int("entries", g.Size()),
		zap.Int("dimensions", g.Dimensions()),
		zap.Duration("elapsed", time.Since(start)))
	return g, nil
}

// ExtractQuery decodes, resizes and embeds an encoded query image.
func (s *Service) ExtractQuery(ctx context.Context, data []byte) (models.Embedding, error) {
	key := ""
	if s.cache != nil {
		key = embedding.Key(data)
		if cached, ok := s.cache.Get(key); ok {
			s.logger.Debug("Query embedding cache hit", zap.String("key", key[:12]))
			return cached, nil
		}
	}

	img, format, err := embedding.DecodeImage(data)
	if err != nil {
		return nil, err
	}
	w, h := s.extractor.InputSize()
	img = embedding.PrepareImage(img, w, h)

	s.mu.Lock()
	emb, err := s.extractor.Extract(ctx, img)
	s.mu.Unlock()
	if err != nil {
		return nil, err
	}
	s.logger.Debug("Extracted query embedding",
		zap.String("format", format),
		zap.Int("dimensions", len(emb)))

	if s.cache != nil {
		s.cache.Set(key, emb)
	}
	return emb, nil
}

// Rank returns the k nearest gallery entries to q.
func (s *Service) Rank(g *vector.Gallery, q models.Embedding, k int) ([]*models.Match, error) {
	return g.Query(q, k)
}
