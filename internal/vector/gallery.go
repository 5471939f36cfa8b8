package vector

import (
	"cmp"
	"math"
	"slices"
	"sync"

	"github.com/hyperjump/kagami/internal/errortypes"
	"github.com/hyperjump/kagami/internal/models"
)

// Gallery is an in-memory, append-only collection of gallery entries ranked by exact
// Euclidean distance. Entries keep their insertion order, which is also the tie-break order.
// The embeddings are stored in a single row-major matrix of Size() x Dimensions().
//
// Add, Replace and Upsert take the write lock; Query takes the read lock, so a query observes
// either the state before or after a mutation, never a partial entry.
type Gallery struct {
	mu         sync.RWMutex
	dimensions int
	pinned     bool
	entries    []models.GalleryEntry // embeddings live in matrix, not here
	positions  map[string]int
	matrix     []float32
}

// Option configures a Gallery.
type Option func(*Gallery)

// WithDimensions fixes the embedding length up front. Without it the first entry decides.
func WithDimensions(d int) Option {
	return func(g *Gallery) {
		if d > 0 {
			g.dimensions = d
			g.pinned = true
		}
	}
}

// NewGallery returns an empty gallery.
func NewGallery(opts ...Option) *Gallery {
	g := &Gallery{
		entries:   make([]models.GalleryEntry, 0),
		positions: make(map[string]int),
	}
	for _, opt := range opts {
		opt(g)
	}
	return g
}

// Build creates a gallery holding entries in the given order. All embeddings must share one
// length. An empty slice yields a valid empty gallery.
func Build(entries []models.GalleryEntry, opts ...Option) (*Gallery, error) {
	g := NewGallery(opts...)
	if len(entries) == 0 {
		return g, nil
	}
	d := g.dimensions
	if !g.pinned {
		d = len(entries[0].Embedding)
	}
	for _, e := range entries {
		if len(e.Embedding) != d || d == 0 {
			return nil, errortypes.DimensionMismatch(d, len(e.Embedding))
		}
	}
	g.dimensions = d
	g.entries = make([]models.GalleryEntry, 0, len(entries))
	g.matrix = make([]float32, 0, len(entries)*d)
	for _, e := range entries {
		if err := g.appendLocked(e); err != nil {
			return nil, err
		}
	}
	return g, nil
}

// Add appends one entry. The embedding length must match the gallery's.
func (g *Gallery) Add(entry models.GalleryEntry) error {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.addLocked(entry)
}

func (g *Gallery) addLocked(entry models.GalleryEntry) error {
	if len(entry.Embedding) == 0 || (g.dimensions > 0 && len(entry.Embedding) != g.dimensions) {
		return errortypes.DimensionMismatch(g.dimensions, len(entry.Embedding))
	}
	if g.dimensions == 0 {
		g.dimensions = len(entry.Embedding)
	}
	return g.appendLocked(entry)
}

func (g *Gallery) appendLocked(entry models.GalleryEntry) error {
	if _, ok := g.positions[entry.ID]; ok {
		return errortypes.DuplicateEntry(entry.ID)
	}
	g.matrix = append(g.matrix, entry.Embedding...)
	g.positions[entry.ID] = len(g.entries)
	g.entries = append(g.entries, models.GalleryEntry{ID: entry.ID, ImagePath: entry.ImagePath})
	return nil
}

// Replace overwrites the embedding (and image path) of an existing entry in place, keeping its
// insertion position.
func (g *Gallery) Replace(entry models.GalleryEntry) error {
	g.mu.Lock()
	defer g.mu.Unlock()
	pos, ok := g.positions[entry.ID]
	if !ok {
		return errortypes.EntryNotFound(entry.ID)
	}
	return g.replaceLocked(pos, entry)
}

// Upsert replaces the entry with the same ID or appends a new one, under a single write lock.
// It reports whether an existing entry was replaced.
func (g *Gallery) Upsert(entry models.GalleryEntry) (bool, error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	if pos, ok := g.positions[entry.ID]; ok {
		return true, g.replaceLocked(pos, entry)
	}
	return false, g.addLocked(entry)
}

func (g *Gallery) replaceLocked(pos int, entry models.GalleryEntry) error {
	if len(entry.Embedding) != g.dimensions {
		return errortypes.DimensionMismatch(g.dimensions, len(entry.Embedding))
	}
	d := g.dimensions
	copy(g.matrix[pos*d:(pos+1)*d], entry.Embedding)
	if entry.ImagePath != "" {
		g.entries[pos].ImagePath = entry.ImagePath
	}
	return nil
}

// Query returns the min(k, Size()) entries closest to q, ascending by Euclidean distance.
// Equal distances keep insertion order. k <= 0 and an empty gallery both yield no matches.
func (g *Gallery) Query(q models.Embedding, k int) ([]*models.Match, error) {
	g.mu.RLock()
	defer g.mu.RUnlock()
	if g.dimensions > 0 && len(q) != g.dimensions {
		return nil, errortypes.DimensionMismatch(g.dimensions, len(q))
	}
	n := len(g.entries)
	if k <= 0 || n == 0 {
		return []*models.Match{}, nil
	}
	if k > n {
		k = n
	}
	type scored struct {
		pos  int
		dist float64
	}
	d := g.dimensions
	scores := make([]scored, n)
	for i := 0; i < n; i++ {
		scores[i] = scored{pos: i, dist: math.Sqrt(squaredDistance(q, g.matrix[i*d:(i+1)*d]))}
	}
	slices.SortStableFunc(scores, func(a, b scored) int {
		return cmp.Compare(a.dist, b.dist)
	})
	out := make([]*models.Match, k)
	for i := 0; i < k; i++ {
		e := g.entries[scores[i].pos]
		out[i] = &models.Match{
			ID:        e.ID,
			ImagePath: e.ImagePath,
			Distance:  scores[i].dist,
			Rank:      i + 1,
		}
	}
	return out, nil
}

// Size returns the number of entries.
func (g *Gallery) Size() int {
	g.mu.RLock()
	defer g.mu.RUnlock()
	return len(g.entries)
}

// Dimensions returns the embedding length, or 0 for an empty unpinned gallery.
func (g *Gallery) Dimensions() int {
	g.mu.RLock()
	defer g.mu.RUnlock()
	return g.dimensions
}

// Contains reports whether an entry with id exists.
func (g *Gallery) Contains(id string) bool {
	g.mu.RLock()
	defer g.mu.RUnlock()
	_, ok := g.positions[id]
	return ok
}

// ImagePath returns the image path recorded for id.
func (g *Gallery) ImagePath(id string) (string, bool) {
	g.mu.RLock()
	defer g.mu.RUnlock()
	pos, ok := g.positions[id]
	if !ok {
		return "", false
	}
	return g.entries[pos].ImagePath, true
}

// Entries returns a snapshot of all entries in insertion order. Embeddings are copies.
func (g *Gallery) Entries() []models.GalleryEntry {
	g.mu.RLock()
	defer g.mu.RUnlock()
	d := g.dimensions
	out := make([]models.GalleryEntry, len(g.entries))
	for i, e := range g.entries {
		row := models.Embedding(g.matrix[i*d : (i+1)*d])
		out[i] = models.GalleryEntry{ID: e.ID, ImagePath: e.ImagePath, Embedding: row.Clone()}
	}
	return out
}
