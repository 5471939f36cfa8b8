// Package session holds the state of one interactive query: which image was loaded and
// what has been shown for it.
package session

import (
	"context"
	"errors"
	"fmt"
	"os"
	"sync"

	"go.uber.org/zap"

	"github.com/hyperjump/kagami/internal/errortypes"
	"github.com/hyperjump/kagami/internal/models"
	"github.com/hyperjump/kagami/internal/vector"
)

// State is the front-end state of a session.
type State int

const (
	NoQuery State = iota
	QueryLoaded
	ResultsShown
)

func (s State) String() string {
	switch s {
	case NoQuery:
		return "no_query"
	case QueryLoaded:
		return "query_loaded"
	case ResultsShown:
		return "results_shown"
	default:
		return fmt.Sprintf("state(%d)", int(s))
	}
}

const (
	DefaultScoreLimit    = 30
	DefaultRelevantLimit = 10
)

// Retriever turns encoded image bytes into a query embedding and ranks a gallery against it.
type Retriever interface {
	ExtractQuery(ctx context.Context, data []byte) (models.Embedding, error)
	Rank(g *vector.Gallery, q models.Embedding, k int) ([]*models.Match, error)
}

// Session is safe for concurrent use.
type Session struct {
	retriever     Retriever
	gallery       *vector.Gallery
	scoreLimit    int
	relevantLimit int
	logger        *zap.Logger

	mu        sync.Mutex
	state     State
	queryName string
	query     models.Embedding
}

// Option configures a Session.
type Option func(*Session)

// WithLogger sets the logger.
func WithLogger(l *zap.Logger) Option {
	return func(s *Session) {
		if l != nil {
			s.logger = l
		}
	}
}

// WithLimits overrides the default result counts. Non-positive values keep the defaults.
func WithLimits(scores, relevant int) Option {
	return func(s *Session) {
		if scores > 0 {
			s.scoreLimit = scores
		}
		if relevant > 0 {
			s.relevantLimit = relevant
		}
	}
}

// New returns a session in the NoQuery state.
func New(retriever Retriever, gallery *vector.Gallery, opts ...Option) *Session {
	s := &Session{
		retriever:     retriever,
		gallery:       gallery,
		scoreLimit:    DefaultScoreLimit,
		relevantLimit: DefaultRelevantLimit,
		logger:        zap.NewNop(),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// State returns the current state.
func (s *Session) State() State {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state
}

// QueryName returns the name of the loaded query, or "".
func (s *Session) QueryName() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.queryName
}

// LoadQuery embeds data and makes it the current query. On failure the previous query,
// if any, stays loaded.
func (s *Session) LoadQuery(ctx context.Context, name string, data []byte) error {
	q, err := s.retriever.ExtractQuery(ctx, data)
	if err != nil {
		s.logger.Warn("Query image rejected", zap.String("query", name), zap.Error(err))
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.query = q
	s.queryName = name
	s.state = QueryLoaded
	s.logger.Debug("Query loaded", zap.String("query", name), zap.Int("dimensions", len(q)))
	return nil
}

func (s *Session) rank(k int) ([]*models.Match, error) {
	if s.state == NoQuery || s.query == nil {
		return nil, errortypes.NoQuery()
	}
	matches, err := s.retriever.Rank(s.gallery, s.query, k)
	if err != nil {
		return nil, err
	}
	s.state = ResultsShown
	return matches, nil
}

// Similarity returns the distances of the k nearest gallery entries. k <= 0 uses the
// configured score limit.
func (s *Session) Similarity(k int) ([]*models.Match, error) {
	if k <= 0 {
		k = s.scoreLimit
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.rank(k)
}

// Relevant returns the k nearest gallery entries whose image files must exist on disk.
// A missing image file fails the whole call with ErrImageNotFound. k <= 0 uses the
// configured relevant limit.
func (s *Session) Relevant(k int) ([]*models.Match, error) {
	if k <= 0 {
		k = s.relevantLimit
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	matches, err := s.rank(k)
	if err != nil {
		return nil, err
	}
	for _, m := range matches {
		if _, err := os.Stat(m.ImagePath); err != nil {
			if errors.Is(err, os.ErrNotExist) || m.ImagePath == "" {
				return nil, errortypes.ImageNotFound(m.ID, m.ImagePath)
			}
			return nil, fmt.Errorf("stat %s: %w", m.ImagePath, err)
		}
	}
	return matches, nil
}

// Reset drops the current query.
func (s *Session) Reset() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.state = NoQuery
	s.query = nil
	s.queryName = ""
}
