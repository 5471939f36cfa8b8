package cli

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/hyperjump/kagami/internal/catalog"
	"github.com/hyperjump/kagami/internal/config"
	"github.com/hyperjump/kagami/internal/embedding"
	"github.com/hyperjump/kagami/internal/featurestore"
	"github.com/hyperjump/kagami/internal/indexer"
	"github.com/hyperjump/kagami/internal/retrieval"
	"github.com/hyperjump/kagami/internal/session"
	"github.com/hyperjump/kagami/internal/vector"
	"github.com/hyperjump/kagami/internal/watcher"
)

// DefaultConfigPath is where the commands look for configuration.
const DefaultConfigPath = "/usr/local/etc/kagami/config.yaml"

// LoadConfig loads config from path. When path is the default, config.yaml in the current
// directory wins if present, and the built-in defaults (relative to the current directory)
// are used if neither file exists. Returns the config and the path that was loaded ("" for
// built-in defaults).
func LoadConfig(path string) (*config.Config, string, error) {
	if path == DefaultConfigPath {
		cwd, err := os.Getwd()
		if err != nil {
			return nil, "", err
		}
		fallback := filepath.Join(cwd, "config.yaml")
		if _, statErr := os.Stat(fallback); statErr == nil {
			cfg, loadErr := config.Load(fallback)
			if loadErr != nil {
				return nil, "", loadErr
			}
			return cfg, fallback, nil
		}
		if _, statErr := os.Stat(path); os.IsNotExist(statErr) {
			return config.Default(cwd), "", nil
		}
	}
	cfg, err := config.Load(path)
	if err != nil {
		return nil, "", err
	}
	return cfg, path, nil
}

// Components holds everything a command needs.
type Components struct {
	Config    *config.Config
	Extractor embedding.Extractor
	Service   *retrieval.Service
	Store     *featurestore.Store
	Gallery   *vector.Gallery
	Catalog   *catalog.SQLiteCatalog
	Indexer   *indexer.Indexer
	Logger    *zap.Logger
}

// Initialize loads the model and the gallery. Model load failures are returned as is so the
// caller can treat them as fatal.
func Initialize(ctx context.Context, cfg *config.Config, logger *zap.Logger) (*Components, error) {
	ext, err := embedding.New(cfg.Embedding.ExtractorOptions())
	if err != nil {
		return nil, err
	}
	logger.Info("Extractor ready",
		zap.String("backend", cfg.Embedding.Backend),
		zap.Int("dimensions", ext.Dimensions()))

	c := &Components{Config: cfg, Extractor: ext, Logger: logger}
	c.Service = retrieval.NewService(ext,
		retrieval.WithCache(cfg.Embedding.CacheSize),
		retrieval.WithLogger(logger))
	c.Catalog, err = catalog.NewSQLiteCatalog(cfg.Store.CatalogPath)
	if err != nil {
		c.Close()
		return nil, err
	}
	c.Store = featurestore.New(cfg.Store.FeatureDir, cfg.Store.ImageDir,
		featurestore.WithImageExtensions(cfg.Store.ImageExtensions),
		featurestore.WithImageLocator(catalogLocator(c.Catalog)),
		featurestore.WithLogger(logger))

	c.Gallery, err = c.Service.LoadGallery(ctx, c.Store)
	if err != nil {
		c.Close()
		return nil, err
	}
	c.Indexer = indexer.NewIndexer(c.Service, c.Gallery, c.Store, c.Catalog, indexer.WithLogger(logger))
	return c, nil
}

// catalogLocator resolves a stem to the image path recorded at ingest, so images ingested from
// subdirectories keep their location across restarts.
func catalogLocator(cat catalog.Catalog) featurestore.ImageLocator {
	return func(ctx context.Context, stem string) (string, error) {
		rec, err := cat.GetByStem(ctx, stem)
		if err != nil || rec == nil {
			return "", err
		}
		return rec.ImagePath, nil
	}
}

// NewSession returns an interactive session over the loaded gallery.
func (c *Components) NewSession() *session.Session {
	return session.New(c.Service, c.Gallery,
		session.WithLimits(c.Config.Search.ScoreLimit, c.Config.Search.RelevantLimit),
		session.WithLogger(c.Logger))
}

// NewWatcher returns a watcher on the image directory that feeds the indexer.
func (c *Components) NewWatcher(ctx context.Context) *watcher.Watcher {
	handler := watcher.HandlerFuncs{
		Changed: func(path string) {
			if _, err := c.Indexer.IngestFile(ctx, path); err != nil {
				c.Logger.Warn("Watch ingest failed", zap.String("path", path), zap.Error(err))
			}
		},
		Removed: func(path string) {
			if err := c.Indexer.ForgetFile(ctx, path); err != nil {
				c.Logger.Warn("Watch forget failed", zap.String("path", path), zap.Error(err))
			}
		},
	}
	return watcher.New(c.Config.Store.ImageDir, c.Config.Store.ImageExtensions, handler,
		watcher.WithRecursive(c.Config.Watch.RecursiveOrDefault()),
		watcher.WithDebounce(time.Duration(c.Config.Watch.DebounceMs)*time.Millisecond),
		watcher.WithLogger(c.Logger))
}

// Status collects gallery and catalog statistics.
func (c *Components) Status(ctx context.Context) (*Status, error) {
	n, err := c.Catalog.Count(ctx)
	if err != nil {
		return nil, fmt.Errorf("count catalog: %w", err)
	}
	st := &Status{
		GalleryEntries: c.Gallery.Size(),
		Dimensions:     c.Gallery.Dimensions(),
		CatalogRecords: n,
		Backend:        c.Config.Embedding.Backend,
		FeatureDir:     c.Config.Store.FeatureDir,
		ImageDir:       c.Config.Store.ImageDir,
		CatalogPath:    c.Config.Store.CatalogPath,
	}
	if strings.EqualFold(c.Config.Embedding.Backend, string(embedding.BackendONNX)) {
		st.ModelPath = c.Config.Embedding.ModelPath
	}
	if du, err := catalog.DiskUsageBytes(c.Config.Store.FeatureDir, c.Config.Store.CatalogPath); err == nil {
		st.DiskUsageBytes = &du
	}
	return st, nil
}

// Close releases the catalog and the extractor.
func (c *Components) Close() {
	if c.Catalog != nil {
		_ = c.Catalog.Close()
	}
	if c.Extractor != nil {
		_ = c.Extractor.Close()
	}
}
