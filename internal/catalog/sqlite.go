package catalog

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	_ "github.com/mattn/go-sqlite3"

	"github.com/hyperjump/kagami/internal/models"
)

// SQLiteCatalog implements Catalog using SQLite.
type SQLiteCatalog struct {
	db *sql.DB
}

// NewSQLiteCatalog opens or creates a SQLite database at dbPath and initializes the schema.
// Parent directories are created if they do not exist.
func NewSQLiteCatalog(dbPath string) (*SQLiteCatalog, error) {
	if dir := filepath.Dir(dbPath); dir != "." {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return nil, fmt.Errorf("failed to create catalog directory: %w", err)
		}
	}
	db, err := sql.Open("sqlite3", dbPath)
	if err != nil {
		return nil, fmt.Errorf("failed to open catalog: %w", err)
	}

	if _, err := db.Exec("PRAGMA journal_mode=WAL"); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to enable WAL: %w", err)
	}

	if err := initSchema(db); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to initialize schema: %w", err)
	}

	return &SQLiteCatalog{db: db}, nil
}

func initSchema(db *sql.DB) error {
	schema := `
	CREATE TABLE IF NOT EXISTS images (
		id TEXT PRIMARY KEY,
		stem TEXT NOT NULL,
		image_path TEXT NOT NULL,
		feature_path TEXT NOT NULL,
		size INTEGER NOT NULL,
		mtime INTEGER NOT NULL,
		dimensions INTEGER NOT NULL,
		indexed_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP
	);

	CREATE INDEX IF NOT EXISTS idx_images_stem ON images(stem);
	CREATE UNIQUE INDEX IF NOT EXISTS idx_images_path ON images(image_path);
	`
	_, err := db.Exec(schema)
	return err
}

// Upsert inserts rec or replaces the record with the same ID. IndexedAt is set to now.
func (s *SQLiteCatalog) Upsert(ctx context.Context, rec *models.ImageRecord) error {
	rec.IndexedAt = time.Now().UTC()
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO images (id, stem, image_path, feature_path, size, mtime, dimensions, indexed_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?)
		 ON CONFLICT(id) DO UPDATE SET
			stem = excluded.stem,
			image_path = excluded.image_path,
			feature_path = excluded.feature_path,
			size = excluded.size,
			mtime = excluded.mtime,
			dimensions = excluded.dimensions,
			indexed_at = excluded.indexed_at`,
		rec.ID, rec.Stem, rec.ImagePath, rec.FeaturePath, rec.Size, rec.ModTime.UnixNano(), rec.Dimensions, rec.IndexedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to upsert image %s: %w", rec.ID, err)
	}
	return nil
}

const selectColumns = `SELECT id, stem, image_path, feature_path, size, mtime, dimensions, indexed_at FROM images`

type scanner interface {
	Scan(dest ...any) error
}

func scanRecord(row scanner) (*models.ImageRecord, error) {
	var rec models.ImageRecord
	var mtime int64
	if err := row.Scan(&rec.ID, &rec.Stem, &rec.ImagePath, &rec.FeaturePath, &rec.Size, &mtime, &rec.Dimensions, &rec.IndexedAt); err != nil {
		return nil, err
	}
	rec.ModTime = time.Unix(0, mtime)
	return &rec, nil
}

// Get returns the record with id, or nil if there is none.
func (s *SQLiteCatalog) Get(ctx context.Context, id string) (*models.ImageRecord, error) {
	rec, err := scanRecord(s.db.QueryRowContext(ctx, selectColumns+` WHERE id = ?`, id))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	return rec, err
}

// GetByPath returns the record for imagePath, or nil if there is none.
func (s *SQLiteCatalog) GetByPath(ctx context.Context, imagePath string) (*models.ImageRecord, error) {
	rec, err := scanRecord(s.db.QueryRowContext(ctx, selectColumns+` WHERE image_path = ?`, imagePath))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	return rec, err
}

// GetByStem returns the most recently indexed record for stem, or nil if there is none.
func (s *SQLiteCatalog) GetByStem(ctx context.Context, stem string) (*models.ImageRecord, error) {
	rec, err := scanRecord(s.db.QueryRowContext(ctx,
		selectColumns+` WHERE stem = ? ORDER BY indexed_at DESC, image_path LIMIT 1`, stem))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	return rec, err
}

// Delete removes the record with id. Deleting a missing record is not an error.
func (s *SQLiteCatalog) Delete(ctx context.Context, id string) error {
	_, err := s.db.ExecContext(ctx, `DELETE FROM images WHERE id = ?`, id)
	return err
}

// List returns records ordered by stem with offset and limit.
func (s *SQLiteCatalog) List(ctx context.Context, offset, limit int) ([]*models.ImageRecord, error) {
	rows, err := s.db.QueryContext(ctx,
		selectColumns+` ORDER BY stem, image_path LIMIT ? OFFSET ?`,
		limit, offset,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var recs []*models.ImageRecord
	for rows.Next() {
		rec, err := scanRecord(rows)
		if err != nil {
			return nil, err
		}
		recs = append(recs, rec)
	}
	return recs, rows.Err()
}

// Count returns the number of records.
func (s *SQLiteCatalog) Count(ctx context.Context) (int64, error) {
	var n int64
	err := s.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM images`).Scan(&n)
	return n, err
}

// Close closes the database.
func (s *SQLiteCatalog) Close() error {
	return s.db.Close()
}
