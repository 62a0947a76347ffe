package cache

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	_ "modernc.org/sqlite" // SQLite driver

	"github.com/pictag/autotagger/internal/model"
)

// Store provides SQLite-based storage for prediction results.
//
// Design decision: We key on the content digest plus the filter
// settings (threshold, limit) rather than the digest alone. A cached
// result is the model output after advisory filtering, so the same
// image tagged with a tighter threshold must miss and re-run.
type Store struct {
	// db is the underlying SQL database connection.
	db *sql.DB

	// dbPath is the path to the SQLite database file.
	dbPath string
}

// Options configures Store behavior.
type Options struct {
	// CreateIfNotExists creates the database file if it doesn't exist.
	CreateIfNotExists bool

	// EnableWAL enables Write-Ahead Logging for better concurrent
	// performance. Recommended for most use cases.
	EnableWAL bool
}

// DefaultOptions returns the default cache options.
func DefaultOptions() Options {
	return Options{
		CreateIfNotExists: true,
		EnableWAL:         true,
	}
}

// Open opens or creates the prediction cache in the specified directory.
func Open(dir string, opts Options) (*Store, error) {
	dbPath := filepath.Join(dir, "predictions.db")

	if !opts.CreateIfNotExists {
		if _, err := os.Stat(dbPath); os.IsNotExist(err) {
			return nil, fmt.Errorf("cache not found at %s", dbPath)
		} else if err != nil {
			return nil, fmt.Errorf("failed to check cache path: %w", err)
		}
	} else {
		if err := os.MkdirAll(dir, 0750); err != nil {
			return nil, fmt.Errorf("failed to create cache directory: %w", err)
		}
	}

	// modernc.org/sqlite uses mode=rw to prevent creating new files and
	// mode=rwc to allow creation.
	var dsn string
	if opts.CreateIfNotExists {
		dsn = dbPath + "?mode=rwc"
	} else {
		dsn = dbPath + "?mode=rw"
	}

	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open cache: %w", err)
	}

	// SQLite only supports one writer; a single connection avoids
	// SQLITE_BUSY churn for our sequential access pattern.
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)
	db.SetConnMaxLifetime(time.Hour)

	s := &Store{
		db:     db,
		dbPath: dbPath,
	}

	if opts.EnableWAL {
		if _, err := db.ExecContext(context.Background(), "PRAGMA journal_mode=WAL"); err != nil {
			_ = db.Close()
			return nil, fmt.Errorf("failed to enable WAL mode: %w", err)
		}
	}

	if err := s.createTables(); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to create tables: %w", err)
	}

	return s, nil
}

// Close closes the database connection.
func (s *Store) Close() error {
	return s.db.Close()
}

// createTables creates the cache schema if it doesn't exist.
func (s *Store) createTables() error {
	schema := `
	-- Predictions store filtered model output per content digest.
	CREATE TABLE IF NOT EXISTS predictions (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		digest TEXT NOT NULL,
		threshold REAL NOT NULL,
		tag_limit INTEGER NOT NULL,
		path TEXT NOT NULL,
		tags_json TEXT NOT NULL,
		timestamp DATETIME DEFAULT CURRENT_TIMESTAMP,
		UNIQUE(digest, threshold, tag_limit)
	);

	CREATE INDEX IF NOT EXISTS idx_predictions_digest ON predictions(digest);
	CREATE INDEX IF NOT EXISTS idx_predictions_timestamp ON predictions(timestamp);
	`

	_, err := s.db.ExecContext(context.Background(), schema)
	return err
}

// Get looks up a cached TagMap. The second return value reports whether
// the lookup hit.
func (s *Store) Get(ctx context.Context, digest string, threshold float64, limit int) (model.TagMap, bool, error) {
	query := `
	SELECT tags_json FROM predictions
	WHERE digest = ? AND threshold = ? AND tag_limit = ?
	`

	var tagsJSON string
	err := s.db.QueryRowContext(ctx, query, digest, threshold, limit).Scan(&tagsJSON)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, fmt.Errorf("cache lookup: %w", err)
	}

	var tags model.TagMap
	if err := json.Unmarshal([]byte(tagsJSON), &tags); err != nil {
		return nil, false, fmt.Errorf("cache entry for %s is corrupt: %w", digest, err)
	}
	return tags, true, nil
}

// Put stores a TagMap for a digest. An existing entry for the same
// digest and filter settings is replaced; the stored path is the most
// recent location the content was seen at.
func (s *Store) Put(ctx context.Context, digest, path string, threshold float64, limit int, tags model.TagMap) error {
	tagsJSON, err := json.Marshal(tags)
	if err != nil {
		return fmt.Errorf("serialize tags: %w", err)
	}

	query := `
	INSERT INTO predictions (digest, threshold, tag_limit, path, tags_json)
	VALUES (?, ?, ?, ?, ?)
	ON CONFLICT(digest, threshold, tag_limit) DO UPDATE SET
		path = excluded.path,
		tags_json = excluded.tags_json,
		timestamp = CURRENT_TIMESTAMP
	`

	if _, err := s.db.ExecContext(ctx, query, digest, threshold, limit, path, string(tagsJSON)); err != nil {
		return fmt.Errorf("cache store: %w", err)
	}
	return nil
}

// Count returns the number of cached predictions.
func (s *Store) Count(ctx context.Context) (int, error) {
	var count int
	if err := s.db.QueryRowContext(ctx, "SELECT COUNT(*) FROM predictions").Scan(&count); err != nil {
		return 0, fmt.Errorf("cache count: %w", err)
	}
	return count, nil
}
