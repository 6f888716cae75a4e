package cache

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"question-paper-rag/internal/models"

	_ "modernc.org/sqlite"
)

// SQLiteStore is a file-backed question cache
type SQLiteStore struct {
	db *sql.DB
}

// OpenSQLite opens (creating if needed) the cache database at path
func OpenSQLite(path string) (*SQLiteStore, error) {
	p := filepath.Clean(strings.TrimSpace(path))
	if p == "" || p == "." {
		return nil, errors.New("missing cache path")
	}
	if err := os.MkdirAll(filepath.Dir(p), 0o700); err != nil {
		return nil, fmt.Errorf("failed to create cache directory: %w", err)
	}

	db, err := sql.Open("sqlite", p)
	if err != nil {
		return nil, fmt.Errorf("failed to open cache database: %w", err)
	}
	if err := initSchema(db); err != nil {
		_ = db.Close()
		return nil, err
	}

	// Single writer keeps concurrent Get/Put from tripping SQLITE_BUSY.
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)

	return &SQLiteStore{db: db}, nil
}

func initSchema(db *sql.DB) error {
	_, err := db.Exec(`
CREATE TABLE IF NOT EXISTS question_cache (
	cache_key TEXT PRIMARY KEY,
	question TEXT NOT NULL,
	blueprint_hash TEXT NOT NULL,
	created_at INTEGER NOT NULL,
	used_count INTEGER NOT NULL DEFAULT 0
);
CREATE INDEX IF NOT EXISTS idx_blueprint_hash ON question_cache(blueprint_hash);
`)
	if err != nil {
		return fmt.Errorf("failed to initialize cache schema: %w", err)
	}
	return nil
}

func (s *SQLiteStore) Get(ctx context.Context, key string) (*models.CacheEntry, error) {
	if s == nil || s.db == nil {
		return nil, ErrNotInitialized
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to begin cache lookup: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	var (
		raw       string
		e         models.CacheEntry
		createdAt int64
	)
	err = tx.QueryRowContext(ctx, `
SELECT cache_key, question, blueprint_hash, created_at, used_count
FROM question_cache
WHERE cache_key = ?
`, key).Scan(&e.Key, &raw, &e.Fingerprint, &createdAt, &e.UsedCount)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read cache entry: %w", err)
	}

	if _, err := tx.ExecContext(ctx, `UPDATE question_cache SET used_count = used_count + 1 WHERE cache_key = ?`, key); err != nil {
		return nil, fmt.Errorf("failed to update use count: %w", err)
	}
	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("failed to commit cache lookup: %w", err)
	}

	if err := json.Unmarshal([]byte(raw), &e.Question); err != nil {
		return nil, fmt.Errorf("failed to decode cached question: %w", err)
	}
	e.CreatedAt = time.UnixMilli(createdAt).UTC()
	e.UsedCount++
	return &e, nil
}

func (s *SQLiteStore) Put(ctx context.Context, key string, question models.AssembledQuestion, fingerprint string) error {
	if s == nil || s.db == nil {
		return ErrNotInitialized
	}

	data, err := json.Marshal(question)
	if err != nil {
		return fmt.Errorf("failed to encode question: %w", err)
	}

	_, err = s.db.ExecContext(ctx, `
INSERT INTO question_cache (cache_key, question, blueprint_hash, created_at, used_count)
VALUES (?, ?, ?, ?, 0)
ON CONFLICT(cache_key) DO UPDATE SET
	question = excluded.question,
	blueprint_hash = excluded.blueprint_hash,
	created_at = excluded.created_at,
	used_count = 0
`, key, string(data), fingerprint, time.Now().UnixMilli())
	if err != nil {
		return fmt.Errorf("failed to store cache entry: %w", err)
	}
	return nil
}

// DeleteByFingerprint removes every entry stored under a blueprint hash
func (s *SQLiteStore) DeleteByFingerprint(ctx context.Context, fingerprint string) (int64, error) {
	if s == nil || s.db == nil {
		return 0, ErrNotInitialized
	}
	res, err := s.db.ExecContext(ctx, `DELETE FROM question_cache WHERE blueprint_hash = ?`, fingerprint)
	if err != nil {
		return 0, fmt.Errorf("failed to delete cache entries: %w", err)
	}
	return res.RowsAffected()
}

func (s *SQLiteStore) Close() error {
	if s == nil || s.db == nil {
		return nil
	}
	return s.db.Close()
}
