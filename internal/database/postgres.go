package database

import (
	"context"
	"fmt"
	"sort"
	"strings"

	"question-paper-rag/internal/models"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// Payload columns that may appear in filters and distinct-value lookups
var filterColumns = map[string]bool{
	"chapter":    true,
	"section":    true,
	"topic":      true,
	"chunk_type": true,
}

// DB represents the database connection
type DB struct {
	Pool *pgxpool.Pool
}

// NewDB creates a new database connection
func NewDB(connStr string) (*DB, error) {
	ctx := context.Background()
	pool, err := pgxpool.New(ctx, connStr)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	// Test connection
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	return &DB{Pool: pool}, nil
}

// Initialize sets up the chunk table and indices for vectors of the given dimension
func (db *DB) Initialize(ctx context.Context, dim int) error {
	if dim <= 0 {
		return fmt.Errorf("invalid vector dimension %d", dim)
	}

	if _, err := db.Pool.Exec(ctx, `CREATE EXTENSION IF NOT EXISTS vector`); err != nil {
		return fmt.Errorf("failed to create vector extension: %w", err)
	}

	_, err := db.Pool.Exec(ctx, fmt.Sprintf(`
        CREATE TABLE IF NOT EXISTS textbook_chunks (
            collection TEXT NOT NULL,
            chunk_id TEXT NOT NULL,
            content TEXT NOT NULL,
            chapter TEXT NOT NULL DEFAULT '',
            section TEXT NOT NULL DEFAULT '',
            topic TEXT NOT NULL DEFAULT '',
            chunk_type TEXT NOT NULL DEFAULT 'THEORY',
            page_start INTEGER NOT NULL DEFAULT 0,
            page_end INTEGER NOT NULL DEFAULT 0,
            embedding vector(%d) NOT NULL,
            PRIMARY KEY (collection, chunk_id)
        )
    `, dim))
	if err != nil {
		return fmt.Errorf("failed to create textbook_chunks table: %w", err)
	}

	// Create vector index
	_, err = db.Pool.Exec(ctx, `
		CREATE INDEX IF NOT EXISTS textbook_chunks_embedding_idx ON textbook_chunks
		USING ivfflat (embedding vector_cosine_ops) WITH (lists = 100)
	`)
	if err != nil {
		return fmt.Errorf("failed to create vector index: %w", err)
	}

	_, err = db.Pool.Exec(ctx, `
		CREATE INDEX IF NOT EXISTS textbook_chunks_scope_idx ON textbook_chunks (collection, chapter, topic)
	`)
	if err != nil {
		return fmt.Errorf("failed to create additional indices: %w", err)
	}

	return nil
}

// EnsureCollection prepares storage for a collection. Collections share one table,
// so this only makes sure the schema exists.
func (db *DB) EnsureCollection(ctx context.Context, collection string, dim int) error {
	return db.Initialize(ctx, dim)
}

// CollectionExists reports whether any chunk was indexed under the collection
func (db *DB) CollectionExists(ctx context.Context, collection string) (bool, error) {
	var exists bool
	err := db.Pool.QueryRow(ctx, `
		SELECT EXISTS (SELECT 1 FROM textbook_chunks WHERE collection = $1)
	`, collection).Scan(&exists)
	if err != nil {
		return false, fmt.Errorf("failed to check collection %q: %w", collection, err)
	}
	return exists, nil
}

// Upsert stores chunks with their embeddings, replacing rows with the same chunk id
func (db *DB) Upsert(ctx context.Context, collection string, chunks []models.Chunk) error {
	if len(chunks) == 0 {
		return nil
	}

	batch := &pgx.Batch{}
	for _, c := range chunks {
		if len(c.Vector) == 0 {
			return fmt.Errorf("chunk %q has no embedding", c.ID)
		}
		batch.Queue(`
            INSERT INTO textbook_chunks (
                collection, chunk_id, content, chapter, section, topic,
                chunk_type, page_start, page_end, embedding
            )
            VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10::float8[]::vector)
            ON CONFLICT (collection, chunk_id) DO UPDATE SET
                content = EXCLUDED.content,
                chapter = EXCLUDED.chapter,
                section = EXCLUDED.section,
                topic = EXCLUDED.topic,
                chunk_type = EXCLUDED.chunk_type,
                page_start = EXCLUDED.page_start,
                page_end = EXCLUDED.page_end,
                embedding = EXCLUDED.embedding
        `,
			collection,
			c.ID,
			c.Text,
			c.Chapter,
			c.Section,
			c.Topic,
			string(c.Role),
			c.PageStart,
			c.PageEnd,
			c.Vector)
	}

	if err := db.Pool.SendBatch(ctx, batch).Close(); err != nil {
		return fmt.Errorf("failed to store chunks: %w", err)
	}
	return nil
}

// Search finds chunks similar to the query embedding, restricted by exact-match filters
func (db *DB) Search(ctx context.Context, collection string, embedding []float64, filter map[string]string, limit int) ([]models.Chunk, error) {
	if limit <= 0 {
		limit = 10
	}

	where, args, err := buildWhere(collection, filter, 2)
	if err != nil {
		return nil, err
	}
	args = append([]any{embedding}, args...)
	args = append(args, limit)

	query := fmt.Sprintf(`
		SELECT chunk_id, content, chapter, section, topic, chunk_type,
		       page_start, page_end, 1 - (embedding <=> $1::float8[]::vector) AS score
		FROM textbook_chunks
		WHERE %s
		ORDER BY embedding <=> $1::float8[]::vector
		LIMIT $%d
	`, where, len(args))

	rows, err := db.Pool.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query similar chunks: %w", err)
	}
	return processRows(rows)
}

// DistinctValues lists the distinct non-empty values of a payload column
func (db *DB) DistinctValues(ctx context.Context, collection, field string, filter map[string]string) ([]string, error) {
	if !filterColumns[field] {
		return nil, fmt.Errorf("unsupported field %q", field)
	}

	where, args, err := buildWhere(collection, filter, 1)
	if err != nil {
		return nil, err
	}

	query := fmt.Sprintf(`
		SELECT DISTINCT %s FROM textbook_chunks WHERE %s AND %s != '' ORDER BY %s
	`, field, where, field, field)

	rows, err := db.Pool.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query distinct %s values: %w", field, err)
	}
	defer rows.Close()

	var values []string
	for rows.Next() {
		var v string
		if err := rows.Scan(&v); err != nil {
			return nil, fmt.Errorf("failed to scan %s: %w", field, err)
		}
		values = append(values, v)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating rows: %w", err)
	}

	return values, nil
}

// Close closes the database connection
func (db *DB) Close() {
	db.Pool.Close()
}

// buildWhere renders the collection and filter predicates with placeholders starting at first
func buildWhere(collection string, filter map[string]string, first int) (string, []any, error) {
	keys := make([]string, 0, len(filter))
	for k := range filter {
		if !filterColumns[k] {
			return "", nil, fmt.Errorf("unsupported filter field %q", k)
		}
		keys = append(keys, k)
	}
	sort.Strings(keys)

	clauses := []string{fmt.Sprintf("collection = $%d", first)}
	args := []any{collection}
	for i, k := range keys {
		clauses = append(clauses, fmt.Sprintf("%s = $%d", k, first+i+1))
		args = append(args, filter[k])
	}
	return strings.Join(clauses, " AND "), args, nil
}

func processRows(rows pgx.Rows) ([]models.Chunk, error) {
	defer rows.Close()

	var chunks []models.Chunk
	for rows.Next() {
		var (
			chunk     models.Chunk
			chunkType string
		)

		if err := rows.Scan(
			&chunk.ID,
			&chunk.Text,
			&chunk.Chapter,
			&chunk.Section,
			&chunk.Topic,
			&chunkType,
			&chunk.PageStart,
			&chunk.PageEnd,
			&chunk.Score); err != nil {
			return nil, fmt.Errorf("failed to scan row: %w", err)
		}
		chunk.Role = models.Role(chunkType)

		chunks = append(chunks, chunk)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating rows: %w", err)
	}

	return chunks, nil
}
