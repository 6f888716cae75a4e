package cache

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"errors"

	"question-paper-rag/internal/models"
)

// ErrNotInitialized is returned when a store is used after Close or before Open
var ErrNotInitialized = errors.New("cache store not initialized")

// Store persists assembled questions by requirement key.
// Get returns nil, nil on a miss and bumps the use counter on a hit.
type Store interface {
	Get(ctx context.Context, key string) (*models.CacheEntry, error)
	Put(ctx context.Context, key string, question models.AssembledQuestion, fingerprint string) error
	Close() error
}

// Key derives a stable 16-hex-character key from the fields that define a question slot
func Key(req models.QuestionRequirement) string {
	// encoding/json writes map keys in sorted order.
	fields := map[string]any{
		"class":      req.ClassLevel,
		"subject":    req.Subject,
		"chapter":    req.Chapter,
		"topic":      req.Topic,
		"format":     string(req.Format),
		"marks":      req.Marks,
		"difficulty": string(req.Difficulty),
		"nature":     req.Nature,
	}
	data, _ := json.Marshal(fields)
	sum := sha256.Sum256(data)
	return hex.EncodeToString(sum[:])[:16]
}

// Fingerprint hashes a blueprint document
func Fingerprint(data []byte) string {
	sum := sha256.Sum256(data)
	return hex.EncodeToString(sum[:])
}
