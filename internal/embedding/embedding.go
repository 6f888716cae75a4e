// Package embedding turns text into vectors for similarity search.
package embedding

import (
	"context"
	"fmt"
	"sync"
	"time"

	"question-paper-rag/internal/models"

	"golang.org/x/sync/errgroup"
)

// Embedder converts text into a fixed-length vector
type Embedder interface {
	Embed(ctx context.Context, text string) ([]float64, error)
	Model() string
}

// withRetry calls fn up to retries+1 times with a linear back-off.
// It stops early when the context is done.
func withRetry(ctx context.Context, retries int, fn func() ([]float64, error)) ([]float64, error) {
	var err error
	for attempt := 0; attempt <= retries; attempt++ {
		if attempt > 0 {
			select {
			case <-ctx.Done():
				return nil, fmt.Errorf("embedding cancelled after %d attempts: %w", attempt, ctx.Err())
			case <-time.After(time.Duration(attempt) * time.Second):
			}
		}

		var v []float64
		v, err = fn()
		if err == nil {
			return v, nil
		}
		if ctx.Err() != nil {
			return nil, err
		}
	}
	return nil, fmt.Errorf("failed to create embedding after %d retries: %w", retries, err)
}

// EmbedChunks fills Vector on every chunk using up to maxConcurrent requests.
// progress, when set, is called after each chunk completes.
func EmbedChunks(ctx context.Context, e Embedder, chunks []models.Chunk, maxConcurrent int,
	progress func(processed, total int)) error {

	if maxConcurrent < 1 {
		maxConcurrent = 1
	}

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(maxConcurrent)

	var mu sync.Mutex
	processed := 0
	total := len(chunks)

	for i := range chunks {
		g.Go(func() error {
			vec, err := e.Embed(gctx, chunks[i].Text)
			if err != nil {
				return fmt.Errorf("failed to embed chunk %s: %w", chunks[i].ID, err)
			}

			mu.Lock()
			defer mu.Unlock()
			chunks[i].Vector = vec
			processed++
			if progress != nil {
				progress(processed, total)
			}
			return nil
		})
	}

	return g.Wait()
}
