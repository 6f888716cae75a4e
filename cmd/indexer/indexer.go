package main

import (
	"context"
	"flag"
	"log"
	"os"
	"os/signal"
	"runtime"
	"sort"
	"strings"
	"syscall"
	"time"

	"question-paper-rag/internal/backend"
	"question-paper-rag/internal/config"
	"question-paper-rag/internal/embedding"
	"question-paper-rag/internal/logger"
	"question-paper-rag/internal/models"
	"question-paper-rag/internal/processor"
	"question-paper-rag/internal/retrieval"
)

const upsertBatchSize = 64

func main() {
	// Parse command line flags
	envFile := flag.String("env", "", "Path to a .env file (default .env when present)")
	pdfPath := flag.String("pdf", "", "Path to a textbook chapter PDF (required)")
	subject := flag.String("subject", "", "Subject the textbook belongs to (required)")
	class := flag.Int("class", 10, "Class level")
	chapter := flag.String("chapter", "", "Chapter name stored on every chunk (required)")
	backendFlag := flag.String("backend", "", "Vector backend override: qdrant or pgvector")
	chunkSize := flag.Int("chunk-size", 1000, "Character size for text chunks")
	chunkOverlap := flag.Int("chunk-overlap", 200, "Character overlap between chunks")
	maxConcurrent := flag.Int("max-concurrent", runtime.NumCPU()/2, "Maximum concurrent embedding requests")
	dryRun := flag.Bool("dry-run", false, "Chunk the PDF and print statistics without embedding or storing")
	flag.Parse()

	// Validate required flags
	if *pdfPath == "" || *subject == "" || *chapter == "" {
		log.Fatal("-pdf, -subject and -chapter are required")
	}
	if _, err := os.Stat(*pdfPath); os.IsNotExist(err) {
		log.Fatalf("PDF file does not exist: %s", *pdfPath)
	}

	var files []string
	if *envFile != "" {
		files = append(files, *envFile)
	}
	cfg, _, err := config.Load(files...)
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}
	if *backendFlag != "" {
		cfg.VectorBackend = strings.ToLower(strings.TrimSpace(*backendFlag))
		if err := cfg.Validate(); err != nil {
			log.Fatalf("Invalid configuration: %v", err)
		}
	}

	lg, err := logger.New(cfg.LogMode, cfg.LogLevel)
	if err != nil {
		log.Fatalf("Failed to create logger: %v", err)
	}
	defer lg.Sync()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	collection := retrieval.CollectionName(*subject, *class)
	lg = lg.With("collection", collection, "chapter", *chapter)

	// Process PDF
	startTime := time.Now()
	pdfProcessor := processor.NewPDFProcessor(*chapter, *chunkSize, *chunkOverlap)
	chunks, err := pdfProcessor.ProcessPDF(ctx, *pdfPath)
	if err != nil {
		lg.Fatal("failed to process PDF", "path", *pdfPath, "error", err)
	}
	lg.Info("extracted chunks", "chunks", len(chunks), "elapsed", time.Since(startTime).String())
	printChunkStatistics(lg, chunks)

	if *dryRun || len(chunks) == 0 {
		return
	}

	embedder, err := backend.NewEmbedder(cfg)
	if err != nil {
		lg.Fatal("failed to create embedder", "provider", cfg.EmbedProvider, "error", err)
	}

	store, err := backend.OpenVectorStore(cfg, lg)
	if err != nil {
		lg.Fatal("failed to open vector store", "backend", cfg.VectorBackend, "error", err)
	}
	defer store.Close()

	if err := store.EnsureCollection(ctx, collection, cfg.EmbedDimension); err != nil {
		lg.Fatal("failed to prepare collection", "error", err)
	}

	// Create embeddings with progress reporting
	embeddingStart := time.Now()
	progressFunc := func(processed, total int) {
		if processed%25 != 0 && processed != total {
			return
		}
		elapsed := time.Since(embeddingStart)
		remaining := elapsed*time.Duration(total)/time.Duration(processed) - elapsed
		lg.Info("embedding progress",
			"processed", processed,
			"total", total,
			"remaining", remaining.Round(time.Second).String())
	}
	if err := embedding.EmbedChunks(ctx, embedder, chunks, *maxConcurrent, progressFunc); err != nil {
		lg.Fatal("failed to create embeddings", "model", embedder.Model(), "error", err)
	}

	// Store chunks in batches
	storeStart := time.Now()
	stored := 0
	for start := 0; start < len(chunks); start += upsertBatchSize {
		end := min(start+upsertBatchSize, len(chunks))
		if err := store.Upsert(ctx, collection, chunks[start:end]); err != nil {
			lg.Fatal("failed to store chunks", "stored", stored, "error", err)
		}
		stored = end
	}

	lg.Info("indexing complete",
		"chunks", stored,
		"embedding", storeStart.Sub(embeddingStart).Round(time.Millisecond).String(),
		"storage", time.Since(storeStart).Round(time.Millisecond).String(),
		"total", time.Since(startTime).Round(time.Millisecond).String())
}

// printChunkStatistics logs role and topic breakdowns of the extracted chunks
func printChunkStatistics(lg *logger.Logger, chunks []models.Chunk) {
	if len(chunks) == 0 {
		lg.Warn("no chunks extracted")
		return
	}

	totalLength := 0
	roles := make(map[models.Role]int)
	topics := make(map[string]int)
	for _, c := range chunks {
		totalLength += len(c.Text)
		roles[c.Role]++
		topics[c.Topic]++
	}

	lg.Info("chunk statistics",
		"chunks", len(chunks),
		"avg_length", float64(totalLength)/float64(len(chunks)),
		"theory", roles[models.RoleTheory],
		"worked_examples", roles[models.RoleWorkedExample],
		"exercises", roles[models.RoleExercisePattern])

	names := make([]string, 0, len(topics))
	for t := range topics {
		names = append(names, t)
	}
	sort.Strings(names)
	for _, t := range names {
		lg.Debug("topic", "topic", t, "chunks", topics[t])
	}
}
