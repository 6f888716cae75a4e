package main

import (
	"context"
	"encoding/json"
	"errors"
	"flag"
	"fmt"
	"log"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"question-paper-rag/internal/assembler"
	"question-paper-rag/internal/backend"
	"question-paper-rag/internal/blueprint"
	"question-paper-rag/internal/config"
	"question-paper-rag/internal/diagram"
	"question-paper-rag/internal/llm"
	"question-paper-rag/internal/logger"
	"question-paper-rag/internal/mixer"
	"question-paper-rag/internal/models"
	"question-paper-rag/internal/pipeline"
	"question-paper-rag/internal/retrieval"
	"question-paper-rag/internal/topic"
)

func main() {
	// Parse command line flags
	envFile := flag.String("env", "", "Path to a .env file (default .env when present)")
	blueprintPath := flag.String("blueprint", "", "Path to a JSON or YAML blueprint")
	sectionsFlag := flag.String("sections", "", "Comma separated section IDs to generate (default all)")
	outPath := flag.String("out", "", "Write the paper JSON to this file (default stdout)")
	backendFlag := flag.String("backend", "", "Vector backend override: qdrant or pgvector")
	llmFlag := flag.String("llm", "", "LLM provider override: ollama, openai or anthropic")
	modelFlag := flag.String("model", "", "LLM model override")
	cacheFlag := flag.String("cache", "", "Cache backend override: sqlite, redis, memory or none")
	maxConcurrent := flag.Int("max-concurrent", 0, "Maximum in-flight retrieval/generation calls")
	withExamples := flag.Bool("examples", false, "Include worked examples in generation prompts")
	ignoreFingerprint := flag.Bool("ignore-fingerprint", false, "Reuse cached questions generated from other blueprints")
	judgeDiagrams := flag.Bool("judge-diagrams", false, "Ask the LLM whether each question needs a diagram")
	fontPath := flag.String("font", "", "TTF font for diagram labels")
	listTopics := flag.Bool("list-topics", false, "List indexed topics for -subject/-class and exit")
	subject := flag.String("subject", "", "Subject for -list-topics")
	class := flag.Int("class", 10, "Class level for -list-topics")
	chapter := flag.String("chapter", "", "Restrict -list-topics to one chapter")
	flag.Parse()

	var files []string
	if *envFile != "" {
		files = append(files, *envFile)
	}
	cfg, _, err := config.Load(files...)
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}
	overrideString(&cfg.VectorBackend, *backendFlag)
	overrideString(&cfg.LLMProvider, *llmFlag)
	overrideString(&cfg.LLMModel, *modelFlag)
	overrideString(&cfg.CacheBackend, *cacheFlag)
	if *maxConcurrent > 0 {
		cfg.MaxConcurrent = *maxConcurrent
	}
	if *ignoreFingerprint {
		cfg.CacheIgnoreFingerprint = true
	}
	if err := cfg.Validate(); err != nil {
		log.Fatalf("Invalid configuration: %v", err)
	}

	lg, err := logger.New(cfg.LogMode, cfg.LogLevel)
	if err != nil {
		log.Fatalf("Failed to create logger: %v", err)
	}
	defer lg.Sync()

	// Create context
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	store, err := backend.OpenVectorStore(cfg, lg)
	if err != nil {
		lg.Fatal("failed to open vector store", "backend", cfg.VectorBackend, "error", err)
	}
	defer store.Close()

	embedder, err := backend.NewEmbedder(cfg)
	if err != nil {
		lg.Fatal("failed to create embedder", "provider", cfg.EmbedProvider, "error", err)
	}

	resolver := topic.NewResolver()
	resolver.Threshold = cfg.TopicThreshold
	client := retrieval.NewClient(store, embedder, resolver, mixer.New(cfg.MixTarget), lg)
	client.Broaden = cfg.BroadenOnEmpty

	if *listTopics {
		if err := printTopics(ctx, client, *subject, *class, *chapter); err != nil {
			lg.Fatal("failed to list topics", "error", err)
		}
		return
	}

	if *blueprintPath == "" {
		log.Fatal("Blueprint path is required. Use -blueprint path/to/blueprint.json")
	}
	bp, err := blueprint.Load(*blueprintPath)
	if err != nil {
		lg.Fatal("failed to load blueprint", "path", *blueprintPath, "error", err)
	}

	completer, err := backend.NewCompleter(cfg)
	if err != nil {
		lg.Fatal("failed to create LLM client", "provider", cfg.LLMProvider, "error", err)
	}
	generator := llm.NewGenerator(completer, lg)

	questionCache, err := backend.OpenCache(ctx, cfg)
	if err != nil {
		lg.Warn("cache unavailable, continuing without it", "backend", cfg.CacheBackend, "error", err)
		questionCache = nil
	}
	if questionCache != nil {
		defer questionCache.Close()
	}

	var judge diagram.Judge
	if *judgeDiagrams {
		judge = generator
	}
	renderer, err := diagram.NewRenderer(*fontPath)
	if err != nil {
		lg.Fatal("failed to create diagram renderer", "error", err)
	}
	asm := assembler.New(diagram.NewResolver(judge), renderer, lg)
	asm.DiagramTimeout = cfg.DiagramTimeout

	p := pipeline.New(client, generator, asm, questionCache, pipeline.Options{
		MaxConcurrent:     cfg.MaxConcurrent,
		RetrievalTimeout:  cfg.RetrievalTimeout,
		GenerationTimeout: cfg.GenerationTimeout,
		IgnoreFingerprint: cfg.CacheIgnoreFingerprint,
		WithExamples:      *withExamples,
	}, lg)

	startTime := time.Now()
	paper, err := p.Generate(ctx, bp, splitSections(*sectionsFlag))
	if err != nil && !errors.Is(err, context.Canceled) {
		lg.Fatal("failed to generate paper", "error", err)
	}
	if err != nil {
		lg.Warn("generation interrupted, writing partial paper")
	}

	if err := writePaper(paper, *outPath); err != nil {
		lg.Fatal("failed to write paper", "error", err)
	}

	lg.Info("done", "elapsed", time.Since(startTime).Round(time.Millisecond).String())
	fmt.Fprint(os.Stderr, formatSummary(paper))
}

func overrideString(dst *string, v string) {
	if v = strings.TrimSpace(v); v != "" {
		*dst = strings.ToLower(v)
	}
}

func splitSections(s string) []string {
	var ids []string
	for _, part := range strings.Split(s, ",") {
		if part = strings.TrimSpace(part); part != "" {
			ids = append(ids, part)
		}
	}
	return ids
}

func printTopics(ctx context.Context, client *retrieval.Client, subject string, class int, chapter string) error {
	if subject == "" {
		return fmt.Errorf("-subject is required with -list-topics")
	}
	topics, err := client.Topics(ctx, subject, class, chapter)
	if err != nil {
		return err
	}
	fmt.Printf("Topics in %s:\n", retrieval.CollectionName(subject, class))
	for _, t := range topics {
		fmt.Println("  " + t)
	}
	return nil
}

func writePaper(paper models.Paper, path string) error {
	data, err := json.MarshalIndent(paper, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to encode paper: %w", err)
	}
	data = append(data, '\n')
	if path == "" {
		_, err = os.Stdout.Write(data)
		return err
	}
	return os.WriteFile(path, data, 0o644)
}

func formatSummary(paper models.Paper) string {
	var sb strings.Builder
	sb.WriteString(fmt.Sprintf("Paper %s: %d marks, %d failed questions\n", paper.PaperID, paper.TotalMarks, paper.Failed))
	for _, s := range paper.Sections {
		failed := 0
		for _, q := range s.Questions {
			if q.Failed() {
				failed++
			}
		}
		sb.WriteString(fmt.Sprintf("  %s %-24s %2d questions (attempt %d) %3d marks  easy/medium/hard %d/%d/%d",
			s.ID, s.Title, s.QuestionCount, s.AttemptCount, s.TotalMarks,
			s.Difficulty.Easy, s.Difficulty.Medium, s.Difficulty.Hard))
		if failed > 0 {
			sb.WriteString(fmt.Sprintf("  [%d failed]", failed))
		}
		sb.WriteString("\n")
	}
	return sb.String()
}
