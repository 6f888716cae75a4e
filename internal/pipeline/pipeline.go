// Package pipeline runs the per-question retrieval, generation and assembly
// flow for a whole blueprint and compiles the result into a paper.
package pipeline

import (
	"context"
	"fmt"
	"sync"
	"time"

	"question-paper-rag/internal/assembler"
	"question-paper-rag/internal/blueprint"
	"question-paper-rag/internal/cache"
	"question-paper-rag/internal/catalog"
	"question-paper-rag/internal/llm"
	"question-paper-rag/internal/logger"
	"question-paper-rag/internal/models"
	"question-paper-rag/internal/retrieval"
	"question-paper-rag/internal/section"

	"golang.org/x/sync/errgroup"
	"golang.org/x/sync/semaphore"
)

// DefaultMaxConcurrent bounds in-flight collaborator calls
const DefaultMaxConcurrent = 15

// Retriever fetches reference content for one slot
type Retriever interface {
	Retrieve(ctx context.Context, questionID string, req models.QuestionRequirement) models.RetrievalResult
}

// Generator writes one question from retrieved content
type Generator interface {
	Generate(ctx context.Context, req llm.Request) models.GeneratedContent
}

// Assembler merges retrieval and generation output into a record
type Assembler interface {
	Assemble(ctx context.Context, r models.RetrievalResult, g models.GeneratedContent) (models.AssembledQuestion, assembler.State)
}

// Options tune concurrency, timeouts and caching
type Options struct {
	MaxConcurrent     int
	RetrievalTimeout  time.Duration
	GenerationTimeout time.Duration
	// IgnoreFingerprint serves cached questions even when they came from another blueprint
	IgnoreFingerprint bool
	WithExamples      bool
}

// Pipeline generates questions and papers
type Pipeline struct {
	retriever Retriever
	generator Generator
	assembler Assembler
	cache     cache.Store
	sem       *semaphore.Weighted
	opts      Options
	log       *logger.Logger
	now       func() time.Time
}

// New creates a pipeline. store may be nil to disable caching.
func New(r Retriever, g Generator, a Assembler, store cache.Store, opts Options, log *logger.Logger) *Pipeline {
	if opts.MaxConcurrent < 1 {
		opts.MaxConcurrent = DefaultMaxConcurrent
	}
	if log == nil {
		log = logger.Nop()
	}
	return &Pipeline{
		retriever: r,
		generator: g,
		assembler: a,
		cache:     store,
		sem:       semaphore.NewWeighted(int64(opts.MaxConcurrent)),
		opts:      opts,
		log:       log.With("component", "pipeline"),
		now:       time.Now,
	}
}

// Slot is one question position to fill
type Slot struct {
	QuestionID   string
	SectionTitle string
	Requirement  models.QuestionRequirement
	Fingerprint  string
}

// Run tracks cache keys already served during one paper generation
type Run struct {
	seen sync.Map
}

// NewRun starts a fresh generation run
func NewRun() *Run {
	return &Run{}
}

// claim reports whether key is used for the first time in this run
func (r *Run) claim(key string) bool {
	if r == nil {
		return true
	}
	_, loaded := r.seen.LoadOrStore(key, struct{}{})
	return !loaded
}

// Question fills one slot. It always returns a record; failures are
// reported as placeholders tagged with the failing phase.
func (p *Pipeline) Question(ctx context.Context, run *Run, slot Slot) models.AssembledQuestion {
	req := slot.Requirement
	key := cache.Key(req)
	log := p.log.With("question_id", slot.QuestionID, "cache_key", key)

	if q, ok := p.cached(ctx, run, key, slot, log); ok {
		return q
	}

	res := p.retrieve(ctx, slot)

	var gen models.GeneratedContent
	if !res.Failed() {
		gen = p.generate(ctx, slot, res)
	}

	q, state := p.assembler.Assemble(ctx, res, gen)
	log.Info("question finished", "state", state, "topic", q.Topic)

	if state == assembler.StateAssembled && p.cache != nil && ctx.Err() == nil {
		if err := p.cache.Put(ctx, key, q, slot.Fingerprint); err != nil {
			log.Warn("cache write failed", "error", err)
		}
	}
	return q
}

func (p *Pipeline) cached(ctx context.Context, run *Run, key string, slot Slot, log *logger.Logger) (models.AssembledQuestion, bool) {
	if p.cache == nil || !run.claim(key) {
		return models.AssembledQuestion{}, false
	}

	entry, err := p.cache.Get(ctx, key)
	if err != nil {
		log.Warn("cache read failed", "error", err)
		return models.AssembledQuestion{}, false
	}
	if entry == nil || entry.Question.Failed() {
		return models.AssembledQuestion{}, false
	}
	if !p.opts.IgnoreFingerprint && entry.Fingerprint != slot.Fingerprint {
		log.Debug("cached question belongs to another blueprint", "cached_hash", entry.Fingerprint)
		return models.AssembledQuestion{}, false
	}

	q := entry.Question
	q.QuestionID = slot.QuestionID
	log.Info("cache hit", "used_count", entry.UsedCount)
	return q, true
}

func (p *Pipeline) retrieve(ctx context.Context, slot Slot) models.RetrievalResult {
	if err := p.sem.Acquire(ctx, 1); err != nil {
		return models.RetrievalResult{
			QuestionID:     slot.QuestionID,
			Chapter:        slot.Requirement.Chapter,
			Topic:          slot.Requirement.Topic,
			Format:         slot.Requirement.Format,
			Marks:          slot.Requirement.Marks,
			Difficulty:     slot.Requirement.Difficulty,
			CognitiveLevel: slot.Requirement.CognitiveLevel,
			Nature:         slot.Requirement.Nature,
			Chunks:         []models.Chunk{},
			Error:          fmt.Sprintf("retrieval cancelled: %v", err),
			ErrorKind:      string(retrieval.KindTimeout),
		}
	}
	defer p.sem.Release(1)

	rctx, cancel := withTimeout(ctx, p.opts.RetrievalTimeout)
	defer cancel()
	return p.retriever.Retrieve(rctx, slot.QuestionID, slot.Requirement)
}

func (p *Pipeline) generate(ctx context.Context, slot Slot, res models.RetrievalResult) models.GeneratedContent {
	if err := p.sem.Acquire(ctx, 1); err != nil {
		return models.GeneratedContent{Error: fmt.Sprintf("generation cancelled: %v", err), ErrorPhase: models.PhaseLLM}
	}
	defer p.sem.Release(1)

	req := slot.Requirement
	req.Chapter = res.Chapter
	req.Topic = res.Topic

	gctx, cancel := withTimeout(ctx, p.opts.GenerationTimeout)
	defer cancel()
	return p.generator.Generate(gctx, llm.Request{
		Requirement:  req,
		SectionTitle: slot.SectionTitle,
		Chunks:       res.Chunks,
		WithExamples: p.opts.WithExamples,
	})
}

// Generate builds a paper for the selected sections of a blueprint, all
// sections when sectionIDs is empty. Questions run concurrently; a context
// cancelled mid-run yields the partial paper together with the context error.
func (p *Pipeline) Generate(ctx context.Context, bp *blueprint.Blueprint, sectionIDs []string) (models.Paper, error) {
	sections, err := bp.Select(sectionIDs)
	if err != nil {
		return models.Paper{}, err
	}

	run := NewRun()
	results := make([][]models.AssembledQuestion, len(sections))

	g := new(errgroup.Group)
	g.SetLimit(p.opts.MaxConcurrent)

	for si, s := range sections {
		reqs := bp.Requirements(s)
		results[si] = make([]models.AssembledQuestion, len(reqs))
		p.log.Info("generating section", "section", s.ID, "questions", len(reqs))

		for qi, req := range reqs {
			slot := Slot{
				QuestionID:   catalog.QuestionID(req.Subject, req.ClassLevel, req.Chapter, req.Format, qi+1),
				SectionTitle: s.Name(),
				Requirement:  req,
				Fingerprint:  bp.Fingerprint,
			}
			g.Go(func() error {
				results[si][qi] = p.Question(ctx, run, slot)
				return nil
			})
		}
	}
	_ = g.Wait()

	compiled := make([]models.Section, 0, len(sections))
	seq := 1
	for si, s := range sections {
		compiled = append(compiled, section.Compile(results[si], blueprint.SectionSpec(s, seq)))
		seq += len(results[si])
	}

	paper := section.CompilePaper(bp.PaperMetadata(), compiled, p.now())
	p.log.Info("paper generated",
		"paper_id", paper.PaperID,
		"total_marks", paper.TotalMarks,
		"failed", paper.Failed)
	return paper, ctx.Err()
}

func withTimeout(ctx context.Context, d time.Duration) (context.Context, context.CancelFunc) {
	if d <= 0 {
		return context.WithCancel(ctx)
	}
	return context.WithTimeout(ctx, d)
}
