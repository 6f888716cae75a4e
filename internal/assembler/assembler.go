// Package assembler merges retrieval output, generated text and diagram
// output into one question record, isolating failures per phase.
package assembler

import (
	"context"
	"fmt"
	"strings"
	"time"

	"question-paper-rag/internal/diagram"
	"question-paper-rag/internal/logger"
	"question-paper-rag/internal/models"
)

// State is the terminal state of one assembly
type State string

const (
	StateRetrievalFailed   State = "RETRIEVAL_FAILED"
	StateGenerationFailed  State = "GENERATION_FAILED"
	StateAssemblyException State = "ASSEMBLY_EXCEPTION"
	StateAssembled         State = "ASSEMBLED"
)

// DiagramResolver decides whether a question needs a figure
type DiagramResolver interface {
	Resolve(ctx context.Context, questionText, topic, chapter, format string, hint diagram.Signal) diagram.Decision
}

// Assembler builds AssembledQuestion records
type Assembler struct {
	resolver DiagramResolver
	builder  diagram.Builder
	log      *logger.Logger

	// DiagramTimeout bounds diagram resolution and rendering; zero means no limit
	DiagramTimeout time.Duration
}

// New creates an assembler. builder may be nil, in which case diagrams are
// described but never rendered.
func New(resolver DiagramResolver, builder diagram.Builder, log *logger.Logger) *Assembler {
	if resolver == nil {
		resolver = diagram.NewResolver(nil)
	}
	if log == nil {
		log = logger.Nop()
	}
	return &Assembler{
		resolver: resolver,
		builder:  builder,
		log:      log.With("component", "assembler"),
	}
}

// Assemble produces exactly one record for a question slot. Retrieval
// errors are checked first, then generation errors; anything that goes
// wrong while merging is recovered and blamed on assembly.
func (a *Assembler) Assemble(ctx context.Context, r models.RetrievalResult, g models.GeneratedContent) (models.AssembledQuestion, State) {
	if r.Failed() {
		a.log.Warn("retrieval failed, emitting placeholder", "question_id", r.QuestionID, "error", r.Error)
		return failed(r, "RETRIEVAL ERROR", r.Error, models.PhaseRetrieval), StateRetrievalFailed
	}

	if g.Failed() {
		phase := g.ErrorPhase
		if phase == models.PhaseNone {
			phase = models.PhaseLLM
		}
		a.log.Warn("generation failed, emitting placeholder", "question_id", r.QuestionID, "phase", phase, "error", g.Error)
		return failed(r, "LLM ERROR", g.Error, phase), StateGenerationFailed
	}
	if err := g.Validate(r.Format); err != nil {
		a.log.Warn("generated content rejected", "question_id", r.QuestionID, "error", err)
		return failed(r, "LLM ERROR", err.Error(), models.PhaseParse), StateGenerationFailed
	}

	q, err := a.merge(ctx, r, g)
	if err != nil {
		a.log.Error("assembly failed", "question_id", r.QuestionID, "error", err)
		return failed(r, "ASSEMBLY ERROR", err.Error(), models.PhaseAssembly), StateAssemblyException
	}

	a.log.Debug("question assembled", "question_id", q.QuestionID, "has_diagram", q.HasDiagram)
	return q, StateAssembled
}

func (a *Assembler) merge(ctx context.Context, r models.RetrievalResult, g models.GeneratedContent) (q models.AssembledQuestion, err error) {
	defer func() {
		if p := recover(); p != nil {
			err = fmt.Errorf("panic during assembly: %v", p)
		}
	}()

	q = base(r)
	q.QuestionText = strings.TrimSpace(g.QuestionText)
	q.CorrectAnswer = strings.TrimSpace(g.CorrectAnswer)
	if letter, ok := models.AnswerLetter(q.CorrectAnswer); ok && r.Format == models.FormatMCQ {
		q.CorrectAnswer = letter
	}
	q.Explanation = g.Explanation
	if opts := models.NormalizeOptions(g.Options); len(opts) > 0 {
		q.Options = opts
	}

	dctx := ctx
	if a.DiagramTimeout > 0 {
		var cancel context.CancelFunc
		dctx, cancel = context.WithTimeout(ctx, a.DiagramTimeout)
		defer cancel()
	}

	decision := a.resolver.Resolve(dctx, q.QuestionText, r.Topic, r.Chapter, string(r.Format),
		diagram.Hint(g.DiagramNeeded, g.DiagramDescription))
	if decision.ModelError != "" {
		a.log.Warn("diagram judgment unavailable", "question_id", r.QuestionID, "error", decision.ModelError)
	}

	if decision.Needed {
		q.HasDiagram = true
		q.DiagramDescription = decision.Description
		if decision.Type != "" && decision.Type != diagram.None {
			q.DiagramType = string(decision.Type)
			a.render(dctx, &q, decision, r.Topic)
		}
	}

	q.Tags = tags(r.Chapter, r.Topic, r.Nature, q)
	return q, nil
}

// render attaches a diagram asset. A builder failure leaves the question
// described but without an asset.
func (a *Assembler) render(ctx context.Context, q *models.AssembledQuestion, d diagram.Decision, topic string) {
	if a.builder == nil {
		return
	}

	el := diagram.InferElements(d.Type, q.QuestionText, topic)
	asset, err := a.builder.Build(ctx, d.Description, d.Type, el)
	if err != nil {
		a.log.Warn("diagram build failed", "question_id", q.QuestionID, "type", d.Type, "error", err)
		return
	}
	q.DiagramAssets = []models.DiagramAsset{asset}
}

func base(r models.RetrievalResult) models.AssembledQuestion {
	return models.AssembledQuestion{
		QuestionID:     r.QuestionID,
		Chapter:        r.Chapter,
		Topic:          r.Topic,
		Format:         r.Format,
		Marks:          r.Marks,
		Difficulty:     r.Difficulty,
		CognitiveLevel: r.CognitiveLevel,
		Nature:         r.Nature,
		Tags:           []string{},
		Status:         models.StatusSuccess,
	}
}

func failed(r models.RetrievalResult, label, msg string, phase models.Phase) models.AssembledQuestion {
	if strings.TrimSpace(msg) == "" {
		msg = "unknown error"
	}
	q := base(r)
	q.QuestionText = fmt.Sprintf("[%s: %s]", label, msg)
	q.Status = models.StatusFailed
	q.Error = msg
	q.ErrorPhase = phase
	return q
}

func tags(chapter, topic, nature string, q models.AssembledQuestion) []string {
	out := []string{}
	for _, t := range []string{slug(chapter), slug(topic), strings.ToLower(strings.TrimSpace(nature))} {
		if t != "" {
			out = append(out, t)
		}
	}
	if q.HasDiagram && q.DiagramType != "" {
		out = append(out, q.DiagramType)
	}
	return out
}

func slug(s string) string {
	return strings.Join(strings.Fields(strings.ToLower(s)), "-")
}
