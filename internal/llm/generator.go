package llm

import (
	"context"
	"errors"
	"fmt"

	"question-paper-rag/internal/diagram"
	"question-paper-rag/internal/logger"
	"question-paper-rag/internal/models"
)

// Completer sends a single prompt to a text model and returns its raw reply
type Completer interface {
	Complete(ctx context.Context, system, prompt string) (string, error)
	Name() string
}

// Generator writes questions and judges diagram need through a Completer
type Generator struct {
	completer Completer
	log       *logger.Logger
}

// NewGenerator wraps a completer
func NewGenerator(c Completer, log *logger.Logger) *Generator {
	if log == nil {
		log = logger.Nop()
	}
	return &Generator{completer: c, log: log.With("component", "generator", "provider", c.Name())}
}

// Generate produces content for one question. Failures are reported on the
// returned value with phase "llm" for transport errors and "parse" for
// replies that cannot be used.
func (g *Generator) Generate(ctx context.Context, req Request) models.GeneratedContent {
	reply, err := g.completer.Complete(ctx, systemPrompt, BuildPrompt(req))
	if err != nil {
		if errors.Is(err, context.DeadlineExceeded) || errors.Is(ctx.Err(), context.DeadlineExceeded) {
			err = fmt.Errorf("generation timed out: %w", err)
		}
		g.log.Warn("generation failed", "topic", req.Requirement.Topic, "error", err)
		return models.GeneratedContent{Error: err.Error(), ErrorPhase: models.PhaseLLM}
	}

	content, err := ParseGenerated(reply)
	if err != nil {
		g.log.Warn("could not parse generated question", "topic", req.Requirement.Topic, "error", err)
		return models.GeneratedContent{Error: err.Error(), ErrorPhase: models.PhaseParse}
	}
	if err := content.Validate(req.Requirement.Format); err != nil {
		g.log.Warn("generated question rejected", "topic", req.Requirement.Topic, "error", err)
		return models.GeneratedContent{Error: err.Error(), ErrorPhase: models.PhaseParse}
	}

	g.log.Debug("question generated", "topic", req.Requirement.Topic, "format", req.Requirement.Format)
	return content
}

// JudgeDiagramNeed asks the model whether a question needs a figure
func (g *Generator) JudgeDiagramNeed(ctx context.Context, questionText string, c diagram.Context) (diagram.Signal, error) {
	reply, err := g.completer.Complete(ctx, systemPrompt, BuildDiagramPrompt(questionText, c))
	if err != nil {
		return diagram.Signal{}, fmt.Errorf("failed to judge diagram need: %w", err)
	}
	return ParseJudgment(reply)
}
