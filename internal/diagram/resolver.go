// Package diagram decides whether a question needs a figure and renders it.
package diagram

import (
	"context"
	"fmt"
	"strings"
)

// Type is the category of diagram a question calls for
type Type string

const (
	None       Type = "none"
	Geometric  Type = "geometric"
	Coordinate Type = "coordinate"
	Chart      Type = "chart"
)

// ParseType maps loose model output onto a known Type
func ParseType(s string) Type {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "geometric", "geometry", "construction", "shape":
		return Geometric
	case "coordinate", "coordinates", "graph", "cartesian":
		return Coordinate
	case "chart", "graphical", "histogram", "bar", "pie", "statistical":
		return Chart
	default:
		return None
	}
}

// Signal is one detector's opinion on diagram need
type Signal struct {
	Needed      bool   `json:"needed"`
	Type        Type   `json:"type"`
	Description string `json:"description,omitempty"`
	Rationale   string `json:"rationale,omitempty"`
}

// Decision is the merged outcome of the rule and model signals
type Decision struct {
	Needed      bool   `json:"needed"`
	Type        Type   `json:"type"`
	Description string `json:"description,omitempty"`
	Rule        Signal `json:"rule"`
	Model       Signal `json:"model"`
	ModelError  string `json:"model_error,omitempty"`
}

type category struct {
	t        Type
	keywords []string
}

// Checked in order; the first category with a hit wins.
var categories = []category{
	{Geometric, []string{
		"triangle", "circle", "quadrilateral", "polygon", "angle", "∠", "vertex", "vertices",
		"side", "radius", "diameter", "chord", "tangent", "congruence", "similarity",
		"pythagoras", "perpendicular", "parallel", "intersecting",
		"sin", "cos", "tan", "cot", "sec", "cosec",
		"elevation", "depression", "height", "tower", "shadow", "ladder", "pole",
	}},
	{Coordinate, []string{
		"graph", "plot", "coordinate", "axis", "point", "line", "slope", "intercept",
		"distance", "midpoint", "quadrant", "x-coordinate", "y-coordinate",
	}},
	{Chart, []string{
		"histogram", "bar chart", "pie chart", "frequency", "class interval", "ogive",
		"data interpretation", "graph", "distribution",
	}},
}

// Detect scans the question text, topic and chapter for diagram keywords
func Detect(questionText, topic, chapter string) Signal {
	text := strings.ToLower(questionText + " " + topic + " " + chapter)
	for _, c := range categories {
		for _, kw := range c.keywords {
			if strings.Contains(text, kw) {
				return Signal{Needed: true, Type: c.t, Rationale: "Detected keyword: " + kw}
			}
		}
	}
	return Signal{Type: None, Rationale: "No diagram keywords detected"}
}

// Merge combines the rule and model signals. Need is their disjunction;
// the type comes from the rule when it fired, the description from the
// model when it gave one.
func Merge(rule, model Signal) Decision {
	d := Decision{
		Needed: rule.Needed || model.Needed,
		Type:   None,
		Rule:   rule,
		Model:  model,
	}

	switch {
	case rule.Needed && rule.Type != "" && rule.Type != None:
		d.Type = rule.Type
	case model.Needed && model.Type != "":
		d.Type = model.Type
	}

	if model.Description != "" {
		d.Description = model.Description
	} else {
		d.Description = rule.Rationale
	}
	return d
}

// Context is what the model is told about a question when judging diagram need
type Context struct {
	Topic   string
	Chapter string
	Format  string
}

// Judge asks an external model whether a question needs a diagram
type Judge interface {
	JudgeDiagramNeed(ctx context.Context, questionText string, c Context) (Signal, error)
}

// Resolver merges the keyword rule with an optional model judgment
type Resolver struct {
	Judge Judge
}

// NewResolver creates a resolver; judge may be nil to use the rule alone
func NewResolver(judge Judge) *Resolver {
	return &Resolver{Judge: judge}
}

// Resolve decides diagram need for one question. hint is the generator's own
// opinion and stands in for the model signal when no judge is configured.
// A failing judge falls back to hint and is recorded on the decision.
func (r *Resolver) Resolve(ctx context.Context, questionText, topic, chapter, format string, hint Signal) Decision {
	rule := Detect(questionText, topic, chapter)

	model := hint
	var modelErr error
	if r != nil && r.Judge != nil {
		judged, err := r.Judge.JudgeDiagramNeed(ctx, questionText, Context{Topic: topic, Chapter: chapter, Format: format})
		if err != nil {
			modelErr = err
		} else {
			model = judged
		}
	}

	d := Merge(rule, model)
	if modelErr != nil {
		d.ModelError = fmt.Sprintf("diagram judgment failed: %v", modelErr)
	}
	return d
}

// Hint wraps the generator's diagram fields as a model signal
func Hint(needed bool, description string) Signal {
	return Signal{Needed: needed, Type: None, Description: description}
}
