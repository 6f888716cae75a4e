package diagram

import (
	"regexp"
	"strconv"
	"strings"
)

// Point is a labelled coordinate
type Point struct {
	Label string  `json:"label"`
	X     float64 `json:"x"`
	Y     float64 `json:"y"`
}

// Datum is one bar or slice of a chart
type Datum struct {
	Label string  `json:"label"`
	Value float64 `json:"value"`
}

// Elements are the structural hints handed to a diagram builder
type Elements struct {
	Shape       string     `json:"shape,omitempty"`
	Vertices    []string   `json:"vertices,omitempty"`
	Center      [2]float64 `json:"center,omitempty"`
	CenterLabel string     `json:"center_label,omitempty"`
	Radius      float64    `json:"radius,omitempty"`
	Points      []Point    `json:"points,omitempty"`
	ChartType   string     `json:"chart_type,omitempty"`
	Data        []Datum    `json:"data,omitempty"`
}

var (
	triangleName = regexp.MustCompile(`(?:triangle|△|Δ)\s*([A-Z])([A-Z])([A-Z])\b`)
	centreName   = regexp.MustCompile(`(?i)cent(?:re|er)\s+([A-Z])\b`)
	pointPattern = regexp.MustCompile(`\b([A-Z])\s*\(\s*(-?\d+(?:\.\d+)?)\s*,\s*(-?\d+(?:\.\d+)?)\s*\)`)
	dataPattern  = regexp.MustCompile(`(\d+\s*[-–]\s*\d+|[A-Za-z][A-Za-z ]{0,15}?)\s*[:=]\s*(\d+(?:\.\d+)?)`)
)

// InferElements derives the structure of a diagram from the question text
func InferElements(t Type, questionText, topic string) Elements {
	lower := strings.ToLower(questionText + " " + topic)

	switch t {
	case Geometric:
		switch {
		case strings.Contains(lower, "triangle") || strings.ContainsAny(questionText, "△Δ"):
			el := Elements{Shape: "triangle", Vertices: []string{"A", "B", "C"}}
			if m := triangleName.FindStringSubmatch(questionText); m != nil {
				el.Vertices = []string{m[1], m[2], m[3]}
			}
			return el
		case strings.Contains(lower, "circle"):
			el := Elements{Shape: "circle", Center: [2]float64{150, 150}, Radius: 60, CenterLabel: "O"}
			if m := centreName.FindStringSubmatch(questionText); m != nil {
				el.CenterLabel = m[1]
			}
			return el
		case containsAny(lower, "tower", "height", "elevation", "depression", "ladder", "shadow", "pole", "kite"):
			return Elements{Shape: "right_triangle", Vertices: []string{"A", "B", "C"}}
		}
		return Elements{}

	case Coordinate:
		el := Elements{Shape: "plane", Points: []Point{}}
		for _, m := range pointPattern.FindAllStringSubmatch(questionText, -1) {
			x, _ := strconv.ParseFloat(m[2], 64)
			y, _ := strconv.ParseFloat(m[3], 64)
			el.Points = append(el.Points, Point{Label: m[1], X: x, Y: y})
		}
		return el

	case Chart:
		el := Elements{ChartType: "bar", Data: []Datum{}}
		switch {
		case strings.Contains(lower, "histogram"):
			el.ChartType = "histogram"
		case strings.Contains(lower, "pie chart"):
			el.ChartType = "pie"
		}
		for _, m := range dataPattern.FindAllStringSubmatch(questionText, -1) {
			v, _ := strconv.ParseFloat(m[2], 64)
			el.Data = append(el.Data, Datum{Label: strings.TrimSpace(m[1]), Value: v})
		}
		return el
	}

	return Elements{}
}

func containsAny(s string, words ...string) bool {
	for _, w := range words {
		if strings.Contains(s, w) {
			return true
		}
	}
	return false
}
