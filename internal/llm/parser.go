package llm

import (
	"encoding/json"
	"errors"
	"fmt"
	"regexp"
	"strings"

	"question-paper-rag/internal/diagram"
	"question-paper-rag/internal/models"
)

var (
	jsonFence     = regexp.MustCompile("(?s)```json\\s*(.*?)\\s*```")
	genericFence  = regexp.MustCompile("(?s)```\\s*(.*?)\\s*```")
	objectSpan    = regexp.MustCompile(`(?s)(\{.*\})`)
	trailingComma = regexp.MustCompile(`,(\s*[}\]])`)
)

// ErrNoJSON is returned when a reply holds no decodable JSON object
var ErrNoJSON = errors.New("no JSON object in model reply")

// ExtractJSON pulls the JSON payload out of a model reply that may be wrapped
// in markdown fences or surrounded by prose
func ExtractJSON(text string) string {
	for _, re := range []*regexp.Regexp{jsonFence, genericFence, objectSpan} {
		if m := re.FindStringSubmatch(text); m != nil {
			return strings.TrimSpace(m[1])
		}
	}
	return strings.TrimSpace(text)
}

// decodeObject decodes a JSON object, retrying once with common repairs:
// trailing commas, single quotes when no double quotes are present, and
// text outside the outermost braces.
func decodeObject(text string) (map[string]any, error) {
	payload := ExtractJSON(text)

	var out map[string]any
	if err := json.Unmarshal([]byte(payload), &out); err == nil && out != nil {
		return out, nil
	}

	repaired := trailingComma.ReplaceAllString(payload, "$1")
	if !strings.Contains(repaired, `"`) {
		repaired = strings.ReplaceAll(repaired, "'", `"`)
	}
	start, end := strings.Index(repaired, "{"), strings.LastIndex(repaired, "}")
	if start == -1 || end <= start {
		return nil, ErrNoJSON
	}
	repaired = repaired[start : end+1]

	if err := json.Unmarshal([]byte(repaired), &out); err != nil {
		return nil, fmt.Errorf("failed to decode model reply: %w", err)
	}
	if out == nil {
		return nil, ErrNoJSON
	}
	return out, nil
}

// ParseGenerated converts a model reply into generated content
func ParseGenerated(text string) (models.GeneratedContent, error) {
	obj, err := decodeObject(text)
	if err != nil {
		return models.GeneratedContent{}, err
	}

	g := models.GeneratedContent{
		QuestionText:       strings.TrimSpace(str(obj["question_text"])),
		CorrectAnswer:      strings.ToUpper(strings.TrimSpace(str(obj["correct_answer"]))),
		Explanation:        strings.TrimSpace(str(obj["explanation"])),
		DiagramNeeded:      truthy(obj["diagram_needed"]),
		DiagramDescription: strings.TrimSpace(str(obj["diagram_description"])),
	}

	switch opts := obj["options"].(type) {
	case []any:
		if len(opts) > 0 {
			g.Options = opts
		}
	case map[string]any:
		if len(opts) > 0 {
			g.Options = opts
		}
	}

	if hints, ok := obj["hints"].([]any); ok {
		for _, h := range hints {
			if s := strings.TrimSpace(str(h)); s != "" {
				g.Hints = append(g.Hints, s)
			}
		}
	}
	return g, nil
}

// ParseJudgment converts a diagram-need reply into a model signal
func ParseJudgment(text string) (diagram.Signal, error) {
	obj, err := decodeObject(text)
	if err != nil {
		return diagram.Signal{}, err
	}
	s := diagram.Signal{
		Needed:      truthy(obj["diagram_needed"]),
		Type:        diagram.ParseType(str(obj["diagram_type"])),
		Description: strings.TrimSpace(str(obj["diagram_description"])),
		Rationale:   strings.TrimSpace(str(obj["reasoning"])),
	}
	if !s.Needed {
		s.Type = diagram.None
	}
	return s, nil
}

func str(v any) string {
	switch t := v.(type) {
	case nil:
		return ""
	case string:
		return t
	default:
		return fmt.Sprint(t)
	}
}

func truthy(v any) bool {
	switch t := v.(type) {
	case bool:
		return t
	case string:
		switch strings.ToLower(strings.TrimSpace(t)) {
		case "true", "yes", "1":
			return true
		}
	}
	return false
}
