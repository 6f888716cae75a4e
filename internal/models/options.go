package models

import (
	"errors"
	"fmt"
	"regexp"
	"strings"
)

var optionPrefix = regexp.MustCompile(`^\s*\(?([A-Za-z])[\)\.:]\s*(.*)$`)

// NormalizeOptions converts a generator's options into a letter-to-text map.
// Accepts a list of "A) text" strings, a plain list, a keyed map, or an
// already normalized map. Unknown shapes yield an empty map.
func NormalizeOptions(raw any) map[string]string {
	out := map[string]string{}

	switch v := raw.(type) {
	case nil:
		return out
	case map[string]string:
		for k, text := range v {
			out[optionKey(k)] = strings.TrimSpace(text)
		}
	case map[string]any:
		for k, text := range v {
			out[optionKey(k)] = strings.TrimSpace(fmt.Sprint(text))
		}
	case []string:
		for i, item := range v {
			letter, text := splitOption(i, item)
			out[letter] = text
		}
	case []any:
		for i, item := range v {
			letter, text := splitOption(i, fmt.Sprint(item))
			out[letter] = text
		}
	}

	return out
}

func optionKey(k string) string {
	k = strings.TrimSpace(k)
	if m := optionPrefix.FindStringSubmatch(k); m != nil && m[2] == "" {
		return strings.ToUpper(m[1])
	}
	return strings.ToUpper(k)
}

func splitOption(i int, item string) (string, string) {
	if m := optionPrefix.FindStringSubmatch(item); m != nil {
		return strings.ToUpper(m[1]), strings.TrimSpace(m[2])
	}
	return string(rune('A' + i)), strings.TrimSpace(item)
}

// Validate checks that generated content is usable for the given format
func (g GeneratedContent) Validate(format Format) error {
	if strings.TrimSpace(g.QuestionText) == "" {
		return errors.New("question text is empty")
	}

	if format == FormatMCQ {
		opts := NormalizeOptions(g.Options)
		if len(opts) != 4 {
			return fmt.Errorf("MCQ must have exactly 4 options, got %d", len(opts))
		}
		for _, letter := range []string{"A", "B", "C", "D"} {
			if _, ok := opts[letter]; !ok {
				return fmt.Errorf("MCQ option %s is missing", letter)
			}
		}
	}

	if ans := strings.TrimSpace(g.CorrectAnswer); ans != "" && format == FormatMCQ {
		if _, ok := AnswerLetter(ans); !ok {
			return fmt.Errorf("correct answer %q is not one of A-D", ans)
		}
	}

	return nil
}

// AnswerLetter extracts the option letter from an answer written as "B",
// "b)", "B." or "B: 4". Words that merely start with A-D are rejected.
func AnswerLetter(ans string) (string, bool) {
	ans = strings.ToUpper(strings.TrimSpace(ans))
	if ans == "" || !strings.ContainsRune("ABCD", rune(ans[0])) {
		return "", false
	}
	if len(ans) > 1 && !strings.ContainsRune(").:", rune(ans[1])) {
		return "", false
	}
	return ans[:1], true
}
