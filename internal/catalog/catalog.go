// Package catalog holds the static abbreviation tables used to build
// question identifiers.
package catalog

import (
	"fmt"
	"strings"

	"question-paper-rag/internal/models"
)

var subjectCodes = map[string]string{
	"mathematics":      "MATH",
	"science":          "SCI",
	"english":          "ENG",
	"physics":          "PHY",
	"chemistry":        "CHEM",
	"biology":          "BIO",
	"history":          "HIST",
	"geography":        "GEO",
	"social science":   "SST",
	"computer science": "CS",
}

var chapterCodes = map[string]string{
	"real numbers":                              "REA",
	"polynomials":                               "POL",
	"pair of linear equations in two variables": "LIN",
	"quadratic equations":                       "QUAD",
	"arithmetic progressions":                   "AP",
	"coordinate geometry":                       "COG",
	"triangles":                                 "TRI",
	"circles":                                   "CIR",
	"constructions":                             "CON",
	"mensuration":                               "MEN",
	"statistics":                                "STA",
	"probability":                               "PRO",
	"introduction to trigonometry":              "TRI",
	"some applications of trigonometry":         "APP",
}

var formatCodes = map[models.Format]string{
	models.FormatMCQ:       "MCQ",
	models.FormatVeryShort: "VSQ",
	models.FormatShort:     "SA",
	models.FormatLong:      "LA",
	models.FormatCaseStudy: "CS",
}

// SubjectCode returns the short code for a subject name
func SubjectCode(subject string) string {
	if code, ok := subjectCodes[strings.ToLower(strings.TrimSpace(subject))]; ok {
		return code
	}
	return strings.ToUpper(prefix(strings.TrimSpace(subject), 4))
}

// ChapterCode returns the short code for a chapter name. Unknown chapters
// use the initials of their words, at most four; a blank name is GEN.
func ChapterCode(chapter string) string {
	if code, ok := chapterCodes[strings.ToLower(strings.TrimSpace(chapter))]; ok {
		return code
	}
	var initials []rune
	for _, word := range strings.Fields(chapter) {
		if len(initials) == 4 {
			break
		}
		initials = append(initials, []rune(word)[0])
	}
	if len(initials) == 0 {
		return "GEN"
	}
	return strings.ToUpper(string(initials))
}

// FormatCode returns the short code for a question format
func FormatCode(format models.Format) string {
	f := models.Format(strings.ToUpper(strings.TrimSpace(string(format))))
	if code, ok := formatCodes[f]; ok {
		return code
	}
	return prefix(string(f), 3)
}

// prefix returns the first n runes of s
func prefix(s string, n int) string {
	r := []rune(s)
	if len(r) > n {
		r = r[:n]
	}
	return string(r)
}

// QuestionID builds an identifier such as MATH-10-POL-MCQ-001. The number is
// the 1-based position of the question within its section.
func QuestionID(subject string, class int, chapter string, format models.Format, number int) string {
	return fmt.Sprintf("%s-%d-%s-%s-%03d",
		SubjectCode(subject), class, ChapterCode(chapter), FormatCode(format), number)
}

// Formats lists the supported question formats
func Formats() []models.Format {
	return []models.Format{
		models.FormatMCQ,
		models.FormatVeryShort,
		models.FormatShort,
		models.FormatLong,
		models.FormatCaseStudy,
	}
}
