package llm

import (
	"fmt"
	"strings"

	"question-paper-rag/internal/diagram"
	"question-paper-rag/internal/models"
)

// Request is everything the generator needs to write one question
type Request struct {
	Requirement  models.QuestionRequirement
	SectionTitle string
	Chunks       []models.Chunk
	WithExamples bool
}

const systemPrompt = "You are an experienced examination paper setter for Indian secondary school boards. " +
	"You write clear, accurate, syllabus-aligned questions and always answer with a single JSON object."

var formatInstructions = map[models.Format]string{
	models.FormatMCQ: `MCQ requirements (1 mark):
- Exactly 4 options labelled A, B, C, D
- One clearly correct option; three plausible distractors drawn from common misconceptions
- Explain why the correct option is right`,
	models.FormatVeryShort: `Very short answer requirements (2 marks):
- 1-2 step solution or direct recall
- Brief, specific expected answer`,
	models.FormatShort: `Short answer requirements (3 marks):
- 3-5 step solution with every working step in the explanation`,
	models.FormatLong: `Long answer requirements (5 marks):
- Multi-step problem (5+ steps), may combine several concepts of the chapter
- Include an interpretation or conclusion where it applies`,
	models.FormatCaseStudy: `Case study requirements (4 marks):
- Start with a real-world scenario
- Follow with 2-3 related questions marked 1+1+2`,
}

const mcqExample = `{
  "question_text": "What is the zero of the polynomial p(x) = x - 3?",
  "options": ["A) 0", "B) 3", "C) -3", "D) 1"],
  "correct_answer": "B",
  "explanation": "Set p(x) = 0: x - 3 = 0, so x = 3.",
  "diagram_needed": false,
  "diagram_description": null,
  "hints": ["Set the polynomial equal to zero"]
}`

const shortExample = `{
  "question_text": "If α and β are the zeroes of x² - 5x + 6, find α² + β² without finding the zeroes.",
  "options": null,
  "correct_answer": null,
  "explanation": "α + β = 5 and αβ = 6, so α² + β² = (α + β)² - 2αβ = 25 - 12 = 13.",
  "diagram_needed": false,
  "diagram_description": null,
  "hints": ["Use (α + β)² - 2αβ"]
}`

// BuildPrompt renders the generation prompt for one question slot
func BuildPrompt(req Request) string {
	r := req.Requirement
	var b strings.Builder

	b.WriteString("=== CURRICULUM CONTEXT ===\n")
	fmt.Fprintf(&b, "Class: %d\nSubject: %s\nChapter: %s\nTopic: %s\n", r.ClassLevel, r.Subject, r.Chapter, r.Topic)
	if req.SectionTitle != "" {
		fmt.Fprintf(&b, "Section: %s\n", req.SectionTitle)
	}

	b.WriteString("\n=== QUESTION SPECIFICATION ===\n")
	fmt.Fprintf(&b, "Format: %s\nMarks: %d\nDifficulty: %s\nCognitive level: %s\nNature: %s\n",
		r.Format, r.Marks, r.Difficulty, r.CognitiveLevel, r.Nature)

	b.WriteString("\n=== REFERENCE TEXTBOOK CONTENT ===\n")
	for i, c := range req.Chunks {
		fmt.Fprintf(&b, "CHUNK %d (%s):\n%s\n\n", i+1, c.Role, strings.TrimSpace(c.Text))
	}

	if req.WithExamples {
		b.WriteString("=== EXAMPLES ===\n")
		if r.Format == models.FormatMCQ {
			b.WriteString(mcqExample + "\n" + shortExample + "\n")
		} else {
			b.WriteString(shortExample + "\n" + mcqExample + "\n")
		}
	}

	instructions, ok := formatInstructions[r.Format]
	if !ok {
		instructions = formatInstructions[models.FormatMCQ]
	}
	b.WriteString("\n=== FORMAT INSTRUCTIONS ===\n")
	b.WriteString(instructions + "\n")

	b.WriteString("\n=== OUTPUT ===\n")
	b.WriteString("Return ONLY a JSON object with the keys question_text, options, correct_answer, explanation, diagram_needed, diagram_description, hints. ")
	if r.Format == models.FormatMCQ {
		b.WriteString(`"options" is an array of 4 strings formatted "A) text" and "correct_answer" is one of "A", "B", "C", "D".`)
	} else {
		b.WriteString(`"options" and "correct_answer" are null.`)
	}
	b.WriteString("\n")

	return b.String()
}

// BuildDiagramPrompt renders the prompt asking whether a question needs a figure
func BuildDiagramPrompt(questionText string, c diagram.Context) string {
	var b strings.Builder
	b.WriteString("Decide whether the following exam question needs a diagram to be understood and solved.\n\n")
	fmt.Fprintf(&b, "QUESTION: %s\n\nTopic: %s\nChapter: %s\nFormat: %s\n\n", questionText, c.Topic, c.Chapter, c.Format)
	b.WriteString("Consider geometric shapes, coordinate geometry or graphs, constructions and statistical data.\n")
	b.WriteString(`Return ONLY JSON: {"diagram_needed": true|false, "diagram_description": string|null, "diagram_type": "geometric|coordinate|construction|graphical|none", "reasoning": string}`)
	b.WriteString("\n")
	return b.String()
}
