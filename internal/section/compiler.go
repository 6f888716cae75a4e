package section

import (
	"fmt"
	"strings"
	"time"

	"question-paper-rag/internal/models"
)

// Spec describes the section a batch of questions belongs to
type Spec struct {
	ID               string
	Title            string
	Format           models.Format
	MarksPerQuestion int
	AttemptCount     int
	// FirstSequence is the paper-wide number of the section's first question
	FirstSequence int
}

var choiceSections = map[string]bool{"B": true, "C": true, "D": true}

const caseStudySection = "E"

// DefaultSubParts is the sub-structure given to case-study questions that
// arrive without one
func DefaultSubParts() []models.SubPart {
	return []models.SubPart{
		{Label: "(i)", Marks: 1},
		{Label: "(ii)", Marks: 1},
		{Label: "(iii)", Marks: 2},
	}
}

// Distribute splits n questions 40/40/20 into easy, medium and hard.
// Hard takes whatever the floors leave over.
func Distribute(n int) models.DifficultyDistribution {
	if n <= 0 {
		return models.DifficultyDistribution{}
	}
	easy := n * 2 / 5
	medium := n * 2 / 5
	return models.DifficultyDistribution{Easy: easy, Medium: medium, Hard: n - easy - medium}
}

// DifficultyAt returns the band for the 1-based position within a section of n questions
func DifficultyAt(position, n int) models.Difficulty {
	if n <= 0 {
		return models.Medium
	}
	d := Distribute(n)
	switch {
	case position <= d.Easy:
		return models.Easy
	case position <= d.Easy+d.Medium:
		return models.Medium
	default:
		return models.Hard
	}
}

// Compile groups assembled questions into a section, numbering them from
// spec.FirstSequence and placing internal choices by section id.
func Compile(questions []models.AssembledQuestion, spec Spec) models.Section {
	id := strings.ToUpper(strings.TrimSpace(spec.ID))
	out := make([]models.AssembledQuestion, len(questions))
	copy(out, questions)

	first := spec.FirstSequence
	if first <= 0 {
		first = 1
	}

	n := len(out)
	choice := false
	for i := range out {
		q := &out[i]
		q.SectionID = id
		q.SequenceNumber = first + i

		switch {
		case id == caseStudySection:
			q.InternalChoice = true
			if len(q.SubParts) == 0 {
				q.SubParts = DefaultSubParts()
			}
		case choiceSections[id] && n >= 2 && i >= n-2:
			q.InternalChoice = true
		default:
			q.InternalChoice = false
		}
		if q.InternalChoice {
			choice = true
		}
	}

	attempt := spec.AttemptCount
	if attempt <= 0 || attempt > n {
		attempt = n
	}

	title := spec.Title
	if title == "" {
		title = fmt.Sprintf("Section %s", id)
	}

	return models.Section{
		ID:                      id,
		Title:                   title,
		Format:                  spec.Format,
		MarksPerQuestion:        spec.MarksPerQuestion,
		QuestionCount:           n,
		AttemptCount:            attempt,
		TotalMarks:              n * spec.MarksPerQuestion,
		Questions:               out,
		InternalChoiceAvailable: choice,
		Difficulty:              countDifficulty(out),
	}
}

func countDifficulty(questions []models.AssembledQuestion) models.DifficultyDistribution {
	var d models.DifficultyDistribution
	for _, q := range questions {
		switch q.Difficulty {
		case models.Easy:
			d.Easy++
		case models.Medium:
			d.Medium++
		case models.Hard:
			d.Hard++
		}
	}
	return d
}

// CompilePaper totals compiled sections into a paper. The paper id is
// SUBJECT-CLASS-YYYYMMDD.
func CompilePaper(meta models.PaperMetadata, sections []models.Section, now time.Time) models.Paper {
	p := models.Paper{
		PaperID:     fmt.Sprintf("%s-%d-%s", strings.ToUpper(strings.ReplaceAll(meta.Subject, " ", "_")), meta.ClassLevel, now.Format("20060102")),
		Metadata:    meta,
		Sections:    sections,
		GeneratedAt: now,
	}
	for _, s := range sections {
		p.TotalMarks += s.TotalMarks
		p.Difficulty.Easy += s.Difficulty.Easy
		p.Difficulty.Medium += s.Difficulty.Medium
		p.Difficulty.Hard += s.Difficulty.Hard
		for _, q := range s.Questions {
			if q.Failed() {
				p.Failed++
			}
		}
	}
	return p
}
