package blueprint

import (
	"os"
	"path/filepath"
	"reflect"
	"testing"

	"question-paper-rag/internal/models"
)

const sampleJSON = `{
  "metadata": {"class": 10, "subject": "Mathematics", "assessment_type": "Board", "total_marks": 80},
  "syllabus_scope": {"chapters": [
    {"chapter_name": "Real Numbers", "topics": ["Euclid's Division Lemma", "Fundamental Theorem of Arithmetic"]},
    {"chapter_name": "Polynomials", "topics": ["ALL_TOPICS"]}
  ]},
  "sections": [
    {"section_id": "a", "title": "Section A", "question_format": "MCQ", "marks_per_question": 1,
     "questions_provided": 5, "questions_attempt": 5,
     "allowed_question_natures": ["NUMERICAL", "CONCEPTUAL"],
     "cognitive_level_hint": ["REMEMBER", "UNDERSTAND", "APPLY"],
     "topic_focus": ["Euclid's Division Lemma", "Zeroes of a Polynomial"]},
    {"section_id": "E", "section_title": "Case Studies", "question_format": "CASE_STUDY", "marks_per_question": 4,
     "questions_provided": 1}
  ],
  "duration_minutes": 180
}`

const sampleYAML = `
metadata:
  class: 9
  subject: Science
syllabus_scope:
  chapters:
    - chapter_name: Atoms and Molecules
      topics: [Laws of Chemical Combination, Atomic Mass]
sections:
  - section_id: B
    question_format: very_short
    marks_per_question: 2
    questions_provided: 3
    questions_attempt: 2
`

func TestParseJSON(t *testing.T) {
	bp, err := Parse([]byte(sampleJSON), ".json")
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	if bp.Metadata.Subject != "Mathematics" || bp.DurationMinutes != 180 {
		t.Fatalf("metadata: got=%+v duration=%d", bp.Metadata, bp.DurationMinutes)
	}
	if len(bp.Fingerprint) != 64 {
		t.Fatalf("fingerprint: got=%q", bp.Fingerprint)
	}

	a, ok := bp.Section("A")
	if !ok {
		t.Fatalf("section A should be found case-insensitively")
	}
	if a.Name() != "Section A" {
		t.Fatalf("title: got=%q", a.Name())
	}

	e, _ := bp.Section("e")
	if e.Name() != "Case Studies" || e.QuestionsAttempt != 1 {
		t.Fatalf("section E defaults: got=%+v", e)
	}
	if !reflect.DeepEqual(e.Natures, []string{"NUMERICAL"}) || !reflect.DeepEqual(e.CognitiveLevels, []string{"REMEMBER"}) {
		t.Fatalf("section E natures/levels: got=%v %v", e.Natures, e.CognitiveLevels)
	}
}

func TestParseYAML(t *testing.T) {
	bp, err := Parse([]byte(sampleYAML), ".yml")
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	b, _ := bp.Section("B")
	if b.Format != models.FormatVeryShort || b.QuestionsAttempt != 2 {
		t.Fatalf("section B: got=%+v", b)
	}
	if bp.DurationMinutes != defaultDuration {
		t.Fatalf("duration default: got=%d", bp.DurationMinutes)
	}
}

func TestParseRejectsInvalid(t *testing.T) {
	cases := map[string]string{
		"bad json":        `{"metadata":`,
		"no subject":      `{"sections":[{"section_id":"A","questions_provided":1}]}`,
		"no sections":     `{"metadata":{"subject":"Maths"}}`,
		"duplicate":       `{"metadata":{"subject":"Maths"},"sections":[{"section_id":"A"},{"section_id":"a"}]}`,
		"attempt too big": `{"metadata":{"subject":"Maths"},"sections":[{"section_id":"A","questions_provided":2,"questions_attempt":3}]}`,
	}
	for name, doc := range cases {
		t.Run(name, func(t *testing.T) {
			if _, err := Parse([]byte(doc), ".json"); err == nil {
				t.Fatalf("expected error")
			}
		})
	}
}

func TestLoadFromFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "bp.yaml")
	if err := os.WriteFile(path, []byte(sampleYAML), 0o644); err != nil {
		t.Fatalf("write: %v", err)
	}
	bp, err := Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if bp.Metadata.Class != 9 {
		t.Fatalf("class: want=9 got=%d", bp.Metadata.Class)
	}

	if _, err := Load(filepath.Join(dir, "missing.json")); err == nil {
		t.Fatalf("expected error for missing file")
	}
}

func TestRequirements(t *testing.T) {
	bp, err := Parse([]byte(sampleJSON), ".json")
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	a, _ := bp.Section("A")
	reqs := bp.Requirements(a)
	if len(reqs) != 5 {
		t.Fatalf("requirements: want=5 got=%d", len(reqs))
	}

	wantTopics := []string{"Euclid's Division Lemma", "Zeroes of a Polynomial", "Euclid's Division Lemma", "Zeroes of a Polynomial", "Euclid's Division Lemma"}
	wantChapters := []string{"Real Numbers", "Polynomials", "Real Numbers", "Polynomials", "Real Numbers"}
	wantDifficulty := []models.Difficulty{models.Easy, models.Easy, models.Medium, models.Medium, models.Hard}
	wantNature := []string{"NUMERICAL", "CONCEPTUAL", "NUMERICAL", "CONCEPTUAL", "NUMERICAL"}
	wantLevel := []string{"REMEMBER", "UNDERSTAND", "APPLY", "REMEMBER", "UNDERSTAND"}

	for i, r := range reqs {
		if r.Topic != wantTopics[i] || r.Chapter != wantChapters[i] {
			t.Fatalf("slot %d topic/chapter: got=%q/%q", i+1, r.Topic, r.Chapter)
		}
		if r.Difficulty != wantDifficulty[i] {
			t.Fatalf("slot %d difficulty: want=%s got=%s", i+1, wantDifficulty[i], r.Difficulty)
		}
		if r.Nature != wantNature[i] || r.CognitiveLevel != wantLevel[i] {
			t.Fatalf("slot %d nature/level: got=%s/%s", i+1, r.Nature, r.CognitiveLevel)
		}
		if r.ClassLevel != 10 || r.Subject != "Mathematics" || r.Format != models.FormatMCQ || r.Marks != 1 {
			t.Fatalf("slot %d shared fields: got=%+v", i+1, r)
		}
	}
}

func TestRequirementsEmptyFocusUsesSyllabus(t *testing.T) {
	bp, err := Parse([]byte(sampleYAML), ".yaml")
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	b, _ := bp.Section("B")
	reqs := bp.Requirements(b)
	got := []string{reqs[0].Topic, reqs[1].Topic, reqs[2].Topic}
	want := []string{"Laws of Chemical Combination", "Atomic Mass", "Laws of Chemical Combination"}
	if !reflect.DeepEqual(got, want) {
		t.Fatalf("topics: want=%v got=%v", want, got)
	}
	if reqs[0].Chapter != "Atoms and Molecules" {
		t.Fatalf("chapter: got=%q", reqs[0].Chapter)
	}
}

func TestChapterForUnknownTopic(t *testing.T) {
	bp := &Blueprint{SyllabusScope: SyllabusScope{Chapters: []Chapter{{Name: "Real Numbers", Topics: []string{"HCF"}}}}}
	if got := bp.ChapterFor("Trigonometry"); got != "" {
		t.Fatalf("unknown topic should have no chapter, got=%q", got)
	}
}

func TestSelect(t *testing.T) {
	bp, _ := Parse([]byte(sampleJSON), ".json")
	got, err := bp.Select([]string{"e", "A"})
	if err != nil {
		t.Fatalf("Select: %v", err)
	}
	if len(got) != 2 || got[0].ID != "A" || got[1].ID != "E" {
		t.Fatalf("order should follow the blueprint: got=%v", got)
	}
	if _, err := bp.Select([]string{"Z"}); err == nil {
		t.Fatalf("expected unknown section error")
	}
	all, _ := bp.Select(nil)
	if len(all) != 2 {
		t.Fatalf("all sections: got=%d", len(all))
	}

	spec := SectionSpec(got[1], 6)
	if spec.Title != "Case Studies" || spec.FirstSequence != 6 || spec.MarksPerQuestion != 4 {
		t.Fatalf("spec: got=%+v", spec)
	}
}
