// Package blueprint loads exam blueprints and expands their sections into
// per-question requirements.
package blueprint

import (
	"bytes"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"question-paper-rag/internal/cache"
	"question-paper-rag/internal/models"
	"question-paper-rag/internal/section"

	"gopkg.in/yaml.v3"
)

// AllTopics in a chapter's topic list accepts any topic for that chapter
const AllTopics = "ALL_TOPICS"

const (
	defaultNature    = "NUMERICAL"
	defaultCognitive = "REMEMBER"
	defaultTopic     = "General"
	defaultDuration  = 120
)

type Metadata struct {
	Class          int    `json:"class" yaml:"class"`
	Subject        string `json:"subject" yaml:"subject"`
	AssessmentType string `json:"assessment_type" yaml:"assessment_type"`
	TotalMarks     int    `json:"total_marks" yaml:"total_marks"`
}

type Chapter struct {
	Name   string   `json:"chapter_name" yaml:"chapter_name"`
	Topics []string `json:"topics" yaml:"topics"`
}

type SyllabusScope struct {
	Chapters []Chapter `json:"chapters" yaml:"chapters"`
}

// Section is one blueprint section as written by the paper setter
type Section struct {
	ID                string        `json:"section_id" yaml:"section_id"`
	Title             string        `json:"title" yaml:"title"`
	SectionTitle      string        `json:"section_title" yaml:"section_title"`
	Format            models.Format `json:"question_format" yaml:"question_format"`
	MarksPerQuestion  int           `json:"marks_per_question" yaml:"marks_per_question"`
	QuestionsProvided int           `json:"questions_provided" yaml:"questions_provided"`
	QuestionsAttempt  int           `json:"questions_attempt" yaml:"questions_attempt"`
	Natures           []string      `json:"allowed_question_natures" yaml:"allowed_question_natures"`
	CognitiveLevels   []string      `json:"cognitive_level_hint" yaml:"cognitive_level_hint"`
	TopicFocus        []string      `json:"topic_focus" yaml:"topic_focus"`
}

// Name returns the section's display title
func (s Section) Name() string {
	if s.Title != "" {
		return s.Title
	}
	if s.SectionTitle != "" {
		return s.SectionTitle
	}
	return "Section " + s.ID
}

// Blueprint is a parsed exam blueprint
type Blueprint struct {
	Metadata        Metadata      `json:"metadata" yaml:"metadata"`
	SyllabusScope   SyllabusScope `json:"syllabus_scope" yaml:"syllabus_scope"`
	Sections        []Section     `json:"sections" yaml:"sections"`
	DurationMinutes int           `json:"duration_minutes" yaml:"duration_minutes"`

	// Fingerprint is the SHA-256 of the source document
	Fingerprint string `json:"-" yaml:"-"`
}

// Load reads a blueprint from a .json, .yaml or .yml file
func Load(path string) (*Blueprint, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read blueprint: %w", err)
	}
	bp, err := Parse(data, filepath.Ext(path))
	if err != nil {
		return nil, fmt.Errorf("failed to parse blueprint %s: %w", path, err)
	}
	return bp, nil
}

// Parse decodes a blueprint document. ext selects the decoder; anything
// other than .yaml/.yml is treated as JSON.
func Parse(data []byte, ext string) (*Blueprint, error) {
	var bp Blueprint
	switch strings.ToLower(ext) {
	case ".yaml", ".yml":
		if err := yaml.Unmarshal(data, &bp); err != nil {
			return nil, fmt.Errorf("invalid YAML: %w", err)
		}
	default:
		dec := json.NewDecoder(bytes.NewReader(data))
		if err := dec.Decode(&bp); err != nil {
			return nil, fmt.Errorf("invalid JSON: %w", err)
		}
	}

	bp.Fingerprint = cache.Fingerprint(data)
	bp.applyDefaults()
	if err := bp.Validate(); err != nil {
		return nil, err
	}
	return &bp, nil
}

func (b *Blueprint) applyDefaults() {
	if b.Metadata.Class == 0 {
		b.Metadata.Class = 10
	}
	if b.DurationMinutes == 0 {
		b.DurationMinutes = defaultDuration
	}
	for i := range b.Sections {
		s := &b.Sections[i]
		s.ID = strings.ToUpper(strings.TrimSpace(s.ID))
		if s.Format == "" {
			s.Format = models.FormatMCQ
		}
		s.Format = models.Format(strings.ToUpper(string(s.Format)))
		if s.MarksPerQuestion == 0 {
			s.MarksPerQuestion = 1
		}
		if s.QuestionsAttempt == 0 {
			s.QuestionsAttempt = s.QuestionsProvided
		}
		if len(s.Natures) == 0 {
			s.Natures = []string{defaultNature}
		}
		if len(s.CognitiveLevels) == 0 {
			s.CognitiveLevels = []string{defaultCognitive}
		}
	}
}

// Validate checks the structural fields the pipeline depends on
func (b *Blueprint) Validate() error {
	if strings.TrimSpace(b.Metadata.Subject) == "" {
		return fmt.Errorf("blueprint metadata.subject is required")
	}
	if len(b.Sections) == 0 {
		return fmt.Errorf("blueprint has no sections")
	}
	seen := map[string]bool{}
	for _, s := range b.Sections {
		if s.ID == "" {
			return fmt.Errorf("blueprint section without section_id")
		}
		if seen[s.ID] {
			return fmt.Errorf("duplicate section %q", s.ID)
		}
		seen[s.ID] = true
		if s.QuestionsProvided < 0 || s.QuestionsAttempt > s.QuestionsProvided {
			return fmt.Errorf("section %s: attempt count %d exceeds provided %d", s.ID, s.QuestionsAttempt, s.QuestionsProvided)
		}
	}
	return nil
}

// Section looks up a section by id, ignoring case
func (b *Blueprint) Section(id string) (Section, bool) {
	id = strings.ToUpper(strings.TrimSpace(id))
	for _, s := range b.Sections {
		if s.ID == id {
			return s, true
		}
	}
	return Section{}, false
}

// Select returns the sections named by ids in blueprint order, or every section when ids is empty
func (b *Blueprint) Select(ids []string) ([]Section, error) {
	if len(ids) == 0 {
		return b.Sections, nil
	}
	want := map[string]bool{}
	for _, id := range ids {
		id = strings.ToUpper(strings.TrimSpace(id))
		if _, ok := b.Section(id); !ok {
			return nil, fmt.Errorf("section %q not found in blueprint", id)
		}
		want[id] = true
	}
	var out []Section
	for _, s := range b.Sections {
		if want[s.ID] {
			out = append(out, s)
		}
	}
	return out, nil
}

// ChapterFor returns the first syllabus chapter that lists topic or accepts
// all topics. An empty result means the topic is outside the syllabus scope.
func (b *Blueprint) ChapterFor(topic string) string {
	for _, ch := range b.SyllabusScope.Chapters {
		for _, t := range ch.Topics {
			if t == topic || t == AllTopics {
				return ch.Name
			}
		}
	}
	return ""
}

// Topics lists every explicitly named syllabus topic in document order
func (b *Blueprint) Topics() []string {
	var out []string
	for _, ch := range b.SyllabusScope.Chapters {
		for _, t := range ch.Topics {
			if t != AllTopics {
				out = append(out, t)
			}
		}
	}
	return out
}

// Requirements expands a section into one requirement per question slot.
// Topics cycle through the section's focus list (the whole syllabus when
// empty); natures and cognitive levels cycle with the same index; difficulty
// follows the 40/40/20 split by position.
func (b *Blueprint) Requirements(s Section) []models.QuestionRequirement {
	focus := s.TopicFocus
	if len(focus) == 0 {
		focus = b.Topics()
	}
	if len(focus) == 0 {
		focus = []string{defaultTopic}
	}

	n := s.QuestionsProvided
	out := make([]models.QuestionRequirement, 0, n)
	for i := 0; i < n; i++ {
		topic := focus[i%len(focus)]
		out = append(out, models.QuestionRequirement{
			ClassLevel:     b.Metadata.Class,
			Subject:        b.Metadata.Subject,
			Chapter:        b.ChapterFor(topic),
			Topic:          topic,
			Format:         s.Format,
			Marks:          s.MarksPerQuestion,
			Difficulty:     section.DifficultyAt(i+1, n),
			CognitiveLevel: s.CognitiveLevels[i%len(s.CognitiveLevels)],
			Nature:         s.Natures[i%len(s.Natures)],
		})
	}
	return out
}

// PaperMetadata describes the paper generated from this blueprint
func (b *Blueprint) PaperMetadata() models.PaperMetadata {
	return models.PaperMetadata{
		ClassLevel:      b.Metadata.Class,
		Subject:         b.Metadata.Subject,
		AssessmentType:  b.Metadata.AssessmentType,
		DurationMinutes: b.DurationMinutes,
		BlueprintHash:   b.Fingerprint,
	}
}

// SectionSpec is the compiler view of a section
func SectionSpec(s Section, firstSequence int) section.Spec {
	return section.Spec{
		ID:               s.ID,
		Title:            s.Name(),
		Format:           s.Format,
		MarksPerQuestion: s.MarksPerQuestion,
		AttemptCount:     s.QuestionsAttempt,
		FirstSequence:    firstSequence,
	}
}
