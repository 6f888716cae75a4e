package models

import "time"

// Format is the structural kind of a question
type Format string

const (
	FormatMCQ       Format = "MCQ"
	FormatVeryShort Format = "VERY_SHORT"
	FormatShort     Format = "SHORT"
	FormatLong      Format = "LONG"
	FormatCaseStudy Format = "CASE_STUDY"
)

// Difficulty is the target difficulty band of a question
type Difficulty string

const (
	Easy   Difficulty = "easy"
	Medium Difficulty = "medium"
	Hard   Difficulty = "hard"
)

// Role is the pedagogical role of a textbook chunk
type Role string

const (
	RoleTheory          Role = "THEORY"
	RoleWorkedExample   Role = "WORKED_EXAMPLE"
	RoleExercisePattern Role = "EXERCISE_PATTERN"
)

// Phase identifies where a question's pipeline failed
type Phase string

const (
	PhaseNone      Phase = ""
	PhaseRetrieval Phase = "retrieval"
	PhaseLLM       Phase = "llm"
	PhaseParse     Phase = "parse"
	PhaseAssembly  Phase = "assembly"
)

// Status of an assembled question
type Status string

const (
	StatusSuccess Status = "success"
	StatusFailed  Status = "failed"
)

// QuestionRequirement describes what one question slot must satisfy
type QuestionRequirement struct {
	ClassLevel     int        `json:"class" yaml:"class"`
	Subject        string     `json:"subject" yaml:"subject"`
	Chapter        string     `json:"chapter" yaml:"chapter"`
	Topic          string     `json:"topic" yaml:"topic"`
	Format         Format     `json:"format" yaml:"format"`
	Marks          int        `json:"marks" yaml:"marks"`
	Difficulty     Difficulty `json:"difficulty" yaml:"difficulty"`
	CognitiveLevel string     `json:"cognitive_level" yaml:"cognitive_level"`
	Nature         string     `json:"nature" yaml:"nature"`
}

// Chunk is one retrieved reference passage
type Chunk struct {
	ID        string    `json:"id"`
	Text      string    `json:"text"`
	Chapter   string    `json:"chapter"`
	Section   string    `json:"section,omitempty"`
	Topic     string    `json:"topic"`
	Role      Role      `json:"chunk_type"`
	PageStart int       `json:"page_start,omitempty"`
	PageEnd   int       `json:"page_end,omitempty"`
	Score     float64   `json:"score"`
	Vector    []float64 `json:"-"`
}

// Provenance records how a retrieval result was produced
type Provenance struct {
	Collection     string            `json:"collection"`
	Query          string            `json:"query"`
	EmbeddingModel string            `json:"embedding_model,omitempty"`
	MatchedTopic   string            `json:"matched_topic,omitempty"`
	MatchScore     float64           `json:"match_score,omitempty"`
	Filter         map[string]string `json:"filter,omitempty"`
	Broadened      bool              `json:"broadened,omitempty"`
	RoleCounts     map[Role]int      `json:"role_counts,omitempty"`
}

// RetrievalResult is the outcome of fetching reference content for one slot
type RetrievalResult struct {
	QuestionID     string     `json:"question_id"`
	Chapter        string     `json:"chapter"`
	Topic          string     `json:"topic"`
	Format         Format     `json:"format"`
	Marks          int        `json:"marks"`
	Difficulty     Difficulty `json:"difficulty"`
	CognitiveLevel string     `json:"cognitive_level"`
	Nature         string     `json:"nature"`
	Chunks         []Chunk    `json:"chunks"`
	Provenance     Provenance `json:"provenance"`
	Error          string     `json:"error,omitempty"`
	ErrorKind      string     `json:"error_kind,omitempty"`
}

// Failed reports whether retrieval produced an error
func (r RetrievalResult) Failed() bool {
	return r.Error != ""
}

// GeneratedContent is the parsed output of the text generator
type GeneratedContent struct {
	QuestionText       string   `json:"question_text"`
	Options            any      `json:"options,omitempty"`
	CorrectAnswer      string   `json:"correct_answer,omitempty"`
	Explanation        string   `json:"explanation,omitempty"`
	DiagramNeeded      bool     `json:"diagram_needed,omitempty"`
	DiagramDescription string   `json:"diagram_description,omitempty"`
	Hints              []string `json:"hints,omitempty"`
	Error              string   `json:"error,omitempty"`
	ErrorPhase         Phase    `json:"error_phase,omitempty"`
}

// Failed reports whether generation produced an error
func (g GeneratedContent) Failed() bool {
	return g.Error != ""
}

// DiagramAsset is a rendered diagram attached to a question
type DiagramAsset struct {
	Type     string `json:"type"`
	MimeType string `json:"mime_type"`
	Data     string `json:"data"`
	Width    int    `json:"width"`
	Height   int    `json:"height"`
}

// SubPart is one part of a case-study question
type SubPart struct {
	Label string `json:"label"`
	Marks int    `json:"marks"`
	Text  string `json:"text,omitempty"`
}

// AssembledQuestion is the final record for one question slot
type AssembledQuestion struct {
	QuestionID         string            `json:"question_id"`
	SectionID          string            `json:"section_id"`
	SequenceNumber     int               `json:"sequence_number"`
	QuestionText       string            `json:"question_text"`
	Chapter            string            `json:"chapter"`
	Topic              string            `json:"topic"`
	Format             Format            `json:"format"`
	Marks              int               `json:"marks"`
	Difficulty         Difficulty        `json:"difficulty"`
	CognitiveLevel     string            `json:"cognitive_level"`
	Nature             string            `json:"nature"`
	Options            map[string]string `json:"options,omitempty"`
	CorrectAnswer      string            `json:"correct_answer,omitempty"`
	HasDiagram         bool              `json:"has_diagram"`
	DiagramType        string            `json:"diagram_type,omitempty"`
	DiagramDescription string            `json:"diagram_description,omitempty"`
	DiagramAssets      []DiagramAsset    `json:"diagram_assets,omitempty"`
	Explanation        string            `json:"explanation,omitempty"`
	InternalChoice     bool              `json:"internal_choice"`
	SubParts           []SubPart         `json:"sub_parts,omitempty"`
	Tags               []string          `json:"tags"`
	Status             Status            `json:"status"`
	Error              string            `json:"error,omitempty"`
	ErrorPhase         Phase             `json:"error_phase,omitempty"`
}

// Failed reports whether the question ended in a failure state
func (q AssembledQuestion) Failed() bool {
	return q.Status == StatusFailed
}

// DifficultyDistribution counts questions per difficulty band
type DifficultyDistribution struct {
	Easy   int `json:"easy"`
	Medium int `json:"medium"`
	Hard   int `json:"hard"`
}

// Total returns the number of questions in the distribution
func (d DifficultyDistribution) Total() int {
	return d.Easy + d.Medium + d.Hard
}

// Section is a compiled group of questions sharing format and marks
type Section struct {
	ID                      string                 `json:"section_id"`
	Title                   string                 `json:"title"`
	Format                  Format                 `json:"question_format"`
	MarksPerQuestion        int                    `json:"marks_per_question"`
	QuestionCount           int                    `json:"question_count"`
	AttemptCount            int                    `json:"attempt_count"`
	TotalMarks              int                    `json:"total_marks"`
	Questions               []AssembledQuestion    `json:"questions"`
	InternalChoiceAvailable bool                   `json:"internal_choice_available"`
	Difficulty              DifficultyDistribution `json:"difficulty_distribution"`
}

// PaperMetadata identifies the exam a paper belongs to
type PaperMetadata struct {
	ClassLevel      int    `json:"class"`
	Subject         string `json:"subject"`
	AssessmentType  string `json:"assessment_type,omitempty"`
	DurationMinutes int    `json:"duration_minutes"`
	BlueprintHash   string `json:"blueprint_hash"`
}

// Paper is a full generated question paper
type Paper struct {
	PaperID     string                 `json:"paper_id"`
	Metadata    PaperMetadata          `json:"metadata"`
	Sections    []Section              `json:"sections"`
	TotalMarks  int                    `json:"total_marks"`
	Difficulty  DifficultyDistribution `json:"difficulty_distribution"`
	Failed      int                    `json:"failed_questions"`
	GeneratedAt time.Time              `json:"generated_at"`
}

// CacheEntry is one stored question keyed by its requirement
type CacheEntry struct {
	Key         string            `json:"cache_key"`
	Fingerprint string            `json:"blueprint_hash"`
	Question    AssembledQuestion `json:"question"`
	CreatedAt   time.Time         `json:"created_at"`
	UsedCount   int               `json:"used_count"`
}
