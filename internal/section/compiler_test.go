package section

import (
	"testing"
	"time"

	"question-paper-rag/internal/models"
)

func questions(n int) []models.AssembledQuestion {
	out := make([]models.AssembledQuestion, n)
	for i := range out {
		out[i] = models.AssembledQuestion{
			QuestionText: "q",
			Difficulty:   DifficultyAt(i+1, n),
			Status:       models.StatusSuccess,
		}
	}
	return out
}

func TestDistribute(t *testing.T) {
	cases := map[int]models.DifficultyDistribution{
		10: {Easy: 4, Medium: 4, Hard: 2},
		5:  {Easy: 2, Medium: 2, Hard: 1},
		1:  {Easy: 0, Medium: 0, Hard: 1},
		7:  {Easy: 2, Medium: 2, Hard: 3},
		0:  {},
	}
	for n, want := range cases {
		if got := Distribute(n); got != want {
			t.Fatalf("Distribute(%d): want=%+v got=%+v", n, want, got)
		}
	}
	for n := 0; n < 100; n++ {
		if got := Distribute(n).Total(); got != n {
			t.Fatalf("Distribute(%d) total: got=%d", n, got)
		}
	}
}

func TestDifficultyAt(t *testing.T) {
	want := []models.Difficulty{
		models.Easy, models.Easy, models.Easy, models.Easy,
		models.Medium, models.Medium, models.Medium, models.Medium,
		models.Hard, models.Hard,
	}
	for i, w := range want {
		if got := DifficultyAt(i+1, 10); got != w {
			t.Fatalf("position %d: want=%s got=%s", i+1, w, got)
		}
	}
}

func TestCompileSectionBChoice(t *testing.T) {
	s := Compile(questions(6), Spec{ID: "B", Format: models.FormatVeryShort, MarksPerQuestion: 2, FirstSequence: 21})
	if s.TotalMarks != 12 || s.QuestionCount != 6 {
		t.Fatalf("totals: got marks=%d count=%d", s.TotalMarks, s.QuestionCount)
	}
	for i, q := range s.Questions {
		want := i >= 4
		if q.InternalChoice != want {
			t.Fatalf("question %d choice: want=%v got=%v", i, want, q.InternalChoice)
		}
		if q.SequenceNumber != 21+i || q.SectionID != "B" {
			t.Fatalf("question %d numbering: got seq=%d section=%s", i, q.SequenceNumber, q.SectionID)
		}
	}
	if !s.InternalChoiceAvailable {
		t.Fatalf("section B should offer internal choice")
	}
}

func TestCompileSectionEChoice(t *testing.T) {
	s := Compile(questions(1), Spec{ID: "E", Format: models.FormatCaseStudy, MarksPerQuestion: 4})
	q := s.Questions[0]
	if !q.InternalChoice || len(q.SubParts) != 3 {
		t.Fatalf("case study: got choice=%v parts=%v", q.InternalChoice, q.SubParts)
	}
	if q.SubParts[2].Marks != 2 {
		t.Fatalf("(iii) marks: want=2 got=%d", q.SubParts[2].Marks)
	}

	supplied := questions(1)
	supplied[0].SubParts = []models.SubPart{{Label: "(a)", Marks: 4}}
	s = Compile(supplied, Spec{ID: "E", MarksPerQuestion: 4})
	if len(s.Questions[0].SubParts) != 1 {
		t.Fatalf("supplied sub-parts should be kept: got=%v", s.Questions[0].SubParts)
	}
}

func TestCompileSectionANoChoice(t *testing.T) {
	in := questions(20)
	in[19].InternalChoice = true
	s := Compile(in, Spec{ID: "A", MarksPerQuestion: 1})
	for i, q := range s.Questions {
		if q.InternalChoice {
			t.Fatalf("section A question %d marked as choice", i)
		}
	}
	if s.InternalChoiceAvailable || s.TotalMarks != 20 {
		t.Fatalf("section A: got=%+v", s)
	}
	if s.Difficulty != (models.DifficultyDistribution{Easy: 8, Medium: 8, Hard: 4}) {
		t.Fatalf("difficulty: got=%+v", s.Difficulty)
	}
	if in[19].SectionID != "" {
		t.Fatalf("input slice must not be modified")
	}
}

func TestCompileSingleQuestionSectionB(t *testing.T) {
	s := Compile(questions(1), Spec{ID: "B", MarksPerQuestion: 2})
	if s.Questions[0].InternalChoice {
		t.Fatalf("one-question section B should not carry a choice")
	}
}

func TestCompilePaper(t *testing.T) {
	a := Compile(questions(5), Spec{ID: "A", MarksPerQuestion: 1})
	failed := questions(2)
	failed[0].Status = models.StatusFailed
	b := Compile(failed, Spec{ID: "B", MarksPerQuestion: 2, FirstSequence: 6})

	now := time.Date(2026, 3, 4, 10, 0, 0, 0, time.UTC)
	p := CompilePaper(models.PaperMetadata{ClassLevel: 10, Subject: "Mathematics"}, []models.Section{a, b}, now)
	if p.PaperID != "MATHEMATICS-10-20260304" {
		t.Fatalf("paper id: got=%s", p.PaperID)
	}
	if p.TotalMarks != 9 || p.Failed != 1 || p.Difficulty.Total() != 7 {
		t.Fatalf("paper totals: got=%+v", p)
	}
}
