package mixer

import (
	"fmt"
	"testing"

	"question-paper-rag/internal/models"
)

func chunks(role models.Role, n int, base float64) []models.Chunk {
	out := make([]models.Chunk, 0, n)
	for i := 0; i < n; i++ {
		out = append(out, models.Chunk{
			ID:    fmt.Sprintf("%s-%d", role, i),
			Role:  role,
			Score: base - float64(i)*0.01,
		})
	}
	return out
}

func pool(nt, nw, ne int) []models.Chunk {
	var all []models.Chunk
	all = append(all, chunks(models.RoleTheory, nt, 0.9)...)
	all = append(all, chunks(models.RoleWorkedExample, nw, 0.8)...)
	all = append(all, chunks(models.RoleExercisePattern, ne, 0.7)...)
	return all
}

func TestMixMCQProportions(t *testing.T) {
	got := New(DefaultTarget).Mix(pool(20, 20, 20), models.FormatMCQ)
	if len(got) != 10 {
		t.Fatalf("len: want=10 got=%d", len(got))
	}
	counts := RoleCounts(got)
	if counts[models.RoleTheory] != 5 || counts[models.RoleWorkedExample] != 3 || counts[models.RoleExercisePattern] != 2 {
		t.Fatalf("counts: want=5/3/2 got=%v", counts)
	}
	// T W E T W E T W T T
	wantRoles := []models.Role{
		models.RoleTheory, models.RoleWorkedExample, models.RoleExercisePattern,
		models.RoleTheory, models.RoleWorkedExample, models.RoleExercisePattern,
		models.RoleTheory, models.RoleWorkedExample, models.RoleTheory, models.RoleTheory,
	}
	for i, c := range got {
		if c.Role != wantRoles[i] {
			t.Fatalf("position %d: want=%s got=%s", i, wantRoles[i], c.Role)
		}
	}
}

func TestQuotasPerFormat(t *testing.T) {
	m := New(10)
	cases := map[models.Format][3]int{
		models.FormatMCQ:       {5, 3, 2},
		models.FormatVeryShort: {4, 4, 2},
		models.FormatShort:     {3, 5, 2},
		models.FormatLong:      {2, 6, 2},
		models.FormatCaseStudy: {3, 5, 2},
		models.Format("ESSAY"): {5, 3, 2},
	}
	for f, want := range cases {
		th, w, e := m.Quotas(f)
		if [3]int{th, w, e} != want {
			t.Fatalf("%s: want=%v got=%v", f, want, [3]int{th, w, e})
		}
	}
}

func TestMixNeverExceedsTarget(t *testing.T) {
	m := New(DefaultTarget)
	for _, f := range []models.Format{models.FormatMCQ, models.FormatShort, models.FormatLong} {
		for _, p := range [][3]int{{0, 0, 0}, {1, 0, 0}, {3, 40, 1}, {50, 50, 50}} {
			got := m.Mix(pool(p[0], p[1], p[2]), f)
			if len(got) > 10 {
				t.Fatalf("%s %v: len=%d exceeds target", f, p, len(got))
			}
		}
	}
}

func TestMixDeficitIsNotRefilled(t *testing.T) {
	got := New(DefaultTarget).Mix(pool(1, 10, 0), models.FormatMCQ)
	counts := RoleCounts(got)
	if counts[models.RoleTheory] != 1 || counts[models.RoleWorkedExample] != 3 || counts[models.RoleExercisePattern] != 0 {
		t.Fatalf("counts: want=1/3/0 got=%v", counts)
	}
}

func TestMixPicksHighestScores(t *testing.T) {
	in := []models.Chunk{
		{ID: "low", Role: models.RoleTheory, Score: 0.1},
		{ID: "high", Role: models.RoleTheory, Score: 0.9},
		{ID: "mid", Role: models.RoleTheory, Score: 0.5},
	}
	got := New(2).Mix(in, models.FormatMCQ)
	if len(got) != 1 || got[0].ID != "high" {
		t.Fatalf("want [high] got=%v", got)
	}
}
