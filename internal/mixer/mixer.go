package mixer

import (
	"sort"

	"question-paper-rag/internal/models"
)

// DefaultTarget is the number of chunks handed to the generator per question
const DefaultTarget = 10

// Ratio is a theory/worked-example/exercise split expressed in percent
type Ratio struct {
	Theory   int
	Worked   int
	Exercise int
}

var ratios = map[models.Format]Ratio{
	models.FormatMCQ:       {Theory: 50, Worked: 30, Exercise: 20},
	models.FormatVeryShort: {Theory: 40, Worked: 40, Exercise: 20},
	models.FormatShort:     {Theory: 30, Worked: 50, Exercise: 20},
	models.FormatLong:      {Theory: 20, Worked: 60, Exercise: 20},
	models.FormatCaseStudy: {Theory: 30, Worked: 50, Exercise: 20},
}

// RatioFor returns the mix for a format, falling back to MCQ
func RatioFor(format models.Format) Ratio {
	if r, ok := ratios[format]; ok {
		return r
	}
	return ratios[models.FormatMCQ]
}

// Mixer blends retrieved chunks by pedagogical role
type Mixer struct {
	Target int
}

// New creates a mixer producing at most target chunks
func New(target int) *Mixer {
	if target <= 0 {
		target = DefaultTarget
	}
	return &Mixer{Target: target}
}

// Quotas returns how many chunks of each role the format asks for.
// Exercise absorbs the rounding remainder.
func (m *Mixer) Quotas(format models.Format) (theory, worked, exercise int) {
	r := RatioFor(format)
	theory = m.Target * r.Theory / 100
	worked = m.Target * r.Worked / 100
	exercise = m.Target - theory - worked
	return theory, worked, exercise
}

// Mix selects the best chunks of each role and interleaves them
// theory, worked, exercise, theory, ... until the target is reached.
// Short buckets are not refilled from other roles.
func (m *Mixer) Mix(chunks []models.Chunk, format models.Format) []models.Chunk {
	var theory, worked, exercise []models.Chunk
	for _, c := range chunks {
		switch c.Role {
		case models.RoleTheory:
			theory = append(theory, c)
		case models.RoleWorkedExample:
			worked = append(worked, c)
		case models.RoleExercisePattern:
			exercise = append(exercise, c)
		}
	}

	nt, nw, ne := m.Quotas(format)
	theory = top(theory, nt)
	worked = top(worked, nw)
	exercise = top(exercise, ne)

	longest := max(len(theory), len(worked), len(exercise))
	mixed := make([]models.Chunk, 0, len(theory)+len(worked)+len(exercise))
	for i := 0; i < longest; i++ {
		if i < len(theory) {
			mixed = append(mixed, theory[i])
		}
		if i < len(worked) {
			mixed = append(mixed, worked[i])
		}
		if i < len(exercise) {
			mixed = append(mixed, exercise[i])
		}
	}

	if len(mixed) > m.Target {
		mixed = mixed[:m.Target]
	}
	return mixed
}

// RoleCounts tallies chunks per role
func RoleCounts(chunks []models.Chunk) map[models.Role]int {
	counts := map[models.Role]int{}
	for _, c := range chunks {
		counts[c.Role]++
	}
	return counts
}

func top(chunks []models.Chunk, n int) []models.Chunk {
	sort.SliceStable(chunks, func(i, j int) bool {
		return chunks[i].Score > chunks[j].Score
	})
	if len(chunks) > n {
		chunks = chunks[:n]
	}
	return chunks
}
