package topic

import (
	"math"
	"reflect"
	"testing"
)

var topics = []string{
	"Zeroes of a polynomial",
	"Relationship between zeroes and coefficients",
	"Division algorithm for polynomials",
	"Geometrical meaning of zeroes",
}

func TestResolveExactAndCaseInsensitive(t *testing.T) {
	r := NewResolver()

	m := r.Resolve("zeroes of a POLYNOMIAL", topics)
	if !m.Found || m.Best != "Zeroes of a polynomial" {
		t.Fatalf("best: want=%q got=%+v", "Zeroes of a polynomial", m)
	}
	if m.Score != 100 {
		t.Fatalf("score: want=100 got=%v", m.Score)
	}
	if len(m.Suggestions) != 3 {
		t.Fatalf("suggestions: want=3 got=%d", len(m.Suggestions))
	}
}

func TestResolveTypo(t *testing.T) {
	m := NewResolver().Resolve("Zeros of a polynomal", topics)
	if !m.Found || m.Best != "Zeroes of a polynomial" {
		t.Fatalf("typo match: got=%+v", m)
	}
}

func TestResolveBelowThreshold(t *testing.T) {
	m := NewResolver().Resolve("Trigonometric identities", topics)
	if m.Found || m.Best != "" {
		t.Fatalf("expected no match, got=%+v", m)
	}
	if len(m.Suggestions) == 0 {
		t.Fatalf("suggestions should be returned below threshold")
	}
}

func TestResolveEmptyCandidates(t *testing.T) {
	m := NewResolver().Resolve("anything", nil)
	if m.Found || m.Suggestions == nil || len(m.Suggestions) != 0 || m.Score != 0 {
		t.Fatalf("empty candidates: got=%+v", m)
	}
}

func TestResolveDeterministicTies(t *testing.T) {
	cands := []string{"abcd", "abce", "abcf"}
	r := NewResolver()
	first := r.Resolve("abcx", cands)
	for i := 0; i < 20; i++ {
		again := r.Resolve("abcx", cands)
		if !reflect.DeepEqual(first, again) {
			t.Fatalf("run %d: want=%+v got=%+v", i, first, again)
		}
	}
	if !reflect.DeepEqual(first.Suggestions, cands) {
		t.Fatalf("ties should keep input order: got=%v", first.Suggestions)
	}
}

func TestSimilarityIndelRatio(t *testing.T) {
	cases := []struct {
		a, b string
		want float64
	}{
		{"Sum of n terms", "Sum of First n Terms", 82.35},
		{"Zeros of a polynomal", "Zeroes of a polynomial", 95.24},
		{"", "", 100},
		{"abc", "xyz", 0},
	}
	for _, tc := range cases {
		if got := Similarity(tc.a, tc.b); math.Abs(got-tc.want) > 0.01 {
			t.Fatalf("Similarity(%q, %q): want=%.2f got=%.2f", tc.a, tc.b, tc.want, got)
		}
	}
}

func TestResolveInsertionHeavyMatch(t *testing.T) {
	cands := []string{"Sum of First n Terms", "nth Term of an AP", "Arithmetic Progressions"}
	m := NewResolver().Resolve("Sum of n terms", cands)
	if !m.Found || m.Best != "Sum of First n Terms" {
		t.Fatalf("best: want=%q got=%+v", "Sum of First n Terms", m)
	}
}
