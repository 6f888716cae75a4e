package processor

import (
	"strings"
	"testing"

	"question-paper-rag/internal/models"
)

const theoryPara = "A polynomial p(x) of degree n has at most n zeroes. The zeroes of a polynomial are the x-coordinates of the points where its graph meets the x-axis."

func testPages() []Page {
	return []Page{
		{Number: 12, Text: "2.1 Introduction\n" + theoryPara + "\n12\n"},
		{Number: 13, Text: "2.2 Geometrical Meaning of the Zeroes of a Polynomial\n" + theoryPara + "\nExample 1 : Find the zeroes of x^2 - 3x + 2.\nSolution : x = 1 and x = 2.\nReprint 2025-26\n"},
		{Number: 14, Text: "EXERCISE 2.1\n1. The graphs of y = p(x) are given below. Find the number of zeroes of p(x).\n"},
	}
}

func TestChunkTagsRolesAndTopics(t *testing.T) {
	p := NewPDFProcessor("Polynomials", 1000, 100)
	chunks := p.Chunk(testPages())
	if len(chunks) != 4 {
		for _, c := range chunks {
			t.Logf("%s %s %q", c.Role, c.Topic, c.Text)
		}
		t.Fatalf("chunks: want=4 got=%d", len(chunks))
	}

	want := []struct {
		section string
		topic   string
		role    models.Role
		page    int
	}{
		{"2.1", "Introduction", models.RoleTheory, 12},
		{"2.2", "Geometrical Meaning of the Zeroes of a Polynomial", models.RoleTheory, 13},
		{"2.2", "Geometrical Meaning of the Zeroes of a Polynomial", models.RoleWorkedExample, 13},
		{"2.2", "Geometrical Meaning of the Zeroes of a Polynomial", models.RoleExercisePattern, 14},
	}
	for i, w := range want {
		c := chunks[i]
		if c.Section != w.section || c.Topic != w.topic || c.Role != w.role || c.PageStart != w.page {
			t.Fatalf("chunk %d: want=%+v got=%s/%s/%s/%d", i, w, c.Section, c.Topic, c.Role, c.PageStart)
		}
		if c.Chapter != "Polynomials" || c.ID == "" {
			t.Fatalf("chunk %d: chapter/id not set: %+v", i, c)
		}
	}

	if strings.Contains(chunks[2].Text, "Reprint") {
		t.Fatalf("footer should be removed: %q", chunks[2].Text)
	}
	if strings.Contains(chunks[0].Text, "\n12") {
		t.Fatalf("page number should be removed: %q", chunks[0].Text)
	}
}

func TestChunkIDsAreDeterministic(t *testing.T) {
	p := NewPDFProcessor("Polynomials", 1000, 100)
	a := p.Chunk(testPages())
	b := p.Chunk(testPages())
	seen := map[string]bool{}
	for i := range a {
		if a[i].ID != b[i].ID {
			t.Fatalf("chunk %d id changed between runs", i)
		}
		if seen[a[i].ID] {
			t.Fatalf("duplicate id %s", a[i].ID)
		}
		seen[a[i].ID] = true
	}
}

func TestSplitTextOverlap(t *testing.T) {
	p := NewPDFProcessor("Polynomials", 200, 40)
	text := strings.Repeat("zeroes of a polynomial ", 30)
	parts := p.splitText(strings.TrimSpace(text))
	if len(parts) < 3 {
		t.Fatalf("parts: want>=3 got=%d", len(parts))
	}
	for i, part := range parts {
		if len(part) > 200 {
			t.Fatalf("part %d too long: %d", i, len(part))
		}
		if strings.HasPrefix(part, " ") || part == "" {
			t.Fatalf("part %d not trimmed: %q", i, part)
		}
	}
	tail := parts[0][len(parts[0])-20:]
	if !strings.Contains(parts[1], strings.TrimSpace(tail)) {
		t.Fatalf("expected overlap between parts: %q / %q", parts[0], parts[1])
	}
}

func TestNewPDFProcessorDefaults(t *testing.T) {
	p := NewPDFProcessor("Triangles", 0, -1)
	if p.ChunkSize != MAX_CHUNK_SIZE || p.ChunkOverlap != MAX_CHUNK_SIZE/5 {
		t.Fatalf("defaults: got=%d/%d", p.ChunkSize, p.ChunkOverlap)
	}
}
