// internal/processor/pdf.go
package processor

import (
	"context"
	"fmt"
	"regexp"
	"strings"

	"question-paper-rag/internal/models"

	"github.com/google/uuid"
	"github.com/ledongthuc/pdf"
)

const (
	// Maximum size for a single chunk
	MAX_CHUNK_SIZE = 2000
	// Minimum size for a chunk
	MIN_CHUNK_SIZE = 100
)

var (
	headingRe  = regexp.MustCompile(`^(\d{1,2}\.\d{1,2})\s+([A-Z][^.?!]{2,80})$`)
	exampleRe  = regexp.MustCompile(`^Example\s+\d+\b`)
	exerciseRe = regexp.MustCompile(`^EXERCISE\s+\d+\.\d+\b`)
	spaceRe    = regexp.MustCompile(`[ \t]+`)
	pageNumRe  = regexp.MustCompile(`^\d{1,4}$`)
)

var chunkNamespace = uuid.MustParse("6f1c8a52-1d0e-4b8e-9c7b-4c1f0a3e2d11")

// Page is the plain text of one PDF page
type Page struct {
	Number int
	Text   string
}

// PDFProcessor turns a textbook chapter PDF into tagged chunks
type PDFProcessor struct {
	Chapter      string
	ChunkSize    int
	ChunkOverlap int
}

// NewPDFProcessor creates a new PDF processor for one chapter
func NewPDFProcessor(chapter string, chunkSize, chunkOverlap int) *PDFProcessor {
	if chunkSize <= 0 || chunkSize > MAX_CHUNK_SIZE {
		chunkSize = MAX_CHUNK_SIZE
	}
	if chunkOverlap < 0 || chunkOverlap >= chunkSize {
		chunkOverlap = chunkSize / 5
	}
	return &PDFProcessor{
		Chapter:      chapter,
		ChunkSize:    chunkSize,
		ChunkOverlap: chunkOverlap,
	}
}

// ExtractPages extracts the text of every page of a PDF file
func (p *PDFProcessor) ExtractPages(filePath string) ([]Page, error) {
	f, r, err := pdf.Open(filePath)
	if err != nil {
		return nil, fmt.Errorf("failed to open PDF: %w", err)
	}
	defer f.Close()

	var pages []Page
	for i := 1; i <= r.NumPage(); i++ {
		pg := r.Page(i)
		if pg.V.IsNull() {
			continue
		}
		text, err := pg.GetPlainText(nil)
		if err != nil {
			return nil, fmt.Errorf("failed to extract text from page %d: %w", i, err)
		}
		pages = append(pages, Page{Number: i, Text: text})
	}
	return pages, nil
}

// ProcessPDF processes a PDF file and returns chunks
func (p *PDFProcessor) ProcessPDF(ctx context.Context, filePath string) ([]models.Chunk, error) {
	pages, err := p.ExtractPages(filePath)
	if err != nil {
		return nil, fmt.Errorf("failed to extract text: %w", err)
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	return p.Chunk(pages), nil
}

// block is a run of lines sharing one topic and role
type block struct {
	section   string
	topic     string
	role      models.Role
	pageStart int
	pageEnd   int
	lines     []string
}

func (b *block) text() string {
	return strings.TrimSpace(strings.Join(b.lines, "\n"))
}

// Chunk splits cleaned pages into role-tagged chunks. Numbered headings open
// a new topic; "Example n" and "EXERCISE n.n" open worked-example and
// exercise blocks that run until the next marker or heading.
func (p *PDFProcessor) Chunk(pages []Page) []models.Chunk {
	blocks := p.splitBlocks(pages)

	var chunks []models.Chunk
	for _, b := range blocks {
		text := b.text()
		if len(text) < MIN_CHUNK_SIZE && b.role == models.RoleTheory {
			continue
		}
		for _, part := range p.splitText(text) {
			chunks = append(chunks, models.Chunk{
				ID:        chunkID(p.Chapter, len(chunks)),
				Text:      part,
				Chapter:   p.Chapter,
				Section:   b.section,
				Topic:     b.topic,
				Role:      b.role,
				PageStart: b.pageStart,
				PageEnd:   b.pageEnd,
			})
		}
	}
	return chunks
}

func (p *PDFProcessor) splitBlocks(pages []Page) []*block {
	var blocks []*block
	cur := &block{topic: p.Chapter, role: models.RoleTheory}
	if len(pages) > 0 {
		cur.pageStart = pages[0].Number
		cur.pageEnd = pages[0].Number
	}

	open := func(section, topic string, role models.Role, page int) {
		if len(cur.lines) > 0 {
			blocks = append(blocks, cur)
		}
		cur = &block{section: section, topic: topic, role: role, pageStart: page, pageEnd: page}
	}

	for _, pg := range pages {
		for _, line := range cleanLines(pg.Text) {
			switch {
			case headingRe.MatchString(line):
				m := headingRe.FindStringSubmatch(line)
				open(m[1], strings.TrimSpace(m[2]), models.RoleTheory, pg.Number)
			case exampleRe.MatchString(line):
				open(cur.section, cur.topic, models.RoleWorkedExample, pg.Number)
			case exerciseRe.MatchString(line):
				open(cur.section, cur.topic, models.RoleExercisePattern, pg.Number)
			}
			cur.lines = append(cur.lines, line)
			cur.pageEnd = pg.Number
		}
	}
	if len(cur.lines) > 0 {
		blocks = append(blocks, cur)
	}
	return blocks
}

// cleanLines normalizes whitespace and drops page numbers and reprint footers
func cleanLines(text string) []string {
	var out []string
	for _, line := range strings.Split(text, "\n") {
		line = strings.TrimSpace(spaceRe.ReplaceAllString(line, " "))
		if line == "" || pageNumRe.MatchString(line) {
			continue
		}
		if len(line) < 50 && strings.HasPrefix(strings.ToLower(line), "reprint") {
			continue
		}
		out = append(out, line)
	}
	return out
}

// splitText cuts text into pieces of at most ChunkSize bytes, preferring
// line breaks, with ChunkOverlap bytes carried into the next piece
func (p *PDFProcessor) splitText(text string) []string {
	if len(text) <= p.ChunkSize {
		return []string{text}
	}

	var parts []string
	start := 0
	for start < len(text) {
		end := start + p.ChunkSize
		if end >= len(text) {
			parts = append(parts, strings.TrimSpace(text[start:]))
			break
		}
		if cut := strings.LastIndexAny(text[start:end], "\n "); cut > p.ChunkSize/2 {
			end = start + cut
		}
		parts = append(parts, strings.TrimSpace(text[start:end]))

		next := end - p.ChunkOverlap
		if next <= start {
			next = end
		}
		// resume at a word boundary
		if sp := strings.IndexAny(text[next:end], "\n "); sp >= 0 {
			next += sp + 1
		}
		start = next
	}
	return parts
}

func chunkID(chapter string, n int) string {
	return uuid.NewSHA1(chunkNamespace, []byte(fmt.Sprintf("%s|%d", strings.ToLower(chapter), n))).String()
}
