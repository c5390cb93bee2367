package rag

import (
	"strings"
	"unicode/utf8"

	"alfredoptarigan/resume-matcher/internal/models"
)

type ChunkConfig struct {
	ChunkSize        int
	ChunkOverlap     int
	PreserveSections bool
}

// DefaultChunkConfig returns the per-role defaults: resumes have short
// sections, job descriptions tend to have longer prose.
func DefaultChunkConfig(role models.Role) ChunkConfig {
	if role == models.RoleJobDescription {
		return ChunkConfig{ChunkSize: 1000, ChunkOverlap: 200, PreserveSections: true}
	}
	return ChunkConfig{ChunkSize: 800, ChunkOverlap: 150, PreserveSections: true}
}

// Section is a contiguous run of lines that starts at a detected header.
type Section struct {
	Type      models.SectionType
	Content   string
	StartLine int
	EndLine   int
}

type Chunker struct {
	classifier *Classifier
}

func NewChunker(classifier *Classifier) *Chunker {
	if classifier == nil {
		classifier = NewClassifier()
	}
	return &Chunker{classifier: classifier}
}

func (c *Chunker) Classifier() *Classifier {
	return c.classifier
}

// SplitSections scans text line by line. A header line opens a new section and
// is kept as its first line. Lines before the first header belong to an unknown
// section. Whitespace-only sections are dropped.
func (c *Chunker) SplitSections(text string, role models.Role) []Section {
	lines := strings.Split(text, "\n")

	var sections []Section
	current := models.SectionUnknown
	var buf []string
	start := 0

	flush := func(end int) {
		if len(buf) == 0 {
			return
		}
		content := strings.TrimSpace(strings.Join(buf, "\n"))
		if content != "" {
			sections = append(sections, Section{Type: current, Content: content, StartLine: start, EndLine: end})
		}
	}

	for i, line := range lines {
		if detected, ok := c.classifier.DetectSection(line, role); ok {
			flush(i - 1)
			current = detected
			buf = []string{line}
			start = i
			continue
		}
		buf = append(buf, line)
	}
	flush(len(lines) - 1)

	return sections
}

// Split turns document text into ordered chunks with contiguous indexes from 0.
func (c *Chunker) Split(text string, role models.Role, cfg ChunkConfig) []models.Chunk {
	if cfg.ChunkSize <= 0 {
		cfg = DefaultChunkConfig(role)
	}
	splitter := NewRecursiveSplitter(cfg.ChunkSize, cfg.ChunkOverlap)

	if !cfg.PreserveSections {
		return c.splitSimple(text, role, splitter)
	}

	var chunks []models.Chunk
	for _, section := range c.SplitSections(text, role) {
		sectionType := c.classifier.Classify(section.Type, section.Content, role)

		if utf8.RuneCountInString(section.Content) <= cfg.ChunkSize {
			chunks = append(chunks, models.Chunk{
				ChunkIndex:        len(chunks),
				SectionType:       sectionType,
				SectionChunkIndex: 0,
				SectionChunkTotal: 1,
				IsFullSection:     true,
				StartLine:         section.StartLine,
				EndLine:           section.EndLine,
				Content:           section.Content,
			})
			continue
		}

		parts := splitter.Split(section.Content)
		for i, part := range parts {
			chunks = append(chunks, models.Chunk{
				ChunkIndex:        len(chunks),
				SectionType:       sectionType,
				SectionChunkIndex: i,
				SectionChunkTotal: len(parts),
				StartLine:         section.StartLine,
				EndLine:           section.EndLine,
				Content:           part,
			})
		}
	}

	AddTokenCounts(chunks)
	return chunks
}

// splitSimple ignores headers; every chunk is typed by content inference alone.
func (c *Chunker) splitSimple(text string, role models.Role, splitter *RecursiveSplitter) []models.Chunk {
	trimmed := strings.TrimSpace(text)
	if trimmed == "" {
		return nil
	}
	lastLine := strings.Count(text, "\n")

	parts := []string{trimmed}
	full := true
	if utf8.RuneCountInString(trimmed) > splitter.ChunkSize {
		parts = splitter.Split(trimmed)
		full = false
	}

	chunks := make([]models.Chunk, 0, len(parts))
	for i, part := range parts {
		chunks = append(chunks, models.Chunk{
			ChunkIndex:        i,
			SectionType:       c.classifier.Classify(models.SectionUnknown, part, role),
			SectionChunkIndex: i,
			SectionChunkTotal: len(parts),
			IsFullSection:     full,
			StartLine:         0,
			EndLine:           lastLine,
			Content:           part,
		})
	}

	AddTokenCounts(chunks)
	return chunks
}

// BatchChunk is a chunk produced while chunking several documents together.
type BatchChunk struct {
	Source      string
	GlobalIndex int
	models.Chunk
}

// BatchInput is one document to chunk in a batch.
type BatchInput struct {
	Source string
	Text   string
}

// SplitBatch chunks every input and assigns a global index across the whole batch.
// Per-document ChunkIndex values restart at 0 for each input.
func (c *Chunker) SplitBatch(inputs []BatchInput, role models.Role, cfg ChunkConfig) []BatchChunk {
	var out []BatchChunk
	for _, in := range inputs {
		for _, ch := range c.Split(in.Text, role, cfg) {
			out = append(out, BatchChunk{Source: in.Source, GlobalIndex: len(out), Chunk: ch})
		}
	}
	return out
}
