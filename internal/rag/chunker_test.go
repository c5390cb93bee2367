package rag

import (
	"fmt"
	"strings"
	"testing"
	"unicode/utf8"

	"alfredoptarigan/resume-matcher/internal/models"
)

const koreanJD = `자격요건
- Go 또는 Java 백엔드 개발 경력 3년 이상
- RDBMS 설계 경험

우대사항
- Kubernetes 운영 경험
- 대용량 트래픽 처리 경험`

func TestSplitSectionsKoreanJobDescription(t *testing.T) {
	chunker := NewChunker(nil)

	sections := chunker.SplitSections(koreanJD, models.RoleJobDescription)
	if len(sections) != 2 {
		t.Fatalf("expected 2 sections, got %d: %+v", len(sections), sections)
	}
	if sections[0].Type != models.SectionRequirements {
		t.Fatalf("first section = %q, want requirements", sections[0].Type)
	}
	if sections[1].Type != models.SectionPreferred {
		t.Fatalf("second section = %q, want preferred", sections[1].Type)
	}
	if !strings.HasPrefix(sections[0].Content, "자격요건") {
		t.Fatalf("header line should be part of its section: %q", sections[0].Content)
	}
	if strings.Contains(sections[0].Content, "Kubernetes") {
		t.Fatalf("requirements section leaked preferred content")
	}
	if sections[1].StartLine != 4 || sections[0].EndLine != 3 {
		t.Fatalf("unexpected line ranges: %+v", sections)
	}

	chunks := chunker.Split(koreanJD, models.RoleJobDescription, DefaultChunkConfig(models.RoleJobDescription))
	if len(chunks) != 2 {
		t.Fatalf("expected 2 chunks, got %d", len(chunks))
	}
	for i, ch := range chunks {
		if !ch.IsFullSection {
			t.Fatalf("chunk %d should be a full section", i)
		}
		if ch.TokenCount == 0 || ch.CharCount == 0 {
			t.Fatalf("chunk %d missing counts: %+v", i, ch)
		}
	}
}

func TestSplitEmptyText(t *testing.T) {
	chunker := NewChunker(nil)

	for _, preserve := range []bool{true, false} {
		cfg := DefaultChunkConfig(models.RoleResume)
		cfg.PreserveSections = preserve

		chunks := chunker.Split("  \n\n ", models.RoleResume, cfg)
		if len(chunks) != 0 {
			t.Fatalf("preserve=%v: expected no chunks, got %d", preserve, len(chunks))
		}
		if s := Summarize(chunks); s.TotalChunks != 0 {
			t.Fatalf("preserve=%v: total_chunks = %d", preserve, s.TotalChunks)
		}
	}
}

func longExperienceSection() string {
	var sb strings.Builder
	sb.WriteString("Experience\n")
	for i := 0; i < 40; i++ {
		sb.WriteString(fmt.Sprintf("Built and operated service number %d handling payments. Improved latency by %d percent.\n", i, i+5))
	}
	sb.WriteString("Education\nBachelor of Science, Korea University")
	return sb.String()
}

func TestSplitLongSectionRespectsChunkSize(t *testing.T) {
	chunker := NewChunker(nil)
	cfg := DefaultChunkConfig(models.RoleResume)

	chunks := chunker.Split(longExperienceSection(), models.RoleResume, cfg)
	if len(chunks) < 3 {
		t.Fatalf("expected the long section to be split, got %d chunks", len(chunks))
	}

	experience := 0
	for i, ch := range chunks {
		if ch.ChunkIndex != i {
			t.Fatalf("chunk index %d at position %d", ch.ChunkIndex, i)
		}
		if n := utf8.RuneCountInString(ch.Content); n > cfg.ChunkSize {
			t.Fatalf("chunk %d has %d runes, limit %d", i, n, cfg.ChunkSize)
		}
		if ch.SectionType == models.SectionExperience {
			if ch.IsFullSection {
				t.Fatalf("split chunk %d marked as full section", i)
			}
			if ch.SectionChunkIndex != experience {
				t.Fatalf("section chunk index = %d, want %d", ch.SectionChunkIndex, experience)
			}
			experience++
		}
	}

	last := chunks[len(chunks)-1]
	if last.SectionType != models.SectionEducation || !last.IsFullSection {
		t.Fatalf("last chunk = %+v, want full education section", last)
	}
	for _, ch := range chunks {
		if ch.SectionType == models.SectionExperience && ch.SectionChunkTotal != experience {
			t.Fatalf("section chunk total = %d, want %d", ch.SectionChunkTotal, experience)
		}
	}
}

func TestSplitWithoutSectionsInfersPerChunk(t *testing.T) {
	chunker := NewChunker(nil)
	cfg := DefaultChunkConfig(models.RoleResume)
	cfg.PreserveSections = false

	chunks := chunker.Split("Bachelor degree from Yonsei University, graduated 2019", models.RoleResume, cfg)
	if len(chunks) != 1 {
		t.Fatalf("expected 1 chunk, got %d", len(chunks))
	}
	if chunks[0].SectionType != models.SectionEducation {
		t.Fatalf("section = %q, want education", chunks[0].SectionType)
	}
}

func TestSplitLeadingTextWithoutHeaderIsInferred(t *testing.T) {
	chunker := NewChunker(nil)

	text := "We offer remote work and flexible hours with full insurance.\n자격요건\n- Go 경력 3년 이상"
	chunks := chunker.Split(text, models.RoleJobDescription, DefaultChunkConfig(models.RoleJobDescription))
	if len(chunks) != 2 {
		t.Fatalf("expected 2 chunks, got %d", len(chunks))
	}
	if chunks[0].SectionType != models.SectionBenefits {
		t.Fatalf("leading section = %q, want benefits", chunks[0].SectionType)
	}
	if chunks[1].SectionType != models.SectionRequirements {
		t.Fatalf("second section = %q, want requirements", chunks[1].SectionType)
	}
}

func TestSplitBatchAssignsGlobalIndex(t *testing.T) {
	chunker := NewChunker(nil)

	out := chunker.SplitBatch([]BatchInput{
		{Source: "a.pdf", Text: koreanJD},
		{Source: "b.pdf", Text: koreanJD},
	}, models.RoleJobDescription, DefaultChunkConfig(models.RoleJobDescription))

	if len(out) != 4 {
		t.Fatalf("expected 4 chunks, got %d", len(out))
	}
	for i, bc := range out {
		if bc.GlobalIndex != i {
			t.Fatalf("global index %d at %d", bc.GlobalIndex, i)
		}
	}
	if out[2].Source != "b.pdf" || out[2].ChunkIndex != 0 {
		t.Fatalf("per-document index should restart: %+v", out[2])
	}
}

func TestMergeSmallChunks(t *testing.T) {
	chunks := []models.Chunk{
		{ChunkIndex: 0, SectionType: models.SectionSkills, Content: "Go"},
		{ChunkIndex: 1, SectionType: models.SectionSkills, Content: strings.Repeat("a", 120)},
		{ChunkIndex: 2, SectionType: models.SectionProjects, Content: strings.Repeat("b", 120)},
	}

	merged := MergeSmallChunks(chunks, DefaultMinChunkSize)
	if len(merged) != 2 {
		t.Fatalf("expected 2 chunks after merge, got %d", len(merged))
	}
	if !strings.HasPrefix(merged[0].Content, "Go\n\n") {
		t.Fatalf("small chunk not merged forward: %q", merged[0].Content)
	}
	for i, ch := range merged {
		if ch.ChunkIndex != i {
			t.Fatalf("merged index %d at %d", ch.ChunkIndex, i)
		}
	}
	if len(MergeSmallChunks(chunks[:1], 100)) != 1 {
		t.Fatalf("single chunk should be returned unchanged")
	}
}

func TestSummarize(t *testing.T) {
	chunks := []models.Chunk{
		{SectionType: models.SectionSkills, Content: "abcd", TokenCount: 1},
		{SectionType: models.SectionSkills, Content: "abcdef", TokenCount: 2},
		{SectionType: models.SectionEducation, Content: "ab", TokenCount: 1},
	}

	s := Summarize(chunks)
	if s.TotalChunks != 3 || s.TotalCharacters != 12 || s.EstimatedTokens != 4 || s.AvgChunkSize != 4 {
		t.Fatalf("unexpected summary: %+v", s)
	}
	if s.SectionDistribution["skills"] != 2 || s.SectionDistribution["education"] != 1 {
		t.Fatalf("unexpected distribution: %+v", s.SectionDistribution)
	}
}
