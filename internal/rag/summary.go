package rag

import (
	"unicode/utf8"

	"alfredoptarigan/resume-matcher/internal/models"
)

// DefaultMinChunkSize is the suggested merge threshold. Merging is opt-in:
// ingestion only merges when a minimum size is configured.
const DefaultMinChunkSize = 100

type ChunkSummary struct {
	TotalChunks         int            `json:"total_chunks"`
	TotalCharacters     int            `json:"total_characters,omitempty"`
	EstimatedTokens     int            `json:"estimated_tokens,omitempty"`
	AvgChunkSize        int            `json:"avg_chunk_size,omitempty"`
	SectionDistribution map[string]int `json:"section_distribution,omitempty"`
}

func Summarize(chunks []models.Chunk) ChunkSummary {
	if len(chunks) == 0 {
		return ChunkSummary{TotalChunks: 0}
	}

	summary := ChunkSummary{
		TotalChunks:         len(chunks),
		SectionDistribution: make(map[string]int),
	}
	for _, ch := range chunks {
		summary.TotalCharacters += utf8.RuneCountInString(ch.Content)
		summary.EstimatedTokens += ch.TokenCount
		section := string(ch.SectionType)
		if section == "" {
			section = string(models.SectionUnknown)
		}
		summary.SectionDistribution[section]++
	}
	summary.AvgChunkSize = summary.TotalCharacters / len(chunks)
	return summary
}

// Distribution converts a section distribution into the JSON map stored on documents.
func (s ChunkSummary) Distribution() map[string]any {
	out := make(map[string]any, len(s.SectionDistribution))
	for k, v := range s.SectionDistribution {
		out[k] = v
	}
	return out
}

// MergeSmallChunks folds a chunk shorter than minSize runes into its successor,
// joined by a blank line. The merged chunk keeps the first chunk's section and
// start line. Indexes are reassigned contiguously from 0.
func MergeSmallChunks(chunks []models.Chunk, minSize int) []models.Chunk {
	if len(chunks) <= 1 || minSize <= 0 {
		return chunks
	}

	merged := make([]models.Chunk, 0, len(chunks))
	var buffer *models.Chunk

	for i := range chunks {
		ch := chunks[i]
		switch {
		case buffer == nil:
			buffer = &ch
		case utf8.RuneCountInString(buffer.Content) < minSize:
			buffer.Content = buffer.Content + "\n\n" + ch.Content
			buffer.EndLine = ch.EndLine
			buffer.IsFullSection = false
		default:
			merged = append(merged, *buffer)
			buffer = &ch
		}
	}
	if buffer != nil {
		merged = append(merged, *buffer)
	}

	for i := range merged {
		merged[i].ChunkIndex = i
	}
	AddTokenCounts(merged)
	return merged
}
