package models

import "github.com/google/uuid"

// ChunkMatch pairs a resume chunk with one of its top-K most similar job description chunks.
type ChunkMatch struct {
	ResumeChunkID     uuid.UUID   `json:"resume_chunk_id"`
	ResumeChunkIndex  int         `json:"resume_chunk_index"`
	ResumeSectionType SectionType `json:"resume_section_type"`
	JDChunkID         uuid.UUID   `json:"jd_chunk_id"`
	JDChunkIndex      int         `json:"jd_chunk_index"`
	JDSectionType     SectionType `json:"jd_section_type"`
	JDContent         string      `json:"jd_content,omitempty"`
	Similarity        float64     `json:"similarity"`
}

// SectionScore is a weighted average similarity for one job description section.
// Score may exceed 100 because weights can exceed 1.0.
type SectionScore struct {
	SectionType SectionType  `json:"section_type"`
	Score       float64      `json:"score"`
	Weight      float64      `json:"weight"`
	ChunkCount  int          `json:"chunk_count"`
	TopMatches  []ChunkMatch `json:"top_matches"`
}

type EquivalenceMatch struct {
	JDRequired string `json:"jd_required"`
	ResumeHas  string `json:"resume_has"`
	Group      string `json:"group"`
}

type FeedbackItem struct {
	Section SectionType `json:"section,omitempty"`
	Score   float64     `json:"score,omitempty"`
	Message string      `json:"message"`
}

type Feedback struct {
	Summary      string         `json:"summary"`
	Strengths    []FeedbackItem `json:"strengths"`
	Improvements []FeedbackItem `json:"improvements"`
	Potential    []FeedbackItem `json:"potential"`
	ActionItems  []string       `json:"action_items"`
}

// MatchResult is built once per comparison and never mutated afterwards.
type MatchResult struct {
	ResumeID          uuid.UUID          `json:"resume_id"`
	JDID              uuid.UUID          `json:"jd_id"`
	OverallSimilarity float64            `json:"overall_similarity"`
	MatchScore        float64            `json:"match_score"`
	Grade             Grade              `json:"match_grade"`
	SectionScores     []SectionScore     `json:"section_scores"`
	ChunkMatches      []ChunkMatch       `json:"chunk_matches"`
	Equivalences      []EquivalenceMatch `json:"similar_technologies"`
	EquivalenceBonus  float64            `json:"equivalence_bonus"`
	Feedback          Feedback           `json:"feedback"`
}

type SectionStatus struct {
	Section SectionType `json:"section"`
	Score   float64     `json:"score"`
	Status  string      `json:"status"`
}

type GapAnalysis struct {
	MatchResult    MatchResult     `json:"match_result"`
	Strengths      []SectionStatus `json:"strengths"`
	Weaknesses     []SectionStatus `json:"weaknesses"`
	Recommendation string          `json:"recommendation"`
}
