package matching

import (
	"context"

	"alfredoptarigan/resume-matcher/internal/models"
)

// Matcher runs the full comparison of one resume against one job description.
type Matcher struct {
	engine   *Engine
	resolver *EquivalenceResolver
	scorer   *Scorer
}

func NewMatcher(engine *Engine, resolver *EquivalenceResolver, scorer *Scorer) *Matcher {
	if engine == nil {
		engine = NewEngine(nil, DefaultTopK, DefaultWeights())
	}
	if resolver == nil {
		resolver = NewEquivalenceResolver()
	}
	if scorer == nil {
		scorer = NewScorer(DefaultScoreParams())
	}
	return &Matcher{engine: engine, resolver: resolver, scorer: scorer}
}

// Match builds a fresh MatchResult. Chunks must carry their vectors.
func (m *Matcher) Match(ctx context.Context, resume, jd *models.Document, resumeChunks, jdChunks []models.Chunk) (models.MatchResult, error) {
	analysis, err := m.engine.Analyze(ctx, resumeChunks, jdChunks)
	if err != nil {
		return models.MatchResult{}, err
	}

	bonus, equivalences := m.resolver.Resolve(documentText(resume, resumeChunks), documentText(jd, jdChunks))
	score, grade := m.scorer.Score(analysis.OverallSimilarity, analysis.Sections, bonus)

	return models.MatchResult{
		ResumeID:          resume.ID,
		JDID:              jd.ID,
		OverallSimilarity: analysis.OverallSimilarity,
		MatchScore:        score,
		Grade:             grade,
		SectionScores:     analysis.Sections,
		ChunkMatches:      analysis.Matches,
		Equivalences:      equivalences,
		EquivalenceBonus:  bonus,
		Feedback:          BuildFeedback(score, grade, analysis.Sections, equivalences),
	}, nil
}

// documentText prefers the cleaned document text and falls back to the chunks.
func documentText(doc *models.Document, chunks []models.Chunk) string {
	if doc != nil && doc.CleanedText != "" {
		return doc.CleanedText
	}
	if doc != nil && doc.RawText != "" {
		return doc.RawText
	}
	var text string
	for _, ch := range chunks {
		text += ch.Content + "\n"
	}
	return text
}
