package matching

import (
	"context"
	"fmt"
	"sort"

	"alfredoptarigan/resume-matcher/internal/models"
)

const (
	DefaultTopK       = 3
	DefaultTopMatches = 3
	defaultWeight     = 0.8
)

// Weights maps a job description section to its importance in scoring.
type Weights map[models.SectionType]float64

func DefaultWeights() Weights {
	return Weights{
		models.SectionRequirements:     1.5,
		models.SectionTechStack:        1.3,
		models.SectionPreferred:        1.2,
		models.SectionResponsibilities: 1.0,
		models.SectionBenefits:         0.5,
		models.SectionCompanyInfo:      0.5,
		models.SectionSalary:           0.8,
		models.SectionUnknown:          0.8,
	}
}

// For returns the weight of a section, falling back to the unknown weight.
func (w Weights) For(section models.SectionType) float64 {
	if v, ok := w[section]; ok {
		return v
	}
	if v, ok := w[models.SectionUnknown]; ok {
		return v
	}
	return defaultWeight
}

// Analysis is the raw similarity picture of one resume against one job description.
type Analysis struct {
	OverallSimilarity float64
	Matches           []models.ChunkMatch
	Sections          []models.SectionScore
}

// Engine pairs resume chunks with job description chunks. Retrieval is driven
// by resume chunks while scores are grouped by the job description section,
// so a section the posting cares about is scored by how well the resume covers it.
type Engine struct {
	searcher Searcher
	topK     int
	weights  Weights
}

// NewEngine builds an engine. A nil searcher makes every Analyze call rank
// the job description chunks in memory.
func NewEngine(searcher Searcher, topK int, weights Weights) *Engine {
	if topK <= 0 {
		topK = DefaultTopK
	}
	if weights == nil {
		weights = DefaultWeights()
	}
	return &Engine{searcher: searcher, topK: topK, weights: weights}
}

func (e *Engine) Weights() Weights {
	return e.weights
}

func (e *Engine) Analyze(ctx context.Context, resume, jd []models.Chunk) (Analysis, error) {
	overall := CentroidSimilarity(vectorsOf(resume), vectorsOf(jd))

	matches, err := e.matchChunks(ctx, resume, jd)
	if err != nil {
		return Analysis{}, err
	}

	return Analysis{
		OverallSimilarity: overall,
		Matches:           matches,
		Sections:          ScoreSections(matches, e.weights),
	}, nil
}

func (e *Engine) matchChunks(ctx context.Context, resume, jd []models.Chunk) ([]models.ChunkMatch, error) {
	if len(resume) == 0 || len(jd) == 0 {
		return []models.ChunkMatch{}, nil
	}

	searcher := e.searcher
	filter := Filter{DocumentID: jd[0].DocumentID}
	if searcher == nil {
		local := NewMemoryIndex()
		if err := local.Upsert(ctx, jd); err != nil {
			return nil, err
		}
		searcher = local
		filter = Filter{}
	}

	matches := make([]models.ChunkMatch, 0, len(resume)*e.topK)
	for _, rc := range resume {
		vec := rc.Vector()
		if len(vec) == 0 {
			continue
		}

		hits, err := searcher.QueryTopK(ctx, vec, e.topK, filter)
		if err != nil {
			return nil, fmt.Errorf("failed to query matches for resume chunk %d: %w", rc.ChunkIndex, err)
		}

		for _, h := range hits {
			matches = append(matches, models.ChunkMatch{
				ResumeChunkID:     rc.ID,
				ResumeChunkIndex:  rc.ChunkIndex,
				ResumeSectionType: rc.SectionType,
				JDChunkID:         h.Chunk.ID,
				JDChunkIndex:      h.Chunk.ChunkIndex,
				JDSectionType:     sectionOrUnknown(h.Chunk.SectionType),
				JDContent:         h.Chunk.Content,
				Similarity:        h.Similarity,
			})
		}
	}
	return matches, nil
}

// ScoreSections groups matches by the job description section, averages their
// similarity, and scales by the section weight and 100. Results are sorted by
// score descending. Scores above 100 are expected when a weight exceeds 1.
func ScoreSections(matches []models.ChunkMatch, weights Weights) []models.SectionScore {
	groups := make(map[models.SectionType][]models.ChunkMatch)
	var order []models.SectionType
	for _, m := range matches {
		section := sectionOrUnknown(m.JDSectionType)
		if _, seen := groups[section]; !seen {
			order = append(order, section)
		}
		groups[section] = append(groups[section], m)
	}

	scores := make([]models.SectionScore, 0, len(order))
	for _, section := range order {
		group := groups[section]

		var sum float64
		for _, m := range group {
			sum += m.Similarity
		}
		mean := sum / float64(len(group))
		weight := weights.For(section)

		top := append([]models.ChunkMatch(nil), group...)
		sort.SliceStable(top, func(i, j int) bool { return top[i].Similarity > top[j].Similarity })
		if len(top) > DefaultTopMatches {
			top = top[:DefaultTopMatches]
		}

		scores = append(scores, models.SectionScore{
			SectionType: section,
			Score:       mean * weight * 100,
			Weight:      weight,
			ChunkCount:  len(group),
			TopMatches:  top,
		})
	}

	sort.SliceStable(scores, func(i, j int) bool {
		if scores[i].Score != scores[j].Score {
			return scores[i].Score > scores[j].Score
		}
		return scores[i].SectionType < scores[j].SectionType
	})
	return scores
}

func vectorsOf(chunks []models.Chunk) [][]float32 {
	out := make([][]float32, 0, len(chunks))
	for _, ch := range chunks {
		if v := ch.Vector(); len(v) > 0 {
			out = append(out, v)
		}
	}
	return out
}

func sectionOrUnknown(s models.SectionType) models.SectionType {
	if s == "" {
		return models.SectionUnknown
	}
	return s
}
