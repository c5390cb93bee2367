package matching

import "alfredoptarigan/resume-matcher/internal/models"

// ScoreParams are the calibration constants of the final score.
type ScoreParams struct {
	OverallWeight  float64
	SectionWeight  float64
	FloorThreshold float64
	FloorScore     float64
}

func DefaultScoreParams() ScoreParams {
	return ScoreParams{
		OverallWeight:  0.30,
		SectionWeight:  0.55,
		FloorThreshold: 0.3,
		FloorScore:     35,
	}
}

type Scorer struct {
	params ScoreParams
}

func NewScorer(params ScoreParams) *Scorer {
	return &Scorer{params: params}
}

// SectionComponent is the weight-normalised mean of section scores: the sum of
// scores divided by the sum of weights. It falls back to a plain mean when the
// weights sum to zero and is 0 without sections.
func SectionComponent(sections []models.SectionScore) float64 {
	if len(sections) == 0 {
		return 0
	}

	var scoreSum, weightSum float64
	for _, s := range sections {
		scoreSum += s.Score
		weightSum += s.Weight
	}
	if weightSum == 0 {
		return scoreSum / float64(len(sections))
	}
	return scoreSum / weightSum
}

// Score combines document similarity, section scores and the equivalence bonus
// into a 0-100 score and its grade.
func (s *Scorer) Score(overall float64, sections []models.SectionScore, bonus float64) (float64, models.Grade) {
	base := s.params.OverallWeight*overall*100 + s.params.SectionWeight*SectionComponent(sections)
	final := base + bonus*100

	if overall > s.params.FloorThreshold && final < s.params.FloorScore {
		final = s.params.FloorScore
	}
	final = clamp(final, 0, 100)

	return final, GradeFor(final)
}

// GradeFor bands a score with inclusive lower bounds.
func GradeFor(score float64) models.Grade {
	switch {
	case score >= 90:
		return models.GradeS
	case score >= 80:
		return models.GradeA
	case score >= 70:
		return models.GradeB
	case score >= 60:
		return models.GradeC
	}
	return models.GradeD
}
