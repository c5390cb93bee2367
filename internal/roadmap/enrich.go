package roadmap

import (
	"sort"

	"alfredoptarigan/resume-matcher/internal/models"
)

const MaxResourcesPerWeek = 6

var difficultyRank = map[string]int{
	"beginner":     1,
	"intermediate": 2,
	"advanced":     3,
}

func rank(difficulty string) int {
	if r, ok := difficultyRank[difficulty]; ok {
		return r
	}
	return difficultyRank["intermediate"]
}

// Enrich normalizes every week's keywords and attaches catalog resources,
// de-duplicated by URL, ordered beginner to advanced and capped per week.
func (c *Catalog) Enrich(r *models.Roadmap) {
	if r == nil {
		return
	}

	for i := range r.WeeklyPlan {
		week := &r.WeeklyPlan[i]

		keywords := make([]string, 0, len(week.Keywords))
		for _, kw := range week.Keywords {
			keywords = append(keywords, NormalizeKeyword(kw))
		}
		week.Keywords = keywords

		seen := make(map[string]struct{})
		resources := make([]models.LearningResource, 0)
		for _, kw := range keywords {
			for _, res := range c.ResourcesFor(kw) {
				if _, dup := seen[res.URL]; dup {
					continue
				}
				seen[res.URL] = struct{}{}
				resources = append(resources, res)
			}
		}

		sort.SliceStable(resources, func(a, b int) bool {
			return rank(resources[a].Difficulty) < rank(resources[b].Difficulty)
		})
		if len(resources) > MaxResourcesPerWeek {
			resources = resources[:MaxResourcesPerWeek]
		}
		week.Resources = resources
	}
}
