package services

import (
	"encoding/json"
	"fmt"
	"strings"

	"alfredoptarigan/resume-matcher/internal/matching"
	"alfredoptarigan/resume-matcher/internal/models"
)

// excerpt length of each document quoted in the roadmap prompt
const promptExcerptRunes = 500

var (
	backendKeywords  = []string{"backend", "server", "api", "database", "node", "express", "django", "fastapi", "spring"}
	frontendKeywords = []string{"frontend", "react", "vue", "angular", "ui", "ux", "css", "html"}
)

var gradeStrategies = map[models.Grade]string{
	models.GradeD: "Foundation roadmap: build the fundamentals of the field step by step. Spend the first two weeks on core concepts, then raise the difficulty gradually.",
	models.GradeC: "Core-gap roadmap: concentrate on the missing core skills while using existing strengths to ramp up quickly.",
	models.GradeB: "Project roadmap: the basics are in place, so focus on gaining experience through realistic projects.",
	models.GradeA: "Depth roadmap: study advanced techniques and best practices to deepen expertise.",
	models.GradeS: "Expert-maintenance roadmap: follow current trends and advanced architecture patterns to stay competitive.",
}

const bridgeStrategy = `**Frontend to backend bridge (important)**
This candidate is a frontend developer closing a backend gap.
- Weeks 1-2 must cover REST API design principles, data modelling and HTTP in depth, framed as what a frontend developer needs to collaborate with backend teams.
- Aim for working fluency with APIs and backend logic rather than backend specialisation.
- Include a small CRUD API the candidate builds end to end.`

type PromptBuilder struct{}

func NewPromptBuilder() *PromptBuilder {
	return &PromptBuilder{}
}

type RoadmapPromptInput struct {
	Gaps        *models.GapAnalysis
	TargetWeeks int
	ResumeText  string
	JDText      string
	Language    string
}

// BridgeStrategyApplies reports whether a frontend-leaning resume is being
// matched against a backend-focused job description.
func BridgeStrategyApplies(resumeText, jdText string) bool {
	return containsAny(strings.ToLower(resumeText), frontendKeywords) &&
		containsAny(strings.ToLower(jdText), backendKeywords)
}

func containsAny(text string, keywords []string) bool {
	for _, kw := range keywords {
		if strings.Contains(text, kw) {
			return true
		}
	}
	return false
}

func (pb *PromptBuilder) RoadmapSystemPrompt() string {
	return "You are a career coach for junior developers. You build learning roadmaps that close skill gaps strategically, and you always answer with valid JSON only."
}

// BuildRoadmapPrompt creates the prompt for a weekly learning plan.
func (pb *PromptBuilder) BuildRoadmapPrompt(in RoadmapPromptInput) string {
	result := in.Gaps.MatchResult

	var strong, weak []string
	for _, s := range in.Gaps.Strengths {
		strong = append(strong, matching.SectionLabel(s.Section))
	}
	for _, w := range in.Gaps.Weaknesses {
		weak = append(weak, matching.SectionLabel(w.Section))
	}

	strategy, ok := gradeStrategies[result.Grade]
	if !ok {
		strategy = gradeStrategies[models.GradeC]
	}

	bridge := ""
	if BridgeStrategyApplies(in.ResumeText, in.JDText) {
		bridge = bridgeStrategy
	}

	actionItems := "- none"
	if len(result.Feedback.ActionItems) > 0 {
		actionItems = "- " + strings.Join(result.Feedback.ActionItems, "\n- ")
	}

	language := "English"
	if in.Language == "ko" || in.Language == "mixed" {
		language = "Korean"
	}

	areas, _ := json.Marshal(orEmpty(weak))

	return fmt.Sprintf(`Using the skill gap analysis between a candidate's resume and a target job description, create an actionable %[1]d-week learning roadmap.

CURRENT SITUATION:
- Match score: %.1[2]f (grade %[3]s)
- Strong areas: %[4]s
- Areas to improve (important): %[5]s

FEEDBACK SUMMARY:
%[6]s

KEY ACTION ITEMS (must be reflected in the roadmap):
%[7]s

%[8]s

STRATEGY FOR THIS GRADE:
%[9]s

RESUME (first %[10]d characters):
%[11]s

JOB DESCRIPTION (first %[10]d characters):
%[12]s

PRINCIPLES:
1. Spend at least 70%% of the weekly plan on the areas to improve; strong areas only get a short review.
2. Every week has a clear goal and checkable tasks a junior developer can follow.
3. Difficulty increases week by week, with a hands-on project each week.

Return your response in the following JSON format, written in %[13]s:
{
  "total_weeks": %[1]d,
  "match_grade": "%[3]s",
  "target_grade": "A",
  "summary": "<roadmap strategy and goal, 3-4 motivating sentences>",
  "key_improvement_areas": %[14]s,
  "weekly_plan": [
    {
      "week_number": 1,
      "title": "<week title>",
      "duration": "1 week",
      "description": "<what and why for this week, 3-4 sentences>",
      "keywords": ["typescript", "javascript"],
      "tasks": [
        {"task": "<concrete task>", "completed": false, "priority": "high"}
      ]
    }
  ]
}

CONSTRAINTS:
- 3-5 tasks per week.
- 2-4 keywords per week, lowercase standard technology names without spaces (e.g. "react", "typescript", "git", "docker", "api", "deployment", "portfolio", "interview").
- Keywords must include the technologies of the areas to improve.
- Return only valid JSON, without comments or extra text.`,
		in.TargetWeeks,
		result.MatchScore,
		result.Grade,
		joinOr(strong, "needs analysis"),
		joinOr(weak, "none"),
		result.Feedback.Summary,
		actionItems,
		bridge,
		strategy,
		promptExcerptRunes,
		excerpt(in.ResumeText, promptExcerptRunes),
		excerpt(in.JDText, promptExcerptRunes),
		language,
		areas,
	)
}

func joinOr(items []string, fallback string) string {
	if len(items) == 0 {
		return fallback
	}
	return strings.Join(items, ", ")
}

func orEmpty(items []string) []string {
	if items == nil {
		return []string{}
	}
	return items
}

func excerpt(text string, limit int) string {
	runes := []rune(strings.TrimSpace(text))
	if len(runes) <= limit {
		return string(runes)
	}
	return string(runes[:limit]) + "..."
}
