package matching

import (
	"fmt"
	"strings"

	"alfredoptarigan/resume-matcher/internal/models"
)

const (
	strengthThreshold    = 70.0
	improvementThreshold = 50.0
	maxPotentialItems    = 5
	maxActionItems       = 4
)

var strengthMessages = map[models.SectionType]string{
	models.SectionRequirements:     "Your background covers the core requirements of this role well.",
	models.SectionPreferred:        "You already bring several of the preferred qualifications.",
	models.SectionTechStack:        "Your technical stack lines up closely with the team's stack.",
	models.SectionResponsibilities: "Your past work maps directly onto the day-to-day responsibilities.",
	models.SectionCompanyInfo:      "Your experience fits the company's domain and product direction.",
	models.SectionBenefits:         "Your profile suits the working environment this company offers.",
	models.SectionSalary:           "Your seniority is in line with the compensation band.",
}

var improvementMessages = map[models.SectionType]string{
	models.SectionRequirements:     "Several required qualifications are not clearly shown. Make the matching experience explicit or close the gap.",
	models.SectionPreferred:        "Preferred qualifications are thin. Adding one or two of them would set you apart.",
	models.SectionTechStack:        "The team's tech stack is only partly reflected in your resume. Describe hands-on work with it.",
	models.SectionResponsibilities: "Your described work does not yet mirror the role's responsibilities. Reframe projects around similar duties.",
	models.SectionCompanyInfo:      "Show more interest in or exposure to the company's domain.",
	models.SectionBenefits:         "The working environment described here differs from your past roles.",
	models.SectionSalary:           "Your seniority signal may not match this compensation band.",
}

var gradeSummaries = map[models.Grade]string{
	models.GradeS: "Outstanding match (%.1f points). Your profile is an excellent fit for this position.",
	models.GradeA: "Strong match (%.1f points). You meet most of the requirements for this position.",
	models.GradeB: "Good match (%.1f points). You have a solid foundation with a few gaps to close.",
	models.GradeC: "Fair match (%.1f points). Your profile is relevant but several key areas need work.",
	models.GradeD: "Low match (%.1f points). This position differs considerably from your current profile.",
}

var gradeAdvice = map[models.Grade][]string{
	models.GradeD: {
		"Treat this role as a growth target and study the missing fundamentals step by step.",
		"Build a side project with the required stack to show practical experience.",
	},
	models.GradeC: {
		"Keep a growth mindset and focus on the requirements you are closest to meeting.",
		"Use a side project to demonstrate the skills the posting emphasises.",
	},
	models.GradeB: {
		"Lead with your strongest sections and back them with concrete metrics.",
	},
	models.GradeA: {
		"Quantify your impact (latency, revenue, users) so reviewers see the scale of your work.",
	},
	models.GradeS: {
		"Quantify your impact and prepare to discuss the trade-offs behind your best results.",
	},
}

// SectionLabel turns a section type into readable text.
func SectionLabel(s models.SectionType) string {
	return strings.ReplaceAll(string(s), "_", " ")
}

// BuildFeedback derives feedback deterministically from scored sections and
// equivalence matches. Sections are expected sorted by score descending.
func BuildFeedback(score float64, grade models.Grade, sections []models.SectionScore, equivalences []models.EquivalenceMatch) models.Feedback {
	fb := models.Feedback{
		Summary:      fmt.Sprintf(gradeSummaries[grade], score),
		Strengths:    []models.FeedbackItem{},
		Improvements: []models.FeedbackItem{},
		Potential:    []models.FeedbackItem{},
		ActionItems:  []string{},
	}

	var weakest *models.SectionScore
	for i := range sections {
		s := sections[i]
		switch {
		case s.Score >= strengthThreshold:
			fb.Strengths = append(fb.Strengths, models.FeedbackItem{
				Section: s.SectionType,
				Score:   s.Score,
				Message: messageFor(strengthMessages, s.SectionType, "Your resume covers the %s section well."),
			})
		case s.Score < improvementThreshold:
			fb.Improvements = append(fb.Improvements, models.FeedbackItem{
				Section: s.SectionType,
				Score:   s.Score,
				Message: messageFor(improvementMessages, s.SectionType, "The %s section is weakly covered by your resume."),
			})
			if weakest == nil || s.Score < weakest.Score {
				weakest = &sections[i]
			}
		}
	}

	for i, eq := range equivalences {
		if i == maxPotentialItems {
			break
		}
		fb.Potential = append(fb.Potential, models.FeedbackItem{
			Message: fmt.Sprintf("Your %s experience is a transferable skill for %s.", eq.ResumeHas, eq.JDRequired),
		})
	}

	if weakest != nil {
		fb.ActionItems = append(fb.ActionItems, fmt.Sprintf(
			"Focus on the %s section first: it scored %.1f, the lowest of the weak areas.",
			SectionLabel(weakest.SectionType), weakest.Score))
	}
	if len(equivalences) > 0 {
		top := equivalences[0]
		fb.ActionItems = append(fb.ActionItems, fmt.Sprintf(
			"Explain how your %s experience carries over to %s, and consider a short project with %s.",
			top.ResumeHas, top.JDRequired, top.JDRequired))
	}
	for _, advice := range gradeAdvice[grade] {
		if len(fb.ActionItems) == maxActionItems {
			break
		}
		fb.ActionItems = append(fb.ActionItems, advice)
	}

	return fb
}

func messageFor(table map[models.SectionType]string, section models.SectionType, fallback string) string {
	if msg, ok := table[section]; ok {
		return msg
	}
	return fmt.Sprintf(fallback, SectionLabel(section))
}

// Recommendation is the one-line advice attached to a gap analysis.
func Recommendation(grade models.Grade) string {
	switch grade {
	case models.GradeS:
		return "Excellent match! Your profile closely aligns with the job requirements."
	case models.GradeA:
		return "Great match! You meet most of the requirements. Consider highlighting your relevant experience."
	case models.GradeB:
		return "Good match! Focus on strengthening the areas where you scored lower."
	case models.GradeC:
		return "Fair match. Consider gaining more experience in the required skills."
	}
	return "The job requirements differ significantly from your current profile. Consider upskilling or looking for more suitable positions."
}

// AnalyzeGaps splits scored sections into strengths and weaknesses.
func AnalyzeGaps(result models.MatchResult) models.GapAnalysis {
	gaps := models.GapAnalysis{
		MatchResult:    result,
		Strengths:      []models.SectionStatus{},
		Weaknesses:     []models.SectionStatus{},
		Recommendation: Recommendation(result.Grade),
	}
	for _, s := range result.SectionScores {
		switch {
		case s.Score >= strengthThreshold:
			gaps.Strengths = append(gaps.Strengths, models.SectionStatus{Section: s.SectionType, Score: s.Score, Status: "strong"})
		case s.Score < improvementThreshold:
			gaps.Weaknesses = append(gaps.Weaknesses, models.SectionStatus{Section: s.SectionType, Score: s.Score, Status: "needs_improvement"})
		}
	}
	return gaps
}
