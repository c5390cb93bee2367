package services

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"alfredoptarigan/resume-matcher/internal/apperror"
	"alfredoptarigan/resume-matcher/internal/models"
	"alfredoptarigan/resume-matcher/internal/repositories"
	"alfredoptarigan/resume-matcher/internal/roadmap"
)

const (
	DefaultRoadmapWeeks = 8
	MinRoadmapWeeks     = 4
	MaxRoadmapWeeks     = 12
)

type RoadmapService interface {
	Generate(ctx context.Context, resumeID, jdID uuid.UUID, targetWeeks int) (*models.Roadmap, error)
}

type roadmapService struct {
	docRepo       repositories.DocumentRepository
	analysis      AnalysisService
	llm           JSONGenerator
	catalog       *roadmap.Catalog
	promptBuilder *PromptBuilder
	logger        *zap.Logger
}

func NewRoadmapService(
	docRepo repositories.DocumentRepository,
	analysis AnalysisService,
	llm JSONGenerator,
	catalog *roadmap.Catalog,
	log *zap.Logger,
) RoadmapService {
	if log == nil {
		log = zap.NewNop()
	}
	return &roadmapService{
		docRepo:       docRepo,
		analysis:      analysis,
		llm:           llm,
		catalog:       catalog,
		promptBuilder: NewPromptBuilder(),
		logger:        log.Named("roadmap"),
	}
}

// Generate asks the LLM for a weekly plan that targets the gaps of the
// resume against the job description, then attaches catalog resources.
func (s *roadmapService) Generate(ctx context.Context, resumeID, jdID uuid.UUID, targetWeeks int) (*models.Roadmap, error) {
	const op = "roadmap.generate"

	if targetWeeks == 0 {
		targetWeeks = DefaultRoadmapWeeks
	}
	if targetWeeks < MinRoadmapWeeks || targetWeeks > MaxRoadmapWeeks {
		return nil, apperror.Validation(op, fmt.Sprintf("target_weeks must be between %d and %d", MinRoadmapWeeks, MaxRoadmapWeeks)).
			WithDetail("target_weeks", targetWeeks)
	}

	gaps, err := s.analysis.Gaps(ctx, resumeID, jdID)
	if err != nil {
		return nil, err
	}

	resume, err := s.docRepo.FindByID(ctx, resumeID)
	if err != nil {
		return nil, err
	}
	jd, err := s.docRepo.FindByID(ctx, jdID)
	if err != nil {
		return nil, err
	}

	prompt := s.promptBuilder.BuildRoadmapPrompt(RoadmapPromptInput{
		Gaps:        gaps,
		TargetWeeks: targetWeeks,
		ResumeText:  resume.CleanedText,
		JDText:      jd.CleanedText,
		Language:    resume.Language,
	})

	s.logger.Info("🧭 generating roadmap",
		zap.String("resume_id", resumeID.String()),
		zap.String("jd_id", jdID.String()),
		zap.String("grade", string(gaps.MatchResult.Grade)),
		zap.Int("target_weeks", targetWeeks))

	response, err := s.llm.GenerateJSON(ctx, s.promptBuilder.RoadmapSystemPrompt(), prompt)
	if err != nil {
		return nil, err
	}

	plan, err := roadmap.Decode(response)
	if err != nil {
		return nil, apperror.Wrap(apperror.KindExternalService, op, fmt.Errorf("failed to parse roadmap response: %w", err))
	}

	if plan.MatchGrade == "" {
		plan.MatchGrade = string(gaps.MatchResult.Grade)
	}
	if plan.TotalWeeks != targetWeeks {
		s.logger.Warn("⚠️ roadmap week count differs from request",
			zap.Int("requested", targetWeeks),
			zap.Int("returned", plan.TotalWeeks))
	}

	if s.catalog != nil {
		s.catalog.Enrich(plan)
	}

	s.logger.Info("✅ roadmap generated",
		zap.Int("weeks", len(plan.WeeklyPlan)),
		zap.Strings("improvement_areas", plan.KeyImprovementAreas))
	return plan, nil
}
