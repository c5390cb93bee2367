package handlers

import (
	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"

	"alfredoptarigan/resume-matcher/internal/models"
	"alfredoptarigan/resume-matcher/internal/services"
)

type AnalysisHandler struct {
	analysis services.AnalysisService
	roadmap  services.RoadmapService
}

func NewAnalysisHandler(analysis services.AnalysisService, roadmap services.RoadmapService) *AnalysisHandler {
	return &AnalysisHandler{
		analysis: analysis,
		roadmap:  roadmap,
	}
}

func parsePair(resumeID, jdID string) (uuid.UUID, uuid.UUID, error) {
	resume, err := parseID("resume_id", resumeID)
	if err != nil {
		return uuid.Nil, uuid.Nil, err
	}
	jd, err := parseID("jd_id", jdID)
	if err != nil {
		return uuid.Nil, uuid.Nil, err
	}
	return resume, jd, nil
}

// HandleMatch handles POST /analysis/match
func (h *AnalysisHandler) HandleMatch(c *fiber.Ctx) error {
	var req models.MatchRequest
	if err := parseBody(c, &req); err != nil {
		return failure(c, err)
	}
	resumeID, jdID, err := parsePair(req.ResumeID, req.JDID)
	if err != nil {
		return failure(c, err)
	}

	result, err := h.analysis.Match(c.UserContext(), resumeID, jdID)
	if err != nil {
		return failure(c, err)
	}
	return success(c, fiber.StatusOK, result, "")
}

// HandleGaps handles POST /analysis/gaps
func (h *AnalysisHandler) HandleGaps(c *fiber.Ctx) error {
	var req models.MatchRequest
	if err := parseBody(c, &req); err != nil {
		return failure(c, err)
	}
	resumeID, jdID, err := parsePair(req.ResumeID, req.JDID)
	if err != nil {
		return failure(c, err)
	}

	gaps, err := h.analysis.Gaps(c.UserContext(), resumeID, jdID)
	if err != nil {
		return failure(c, err)
	}
	return success(c, fiber.StatusOK, gaps, "")
}

// HandleRoadmap handles POST /roadmap/generate
func (h *AnalysisHandler) HandleRoadmap(c *fiber.Ctx) error {
	var req models.RoadmapRequest
	if err := parseBody(c, &req); err != nil {
		return failure(c, err)
	}
	resumeID, jdID, err := parsePair(req.ResumeID, req.JDID)
	if err != nil {
		return failure(c, err)
	}

	plan, err := h.roadmap.Generate(c.UserContext(), resumeID, jdID, req.TargetWeeks)
	if err != nil {
		return failure(c, err)
	}
	return success(c, fiber.StatusOK, plan, "Roadmap generated successfully")
}
