package services

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"alfredoptarigan/resume-matcher/internal/apperror"
	"alfredoptarigan/resume-matcher/internal/matching"
	"alfredoptarigan/resume-matcher/internal/models"
	"alfredoptarigan/resume-matcher/internal/repositories"
)

type AnalysisService interface {
	Match(ctx context.Context, resumeID, jdID uuid.UUID) (*models.MatchResult, error)
	Gaps(ctx context.Context, resumeID, jdID uuid.UUID) (*models.GapAnalysis, error)
}

type analysisService struct {
	docRepo   repositories.DocumentRepository
	chunkRepo repositories.ChunkRepository
	matcher   *matching.Matcher
	logger    *zap.Logger
}

func NewAnalysisService(
	docRepo repositories.DocumentRepository,
	chunkRepo repositories.ChunkRepository,
	matcher *matching.Matcher,
	log *zap.Logger,
) AnalysisService {
	if matcher == nil {
		matcher = matching.NewMatcher(nil, nil, nil)
	}
	if log == nil {
		log = zap.NewNop()
	}
	return &analysisService{
		docRepo:   docRepo,
		chunkRepo: chunkRepo,
		matcher:   matcher,
		logger:    log.Named("analysis"),
	}
}

// Match computes a fresh result on every call; nothing is cached.
func (s *analysisService) Match(ctx context.Context, resumeID, jdID uuid.UUID) (*models.MatchResult, error) {
	resume, resumeChunks, err := s.load(ctx, resumeID, models.RoleResume)
	if err != nil {
		return nil, err
	}
	jd, jdChunks, err := s.load(ctx, jdID, models.RoleJobDescription)
	if err != nil {
		return nil, err
	}

	result, err := s.matcher.Match(ctx, resume, jd, resumeChunks, jdChunks)
	if err != nil {
		return nil, err
	}

	s.logger.Info("📊 match computed",
		zap.String("resume_id", resumeID.String()),
		zap.String("jd_id", jdID.String()),
		zap.Float64("score", result.MatchScore),
		zap.String("grade", string(result.Grade)),
		zap.Int("equivalences", len(result.Equivalences)))

	return &result, nil
}

func (s *analysisService) Gaps(ctx context.Context, resumeID, jdID uuid.UUID) (*models.GapAnalysis, error) {
	result, err := s.Match(ctx, resumeID, jdID)
	if err != nil {
		return nil, err
	}
	gaps := matching.AnalyzeGaps(*result)
	return &gaps, nil
}

// load returns a completed document of the expected role with its chunks.
func (s *analysisService) load(ctx context.Context, id uuid.UUID, role models.Role) (*models.Document, []models.Chunk, error) {
	const op = "analysis.load"

	doc, err := s.docRepo.FindByID(ctx, id)
	if err != nil {
		return nil, nil, err
	}
	if doc.Role != role {
		return nil, nil, apperror.Validation(op, fmt.Sprintf("document %s is a %s, expected %s", id, doc.Role, role)).
			WithDetail("document_id", id.String()).
			WithDetail("role", string(doc.Role))
	}
	if doc.EmbeddingStatus != models.StatusCompleted {
		return nil, nil, apperror.Precondition(op, fmt.Sprintf("document %s is not ingested yet", id)).
			WithDetail("document_id", id.String()).
			WithDetail("embedding_status", string(doc.EmbeddingStatus))
	}

	chunks, err := s.chunkRepo.FindByDocument(ctx, id)
	if err != nil {
		return nil, nil, err
	}
	return doc, chunks, nil
}
