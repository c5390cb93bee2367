package services

import (
	"context"
	"fmt"
	"sync"

	"github.com/google/uuid"
	"github.com/pgvector/pgvector-go"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"alfredoptarigan/resume-matcher/internal/apperror"
	"alfredoptarigan/resume-matcher/internal/models"
	"alfredoptarigan/resume-matcher/internal/rag"
	"alfredoptarigan/resume-matcher/internal/repositories"
)

const defaultCostPerMillion = 0.02

type IngestOptions struct {
	SkipIfExists bool
	ChunkSize    int
	ChunkOverlap int
}

type IngestionConfig struct {
	// zero fields fall back to rag.DefaultChunkConfig
	Resume         rag.ChunkConfig
	JobDescription rag.ChunkConfig
	MinChunkSize   int
	CostPerMillion float64
	Concurrency    int
}

type IngestionService interface {
	Ingest(ctx context.Context, documentID uuid.UUID, opts IngestOptions) (*models.IngestionResult, error)
	IngestMany(ctx context.Context, documentIDs []uuid.UUID, opts IngestOptions) []models.IngestionResult
}

type ingestionService struct {
	docRepo   repositories.DocumentRepository
	chunkRepo repositories.ChunkRepository
	chunker   *rag.Chunker
	embedder  Embedder
	vectors   *VectorStore
	cfg       IngestionConfig
	logger    *zap.Logger

	locksMu sync.Mutex
	locks   map[uuid.UUID]*docLock
}

// docLock is dropped from the map once no caller holds or waits on it.
type docLock struct {
	mu   sync.Mutex
	refs int
}

func NewIngestionService(
	docRepo repositories.DocumentRepository,
	chunkRepo repositories.ChunkRepository,
	chunker *rag.Chunker,
	embedder Embedder,
	vectors *VectorStore,
	cfg IngestionConfig,
	log *zap.Logger,
) IngestionService {
	if chunker == nil {
		chunker = rag.NewChunker(nil)
	}
	if cfg.CostPerMillion <= 0 {
		cfg.CostPerMillion = defaultCostPerMillion
	}
	if cfg.Concurrency <= 0 {
		cfg.Concurrency = 1
	}
	if log == nil {
		log = zap.NewNop()
	}

	return &ingestionService{
		docRepo:   docRepo,
		chunkRepo: chunkRepo,
		chunker:   chunker,
		embedder:  embedder,
		vectors:   vectors,
		cfg:       cfg,
		logger:    log.Named("ingestion"),
		locks:     make(map[uuid.UUID]*docLock),
	}
}

// lock serializes chunk writes per document.
func (s *ingestionService) lock(id uuid.UUID) func() {
	s.locksMu.Lock()
	l, ok := s.locks[id]
	if !ok {
		l = &docLock{}
		s.locks[id] = l
	}
	l.refs++
	s.locksMu.Unlock()

	l.mu.Lock()
	return func() {
		l.mu.Unlock()

		s.locksMu.Lock()
		l.refs--
		if l.refs == 0 {
			delete(s.locks, id)
		}
		s.locksMu.Unlock()
	}
}

// Ingest chunks, embeds and indexes one document. A completed document is
// skipped when opts.SkipIfExists is set and rejected otherwise; a failed
// document must be uploaded again.
func (s *ingestionService) Ingest(ctx context.Context, documentID uuid.UUID, opts IngestOptions) (*models.IngestionResult, error) {
	const op = "ingestion.ingest"

	unlock := s.lock(documentID)
	defer unlock()

	doc, err := s.docRepo.FindByID(ctx, documentID)
	if err != nil {
		return nil, err
	}

	switch doc.EmbeddingStatus {
	case models.StatusCompleted:
		if opts.SkipIfExists {
			s.logger.Info("⏭️ document already ingested, skipping", zap.String("document_id", documentID.String()))
			return &models.IngestionResult{
				DocumentID:       documentID,
				Status:           models.IngestionSkipped,
				ChunksCreated:    doc.ChunkCount,
				TotalTokens:      doc.TotalTokens,
				EstimatedCostUSD: 0,
			}, nil
		}
		return nil, apperror.Precondition(op, "document is already ingested; set skip_if_exists or upload it again").
			WithDetail("document_id", documentID.String()).
			WithDetail("embedding_status", string(doc.EmbeddingStatus))
	case models.StatusFailed:
		return nil, apperror.Precondition(op, "document failed ingestion; upload it again").
			WithDetail("document_id", documentID.String()).
			WithDetail("embedding_status", string(doc.EmbeddingStatus))
	}

	if err := s.docRepo.UpdateStatus(ctx, documentID, models.StatusProcessing, nil); err != nil {
		return nil, err
	}

	s.logger.Info("🔄 ingesting document",
		zap.String("document_id", documentID.String()),
		zap.String("role", string(doc.Role)))

	result, err := s.run(ctx, doc, opts)
	if err != nil {
		s.fail(ctx, documentID, err)
		return nil, err
	}

	s.logger.Info("✅ document ingested",
		zap.String("document_id", documentID.String()),
		zap.Int("chunks", result.ChunksCreated),
		zap.Int("tokens", result.TotalTokens),
		zap.Float64("estimated_cost_usd", result.EstimatedCostUSD))
	return result, nil
}

func (s *ingestionService) run(ctx context.Context, doc *models.Document, opts IngestOptions) (*models.IngestionResult, error) {
	const op = "ingestion.run"

	text := doc.CleanedText
	if text == "" {
		text = rag.CleanText(doc.RawText, false)
	}

	chunks := s.chunker.Split(text, doc.Role, s.chunkConfig(doc.Role, opts))
	if s.cfg.MinChunkSize > 0 {
		chunks = rag.MergeSmallChunks(chunks, s.cfg.MinChunkSize)
	}
	if len(chunks) == 0 {
		return nil, apperror.Validation(op, "document produced no chunks").
			WithDetail("document_id", doc.ID.String())
	}

	texts := make([]string, len(chunks))
	for i, ch := range chunks {
		texts[i] = ch.Content
	}
	vectors, err := s.embedder.EmbedTexts(ctx, texts)
	if err != nil {
		return nil, err
	}
	if len(vectors) != len(chunks) {
		return nil, apperror.New(apperror.KindExternalService, op,
			fmt.Sprintf("embedding count mismatch: %d chunks, %d vectors", len(chunks), len(vectors)))
	}

	model := s.embedder.EmbeddingModel()
	for i := range chunks {
		chunks[i].ID = uuid.New()
		chunks[i].DocumentID = doc.ID
		chunks[i].Embedding = pgvector.NewVector(vectors[i])
		chunks[i].EmbeddingModel = model
	}

	if err := s.vectors.DeleteDocument(ctx, doc.ID); err != nil {
		return nil, err
	}
	if err := s.chunkRepo.ReplaceForDocument(ctx, doc.ID, chunks); err != nil {
		return nil, err
	}
	if err := s.vectors.Upsert(ctx, chunks); err != nil {
		return nil, err
	}

	summary := rag.Summarize(chunks)
	err = s.docRepo.UpdateStatus(ctx, doc.ID, models.StatusCompleted, &repositories.StatusUpdateData{
		ChunkCount:          len(chunks),
		TotalTokens:         summary.EstimatedTokens,
		SectionDistribution: summary.Distribution(),
	})
	if err != nil {
		return nil, err
	}

	return &models.IngestionResult{
		DocumentID:       doc.ID,
		Status:           models.IngestionCompleted,
		ChunksCreated:    len(chunks),
		TotalTokens:      summary.EstimatedTokens,
		EstimatedCostUSD: float64(summary.EstimatedTokens) / 1e6 * s.cfg.CostPerMillion,
		Summary: map[string]any{
			"total_chunks":         summary.TotalChunks,
			"total_characters":     summary.TotalCharacters,
			"estimated_tokens":     summary.EstimatedTokens,
			"avg_chunk_size":       summary.AvgChunkSize,
			"section_distribution": summary.SectionDistribution,
		},
	}, nil
}

// fail marks the document failed and removes partial chunks. It runs even
// when the request context is already cancelled.
func (s *ingestionService) fail(ctx context.Context, documentID uuid.UUID, cause error) {
	ctx = context.WithoutCancel(ctx)

	s.logger.Error("❌ ingestion failed",
		zap.String("document_id", documentID.String()),
		zap.String("kind", string(apperror.KindOf(cause))),
		zap.Error(cause))

	if err := s.chunkRepo.DeleteByDocument(ctx, documentID); err != nil {
		s.logger.Warn("failed to remove partial chunks", zap.String("document_id", documentID.String()), zap.Error(err))
	}
	if err := s.vectors.DeleteDocument(ctx, documentID); err != nil {
		s.logger.Warn("failed to remove partial vectors", zap.String("document_id", documentID.String()), zap.Error(err))
	}
	err := s.docRepo.UpdateStatus(ctx, documentID, models.StatusFailed, &repositories.StatusUpdateData{
		ErrorMessage: cause.Error(),
	})
	if err != nil {
		s.logger.Error("failed to mark document as failed", zap.String("document_id", documentID.String()), zap.Error(err))
	}
}

func (s *ingestionService) chunkConfig(role models.Role, opts IngestOptions) rag.ChunkConfig {
	cfg := rag.DefaultChunkConfig(role)

	override := s.cfg.Resume
	if role == models.RoleJobDescription {
		override = s.cfg.JobDescription
	}
	if override.ChunkSize > 0 {
		cfg.ChunkSize = override.ChunkSize
	}
	if override.ChunkOverlap > 0 {
		cfg.ChunkOverlap = override.ChunkOverlap
	}

	if opts.ChunkSize > 0 {
		cfg.ChunkSize = opts.ChunkSize
	}
	if opts.ChunkOverlap > 0 {
		cfg.ChunkOverlap = opts.ChunkOverlap
	}
	return cfg
}

// IngestMany ingests independent documents in parallel. One document's
// failure is reported in its result and does not stop the others.
func (s *ingestionService) IngestMany(ctx context.Context, documentIDs []uuid.UUID, opts IngestOptions) []models.IngestionResult {
	results := make([]models.IngestionResult, len(documentIDs))

	var g errgroup.Group
	g.SetLimit(s.cfg.Concurrency)

	for i, id := range documentIDs {
		g.Go(func() error {
			res, err := s.Ingest(ctx, id, opts)
			if err != nil {
				results[i] = models.IngestionResult{
					DocumentID: id,
					Status:     models.IngestionFailed,
					Error:      err.Error(),
				}
				return nil
			}
			results[i] = *res
			return nil
		})
	}
	g.Wait()

	return results
}
