package bootstrap

import (
	"context"
	"fmt"

	"go.uber.org/zap"
	"gorm.io/gorm"

	"alfredoptarigan/resume-matcher/internal/apperror"
	"alfredoptarigan/resume-matcher/internal/config"
	"alfredoptarigan/resume-matcher/internal/matching"
	"alfredoptarigan/resume-matcher/internal/models"
	"alfredoptarigan/resume-matcher/internal/rag"
	"alfredoptarigan/resume-matcher/internal/repositories"
	"alfredoptarigan/resume-matcher/internal/roadmap"
	"alfredoptarigan/resume-matcher/internal/services"
)

// Services is the wired service graph shared by the API server and the CLI.
type Services struct {
	DB        *gorm.DB
	DocRepo   repositories.DocumentRepository
	ChunkRepo repositories.ChunkRepository
	Vectors   *services.VectorStore
	Documents services.DocumentService
	Ingestion services.IngestionService
	Analysis  services.AnalysisService
	Roadmap   services.RoadmapService
	Worker    services.Worker
}

func (s *Services) Close() {
	if s.Worker != nil {
		s.Worker.Stop()
	}
	if s.DB == nil {
		return
	}
	if sqlDB, err := s.DB.DB(); err == nil {
		sqlDB.Close()
	}
}

func RetryPolicy(cfg *config.Config) apperror.RetryPolicy {
	return apperror.RetryPolicy{
		MaxAttempts:  cfg.Worker.RetryMaxAttempts,
		InitialDelay: cfg.Worker.RetryInitialDelay,
		MaxDelay:     cfg.Worker.RetryMaxDelay,
	}
}

// SectionWeights overlays configured weights on the defaults. Keys are
// section type names such as "requirements" or "tech_stack".
func SectionWeights(overrides map[string]float64) matching.Weights {
	weights := matching.DefaultWeights()
	for key, value := range overrides {
		if value > 0 {
			weights[models.SectionType(key)] = value
		}
	}
	return weights
}

func IngestionConfig(cfg *config.Config) services.IngestionConfig {
	return services.IngestionConfig{
		Resume: rag.ChunkConfig{
			ChunkSize:    cfg.Chunking.ResumeSize,
			ChunkOverlap: cfg.Chunking.ResumeOverlap,
		},
		JobDescription: rag.ChunkConfig{
			ChunkSize:    cfg.Chunking.JDSize,
			ChunkOverlap: cfg.Chunking.JDOverlap,
		},
		MinChunkSize:   cfg.Chunking.MinSize,
		CostPerMillion: cfg.Embedding.CostPerMillion,
		Concurrency:    cfg.Worker.Concurrency,
	}
}

func newVectorIndex(cfg *config.Config, log *zap.Logger) (services.VectorIndex, error) {
	if !cfg.Qdrant.Enabled {
		log.Info("🧠 Qdrant disabled, using in-memory vector index")
		return services.NewMemoryIndex(), nil
	}
	index, err := services.NewQdrantIndex(
		cfg.Qdrant.URL,
		cfg.Qdrant.APIKey,
		cfg.Qdrant.Collection,
		cfg.Qdrant.VectorSize,
		log,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize qdrant: %w", err)
	}
	return index, nil
}

// Build connects the database, the vector index and Gemini and wires every
// service. The worker is created but not started.
func Build(ctx context.Context, cfg *config.Config, log *zap.Logger) (*Services, error) {
	db, err := config.InitDatabase(cfg)
	if err != nil {
		return nil, err
	}

	s := &Services{
		DB:        db,
		DocRepo:   repositories.NewDocumentRepository(db),
		ChunkRepo: repositories.NewChunkRepository(db),
	}
	log.Info("✅ Repositories initialized successfully")

	storage := services.NewStorageService(cfg.Storage.UploadPath, cfg.Storage.MaxFileSize)
	if err := storage.EnsureUploadDir(); err != nil {
		s.Close()
		return nil, fmt.Errorf("failed to create upload directory: %w", err)
	}
	pdfParser := services.NewPDFParserService(log)

	retry := RetryPolicy(cfg)
	gemini, err := services.NewGeminiService(ctx, cfg.Gemini.APIKey, services.GeminiOptions{
		ChatModel:      cfg.Gemini.ChatModel,
		EmbeddingModel: cfg.Gemini.EmbeddingModel,
		Temperature:    cfg.Gemini.Temperature,
		BatchSize:      cfg.Embedding.BatchSize,
		Retry:          retry,
	}, log)
	if err != nil {
		s.Close()
		return nil, fmt.Errorf("failed to initialize gemini: %w", err)
	}
	log.Info("✅ Gemini AI initialized successfully")

	index, err := newVectorIndex(cfg, log)
	if err != nil {
		s.Close()
		return nil, err
	}
	s.Vectors = services.NewVectorStore(index, retry, log)
	if err := s.Vectors.EnsureCollection(ctx); err != nil {
		s.Close()
		return nil, fmt.Errorf("failed to initialize vector collection: %w", err)
	}
	log.Info("✅ Vector store ready", zap.String("backend", s.Vectors.Backend()))

	// with Qdrant the engine searches stored vectors; otherwise it builds a
	// per-request index from the two documents
	var searcher matching.Searcher
	if cfg.Qdrant.Enabled {
		searcher = s.Vectors
	}
	engine := matching.NewEngine(searcher, cfg.Matching.TopK, SectionWeights(cfg.Matching.SectionWeights))
	scorer := matching.NewScorer(matching.ScoreParams{
		OverallWeight:  cfg.Matching.OverallWeight,
		SectionWeight:  cfg.Matching.SectionWeight,
		FloorThreshold: cfg.Matching.FloorThreshold,
		FloorScore:     cfg.Matching.FloorScore,
	})
	matcher := matching.NewMatcher(engine, matching.NewEquivalenceResolver(), scorer)

	catalog, err := roadmap.DefaultCatalog()
	if err != nil {
		s.Close()
		return nil, fmt.Errorf("failed to load resource catalog: %w", err)
	}

	s.Documents = services.NewDocumentService(s.DocRepo, s.ChunkRepo, storage, pdfParser, s.Vectors, log)
	s.Ingestion = services.NewIngestionService(
		s.DocRepo,
		s.ChunkRepo,
		rag.NewChunker(nil),
		gemini,
		s.Vectors,
		IngestionConfig(cfg),
		log,
	)
	s.Analysis = services.NewAnalysisService(s.DocRepo, s.ChunkRepo, matcher, log)
	s.Roadmap = services.NewRoadmapService(s.DocRepo, s.Analysis, gemini, catalog, log)
	s.Worker = services.NewWorker(s.DocRepo, s.Ingestion, cfg.Worker.Concurrency, cfg.Worker.PollInterval, log)
	log.Info("✅ Services initialized successfully")

	return s, nil
}
