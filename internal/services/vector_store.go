package services

import (
	"context"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"alfredoptarigan/resume-matcher/internal/apperror"
	"alfredoptarigan/resume-matcher/internal/matching"
	"alfredoptarigan/resume-matcher/internal/models"
)

// memoryIndex adapts matching.MemoryIndex for runs without a Qdrant server.
type memoryIndex struct {
	*matching.MemoryIndex
}

func NewMemoryIndex() VectorIndex {
	return &memoryIndex{MemoryIndex: matching.NewMemoryIndex()}
}

func (m *memoryIndex) EnsureCollection(context.Context) error { return nil }

func (m *memoryIndex) Name() string { return "memory" }

// VectorStore wraps a VectorIndex with retries on transient failures.
type VectorStore struct {
	index  VectorIndex
	retry  apperror.RetryPolicy
	logger *zap.Logger
}

func NewVectorStore(index VectorIndex, retry apperror.RetryPolicy, log *zap.Logger) *VectorStore {
	if retry.MaxAttempts <= 0 {
		retry = apperror.DefaultRetryPolicy()
	}
	if log == nil {
		log = zap.NewNop()
	}
	return &VectorStore{index: index, retry: retry, logger: log.Named("vector_store")}
}

func (s *VectorStore) Backend() string {
	return s.index.Name()
}

func (s *VectorStore) EnsureCollection(ctx context.Context) error {
	return s.do(ctx, "vector_store.ensure_collection", func(ctx context.Context) error {
		return s.index.EnsureCollection(ctx)
	})
}

func (s *VectorStore) Upsert(ctx context.Context, chunks []models.Chunk) error {
	if len(chunks) == 0 {
		return nil
	}
	return s.do(ctx, "vector_store.upsert", func(ctx context.Context) error {
		return s.index.Upsert(ctx, chunks)
	})
}

// QueryTopK implements matching.Searcher.
func (s *VectorStore) QueryTopK(ctx context.Context, vector []float32, k int, filter matching.Filter) ([]matching.Hit, error) {
	var hits []matching.Hit
	err := s.do(ctx, "vector_store.query", func(ctx context.Context) error {
		var err error
		hits, err = s.index.QueryTopK(ctx, vector, k, filter)
		return err
	})
	return hits, err
}

func (s *VectorStore) DeleteDocument(ctx context.Context, documentID uuid.UUID) error {
	return s.do(ctx, "vector_store.delete", func(ctx context.Context) error {
		return s.index.DeleteDocument(ctx, documentID)
	})
}

func (s *VectorStore) do(ctx context.Context, op string, fn func(ctx context.Context) error) error {
	return apperror.Retry(ctx, op, s.retry, func(ctx context.Context, attempt int) error {
		if attempt > 1 {
			s.logger.Warn("⚠️ retrying vector store call", zap.String("op", op), zap.Int("attempt", attempt))
		}
		return fn(ctx)
	})
}
