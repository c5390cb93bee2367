package repositories

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"alfredoptarigan/resume-matcher/internal/models"
)

// chunkInsertBatch keeps each INSERT well under driver parameter limits.
const chunkInsertBatch = 20

type ChunkRepository interface {
	ReplaceForDocument(ctx context.Context, documentID uuid.UUID, chunks []models.Chunk) error
	FindByDocument(ctx context.Context, documentID uuid.UUID) ([]models.Chunk, error)
	CountByDocument(ctx context.Context, documentID uuid.UUID) (int64, error)
	DeleteByDocument(ctx context.Context, documentID uuid.UUID) error
}

type chunkRepository struct {
	db *gorm.DB
}

func NewChunkRepository(db *gorm.DB) ChunkRepository {
	return &chunkRepository{db: db}
}

// ReplaceForDocument drops the document's previous chunks and inserts the new
// set in one transaction, so readers never see a mix of both.
func (r *chunkRepository) ReplaceForDocument(ctx context.Context, documentID uuid.UUID, chunks []models.Chunk) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("document_id = ?", documentID).Delete(&models.Chunk{}).Error; err != nil {
			return classify("chunks.replace", fmt.Errorf("failed to delete old chunks: %w", err))
		}

		if len(chunks) == 0 {
			return nil
		}

		for i := range chunks {
			chunks[i].DocumentID = documentID
		}
		if err := tx.CreateInBatches(chunks, chunkInsertBatch).Error; err != nil {
			return classify("chunks.replace", fmt.Errorf("failed to insert chunks: %w", err))
		}
		return nil
	})
}

// FindByDocument returns the chunks ordered by chunk_index.
func (r *chunkRepository) FindByDocument(ctx context.Context, documentID uuid.UUID) ([]models.Chunk, error) {
	var chunks []models.Chunk
	err := r.db.WithContext(ctx).
		Where("document_id = ?", documentID).
		Order("chunk_index ASC").
		Find(&chunks).Error

	if err != nil {
		return nil, classify("chunks.find", fmt.Errorf("failed to find chunks: %w", err))
	}

	return chunks, nil
}

func (r *chunkRepository) CountByDocument(ctx context.Context, documentID uuid.UUID) (int64, error) {
	var count int64
	if err := r.db.WithContext(ctx).Model(&models.Chunk{}).Where("document_id = ?", documentID).Count(&count).Error; err != nil {
		return 0, classify("chunks.count", fmt.Errorf("failed to count chunks: %w", err))
	}
	return count, nil
}

func (r *chunkRepository) DeleteByDocument(ctx context.Context, documentID uuid.UUID) error {
	if err := r.db.WithContext(ctx).Where("document_id = ?", documentID).Delete(&models.Chunk{}).Error; err != nil {
		return classify("chunks.delete", fmt.Errorf("failed to delete chunks: %w", err))
	}
	return nil
}
