package repositories

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
	"gorm.io/gorm"

	"alfredoptarigan/resume-matcher/internal/apperror"
	"alfredoptarigan/resume-matcher/internal/models"
)

type DocumentRepository interface {
	Create(ctx context.Context, document *models.Document) error
	FindByID(ctx context.Context, id uuid.UUID) (*models.Document, error)
	FindByIDs(ctx context.Context, ids []uuid.UUID) ([]models.Document, error)
	FindByHash(ctx context.Context, role models.Role, hash string) (*models.Document, error)
	List(ctx context.Context, filter DocumentFilter) ([]models.Document, error)
	Summary(ctx context.Context) (*models.DocumentSummary, error)
	UpdateStatus(ctx context.Context, id uuid.UUID, next models.EmbeddingStatus, data *StatusUpdateData) error
	MarkIngestRequested(ctx context.Context, id uuid.UUID, at time.Time) error
	FindIngestRequested(ctx context.Context, limit int) ([]models.Document, error)
	Delete(ctx context.Context, id uuid.UUID) error
}

type DocumentFilter struct {
	Role   models.Role
	Status models.EmbeddingStatus
	Limit  int
	Offset int
}

// StatusUpdateData carries the fields written alongside a status change.
type StatusUpdateData struct {
	ChunkCount          int
	TotalTokens         int
	SectionDistribution map[string]any
	ErrorMessage        string
}

type documentRepository struct {
	db *gorm.DB
}

func NewDocumentRepository(db *gorm.DB) DocumentRepository {
	return &documentRepository{db: db}
}

// Create implements DocumentRepository.
func (d *documentRepository) Create(ctx context.Context, document *models.Document) error {
	if err := d.db.WithContext(ctx).Create(document).Error; err != nil {
		return classify("documents.create", fmt.Errorf("failed to create document: %w", err))
	}

	return nil
}

// FindByID implements DocumentRepository.
func (d *documentRepository) FindByID(ctx context.Context, id uuid.UUID) (*models.Document, error) {
	var doc models.Document
	if err := d.db.WithContext(ctx).Where("id = ?", id).First(&doc).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperror.NotFound("documents.find", fmt.Sprintf("document %s not found", id)).
				WithDetail("document_id", id.String())
		}

		return nil, classify("documents.find", fmt.Errorf("failed to find document: %w", err))
	}

	return &doc, nil
}

// FindByIDs implements DocumentRepository.
func (d *documentRepository) FindByIDs(ctx context.Context, ids []uuid.UUID) ([]models.Document, error) {
	var docs []models.Document
	if len(ids) == 0 {
		return docs, nil
	}
	if err := d.db.WithContext(ctx).Where("id IN ?", ids).Find(&docs).Error; err != nil {
		return nil, classify("documents.find_many", fmt.Errorf("failed to find documents: %w", err))
	}

	return docs, nil
}

// FindByHash returns the newest non-failed document with the same role and
// content hash, or nil when there is none.
func (d *documentRepository) FindByHash(ctx context.Context, role models.Role, hash string) (*models.Document, error) {
	var docs []models.Document
	err := d.db.WithContext(ctx).
		Where("role = ? AND content_hash = ? AND embedding_status <> ?", role, hash, models.StatusFailed).
		Order("created_at DESC").
		Limit(1).
		Find(&docs).Error
	if err != nil {
		return nil, classify("documents.find_by_hash", fmt.Errorf("failed to find document by hash: %w", err))
	}
	if len(docs) == 0 {
		return nil, nil
	}

	return &docs[0], nil
}

func (d *documentRepository) List(ctx context.Context, filter DocumentFilter) ([]models.Document, error) {
	query := d.db.WithContext(ctx).Model(&models.Document{})
	if filter.Role != "" {
		query = query.Where("role = ?", filter.Role)
	}
	if filter.Status != "" {
		query = query.Where("embedding_status = ?", filter.Status)
	}
	if filter.Limit > 0 {
		query = query.Limit(filter.Limit)
	}
	if filter.Offset > 0 {
		query = query.Offset(filter.Offset)
	}

	var docs []models.Document
	if err := query.Order("created_at DESC").Find(&docs).Error; err != nil {
		return nil, classify("documents.list", fmt.Errorf("failed to list documents: %w", err))
	}

	return docs, nil
}

func (d *documentRepository) Summary(ctx context.Context) (*models.DocumentSummary, error) {
	type row struct {
		Label string
		Count int
	}

	summary := &models.DocumentSummary{
		ByRole:   map[string]int{},
		ByStatus: map[string]int{},
	}

	var byRole []row
	if err := d.db.WithContext(ctx).Model(&models.Document{}).
		Select("role AS label, COUNT(*) AS count").
		Group("role").
		Scan(&byRole).Error; err != nil {
		return nil, classify("documents.summary", fmt.Errorf("failed to count documents by role: %w", err))
	}
	for _, r := range byRole {
		summary.ByRole[r.Label] = r.Count
		summary.TotalDocuments += r.Count
	}

	var byStatus []row
	if err := d.db.WithContext(ctx).Model(&models.Document{}).
		Select("embedding_status AS label, COUNT(*) AS count").
		Group("embedding_status").
		Scan(&byStatus).Error; err != nil {
		return nil, classify("documents.summary", fmt.Errorf("failed to count documents by status: %w", err))
	}
	for _, r := range byStatus {
		summary.ByStatus[r.Label] = r.Count
	}

	if err := d.db.WithContext(ctx).Model(&models.Chunk{}).Count(&summary.TotalChunks).Error; err != nil {
		return nil, classify("documents.summary", fmt.Errorf("failed to count chunks: %w", err))
	}

	return summary, nil
}

// UpdateStatus moves a document to next, rejecting transitions that would go
// backwards or leave a terminal state.
func (d *documentRepository) UpdateStatus(ctx context.Context, id uuid.UUID, next models.EmbeddingStatus, data *StatusUpdateData) error {
	const op = "documents.update_status"

	if data == nil {
		data = &StatusUpdateData{}
	}
	if next == models.StatusCompleted && data.ChunkCount <= 0 {
		return apperror.Validation(op, "a completed document must have at least one chunk")
	}

	return d.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var doc models.Document
		if err := tx.Select("id", "embedding_status").Where("id = ?", id).First(&doc).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return apperror.NotFound(op, fmt.Sprintf("document %s not found", id)).
					WithDetail("document_id", id.String())
			}
			return classify(op, fmt.Errorf("failed to load document: %w", err))
		}

		if !doc.EmbeddingStatus.CanTransitionTo(next) {
			return apperror.Precondition(op, fmt.Sprintf("cannot move document from %s to %s", doc.EmbeddingStatus, next)).
				WithDetail("document_id", id.String()).
				WithDetail("embedding_status", string(doc.EmbeddingStatus))
		}

		updates := map[string]interface{}{
			"embedding_status": next,
			"updated_at":       time.Now(),
		}

		switch next {
		case models.StatusProcessing:
			updates["error_message"] = nil
		case models.StatusCompleted:
			updates["chunk_count"] = data.ChunkCount
			updates["total_tokens"] = data.TotalTokens
			updates["section_distribution"] = datatypes.JSONMap(data.SectionDistribution)
			updates["error_message"] = nil
			updates["ingest_requested_at"] = nil
		case models.StatusFailed:
			updates["chunk_count"] = 0
			updates["error_message"] = data.ErrorMessage
			updates["ingest_requested_at"] = nil
		}

		result := tx.Model(&models.Document{}).Where("id = ?", id).Updates(updates)
		if result.Error != nil {
			return classify(op, fmt.Errorf("failed to update status: %w", result.Error))
		}
		if result.RowsAffected == 0 {
			return apperror.NotFound(op, fmt.Sprintf("document %s not found", id))
		}
		return nil
	})
}

func (d *documentRepository) MarkIngestRequested(ctx context.Context, id uuid.UUID, at time.Time) error {
	result := d.db.WithContext(ctx).Model(&models.Document{}).
		Where("id = ?", id).
		Updates(map[string]interface{}{
			"ingest_requested_at": at,
			"updated_at":          time.Now(),
		})

	if result.Error != nil {
		return classify("documents.mark_ingest", fmt.Errorf("failed to mark ingest request: %w", result.Error))
	}

	if result.RowsAffected == 0 {
		return apperror.NotFound("documents.mark_ingest", fmt.Sprintf("document %s not found", id))
	}

	return nil
}

// FindIngestRequested returns documents queued for background ingestion that
// have not reached a terminal status, oldest request first.
func (d *documentRepository) FindIngestRequested(ctx context.Context, limit int) ([]models.Document, error) {
	var docs []models.Document
	err := d.db.WithContext(ctx).
		Where("ingest_requested_at IS NOT NULL AND embedding_status IN ?",
			[]models.EmbeddingStatus{models.StatusPending, models.StatusProcessing}).
		Order("ingest_requested_at ASC").
		Limit(limit).
		Find(&docs).Error

	if err != nil {
		return nil, classify("documents.find_requested", fmt.Errorf("failed to find requested documents: %w", err))
	}

	return docs, nil
}

// Delete removes the document row; chunk rows go with it.
func (d *documentRepository) Delete(ctx context.Context, id uuid.UUID) error {
	return d.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("document_id = ?", id).Delete(&models.Chunk{}).Error; err != nil {
			return classify("documents.delete", fmt.Errorf("failed to delete chunks: %w", err))
		}

		result := tx.Where("id = ?", id).Delete(&models.Document{})
		if result.Error != nil {
			return classify("documents.delete", fmt.Errorf("failed to delete document: %w", result.Error))
		}
		if result.RowsAffected == 0 {
			return apperror.NotFound("documents.delete", fmt.Sprintf("document %s not found", id))
		}
		return nil
	})
}
