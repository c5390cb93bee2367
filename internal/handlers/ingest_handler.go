package handlers

import (
	"fmt"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"

	"alfredoptarigan/resume-matcher/internal/apperror"
	"alfredoptarigan/resume-matcher/internal/models"
	"alfredoptarigan/resume-matcher/internal/services"
)

const maxBatchSize = 50

type IngestHandler struct {
	documents services.DocumentService
	ingestion services.IngestionService
	worker    services.Worker
}

func NewIngestHandler(
	documents services.DocumentService,
	ingestion services.IngestionService,
	worker services.Worker,
) *IngestHandler {
	return &IngestHandler{
		documents: documents,
		ingestion: ingestion,
		worker:    worker,
	}
}

// HandleIngest handles POST /ingest. With async set the document is queued
// for the background worker and 202 is returned.
func (h *IngestHandler) HandleIngest(c *fiber.Ctx) error {
	var req models.IngestRequest
	if err := parseBody(c, &req); err != nil {
		return failure(c, err)
	}

	id, err := parseID("document_id", req.DocumentID)
	if err != nil {
		return failure(c, err)
	}
	if req.ChunkSize < 0 || req.ChunkOverlap < 0 || (req.ChunkSize > 0 && req.ChunkOverlap >= req.ChunkSize) {
		return failure(c, apperror.Validation("handlers.ingest", "chunk_overlap must be smaller than chunk_size"))
	}

	if req.Async {
		return h.enqueue(c, id, req.Skip())
	}

	result, err := h.ingestion.Ingest(c.UserContext(), id, services.IngestOptions{
		SkipIfExists: req.Skip(),
		ChunkSize:    req.ChunkSize,
		ChunkOverlap: req.ChunkOverlap,
	})
	if err != nil {
		return failure(c, err)
	}

	message := "Document ingested successfully"
	if result.Status == models.IngestionSkipped {
		message = "Document already ingested"
	}
	return success(c, fiber.StatusOK, result, message)
}

func (h *IngestHandler) enqueue(c *fiber.Ctx, id uuid.UUID, skip bool) error {
	const op = "handlers.ingest_async"

	if h.worker == nil {
		return failure(c, apperror.Validation(op, "asynchronous ingestion is not available"))
	}

	doc, err := h.documents.Get(c.UserContext(), id)
	if err != nil {
		return failure(c, err)
	}
	switch doc.EmbeddingStatus {
	case models.StatusCompleted:
		if skip {
			return success(c, fiber.StatusOK, models.IngestionResult{
				DocumentID:    id,
				Status:        models.IngestionSkipped,
				ChunksCreated: doc.ChunkCount,
				TotalTokens:   doc.TotalTokens,
			}, "Document already ingested")
		}
		return failure(c, apperror.Precondition(op, "document is already ingested; set skip_if_exists or upload it again").
			WithDetail("document_id", id.String()))
	case models.StatusFailed:
		return failure(c, apperror.Precondition(op, "document failed ingestion; upload it again").
			WithDetail("document_id", id.String()))
	}

	if err := h.worker.RequestIngest(c.UserContext(), id); err != nil {
		return failure(c, err)
	}

	return success(c, fiber.StatusAccepted, models.IngestionResult{
		DocumentID: id,
		Status:     models.IngestionQueued,
	}, "Document queued for ingestion")
}

// HandleBatchIngest handles POST /ingest/batch.
func (h *IngestHandler) HandleBatchIngest(c *fiber.Ctx) error {
	const op = "handlers.ingest_batch"

	var req models.BatchIngestRequest
	if err := parseBody(c, &req); err != nil {
		return failure(c, err)
	}
	if len(req.DocumentIDs) == 0 {
		return failure(c, apperror.Validation(op, "document_ids is required"))
	}
	if len(req.DocumentIDs) > maxBatchSize {
		return failure(c, apperror.Validation(op, fmt.Sprintf("at most %d documents per batch", maxBatchSize)))
	}

	ids := make([]uuid.UUID, 0, len(req.DocumentIDs))
	seen := make(map[uuid.UUID]struct{}, len(req.DocumentIDs))
	for _, raw := range req.DocumentIDs {
		id, err := parseID("document_ids", raw)
		if err != nil {
			return failure(c, err)
		}
		if _, dup := seen[id]; dup {
			continue
		}
		seen[id] = struct{}{}
		ids = append(ids, id)
	}

	results := h.ingestion.IngestMany(c.UserContext(), ids, services.IngestOptions{SkipIfExists: req.Skip()})

	resp := models.BatchIngestResponse{Results: results}
	for _, r := range results {
		if r.Status == models.IngestionFailed {
			resp.Failed++
		} else {
			resp.Succeeded++
		}
	}

	return success(c, fiber.StatusOK, resp, fmt.Sprintf("%d of %d documents ingested", resp.Succeeded, len(results)))
}
