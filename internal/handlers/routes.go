package handlers

import (
	"time"

	"github.com/gofiber/fiber/v2"

	"alfredoptarigan/resume-matcher/internal/services"
)

type HealthHandler struct {
	documents     services.DocumentService
	vectorBackend string
}

func NewHealthHandler(documents services.DocumentService, vectorBackend string) *HealthHandler {
	return &HealthHandler{documents: documents, vectorBackend: vectorBackend}
}

// HandleHealth handles GET /health
func (h *HealthHandler) HandleHealth(c *fiber.Ctx) error {
	summary, err := h.documents.Summary(c.UserContext())
	if err != nil {
		return failure(c, err)
	}
	return success(c, fiber.StatusOK, fiber.Map{
		"status":         "healthy",
		"time":           time.Now(),
		"vector_backend": h.vectorBackend,
		"documents":      summary,
	}, "")
}

type Handlers struct {
	Health    *HealthHandler
	Upload    *UploadHandler
	Documents *DocumentHandler
	Ingest    *IngestHandler
	Analysis  *AnalysisHandler
}

// Register mounts every endpoint under router, normally the /api/v1 group.
func Register(router fiber.Router, h Handlers) {
	router.Get("/health", h.Health.HandleHealth)

	router.Post("/upload", h.Upload.HandleUpload)
	router.Post("/documents/text", h.Upload.HandleCreateText)

	router.Post("/ingest", h.Ingest.HandleIngest)
	router.Post("/ingest/batch", h.Ingest.HandleBatchIngest)

	router.Post("/analysis/match", h.Analysis.HandleMatch)
	router.Post("/analysis/gaps", h.Analysis.HandleGaps)
	router.Post("/roadmap/generate", h.Analysis.HandleRoadmap)

	router.Get("/documents", h.Documents.HandleList)
	router.Get("/documents/:id", h.Documents.HandleGet)
	router.Get("/documents/:id/chunks", h.Documents.HandleChunks)
	router.Delete("/documents/:id", h.Documents.HandleDelete)
}

// Endpoints lists the registered routes for the root index.
func Endpoints() []string {
	return []string{
		"GET /api/v1/health",
		"POST /api/v1/upload",
		"POST /api/v1/documents/text",
		"POST /api/v1/ingest",
		"POST /api/v1/ingest/batch",
		"POST /api/v1/analysis/match",
		"POST /api/v1/analysis/gaps",
		"POST /api/v1/roadmap/generate",
		"GET /api/v1/documents",
		"GET /api/v1/documents/:id",
		"GET /api/v1/documents/:id/chunks",
		"DELETE /api/v1/documents/:id",
	}
}
