package handlers

import (
	"github.com/gofiber/fiber/v2"

	"alfredoptarigan/resume-matcher/internal/models"
	"alfredoptarigan/resume-matcher/internal/repositories"
	"alfredoptarigan/resume-matcher/internal/services"
)

type DocumentHandler struct {
	documents services.DocumentService
}

func NewDocumentHandler(documents services.DocumentService) *DocumentHandler {
	return &DocumentHandler{documents: documents}
}

// HandleList handles GET /documents?role=&status=. Without a role filter the
// response also carries the per-role and per-status summary.
func (h *DocumentHandler) HandleList(c *fiber.Ctx) error {
	filter := repositories.DocumentFilter{
		Role:   models.Role(c.Query("role")),
		Status: models.EmbeddingStatus(c.Query("status")),
		Limit:  c.QueryInt("limit", 0),
		Offset: c.QueryInt("offset", 0),
	}

	docs, err := h.documents.List(c.UserContext(), filter)
	if err != nil {
		return failure(c, err)
	}

	resp := models.DocumentListResponse{
		Documents: make([]models.DocumentStatusResponse, 0, len(docs)),
		Total:     len(docs),
	}
	for i := range docs {
		resp.Documents = append(resp.Documents, models.NewDocumentStatusResponse(&docs[i]))
	}

	if filter.Role == "" {
		summary, err := h.documents.Summary(c.UserContext())
		if err != nil {
			return failure(c, err)
		}
		resp.Summary = summary
	}

	return success(c, fiber.StatusOK, resp, "")
}

// HandleGet handles GET /documents/:id
func (h *DocumentHandler) HandleGet(c *fiber.Ctx) error {
	id, err := parseID("document id", c.Params("id"))
	if err != nil {
		return failure(c, err)
	}

	doc, err := h.documents.Get(c.UserContext(), id)
	if err != nil {
		return failure(c, err)
	}
	return success(c, fiber.StatusOK, models.NewDocumentStatusResponse(doc), "")
}

// HandleChunks handles GET /documents/:id/chunks
func (h *DocumentHandler) HandleChunks(c *fiber.Ctx) error {
	id, err := parseID("document id", c.Params("id"))
	if err != nil {
		return failure(c, err)
	}

	chunks, err := h.documents.Chunks(c.UserContext(), id)
	if err != nil {
		return failure(c, err)
	}
	return success(c, fiber.StatusOK, fiber.Map{
		"document_id": id,
		"total":       len(chunks),
		"chunks":      chunks,
	}, "")
}

// HandleDelete handles DELETE /documents/:id
func (h *DocumentHandler) HandleDelete(c *fiber.Ctx) error {
	id, err := parseID("document id", c.Params("id"))
	if err != nil {
		return failure(c, err)
	}

	if err := h.documents.Delete(c.UserContext(), id); err != nil {
		return failure(c, err)
	}
	return success(c, fiber.StatusOK, fiber.Map{"document_id": id}, "Document deleted successfully")
}
