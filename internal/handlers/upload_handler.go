package handlers

import (
	"fmt"

	"github.com/gofiber/fiber/v2"

	"alfredoptarigan/resume-matcher/internal/apperror"
	"alfredoptarigan/resume-matcher/internal/models"
	"alfredoptarigan/resume-matcher/internal/services"
)

type UploadHandler struct {
	documents   services.DocumentService
	maxFileSize int64
}

func NewUploadHandler(documents services.DocumentService, maxFileSize int64) *UploadHandler {
	return &UploadHandler{
		documents:   documents,
		maxFileSize: maxFileSize,
	}
}

func newUploadResponse(doc *models.Document, duplicate bool) models.UploadResponse {
	return models.UploadResponse{
		ID:              doc.ID.String(),
		Role:            doc.Role,
		Filename:        doc.Filename,
		OriginalName:    doc.OriginalFilename,
		Language:        doc.Language,
		PageCount:       doc.PageCount,
		WordCount:       doc.WordCount,
		EmbeddingStatus: doc.EmbeddingStatus,
		Duplicate:       duplicate,
	}
}

// HandleUpload handles POST /upload with a multipart "file" and "role".
func (h *UploadHandler) HandleUpload(c *fiber.Ctx) error {
	const op = "handlers.upload"

	role, err := models.ParseRole(c.FormValue("role"))
	if err != nil {
		return failure(c, apperror.Validation(op, err.Error()).WithDetail("field", "role"))
	}

	file, err := c.FormFile("file")
	if err != nil {
		return failure(c, apperror.Validation(op, "file is required").WithDetail("field", "file"))
	}
	if h.maxFileSize > 0 && file.Size > h.maxFileSize {
		return failure(c, apperror.Validation(op, fmt.Sprintf("file too large. Max size: %d bytes", h.maxFileSize)).
			WithDetail("max_file_size", h.maxFileSize))
	}

	doc, duplicate, err := h.documents.CreateFromUpload(c.UserContext(), file, role)
	if err != nil {
		return failure(c, err)
	}

	status := fiber.StatusCreated
	message := "File uploaded successfully"
	if duplicate {
		status = fiber.StatusOK
		message = "Document with identical content already exists"
	}
	return success(c, status, newUploadResponse(doc, duplicate), message)
}

// HandleCreateText handles POST /documents/text.
func (h *UploadHandler) HandleCreateText(c *fiber.Ctx) error {
	var req models.TextDocumentRequest
	if err := parseBody(c, &req); err != nil {
		return failure(c, err)
	}

	role, err := models.ParseRole(req.Role)
	if err != nil {
		return failure(c, apperror.Validation("handlers.create_text", err.Error()).WithDetail("field", "role"))
	}

	doc, duplicate, err := h.documents.CreateFromText(c.UserContext(), role, req.Title, req.Content)
	if err != nil {
		return failure(c, err)
	}

	status := fiber.StatusCreated
	message := "Document created successfully"
	if duplicate {
		status = fiber.StatusOK
		message = "Document with identical content already exists"
	}
	return success(c, status, newUploadResponse(doc, duplicate), message)
}
