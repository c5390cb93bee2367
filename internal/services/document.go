package services

import (
	"context"
	"fmt"
	"mime/multipart"
	"path/filepath"
	"strings"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"alfredoptarigan/resume-matcher/internal/apperror"
	"alfredoptarigan/resume-matcher/internal/models"
	"alfredoptarigan/resume-matcher/internal/rag"
	"alfredoptarigan/resume-matcher/internal/repositories"
)

type DocumentService interface {
	CreateFromUpload(ctx context.Context, file *multipart.FileHeader, role models.Role) (*models.Document, bool, error)
	CreateFromFile(ctx context.Context, path string, role models.Role) (*models.Document, bool, error)
	CreateFromText(ctx context.Context, role models.Role, title, content string) (*models.Document, bool, error)
	Get(ctx context.Context, id uuid.UUID) (*models.Document, error)
	List(ctx context.Context, filter repositories.DocumentFilter) ([]models.Document, error)
	Summary(ctx context.Context) (*models.DocumentSummary, error)
	Chunks(ctx context.Context, id uuid.UUID) ([]models.Chunk, error)
	Delete(ctx context.Context, id uuid.UUID) error
}

type documentService struct {
	docRepo   repositories.DocumentRepository
	chunkRepo repositories.ChunkRepository
	storage   StorageService
	pdfParser PDFParserService
	vectors   *VectorStore
	logger    *zap.Logger
}

func NewDocumentService(
	docRepo repositories.DocumentRepository,
	chunkRepo repositories.ChunkRepository,
	storage StorageService,
	pdfParser PDFParserService,
	vectors *VectorStore,
	log *zap.Logger,
) DocumentService {
	if log == nil {
		log = zap.NewNop()
	}
	return &documentService{
		docRepo:   docRepo,
		chunkRepo: chunkRepo,
		storage:   storage,
		pdfParser: pdfParser,
		vectors:   vectors,
		logger:    log.Named("documents"),
	}
}

func (s *documentService) CreateFromUpload(ctx context.Context, file *multipart.FileHeader, role models.Role) (*models.Document, bool, error) {
	if !role.Valid() {
		return nil, false, apperror.Validation("documents.upload", fmt.Sprintf("invalid role %q", role))
	}

	filename, filePath, err := s.storage.SaveFile(file, role)
	if err != nil {
		return nil, false, err
	}
	return s.createFromStoredPDF(ctx, role, file.Filename, filename, filePath)
}

func (s *documentService) CreateFromFile(ctx context.Context, path string, role models.Role) (*models.Document, bool, error) {
	if !role.Valid() {
		return nil, false, apperror.Validation("documents.upload", fmt.Sprintf("invalid role %q", role))
	}

	filename, filePath, err := s.storage.SaveLocalFile(path, role)
	if err != nil {
		return nil, false, err
	}
	return s.createFromStoredPDF(ctx, role, filepath.Base(path), filename, filePath)
}

func (s *documentService) createFromStoredPDF(ctx context.Context, role models.Role, original, filename, filePath string) (*models.Document, bool, error) {
	content, err := s.pdfParser.Extract(filePath)
	if err != nil {
		s.storage.DeleteFile(filename)
		return nil, false, err
	}

	doc := &models.Document{
		Role:             role,
		Filename:         filename,
		OriginalFilename: original,
		FilePath:         filePath,
		RawText:          content.Text,
		PageCount:        content.PageCount,
		Author:           content.Author,
		Title:            content.Title,
		ParserUsed:       content.ParserUsed,
		Metadata: map[string]interface{}{
			"page_count": content.PageCount,
			"author":     content.Author,
			"title":      content.Title,
		},
	}

	existing, err := s.store(ctx, doc)
	if existing != nil || err != nil {
		s.storage.DeleteFile(filename)
	}
	if existing != nil {
		return existing, true, nil
	}
	if err != nil {
		return nil, false, err
	}
	return doc, false, nil
}

// CreateFromText stores pasted text. HTML job postings are reduced to their
// visible text first.
func (s *documentService) CreateFromText(ctx context.Context, role models.Role, title, content string) (*models.Document, bool, error) {
	const op = "documents.create_text"

	if !role.Valid() {
		return nil, false, apperror.Validation(op, fmt.Sprintf("invalid role %q", role))
	}
	if strings.TrimSpace(content) == "" {
		return nil, false, apperror.Validation(op, "content must not be empty")
	}

	parser := "text"
	if rag.LooksLikeHTML(content) {
		stripped, err := rag.StripHTML(content)
		if err != nil {
			return nil, false, apperror.Wrap(apperror.KindInvalidInput, op, fmt.Errorf("failed to parse HTML: %w", err))
		}
		content = stripped
		parser = "html"
	}

	title = strings.TrimSpace(title)
	if title == "" {
		title = fmt.Sprintf("%s text", role)
	}

	doc := &models.Document{
		Role:             role,
		Filename:         title,
		OriginalFilename: title,
		Title:            title,
		RawText:          content,
		PageCount:        1,
		ParserUsed:       parser,
	}

	existing, err := s.store(ctx, doc)
	if err != nil {
		return nil, false, err
	}
	if existing != nil {
		return existing, true, nil
	}
	return doc, false, nil
}

// store fills the derived text fields and creates doc, unless a live document
// with the same role and content already exists, which is returned instead.
func (s *documentService) store(ctx context.Context, doc *models.Document) (*models.Document, error) {
	doc.CleanedText = rag.CleanText(doc.RawText, false)
	if strings.TrimSpace(doc.CleanedText) == "" {
		return nil, apperror.Validation("documents.create", "document has no text after cleaning")
	}
	doc.Language = rag.DetectLanguage(doc.CleanedText)
	doc.WordCount = rag.CountWords(doc.CleanedText)
	doc.CharCount = len([]rune(doc.CleanedText))
	doc.ContentHash = rag.ContentHash(doc.CleanedText)

	existing, err := s.docRepo.FindByHash(ctx, doc.Role, doc.ContentHash)
	if err != nil {
		return nil, err
	}
	if existing != nil {
		s.logger.Info("♻️ duplicate document content, reusing existing document",
			zap.String("document_id", existing.ID.String()),
			zap.String("role", string(doc.Role)))
		return existing, nil
	}

	if err := s.docRepo.Create(ctx, doc); err != nil {
		return nil, err
	}

	s.logger.Info("✅ document stored",
		zap.String("document_id", doc.ID.String()),
		zap.String("role", string(doc.Role)),
		zap.String("language", doc.Language),
		zap.Int("words", doc.WordCount))
	return nil, nil
}

func (s *documentService) Get(ctx context.Context, id uuid.UUID) (*models.Document, error) {
	return s.docRepo.FindByID(ctx, id)
}

func (s *documentService) List(ctx context.Context, filter repositories.DocumentFilter) ([]models.Document, error) {
	if filter.Role != "" && !filter.Role.Valid() {
		return nil, apperror.Validation("documents.list", fmt.Sprintf("invalid role %q", filter.Role))
	}
	if filter.Status != "" && !filter.Status.Valid() {
		return nil, apperror.Validation("documents.list", fmt.Sprintf("invalid status %q", filter.Status))
	}
	return s.docRepo.List(ctx, filter)
}

func (s *documentService) Summary(ctx context.Context) (*models.DocumentSummary, error) {
	return s.docRepo.Summary(ctx)
}

func (s *documentService) Chunks(ctx context.Context, id uuid.UUID) ([]models.Chunk, error) {
	if _, err := s.docRepo.FindByID(ctx, id); err != nil {
		return nil, err
	}
	return s.chunkRepo.FindByDocument(ctx, id)
}

// Delete removes the document everywhere it lives: vector points, database
// rows (chunks cascade) and the stored upload.
func (s *documentService) Delete(ctx context.Context, id uuid.UUID) error {
	doc, err := s.docRepo.FindByID(ctx, id)
	if err != nil {
		return err
	}

	if err := s.vectors.DeleteDocument(ctx, id); err != nil {
		return err
	}
	if err := s.docRepo.Delete(ctx, id); err != nil {
		return err
	}
	if doc.FilePath != "" {
		if err := s.storage.DeleteFile(doc.Filename); err != nil {
			s.logger.Warn("failed to delete stored file", zap.String("document_id", id.String()), zap.Error(err))
		}
	}

	s.logger.Info("🗑️ document deleted", zap.String("document_id", id.String()))
	return nil
}
