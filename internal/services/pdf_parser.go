package services

import (
	"fmt"
	"os"
	"strings"

	"github.com/ledongthuc/pdf"
	"go.uber.org/zap"

	"alfredoptarigan/resume-matcher/internal/apperror"
)

const parserName = "ledongthuc/pdf"

type PDFParserService interface {
	Extract(filePath string) (*PDFContent, error)
}

type PDFContent struct {
	Text       string
	PageCount  int
	FilePath   string
	Author     string
	Title      string
	ParserUsed string
}

type pdfParserService struct {
	logger *zap.Logger
}

func NewPDFParserService(log *zap.Logger) PDFParserService {
	if log == nil {
		log = zap.NewNop()
	}
	return &pdfParserService{logger: log.Named("pdf")}
}

// Extract returns the plain text of every readable page plus the document
// info dictionary. Unreadable pages are skipped; a PDF with no text at all
// (scanned images) is rejected.
func (p *pdfParserService) Extract(filePath string) (*PDFContent, error) {
	const op = "pdf.extract"

	if _, err := os.Stat(filePath); os.IsNotExist(err) {
		return nil, apperror.NotFound(op, fmt.Sprintf("file does not exist: %s", filePath))
	}

	f, r, err := pdf.Open(filePath)
	if err != nil {
		return nil, apperror.Wrap(apperror.KindInvalidInput, op, fmt.Errorf("failed to open PDF: %w", err))
	}
	defer f.Close()

	var textBuilder strings.Builder
	totalPage := r.NumPage()

	for pageIndex := 1; pageIndex <= totalPage; pageIndex++ {
		page := r.Page(pageIndex)
		if page.V.IsNull() {
			continue
		}

		text, err := page.GetPlainText(nil)
		if err != nil {
			p.logger.Warn("skipping unreadable page", zap.Int("page", pageIndex), zap.Error(err))
			continue
		}

		textBuilder.WriteString(text)
		textBuilder.WriteString("\n\n")
	}

	text := textBuilder.String()
	if strings.TrimSpace(text) == "" {
		return nil, apperror.Validation(op, "no text content found in PDF")
	}

	info := r.Trailer().Key("Info")

	return &PDFContent{
		Text:       text,
		PageCount:  totalPage,
		FilePath:   filePath,
		Author:     strings.TrimSpace(info.Key("Author").Text()),
		Title:      strings.TrimSpace(info.Key("Title").Text()),
		ParserUsed: parserName,
	}, nil
}
