package services

import (
	"fmt"
	"io"
	"mime/multipart"
	"os"
	"path/filepath"
	"strings"

	"github.com/google/uuid"

	"alfredoptarigan/resume-matcher/internal/apperror"
	"alfredoptarigan/resume-matcher/internal/models"
)

type StorageService interface {
	SaveFile(file *multipart.FileHeader, role models.Role) (string, string, error)
	SaveLocalFile(path string, role models.Role) (string, string, error)
	GetFilePath(filename string) string
	DeleteFile(filename string) error
	EnsureUploadDir() error
}

type storageService struct {
	uploadPath  string
	maxFileSize int64
}

func NewStorageService(uploadPath string, maxFileSize int64) StorageService {
	return &storageService{
		uploadPath:  uploadPath,
		maxFileSize: maxFileSize,
	}
}

func (s *storageService) EnsureUploadDir() error {
	if err := os.MkdirAll(s.uploadPath, 0755); err != nil {
		return fmt.Errorf("failed to create upload directory: %w", err)
	}

	return nil
}

// SaveFile stores an uploaded PDF under a unique name and returns that name
// and its full path.
func (s *storageService) SaveFile(file *multipart.FileHeader, role models.Role) (string, string, error) {
	if err := s.validate(file.Filename, file.Size); err != nil {
		return "", "", err
	}

	src, err := file.Open()
	if err != nil {
		return "", "", fmt.Errorf("failed to open uploaded file: %w", err)
	}
	defer src.Close()

	return s.save(src, file.Filename, role)
}

// SaveLocalFile copies a PDF from the local filesystem into the upload dir.
func (s *storageService) SaveLocalFile(path string, role models.Role) (string, string, error) {
	info, err := os.Stat(path)
	if err != nil {
		return "", "", apperror.NotFound("storage.save", fmt.Sprintf("file does not exist: %s", path))
	}
	if err := s.validate(path, info.Size()); err != nil {
		return "", "", err
	}

	src, err := os.Open(path)
	if err != nil {
		return "", "", fmt.Errorf("failed to open file: %w", err)
	}
	defer src.Close()

	return s.save(src, path, role)
}

func (s *storageService) validate(name string, size int64) error {
	ext := strings.ToLower(filepath.Ext(name))
	if ext != ".pdf" {
		return apperror.Validation("storage.save", fmt.Sprintf("invalid file extension: %s", ext)).
			WithDetail("allowed", []string{".pdf"})
	}
	if s.maxFileSize > 0 && size > s.maxFileSize {
		return apperror.Validation("storage.save", fmt.Sprintf("file too large: %d bytes", size)).
			WithDetail("max_file_size", s.maxFileSize)
	}
	return nil
}

func (s *storageService) save(src io.Reader, name string, role models.Role) (string, string, error) {
	if err := s.EnsureUploadDir(); err != nil {
		return "", "", err
	}

	ext := strings.ToLower(filepath.Ext(name))
	uniqueFilename := fmt.Sprintf("%s_%s%s", role, uuid.New().String(), ext)
	filePath := filepath.Join(s.uploadPath, uniqueFilename)

	dst, err := os.Create(filePath)
	if err != nil {
		return "", "", fmt.Errorf("failed to create destination file: %w", err)
	}
	defer dst.Close()

	if _, err := io.Copy(dst, src); err != nil {
		os.Remove(filePath)
		return "", "", fmt.Errorf("failed to save file: %w", err)
	}

	return uniqueFilename, filePath, nil
}

func (s *storageService) GetFilePath(filename string) string {
	return filepath.Join(s.uploadPath, filename)
}

func (s *storageService) DeleteFile(filename string) error {
	filePath := s.GetFilePath(filename)
	if err := os.Remove(filePath); err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("failed to delete file: %w", err)
	}
	return nil
}
