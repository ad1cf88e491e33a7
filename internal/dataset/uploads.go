package dataset

import (
	"context"
	"fmt"
	"io"
	"mime/multipart"
	"os"
	"path/filepath"
	"time"

	"github.com/google/uuid"
)

// UploadStorage persists uploaded workbooks on the local filesystem so the
// reader can open them by path and failed ingests can be inspected.
type UploadStorage struct {
	basePath string
}

func NewUploadStorage(basePath string) *UploadStorage {
	if basePath == "" {
		basePath = "./uploads"
	}
	return &UploadStorage{basePath: basePath}
}

// Store saves a file with a unique name and returns its path.
func (s *UploadStorage) Store(ctx context.Context, file multipart.File, filename string) (string, error) {
	if err := os.MkdirAll(s.basePath, 0o755); err != nil {
		return "", fmt.Errorf("failed to create upload directory: %w", err)
	}

	// Unique name prevents concurrent uploads from clobbering each other.
	ext := filepath.Ext(filename)
	baseName := filename[:len(filename)-len(ext)]
	timestamp := time.Now().Format("20060102_150405")
	uniqueName := fmt.Sprintf("%s_%s_%s%s", baseName, timestamp, uuid.New().String()[:8], ext)

	filePath := filepath.Join(s.basePath, uniqueName)
	destFile, err := os.Create(filePath)
	if err != nil {
		return "", fmt.Errorf("failed to create destination file: %w", err)
	}
	defer destFile.Close()

	if _, err := io.Copy(destFile, file); err != nil {
		os.Remove(filePath)
		return "", fmt.Errorf("failed to copy file contents: %w", err)
	}
	return filePath, nil
}

// Delete removes a stored workbook.
func (s *UploadStorage) Delete(ctx context.Context, filePath string) error {
	if err := os.Remove(filePath); err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("failed to delete file: %w", err)
	}
	return nil
}
