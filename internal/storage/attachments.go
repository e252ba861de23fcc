package storage

import (
	"errors"
	"fmt"
	"io"
	"mime/multipart"
	"os"
	"path/filepath"
	"time"

	"github.com/google/uuid"
	"github.com/shehrozeikram/erp-audit-engine/internal/models"
)

var (
	ErrFileTooLarge = errors.New("file exceeds the upload size limit")
	ErrFileType     = errors.New("file type is not allowed")
)

// allowedTypes mirrors the document kinds auditors actually attach:
// scans, photos and office documents.
var allowedTypes = map[string]bool{
	"application/pdf":    true,
	"image/jpeg":         true,
	"image/png":          true,
	"image/gif":          true,
	"application/msword": true,
	"application/vnd.openxmlformats-officedocument.wordprocessingml.document": true,
	"application/vnd.ms-excel": true,
	"application/vnd.openxmlformats-officedocument.spreadsheetml.sheet": true,
}

// AttachmentStore writes uploads to a local directory with generated names,
// keeping the original name only in metadata.
type AttachmentStore struct {
	dir      string
	maxBytes int64
}

func NewAttachmentStore(dir string, maxBytes int64) (*AttachmentStore, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("failed to create upload dir: %w", err)
	}
	return &AttachmentStore{dir: dir, maxBytes: maxBytes}, nil
}

// Save validates and stores one uploaded file, returning its metadata.
func (s *AttachmentStore) Save(fh *multipart.FileHeader, uploadedBy uuid.UUID) (*models.Attachment, error) {
	if fh.Size > s.maxBytes {
		return nil, fmt.Errorf("%w: %d bytes, limit %d", ErrFileTooLarge, fh.Size, s.maxBytes)
	}
	contentType := fh.Header.Get("Content-Type")
	if !allowedTypes[contentType] {
		return nil, fmt.Errorf("%w: %s", ErrFileType, contentType)
	}

	src, err := fh.Open()
	if err != nil {
		return nil, err
	}
	defer src.Close()

	filename := uuid.New().String() + filepath.Ext(fh.Filename)
	path := filepath.Join(s.dir, filename)

	dst, err := os.Create(path)
	if err != nil {
		return nil, err
	}
	defer dst.Close()

	if _, err := io.Copy(dst, io.LimitReader(src, s.maxBytes+1)); err != nil {
		os.Remove(path)
		return nil, err
	}

	return &models.Attachment{
		Filename:     filename,
		OriginalName: fh.Filename,
		Path:         path,
		ContentType:  contentType,
		SizeBytes:    fh.Size,
		UploadedBy:   uploadedBy,
		UploadedAt:   time.Now(),
	}, nil
}

// Open returns a reader for a stored attachment by its generated filename.
func (s *AttachmentStore) Open(filename string) (*os.File, error) {
	// Generated names are UUIDs plus an extension; reject anything that
	// could traverse out of the directory.
	if filepath.Base(filename) != filename {
		return nil, os.ErrNotExist
	}
	return os.Open(filepath.Join(s.dir, filename))
}
