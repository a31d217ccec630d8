package service

import (
	"context"
	"errors"
	"net/url"
	"os"
	"path"
	"strings"

	"go.uber.org/zap"

	"github.com/noah-isme/academy-admissions/internal/models"
	appErrors "github.com/noah-isme/academy-admissions/pkg/errors"
	"github.com/noah-isme/academy-admissions/pkg/storage"
)

type attachmentOpener interface {
	Open(filename string) (*os.File, error)
}

// AttachmentDownload is an opened proof-of-payment file. Callers close File.
type AttachmentDownload struct {
	Filename    string
	ContentType string
	Size        int64
	File        *os.File
}

// AttachmentServiceConfig controls how attachment links are published.
type AttachmentServiceConfig struct {
	// Public serves uploads statically, so links point straight at the file.
	Public bool
	// DownloadPath is the signed download endpoint used when Public is false.
	DownloadPath string
}

// AttachmentService builds admin links to proof-of-payment files and serves
// signed downloads.
type AttachmentService struct {
	uploads *UploadService
	files   attachmentOpener
	signer  *storage.SignedURLSigner
	cfg     AttachmentServiceConfig
	logger  *zap.Logger
}

// NewAttachmentService constructs the service. signer may be nil when uploads are public.
func NewAttachmentService(uploads *UploadService, files attachmentOpener, signer *storage.SignedURLSigner, cfg AttachmentServiceConfig, logger *zap.Logger) *AttachmentService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &AttachmentService{uploads: uploads, files: files, signer: signer, cfg: cfg, logger: logger}
}

// URLFor returns the link shown on the dashboard, or "" when the record has
// no attachment or no link can be produced.
func (s *AttachmentService) URLFor(record models.AdmissionRecord) string {
	if s == nil || record.AttachmentPath == "" {
		return ""
	}
	if s.cfg.Public {
		return "/" + strings.TrimPrefix(path.Clean("/"+record.AttachmentPath), "/")
	}
	if s.signer == nil || s.cfg.DownloadPath == "" {
		return ""
	}
	token, _, err := s.signer.Generate(record.ID, record.AttachmentPath)
	if err != nil {
		s.logger.Warn("failed to sign attachment link", zap.String("admission_id", record.ID), zap.Error(err))
		return ""
	}
	return s.cfg.DownloadPath + "?token=" + url.QueryEscape(token)
}

// Open verifies a download token and opens the referenced file.
func (s *AttachmentService) Open(_ context.Context, token string) (*AttachmentDownload, error) {
	if s.signer == nil {
		return nil, appErrors.Clone(appErrors.ErrNotFound, "attachment downloads are disabled")
	}
	if strings.TrimSpace(token) == "" {
		return nil, appErrors.Clone(appErrors.ErrValidation, "token is required")
	}
	recordID, relPath, _, err := s.signer.Parse(token)
	if err != nil {
		if errors.Is(err, storage.ErrTokenExpired) {
			return nil, appErrors.Wrap(err, appErrors.ErrForbidden.Code, appErrors.ErrForbidden.Status, "download link expired")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrForbidden.Code, appErrors.ErrForbidden.Status, "invalid download token")
	}

	name, ok := s.uploads.NameFromPath(relPath)
	if !ok {
		s.logger.Warn("download token references path outside uploads", zap.String("admission_id", recordID), zap.String("path", relPath))
		return nil, appErrors.Clone(appErrors.ErrForbidden, "invalid download token")
	}

	file, err := s.files.Open(name)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "attachment not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to open attachment")
	}
	info, err := file.Stat()
	if err != nil {
		file.Close()
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to open attachment")
	}

	contentType := extensionMIMEs[strings.ToLower(strings.TrimPrefix(path.Ext(name), "."))]
	if contentType == "" {
		contentType = "application/octet-stream"
	}
	return &AttachmentDownload{Filename: name, ContentType: contentType, Size: info.Size(), File: file}, nil
}
