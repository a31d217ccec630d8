package service

import (
	"fmt"
	"io"
	"path"
	"path/filepath"
	"strings"
	"time"

	"github.com/gabriel-vasile/mimetype"
	"github.com/google/uuid"
	"go.uber.org/zap"

	appErrors "github.com/noah-isme/academy-admissions/pkg/errors"
)

// Upload messages returned to applicants.
const (
	MsgFileRequired     = "Payment Screenshot is required."
	MsgFileTypeInvalid  = "Invalid file type. Only JPG, PNG, and PDF are allowed."
	MsgFileContentWrong = "The uploaded file content does not match its file type."
)

// extensionMIMEs maps allowed extensions to the content type their bytes must sniff as.
var extensionMIMEs = map[string]string{
	"jpg":  "image/jpeg",
	"jpeg": "image/jpeg",
	"png":  "image/png",
	"pdf":  "application/pdf",
}

type attachmentStorage interface {
	SaveStream(filename string, r io.Reader) (string, error)
	Delete(filename string) error
}

// UploadedFile is one multipart file as received.
type UploadedFile struct {
	Filename string
	Size     int64
	Content  io.ReadSeeker
}

// CheckedUpload is a file that passed every upload rule and is ready to store.
type CheckedUpload struct {
	file      UploadedFile
	extension string
	mimeType  string
}

// StoredAttachment describes a proof-of-payment file written to storage.
type StoredAttachment struct {
	Name         string
	RelativePath string
	MIMEType     string
	Size         int64
}

// UploadServiceConfig holds the upload rules.
type UploadServiceConfig struct {
	MaxFileSize       int64
	AllowedExtensions []string
	URLPrefix         string
}

// UploadService validates and stores proof-of-payment files.
type UploadService struct {
	storage    attachmentStorage
	logger     *zap.Logger
	cfg        UploadServiceConfig
	extensions map[string]struct{}
	now        func() time.Time
}

// NewUploadService constructs the service with defaults.
func NewUploadService(storage attachmentStorage, logger *zap.Logger, cfg UploadServiceConfig) *UploadService {
	if logger == nil {
		logger = zap.NewNop()
	}
	if cfg.MaxFileSize <= 0 {
		cfg.MaxFileSize = 5 * 1024 * 1024
	}
	if len(cfg.AllowedExtensions) == 0 {
		cfg.AllowedExtensions = []string{"jpg", "jpeg", "png", "pdf"}
	}
	cfg.URLPrefix = strings.Trim(cfg.URLPrefix, "/")
	if cfg.URLPrefix == "" {
		cfg.URLPrefix = "uploads"
	}
	extensions := make(map[string]struct{}, len(cfg.AllowedExtensions))
	for _, ext := range cfg.AllowedExtensions {
		extensions[strings.ToLower(strings.TrimPrefix(ext, "."))] = struct{}{}
	}
	return &UploadService{storage: storage, logger: logger, cfg: cfg, extensions: extensions, now: time.Now}
}

// MaxFileSize exposes the configured ceiling in bytes.
func (s *UploadService) MaxFileSize() int64 {
	return s.cfg.MaxFileSize
}

// SizeLimitMessage renders the size-limit message for the configured ceiling.
func (s *UploadService) SizeLimitMessage() string {
	return fmt.Sprintf("File size exceeds the maximum limit of %s.", humanSize(s.cfg.MaxFileSize))
}

// Check applies presence, extension, size and content rules without touching storage.
func (s *UploadService) Check(file *UploadedFile) (*CheckedUpload, error) {
	if file == nil || file.Content == nil {
		return nil, appErrors.Clone(appErrors.ErrUpload, MsgFileRequired)
	}
	ext := strings.ToLower(strings.TrimPrefix(filepath.Ext(file.Filename), "."))
	if _, ok := s.extensions[ext]; !ok {
		return nil, appErrors.Clone(appErrors.ErrUpload, MsgFileTypeInvalid)
	}
	if file.Size > s.cfg.MaxFileSize {
		return nil, appErrors.Clone(appErrors.ErrPayloadTooLarge, s.SizeLimitMessage())
	}
	if file.Size <= 0 {
		return nil, appErrors.Clone(appErrors.ErrUpload, MsgFileRequired)
	}

	if _, err := file.Content.Seek(0, io.SeekStart); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to read upload")
	}
	detected, err := mimetype.DetectReader(file.Content)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to read upload")
	}
	if _, err := file.Content.Seek(0, io.SeekStart); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to read upload")
	}

	mimeType := detected.String()
	if expected, known := extensionMIMEs[ext]; known {
		if !detected.Is(expected) {
			s.logger.Info("upload content does not match extension",
				zap.String("extension", ext), zap.String("detected", mimeType))
			return nil, appErrors.Clone(appErrors.ErrUpload, MsgFileContentWrong)
		}
		mimeType = expected
	}

	return &CheckedUpload{file: *file, extension: ext, mimeType: mimeType}, nil
}

// Store writes a checked upload under a generated name. The original file name
// never reaches the file system.
func (s *UploadService) Store(upload *CheckedUpload) (*StoredAttachment, error) {
	if upload == nil {
		return nil, appErrors.Clone(appErrors.ErrUpload, MsgFileRequired)
	}
	name := fmt.Sprintf("screenshot_%d_%s.%s", s.now().Unix(), strings.ReplaceAll(uuid.NewString(), "-", ""), upload.extension)

	counter := &countingReader{r: io.LimitReader(upload.file.Content, s.cfg.MaxFileSize+1)}
	if _, err := s.storage.SaveStream(name, counter); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrStorage.Code, appErrors.ErrStorage.Status, MsgStorageFailed)
	}
	if counter.n > s.cfg.MaxFileSize {
		if err := s.storage.Delete(name); err != nil {
			s.logger.Warn("failed to remove oversized upload", zap.String("file", name), zap.Error(err))
		}
		return nil, appErrors.Clone(appErrors.ErrPayloadTooLarge, s.SizeLimitMessage())
	}

	return &StoredAttachment{
		Name:         name,
		RelativePath: path.Join(s.cfg.URLPrefix, name),
		MIMEType:     upload.mimeType,
		Size:         counter.n,
	}, nil
}

// Remove deletes a stored attachment.
func (s *UploadService) Remove(name string) error {
	if name == "" {
		return nil
	}
	return s.storage.Delete(name)
}

// NameFromPath returns the storage name for a relative attachment path such as
// "uploads/screenshot_1.jpg". It rejects paths outside the upload prefix.
func (s *UploadService) NameFromPath(relPath string) (string, bool) {
	relPath = strings.TrimPrefix(path.Clean("/"+relPath), "/")
	prefix := s.cfg.URLPrefix + "/"
	if !strings.HasPrefix(relPath, prefix) {
		return "", false
	}
	name := strings.TrimPrefix(relPath, prefix)
	if name == "" || strings.Contains(name, "/") {
		return "", false
	}
	return name, true
}

type countingReader struct {
	r io.Reader
	n int64
}

func (c *countingReader) Read(p []byte) (int, error) {
	n, err := c.r.Read(p)
	c.n += int64(n)
	return n, err
}

func humanSize(bytes int64) string {
	const mib = 1024 * 1024
	if bytes >= mib && bytes%mib == 0 {
		return fmt.Sprintf("%dMB", bytes/mib)
	}
	if bytes >= 1024 && bytes%1024 == 0 {
		return fmt.Sprintf("%dKB", bytes/1024)
	}
	return fmt.Sprintf("%d bytes", bytes)
}
