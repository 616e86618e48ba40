// Package upload stores doctor portraits on local disk for the static /uploads route.
// File types are decided from the content, never from the client supplied name alone.
package upload

import (
	"errors"
	"fmt"
	"io"
	"mime/multipart"
	"os"
	"path"
	"path/filepath"
	"strings"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/medibook/booking-backend/pkg/config"
)

// Route is the URL prefix under which stored images are served
const Route = "/uploads"

var (
	ErrTooLarge        = errors.New("image too large")
	ErrUnsupportedType = errors.New("unsupported image type")
	ErrEmpty           = errors.New("image is empty")
)

// extensions maps accepted image MIME types to the extension used on disk
var extensions = map[string]string{
	"image/png":  ".png",
	"image/jpeg": ".jpg",
	"image/gif":  ".gif",
	"image/webp": ".webp",
}

// ImageStore saves uploaded images under a directory with random names
type ImageStore struct {
	dir      string
	maxBytes int64
	logger   *zap.Logger
}

// NewImageStore creates an ImageStore for the configured uploads directory
func NewImageStore(cfg config.UploadsConfig, logger *zap.Logger) *ImageStore {
	return &ImageStore{
		dir:      cfg.Dir,
		maxBytes: int64(cfg.MaxUploadMB) << 20,
		logger:   logger.Named("uploads"),
	}
}

// Dir returns the directory images are written to
func (s *ImageStore) Dir() string {
	return s.dir
}

// Save validates an uploaded file and writes it to disk.
// It returns the stored file name.
func (s *ImageStore) Save(fh *multipart.FileHeader) (string, error) {
	if s.maxBytes > 0 && fh.Size > s.maxBytes {
		return "", fmt.Errorf("%w: %d bytes", ErrTooLarge, fh.Size)
	}

	f, err := fh.Open()
	if err != nil {
		return "", fmt.Errorf("failed to open upload: %w", err)
	}
	defer func() { _ = f.Close() }()

	var r io.Reader = f
	if s.maxBytes > 0 {
		r = io.LimitReader(f, s.maxBytes+1)
	}
	data, err := io.ReadAll(r)
	if err != nil {
		return "", fmt.Errorf("failed to read upload: %w", err)
	}
	if len(data) == 0 {
		return "", ErrEmpty
	}
	if s.maxBytes > 0 && int64(len(data)) > s.maxBytes {
		return "", fmt.Errorf("%w: more than %d bytes", ErrTooLarge, s.maxBytes)
	}

	mimeType := DetectMimeType(data)
	ext, ok := extensions[mimeType]
	if !ok {
		return "", fmt.Errorf("%w: %s", ErrUnsupportedType, mimeType)
	}
	if claimed := MimeTypeForName(fh.Filename); claimed != mimeType {
		return "", fmt.Errorf("%w: %s content named %q", ErrUnsupportedType, mimeType, fh.Filename)
	}

	if err := os.MkdirAll(s.dir, 0o755); err != nil {
		return "", fmt.Errorf("failed to create uploads directory: %w", err)
	}

	name := uuid.New().String() + ext
	if err := os.WriteFile(filepath.Join(s.dir, name), data, 0o644); err != nil {
		return "", fmt.Errorf("failed to write upload: %w", err)
	}

	s.logger.Debug("Stored image",
		zap.String("file", name),
		zap.String("mime_type", mimeType),
		zap.Int("size", len(data)))
	return name, nil
}

// Remove deletes a stored image. Missing files are not an error.
func (s *ImageStore) Remove(name string) error {
	if name == "" || name != filepath.Base(name) {
		return fmt.Errorf("invalid image name %q", name)
	}
	if err := os.Remove(filepath.Join(s.dir, name)); err != nil && !os.IsNotExist(err) {
		return err
	}
	return nil
}

// URL returns the public path of a stored image
func URL(name string) string {
	return path.Join(Route, name)
}

// NameFromURL returns the stored file name behind a public image path, or ""
// when the path does not point into the uploads route
func NameFromURL(imageURL string) string {
	if !strings.HasPrefix(imageURL, Route+"/") {
		return ""
	}
	name := strings.TrimPrefix(imageURL, Route+"/")
	if name != path.Base(name) {
		return ""
	}
	return name
}

// MimeTypeForName returns the image MIME type implied by a file extension
func MimeTypeForName(name string) string {
	switch strings.ToLower(filepath.Ext(name)) {
	case ".png":
		return "image/png"
	case ".jpg", ".jpeg":
		return "image/jpeg"
	case ".gif":
		return "image/gif"
	case ".webp":
		return "image/webp"
	}
	return "application/octet-stream"
}

// DetectMimeType identifies image data by its magic bytes
func DetectMimeType(data []byte) string {
	if len(data) >= 4 {
		// PNG signature
		if data[0] == 0x89 && data[1] == 0x50 && data[2] == 0x4E && data[3] == 0x47 {
			return "image/png"
		}
		// JPEG signature
		if data[0] == 0xFF && data[1] == 0xD8 && data[2] == 0xFF {
			return "image/jpeg"
		}
		// GIF signature
		if data[0] == 0x47 && data[1] == 0x49 && data[2] == 0x46 {
			return "image/gif"
		}
		// WebP signature
		if len(data) >= 12 && string(data[0:4]) == "RIFF" && string(data[8:12]) == "WEBP" {
			return "image/webp"
		}
	}
	return "application/octet-stream"
}
