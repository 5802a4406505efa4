package filestorage

import (
	"bytes"
	"fmt"
	"io"
	"mime/multipart"
	"os"
	"path/filepath"
	"strings"

	"github.com/gabriel-vasile/mimetype"
	"github.com/google/uuid"
	"github.com/yigit/unievents/internal/pkg/apperrors"
	"github.com/yigit/unievents/internal/pkg/logger"
)

// MaxImageSize is the largest accepted upload
const MaxImageSize = 5 << 20

// allowedImageTypes maps sniffed MIME types to the stored extension
var allowedImageTypes = map[string]string{
	"image/jpeg": ".jpg",
	"image/png":  ".png",
	"image/gif":  ".gif",
	"image/webp": ".webp",
}

// LocalStorage handles saving files to the local filesystem.
type LocalStorage struct {
	basePath string // The root directory where files will be stored
	baseURL  string // Public prefix the stored files are served under
}

// NewLocalStorage creates a new LocalStorage instance.
// basePath is the required directory path on the server.
// baseURL is the public prefix, e.g. "/uploads".
func NewLocalStorage(basePath, baseURL string) (*LocalStorage, error) {
	if err := os.MkdirAll(basePath, 0o755); err != nil {
		logger.Error().Err(err).Str("path", basePath).Msg("Failed to create storage directory")
		return nil, fmt.Errorf("failed to create storage directory %s: %w", basePath, err)
	}
	logger.Info().Str("path", basePath).Msg("Local storage directory ensured")

	return &LocalStorage{
		basePath: basePath,
		baseURL:  strings.TrimRight(baseURL, "/"),
	}, nil
}

// SaveImage checks size and sniffed content type, then writes the file
// under a fresh uuid name.
func (ls *LocalStorage) SaveImage(fileHeader *multipart.FileHeader, subPath string) (string, error) {
	if fileHeader == nil {
		return "", fmt.Errorf("%w: no file uploaded", apperrors.ErrValidationFailed)
	}
	if fileHeader.Size > MaxImageSize {
		return "", fmt.Errorf("%w: file exceeds %d MB", apperrors.ErrInvalidFile, MaxImageSize>>20)
	}

	file, err := fileHeader.Open()
	if err != nil {
		logger.Error().Err(err).Str("filename", fileHeader.Filename).Msg("Failed to open uploaded file")
		return "", fmt.Errorf("failed to open uploaded file: %w", err)
	}
	defer file.Close()

	// Read one byte past the limit so oversized bodies with a lying header are caught
	content, err := io.ReadAll(io.LimitReader(file, MaxImageSize+1))
	if err != nil {
		return "", fmt.Errorf("failed to read uploaded file: %w", err)
	}
	if len(content) > MaxImageSize {
		return "", fmt.Errorf("%w: file exceeds %d MB", apperrors.ErrInvalidFile, MaxImageSize>>20)
	}

	detected := mimetype.Detect(content)
	ext, ok := allowedImageTypes[detected.String()]
	if !ok {
		return "", fmt.Errorf("%w: unsupported image type %s, use JPEG, PNG, GIF or WEBP", apperrors.ErrInvalidFile, detected.String())
	}

	subPath = filepath.Clean("/" + subPath)[1:]
	dir := filepath.Join(ls.basePath, subPath)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		logger.Error().Err(err).Str("path", dir).Msg("Failed to create subdirectory")
		return "", fmt.Errorf("failed to create subdirectory: %w", err)
	}

	name := uuid.New().String() + ext
	dstPath := filepath.Join(dir, name)

	dst, err := os.Create(dstPath)
	if err != nil {
		logger.Error().Err(err).Str("path", dstPath).Msg("Failed to create destination file")
		return "", fmt.Errorf("failed to create destination file: %w", err)
	}
	defer dst.Close()

	if _, err = io.Copy(dst, bytes.NewReader(content)); err != nil {
		logger.Error().Err(err).Str("path", dstPath).Msg("Failed to copy uploaded file content")
		_ = os.Remove(dstPath)
		return "", fmt.Errorf("failed to save file content: %w", err)
	}

	url := ls.baseURL + "/" + name
	if subPath != "" {
		url = ls.baseURL + "/" + filepath.ToSlash(subPath) + "/" + name
	}

	logger.Info().Str("filename", fileHeader.Filename).Str("mime", detected.String()).Str("url", url).Msg("File saved successfully")
	return url, nil
}

// DeleteFile removes a stored file. Missing files are not an error.
func (ls *LocalStorage) DeleteFile(fileURL string) error {
	fullPath := ls.GetFullPath(fileURL)
	if fullPath == "" {
		return nil
	}
	if err := os.Remove(fullPath); err != nil && !os.IsNotExist(err) {
		logger.Error().Err(err).Str("path", fullPath).Msg("Failed to delete file")
		return fmt.Errorf("failed to delete file: %w", err)
	}
	return nil
}

// GetFullPath maps a public URL back to the filesystem, refusing paths that
// escape the storage root.
func (ls *LocalStorage) GetFullPath(fileURL string) string {
	rel := strings.TrimPrefix(fileURL, ls.baseURL)
	rel = filepath.Clean("/" + filepath.FromSlash(rel))[1:]
	if rel == "" || rel == "." {
		return ""
	}
	return filepath.Join(ls.basePath, rel)
}
