// Package artwork stores album cover images on disk and validates
// uploaded files.
package artwork

import (
	"bytes"
	"errors"
	"fmt"
	"image/jpeg"
	"image/png"
	"net/http"
	"os"
	"path/filepath"
	"strings"

	"github.com/chai2010/webp"
	"github.com/google/uuid"

	"github.com/pmills/discobase/internal/logger"
)

var (
	// ErrUnsupportedType is returned for uploads that are not JPEG, PNG
	// or WebP.
	ErrUnsupportedType = errors.New("unsupported image type, use JPEG, PNG or WebP")

	// ErrTooLarge is returned when an upload exceeds the size limit.
	ErrTooLarge = errors.New("image exceeds the upload size limit")
)

// Store writes and removes album art files under a single directory.
type Store struct {
	dir       string
	maxUpload int64
}

// NewStore creates the artwork directory if needed.
func NewStore(dir string, maxUpload int64) (*Store, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("failed to create artwork directory: %w", err)
	}
	return &Store{dir: dir, maxUpload: maxUpload}, nil
}

// Dir returns the directory artwork files are stored in.
func (s *Store) Dir() string {
	return s.dir
}

// Path returns the on-disk path for a stored artwork filename.
func (s *Store) Path(name string) string {
	return filepath.Join(s.dir, filepath.Base(name))
}

// SaveUpload validates a user-uploaded image and writes it to disk,
// returning the stored filename.
func (s *Store) SaveUpload(data []byte) (string, error) {
	if int64(len(data)) > s.maxUpload {
		return "", ErrTooLarge
	}
	ext, err := detectImageType(data)
	if err != nil {
		return "", err
	}

	name := uuid.NewString() + ext
	if err := os.WriteFile(s.Path(name), data, 0o644); err != nil {
		return "", fmt.Errorf("failed to write artwork file: %w", err)
	}
	return name, nil
}

// SaveDownloaded writes artwork obtained during import or enrichment.
// These come from Roon or the Cover Art Archive and are stored as-is
// under the album id, with the extension picked by sniffing the data.
// Images that do not decode still get stored, under .jpg.
func (s *Store) SaveDownloaded(albumID uint, data []byte) (string, error) {
	if len(data) == 0 {
		return "", errors.New("empty image data")
	}
	ext, err := detectImageType(data)
	if err != nil {
		ext = ".jpg"
	}
	name := fmt.Sprintf("%d%s", albumID, ext)
	if err := os.WriteFile(s.Path(name), data, 0o644); err != nil {
		return "", fmt.Errorf("failed to write artwork file: %w", err)
	}
	return name, nil
}

// Remove deletes a stored artwork file. Missing files are not an error.
func (s *Store) Remove(name string) {
	if name == "" {
		return
	}
	if err := os.Remove(s.Path(name)); err != nil && !os.IsNotExist(err) {
		logger.Warn("Failed to remove artwork file %s: %v", name, err)
	}
}

// detectImageType sniffs the image format and verifies the data decodes
// as that format. Returns the file extension to store under.
func detectImageType(data []byte) (string, error) {
	contentType := http.DetectContentType(data)
	reader := bytes.NewReader(data)

	switch strings.ToLower(contentType) {
	case "image/jpeg", "image/jpg":
		if _, err := jpeg.DecodeConfig(reader); err != nil {
			return "", ErrUnsupportedType
		}
		return ".jpg", nil
	case "image/png":
		if _, err := png.DecodeConfig(reader); err != nil {
			return "", ErrUnsupportedType
		}
		return ".png", nil
	case "image/webp":
		if _, err := webp.DecodeConfig(reader); err != nil {
			return "", ErrUnsupportedType
		}
		return ".webp", nil
	default:
		return "", ErrUnsupportedType
	}
}
