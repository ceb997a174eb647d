package catalog

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/gabriel-vasile/mimetype"
	"github.com/google/uuid"

	"github.com/kedai-dimesem/storefront/internal/shared"
)

// DefaultMaxImageBytes caps uploaded product images.
const DefaultMaxImageBytes = 5 << 20

var allowedImageTypes = map[string]string{
	"image/jpeg": ".jpg",
	"image/png":  ".png",
	"image/gif":  ".gif",
	"image/webp": ".webp",
}

var allowedImageExts = map[string]bool{".jpg": true, ".jpeg": true, ".png": true, ".gif": true, ".webp": true}

// ImageStore persists product images and returns the stored file name.
type ImageStore interface {
	Save(ctx context.Context, upload ImageUpload) (string, error)
	Remove(ctx context.Context, name string) error
}

// FileImageStore keeps images on the local filesystem under dir.
type FileImageStore struct {
	dir      string
	maxBytes int64
}

// NewFileImageStore creates dir when needed.
func NewFileImageStore(dir string, maxBytes int64) (*FileImageStore, error) {
	if maxBytes <= 0 {
		maxBytes = DefaultMaxImageBytes
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("create upload dir: %w", err)
	}
	return &FileImageStore{dir: dir, maxBytes: maxBytes}, nil
}

// Dir returns the directory images are written to.
func (s *FileImageStore) Dir() string { return s.dir }

// Save validates the upload by size, extension and sniffed content type, then
// writes it as product-<uuid><ext>.
func (s *FileImageStore) Save(_ context.Context, upload ImageUpload) (string, error) {
	if upload.Content == nil {
		return "", shared.NewValidationError("image file is empty")
	}
	if ext := strings.ToLower(filepath.Ext(upload.Filename)); ext != "" && !allowedImageExts[ext] {
		return "", shared.NewValidationError("only image files are allowed (jpeg, jpg, png, gif, webp)")
	}
	data, err := io.ReadAll(io.LimitReader(upload.Content, s.maxBytes+1))
	if err != nil {
		return "", fmt.Errorf("read upload: %w", err)
	}
	if int64(len(data)) > s.maxBytes {
		return "", shared.NewValidationError("image exceeds the %d MB limit", s.maxBytes>>20)
	}
	if len(data) == 0 {
		return "", shared.NewValidationError("image file is empty")
	}

	mtype := mimetype.Detect(data)
	ext, ok := "", false
	for candidate := mtype; candidate != nil; candidate = candidate.Parent() {
		if ext, ok = allowedImageTypes[candidate.String()]; ok {
			break
		}
	}
	if !ok {
		return "", shared.NewValidationError("only image files are allowed (jpeg, jpg, png, gif, webp)")
	}

	name := "product-" + uuid.NewString() + ext
	if err := writeFileAtomic(filepath.Join(s.dir, name), data); err != nil {
		return "", err
	}
	return name, nil
}

// Remove deletes a stored image. Missing files are ignored.
func (s *FileImageStore) Remove(_ context.Context, name string) error {
	if name == "" || name != filepath.Base(name) {
		return nil
	}
	err := os.Remove(filepath.Join(s.dir, name))
	if err != nil && !os.IsNotExist(err) {
		return err
	}
	return nil
}

func writeFileAtomic(path string, data []byte) error {
	tmp, err := os.CreateTemp(filepath.Dir(path), ".upload-*")
	if err != nil {
		return fmt.Errorf("create temp file: %w", err)
	}
	defer os.Remove(tmp.Name())
	if _, err := io.Copy(tmp, bytes.NewReader(data)); err != nil {
		_ = tmp.Close()
		return fmt.Errorf("write image: %w", err)
	}
	if err := tmp.Chmod(0o644); err != nil {
		_ = tmp.Close()
		return err
	}
	if err := tmp.Close(); err != nil {
		return err
	}
	return os.Rename(tmp.Name(), path)
}

var _ ImageStore = (*FileImageStore)(nil)
