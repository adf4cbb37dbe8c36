package utils

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
)

// FileStorage handles saving and deleting files on local disk.
type FileStorage struct {
	BaseDir   string // e.g. "./uploads"
	URLPrefix string // e.g. "/uploads"
}

// NewFileStorage creates a FileStorage rooted at baseDir and makes sure the
// directory exists.
func NewFileStorage(baseDir, urlPrefix string) (*FileStorage, error) {
	if err := os.MkdirAll(baseDir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create upload directory %s: %w", baseDir, err)
	}
	return &FileStorage{BaseDir: baseDir, URLPrefix: strings.TrimRight(urlPrefix, "/")}, nil
}

func (fs *FileStorage) path(key string) (string, error) {
	clean := filepath.Clean("/" + filepath.FromSlash(key))
	if clean == string(filepath.Separator) {
		return "", fmt.Errorf("invalid key %q", key)
	}
	return filepath.Join(fs.BaseDir, clean), nil
}

// SaveFile writes the contents of reader to <BaseDir>/<key>.
func (fs *FileStorage) SaveFile(_ context.Context, key, _ string, reader io.Reader) error {
	fullPath, err := fs.path(key)
	if err != nil {
		return err
	}
	if err := os.MkdirAll(filepath.Dir(fullPath), 0755); err != nil {
		return fmt.Errorf("failed to create directory for %s: %w", fullPath, err)
	}

	out, err := os.OpenFile(fullPath, os.O_WRONLY|os.O_CREATE|os.O_EXCL, 0644)
	if err != nil {
		return fmt.Errorf("failed to create file %s: %w", fullPath, err)
	}
	if _, err := io.Copy(out, reader); err != nil {
		out.Close()
		_ = os.Remove(fullPath)
		return fmt.Errorf("failed to write file %s: %w", fullPath, err)
	}
	return out.Close()
}

// DeleteFile removes the file at <BaseDir>/<key>.
// It is safe to call if the file does not exist.
func (fs *FileStorage) DeleteFile(_ context.Context, key string) error {
	fullPath, err := fs.path(key)
	if err != nil {
		return err
	}
	err = os.Remove(fullPath)
	if err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("failed to delete file %s: %w", fullPath, err)
	}
	return nil
}

func (fs *FileStorage) URL(key string) string {
	return fs.URLPrefix + "/" + key
}
