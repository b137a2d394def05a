package imagestore

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"rentbook/internal/models"
)

// LocalStore keeps uploads on disk; the API serves them under BaseURL.
type LocalStore struct {
	dir     string
	baseURL string
}

func NewLocalStore(dir, baseURL string) (*LocalStore, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("create upload dir: %w", err)
	}
	return &LocalStore{dir: dir, baseURL: strings.TrimRight(baseURL, "/")}, nil
}

// Dir is the directory uploads are written to.
func (s *LocalStore) Dir() string {
	return s.dir
}

func (s *LocalStore) Upload(_ context.Context, filename string, r io.Reader, folder string) (*models.Image, error) {
	data, _, err := readImage(r)
	if err != nil {
		return nil, err
	}

	key := objectKey(folder, filename)
	target, err := s.resolve(key)
	if err != nil {
		return nil, err
	}
	if err := os.MkdirAll(filepath.Dir(target), 0o755); err != nil {
		return nil, fmt.Errorf("create folder: %w", err)
	}
	if err := os.WriteFile(target, data, 0o644); err != nil {
		return nil, fmt.Errorf("save file: %w", err)
	}

	return &models.Image{URL: s.baseURL + "/" + key, FileID: key}, nil
}

// Delete removes the file. Missing files are not an error.
func (s *LocalStore) Delete(_ context.Context, fileID string) error {
	target, err := s.resolve(fileID)
	if err != nil {
		return err
	}
	if err := os.Remove(target); err != nil && !errors.Is(err, os.ErrNotExist) {
		return fmt.Errorf("delete file: %w", err)
	}
	return nil
}

// resolve maps a file id to a path inside dir.
func (s *LocalStore) resolve(fileID string) (string, error) {
	if fileID == "" || filepath.IsAbs(fileID) {
		return "", ErrInvalidPath
	}
	cleaned := filepath.Clean(filepath.FromSlash(fileID))
	if cleaned == ".." || strings.HasPrefix(cleaned, ".."+string(filepath.Separator)) {
		return "", ErrInvalidPath
	}
	return filepath.Join(s.dir, cleaned), nil
}
