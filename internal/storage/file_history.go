package storage

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/deusflow/aqibot/internal/article"
)

// FileHistory keeps the link history as a JSON array in a single file.
type FileHistory struct {
	filePath string
}

// NewFileHistory creates a file-backed history store. The file is created on
// the first Save.
func NewFileHistory(filePath string) *FileHistory {
	return &FileHistory{filePath: filePath}
}

// Load reads the history. A missing or empty file is an empty history.
func (fh *FileHistory) Load(_ context.Context) (article.History, error) {
	data, err := os.ReadFile(fh.filePath)
	if errors.Is(err, os.ErrNotExist) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read history file: %w", err)
	}

	if len(data) == 0 {
		return nil, nil
	}

	var items article.History
	if err := json.Unmarshal(data, &items); err != nil {
		return nil, fmt.Errorf("failed to unmarshal history: %w", err)
	}
	return items, nil
}

// Save replaces the file contents. The new file is written next to the old
// one and renamed over it so a crash never leaves a half-written history.
func (fh *FileHistory) Save(_ context.Context, h article.History) error {
	if h == nil {
		h = article.History{}
	}
	data, err := json.MarshalIndent(h, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal history: %w", err)
	}

	dir := filepath.Dir(fh.filePath)
	tmp, err := os.CreateTemp(dir, filepath.Base(fh.filePath)+".*.tmp")
	if err != nil {
		return fmt.Errorf("failed to create temp history file: %w", err)
	}
	defer os.Remove(tmp.Name())

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		return fmt.Errorf("failed to write history file: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("failed to write history file: %w", err)
	}
	if err := os.Chmod(tmp.Name(), 0o644); err != nil {
		return fmt.Errorf("failed to write history file: %w", err)
	}
	if err := os.Rename(tmp.Name(), fh.filePath); err != nil {
		return fmt.Errorf("failed to replace history file: %w", err)
	}
	return nil
}
