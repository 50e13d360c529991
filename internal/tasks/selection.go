package tasks

import (
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"

	"github.com/ChristopherJMiller/nutune/internal/models"
)

const selectionFile = ".nutune-selection.json"

// DefaultSelectionPath returns where the browser persists the current
// selection between sessions.
func DefaultSelectionPath() (string, error) {
	dir, err := os.UserCacheDir()
	if err != nil {
		return "", fmt.Errorf("resolving cache directory: %w", err)
	}
	return filepath.Join(dir, selectionFile), nil
}

// LoadSelection reads a persisted selection. A missing file returns an
// empty selection.
func LoadSelection(path string) (models.Selection, error) {
	var selection models.Selection

	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return selection, nil
		}
		return selection, fmt.Errorf("reading selection: %w", err)
	}
	if err := json.Unmarshal(data, &selection); err != nil {
		return selection, fmt.Errorf("parsing selection: %w", err)
	}
	return selection, nil
}

// SaveSelection persists a selection for the next session.
func SaveSelection(path string, selection models.Selection) error {
	data, err := json.MarshalIndent(selection, "", "  ")
	if err != nil {
		return fmt.Errorf("encoding selection: %w", err)
	}
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return fmt.Errorf("creating selection directory: %w", err)
	}
	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("writing selection: %w", err)
	}
	return nil
}
