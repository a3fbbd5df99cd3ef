// Package persist handles durable storage of the document: atomic saves,
// rotating backups and resilient load.
package persist

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/jkarasek/tempo/internal/model"
)

// Manager owns the primary save file and its backup directory.
type Manager struct {
	docPath   string
	backupDir string

	lastAutosave time.Time
	lastBackup   time.Time
}

// NewManager builds a manager for the given data directory.
func NewManager(dataDir string) *Manager {
	return &Manager{
		docPath:   filepath.Join(dataDir, "tempo.json"),
		backupDir: filepath.Join(dataDir, "backups"),
	}
}

// DocumentPath returns the primary save file path.
func (m *Manager) DocumentPath() string {
	return m.docPath
}

// Save serializes the document to the primary save file. The write goes
// through a temp file and a rename so a crash mid-write never corrupts the
// previous save.
func (m *Manager) Save(doc model.Document) error {
	if err := os.MkdirAll(filepath.Dir(m.docPath), 0o755); err != nil {
		return fmt.Errorf("failed to create data dir: %w", err)
	}
	data, err := json.MarshalIndent(doc, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to encode document: %w", err)
	}
	tmpFile, err := os.CreateTemp(filepath.Dir(m.docPath), "tempo-*.json")
	if err != nil {
		return fmt.Errorf("failed to create temp save: %w", err)
	}
	tmpPath := tmpFile.Name()
	defer func() {
		_ = tmpFile.Close()
		_ = os.Remove(tmpPath)
	}()
	if _, err := tmpFile.Write(data); err != nil {
		return fmt.Errorf("failed to write save: %w", err)
	}
	if err := tmpFile.Close(); err != nil {
		return fmt.Errorf("failed to close save: %w", err)
	}
	if err := os.Rename(tmpPath, m.docPath); err != nil {
		return fmt.Errorf("failed to write save: %w", err)
	}
	return nil
}

func readDocument(path string) (model.Document, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return model.Document{}, fmt.Errorf("failed to read %s: %w", path, err)
	}
	var doc model.Document
	if err := json.Unmarshal(data, &doc); err != nil {
		return model.Document{}, fmt.Errorf("failed to parse %s: %w", path, err)
	}
	if err := doc.Validate(); err != nil {
		return model.Document{}, fmt.Errorf("invalid document %s: %w", path, err)
	}
	if doc.Groups == nil {
		doc.Groups = []model.Group{}
	}
	if doc.Ungrouped == nil {
		doc.Ungrouped = []string{}
	}
	if doc.Timers == nil {
		doc.Timers = []model.Timer{}
	}
	return doc, nil
}

// Load reads the primary file. A missing, unparsable or invalid primary
// falls back to the newest valid backup; if none qualifies, a fresh default
// document is returned. Load never fails the startup.
func (m *Manager) Load(now time.Time) (model.Document, error) {
	doc, err := readDocument(m.docPath)
	if err == nil {
		return doc, nil
	}
	loadErr := err

	backups, listErr := m.ListBackups()
	if listErr == nil {
		// Newest first.
		for i := len(backups) - 1; i >= 0; i-- {
			if doc, err := readDocument(backups[i].Path); err == nil {
				return doc, fmt.Errorf("primary save unusable, restored %s: %w", filepath.Base(backups[i].Path), loadErr)
			}
		}
	}
	if errors.Is(loadErr, os.ErrNotExist) {
		return model.DefaultDocument(now), nil
	}
	return model.DefaultDocument(now), fmt.Errorf("no usable save, starting fresh: %w", loadErr)
}
