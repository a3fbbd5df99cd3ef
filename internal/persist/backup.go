package persist

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"
)

const backupTimeLayout = "20060102_150405"

// BackupInfo describes one backup file.
type BackupInfo struct {
	Path      string
	Timestamp time.Time
	Size      int64
}

// ListBackups returns the known backups sorted oldest first by the
// timestamp embedded in the filename, ties broken by lexical filename
// order. Files that do not match the naming convention are ignored.
func (m *Manager) ListBackups() ([]BackupInfo, error) {
	entries, err := os.ReadDir(m.backupDir)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to read backup dir: %w", err)
	}
	var backups []BackupInfo
	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		name := entry.Name()
		ts, ok := parseBackupTime(name)
		if !ok {
			continue
		}
		info, err := entry.Info()
		if err != nil {
			continue
		}
		backups = append(backups, BackupInfo{
			Path:      filepath.Join(m.backupDir, name),
			Timestamp: ts,
			Size:      info.Size(),
		})
	}
	sort.Slice(backups, func(i, j int) bool {
		if !backups[i].Timestamp.Equal(backups[j].Timestamp) {
			return backups[i].Timestamp.Before(backups[j].Timestamp)
		}
		return filepath.Base(backups[i].Path) < filepath.Base(backups[j].Path)
	})
	return backups, nil
}

func parseBackupTime(name string) (time.Time, bool) {
	if !strings.HasPrefix(name, "tempo_") || !strings.HasSuffix(name, ".json") {
		return time.Time{}, false
	}
	stamp := strings.TrimSuffix(strings.TrimPrefix(name, "tempo_"), ".json")
	ts, err := time.ParseInLocation(backupTimeLayout, stamp, time.Local)
	if err != nil {
		return time.Time{}, false
	}
	return ts, true
}

// RotateBackup copies the current primary save into the backup directory
// under a timestamped name and evicts the oldest backups beyond maxBackups.
// Nothing happens when the primary file does not exist yet.
func (m *Manager) RotateBackup(now time.Time, maxBackups int) error {
	if _, err := os.Stat(m.docPath); err != nil {
		if os.IsNotExist(err) {
			return nil
		}
		return fmt.Errorf("failed to stat save: %w", err)
	}
	if err := os.MkdirAll(m.backupDir, 0o755); err != nil {
		return fmt.Errorf("failed to create backup dir: %w", err)
	}

	name := fmt.Sprintf("tempo_%s.json", now.Format(backupTimeLayout))
	if err := copyFile(m.docPath, filepath.Join(m.backupDir, name)); err != nil {
		return fmt.Errorf("failed to write backup: %w", err)
	}

	if maxBackups <= 0 {
		return nil
	}
	backups, err := m.ListBackups()
	if err != nil {
		return err
	}
	for len(backups) > maxBackups {
		if err := os.Remove(backups[0].Path); err != nil {
			return fmt.Errorf("failed to evict backup: %w", err)
		}
		backups = backups[1:]
	}
	return nil
}

func copyFile(src, dst string) error {
	in, err := os.Open(src)
	if err != nil {
		return err
	}
	defer func() {
		if cerr := in.Close(); cerr != nil {
			// Best-effort close.
			_ = cerr
		}
	}()
	out, err := os.Create(dst)
	if err != nil {
		return err
	}
	if _, err := io.Copy(out, in); err != nil {
		_ = out.Close()
		return err
	}
	return out.Close()
}

// MaybeAutosave reports whether an autosave is due: state is dirty or a
// timer is running, and at least interval has passed since the last save.
// Callers invoke it from the one-second tick.
func (m *Manager) MaybeAutosave(now time.Time, interval time.Duration, dirty, anyRunning bool) bool {
	if !dirty && !anyRunning {
		return false
	}
	if !m.lastAutosave.IsZero() && now.Sub(m.lastAutosave) < interval {
		return false
	}
	m.lastAutosave = now
	return true
}

// MaybeRotate reports whether a backup rotation is due per the configured
// frequency in minutes. The first rotation happens one full interval after
// startup.
func (m *Manager) MaybeRotate(now time.Time, freqMinutes int) bool {
	if freqMinutes <= 0 {
		return false
	}
	if m.lastBackup.IsZero() {
		m.lastBackup = now
		return false
	}
	if now.Sub(m.lastBackup) < time.Duration(freqMinutes)*time.Minute {
		return false
	}
	m.lastBackup = now
	return true
}
