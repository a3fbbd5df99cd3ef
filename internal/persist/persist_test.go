package persist

import (
	"os"
	"path/filepath"
	"reflect"
	"testing"
	"time"

	"github.com/jkarasek/tempo/internal/model"
)

var now = time.Date(2026, 3, 10, 9, 0, 0, 0, time.UTC)

func sampleDocument() model.Document {
	doc := model.DefaultDocument(now)
	doc.Groups = []model.Group{
		{ID: "g1", Name: "Verizon", Timers: []string{"t1", "t2"}},
	}
	doc.Ungrouped = []string{"t3"}
	doc.Timers = []model.Timer{
		{ID: "t1", Name: "Calls", ElapsedSeconds: 3661},
		{ID: "t2", Name: "Tickets", ElapsedSeconds: 5},
		{ID: "t3", Name: "Misc"},
	}
	return doc
}

func TestSaveLoadRoundTrip(t *testing.T) {
	m := NewManager(t.TempDir())
	doc := sampleDocument()
	if err := m.Save(doc); err != nil {
		t.Fatalf("save failed: %v", err)
	}
	loaded, err := m.Load(now)
	if err != nil {
		t.Fatalf("load failed: %v", err)
	}
	loaded.SavedAt = doc.SavedAt
	if !reflect.DeepEqual(doc, loaded) {
		t.Fatalf("round trip mismatch:\n%+v\n%+v", doc, loaded)
	}
}

func TestLoadMissingFileReturnsDefault(t *testing.T) {
	m := NewManager(t.TempDir())
	doc, err := m.Load(now)
	if err != nil {
		t.Fatalf("missing primary must not be an error: %v", err)
	}
	if len(doc.Timers) != 0 || doc.Version != model.SchemaVersion {
		t.Fatalf("expected fresh default document")
	}
}

func TestLoadCorruptPrimaryFallsBackToBackup(t *testing.T) {
	dir := t.TempDir()
	m := NewManager(dir)
	doc := sampleDocument()
	if err := m.Save(doc); err != nil {
		t.Fatalf("save failed: %v", err)
	}
	if err := m.RotateBackup(now, 5); err != nil {
		t.Fatalf("rotate failed: %v", err)
	}
	if err := os.WriteFile(m.DocumentPath(), []byte("{not json"), 0o644); err != nil {
		t.Fatalf("corrupt write failed: %v", err)
	}

	loaded, err := m.Load(now)
	if err == nil {
		t.Fatalf("expected a restored-from-backup notice error")
	}
	if len(loaded.Timers) != 3 {
		t.Fatalf("expected backup content, got %d timers", len(loaded.Timers))
	}
}

func TestLoadInvalidDocumentFallsBack(t *testing.T) {
	dir := t.TempDir()
	m := NewManager(dir)
	// groupless reference: timer id in a group list without a record
	bad := `{"version":1,"groups":[{"id":"g","name":"g","timers":["ghost"]}],"ungrouped":[],"timers":[],"settings":{}}`
	if err := os.MkdirAll(dir, 0o755); err != nil {
		t.Fatalf("mkdir: %v", err)
	}
	if err := os.WriteFile(m.DocumentPath(), []byte(bad), 0o644); err != nil {
		t.Fatalf("write: %v", err)
	}
	doc, _ := m.Load(now)
	if len(doc.Timers) != 0 || len(doc.Groups) != 0 {
		t.Fatalf("expected fresh default after validation failure")
	}
}

func TestLoadSkipsCorruptBackups(t *testing.T) {
	dir := t.TempDir()
	m := NewManager(dir)
	doc := sampleDocument()
	if err := m.Save(doc); err != nil {
		t.Fatalf("save failed: %v", err)
	}
	if err := m.RotateBackup(now, 5); err != nil {
		t.Fatalf("rotate failed: %v", err)
	}
	// A newer but corrupt backup must be skipped in favor of the older one.
	corrupt := filepath.Join(dir, "backups", "tempo_20260310_120000.json")
	if err := os.WriteFile(corrupt, []byte("oops"), 0o644); err != nil {
		t.Fatalf("write corrupt backup: %v", err)
	}
	if err := os.WriteFile(m.DocumentPath(), []byte("bad"), 0o644); err != nil {
		t.Fatalf("corrupt primary: %v", err)
	}

	loaded, _ := m.Load(now)
	if len(loaded.Timers) != 3 {
		t.Fatalf("expected valid older backup to win, got %d timers", len(loaded.Timers))
	}
}

func TestRotateBackupEvictsOldestFirst(t *testing.T) {
	dir := t.TempDir()
	m := NewManager(dir)
	if err := m.Save(sampleDocument()); err != nil {
		t.Fatalf("save failed: %v", err)
	}

	base := time.Date(2026, 3, 10, 9, 0, 0, 0, time.Local)
	for i := 0; i < 5; i++ {
		if err := m.RotateBackup(base.Add(time.Duration(i)*time.Minute), 3); err != nil {
			t.Fatalf("rotate %d failed: %v", i, err)
		}
	}

	backups, err := m.ListBackups()
	if err != nil {
		t.Fatalf("list failed: %v", err)
	}
	if len(backups) != 3 {
		t.Fatalf("expected 3 backups, got %d", len(backups))
	}
	// The two oldest must be gone.
	if !backups[0].Timestamp.Equal(base.Add(2 * time.Minute)) {
		t.Fatalf("expected oldest surviving backup at +2m, got %v", backups[0].Timestamp)
	}
}

func TestRotateBackupWithoutPrimaryIsNoOp(t *testing.T) {
	m := NewManager(t.TempDir())
	if err := m.RotateBackup(now, 3); err != nil {
		t.Fatalf("rotate without primary must not fail: %v", err)
	}
	backups, err := m.ListBackups()
	if err != nil {
		t.Fatalf("list failed: %v", err)
	}
	if len(backups) != 0 {
		t.Fatalf("expected no backups, got %d", len(backups))
	}
}

func TestListBackupsIgnoresForeignFiles(t *testing.T) {
	dir := t.TempDir()
	m := NewManager(dir)
	backupDir := filepath.Join(dir, "backups")
	if err := os.MkdirAll(backupDir, 0o755); err != nil {
		t.Fatalf("mkdir: %v", err)
	}
	for _, name := range []string{"notes.txt", "tempo_garbage.json", "tempo_20260310_090000.json"} {
		if err := os.WriteFile(filepath.Join(backupDir, name), []byte("{}"), 0o644); err != nil {
			t.Fatalf("write %s: %v", name, err)
		}
	}
	backups, err := m.ListBackups()
	if err != nil {
		t.Fatalf("list failed: %v", err)
	}
	if len(backups) != 1 {
		t.Fatalf("expected 1 conforming backup, got %d", len(backups))
	}
}

func TestMaybeAutosave(t *testing.T) {
	m := NewManager(t.TempDir())
	interval := 20 * time.Second

	if m.MaybeAutosave(now, interval, false, false) {
		t.Fatalf("clean idle state must not autosave")
	}
	if !m.MaybeAutosave(now, interval, true, false) {
		t.Fatalf("dirty state must autosave")
	}
	if m.MaybeAutosave(now.Add(5*time.Second), interval, true, true) {
		t.Fatalf("must wait for the interval")
	}
	if !m.MaybeAutosave(now.Add(25*time.Second), interval, false, true) {
		t.Fatalf("running timer past the interval must autosave")
	}
}

func TestMaybeRotate(t *testing.T) {
	m := NewManager(t.TempDir())
	if m.MaybeRotate(now, 15) {
		t.Fatalf("first check only arms the timer")
	}
	if m.MaybeRotate(now.Add(10*time.Minute), 15) {
		t.Fatalf("interval not reached")
	}
	if !m.MaybeRotate(now.Add(15*time.Minute), 15) {
		t.Fatalf("expected rotation after 15 minutes")
	}
	if m.MaybeRotate(now.Add(16*time.Minute), 0) {
		t.Fatalf("zero frequency disables rotation")
	}
}
