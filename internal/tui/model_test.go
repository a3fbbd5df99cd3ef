package tui

import (
	"os"
	"strings"
	"testing"
	"time"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/jkarasek/tempo/internal/model"
	"github.com/jkarasek/tempo/internal/persist"
	"github.com/jkarasek/tempo/internal/track"
)

func keyRunes(s string) tea.KeyMsg {
	return tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune(s)}
}

func newTestModel(t *testing.T, doc model.Document) *Model {
	t.Helper()
	now := time.Date(2026, 3, 10, 9, 0, 0, 0, time.UTC)
	store := track.New(doc, now)
	pm := persist.NewManager(t.TempDir())
	return NewModel(store, pm, nil, Options{AutosaveInterval: time.Second})
}

func TestStartKeyIsExclusive(t *testing.T) {
	m := newTestModel(t, sampleDoc(false))
	now := time.Now()
	m.store.Start("t1", false, now)

	m.cursor = rowIndexByID(m.rows, "t4")
	m.Update(keyRunes("s"))

	if m.store.Running("t1") {
		t.Fatalf("exclusive start must stop t1")
	}
	if !m.store.Running("t4") {
		t.Fatalf("expected t4 running")
	}
}

func TestAdditiveStartKeyKeepsOthers(t *testing.T) {
	m := newTestModel(t, sampleDoc(false))
	m.store.Start("t1", false, time.Now())

	m.cursor = rowIndexByID(m.rows, "t4")
	m.Update(keyRunes("S"))

	if !m.store.Running("t1") || !m.store.Running("t4") {
		t.Fatalf("additive start must keep both running")
	}
}

func TestAddTimerPromptFlow(t *testing.T) {
	m := newTestModel(t, sampleDoc(false))
	before := len(m.store.Document().Timers)

	m.Update(keyRunes("a"))
	if m.mode != modeAddTimer {
		t.Fatalf("expected add-timer prompt")
	}
	for _, r := range "Review" {
		m.Update(keyRunes(string(r)))
	}
	m.Update(tea.KeyMsg{Type: tea.KeyEnter})

	doc := m.store.Document()
	if len(doc.Timers) != before+1 {
		t.Fatalf("expected a new timer")
	}
	if err := doc.Validate(); err != nil {
		t.Fatalf("invalid document after add: %v", err)
	}
}

func TestLockBlocksStructuralEdits(t *testing.T) {
	doc := sampleDoc(false)
	doc.Settings.UILocked = true
	m := newTestModel(t, doc)
	before := len(m.store.Document().Timers)

	m.cursor = rowIndexByID(m.rows, "t4")
	m.Update(keyRunes("a"))
	if m.mode != modeNone {
		t.Fatalf("locked layout must not open the add prompt")
	}
	m.Update(keyRunes("d"))
	if len(m.store.Document().Timers) != before {
		t.Fatalf("locked layout must not delete")
	}

	// Time control stays available while locked.
	m.Update(keyRunes("s"))
	if !m.store.Running("t4") {
		t.Fatalf("start must work while locked")
	}
}

func TestCollapseKeyRebuildsRows(t *testing.T) {
	m := newTestModel(t, sampleDoc(false))
	total := len(m.rows)

	m.cursor = rowIndexByID(m.rows, "g1")
	m.Update(keyRunes("c"))

	if len(m.rows) != total-2 {
		t.Fatalf("expected members hidden, got %d rows", len(m.rows))
	}
}

func TestDeleteConfirmFlow(t *testing.T) {
	m := newTestModel(t, sampleDoc(false))
	m.cursor = rowIndexByID(m.rows, "t4")

	m.Update(keyRunes("d"))
	if m.mode != modeConfirmDelete {
		t.Fatalf("expected confirm prompt")
	}
	m.Update(keyRunes("n"))
	if len(m.store.Document().Ungrouped) != 1 {
		t.Fatalf("declined delete must keep the timer")
	}

	m.Update(keyRunes("d"))
	m.Update(keyRunes("y"))
	if len(m.store.Document().Ungrouped) != 0 {
		t.Fatalf("confirmed delete must remove the timer")
	}
}

func TestMoveTimerKeyAcrossBoundary(t *testing.T) {
	m := newTestModel(t, sampleDoc(false))
	m.cursor = rowIndexByID(m.rows, "t4")

	// t4 is the only ungrouped timer; moving down drops it into g1.
	m.Update(keyRunes("J"))

	doc := m.store.Document()
	if len(doc.Ungrouped) != 0 {
		t.Fatalf("expected t4 moved out of ungrouped")
	}
	if doc.Groups[0].Timers[0] != "t4" {
		t.Fatalf("expected t4 first in g1, got %v", doc.Groups[0].Timers)
	}
	if r, ok := m.current(); !ok || r.id != "t4" {
		t.Fatalf("cursor must follow the moved timer")
	}
	if err := doc.Validate(); err != nil {
		t.Fatalf("invalid document after move: %v", err)
	}
}

func TestTickAutosavesDirtyState(t *testing.T) {
	m := newTestModel(t, sampleDoc(false))
	m.store.Adjust("t1", 60, time.Now())

	m.Update(tickMsg(time.Now()))

	if m.store.Dirty() {
		t.Fatalf("expected dirty flag cleared after autosave")
	}
	if _, err := os.Stat(m.persist.DocumentPath()); err != nil {
		t.Fatalf("expected save file written: %v", err)
	}
}

func TestViewRendersRows(t *testing.T) {
	m := newTestModel(t, sampleDoc(false))
	m.width = 80
	m.height = 24
	out := m.View()
	for _, want := range []string{"Verizon", "Calls", "Misc", "0:00:00"} {
		if !strings.Contains(out, want) {
			t.Fatalf("expected %q in view output", want)
		}
	}
}
