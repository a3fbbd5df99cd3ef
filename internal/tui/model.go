package tui

import (
	"context"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/mattn/go-runewidth"

	"github.com/jkarasek/tempo/internal/history"
	"github.com/jkarasek/tempo/internal/model"
	"github.com/jkarasek/tempo/internal/persist"
	"github.com/jkarasek/tempo/internal/report"
	"github.com/jkarasek/tempo/internal/track"
)

const (
	adjustCoarse = 5 * 60
	adjustFine   = 60
)

type inputMode int

const (
	modeNone inputMode = iota
	modeAddTimer
	modeAddGroup
	modeRename
	modeConfirmDelete
	modeConfirmReset
	modeConfirmResetAll
)

type tickMsg time.Time

// Options carries app-level settings resolved from the TOML config.
type Options struct {
	AutosaveInterval time.Duration
	RecordHistory    bool
	BackupOnQuit     bool
}

// Model implements the Bubble Tea tracker UI.
type Model struct {
	store   *track.Store
	persist *persist.Manager
	hist    *history.Store // nil when history recording is off
	opts    Options

	theme  Theme
	styles styles

	rows   []viewRow
	cursor int

	width  int
	height int

	mode     inputMode
	input    textinput.Model
	targetID string

	status string
}

// NewModel constructs the tracker model.
func NewModel(store *track.Store, pm *persist.Manager, hist *history.Store, opts Options) *Model {
	if opts.AutosaveInterval <= 0 {
		opts.AutosaveInterval = 20 * time.Second
	}
	input := textinput.New()
	input.CharLimit = 60
	theme := ThemeByName(store.Settings().Theme)
	m := &Model{
		store:   store,
		persist: pm,
		hist:    hist,
		opts:    opts,
		theme:   theme,
		styles:  newStyles(theme),
		input:   input,
	}
	m.rebuildRows()
	return m
}

func tick() tea.Cmd {
	return tea.Tick(time.Second, func(t time.Time) tea.Msg {
		return tickMsg(t)
	})
}

// Init implements tea.Model.
func (m *Model) Init() tea.Cmd {
	return tick()
}

func (m *Model) rebuildRows() {
	var keep string
	if m.cursor >= 0 && m.cursor < len(m.rows) {
		keep = m.rows[m.cursor].id
	}
	m.rows = buildRows(m.store.Document())
	if keep != "" {
		if idx := rowIndexByID(m.rows, keep); idx >= 0 {
			m.cursor = idx
			return
		}
	}
	if m.cursor >= len(m.rows) {
		m.cursor = len(m.rows) - 1
	}
	if m.cursor < 0 {
		m.cursor = 0
	}
}

func (m *Model) current() (viewRow, bool) {
	if m.cursor < 0 || m.cursor >= len(m.rows) {
		return viewRow{}, false
	}
	return m.rows[m.cursor], true
}

// Update implements tea.Model.
func (m *Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		return m, nil
	case tickMsg:
		m.onTick(time.Time(msg))
		return m, tick()
	case tea.KeyMsg:
		if m.mode != modeNone {
			return m.updatePrompt(msg)
		}
		return m.updateKeys(msg)
	default:
		return m, nil
	}
}

func (m *Model) onTick(now time.Time) {
	if m.store.DailyResetDue(now) {
		m.archiveDay(now)
		m.store.ApplyDailyReset(now)
		m.rebuildRows()
		m.saveNow(now)
		m.status = "daily reset done"
	}
	settings := m.store.Settings()
	if m.persist.MaybeAutosave(now, m.opts.AutosaveInterval, m.store.Dirty(), m.store.AnyRunning()) {
		m.saveNow(now)
	}
	if m.persist.MaybeRotate(now, settings.BackupFrequencyMinutes) {
		if err := m.persist.RotateBackup(now, settings.MaxBackups); err != nil {
			m.status = fmt.Sprintf("backup failed: %v", err)
		}
	}
}

// saveNow writes a snapshot. Failures only set the status line; the next
// tick retries.
func (m *Model) saveNow(now time.Time) {
	if err := m.persist.Save(m.store.Snapshot(now)); err != nil {
		m.status = fmt.Sprintf("save failed: %v", err)
		return
	}
	m.store.ClearDirty()
}

// archiveDay records the finished day into the history database before its
// times are zeroed.
func (m *Model) archiveDay(now time.Time) {
	if m.hist == nil || !m.opts.RecordHistory {
		return
	}
	doc := m.store.Snapshot(now)
	totals := history.TotalsFromDocument(doc)
	if len(totals) == 0 {
		return
	}
	date := m.store.ResetBoundary(now).Add(-time.Second).Format(model.DateLayout)
	if _, err := m.hist.InsertDay(context.Background(), date, now, totals); err != nil {
		logErrf("failed to archive day: %v\n", err)
	}
}

func (m *Model) updateKeys(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	now := time.Now()
	settings := m.store.Settings()
	m.status = ""

	switch msg.String() {
	case "ctrl+c", "q":
		m.saveNow(now)
		if m.opts.BackupOnQuit {
			if err := m.persist.RotateBackup(now, settings.MaxBackups); err != nil {
				logErrf("backup on quit failed: %v\n", err)
			}
		}
		return m, tea.Quit
	case "up", "k":
		if m.cursor > 0 {
			m.cursor--
		}
	case "down", "j":
		if m.cursor < len(m.rows)-1 {
			m.cursor++
		}
	case "enter", "s":
		if r, ok := m.current(); ok && r.kind == rowTimer {
			m.store.Start(r.id, true, now)
		}
	case "S":
		if r, ok := m.current(); ok && r.kind == rowTimer {
			m.store.Start(r.id, false, now)
		}
	case "x":
		if r, ok := m.current(); ok && r.kind == rowTimer {
			m.store.Stop(r.id, now)
		}
	case "X":
		m.store.StopAll(now)
	case "+":
		m.adjustCurrent(adjustCoarse, now)
	case "-":
		m.adjustCurrent(-adjustCoarse, now)
	case "=":
		m.adjustCurrent(adjustFine, now)
	case "_":
		m.adjustCurrent(-adjustFine, now)
	case "a":
		if m.structuralAllowed() {
			return m, m.openPrompt(modeAddTimer, "", "New timer name")
		}
	case "A":
		if m.structuralAllowed() {
			return m, m.openPrompt(modeAddGroup, "", "New group name")
		}
	case "r":
		if r, ok := m.current(); ok && m.structuralAllowed() {
			return m, m.openPrompt(modeRename, r.id, "New name")
		}
	case "z":
		if r, ok := m.current(); ok && r.kind == rowTimer {
			if settings.ConfirmReset {
				m.mode = modeConfirmReset
				m.targetID = r.id
			} else {
				m.store.ResetTimer(r.id, now)
			}
		}
	case "Z":
		if settings.ConfirmReset {
			m.mode = modeConfirmResetAll
		} else {
			m.store.ResetAll(now)
		}
	case "d":
		if r, ok := m.current(); ok && m.structuralAllowed() {
			if settings.ConfirmDelete {
				m.mode = modeConfirmDelete
				m.targetID = r.id
			} else {
				m.deleteRow(r)
			}
		}
	case "J":
		if m.structuralAllowed() {
			m.moveCurrent(1)
		}
	case "K":
		if m.structuralAllowed() {
			m.moveCurrent(-1)
		}
	case "g":
		if m.structuralAllowed() {
			m.cycleGroup()
		}
	case "c", " ":
		if r, ok := m.current(); ok && r.kind == rowGroup {
			m.store.ToggleCollapsed(r.id)
			m.rebuildRows()
		}
	case "L":
		settings.UILocked = !settings.UILocked
		m.store.SetSettings(settings, now)
		if settings.UILocked {
			m.status = "layout locked"
		} else {
			m.status = "layout unlocked"
		}
	case "t":
		m.theme = NextTheme(settings.Theme)
		m.styles = newStyles(m.theme)
		settings.Theme = m.theme.Name
		m.store.SetSettings(settings, now)
		m.status = "theme: " + m.theme.Name
	}
	return m, nil
}

// structuralAllowed gates layout edits behind the UI lock; time control
// keys stay available while locked.
func (m *Model) structuralAllowed() bool {
	if m.store.Settings().UILocked {
		m.status = "layout is locked (L to unlock)"
		return false
	}
	return true
}

func (m *Model) adjustCurrent(delta int64, now time.Time) {
	if r, ok := m.current(); ok && r.kind == rowTimer {
		m.store.Adjust(r.id, delta, now)
	}
}

func (m *Model) deleteRow(r viewRow) {
	if r.kind == rowGroup {
		m.store.DeleteGroup(r.id)
	} else {
		m.store.DeleteTimer(r.id)
	}
	m.rebuildRows()
}

func (m *Model) moveCurrent(dir int) {
	r, ok := m.current()
	if !ok {
		return
	}
	doc := m.store.Document()
	if r.kind == rowGroup {
		m.store.MoveGroup(r.id, r.index+dir)
		m.rebuildRows()
		return
	}

	siblings := len(doc.Ungrouped)
	groupPos := -1
	for i := range doc.Groups {
		if doc.Groups[i].ID == r.groupID {
			groupPos = i
			siblings = len(doc.Groups[i].Timers)
			break
		}
	}

	target := r.index + dir
	switch {
	case target >= 0 && target < siblings:
		m.store.MoveTimer(r.id, r.groupID, target)
	case dir > 0:
		// Past the end: drop into the next container.
		next := groupPos + 1
		if next < len(doc.Groups) {
			m.store.MoveTimer(r.id, doc.Groups[next].ID, 0)
		}
	default:
		// Before the start: climb into the previous container's end.
		switch {
		case groupPos > 0:
			prev := &doc.Groups[groupPos-1]
			m.store.MoveTimer(r.id, prev.ID, len(prev.Timers))
		case groupPos == 0:
			m.store.MoveTimer(r.id, "", len(doc.Ungrouped))
		}
	}
	m.rebuildRows()
	if idx := rowIndexByID(m.rows, r.id); idx >= 0 {
		m.cursor = idx
	}
}

// cycleGroup moves the selected timer to the end of the next container:
// ungrouped, then each group in order, wrapping around.
func (m *Model) cycleGroup() {
	r, ok := m.current()
	if !ok || r.kind != rowTimer {
		return
	}
	doc := m.store.Document()
	if len(doc.Groups) == 0 {
		return
	}
	var targetGroup string
	if r.groupID == "" {
		targetGroup = doc.Groups[0].ID
	} else {
		for i := range doc.Groups {
			if doc.Groups[i].ID == r.groupID {
				if i+1 < len(doc.Groups) {
					targetGroup = doc.Groups[i+1].ID
				}
				break
			}
		}
	}
	if targetGroup == "" {
		m.store.MoveTimer(r.id, "", len(doc.Ungrouped))
	} else {
		g := len(m.groupTimers(targetGroup))
		m.store.MoveTimer(r.id, targetGroup, g)
	}
	m.rebuildRows()
	if idx := rowIndexByID(m.rows, r.id); idx >= 0 {
		m.cursor = idx
	}
}

func (m *Model) groupTimers(groupID string) []string {
	doc := m.store.Document()
	for i := range doc.Groups {
		if doc.Groups[i].ID == groupID {
			return doc.Groups[i].Timers
		}
	}
	return nil
}

func (m *Model) openPrompt(mode inputMode, targetID, placeholder string) tea.Cmd {
	m.mode = mode
	m.targetID = targetID
	m.input.Placeholder = placeholder
	m.input.SetValue("")
	if mode == modeRename {
		m.input.SetValue(m.nameOf(targetID))
	}
	return m.input.Focus()
}

func (m *Model) nameOf(id string) string {
	doc := m.store.Document()
	for i := range doc.Timers {
		if doc.Timers[i].ID == id {
			return doc.Timers[i].Name
		}
	}
	for i := range doc.Groups {
		if doc.Groups[i].ID == id {
			return doc.Groups[i].Name
		}
	}
	return ""
}

func (m *Model) updatePrompt(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	now := time.Now()
	switch m.mode {
	case modeConfirmDelete, modeConfirmReset, modeConfirmResetAll:
		switch msg.String() {
		case "y", "Y", "enter":
			switch m.mode {
			case modeConfirmDelete:
				if idx := rowIndexByID(m.rows, m.targetID); idx >= 0 {
					m.deleteRow(m.rows[idx])
				}
			case modeConfirmReset:
				m.store.ResetTimer(m.targetID, now)
			case modeConfirmResetAll:
				m.store.ResetAll(now)
			}
		}
		m.mode = modeNone
		m.targetID = ""
		return m, nil
	}

	switch msg.Type {
	case tea.KeyEsc, tea.KeyCtrlC:
		m.closePrompt()
		return m, nil
	case tea.KeyEnter:
		name := strings.TrimSpace(m.input.Value())
		if name != "" {
			switch m.mode {
			case modeAddTimer:
				groupID := ""
				if r, ok := m.current(); ok {
					if r.kind == rowGroup {
						groupID = r.id
					} else {
						groupID = r.groupID
					}
				}
				m.store.AddTimer(name, groupID)
			case modeAddGroup:
				m.store.AddGroup(name)
			case modeRename:
				if idx := rowIndexByID(m.rows, m.targetID); idx >= 0 && m.rows[idx].kind == rowGroup {
					m.store.RenameGroup(m.targetID, name)
				} else {
					m.store.RenameTimer(m.targetID, name)
				}
			}
			m.rebuildRows()
		}
		m.closePrompt()
		return m, nil
	}
	var cmd tea.Cmd
	m.input, cmd = m.input.Update(msg)
	return m, cmd
}

func (m *Model) closePrompt() {
	m.mode = modeNone
	m.targetID = ""
	m.input.Blur()
	m.input.SetValue("")
}

// View implements tea.Model.
func (m *Model) View() string {
	now := time.Now()
	settings := m.store.Settings()
	doc := m.store.Document()

	nameWidth := m.nameColumnWidth(doc)

	var b strings.Builder
	for i, r := range m.rows {
		marker := "  "
		if i == m.cursor {
			marker = m.styles.cursor.Render("▸ ")
		}
		b.WriteString(marker)
		b.WriteString(m.renderRow(r, nameWidth, settings, now))
		b.WriteByte('\n')
	}
	if len(m.rows) == 0 {
		b.WriteString(m.styles.muted.Render("No timers yet — press a to add one."))
		b.WriteByte('\n')
	}

	b.WriteByte('\n')
	b.WriteString(m.renderStatus(settings, now))
	return b.String()
}

func (m *Model) nameColumnWidth(doc *model.Document) int {
	width := 12
	for i := range doc.Timers {
		if w := runewidth.StringWidth(doc.Timers[i].Name); w > width {
			width = w
		}
	}
	for i := range doc.Groups {
		if w := runewidth.StringWidth(doc.Groups[i].Name) + 2; w > width {
			width = w
		}
	}
	max := 40
	if m.width > 0 && m.width-22 < max {
		max = m.width - 22
	}
	if width > max && max > 0 {
		width = max
	}
	return width
}

func (m *Model) renderRow(r viewRow, nameWidth int, settings model.Settings, now time.Time) string {
	if r.kind == rowGroup {
		return m.renderGroupRow(r, nameWidth, settings, now)
	}

	indent := ""
	if r.grouped {
		indent = "  "
	}
	running := m.store.Running(r.id)
	bullet := "  "
	if running {
		bullet = m.styles.running.Render("• ")
	}
	name := runewidth.Truncate(m.nameOf(r.id), nameWidth, "…")
	clock := report.FormatSeconds(m.store.Elapsed(r.id, now))

	nameStyle := m.styles.text
	clockStyle := m.styles.muted
	if running {
		nameStyle = m.styles.running
		clockStyle = m.styles.running
	}
	padded := runewidth.FillRight(name, nameWidth)
	return indent + bullet + nameStyle.Render(padded) + "  " + clockStyle.Render(clock)
}

func (m *Model) renderGroupRow(r viewRow, nameWidth int, settings model.Settings, now time.Time) string {
	agg := m.store.Aggregate(r.id, now)
	chevron := "▾"
	doc := m.store.Document()
	for i := range doc.Groups {
		if doc.Groups[i].ID == r.id && doc.Groups[i].Collapsed {
			chevron = "▸"
		}
	}
	name := runewidth.Truncate(m.nameOf(r.id), nameWidth, "…")

	var extras []string
	if settings.ShowGroupCount {
		extras = append(extras, fmt.Sprintf("(%d)", agg.ChildCount))
	}
	if settings.ShowGroupTime {
		extras = append(extras, report.FormatSeconds(agg.TotalSeconds))
	}

	style := m.styles.header
	if agg.AnyRunning {
		style = m.styles.running
	}
	line := style.Render(chevron + " " + runewidth.FillRight(name, nameWidth))
	if len(extras) > 0 {
		line += "  " + m.styles.muted.Render(strings.Join(extras, " "))
	}
	return line
}

func (m *Model) renderStatus(settings model.Settings, now time.Time) string {
	switch m.mode {
	case modeAddTimer, modeAddGroup, modeRename:
		return m.input.View()
	case modeConfirmDelete:
		return m.styles.danger.Render(fmt.Sprintf("Delete %q? (y/n)", m.nameOf(m.targetID)))
	case modeConfirmReset:
		return m.styles.danger.Render(fmt.Sprintf("Reset %q to 0:00:00? (y/n)", m.nameOf(m.targetID)))
	case modeConfirmResetAll:
		return m.styles.danger.Render("Reset all times to zero? (y/n)")
	}

	parts := []string{
		"total " + report.FormatSeconds(m.store.TotalSeconds(now)),
	}
	if settings.UILocked {
		parts = append(parts, m.styles.locked.Render("locked"))
	}
	if m.status != "" {
		parts = append(parts, m.status)
	}
	line := m.styles.status.Render(strings.Join(parts, " · "))
	help := m.styles.muted.Render("s start  S also  x stop  +/- adjust  a add  A group  J/K move  q quit")
	return line + "\n" + help
}

func logErrf(format string, args ...any) {
	if _, err := fmt.Fprintf(os.Stderr, format, args...); err != nil {
		// Best-effort logging to stderr.
		_ = err
	}
}
