// Package track holds the in-memory timer model: elapsed-time accounting,
// start/stop exclusivity, grouping and ordering.
package track

import (
	"time"

	"github.com/jkarasek/tempo/internal/model"
)

// Store is the authoritative in-memory state of all groups and timers.
// All access happens from the single UI/event goroutine.
type Store struct {
	doc model.Document
	// startedAt carries a monotonic reading, so elapsed time is immune to
	// wall-clock changes while the process is up.
	startedAt map[string]time.Time
	dirty     bool
}

// New builds a store from a loaded document. Timers saved with a
// runningSince marker are restarted from now; time while the process was
// closed is not counted.
func New(doc model.Document, now time.Time) *Store {
	s := &Store{
		doc:       doc.Clone(),
		startedAt: make(map[string]time.Time),
	}
	for i := range s.doc.Timers {
		if s.doc.Timers[i].RunningSince != "" {
			s.doc.Timers[i].RunningSince = ""
			s.startedAt[s.doc.Timers[i].ID] = now
		}
	}
	return s
}

// Document exposes the current document for read-only walks (view building).
func (s *Store) Document() *model.Document {
	return &s.doc
}

// Settings returns the document settings block.
func (s *Store) Settings() model.Settings {
	return s.doc.Settings
}

// SetSettings replaces the settings block. Enabling the daily reset moves
// the watermark to today so the next boundary is the first to fire.
func (s *Store) SetSettings(settings model.Settings, now time.Time) {
	if settings.DailyResetEnabled && !s.doc.Settings.DailyResetEnabled {
		s.doc.LastResetDate = now.Format(model.DateLayout)
	}
	s.doc.Settings = settings
	s.dirty = true
}

// Dirty reports whether the document changed since the last ClearDirty.
func (s *Store) Dirty() bool {
	return s.dirty
}

// ClearDirty marks the current state as persisted.
func (s *Store) ClearDirty() {
	s.dirty = false
}

func (s *Store) timer(id string) *model.Timer {
	for i := range s.doc.Timers {
		if s.doc.Timers[i].ID == id {
			return &s.doc.Timers[i]
		}
	}
	return nil
}

func (s *Store) group(id string) *model.Group {
	for i := range s.doc.Groups {
		if s.doc.Groups[i].ID == id {
			return &s.doc.Groups[i]
		}
	}
	return nil
}

// Running reports whether the timer with the given id is running.
func (s *Store) Running(id string) bool {
	_, ok := s.startedAt[id]
	return ok
}

// AnyRunning reports whether at least one timer is running.
func (s *Store) AnyRunning() bool {
	return len(s.startedAt) > 0
}

// Elapsed returns the displayed elapsed seconds for a timer, including the
// live portion of the current run. Unknown ids return 0.
func (s *Store) Elapsed(id string, now time.Time) int64 {
	t := s.timer(id)
	if t == nil {
		return 0
	}
	elapsed := t.ElapsedSeconds
	if since, ok := s.startedAt[id]; ok {
		elapsed += int64(now.Sub(since) / time.Second)
	}
	return elapsed
}

// fold moves the live portion of a running timer into ElapsedSeconds without
// changing its run state.
func (s *Store) fold(id string, now time.Time) {
	since, ok := s.startedAt[id]
	if !ok {
		return
	}
	t := s.timer(id)
	if t == nil {
		return
	}
	t.ElapsedSeconds += int64(now.Sub(since) / time.Second)
	s.startedAt[id] = now
}

// Start starts a timer. When exclusive, every other running timer is stopped
// first (folding its elapsed time). Starting an already-running timer is a
// no-op for that timer but still stops the others when exclusive. Unknown
// ids are ignored.
func (s *Store) Start(id string, exclusive bool, now time.Time) {
	t := s.timer(id)
	if t == nil {
		return
	}
	if exclusive {
		for other := range s.startedAt {
			if other != id {
				s.Stop(other, now)
			}
		}
	}
	if _, ok := s.startedAt[id]; ok {
		return
	}
	s.startedAt[id] = now
	s.dirty = true
}

// Stop stops a running timer and folds its elapsed time. No-op if already
// stopped or unknown.
func (s *Store) Stop(id string, now time.Time) {
	if _, ok := s.startedAt[id]; !ok {
		return
	}
	s.fold(id, now)
	delete(s.startedAt, id)
	s.dirty = true
}

// StopAll stops every running timer.
func (s *Store) StopAll(now time.Time) {
	for id := range s.startedAt {
		s.Stop(id, now)
	}
}

// Adjust adds deltaSeconds to a timer's elapsed time, clamping the result at
// zero. Running timers keep running.
func (s *Store) Adjust(id string, deltaSeconds int64, now time.Time) {
	t := s.timer(id)
	if t == nil {
		return
	}
	s.fold(id, now)
	t.ElapsedSeconds += deltaSeconds
	if t.ElapsedSeconds < 0 {
		t.ElapsedSeconds = 0
	}
	s.dirty = true
}

// ResetTimer zeroes a timer's elapsed time. A running timer stays running
// and restarts its live portion from now.
func (s *Store) ResetTimer(id string, now time.Time) {
	t := s.timer(id)
	if t == nil {
		return
	}
	t.ElapsedSeconds = 0
	if _, ok := s.startedAt[id]; ok {
		s.startedAt[id] = now
	}
	s.dirty = true
}

// ResetAll stops every timer and zeroes all elapsed times.
func (s *Store) ResetAll(now time.Time) {
	s.StopAll(now)
	for i := range s.doc.Timers {
		s.doc.Timers[i].ElapsedSeconds = 0
	}
	s.dirty = true
}

// RenameTimer sets a timer's display name.
func (s *Store) RenameTimer(id, name string) {
	if t := s.timer(id); t != nil && name != "" {
		t.Name = name
		s.dirty = true
	}
}

// RenameGroup sets a group's display name.
func (s *Store) RenameGroup(id, name string) {
	if g := s.group(id); g != nil && name != "" {
		g.Name = name
		s.dirty = true
	}
}

// AddTimer appends a new timer to the given group, or to the ungrouped list
// when groupID is empty or unknown. Returns the new id.
func (s *Store) AddTimer(name, groupID string) string {
	id := model.NewID()
	s.doc.Timers = append(s.doc.Timers, model.Timer{ID: id, Name: name})
	if g := s.group(groupID); g != nil {
		g.Timers = append(g.Timers, id)
	} else {
		s.doc.Ungrouped = append(s.doc.Ungrouped, id)
	}
	s.dirty = true
	return id
}

// AddGroup appends a new empty group and returns its id.
func (s *Store) AddGroup(name string) string {
	id := model.NewID()
	s.doc.Groups = append(s.doc.Groups, model.Group{ID: id, Name: name, Timers: []string{}})
	s.dirty = true
	return id
}

func removeID(list []string, id string) ([]string, bool) {
	for i, v := range list {
		if v == id {
			return append(list[:i], list[i+1:]...), true
		}
	}
	return list, false
}

// detach removes a timer id from whichever membership list holds it.
func (s *Store) detach(id string) bool {
	var ok bool
	if s.doc.Ungrouped, ok = removeID(s.doc.Ungrouped, id); ok {
		return true
	}
	for i := range s.doc.Groups {
		if s.doc.Groups[i].Timers, ok = removeID(s.doc.Groups[i].Timers, id); ok {
			return true
		}
	}
	return false
}

func (s *Store) removeRecord(id string) {
	for i := range s.doc.Timers {
		if s.doc.Timers[i].ID == id {
			s.doc.Timers = append(s.doc.Timers[:i], s.doc.Timers[i+1:]...)
			return
		}
	}
}

// DeleteTimer removes a timer entirely. Unknown ids are ignored.
func (s *Store) DeleteTimer(id string) {
	if s.timer(id) == nil {
		return
	}
	delete(s.startedAt, id)
	s.detach(id)
	s.removeRecord(id)
	s.dirty = true
}

// DeleteGroup removes a group and all of its member timers.
func (s *Store) DeleteGroup(id string) {
	g := s.group(id)
	if g == nil {
		return
	}
	members := append([]string(nil), g.Timers...)
	for _, tid := range members {
		delete(s.startedAt, tid)
		s.removeRecord(tid)
	}
	for i := range s.doc.Groups {
		if s.doc.Groups[i].ID == id {
			s.doc.Groups = append(s.doc.Groups[:i], s.doc.Groups[i+1:]...)
			break
		}
	}
	s.dirty = true
}

func insertID(list []string, id string, index int) []string {
	if index < 0 {
		index = 0
	}
	if index > len(list) {
		index = len(list)
	}
	list = append(list, "")
	copy(list[index+1:], list[index:])
	list[index] = id
	return list
}

// MoveTimer places a timer at index within the given group's member list,
// or within the ungrouped list when groupID is empty. Order stays contiguous
// because position is list index. Unknown timer or group ids are ignored.
func (s *Store) MoveTimer(id, groupID string, index int) {
	if s.timer(id) == nil {
		return
	}
	if groupID != "" && s.group(groupID) == nil {
		return
	}
	if !s.detach(id) {
		return
	}
	if groupID == "" {
		s.doc.Ungrouped = insertID(s.doc.Ungrouped, id, index)
	} else {
		g := s.group(groupID)
		g.Timers = insertID(g.Timers, id, index)
	}
	s.dirty = true
}

// MoveGroup places a group at index among the top-level groups.
func (s *Store) MoveGroup(id string, index int) {
	pos := -1
	for i := range s.doc.Groups {
		if s.doc.Groups[i].ID == id {
			pos = i
			break
		}
	}
	if pos < 0 {
		return
	}
	g := s.doc.Groups[pos]
	s.doc.Groups = append(s.doc.Groups[:pos], s.doc.Groups[pos+1:]...)
	if index < 0 {
		index = 0
	}
	if index > len(s.doc.Groups) {
		index = len(s.doc.Groups)
	}
	s.doc.Groups = append(s.doc.Groups, model.Group{})
	copy(s.doc.Groups[index+1:], s.doc.Groups[index:])
	s.doc.Groups[index] = g
	s.dirty = true
}

// GroupOf returns the id of the group owning a timer, or "" for ungrouped
// or unknown timers. This is the derived back-reference; the member lists
// stay the single owning side.
func (s *Store) GroupOf(id string) string {
	for i := range s.doc.Groups {
		for _, tid := range s.doc.Groups[i].Timers {
			if tid == id {
				return s.doc.Groups[i].ID
			}
		}
	}
	return ""
}

// ToggleCollapsed flips a group's collapsed flag.
func (s *Store) ToggleCollapsed(id string) {
	if g := s.group(id); g != nil {
		g.Collapsed = !g.Collapsed
		s.dirty = true
	}
}

// Aggregate sums the live elapsed time over a group's timers. Recomputed on
// every call; O(children).
func (s *Store) Aggregate(groupID string, now time.Time) model.Aggregate {
	g := s.group(groupID)
	if g == nil {
		return model.Aggregate{}
	}
	agg := model.Aggregate{ChildCount: len(g.Timers)}
	for _, tid := range g.Timers {
		agg.TotalSeconds += s.Elapsed(tid, now)
		if s.Running(tid) {
			agg.AnyRunning = true
		}
	}
	return agg
}

// TotalSeconds sums the live elapsed time over every timer.
func (s *Store) TotalSeconds(now time.Time) int64 {
	var total int64
	for i := range s.doc.Timers {
		total += s.Elapsed(s.doc.Timers[i].ID, now)
	}
	return total
}

// Snapshot returns a deep copy of the document suitable for persistence:
// live elapsed time of running timers is folded in and their runningSince
// markers are recorded so a restart resumes them.
func (s *Store) Snapshot(now time.Time) model.Document {
	out := s.doc.Clone()
	out.SavedAt = now.Format(time.RFC3339)
	for i := range out.Timers {
		id := out.Timers[i].ID
		if since, ok := s.startedAt[id]; ok {
			out.Timers[i].ElapsedSeconds += int64(now.Sub(since) / time.Second)
			out.Timers[i].RunningSince = now.Format(time.RFC3339)
		}
	}
	return out
}
