// Package model defines shared data structures.
package model

import (
	"fmt"
	"time"

	"github.com/google/uuid"
)

// SchemaVersion is written into every saved document.
const SchemaVersion = 1

// DateLayout is the calendar-date format used for lastResetDate.
const DateLayout = "2006-01-02"

// Timer is a single trackable task ("client").
type Timer struct {
	ID             string `json:"id"`
	Name           string `json:"name"`
	ElapsedSeconds int64  `json:"elapsedSeconds"`
	// RunningSince is set only for timers that were running at save time.
	RunningSince string `json:"runningSince,omitempty"`
}

// Group is a named, collapsible container of timers. The member list is the
// owning side of the relationship; a timer's group is derived from it.
type Group struct {
	ID        string   `json:"id"`
	Name      string   `json:"name"`
	Collapsed bool     `json:"collapsed"`
	Timers    []string `json:"timers"`
}

// Settings is the per-document settings block.
type Settings struct {
	Theme                  string `json:"theme"`
	Font                   string `json:"font"`
	Size                   string `json:"size"`
	LabelAlign             string `json:"labelAlign"`
	ShowGroupCount         bool   `json:"showGroupCount"`
	ShowGroupTime          bool   `json:"showGroupTime"`
	ConfirmDelete          bool   `json:"confirmDelete"`
	ConfirmReset           bool   `json:"confirmReset"`
	BackupFrequencyMinutes int    `json:"backupFrequencyMinutes"`
	MaxBackups             int    `json:"maxBackups"`
	DailyResetEnabled      bool   `json:"dailyResetEnabled"`
	DailyResetTime         string `json:"dailyResetTime"`
	UILocked               bool   `json:"uiLocked"`
}

// Document is the full persisted state: ordered groups (each owning an
// ordered timer-id list), ordered ungrouped timer ids, the flat timer
// records, settings, and the daily-reset watermark.
type Document struct {
	Version       int      `json:"version"`
	SavedAt       string   `json:"savedAt,omitempty"`
	Groups        []Group  `json:"groups"`
	Ungrouped     []string `json:"ungrouped"`
	Timers        []Timer  `json:"timers"`
	Settings      Settings `json:"settings"`
	LastResetDate string   `json:"lastResetDate,omitempty"`
}

// Aggregate summarizes a group's timers for display.
type Aggregate struct {
	TotalSeconds int64
	ChildCount   int
	AnyRunning   bool
}

// DefaultSettings returns the settings block for a fresh document.
func DefaultSettings() Settings {
	return Settings{
		Theme:                  "slate",
		Font:                   "default",
		Size:                   "regular",
		LabelAlign:             "left",
		ShowGroupCount:         true,
		ShowGroupTime:          true,
		ConfirmDelete:          true,
		ConfirmReset:           true,
		BackupFrequencyMinutes: 15,
		MaxBackups:             5,
		DailyResetEnabled:      false,
		DailyResetTime:         "00:00",
	}
}

// DefaultDocument builds a fresh empty document. The reset watermark starts
// at today so enabling the daily reset never fires retroactively.
func DefaultDocument(now time.Time) Document {
	return Document{
		Version:       SchemaVersion,
		Groups:        []Group{},
		Ungrouped:     []string{},
		Timers:        []Timer{},
		Settings:      DefaultSettings(),
		LastResetDate: now.Format(DateLayout),
	}
}

// NewID returns a fresh unique id for a timer or group.
func NewID() string {
	return uuid.NewString()
}

// Validate checks the referential invariants: every referenced timer id
// resolves to exactly one record, no id is placed twice, ids are unique and
// elapsed times are non-negative.
func (d *Document) Validate() error {
	records := make(map[string]bool, len(d.Timers))
	for _, t := range d.Timers {
		if t.ID == "" {
			return fmt.Errorf("timer %q has empty id", t.Name)
		}
		if records[t.ID] {
			return fmt.Errorf("duplicate timer id %s", t.ID)
		}
		if t.ElapsedSeconds < 0 {
			return fmt.Errorf("timer %s has negative elapsed %d", t.ID, t.ElapsedSeconds)
		}
		records[t.ID] = true
	}

	groupIDs := make(map[string]bool, len(d.Groups))
	placed := make(map[string]bool, len(d.Timers))
	place := func(id string) error {
		if !records[id] {
			return fmt.Errorf("unknown timer id %s", id)
		}
		if placed[id] {
			return fmt.Errorf("timer id %s placed twice", id)
		}
		placed[id] = true
		return nil
	}

	for _, g := range d.Groups {
		if g.ID == "" {
			return fmt.Errorf("group %q has empty id", g.Name)
		}
		if groupIDs[g.ID] {
			return fmt.Errorf("duplicate group id %s", g.ID)
		}
		groupIDs[g.ID] = true
		for _, id := range g.Timers {
			if err := place(id); err != nil {
				return fmt.Errorf("group %s: %w", g.ID, err)
			}
		}
	}
	for _, id := range d.Ungrouped {
		if err := place(id); err != nil {
			return fmt.Errorf("ungrouped: %w", err)
		}
	}
	for id := range records {
		if !placed[id] {
			return fmt.Errorf("timer id %s is not placed in any list", id)
		}
	}
	return nil
}

// Clone returns a deep copy of the document.
func (d *Document) Clone() Document {
	out := *d
	out.Groups = make([]Group, len(d.Groups))
	for i, g := range d.Groups {
		out.Groups[i] = g
		out.Groups[i].Timers = append([]string(nil), g.Timers...)
	}
	out.Ungrouped = append([]string(nil), d.Ungrouped...)
	out.Timers = append([]Timer(nil), d.Timers...)
	return out
}
