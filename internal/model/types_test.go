package model

import (
	"testing"
	"time"
)

func validDocument() Document {
	return Document{
		Version: SchemaVersion,
		Groups: []Group{
			{ID: "g1", Name: "g1", Timers: []string{"t1"}},
		},
		Ungrouped: []string{"t2"},
		Timers: []Timer{
			{ID: "t1", Name: "a", ElapsedSeconds: 10},
			{ID: "t2", Name: "b"},
		},
		Settings: DefaultSettings(),
	}
}

func TestValidateAccepts(t *testing.T) {
	doc := validDocument()
	if err := doc.Validate(); err != nil {
		t.Fatalf("expected valid, got %v", err)
	}
}

func TestValidateRejects(t *testing.T) {
	cases := []struct {
		name   string
		mutate func(*Document)
	}{
		{"unknown member id", func(d *Document) { d.Groups[0].Timers = append(d.Groups[0].Timers, "ghost") }},
		{"unknown ungrouped id", func(d *Document) { d.Ungrouped = append(d.Ungrouped, "ghost") }},
		{"duplicate placement", func(d *Document) { d.Ungrouped = append(d.Ungrouped, "t1") }},
		{"duplicate timer id", func(d *Document) { d.Timers = append(d.Timers, Timer{ID: "t1", Name: "dup"}) }},
		{"duplicate group id", func(d *Document) { d.Groups = append(d.Groups, Group{ID: "g1", Name: "dup"}) }},
		{"negative elapsed", func(d *Document) { d.Timers[0].ElapsedSeconds = -1 }},
		{"unplaced timer", func(d *Document) { d.Ungrouped = d.Ungrouped[:0] }},
		{"empty timer id", func(d *Document) { d.Timers[1].ID = ""; d.Ungrouped[0] = "" }},
	}
	for _, tc := range cases {
		doc := validDocument()
		tc.mutate(&doc)
		if err := doc.Validate(); err == nil {
			t.Fatalf("%s: expected validation error", tc.name)
		}
	}
}

func TestCloneIsDeep(t *testing.T) {
	doc := validDocument()
	clone := doc.Clone()
	clone.Groups[0].Timers[0] = "changed"
	clone.Ungrouped[0] = "changed"
	clone.Timers[0].ElapsedSeconds = 999

	if doc.Groups[0].Timers[0] != "t1" || doc.Ungrouped[0] != "t2" || doc.Timers[0].ElapsedSeconds != 10 {
		t.Fatalf("clone shares memory with original")
	}
}

func TestDefaultDocument(t *testing.T) {
	now := time.Date(2026, 3, 10, 9, 0, 0, 0, time.UTC)
	doc := DefaultDocument(now)
	if err := doc.Validate(); err != nil {
		t.Fatalf("default document must validate: %v", err)
	}
	if doc.LastResetDate != "2026-03-10" {
		t.Fatalf("expected watermark at today, got %q", doc.LastResetDate)
	}
	if doc.Settings.MaxBackups != 5 || doc.Settings.BackupFrequencyMinutes != 15 {
		t.Fatalf("unexpected backup defaults: %+v", doc.Settings)
	}
}

func TestNewIDUnique(t *testing.T) {
	a, b := NewID(), NewID()
	if a == "" || a == b {
		t.Fatalf("expected distinct non-empty ids, got %q %q", a, b)
	}
}
