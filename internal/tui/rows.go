package tui

import (
	"github.com/jkarasek/tempo/internal/model"
)

type rowKind int

const (
	rowTimer rowKind = iota
	rowGroup
)

// viewRow is one visible line of the tracker: either a group header or a
// timer, with its position within its sibling list.
type viewRow struct {
	kind    rowKind
	id      string
	groupID string // owning group for timers, "" for ungrouped
	index   int    // position within the sibling list
	grouped bool   // indent timers that belong to a group
}

// buildRows flattens the document into the visible row list: ungrouped
// timers first, then each group header followed by its members unless the
// group is collapsed.
func buildRows(doc *model.Document) []viewRow {
	rows := make([]viewRow, 0, len(doc.Timers)+len(doc.Groups))
	for i, id := range doc.Ungrouped {
		rows = append(rows, viewRow{kind: rowTimer, id: id, index: i})
	}
	for gi := range doc.Groups {
		g := &doc.Groups[gi]
		rows = append(rows, viewRow{kind: rowGroup, id: g.ID, index: gi})
		if g.Collapsed {
			continue
		}
		for ti, id := range g.Timers {
			rows = append(rows, viewRow{kind: rowTimer, id: id, groupID: g.ID, index: ti, grouped: true})
		}
	}
	return rows
}

// rowIndexByID finds the visible row for an id, or -1.
func rowIndexByID(rows []viewRow, id string) int {
	for i, r := range rows {
		if r.id == id {
			return i
		}
	}
	return -1
}
