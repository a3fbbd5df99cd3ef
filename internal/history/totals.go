package history

import "github.com/jkarasek/tempo/internal/model"

// TotalsFromDocument extracts per-timer totals from a document snapshot,
// skipping timers with nothing tracked. Group names come from the owning
// member lists.
func TotalsFromDocument(doc model.Document) []TimerTotal {
	groupOf := make(map[string]string)
	for _, g := range doc.Groups {
		for _, id := range g.Timers {
			groupOf[id] = g.Name
		}
	}
	var totals []TimerTotal
	for _, t := range doc.Timers {
		if t.ElapsedSeconds <= 0 {
			continue
		}
		totals = append(totals, TimerTotal{
			TimerName: t.Name,
			GroupName: groupOf[t.ID],
			Seconds:   t.ElapsedSeconds,
		})
	}
	return totals
}
