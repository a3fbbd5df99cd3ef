package report

import (
	"fmt"
	"io"
	"os"

	"github.com/mattn/go-runewidth"
	"golang.org/x/term"

	"github.com/jkarasek/tempo/internal/history"
)

const (
	fallbackWidth = 80
	minNameWidth  = 8
)

// FormatSeconds renders elapsed seconds as h:mm:ss.
func FormatSeconds(seconds int64) string {
	if seconds < 0 {
		seconds = 0
	}
	h := seconds / 3600
	m := (seconds % 3600) / 60
	s := seconds % 60
	return fmt.Sprintf("%d:%02d:%02d", h, m, s)
}

// TerminalWidth returns the stdout width, or a fallback when stdout is not
// a terminal.
func TerminalWidth() int {
	width, _, err := term.GetSize(int(os.Stdout.Fd()))
	if err != nil || width <= 0 {
		return fallbackWidth
	}
	return width
}

// WriteDays prints the archived-days table.
func WriteDays(w io.Writer, days []history.Day) error {
	if len(days) == 0 {
		_, err := fmt.Fprintln(w, "No archived days yet.")
		return err
	}
	headers := []string{"Date", "Timers", "Total"}
	rows := make([][]string, 0, len(days))
	for _, d := range days {
		rows = append(rows, []string{
			d.Date,
			fmt.Sprintf("%d", d.TimerCount),
			FormatSeconds(d.TotalSeconds),
		})
	}
	return writeLines(w, formatTable(headers, rows, map[int]bool{1: true, 2: true}))
}

// WriteTimerTotals prints the per-timer totals table, truncating names to
// fit the given terminal width.
func WriteTimerTotals(w io.Writer, totals []history.TimerTotal, width int) error {
	if len(totals) == 0 {
		_, err := fmt.Fprintln(w, "No archived timers yet.")
		return err
	}
	// Budget: time column (~9) + group column + separators.
	maxName := width / 2
	if maxName < minNameWidth {
		maxName = minNameWidth
	}
	headers := []string{"Timer", "Group", "Total"}
	rows := make([][]string, 0, len(totals))
	for _, t := range totals {
		name := runewidth.Truncate(t.TimerName, maxName, "…")
		group := t.GroupName
		if group == "" {
			group = "-"
		}
		rows = append(rows, []string{name, group, FormatSeconds(t.Seconds)})
	}
	return writeLines(w, formatTable(headers, rows, map[int]bool{2: true}))
}

func writeLines(w io.Writer, lines []string) error {
	for _, line := range lines {
		if _, err := fmt.Fprintln(w, line); err != nil {
			return fmt.Errorf("failed to write output: %w", err)
		}
	}
	return nil
}
