// Package history handles SQLite persistence of completed days.
package history

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"time"

	_ "modernc.org/sqlite" // SQLite driver.
)

// Store wraps SQLite access for the day archive.
type Store struct {
	db *sql.DB
}

// Day is one archived day of tracking.
type Day struct {
	ID           int64
	Date         string
	ArchivedAt   time.Time
	TotalSeconds int64
	TimerCount   int
}

// TimerTotal is one timer's archived total for a day or a range.
type TimerTotal struct {
	TimerName string
	GroupName string
	Seconds   int64
}

// Open opens or creates the SQLite database and applies migrations.
func Open(path string) (*Store, error) {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, err
	}
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, err
	}
	store := &Store{db: db}
	if err := store.migrate(); err != nil {
		if cerr := db.Close(); cerr != nil {
			// Best-effort close on migration failure.
			_ = cerr
		}
		return nil, err
	}
	return store, nil
}

// Close closes the underlying database.
func (s *Store) Close() error {
	return s.db.Close()
}

func (s *Store) migrate() error {
	stmts := []string{
		`CREATE TABLE IF NOT EXISTS days (
			id INTEGER PRIMARY KEY,
			date TEXT NOT NULL,
			archived_at TEXT NOT NULL,
			total_seconds INTEGER NOT NULL,
			timer_count INTEGER NOT NULL
		);`,
		`CREATE TABLE IF NOT EXISTS day_timers (
			day_id INTEGER NOT NULL,
			timer_name TEXT NOT NULL,
			group_name TEXT NOT NULL,
			seconds INTEGER NOT NULL
		);`,
		`CREATE INDEX IF NOT EXISTS idx_days_date ON days(date);`,
		`CREATE INDEX IF NOT EXISTS idx_day_timers_day_id ON day_timers(day_id);`,
	}
	for _, stmt := range stmts {
		if _, err := s.db.Exec(stmt); err != nil {
			return err
		}
	}
	return nil
}

// InsertDay archives a completed day and its per-timer totals. Timers with
// zero elapsed time are expected to be filtered out by the caller.
func (s *Store) InsertDay(ctx context.Context, date string, archivedAt time.Time, timers []TimerTotal) (int64, error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return 0, err
	}
	defer func() {
		if err != nil {
			if rerr := tx.Rollback(); rerr != nil {
				// Best-effort rollback.
				_ = rerr
			}
		}
	}()

	var total int64
	for _, t := range timers {
		total += t.Seconds
	}
	res, err := tx.ExecContext(ctx,
		`INSERT INTO days (date, archived_at, total_seconds, timer_count)
		 VALUES (?, ?, ?, ?)`,
		date,
		archivedAt.Format(time.RFC3339Nano),
		total,
		len(timers),
	)
	if err != nil {
		return 0, err
	}
	id, err := res.LastInsertId()
	if err != nil {
		return 0, err
	}

	if len(timers) > 0 {
		stmt, err := tx.PrepareContext(ctx,
			`INSERT INTO day_timers (day_id, timer_name, group_name, seconds)
			 VALUES (?, ?, ?, ?)`)
		if err != nil {
			return 0, err
		}
		defer func() {
			if cerr := stmt.Close(); cerr != nil {
				// Best-effort statement close.
				_ = cerr
			}
		}()
		for _, t := range timers {
			if _, err := stmt.ExecContext(ctx, id, t.TimerName, t.GroupName, t.Seconds); err != nil {
				return 0, err
			}
		}
	}

	if err := tx.Commit(); err != nil {
		return 0, err
	}
	return id, nil
}

// ListDays returns archived days ordered oldest first, optionally limited
// to dates at or after since and to the last N entries.
func (s *Store) ListDays(ctx context.Context, since string, last int) ([]Day, error) {
	query := `SELECT id, date, archived_at, total_seconds, timer_count
		FROM days
		WHERE (? = '' OR date >= ?)
		ORDER BY date ASC, id ASC`
	rows, err := s.db.QueryContext(ctx, query, since, since)
	if err != nil {
		return nil, err
	}
	defer func() {
		if cerr := rows.Close(); cerr != nil {
			// Best-effort rows close.
			_ = cerr
		}
	}()

	var days []Day
	for rows.Next() {
		var d Day
		var archivedAt string
		if err := rows.Scan(&d.ID, &d.Date, &archivedAt, &d.TotalSeconds, &d.TimerCount); err != nil {
			return nil, err
		}
		parsed, err := time.Parse(time.RFC3339Nano, archivedAt)
		if err != nil {
			return nil, fmt.Errorf("bad archived_at for day %d: %w", d.ID, err)
		}
		d.ArchivedAt = parsed
		days = append(days, d)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	if last > 0 && len(days) > last {
		days = days[len(days)-last:]
	}
	return days, nil
}

// ListTimerTotals aggregates per-timer totals across archived days,
// optionally filtered by date and group name. Ordered by total descending.
func (s *Store) ListTimerTotals(ctx context.Context, since, group string) ([]TimerTotal, error) {
	query := `SELECT dt.timer_name, dt.group_name, SUM(dt.seconds) AS seconds
		FROM day_timers dt
		JOIN days d ON d.id = dt.day_id
		WHERE (? = '' OR d.date >= ?) AND (? = '' OR dt.group_name = ?)
		GROUP BY dt.timer_name, dt.group_name
		ORDER BY seconds DESC, dt.timer_name ASC`
	rows, err := s.db.QueryContext(ctx, query, since, since, group, group)
	if err != nil {
		return nil, err
	}
	defer func() {
		if cerr := rows.Close(); cerr != nil {
			// Best-effort rows close.
			_ = cerr
		}
	}()

	var totals []TimerTotal
	for rows.Next() {
		var t TimerTotal
		if err := rows.Scan(&t.TimerName, &t.GroupName, &t.Seconds); err != nil {
			return nil, err
		}
		totals = append(totals, t)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return totals, nil
}
