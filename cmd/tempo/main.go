// Package main provides the CLI entrypoint for tempo.
package main

import (
	"context"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"strings"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/spf13/cobra"

	"github.com/jkarasek/tempo/internal/config"
	"github.com/jkarasek/tempo/internal/history"
	"github.com/jkarasek/tempo/internal/persist"
	"github.com/jkarasek/tempo/internal/report"
	"github.com/jkarasek/tempo/internal/track"
	"github.com/jkarasek/tempo/internal/tui"
)

const (
	defaultAutosaveSeconds = 20
	defaultRecordHistory   = true
	defaultBackupOnQuit    = true
)

var (
	trackDataDir  string
	trackAutosave int
	trackTheme    string

	reportSince string
	reportLast  int
	reportGroup string

	resetArchive bool
)

func main() {
	rootCmd := newRootCmd()
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	rootCmd := &cobra.Command{
		Use:           "tempo",
		Short:         "TUI time tracker",
		SilenceUsage:  true,
		SilenceErrors: false,
		RunE:          runTrackerCmd,
	}

	rootCmd.PersistentFlags().StringVar(&trackDataDir, "data-dir", "", "data directory (default: XDG data home)")
	rootCmd.Flags().IntVar(&trackAutosave, "autosave", defaultAutosaveSeconds, "autosave interval in seconds")
	rootCmd.Flags().StringVar(&trackTheme, "theme", "", "color theme override")

	rootCmd.AddCommand(newConfigCmd())
	rootCmd.AddCommand(newReportCmd())
	rootCmd.AddCommand(newBackupsCmd())
	rootCmd.AddCommand(newResetCmd())

	return rootCmd
}

func resolveDataDir(fileCfg config.FileConfig) string {
	if trackDataDir != "" {
		return trackDataDir
	}
	if fileCfg.Tracker.DataDir != nil && *fileCfg.Tracker.DataDir != "" {
		return *fileCfg.Tracker.DataDir
	}
	return config.DefaultDataDir()
}

func runTrackerCmd(cmd *cobra.Command, _ []string) error {
	fileCfg, err := config.LoadConfig(config.DefaultConfigPath())
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}
	applyIntConfig(cmd, "autosave", &trackAutosave, fileCfg.Tracker.AutosaveSeconds)
	applyStringConfig(cmd, "theme", &trackTheme, fileCfg.Tracker.Theme)
	if trackAutosave <= 0 {
		return fmt.Errorf("--autosave must be > 0")
	}

	recordHistory := defaultRecordHistory
	if fileCfg.Tracker.RecordHistory != nil {
		recordHistory = *fileCfg.Tracker.RecordHistory
	}
	backupOnQuit := defaultBackupOnQuit
	if fileCfg.Tracker.BackupOnShutdown != nil {
		backupOnQuit = *fileCfg.Tracker.BackupOnShutdown
	}

	dataDir := resolveDataDir(fileCfg)
	pm := persist.NewManager(dataDir)

	now := time.Now()
	doc, loadErr := pm.Load(now)
	if loadErr != nil {
		logErrf("%v\n", loadErr)
	}
	if trackTheme != "" {
		doc.Settings.Theme = trackTheme
	}

	store := track.New(doc, now)

	var hist *history.Store
	if recordHistory {
		hist, err = history.Open(config.HistoryDBPath(dataDir))
		if err != nil {
			logErrf("failed to open history db: %v\n", err)
			hist = nil
		}
	}
	defer func() {
		if hist != nil {
			if cerr := hist.Close(); cerr != nil {
				logErrf("failed to close history db: %v\n", cerr)
			}
		}
	}()

	// A reset boundary may have passed while the process was closed; handle
	// it before the first frame so stale times never show up.
	if store.DailyResetDue(now) {
		if hist != nil {
			snapshot := store.Snapshot(now)
			totals := history.TotalsFromDocument(snapshot)
			if len(totals) > 0 {
				date := store.ResetBoundary(now).Add(-time.Second).Format("2006-01-02")
				if _, err := hist.InsertDay(context.Background(), date, now, totals); err != nil {
					logErrf("failed to archive day: %v\n", err)
				}
			}
		}
		store.ApplyDailyReset(now)
	}

	opts := tui.Options{
		AutosaveInterval: time.Duration(trackAutosave) * time.Second,
		RecordHistory:    recordHistory,
		BackupOnQuit:     backupOnQuit,
	}
	model := tui.NewModel(store, pm, hist, opts)
	program := tea.NewProgram(model, tea.WithAltScreen())
	if _, err := program.Run(); err != nil {
		return fmt.Errorf("failed to run TUI: %w", err)
	}
	return nil
}

func newConfigCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "config",
		Short: "Create/open config file",
		Args:  cobra.NoArgs,
		RunE:  runConfigCmd,
	}
}

func runConfigCmd(_ *cobra.Command, _ []string) error {
	path := config.DefaultConfigPath()
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}
	if _, err := os.Stat(path); err != nil {
		if !os.IsNotExist(err) {
			return fmt.Errorf("failed to stat config: %w", err)
		}
		if err := os.WriteFile(path, []byte(defaultConfigTemplate()), 0o644); err != nil {
			return fmt.Errorf("failed to write config: %w", err)
		}
	}

	editor := strings.TrimSpace(os.Getenv("EDITOR"))
	if editor == "" {
		editor = "vi"
	}
	parts := strings.Fields(editor)
	if len(parts) == 0 {
		return fmt.Errorf("editor command is empty")
	}
	cmd := exec.Command(parts[0], append(parts[1:], path)...)
	cmd.Stdin = os.Stdin
	cmd.Stdout = os.Stdout
	cmd.Stderr = os.Stderr
	if err := cmd.Run(); err != nil {
		return fmt.Errorf("failed to open editor: %w", err)
	}
	return nil
}

func newReportCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "report",
		Short: "Show archived day and timer totals",
		Args:  cobra.NoArgs,
		RunE:  runReportCmd,
	}
	cmd.Flags().StringVar(&reportSince, "since", "", "start date (YYYY-MM-DD)")
	cmd.Flags().IntVar(&reportLast, "last", 0, "limit to last N days")
	cmd.Flags().StringVar(&reportGroup, "group", "", "group name filter")
	return cmd
}

func runReportCmd(cmd *cobra.Command, _ []string) error {
	if reportSince != "" {
		if _, err := time.ParseInLocation("2006-01-02", reportSince, time.Local); err != nil {
			return fmt.Errorf("invalid --since value: %w", err)
		}
	}

	fileCfg, err := config.LoadConfig(config.DefaultConfigPath())
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}
	dataDir := resolveDataDir(fileCfg)
	hist, err := history.Open(config.HistoryDBPath(dataDir))
	if err != nil {
		return fmt.Errorf("failed to open history db: %w", err)
	}
	defer func() {
		if cerr := hist.Close(); cerr != nil {
			logErrf("failed to close history db: %v\n", cerr)
		}
	}()

	ctx := context.Background()
	days, err := hist.ListDays(ctx, reportSince, reportLast)
	if err != nil {
		return fmt.Errorf("failed to list days: %w", err)
	}
	totals, err := hist.ListTimerTotals(ctx, reportSince, reportGroup)
	if err != nil {
		return fmt.Errorf("failed to list timer totals: %w", err)
	}

	out := cmd.OutOrStdout()
	if err := report.WriteDays(out, days); err != nil {
		return err
	}
	if _, err := fmt.Fprintln(out); err != nil {
		return fmt.Errorf("failed to write output: %w", err)
	}
	return report.WriteTimerTotals(out, totals, report.TerminalWidth())
}

func newBackupsCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "backups",
		Short: "List backup files",
		Args:  cobra.NoArgs,
		RunE:  runBackupsCmd,
	}
}

func runBackupsCmd(cmd *cobra.Command, _ []string) error {
	fileCfg, err := config.LoadConfig(config.DefaultConfigPath())
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}
	pm := persist.NewManager(resolveDataDir(fileCfg))
	backups, err := pm.ListBackups()
	if err != nil {
		return fmt.Errorf("failed to list backups: %w", err)
	}
	if len(backups) == 0 {
		if _, err := fmt.Fprintln(cmd.OutOrStdout(), "No backups yet."); err != nil {
			return fmt.Errorf("failed to write output: %w", err)
		}
		return nil
	}
	for _, b := range backups {
		if _, err := fmt.Fprintf(cmd.OutOrStdout(), "%s  %s  %d bytes\n",
			b.Timestamp.Format("2006-01-02 15:04:05"), filepath.Base(b.Path), b.Size); err != nil {
			return fmt.Errorf("failed to write output: %w", err)
		}
	}
	return nil
}

func newResetCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "reset",
		Short: "Zero all elapsed times",
		Args:  cobra.NoArgs,
		RunE:  runResetCmd,
	}
	cmd.Flags().BoolVar(&resetArchive, "archive", true, "record current totals to history before resetting")
	return cmd
}

func runResetCmd(_ *cobra.Command, _ []string) error {
	fileCfg, err := config.LoadConfig(config.DefaultConfigPath())
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}
	dataDir := resolveDataDir(fileCfg)
	pm := persist.NewManager(dataDir)

	now := time.Now()
	doc, loadErr := pm.Load(now)
	if loadErr != nil {
		logErrf("%v\n", loadErr)
	}
	store := track.New(doc, now)

	if resetArchive {
		snapshot := store.Snapshot(now)
		totals := history.TotalsFromDocument(snapshot)
		if len(totals) > 0 {
			hist, err := history.Open(config.HistoryDBPath(dataDir))
			if err != nil {
				return fmt.Errorf("failed to open history db: %w", err)
			}
			_, insertErr := hist.InsertDay(context.Background(), now.Format("2006-01-02"), now, totals)
			if cerr := hist.Close(); cerr != nil {
				logErrf("failed to close history db: %v\n", cerr)
			}
			if insertErr != nil {
				return fmt.Errorf("failed to archive day: %w", insertErr)
			}
		}
	}

	store.ResetAll(now)
	if err := pm.Save(store.Snapshot(now)); err != nil {
		return fmt.Errorf("failed to save: %w", err)
	}
	return nil
}

func applyStringConfig(cmd *cobra.Command, name string, target, value *string) {
	if value == nil {
		return
	}
	if cmd.Flags().Changed(name) {
		return
	}
	*target = *value
}

func applyIntConfig(cmd *cobra.Command, name string, target, value *int) {
	if value == nil {
		return
	}
	if cmd.Flags().Changed(name) {
		return
	}
	*target = *value
}

func defaultConfigTemplate() string {
	return fmt.Sprintf(`# tempo configuration
# Uncomment a value to enable it. CLI flags override config values.

[tracker]
# data-dir = ""             # Data directory (default: XDG data home)
# autosave-seconds = %d     # Autosave interval while tracking
# theme = "slate"           # Color theme (slate, paper, midnight, ember)
# record-history = %t     # Archive completed days to the history db
# backup-on-shutdown = %t  # Rotate a backup when quitting
`,
		defaultAutosaveSeconds,
		defaultRecordHistory,
		defaultBackupOnQuit,
	)
}

func logErrf(format string, args ...any) {
	if _, err := fmt.Fprintf(os.Stderr, format, args...); err != nil {
		// Best-effort logging to stderr.
		_ = err
	}
}
