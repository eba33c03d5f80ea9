package main

import (
	"encoding/json"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/charmbracelet/lipgloss"
	"github.com/dustin/go-humanize"
	"github.com/spf13/cobra"

	"github.com/jamesainslie/b2up/pkg/b2up/config"
	"github.com/jamesainslie/b2up/pkg/b2up/history"
)

var historyCmd = &cobra.Command{
	Use:   "history",
	Short: "Show recent backup runs",
	Long: `Show the recorded backup runs, newest first.

Each run records its engine, file counts, bytes uploaded, duration,
and outcome.`,
	RunE: runHistory,
}

var (
	historyLimit int
	historyJSON  bool
)

func init() {
	historyCmd.Flags().IntVarP(&historyLimit, "limit", "l", 20, "maximum number of runs to show")
	historyCmd.Flags().BoolVarP(&historyJSON, "json", "j", false, "output JSON")

	rootCmd.AddCommand(historyCmd)
}

var (
	historyHeaderStyle = lipgloss.NewStyle().Bold(true)
	historyOKStyle     = lipgloss.NewStyle().Foreground(lipgloss.Color("#28A745"))
	historyFailStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("#DC3545"))
)

func runHistory(cmd *cobra.Command, args []string) error {
	records, err := history.List(config.DefaultHistoryDir())
	if err != nil {
		return fmt.Errorf("listing history: %w", err)
	}

	if historyLimit > 0 && len(records) > historyLimit {
		records = records[:historyLimit]
	}

	if historyJSON {
		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		return enc.Encode(records)
	}

	if len(records) == 0 {
		fmt.Println("No backup runs recorded yet.")
		fmt.Println("Run 'b2up run' to start one.")
		return nil
	}

	header := fmt.Sprintf("%-19s  %-7s  %-8s  %-8s  %-7s  %-10s  %-9s  %s",
		"START", "ENGINE", "UPLOADED", "SKIPPED", "FAILED", "BYTES", "DURATION", "RESULT")
	fmt.Println(historyHeaderStyle.Render(header))
	fmt.Println(strings.Repeat("-", len(header)))

	for _, rec := range records {
		result := historyOKStyle.Render("ok")
		if rec.ExitCode != 0 {
			result = historyFailStyle.Render(fmt.Sprintf("exit %d", rec.ExitCode))
		}

		fmt.Printf("%-19s  %-7s  %-8d  %-8d  %-7d  %-10s  %-9s  %s\n",
			rec.Start.Format("2006-01-02 15:04:05"),
			rec.Engine,
			rec.Uploaded,
			rec.Skipped,
			rec.Failed,
			humanize.Bytes(uint64(rec.Bytes)),
			formatDuration(rec.End.Sub(rec.Start)),
			result,
		)
	}

	fmt.Printf("\nShowing %d runs. Use --limit to see more.\n", len(records))
	return nil
}

// formatDuration renders run durations compactly: 14s, 3m12s, 1h04m.
func formatDuration(d time.Duration) string {
	if d < 0 {
		d = 0
	}
	switch {
	case d < time.Minute:
		return fmt.Sprintf("%ds", int(d.Seconds()))
	case d < time.Hour:
		return fmt.Sprintf("%dm%02ds", int(d.Minutes()), int(d.Seconds())%60)
	default:
		return fmt.Sprintf("%dh%02dm", int(d.Hours()), int(d.Minutes())%60)
	}
}
