package main

import (
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/jamesainslie/b2up/pkg/b2up/watch"
)

var watchCmd = &cobra.Command{
	Use:   "watch",
	Short: "Back up continuously when files change",
	Long: `Watch the source folder and run a backup after changes settle.

Bursts of file events are coalesced with a debounce window, and runs
are spaced out by a minimum interval so editors saving rapidly do not
trigger back-to-back uploads. Press Ctrl+C to stop.`,
	RunE: runWatch,
}

var (
	watchDebounce    time.Duration
	watchMinInterval time.Duration
)

func init() {
	watchCmd.Flags().DurationVar(&watchDebounce, "debounce", watch.DefaultDebounce, "quiet period before a change triggers a run")
	watchCmd.Flags().DurationVar(&watchMinInterval, "min-interval", watch.DefaultMinInterval, "minimum spacing between runs")

	rootCmd.AddCommand(watchCmd)
}

func runWatch(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}

	logger, err := openLogger(cfg)
	if err != nil {
		return err
	}
	defer logger.Close()

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	runner, cleanup, err := buildRunner(ctx, cfg, logger, false)
	if err != nil {
		return err
	}
	defer cleanup()

	w := &watch.Watcher{
		Source:      cfg.Source,
		Debounce:    watchDebounce,
		MinInterval: watchMinInterval,
		Run:         runner.Run,
		Log:         logger.WithPrefix("watch"),
	}

	logger.Info("watching for changes", "source", cfg.Source,
		"debounce", watchDebounce, "min_interval", watchMinInterval)

	if err := w.Watch(ctx); err != nil && ctx.Err() == nil {
		return err
	}
	return nil
}
