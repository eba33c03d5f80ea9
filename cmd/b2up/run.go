package main

import (
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/jamesainslie/b2up/pkg/b2up/config"
	"github.com/jamesainslie/b2up/pkg/b2up/engine"
)

var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Run a backup with the saved configuration",
	Long: `Run one backup of the configured source folder.

If no configuration exists yet and the session is interactive, the
setup wizard runs first. With --non-interactive a missing configuration
is a fatal error, which keeps scheduled runs from hanging on a prompt.`,
	RunE: runRun,
}

var (
	nonInteractive bool
	forceSetup     bool
	dryRun         bool
)

func init() {
	runCmd.Flags().BoolVar(&nonInteractive, "non-interactive", false, "fail instead of prompting when configuration is missing")
	runCmd.Flags().BoolVar(&forceSetup, "setup", false, "run the configuration wizard even when configuration exists")
	runCmd.Flags().BoolVar(&dryRun, "dry-run", false, "show what would be uploaded without uploading")

	rootCmd.AddCommand(runCmd)
}

// runRun is the default command: one backup, wizard-on-first-run.
func runRun(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		if !errors.Is(err, config.ErrNotExist) {
			return err
		}
		if nonInteractive || !isInteractive() {
			return engine.Exit(1, fmt.Errorf("no configuration at %s; run 'b2up setup' first", configPath()))
		}
		cfg = nil
	}

	if cfg == nil || (forceSetup && isInteractive()) {
		result, err := runWizard(cfg)
		if err != nil {
			return err
		}
		if !result.RunNow {
			fmt.Println("Setup complete. Run 'b2up run' to start a backup.")
			return nil
		}
		cfg = result.Config
		applyOverrides(cfg)
	}

	logger, err := openLogger(cfg)
	if err != nil {
		return err
	}
	defer logger.Close()

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	runner, cleanup, err := buildRunner(ctx, cfg, logger, dryRun)
	if err != nil {
		logger.Failure(err)
		return engine.Exit(1, err)
	}
	defer cleanup()

	return runner.Run(ctx)
}
