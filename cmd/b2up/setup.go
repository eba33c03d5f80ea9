package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/jamesainslie/b2up/cmd/b2up/wizard"
	"github.com/jamesainslie/b2up/pkg/b2up/config"
	"github.com/jamesainslie/b2up/pkg/b2up/logging"
	"github.com/jamesainslie/b2up/pkg/b2up/schedule"
)

var setupCmd = &cobra.Command{
	Use:   "setup",
	Short: "Run the interactive configuration wizard",
	Long: `Walk through backup configuration interactively.

Existing settings are offered as defaults, so re-running setup edits
the configuration in place.`,
	RunE: runSetup,
}

func init() {
	rootCmd.AddCommand(setupCmd)
}

func runSetup(cmd *cobra.Command, args []string) error {
	if !isInteractive() {
		return fmt.Errorf("setup requires an interactive terminal")
	}

	existing, err := config.Load(configPath())
	if err != nil {
		// Missing or invalid config: start the wizard from defaults.
		existing = nil
	}

	result, err := runWizard(existing)
	if err != nil {
		return err
	}

	if result.RunNow {
		fmt.Println("Starting backup...")
		return runRun(cmd, nil)
	}

	return nil
}

// runWizard runs the setup wizard against the existing configuration
// (nil starts from defaults), persists the result, and registers the
// scheduled task when asked to.
func runWizard(existing *config.Config) (*wizard.Result, error) {
	base := existing
	if base == nil {
		base = config.Default()
	}

	result, err := wizard.Run(base)
	if err != nil {
		return nil, err
	}

	path := configPath()
	if err := config.Save(path, result.Config); err != nil {
		return nil, fmt.Errorf("saving configuration: %w", err)
	}
	if err := config.SaveExclusions(result.Config.ExcludeFile, result.Exclusions); err != nil {
		return nil, fmt.Errorf("saving exclusions: %w", err)
	}
	fmt.Printf("Configuration saved to %s\n", path)

	if result.Register {
		if err := registerTask(result.Config); err != nil {
			fmt.Fprintf(os.Stderr, "Warning: registering scheduled task failed: %v\n", err)
		} else {
			fmt.Printf("Scheduled task %q registered.\n", result.Config.TaskName)
		}
	}

	return result, nil
}

// registerTask registers (or replaces) the scheduled task for the
// saved configuration.
func registerTask(cfg *config.Config) error {
	spec, err := schedule.ParseSpec(cfg.TaskName, cfg.ScheduleFrequency, cfg.ScheduleTime, cfg.ScheduleDay, cfg.RunAs)
	if err != nil {
		return err
	}

	exe, err := os.Executable()
	if err != nil {
		return fmt.Errorf("resolving executable path: %w", err)
	}

	logger, err := logging.New(logging.Options{Level: "info"})
	if err != nil {
		return err
	}

	reg := schedule.NewRegistrar(logger.WithPrefix("schedule"))
	return reg.Register(spec, schedule.Action(exe, configPath()))
}
