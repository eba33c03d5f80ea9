package main

import (
	"strings"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/jamesainslie/b2up/pkg/b2up/config"
)

var (
	cfgFile string
	rootCmd = &cobra.Command{
		Use:   "b2up",
		Short: "Back up a local folder to Backblaze B2",
		Long: `b2up syncs a local folder to Backblaze B2, either through rclone
or its built-in B2 uploader. It keeps its own configuration, rotates
its logs, records run history, and can register itself as a scheduled
task so backups happen unattended.

Examples:
  b2up                       # First run: interactive setup, then backup
  b2up run                   # Run a backup with the saved configuration
  b2up run --dry-run         # Show what would be uploaded
  b2up setup                 # Re-run the configuration wizard
  b2up schedule register     # Register the scheduled task
  b2up history               # Show recent backup runs
  b2up watch                 # Back up continuously on file changes`,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE:          runRun,
	}
)

func init() {
	cobra.OnInitialize(initConfig)

	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default: "+config.DefaultConfigPath()+")")
	rootCmd.PersistentFlags().String("log-level", "", "log level (debug, info, warn, error)")
	rootCmd.PersistentFlags().BoolP("quiet", "q", false, "suppress console output")

	_ = viper.BindPFlag("log_level", rootCmd.PersistentFlags().Lookup("log-level"))
	_ = viper.BindPFlag("quiet", rootCmd.PersistentFlags().Lookup("quiet"))
}

// initConfig wires environment variable overrides. The B2UP_ prefix maps
// B2UP_LOG_LEVEL onto log_level and so on.
func initConfig() {
	viper.SetEnvPrefix("B2UP")
	viper.SetEnvKeyReplacer(strings.NewReplacer(".", "_", "-", "_"))
	viper.AutomaticEnv()
}

// Execute runs the root command.
func Execute() error {
	return rootCmd.Execute()
}
