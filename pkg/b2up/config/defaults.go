// Package config provides configuration management for the b2up backup tool.
package config

import "fmt"

// Engine names selectable via the ENGINE key.
const (
	EngineRclone = "rclone"
	EngineB2     = "b2"
)

// Default configuration values for b2up.
const (
	// DefaultEngine is the sync backend used when none is configured.
	DefaultEngine = EngineRclone

	// DefaultTransfers is the number of parallel file transfers.
	DefaultTransfers = 4

	// DefaultCheckers is the number of parallel file-existence checkers
	// passed to rclone.
	DefaultCheckers = 8

	// DefaultFastList enables rclone's --fast-list directory listing.
	DefaultFastList = true

	// DefaultVersioning lets B2 retain prior versions of changed files.
	DefaultVersioning = true

	// DefaultLogLevel is the default log verbosity.
	DefaultLogLevel = "info"

	// DefaultLogRetentionDays is how long the log file is kept before
	// age-based rotation deletes it.
	DefaultLogRetentionDays = 30

	// DefaultScheduleTime is the time-of-day for scheduled runs.
	DefaultScheduleTime = "03:00"

	// DefaultScheduleFrequency is the scheduled-task trigger frequency.
	DefaultScheduleFrequency = "daily"

	// DefaultScheduleDay is the day-of-week for weekly schedules.
	DefaultScheduleDay = "SUN"

	// DefaultRunAs is the identity scheduled tasks run under.
	DefaultRunAs = "SYSTEM"

	// DefaultTaskName is the scheduled task name.
	DefaultTaskName = "BackupToBackblazeB2"

	// DefaultHistoryKeep is how many run records are retained.
	DefaultHistoryKeep = 50
)

// DefaultDownloadURL returns the rclone release archive URL for the
// given platform, matching rclone's published naming scheme.
func DefaultDownloadURL(goos, goarch string) string {
	return fmt.Sprintf("https://downloads.rclone.org/rclone-current-%s-%s.zip", goos, goarch)
}
