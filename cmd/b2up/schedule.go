package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/jamesainslie/b2up/pkg/b2up/schedule"
)

var scheduleCmd = &cobra.Command{
	Use:   "schedule",
	Short: "Manage the unattended backup task",
	Long: `Register, remove, or inspect the host scheduled task that runs
backups unattended. On Windows this drives schtasks.exe; other
platforms report scheduling as unsupported.`,
}

var scheduleRegisterCmd = &cobra.Command{
	Use:   "register",
	Short: "Register (or replace) the scheduled task",
	RunE:  runScheduleRegister,
}

var scheduleRemoveCmd = &cobra.Command{
	Use:   "remove",
	Short: "Remove the scheduled task",
	RunE:  runScheduleRemove,
}

var scheduleStatusCmd = &cobra.Command{
	Use:   "status",
	Short: "Show the scheduled task's state",
	RunE:  runScheduleStatus,
}

func init() {
	scheduleCmd.AddCommand(scheduleRegisterCmd)
	scheduleCmd.AddCommand(scheduleRemoveCmd)
	scheduleCmd.AddCommand(scheduleStatusCmd)
	rootCmd.AddCommand(scheduleCmd)
}

func runScheduleRegister(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}

	if err := registerTask(cfg); err != nil {
		return err
	}

	fmt.Printf("Scheduled task %q registered (%s", cfg.TaskName, cfg.ScheduleFrequency)
	if cfg.ScheduleFrequency != schedule.Logon {
		fmt.Printf(" at %s", cfg.ScheduleTime)
	}
	fmt.Println(").")
	return nil
}

func runScheduleRemove(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}

	spec, err := schedule.ParseSpec(cfg.TaskName, cfg.ScheduleFrequency, cfg.ScheduleTime, cfg.ScheduleDay, cfg.RunAs)
	if err != nil {
		return err
	}

	logger, err := openLogger(cfg)
	if err != nil {
		return err
	}
	defer logger.Close()

	reg := schedule.NewRegistrar(logger.WithPrefix("schedule"))
	if err := reg.Unregister(spec); err != nil {
		return err
	}

	fmt.Printf("Scheduled task %q removed.\n", cfg.TaskName)
	return nil
}

func runScheduleStatus(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}

	spec, err := schedule.ParseSpec(cfg.TaskName, cfg.ScheduleFrequency, cfg.ScheduleTime, cfg.ScheduleDay, cfg.RunAs)
	if err != nil {
		return err
	}

	logger, err := openLogger(cfg)
	if err != nil {
		return err
	}
	defer logger.Close()

	reg := schedule.NewRegistrar(logger.WithPrefix("schedule"))
	out, err := reg.Status(spec)
	if err != nil {
		return err
	}

	fmt.Fprintln(os.Stdout, out)
	return nil
}
