package main

import (
	"context"
	"fmt"
	"os"

	"github.com/mattn/go-isatty"
	"github.com/spf13/viper"

	"github.com/jamesainslie/b2up/pkg/b2up/bootstrap"
	"github.com/jamesainslie/b2up/pkg/b2up/config"
	"github.com/jamesainslie/b2up/pkg/b2up/engine"
	"github.com/jamesainslie/b2up/pkg/b2up/logging"
	"github.com/jamesainslie/b2up/pkg/b2up/notify"
	"github.com/jamesainslie/b2up/pkg/b2up/state"
)

// configPath resolves the configuration file path from the --config
// flag, falling back to the XDG default.
func configPath() string {
	if cfgFile != "" {
		return cfgFile
	}
	return config.DefaultConfigPath()
}

// loadConfig loads the configuration and applies flag and environment
// overrides on top of the persisted values.
func loadConfig() (*config.Config, error) {
	cfg, err := config.Load(configPath())
	if err != nil {
		return nil, err
	}
	applyOverrides(cfg)
	return cfg, nil
}

func applyOverrides(cfg *config.Config) {
	if level := viper.GetString("log_level"); level != "" {
		cfg.LogLevel = level
	}
}

// openLogger rotates the log file if it has outlived its retention and
// opens the logging sink.
func openLogger(cfg *config.Config) (*logging.Logger, error) {
	rotated, err := logging.Rotate(cfg.LogFile, cfg.LogRetentionDays)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Warning: log rotation failed: %v\n", err)
	}

	logger, err := logging.New(logging.Options{
		Level: cfg.LogLevel,
		Path:  cfg.LogFile,
		Quiet: viper.GetBool("quiet"),
	})
	if err != nil {
		return nil, err
	}

	if rotated {
		logger.Info("rotated expired log file", "path", cfg.LogFile, "retention_days", cfg.LogRetentionDays)
	}
	return logger, nil
}

// isInteractive reports whether stdin and stdout are attached to a
// terminal, which gates the first-run wizard.
func isInteractive() bool {
	return isatty.IsTerminal(os.Stdin.Fd()) && isatty.IsTerminal(os.Stdout.Fd())
}

// buildRunner assembles the engine, state store, and notifier for one
// or more backup runs. The returned cleanup must be called when the
// runner is no longer needed.
func buildRunner(ctx context.Context, cfg *config.Config, logger *logging.Logger, dryRun bool) (*engine.Runner, func(), error) {
	matcher, err := config.LoadExclusions(cfg.ExcludeFile)
	if err != nil {
		return nil, nil, fmt.Errorf("loading exclusions: %w", err)
	}

	cleanup := func() {}

	var eng engine.Engine
	switch cfg.Engine {
	case config.EngineB2:
		native := engine.NewNative(cfg, matcher, logger)
		native.DryRun = dryRun
		if cfg.SkipUnchanged {
			store, err := state.Open(config.DefaultStateIndexDir())
			if err != nil {
				logger.Warn("opening state index failed, running without skip-unchanged", "error", err)
			} else {
				native.Store = store
				cleanup = func() { _ = store.Close() }
			}
		}
		eng = native
	default:
		boot := &bootstrap.Bootstrap{
			ToolName:    "rclone",
			InstallDir:  cfg.InstallDir,
			DownloadURL: cfg.DownloadURL,
			Log:         logger.WithPrefix("bootstrap"),
		}
		exe, err := boot.EnsureAvailable(ctx)
		if err != nil {
			return nil, nil, fmt.Errorf("ensuring rclone is available: %w", err)
		}
		rc := engine.NewRclone(cfg, matcher, logger, exe)
		rc.DryRun = dryRun
		eng = rc
	}

	runner := &engine.Runner{
		Cfg:        cfg,
		Engine:     eng,
		Log:        logger,
		HistoryDir: config.DefaultHistoryDir(),
	}

	if cfg.Notify {
		n := &notify.Notifier{Enabled: true, Log: logger}
		runner.Notify = n.Send
	}

	return runner, cleanup, nil
}
