package main

import (
	"path/filepath"
	"testing"

	"github.com/jamesainslie/b2up/pkg/b2up/config"
)

// withConfigFile saves cfg to a temp path and points the --config flag
// variable at it for the duration of the test.
func withConfigFile(t *testing.T, cfg *config.Config) string {
	t.Helper()

	path := filepath.Join(t.TempDir(), "b2up.env")
	if err := config.Save(path, cfg); err != nil {
		t.Fatalf("saving config fixture: %v", err)
	}

	old := cfgFile
	cfgFile = path
	t.Cleanup(func() { cfgFile = old })

	return path
}

func rcloneConfig(t *testing.T) *config.Config {
	t.Helper()
	cfg := config.Default()
	cfg.Source = t.TempDir()
	cfg.Dest = "remote:bucket/docs"
	return cfg
}

func TestConfigSetEngineBeforeCredentials(t *testing.T) {
	path := withConfigFile(t, rcloneConfig(t))

	// Switching the engine before its credentials exist saves with a
	// warning instead of failing, so there is no forced set order.
	if err := runConfigSet(configSetCmd, []string{"engine", "b2"}); err != nil {
		t.Fatalf("runConfigSet(ENGINE, b2) error = %v", err)
	}

	rec, err := config.LoadRecord(path)
	if err != nil {
		t.Fatalf("LoadRecord() error = %v", err)
	}
	if rec["ENGINE"] != "b2" {
		t.Errorf("ENGINE = %q, want %q", rec["ENGINE"], "b2")
	}
}

func TestConfigSetRejectsBadValueForTouchedKey(t *testing.T) {
	path := withConfigFile(t, rcloneConfig(t))

	if err := runConfigSet(configSetCmd, []string{"TRANSFERS", "0"}); err == nil {
		t.Fatal("runConfigSet(TRANSFERS, 0): want error, got nil")
	}
	if err := runConfigSet(configSetCmd, []string{"ENGINE", "rsync"}); err == nil {
		t.Fatal("runConfigSet(ENGINE, rsync): want error, got nil")
	}

	rec, err := config.LoadRecord(path)
	if err != nil {
		t.Fatalf("LoadRecord() error = %v", err)
	}
	if rec["TRANSFERS"] != "4" {
		t.Errorf("TRANSFERS = %q, want untouched %q", rec["TRANSFERS"], "4")
	}
	if rec["ENGINE"] != config.EngineRclone {
		t.Errorf("ENGINE = %q, want untouched %q", rec["ENGINE"], config.EngineRclone)
	}
}

func TestConfigSetUnknownKey(t *testing.T) {
	withConfigFile(t, rcloneConfig(t))

	if err := runConfigSet(configSetCmd, []string{"NO_SUCH_KEY", "x"}); err == nil {
		t.Fatal("runConfigSet(NO_SUCH_KEY): want error, got nil")
	}
}
