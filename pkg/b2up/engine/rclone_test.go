package engine

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os/exec"
	"slices"
	"strings"
	"testing"

	"github.com/jamesainslie/b2up/pkg/b2up/config"
	"github.com/jamesainslie/b2up/pkg/b2up/logging"
)

func testLogger(t *testing.T) *logging.Logger {
	t.Helper()
	logger, err := logging.New(logging.Options{Level: "error", Quiet: true})
	if err != nil {
		t.Fatalf("creating test logger: %v", err)
	}
	return logger
}

func testConfig() *config.Config {
	cfg := config.Default()
	cfg.Source = "/data/photos"
	cfg.Dest = "B2:bucket/photos"
	return cfg
}

// fakeRunner records invocations and returns a scripted error.
type fakeRunner struct {
	calls [][]string
	err   error
}

func (f *fakeRunner) Run(ctx context.Context, stdout, stderr io.Writer, name string, args ...string) error {
	f.calls = append(f.calls, append([]string{name}, args...))
	return f.err
}

func TestRcloneSyncArgs(t *testing.T) {
	cfg := testConfig()
	cfg.Transfers = 6
	cfg.Checkers = 12
	cfg.ExtraArgs = []string{"--bwlimit", "1M"}

	matcher, err := config.NewMatcher([]string{".tmp", "node_modules/**"})
	if err != nil {
		t.Fatalf("NewMatcher() error = %v", err)
	}

	r := NewRclone(cfg, matcher, testLogger(t), "rclone")
	args := r.syncArgs()

	wantPrefix := []string{"sync", "/data/photos", "B2:bucket/photos"}
	if !slices.Equal(args[:3], wantPrefix) {
		t.Errorf("args prefix = %v, want %v", args[:3], wantPrefix)
	}

	joined := strings.Join(args, " ")
	for _, want := range []string{
		"--transfers 6",
		"--checkers 12",
		"--fast-list",
		"--log-level INFO",
		"--exclude *.tmp",
		"--exclude node_modules/**",
		"--bwlimit 1M",
	} {
		if !strings.Contains(joined, want) {
			t.Errorf("args = %q, want %q included", joined, want)
		}
	}

	if strings.Contains(joined, "--b2-hard-delete") {
		t.Error("versioning on should not add --b2-hard-delete")
	}
}

func TestRcloneSyncArgs_VersioningOff(t *testing.T) {
	cfg := testConfig()
	cfg.Versioning = false
	cfg.FastList = false

	r := NewRclone(cfg, nil, testLogger(t), "rclone")
	joined := strings.Join(r.syncArgs(), " ")

	if !strings.Contains(joined, "--b2-hard-delete") {
		t.Error("versioning off should add --b2-hard-delete")
	}
	if strings.Contains(joined, "--fast-list") {
		t.Error("fast-list off should omit --fast-list")
	}
}

func TestRcloneSyncArgs_DryRun(t *testing.T) {
	r := NewRclone(testConfig(), nil, testLogger(t), "rclone")
	r.DryRun = true

	if !slices.Contains(r.syncArgs(), "--dry-run") {
		t.Error("dry run should add --dry-run")
	}
}

// realExitError produces a genuine *exec.ExitError with the given code.
func realExitError(t *testing.T, code int) error {
	t.Helper()
	err := exec.Command("sh", "-c", fmt.Sprintf("exit %d", code)).Run()
	if err == nil {
		t.Fatalf("expected exit error for code %d", code)
	}
	return err
}

func TestRcloneSync_ExitCodePropagation(t *testing.T) {
	runner := &fakeRunner{err: realExitError(t, 7)}

	r := NewRclone(testConfig(), nil, testLogger(t), "rclone")
	r.runner = runner

	_, err := r.Sync(context.Background())
	if err == nil {
		t.Fatal("Sync() = nil, want error")
	}

	var exitErr *ExitError
	if !errors.As(err, &exitErr) {
		t.Fatalf("error type = %T, want *ExitError", err)
	}
	if exitErr.Code != 7 {
		t.Errorf("exit code = %d, want 7", exitErr.Code)
	}
}

func TestRcloneSync_NonExitFailureMapsToOne(t *testing.T) {
	runner := &fakeRunner{err: errors.New("executable file not found")}

	r := NewRclone(testConfig(), nil, testLogger(t), "rclone")
	r.runner = runner

	_, err := r.Sync(context.Background())

	var exitErr *ExitError
	if !errors.As(err, &exitErr) {
		t.Fatalf("error type = %T, want *ExitError", err)
	}
	if exitErr.Code != 1 {
		t.Errorf("exit code = %d, want 1", exitErr.Code)
	}
}

func TestRcloneProbe(t *testing.T) {
	runner := &fakeRunner{}

	r := NewRclone(testConfig(), nil, testLogger(t), "rclone")
	r.runner = runner

	if err := r.Probe(context.Background()); err != nil {
		t.Fatalf("Probe() error = %v", err)
	}

	if len(runner.calls) != 1 {
		t.Fatalf("calls = %d, want 1", len(runner.calls))
	}
	call := strings.Join(runner.calls[0], " ")
	if !strings.Contains(call, "lsd B2:bucket/photos") {
		t.Errorf("probe call = %q, want lsd against dest", call)
	}
	if !strings.Contains(call, "--max-depth 1") {
		t.Errorf("probe call = %q, want --max-depth 1", call)
	}
}
