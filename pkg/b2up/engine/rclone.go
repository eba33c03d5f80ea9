package engine

import (
	"context"
	"errors"
	"io"
	"os/exec"
	"strconv"
	"strings"

	"github.com/jamesainslie/b2up/pkg/b2up/config"
	"github.com/jamesainslie/b2up/pkg/b2up/logging"
)

// CommandRunner executes an external command with captured output.
// The indirection keeps exit-code handling testable without rclone.
type CommandRunner interface {
	Run(ctx context.Context, stdout, stderr io.Writer, name string, args ...string) error
}

// execRunner is the production CommandRunner.
type execRunner struct{}

func (execRunner) Run(ctx context.Context, stdout, stderr io.Writer, name string, args ...string) error {
	cmd := exec.CommandContext(ctx, name, args...)
	cmd.Stdout = stdout
	cmd.Stderr = stderr
	return cmd.Run()
}

// Rclone shells out to the external rclone binary.
type Rclone struct {
	cfg     *config.Config
	matcher *config.Matcher
	log     *logging.Logger

	// Exe is the rclone executable path resolved by the bootstrap.
	Exe string

	// DryRun passes --dry-run through to rclone.
	DryRun bool

	runner CommandRunner
}

// NewRclone builds the rclone engine.
func NewRclone(cfg *config.Config, matcher *config.Matcher, log *logging.Logger, exe string) *Rclone {
	return &Rclone{
		cfg:     cfg,
		matcher: matcher,
		log:     log.WithPrefix("rclone"),
		Exe:     exe,
		runner:  execRunner{},
	}
}

func (r *Rclone) Name() string { return config.EngineRclone }

// syncArgs derives the full rclone command line from the config.
func (r *Rclone) syncArgs() []string {
	args := []string{
		"sync", r.cfg.Source, r.cfg.Dest,
		"--transfers", strconv.Itoa(r.cfg.Transfers),
		"--checkers", strconv.Itoa(r.cfg.Checkers),
		"--log-level", rcloneLogLevel(r.cfg.LogLevel),
	}

	if r.cfg.FastList {
		args = append(args, "--fast-list")
	}
	if !r.cfg.Versioning {
		args = append(args, "--b2-hard-delete")
	}
	if r.DryRun {
		args = append(args, "--dry-run")
	}

	for _, f := range excludeFilters(r.matcher) {
		args = append(args, "--exclude", f)
	}

	args = append(args, r.cfg.ExtraArgs...)
	return args
}

// excludeFilters translates exclusion entries into rclone filters:
// extension entries become "*<ext>", glob entries pass through.
func excludeFilters(m *config.Matcher) []string {
	if m == nil {
		return nil
	}

	var filters []string
	for _, e := range m.Entries() {
		if strings.ContainsAny(e, "*?[{") {
			filters = append(filters, e)
			continue
		}
		filters = append(filters, "*"+e)
	}
	return filters
}

// rcloneLogLevel maps b2up levels onto rclone's.
func rcloneLogLevel(level string) string {
	switch strings.ToLower(level) {
	case "debug":
		return "DEBUG"
	case "warn", "warning":
		return "NOTICE"
	case "error":
		return "ERROR"
	default:
		return "INFO"
	}
}

// Probe lists the destination's top level to confirm the remote is
// reachable and configured.
func (r *Rclone) Probe(ctx context.Context) error {
	var stderr strings.Builder
	err := r.runner.Run(ctx, io.Discard, &stderr, r.Exe, "lsd", r.cfg.Dest, "--max-depth", "1")
	if err != nil {
		msg := strings.TrimSpace(stderr.String())
		if msg != "" {
			return errors.New(msg)
		}
		return err
	}
	return nil
}

// Sync runs rclone sync, streaming its output into the log sink. A
// nonzero rclone exit code becomes an ExitError with that same code.
func (r *Rclone) Sync(ctx context.Context) (Summary, error) {
	args := r.syncArgs()
	r.log.Info("starting sync", "source", r.cfg.Source, "dest", r.cfg.Dest)
	r.log.Debug("rclone invocation", "exe", r.Exe, "args", strings.Join(args, " "))

	out := r.log.Writer()
	err := r.runner.Run(ctx, out, out, r.Exe, args...)
	if err != nil {
		var exitErr *exec.ExitError
		if errors.As(err, &exitErr) {
			return Summary{}, Exit(exitErr.ExitCode(), err)
		}
		return Summary{}, Exit(1, err)
	}

	r.log.Info("sync finished")
	return Summary{}, nil
}
