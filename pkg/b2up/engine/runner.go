package engine

import (
	"context"
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/jamesainslie/b2up/pkg/b2up/config"
	"github.com/jamesainslie/b2up/pkg/b2up/history"
	"github.com/jamesainslie/b2up/pkg/b2up/logging"
)

// Notifier fires a desktop notification; nil disables notifications.
type Notifier func(title, body string)

// Runner wraps an Engine with the shared pre-flight sequence: source
// validation, the best-effort destination probe, history recording,
// and notifications.
type Runner struct {
	Cfg        *config.Config
	Engine     Engine
	Log        *logging.Logger
	HistoryDir string
	Notify     Notifier
}

// Run executes one backup. The returned error is an *ExitError whose
// code the process must exit with.
func (r *Runner) Run(ctx context.Context) error {
	start := time.Now()

	summary, runErr := r.execute(ctx)

	r.record(start, summary, runErr)
	r.announce(summary, runErr)

	if runErr != nil {
		r.Log.Failure(runErr)
		return runErr
	}

	return nil
}

// execute is the state machine proper: validate source, probe, sync.
func (r *Runner) execute(ctx context.Context) (Summary, error) {
	info, err := os.Stat(r.Cfg.Source)
	if err != nil {
		if os.IsNotExist(err) {
			return Summary{}, Exit(1, fmt.Errorf("source path %s does not exist", r.Cfg.Source))
		}
		return Summary{}, Exit(1, fmt.Errorf("checking source path: %w", err))
	}
	if !info.IsDir() {
		return Summary{}, Exit(1, fmt.Errorf("source path %s is not a directory", r.Cfg.Source))
	}

	if r.Cfg.ProbeDest {
		if err := r.Engine.Probe(ctx); err != nil {
			r.Log.Warn("destination probe failed, continuing", "error", err)
		}
	}

	summary, err := r.Engine.Sync(ctx)
	if err != nil {
		var exitErr *ExitError
		if !errors.As(err, &exitErr) {
			err = Exit(1, err)
		}
		return summary, err
	}

	return summary, nil
}

// record stamps the run into the history directory regardless of
// outcome. History failures are logged, never fatal.
func (r *Runner) record(start time.Time, summary Summary, runErr error) {
	if r.HistoryDir == "" {
		return
	}

	rec := history.Record{
		Start:    start,
		End:      time.Now(),
		Engine:   r.Engine.Name(),
		Source:   r.Cfg.Source,
		Dest:     r.destination(),
		Uploaded: summary.Uploaded,
		Skipped:  summary.Skipped,
		Excluded: summary.Excluded,
		Failed:   summary.Failed,
		Bytes:    summary.Bytes,
	}

	if runErr != nil {
		rec.Error = runErr.Error()
		var exitErr *ExitError
		if errors.As(runErr, &exitErr) {
			rec.ExitCode = exitErr.Code
		} else {
			rec.ExitCode = 1
		}
	}

	if _, err := history.Append(r.HistoryDir, rec); err != nil {
		r.Log.Warn("recording run history failed", "error", err)
		return
	}

	if err := history.Prune(r.HistoryDir, r.Cfg.HistoryKeep); err != nil {
		r.Log.Warn("pruning run history failed", "error", err)
	}
}

func (r *Runner) announce(summary Summary, runErr error) {
	if r.Notify == nil {
		return
	}

	if runErr != nil {
		r.Notify("Backup failed", runErr.Error())
		return
	}

	body := fmt.Sprintf("%d uploaded, %d skipped, %d failed",
		summary.Uploaded, summary.Skipped, summary.Failed)
	r.Notify("Backup complete", body)
}

// destination names the remote for history records.
func (r *Runner) destination() string {
	if r.Cfg.Engine == config.EngineB2 {
		return "b2://" + r.Cfg.Bucket
	}
	return r.Cfg.Dest
}
