package schedule

import (
	"fmt"
	"strings"

	"github.com/jamesainslie/b2up/pkg/b2up/logging"
)

// Registrar drives the host task scheduler.
type Registrar struct {
	Log *logging.Logger

	// exec runs schtasks and returns its combined output; overridden
	// in tests.
	exec func(args []string) (string, error)
}

// NewRegistrar returns a Registrar bound to the host scheduler.
func NewRegistrar(log *logging.Logger) *Registrar {
	return &Registrar{Log: log, exec: runSchtasks}
}

// Register creates the task, replacing any existing task of the same
// name. Removal errors for a task that does not exist are ignored.
func (r *Registrar) Register(spec Spec, action string) error {
	if out, err := r.exec(spec.DeleteArgs()); err != nil {
		if !isNotFound(out, err) {
			r.Log.Warn("removing existing task failed", "task", spec.TaskName, "error", err)
		}
	} else {
		r.Log.Debug("removed existing task", "task", spec.TaskName)
	}

	out, err := r.exec(spec.CreateArgs(action))
	if err != nil {
		return fmt.Errorf("registering task %s: %w (%s)", spec.TaskName, err, strings.TrimSpace(out))
	}

	r.Log.Info("scheduled task registered", "task", spec.TaskName, "frequency", spec.Frequency)
	return nil
}

// Unregister removes the task.
func (r *Registrar) Unregister(spec Spec) error {
	out, err := r.exec(spec.DeleteArgs())
	if err != nil {
		if isNotFound(out, err) {
			return nil
		}
		return fmt.Errorf("removing task %s: %w (%s)", spec.TaskName, err, strings.TrimSpace(out))
	}
	return nil
}

// Status returns the scheduler's description of the task.
func (r *Registrar) Status(spec Spec) (string, error) {
	out, err := r.exec(spec.QueryArgs())
	if err != nil {
		return "", fmt.Errorf("querying task %s: %w", spec.TaskName, err)
	}
	return strings.TrimSpace(out), nil
}

// isNotFound reports whether schtasks failed because the task does not
// exist.
func isNotFound(out string, err error) bool {
	text := strings.ToLower(out + " " + err.Error())
	return strings.Contains(text, "cannot find") || strings.Contains(text, "does not exist")
}
