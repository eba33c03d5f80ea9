// Package engine implements the sync backends: an rclone engine that
// shells out to the external tool, and a native engine that uploads
// through the Backblaze B2 client library. The two keep deliberately
// divergent failure semantics: rclone's aggregate exit code is
// authoritative, while the native engine continues past per-file
// failures and reports them in the summary.
package engine

import (
	"context"
	"fmt"
)

// Summary aggregates the outcome of one sync.
type Summary struct {
	Uploaded int
	Skipped  int
	Excluded int
	Failed   int
	Bytes    int64
}

// Engine is one sync backend.
type Engine interface {
	// Name identifies the backend in logs and history records.
	Name() string

	// Probe checks connectivity to the destination. Probe failures
	// are warnings, never fatal.
	Probe(ctx context.Context) error

	// Sync copies the source tree to the destination.
	Sync(ctx context.Context) (Summary, error)
}

// ExitError carries the process exit code a failed run must produce.
// rclone's own nonzero exit code is passed through verbatim; every
// other failure maps to code 1.
type ExitError struct {
	Code int
	Err  error
}

func (e *ExitError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("exit code %d: %v", e.Code, e.Err)
	}
	return fmt.Sprintf("exit code %d", e.Code)
}

func (e *ExitError) Unwrap() error {
	return e.Err
}

// Exit wraps err with the given exit code.
func Exit(code int, err error) *ExitError {
	return &ExitError{Code: code, Err: err}
}
