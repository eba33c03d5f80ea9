// Package logging provides the log sink for b2up. Loggers are
// constructed explicitly at the CLI edge and handed to each component;
// there is no process-wide logger state. Output is tee'd to the
// console and an append-mode log file with human-readable timestamps.
package logging

import (
	"bytes"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/charmbracelet/log"
)

// timeFormat is the timestamp prefix on every log line.
const timeFormat = "2006-01-02 15:04:05"

// FailureMarker is the delimited line written on every fatal path so
// log-monitoring tooling can detect failure by text match.
const FailureMarker = "==== Backup Failed ===="

// Options configures a Logger.
type Options struct {
	// Level is the minimum level (debug, info, warn, error).
	Level string

	// Path is the log file path. Empty disables file output.
	Path string

	// Quiet suppresses console output; the file still receives
	// everything.
	Quiet bool
}

// Logger writes timestamped lines to the console and the log file.
type Logger struct {
	*log.Logger
	file *os.File
	path string
}

// New constructs a Logger, creating the log file's directory if
// missing and opening the file in append mode.
func New(opts Options) (*Logger, error) {
	var writers []io.Writer
	if !opts.Quiet {
		writers = append(writers, os.Stderr)
	}

	var file *os.File
	if opts.Path != "" {
		if err := os.MkdirAll(filepath.Dir(opts.Path), 0o755); err != nil {
			return nil, fmt.Errorf("creating log directory: %w", err)
		}

		f, err := os.OpenFile(opts.Path, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0o644)
		if err != nil {
			return nil, fmt.Errorf("opening log file: %w", err)
		}
		file = f
		writers = append(writers, f)
	}

	var w io.Writer = io.Discard
	if len(writers) > 0 {
		w = io.MultiWriter(writers...)
	}

	logger := log.NewWithOptions(w, log.Options{
		Level:           parseLevel(opts.Level),
		ReportTimestamp: true,
		TimeFormat:      timeFormat,
	})

	return &Logger{Logger: logger, file: file, path: opts.Path}, nil
}

// WithPrefix returns a sub-logger for the named component sharing the
// same outputs.
func (l *Logger) WithPrefix(prefix string) *Logger {
	return &Logger{
		Logger: l.Logger.WithPrefix(prefix),
		file:   l.file,
		path:   l.path,
	}
}

// Writer returns an io.Writer that logs each line at info level. Used
// to stream external tool output into the sink.
func (l *Logger) Writer() io.Writer {
	return &lineWriter{logger: l.Logger}
}

// Path returns the log file path, or empty when file output is off.
func (l *Logger) Path() string {
	return l.path
}

// Failure logs the failure marker followed by the error.
func (l *Logger) Failure(err error) {
	l.Error(FailureMarker)
	l.Error("backup failed", "error", err)
}

// Close closes the underlying log file.
func (l *Logger) Close() error {
	if l.file == nil {
		return nil
	}
	return l.file.Close()
}

func parseLevel(s string) log.Level {
	switch strings.ToLower(s) {
	case "debug":
		return log.DebugLevel
	case "warn", "warning":
		return log.WarnLevel
	case "error":
		return log.ErrorLevel
	default:
		return log.InfoLevel
	}
}

// lineWriter splits writes into lines and forwards each to the logger.
type lineWriter struct {
	logger *log.Logger
	buf    []byte
}

func (w *lineWriter) Write(p []byte) (int, error) {
	w.buf = append(w.buf, p...)
	for {
		i := bytes.IndexByte(w.buf, '\n')
		if i < 0 {
			break
		}
		line := strings.TrimRight(string(w.buf[:i]), "\r")
		if line != "" {
			w.logger.Info(line)
		}
		w.buf = w.buf[i+1:]
	}
	return len(p), nil
}

// Timestamp formats t the way log lines are stamped.
func Timestamp(t time.Time) string {
	return t.Format(timeFormat)
}
