package logging

import (
	"fmt"
	"os"
	"time"
)

// Rotate deletes the log file at path when its last-write time is older
// than retentionDays days before now. The file is recreated empty on
// the next append. It reports whether a deletion happened. A missing
// file or a non-positive retention is a no-op.
func Rotate(path string, retentionDays int) (bool, error) {
	return rotateAt(path, retentionDays, time.Now())
}

func rotateAt(path string, retentionDays int, now time.Time) (bool, error) {
	if retentionDays <= 0 {
		return false, nil
	}

	info, err := os.Stat(path)
	if err != nil {
		if os.IsNotExist(err) {
			return false, nil
		}
		return false, fmt.Errorf("stat log file: %w", err)
	}

	cutoff := now.AddDate(0, 0, -retentionDays)
	if !info.ModTime().Before(cutoff) {
		return false, nil
	}

	if err := os.Remove(path); err != nil {
		return false, fmt.Errorf("removing expired log file: %w", err)
	}

	return true, nil
}
