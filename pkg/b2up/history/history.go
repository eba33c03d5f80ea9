// Package history records the outcome of every backup run as one JSON
// file per run under a history directory.
package history

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/google/uuid"
)

// Record captures one completed run.
type Record struct {
	ID       string    `json:"id"`
	Start    time.Time `json:"start"`
	End      time.Time `json:"end"`
	Engine   string    `json:"engine"`
	Source   string    `json:"source"`
	Dest     string    `json:"dest"`
	Uploaded int       `json:"uploaded"`
	Skipped  int       `json:"skipped"`
	Excluded int       `json:"excluded"`
	Failed   int       `json:"failed"`
	Bytes    int64     `json:"bytes"`
	ExitCode int       `json:"exit_code"`
	Error    string    `json:"error,omitempty"`
}

// Append writes the record to dir, creating it if absent, and returns
// the generated record ID.
func Append(dir string, rec Record) (string, error) {
	if dir == "" {
		return "", errors.New("history directory cannot be empty")
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", fmt.Errorf("creating history directory: %w", err)
	}

	if rec.ID == "" {
		rec.ID = generateID(rec.Start)
	}

	data, err := json.MarshalIndent(rec, "", "  ")
	if err != nil {
		return "", fmt.Errorf("marshaling record: %w", err)
	}

	path := filepath.Join(dir, rec.ID+".json")
	tmp := path + ".tmp"
	if err := os.WriteFile(tmp, data, 0o644); err != nil {
		return "", fmt.Errorf("writing record: %w", err)
	}
	if err := os.Rename(tmp, path); err != nil {
		_ = os.Remove(tmp)
		return "", fmt.Errorf("renaming record: %w", err)
	}

	return rec.ID, nil
}

// List returns all records in dir sorted newest-first. Unreadable
// entries are skipped. A missing directory yields an empty list.
func List(dir string) ([]Record, error) {
	files, err := os.ReadDir(dir)
	if err != nil {
		if os.IsNotExist(err) {
			return []Record{}, nil
		}
		return nil, fmt.Errorf("reading history directory: %w", err)
	}

	records := make([]Record, 0, len(files))
	for _, f := range files {
		if f.IsDir() || !strings.HasSuffix(f.Name(), ".json") {
			continue
		}

		data, err := os.ReadFile(filepath.Join(dir, f.Name()))
		if err != nil {
			continue
		}

		var rec Record
		if err := json.Unmarshal(data, &rec); err != nil {
			continue
		}
		records = append(records, rec)
	}

	sort.Slice(records, func(i, j int) bool {
		return records[i].Start.After(records[j].Start)
	})

	return records, nil
}

// Prune deletes the oldest records beyond keep. keep <= 0 keeps
// everything.
func Prune(dir string, keep int) error {
	if keep <= 0 {
		return nil
	}

	records, err := List(dir)
	if err != nil {
		return err
	}
	if len(records) <= keep {
		return nil
	}

	for _, rec := range records[keep:] {
		path := filepath.Join(dir, rec.ID+".json")
		if err := os.Remove(path); err != nil && !os.IsNotExist(err) {
			return fmt.Errorf("pruning record %s: %w", rec.ID, err)
		}
	}

	return nil
}

// generateID creates an id like "20240615T103000-1a2b3c4d" that sorts
// chronologically by filename.
func generateID(start time.Time) string {
	if start.IsZero() {
		start = time.Now()
	}
	return fmt.Sprintf("%s-%s", start.UTC().Format("20060102T150405"), uuid.NewString()[:8])
}
