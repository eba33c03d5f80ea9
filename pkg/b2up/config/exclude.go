package config

import (
	"bufio"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/gobwas/glob"
)

// Matcher decides whether a relative path is excluded from a backup.
// Plain entries match file extensions case-insensitively; entries
// containing glob metacharacters match the slash-separated relative
// path as a whole.
type Matcher struct {
	entries []string
	exts    map[string]struct{}
	globs   []glob.Glob
}

// LoadExclusions reads the exclusion list at path. A missing file
// yields a matcher that excludes nothing.
func LoadExclusions(path string) (*Matcher, error) {
	f, err := os.Open(path)
	if err != nil {
		if os.IsNotExist(err) {
			return &Matcher{exts: make(map[string]struct{})}, nil
		}
		return nil, fmt.Errorf("opening exclusion file: %w", err)
	}
	defer f.Close()

	var entries []string
	scanner := bufio.NewScanner(f)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		entries = append(entries, line)
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("reading exclusion file: %w", err)
	}

	return NewMatcher(entries)
}

// NewMatcher builds a Matcher from raw exclusion entries.
func NewMatcher(entries []string) (*Matcher, error) {
	m := &Matcher{
		entries: entries,
		exts:    make(map[string]struct{}),
	}

	for _, e := range entries {
		if strings.ContainsAny(e, "*?[{") {
			g, err := glob.Compile(e, '/')
			if err != nil {
				return nil, fmt.Errorf("compiling exclusion pattern %q: %w", e, err)
			}
			m.globs = append(m.globs, g)
			continue
		}
		m.exts[strings.ToLower(e)] = struct{}{}
	}

	return m, nil
}

// Excluded reports whether the slash-separated relative path matches
// the exclusion list.
func (m *Matcher) Excluded(rel string) bool {
	if ext := strings.ToLower(filepath.Ext(rel)); ext != "" {
		if _, ok := m.exts[ext]; ok {
			return true
		}
	}

	for _, g := range m.globs {
		if g.Match(rel) {
			return true
		}
	}

	return false
}

// Entries returns the raw exclusion entries, in file order.
func (m *Matcher) Entries() []string {
	return m.entries
}

// Empty reports whether the matcher excludes nothing.
func (m *Matcher) Empty() bool {
	return len(m.exts) == 0 && len(m.globs) == 0
}

// SaveExclusions writes one entry per line to path, replacing any
// existing file. An empty entry list deletes the file instead.
func SaveExclusions(path string, entries []string) error {
	if len(entries) == 0 {
		if err := os.Remove(path); err != nil && !os.IsNotExist(err) {
			return fmt.Errorf("removing exclusion file: %w", err)
		}
		return nil
	}

	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("creating exclusion directory: %w", err)
	}

	var b strings.Builder
	for _, e := range entries {
		b.WriteString(strings.TrimSpace(e))
		b.WriteByte('\n')
	}

	if err := os.WriteFile(path, []byte(b.String()), 0o644); err != nil {
		return fmt.Errorf("writing exclusion file: %w", err)
	}

	return nil
}
