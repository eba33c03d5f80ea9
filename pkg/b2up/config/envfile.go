package config

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"
	"strings"
)

// ErrNotExist is returned by LoadRecord when the config file is missing.
var ErrNotExist = errors.New("config file does not exist")

// Record is the flat key-value settings mapping persisted between runs.
type Record map[string]string

// envHeader is written at the top of every saved config file.
const envHeader = `# b2up configuration
# One KEY=VALUE per line. Lines starting with '#' are comments.
# Values may be wrapped in single or double quotes.
`

// LoadRecord parses a .env-style file into a Record and exports every
// parsed key into the process environment so child processes inherit it.
// A missing file returns ErrNotExist.
func LoadRecord(path string) (Record, error) {
	f, err := os.Open(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, fmt.Errorf("%w: %s", ErrNotExist, path)
		}
		return nil, fmt.Errorf("opening config file: %w", err)
	}
	defer f.Close()

	rec, err := parseEnv(f)
	if err != nil {
		return nil, fmt.Errorf("parsing %s: %w", path, err)
	}

	for k, v := range rec {
		if err := os.Setenv(k, v); err != nil {
			return nil, fmt.Errorf("exporting %s: %w", k, err)
		}
	}

	return rec, nil
}

// parseEnv reads KEY=VALUE lines. Blank lines, '#' comments, and lines
// without a separator after at least one key character are skipped.
func parseEnv(r io.Reader) (Record, error) {
	rec := make(Record)

	scanner := bufio.NewScanner(r)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}

		eq := strings.Index(line, "=")
		if eq < 1 {
			continue
		}

		key := strings.TrimSpace(line[:eq])
		if key == "" {
			continue
		}

		rec[key] = unquote(strings.TrimSpace(line[eq+1:]))
	}

	if err := scanner.Err(); err != nil {
		return nil, err
	}

	return rec, nil
}

// unquote strips exactly one matching pair of surrounding single or
// double quotes. Inner content is preserved verbatim.
func unquote(v string) string {
	if len(v) < 2 {
		return v
	}
	first, last := v[0], v[len(v)-1]
	if first == last && (first == '"' || first == '\'') {
		return v[1 : len(v)-1]
	}
	return v
}

// SaveRecord serializes the record sorted by key, preceded by the header
// comment block. The parent directory is created if absent and the file
// is replaced atomically via a temp file and rename.
func SaveRecord(path string, rec Record) error {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("creating config directory: %w", err)
	}

	keys := make([]string, 0, len(rec))
	for k := range rec {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	var b strings.Builder
	b.WriteString(envHeader)
	for _, k := range keys {
		b.WriteString(k)
		b.WriteByte('=')
		b.WriteString(quoteIfNeeded(rec[k]))
		b.WriteByte('\n')
	}

	tmp := path + ".tmp"
	if err := os.WriteFile(tmp, []byte(b.String()), 0o600); err != nil {
		return fmt.Errorf("writing config file: %w", err)
	}

	if err := os.Rename(tmp, path); err != nil {
		_ = os.Remove(tmp)
		return fmt.Errorf("replacing config file: %w", err)
	}

	return nil
}

// quoteIfNeeded wraps values containing whitespace in double quotes so
// they round-trip through unquote. Values that already begin and end
// with a matching quote pair get the same protective wrap, otherwise
// unquote would strip a pair that belongs to the value on the next
// load.
func quoteIfNeeded(v string) string {
	if strings.ContainsAny(v, " \t") {
		return `"` + v + `"`
	}
	if len(v) >= 2 {
		first, last := v[0], v[len(v)-1]
		if first == last && (first == '"' || first == '\'') {
			return `"` + v + `"`
		}
	}
	return v
}
