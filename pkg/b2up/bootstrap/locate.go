package bootstrap

import (
	"fmt"
	"io/fs"
	"path/filepath"
	"runtime"
	"strings"
)

// locateExecutable finds the first file named after the tool within the
// extracted tree, searching depth-first.
func locateExecutable(root, tool string) (string, error) {
	want := strings.ToLower(tool)

	var found string
	err := filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() {
			return nil
		}

		name := strings.ToLower(d.Name())
		if name == want || (runtime.GOOS == "windows" && name == want+".exe") {
			found = path
			return fs.SkipAll
		}

		return nil
	})
	if err != nil {
		return "", fmt.Errorf("searching extracted tree: %w", err)
	}

	if found == "" {
		return "", fmt.Errorf("executable %q not found after extraction", tool)
	}

	return found, nil
}
