package engine

import (
	"fmt"
	"io/fs"
	"path/filepath"
	"sync"
	"time"

	"github.com/charlievieth/fastwalk"
)

// fileEntry is one regular file found under the source tree.
type fileEntry struct {
	// rel is the slash-separated path relative to the source root;
	// it doubles as the remote object name.
	rel     string
	path    string
	size    int64
	modTime time.Time
}

// fingerprint is the change-detection value stored per file.
func (f fileEntry) fingerprint() string {
	return fmt.Sprintf("%d|%d", f.size, f.modTime.UnixNano())
}

// collectFiles walks root and returns every regular file. Symlinks are
// not followed. The walk is parallel; the append is mutex-guarded.
func collectFiles(root string) ([]fileEntry, error) {
	var (
		mu    sync.Mutex
		files []fileEntry
	)

	conf := fastwalk.Config{Follow: false}
	err := fastwalk.Walk(&conf, root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if !d.Type().IsRegular() {
			return nil
		}

		info, err := d.Info()
		if err != nil {
			return err
		}

		rel, err := filepath.Rel(root, path)
		if err != nil {
			return err
		}

		mu.Lock()
		files = append(files, fileEntry{
			rel:     filepath.ToSlash(rel),
			path:    path,
			size:    info.Size(),
			modTime: info.ModTime(),
		})
		mu.Unlock()

		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("walking source tree: %w", err)
	}

	return files, nil
}
