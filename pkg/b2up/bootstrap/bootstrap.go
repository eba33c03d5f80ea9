// Package bootstrap ensures the external sync tool is present before a
// run, downloading and installing it when missing.
package bootstrap

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"os"
	"os/exec"
	"path/filepath"
	"runtime"

	"github.com/jamesainslie/b2up/pkg/b2up/logging"
)

// Bootstrap installs an external tool into InstallDir when it is not
// already present there or on the search path.
type Bootstrap struct {
	// ToolName is the executable name without extension, e.g. "rclone".
	ToolName string

	// InstallDir receives the installed executable.
	InstallDir string

	// DownloadURL points at a release archive containing the tool.
	DownloadURL string

	Log *logging.Logger

	// client overrides the HTTP client in tests.
	client *http.Client
}

// EnsureAvailable returns the path to a usable tool executable. It is
// idempotent: once installed, later calls find the tool and return
// without downloading or touching the search path again.
func (b *Bootstrap) EnsureAvailable(ctx context.Context) (string, error) {
	exe := b.ToolName
	if runtime.GOOS == "windows" {
		exe += ".exe"
	}

	installed := filepath.Join(b.InstallDir, exe)
	if _, err := os.Stat(installed); err == nil {
		b.Log.Debug("tool already installed", "path", installed)
		return installed, nil
	}

	if path, err := exec.LookPath(b.ToolName); err == nil {
		b.Log.Debug("tool found on search path", "path", path)
		return path, nil
	}

	b.Log.Info("tool not found, installing", "tool", b.ToolName, "dir", b.InstallDir)

	if err := b.install(ctx, installed); err != nil {
		return "", fmt.Errorf("installing %s: %w", b.ToolName, err)
	}

	if err := appendSearchPath(b.InstallDir); err != nil {
		return "", fmt.Errorf("updating search path: %w", err)
	}

	b.Log.Info("tool installed", "path", installed)
	return installed, nil
}

// install downloads the archive, extracts it, locates the executable,
// and copies it into place.
func (b *Bootstrap) install(ctx context.Context, dest string) error {
	if err := os.MkdirAll(b.InstallDir, 0o755); err != nil {
		return fmt.Errorf("creating install directory: %w", err)
	}

	archive, err := b.download(ctx)
	if err != nil {
		return fmt.Errorf("downloading %s: %w", b.DownloadURL, err)
	}
	defer os.RemoveAll(filepath.Dir(archive))

	extractDir, err := os.MkdirTemp("", "b2up-extract-*")
	if err != nil {
		return fmt.Errorf("creating extraction directory: %w", err)
	}
	defer os.RemoveAll(extractDir)

	if err := extractArchive(archive, extractDir); err != nil {
		return fmt.Errorf("extracting archive: %w", err)
	}

	located, err := locateExecutable(extractDir, b.ToolName)
	if err != nil {
		return err
	}

	if err := copyFile(located, dest); err != nil {
		return fmt.Errorf("copying executable: %w", err)
	}

	return os.Chmod(dest, 0o755)
}

// copyFile copies src to dst, replacing any existing file.
func copyFile(src, dst string) error {
	in, err := os.Open(src)
	if err != nil {
		return err
	}
	defer in.Close()

	out, err := os.Create(dst)
	if err != nil {
		return err
	}
	defer out.Close()

	if _, err := io.Copy(out, in); err != nil {
		return err
	}

	return out.Sync()
}
