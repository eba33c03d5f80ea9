package bootstrap

import (
	"context"
	"crypto/tls"
	"fmt"
	"io"
	"net/http"
	"os"
	"path"
	"path/filepath"
	"time"
)

// httpClient returns the configured client, defaulting to one that
// refuses pre-1.2 TLS.
func (b *Bootstrap) httpClient() *http.Client {
	if b.client != nil {
		return b.client
	}
	return &http.Client{
		Timeout: 5 * time.Minute,
		Transport: &http.Transport{
			TLSClientConfig: &tls.Config{MinVersion: tls.VersionTLS12},
		},
	}
}

// download fetches the archive to a temp file and returns its path.
// The filename keeps the URL's base name so the extractor can pick the
// format by suffix.
func (b *Bootstrap) download(ctx context.Context) (string, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, b.DownloadURL, nil)
	if err != nil {
		return "", err
	}

	resp, err := b.httpClient().Do(req)
	if err != nil {
		return "", err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("unexpected status %s", resp.Status)
	}

	dir, err := os.MkdirTemp("", "b2up-download-*")
	if err != nil {
		return "", err
	}

	dest := filepath.Join(dir, path.Base(req.URL.Path))
	out, err := os.Create(dest)
	if err != nil {
		os.RemoveAll(dir)
		return "", err
	}

	if _, err := io.Copy(out, resp.Body); err != nil {
		out.Close()
		os.RemoveAll(dir)
		return "", err
	}

	if err := out.Close(); err != nil {
		os.RemoveAll(dir)
		return "", err
	}

	return dest, nil
}
