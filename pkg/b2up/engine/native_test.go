package engine

import (
	"bytes"
	"context"
	"errors"
	"io"
	"os"
	"path/filepath"
	"sync"
	"testing"

	"github.com/jamesainslie/b2up/pkg/b2up/config"
	"github.com/jamesainslie/b2up/pkg/b2up/state"
)

// fakeBucket records uploaded objects in memory.
type fakeBucket struct {
	mu      sync.Mutex
	objects map[string][]byte

	// failNames causes writes to the named objects to fail on close.
	failNames map[string]bool
}

func newFakeBucket() *fakeBucket {
	return &fakeBucket{objects: make(map[string][]byte), failNames: make(map[string]bool)}
}

func (b *fakeBucket) NewWriter(ctx context.Context, name string) io.WriteCloser {
	return &fakeWriter{bucket: b, name: name}
}

func (b *fakeBucket) get(name string) ([]byte, bool) {
	b.mu.Lock()
	defer b.mu.Unlock()
	data, ok := b.objects[name]
	return data, ok
}

func (b *fakeBucket) count() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return len(b.objects)
}

type fakeWriter struct {
	bucket *fakeBucket
	name   string
	buf    bytes.Buffer
}

func (w *fakeWriter) Write(p []byte) (int, error) {
	return w.buf.Write(p)
}

func (w *fakeWriter) Close() error {
	w.bucket.mu.Lock()
	defer w.bucket.mu.Unlock()
	if w.bucket.failNames[w.name] {
		return errors.New("simulated upload failure")
	}
	w.bucket.objects[w.name] = w.buf.Bytes()
	return nil
}

// writeTree creates files under dir; keys are slash-separated paths.
func writeTree(t *testing.T, dir string, files map[string]string) {
	t.Helper()
	for rel, content := range files {
		path := filepath.Join(dir, filepath.FromSlash(rel))
		if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
			t.Fatalf("mkdir: %v", err)
		}
		if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
			t.Fatalf("writing %s: %v", rel, err)
		}
	}
}

func nativeConfig(source string) *config.Config {
	cfg := config.Default()
	cfg.Engine = config.EngineB2
	cfg.Source = source
	cfg.Bucket = "test-bucket"
	cfg.KeyID = "key-id"
	cfg.AppKey = "app-key"
	cfg.Transfers = 2
	return cfg
}

func newTestNative(t *testing.T, cfg *config.Config, matcher *config.Matcher, bucket *fakeBucket) *Native {
	t.Helper()
	n := NewNative(cfg, matcher, testLogger(t))
	n.dial = func(ctx context.Context, keyID, appKey, name string) (Bucket, error) {
		return bucket, nil
	}
	return n
}

func TestNativeSync_UploadsAllFiles(t *testing.T) {
	source := t.TempDir()
	writeTree(t, source, map[string]string{
		"a.txt":       "alpha",
		"sub/b.txt":   "bravo",
		"sub/c/d.bin": "delta",
	})

	bucket := newFakeBucket()
	n := newTestNative(t, nativeConfig(source), nil, bucket)

	summary, err := n.Sync(context.Background())
	if err != nil {
		t.Fatalf("Sync() error = %v", err)
	}

	if summary.Uploaded != 3 || summary.Failed != 0 {
		t.Errorf("summary = %+v, want 3 uploaded, 0 failed", summary)
	}
	if bucket.count() != 3 {
		t.Errorf("uploaded objects = %d, want 3", bucket.count())
	}

	// Relative paths are preserved slash-separated.
	data, ok := bucket.get("sub/b.txt")
	if !ok {
		t.Fatal("sub/b.txt not uploaded under its relative path")
	}
	if string(data) != "bravo" {
		t.Errorf("content = %q, want %q", data, "bravo")
	}
}

func TestNativeSync_ExclusionsNeverUploaded(t *testing.T) {
	source := t.TempDir()
	writeTree(t, source, map[string]string{
		"keep.txt":  "keep",
		"junk.TMP":  "junk",
		"other.log": "log",
	})

	matcher, err := config.NewMatcher([]string{".tmp", ".log"})
	if err != nil {
		t.Fatalf("NewMatcher() error = %v", err)
	}

	bucket := newFakeBucket()
	n := newTestNative(t, nativeConfig(source), matcher, bucket)

	summary, err := n.Sync(context.Background())
	if err != nil {
		t.Fatalf("Sync() error = %v", err)
	}

	if summary.Uploaded != 1 || summary.Excluded != 2 {
		t.Errorf("summary = %+v, want 1 uploaded, 2 excluded", summary)
	}
	if _, ok := bucket.get("junk.TMP"); ok {
		t.Error("excluded extension was uploaded")
	}
	if _, ok := bucket.get("keep.txt"); !ok {
		t.Error("non-excluded file was not uploaded")
	}
}

func TestNativeSync_ContinuesPastFileFailure(t *testing.T) {
	source := t.TempDir()
	writeTree(t, source, map[string]string{
		"ok1.txt":  "1",
		"bad.txt":  "2",
		"ok2.txt":  "3",
	})

	bucket := newFakeBucket()
	bucket.failNames["bad.txt"] = true

	n := newTestNative(t, nativeConfig(source), nil, bucket)

	summary, err := n.Sync(context.Background())
	if err == nil {
		t.Fatal("Sync() = nil, want aggregate failure error")
	}

	var exitErr *ExitError
	if !errors.As(err, &exitErr) || exitErr.Code != 1 {
		t.Errorf("error = %v, want ExitError code 1", err)
	}

	if summary.Uploaded != 2 || summary.Failed != 1 {
		t.Errorf("summary = %+v, want 2 uploaded, 1 failed", summary)
	}
}

func TestNativeSync_SkipUnchanged(t *testing.T) {
	source := t.TempDir()
	writeTree(t, source, map[string]string{
		"a.txt": "alpha",
		"b.txt": "bravo",
		"c.txt": "charlie",
	})

	store, err := state.Open(t.TempDir())
	if err != nil {
		t.Fatalf("opening state store: %v", err)
	}
	defer store.Close()

	cfg := nativeConfig(source)
	cfg.SkipUnchanged = true

	bucket := newFakeBucket()
	n := newTestNative(t, cfg, nil, bucket)
	n.Store = store

	first, err := n.Sync(context.Background())
	if err != nil {
		t.Fatalf("first Sync() error = %v", err)
	}
	if first.Uploaded != 3 || first.Skipped != 0 {
		t.Fatalf("first summary = %+v, want 3 uploaded", first)
	}

	second, err := n.Sync(context.Background())
	if err != nil {
		t.Fatalf("second Sync() error = %v", err)
	}
	if second.Uploaded != 0 || second.Skipped != 3 {
		t.Errorf("second summary = %+v, want 0 uploaded, 3 skipped", second)
	}
}

func TestNativeSync_DryRun(t *testing.T) {
	source := t.TempDir()
	writeTree(t, source, map[string]string{"a.txt": "alpha"})

	bucket := newFakeBucket()
	n := newTestNative(t, nativeConfig(source), nil, bucket)
	n.DryRun = true

	summary, err := n.Sync(context.Background())
	if err != nil {
		t.Fatalf("Sync() error = %v", err)
	}
	if summary.Uploaded != 1 {
		t.Errorf("dry-run summary = %+v, want 1 counted", summary)
	}
	if bucket.count() != 0 {
		t.Error("dry run must not upload")
	}
}

func TestCollectFiles(t *testing.T) {
	source := t.TempDir()
	writeTree(t, source, map[string]string{
		"a.txt":     "a",
		"sub/b.txt": "bb",
	})

	files, err := collectFiles(source)
	if err != nil {
		t.Fatalf("collectFiles() error = %v", err)
	}
	if len(files) != 2 {
		t.Fatalf("len(files) = %d, want 2", len(files))
	}

	byRel := make(map[string]fileEntry)
	for _, f := range files {
		byRel[f.rel] = f
	}
	if f, ok := byRel["sub/b.txt"]; !ok {
		t.Error("sub/b.txt missing from walk")
	} else if f.size != 2 {
		t.Errorf("size = %d, want 2", f.size)
	}
}
