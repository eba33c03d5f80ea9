package engine

import (
	"context"
	"fmt"
	"io"
	"os"
	"sync"

	"github.com/Backblaze/blazer/b2"
	"github.com/dustin/go-humanize"

	"github.com/jamesainslie/b2up/pkg/b2up/config"
	"github.com/jamesainslie/b2up/pkg/b2up/logging"
	"github.com/jamesainslie/b2up/pkg/b2up/state"
)

// Bucket is the subset of the B2 API the native engine needs.
type Bucket interface {
	// NewWriter opens a writer for the named object.
	NewWriter(ctx context.Context, name string) io.WriteCloser
}

// Dialer authenticates against B2 and resolves the bucket.
type Dialer func(ctx context.Context, keyID, appKey, bucket string) (Bucket, error)

// blazerBucket adapts *b2.Bucket to the Bucket interface.
type blazerBucket struct {
	bkt *b2.Bucket
}

func (b blazerBucket) NewWriter(ctx context.Context, name string) io.WriteCloser {
	return b.bkt.Object(name).NewWriter(ctx)
}

// dialBlazer is the production Dialer.
func dialBlazer(ctx context.Context, keyID, appKey, bucket string) (Bucket, error) {
	client, err := b2.NewClient(ctx, keyID, appKey)
	if err != nil {
		return nil, fmt.Errorf("authenticating with B2: %w", err)
	}

	bkt, err := client.Bucket(ctx, bucket)
	if err != nil {
		return nil, fmt.Errorf("resolving bucket %s: %w", bucket, err)
	}

	return blazerBucket{bkt: bkt}, nil
}

// Native uploads files directly through the B2 client library. A
// single file's failure is logged and the run continues; Failed > 0
// maps to exit code 1 after all files are attempted.
type Native struct {
	cfg     *config.Config
	matcher *config.Matcher
	log     *logging.Logger

	// Store caches upload fingerprints for SKIP_UNCHANGED; nil
	// disables skipping.
	Store *state.Store

	// DryRun counts what would upload without contacting B2.
	DryRun bool

	dial Dialer
}

// NewNative builds the native B2 engine.
func NewNative(cfg *config.Config, matcher *config.Matcher, log *logging.Logger) *Native {
	return &Native{
		cfg:     cfg,
		matcher: matcher,
		log:     log.WithPrefix("b2"),
		dial:    dialBlazer,
	}
}

func (n *Native) Name() string { return config.EngineB2 }

// Probe authenticates and resolves the bucket.
func (n *Native) Probe(ctx context.Context) error {
	_, err := n.dial(ctx, n.cfg.KeyID, n.cfg.AppKey, n.cfg.Bucket)
	return err
}

// Sync walks the source tree and uploads every non-excluded file,
// preserving the slash-separated relative path as the object name.
func (n *Native) Sync(ctx context.Context) (Summary, error) {
	files, err := collectFiles(n.cfg.Source)
	if err != nil {
		return Summary{}, Exit(1, err)
	}

	if n.cfg.Versioning {
		n.log.Debug("versioning is delegated to the bucket's lifecycle rules")
	}

	var summary Summary

	// Filter exclusions and unchanged files before dialing.
	var queue []fileEntry
	for _, f := range files {
		if n.matcher != nil && n.matcher.Excluded(f.rel) {
			n.log.Debug("excluded", "file", f.rel)
			summary.Excluded++
			continue
		}
		if n.skipUnchanged(f) {
			n.log.Debug("unchanged", "file", f.rel)
			summary.Skipped++
			continue
		}
		queue = append(queue, f)
	}

	if n.DryRun {
		for _, f := range queue {
			n.log.Info("would upload", "file", f.rel, "size", humanize.Bytes(uint64(f.size)))
			summary.Uploaded++
			summary.Bytes += f.size
		}
		return summary, nil
	}

	if len(queue) == 0 {
		n.log.Info("nothing to upload",
			"excluded", summary.Excluded, "skipped", summary.Skipped)
		return summary, nil
	}

	bucket, err := n.dial(ctx, n.cfg.KeyID, n.cfg.AppKey, n.cfg.Bucket)
	if err != nil {
		return summary, Exit(1, err)
	}

	n.log.Info("uploading", "files", len(queue), "bucket", n.cfg.Bucket,
		"transfers", n.cfg.Transfers)

	var (
		mu sync.Mutex
		wg sync.WaitGroup
	)
	uploaded := make(map[string]string, len(queue))
	jobs := make(chan fileEntry)

	workers := n.cfg.Transfers
	if workers < 1 {
		workers = 1
	}

	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for f := range jobs {
				if err := n.upload(ctx, bucket, f); err != nil {
					n.log.Error("upload failed", "file", f.rel, "error", err)
					mu.Lock()
					summary.Failed++
					mu.Unlock()
					continue
				}

				n.log.Info("uploaded", "file", f.rel, "size", humanize.Bytes(uint64(f.size)))
				mu.Lock()
				summary.Uploaded++
				summary.Bytes += f.size
				uploaded[f.rel] = f.fingerprint()
				mu.Unlock()
			}
		}()
	}

	for _, f := range queue {
		jobs <- f
	}
	close(jobs)
	wg.Wait()

	n.recordFingerprints(uploaded)

	n.log.Info("upload summary",
		"uploaded", summary.Uploaded,
		"skipped", summary.Skipped,
		"excluded", summary.Excluded,
		"failed", summary.Failed,
		"bytes", humanize.Bytes(uint64(summary.Bytes)))

	if summary.Failed > 0 {
		return summary, Exit(1, fmt.Errorf("%d of %d uploads failed", summary.Failed, len(queue)))
	}

	return summary, nil
}

// upload streams one file into the bucket.
func (n *Native) upload(ctx context.Context, bucket Bucket, f fileEntry) error {
	in, err := os.Open(f.path)
	if err != nil {
		return err
	}
	defer in.Close()

	w := bucket.NewWriter(ctx, f.rel)
	if _, err := io.Copy(w, in); err != nil {
		_ = w.Close()
		return err
	}

	return w.Close()
}

// skipUnchanged reports whether the file's fingerprint matches the
// state cache. Only active when SKIP_UNCHANGED is on and a store is
// available.
func (n *Native) skipUnchanged(f fileEntry) bool {
	if !n.cfg.SkipUnchanged || n.Store == nil {
		return false
	}
	fp, ok := n.Store.Fingerprint(f.rel)
	return ok && fp == f.fingerprint()
}

// recordFingerprints writes back fingerprints of successful uploads.
func (n *Native) recordFingerprints(uploaded map[string]string) {
	if !n.cfg.SkipUnchanged || n.Store == nil || len(uploaded) == 0 {
		return
	}
	if err := n.Store.SetFingerprints(uploaded); err != nil {
		n.log.Warn("recording upload fingerprints failed", "error", err)
	}
}
