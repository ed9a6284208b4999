package usecase

import (
	"context"
	"os"
	"path/filepath"
	"time"

	"github.com/m-mizutani/ctxlog"
)

// UploadJanitor removes stale files from the clip upload directory. Uploaded
// clips are kept after processing so redeliveries can re-read them; the
// janitor reaps them once they outlive the TTL.
type UploadJanitor struct {
	dir      string
	ttl      time.Duration
	interval time.Duration
}

// NewUploadJanitor creates a janitor for dir removing files older than ttl,
// sweeping every interval.
func NewUploadJanitor(dir string, ttl, interval time.Duration) *UploadJanitor {
	return &UploadJanitor{dir: dir, ttl: ttl, interval: interval}
}

// Run sweeps periodically until ctx is done
func (j *UploadJanitor) Run(ctx context.Context) {
	ticker := time.NewTicker(j.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			j.Sweep(ctx)
		}
	}
}

// Sweep removes files older than the TTL and returns how many were removed
func (j *UploadJanitor) Sweep(ctx context.Context) int {
	logger := ctxlog.From(ctx)

	entries, err := os.ReadDir(j.dir)
	if err != nil {
		logger.Warn("failed to read upload dir", "dir", j.dir, "error", err)
		return 0
	}

	cutoff := time.Now().Add(-j.ttl)
	removed := 0
	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		info, err := entry.Info()
		if err != nil {
			continue
		}
		if info.ModTime().After(cutoff) {
			continue
		}
		path := filepath.Join(j.dir, entry.Name())
		if err := os.Remove(path); err != nil {
			logger.Warn("failed to remove stale upload", "path", path, "error", err)
			continue
		}
		removed++
		logger.Debug("removed stale upload", "path", path)
	}
	return removed
}
