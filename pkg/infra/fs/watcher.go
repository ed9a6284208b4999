package fs

import (
	"context"
	"io/fs"
	"os"
	"path/filepath"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/google/uuid"
	"github.com/m-mizutani/ctxlog"
	"github.com/m-mizutani/goerr/v2"

	"github.com/clipline/clipline/pkg/domain/interfaces"
	"github.com/clipline/clipline/pkg/domain/model"
	"github.com/clipline/clipline/pkg/domain/types"
)

// DefaultDebounce is the window in which repeated notifications for the
// same path collapse into one event
const DefaultDebounce = 500 * time.Millisecond

// Watcher emits a ChangeEvent for files created or modified under the
// configured roots. Bursts of notifications on one path inside the debounce
// window produce a single event.
type Watcher struct {
	sourceID types.SourceID
	roots    []string
	debounce time.Duration
}

var _ interfaces.Source = (*Watcher)(nil)

// NewWatcher validates the roots and creates a filesystem watcher. A missing
// root is a configuration error and fails construction.
func NewWatcher(sourceID types.SourceID, roots []string, debounce time.Duration) (*Watcher, error) {
	if len(roots) == 0 {
		return nil, goerr.New("at least one watch root is required", goerr.T(types.TagConfig))
	}
	for _, root := range roots {
		info, err := os.Stat(root)
		if err != nil {
			return nil, goerr.Wrap(err, "watch root is not accessible",
				goerr.T(types.TagConfig), goerr.V("root", root))
		}
		if !info.IsDir() {
			return nil, goerr.New("watch root is not a directory",
				goerr.T(types.TagConfig), goerr.V("root", root))
		}
	}
	if debounce <= 0 {
		debounce = DefaultDebounce
	}

	return &Watcher{
		sourceID: sourceID,
		roots:    roots,
		debounce: debounce,
	}, nil
}

// Name implements interfaces.Source
func (w *Watcher) Name() string {
	return "fs:" + string(w.sourceID)
}

// Run watches the roots until ctx is done. Watch errors are logged and the
// watcher keeps running; only setup failures are returned.
func (w *Watcher) Run(ctx context.Context, out chan<- *model.ChangeEvent) error {
	logger := ctxlog.From(ctx)

	fw, err := fsnotify.NewWatcher()
	if err != nil {
		return goerr.Wrap(err, "failed to create fsnotify watcher", goerr.T(types.TagConfig))
	}
	defer fw.Close()

	for _, root := range w.roots {
		if err := addRecursive(fw, root); err != nil {
			return goerr.Wrap(err, "failed to watch root",
				goerr.T(types.TagConfig), goerr.V("root", root))
		}
	}

	logger.Info("filesystem watcher started",
		"source", w.sourceID,
		"roots", w.roots,
		"debounce", w.debounce,
	)

	// Paths seen within the debounce window, keyed by path with the time
	// the pending event becomes due.
	pending := make(map[string]time.Time)
	timer := time.NewTimer(w.debounce)
	timer.Stop()

	for {
		select {
		case <-ctx.Done():
			return nil

		case ev, ok := <-fw.Events:
			if !ok {
				return nil
			}
			if !ev.Op.Has(fsnotify.Create) && !ev.Op.Has(fsnotify.Write) {
				continue
			}
			if ev.Op.Has(fsnotify.Create) {
				if info, err := os.Stat(ev.Name); err == nil && info.IsDir() {
					// New subdirectory: subscribe and skip emit
					if err := addRecursive(fw, ev.Name); err != nil {
						logger.Warn("failed to watch new directory", "path", ev.Name, "error", err)
					}
					continue
				}
			}
			if _, waiting := pending[ev.Name]; !waiting {
				pending[ev.Name] = time.Now().Add(w.debounce)
			}
			timer.Reset(w.debounce)

		case err, ok := <-fw.Errors:
			if !ok {
				return nil
			}
			logger.Warn("filesystem watch error", "source", w.sourceID, "error", err)

		case now := <-timer.C:
			var next time.Time
			for path, due := range pending {
				if due.After(now) {
					if next.IsZero() || due.Before(next) {
						next = due
					}
					continue
				}
				delete(pending, path)
				event := &model.ChangeEvent{
					ID:          uuid.NewString(),
					SourceID:    w.sourceID,
					ExternalRef: path,
					DetectedAt:  time.Now(),
					PayloadRef:  "file://" + path,
				}
				select {
				case <-ctx.Done():
					return nil
				case out <- event:
				}
			}
			if !next.IsZero() {
				timer.Reset(time.Until(next))
			}
		}
	}
}

func addRecursive(fw *fsnotify.Watcher, root string) error {
	return filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() {
			return fw.Add(path)
		}
		return nil
	})
}
