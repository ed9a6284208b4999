package fs_test

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/m-mizutani/gt"

	"github.com/clipline/clipline/pkg/domain/model"
	"github.com/clipline/clipline/pkg/infra/fs"
)

func TestNewWatcher_ValidatesRoots(t *testing.T) {
	_, err := fs.NewWatcher("fs", nil, 0)
	gt.Error(t, err)

	_, err = fs.NewWatcher("fs", []string{filepath.Join(t.TempDir(), "missing")}, 0)
	gt.Error(t, err)

	w, err := fs.NewWatcher("clips", []string{t.TempDir()}, 0)
	gt.NoError(t, err)
	gt.Equal(t, w.Name(), "fs:clips")
}

func collectEvents(t *testing.T, out <-chan *model.ChangeEvent, wait time.Duration) []*model.ChangeEvent {
	t.Helper()
	var events []*model.ChangeEvent
	timer := time.NewTimer(wait)
	defer timer.Stop()
	for {
		select {
		case ev := <-out:
			events = append(events, ev)
		case <-timer.C:
			return events
		}
	}
}

func TestWatcher_DebouncesRepeatedWrites(t *testing.T) {
	dir := t.TempDir()
	w := gt.R1(fs.NewWatcher("fs", []string{dir}, 100*time.Millisecond)).NoError(t)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	out := make(chan *model.ChangeEvent, 16)
	go func() {
		_ = w.Run(ctx, out)
	}()

	// Give the watcher time to subscribe
	time.Sleep(100 * time.Millisecond)

	path := filepath.Join(dir, "clip.html")
	for i := 0; i < 5; i++ {
		gt.NoError(t, os.WriteFile(path, []byte("<html>rev</html>"), 0600))
		time.Sleep(10 * time.Millisecond)
	}

	events := collectEvents(t, out, time.Second)
	gt.Array(t, events).Length(1)
	gt.Equal(t, events[0].PayloadRef, "file://"+path)
	gt.Equal(t, events[0].ExternalRef, path)
}

func TestWatcher_SeparateFilesSeparateEvents(t *testing.T) {
	dir := t.TempDir()
	w := gt.R1(fs.NewWatcher("fs", []string{dir}, 50*time.Millisecond)).NoError(t)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	out := make(chan *model.ChangeEvent, 16)
	go func() {
		_ = w.Run(ctx, out)
	}()
	time.Sleep(100 * time.Millisecond)

	gt.NoError(t, os.WriteFile(filepath.Join(dir, "a.html"), []byte("a"), 0600))
	gt.NoError(t, os.WriteFile(filepath.Join(dir, "b.html"), []byte("b"), 0600))

	events := collectEvents(t, out, time.Second)
	gt.Array(t, events).Length(2)
}

func TestWatcher_PicksUpNewSubdirectories(t *testing.T) {
	dir := t.TempDir()
	w := gt.R1(fs.NewWatcher("fs", []string{dir}, 50*time.Millisecond)).NoError(t)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	out := make(chan *model.ChangeEvent, 16)
	go func() {
		_ = w.Run(ctx, out)
	}()
	time.Sleep(100 * time.Millisecond)

	sub := filepath.Join(dir, "nested")
	gt.NoError(t, os.Mkdir(sub, 0700))
	time.Sleep(100 * time.Millisecond)
	gt.NoError(t, os.WriteFile(filepath.Join(sub, "c.html"), []byte("c"), 0600))

	events := collectEvents(t, out, time.Second)
	gt.Array(t, events).Length(1)
	gt.Equal(t, events[0].PayloadRef, "file://"+filepath.Join(sub, "c.html"))
}
