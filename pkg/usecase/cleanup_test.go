package usecase_test

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/m-mizutani/gt"

	"github.com/clipline/clipline/pkg/usecase"
)

func TestUploadJanitor_Sweep(t *testing.T) {
	dir := t.TempDir()

	stale := filepath.Join(dir, "aabbccdd_old.html")
	gt.NoError(t, os.WriteFile(stale, []byte("old"), 0600))
	gt.NoError(t, os.Chtimes(stale, time.Now().Add(-2*time.Hour), time.Now().Add(-2*time.Hour)))

	fresh := filepath.Join(dir, "eeff0011_new.html")
	gt.NoError(t, os.WriteFile(fresh, []byte("new"), 0600))

	gt.NoError(t, os.Mkdir(filepath.Join(dir, "subdir"), 0700))

	janitor := usecase.NewUploadJanitor(dir, time.Hour, time.Minute)
	removed := janitor.Sweep(context.Background())

	gt.Equal(t, removed, 1)

	_, err := os.Stat(stale)
	gt.True(t, os.IsNotExist(err))
	gt.R1(os.Stat(fresh)).NoError(t)
}

func TestUploadJanitor_MissingDir(t *testing.T) {
	janitor := usecase.NewUploadJanitor(filepath.Join(t.TempDir(), "nope"), time.Hour, time.Minute)
	gt.Equal(t, janitor.Sweep(context.Background()), 0)
}
