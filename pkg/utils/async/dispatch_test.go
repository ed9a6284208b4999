package async_test

import (
	"context"
	"errors"
	"log/slog"
	"sync"
	"testing"
	"time"

	"github.com/m-mizutani/ctxlog"
	"github.com/m-mizutani/gt"

	"github.com/clipline/clipline/pkg/utils/async"
)

func TestDispatch(t *testing.T) {
	t.Run("executes handler asynchronously", func(t *testing.T) {
		var wg sync.WaitGroup
		executed := false

		wg.Add(1)
		async.Dispatch(context.Background(), func(ctx context.Context) error {
			defer wg.Done()
			executed = true
			return nil
		})

		wg.Wait()
		gt.True(t, executed)
	})

	t.Run("handles errors without crashing", func(t *testing.T) {
		var wg sync.WaitGroup

		wg.Add(1)
		async.Dispatch(context.Background(), func(ctx context.Context) error {
			defer wg.Done()
			return errors.New("test error")
		})

		wg.Wait()
	})

	t.Run("recovers from panic", func(t *testing.T) {
		done := make(chan struct{}, 1)

		async.Dispatch(context.Background(), func(ctx context.Context) error {
			defer func() {
				done <- struct{}{}
			}()
			panic("test panic")
		})

		select {
		case <-done:
		case <-time.After(time.Second):
			t.Fatal("handler did not complete within timeout")
		}
	})

	t.Run("handler outlives cancelled parent", func(t *testing.T) {
		ctx, cancel := context.WithCancel(context.Background())

		var wg sync.WaitGroup
		wg.Add(1)
		async.Dispatch(ctx, func(newCtx context.Context) error {
			defer wg.Done()
			cancel()
			select {
			case <-newCtx.Done():
				t.Error("detached context was cancelled")
			default:
			}
			return nil
		})

		wg.Wait()
	})
}

func TestDetach(t *testing.T) {
	logger := slog.Default()
	ctx, cancel := context.WithCancel(context.Background())
	ctx = ctxlog.With(ctx, logger)

	detached := async.Detach(ctx)
	cancel()

	gt.NoError(t, detached.Err())
	gt.NotNil(t, ctxlog.From(detached))
}
