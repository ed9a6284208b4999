package async

import (
	"context"
	"runtime/debug"

	"github.com/m-mizutani/ctxlog"
)

// Dispatch runs handler in a new goroutine on a detached context. The
// handler survives cancellation of ctx; panics are recovered and logged,
// as are returned errors. Used for fire-and-forget work triggered by HTTP
// requests (clip processing, webhook fan-in).
func Dispatch(ctx context.Context, handler func(ctx context.Context) error) {
	newCtx := Detach(ctx)

	go func() {
		defer func() {
			if r := recover(); r != nil {
				ctxlog.From(newCtx).Error("panic in async handler",
					"recover", r,
					"stack", string(debug.Stack()))
			}
		}()

		if err := handler(newCtx); err != nil {
			ctxlog.From(newCtx).Error("error in async handler", "error", err)
		}
	}()
}

// Detach returns a background context that preserves the ctxlog logger of
// ctx but not its cancellation. In-flight sink and LLM attempts run on a
// detached context so shutdown does not abort them mid-write.
func Detach(ctx context.Context) context.Context {
	return ctxlog.With(context.Background(), ctxlog.From(ctx))
}
