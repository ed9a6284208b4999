package interfaces

import (
	"context"

	"github.com/clipline/clipline/pkg/domain/model"
)

// Source produces ChangeEvents into the pipeline's intake queue.
// Run blocks until ctx is cancelled or the source fails fatally; transient
// errors are logged and the source keeps running.
type Source interface {
	// Name returns a stable identifier for logging
	Name() string

	// Run emits events into out until ctx is done
	Run(ctx context.Context, out chan<- *model.ChangeEvent) error
}

// Fetcher retrieves raw payload bytes for a ChangeEvent's PayloadRef
type Fetcher interface {
	// Schemes returns the payload ref schemes this fetcher handles (e.g. "file", "https")
	Schemes() []string

	// Fetch returns the raw bytes behind ref
	Fetch(ctx context.Context, ref string) ([]byte, error)
}
