package interfaces

import (
	"context"

	"github.com/clipline/clipline/pkg/domain/model"
)

// EventSubmitter accepts externally produced ChangeEvents (HTTP uploads,
// webhooks) into the pipeline intake. Implemented by the pipeline use case.
type EventSubmitter interface {
	// Submit enqueues the event, blocking while the intake queue is full
	Submit(ctx context.Context, event *model.ChangeEvent) error
}
