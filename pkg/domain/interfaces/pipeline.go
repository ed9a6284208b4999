package interfaces

import (
	"context"

	"github.com/clipline/clipline/pkg/domain/model"
	"github.com/clipline/clipline/pkg/domain/types"
)

// Extractor converts a ChangeEvent into normalized text content
type Extractor interface {
	Extract(ctx context.Context, event *model.ChangeEvent) (*model.ExtractedContent, error)
}

// Enricher produces a summary and tags for extracted content
type Enricher interface {
	Enrich(ctx context.Context, content *model.ExtractedContent) (*model.EnrichedItem, error)
}

// Sink delivers an enriched item to one destination
type Sink interface {
	// ID returns the sink identifier used in delivery records
	ID() types.SinkID

	// Deliver sends the item and returns the sink's receipt
	Deliver(ctx context.Context, item *model.EnrichedItem) (string, error)
}

// DeliveryStore persists delivery records. It is the single source of truth
// for dedup; writes are insert-if-absent keyed by (hash, sink).
type DeliveryStore interface {
	// InsertIfAbsent writes rec unless a record for (rec.Hash, rec.SinkID)
	// already exists. Returns true when the record was inserted.
	InsertIfAbsent(ctx context.Context, rec *model.DeliveryRecord) (bool, error)

	// ListMissingSinks returns the subset of sinks with no record for hash
	ListMissingSinks(ctx context.Context, hash types.ContentHash, sinks []types.SinkID) ([]types.SinkID, error)

	// Close releases store resources
	Close() error
}

// Gate bounds concurrency and call rate toward one external dependency.
// Acquire blocks until a slot is admitted, then returns a release function.
type Gate interface {
	Acquire(ctx context.Context, key string) (func(), error)
}
