package usecase

import (
	"context"

	"github.com/m-mizutani/goerr/v2"

	"github.com/clipline/clipline/pkg/domain/interfaces"
	"github.com/clipline/clipline/pkg/domain/types"
)

// Deduplicator decides whether content still needs processing. The delivery
// store is the single source of truth; there is no in-memory seen cache.
type Deduplicator struct {
	store interfaces.DeliveryStore
	sinks []types.SinkID
}

// NewDeduplicator creates a deduplicator over the enabled sinks
func NewDeduplicator(store interfaces.DeliveryStore, sinks []types.SinkID) *Deduplicator {
	return &Deduplicator{store: store, sinks: sinks}
}

// ShouldProcess returns the sinks still missing a delivery record for hash.
// An empty result means every enabled sink already received this content and
// the event can be skipped without re-enrichment.
func (d *Deduplicator) ShouldProcess(ctx context.Context, hash types.ContentHash) ([]types.SinkID, error) {
	missing, err := d.store.ListMissingSinks(ctx, hash, d.sinks)
	if err != nil {
		return nil, goerr.Wrap(err, "failed to query delivery records",
			goerr.V("hash", hash))
	}
	return missing, nil
}
