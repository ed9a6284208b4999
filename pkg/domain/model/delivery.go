package model

import (
	"time"

	"github.com/clipline/clipline/pkg/domain/types"
)

// DeliveryRecord is the persisted fact that content was delivered to a sink.
// At most one record exists per (Hash, SinkID) pair; the store enforces this
// with insert-if-absent semantics. Never mutated after the write.
type DeliveryRecord struct {
	Hash        types.ContentHash
	SinkID      types.SinkID
	DeliveredAt time.Time
	Receipt     string // Opaque receipt returned by the sink (page ID, message ID)
}

// SinkTask is the per-sink unit of work for one enriched item. Owned
// exclusively by the publisher worker handling that sink.
type SinkTask struct {
	Item    *EnrichedItem
	SinkID  types.SinkID
	Attempt int
}
