package memory

import (
	"context"
	"sync"

	"github.com/clipline/clipline/pkg/domain/interfaces"
	"github.com/clipline/clipline/pkg/domain/model"
	"github.com/clipline/clipline/pkg/domain/types"
)

type key struct {
	hash types.ContentHash
	sink types.SinkID
}

// Store is an in-memory DeliveryStore for tests and ephemeral runs
type Store struct {
	mu      sync.Mutex
	records map[key]*model.DeliveryRecord
}

var _ interfaces.DeliveryStore = (*Store)(nil)

// NewStore creates an empty in-memory store
func NewStore() *Store {
	return &Store{records: make(map[key]*model.DeliveryRecord)}
}

// InsertIfAbsent implements interfaces.DeliveryStore
func (s *Store) InsertIfAbsent(_ context.Context, rec *model.DeliveryRecord) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	k := key{hash: rec.Hash, sink: rec.SinkID}
	if _, exists := s.records[k]; exists {
		return false, nil
	}
	s.records[k] = rec
	return true, nil
}

// ListMissingSinks implements interfaces.DeliveryStore
func (s *Store) ListMissingSinks(_ context.Context, hash types.ContentHash, sinks []types.SinkID) ([]types.SinkID, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	var missing []types.SinkID
	for _, sinkID := range sinks {
		if _, exists := s.records[key{hash: hash, sink: sinkID}]; !exists {
			missing = append(missing, sinkID)
		}
	}
	return missing, nil
}

// Close implements interfaces.DeliveryStore
func (s *Store) Close() error {
	return nil
}

// Records returns a snapshot of all stored records, for assertions
func (s *Store) Records() []*model.DeliveryRecord {
	s.mu.Lock()
	defer s.mu.Unlock()

	out := make([]*model.DeliveryRecord, 0, len(s.records))
	for _, rec := range s.records {
		out = append(out, rec)
	}
	return out
}
