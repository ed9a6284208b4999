package sqlite

import (
	"context"
	"database/sql"
	"os"
	"path/filepath"

	"github.com/m-mizutani/goerr/v2"
	_ "modernc.org/sqlite" // SQLite driver

	"github.com/clipline/clipline/pkg/domain/interfaces"
	"github.com/clipline/clipline/pkg/domain/model"
	"github.com/clipline/clipline/pkg/domain/types"
)

const schema = `
CREATE TABLE IF NOT EXISTS delivery_records (
	content_hash TEXT NOT NULL,
	sink_id      TEXT NOT NULL,
	delivered_at TIMESTAMP NOT NULL,
	receipt      TEXT NOT NULL,
	PRIMARY KEY (content_hash, sink_id)
);
`

// Store persists delivery records in a local SQLite database. The primary
// key on (content_hash, sink_id) makes concurrent insert-if-absent writes
// from publisher workers commutative.
type Store struct {
	db   *sql.DB
	path string
}

var _ interfaces.DeliveryStore = (*Store)(nil)

// NewStore opens (or creates) the database at path. The parent directory is
// created when missing.
func NewStore(path string) (*Store, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0700); err != nil {
		return nil, goerr.Wrap(err, "failed to create data directory",
			goerr.T(types.TagConfig), goerr.V("path", path))
	}

	// WAL for concurrent readers, busy timeout for writer contention
	db, err := sql.Open("sqlite", path+"?_pragma=journal_mode(WAL)&_pragma=busy_timeout(5000)")
	if err != nil {
		return nil, goerr.Wrap(err, "failed to open delivery store",
			goerr.T(types.TagConfig), goerr.V("path", path))
	}

	if _, err := db.Exec(schema); err != nil {
		db.Close()
		return nil, goerr.Wrap(err, "failed to initialize delivery store schema",
			goerr.T(types.TagConfig))
	}

	return &Store{db: db, path: path}, nil
}

// Close closes the database
func (s *Store) Close() error {
	return s.db.Close()
}

// Path returns the database file path
func (s *Store) Path() string {
	return s.path
}

// InsertIfAbsent writes rec unless the (hash, sink) pair already has a
// record. Returns true when the row was inserted.
func (s *Store) InsertIfAbsent(ctx context.Context, rec *model.DeliveryRecord) (bool, error) {
	res, err := s.db.ExecContext(ctx,
		`INSERT INTO delivery_records (content_hash, sink_id, delivered_at, receipt)
		 VALUES (?, ?, ?, ?)
		 ON CONFLICT (content_hash, sink_id) DO NOTHING`,
		string(rec.Hash), string(rec.SinkID), rec.DeliveredAt.UTC(), rec.Receipt,
	)
	if err != nil {
		return false, goerr.Wrap(err, "failed to insert delivery record",
			goerr.V("hash", rec.Hash), goerr.V("sink", rec.SinkID))
	}

	n, err := res.RowsAffected()
	if err != nil {
		return false, goerr.Wrap(err, "failed to read insert result")
	}
	return n == 1, nil
}

// ListMissingSinks returns the subset of sinks with no record for hash,
// preserving the input order.
func (s *Store) ListMissingSinks(ctx context.Context, hash types.ContentHash, sinks []types.SinkID) ([]types.SinkID, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT sink_id FROM delivery_records WHERE content_hash = ?`,
		string(hash),
	)
	if err != nil {
		return nil, goerr.Wrap(err, "failed to query delivery records",
			goerr.V("hash", hash))
	}
	defer rows.Close()

	delivered := make(map[types.SinkID]bool)
	for rows.Next() {
		var sinkID string
		if err := rows.Scan(&sinkID); err != nil {
			return nil, goerr.Wrap(err, "failed to scan delivery record")
		}
		delivered[types.SinkID(sinkID)] = true
	}
	if err := rows.Err(); err != nil {
		return nil, goerr.Wrap(err, "failed to iterate delivery records")
	}

	var missing []types.SinkID
	for _, sinkID := range sinks {
		if !delivered[sinkID] {
			missing = append(missing, sinkID)
		}
	}
	return missing, nil
}
