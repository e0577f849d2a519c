package sink

import (
	"context"
	"encoding/json"
	"fmt"

	badger "github.com/dgraph-io/badger/v4"

	"github.com/githarvest/githarvest/pkg/model"
)

func init() {
	Register("badger", newBadgerSink)
}

// badgerSink stores each record as a JSON value in an embedded badger
// database, keyed by commit hash under a per-project prefix. An empty
// directory selects an in-memory database.
type badgerSink struct {
	db     *badger.DB
	prefix []byte
}

func newBadgerSink(cfg Config) (Sink, error) {
	opts := badger.DefaultOptions(cfg.BadgerDir).WithLogger(nil)
	if cfg.BadgerDir == "" {
		opts = opts.WithInMemory(true)
	}

	db, err := badger.Open(opts)
	if err != nil {
		return nil, fmt.Errorf("open badger at %q: %w", cfg.BadgerDir, err)
	}

	return &badgerSink{
		db:     db,
		prefix: []byte("githarvest/" + cfg.ProjectName + "/commit/"),
	}, nil
}

// Name returns the backend name.
func (s *badgerSink) Name() string {
	return "badger"
}

// AddCommit stores the record under its hash key.
func (s *badgerSink) AddCommit(_ context.Context, record *model.CommitRecord) error {
	data, err := json.Marshal(record)
	if err != nil {
		return fmt.Errorf("encode commit %s: %w", record.Hash, err)
	}

	key := append(append([]byte(nil), s.prefix...), record.Hash...)

	err = s.db.Update(func(txn *badger.Txn) error {
		return txn.Set(key, data)
	})
	if err != nil {
		return fmt.Errorf("store commit %s: %w", record.Hash, err)
	}

	return nil
}

// Close flushes and closes the database.
func (s *badgerSink) Close() error {
	if err := s.db.Close(); err != nil {
		return fmt.Errorf("close badger: %w", err)
	}

	return nil
}
