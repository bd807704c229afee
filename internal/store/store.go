// Package store is the pebble-backed ledger state of the standalone node.
package store

import (
	"io"
	"path/filepath"

	"github.com/cockroachdb/pebble"
	"github.com/juju/errors"
)

// Store owns the pebble database.
type Store struct {
	db *pebble.DB
}

// Open opens or creates the database in dir.
func Open(dir string) (*Store, error) {
	opts := &pebble.Options{
		MemTableSize:          64 << 20,
		L0CompactionThreshold: 4,
		L0StopWritesThreshold: 12,
	}
	db, err := pebble.Open(filepath.Clean(dir), opts)
	if err != nil {
		return nil, errors.Annotatef(err, "pebble open %s", dir)
	}
	return &Store{db: db}, nil
}

func (s *Store) Close() error { return s.db.Close() }

// Begin starts a write transaction. Reads through the transaction see its own
// uncommitted writes.
func (s *Store) Begin() *Tx {
	return &Tx{batch: s.db.NewIndexedBatch()}
}

// Snapshot returns a read-only view of the committed state.
func (s *Store) Snapshot() *Snapshot {
	return &Snapshot{snap: s.db.NewSnapshot()}
}

// Tx is an atomic group of writes.
type Tx struct {
	batch *pebble.Batch
	done  bool
}

// GetState returns nil, nil for an absent key.
func (t *Tx) GetState(key string) ([]byte, error) {
	return get(t.batch, key)
}

func (t *Tx) PutState(key string, value []byte) error {
	if t.done {
		return errors.New("transaction already finished")
	}
	return t.batch.Set([]byte(key), value, nil)
}

// Commit applies every write durably. The Tx cannot be used afterwards.
func (t *Tx) Commit() error {
	if t.done {
		return errors.New("transaction already finished")
	}
	t.done = true
	defer t.batch.Close()
	if err := t.batch.Commit(pebble.Sync); err != nil {
		return errors.Annotate(err, "pebble commit")
	}
	return nil
}

// Discard drops the writes. It is safe to call after Commit.
func (t *Tx) Discard() {
	if t.done {
		return
	}
	t.done = true
	_ = t.batch.Close()
}

// Snapshot is a consistent read-only view.
type Snapshot struct {
	snap *pebble.Snapshot
}

func (s *Snapshot) GetState(key string) ([]byte, error) {
	return get(s.snap, key)
}

// PutState always fails; snapshots are read-only.
func (s *Snapshot) PutState(key string, _ []byte) error {
	return errors.Errorf("cannot write %s to a read-only snapshot", key)
}

func (s *Snapshot) Close() error { return s.snap.Close() }

type reader interface {
	Get(key []byte) ([]byte, io.Closer, error)
}

func get(r reader, key string) ([]byte, error) {
	v, closer, err := r.Get([]byte(key))
	if errors.Is(err, pebble.ErrNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, errors.Annotatef(err, "pebble get %s", key)
	}
	defer closer.Close()
	return append([]byte(nil), v...), nil
}
