package storage

import (
	"context"
	"errors"
	"fmt"
	"os"

	"github.com/dgraph-io/badger/v4"
	"github.com/timshannon/badgerhold/v4"
)

// badgerRecord is the persisted form of a Record.
type badgerRecord struct {
	Key        string // collection/id
	Collection string `badgerhold:"index"`
	ChunkID    string
	Text       string
	Vector     []float32
}

// BadgerStore persists collections in a local Badger database so a restarted
// process can reuse the embeddings of a previous build. Similarity is computed
// in process over the stored vectors.
type BadgerStore struct {
	store *badgerhold.Store
	path  string
}

// NewBadgerStore opens (or creates) a Badger database at path.
// An empty path opens an in-memory database, which is useful for tests.
func NewBadgerStore(path string) (*BadgerStore, error) {
	options := badgerhold.DefaultOptions
	options.Logger = nil

	if path == "" {
		options.InMemory = true
	} else {
		if err := os.MkdirAll(path, 0o755); err != nil {
			return nil, fmt.Errorf("failed to create database directory: %w", err)
		}
		options.Dir = path
		options.ValueDir = path
	}

	store, err := badgerhold.Open(options)
	if err != nil {
		return nil, fmt.Errorf("failed to open badger database: %w", err)
	}

	return &BadgerStore{store: store, path: path}, nil
}

// OpenCollection returns a handle to the named collection. Collections exist
// implicitly once they hold at least one record.
func (s *BadgerStore) OpenCollection(_ context.Context, name string) (Collection, error) {
	return &badgerCollection{store: s.store, name: name}, nil
}

// Health checks that the database is open.
func (s *BadgerStore) Health(context.Context) error {
	if s.store == nil || s.store.Badger().IsClosed() {
		return fmt.Errorf("badger database is closed")
	}
	return nil
}

// Close closes the database.
func (s *BadgerStore) Close() error {
	if s.store != nil {
		return s.store.Close()
	}
	return nil
}

type badgerCollection struct {
	store *badgerhold.Store
	name  string
}

func (c *badgerCollection) Name() string { return c.name }

func (c *badgerCollection) key(id string) string {
	return c.name + "/" + id
}

func (c *badgerCollection) Count(context.Context) (int, error) {
	n, err := c.store.Count(&badgerRecord{}, badgerhold.Where("Collection").Eq(c.name))
	if err != nil {
		return 0, fmt.Errorf("failed to count records: %w", err)
	}
	return int(n), nil
}

// dimension returns the vector size of any stored record, 0 when empty.
func (c *badgerCollection) dimension() (int, error) {
	var existing []badgerRecord
	err := c.store.Find(&existing, badgerhold.Where("Collection").Eq(c.name).Limit(1))
	if err != nil && !errors.Is(err, badgerhold.ErrNotFound) {
		return 0, fmt.Errorf("failed to read collection dimension: %w", err)
	}
	if len(existing) == 0 {
		return 0, nil
	}
	return len(existing[0].Vector), nil
}

func (c *badgerCollection) Add(_ context.Context, records []Record) error {
	if len(records) == 0 {
		return nil
	}

	dim, err := c.dimension()
	if err != nil {
		return err
	}
	if _, err := validateRecords(records, dim); err != nil {
		return err
	}

	// One transaction per batch so a failed build leaves nothing behind.
	err = c.store.Badger().Update(func(tx *badger.Txn) error {
		for _, r := range records {
			rec := &badgerRecord{
				Key:        c.key(r.ID),
				Collection: c.name,
				ChunkID:    r.ID,
				Text:       r.Text,
				Vector:     r.Vector,
			}
			if err := c.store.TxUpsert(tx, rec.Key, rec); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return fmt.Errorf("failed to store %d records: %w", len(records), err)
	}
	return nil
}

func (c *badgerCollection) Query(_ context.Context, vector []float32, limit int) ([]Match, error) {
	if limit <= 0 {
		return []Match{}, nil
	}

	var stored []badgerRecord
	err := c.store.Find(&stored, badgerhold.Where("Collection").Eq(c.name))
	if err != nil && !errors.Is(err, badgerhold.ErrNotFound) {
		return nil, fmt.Errorf("failed to load records: %w", err)
	}
	if len(stored) == 0 {
		return []Match{}, nil
	}
	if err := checkQuery(vector, len(stored[0].Vector)); err != nil {
		return nil, err
	}

	records := make([]Record, len(stored))
	for i, s := range stored {
		records[i] = Record{ID: s.ChunkID, Text: s.Text, Vector: s.Vector}
	}
	return rankByCosine(records, vector, limit), nil
}
