package storage

import (
	"context"
	"sync"
)

// MemoryStore keeps collections in process memory. Collections live as long
// as the store. Safe for concurrent use.
type MemoryStore struct {
	mu          sync.Mutex
	collections map[string]*memoryCollection
}

// NewMemoryStore creates an empty in-memory store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{collections: make(map[string]*memoryCollection)}
}

// OpenCollection returns the named collection, creating it if needed.
func (s *MemoryStore) OpenCollection(_ context.Context, name string) (Collection, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	c, ok := s.collections[name]
	if !ok {
		c = &memoryCollection{name: name, index: make(map[string]int)}
		s.collections[name] = c
	}
	return c, nil
}

// Health always succeeds for the in-memory store.
func (s *MemoryStore) Health(context.Context) error { return nil }

// Close drops all collections.
func (s *MemoryStore) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.collections = make(map[string]*memoryCollection)
	return nil
}

type memoryCollection struct {
	mu        sync.RWMutex
	name      string
	dimension int
	records   []Record
	index     map[string]int // id -> position in records
}

func (c *memoryCollection) Name() string { return c.name }

func (c *memoryCollection) Count(context.Context) (int, error) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.records), nil
}

func (c *memoryCollection) Add(_ context.Context, records []Record) error {
	if len(records) == 0 {
		return nil
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	dim, err := validateRecords(records, c.dimension)
	if err != nil {
		return err
	}
	c.dimension = dim

	for _, r := range records {
		r.Vector = append([]float32(nil), r.Vector...)
		if pos, ok := c.index[r.ID]; ok {
			c.records[pos] = r
			continue
		}
		c.index[r.ID] = len(c.records)
		c.records = append(c.records, r)
	}
	return nil
}

func (c *memoryCollection) Query(_ context.Context, vector []float32, limit int) ([]Match, error) {
	c.mu.RLock()
	defer c.mu.RUnlock()

	if len(c.records) == 0 || limit <= 0 {
		return []Match{}, nil
	}
	if err := checkQuery(vector, c.dimension); err != nil {
		return nil, err
	}
	return rankByCosine(c.records, vector, limit), nil
}
