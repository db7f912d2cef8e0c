package storage

import "context"

// Record is one stored chunk: its id, embedding vector and text.
type Record struct {
	ID     string    // Chunk sequence index as a string
	Text   string    // Chunk text content
	Vector []float32 // Embedding, uniform dimension within a collection
}

// Match is a record returned by a similarity query.
type Match struct {
	ID    string
	Text  string
	Score float64 // Cosine similarity, higher is closer
}

// Collection is a named set of records. Records are appended during a build
// and only read afterwards.
type Collection interface {
	Name() string

	// Count returns the number of stored records, 0 if the collection does not exist yet.
	Count(ctx context.Context) (int, error)

	// Add stores records. Records with an existing id replace the stored one.
	Add(ctx context.Context, records []Record) error

	// Query returns up to limit records ordered by decreasing similarity to vector.
	Query(ctx context.Context, vector []float32, limit int) ([]Match, error)
}

// Store opens collections by name.
type Store interface {
	OpenCollection(ctx context.Context, name string) (Collection, error)
	Health(ctx context.Context) error
	Close() error
}

// DefaultCollectionName is used when no collection name is configured.
const DefaultCollectionName = "my_collection"
