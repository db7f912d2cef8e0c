package storage

import (
	"context"
	"fmt"
	"slices"
	"sync/atomic"
	"time"

	"github.com/cenkalti/backoff/v4"
	"github.com/google/uuid"
	"github.com/qdrant/go-client/qdrant"
)

// vectorName is the named vector holding chunk embeddings.
const vectorName = "content"

// upsertBatchSize bounds the number of points per upsert request.
const upsertBatchSize = 100

// pointNamespace derives deterministic point UUIDs from collection and chunk id,
// so rebuilding the same document overwrites points instead of duplicating them.
var pointNamespace = uuid.MustParse("6f1c1a4e-2a4b-4d7e-9a55-3b0f6c2d9e10")

// QdrantStorage wraps the Qdrant client with connection management and health checks.
type QdrantStorage struct {
	client *qdrant.Client
	host   string
	port   int
}

// NewQdrantStorage creates a new Qdrant client with health validation.
// It performs health check with retry on startup and fails fast if Qdrant is unreachable.
func NewQdrantStorage(host string, port int) (*QdrantStorage, error) {
	// Create Qdrant client using gRPC
	client, err := qdrant.NewClient(&qdrant.Config{
		Host: host,
		Port: port,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create qdrant client: %w", err)
	}

	storage := &QdrantStorage{
		client: client,
		host:   host,
		port:   port,
	}

	ctx := context.Background()
	err = storage.healthCheckWithRetry(ctx)
	if err != nil {
		client.Close()
		return nil, fmt.Errorf("%w: %v", ErrQdrantUnreachable, err)
	}

	return storage, nil
}

// newBackOff returns the retry policy shared by health checks and upserts.
// Initial interval 500ms, max interval 10s, max elapsed 30s.
func newBackOff(ctx context.Context) backoff.BackOff {
	b := backoff.NewExponentialBackOff()
	b.InitialInterval = 500 * time.Millisecond
	b.MaxInterval = 10 * time.Second
	b.MaxElapsedTime = 30 * time.Second
	return backoff.WithContext(b, ctx)
}

func (s *QdrantStorage) healthCheckWithRetry(ctx context.Context) error {
	return backoff.Retry(func() error {
		return s.Health(ctx)
	}, newBackOff(ctx))
}

// Health performs a single health check against Qdrant.
func (s *QdrantStorage) Health(ctx context.Context) error {
	result, err := s.client.HealthCheck(ctx)
	if err != nil {
		return fmt.Errorf("health check failed: %w", err)
	}

	if result == nil || result.Title == "" {
		return fmt.Errorf("health check returned invalid response")
	}

	return nil
}

// OpenCollection returns a handle to the named collection. The collection is
// created on the first Add, once the embedding dimension is known.
func (s *QdrantStorage) OpenCollection(ctx context.Context, name string) (Collection, error) {
	c := &qdrantCollection{storage: s, name: name}
	exists, err := c.exists(ctx)
	if err != nil {
		return nil, err
	}
	c.created.Store(exists)
	return c, nil
}

// Close closes the Qdrant client connection.
func (s *QdrantStorage) Close() error {
	if s.client != nil {
		return s.client.Close()
	}
	return nil
}

type qdrantCollection struct {
	storage *QdrantStorage
	name    string
	created atomic.Bool // set once the collection is known to exist
}

func (c *qdrantCollection) Name() string { return c.name }

func (c *qdrantCollection) exists(ctx context.Context) (bool, error) {
	collections, err := c.storage.client.ListCollections(ctx)
	if err != nil {
		return false, fmt.Errorf("failed to list collections: %w", err)
	}
	return slices.Contains(collections, c.name), nil
}

// ensure creates the collection with cosine distance for the given dimension.
// Idempotent - safe to call multiple times.
func (c *qdrantCollection) ensure(ctx context.Context, dimension int) error {
	if c.created.Load() {
		return nil
	}

	exists, err := c.exists(ctx)
	if err != nil {
		return err
	}
	if !exists {
		err = c.storage.client.CreateCollection(ctx, &qdrant.CreateCollection{
			CollectionName: c.name,
			VectorsConfig: qdrant.NewVectorsConfigMap(map[string]*qdrant.VectorParams{
				vectorName: {
					Size:     uint64(dimension),
					Distance: qdrant.Distance_Cosine,
				},
			}),
		})
		if err != nil {
			return fmt.Errorf("failed to create collection: %w", err)
		}

		_, err = c.storage.client.CreateFieldIndex(ctx, &qdrant.CreateFieldIndexCollection{
			CollectionName: c.name,
			FieldName:      "chunk_id",
			FieldType:      qdrant.FieldType_FieldTypeKeyword.Enum(),
		})
		if err != nil {
			return fmt.Errorf("failed to create index for field chunk_id: %w", err)
		}
	}

	c.created.Store(true)
	return nil
}

func (c *qdrantCollection) Count(ctx context.Context) (int, error) {
	if !c.created.Load() {
		exists, err := c.exists(ctx)
		if err != nil || !exists {
			return 0, err
		}
		c.created.Store(true)
	}

	n, err := c.storage.client.Count(ctx, &qdrant.CountPoints{
		CollectionName: c.name,
		Exact:          qdrant.PtrOf(true),
	})
	if err != nil {
		return 0, fmt.Errorf("failed to count points: %w", err)
	}
	return int(n), nil
}

// pointID maps a chunk id to a stable Qdrant point UUID.
func (c *qdrantCollection) pointID(id string) string {
	return uuid.NewSHA1(pointNamespace, []byte(c.name+"/"+id)).String()
}

// Add stores records in batches of 100 points.
func (c *qdrantCollection) Add(ctx context.Context, records []Record) error {
	if len(records) == 0 {
		return nil
	}

	dim, err := validateRecords(records, 0)
	if err != nil {
		return err
	}
	if err := c.ensure(ctx, dim); err != nil {
		return err
	}

	for i := 0; i < len(records); i += upsertBatchSize {
		end := min(i+upsertBatchSize, len(records))

		batch := records[i:end]
		points := make([]*qdrant.PointStruct, len(batch))
		for j, r := range batch {
			points[j] = &qdrant.PointStruct{
				Id: qdrant.NewIDUUID(c.pointID(r.ID)),
				Vectors: qdrant.NewVectorsMap(map[string]*qdrant.Vector{
					vectorName: qdrant.NewVector(r.Vector...),
				}),
				Payload: qdrant.NewValueMap(map[string]any{
					"chunk_id": r.ID,
					"content":  r.Text,
				}),
			}
		}

		if err := c.upsertWithRetry(ctx, points); err != nil {
			return fmt.Errorf("failed to upsert batch %d-%d: %w", i, end, err)
		}
	}

	return nil
}

// upsertWithRetry performs upsert operation with exponential backoff retry.
func (c *qdrantCollection) upsertWithRetry(ctx context.Context, points []*qdrant.PointStruct) error {
	operation := func() error {
		_, err := c.storage.client.Upsert(ctx, &qdrant.UpsertPoints{
			CollectionName: c.name,
			Points:         points,
			Wait:           qdrant.PtrOf(true),
		})
		return err
	}

	return backoff.Retry(operation, newBackOff(ctx))
}

// Query performs vector similarity search. Qdrant returns hits ordered by score descending.
func (c *qdrantCollection) Query(ctx context.Context, vector []float32, limit int) ([]Match, error) {
	if limit <= 0 {
		return []Match{}, nil
	}
	if !c.created.Load() {
		exists, err := c.exists(ctx)
		if err != nil {
			return nil, err
		}
		if !exists {
			return []Match{}, nil
		}
		c.created.Store(true)
	}

	using := vectorName
	results, err := c.storage.client.Query(ctx, &qdrant.QueryPoints{
		CollectionName: c.name,
		Query:          qdrant.NewQuery(vector...),
		Using:          &using,
		Limit:          qdrant.PtrOf(uint64(limit)),
		WithPayload:    qdrant.NewWithPayload(true),
		WithVectors:    qdrant.NewWithVectors(false),
	})
	if err != nil {
		return nil, fmt.Errorf("failed to search chunks: %w", err)
	}

	matches := make([]Match, 0, len(results))
	for _, result := range results {
		payload := result.Payload
		matches = append(matches, Match{
			ID:    payload["chunk_id"].GetStringValue(),
			Text:  payload["content"].GetStringValue(),
			Score: float64(result.Score),
		})
	}

	return matches, nil
}
