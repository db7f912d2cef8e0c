// Package index stores chunk embeddings in a vector collection and retrieves
// the chunks nearest to a query.
package index

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/bull/docqa/internal/chunker"
	"github.com/bull/docqa/internal/errs"
	"github.com/bull/docqa/internal/storage"
)

// DefaultTopK is the number of chunks retrieved when the caller passes topK <= 0.
const DefaultTopK = 3

// Embedder maps texts to vectors, one per input, in input order.
type Embedder interface {
	Embed(ctx context.Context, texts []string) ([][]float32, error)
}

// BuildResult reports what Build did.
type BuildResult struct {
	Chunks   int  // Chunks stored in the collection after the build
	Reused   bool // True when an existing non-empty collection was kept as is
	Duration time.Duration
}

// EmbeddingIndex pairs an embedder with one named collection.
type EmbeddingIndex struct {
	embedder   Embedder
	collection storage.Collection
	logger     *slog.Logger
}

// New opens the named collection in store.
func New(ctx context.Context, embedder Embedder, store storage.Store, collectionName string, logger *slog.Logger) (*EmbeddingIndex, error) {
	if logger == nil {
		logger = slog.Default()
	}
	if collectionName == "" {
		collectionName = storage.DefaultCollectionName
	}

	collection, err := store.OpenCollection(ctx, collectionName)
	if err != nil {
		return nil, fmt.Errorf("%w: open collection %s: %w", errs.ErrRetrieval, collectionName, err)
	}

	return &EmbeddingIndex{
		embedder:   embedder,
		collection: collection,
		logger:     logger,
	}, nil
}

// CollectionName returns the name of the backing collection.
func (x *EmbeddingIndex) CollectionName() string {
	return x.collection.Name()
}

// Count returns the number of stored chunks.
func (x *EmbeddingIndex) Count(ctx context.Context) (int, error) {
	n, err := x.collection.Count(ctx)
	if err != nil {
		return 0, fmt.Errorf("%w: %w", errs.ErrRetrieval, err)
	}
	return n, nil
}

// Build embeds all chunks in one batched call and stores them under their index
// ids. A collection that already holds records is left untouched.
func (x *EmbeddingIndex) Build(ctx context.Context, chunks []chunker.Chunk) (*BuildResult, error) {
	start := time.Now()

	existing, err := x.Count(ctx)
	if err != nil {
		return nil, err
	}
	if existing > 0 {
		x.logger.Info("Reusing existing collection", "collection", x.collection.Name(), "chunks", existing)
		return &BuildResult{Chunks: existing, Reused: true, Duration: time.Since(start)}, nil
	}
	if len(chunks) == 0 {
		return &BuildResult{Duration: time.Since(start)}, nil
	}

	texts := make([]string, len(chunks))
	for i, c := range chunks {
		texts[i] = c.Text
	}

	vectors, err := x.embedder.Embed(ctx, texts)
	if err != nil {
		return nil, fmt.Errorf("%w: embed chunks: %w", errs.ErrRetrieval, err)
	}
	if len(vectors) != len(chunks) {
		return nil, fmt.Errorf("%w: embedder returned %d vectors for %d chunks", errs.ErrRetrieval, len(vectors), len(chunks))
	}

	records := make([]storage.Record, len(chunks))
	for i, c := range chunks {
		records[i] = storage.Record{ID: c.ID(), Text: c.Text, Vector: vectors[i]}
	}

	if err := x.collection.Add(ctx, records); err != nil {
		return nil, fmt.Errorf("%w: store chunks: %w", errs.ErrRetrieval, err)
	}

	result := &BuildResult{Chunks: len(records), Duration: time.Since(start)}
	x.logger.Info("Built collection",
		"collection", x.collection.Name(),
		"chunks", result.Chunks,
		"duration", result.Duration,
	)
	return result, nil
}

// Retrieve returns the texts of the topK chunks most similar to query, best
// match first. An empty collection yields an empty slice.
func (x *EmbeddingIndex) Retrieve(ctx context.Context, query string, topK int) ([]string, error) {
	if topK <= 0 {
		topK = DefaultTopK
	}

	vectors, err := x.embedder.Embed(ctx, []string{query})
	if err != nil {
		return nil, fmt.Errorf("%w: embed query: %w", errs.ErrRetrieval, err)
	}
	if len(vectors) != 1 {
		return nil, fmt.Errorf("%w: embedder returned %d vectors for one query", errs.ErrRetrieval, len(vectors))
	}

	matches, err := x.collection.Query(ctx, vectors[0], topK)
	if err != nil {
		return nil, fmt.Errorf("%w: query collection: %w", errs.ErrRetrieval, err)
	}

	texts := make([]string, len(matches))
	for i, m := range matches {
		texts[i] = m.Text
	}
	x.logger.Debug("Retrieved chunks", "requested", topK, "returned", len(texts))
	return texts, nil
}
