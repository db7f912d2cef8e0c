package storage

import (
	"fmt"
	"math"
	"sort"
)

// cosineSimilarity returns the cosine of the angle between a and b, in [-1, 1].
// Zero vectors have similarity 0 with everything.
func cosineSimilarity(a, b []float32) float64 {
	var dot, normA, normB float64
	for i := range a {
		dot += float64(a[i]) * float64(b[i])
		normA += float64(a[i]) * float64(a[i])
		normB += float64(b[i]) * float64(b[i])
	}
	if normA == 0 || normB == 0 {
		return 0
	}
	return dot / (math.Sqrt(normA) * math.Sqrt(normB))
}

// rankByCosine scores every record against vector and returns the top limit
// matches, best first. Ties keep insertion order.
func rankByCosine(records []Record, vector []float32, limit int) []Match {
	matches := make([]Match, 0, len(records))
	for _, r := range records {
		matches = append(matches, Match{
			ID:    r.ID,
			Text:  r.Text,
			Score: cosineSimilarity(r.Vector, vector),
		})
	}

	sort.SliceStable(matches, func(i, j int) bool {
		return matches[i].Score > matches[j].Score
	})

	if limit < len(matches) {
		matches = matches[:limit]
	}
	return matches
}

// validateRecords checks ids, texts and that every vector has the same
// dimension, which must equal dim when dim > 0. It returns the batch dimension.
func validateRecords(records []Record, dim int) (int, error) {
	for i, r := range records {
		if r.ID == "" {
			return 0, fmt.Errorf("%w: record %d has empty id", ErrInvalidRecord, i)
		}
		if len(r.Vector) == 0 {
			return 0, fmt.Errorf("%w: record %s has no vector", ErrInvalidRecord, r.ID)
		}
		if dim == 0 {
			dim = len(r.Vector)
		}
		if len(r.Vector) != dim {
			return 0, fmt.Errorf("%w: record %s has %d dimensions, expected %d",
				ErrDimensionMismatch, r.ID, len(r.Vector), dim)
		}
	}
	return dim, nil
}

// checkQuery validates a query vector against the collection dimension.
func checkQuery(vector []float32, dim int) error {
	if dim > 0 && len(vector) != dim {
		return fmt.Errorf("%w: query has %d dimensions, expected %d",
			ErrDimensionMismatch, len(vector), dim)
	}
	return nil
}
