package mcp

import (
	"context"
	"encoding/json"
	"net/http"
	"time"

	"github.com/bull/docqa/internal/session"
)

// healthTimeout bounds the store ping and the chunk count together.
const healthTimeout = 3 * time.Second

// HealthResponse is the body served at /health.
type HealthResponse struct {
	Status    string      `json:"status"` // healthy or unhealthy
	Document  string      `json:"document,omitempty"`
	Ingested  bool        `json:"ingested"`
	Store     StoreHealth `json:"store"`
	Timestamp string      `json:"timestamp"`
}

// StoreHealth describes the vector store backing the index.
type StoreHealth struct {
	Kind         string `json:"kind"`  // memory, badger or qdrant
	State        string `json:"state"` // connected or disconnected
	Collection   string `json:"collection,omitempty"`
	StoredChunks int    `json:"stored_chunks"`
	Error        string `json:"error,omitempty"`
}

// HealthChecker pings the vector store.
type HealthChecker interface {
	Health(ctx context.Context) error
}

// StatusReporter reports what the index holds.
type StatusReporter interface {
	Status(ctx context.Context) (*session.Status, error)
}

// HealthConfig holds the dependencies of the health endpoint.
type HealthConfig struct {
	Store     HealthChecker
	StoreKind string
	// Index is optional; without it only the store ping is reported.
	Index StatusReporter
}

// NewHealthHandler creates an HTTP handler for the /health endpoint.
// It answers 200 when the store is reachable and the collection can be
// counted, 503 otherwise.
func NewHealthHandler(cfg HealthConfig) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, cancel := context.WithTimeout(r.Context(), healthTimeout)
		defer cancel()

		response := HealthResponse{
			Status:    "healthy",
			Store:     StoreHealth{Kind: cfg.StoreKind, State: "connected"},
			Timestamp: time.Now().UTC().Format(time.RFC3339),
		}
		code := http.StatusOK

		if err := cfg.Store.Health(ctx); err != nil {
			response.Status = "unhealthy"
			response.Store.State = "disconnected"
			response.Store.Error = err.Error()
			code = http.StatusServiceUnavailable
		} else if cfg.Index != nil {
			status, err := cfg.Index.Status(ctx)
			if err != nil {
				response.Status = "unhealthy"
				response.Store.Error = err.Error()
				code = http.StatusServiceUnavailable
			} else {
				response.Document = status.Document
				response.Ingested = status.Ingested
				response.Store.Collection = status.Collection
				response.Store.StoredChunks = status.StoredChunks
			}
		}

		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(code)
		json.NewEncoder(w).Encode(response)
	}
}
