package storage

import "errors"

var (
	ErrQdrantUnreachable = errors.New("qdrant server unreachable")
	ErrDimensionMismatch = errors.New("embedding dimension mismatch")
	ErrInvalidRecord     = errors.New("invalid record")
	ErrUnknownStore      = errors.New("unknown vector store")
)
