// Package errs defines the error kinds shared across the pipeline.
//
// Ingestion errors (configuration, extraction) are fatal for the session.
// Query errors (retrieval, generation) are recovered by the answer engine.
package errs

import "errors"

var (
	ErrConfiguration = errors.New("configuration error")
	ErrExtraction    = errors.New("extraction error")
	ErrRetrieval     = errors.New("retrieval error")
	ErrGeneration    = errors.New("generation error")
)
