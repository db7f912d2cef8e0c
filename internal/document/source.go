// Package document describes where the source document comes from.
package document

import (
	"fmt"
	"os"
	"path/filepath"
)

// Kind tags the variant held by a Source.
type Kind int

const (
	KindPath Kind = iota + 1
	KindBytes
)

// Source is either a file path or an in-memory buffer. Use FromPath or FromBytes.
type Source struct {
	kind Kind
	name string
	path string
	data []byte
}

// FromPath returns a Source backed by a file on disk.
func FromPath(path string) Source {
	return Source{kind: KindPath, name: filepath.Base(path), path: path}
}

// FromBytes returns a Source backed by an in-memory buffer.
// The name is only used for logging and error messages.
func FromBytes(name string, data []byte) Source {
	return Source{kind: KindBytes, name: name, data: data}
}

// Kind reports which variant the Source holds.
func (s Source) Kind() Kind { return s.kind }

// Name returns a human readable name for the document.
func (s Source) Name() string { return s.name }

// Read returns the raw document bytes.
func (s Source) Read() ([]byte, error) {
	switch s.kind {
	case KindPath:
		data, err := os.ReadFile(s.path)
		if err != nil {
			return nil, fmt.Errorf("read document %s: %w", s.path, err)
		}
		return data, nil
	case KindBytes:
		if len(s.data) == 0 {
			return nil, fmt.Errorf("document %s is empty", s.name)
		}
		return s.data, nil
	default:
		return nil, fmt.Errorf("document source not set")
	}
}
