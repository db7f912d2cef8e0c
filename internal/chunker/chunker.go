package chunker

import (
	"fmt"
	"strconv"

	"github.com/bull/docqa/internal/errs"
)

const (
	// DefaultSize is the window length in characters.
	DefaultSize = 500

	// DefaultOverlap is the number of characters shared by consecutive windows.
	DefaultOverlap = 50
)

// Chunk is a window of the document text with its position in the sequence.
type Chunk struct {
	Index int    // Position in document (0, 1, 2...)
	Text  string // Window content, may start or end mid-word
}

// ID returns the stable identifier used as the collection key.
func (c Chunk) ID() string {
	return strconv.Itoa(c.Index)
}

// Chunker splits text into fixed-size overlapping windows.
// Sizes are measured in characters (runes), not bytes.
type Chunker struct {
	size    int
	overlap int
}

// New creates a chunker. Size must be positive and overlap must be in [0, size).
func New(size, overlap int) (*Chunker, error) {
	if size <= 0 {
		return nil, fmt.Errorf("%w: chunk size must be greater than zero, got %d", errs.ErrConfiguration, size)
	}
	if overlap < 0 {
		return nil, fmt.Errorf("%w: chunk overlap cannot be negative, got %d", errs.ErrConfiguration, overlap)
	}
	if overlap >= size {
		return nil, fmt.Errorf("%w: chunk overlap %d must be smaller than size %d", errs.ErrConfiguration, overlap, size)
	}
	return &Chunker{size: size, overlap: overlap}, nil
}

// NewDefault creates a chunker with DefaultSize and DefaultOverlap.
func NewDefault() *Chunker {
	return &Chunker{size: DefaultSize, overlap: DefaultOverlap}
}

// Size returns the window length.
func (c *Chunker) Size() int { return c.size }

// Overlap returns the overlap between consecutive windows.
func (c *Chunker) Overlap() int { return c.overlap }

// Chunk splits text starting at offset 0, advancing by size-overlap until the
// offset passes the end of the text. Empty text yields no chunks.
func (c *Chunker) Chunk(text string) []Chunk {
	runes := []rune(text)
	if len(runes) == 0 {
		return nil
	}

	stride := c.size - c.overlap
	chunks := make([]Chunk, 0, (len(runes)+stride-1)/stride)
	for offset := 0; offset < len(runes); offset += stride {
		end := min(offset+c.size, len(runes))
		chunks = append(chunks, Chunk{
			Index: len(chunks),
			Text:  string(runes[offset:end]),
		})
	}

	return chunks
}
