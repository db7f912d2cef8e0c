// Package extract turns a scanned document into plain text by rendering each
// page to a bitmap and asking an OCR backend to read it.
package extract

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/yuin/goldmark"

	"github.com/bull/docqa/internal/document"
)

// Instruction is sent with every page image.
const Instruction = "Extract all the text from this image:"

// OCR reads the text of a page image.
type OCR interface {
	ExtractText(ctx context.Context, image []byte, instruction string) (string, error)
}

// Result is the outcome of a successful extraction.
type Result struct {
	Text  string // Page texts concatenated in order, no separator
	Pages int
}

// Extractor renders pages and resolves them into text, one page at a time.
type Extractor struct {
	renderer  Renderer
	ocr       OCR
	plainText bool
	markdown  goldmark.Markdown
	logger    *slog.Logger
}

// Option configures an Extractor.
type Option func(*Extractor)

// WithPlainText strips Markdown syntax from each page's OCR output.
func WithPlainText(enabled bool) Option {
	return func(e *Extractor) { e.plainText = enabled }
}

// WithLogger sets the logger. Defaults to slog.Default().
func WithLogger(logger *slog.Logger) Option {
	return func(e *Extractor) {
		if logger != nil {
			e.logger = logger
		}
	}
}

// NewExtractor creates an extractor.
func NewExtractor(renderer Renderer, ocr OCR, opts ...Option) *Extractor {
	e := &Extractor{
		renderer: renderer,
		ocr:      ocr,
		markdown: goldmark.New(),
		logger:   slog.Default(),
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Extract reads every page of src in order. The first page that cannot be
// rendered or read aborts the extraction with an *ExtractionError; no partial
// text is returned.
func (e *Extractor) Extract(ctx context.Context, src document.Source) (*Result, error) {
	start := time.Now()

	doc, err := src.Read()
	if err != nil {
		return nil, &ExtractionError{Err: err}
	}

	pageCount, err := e.renderer.PageCount(doc)
	if err != nil {
		return nil, &ExtractionError{Err: err}
	}
	if pageCount == 0 {
		return nil, &ExtractionError{Err: fmt.Errorf("document %s has no pages", src.Name())}
	}
	e.logger.Info("Extracting document", "document", src.Name(), "pages", pageCount)

	var b strings.Builder
	for page := 1; page <= pageCount; page++ {
		if err := ctx.Err(); err != nil {
			return nil, &ExtractionError{Page: page, Err: err}
		}

		text, err := e.extractPage(ctx, doc, page)
		if err != nil {
			e.logger.Warn("Page extraction failed", "document", src.Name(), "page", page, "error", err)
			return nil, &ExtractionError{Page: page, Err: err}
		}
		e.logger.Debug("Extracted page", "page", page, "chars", len(text))
		b.WriteString(text)
	}

	result := &Result{Text: b.String(), Pages: pageCount}
	e.logger.Info("Extraction complete",
		"document", src.Name(),
		"pages", pageCount,
		"chars", len(result.Text),
		"duration", time.Since(start),
	)
	return result, nil
}

func (e *Extractor) extractPage(ctx context.Context, doc []byte, page int) (string, error) {
	img, err := e.renderer.RenderPage(doc, page)
	if err != nil {
		return "", fmt.Errorf("render: %w", err)
	}

	text, err := e.ocr.ExtractText(ctx, img, Instruction)
	if err != nil {
		return "", fmt.Errorf("ocr: %w", err)
	}

	if e.plainText {
		text = markdownToText(e.markdown, []byte(text))
	}
	return text, nil
}
