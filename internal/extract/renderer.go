package extract

import (
	"bytes"
	"fmt"
	"image"
	"image/draw"
	_ "image/jpeg"
	"image/png"
	"io"
	"maps"
	"slices"
	"strconv"

	"github.com/pdfcpu/pdfcpu/pkg/api"
	"github.com/pdfcpu/pdfcpu/pkg/pdfcpu/model"
	_ "golang.org/x/image/tiff"
)

// Renderer turns document pages into bitmaps.
type Renderer interface {
	PageCount(doc []byte) (int, error)

	// RenderPage returns the PNG bitmap of a 1-based page.
	RenderPage(doc []byte, page int) ([]byte, error)
}

// PDFRenderer renders pages of scanned PDFs. A scanned page is one or more
// raster images placed on the page; all of them end up in the page bitmap.
type PDFRenderer struct {
	conf *model.Configuration
}

var _ Renderer = (*PDFRenderer)(nil)

// NewPDFRenderer creates a renderer with relaxed PDF validation.
func NewPDFRenderer() *PDFRenderer {
	conf := model.NewDefaultConfiguration()
	conf.ValidationMode = model.ValidationRelaxed
	return &PDFRenderer{conf: conf}
}

// PageCount returns the number of pages in the PDF.
func (r *PDFRenderer) PageCount(doc []byte) (int, error) {
	n, err := api.PageCount(bytes.NewReader(doc), r.conf)
	if err != nil {
		return 0, fmt.Errorf("failed to read PDF page count: %w", err)
	}
	return n, nil
}

// RenderPage extracts every raster image on the page and composites them
// into one PNG. Images are stacked top to bottom in object order, which is how
// scanners emit strip-tiled pages; no image is dropped.
func (r *PDFRenderer) RenderPage(doc []byte, page int) ([]byte, error) {
	pages, err := api.ExtractImagesRaw(bytes.NewReader(doc), []string{strconv.Itoa(page)}, r.conf)
	if err != nil {
		return nil, fmt.Errorf("failed to extract page image: %w", err)
	}

	var tiles []image.Image
	for _, images := range pages {
		for _, objNr := range slices.Sorted(maps.Keys(images)) {
			img := images[objNr]
			decoded, err := decodeImage(img.Reader)
			if err != nil {
				return nil, fmt.Errorf("failed to decode %s image %s: %w", img.FileType, img.Name, err)
			}
			tiles = append(tiles, decoded)
		}
	}
	if len(tiles) == 0 {
		return nil, fmt.Errorf("page has no raster image")
	}

	return encodePNG(stackImages(tiles))
}

// stackImages draws tiles below each other on a white canvas as wide as the
// widest tile. A single tile is returned unchanged.
func stackImages(tiles []image.Image) image.Image {
	if len(tiles) == 1 {
		return tiles[0]
	}

	var width, height int
	for _, t := range tiles {
		b := t.Bounds()
		width = max(width, b.Dx())
		height += b.Dy()
	}

	canvas := image.NewRGBA(image.Rect(0, 0, width, height))
	draw.Draw(canvas, canvas.Bounds(), image.White, image.Point{}, draw.Src)

	y := 0
	for _, t := range tiles {
		b := t.Bounds()
		draw.Draw(canvas, image.Rect(0, y, b.Dx(), y+b.Dy()), t, b.Min, draw.Over)
		y += b.Dy()
	}
	return canvas
}

func decodeImage(r io.Reader) (image.Image, error) {
	img, _, err := image.Decode(r)
	return img, err
}

func encodePNG(img image.Image) ([]byte, error) {
	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		return nil, fmt.Errorf("failed to encode PNG: %w", err)
	}
	return buf.Bytes(), nil
}
