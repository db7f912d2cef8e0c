package extract

import (
	"bytes"
	"image"
	"image/color"
	"image/jpeg"
	"image/png"
	"os"
	"path/filepath"
	"testing"

	"github.com/pdfcpu/pdfcpu/pkg/api"
	"github.com/pdfcpu/pdfcpu/pkg/pdfcpu"
	"github.com/pdfcpu/pdfcpu/pkg/pdfcpu/model"
	"github.com/pdfcpu/pdfcpu/pkg/pdfcpu/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// writeScan writes a solid grayscale w x h PNG standing in for a scanned page and returns its path.
func writeScan(t *testing.T, dir, name string, w, h int, c color.Gray) string {
	t.Helper()
	img := image.NewGray(image.Rect(0, 0, w, h))
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			img.SetGray(x, y, c)
		}
	}

	path := filepath.Join(dir, name)
	f, err := os.Create(path)
	require.NoError(t, err)
	defer f.Close()
	require.NoError(t, png.Encode(f, img))
	return path
}

// buildScannedPDF creates a PDF with one page per image file.
func buildScannedPDF(t *testing.T, dir string, images ...string) string {
	t.Helper()
	out := filepath.Join(dir, "scan.pdf")
	require.NoError(t, api.ImportImagesFile(images, out, pdfcpu.DefaultImportConfig(), model.NewDefaultConfiguration()))
	return out
}

func readFile(t *testing.T, path string) []byte {
	t.Helper()
	data, err := os.ReadFile(path)
	require.NoError(t, err)
	return data
}

func pngSize(t *testing.T, data []byte) (int, int) {
	t.Helper()
	cfg, format, err := image.DecodeConfig(bytes.NewReader(data))
	require.NoError(t, err)
	require.Equal(t, "png", format)
	return cfg.Width, cfg.Height
}

func TestPDFRenderer_ScannedPages(t *testing.T) {
	dir := t.TempDir()
	doc := readFile(t, buildScannedPDF(t, dir,
		writeScan(t, dir, "p1.png", 600, 400, color.Gray{Y: 40}),
		writeScan(t, dir, "p2.png", 320, 480, color.Gray{Y: 90}),
		writeScan(t, dir, "p3.png", 200, 100, color.Gray{Y: 160}),
	))

	r := NewPDFRenderer()

	n, err := r.PageCount(doc)
	require.NoError(t, err)
	assert.Equal(t, 3, n)

	want := [][2]int{{600, 400}, {320, 480}, {200, 100}}
	for i, size := range want {
		page, err := r.RenderPage(doc, i+1)
		require.NoError(t, err, "page %d", i+1)

		w, h := pngSize(t, page)
		assert.Equal(t, size[0], w, "page %d width", i+1)
		assert.Equal(t, size[1], h, "page %d height", i+1)
	}
}

func TestPDFRenderer_PageWithSeveralImages(t *testing.T) {
	dir := t.TempDir()
	base := buildScannedPDF(t, dir, writeScan(t, dir, "top.png", 600, 400, color.Gray{Y: 40}))

	tile := writeScan(t, dir, "bottom.png", 600, 390, color.Gray{Y: 200})
	wm, err := api.ImageWatermark(tile, "scale:1 abs, rot:0", true, false, types.POINTS)
	require.NoError(t, err)

	stamped := filepath.Join(dir, "stamped.pdf")
	require.NoError(t, api.AddWatermarksFile(base, stamped, []string{"1"}, wm, model.NewDefaultConfiguration()))

	page, err := NewPDFRenderer().RenderPage(readFile(t, stamped), 1)
	require.NoError(t, err)

	w, h := pngSize(t, page)
	assert.Equal(t, 600, w)
	assert.Equal(t, 400+390, h, "both images must reach the page bitmap")
}

func TestPDFRenderer_RejectsNonPDF(t *testing.T) {
	r := NewPDFRenderer()

	_, err := r.PageCount([]byte("this is not a pdf"))
	assert.Error(t, err)

	_, err = r.RenderPage([]byte("this is not a pdf"), 1)
	assert.Error(t, err)
}

func TestStackImages(t *testing.T) {
	top := image.NewGray(image.Rect(0, 0, 50, 10))
	bottom := image.NewGray(image.Rect(0, 0, 30, 20))

	single := stackImages([]image.Image{top})
	assert.Equal(t, top.Bounds(), single.Bounds())

	out := stackImages([]image.Image{top, bottom})
	assert.Equal(t, image.Rect(0, 0, 50, 30), out.Bounds())

	// Bottom tile starts below the top tile; the area right of it stays white.
	r, g, b, _ := out.At(5, 15).RGBA()
	assert.Equal(t, [3]uint32{0, 0, 0}, [3]uint32{r, g, b})
	r, g, b, _ = out.At(45, 15).RGBA()
	assert.Equal(t, [3]uint32{0xffff, 0xffff, 0xffff}, [3]uint32{r, g, b})
}

func TestEncodePNG_FromJPEG(t *testing.T) {
	src := image.NewGray(image.Rect(0, 0, 40, 20))
	for x := 0; x < 40; x++ {
		src.SetGray(x, 10, color.Gray{Y: 255})
	}
	var scan bytes.Buffer
	require.NoError(t, jpeg.Encode(&scan, src, nil))

	decoded, err := decodeImage(&scan)
	require.NoError(t, err)

	out, err := encodePNG(decoded)
	require.NoError(t, err)

	w, h := pngSize(t, out)
	assert.Equal(t, 40, w)
	assert.Equal(t, 20, h)
}
