package acquire

import (
	"context"
	"image"
	"image/color"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/MeKo-Tech/ocrheader/internal/testutil"
)

func writeImage(t *testing.T, path string, w, h int) {
	t.Helper()
	img := image.NewRGBA(image.Rect(0, 0, w, h))
	for y := range h {
		for x := range w {
			img.Set(x, y, color.RGBA{uint8(x), uint8(y), 0, 255})
		}
	}
	testutil.WriteImage(t, path, img)
}

func TestPageOf(t *testing.T) {
	tests := []struct {
		name string
		page int
		ok   bool
	}{
		{"page_1_image_1.png", 1, true},
		{"page_12_image_3.jpg", 12, true},
		{"scan_1_Im0.jpg", 1, true},
		{"my_scan_2_15.png", 2, true},
		{"notes.txt", 0, false},
		{"image.png", 0, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p, ok := pageOf(tt.name)
			assert.Equal(t, tt.ok, ok)
			if tt.ok {
				assert.Equal(t, tt.page, p)
			}
		})
	}
}

func TestCollectPageImages_PicksPageAndSkipsJunk(t *testing.T) {
	dir := t.TempDir()
	writeImage(t, filepath.Join(dir, "page_1_image_1.png"), 8, 6)
	writeImage(t, filepath.Join(dir, "page_1_image_2.jpg"), 16, 12)
	writeImage(t, filepath.Join(dir, "page_2_image_1.png"), 4, 4)
	require.NoError(t, os.WriteFile(filepath.Join(dir, "page_1_image_3.png"), []byte("corrupt"), 0o600))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "notes.txt"), []byte("ignore"), 0o600))

	images := collectPageImages(dir, 1)
	require.Len(t, images, 2)

	best := largestImage(images)
	require.NotNil(t, best)
	assert.Equal(t, 16, best.Bounds().Dx())
}

func TestLargestImage_Empty(t *testing.T) {
	assert.Nil(t, largestImage(nil))
}

func TestPDFRasterizer_RejectsNonPDF(t *testing.T) {
	path := filepath.Join(t.TempDir(), "fake.pdf")
	require.NoError(t, os.WriteFile(path, []byte("this is not a pdf"), 0o600))

	r := &PDFRasterizer{}
	_, err := r.FirstPage(context.Background(), path, DefaultDPI)
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrCorrupted)

	res := Result{Kind: ConversionFailed, Err: err, Reason: err.Error()}
	assert.True(t, IsCorrupted(res))
}

func TestPDFRasterizer_MissingFile(t *testing.T) {
	r := &PDFRasterizer{}
	_, err := r.FirstPage(context.Background(), filepath.Join(t.TempDir(), "missing.pdf"), DefaultDPI)
	require.Error(t, err)
}

func TestPDFRasterizer_ExtractsEmbeddedScan(t *testing.T) {
	if testing.Short() {
		t.Skip("Skipping PDF round trip in short mode")
	}
	page := testutil.HeaderPage(testutil.OldHeader("ST 1x5x0.38HI", "SS-F-PR-ST-047", "19-Aug-24"))
	path := filepath.Join(t.TempDir(), "scan.pdf")
	testutil.WriteScanPDF(t, path, page)

	r := &PDFRasterizer{}
	img, err := r.FirstPage(context.Background(), path, DefaultDPI)
	require.NoError(t, err)
	assert.Equal(t, page.Bounds().Size(), img.Bounds().Size())
}

func TestPDFRasterizer_BlankPageWithoutRenderer(t *testing.T) {
	path := filepath.Join(t.TempDir(), "blank.pdf")
	testutil.WriteBlankPDF(t, path)

	r := &PDFRasterizer{}
	img, err := r.FirstPage(context.Background(), path, DefaultDPI)
	assert.Error(t, err)
	assert.Nil(t, img)
}
