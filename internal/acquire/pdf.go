package acquire

import (
	"context"
	"errors"
	"fmt"
	"image"
	_ "image/jpeg" // pdfcpu writes DCT streams as .jpg
	_ "image/png"
	"log/slog"
	"os"
	"os/exec"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/dslipak/pdf"
	"github.com/pdfcpu/pdfcpu/pkg/api"
	_ "golang.org/x/image/bmp"
	_ "golang.org/x/image/tiff" // CCITT scans come out as .tif
)

// PDFRasterizer pulls the embedded page-1 scan out with pdfcpu and falls
// back to pdftoppm for pages that carry no image XObject.
type PDFRasterizer struct {
	// Pdftoppm is the fallback renderer; empty disables the fallback.
	Pdftoppm string
}

// NewPDFRasterizer resolves pdftoppm on PATH when present.
func NewPDFRasterizer() *PDFRasterizer {
	r := &PDFRasterizer{}
	if path, err := exec.LookPath("pdftoppm"); err == nil {
		r.Pdftoppm = path
	} else {
		slog.Debug("pdftoppm not found, rendering fallback disabled")
	}
	return r
}

// FirstPage implements Rasterizer.
func (r *PDFRasterizer) FirstPage(ctx context.Context, pdfPath string, dpi int) (image.Image, error) {
	if err := validate(pdfPath); err != nil {
		return nil, err
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	img, err := extractFirstPageImage(pdfPath)
	if err == nil {
		return img, nil
	}
	slog.Debug("Embedded image extraction failed", "path", pdfPath, "error", err)

	if r.Pdftoppm == "" {
		return nil, err
	}
	return r.render(ctx, pdfPath, dpi)
}

// validate opens the file with the PDF reader and checks it has a page.
// The reader panics on some malformed inputs, so that is reported as corruption.
func validate(path string) (err error) {
	defer func() {
		if rec := recover(); rec != nil {
			err = fmt.Errorf("%w: %v", ErrCorrupted, rec)
		}
	}()
	reader, openErr := pdf.Open(path)
	if openErr != nil {
		if errors.Is(openErr, os.ErrNotExist) || errors.Is(openErr, os.ErrPermission) {
			return fmt.Errorf("failed to open pdf: %w", openErr)
		}
		return fmt.Errorf("%w: %w", ErrCorrupted, openErr)
	}
	if reader.NumPage() < 1 {
		return fmt.Errorf("%w: no pages", ErrCorrupted)
	}
	return nil
}

// extractFirstPageImage runs pdfcpu's image extraction for page 1 and
// returns the largest image found.
func extractFirstPageImage(path string) (image.Image, error) {
	tempDir, err := os.MkdirTemp("", "ocrheader-extract-*")
	if err != nil {
		return nil, fmt.Errorf("failed to create temp directory: %w", err)
	}
	defer func() { _ = os.RemoveAll(tempDir) }()

	if err := api.ExtractImagesFile(path, tempDir, []string{"1"}, nil); err != nil {
		return nil, fmt.Errorf("failed to extract images from PDF: %w", err)
	}
	img := largestImage(collectPageImages(tempDir, 1))
	if img == nil {
		return nil, ErrNoImage
	}
	return img, nil
}

// collectPageImages decodes every file pdfcpu wrote for page. Files are named
// <stem>_<page>_<objnr>.<ext> or page_<page>_image_<n>.<ext> depending on the
// pdfcpu version; unreadable files are skipped.
func collectPageImages(dir string, page int) []image.Image {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil
	}
	var images []image.Image
	for _, e := range entries {
		if e.IsDir() {
			continue
		}
		if p, ok := pageOf(e.Name()); !ok || p != page {
			continue
		}
		img, err := loadImageFile(filepath.Join(dir, e.Name()))
		if err != nil {
			continue
		}
		images = append(images, img)
	}
	return images
}

func pageOf(name string) (int, bool) {
	stem := strings.TrimSuffix(name, filepath.Ext(name))
	parts := strings.Split(stem, "_")
	if len(parts) >= 2 && parts[0] == "page" {
		n, err := strconv.Atoi(parts[1])
		return n, err == nil
	}
	if len(parts) >= 3 {
		n, err := strconv.Atoi(parts[len(parts)-2])
		return n, err == nil
	}
	return 0, false
}

func largestImage(images []image.Image) image.Image {
	var best image.Image
	bestArea := 0
	for _, img := range images {
		b := img.Bounds()
		if area := b.Dx() * b.Dy(); area > bestArea {
			best, bestArea = img, area
		}
	}
	return best
}

func loadImageFile(path string) (image.Image, error) {
	f, err := os.Open(path) //nolint:gosec // G304: temp files written by the extractor
	if err != nil {
		return nil, err
	}
	defer func() { _ = f.Close() }()

	img, _, err := image.Decode(f)
	return img, err
}

// render rasterizes page 1 with pdftoppm. Depending on the page count the
// tool pads the page suffix, so every variant is probed.
func (r *PDFRasterizer) render(ctx context.Context, pdfPath string, dpi int) (image.Image, error) {
	tempDir, err := os.MkdirTemp("", "ocrheader-render-*")
	if err != nil {
		return nil, fmt.Errorf("failed to create temp directory: %w", err)
	}
	defer func() { _ = os.RemoveAll(tempDir) }()

	prefix := filepath.Join(tempDir, "page")
	cmd := exec.CommandContext(ctx, r.Pdftoppm, "-png", "-f", "1", "-l", "1", "-r", strconv.Itoa(dpi), pdfPath, prefix) //nolint:gosec // G204: resolved binary
	if out, err := cmd.CombinedOutput(); err != nil {
		return nil, fmt.Errorf("pdftoppm failed: %w: %s", err, strings.TrimSpace(string(out)))
	}
	for _, suffix := range []string{"-1.png", "-01.png", "-001.png"} {
		if img, err := loadImageFile(prefix + suffix); err == nil {
			return img, nil
		}
	}
	return nil, ErrNoImage
}
