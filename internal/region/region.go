// Package region reads the ruled header table of old-format pages cell by
// cell, together with a single pass over the whole header band.
package region

import (
	"context"
	"image"
	"log/slog"
	"strings"

	"github.com/MeKo-Tech/ocrheader/internal/document"
	"github.com/MeKo-Tech/ocrheader/internal/imageops"
	"github.com/MeKo-Tech/ocrheader/internal/ocr"
)

// Config holds the tuning knobs for cell detection.
type Config struct {
	Sharpness     float64
	CropWidth     int
	CropHeight    int
	TextPadding   int
	MinCellWidth  int
	MinCellHeight int
}

// DefaultConfig matches a 300 dpi scan of the standard header.
func DefaultConfig() Config {
	return Config{
		Sharpness:     650,
		CropWidth:     4000,
		CropHeight:    300,
		TextPadding:   33,
		MinCellWidth:  250,
		MinCellHeight: 100,
	}
}

const (
	maxCellHeight  = 130
	wideCellWidth  = 1000
	lineThreshold  = 150
	lineKernelSize = 30
)

// Analysis is the detailed outcome of Extract, kept for overlays and logs.
type Analysis struct {
	Regions   []document.RegionText
	Sharpness float64
	Blurred   bool
	Table     image.Rectangle
	Cells     []image.Rectangle
}

// Extractor runs both passes over a page.
type Extractor struct {
	engine ocr.Engine
	cfg    Config
}

// NewExtractor returns an extractor; zero config fields take the defaults.
func NewExtractor(engine ocr.Engine, cfg Config) *Extractor {
	def := DefaultConfig()
	if cfg.Sharpness <= 0 {
		cfg.Sharpness = def.Sharpness
	}
	if cfg.CropWidth <= 0 {
		cfg.CropWidth = def.CropWidth
	}
	if cfg.CropHeight <= 0 {
		cfg.CropHeight = def.CropHeight
	}
	if cfg.TextPadding < 0 {
		cfg.TextPadding = def.TextPadding
	}
	if cfg.MinCellWidth <= 0 {
		cfg.MinCellWidth = def.MinCellWidth
	}
	if cfg.MinCellHeight <= 0 {
		cfg.MinCellHeight = def.MinCellHeight
	}
	return &Extractor{engine: engine, cfg: cfg}
}

// Extract returns the band text followed by the cell texts. A page with no
// ruled table yields no regions.
func (e *Extractor) Extract(ctx context.Context, page image.Image) []document.RegionText {
	return e.Analyze(ctx, page).Regions
}

// Analyze is Extract with the intermediate geometry.
func (e *Extractor) Analyze(ctx context.Context, page image.Image) Analysis {
	gray := imageops.ToGray(page)
	var a Analysis
	a.Sharpness = imageops.LaplacianVariance(gray)
	a.Blurred = a.Sharpness < e.cfg.Sharpness
	slog.Debug("Page sharpness", "variance", a.Sharpness, "blurred", a.Blurred)

	band := e.readBand(ctx, gray)

	table, ok := findTable(gray)
	if !ok {
		slog.Debug("No table detected")
		return a
	}
	a.Table = table
	a.Cells = e.cellBoxes(gray, table)

	cells := make([]document.RegionText, 0, len(a.Cells))
	for i, box := range a.Cells {
		cells = append(cells, document.RegionText{
			Ordinal: i + 1,
			Box:     box,
			Text:    e.recognize(ctx, cropPage(page, box), ocr.Options{PSM: ocr.PSMSingleBlock, OEM: ocr.OEMLSTM}),
		})
	}
	a.Regions = merge(band, cells)
	return a
}

// readBand enhances the top strip of the page and reads it as one block.
func (e *Extractor) readBand(ctx context.Context, gray *image.Gray) []document.RegionText {
	r := image.Rect(0, 0, e.cfg.CropWidth, e.cfg.CropHeight).Intersect(gray.Bounds())
	if r.Empty() {
		return nil
	}
	g := imageops.CropGray(gray, r)
	g = imageops.GaussianBlur3(g)
	g = imageops.CLAHE(g, 2.0, 8, 8)
	g = imageops.Sharpen(g)
	g = imageops.ThresholdOtsu(g, true)

	text := e.recognize(ctx, g, ocr.Options{PSM: ocr.PSMSingleBlock})
	if text == "" {
		return nil
	}
	return []document.RegionText{{Ordinal: 1, Box: r, Text: text}}
}

// findTable returns the largest outline made of long ruling lines.
func findTable(gray *image.Gray) (image.Rectangle, bool) {
	binary := imageops.Threshold(gray, lineThreshold, true)
	horizontal := imageops.Open(binary, lineKernelSize, 1)
	vertical := imageops.Open(binary, 1, lineKernelSize)
	return imageops.LargestBox(imageops.ExternalBoxes(imageops.Or(horizontal, vertical)))
}

// cellBoxes filters the shapes inside the table down to text cells. Narrow
// cells are stretched upward by the padding, anchored at the table top.
func (e *Extractor) cellBoxes(gray *image.Gray, table image.Rectangle) []image.Rectangle {
	binary := imageops.Threshold(imageops.CropGray(gray, table), lineThreshold, true)
	pad := e.cfg.TextPadding
	x, y := table.Min.X, table.Min.Y

	var boxes []image.Rectangle
	for _, c := range imageops.TreeBoxes(binary) {
		cx, cy, cw, ch := c.Min.X, c.Min.Y, c.Dx(), c.Dy()
		if cw < e.cfg.MinCellWidth || ch <= e.cfg.MinCellHeight || ch >= maxCellHeight {
			continue
		}
		if cw < wideCellWidth {
			adjustedY := max(0, cy-pad)
			adjustedH := ch + (cy - adjustedY)
			boxes = append(boxes, image.Rect(x+cx, y-pad, x+cx+cw, y-pad+adjustedH+pad))
			continue
		}
		boxes = append(boxes, image.Rect(x+cx, y+cy, x+cx+cw, y+cy+ch))
	}
	return boxes
}

func (e *Extractor) recognize(ctx context.Context, img image.Image, opts ocr.Options) string {
	if img == nil || img.Bounds().Empty() {
		return ""
	}
	text, err := e.engine.Recognize(ctx, img, opts)
	if err != nil {
		slog.Warn("Region OCR failed", "error", err)
		return ""
	}
	return strings.TrimSpace(text)
}

func cropPage(page image.Image, box image.Rectangle) image.Image {
	img, err := imageops.Crop(page, box)
	if err != nil {
		return nil
	}
	return img
}

// merge keeps the first occurrence of each non-empty text.
func merge(groups ...[]document.RegionText) []document.RegionText {
	seen := make(map[string]bool)
	var out []document.RegionText
	for _, g := range groups {
		for _, r := range g {
			text := strings.TrimSpace(r.Text)
			if text == "" || seen[text] {
				continue
			}
			seen[text] = true
			out = append(out, r)
		}
	}
	return out
}
