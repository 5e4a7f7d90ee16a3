// Package header decides which of the known header layouts a page uses by
// looking for a highlighted block and, under it, a ruled table.
package header

import (
	"context"
	"image"
	"log/slog"
	"strings"

	"github.com/MeKo-Tech/ocrheader/internal/document"
	"github.com/MeKo-Tech/ocrheader/internal/fields"
	"github.com/MeKo-Tech/ocrheader/internal/imageops"
	"github.com/MeKo-Tech/ocrheader/internal/ocr"
)

// DefaultROI is the header strip inspected on a 300 dpi page.
var DefaultROI = image.Rect(60, 50, 60+3000, 50+350)

// Highlighter yellow in the 8-bit HSV convention.
var (
	yellowLow  = imageops.HSV{H: 20, S: 100, V: 100}
	yellowHigh = imageops.HSV{H: 30, S: 255, V: 255}
)

const (
	minHighlightSide = 20
	minTableWidth    = 550
	minTableHeight   = 50
	maxTableHeight   = 100
)

// Classification is the classifier output. Boxes are in page coordinates.
type Classification struct {
	Layout     document.Layout
	Fields     document.Fields
	Text       string
	TableText  string
	Highlights []image.Rectangle
	Tables     []image.Rectangle
}

// Classifier inspects the header strip of a page.
type Classifier struct {
	engine ocr.Engine
	roi    image.Rectangle
}

// NewClassifier returns a classifier using DefaultROI.
func NewClassifier(engine ocr.Engine) *Classifier {
	return &Classifier{engine: engine, roi: DefaultROI}
}

// WithROI overrides the header rectangle.
func (c *Classifier) WithROI(r image.Rectangle) *Classifier {
	c.roi = r
	return c
}

// Classify never fails: missing cues or empty recognition give OldPlain or
// empty fields, and validation decides what that means.
func (c *Classifier) Classify(ctx context.Context, page image.Image) Classification {
	head, err := imageops.Crop(page, c.roi)
	if err != nil {
		slog.Debug("Header region outside page", "bounds", page.Bounds(), "error", err)
		return Classification{Layout: document.OldPlain{}}
	}
	origin := c.roi.Min

	var blob strings.Builder
	var out Classification

	for _, box := range highlightBoxes(head) {
		out.Highlights = append(out.Highlights, box.Add(origin))
		text := c.read(ctx, head, box)
		blob.WriteString(strings.TrimSpace(text))
		blob.WriteString("\n")
	}

	if len(out.Highlights) > 0 {
		var table strings.Builder
		for _, box := range tableBoxes(head) {
			out.Tables = append(out.Tables, box.Add(origin))
			text := c.read(ctx, head, box)
			table.WriteString(text)
			blob.WriteString(strings.TrimSpace(text))
			blob.WriteString("\n")
		}
		out.TableText = table.String()
	}

	out.Text = blob.String()
	out.Fields = fields.ExtractBarcodeInfo(out.Text)
	// a table match overrides the barcode-derived item; no match keeps it
	if len(out.Highlights) > 0 {
		if name := fields.MatchDocumentName(out.TableText); name != "" {
			out.Fields.ItemName = name
		}
	}
	out.Layout = document.LayoutFor(len(out.Highlights) > 0, out.Fields)

	slog.Debug("Header classified",
		"format", out.Layout.Format().String(),
		"highlights", len(out.Highlights),
		"tables", len(out.Tables),
		"barcode", out.Fields.Barcode)
	return out
}

// highlightBoxes finds yellow blocks larger than the speckle limit.
func highlightBoxes(head image.Image) []image.Rectangle {
	mask := imageops.InRangeHSV(head, yellowLow, yellowHigh)
	mask = imageops.Close(mask, 5, 5)
	mask = imageops.Open(mask, 5, 5)

	var boxes []image.Rectangle
	for _, b := range imageops.ExternalBoxes(mask) {
		if b.Dx() > minHighlightSide && b.Dy() > minHighlightSide {
			boxes = append(boxes, b)
		}
	}
	return boxes
}

// tableBoxes finds wide, short outlines of ruled table rows.
func tableBoxes(head image.Image) []image.Rectangle {
	gray := imageops.ToGray(head)
	mask := imageops.AdaptiveMean(gray, 15, 4, true)
	mask = imageops.Morph(mask, imageops.MorphConfig{Operation: imageops.MorphDilate, KernelW: 3, KernelH: 3, Iterations: 2})
	mask = imageops.Close(mask, 3, 3)
	edges := imageops.Canny(mask, 50, 150)

	var boxes []image.Rectangle
	for _, b := range imageops.ExternalBoxes(edges) {
		if b.Dx() > minTableWidth && b.Dy() > minTableHeight && b.Dy() < maxTableHeight {
			boxes = append(boxes, b)
		}
	}
	return boxes
}

func (c *Classifier) read(ctx context.Context, head image.Image, box image.Rectangle) string {
	roi, err := imageops.Crop(head, box)
	if err != nil {
		return ""
	}
	text, err := c.engine.Recognize(ctx, imageops.PrepareForOCR(roi), ocr.Options{PSM: ocr.PSMSingleColumn})
	if err != nil {
		slog.Warn("Header OCR failed", "box", box, "error", err)
		return ""
	}
	return text
}
