package header

import (
	"context"
	"image"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/MeKo-Tech/ocrheader/internal/document"
	"github.com/MeKo-Tech/ocrheader/internal/filing"
	"github.com/MeKo-Tech/ocrheader/internal/ocr"
	"github.com/MeKo-Tech/ocrheader/internal/testutil"
	"github.com/MeKo-Tech/ocrheader/internal/validate"
)

// scripted answers highlight reads first, then table reads.
func scripted(highlights int, highlightText, tableText string) (ocr.Engine, *atomic.Int32) {
	var calls atomic.Int32
	engine := ocr.EngineFunc(func(_ context.Context, _ image.Image, opts ocr.Options) (string, error) {
		n := calls.Add(1)
		if opts.PSM != ocr.PSMSingleColumn {
			return "", nil
		}
		if int(n) <= highlights {
			return highlightText, nil
		}
		return tableText, nil
	})
	return engine, &calls
}

func TestClassify_NoHighlightIsOldPlain(t *testing.T) {
	engine, calls := scripted(0, "", "")
	page := testutil.WhitePage(3200, 500)
	testutil.Outline(page, image.Rect(1000, 150, 1800, 220), 2)

	got := NewClassifier(engine).Classify(context.Background(), page)

	assert.Equal(t, document.FormatOldPlain, got.Layout.Format())
	assert.Empty(t, got.Highlights)
	assert.Empty(t, got.Tables, "tables are only read under a highlight")
	assert.Zero(t, calls.Load())
}

func TestClassify_NewFormatFromHighlight(t *testing.T) {
	engine, _ := scripted(1, "CI03000766001\n05-Feb-25", "ST 1x5x0.38HI (MRE)-DF-RHA\n")
	page := testutil.WhitePage(3200, 500)
	testutil.Fill(page, image.Rect(300, 100, 700, 200), testutil.Highlighter)
	testutil.Outline(page, image.Rect(1000, 150, 1800, 220), 2)

	got := NewClassifier(engine).Classify(context.Background(), page)

	require.IsType(t, document.NewWithBarcode{}, got.Layout)
	assert.Equal(t, 3, got.Layout.Format().Type())
	require.Len(t, got.Highlights, 1)
	assert.True(t, got.Highlights[0].Overlaps(image.Rect(300, 100, 700, 200)))

	assert.Equal(t, "CI03000766001", got.Fields.Barcode)
	assert.Equal(t, "05-Feb-25", got.Fields.Date)
	assert.Equal(t, document.VersionNew, got.Fields.Version)

	require.NotEmpty(t, got.Tables)
	assert.Contains(t, got.TableText, "ST 1x5x0.38HI")
	assert.Equal(t, "ST 1x5x0.38HI (MRE)-DF-RHA", got.Fields.ItemName)
	assert.Equal(t, "ST 1x5x0.38HI (MRE)-DF-RHA", got.Layout.Header().ItemName)
}

func TestClassify_ShortBarcodeIsOldWithBarcode(t *testing.T) {
	engine, _ := scripted(1, "AB123 -CX- 05-Feb-25", "")
	page := testutil.WhitePage(3200, 500)
	testutil.Fill(page, image.Rect(300, 100, 700, 200), testutil.Highlighter)

	got := NewClassifier(engine).Classify(context.Background(), page)

	require.IsType(t, document.OldWithBarcode{}, got.Layout)
	assert.Equal(t, 1, got.Layout.Format().Type())
	assert.Equal(t, "CX001", got.Fields.Barcode)
	assert.Equal(t, "CX", got.Fields.ItemName, "no table match keeps the barcode item")
}

func TestClassify_NewFormatWithoutTableIsFiledByBarcode(t *testing.T) {
	engine, _ := scripted(1, "CI03000766001\n05-Feb-25", "")
	page := testutil.WhitePage(3200, 500)
	testutil.Fill(page, image.Rect(300, 100, 700, 200), testutil.Highlighter)

	got := NewClassifier(engine).Classify(context.Background(), page)

	require.IsType(t, document.NewWithBarcode{}, got.Layout)
	assert.Empty(t, got.Tables)
	assert.Equal(t, "CI03000766001", got.Fields.ItemName)
	assert.Equal(t, got.Fields.Barcode, got.Fields.ItemName)

	res := validate.Validate(got.Fields, got.Layout.Format())
	assert.Equal(t, document.StatusSuccess, res.Status, res.Message())
	assert.Equal(t, "CI03000766001-05-Feb-25.pdf", filing.Filename(res.Fields, got.Layout.Format()))
}

func TestClassify_EngineErrorsAreEmptyText(t *testing.T) {
	failing := ocr.EngineFunc(func(context.Context, image.Image, ocr.Options) (string, error) {
		return "", assert.AnError
	})
	page := testutil.WhitePage(3200, 500)
	testutil.Fill(page, image.Rect(300, 100, 700, 200), testutil.Highlighter)

	got := NewClassifier(failing).Classify(context.Background(), page)

	assert.Equal(t, document.FormatOldWithBarcode, got.Layout.Format())
	assert.Equal(t, "001", got.Fields.Barcode)
}

func TestClassify_SpecksAreIgnored(t *testing.T) {
	engine, calls := scripted(0, "", "")
	page := testutil.WhitePage(3200, 500)
	testutil.Fill(page, image.Rect(400, 200, 410, 210), testutil.Highlighter)

	got := NewClassifier(engine).Classify(context.Background(), page)

	assert.Equal(t, document.FormatOldPlain, got.Layout.Format())
	assert.Zero(t, calls.Load())
}

func TestClassify_PageSmallerThanHeader(t *testing.T) {
	engine, _ := scripted(0, "", "")
	got := NewClassifier(engine).Classify(context.Background(), testutil.WhitePage(40, 40))
	assert.Equal(t, document.FormatOldPlain, got.Layout.Format())
}

func TestTableBoxes_FindsWideShortRow(t *testing.T) {
	head := testutil.WhitePage(1200, 300)
	testutil.Outline(head, image.Rect(100, 100, 900, 170), 2)
	testutil.Outline(head, image.Rect(100, 200, 300, 270), 2)

	boxes := tableBoxes(head)
	require.Len(t, boxes, 1)
	assert.Greater(t, boxes[0].Dx(), minTableWidth)
	assert.Greater(t, boxes[0].Dy(), minTableHeight)
	assert.Less(t, boxes[0].Dy(), maxTableHeight)
}
