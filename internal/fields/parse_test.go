package fields

import (
	"image"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/MeKo-Tech/ocrheader/internal/document"
)

func TestParseDate(t *testing.T) {
	assert.Equal(t, "19/Aug/24", ParseDate("Date 19-Aug-24"))
	assert.Equal(t, "5/Aug/24", ParseDate("5/August24"))
	assert.Equal(t, "", ParseDate("no date here"))
}

func TestParseRegions_ScannedTableSample(t *testing.T) {
	regions := []document.RegionText{
		{Ordinal: 1, Box: image.Rect(0, 0, 4000, 300), Text: "yom Bao Me _ eo 7.\n, .- SS-F-PR-ST-047-81-1/3\ni . Mnluvinaszadaunisviwiwudaas ST 1x5x0.38H] (MRF)-DF-RHA"},
		{Ordinal: 1, Text: "}-F-PR-ST-047-81-1/3\n_"},
		{Ordinal: 2, Text: "niuvinaszadaUuNIsviaWIUAAaY ST 1)\n(Check Sheet of Work ST 1x5x0.38\nty"},
		{Ordinal: 3, Text: "Ss\n5x0.38HI (MRF)-DF-RHA\nHI (MRF)-DF-RHA)"},
		{Ordinal: 4, Text: "ie UhluvinasyadaunasviwwiUyaY ST 1x5x0.38HI (MRE)-DF-RHA\n(Check Sheet of Work ST 1x5x0.3GHI (MRF)-DF-RHA)"},
	}

	f := ParseRegions(regions)
	assert.Equal(t, "SS-F-PR-ST-047-81-1/3", f.DocumentID)
	assert.Equal(t, "ST 1x5x0.38HI (MRE)-DF-RHA", f.ItemName)
	assert.Empty(t, f.Date)
}

func TestParseRegions_FirstMatchWins(t *testing.T) {
	regions := []document.RegionText{
		{Ordinal: 1, Text: "issued 19-Aug-24"},
		{Ordinal: 2, Text: "revised 01-Sep-24 SS-F-PR-ST-047-81-1/3"},
		{Ordinal: 3, Text: "SS-F-QC-ST-001-02-1/1 ST 1x4x0.22SHT {J04}-CI-RHA"},
		{Ordinal: 4, Text: "ST 2x2x0.10HT (J12)-CX-RHA"},
	}

	f := ParseRegions(regions)
	assert.Equal(t, "19/Aug/24", f.Date)
	assert.Equal(t, "SS-F-PR-ST-047-81-1/3", f.DocumentID)
	assert.Equal(t, "ST 1x4x0.22SHT (J04)-CI-RHA", f.ItemName)
}

func TestParseRegions_ShortIDIsRetried(t *testing.T) {
	regions := []document.RegionText{
		{Ordinal: 1, Text: "AB-1/2"},
		{Ordinal: 2, Text: "SS-F-PR-ST-047-81-1/3"},
	}
	assert.Equal(t, "SS-F-PR-ST-047-81-1/3", ParseRegions(regions).DocumentID)
}

func TestParseRegions_Empty(t *testing.T) {
	assert.Equal(t, document.Fields{}, ParseRegions(nil))
}

func TestParseRegions_NormalizesFullWidthText(t *testing.T) {
	regions := []document.RegionText{{Ordinal: 1, Text: "ＳＳ-F-PR-ST-047-81-1/3"}}
	assert.Equal(t, "SS-F-PR-ST-047-81-1/3", ParseRegions(regions).DocumentID)
}
