package fields

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/MeKo-Tech/ocrheader/internal/document"
)

func TestExtractBarcodeInfo(t *testing.T) {
	tests := []struct {
		name string
		blob string
		want document.Fields
	}{
		{
			name: "printed long barcode",
			blob: "CI03000766001\n05-Feb-25\n",
			want: document.Fields{
				Barcode:  "CI03000766001",
				ItemName: "CI03000766001",
				Date:     "05-Feb-25",
				Version:  document.VersionNew,
			},
		},
		{
			name: "one misread as I",
			blob: "C10300076600 12-Mar-25",
			want: document.Fields{
				Barcode:  "CI0300076600",
				ItemName: "CI0300076600",
				Date:     "12-Mar-25",
				Version:  document.VersionNew,
			},
		},
		{
			name: "short barcode with dashed code",
			blob: "AB12345 -CX- 05-Feb-25",
			want: document.Fields{
				Barcode:  "CX001",
				ItemName: "CX",
				Date:     "05-Feb-25",
			},
		},
		{
			name: "synthesized from numbers",
			blob: "Machine 030 Supply 00766 Lot 12",
			want: document.Fields{
				Barcode:  "CI007660301200766030001",
				ItemName: "CI007660301200766030001",
				Machine:  "00766",
				Supply:   "030",
				Version:  document.VersionNew,
			},
		},
		{
			name: "empty text",
			blob: "",
			want: document.Fields{Barcode: "001"},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, ExtractBarcodeInfo(tt.blob))
		})
	}
}

func TestExtractBarcodeInfo_NewFormatType(t *testing.T) {
	f := ExtractBarcodeInfo("CI03000766001\n05-Feb-25")
	assert.Equal(t, 3, document.LayoutFor(true, f).Format().Type())
}
