package fields

import (
	"regexp"

	"github.com/MeKo-Tech/ocrheader/internal/document"
)

// Barcodes longer than this mark the new document format.
const newBarcodeLength = 10

var (
	reBarcode      = regexp.MustCompile(`\b[A-Z]+\d+\b`)
	reBarcodeDate  = regexp.MustCompile(`\d{2}-[A-Za-z]{3}-\d{2}`)
	reDashedCode   = regexp.MustCompile(`-(\b[A-Z]{2,3}\b)-`)
	reDigitRuns    = regexp.MustCompile(`\d+`)
	reShortNumbers = regexp.MustCompile(`\b\d{3,5}\b`)
)

// ExtractBarcodeInfo reads barcode, date, item, machine and supply values
// from the text of a highlighted header block. A missing or short barcode
// is synthesized from item, machine and supply; a barcode longer than ten
// characters marks the new format and doubles as the item name.
func ExtractBarcodeInfo(blob string) document.Fields {
	blob = normalize(blob)
	var f document.Fields

	if code := reBarcode.FindString(blob); code != "" {
		f.Barcode = fixLeadingOne(code)
	}
	f.Date = reBarcodeDate.FindString(blob)

	if f.Barcode != "" {
		if m := reDashedCode.FindStringSubmatch(blob); m != nil {
			f.ItemName = m[1]
		}
	} else if runs := reDigitRuns.FindAllString(blob, -1); len(runs) >= 3 {
		f.ItemName = "CI" + runs[1] + runs[0] + runs[2]
	}

	nums := reShortNumbers.FindAllString(blob, -1)
	if len(nums) > 0 {
		f.Supply = nums[0]
	}
	if len(nums) > 1 {
		f.Machine = nums[1]
	}

	if len(f.Barcode) < newBarcodeLength {
		f.Barcode = f.ItemName + f.Machine + f.Supply + "001"
	}
	if len(f.Barcode) > newBarcodeLength {
		f.Version = document.VersionNew
		f.ItemName = f.Barcode
	}
	return f
}

// fixLeadingOne turns a '1' misread at index 0, else index 1, into 'I'.
func fixLeadingOne(code string) string {
	b := []byte(code)
	switch {
	case len(b) > 1 && b[0] == '1':
		b[0] = 'I'
	case len(b) > 2 && b[1] == '1':
		b[1] = 'I'
	}
	return string(b)
}
