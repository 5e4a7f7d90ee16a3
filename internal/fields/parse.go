// Package fields turns raw OCR text into header fields: document id, date,
// item name and the barcode-derived values of the new header format.
package fields

import (
	"regexp"
	"strings"

	"golang.org/x/text/unicode/norm"

	"github.com/MeKo-Tech/ocrheader/internal/document"
)

// minRetryLength is the length under which document id and item name are
// looked up again in later regions.
const minRetryLength = 5

var (
	reDocumentID = regexp.MustCompile(`\b[A-Z0-9]+(?:-[A-Z0-9]+)+(?:/\d+)?\b`)
	reDate       = regexp.MustCompile(`\b(\d{1,2})[-/]([A-Za-z]{3,})[-/]?(\d{2})\b`)
)

// ParseRegions scans regions in order and keeps the first acceptable match
// for each of document id, date and item name.
func ParseRegions(regions []document.RegionText) document.Fields {
	var f document.Fields
	for _, r := range regions {
		text := normalize(r.Text)

		if len(f.DocumentID) < minRetryLength {
			if raw := reDocumentID.FindString(text); raw != "" {
				f.DocumentID = FormatDocumentID(strings.ReplaceAll(raw, ".", "-"))
			}
		}

		if f.Date == "" {
			f.Date = ParseDate(text)
		}

		if len(f.ItemName) < minRetryLength {
			if raw := reItemName.FindString(braces.Replace(text)); raw != "" {
				f.ItemName = FormatDocumentName(raw)
			}
		}
	}
	return f
}

// ParseDate finds a day-month-year date such as "19-Aug-24" or "5/August24"
// and returns it as "19/Aug/24". It returns "" when there is none.
func ParseDate(text string) string {
	m := reDate.FindStringSubmatch(text)
	if m == nil {
		return ""
	}
	return m[1] + "/" + m[2][:3] + "/" + m[3]
}

func normalize(s string) string {
	return norm.NFKC.String(s)
}
