// Package document holds the per-file working state that flows through the
// header extraction pipeline.
package document

import (
	"image"
	"path/filepath"
	"strings"
)

// Format is the header layout family of a scanned document.
type Format int

const (
	FormatOldPlain Format = iota
	FormatOldWithBarcode
	FormatNewWithBarcode
)

// Type returns the numeric document type used when naming and filing:
// 1 for both old layouts, 3 for the new barcode layout.
func (f Format) Type() int {
	if f == FormatNewWithBarcode {
		return 3
	}
	return 1
}

func (f Format) String() string {
	switch f {
	case FormatOldWithBarcode:
		return "old_with_barcode"
	case FormatNewWithBarcode:
		return "new_with_barcode"
	default:
		return "old_plain"
	}
}

// VersionNew marks fields derived from a long barcode.
const VersionNew = "new"

// Fields are the header values recovered from OCR text. Empty means unset.
type Fields struct {
	DocumentID string `json:"document_id"`
	Date       string `json:"date"`
	ItemName   string `json:"item_name"`
	Barcode    string `json:"barcode,omitempty"`
	Machine    string `json:"machine,omitempty"`
	Supply     string `json:"supply,omitempty"`
	Version    string `json:"version,omitempty"`
}

// RegionText is one OCR'd rectangle of a page. Ordinal starts at 1 and
// follows discovery order.
type RegionText struct {
	Ordinal int             `json:"ordinal"`
	Box     image.Rectangle `json:"box"`
	Text    string          `json:"text"`
}

// Status is the terminal verdict of validation.
type Status bool

const (
	StatusFailed  Status = false
	StatusSuccess Status = true
)

func (s Status) String() string {
	if s {
		return "Success"
	}
	return "Failed"
}

// Record is the working state of one PDF from intake to filing.
type Record struct {
	SourcePath string
	Layout     Layout
	Fields     Fields
	Status     Status
	reasons    []string
}

// NewRecord starts a record for the PDF at path.
func NewRecord(path string) *Record {
	return &Record{SourcePath: path, Layout: OldPlain{}}
}

// Format returns the record's layout format.
func (r *Record) Format() Format {
	if r.Layout == nil {
		return FormatOldPlain
	}
	return r.Layout.Format()
}

// AddReason appends a human-readable failure or warning reason.
func (r *Record) AddReason(reason string) {
	r.reasons = append(r.reasons, reason)
}

// Reasons returns a copy of the reasons collected so far.
func (r *Record) Reasons() []string {
	return append([]string(nil), r.reasons...)
}

// Message joins the reasons with "; ".
func (r *Record) Message() string {
	return strings.Join(r.reasons, "; ")
}

// FilingDecision is where a validated record ends up on disk.
type FilingDecision struct {
	DestinationFolder string `json:"destination_folder"`
	FinalFilename     string `json:"final_filename"`
}

// Path joins folder and filename.
func (d FilingDecision) Path() string {
	return filepath.Join(d.DestinationFolder, d.FinalFilename)
}
