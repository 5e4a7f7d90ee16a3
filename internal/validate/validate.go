// Package validate decides whether the fields recovered from a document are
// complete enough to file it under a generated name.
package validate

import (
	"strings"

	"github.com/MeKo-Tech/ocrheader/internal/document"
	"github.com/MeKo-Tech/ocrheader/internal/fields"
	"github.com/MeKo-Tech/ocrheader/internal/filing"
)

// Failure reasons.
const (
	ReasonNoDocumentID = "Cannot get document ID"
	ReasonNoDate       = "Cannot get date"
	ReasonNoHeader     = "Cannot get document header"
)

// Result is the verdict on a field set. Fields holds the sanitized values.
type Result struct {
	Status  document.Status
	Reasons []string
	Fields  document.Fields
}

// Message joins the reasons with "; ".
func (r Result) Message() string {
	return strings.Join(r.Reasons, "; ")
}

// Validate checks f for a document of the given format. A missing date is
// reported but does not fail the document. Document ids are only required
// for the old formats, whose names are built from them.
func Validate(f document.Fields, format document.Format) Result {
	res := Result{Status: document.StatusSuccess, Fields: f}

	if len(f.DocumentID) < fields.MinDocumentIDLength {
		if format.Type() == 1 {
			res.Status = document.StatusFailed
			res.Reasons = append(res.Reasons, ReasonNoDocumentID)
		}
	} else {
		res.Fields.DocumentID = filing.Sanitize(f.DocumentID)
	}

	if f.Date == "" {
		res.Reasons = append(res.Reasons, ReasonNoDate)
	} else {
		res.Fields.Date = filing.Sanitize(f.Date)
	}

	if f.ItemName == "" {
		res.Status = document.StatusFailed
		res.Reasons = append(res.Reasons, ReasonNoHeader)
	} else {
		res.Fields.ItemName = filing.Sanitize(f.ItemName)
	}
	return res
}

// Apply records the verdict on rec.
func Apply(rec *document.Record, res Result) {
	rec.Fields = res.Fields
	rec.Status = res.Status
	for _, r := range res.Reasons {
		rec.AddReason(r)
	}
}
