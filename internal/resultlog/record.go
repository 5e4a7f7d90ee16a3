// Package resultlog persists one result record per processed file in a
// per-day CSV, keeps the operator's daily text log and exports a day's
// records to a spreadsheet.
package resultlog

import (
	"encoding/json"
	"path/filepath"
	"time"

	"github.com/MeKo-Tech/ocrheader/internal/document"
	"github.com/MeKo-Tech/ocrheader/internal/filing"
)

// UnknownFileName is recorded when nothing was extracted.
const UnknownFileName = "Unknown.pdf"

// Header is the CSV column order.
var Header = []string{"file_name", "new_file_name", "extracted_data", "status", "error_message", "date_processed"}

// Record is one row of the result log.
type Record struct {
	FileName      string `json:"file_name"`
	NewFileName   string `json:"new_file_name"`
	ExtractedData string `json:"extracted_data"`
	Status        string `json:"status"`
	ErrorMessage  string `json:"error_message"`
	DateProcessed string `json:"date_processed"`
}

// NewRecord builds the row for path. new_file_name is always derived from
// item, id and date, whatever name the file was actually filed under.
func NewRecord(path string, f *document.Fields, status document.Status, message string, now time.Time) Record {
	rec := Record{
		FileName:      filepath.Base(path),
		NewFileName:   UnknownFileName,
		Status:        status.String(),
		DateProcessed: now.Format(time.DateTime),
	}
	if f != nil {
		rec.NewFileName = filing.Sanitize(f.ItemName) + "-" + filing.Sanitize(f.DocumentID) + "-" + filing.Sanitize(f.Date) + ".pdf"
		if data, err := json.Marshal(f); err == nil {
			rec.ExtractedData = string(data)
		}
	}
	if status == document.StatusFailed {
		rec.ErrorMessage = message
	}
	return rec
}

func (r Record) row() []string {
	return []string{r.FileName, r.NewFileName, r.ExtractedData, r.Status, r.ErrorMessage, r.DateProcessed}
}

func recordFromRow(row []string) Record {
	cell := func(i int) string {
		if i < len(row) {
			return row[i]
		}
		return ""
	}
	return Record{
		FileName:      cell(0),
		NewFileName:   cell(1),
		ExtractedData: cell(2),
		Status:        cell(3),
		ErrorMessage:  cell(4),
		DateProcessed: cell(5),
	}
}
