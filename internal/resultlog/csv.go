package resultlog

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sync"
	"time"
)

// CSVSink appends records to result_log_{YYYY-MM-DD}.csv in dir.
type CSVSink struct {
	dir string
	mu  sync.Mutex
	now func() time.Time
}

// NewCSVSink creates dir if needed.
func NewCSVSink(dir string) (*CSVSink, error) {
	if err := os.MkdirAll(dir, 0o750); err != nil {
		return nil, fmt.Errorf("failed to create result log folder: %w", err)
	}
	return &CSVSink{dir: dir, now: time.Now}, nil
}

// Dir returns the folder holding the CSV files.
func (s *CSVSink) Dir() string { return s.dir }

// Path returns the CSV file for day.
func (s *CSVSink) Path(day time.Time) string {
	return filepath.Join(s.dir, "result_log_"+day.Format(time.DateOnly)+".csv")
}

// Append writes rec to today's file, adding the header to a new file.
func (s *CSVSink) Append(rec Record) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	path := s.Path(s.now())
	_, statErr := os.Stat(path)
	writeHeader := errors.Is(statErr, os.ErrNotExist)

	f, err := os.OpenFile(path, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0o640) //nolint:gosec // G304: path built from the configured folder
	if err != nil {
		return fmt.Errorf("failed to open result log: %w", err)
	}
	defer func() { _ = f.Close() }()

	w := csv.NewWriter(f)
	if writeHeader {
		if err := w.Write(Header); err != nil {
			return fmt.Errorf("failed to write result log header: %w", err)
		}
	}
	if err := w.Write(rec.row()); err != nil {
		return fmt.Errorf("failed to write result record: %w", err)
	}
	w.Flush()
	return w.Error()
}

// Read returns the records logged on day. A day without a file has none.
func (s *CSVSink) Read(day time.Time) ([]Record, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return ReadCSV(s.Path(day))
}

// ReadCSV parses a result log file, skipping its header.
func ReadCSV(path string) ([]Record, error) {
	f, err := os.Open(path) //nolint:gosec // G304: result log path
	if errors.Is(err, os.ErrNotExist) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to open result log: %w", err)
	}
	defer func() { _ = f.Close() }()

	r := csv.NewReader(f)
	r.FieldsPerRecord = -1
	var out []Record
	first := true
	for {
		row, err := r.Read()
		if errors.Is(err, io.EOF) {
			return out, nil
		}
		if err != nil {
			return nil, fmt.Errorf("failed to parse result log: %w", err)
		}
		if first {
			first = false
			if len(row) > 0 && row[0] == Header[0] {
				continue
			}
		}
		out = append(out, recordFromRow(row))
	}
}
