// Package batch schedules runs over the input folder: it sweeps non-PDF
// files, enforces the file limits, splits the PDFs into batches sized from
// available memory and CPUs, and processes each batch in parallel.
package batch

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"path/filepath"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/MeKo-Tech/ocrheader/internal/document"
	"github.com/MeKo-Tech/ocrheader/internal/events"
	"github.com/MeKo-Tech/ocrheader/internal/metrics"
	"github.com/MeKo-Tech/ocrheader/internal/pipeline"
)

var (
	// ErrBusy is returned when a run is started while another is active.
	ErrBusy = errors.New("a run is already in progress")
	// ErrTooManyFiles is returned when the input folder holds more PDFs
	// than Config.MaxFiles.
	ErrTooManyFiles = errors.New("too many files")
)

// Processor handles one file.
type Processor interface {
	Process(ctx context.Context, runID, path string) pipeline.Outcome
}

// Rejecter moves a file that is not eligible for processing aside.
type Rejecter interface {
	Reject(path, message string) error
}

// FileResult is the outcome of one file of a run.
type FileResult struct {
	Path        string `json:"path"`
	Status      string `json:"status"`
	Message     string `json:"message,omitempty"`
	Destination string `json:"destination,omitempty"`
}

// Summary describes a finished run.
type Summary struct {
	RunID     string        `json:"run_id"`
	Files     []FileResult  `json:"files"`
	Rejected  []string      `json:"rejected,omitempty"`
	Batches   int           `json:"batches"`
	BatchSize int           `json:"batch_size"`
	Succeeded int           `json:"succeeded"`
	Failed    int           `json:"failed"`
	Skipped   int           `json:"skipped"`
	Stopped   bool          `json:"stopped"`
	Duration  time.Duration `json:"duration_ns"`
}

// Scheduler runs the input folder through a Processor. One run at a time.
type Scheduler struct {
	cfg      Config
	proc     Processor
	rejecter Rejecter
	events   events.Observer
	now      func() time.Time

	mu     sync.Mutex
	cancel context.CancelFunc
}

// NewScheduler wires a scheduler. obs may be nil.
func NewScheduler(proc Processor, rejecter Rejecter, obs events.Observer, cfg Config) *Scheduler {
	if obs == nil {
		obs = events.Discard
	}
	return &Scheduler{
		cfg:      cfg,
		proc:     proc,
		rejecter: rejecter,
		events:   obs,
		now:      time.Now,
	}
}

// Running reports whether a run is in progress.
func (s *Scheduler) Running() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.cancel != nil
}

// Stop cancels the active run. Files already being processed finish;
// queued files and batches are skipped. It reports whether a run was active.
func (s *Scheduler) Stop() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.cancel == nil {
		return false
	}
	s.cancel()
	return true
}

func (s *Scheduler) begin(ctx context.Context) (context.Context, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.cancel != nil {
		return nil, ErrBusy
	}
	runCtx, cancel := context.WithCancel(ctx)
	s.cancel = cancel
	return runCtx, nil
}

func (s *Scheduler) end() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.cancel != nil {
		s.cancel()
		s.cancel = nil
	}
}

// Run processes the PDFs in dataDir. A stopped run is not an error; the
// summary reports it.
func (s *Scheduler) Run(ctx context.Context, dataDir string) (Summary, error) {
	runCtx, err := s.begin(ctx)
	if err != nil {
		return Summary{}, err
	}
	defer s.end()

	metrics.SetRunActive(true)
	defer metrics.SetRunActive(false)

	start := time.Now()
	sum := Summary{RunID: uuid.NewString()}
	s.progress(sum.RunID, "Starting OCR process...")

	pdfs, others, err := Discover(dataDir)
	if err != nil {
		return sum, err
	}
	sum.Rejected = s.sweep(sum.RunID, others)

	if len(pdfs) > s.cfg.MaxFiles {
		msg := fmt.Sprintf("The folder contains too many PDF files (%d). The maximum allowed is %d. Please reduce the number of files and try again.",
			len(pdfs), s.cfg.MaxFiles)
		s.progress(sum.RunID, msg)
		return sum, fmt.Errorf("%w: %d PDF files, maximum is %d", ErrTooManyFiles, len(pdfs), s.cfg.MaxFiles)
	}
	if len(pdfs) > s.cfg.RecommendedFiles {
		s.progress(sum.RunID, fmt.Sprintf("The folder contains a large number of PDF files (%d). We recommend processing fewer than %d files for better performance.",
			len(pdfs), s.cfg.RecommendedFiles))
	}
	if len(pdfs) == 0 {
		s.progress(sum.RunID, "No files to process.")
		return s.finish(sum, start), nil
	}

	sum.BatchSize = s.cfg.batchSize()
	metrics.SetBatchSize(sum.BatchSize)
	batches := split(pdfs, sum.BatchSize)
	sum.Batches = len(batches)
	slog.Info("Starting run", "run_id", sum.RunID, "files", len(pdfs), "batches", len(batches), "batch_size", sum.BatchSize)

	for i, files := range batches {
		if runCtx.Err() != nil {
			sum.Skipped += len(files)
			continue
		}
		s.progress(sum.RunID, fmt.Sprintf("Processing batch %d/%d...", i+1, len(batches)))
		for _, out := range s.runBatch(runCtx, sum.RunID, files, sum.BatchSize) {
			sum.add(out)
		}
		s.events.Notify(events.BatchDone{RunID: sum.RunID, Index: i + 1, Total: len(batches)})
		s.progress(sum.RunID, fmt.Sprintf("Batch %d completed.", i+1))
	}

	if runCtx.Err() != nil {
		sum.Stopped = true
		s.progress(sum.RunID, "Processing stopped.")
	} else {
		s.progress(sum.RunID, "All files processed.")
	}
	return s.finish(sum, start), nil
}

func (s *Scheduler) finish(sum Summary, start time.Time) Summary {
	sum.Duration = time.Since(start)
	s.events.Notify(events.RunDone{
		RunID:     sum.RunID,
		Processed: sum.Succeeded + sum.Failed,
		Succeeded: sum.Succeeded,
		Failed:    sum.Failed,
		Cancelled: sum.Stopped,
		Duration:  sum.Duration,
	})
	return sum
}

func (sum *Summary) add(out pipeline.Outcome) {
	res := FileResult{Path: out.Path, Message: out.Message}
	switch {
	case out.Cancelled:
		res.Status = "Cancelled"
		sum.Skipped++
	case out.Status == document.StatusSuccess:
		res.Status = out.Status.String()
		res.Destination = out.Decision.Path()
		sum.Succeeded++
	default:
		res.Status = out.Status.String()
		res.Destination = out.Decision.Path()
		sum.Failed++
	}
	sum.Files = append(sum.Files, res)
}

// sweep moves non-PDF files to the failed folder. They are noted in the
// daily log by the rejecter but get no result record: only processed files do.
func (s *Scheduler) sweep(runID string, files []string) []string {
	var moved []string
	for _, path := range files {
		msg := "Non-PDF file moved: " + filepath.Base(path)
		if err := s.rejecter.Reject(path, msg); err != nil {
			s.progress(runID, fmt.Sprintf("Error handling file %s: %v", path, err))
			slog.Error("Failed to move non-PDF file", "file", path, "error", err)
			continue
		}
		metrics.IncRejected()
		s.progress(runID, msg)
		moved = append(moved, path)
	}
	return moved
}

func (s *Scheduler) progress(runID, message string) {
	s.events.Notify(events.Progress{RunID: runID, Message: message, Time: s.now()})
}
