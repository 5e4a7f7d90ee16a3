// Package pipeline runs one scanned PDF through rasterization, header
// classification, field extraction, validation and filing.
package pipeline

import (
	"context"
	"errors"
	"fmt"
	"image"
	"log/slog"
	"path/filepath"
	"time"

	"github.com/MeKo-Tech/ocrheader/internal/acquire"
	"github.com/MeKo-Tech/ocrheader/internal/document"
	"github.com/MeKo-Tech/ocrheader/internal/events"
	"github.com/MeKo-Tech/ocrheader/internal/fields"
	"github.com/MeKo-Tech/ocrheader/internal/filing"
	"github.com/MeKo-Tech/ocrheader/internal/header"
	"github.com/MeKo-Tech/ocrheader/internal/metrics"
	"github.com/MeKo-Tech/ocrheader/internal/region"
	"github.com/MeKo-Tech/ocrheader/internal/resultlog"
	"github.com/MeKo-Tech/ocrheader/internal/validate"
)

// Failure messages recorded for acquisition errors.
const (
	MessageCorrupted = "PDF is corrupted or unable to open the file or this file is not a pdf file."
	MessageGeneric   = "An error occurred during processing."
)

// Classifier decides the header layout of a page.
type Classifier interface {
	Classify(ctx context.Context, page image.Image) header.Classification
}

// Extractor reads the ruled table of an old-format page.
type Extractor interface {
	Analyze(ctx context.Context, page image.Image) region.Analysis
}

// Filer moves a validated record into the destination folders.
type Filer interface {
	File(ctx context.Context, rec *document.Record) filing.Outcome
}

// ResultSink stores one result record per processed file.
type ResultSink interface {
	Append(rec resultlog.Record) error
}

// Deps are the collaborators of a Processor.
type Deps struct {
	Rasterizer acquire.Rasterizer
	Classifier Classifier
	Extractor  Extractor
	Filer      Filer
	Results    ResultSink
	Events     events.Observer
}

// Options tune a Processor.
type Options struct {
	DPI        int
	Timeout    time.Duration
	MaxRetries int
	// ScratchDir receives the page image of every document; empty disables it.
	ScratchDir string
	// Overlay also saves the page with detected cells drawn in.
	Overlay bool
}

// Outcome is the result of processing one file.
type Outcome struct {
	Path      string
	Status    document.Status
	Format    document.Format
	Fields    document.Fields
	Message   string
	Decision  document.FilingDecision
	Cancelled bool
	Err       error
}

// Processor handles single documents. It is safe for concurrent use; all
// destination mutations are serialized by the Filer.
type Processor struct {
	deps Deps
	opts Options
	now  func() time.Time
}

// NewProcessor wires deps. A nil Events observer discards events.
func NewProcessor(deps Deps, opts Options) *Processor {
	if deps.Events == nil {
		deps.Events = events.Discard
	}
	if opts.DPI <= 0 {
		opts.DPI = acquire.DefaultDPI
	}
	if opts.Timeout <= 0 {
		opts.Timeout = acquire.DefaultTimeout
	}
	if opts.MaxRetries <= 0 {
		opts.MaxRetries = acquire.DefaultMaxRetries
	}
	return &Processor{deps: deps, opts: opts, now: time.Now}
}

// Process runs path through the pipeline. Every outcome except
// cancellation produces one result record, one filing and one Completed
// event; errors are contained here and never returned to the scheduler.
func (p *Processor) Process(ctx context.Context, runID, path string) Outcome {
	if ctx.Err() != nil {
		p.progress(runID, "Task canceled for: "+path)
		return Outcome{Path: path, Cancelled: true, Err: ctx.Err()}
	}

	stamp := filing.Stamp(p.now())
	p.progress(runID, fmt.Sprintf("%s - Processing: %s", stamp, path))
	before := readMemory()
	start := time.Now()

	res, attempts := acquire.WithRetry(ctx, p.deps.Rasterizer, path, acquire.RetryOptions{
		DPI:        p.opts.DPI,
		Timeout:    p.opts.Timeout,
		MaxRetries: p.opts.MaxRetries,
		OnTimeout: func(attempt, maxRetries int) {
			p.progress(runID, "Timeout: Failed to process "+path)
			p.progress(runID, fmt.Sprintf("Retry %d/%d for %s", attempt, maxRetries, path))
			if attempt == maxRetries {
				p.progress(runID, fmt.Sprintf("Max retries reached for %s. Marking as failed.", path))
				return
			}
			metrics.IncRasterRetry()
		},
	})
	metrics.ObserveStage("rasterize", start)

	var out Outcome
	switch res.Kind {
	case acquire.TimedOut:
		out = p.fail(ctx, runID, stamp, path, fmt.Sprintf("PDF to image conversion timed out after %d attempts", attempts))
	case acquire.ConversionFailed:
		if errors.Is(res.Err, context.Canceled) {
			p.progress(runID, "Task canceled for: "+path)
			return Outcome{Path: path, Cancelled: true, Err: res.Err}
		}
		slog.Error("Failed to rasterize PDF", "file", path, "error", res.Err)
		msg := MessageGeneric
		if acquire.IsCorrupted(res) {
			msg = MessageCorrupted
		}
		out = p.fail(ctx, runID, stamp, path, msg)
	default:
		out = p.extract(ctx, runID, stamp, path, res.Image)
	}

	metrics.ObserveStage("total", start)
	slog.Info("Processed document",
		"file", filepath.Base(path),
		"status", out.Status.String(),
		"format", out.Format.String(),
		"duration", time.Since(start).Round(time.Millisecond),
		"memory_mb", fmt.Sprintf("%.2f", memoryUsedMB(before, readMemory())))
	return out
}

// extract classifies the page, reads its fields, validates and files it.
func (p *Processor) extract(ctx context.Context, runID, stamp, path string, page image.Image) Outcome {
	p.saveScratch(stamp, page)

	start := time.Now()
	cls := p.deps.Classifier.Classify(ctx, page)
	metrics.ObserveStage("classify", start)

	rec := document.NewRecord(path)
	rec.Layout = cls.Layout
	if rec.Format().Type() == 1 {
		start = time.Now()
		analysis := p.deps.Extractor.Analyze(ctx, page)
		metrics.ObserveStage("extract", start)
		p.saveOverlay(stamp, page, analysis)

		rec.Fields = fields.ParseRegions(analysis.Regions)
		if rec.Format() == document.FormatOldWithBarcode {
			h := cls.Layout.Header()
			rec.Fields.Barcode, rec.Fields.Machine, rec.Fields.Supply = h.Barcode, h.Machine, h.Supply
		}
	} else {
		rec.Fields = cls.Layout.Header()
	}

	validate.Apply(rec, validate.Validate(rec.Fields, rec.Format()))
	slog.Debug("Extracted fields", "file", path, "fields", rec.Fields, "status", rec.Status.String())

	p.record(path, &rec.Fields, rec.Status, rec.Message())
	return p.file(ctx, runID, stamp, rec)
}

// fail files path as failed with message. Nothing was extracted, so the
// record carries the unknown file name and no data.
func (p *Processor) fail(ctx context.Context, runID, stamp, path, message string) Outcome {
	rec := document.NewRecord(path)
	rec.Status = document.StatusFailed
	rec.AddReason(message)

	p.record(path, nil, rec.Status, message)
	out := p.file(ctx, runID, stamp, rec)
	p.progress(runID, fmt.Sprintf("%s - Error processing %s: %s", stamp, path, message))
	return out
}

// file hands rec to the filer. Filing is not interrupted by a stop request
// once a document got this far.
func (p *Processor) file(ctx context.Context, runID, stamp string, rec *document.Record) Outcome {
	start := time.Now()
	res := p.deps.Filer.File(context.WithoutCancel(ctx), rec)
	metrics.ObserveStage("file", start)
	for _, m := range res.Report.Moves {
		metrics.AddReorganizeMove(m.Pass)
	}

	success := rec.Status == document.StatusSuccess
	metrics.ObserveDocument(rec.Format().String(), success)
	p.deps.Events.Notify(events.Completed{
		RunID:   runID,
		Path:    rec.SourcePath,
		Success: success,
		Message: rec.Message(),
	})
	if res.Err != nil {
		p.progress(runID, fmt.Sprintf("%s - Error processing %s: %v", stamp, rec.SourcePath, res.Err))
	}

	return Outcome{
		Path:     rec.SourcePath,
		Status:   rec.Status,
		Format:   rec.Format(),
		Fields:   rec.Fields,
		Message:  rec.Message(),
		Decision: res.Decision,
		Err:      res.Err,
	}
}

func (p *Processor) record(path string, f *document.Fields, status document.Status, message string) {
	if p.deps.Results == nil {
		return
	}
	if err := p.deps.Results.Append(resultlog.NewRecord(path, f, status, message, p.now())); err != nil {
		slog.Error("Failed to write result record", "file", path, "error", err)
	}
}

func (p *Processor) progress(runID, message string) {
	p.deps.Events.Notify(events.Progress{RunID: runID, Message: message, Time: p.now()})
}
