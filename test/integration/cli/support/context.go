// Package support holds the step definitions of the filing feature suite.
package support

import (
	"context"
	"fmt"
	"image"
	"os"
	"path/filepath"
	"sync"

	"github.com/MeKo-Tech/ocrheader/internal/acquire"
	"github.com/MeKo-Tech/ocrheader/internal/batch"
	"github.com/MeKo-Tech/ocrheader/internal/document"
	"github.com/MeKo-Tech/ocrheader/internal/events"
	"github.com/MeKo-Tech/ocrheader/internal/filing"
	"github.com/MeKo-Tech/ocrheader/internal/header"
	"github.com/MeKo-Tech/ocrheader/internal/pipeline"
	"github.com/MeKo-Tech/ocrheader/internal/region"
	"github.com/MeKo-Tech/ocrheader/internal/resultlog"
	"github.com/MeKo-Tech/ocrheader/internal/testutil"
)

// scan is what the scripted OCR reads from one input file.
type scan struct {
	layout  document.Layout
	regions []string
}

// TestContext holds the state of one scenario.
type TestContext struct {
	TempDir string
	Roots   filing.Roots
	Data    string
	Log     string
	Results string

	mu    sync.Mutex
	scans map[string]scan
	pages map[image.Image]scan

	messages []string
	summary  batch.Summary
	runErr   error
	report   filing.MoveReport
	filer    *filing.Engine
	sink     *resultlog.CSVSink
}

// NewTestContext creates the folder roots under a fresh temp directory.
func NewTestContext() (*TestContext, error) {
	tempDir, err := os.MkdirTemp("", "ocrheader-features-*")
	if err != nil {
		return nil, fmt.Errorf("failed to create temp directory: %w", err)
	}
	tc := &TestContext{
		TempDir: tempDir,
		Roots: filing.Roots{
			Success: filepath.Join(tempDir, "success"),
			Failed:  filepath.Join(tempDir, "failed"),
			Backup:  filepath.Join(tempDir, "backup"),
		},
		Data:    filepath.Join(tempDir, "data"),
		Log:     filepath.Join(tempDir, "log"),
		Results: filepath.Join(tempDir, "results"),
		scans:   map[string]scan{},
		pages:   map[image.Image]scan{},
	}
	for _, dir := range []string{tc.Roots.Success, tc.Roots.Failed, tc.Roots.Backup, tc.Data, tc.Log} {
		if err := os.MkdirAll(dir, 0o750); err != nil {
			return nil, err
		}
	}
	tc.sink, err = resultlog.NewCSVSink(tc.Results)
	if err != nil {
		return nil, err
	}
	tc.filer = filing.NewEngine(tc.Roots, resultlog.NewDailyLog(tc.Log))
	return tc, nil
}

// Cleanup removes the scenario's folders.
func (tc *TestContext) Cleanup() error {
	return os.RemoveAll(tc.TempDir)
}

// Notify records progress lines.
func (tc *TestContext) Notify(e events.Event) {
	if p, ok := e.(events.Progress); ok {
		tc.mu.Lock()
		tc.messages = append(tc.messages, p.Message)
		tc.mu.Unlock()
	}
}

// rasterize renders a synthetic page for the file and remembers which
// scan it shows.
func (tc *TestContext) rasterize(_ context.Context, path string, _ int) (image.Image, error) {
	tc.mu.Lock()
	defer tc.mu.Unlock()
	s, ok := tc.scans[filepath.Base(path)]
	if !ok {
		return nil, acquire.ErrCorrupted
	}
	var spec testutil.HeaderSpec
	if s.layout.Format() == document.FormatNewWithBarcode {
		spec = testutil.NewHeader()
	} else {
		spec = testutil.OldHeader(s.regions...)
	}
	page := testutil.HeaderPage(spec)
	tc.pages[page] = s
	return page, nil
}

func (tc *TestContext) scanOf(page image.Image) scan {
	tc.mu.Lock()
	defer tc.mu.Unlock()
	return tc.pages[page]
}

type classifier struct{ tc *TestContext }

func (c classifier) Classify(_ context.Context, page image.Image) header.Classification {
	return header.Classification{Layout: c.tc.scanOf(page).layout}
}

type extractor struct{ tc *TestContext }

func (e extractor) Analyze(_ context.Context, page image.Image) region.Analysis {
	var a region.Analysis
	for i, text := range e.tc.scanOf(page).regions {
		a.Regions = append(a.Regions, document.RegionText{Ordinal: i + 1, Text: text})
	}
	return a
}

// scheduler wires the real processor, filer and result log around the
// scripted OCR.
func (tc *TestContext) scheduler() *batch.Scheduler {
	proc := pipeline.NewProcessor(pipeline.Deps{
		Rasterizer: acquire.RasterizerFunc(tc.rasterize),
		Classifier: classifier{tc},
		Extractor:  extractor{tc},
		Filer:      tc.filer,
		Results:    tc.sink,
		Events:     tc,
	}, pipeline.Options{})
	return batch.NewScheduler(proc, tc.filer, tc, batch.DefaultConfig())
}
