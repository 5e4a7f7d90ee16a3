package cmd

import (
	"fmt"
	"log/slog"

	"github.com/MeKo-Tech/ocrheader/internal/acquire"
	"github.com/MeKo-Tech/ocrheader/internal/batch"
	"github.com/MeKo-Tech/ocrheader/internal/config"
	"github.com/MeKo-Tech/ocrheader/internal/events"
	"github.com/MeKo-Tech/ocrheader/internal/filing"
	"github.com/MeKo-Tech/ocrheader/internal/header"
	"github.com/MeKo-Tech/ocrheader/internal/ocr"
	"github.com/MeKo-Tech/ocrheader/internal/pipeline"
	"github.com/MeKo-Tech/ocrheader/internal/region"
	"github.com/MeKo-Tech/ocrheader/internal/resultlog"
)

// app holds the components shared by the run, watch and serve commands.
type app struct {
	cfg       *config.Config
	bus       *events.Bus
	journal   *resultlog.DailyLog
	filer     *filing.Engine
	results   *resultlog.CSVSink
	scheduler *batch.Scheduler
}

// newFiler builds the filing engine over the configured roots.
func newFiler(cfg *config.Config) (*filing.Engine, *resultlog.DailyLog) {
	journal := resultlog.NewDailyLog(cfg.Paths.Log)
	roots := filing.Roots{
		Success: cfg.Paths.Success,
		Failed:  cfg.Paths.Failed,
		Backup:  cfg.Paths.Backup,
	}
	return filing.NewEngine(roots, journal), journal
}

// newApp wires the full pipeline. It fails when a folder root is missing
// or the OCR engine cannot be found.
func newApp(cfg *config.Config) (*app, error) {
	if err := cfg.CheckRoots(); err != nil {
		return nil, err
	}
	if err := pipeline.PrepareScratch(cfg.Paths.Scratch); err != nil {
		return nil, err
	}

	tess, err := ocr.NewTesseract(cfg.OCR.Binary, cfg.OCR.Language)
	if err != nil {
		return nil, err
	}
	engine := ocr.NewBreaker(tess, cfg.BreakerConfig())

	raster := acquire.NewPDFRasterizer()
	if cfg.Acquire.Pdftoppm != "" && raster.Pdftoppm == "" {
		raster.Pdftoppm = cfg.Acquire.Pdftoppm
	}

	results, err := resultlog.NewCSVSink(cfg.Paths.Results)
	if err != nil {
		return nil, err
	}
	filer, journal := newFiler(cfg)

	bus := events.NewBus()
	bus.Subscribe(events.NewLogObserver(nil))
	bus.Subscribe(journalObserver(journal))

	proc := pipeline.NewProcessor(pipeline.Deps{
		Rasterizer: raster,
		Classifier: header.NewClassifier(engine),
		Extractor:  region.NewExtractor(engine, cfg.RegionConfig()),
		Filer:      filer,
		Results:    results,
		Events:     bus,
	}, pipeline.Options{
		DPI:        cfg.Acquire.DPI,
		Timeout:    cfg.AcquireTimeout(),
		MaxRetries: cfg.Acquire.MaxRetries,
		ScratchDir: cfg.Paths.Scratch,
		Overlay:    cfg.Debug.Overlay,
	})

	bcfg := batch.DefaultConfig()
	bcfg.MaxFiles = cfg.Limits.MaxFiles
	bcfg.RecommendedFiles = cfg.Limits.RecommendedFiles
	if err := bcfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid batch configuration: %w", err)
	}

	return &app{
		cfg:       cfg,
		bus:       bus,
		journal:   journal,
		filer:     filer,
		results:   results,
		scheduler: batch.NewScheduler(proc, filer, bus, bcfg),
	}, nil
}

// journalObserver copies progress lines into the daily log file.
func journalObserver(journal filing.Journal) events.Observer {
	return events.ObserverFunc(func(e events.Event) {
		p, ok := e.(events.Progress)
		if !ok {
			return
		}
		if err := journal.Append(p.Message); err != nil {
			slog.Warn("Failed to write daily log", "error", err)
		}
	})
}
