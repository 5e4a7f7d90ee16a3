package pipeline

import (
	"fmt"
	"image"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/disintegration/imaging"

	"github.com/MeKo-Tech/ocrheader/internal/region"
)

// PrepareScratch empties dir and recreates it.
func PrepareScratch(dir string) error {
	if err := os.RemoveAll(dir); err != nil {
		return fmt.Errorf("failed to clear scratch folder: %w", err)
	}
	if err := os.MkdirAll(dir, 0o750); err != nil {
		return fmt.Errorf("failed to create scratch folder: %w", err)
	}
	return nil
}

// ScratchPath is where the page image for stamp is written.
func ScratchPath(dir, stamp string) string {
	return filepath.Join(dir, "image_"+stamp+".jpg")
}

func (p *Processor) saveScratch(stamp string, page image.Image) {
	if p.opts.ScratchDir == "" {
		return
	}
	if err := imaging.Save(page, ScratchPath(p.opts.ScratchDir, stamp)); err != nil {
		slog.Warn("Failed to save page image", "error", err)
	}
}

func (p *Processor) saveOverlay(stamp string, page image.Image, a region.Analysis) {
	if p.opts.ScratchDir == "" || !p.opts.Overlay {
		return
	}
	path := filepath.Join(p.opts.ScratchDir, "image_"+stamp+"_cells.jpg")
	if err := imaging.Save(region.Overlay(page, a), path); err != nil {
		slog.Warn("Failed to save cell overlay", "error", err)
	}
}
