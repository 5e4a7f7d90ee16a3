// Package ocr wraps the text recognition engine behind a small interface.
// The pipeline treats recognition as a black box: image in, text out.
package ocr

import (
	"context"
	"errors"
	"image"
)

// Page segmentation modes used by the header pipeline.
const (
	PSMSingleColumn = 4
	PSMSingleBlock  = 6
)

// OEMLSTM selects the neural-net engine only.
const OEMLSTM = 1

// ErrEngineUnavailable is returned when the recognition binary cannot be found.
var ErrEngineUnavailable = errors.New("ocr engine unavailable")

// Options select how a single image is recognized. A zero OEM leaves the
// engine default in place.
type Options struct {
	PSM int
	OEM int
}

// Engine recognizes text in an image.
type Engine interface {
	Recognize(ctx context.Context, img image.Image, opts Options) (string, error)
}

// EngineFunc adapts a plain function to Engine.
type EngineFunc func(ctx context.Context, img image.Image, opts Options) (string, error)

// Recognize calls f.
func (f EngineFunc) Recognize(ctx context.Context, img image.Image, opts Options) (string, error) {
	return f(ctx, img, opts)
}
