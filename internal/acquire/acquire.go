// Package acquire turns page 1 of a PDF into an image under a time budget.
package acquire

import (
	"context"
	"errors"
	"fmt"
	"image"
	"log/slog"
	"strings"
	"time"
)

// Defaults for rasterization.
const (
	DefaultDPI        = 300
	DefaultTimeout    = 10 * time.Second
	DefaultMaxRetries = 3
)

// ErrCorrupted marks a file that does not parse as a PDF.
var ErrCorrupted = errors.New("pdf is corrupted")

// ErrNoImage is returned when page 1 produced no raster.
var ErrNoImage = errors.New("no image on first page")

// Rasterizer renders the first page of a PDF.
type Rasterizer interface {
	FirstPage(ctx context.Context, pdfPath string, dpi int) (image.Image, error)
}

// RasterizerFunc adapts a function to Rasterizer.
type RasterizerFunc func(ctx context.Context, pdfPath string, dpi int) (image.Image, error)

// FirstPage calls f.
func (f RasterizerFunc) FirstPage(ctx context.Context, pdfPath string, dpi int) (image.Image, error) {
	return f(ctx, pdfPath, dpi)
}

// Kind is the outcome of one rasterization attempt.
type Kind int

const (
	OK Kind = iota
	TimedOut
	ConversionFailed
)

func (k Kind) String() string {
	switch k {
	case OK:
		return "ok"
	case TimedOut:
		return "timed_out"
	default:
		return "conversion_failed"
	}
}

// Result is the explicit outcome of Rasterize. Image is set only for OK,
// Err only for ConversionFailed.
type Result struct {
	Kind   Kind
	Image  image.Image
	Err    error
	Reason string
}

// Rasterize runs r in its own goroutine and waits at most timeout for it.
// A rasterizer that overruns is abandoned with its context cancelled.
func Rasterize(ctx context.Context, r Rasterizer, path string, dpi int, timeout time.Duration) Result {
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	if dpi <= 0 {
		dpi = DefaultDPI
	}
	runCtx, cancel := context.WithCancel(ctx)
	defer cancel()

	type outcome struct {
		img image.Image
		err error
	}
	done := make(chan outcome, 1)
	go func() {
		img, err := r.FirstPage(runCtx, path, dpi)
		done <- outcome{img: img, err: err}
	}()

	timer := time.NewTimer(timeout)
	defer timer.Stop()

	select {
	case out := <-done:
		if out.err == nil && out.img == nil {
			out.err = ErrNoImage
		}
		if out.err != nil {
			return Result{Kind: ConversionFailed, Err: out.err, Reason: out.err.Error()}
		}
		return Result{Kind: OK, Image: out.img}
	case <-timer.C:
		return Result{Kind: TimedOut, Reason: fmt.Sprintf("rasterization exceeded %s", timeout)}
	case <-ctx.Done():
		return Result{Kind: ConversionFailed, Err: ctx.Err(), Reason: ctx.Err().Error()}
	}
}

// RetryOptions configure WithRetry. OnTimeout is called after every attempt
// that timed out, with the attempt number.
type RetryOptions struct {
	DPI        int
	Timeout    time.Duration
	MaxRetries int
	OnTimeout  func(attempt, maxRetries int)
}

// WithRetry repeats Rasterize while it times out, up to MaxRetries attempts.
// A conversion failure ends the loop at once. The returned count is the
// number of attempts made.
func WithRetry(ctx context.Context, r Rasterizer, path string, opts RetryOptions) (Result, int) {
	maxRetries := opts.MaxRetries
	if maxRetries <= 0 {
		maxRetries = DefaultMaxRetries
	}

	var res Result
	attempts := 0
	for attempts < maxRetries {
		if err := ctx.Err(); err != nil {
			return Result{Kind: ConversionFailed, Err: err, Reason: err.Error()}, attempts
		}
		attempts++
		res = Rasterize(ctx, r, path, opts.DPI, opts.Timeout)
		if res.Kind != TimedOut {
			return res, attempts
		}
		slog.Warn("Rasterization timed out", "path", path, "attempt", attempts, "max_retries", maxRetries)
		if opts.OnTimeout != nil {
			opts.OnTimeout(attempts, maxRetries)
		}
	}
	return res, attempts
}

var corruptionMarkers = []string{
	"corrupt",
	"not a pdf",
	"malformed",
	"xref",
	"trailer",
	"header",
	"eof",
	"invalid pdf",
}

// IsCorrupted reports whether a conversion failure means the input is not a
// readable PDF, as opposed to a rendering problem.
func IsCorrupted(res Result) bool {
	if res.Kind != ConversionFailed {
		return false
	}
	if errors.Is(res.Err, ErrCorrupted) {
		return true
	}
	reason := strings.ToLower(res.Reason)
	for _, m := range corruptionMarkers {
		if strings.Contains(reason, m) {
			return true
		}
	}
	return false
}
