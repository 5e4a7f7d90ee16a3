package ocr

import (
	"bytes"
	"context"
	"fmt"
	"image"
	"image/png"
	"os"
	"os/exec"
	"strconv"
	"strings"
)

// Tesseract runs the tesseract command line tool on a temporary PNG.
type Tesseract struct {
	Binary   string
	Language string
}

// NewTesseract resolves the binary on PATH.
func NewTesseract(binary, language string) (*Tesseract, error) {
	if binary == "" {
		binary = "tesseract"
	}
	path, err := exec.LookPath(binary)
	if err != nil {
		return nil, fmt.Errorf("%w: %s: %w", ErrEngineUnavailable, binary, err)
	}
	return &Tesseract{Binary: path, Language: language}, nil
}

// Recognize implements Engine.
func (t *Tesseract) Recognize(ctx context.Context, img image.Image, opts Options) (string, error) {
	if img == nil || img.Bounds().Empty() {
		return "", nil
	}
	f, err := os.CreateTemp("", "ocrheader-*.png")
	if err != nil {
		return "", fmt.Errorf("failed to create temp image: %w", err)
	}
	tmp := f.Name()
	defer func() { _ = os.Remove(tmp) }()

	if err := png.Encode(f, img); err != nil {
		_ = f.Close()
		return "", fmt.Errorf("failed to encode temp image: %w", err)
	}
	if err := f.Close(); err != nil {
		return "", fmt.Errorf("failed to write temp image: %w", err)
	}

	cmd := exec.CommandContext(ctx, t.Binary, t.args(tmp, opts)...) //nolint:gosec // G204: binary resolved via LookPath
	var stderr bytes.Buffer
	cmd.Stderr = &stderr
	out, err := cmd.Output()
	if err != nil {
		if ctx.Err() != nil {
			return "", ctx.Err()
		}
		return "", fmt.Errorf("tesseract failed: %w: %s", err, strings.TrimSpace(stderr.String()))
	}
	return string(out), nil
}

func (t *Tesseract) args(input string, opts Options) []string {
	args := []string{input, "stdout"}
	if t.Language != "" {
		args = append(args, "-l", t.Language)
	}
	if opts.PSM > 0 {
		args = append(args, "--psm", strconv.Itoa(opts.PSM))
	}
	if opts.OEM > 0 {
		args = append(args, "--oem", strconv.Itoa(opts.OEM))
	}
	return args
}
