package cmd

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/MeKo-Tech/ocrheader/internal/acquire"
	"github.com/MeKo-Tech/ocrheader/internal/ocr"
)

// errCheckFailed is returned when a required part of the setup is missing.
var errCheckFailed = errors.New("setup check failed")

// checkCmd verifies that the external tools and folders are in place.
var checkCmd = &cobra.Command{
	Use:   "check",
	Short: "Check the OCR engine, renderer and folder setup",
	Long: `Check that everything a run needs is in place:
- the tesseract binary is on PATH
- pdftoppm is available for pages without an embedded scan (optional)
- every folder root is configured and exists`,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg := GetConfig()
		out := cmd.OutOrStdout()
		failed := false

		if t, err := ocr.NewTesseract(cfg.OCR.Binary, cfg.OCR.Language); err != nil {
			_, _ = fmt.Fprintf(out, "FAIL  OCR engine: %v\n", err)
			failed = true
		} else {
			_, _ = fmt.Fprintf(out, "OK    OCR engine: %s (%s)\n", t.Binary, t.Language)
		}

		if r := acquire.NewPDFRasterizer(); r.Pdftoppm != "" {
			_, _ = fmt.Fprintf(out, "OK    renderer: %s\n", r.Pdftoppm)
		} else {
			_, _ = fmt.Fprintln(out, "WARN  renderer: pdftoppm not found, only embedded scans can be read")
		}

		if err := cfg.CheckRoots(); err != nil {
			_, _ = fmt.Fprintf(out, "FAIL  folders: %v\n", err)
			failed = true
		} else {
			_, _ = fmt.Fprintln(out, "OK    folders")
		}

		if failed {
			return errCheckFailed
		}
		return nil
	},
}

func init() {
	rootCmd.AddCommand(checkCmd)
}
