package cmd

import (
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/MeKo-Tech/ocrheader/internal/batch"
)

// runCmd processes the input folder once.
var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Process every PDF in the input folder once",
	Long: `Process every PDF in DATA_PATH, file the results into the success and
failed folders, and print a summary.

Ctrl-C stops the run after the files already in progress have finished.

Examples:
  ocrheader run
  ocrheader run --format json`,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg := GetConfig()
		format, _ := cmd.Flags().GetString("format")

		a, err := newApp(cfg)
		if err != nil {
			return err
		}

		ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
		defer stop()

		sum, err := a.scheduler.Run(ctx, cfg.Paths.Data)
		if err != nil {
			return err
		}
		return printSummary(cmd, sum, format)
	},
}

func printSummary(cmd *cobra.Command, sum batch.Summary, format string) error {
	out, err := batch.FormatSummary(sum, format)
	if err != nil {
		return err
	}
	_, err = fmt.Fprintln(cmd.OutOrStdout(), out)
	return err
}

func init() {
	rootCmd.AddCommand(runCmd)
	runCmd.Flags().StringP("format", "f", "text", "summary format (text, json, csv)")
}

