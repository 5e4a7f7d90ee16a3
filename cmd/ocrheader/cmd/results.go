package cmd

import (
	"encoding/json"
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/MeKo-Tech/ocrheader/internal/resultlog"
)

// resultsCmd groups the result log commands.
var resultsCmd = &cobra.Command{
	Use:   "results",
	Short: "Inspect and export the daily result log",
}

var resultsShowCmd = &cobra.Command{
	Use:   "show",
	Short: "Print the result log of a day",
	RunE: func(cmd *cobra.Command, args []string) error {
		records, day, err := readResults(cmd)
		if err != nil {
			return err
		}
		format, _ := cmd.Flags().GetString("format")
		out := cmd.OutOrStdout()
		switch format {
		case "json":
			enc := json.NewEncoder(out)
			enc.SetIndent("", "  ")
			return enc.Encode(records)
		case "", "text":
			if len(records) == 0 {
				_, _ = fmt.Fprintf(out, "No results for %s\n", day.Format(time.DateOnly))
				return nil
			}
			for _, r := range records {
				line := fmt.Sprintf("%s  %-7s %s -> %s", r.DateProcessed, r.Status, r.FileName, r.NewFileName)
				if r.ErrorMessage != "" {
					line += "  (" + r.ErrorMessage + ")"
				}
				_, _ = fmt.Fprintln(out, line)
			}
			return nil
		default:
			return fmt.Errorf("unsupported format: %s", format)
		}
	},
}

var resultsExportCmd = &cobra.Command{
	Use:   "export",
	Short: "Export the result log of a day as an Excel workbook",
	Long: `Export the result log of a day as an Excel workbook.

Examples:
  ocrheader results export
  ocrheader results export --date 2025-02-05 -o february.xlsx`,
	RunE: func(cmd *cobra.Command, args []string) error {
		records, day, err := readResults(cmd)
		if err != nil {
			return err
		}
		output, _ := cmd.Flags().GetString("output")
		if output == "" {
			output = "result_log_" + day.Format(time.DateOnly) + ".xlsx"
		}

		f, err := os.Create(output) //nolint:gosec // G304: user-chosen output path
		if err != nil {
			return fmt.Errorf("failed to create %s: %w", output, err)
		}
		if err := resultlog.WriteXLSX(records, f); err != nil {
			_ = f.Close()
			return err
		}
		if err := f.Close(); err != nil {
			return err
		}
		_, _ = fmt.Fprintf(cmd.OutOrStdout(), "Exported %d record(s) to %s\n", len(records), output)
		return nil
	},
}

func readResults(cmd *cobra.Command) ([]resultlog.Record, time.Time, error) {
	cfg := GetConfig()
	day := time.Now()
	if v, _ := cmd.Flags().GetString("date"); v != "" {
		parsed, err := time.ParseInLocation(time.DateOnly, v, time.Local)
		if err != nil {
			return nil, day, fmt.Errorf("invalid date %q: want YYYY-MM-DD", v)
		}
		day = parsed
	}
	sink, err := resultlog.NewCSVSink(cfg.Paths.Results)
	if err != nil {
		return nil, day, err
	}
	records, err := sink.Read(day)
	return records, day, err
}

func init() {
	rootCmd.AddCommand(resultsCmd)
	resultsCmd.AddCommand(resultsShowCmd, resultsExportCmd)
	resultsCmd.PersistentFlags().String("date", "", "day to read (YYYY-MM-DD, default today)")
	resultsShowCmd.Flags().StringP("format", "f", "text", "output format (text, json)")
	resultsExportCmd.Flags().StringP("output", "o", "", "output file (default result_log_{date}.xlsx)")
}
