package cmd

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"
)

// organizeCmd reorganizes the success folder without processing anything.
var organizeCmd = &cobra.Command{
	Use:   "organize",
	Short: "Sort loose files in the success folder into model and date folders",
	Long: `Move the files lying at the top of SUCCESS_PATH into model/date folders.
Files that match no pattern or folder end up in the Error folder. Running it
again on an organized folder moves nothing.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg := GetConfig()
		if cfg.Paths.Success == "" {
			return errors.New("SUCCESS_PATH is not set")
		}
		filer, _ := newFiler(cfg)

		report, err := filer.Organize(cmd.Context())
		if err != nil {
			return err
		}
		out := cmd.OutOrStdout()
		for _, m := range report.Moves {
			_, _ = fmt.Fprintf(out, "%s -> %s\n", m.From, m.To)
		}
		_, _ = fmt.Fprintf(out, "%d file(s) moved\n", report.Len())
		return nil
	},
}

func init() {
	rootCmd.AddCommand(organizeCmd)
}
