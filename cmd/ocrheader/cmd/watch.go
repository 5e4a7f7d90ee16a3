package cmd

import (
	"errors"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/MeKo-Tech/ocrheader/internal/batch"
)

// watchCmd runs the input folder whenever files arrive.
var watchCmd = &cobra.Command{
	Use:   "watch",
	Short: "Process the input folder whenever files arrive",
	Long: `Watch DATA_PATH and start a run whenever new files appear. The folder is
also polled on a cron schedule, so files copied while a run was active are
picked up afterwards.

Examples:
  ocrheader watch
  ocrheader watch --schedule "@every 30s" --notify=false`,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg := GetConfig()

		schedule := cfg.Watch.Schedule
		if cmd.Flags().Changed("schedule") {
			schedule, _ = cmd.Flags().GetString("schedule")
		}
		notify := cfg.Watch.Notify
		if cmd.Flags().Changed("notify") {
			notify, _ = cmd.Flags().GetBool("notify")
		}

		a, err := newApp(cfg)
		if err != nil {
			return err
		}

		ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
		defer stop()

		w := batch.NewWatcher(a.scheduler, cfg.Paths.Data, schedule, notify).
			OnRun(func(sum batch.Summary, err error) {
				if err != nil && !errors.Is(err, batch.ErrBusy) {
					slog.Error("Run failed", "error", err)
					return
				}
				slog.Info("Run summary", "run_id", sum.RunID, "succeeded", sum.Succeeded,
					"failed", sum.Failed, "skipped", sum.Skipped, "rejected", len(sum.Rejected))
			})
		return w.Start(ctx)
	},
}

func init() {
	rootCmd.AddCommand(watchCmd)
	watchCmd.Flags().String("schedule", batch.DefaultSchedule, "cron schedule for polling the input folder")
	watchCmd.Flags().Bool("notify", true, "start a run as soon as files arrive")
}
