package cmd

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"os"
	"os/signal"
	"strconv"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/MeKo-Tech/ocrheader/internal/config"
	"github.com/MeKo-Tech/ocrheader/internal/server"
	"github.com/MeKo-Tech/ocrheader/internal/version"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the HTTP control server",
	Long: `Start an HTTP server to control runs and read results.

The server provides the following endpoints:
  POST /run       - Start a run over the input folder
  POST /stop      - Stop the active run
  POST /organize  - Reorganize the success folder
  GET  /runs/last - Summary of the last finished run
  GET  /results   - Result log of a day (?date=YYYY-MM-DD&format=json|xlsx)
  GET  /ws        - Live pipeline events
  GET  /health    - Health check endpoint
  GET  /metrics   - Prometheus metrics

Examples:
  ocrheader serve
  ocrheader serve --host 0.0.0.0 --port 3000`,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg := GetConfig()
		settings, grace, err := serverSettings(cmd, cfg)
		if err != nil {
			return err
		}

		a, err := newApp(cfg)
		if err != nil {
			return err
		}
		srv := server.NewServer(settings, server.Deps{
			Runner:    a.scheduler,
			Organizer: a.filer,
			Results:   a.results,
			Events:    a.bus,
		})
		httpServer := &http.Server{
			Addr:              net.JoinHostPort(settings.Host, strconv.Itoa(settings.Port)),
			Handler:           srv.Handler(),
			ReadHeaderTimeout: 5 * time.Second,
		}

		ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
		defer stop()

		serveErr := make(chan error, 1)
		go func() {
			slog.Info("Starting control server", "addr", httpServer.Addr)
			serveErr <- httpServer.ListenAndServe()
		}()

		select {
		case err := <-serveErr:
			if !errors.Is(err, http.ErrServerClosed) {
				_ = srv.Close()
				return fmt.Errorf("control server: %w", err)
			}
		case <-ctx.Done():
			slog.Info("Shutting down control server", "grace", grace)
		}

		shutdownCtx, cancel := context.WithTimeout(context.Background(), grace)
		defer cancel()
		if err := httpServer.Shutdown(shutdownCtx); err != nil {
			slog.Error("HTTP server shutdown failed", "error", err)
		}
		// stops an active run and waits for its files
		if err := srv.Close(); err != nil {
			slog.Error("Control server cleanup failed", "error", err)
		}
		slog.Info("Control server stopped")
		return nil
	},
}

// serverSettings merges the serve flags that were set over the config file.
func serverSettings(cmd *cobra.Command, cfg *config.Config) (server.Config, time.Duration, error) {
	sc := cfg.Server
	flags := cmd.Flags()
	if flags.Changed("host") {
		sc.Host, _ = flags.GetString("host")
	}
	if flags.Changed("port") {
		sc.Port, _ = flags.GetInt("port")
	}
	if flags.Changed("cors-origin") {
		sc.CORSOrigin, _ = flags.GetString("cors-origin")
	}
	if flags.Changed("shutdown-timeout") {
		sc.ShutdownTimeout, _ = flags.GetInt("shutdown-timeout")
	}
	if flags.Changed("rate-limit-enabled") {
		sc.RateLimit.Enabled, _ = flags.GetBool("rate-limit-enabled")
	}
	if flags.Changed("requests-per-minute") {
		sc.RateLimit.RequestsPerMinute, _ = flags.GetInt("requests-per-minute")
	}
	if sc.Port < 1 || sc.Port > 65535 {
		return server.Config{}, 0, fmt.Errorf("invalid port number: %d (must be between 1 and 65535)", sc.Port)
	}

	return server.Config{
		Host:       sc.Host,
		Port:       sc.Port,
		CORSOrigin: sc.CORSOrigin,
		DataDir:    cfg.Paths.Data,
		Version:    version.Version,
		RateLimit: server.RateLimitConfig{
			Enabled:           sc.RateLimit.Enabled,
			RequestsPerMinute: sc.RateLimit.RequestsPerMinute,
			Burst:             sc.RateLimit.Burst,
		},
	}, time.Duration(sc.ShutdownTimeout) * time.Second, nil
}

func init() {
	rootCmd.AddCommand(serveCmd)
	serveCmd.Flags().StringP("host", "H", "localhost", "server host")
	serveCmd.Flags().IntP("port", "p", 8080, "server port")
	serveCmd.Flags().String("cors-origin", "*", "CORS allowed origins")
	serveCmd.Flags().Int("shutdown-timeout", 10, "shutdown timeout in seconds")
	serveCmd.Flags().Bool("rate-limit-enabled", true, "limit control requests per client")
	serveCmd.Flags().Int("requests-per-minute", 30, "maximum control requests per minute per client")
}
