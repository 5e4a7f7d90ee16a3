// Package server exposes runs, reorganization and the result log over
// HTTP, and streams pipeline events to websocket clients.
package server

import (
	"context"
	"net/http"
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/MeKo-Tech/ocrheader/internal/batch"
	"github.com/MeKo-Tech/ocrheader/internal/events"
	"github.com/MeKo-Tech/ocrheader/internal/filing"
	"github.com/MeKo-Tech/ocrheader/internal/resultlog"
)

// Runner starts and stops runs over the input folder.
type Runner interface {
	Run(ctx context.Context, dir string) (batch.Summary, error)
	Running() bool
	Stop() bool
}

// Organizer reorganizes the success folder.
type Organizer interface {
	Organize(ctx context.Context) (filing.MoveReport, error)
}

// ResultStore reads a day's result records.
type ResultStore interface {
	Read(day time.Time) ([]resultlog.Record, error)
}

// Config holds server configuration.
type Config struct {
	Host       string
	Port       int
	CORSOrigin string
	DataDir    string
	Version    string
	RateLimit  RateLimitConfig
}

// Deps are the collaborators the handlers drive.
type Deps struct {
	Runner    Runner
	Organizer Organizer
	Results   ResultStore
	Events    *events.Bus
}

// Server holds the HTTP server state and dependencies.
type Server struct {
	deps        Deps
	cfg         Config
	rateLimiter *RateLimiter
	now         func() time.Time

	// runs started over HTTP outlive the request that started them
	runCtx context.Context
	cancel context.CancelFunc
	wg     sync.WaitGroup

	mu      sync.Mutex
	lastRun *RunResponse
}

// Response types for API endpoints.
type HealthResponse struct {
	Status  string `json:"status"`
	Version string `json:"version,omitempty"`
	Time    string `json:"time"`
	Running bool   `json:"running"`
}

type RunResponse struct {
	Summary *batch.Summary `json:"summary,omitempty"`
	Error   string         `json:"error,omitempty"`
}

type StatusResponse struct {
	Status string `json:"status"`
}

type OrganizeResponse struct {
	Moves []filing.Move `json:"moves"`
	Count int           `json:"count"`
}

type ResultsResponse struct {
	Date    string             `json:"date"`
	Records []resultlog.Record `json:"records"`
	Count   int                `json:"count"`
}

type ErrorResponse struct {
	Error string `json:"error"`
}

// NewServer creates a server. deps.Events may be nil, which disables /ws.
func NewServer(cfg Config, deps Deps) *Server {
	if cfg.CORSOrigin == "" {
		cfg.CORSOrigin = "*"
	}
	ctx, cancel := context.WithCancel(context.Background())
	s := &Server{
		deps:   deps,
		cfg:    cfg,
		now:    time.Now,
		runCtx: ctx,
		cancel: cancel,
	}
	if cfg.RateLimit.Enabled {
		s.rateLimiter = NewRateLimiter(cfg.RateLimit.RequestsPerMinute, cfg.RateLimit.Burst)
	}
	return s
}

// Close stops an active run and waits for it to finish.
func (s *Server) Close() error {
	if s.deps.Runner != nil {
		s.deps.Runner.Stop()
	}
	s.cancel()
	s.wg.Wait()
	return nil
}

// SetupRoutes configures the HTTP routes.
func (s *Server) SetupRoutes(mux *http.ServeMux) {
	mux.HandleFunc("/health", s.route("health", s.healthHandler, false))
	mux.Handle("/metrics", promhttp.Handler())
	mux.HandleFunc("/ws", s.eventsWebSocketHandler)
	mux.HandleFunc("/run", s.route("run", s.runHandler, true))
	mux.HandleFunc("/stop", s.route("stop", s.stopHandler, true))
	mux.HandleFunc("/organize", s.route("organize", s.organizeHandler, true))
	mux.HandleFunc("/results", s.route("results", s.resultsHandler, false))
	mux.HandleFunc("/runs/last", s.route("last_run", s.lastRunHandler, false))
}

// Handler returns a mux with all routes.
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()
	s.SetupRoutes(mux)
	return mux
}
