package server

import (
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/MeKo-Tech/ocrheader/internal/batch"
	"github.com/MeKo-Tech/ocrheader/internal/resultlog"
)

const (
	formatJSON = "json"
	formatXLSX = "xlsx"

	xlsxContentType = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"
)

// healthHandler returns server health status.
func (s *Server) healthHandler(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	response := HealthResponse{
		Status:  "healthy",
		Version: s.cfg.Version,
		Time:    s.now().UTC().Format(time.RFC3339),
		Running: s.deps.Runner != nil && s.deps.Runner.Running(),
	}
	writeJSON(w, http.StatusOK, response)
}

// runHandler starts a run over the input folder and returns at once.
// Progress is streamed on /ws; the summary is available from /runs/last.
func (s *Server) runHandler(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}
	if s.deps.Runner == nil {
		writeErrorResponse(w, http.StatusServiceUnavailable, "processing is not configured")
		return
	}
	if s.deps.Runner.Running() {
		writeErrorResponse(w, http.StatusConflict, batch.ErrBusy.Error())
		return
	}

	s.wg.Add(1)
	go func() {
		defer s.wg.Done()
		sum, err := s.deps.Runner.Run(s.runCtx, s.cfg.DataDir)
		res := &RunResponse{Summary: &sum}
		if err != nil {
			res.Error = err.Error()
			if errors.Is(err, batch.ErrBusy) {
				return
			}
			slog.Error("Run failed", "error", err)
		}
		s.mu.Lock()
		s.lastRun = res
		s.mu.Unlock()
	}()

	writeJSON(w, http.StatusAccepted, StatusResponse{Status: "started"})
}

// stopHandler cancels the active run.
func (s *Server) stopHandler(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}
	if s.deps.Runner == nil || !s.deps.Runner.Stop() {
		writeErrorResponse(w, http.StatusConflict, "no run in progress")
		return
	}
	writeJSON(w, http.StatusOK, StatusResponse{Status: "stopping"})
}

// organizeHandler reorganizes the success folder.
func (s *Server) organizeHandler(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}
	if s.deps.Organizer == nil {
		writeErrorResponse(w, http.StatusServiceUnavailable, "organizing is not configured")
		return
	}
	report, err := s.deps.Organizer.Organize(r.Context())
	if err != nil {
		slog.Error("Organize failed", "error", err)
		writeErrorResponse(w, http.StatusInternalServerError, fmt.Sprintf("organize failed: %v", err))
		return
	}
	writeJSON(w, http.StatusOK, OrganizeResponse{Moves: report.Moves, Count: report.Len()})
}

// resultsHandler returns the result log of one day as JSON or XLSX.
func (s *Server) resultsHandler(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}
	if s.deps.Results == nil {
		writeErrorResponse(w, http.StatusServiceUnavailable, "result log is not configured")
		return
	}

	day := s.now()
	if v := r.URL.Query().Get("date"); v != "" {
		parsed, err := time.ParseInLocation(time.DateOnly, v, time.Local)
		if err != nil {
			writeErrorResponse(w, http.StatusBadRequest, fmt.Sprintf("invalid date %q: want YYYY-MM-DD", v))
			return
		}
		day = parsed
	}

	records, err := s.deps.Results.Read(day)
	if err != nil {
		writeErrorResponse(w, http.StatusInternalServerError, fmt.Sprintf("read results: %v", err))
		return
	}

	switch format := r.URL.Query().Get("format"); format {
	case "", formatJSON:
		if records == nil {
			records = []resultlog.Record{}
		}
		writeJSON(w, http.StatusOK, ResultsResponse{
			Date:    day.Format(time.DateOnly),
			Records: records,
			Count:   len(records),
		})
	case formatXLSX:
		w.Header().Set("Content-Type", xlsxContentType)
		w.Header().Set("Content-Disposition",
			fmt.Sprintf("attachment; filename=\"results_%s.xlsx\"", day.Format(time.DateOnly)))
		if err := resultlog.WriteXLSX(records, w); err != nil {
			slog.Error("Failed to write results workbook", "error", err)
		}
	default:
		writeErrorResponse(w, http.StatusBadRequest, fmt.Sprintf("unsupported format %q", format))
	}
}

// lastRunHandler returns the summary of the most recent finished run.
func (s *Server) lastRunHandler(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}
	s.mu.Lock()
	last := s.lastRun
	s.mu.Unlock()
	if last == nil {
		writeErrorResponse(w, http.StatusNotFound, "no run has finished yet")
		return
	}
	writeJSON(w, http.StatusOK, last)
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		slog.Error("Failed to encode response", "error", err)
	}
}

func writeErrorResponse(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, ErrorResponse{Error: message})
}
