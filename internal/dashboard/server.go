// Package dashboard exposes the report ledger and catalog over HTTP, plus
// a live event stream for watching a patrol run.
package dashboard

import (
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"go.uber.org/zap"

	"brandpatrol/internal/catalog"
	"brandpatrol/internal/ledger"
	"brandpatrol/internal/telemetry"
)

// Server serves the read-only patrol dashboard API.
type Server struct {
	reports *ledger.Store
	catalog *catalog.Store
	hub     *telemetry.Hub
	log     *zap.Logger
}

func NewServer(reports *ledger.Store, cat *catalog.Store, hub *telemetry.Hub, log *zap.Logger) *Server {
	return &Server{reports: reports, catalog: cat, hub: hub, log: log}
}

// Router builds the HTTP routes.
func (s *Server) Router() http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.Recoverer)

	r.Get("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
		w.Write([]byte("ok"))
	})
	r.Route("/api", func(r chi.Router) {
		r.Use(middleware.Timeout(60 * time.Second))
		r.Get("/reports", s.handleListReports)
		r.Get("/reports/stats", s.handleReportStats)
		r.Get("/reports/{id}", s.handleGetReport)
		r.Get("/catalog/stats", s.handleCatalogStats)
	})
	// The event stream lives outside the timeout group: subscribers hold the
	// connection open for the whole patrol run.
	r.Get("/events", s.handleEvents)
	return r
}

func (s *Server) handleListReports(w http.ResponseWriter, r *http.Request) {
	list := s.reports.List()
	if status := r.URL.Query().Get("status"); status != "" {
		filtered := list[:0]
		for _, rec := range list {
			if string(rec.Status) == status {
				filtered = append(filtered, rec)
			}
		}
		list = filtered
	}
	s.writeJSON(w, http.StatusOK, list)
}

func (s *Server) handleGetReport(w http.ResponseWriter, r *http.Request) {
	rec, err := s.reports.Get(chi.URLParam(r, "id"))
	if err != nil {
		s.writeJSON(w, http.StatusNotFound, map[string]string{"error": err.Error()})
		return
	}
	s.writeJSON(w, http.StatusOK, rec)
}

func (s *Server) handleReportStats(w http.ResponseWriter, _ *http.Request) {
	s.writeJSON(w, http.StatusOK, s.reports.Stats())
}

func (s *Server) handleCatalogStats(w http.ResponseWriter, _ *http.Request) {
	s.writeJSON(w, http.StatusOK, s.catalog.Stats())
}

// handleEvents streams patrol events as server-sent events until the
// client disconnects.
func (s *Server) handleEvents(w http.ResponseWriter, r *http.Request) {
	flusher, ok := w.(http.Flusher)
	if !ok {
		http.Error(w, "streaming unsupported", http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")

	events, cancel := s.hub.Subscribe()
	defer cancel()

	keepalive := time.NewTicker(25 * time.Second)
	defer keepalive.Stop()

	for {
		select {
		case <-r.Context().Done():
			return
		case <-keepalive.C:
			fmt.Fprint(w, ": keepalive\n\n")
			flusher.Flush()
		case ev, open := <-events:
			if !open {
				return
			}
			data, err := json.Marshal(ev)
			if err != nil {
				continue
			}
			fmt.Fprintf(w, "event: %s\ndata: %s\n\n", ev.Kind, data)
			flusher.Flush()
		}
	}
}

func (s *Server) writeJSON(w http.ResponseWriter, code int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		s.log.Warn("encode response", zap.Error(err))
	}
}
