// Package web provides the read-only HTTP dashboard for the bay-monitor daemon.
package web

import (
	"context"
	"fmt"
	"log"
	"net"
	"net/http"
	"strconv"
	"time"

	"github.com/gorilla/mux"
	"github.com/sweeney/carwash-monitor/internal/status"
	"github.com/sweeney/carwash-monitor/internal/store"
)

// Server serves the dashboard over HTTP.
type Server struct {
	httpServer *http.Server
	tracker    *status.Tracker
	reader     store.Reader
	pricing    Pricing
	now        func() time.Time
}

// New creates a Server that reads history from reader and daemon state from tracker.
func New(addr string, tracker *status.Tracker, reader store.Reader, pricing Pricing) *Server {
	s := &Server{
		tracker: tracker,
		reader:  reader,
		pricing: pricing,
		now:     time.Now,
	}

	r := mux.NewRouter()
	r.HandleFunc("/", s.handleIndex).Methods(http.MethodGet)
	r.HandleFunc("/index.html", s.handleIndex).Methods(http.MethodGet)
	r.HandleFunc("/index.json", s.handleJSON).Methods(http.MethodGet)
	r.HandleFunc("/status.json", s.handleStatus).Methods(http.MethodGet)
	r.HandleFunc(fmt.Sprintf("/bays/{bay:[1-%d]}.json", store.NumBays), s.handleBay).Methods(http.MethodGet)

	s.httpServer = &http.Server{
		Addr:              addr,
		Handler:           r,
		ReadHeaderTimeout: 5 * time.Second,
	}
	return s
}

// ListenAndServe starts listening. It blocks until the server is shut down.
func (s *Server) ListenAndServe() error {
	return s.httpServer.ListenAndServe()
}

// Serve accepts connections on the given listener. Useful for tests.
func (s *Server) Serve(ln net.Listener) error {
	return s.httpServer.Serve(ln)
}

// Shutdown gracefully shuts down the server.
func (s *Server) Shutdown(ctx context.Context) error {
	return s.httpServer.Shutdown(ctx)
}

func (s *Server) report(w http.ResponseWriter) (Report, bool) {
	report, err := BuildReport(s.reader, s.pricing, s.now())
	if err != nil {
		log.Printf("web: %v", err)
		http.Error(w, "database unavailable", http.StatusServiceUnavailable)
		return Report{}, false
	}
	return report, true
}

func (s *Server) handleIndex(w http.ResponseWriter, r *http.Request) {
	report, ok := s.report(w)
	if !ok {
		return
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	if err := renderHTML(w, report, s.tracker.Snapshot()); err != nil {
		log.Printf("web: render index: %v", err)
	}
}

func (s *Server) handleJSON(w http.ResponseWriter, r *http.Request) {
	report, ok := s.report(w)
	if !ok {
		return
	}
	writeJSON(w, report)
}

func (s *Server) handleStatus(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	w.Write(status.FormatJSON(s.tracker.Snapshot()))
}

func (s *Server) handleBay(w http.ResponseWriter, r *http.Request) {
	bay, err := strconv.Atoi(mux.Vars(r)["bay"])
	if err != nil {
		http.NotFound(w, r)
		return
	}

	report, ok := s.report(w)
	if !ok {
		return
	}
	var detail BayDetail
	found := false
	for _, br := range report.Bays {
		if br.Bay == bay {
			detail.BayReport = br
			found = true
		}
	}
	if !found {
		http.NotFound(w, r)
		return
	}

	recent, err := s.reader.RecentSessions(bay, recentSessions)
	if err != nil {
		log.Printf("web: %v", err)
		http.Error(w, "database unavailable", http.StatusServiceUnavailable)
		return
	}
	detail.Recent = sessionsJSON(recent)
	writeJSON(w, detail)
}
