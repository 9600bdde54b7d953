package server

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"sort"
	"time"

	"github.com/ogulcanaydogan/credit-reminder/pkg/model"
	"github.com/ogulcanaydogan/credit-reminder/pkg/reminder"
	"github.com/ogulcanaydogan/credit-reminder/pkg/storage"
)

// Server exposes read-only views of what a reminder run would do.
// It never delivers messages.
type Server struct {
	store  storage.Storage
	header string
	loc    *time.Location
	now    func() time.Time
	mux    *http.ServeMux
	logger *slog.Logger
}

// NewServer creates an API server over store. Dates without an explicit
// ?today= are taken in loc.
func NewServer(store storage.Storage, header string, loc *time.Location, logger *slog.Logger) *Server {
	if loc == nil {
		loc = time.Local
	}
	s := &Server{
		store:  store,
		header: header,
		loc:    loc,
		now:    time.Now,
		mux:    http.NewServeMux(),
		logger: logger,
	}
	s.routes()
	return s
}

func (s *Server) routes() {
	s.mux.HandleFunc("GET /healthz", s.handleHealth)
	s.mux.HandleFunc("GET /api/v1/findings", s.handleFindings)
	s.mux.HandleFunc("GET /api/v1/preview", s.handlePreview)
}

// Handler returns the HTTP handler for this server.
func (s *Server) Handler() http.Handler {
	return s.mux
}

// FindingView is one row of /api/v1/findings.
type FindingView struct {
	model.Finding
	Alert *model.Alert `json:"alert,omitempty"`
}

// PreviewView is one recipient of /api/v1/preview.
type PreviewView struct {
	Recipient string   `json:"recipient"`
	Messages  []string `json:"messages"`
	Text      string   `json:"text"`
}

func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (s *Server) handleFindings(w http.ResponseWriter, r *http.Request) {
	today, ok := s.today(w, r)
	if !ok {
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), 30*time.Second)
	defer cancel()

	evals, err := s.engine().Scan(ctx, today)
	if err != nil {
		s.logger.Error("scan findings", "error", err)
		http.Error(w, "internal error", http.StatusInternalServerError)
		return
	}

	dueOnly := r.URL.Query().Get("due") == "true"
	views := make([]FindingView, 0, len(evals))
	for _, ev := range evals {
		if dueOnly && !ev.Alerted {
			continue
		}
		v := FindingView{Finding: ev.Finding}
		if ev.Alerted {
			alert := ev.Alert
			v.Alert = &alert
		}
		views = append(views, v)
	}

	writeJSON(w, http.StatusOK, views)
}

func (s *Server) handlePreview(w http.ResponseWriter, r *http.Request) {
	today, ok := s.today(w, r)
	if !ok {
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), 30*time.Second)
	defer cancel()

	result, err := s.engine().Run(ctx, today)
	if err != nil {
		s.logger.Error("preview run", "error", err)
		http.Error(w, "internal error", http.StatusInternalServerError)
		return
	}

	header := s.header
	if header == "" {
		header = reminder.DefaultHeader
	}

	ids := make([]string, 0, len(result.Batches))
	for id := range result.Batches {
		ids = append(ids, id)
	}
	sort.Strings(ids)

	views := make([]PreviewView, 0, len(ids))
	for _, id := range ids {
		msgs := result.Batches[id]
		views = append(views, PreviewView{Recipient: id, Messages: msgs, Text: reminder.Compose(header, msgs)})
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"report":     result.Report,
		"recipients": views,
	})
}

func (s *Server) engine() *reminder.Engine {
	return reminder.NewEngine(s.store, nil, nil, reminder.Options{Header: s.header, DryRun: true}, s.logger)
}

func (s *Server) today(w http.ResponseWriter, r *http.Request) (time.Time, bool) {
	raw := r.URL.Query().Get("today")
	if raw == "" {
		return s.now().In(s.loc), true
	}
	t, err := time.ParseInLocation(model.DateLayout, raw, s.loc)
	if err != nil {
		http.Error(w, "today must be YYYY-MM-DD", http.StatusBadRequest)
		return time.Time{}, false
	}
	return t, true
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}
