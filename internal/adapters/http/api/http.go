// Package api declares HTTP contracts and route registration helpers.
package api

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"

	"github.com/okian/pillowbout/internal/adapters/repository"
	service "github.com/okian/pillowbout/internal/app"
	"github.com/okian/pillowbout/internal/domain/bout"
	"github.com/okian/pillowbout/internal/domain/model"
	"github.com/okian/pillowbout/pkg/logger"
)

// Session is the judging session the handlers drive.
type Session interface {
	View(ctx context.Context) (bout.View, error)
	ScoreSheet(ctx context.Context) (bout.ScoreSheet, error)
	NewBout(ctx context.Context) (bout.View, error)
	SetMetadata(ctx context.Context, m bout.Metadata) (bout.View, error)
	Score(ctx context.Context, fighter model.Competitor, kind model.Kind, key string) (service.ScoreResult, error)
	Undo(ctx context.Context) (service.UndoResult, error)
	NextRound(ctx context.Context) (service.RoundResult, error)
	PrevRound(ctx context.Context) (service.RoundResult, error)
	EnterTiebreaker(ctx context.Context) (bout.View, error)
	StartClock(ctx context.Context) (bout.View, error)
	PauseClock(ctx context.Context) (bout.View, error)
	ResetClock(ctx context.Context) (bout.View, error)
	Export(ctx context.Context) ([]byte, error)
	Import(ctx context.Context, data []byte) (service.LoadResult, error)
	Save(ctx context.Context) (service.SaveResult, error)
	ListSaved(ctx context.Context) ([]repository.Entry, error)
	Open(ctx context.Context, name string) (service.LoadResult, error)
}

// Server wires HTTP routes for the judging console API.
type Server struct {
	session Session
	logger  logger.Logger
	maxBody int64

	healthHandler *HealthHandler
	statsHandler  *StatsHandler
}

// NewServer creates a new API server with all handlers.
func NewServer(session Session, statsProvider StatsProvider, opts ...Option) *Server {
	s := &Server{
		session:       session,
		logger:        logger.Nop(),
		maxBody:       defaultMaxBodyBytes,
		healthHandler: NewHealthHandler(),
		statsHandler:  NewStatsHandler(statsProvider),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Register attaches all HTTP routes to mux.
func (s *Server) Register(_ context.Context, mux *http.ServeMux) {
	if mux == nil {
		panic("mux is nil")
	}
	routes := []struct {
		pattern  string
		endpoint string
		handler  http.HandlerFunc
	}{
		{"GET /healthz", "healthz", s.healthHandler.HandleHealth},
		{"GET /metrics", "metrics", s.healthHandler.HandleHealth},
		{"GET /stats", "stats", s.statsHandler.HandleStats},

		{"GET /bout", "bout", s.handleView},
		{"POST /bout/new", "bout_new", s.handleNewBout},
		{"PUT /bout/metadata", "bout_metadata", s.handleMetadata},
		{"POST /bout/score", "bout_score", s.handleScore},
		{"POST /bout/undo", "bout_undo", s.handleUndo},
		{"GET /bout/export", "bout_export", s.handleExport},
		{"POST /bout/import", "bout_import", s.handleImport},
		{"POST /bout/save", "bout_save", s.handleSave},
		{"GET /bout/sheet.xlsx", "bout_sheet", s.handleSheet},
		{"GET /bouts", "bouts", s.handleList},
		{"POST /bouts/{name}/open", "bouts_open", s.handleOpen},

		{"POST /round/next", "round_next", s.handleNextRound},
		{"POST /round/prev", "round_prev", s.handlePrevRound},
		{"POST /round/tiebreaker", "round_tiebreaker", s.handleTiebreaker},

		{"POST /clock/start", "clock_start", s.handleClock(s.session.StartClock)},
		{"POST /clock/pause", "clock_pause", s.handleClock(s.session.PauseClock)},
		{"POST /clock/reset", "clock_reset", s.handleClock(s.session.ResetClock)},
	}
	for _, r := range routes {
		mux.HandleFunc(r.pattern, RequestIDMiddleware(MetricsMiddleware(r.handler, r.endpoint)))
	}
}

type errorResponse struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, code string, err error) {
	msg := http.StatusText(status)
	if err != nil {
		msg = err.Error()
	}
	writeJSON(w, status, errorResponse{Code: code, Message: msg})
}

// fail classifies err and writes it. Server side failures are logged.
func (s *Server) fail(w http.ResponseWriter, r *http.Request, op string, err error) {
	status, code := classify(err)
	if status >= http.StatusInternalServerError {
		s.logger.Error(r.Context(), "request failed",
			logger.String("op", op),
			logger.String("request_id", RequestID(r.Context())),
			logger.Error(err),
		)
	}
	writeError(w, status, code, fmt.Errorf("%s: %w", op, err))
}

// decode reads a JSON body into v, rejecting unknown fields.
func (s *Server) decode(w http.ResponseWriter, r *http.Request, v any) error {
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, s.maxBody))
	dec.DisallowUnknownFields()
	if err := dec.Decode(v); err != nil {
		return err
	}
	if dec.More() {
		return errors.New("trailing data after JSON body")
	}
	return nil
}
