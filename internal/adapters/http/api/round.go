package api

import (
	"context"
	"net/http"

	service "github.com/okian/pillowbout/internal/app"
	"github.com/okian/pillowbout/internal/domain/bout"
)

// roundResponse is returned by the linear round moves.
type roundResponse struct {
	Step string    `json:"step"`
	View bout.View `json:"view"`
}

func (s *Server) handleNextRound(w http.ResponseWriter, r *http.Request) {
	s.moveRound(w, r, "api.next_round", s.session.NextRound)
}

func (s *Server) handlePrevRound(w http.ResponseWriter, r *http.Request) {
	s.moveRound(w, r, "api.prev_round", s.session.PrevRound)
}

func (s *Server) moveRound(w http.ResponseWriter, r *http.Request, op string, move func(context.Context) (service.RoundResult, error)) {
	res, err := move(r.Context())
	if err != nil {
		s.fail(w, r, op, err)
		return
	}
	writeJSON(w, http.StatusOK, roundResponse{Step: res.Step.String(), View: res.View})
}

// handleTiebreaker handles POST /round/tiebreaker. A refused entry is a 409
// and leaves the bout untouched.
func (s *Server) handleTiebreaker(w http.ResponseWriter, r *http.Request) {
	const op = "api.tiebreaker"
	v, err := s.session.EnterTiebreaker(r.Context())
	if err != nil {
		s.fail(w, r, op, err)
		return
	}
	writeJSON(w, http.StatusOK, v)
}

// handleClock adapts a clock control to a handler.
func (s *Server) handleClock(fn func(context.Context) (bout.View, error)) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		const op = "api.clock"
		v, err := fn(r.Context())
		if err != nil {
			s.fail(w, r, op, err)
			return
		}
		writeJSON(w, http.StatusOK, v)
	}
}
