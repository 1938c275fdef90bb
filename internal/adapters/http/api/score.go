package api

import (
	"net/http"
	"strings"

	"github.com/okian/pillowbout/internal/domain/bout"
	"github.com/okian/pillowbout/internal/domain/model"
)

// IdempotencyKeyHeader carries the client key that collapses repeated
// scoring taps into one event.
const IdempotencyKeyHeader = "Idempotency-Key"

// scoreRequest mirrors the OpenAPI schema for POST /bout/score.
type scoreRequest struct {
	Fighter string `json:"fighter"`
	Kind    string `json:"kind"`
}

// scoreResponse is returned by POST /bout/score.
type scoreResponse struct {
	Status    string              `json:"status"`
	Duplicate bool                `json:"duplicate"`
	Event     *model.ScoringEvent `json:"event,omitempty"`
	View      bout.View           `json:"view"`
}

// undoResponse is returned by POST /bout/undo.
type undoResponse struct {
	Removed bool                `json:"removed"`
	Event   *model.ScoringEvent `json:"event,omitempty"`
	View    bout.View           `json:"view"`
}

// handleScore handles POST /bout/score.
func (s *Server) handleScore(w http.ResponseWriter, r *http.Request) {
	const op = "api.score"
	var req scoreRequest
	if err := s.decode(w, r, &req); err != nil {
		s.fail(w, r, op, WrapKind(op, ErrBadRequest, err))
		return
	}
	fighter, err := model.ParseCompetitor(strings.TrimSpace(req.Fighter))
	if err != nil {
		s.fail(w, r, op, WrapKind(op, ErrBadRequest, err))
		return
	}
	kind, err := model.ParseKind(strings.TrimSpace(req.Kind))
	if err != nil {
		s.fail(w, r, op, WrapKind(op, ErrBadRequest, err))
		return
	}

	key := strings.TrimSpace(r.Header.Get(IdempotencyKeyHeader))
	res, err := s.session.Score(r.Context(), fighter, kind, key)
	if err != nil {
		s.fail(w, r, op, err)
		return
	}
	if res.Duplicate {
		writeJSON(w, http.StatusOK, scoreResponse{Status: "duplicate", Duplicate: true, View: res.View})
		return
	}
	ev := res.Event
	writeJSON(w, http.StatusCreated, scoreResponse{Status: "recorded", Event: &ev, View: res.View})
}

// handleUndo handles POST /bout/undo. An empty log is not an error.
func (s *Server) handleUndo(w http.ResponseWriter, r *http.Request) {
	const op = "api.undo"
	res, err := s.session.Undo(r.Context())
	if err != nil {
		s.fail(w, r, op, err)
		return
	}
	out := undoResponse{Removed: res.Removed, View: res.View}
	if res.Removed {
		ev := res.Event
		out.Event = &ev
	}
	writeJSON(w, http.StatusOK, out)
}
