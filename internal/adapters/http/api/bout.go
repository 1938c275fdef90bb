package api

import (
	"bytes"
	"io"
	"net/http"

	"github.com/okian/pillowbout/internal/adapters/export"
	"github.com/okian/pillowbout/internal/domain/bout"
)

// metadataRequest mirrors the OpenAPI schema for PUT /bout/metadata.
type metadataRequest struct {
	Judge    string `json:"judge"`
	BoutID   string `json:"bout"`
	FighterA string `json:"fighter_a"`
	FighterB string `json:"fighter_b"`
}

// sheetFileName is the download name of the score sheet workbook.
const sheetFileName = "score_sheet.xlsx"

// handleView handles GET /bout.
func (s *Server) handleView(w http.ResponseWriter, r *http.Request) {
	const op = "api.view"
	v, err := s.session.View(r.Context())
	if err != nil {
		s.fail(w, r, op, err)
		return
	}
	writeJSON(w, http.StatusOK, v)
}

// handleNewBout handles POST /bout/new.
func (s *Server) handleNewBout(w http.ResponseWriter, r *http.Request) {
	const op = "api.new_bout"
	v, err := s.session.NewBout(r.Context())
	if err != nil {
		s.fail(w, r, op, err)
		return
	}
	writeJSON(w, http.StatusOK, v)
}

// handleMetadata handles PUT /bout/metadata. Every field is replaced.
func (s *Server) handleMetadata(w http.ResponseWriter, r *http.Request) {
	const op = "api.metadata"
	var req metadataRequest
	if err := s.decode(w, r, &req); err != nil {
		s.fail(w, r, op, WrapKind(op, ErrBadRequest, err))
		return
	}
	v, err := s.session.SetMetadata(r.Context(), bout.Metadata{
		Judge:    req.Judge,
		BoutID:   req.BoutID,
		FighterA: req.FighterA,
		FighterB: req.FighterB,
	})
	if err != nil {
		s.fail(w, r, op, err)
		return
	}
	writeJSON(w, http.StatusOK, v)
}

// handleExport handles GET /bout/export with the persisted JSON payload.
func (s *Server) handleExport(w http.ResponseWriter, r *http.Request) {
	const op = "api.export"
	data, err := s.session.Export(r.Context())
	if err != nil {
		s.fail(w, r, op, err)
		return
	}
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(data)
}

// handleImport handles POST /bout/import. The body is a persisted payload.
func (s *Server) handleImport(w http.ResponseWriter, r *http.Request) {
	const op = "api.import"
	data, err := io.ReadAll(http.MaxBytesReader(w, r.Body, s.maxBody))
	if err != nil {
		s.fail(w, r, op, err)
		return
	}
	res, err := s.session.Import(r.Context(), data)
	if err != nil {
		s.fail(w, r, op, err)
		return
	}
	writeJSON(w, http.StatusOK, res)
}

// handleSave handles POST /bout/save.
func (s *Server) handleSave(w http.ResponseWriter, r *http.Request) {
	const op = "api.save"
	res, err := s.session.Save(r.Context())
	if err != nil {
		s.fail(w, r, op, err)
		return
	}
	writeJSON(w, http.StatusCreated, res)
}

// handleList handles GET /bouts.
func (s *Server) handleList(w http.ResponseWriter, r *http.Request) {
	const op = "api.list"
	entries, err := s.session.ListSaved(r.Context())
	if err != nil {
		s.fail(w, r, op, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"bouts": entries})
}

// handleOpen handles POST /bouts/{name}/open.
func (s *Server) handleOpen(w http.ResponseWriter, r *http.Request) {
	const op = "api.open"
	res, err := s.session.Open(r.Context(), r.PathValue("name"))
	if err != nil {
		s.fail(w, r, op, err)
		return
	}
	writeJSON(w, http.StatusOK, res)
}

// handleSheet handles GET /bout/sheet.xlsx.
func (s *Server) handleSheet(w http.ResponseWriter, r *http.Request) {
	const op = "api.sheet"
	sheet, err := s.session.ScoreSheet(r.Context())
	if err != nil {
		s.fail(w, r, op, err)
		return
	}
	var buf bytes.Buffer
	if err := export.WriteXLSX(&buf, sheet); err != nil {
		s.fail(w, r, op, err)
		return
	}
	w.Header().Set("Content-Type", export.ContentType)
	w.Header().Set("Content-Disposition", `attachment; filename="`+sheetFileName+`"`)
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(buf.Bytes())
}
