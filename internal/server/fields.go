package server

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/rs/zerolog/log"

	"github.com/woozymasta/farmgeo/internal/fields"
)

// HandleFieldsList serves one page of fields filtered by q and type.
func (s *ServerContext) HandleFieldsList(w http.ResponseWriter, r *http.Request) {
	q := fields.ListQuery{
		Search: r.URL.Query().Get("q"),
		Type:   r.URL.Query().Get("type"),
	}
	if p := r.URL.Query().Get("page"); p != "" {
		page, err := strconv.Atoi(p)
		if err != nil || page < 0 {
			writeError(w, http.StatusBadRequest, "invalid page")
			return
		}
		q.Page = page
	}

	page, err := s.Store.List(r.Context(), farmID(r), q)
	if err != nil {
		serverError(w, r, err, "Failed to list fields")
		return
	}
	writeJSON(w, http.StatusOK, page)
}

// HandleFieldStats serves area totals.
func (s *ServerContext) HandleFieldStats(w http.ResponseWriter, r *http.Request) {
	st, err := s.Store.Stats(r.Context(), farmID(r))
	if err != nil {
		serverError(w, r, err, "Failed to compute field stats")
		return
	}
	writeJSON(w, http.StatusOK, st)
}

// HandleFieldCreate stores a new field.
func (s *ServerContext) HandleFieldCreate(w http.ResponseWriter, r *http.Request) {
	var f fields.Field
	if err := json.NewDecoder(r.Body).Decode(&f); err != nil {
		writeError(w, http.StatusBadRequest, "invalid field")
		return
	}
	f.ID = uuid.Nil

	if err := s.Store.Create(r.Context(), farmID(r), &f); err != nil {
		s.storeError(w, r, err)
		return
	}

	log.Info().
		Str("farm", f.FarmID).
		Str("field", f.Name).
		Str("id", f.ID.String()).
		Msg("Field created")

	writeJSON(w, http.StatusCreated, f)
}

// HandleFieldGet serves a single field.
func (s *ServerContext) HandleFieldGet(w http.ResponseWriter, r *http.Request) {
	id, ok := fieldID(w, r)
	if !ok {
		return
	}

	f, err := s.Store.Get(r.Context(), farmID(r), id)
	if err != nil {
		s.storeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, f)
}

// HandleFieldUpdate replaces a field.
func (s *ServerContext) HandleFieldUpdate(w http.ResponseWriter, r *http.Request) {
	id, ok := fieldID(w, r)
	if !ok {
		return
	}

	var f fields.Field
	if err := json.NewDecoder(r.Body).Decode(&f); err != nil {
		writeError(w, http.StatusBadRequest, "invalid field")
		return
	}

	updated, err := s.Store.Update(r.Context(), farmID(r), id, &f)
	if err != nil {
		s.storeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, updated)
}

// HandleFieldDelete removes a field.
func (s *ServerContext) HandleFieldDelete(w http.ResponseWriter, r *http.Request) {
	id, ok := fieldID(w, r)
	if !ok {
		return
	}

	if err := s.Store.Delete(r.Context(), farmID(r), id); err != nil {
		s.storeError(w, r, err)
		return
	}

	log.Info().
		Str("farm", farmID(r)).
		Str("id", id.String()).
		Msg("Field deleted")

	w.WriteHeader(http.StatusNoContent)
}

func (s *ServerContext) storeError(w http.ResponseWriter, r *http.Request, err error) {
	switch {
	case errors.Is(err, fields.ErrNotFound):
		writeError(w, http.StatusNotFound, err.Error())
	case fields.IsValidation(err):
		writeError(w, http.StatusBadRequest, err.Error())
	default:
		serverError(w, r, err, "Field store failed")
	}
}

func fieldID(w http.ResponseWriter, r *http.Request) (uuid.UUID, bool) {
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid field id")
		return uuid.Nil, false
	}
	return id, true
}
