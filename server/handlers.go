package server

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/robertmeta/nutriinfo-cli/app"
	"github.com/robertmeta/nutriinfo-cli/model"
	"github.com/robertmeta/nutriinfo-cli/search"
	"go.uber.org/zap"
)

const maxBodyBytes = 1 << 20

type stateResponse struct {
	State    search.QueryState `json:"state"`
	Language model.Language    `json:"language"`
	Recipes  []app.RecipeView  `json:"recipes,omitempty"`
}

type searchRequest struct {
	Query    string `json:"query"`
	Language string `json:"language,omitempty"`
}

type languageRequest struct {
	Language string `json:"language"`
}

type toggleRequest struct {
	Recipe model.Recipe `json:"recipe"`
}

func (s *Server) writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		s.logger.Warn("failed to write response", zap.Error(err))
	}
}

func (s *Server) writeError(w http.ResponseWriter, status int, msg string) {
	s.writeJSON(w, status, map[string]string{"error": msg})
}

func decodeBody(w http.ResponseWriter, r *http.Request, v any) error {
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes))
	return dec.Decode(v)
}

func (s *Server) currentState() stateResponse {
	st := s.app.Machine.State()
	resp := stateResponse{State: st, Language: s.app.Machine.Language()}
	if succ, isSuccess := st.(search.Success); isSuccess && succ.Record != nil {
		resp.Recipes = s.app.Annotate(succ.Record.Recipes)
	}
	return resp
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	s.writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (s *Server) handleState(w http.ResponseWriter, r *http.Request) {
	s.writeJSON(w, http.StatusOK, s.currentState())
}

func (s *Server) handleSearch(w http.ResponseWriter, r *http.Request) {
	var req searchRequest
	if err := decodeBody(w, r, &req); err != nil {
		s.writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	var err error
	if req.Language != "" {
		lang, parseErr := model.ParseLanguage(req.Language)
		if parseErr != nil {
			s.writeError(w, http.StatusBadRequest, parseErr.Error())
			return
		}
		_, err = s.app.LookupAs(r.Context(), req.Query, lang)
	} else {
		_, err = s.app.Lookup(r.Context(), req.Query)
	}
	switch {
	case errors.Is(err, search.ErrEmptyQuery):
		s.writeError(w, http.StatusBadRequest, err.Error())
		return
	case errors.Is(err, search.ErrBusy):
		s.writeError(w, http.StatusConflict, err.Error())
		return
	case err != nil:
		s.writeError(w, http.StatusInternalServerError, err.Error())
		return
	}

	s.writeJSON(w, http.StatusOK, s.currentState())
}

func (s *Server) handleSetLanguage(w http.ResponseWriter, r *http.Request) {
	var req languageRequest
	if err := decodeBody(w, r, &req); err != nil {
		s.writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	lang, err := model.ParseLanguage(req.Language)
	if err != nil {
		s.writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	s.app.Machine.SetLanguage(lang)
	s.writeJSON(w, http.StatusOK, map[string]model.Language{"language": lang})
}

func (s *Server) handleTranslations(w http.ResponseWriter, r *http.Request) {
	lang, err := model.ParseLanguage(chi.URLParam(r, "lang"))
	if err != nil {
		s.writeError(w, http.StatusNotFound, err.Error())
		return
	}
	s.writeJSON(w, http.StatusOK, search.TranslationFor(lang))
}

func (s *Server) handleListFavorites(w http.ResponseWriter, r *http.Request) {
	views := s.app.Annotate(s.app.Favorites.List())
	s.writeJSON(w, http.StatusOK, map[string]any{
		"count":     len(views),
		"favorites": views,
	})
}

func (s *Server) handleToggleFavorite(w http.ResponseWriter, r *http.Request) {
	var req toggleRequest
	if err := decodeBody(w, r, &req); err != nil {
		s.writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if err := req.Recipe.Validate(); err != nil {
		s.writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	fav := s.app.Favorites.Toggle(r.Context(), req.Recipe)
	s.writeJSON(w, http.StatusOK, map[string]any{
		"id":         req.Recipe.ID(),
		"isFavorite": fav,
		"count":      s.app.Favorites.Len(),
	})
}

func (s *Server) handleRemoveFavorite(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	if !s.app.Favorites.Remove(r.Context(), id) {
		s.writeError(w, http.StatusNotFound, "favorite not found")
		return
	}
	s.writeJSON(w, http.StatusOK, map[string]any{
		"removed": id,
		"count":   s.app.Favorites.Len(),
	})
}
