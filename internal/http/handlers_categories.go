package http

import (
	"errors"
	"net/http"

	"bilancio/internal/core"
	"bilancio/internal/log"
	"bilancio/internal/storage"
)

func (s *Server) handleListCategories(w http.ResponseWriter, r *http.Request) {
	var ct core.CategoryType
	if v := r.URL.Query().Get("type"); v != "" {
		parsed, err := core.ParseCategoryType(v)
		if err != nil {
			s.writeError(w, r, err, "Category")
			return
		}
		ct = parsed
	}

	cats, err := s.finance.ListCategories(r.Context(), currentUser(r).ID, ct)
	if err != nil {
		s.writeError(w, r, err, "Category")
		return
	}
	writeJSON(w, http.StatusOK, nonNil(cats))
}

func (s *Server) handleCreateCategory(w http.ResponseWriter, r *http.Request) {
	p := NewRequestBodyParser(r)
	if err := p.Parse(); err != nil {
		s.writeError(w, r, err, "Category")
		return
	}
	ct, err := core.ParseCategoryType(p.Get("type"))
	if err != nil {
		s.writeError(w, r, err, "Category")
		return
	}

	c, err := s.finance.CreateCategory(r.Context(), currentUser(r).ID, core.CategoryInput{Name: p.Get("name"), Type: ct})
	if err != nil {
		s.writeError(w, r, err, "Category")
		return
	}
	respond(w, r, http.StatusCreated, c, categoryChanged("Category created"))
}

func (s *Server) handleUpdateCategory(w http.ResponseWriter, r *http.Request) {
	p := NewRequestBodyParser(r)
	if err := p.Parse(); err != nil {
		s.writeError(w, r, err, "Category")
		return
	}
	id := p.Get("id")
	if id == "" {
		s.badRequest(w, r, "Category ID is required")
		return
	}

	patch := core.CategoryPatch{Name: p.OptionalString("name")}
	if p.Has("type") {
		ct, err := core.ParseCategoryType(p.Get("type"))
		if err != nil {
			s.writeError(w, r, err, "Category")
			return
		}
		patch.Type = &ct
	}

	c, err := s.finance.UpdateCategory(r.Context(), currentUser(r).ID, id, patch)
	if err != nil {
		s.writeError(w, r, err, "Category")
		return
	}
	respond(w, r, http.StatusOK, c, categoryChanged("Category updated"))
}

// handleDeleteCategory refuses categories still referenced by transactions.
func (s *Server) handleDeleteCategory(w http.ResponseWriter, r *http.Request) {
	id := r.URL.Query().Get("id")
	if id == "" {
		s.badRequest(w, r, "Category ID is required")
		return
	}

	if err := s.finance.DeleteCategory(r.Context(), currentUser(r).ID, id); err != nil {
		if errors.Is(err, storage.ErrConflict) {
			s.writeErrorStatus(w, r, err, http.StatusBadRequest, "Category is in use", log.ErrorTypeConflict)
			return
		}
		s.writeError(w, r, err, "Category")
		return
	}
	respond(w, r, http.StatusOK, messageResponse{Message: "Category deleted"}, categoryChanged("Category deleted"))
}
