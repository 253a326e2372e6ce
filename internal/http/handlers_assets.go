package http

import (
	"net/http"

	"bilancio/internal/core"
)

func (s *Server) handleListAssets(w http.ResponseWriter, r *http.Request) {
	recordID := r.URL.Query().Get("monthlyRecordId")
	if recordID == "" {
		s.badRequest(w, r, "monthlyRecordId is required")
		return
	}

	assets, err := s.finance.ListAssets(r.Context(), currentUser(r).ID, recordID)
	if err != nil {
		s.writeError(w, r, err, "Asset")
		return
	}
	writeJSON(w, http.StatusOK, nonNil(assets))
}

// handleCreateAsset requires an explicit ?year&month; assets are never
// filed under the current month implicitly.
func (s *Server) handleCreateAsset(w http.ResponseWriter, r *http.Request) {
	period, ok, err := parseYearMonth(r)
	if !ok {
		s.badRequest(w, r, "Year and month are required")
		return
	}
	if err != nil {
		s.writeError(w, r, err, "Asset")
		return
	}

	p := NewRequestBodyParser(r)
	if err := p.Parse(); err != nil {
		s.writeError(w, r, err, "Asset")
		return
	}
	in := core.AssetInput{
		Name:        p.Get("name"),
		Description: p.Get("description"),
	}
	if in.Value, err = p.Amount("value"); err != nil {
		s.writeError(w, r, err, "Asset")
		return
	}

	asset, err := s.finance.CreateAsset(r.Context(), currentUser(r).ID, period, in)
	if err != nil {
		s.writeError(w, r, err, "Asset")
		return
	}
	s.countMutation()
	respond(w, r, http.StatusCreated, asset, recordChanged(asset.MonthlyRecordID, "Asset saved"))
}

func (s *Server) handleUpdateAsset(w http.ResponseWriter, r *http.Request) {
	p := NewRequestBodyParser(r)
	if err := p.Parse(); err != nil {
		s.writeError(w, r, err, "Asset")
		return
	}
	id := p.Get("id")
	if id == "" {
		s.badRequest(w, r, "Asset ID is required")
		return
	}

	patch := core.AssetPatch{
		Name:        p.OptionalString("name"),
		Description: p.OptionalString("description"),
	}
	var err error
	if patch.Value, err = p.OptionalAmount("value"); err != nil {
		s.writeError(w, r, err, "Asset")
		return
	}

	asset, err := s.finance.UpdateAsset(r.Context(), currentUser(r).ID, id, patch)
	if err != nil {
		s.writeError(w, r, err, "Asset")
		return
	}
	s.countMutation()
	respond(w, r, http.StatusOK, asset, recordChanged(asset.MonthlyRecordID, "Asset updated"))
}

func (s *Server) handleDeleteAsset(w http.ResponseWriter, r *http.Request) {
	id := r.URL.Query().Get("id")
	if id == "" {
		s.badRequest(w, r, "Asset ID is required")
		return
	}

	if err := s.finance.DeleteAsset(r.Context(), currentUser(r).ID, id); err != nil {
		s.writeError(w, r, err, "Asset")
		return
	}
	s.countMutation()
	respond(w, r, http.StatusOK, messageResponse{Message: "Asset deleted"},
		recordChanged(r.URL.Query().Get("monthlyRecordId"), "Asset deleted"))
}
