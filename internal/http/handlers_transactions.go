package http

import (
	"net/http"

	"bilancio/internal/core"
)

func (s *Server) handleListTransactions(w http.ResponseWriter, r *http.Request) {
	recordID := r.URL.Query().Get("monthlyRecordId")
	if recordID == "" {
		s.badRequest(w, r, "monthlyRecordId is required")
		return
	}

	txs, err := s.finance.ListTransactions(r.Context(), currentUser(r).ID, recordID)
	if err != nil {
		s.writeError(w, r, err, "Transaction")
		return
	}
	writeJSON(w, http.StatusOK, nonNil(txs))
}

// handleCreateTransaction files the transaction under ?year&month, or the
// current month when they are absent.
func (s *Server) handleCreateTransaction(w http.ResponseWriter, r *http.Request) {
	p := NewRequestBodyParser(r)
	if err := p.Parse(); err != nil {
		s.writeError(w, r, err, "Transaction")
		return
	}

	period, ok, err := parseYearMonth(r)
	if err != nil {
		s.writeError(w, r, err, "Transaction")
		return
	}
	var target *core.Period
	if ok {
		target = &period
	}

	in := core.TransactionInput{
		CategoryID:  p.Get("categoryId"),
		Description: p.Get("description"),
	}
	if in.Amount, err = p.Amount("amount"); err != nil {
		s.writeError(w, r, err, "Transaction")
		return
	}
	if in.Date, err = p.Date("date"); err != nil {
		s.writeError(w, r, err, "Transaction")
		return
	}

	tx, err := s.finance.CreateTransaction(r.Context(), currentUser(r).ID, target, in)
	if err != nil {
		s.writeError(w, r, err, "Transaction")
		return
	}
	s.countMutation()
	respond(w, r, http.StatusCreated, tx, recordChanged(tx.MonthlyRecordID, "Transaction saved"))
}

// handleUpdateTransaction applies only the fields present in the body.
func (s *Server) handleUpdateTransaction(w http.ResponseWriter, r *http.Request) {
	p := NewRequestBodyParser(r)
	if err := p.Parse(); err != nil {
		s.writeError(w, r, err, "Transaction")
		return
	}
	id := p.Get("id")
	if id == "" {
		s.badRequest(w, r, "Transaction ID is required")
		return
	}

	patch := core.TransactionPatch{
		CategoryID:  p.OptionalString("categoryId"),
		Description: p.OptionalString("description"),
	}
	var err error
	if patch.Amount, err = p.OptionalAmount("amount"); err != nil {
		s.writeError(w, r, err, "Transaction")
		return
	}
	if patch.Date, err = p.OptionalDate("date"); err != nil {
		s.writeError(w, r, err, "Transaction")
		return
	}

	tx, err := s.finance.UpdateTransaction(r.Context(), currentUser(r).ID, id, patch)
	if err != nil {
		s.writeError(w, r, err, "Transaction")
		return
	}
	s.countMutation()
	respond(w, r, http.StatusOK, tx, recordChanged(tx.MonthlyRecordID, "Transaction updated"))
}

func (s *Server) handleDeleteTransaction(w http.ResponseWriter, r *http.Request) {
	id := r.URL.Query().Get("id")
	if id == "" {
		s.badRequest(w, r, "Transaction ID is required")
		return
	}

	if err := s.finance.DeleteTransaction(r.Context(), currentUser(r).ID, id); err != nil {
		s.writeError(w, r, err, "Transaction")
		return
	}
	s.countMutation()
	respond(w, r, http.StatusOK, messageResponse{Message: "Transaction deleted"},
		recordChanged(r.URL.Query().Get("monthlyRecordId"), "Transaction deleted"))
}
