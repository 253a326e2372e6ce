package http

import (
	"net/http"

	"bilancio/internal/core"
	"bilancio/internal/services"
)

type monthlyRecordResponse struct {
	core.MonthlyRecord
	Transactions []core.Transaction `json:"transactions"`
	Assets       []core.Asset       `json:"assets"`
}

type summaryResponse struct {
	Year  int `json:"year"`
	Month int `json:"month"`
	core.Summary
	HealthLevel string `json:"healthLevel"`
}

type messageResponse struct {
	Message string `json:"message"`
}

// respond writes payload as JSON. For htmx requests decorate adds the
// triggers and the page is asked to refresh.
func respond(w http.ResponseWriter, r *http.Request, status int, payload interface{}, decorate func(*HTMXResponseBuilder) *HTMXResponseBuilder) {
	b := NewHTMXResponse().Status(status).JSON(payload)
	if isHTMX(r) && decorate != nil {
		b = decorate(b).TriggerFormReset().Refresh()
	}
	b.Write(w)
}

func recordChanged(recordID, message string) func(*HTMXResponseBuilder) *HTMXResponseBuilder {
	return func(b *HTMXResponseBuilder) *HTMXResponseBuilder {
		return b.TriggerRecordChanged(recordID).TriggerSuccessNotification(message)
	}
}

func categoryChanged(message string) func(*HTMXResponseBuilder) *HTMXResponseBuilder {
	return func(b *HTMXResponseBuilder) *HTMXResponseBuilder {
		return b.TriggerCategoryChanged().TriggerSuccessNotification(message)
	}
}

func nonNil[T any](s []T) []T {
	if s == nil {
		return []T{}
	}
	return s
}

// handleMonthlyRecords lists the user's records, or returns one month with
// its transactions and assets when year and month are given.
func (s *Server) handleMonthlyRecords(w http.ResponseWriter, r *http.Request) {
	user := currentUser(r)

	p, ok, err := parseYearMonth(r)
	if err != nil {
		s.writeError(w, r, err, "Monthly record")
		return
	}
	if ok {
		view, err := s.finance.Month(r.Context(), user.ID, p)
		if err != nil {
			s.writeError(w, r, err, "Monthly record")
			return
		}
		writeJSON(w, http.StatusOK, monthlyRecordResponse{
			MonthlyRecord: view.Record,
			Transactions:  nonNil(view.Transactions),
			Assets:        nonNil(view.Assets),
		})
		return
	}

	records, err := s.finance.ListMonthlyRecords(r.Context(), user.ID)
	if err != nil {
		s.writeError(w, r, err, "Monthly record")
		return
	}
	writeJSON(w, http.StatusOK, nonNil(records))
}

// handleSummary evaluates the requested month, or the current one which is
// created on first access.
func (s *Server) handleSummary(w http.ResponseWriter, r *http.Request) {
	user := currentUser(r)

	p, ok, err := parseYearMonth(r)
	if err != nil {
		s.writeError(w, r, err, "Monthly record")
		return
	}

	var view services.MonthView
	if ok {
		view, err = s.finance.Month(r.Context(), user.ID, p)
	} else {
		view, err = s.finance.CurrentMonth(r.Context(), user.ID)
	}
	if err != nil {
		s.writeError(w, r, err, "Monthly record")
		return
	}

	sum := view.Summary
	sum.Suggestions = nonNil(sum.Suggestions)
	writeJSON(w, http.StatusOK, summaryResponse{
		Year:        view.Period.Year,
		Month:       view.Period.Month,
		Summary:     sum,
		HealthLevel: core.HealthLevel(sum.HealthScore),
	})
}
