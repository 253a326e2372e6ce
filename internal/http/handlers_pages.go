package http

import (
	"net/http"
	"strconv"

	"github.com/gorilla/mux"

	"bilancio/internal/core"
	"bilancio/internal/services"
)

type monthPage struct {
	View        services.MonthView
	Categories  []core.Category
	DefaultDate string
	Prev        core.Period
	Next        core.Period
	IsCurrent   bool
}

type historyPage struct {
	Entries   []services.HistoryEntry
	ShowChart bool
}

type categoryGroup struct {
	Type       core.CategoryType
	Label      string
	Categories []core.Category
}

func (s *Server) monthPage(r *http.Request, view services.MonthView) (monthPage, error) {
	cats, err := s.finance.ListCategories(r.Context(), currentUser(r).ID, "")
	if err != nil {
		return monthPage{}, err
	}

	current := s.finance.CurrentPeriod()
	defaultDate := view.Period.Start()
	if view.Period == current {
		defaultDate = s.finance.Now()
	}
	return monthPage{
		View:        view,
		Categories:  cats,
		DefaultDate: defaultDate.Format("2006-01-02"),
		Prev:        view.Period.Previous(),
		Next:        view.Period.Next(),
		IsCurrent:   view.Period == current,
	}, nil
}

// handleDashboard shows the current month, creating its record on first visit.
func (s *Server) handleDashboard(w http.ResponseWriter, r *http.Request) {
	view, err := s.finance.CurrentMonth(r.Context(), currentUser(r).ID)
	if err != nil {
		s.writeError(w, r, err, "Monthly record")
		return
	}
	data, err := s.monthPage(r, view)
	if err != nil {
		s.writeError(w, r, err, "Category")
		return
	}
	s.render(w, r, "dashboard", http.StatusOK, pageData{Title: "Dashboard", Data: data})
}

// handleMonth renders an existing month. Bad or unknown months go back to
// the dashboard.
func (s *Server) handleMonth(w http.ResponseWriter, r *http.Request) {
	vars := mux.Vars(r)
	year, yerr := strconv.Atoi(vars["year"])
	month, merr := strconv.Atoi(vars["month"])
	p, perr := core.NewPeriod(year, month)
	if yerr != nil || merr != nil || perr != nil {
		http.Redirect(w, r, "/dashboard", http.StatusSeeOther)
		return
	}

	view, err := s.finance.Month(r.Context(), currentUser(r).ID, p)
	if err != nil {
		if services.IsNotFound(err) {
			http.Redirect(w, r, "/dashboard", http.StatusSeeOther)
			return
		}
		s.writeError(w, r, err, "Monthly record")
		return
	}
	data, err := s.monthPage(r, view)
	if err != nil {
		s.writeError(w, r, err, "Category")
		return
	}
	s.render(w, r, "month", http.StatusOK, pageData{Title: p.String(), Active: "history", Data: data})
}

func (s *Server) handleHistory(w http.ResponseWriter, r *http.Request) {
	entries, err := s.finance.History(r.Context(), currentUser(r).ID)
	if err != nil {
		s.writeError(w, r, err, "Monthly record")
		return
	}
	s.render(w, r, "history", http.StatusOK, pageData{
		Title: "History",
		Data:  historyPage{Entries: entries, ShowChart: len(entries) >= minChartPoints},
	})
}

func (s *Server) handleSettings(w http.ResponseWriter, r *http.Request) {
	cats, err := s.finance.ListCategories(r.Context(), currentUser(r).ID, "")
	if err != nil {
		s.writeError(w, r, err, "Category")
		return
	}

	groups := make([]categoryGroup, 0, len(core.CategoryTypes()))
	for _, ct := range core.CategoryTypes() {
		g := categoryGroup{Type: ct, Label: ct.Label()}
		for _, c := range cats {
			if c.Type == ct {
				g.Categories = append(g.Categories, c)
			}
		}
		groups = append(groups, g)
	}
	s.render(w, r, "settings", http.StatusOK, pageData{Title: "Settings", Data: groups})
}
