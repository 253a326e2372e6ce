package http

import (
	"bytes"
	"fmt"
	"html/template"
	"io/fs"
	"net/http"
	"time"

	"github.com/shopspring/decimal"

	"bilancio/internal/core"
	"bilancio/internal/log"
)

var pageNames = []string{"signin", "signup", "dashboard", "history", "month", "settings"}

// pageData is what every page template receives; Data is page specific.
type pageData struct {
	Title  string
	Active string
	User   core.User
	Data   interface{}
}

var templateFuncs = template.FuncMap{
	"euros": core.FormatEuros,
	"date": func(t time.Time) string {
		return t.Format("2006-01-02")
	},
	"level": core.HealthLevel,
	"scoreClass": func(score int) string {
		switch {
		case score >= 80:
			return "good"
		case score >= 40:
			return "fair"
		default:
			return "poor"
		}
	},
	"negative": func(d decimal.Decimal) bool {
		return d.IsNegative()
	},
	"categoryTypes": core.CategoryTypes,
}

// parseTemplates builds one template set per page, each with the shared layout.
func parseTemplates(fsys fs.FS) (map[string]*template.Template, error) {
	pages := make(map[string]*template.Template, len(pageNames))
	for _, name := range pageNames {
		t, err := template.New(name).Funcs(templateFuncs).ParseFS(fsys, "templates/layout.html", "templates/"+name+".html")
		if err != nil {
			return nil, fmt.Errorf("parse template %s: %w", name, err)
		}
		pages[name] = t
	}
	return pages, nil
}

// render executes the page into a buffer first so a template error still
// produces a clean 500.
func (s *Server) render(w http.ResponseWriter, r *http.Request, name string, status int, data pageData) {
	t, ok := s.pages[name]
	if !ok {
		s.writeErrorStatus(w, r, fmt.Errorf("unknown page %q", name), http.StatusInternalServerError, "Internal server error", log.ErrorTypeInternal)
		return
	}
	data.User = currentUser(r)
	if data.Active == "" {
		data.Active = name
	}

	var buf bytes.Buffer
	if err := t.ExecuteTemplate(&buf, "layout", data); err != nil {
		log.FromContext(r.Context()).WithComponent(log.ComponentTemplate).ErrorContext(r.Context(), "Template execution failed",
			log.FieldOperation, log.OpRender, "template", name, log.FieldError, err.Error())
		InternalServerError("Internal server error").Write(w)
		return
	}

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(status)
	_, _ = buf.WriteTo(w)
}
