package http

import (
	"net/http"
	"strconv"
	"strings"
	"time"

	"bilancio/internal/core"
)

// parseYearMonth reads ?year&month. ok is false when either is absent;
// err is set when they are present but not a valid calendar month.
func parseYearMonth(r *http.Request) (p core.Period, ok bool, err error) {
	q := r.URL.Query()
	ys, ms := strings.TrimSpace(q.Get("year")), strings.TrimSpace(q.Get("month"))
	if ys == "" || ms == "" {
		return core.Period{}, false, nil
	}
	year, err := strconv.Atoi(ys)
	if err != nil {
		return core.Period{}, true, core.ErrInvalidYear
	}
	month, err := strconv.Atoi(ms)
	if err != nil {
		return core.Period{}, true, core.ErrInvalidMonth
	}
	p, err = core.NewPeriod(year, month)
	return p, true, err
}

// parseDate accepts YYYY-MM-DD and RFC 3339 timestamps.
func parseDate(s string) (time.Time, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return time.Time{}, core.ErrInvalidDate
	}
	if t, err := time.Parse("2006-01-02", s); err == nil {
		return t, nil
	}
	t, err := time.Parse(time.RFC3339, s)
	if err != nil {
		return time.Time{}, core.ErrInvalidDate
	}
	return t, nil
}

// sanitizeInput removes control characters and trims whitespace.
func sanitizeInput(s string) string {
	s = strings.TrimSpace(s)
	return strings.Map(func(r rune) rune {
		if r < 32 && r != 9 && r != 10 && r != 13 {
			return -1
		}
		return r
	}, s)
}

func isHTMX(r *http.Request) bool {
	return r.Header.Get("HX-Request") == "true"
}

func isAPI(r *http.Request) bool {
	return strings.HasPrefix(r.URL.Path, "/api/")
}
