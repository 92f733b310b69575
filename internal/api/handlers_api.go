package api

import (
	"fmt"
	"net/http"
	"strconv"

	"github.com/lox/weatherdash/internal/weather"
)

type forecastQuery struct {
	City string `validate:"required,max=100"`
	Days int    `validate:"min=1,max=16"`
	View string `validate:"omitempty,oneof=overview detailed"`
}

type cityQuery struct {
	City string `validate:"required,max=100"`
}

type searchQuery struct {
	Q     string `validate:"max=100"`
	Count int    `validate:"min=0,max=20"`
}

type compareQuery struct {
	Cities []string `validate:"min=1,max=6,dive,required,max=100"`
	Days   int      `validate:"min=1,max=16"`
}

// parseDays reads the range parameter ("7days", "5days" or an integer).
// It defaults to seven days.
func parseDays(r *http.Request) (int, error) {
	v := r.URL.Query().Get("range")
	if v == "" {
		v = r.URL.Query().Get("days")
	}
	if v == "" {
		return 7, nil
	}
	return weather.ParseRange(v)
}

func (s *Server) badRequest(w http.ResponseWriter, r *http.Request, err error) {
	writeError(w, r, fmt.Errorf("%w: %v", weather.ErrInvalidInput, err))
}

func (s *Server) handleAPIForecast(w http.ResponseWriter, r *http.Request) {
	days, err := parseDays(r)
	if err != nil {
		s.badRequest(w, r, err)
		return
	}
	q := forecastQuery{City: r.URL.Query().Get("city"), Days: days, View: r.URL.Query().Get("view")}
	if err := s.validate.Struct(q); err != nil {
		s.badRequest(w, r, err)
		return
	}
	view, err := weather.ParseView(q.View)
	if err != nil {
		s.badRequest(w, r, err)
		return
	}

	report, err := s.svc.Report(r.Context(), q.City, q.Days)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, report.WithView(view))
}

func (s *Server) handleAPICurrent(w http.ResponseWriter, r *http.Request) {
	q := cityQuery{City: r.URL.Query().Get("city")}
	if err := s.validate.Struct(q); err != nil {
		s.badRequest(w, r, err)
		return
	}

	cur, err := s.svc.Current(r.Context(), q.City)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, cur)
}

func (s *Server) handleAPICities(w http.ResponseWriter, r *http.Request) {
	q := searchQuery{Q: r.URL.Query().Get("q")}
	if c := r.URL.Query().Get("count"); c != "" {
		n, err := strconv.Atoi(c)
		if err != nil {
			s.badRequest(w, r, err)
			return
		}
		q.Count = n
	}
	if err := s.validate.Struct(q); err != nil {
		s.badRequest(w, r, err)
		return
	}

	matches, err := s.svc.Search(r.Context(), q.Q, q.Count)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, matches)
}

func (s *Server) handleAPICompare(w http.ResponseWriter, r *http.Request) {
	days, err := parseDays(r)
	if err != nil {
		s.badRequest(w, r, err)
		return
	}
	q := compareQuery{Cities: r.URL.Query()["city"], Days: days}
	if err := s.validate.Struct(q); err != nil {
		s.badRequest(w, r, err)
		return
	}

	reports, err := s.svc.Compare(r.Context(), q.Cities, q.Days)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, reports)
}
