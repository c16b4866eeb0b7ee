package adapthttp

import (
	"net/http"

	"bbt/internal/domain"
)

func (s *Server) handleCycleStart(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	}
	var body struct {
		Date string `json:"date" validate:"required,datetime=2006-01-02"`
	}
	if err := parseJSON(r, &body); err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}

	loc := s.store.Location()
	day, err := domain.ParseDay(body.Date, loc)
	if err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}
	rec := domain.NewCycleRecord(day, loc)
	s.store.RecordCycleStart(r.Context(), rec)

	days, _ := s.store.DaysSinceLastCycle(s.today())
	writeJSON(w, http.StatusOK, map[string]any{"cycle": rec, "daysSinceLastCycle": days})
}

func (s *Server) handleCycleCurrent(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	}
	now := s.today()
	var days *int
	if n, ok := s.store.DaysSinceLastCycle(now); ok {
		days = &n
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"today":              domain.DayString(now, s.store.Location()),
		"daysSinceLastCycle": days,
		"cycles":             s.store.Cycles(),
	})
}
