package adapthttp

import (
	"net/http"

	"bbt/internal/domain"
)

func (s *Server) handleOvulation(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	}
	date, ok := s.store.DetectOvulation()
	if !ok {
		writeJSON(w, http.StatusOK, map[string]any{"detected": false, "date": nil, "day": nil})
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"detected": true,
		"date":     date,
		"day":      domain.DayString(date, s.store.Location()),
	})
}

func (s *Server) handleChartsTemperature(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	}
	writeJSON(w, http.StatusOK, s.charts.GetTemperatureChart())
}
