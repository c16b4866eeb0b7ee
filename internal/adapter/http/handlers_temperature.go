package adapthttp

import (
	"errors"
	"net/http"
	"time"

	"bbt/internal/domain"

	"github.com/google/uuid"
)

// Readings outside a basal thermometer's 95.00-103.99°F span are rejected here;
// the store itself accepts any value.
type temperatureRequest struct {
	DateTime    time.Time `json:"dateTime" validate:"required"`
	Temperature int       `json:"temperature" validate:"min=9500,max=10399"`
}

func (s *Server) handleTemperature(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	loc := s.store.Location()

	switch r.Method {
	case http.MethodGet:
		day := s.today()
		if q := r.URL.Query().Get("date"); q != "" {
			parsed, err := domain.ParseDay(q, loc)
			if err != nil {
				writeError(w, http.StatusBadRequest, errors.New("date must be YYYY-MM-DD"))
				return
			}
			day = parsed
		}
		var entry *domain.TemperatureRecord
		if rec, ok := s.store.GetTemperature(day); ok {
			entry = &rec
		}
		writeJSON(w, http.StatusOK, map[string]any{"day": domain.DayString(day, loc), "entry": entry})

	case http.MethodPut:
		var body temperatureRequest
		if err := parseJSON(r, &body); err != nil {
			writeError(w, http.StatusBadRequest, err)
			return
		}
		rec := domain.NewTemperatureRecord(body.DateTime, body.Temperature)
		replaced := s.store.SaveTemperature(ctx, rec)
		writeJSON(w, http.StatusOK, map[string]any{
			"day":       domain.DayString(rec.DateTime, loc),
			"entry":     rec,
			"formatted": rec.Formatted(),
			"replaced":  replaced,
		})

	case http.MethodDelete:
		id, err := uuid.Parse(r.URL.Query().Get("id"))
		if err != nil {
			writeError(w, http.StatusBadRequest, errors.New("id must be a UUID"))
			return
		}
		writeJSON(w, http.StatusOK, map[string]any{"deleted": s.store.DeleteTemperature(ctx, id)})

	default:
		w.WriteHeader(http.StatusMethodNotAllowed)
	}
}

func (s *Server) handleTemperatureRecent(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	}
	limit := intQuery(r, "limit", 14)
	writeJSON(w, http.StatusOK, map[string]any{"items": s.store.Recent(limit)})
}
