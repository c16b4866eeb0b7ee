package app

import (
	"time"

	"bbt/internal/domain"
)

// Reference bands drawn behind the temperature chart, in hundredths of a
// degree Fahrenheit.
var (
	PreOvulationBand  = Band{Low: 9600, High: 9800}
	PostOvulationBand = Band{Low: 9700, High: 9900}
)

// Band is an inclusive temperature range.
type Band struct {
	Low  int `json:"low"`
	High int `json:"high"`
}

// ChartsService builds chart views from the record store.
type ChartsService struct {
	store *RecordStore
}

// NewChartsService creates a ChartsService reading from store.
func NewChartsService(store *RecordStore) *ChartsService {
	return &ChartsService{store: store}
}

// ChartPoint is one plotted reading.
type ChartPoint struct {
	DateTime time.Time `json:"dateTime"`
	Day      string    `json:"day"`
	Degrees  float64   `json:"degrees"`
	Label    string    `json:"label"`
	CycleDay *int      `json:"cycleDay"`
}

// TemperatureChart is everything the chart view renders.
type TemperatureChart struct {
	Points        []ChartPoint `json:"points"`
	Ovulation     *time.Time   `json:"ovulation"`
	PreOvulation  Band         `json:"preOvulation"`
	PostOvulation Band         `json:"postOvulation"`
}

// GetTemperatureChart returns the full temperature series, oldest first, with
// each point's cycle day and the detected ovulation date.
func (s *ChartsService) GetTemperatureChart() TemperatureChart {
	loc := s.store.Location()
	records := s.store.Temperatures()
	cycles := s.store.Cycles()

	series := domain.Series(records)
	points := make([]ChartPoint, 0, len(series))
	for i, p := range series {
		cp := ChartPoint{
			DateTime: p.DateTime,
			Day:      domain.DayString(p.DateTime, loc),
			Degrees:  p.Degrees,
			Label:    records[i].Formatted(),
		}
		if n, ok := domain.CycleDay(cycles, p.DateTime, loc); ok {
			cp.CycleDay = &n
		}
		points = append(points, cp)
	}

	chart := TemperatureChart{
		Points:        points,
		PreOvulation:  PreOvulationBand,
		PostOvulation: PostOvulationBand,
	}
	if d, ok := domain.DetectOvulation(records); ok {
		chart.Ovulation = &d
	}
	return chart
}
