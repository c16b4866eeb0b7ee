package app_test

import (
	"context"
	"testing"
	"time"

	"bbt/internal/app"
	"bbt/internal/domain"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGetTemperatureChart_Empty(t *testing.T) {
	svc := app.NewChartsService(newStore(t, newFakeSlots()))
	chart := svc.GetTemperatureChart()

	assert.Empty(t, chart.Points)
	assert.Nil(t, chart.Ovulation)
	assert.Equal(t, app.PreOvulationBand, chart.PreOvulation)
	assert.Equal(t, app.PostOvulationBand, chart.PostOvulation)
}

func TestGetTemperatureChart(t *testing.T) {
	ctx := context.Background()
	store := newStore(t, newFakeSlots())
	store.RecordCycleStart(ctx, domain.NewCycleRecord(at(2, 0), time.UTC))
	for i, v := range []int{9700, 9705, 9750, 9760} {
		store.SaveTemperature(ctx, domain.NewTemperatureRecord(at(i+1, 6), v))
	}

	chart := app.NewChartsService(store).GetTemperatureChart()
	require.Len(t, chart.Points, 4)

	first := chart.Points[0]
	assert.Equal(t, "2026-04-01", first.Day)
	assert.Equal(t, "97.00°F", first.Label)
	assert.Nil(t, first.CycleDay, "reading before any cycle start")

	require.NotNil(t, chart.Points[1].CycleDay)
	assert.Equal(t, 0, *chart.Points[1].CycleDay)
	require.NotNil(t, chart.Points[3].CycleDay)
	assert.Equal(t, 2, *chart.Points[3].CycleDay)
	assert.InDelta(t, 97.60, chart.Points[3].Degrees, 1e-9)

	require.NotNil(t, chart.Ovulation)
	assert.True(t, chart.Ovulation.Equal(at(3, 6)))
}
