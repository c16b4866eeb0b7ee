package app_test

import (
	"bytes"
	"context"
	"errors"
	"log/slog"
	"strings"
	"sync"
	"testing"
	"time"

	"bbt/internal/app"
	"bbt/internal/domain"

	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fakeSlots is a map-backed SlotStore with injectable failures.
type fakeSlots struct {
	mu     sync.Mutex
	data   map[string][]byte
	saves  map[string]int
	saveFn func(key string, payload []byte) error
	loadFn func(key string) ([]byte, error)
}

func newFakeSlots() *fakeSlots {
	return &fakeSlots{data: map[string][]byte{}, saves: map[string]int{}}
}

func (f *fakeSlots) LoadSlot(_ context.Context, key string) ([]byte, error) {
	if f.loadFn != nil {
		return f.loadFn(key)
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	v, ok := f.data[key]
	if !ok {
		return nil, domain.ErrSlotNotFound
	}
	return v, nil
}

func (f *fakeSlots) SaveSlot(_ context.Context, key string, payload []byte) error {
	if f.saveFn != nil {
		if err := f.saveFn(key, payload); err != nil {
			return err
		}
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	f.data[key] = append([]byte(nil), payload...)
	f.saves[key]++
	return nil
}

func (f *fakeSlots) saveCount(key string) int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.saves[key]
}

func quietLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(&bytes.Buffer{}, nil))
}

func newStore(t *testing.T, slots domain.SlotStore) *app.RecordStore {
	t.Helper()
	return app.NewRecordStore(context.Background(), slots, app.StoreOptions{
		Location: time.UTC,
		Logger:   quietLogger(),
	})
}

func at(day, hour int) time.Time {
	return time.Date(2026, 4, day, hour, 15, 0, 0, time.UTC)
}

func TestSaveTemperature_OnePerDay(t *testing.T) {
	ctx := context.Background()
	slots := newFakeSlots()
	s := newStore(t, slots)

	s.SaveTemperature(ctx, domain.NewTemperatureRecord(at(1, 6), 9700))
	s.SaveTemperature(ctx, domain.NewTemperatureRecord(at(2, 6), 9710))
	latest := domain.NewTemperatureRecord(at(1, 22), 9735)
	s.SaveTemperature(ctx, latest)

	records := s.Temperatures()
	require.Len(t, records, 2)

	got, ok := s.GetTemperature(at(1, 0))
	require.True(t, ok)
	assert.Equal(t, latest.ID, got.ID)
	assert.Equal(t, 9735, got.Temperature)
	assert.Equal(t, 3, slots.saveCount(domain.SlotTemperatures))
}

func TestSaveTemperature_ReplacesInPlace(t *testing.T) {
	ctx := context.Background()
	slots := newFakeSlots()
	s := newStore(t, slots)

	first := domain.NewTemperatureRecord(at(3, 6), 9700)
	second := domain.NewTemperatureRecord(at(4, 6), 9710)
	assert.False(t, s.SaveTemperature(ctx, first))
	assert.False(t, s.SaveTemperature(ctx, second))
	assert.True(t, s.SaveTemperature(ctx, domain.NewTemperatureRecord(at(3, 7), 9720)))

	saved, err := domain.DecodeTemperatures(slots.data[domain.SlotTemperatures])
	require.NoError(t, err)
	require.Len(t, saved, 2)
	assert.Equal(t, 9720, saved[0].Temperature, "replacement keeps the original slot")
	assert.Equal(t, second.ID, saved[1].ID)
}

func TestSaveTemperature_DayFollowsLocation(t *testing.T) {
	ctx := context.Background()
	la, err := time.LoadLocation("America/Los_Angeles")
	require.NoError(t, err)

	s := app.NewRecordStore(ctx, newFakeSlots(), app.StoreOptions{Location: la, Logger: quietLogger()})

	// 05:00 and 23:00 UTC on the same UTC date are different days in Los Angeles.
	s.SaveTemperature(ctx, domain.NewTemperatureRecord(time.Date(2026, 4, 10, 5, 0, 0, 0, time.UTC), 9700))
	s.SaveTemperature(ctx, domain.NewTemperatureRecord(time.Date(2026, 4, 10, 23, 0, 0, 0, time.UTC), 9710))
	assert.Len(t, s.Temperatures(), 2)

	// 06:00 UTC on the 11th is still the 10th in Los Angeles.
	s.SaveTemperature(ctx, domain.NewTemperatureRecord(time.Date(2026, 4, 11, 6, 0, 0, 0, time.UTC), 9720))
	assert.Len(t, s.Temperatures(), 2)
}

func TestGetTemperature_NotFound(t *testing.T) {
	s := newStore(t, newFakeSlots())
	_, ok := s.GetTemperature(at(1, 0))
	assert.False(t, ok)
}

func TestEmptyStore_ReturnsEmptySlices(t *testing.T) {
	s := newStore(t, newFakeSlots())

	temps := s.Temperatures()
	require.NotNil(t, temps)
	assert.Empty(t, temps)

	cycles := s.Cycles()
	require.NotNil(t, cycles)
	assert.Empty(t, cycles)

	recent := s.Recent(5)
	require.NotNil(t, recent)
	assert.Empty(t, recent)
}

func TestDeleteTemperature(t *testing.T) {
	ctx := context.Background()
	slots := newFakeSlots()
	s := newStore(t, slots)

	rec := domain.NewTemperatureRecord(at(5, 6), 9700)
	s.SaveTemperature(ctx, rec)
	require.Equal(t, 1, slots.saveCount(domain.SlotTemperatures))

	assert.False(t, s.DeleteTemperature(ctx, uuid.New()))
	assert.Equal(t, 1, slots.saveCount(domain.SlotTemperatures), "unknown id must not persist")

	assert.True(t, s.DeleteTemperature(ctx, rec.ID))
	assert.Empty(t, s.Temperatures())
	assert.Equal(t, 2, slots.saveCount(domain.SlotTemperatures))
}

func TestRecordCycleStart_Accumulates(t *testing.T) {
	ctx := context.Background()
	slots := newFakeSlots()
	s := newStore(t, slots)

	s.RecordCycleStart(ctx, domain.NewCycleRecord(at(1, 9), time.UTC))
	s.RecordCycleStart(ctx, domain.NewCycleRecord(at(1, 9), time.UTC))

	assert.Len(t, s.Cycles(), 2)
	assert.Equal(t, 2, slots.saveCount(domain.SlotCycles))
	assert.Zero(t, slots.saveCount(domain.SlotTemperatures))
}

func TestDaysSinceLastCycle(t *testing.T) {
	ctx := context.Background()
	s := newStore(t, newFakeSlots())

	now := time.Date(2026, 4, 20, 8, 0, 0, 0, time.UTC)
	_, ok := s.DaysSinceLastCycle(now)
	assert.False(t, ok)

	s.RecordCycleStart(ctx, domain.NewCycleRecord(now.AddDate(0, 0, -3), time.UTC))
	s.RecordCycleStart(ctx, domain.NewCycleRecord(now.AddDate(0, 0, -10), time.UTC))

	days, ok := s.DaysSinceLastCycle(now)
	require.True(t, ok)
	assert.Equal(t, 3, days)
}

func TestDetectOvulation_FromStore(t *testing.T) {
	ctx := context.Background()
	s := newStore(t, newFakeSlots())

	_, ok := s.DetectOvulation()
	assert.False(t, ok, "empty store")

	s.SaveTemperature(ctx, domain.NewTemperatureRecord(at(3, 6), 9760))
	s.SaveTemperature(ctx, domain.NewTemperatureRecord(at(1, 6), 9700))
	s.SaveTemperature(ctx, domain.NewTemperatureRecord(at(2, 6), 9750))

	got, ok := s.DetectOvulation()
	require.True(t, ok)
	assert.True(t, got.Equal(at(2, 6)))

	series := s.Series()
	require.Len(t, series, 3)
	assert.InDelta(t, 97.00, series[0].Degrees, 1e-9)
	assert.InDelta(t, 97.60, series[2].Degrees, 1e-9)
}

func TestRecent(t *testing.T) {
	ctx := context.Background()
	s := newStore(t, newFakeSlots())
	for d := 1; d <= 5; d++ {
		s.SaveTemperature(ctx, domain.NewTemperatureRecord(at(d, 6), 9700+d))
	}

	recent := s.Recent(2)
	require.Len(t, recent, 2)
	assert.Equal(t, 9705, recent[0].Temperature)
	assert.Equal(t, 9704, recent[1].Temperature)
	assert.Len(t, s.Recent(0), 5)
}

func TestNewRecordStore_LoadsSavedState(t *testing.T) {
	ctx := context.Background()
	slots := newFakeSlots()
	first := newStore(t, slots)
	rec := domain.NewTemperatureRecord(at(7, 6), 9744)
	cyc := domain.NewCycleRecord(at(1, 0), time.UTC)
	first.SaveTemperature(ctx, rec)
	first.RecordCycleStart(ctx, cyc)

	second := newStore(t, slots)
	got, ok := second.GetTemperature(at(7, 12))
	require.True(t, ok)
	assert.Equal(t, rec.ID, got.ID)
	assert.Equal(t, 9744, got.Temperature)
	require.Len(t, second.Cycles(), 1)
	assert.Equal(t, cyc.ID, second.Cycles()[0].ID)
}

func TestNewRecordStore_CorruptSlotIsEmpty(t *testing.T) {
	slots := newFakeSlots()
	slots.data[domain.SlotTemperatures] = []byte("{corrupt")
	cycles, err := domain.EncodeCycles([]domain.CycleRecord{domain.NewCycleRecord(at(1, 0), time.UTC)})
	require.NoError(t, err)
	slots.data[domain.SlotCycles] = cycles

	var logs bytes.Buffer
	reg := prometheus.NewRegistry()
	metrics := app.NewMetrics(reg)
	s := app.NewRecordStore(context.Background(), slots, app.StoreOptions{
		Location: time.UTC,
		Logger:   slog.New(slog.NewTextHandler(&logs, nil)),
		Metrics:  metrics,
	})

	assert.Empty(t, s.Temperatures())
	assert.Len(t, s.Cycles(), 1, "a corrupt slot must not affect the other")
	assert.True(t, strings.Contains(logs.String(), "level=WARN"), logs.String())
	assert.Contains(t, logs.String(), domain.SlotTemperatures)

	n, err := testutil.GatherAndCount(reg, "bbt_persistence_failures_total")
	require.NoError(t, err)
	assert.Equal(t, 1, n)
}

func TestNewRecordStore_LoadErrorIsEmpty(t *testing.T) {
	slots := newFakeSlots()
	slots.loadFn = func(string) ([]byte, error) { return nil, errors.New("disk unavailable") }

	s := newStore(t, slots)
	assert.Empty(t, s.Temperatures())
	assert.Empty(t, s.Cycles())
}

func TestSaveTemperature_WriteFailureKeepsMemory(t *testing.T) {
	ctx := context.Background()
	slots := newFakeSlots()
	fail := true
	slots.saveFn = func(string, []byte) error {
		if fail {
			return errors.New("quota exceeded")
		}
		return nil
	}

	reg := prometheus.NewRegistry()
	s := app.NewRecordStore(ctx, slots, app.StoreOptions{
		Location: time.UTC,
		Logger:   quietLogger(),
		Metrics:  app.NewMetrics(reg),
	})

	first := domain.NewTemperatureRecord(at(1, 6), 9700)
	s.SaveTemperature(ctx, first)
	_, ok := s.GetTemperature(at(1, 6))
	assert.True(t, ok, "in-memory state stays authoritative")
	assert.Zero(t, slots.saveCount(domain.SlotTemperatures))

	// The next mutation retries the full collection.
	fail = false
	s.SaveTemperature(ctx, domain.NewTemperatureRecord(at(2, 6), 9710))
	saved, err := domain.DecodeTemperatures(slots.data[domain.SlotTemperatures])
	require.NoError(t, err)
	assert.Len(t, saved, 2)
}

func TestSubscribe(t *testing.T) {
	ctx := context.Background()
	s := newStore(t, newFakeSlots())

	var got []app.ChangeKind
	unsubscribe := s.Subscribe(func(c app.Change) { got = append(got, c.Kind) })

	rec := domain.NewTemperatureRecord(at(1, 6), 9700)
	s.SaveTemperature(ctx, rec)
	s.RecordCycleStart(ctx, domain.NewCycleRecord(at(1, 0), time.UTC))
	s.DeleteTemperature(ctx, uuid.New())
	s.DeleteTemperature(ctx, rec.ID)

	assert.Equal(t, []app.ChangeKind{app.TemperaturesChanged, app.CyclesChanged, app.TemperaturesChanged}, got)

	unsubscribe()
	s.SaveTemperature(ctx, rec)
	assert.Len(t, got, 3)
}

func TestRecordStore_ConcurrentReadsAndWrites(t *testing.T) {
	ctx := context.Background()
	s := newStore(t, newFakeSlots())

	var wg sync.WaitGroup
	for d := 1; d <= 20; d++ {
		wg.Add(2)
		go func(d int) {
			defer wg.Done()
			s.SaveTemperature(ctx, domain.NewTemperatureRecord(at(d, 6), 9700+d))
		}(d)
		go func() {
			defer wg.Done()
			_, _ = s.DetectOvulation()
			_ = s.Series()
		}()
	}
	wg.Wait()

	assert.Len(t, s.Temperatures(), 20)
}
