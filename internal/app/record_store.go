package app

import (
	"context"
	"errors"
	"log/slog"
	"slices"
	"sync"
	"time"

	"bbt/internal/domain"

	"github.com/google/uuid"
)

// ChangeKind identifies which collection a Change touched.
type ChangeKind int

const (
	// TemperaturesChanged is sent after a save or delete of a temperature.
	TemperaturesChanged ChangeKind = iota + 1
	// CyclesChanged is sent after a cycle start is recorded.
	CyclesChanged
)

// Change is delivered to subscribers after a mutation has been applied.
type Change struct {
	Kind ChangeKind
}

// StoreOptions configures a RecordStore.
type StoreOptions struct {
	// Location is the calendar used for same-day and elapsed-day math.
	// Defaults to time.Local.
	Location *time.Location
	Logger   *slog.Logger
	Metrics  *Metrics
}

// RecordStore owns the temperature and cycle collections. Every mutation is
// written through to the slot store before it returns; persistence failures
// are logged and never roll back the in-memory state.
type RecordStore struct {
	slots   domain.SlotStore
	loc     *time.Location
	log     *slog.Logger
	metrics *Metrics

	mu           sync.RWMutex
	temperatures []domain.TemperatureRecord
	cycles       []domain.CycleRecord

	subMu sync.Mutex
	subID int
	subs  map[int]func(Change)
}

// NewRecordStore creates a store and loads both collections from slots.
// A missing or undecodable slot yields an empty collection.
func NewRecordStore(ctx context.Context, slots domain.SlotStore, opts StoreOptions) *RecordStore {
	s := &RecordStore{
		slots:   slots,
		loc:     opts.Location,
		log:     opts.Logger,
		metrics: opts.Metrics,
		subs:    make(map[int]func(Change)),
	}
	if s.loc == nil {
		s.loc = time.Local
	}
	if s.log == nil {
		s.log = slog.Default()
	}

	if data, ok := s.load(ctx, domain.SlotTemperatures); ok {
		records, err := domain.DecodeTemperatures(data)
		if err != nil {
			s.warn("load", domain.SlotTemperatures, err)
		} else {
			s.temperatures = records
		}
	}
	if data, ok := s.load(ctx, domain.SlotCycles); ok {
		records, err := domain.DecodeCycles(data)
		if err != nil {
			s.warn("load", domain.SlotCycles, err)
		} else {
			s.cycles = records
		}
	}
	return s
}

// Location returns the calendar the store uses for day comparisons.
func (s *RecordStore) Location() *time.Location {
	return s.loc
}

// SaveTemperature stores rec, replacing any record on the same calendar day.
// It reports whether an existing record was replaced.
func (s *RecordStore) SaveTemperature(ctx context.Context, rec domain.TemperatureRecord) bool {
	s.mu.Lock()
	idx := slices.IndexFunc(s.temperatures, func(r domain.TemperatureRecord) bool {
		return domain.SameDay(r.DateTime, rec.DateTime, s.loc)
	})
	if idx >= 0 {
		s.temperatures[idx] = rec
	} else {
		s.temperatures = append(s.temperatures, rec)
	}
	s.persistTemperatures(ctx)
	s.mu.Unlock()

	s.notify(Change{Kind: TemperaturesChanged})
	return idx >= 0
}

// GetTemperature returns the record logged on day's calendar day.
func (s *RecordStore) GetTemperature(day time.Time) (domain.TemperatureRecord, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	for _, r := range s.temperatures {
		if domain.SameDay(r.DateTime, day, s.loc) {
			return r, true
		}
	}
	return domain.TemperatureRecord{}, false
}

// DeleteTemperature removes the record with id. It reports whether a record
// was removed; nothing is persisted when id is unknown.
func (s *RecordStore) DeleteTemperature(ctx context.Context, id uuid.UUID) bool {
	s.mu.Lock()
	idx := slices.IndexFunc(s.temperatures, func(r domain.TemperatureRecord) bool {
		return r.ID == id
	})
	if idx < 0 {
		s.mu.Unlock()
		return false
	}
	s.temperatures = slices.Delete(s.temperatures, idx, idx+1)
	s.persistTemperatures(ctx)
	s.mu.Unlock()

	s.notify(Change{Kind: TemperaturesChanged})
	return true
}

// RecordCycleStart appends rec to the cycle history.
func (s *RecordStore) RecordCycleStart(ctx context.Context, rec domain.CycleRecord) {
	s.mu.Lock()
	s.cycles = append(s.cycles, rec)
	s.persistCycles(ctx)
	s.mu.Unlock()

	s.notify(Change{Kind: CyclesChanged})
}

// DaysSinceLastCycle returns the calendar days between the most recent cycle
// start and now.
func (s *RecordStore) DaysSinceLastCycle(now time.Time) (int, bool) {
	s.mu.RLock()
	latest, ok := domain.LatestCycle(s.cycles)
	s.mu.RUnlock()
	if !ok {
		return 0, false
	}
	return domain.DaysBetween(latest.StartDate, now, s.loc), true
}

// DetectOvulation runs the ovulation analysis over the current temperatures.
func (s *RecordStore) DetectOvulation() (time.Time, bool) {
	return domain.DetectOvulation(s.Temperatures())
}

// Series returns the chart-ready temperature series in time order.
func (s *RecordStore) Series() []domain.SeriesPoint {
	return domain.Series(s.Temperatures())
}

// Temperatures returns a copy of all temperature records, oldest first. The
// result is never nil.
func (s *RecordStore) Temperatures() []domain.TemperatureRecord {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return domain.SortedTemperatures(s.temperatures)
}

// Cycles returns a copy of all cycle records, oldest first.
func (s *RecordStore) Cycles() []domain.CycleRecord {
	s.mu.RLock()
	out := append(make([]domain.CycleRecord, 0, len(s.cycles)), s.cycles...)
	s.mu.RUnlock()
	slices.SortStableFunc(out, func(a, b domain.CycleRecord) int {
		return a.StartDate.Compare(b.StartDate)
	})
	return out
}

// Recent returns up to limit temperature records, newest first.
func (s *RecordStore) Recent(limit int) []domain.TemperatureRecord {
	out := s.Temperatures()
	slices.Reverse(out)
	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out
}

// Subscribe registers fn to be called after every mutation. The returned
// func removes the subscription.
func (s *RecordStore) Subscribe(fn func(Change)) func() {
	s.subMu.Lock()
	defer s.subMu.Unlock()
	s.subID++
	id := s.subID
	s.subs[id] = fn
	return func() {
		s.subMu.Lock()
		defer s.subMu.Unlock()
		delete(s.subs, id)
	}
}

func (s *RecordStore) notify(c Change) {
	s.subMu.Lock()
	fns := make([]func(Change), 0, len(s.subs))
	for _, fn := range s.subs {
		fns = append(fns, fn)
	}
	s.subMu.Unlock()
	for _, fn := range fns {
		fn(c)
	}
}

func (s *RecordStore) load(ctx context.Context, key string) ([]byte, bool) {
	data, err := s.slots.LoadSlot(ctx, key)
	if errors.Is(err, domain.ErrSlotNotFound) {
		return nil, false
	}
	if err != nil {
		s.warn("load", key, err)
		return nil, false
	}
	return data, true
}

// persistTemperatures must be called with mu held.
func (s *RecordStore) persistTemperatures(ctx context.Context) {
	data, err := domain.EncodeTemperatures(s.temperatures)
	if err != nil {
		s.warn("save", domain.SlotTemperatures, err)
		return
	}
	s.save(ctx, domain.SlotTemperatures, data)
}

// persistCycles must be called with mu held.
func (s *RecordStore) persistCycles(ctx context.Context) {
	data, err := domain.EncodeCycles(s.cycles)
	if err != nil {
		s.warn("save", domain.SlotCycles, err)
		return
	}
	s.save(ctx, domain.SlotCycles, data)
}

func (s *RecordStore) save(ctx context.Context, key string, data []byte) {
	if err := s.slots.SaveSlot(ctx, key, data); err != nil {
		s.warn("save", key, err)
		return
	}
	s.metrics.slotWritten(key)
}

func (s *RecordStore) warn(op, key string, err error) {
	s.metrics.persistFailed(key, op)
	s.log.Warn("record store persistence failed", "op", op, "slot", key, "err", err)
}
