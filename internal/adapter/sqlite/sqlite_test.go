package sqlite

import (
	"context"
	"errors"
	"path/filepath"
	"testing"
	"time"

	"bbt/internal/app"
	"bbt/internal/domain"
)

func openTestDB(t *testing.T, path string) *DB {
	t.Helper()
	d, err := Open(path)
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	t.Cleanup(func() { _ = d.Close() })
	return d
}

func TestSlotStore(t *testing.T) {
	d := openTestDB(t, filepath.Join(t.TempDir(), "bbt.db"))
	ctx := context.Background()

	if _, err := d.LoadSlot(ctx, domain.SlotTemperatures); !errors.Is(err, domain.ErrSlotNotFound) {
		t.Fatalf("expected ErrSlotNotFound, got %v", err)
	}

	if err := d.SaveSlot(ctx, domain.SlotTemperatures, []byte(`[1]`)); err != nil {
		t.Fatalf("SaveSlot: %v", err)
	}
	if err := d.SaveSlot(ctx, domain.SlotTemperatures, []byte(`[2]`)); err != nil {
		t.Fatalf("SaveSlot overwrite: %v", err)
	}

	got, err := d.LoadSlot(ctx, domain.SlotTemperatures)
	if err != nil {
		t.Fatalf("LoadSlot: %v", err)
	}
	if string(got) != "[2]" {
		t.Errorf("expected latest payload [2], got %s", got)
	}
}

func TestRecordStoreSurvivesReopen(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "bbt.db")
	ctx := context.Background()
	opts := app.StoreOptions{Location: time.UTC}
	day := time.Date(2026, 2, 19, 6, 45, 0, 0, time.UTC)

	first, err := Open(path)
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	store := app.NewRecordStore(ctx, first, opts)
	for i, v := range []int{9700, 9750, 9760} {
		store.SaveTemperature(ctx, domain.NewTemperatureRecord(day.AddDate(0, 0, i), v))
	}
	store.RecordCycleStart(ctx, domain.NewCycleRecord(day.AddDate(0, 0, -12), time.UTC))
	if err := first.Close(); err != nil {
		t.Fatalf("Close: %v", err)
	}

	second := openTestDB(t, path)
	reopened := app.NewRecordStore(ctx, second, opts)

	if n := len(reopened.Temperatures()); n != 3 {
		t.Fatalf("expected 3 temperatures after reopen, got %d", n)
	}
	ovulation, ok := reopened.DetectOvulation()
	if !ok || !ovulation.Equal(day.AddDate(0, 0, 1)) {
		t.Errorf("expected ovulation on %v, got %v (ok=%v)", day.AddDate(0, 0, 1), ovulation, ok)
	}
	if days, ok := reopened.DaysSinceLastCycle(day); !ok || days != 12 {
		t.Errorf("expected 12 days since cycle start, got %d (ok=%v)", days, ok)
	}
}

func TestUserAndSessionRepository(t *testing.T) {
	d := openTestDB(t, filepath.Join(t.TempDir(), "bbt.db"))
	ctx := context.Background()

	count, err := d.Count(ctx)
	if err != nil || count != 0 {
		t.Fatalf("expected empty users table, got %d (%v)", count, err)
	}

	u, err := d.Create(ctx, "alex", "hash")
	if err != nil {
		t.Fatalf("Create: %v", err)
	}
	if _, err := d.Create(ctx, "alex", "hash"); err == nil {
		t.Error("expected unique username violation")
	}

	byName, err := d.GetByUsername(ctx, "alex")
	if err != nil || byName == nil || byName.ID != u.ID {
		t.Fatalf("GetByUsername: %v %v", byName, err)
	}
	missing, err := d.GetByID(ctx, u.ID+100)
	if err != nil || missing != nil {
		t.Fatalf("expected (nil, nil) for unknown id, got (%v, %v)", missing, err)
	}

	sessions := NewSessionRepo(d)
	if err := sessions.Create(ctx, u.ID, "tok", "ua", "10.0.0.1", time.Now().Add(time.Hour)); err != nil {
		t.Fatalf("session Create: %v", err)
	}
	s, err := sessions.GetByToken(ctx, "tok")
	if err != nil || s == nil {
		t.Fatalf("GetByToken: %v %v", s, err)
	}
	if s.UserID != u.ID || s.UserAgent != "ua" || s.IP != "10.0.0.1" {
		t.Errorf("unexpected session: %+v", s)
	}

	if err := sessions.Delete(ctx, "tok"); err != nil {
		t.Fatalf("Delete: %v", err)
	}
	if s, _ := sessions.GetByToken(ctx, "tok"); s != nil {
		t.Error("expected session to be deleted")
	}
}
