package calendar

import (
	"context"
	"errors"
	"testing"
	"time"
)

func TestMemStore_ReserveIsAllOrNothing(t *testing.T) {
	ctx := context.Background()
	store := NewMemStore()
	start := time.Date(2026, 9, 1, 9, 0, 0, 0, time.UTC)
	a := store.AddBlock(1, start, start.Add(Granularity))
	b := store.AddBlock(1, start.Add(Granularity), start.Add(2*Granularity))

	tx, _ := store.Begin(ctx)
	if err := tx.Reserve(ctx, []int64{a}); err != nil {
		t.Fatalf("reserve a: %v", err)
	}
	if err := tx.Commit(ctx); err != nil {
		t.Fatalf("commit: %v", err)
	}

	// A set containing an already-reserved block fails without touching
	// the free one.
	tx2, _ := store.Begin(ctx)
	defer tx2.Rollback(ctx)
	if err := tx2.Reserve(ctx, []int64{a, b}); !errors.Is(err, ErrConflict) {
		t.Fatalf("err = %v, want ErrConflict", err)
	}
	free, _ := store.FreeBlocks(ctx, 1, start, start.Add(2*Granularity))
	if len(free) != 1 || free[0].ID != b {
		t.Fatalf("free = %+v, want only block b", free)
	}
}

func TestMemStore_RollbackReleasesBlocks(t *testing.T) {
	ctx := context.Background()
	store := NewMemStore()
	start := time.Date(2026, 9, 1, 9, 0, 0, 0, time.UTC)
	a := store.AddBlock(1, start, start.Add(Granularity))

	tx, _ := store.Begin(ctx)
	if err := tx.Reserve(ctx, []int64{a}); err != nil {
		t.Fatalf("reserve: %v", err)
	}
	if _, err := tx.PersistAppointment(ctx, Appointment{StaffID: 1, StartAt: start}); err != nil {
		t.Fatalf("persist: %v", err)
	}
	if err := tx.Rollback(ctx); err != nil {
		t.Fatalf("rollback: %v", err)
	}

	free, _ := store.FreeBlocks(ctx, 1, start, start.Add(Granularity))
	if len(free) != 1 {
		t.Fatal("rolled-back reservation still holds the block")
	}
	appts, _ := store.AppointmentsInRange(ctx, 1, start, start.Add(Granularity))
	if len(appts) != 0 {
		t.Fatal("rolled-back appointment was persisted")
	}
}

func TestMemStore_RollbackAfterCommitIsNoop(t *testing.T) {
	ctx := context.Background()
	store := NewMemStore()
	start := time.Date(2026, 9, 1, 9, 0, 0, 0, time.UTC)
	a := store.AddBlock(1, start, start.Add(Granularity))

	tx, _ := store.Begin(ctx)
	if err := tx.Reserve(ctx, []int64{a}); err != nil {
		t.Fatalf("reserve: %v", err)
	}
	if err := tx.Commit(ctx); err != nil {
		t.Fatalf("commit: %v", err)
	}
	if err := tx.Rollback(ctx); err != nil {
		t.Fatalf("deferred rollback: %v", err)
	}

	free, _ := store.FreeBlocks(ctx, 1, start, start.Add(Granularity))
	if len(free) != 0 {
		t.Fatal("committed reservation was released by deferred rollback")
	}
}
