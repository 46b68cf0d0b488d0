package booking

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/codr1/gotnext/internal/clock"
	"github.com/codr1/gotnext/internal/courts"
	"github.com/codr1/gotnext/internal/db"
	"github.com/codr1/gotnext/internal/testutil"
	"github.com/codr1/gotnext/internal/timewindow"
)

func setupBookingTest(t *testing.T) (*db.DB, *Checker, *Ledger, *clock.Manual, string) {
	t.Helper()

	database := testutil.NewTestDB(t)
	courtID := testutil.SeedCourt(t, database, "Center Court")
	clk := clock.NewManual(testutil.Epoch)
	cfg := Config{Clock: clk}

	checker, err := NewChecker(database, cfg)
	if err != nil {
		t.Fatalf("new checker: %v", err)
	}
	ledger, err := NewLedger(database, cfg)
	if err != nil {
		t.Fatalf("new ledger: %v", err)
	}
	return database, checker, ledger, clk, courtID
}

func window(startHour, startMin, endHour, endMin int) timewindow.Window {
	day := testutil.Epoch
	return timewindow.New(
		time.Date(day.Year(), day.Month(), day.Day(), startHour, startMin, 0, 0, time.UTC),
		time.Date(day.Year(), day.Month(), day.Day(), endHour, endMin, 0, 0, time.UTC),
	)
}

func TestLedgerBoundaryLegality(t *testing.T) {
	_, checker, ledger, _, courtID := setupBookingTest(t)
	ctx := context.Background()

	first, err := ledger.Create(ctx, courtID, "alice", window(10, 0, 11, 0))
	if err != nil {
		t.Fatalf("book 10-11: %v", err)
	}
	if _, err := ledger.Create(ctx, courtID, "bob", window(11, 0, 12, 0)); err != nil {
		t.Fatalf("book back-to-back 11-12: %v", err)
	}

	_, err = ledger.Create(ctx, courtID, "carol", window(10, 30, 11, 30))
	if !errors.Is(err, ErrConflict) {
		t.Fatalf("expected ErrConflict for 10:30-11:30, got %v", err)
	}
	var conflict *ConflictError
	if !errors.As(err, &conflict) {
		t.Fatalf("expected *ConflictError, got %T", err)
	}
	if len(conflict.Blocking) != 2 || conflict.Blocking[0].ID != first.ID {
		t.Fatalf("expected both reservations to block in start order, got %+v", conflict.Blocking)
	}

	if err := checker.CheckAvailable(ctx, courtID, window(12, 0, 13, 0)); err != nil {
		t.Fatalf("expected 12-13 admissible, got %v", err)
	}
	if err := checker.CheckAvailable(ctx, courtID, window(9, 30, 10, 1)); !errors.Is(err, ErrConflict) {
		t.Fatalf("expected conflict for 9:30-10:01, got %v", err)
	}
}

func TestLedgerDurationCap(t *testing.T) {
	_, checker, ledger, _, courtID := setupBookingTest(t)
	ctx := context.Background()

	if err := checker.CheckAvailable(ctx, courtID, window(8, 0, 10, 1)); !errors.Is(err, ErrInvalidWindow) {
		t.Fatalf("checker: expected ErrInvalidWindow, got %v", err)
	}
	if _, err := ledger.Create(ctx, courtID, "alice", window(8, 0, 10, 1)); !errors.Is(err, ErrInvalidWindow) {
		t.Fatalf("ledger: expected ErrInvalidWindow, got %v", err)
	}
	if _, err := ledger.Create(ctx, courtID, "alice", window(11, 0, 10, 0)); !errors.Is(err, ErrInvalidWindow) {
		t.Fatalf("ledger: expected ErrInvalidWindow for reversed window, got %v", err)
	}
	if _, err := ledger.Create(ctx, courtID, "alice", window(8, 0, 10, 0)); err != nil {
		t.Fatalf("expected exactly 2h to be admissible, got %v", err)
	}
}

func TestLedgerUnknownCourtAndOwner(t *testing.T) {
	_, checker, ledger, _, courtID := setupBookingTest(t)
	ctx := context.Background()

	if _, err := ledger.Create(ctx, "nope", "alice", window(10, 0, 11, 0)); !errors.Is(err, courts.ErrCourtNotFound) {
		t.Fatalf("expected ErrCourtNotFound, got %v", err)
	}
	if err := checker.CheckAvailable(ctx, "nope", window(10, 0, 11, 0)); !errors.Is(err, courts.ErrCourtNotFound) {
		t.Fatalf("expected ErrCourtNotFound from checker, got %v", err)
	}
	if _, err := ledger.Create(ctx, courtID, " ", window(10, 0, 11, 0)); !errors.Is(err, ErrOwnerRequired) {
		t.Fatalf("expected ErrOwnerRequired, got %v", err)
	}
}

func TestLedgerCancel(t *testing.T) {
	_, checker, ledger, _, courtID := setupBookingTest(t)
	ctx := context.Background()

	res, err := ledger.Create(ctx, courtID, "alice", window(10, 0, 11, 0))
	if err != nil {
		t.Fatalf("create: %v", err)
	}

	if err := ledger.Cancel(ctx, res.ID, "mallory"); !errors.Is(err, ErrNotOwner) {
		t.Fatalf("expected ErrNotOwner, got %v", err)
	}
	if err := ledger.Cancel(ctx, res.ID, "alice"); err != nil {
		t.Fatalf("cancel: %v", err)
	}
	if err := ledger.Cancel(ctx, res.ID, "alice"); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound after cancel, got %v", err)
	}
	if _, err := ledger.Get(ctx, res.ID); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected cancelled reservation to be gone, got %v", err)
	}
	if err := checker.CheckAvailable(ctx, courtID, window(10, 0, 11, 0)); err != nil {
		t.Fatalf("expected slot free after cancel, got %v", err)
	}
}

func TestLedgerListForOwnerOrdered(t *testing.T) {
	_, _, ledger, _, courtID := setupBookingTest(t)
	ctx := context.Background()

	for _, w := range []timewindow.Window{window(15, 0, 16, 0), window(9, 0, 10, 0), window(12, 0, 13, 0)} {
		if _, err := ledger.Create(ctx, courtID, "alice", w); err != nil {
			t.Fatalf("create %s: %v", w, err)
		}
	}
	if _, err := ledger.Create(ctx, courtID, "bob", window(13, 0, 14, 0)); err != nil {
		t.Fatalf("create bob: %v", err)
	}

	mine, err := ledger.ListForOwner(ctx, "alice")
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(mine) != 3 {
		t.Fatalf("expected 3 reservations, got %d", len(mine))
	}
	for i := 1; i < len(mine); i++ {
		if !mine[i-1].Window.Start.Before(mine[i].Window.Start) {
			t.Fatalf("reservations not ordered by start: %+v", mine)
		}
	}

	day, err := ledger.ListForCourt(ctx, courtID, window(12, 0, 14, 0))
	if err != nil {
		t.Fatalf("list for court: %v", err)
	}
	if len(day) != 2 {
		t.Fatalf("expected 2 reservations between 12 and 14, got %d", len(day))
	}
}

func TestLedgerConcurrentBookingRace(t *testing.T) {
	_, _, ledger, _, courtID := setupBookingTest(t)
	ctx := context.Background()

	const attempts = 8
	var (
		wg        sync.WaitGroup
		mu        sync.Mutex
		successes int
		conflicts int
		others    []error
	)
	for i := 0; i < attempts; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			w := window(10, 0, 11, 0)
			if i%2 == 1 {
				w = window(10, 30, 11, 30)
			}
			_, err := ledger.Create(ctx, courtID, "racer", w)
			mu.Lock()
			defer mu.Unlock()
			switch {
			case err == nil:
				successes++
			case errors.Is(err, ErrConflict):
				conflicts++
			default:
				others = append(others, err)
			}
		}(i)
	}
	wg.Wait()

	if len(others) > 0 {
		t.Fatalf("unexpected errors: %v", others)
	}
	if successes != 1 || conflicts != attempts-1 {
		t.Fatalf("expected exactly 1 success and %d conflicts, got %d and %d", attempts-1, successes, conflicts)
	}
}

func TestOverlapTriggerBackstop(t *testing.T) {
	database, _, ledger, _, courtID := setupBookingTest(t)
	ctx := context.Background()

	if _, err := ledger.Create(ctx, courtID, "alice", window(10, 0, 11, 0)); err != nil {
		t.Fatalf("create: %v", err)
	}
	w := window(10, 30, 11, 30)
	_, err := database.ExecContext(ctx,
		"INSERT INTO reservations (id, court_id, owner_id, start_at, end_at, created_at) VALUES (?, ?, ?, ?, ?, ?)",
		"raw", courtID, "bob", w.Start.UnixNano(), w.End.UnixNano(), 0,
	)
	if !db.IsTriggerAbort(err) {
		t.Fatalf("expected trigger abort for raw overlapping insert, got %v", err)
	}
}

func TestHasUpcomingReservationWithin(t *testing.T) {
	_, checker, ledger, clk, courtID := setupBookingTest(t)
	ctx := context.Background()

	// Clock starts at 09:00.
	if _, err := ledger.Create(ctx, courtID, "alice", window(11, 0, 12, 0)); err != nil {
		t.Fatalf("create: %v", err)
	}

	blocked, err := checker.HasUpcomingReservationWithin(ctx, courtID, 2*time.Hour)
	if err != nil {
		t.Fatalf("predicate: %v", err)
	}
	if blocked {
		t.Fatalf("reservation starting exactly at the horizon must not block")
	}

	clk.Advance(time.Minute)
	blocked, err = checker.HasUpcomingReservationWithin(ctx, courtID, 2*time.Hour)
	if err != nil {
		t.Fatalf("predicate: %v", err)
	}
	if !blocked {
		t.Fatalf("expected reservation at 11:00 to block at 09:01 with 2h horizon")
	}

	clk.Set(window(11, 30, 12, 0).Start)
	blocked, err = checker.HasUpcomingReservationWithin(ctx, courtID, 2*time.Hour)
	if err != nil {
		t.Fatalf("predicate: %v", err)
	}
	if !blocked {
		t.Fatalf("expected in-progress reservation to block")
	}

	clk.Set(window(12, 0, 12, 0).Start)
	blocked, err = checker.HasUpcomingReservationWithin(ctx, courtID, 2*time.Hour)
	if err != nil {
		t.Fatalf("predicate: %v", err)
	}
	if blocked {
		t.Fatalf("finished reservation must not block")
	}
}

func TestCheckAvailable(t *testing.T) {
	_, checker, ledger, _, courtID := setupBookingTest(t)
	ctx := context.Background()

	booked, err := ledger.Create(ctx, courtID, "alice", window(10, 0, 11, 0))
	if err != nil {
		t.Fatalf("create: %v", err)
	}

	if err := checker.CheckAvailable(ctx, courtID, window(11, 0, 12, 0)); err != nil {
		t.Fatalf("adjacent window should be admissible, got %v", err)
	}

	err = checker.CheckAvailable(ctx, courtID, window(10, 30, 11, 30))
	var conflict *ConflictError
	if !errors.As(err, &conflict) {
		t.Fatalf("expected conflict error, got %v", err)
	}
	if !errors.Is(err, ErrConflict) {
		t.Fatalf("conflict error should match ErrConflict")
	}
	if len(conflict.Blocking) != 1 || conflict.Blocking[0].ID != booked.ID {
		t.Fatalf("expected blocking reservation %s, got %+v", booked.ID, conflict.Blocking)
	}

	if err := checker.CheckAvailable(ctx, courtID, window(12, 0, 14, 1)); !errors.Is(err, ErrInvalidWindow) {
		t.Fatalf("expected invalid window, got %v", err)
	}
	if err := checker.CheckAvailable(ctx, "missing-court", window(12, 0, 13, 0)); !errors.Is(err, courts.ErrCourtNotFound) {
		t.Fatalf("expected court not found, got %v", err)
	}
}
