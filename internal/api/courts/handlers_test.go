package courts

// NOTE: Tests cannot use t.Parallel() due to shared package state.

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/codr1/gotnext/internal/api/apiutil"
	"github.com/codr1/gotnext/internal/booking"
	"github.com/codr1/gotnext/internal/clock"
	catalog "github.com/codr1/gotnext/internal/courts"
	"github.com/codr1/gotnext/internal/db"
	"github.com/codr1/gotnext/internal/testutil"
	"github.com/codr1/gotnext/internal/timewindow"
)

var (
	testDB     *db.DB
	testLedger *booking.Ledger
)

func TestMain(m *testing.M) {
	os.Exit(runTests(m))
}

func runTests(m *testing.M) int {
	dir, err := os.MkdirTemp("", "courts-api")
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		return 1
	}
	defer os.RemoveAll(dir)

	testDB, err = db.New(filepath.Join(dir, "courts.db"))
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		return 1
	}
	defer testDB.Close()

	clk := clock.NewManual(testutil.Epoch)
	service, err := catalog.NewService(testDB, clk, 0)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		return 1
	}
	checker, err := booking.NewChecker(testDB, booking.Config{Clock: clk})
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		return 1
	}
	testLedger, err = booking.NewLedger(testDB, booking.Config{Clock: clk})
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		return 1
	}
	InitHandlers(service, checker, testLedger)
	return m.Run()
}

func TestCourtLookupHandlers(t *testing.T) {
	courtID := testutil.SeedCourt(t, testDB, "Lookup Court")

	req := httptest.NewRequest(http.MethodGet, "/api/v1/courts/"+courtID, nil)
	req.SetPathValue("id", courtID)
	recorder := httptest.NewRecorder()
	HandleCourtGet(recorder, req)
	if recorder.Code != http.StatusOK {
		t.Fatalf("get court status: %d", recorder.Code)
	}
	var court catalog.Court
	if err := json.NewDecoder(recorder.Body).Decode(&court); err != nil {
		t.Fatalf("decode court: %v", err)
	}
	if court.ID != courtID || court.Name != "Lookup Court" {
		t.Fatalf("unexpected court: %+v", court)
	}

	req = httptest.NewRequest(http.MethodGet, "/api/v1/gyms/"+court.GymID+"/courts", nil)
	req.SetPathValue("id", court.GymID)
	recorder = httptest.NewRecorder()
	HandleGymCourts(recorder, req)
	if recorder.Code != http.StatusOK {
		t.Fatalf("gym courts status: %d", recorder.Code)
	}
	var listed struct {
		Courts []catalog.Court `json:"courts"`
	}
	if err := json.NewDecoder(recorder.Body).Decode(&listed); err != nil {
		t.Fatalf("decode courts: %v", err)
	}
	if len(listed.Courts) != 1 || listed.Courts[0].ID != courtID {
		t.Fatalf("unexpected gym courts: %+v", listed.Courts)
	}

	recorder = httptest.NewRecorder()
	HandleGymList(recorder, httptest.NewRequest(http.MethodGet, "/api/v1/gyms", nil))
	if recorder.Code != http.StatusOK {
		t.Fatalf("gym list status: %d", recorder.Code)
	}

	req = httptest.NewRequest(http.MethodGet, "/api/v1/courts/missing", nil)
	req.SetPathValue("id", "missing")
	recorder = httptest.NewRecorder()
	HandleCourtGet(recorder, req)
	if recorder.Code != http.StatusNotFound {
		t.Fatalf("expected 404 for unknown court, got %d", recorder.Code)
	}

	req = httptest.NewRequest(http.MethodGet, "/api/v1/gyms/missing/courts", nil)
	req.SetPathValue("id", "missing")
	recorder = httptest.NewRecorder()
	HandleGymCourts(recorder, req)
	if recorder.Code != http.StatusNotFound {
		t.Fatalf("expected 404 for unknown gym, got %d", recorder.Code)
	}
}

func availabilityRequest(courtID string, start, end time.Time) *http.Request {
	target := fmt.Sprintf("/api/v1/courts/%s/availability?start=%s&end=%s",
		courtID, start.Format(time.RFC3339), end.Format(time.RFC3339))
	req := httptest.NewRequest(http.MethodGet, target, nil)
	req.SetPathValue("id", courtID)
	return req
}

func TestCourtAvailability(t *testing.T) {
	courtID := testutil.SeedCourt(t, testDB, "Availability Court")
	start := testutil.Epoch.Add(24 * time.Hour)

	recorder := httptest.NewRecorder()
	HandleCourtAvailability(recorder, availabilityRequest(courtID, start, start.Add(time.Hour)))
	if recorder.Code != http.StatusOK {
		t.Fatalf("expected free window, got %d: %s", recorder.Code, recorder.Body.String())
	}

	reservation, err := testLedger.Create(context.Background(), courtID, "alice", timewindow.Starting(start, time.Hour))
	if err != nil {
		t.Fatalf("create reservation: %v", err)
	}

	recorder = httptest.NewRecorder()
	HandleCourtAvailability(recorder, availabilityRequest(courtID, start.Add(30*time.Minute), start.Add(90*time.Minute)))
	if recorder.Code != http.StatusConflict {
		t.Fatalf("expected 409 for overlapping window, got %d", recorder.Code)
	}
	var body apiutil.ErrorResponse
	if err := json.NewDecoder(recorder.Body).Decode(&body); err != nil {
		t.Fatalf("decode conflict: %v", err)
	}
	if len(body.Blocking) != 1 || body.Blocking[0] != reservation.ID {
		t.Fatalf("expected blocking reservation %s, got %+v", reservation.ID, body.Blocking)
	}

	// Touching windows are admissible.
	recorder = httptest.NewRecorder()
	HandleCourtAvailability(recorder, availabilityRequest(courtID, start.Add(time.Hour), start.Add(2*time.Hour)))
	if recorder.Code != http.StatusOK {
		t.Fatalf("expected adjacent window to be free, got %d", recorder.Code)
	}

	recorder = httptest.NewRecorder()
	HandleCourtAvailability(recorder, availabilityRequest(courtID, start, start.Add(2*time.Hour+time.Minute)))
	if recorder.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 for over-long window, got %d", recorder.Code)
	}

	req := httptest.NewRequest(http.MethodGet, "/api/v1/courts/"+courtID+"/availability?start=soon", nil)
	req.SetPathValue("id", courtID)
	recorder = httptest.NewRecorder()
	HandleCourtAvailability(recorder, req)
	if recorder.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 for malformed start, got %d", recorder.Code)
	}
}

func TestCourtReservationsByDate(t *testing.T) {
	courtID := testutil.SeedCourt(t, testDB, "Schedule Court")
	day := time.Date(2024, 7, 4, 0, 0, 0, 0, time.UTC)

	for _, hour := range []int{18, 9} {
		start := day.Add(time.Duration(hour) * time.Hour)
		if _, err := testLedger.Create(context.Background(), courtID, "alice", timewindow.Starting(start, time.Hour)); err != nil {
			t.Fatalf("create reservation at %d: %v", hour, err)
		}
	}
	if _, err := testLedger.Create(context.Background(), courtID, "alice", timewindow.Starting(day.Add(33*time.Hour), time.Hour)); err != nil {
		t.Fatalf("create next-day reservation: %v", err)
	}

	req := httptest.NewRequest(http.MethodGet, "/api/v1/courts/"+courtID+"/reservations?date=2024-07-04", nil)
	req.SetPathValue("id", courtID)
	recorder := httptest.NewRecorder()
	HandleCourtReservations(recorder, req)
	if recorder.Code != http.StatusOK {
		t.Fatalf("status: %d", recorder.Code)
	}

	var body struct {
		Reservations []apiutil.ReservationResponse `json:"reservations"`
	}
	if err := json.NewDecoder(recorder.Body).Decode(&body); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if len(body.Reservations) != 2 {
		t.Fatalf("expected 2 reservations on the day, got %d", len(body.Reservations))
	}
	if body.Reservations[0].Start.Hour() != 9 || body.Reservations[1].Start.Hour() != 18 {
		t.Fatalf("expected reservations ordered by start, got %+v", body.Reservations)
	}

	req = httptest.NewRequest(http.MethodGet, "/api/v1/courts/"+courtID+"/reservations", nil)
	req.SetPathValue("id", courtID)
	recorder = httptest.NewRecorder()
	HandleCourtReservations(recorder, req)
	if recorder.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 without date, got %d", recorder.Code)
	}
}
