package reservations

// NOTE: Tests cannot use t.Parallel() due to shared package state.

import (
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/codr1/gotnext/internal/api/apiutil"
	"github.com/codr1/gotnext/internal/api/authz"
	"github.com/codr1/gotnext/internal/booking"
	"github.com/codr1/gotnext/internal/clock"
	"github.com/codr1/gotnext/internal/db"
	"github.com/codr1/gotnext/internal/testutil"
)

var testDB *db.DB

func TestMain(m *testing.M) {
	os.Exit(runTests(m))
}

func runTests(m *testing.M) int {
	dir, err := os.MkdirTemp("", "reservations-api")
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		return 1
	}
	defer os.RemoveAll(dir)

	testDB, err = db.New(filepath.Join(dir, "reservations.db"))
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		return 1
	}
	defer testDB.Close()

	l, err := booking.NewLedger(testDB, booking.Config{Clock: clock.NewManual(testutil.Epoch)})
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		return 1
	}
	InitHandlers(l)
	return m.Run()
}

func asParticipant(req *http.Request, participantID string) *http.Request {
	return req.WithContext(authz.ContextWithParticipant(req.Context(), participantID))
}

func createRequest(courtID, participantID, start, end string) *http.Request {
	body := fmt.Sprintf(`{"court_id":%q,"start":%q,"end":%q}`, courtID, start, end)
	req := httptest.NewRequest(http.MethodPost, "/api/v1/reservations", strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	if participantID == "" {
		return req
	}
	return asParticipant(req, participantID)
}

func TestReservationCreateSnapsToHour(t *testing.T) {
	courtID := testutil.SeedCourt(t, testDB, "Snap Court")

	recorder := httptest.NewRecorder()
	HandleReservationCreate(recorder, createRequest(courtID, "alice", "2024-08-01T10:45:00Z", "2024-08-01T12:15:00Z"))
	if recorder.Code != http.StatusCreated {
		t.Fatalf("create status: %d body=%s", recorder.Code, recorder.Body.String())
	}

	var created apiutil.ReservationResponse
	if err := json.NewDecoder(recorder.Body).Decode(&created); err != nil {
		t.Fatalf("decode: %v", err)
	}
	wantStart := time.Date(2024, 8, 1, 10, 0, 0, 0, time.UTC)
	if !created.Start.Equal(wantStart) || !created.End.Equal(wantStart.Add(2*time.Hour)) {
		t.Fatalf("expected snapped window 10:00-12:00, got %v-%v", created.Start, created.End)
	}
	if created.OwnerID != "alice" || created.DurationHours != 2 {
		t.Fatalf("unexpected reservation: %+v", created)
	}

	recorder = httptest.NewRecorder()
	HandleReservationCreate(recorder, createRequest(courtID, "bob", "2024-08-01T11:00:00Z", "2024-08-01T12:00:00Z"))
	if recorder.Code != http.StatusConflict {
		t.Fatalf("expected 409 for overlap, got %d", recorder.Code)
	}

	recorder = httptest.NewRecorder()
	HandleReservationCreate(recorder, createRequest(courtID, "bob", "2024-08-01T12:00:00Z", "2024-08-01T13:00:00Z"))
	if recorder.Code != http.StatusCreated {
		t.Fatalf("expected touching window to be accepted, got %d", recorder.Code)
	}
}

func TestReservationCreateValidation(t *testing.T) {
	courtID := testutil.SeedCourt(t, testDB, "Validation Court")

	cases := []struct {
		name string
		req  *http.Request
		want int
	}{
		{"no participant", createRequest(courtID, "", "2024-08-02T10:00:00Z", "2024-08-02T11:00:00Z"), http.StatusUnauthorized},
		{"too long", createRequest(courtID, "alice", "2024-08-02T10:00:00Z", "2024-08-02T13:00:00Z"), http.StatusBadRequest},
		{"reversed", createRequest(courtID, "alice", "2024-08-02T11:00:00Z", "2024-08-02T10:00:00Z"), http.StatusBadRequest},
		{"empty after snap", createRequest(courtID, "alice", "2024-08-02T10:05:00Z", "2024-08-02T10:55:00Z"), http.StatusBadRequest},
		{"bad time", createRequest(courtID, "alice", "noon", "2024-08-02T11:00:00Z"), http.StatusBadRequest},
		{"missing court", createRequest("", "alice", "2024-08-02T10:00:00Z", "2024-08-02T11:00:00Z"), http.StatusBadRequest},
		{"unknown court", createRequest("nope", "alice", "2024-08-02T10:00:00Z", "2024-08-02T11:00:00Z"), http.StatusNotFound},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			recorder := httptest.NewRecorder()
			HandleReservationCreate(recorder, tc.req)
			if recorder.Code != tc.want {
				t.Fatalf("status = %d, want %d (%s)", recorder.Code, tc.want, recorder.Body.String())
			}
		})
	}
}

func TestReservationCreateRace(t *testing.T) {
	courtID := testutil.SeedCourt(t, testDB, "Race Court")

	const attempts = 6
	codes := make([]int, attempts)
	var wg sync.WaitGroup
	for i := 0; i < attempts; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			recorder := httptest.NewRecorder()
			HandleReservationCreate(recorder, createRequest(courtID, fmt.Sprintf("player-%d", i), "2024-08-03T18:00:00Z", "2024-08-03T19:00:00Z"))
			codes[i] = recorder.Code
		}()
	}
	wg.Wait()

	created := 0
	for _, code := range codes {
		switch code {
		case http.StatusCreated:
			created++
		case http.StatusConflict:
		default:
			t.Fatalf("unexpected status %d", code)
		}
	}
	if created != 1 {
		t.Fatalf("expected exactly one booking, got %d", created)
	}
}

func TestReservationCancelAndList(t *testing.T) {
	courtID := testutil.SeedCourt(t, testDB, "Cancel Court")

	recorder := httptest.NewRecorder()
	HandleReservationCreate(recorder, createRequest(courtID, "carol", "2024-08-04T08:00:00Z", "2024-08-04T09:00:00Z"))
	if recorder.Code != http.StatusCreated {
		t.Fatalf("create status: %d", recorder.Code)
	}
	var created apiutil.ReservationResponse
	if err := json.NewDecoder(recorder.Body).Decode(&created); err != nil {
		t.Fatalf("decode: %v", err)
	}

	listRecorder := httptest.NewRecorder()
	HandleMyReservations(listRecorder, asParticipant(httptest.NewRequest(http.MethodGet, "/api/v1/reservations/mine", nil), "carol"))
	if listRecorder.Code != http.StatusOK {
		t.Fatalf("list status: %d", listRecorder.Code)
	}
	var listed struct {
		Reservations []apiutil.ReservationResponse `json:"reservations"`
	}
	if err := json.NewDecoder(listRecorder.Body).Decode(&listed); err != nil {
		t.Fatalf("decode list: %v", err)
	}
	if len(listed.Reservations) != 1 || listed.Reservations[0].ID != created.ID {
		t.Fatalf("unexpected reservations for carol: %+v", listed.Reservations)
	}

	cancelAs := func(participantID string) int {
		req := httptest.NewRequest(http.MethodDelete, "/api/v1/reservations/"+created.ID, nil)
		req.SetPathValue("id", created.ID)
		rec := httptest.NewRecorder()
		HandleReservationCancel(rec, asParticipant(req, participantID))
		return rec.Code
	}
	if code := cancelAs("dave"); code != http.StatusForbidden {
		t.Fatalf("expected 403 for non-owner, got %d", code)
	}
	if code := cancelAs("carol"); code != http.StatusNoContent {
		t.Fatalf("expected 204 for owner, got %d", code)
	}
	if code := cancelAs("carol"); code != http.StatusNotFound {
		t.Fatalf("expected 404 after cancel, got %d", code)
	}
}
