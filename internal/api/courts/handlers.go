// internal/api/courts/handlers.go
package courts

import (
	"net/http"
	"sync"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/codr1/gotnext/internal/api/apiutil"
	"github.com/codr1/gotnext/internal/booking"
	catalog "github.com/codr1/gotnext/internal/courts"
	"github.com/codr1/gotnext/internal/timewindow"
)

const courtIDParam = "id"

type handlerDeps struct {
	catalog *catalog.Service
	checker *booking.Checker
	ledger  *booking.Ledger
}

var (
	deps     *handlerDeps
	depsOnce sync.Once
)

// InitHandlers must be called during server startup before handling requests.
func InitHandlers(courtService *catalog.Service, checker *booking.Checker, ledger *booking.Ledger) {
	if courtService == nil || checker == nil || ledger == nil {
		return
	}
	depsOnce.Do(func() {
		deps = &handlerDeps{catalog: courtService, checker: checker, ledger: ledger}
	})
}

// GET /api/v1/gyms
func HandleGymList(w http.ResponseWriter, r *http.Request) {
	d, ok := loadDeps(w, r)
	if !ok {
		return
	}
	gyms, err := d.catalog.ListGyms(r.Context())
	if err != nil {
		apiutil.WriteError(w, r, err)
		return
	}
	writeJSON(w, r, http.StatusOK, map[string]any{"gyms": gyms})
}

// GET /api/v1/gyms/{id}/courts
func HandleGymCourts(w http.ResponseWriter, r *http.Request) {
	d, ok := loadDeps(w, r)
	if !ok {
		return
	}
	gymID, err := apiutil.PathID(r, "id")
	if err != nil {
		apiutil.WriteError(w, r, err)
		return
	}
	courts, err := d.catalog.ListCourts(r.Context(), gymID)
	if err != nil {
		apiutil.WriteError(w, r, err)
		return
	}
	writeJSON(w, r, http.StatusOK, map[string]any{"courts": courts})
}

// GET /api/v1/courts/{id}
func HandleCourtGet(w http.ResponseWriter, r *http.Request) {
	d, ok := loadDeps(w, r)
	if !ok {
		return
	}
	courtID, err := apiutil.PathID(r, courtIDParam)
	if err != nil {
		apiutil.WriteError(w, r, err)
		return
	}
	court, err := d.catalog.GetCourt(r.Context(), courtID)
	if err != nil {
		apiutil.WriteError(w, r, err)
		return
	}
	writeJSON(w, r, http.StatusOK, court)
}

// GET /api/v1/courts/{id}/availability?start=&end=
// Answers 200 when the window is currently admissible and 409 with the
// blocking reservations otherwise. The answer is advisory; only a booking
// attempt is authoritative.
func HandleCourtAvailability(w http.ResponseWriter, r *http.Request) {
	d, ok := loadDeps(w, r)
	if !ok {
		return
	}
	courtID, err := apiutil.PathID(r, courtIDParam)
	if err != nil {
		apiutil.WriteError(w, r, err)
		return
	}
	window, err := windowFromQuery(r)
	if err != nil {
		apiutil.WriteError(w, r, err)
		return
	}
	if err := d.checker.CheckAvailable(r.Context(), courtID, window); err != nil {
		apiutil.WriteError(w, r, err)
		return
	}
	writeJSON(w, r, http.StatusOK, map[string]any{
		"court_id":  courtID,
		"start":     window.Start,
		"end":       window.End,
		"available": true,
	})
}

// GET /api/v1/courts/{id}/reservations?date=YYYY-MM-DD
func HandleCourtReservations(w http.ResponseWriter, r *http.Request) {
	d, ok := loadDeps(w, r)
	if !ok {
		return
	}
	courtID, err := apiutil.PathID(r, courtIDParam)
	if err != nil {
		apiutil.WriteError(w, r, err)
		return
	}
	day, err := apiutil.ParseDateField(r.URL.Query().Get("date"), "date")
	if err != nil {
		apiutil.WriteError(w, r, err)
		return
	}
	if _, err := d.catalog.GetCourt(r.Context(), courtID); err != nil {
		apiutil.WriteError(w, r, err)
		return
	}

	reservations, err := d.ledger.ListForCourt(r.Context(), courtID, timewindow.Starting(day, 24*time.Hour))
	if err != nil {
		apiutil.WriteError(w, r, err)
		return
	}
	writeJSON(w, r, http.StatusOK, map[string]any{
		"court_id":     courtID,
		"date":         day.Format("2006-01-02"),
		"reservations": apiutil.NewReservationResponses(reservations),
	})
}

func windowFromQuery(r *http.Request) (timewindow.Window, error) {
	query := r.URL.Query()
	start, err := apiutil.ParseTimeField(query.Get("start"), "start")
	if err != nil {
		return timewindow.Window{}, err
	}
	end, err := apiutil.ParseTimeField(query.Get("end"), "end")
	if err != nil {
		return timewindow.Window{}, err
	}
	return timewindow.New(start, end), nil
}

func loadDeps(w http.ResponseWriter, r *http.Request) (*handlerDeps, bool) {
	if deps == nil {
		log.Ctx(r.Context()).Error().Msg("Court handlers not initialized")
		http.Error(w, "Internal Server Error", http.StatusInternalServerError)
		return nil, false
	}
	return deps, true
}

func writeJSON(w http.ResponseWriter, r *http.Request, status int, payload any) {
	if err := apiutil.WriteJSON(w, status, payload); err != nil {
		log.Ctx(r.Context()).Error().Err(err).Msg("Failed to write court response")
	}
}
