// internal/api/waitlist/handlers.go
package waitlist

import (
	"errors"
	"net/http"
	"sync"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/codr1/gotnext/internal/api/apiutil"
	"github.com/codr1/gotnext/internal/booking"
	"github.com/codr1/gotnext/internal/gotnext"
)

// Deps are the collaborators of the got next handlers.
type Deps struct {
	Queue    *gotnext.WaitQueue
	Resolver *gotnext.Resolver
	Checker  *booking.Checker
	// Horizon is how far ahead a reservation blocks joining.
	Horizon time.Duration
}

var (
	deps     *Deps
	depsOnce sync.Once
)

var errUpcomingReservation = errors.New("court has an upcoming reservation")

// InitHandlers must be called during server startup before handling requests.
func InitHandlers(d Deps) {
	if d.Queue == nil || d.Resolver == nil || d.Checker == nil {
		log.Warn().Msg("waitlist.InitHandlers called with missing collaborators")
		return
	}
	depsOnce.Do(func() {
		deps = &d
	})
}

type joinResponse struct {
	Entry    gotnext.Entry `json:"entry"`
	Position int           `json:"position"`
}

// POST /api/v1/courts/{id}/gotnext
// Joining is refused with 409 while a reservation on the court starts (or
// is running) within the horizon.
func HandleJoin(w http.ResponseWriter, r *http.Request) {
	d, ok := loadDeps(w, r)
	if !ok {
		return
	}
	participantID, ok := apiutil.RequireParticipant(w, r)
	if !ok {
		return
	}
	courtID, err := apiutil.PathID(r, "id")
	if err != nil {
		apiutil.WriteError(w, r, err)
		return
	}
	logger := log.Ctx(r.Context()).With().Str("court_id", courtID).Logger()

	upcoming, err := d.Checker.HasUpcomingReservationWithin(r.Context(), courtID, d.Horizon)
	if err != nil {
		apiutil.WriteError(w, r, err)
		return
	}
	if upcoming {
		logger.Info().Dur("horizon", d.Horizon).Msg("Got next join refused: upcoming reservation")
		apiutil.WriteError(w, r, apiutil.HandlerError{
			Status:  http.StatusConflict,
			Message: "Court has a reservation coming up; join another court",
			Err:     errUpcomingReservation,
		})
		return
	}

	entry, err := d.Queue.Join(r.Context(), courtID, participantID)
	if err != nil {
		apiutil.WriteError(w, r, err)
		return
	}

	response := joinResponse{Entry: entry}
	position, err := d.Resolver.Position(r.Context(), courtID, participantID)
	switch {
	case err == nil:
		response.Position = position
	case errors.Is(err, gotnext.ErrNotQueued):
		// A rotation moved the entry between join and lookup.
	default:
		logger.Warn().Err(err).Msg("Failed to resolve position after join")
	}
	writeJSON(w, r, http.StatusCreated, response)
}

// DELETE /api/v1/gotnext/{queueID}
func HandleLeave(w http.ResponseWriter, r *http.Request) {
	d, ok := loadDeps(w, r)
	if !ok {
		return
	}
	participantID, ok := apiutil.RequireParticipant(w, r)
	if !ok {
		return
	}
	queueID, err := apiutil.PathID(r, "queueID")
	if err != nil {
		apiutil.WriteError(w, r, err)
		return
	}

	if err := d.Queue.Leave(r.Context(), queueID, participantID); err != nil {
		apiutil.WriteError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// GET /api/v1/courts/{id}/gotnext/position
func HandlePosition(w http.ResponseWriter, r *http.Request) {
	d, ok := loadDeps(w, r)
	if !ok {
		return
	}
	participantID, ok := apiutil.RequireParticipant(w, r)
	if !ok {
		return
	}
	courtID, err := apiutil.PathID(r, "id")
	if err != nil {
		apiutil.WriteError(w, r, err)
		return
	}

	status, err := d.Resolver.Status(r.Context(), courtID, participantID)
	if err != nil {
		apiutil.WriteError(w, r, err)
		return
	}
	state, err := d.Queue.State(r.Context(), courtID)
	if err != nil {
		apiutil.WriteError(w, r, err)
		return
	}
	writeJSON(w, r, http.StatusOK, map[string]any{
		"court_id":    courtID,
		"queue_state": state,
		"status":      status,
	})
}

func loadDeps(w http.ResponseWriter, r *http.Request) (*Deps, bool) {
	if deps == nil {
		log.Ctx(r.Context()).Error().Msg("Got next handlers not initialized")
		http.Error(w, "Internal Server Error", http.StatusInternalServerError)
		return nil, false
	}
	return deps, true
}

func writeJSON(w http.ResponseWriter, r *http.Request, status int, payload any) {
	if err := apiutil.WriteJSON(w, status, payload); err != nil {
		log.Ctx(r.Context()).Error().Err(err).Msg("Failed to write got next response")
	}
}
