// internal/api/reservations/handlers.go
package reservations

import (
	"net/http"
	"strings"
	"sync"

	"github.com/rs/zerolog/log"

	"github.com/codr1/gotnext/internal/api/apiutil"
	"github.com/codr1/gotnext/internal/booking"
	"github.com/codr1/gotnext/internal/timewindow"
)

var (
	ledger     *booking.Ledger
	ledgerOnce sync.Once
)

// InitHandlers must be called during server startup before handling requests.
func InitHandlers(l *booking.Ledger) {
	if l == nil {
		return
	}
	ledgerOnce.Do(func() {
		ledger = l
	})
}

type createReservationRequest struct {
	CourtID string `json:"court_id"`
	Start   string `json:"start"`
	End     string `json:"end"`
}

// POST /api/v1/reservations
// Start and end are truncated to the hour before booking.
func HandleReservationCreate(w http.ResponseWriter, r *http.Request) {
	logger := log.Ctx(r.Context())

	l := loadLedger()
	if l == nil {
		logger.Error().Msg("Reservation ledger not initialized")
		http.Error(w, "Internal Server Error", http.StatusInternalServerError)
		return
	}
	ownerID, ok := apiutil.RequireParticipant(w, r)
	if !ok {
		return
	}

	var req createReservationRequest
	if err := apiutil.DecodeJSON(r, &req); err != nil {
		apiutil.WriteError(w, r, apiutil.HandlerError{Status: http.StatusBadRequest, Message: "Invalid request body", Err: err})
		return
	}
	courtID := strings.TrimSpace(req.CourtID)
	if courtID == "" {
		apiutil.WriteError(w, r, apiutil.FieldError{Field: "court_id", Reason: "is required"})
		return
	}
	start, err := apiutil.ParseTimeField(req.Start, "start")
	if err != nil {
		apiutil.WriteError(w, r, err)
		return
	}
	end, err := apiutil.ParseTimeField(req.End, "end")
	if err != nil {
		apiutil.WriteError(w, r, err)
		return
	}

	reservation, err := l.Create(r.Context(), courtID, ownerID, timewindow.New(start, end).Snapped())
	if err != nil {
		apiutil.WriteError(w, r, err)
		return
	}
	writeJSON(w, r, http.StatusCreated, apiutil.NewReservationResponse(reservation))
}

// DELETE /api/v1/reservations/{id}
func HandleReservationCancel(w http.ResponseWriter, r *http.Request) {
	l := loadLedger()
	if l == nil {
		log.Ctx(r.Context()).Error().Msg("Reservation ledger not initialized")
		http.Error(w, "Internal Server Error", http.StatusInternalServerError)
		return
	}
	requesterID, ok := apiutil.RequireParticipant(w, r)
	if !ok {
		return
	}
	reservationID, err := apiutil.PathID(r, "id")
	if err != nil {
		apiutil.WriteError(w, r, err)
		return
	}

	if err := l.Cancel(r.Context(), reservationID, requesterID); err != nil {
		apiutil.WriteError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// GET /api/v1/reservations/mine
func HandleMyReservations(w http.ResponseWriter, r *http.Request) {
	l := loadLedger()
	if l == nil {
		log.Ctx(r.Context()).Error().Msg("Reservation ledger not initialized")
		http.Error(w, "Internal Server Error", http.StatusInternalServerError)
		return
	}
	ownerID, ok := apiutil.RequireParticipant(w, r)
	if !ok {
		return
	}

	reservations, err := l.ListForOwner(r.Context(), ownerID)
	if err != nil {
		apiutil.WriteError(w, r, err)
		return
	}
	writeJSON(w, r, http.StatusOK, map[string]any{
		"reservations": apiutil.NewReservationResponses(reservations),
	})
}

func loadLedger() *booking.Ledger {
	return ledger
}

func writeJSON(w http.ResponseWriter, r *http.Request, status int, payload any) {
	if err := apiutil.WriteJSON(w, status, payload); err != nil {
		log.Ctx(r.Context()).Error().Err(err).Msg("Failed to write reservation response")
	}
}
