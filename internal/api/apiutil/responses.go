package apiutil

import (
	"time"

	"github.com/codr1/gotnext/internal/booking"
)

type ReservationResponse struct {
	ID            string    `json:"id"`
	CourtID       string    `json:"court_id"`
	OwnerID       string    `json:"owner_id"`
	Start         time.Time `json:"start"`
	End           time.Time `json:"end"`
	DurationHours float64   `json:"duration_hours"`
	CreatedAt     time.Time `json:"created_at"`
}

func NewReservationResponse(r booking.Reservation) ReservationResponse {
	return ReservationResponse{
		ID:            r.ID,
		CourtID:       r.CourtID,
		OwnerID:       r.OwnerID,
		Start:         r.Window.Start,
		End:           r.Window.End,
		DurationHours: r.Window.Duration().Hours(),
		CreatedAt:     r.CreatedAt,
	}
}

func NewReservationResponses(reservations []booking.Reservation) []ReservationResponse {
	out := make([]ReservationResponse, 0, len(reservations))
	for _, r := range reservations {
		out = append(out, NewReservationResponse(r))
	}
	return out
}
