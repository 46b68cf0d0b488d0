package booking

import (
	"errors"
	"fmt"
	"strings"

	"github.com/codr1/gotnext/internal/timewindow"
)

var (
	ErrConflict      = errors.New("reservation conflict")
	ErrNotFound      = errors.New("reservation not found")
	ErrNotOwner      = errors.New("reservation belongs to another participant")
	ErrOwnerRequired = errors.New("owner id is required")
	ErrInvalidWindow = timewindow.ErrInvalidWindow
)

// ConflictError carries the reservations that block a requested window.
type ConflictError struct {
	CourtID  string
	Window   timewindow.Window
	Blocking []Reservation
}

func (e *ConflictError) Error() string {
	ids := make([]string, len(e.Blocking))
	for i, r := range e.Blocking {
		ids[i] = r.ID
	}
	return fmt.Sprintf("court %s unavailable for %s: blocked by %s", e.CourtID, e.Window, strings.Join(ids, ", "))
}

func (e *ConflictError) Is(target error) bool {
	return target == ErrConflict
}
