package booking

import (
	"context"
	"time"

	"github.com/codr1/gotnext/internal/courts"
	"github.com/codr1/gotnext/internal/db"
	dbgen "github.com/codr1/gotnext/internal/db/generated"
	"github.com/codr1/gotnext/internal/timewindow"
)

// Checker answers availability questions without writing. Its answers can be
// stale by the time a caller books; Ledger.Create re-checks atomically.
type Checker struct {
	db  *db.DB
	cfg Config
}

func NewChecker(database *db.DB, cfg Config) (*Checker, error) {
	if err := newDatabaseError(database); err != nil {
		return nil, err
	}
	return &Checker{db: database, cfg: cfg.withDefaults()}, nil
}

// CheckAvailable returns nil when window is admissible on the court, a
// *ConflictError listing the blocking reservations, or ErrInvalidWindow.
func (c *Checker) CheckAvailable(ctx context.Context, courtID string, window timewindow.Window) error {
	if err := window.Validate(c.cfg.MaxDuration); err != nil {
		return err
	}

	ctx, cancel := context.WithTimeout(ctx, c.cfg.StoreTimeout)
	defer cancel()

	exists, err := c.db.Queries.CourtExists(ctx, courtID)
	if err != nil {
		return db.Unavailable("check court", err)
	}
	if exists == 0 {
		return courts.ErrCourtNotFound
	}

	rows, err := c.db.Queries.ListOverlappingReservations(ctx, dbgen.ListOverlappingReservationsParams{
		CourtID: courtID,
		StartAt: window.Start,
		EndAt:   window.End,
	})
	if err != nil {
		return db.Unavailable("list overlapping reservations", err)
	}
	if len(rows) == 0 {
		return nil
	}
	return &ConflictError{CourtID: courtID, Window: window, Blocking: reservationsFromRows(rows)}
}

// HasUpcomingReservationWithin reports whether any reservation on the court
// overlaps [now, now+horizon). In-progress reservations count.
func (c *Checker) HasUpcomingReservationWithin(ctx context.Context, courtID string, horizon time.Duration) (bool, error) {
	ctx, cancel := context.WithTimeout(ctx, c.cfg.StoreTimeout)
	defer cancel()

	window := timewindow.Starting(c.cfg.Clock.Now(), horizon)
	count, err := c.db.Queries.CountOverlappingReservations(ctx, dbgen.ListOverlappingReservationsParams{
		CourtID: courtID,
		StartAt: window.Start,
		EndAt:   window.End,
	})
	if err != nil {
		return false, db.Unavailable("count upcoming reservations", err)
	}
	return count > 0, nil
}
