package booking

import (
	"context"
	"errors"
	"strings"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"

	"github.com/codr1/gotnext/internal/courts"
	"github.com/codr1/gotnext/internal/db"
	dbgen "github.com/codr1/gotnext/internal/db/generated"
	"github.com/codr1/gotnext/internal/timewindow"
)

// Ledger owns confirmed reservations.
type Ledger struct {
	db  *db.DB
	cfg Config
}

func NewLedger(database *db.DB, cfg Config) (*Ledger, error) {
	if err := newDatabaseError(database); err != nil {
		return nil, err
	}
	return &Ledger{db: database, cfg: cfg.withDefaults()}, nil
}

// Create books window on the court for ownerID. The insert is conditional on
// no overlapping row and runs inside an immediate transaction, so concurrent
// overlapping requests yield exactly one reservation and *ConflictError for
// the rest.
func (l *Ledger) Create(ctx context.Context, courtID, ownerID string, window timewindow.Window) (Reservation, error) {
	if strings.TrimSpace(ownerID) == "" {
		return Reservation{}, ErrOwnerRequired
	}
	if err := window.Validate(l.cfg.MaxDuration); err != nil {
		return Reservation{}, err
	}

	ctx, cancel := context.WithTimeout(ctx, l.cfg.StoreTimeout)
	defer cancel()

	logger := log.Ctx(ctx).With().
		Str("component", "reservation_ledger").
		Str("court_id", courtID).
		Str("owner_id", ownerID).
		Time("start", window.Start).
		Time("end", window.End).
		Logger()

	created := Reservation{
		ID:        uuid.NewString(),
		CourtID:   courtID,
		OwnerID:   ownerID,
		Window:    window,
		CreatedAt: l.cfg.Clock.Now(),
	}

	err := l.db.RunInTx(ctx, func(txdb *db.DB) error {
		exists, err := txdb.Queries.CourtExists(ctx, courtID)
		if err != nil {
			return err
		}
		if exists == 0 {
			return courts.ErrCourtNotFound
		}

		inserted, err := txdb.Queries.InsertReservationIfFree(ctx, dbgen.InsertReservationIfFreeParams{
			ID:        created.ID,
			CourtID:   courtID,
			OwnerID:   ownerID,
			StartAt:   window.Start,
			EndAt:     window.End,
			CreatedAt: created.CreatedAt,
		})
		if err != nil && !db.IsTriggerAbort(err) {
			return err
		}
		if inserted == 1 {
			return nil
		}

		blocking, err := txdb.Queries.ListOverlappingReservations(ctx, dbgen.ListOverlappingReservationsParams{
			CourtID: courtID,
			StartAt: window.Start,
			EndAt:   window.End,
		})
		if err != nil {
			return err
		}
		return &ConflictError{CourtID: courtID, Window: window, Blocking: reservationsFromRows(blocking)}
	})
	if err != nil {
		var conflict *ConflictError
		switch {
		case errors.As(err, &conflict):
			logger.Info().Int("blocking", len(conflict.Blocking)).Msg("Reservation rejected: conflict")
			return Reservation{}, err
		case errors.Is(err, courts.ErrCourtNotFound):
			return Reservation{}, err
		}
		logger.Error().Err(err).Msg("Failed to create reservation")
		return Reservation{}, db.Unavailable("create reservation", err)
	}

	logger.Info().Str("reservation_id", created.ID).Msg("Reservation created")
	return created, nil
}

// Cancel deletes the reservation when requesterID owns it.
func (l *Ledger) Cancel(ctx context.Context, reservationID, requesterID string) error {
	ctx, cancel := context.WithTimeout(ctx, l.cfg.StoreTimeout)
	defer cancel()

	deleted, err := l.db.Queries.DeleteReservationForOwner(ctx, dbgen.DeleteReservationForOwnerParams{
		ID:      reservationID,
		OwnerID: requesterID,
	})
	if err != nil {
		return db.Unavailable("delete reservation", err)
	}
	if deleted == 1 {
		log.Ctx(ctx).Info().
			Str("component", "reservation_ledger").
			Str("reservation_id", reservationID).
			Str("owner_id", requesterID).
			Msg("Reservation cancelled")
		return nil
	}

	if _, err := l.db.Queries.GetReservation(ctx, reservationID); err != nil {
		if db.IsNoRows(err) {
			return ErrNotFound
		}
		return db.Unavailable("load reservation", err)
	}
	return ErrNotOwner
}

func (l *Ledger) Get(ctx context.Context, reservationID string) (Reservation, error) {
	ctx, cancel := context.WithTimeout(ctx, l.cfg.StoreTimeout)
	defer cancel()

	row, err := l.db.Queries.GetReservation(ctx, reservationID)
	if err != nil {
		if db.IsNoRows(err) {
			return Reservation{}, ErrNotFound
		}
		return Reservation{}, db.Unavailable("load reservation", err)
	}
	return reservationFromRow(row), nil
}

// ListForOwner returns the owner's reservations ordered by start ascending.
func (l *Ledger) ListForOwner(ctx context.Context, ownerID string) ([]Reservation, error) {
	ctx, cancel := context.WithTimeout(ctx, l.cfg.StoreTimeout)
	defer cancel()

	rows, err := l.db.Queries.ListReservationsByOwner(ctx, ownerID)
	if err != nil {
		return nil, db.Unavailable("list owner reservations", err)
	}
	return reservationsFromRows(rows), nil
}

// ListForCourt returns reservations on the court overlapping window, ordered by start.
func (l *Ledger) ListForCourt(ctx context.Context, courtID string, window timewindow.Window) ([]Reservation, error) {
	ctx, cancel := context.WithTimeout(ctx, l.cfg.StoreTimeout)
	defer cancel()

	rows, err := l.db.Queries.ListOverlappingReservations(ctx, dbgen.ListOverlappingReservationsParams{
		CourtID: courtID,
		StartAt: window.Start,
		EndAt:   window.End,
	})
	if err != nil {
		return nil, db.Unavailable("list court reservations", err)
	}
	return reservationsFromRows(rows), nil
}
