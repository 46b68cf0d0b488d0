package gotnext

import (
	"context"
	"errors"
	"strings"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"

	"github.com/codr1/gotnext/internal/courts"
	"github.com/codr1/gotnext/internal/db"
	dbgen "github.com/codr1/gotnext/internal/db/generated"
)

// WaitQueue manages joins and leaves. It does not check reservations;
// callers gate joins with booking.Checker.HasUpcomingReservationWithin.
type WaitQueue struct {
	db  *db.DB
	cfg Config
}

func NewWaitQueue(database *db.DB, cfg Config) (*WaitQueue, error) {
	if database == nil {
		return nil, errors.New("wait queue requires a database")
	}
	return &WaitQueue{db: database, cfg: cfg.withDefaults()}, nil
}

// Join appends the participant to the court's active queue, creating the
// queue when the court has none. An active queue that has already reached
// its TTL is expired in place first. A participant who is in the active
// queue, or still waiting in any older queue, gets ErrAlreadyQueued.
func (w *WaitQueue) Join(ctx context.Context, courtID, participantID string) (Entry, error) {
	if strings.TrimSpace(participantID) == "" {
		return Entry{}, ErrParticipantRequired
	}

	ctx, cancel := context.WithTimeout(ctx, w.cfg.StoreTimeout)
	defer cancel()

	logger := log.Ctx(ctx).With().
		Str("component", "got_next_queue").
		Str("court_id", courtID).
		Str("participant_id", participantID).
		Logger()

	now := w.cfg.Clock.Now()
	var (
		entry        Entry
		createdQueue bool
	)
	err := w.db.RunInTx(ctx, func(txdb *db.DB) error {
		exists, err := txdb.Queries.CourtExists(ctx, courtID)
		if err != nil {
			return err
		}
		if exists == 0 {
			return courts.ErrCourtNotFound
		}

		active, err := txdb.Queries.GetActiveQueue(ctx, courtID)
		hasActive := err == nil
		if err != nil && !db.IsNoRows(err) {
			return err
		}
		if hasActive && w.cfg.expired(active.CreatedAt, now) {
			if _, err := txdb.Queries.DeactivateQueue(ctx, dbgen.DeactivateQueueParams{ID: active.ID, Now: now}); err != nil {
				return err
			}
			hasActive = false
		}

		activeID := ""
		if hasActive {
			activeID = active.ID
		}
		queued, err := txdb.Queries.CountParticipantQueued(ctx, dbgen.CountParticipantQueuedParams{
			CourtID:       courtID,
			ParticipantID: participantID,
			ActiveQueueID: activeID,
		})
		if err != nil {
			return err
		}
		if queued > 0 {
			return ErrAlreadyQueued
		}

		if !hasActive {
			active, err = txdb.Queries.CreateQueue(ctx, dbgen.CreateQueueParams{
				ID:        uuid.NewString(),
				CourtID:   courtID,
				CreatedAt: now,
			})
			if err != nil {
				return err
			}
			createdQueue = true
		}

		row, err := txdb.Queries.InsertEntry(ctx, dbgen.InsertEntryParams{
			ID:            uuid.NewString(),
			QueueID:       active.ID,
			CourtID:       courtID,
			ParticipantID: participantID,
			JoinedAt:      now,
		})
		if err != nil {
			if db.IsUniqueViolation(err) {
				return ErrAlreadyQueued
			}
			return err
		}
		entry = entryFromRow(row)
		return nil
	})
	if err != nil {
		if errors.Is(err, ErrAlreadyQueued) || errors.Is(err, courts.ErrCourtNotFound) {
			return Entry{}, err
		}
		logger.Error().Err(err).Msg("Failed to join got next queue")
		return Entry{}, db.Unavailable("join queue", err)
	}

	logger.Info().
		Str("queue_id", entry.QueueID).
		Bool("created_queue", createdQueue).
		Msg("Joined got next queue")
	return entry, nil
}

// Leave removes the participant from the queue. Calling it again returns
// ErrEntryNotFound.
func (w *WaitQueue) Leave(ctx context.Context, queueID, participantID string) error {
	ctx, cancel := context.WithTimeout(ctx, w.cfg.StoreTimeout)
	defer cancel()

	deleted, err := w.db.Queries.DeleteEntry(ctx, dbgen.DeleteEntryParams{
		QueueID:       queueID,
		ParticipantID: participantID,
	})
	if err != nil {
		return db.Unavailable("delete queue entry", err)
	}
	if deleted == 0 {
		return ErrEntryNotFound
	}

	log.Ctx(ctx).Info().
		Str("component", "got_next_queue").
		Str("queue_id", queueID).
		Str("participant_id", participantID).
		Msg("Left got next queue")
	return nil
}

func (w *WaitQueue) ActiveQueue(ctx context.Context, courtID string) (Queue, error) {
	ctx, cancel := context.WithTimeout(ctx, w.cfg.StoreTimeout)
	defer cancel()

	row, err := w.db.Queries.GetActiveQueue(ctx, courtID)
	if err != nil {
		if db.IsNoRows(err) {
			return Queue{}, ErrNoActiveQueue
		}
		return Queue{}, db.Unavailable("load active queue", err)
	}
	return queueFromRow(row), nil
}

// Entries lists a queue's entries by joined-at, ties in insertion order.
func (w *WaitQueue) Entries(ctx context.Context, queueID string) ([]Entry, error) {
	ctx, cancel := context.WithTimeout(ctx, w.cfg.StoreTimeout)
	defer cancel()

	rows, err := w.db.Queries.ListQueueEntries(ctx, queueID)
	if err != nil {
		return nil, db.Unavailable("list queue entries", err)
	}
	return entriesFromRows(rows), nil
}

// State reports the court's lifecycle state. An active queue past its TTL
// that the rotation has not reached yet reports StateExpired.
func (w *WaitQueue) State(ctx context.Context, courtID string) (State, error) {
	ctx, cancel := context.WithTimeout(ctx, w.cfg.StoreTimeout)
	defer cancel()

	active, err := w.db.Queries.GetActiveQueue(ctx, courtID)
	if err == nil {
		if w.cfg.expired(active.CreatedAt, w.cfg.Clock.Now()) {
			return StateExpired, nil
		}
		return StateActive, nil
	}
	if !db.IsNoRows(err) {
		return "", db.Unavailable("load active queue", err)
	}

	count, err := w.db.Queries.CountQueuesForCourt(ctx, courtID)
	if err != nil {
		return "", db.Unavailable("count queues", err)
	}
	if count == 0 {
		return StateNoQueue, nil
	}
	return StateExpired, nil
}
