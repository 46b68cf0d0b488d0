package gotnext

import (
	"context"
	"errors"
	"fmt"

	"github.com/codr1/gotnext/internal/db"
	dbgen "github.com/codr1/gotnext/internal/db/generated"
)

// Resolver derives client-facing rank from queue state. It never writes.
type Resolver struct {
	db  *db.DB
	cfg Config
}

func NewResolver(database *db.DB, cfg Config) (*Resolver, error) {
	if database == nil {
		return nil, errors.New("position resolver requires a database")
	}
	return &Resolver{db: database, cfg: cfg.withDefaults()}, nil
}

// Position returns the participant's 1-based rank in the court's active
// queue ordered by joined-at. Without an active queue the error matches
// both ErrNotQueued and ErrNoActiveQueue.
func (r *Resolver) Position(ctx context.Context, courtID, participantID string) (int, error) {
	ctx, cancel := context.WithTimeout(ctx, r.cfg.StoreTimeout)
	defer cancel()

	active, err := r.db.Queries.GetActiveQueue(ctx, courtID)
	if err != nil {
		if db.IsNoRows(err) {
			return 0, fmt.Errorf("%w: %w", ErrNotQueued, ErrNoActiveQueue)
		}
		return 0, db.Unavailable("load active queue", err)
	}

	entries, err := r.db.Queries.ListQueueEntries(ctx, active.ID)
	if err != nil {
		return 0, db.Unavailable("list queue entries", err)
	}
	for i, entry := range entries {
		if entry.ParticipantID == participantID {
			return i + 1, nil
		}
	}
	return 0, ErrNotQueued
}

// Status is what a participant sees for one court.
type Status struct {
	Entry Entry `json:"entry"`
	// Position is the rank in the active queue, or 0 while the entry waits
	// in an expired queue for the next rotation.
	Position  int `json:"position"`
	QueueSize int `json:"queue_size"`
}

// Status returns the participant's current entry on the court and its rank.
func (r *Resolver) Status(ctx context.Context, courtID, participantID string) (Status, error) {
	ctx, cancel := context.WithTimeout(ctx, r.cfg.StoreTimeout)
	defer cancel()

	row, err := r.db.Queries.GetCurrentEntry(ctx, dbgen.GetCurrentEntryParams{
		CourtID:       courtID,
		ParticipantID: participantID,
	})
	if err != nil {
		if db.IsNoRows(err) {
			return Status{}, ErrNotQueued
		}
		return Status{}, db.Unavailable("load current entry", err)
	}
	status := Status{Entry: entryFromRow(row)}

	queue, err := r.db.Queries.GetQueue(ctx, row.QueueID)
	if err != nil {
		return Status{}, db.Unavailable("load queue", err)
	}
	if !queue.Active {
		return status, nil
	}

	entries, err := r.db.Queries.ListQueueEntries(ctx, queue.ID)
	if err != nil {
		return Status{}, db.Unavailable("list queue entries", err)
	}
	status.QueueSize = len(entries)
	for i, entry := range entries {
		if entry.ID == row.ID {
			status.Position = i + 1
			break
		}
	}
	return status, nil
}
