package gotnext

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
	"golang.org/x/sync/errgroup"

	"github.com/codr1/gotnext/internal/db"
	dbgen "github.com/codr1/gotnext/internal/db/generated"
	"github.com/codr1/gotnext/internal/timewindow"
)

// CourtLister supplies the courts a tick visits.
type CourtLister interface {
	ListCourtIDs(ctx context.Context) ([]string, error)
}

// Sentinels that abort a promotion transaction without reporting failure.
var (
	errNothingToPromote = errors.New("no waiting entries to promote")
	errCourtBlocked     = errors.New("court blocked by reservation")
)

// CourtResult describes one court's rotation.
type CourtResult struct {
	CourtID string
	Expired int64
	// Blocked is set when waiting entries exist but a reservation overlaps
	// the next TTL window.
	Blocked  bool
	NewQueue *Queue
	Promoted []Entry
}

// TickReport summarizes a full rotation pass.
type TickReport struct {
	Courts   int
	Expired  int64
	Promoted int
	Blocked  int
	Failed   int
}

// Rotator expires stale queues and promotes waiting participants.
type Rotator struct {
	db     *db.DB
	courts CourtLister
	cfg    Config
}

func NewRotator(database *db.DB, courts CourtLister, cfg Config) (*Rotator, error) {
	if database == nil {
		return nil, errors.New("rotator requires a database")
	}
	if courts == nil {
		return nil, errors.New("rotator requires a court lister")
	}
	return &Rotator{db: database, courts: courts, cfg: cfg.withDefaults()}, nil
}

// Tick rotates every court. Courts run concurrently up to Config.Concurrency;
// a failing court is logged and counted but never stops the others. The
// returned error is non-nil only when the court list cannot be loaded.
func (r *Rotator) Tick(ctx context.Context) (TickReport, error) {
	logger := log.Ctx(ctx).With().Str("component", "got_next_rotation").Logger()

	courtIDs, err := r.courts.ListCourtIDs(ctx)
	if err != nil {
		logger.Error().Err(err).Msg("Failed to list courts for rotation")
		return TickReport{}, err
	}

	results := make([]CourtResult, len(courtIDs))
	errs := make([]error, len(courtIDs))

	var g errgroup.Group
	g.SetLimit(r.cfg.Concurrency)
	for i, courtID := range courtIDs {
		g.Go(func() error {
			results[i], errs[i] = r.RotateCourt(ctx, courtID)
			return nil
		})
	}
	_ = g.Wait()

	report := TickReport{Courts: len(courtIDs)}
	for i, result := range results {
		if errs[i] != nil {
			report.Failed++
			logger.Error().Err(errs[i]).Str("court_id", courtIDs[i]).Msg("Failed to rotate court")
			continue
		}
		report.Expired += result.Expired
		report.Promoted += len(result.Promoted)
		if result.Blocked {
			report.Blocked++
		}
	}

	logger.Debug().
		Int("courts", report.Courts).
		Int64("expired", report.Expired).
		Int("promoted", report.Promoted).
		Int("blocked", report.Blocked).
		Int("failed", report.Failed).
		Msg("Rotation tick completed")
	return report, nil
}

// RotateCourt expires the court's stale active queue, then promotes up to
// BatchSize waiting entries (joined-at order, across every queue of the
// court) into a new active queue unless a reservation overlaps the next TTL
// window. Promotion commits as one transaction and each reassignment is
// conditional on the entry still waiting in its source queue, so retried or
// concurrent ticks cannot promote an entry twice.
func (r *Rotator) RotateCourt(ctx context.Context, courtID string) (CourtResult, error) {
	ctx, cancel := context.WithTimeout(ctx, r.cfg.StoreTimeout)
	defer cancel()

	logger := log.Ctx(ctx).With().
		Str("component", "got_next_rotation").
		Str("court_id", courtID).
		Logger()

	now := r.cfg.Clock.Now()
	result := CourtResult{CourtID: courtID}

	expired, err := r.db.Queries.ExpireQueues(ctx, dbgen.ExpireQueuesParams{
		CourtID:           courtID,
		CreatedAtOrBefore: now.Add(-r.cfg.QueueTTL),
		Now:               now,
	})
	if err != nil {
		return result, db.Unavailable("expire queues", err)
	}
	result.Expired = expired
	if expired > 0 {
		logger.Info().Int64("expired", expired).Msg("Expired got next queue")
	}

	waiting, err := r.db.Queries.CountWaitingEntries(ctx, courtID)
	if err != nil {
		return result, db.Unavailable("count waiting entries", err)
	}
	if waiting == 0 {
		return result, nil
	}

	blockWindow := timewindow.Starting(now, r.cfg.QueueTTL)
	var (
		newQueue dbgen.GotNextQueue
		promoted []Entry
	)
	err = r.db.RunInTx(ctx, func(txdb *db.DB) error {
		blocking, err := txdb.Queries.CountOverlappingReservations(ctx, dbgen.ListOverlappingReservationsParams{
			CourtID: courtID,
			StartAt: blockWindow.Start,
			EndAt:   blockWindow.End,
		})
		if err != nil {
			return err
		}
		if blocking > 0 {
			return errCourtBlocked
		}

		batch, err := txdb.Queries.ListWaitingEntries(ctx, dbgen.ListWaitingEntriesParams{
			CourtID: courtID,
			Limit:   int64(r.cfg.BatchSize),
		})
		if err != nil {
			return err
		}
		if len(batch) == 0 {
			return errNothingToPromote
		}

		current, err := txdb.Queries.GetActiveQueue(ctx, courtID)
		switch {
		case err == nil:
			if _, err := txdb.Queries.DeactivateQueue(ctx, dbgen.DeactivateQueueParams{ID: current.ID, Now: now}); err != nil {
				return err
			}
		case !db.IsNoRows(err):
			return err
		}

		newQueue, err = txdb.Queries.CreateQueue(ctx, dbgen.CreateQueueParams{
			ID:        uuid.NewString(),
			CourtID:   courtID,
			CreatedAt: now,
		})
		if err != nil {
			return err
		}

		promoted = promoted[:0]
		for _, candidate := range batch {
			moved, err := txdb.Queries.ReassignEntry(ctx, dbgen.ReassignEntryParams{
				ID:          candidate.ID,
				FromQueueID: candidate.QueueID,
				ToQueueID:   newQueue.ID,
				PromotedAt:  now,
			})
			if err != nil {
				return err
			}
			if moved == 0 {
				continue
			}
			entry := entryFromRow(candidate)
			entry.QueueID = newQueue.ID
			entry.Notified = false
			promotedAt := now
			entry.PromotedAt = &promotedAt
			promoted = append(promoted, entry)
		}
		if len(promoted) == 0 {
			return errNothingToPromote
		}
		return nil
	})
	switch {
	case errors.Is(err, errCourtBlocked):
		result.Blocked = true
		logger.Debug().Int64("waiting", waiting).Msg("Promotion skipped: reservation blocks court")
		return result, nil
	case errors.Is(err, errNothingToPromote):
		return result, nil
	case err != nil:
		return result, db.Unavailable("promote entries", err)
	}

	queue := queueFromRow(newQueue)
	result.NewQueue = &queue
	result.Promoted = promoted

	participants := make([]string, len(promoted))
	for i, entry := range promoted {
		participants[i] = entry.ParticipantID
	}
	logger.Info().
		Str("queue_id", queue.ID).
		Strs("participants", participants).
		Int64("still_waiting", waiting-int64(len(promoted))).
		Msg("Promoted got next batch")
	return result, nil
}
