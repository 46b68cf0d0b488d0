// Package notify publishes promotion events for participants moved into an
// active got next queue. Promoted entries act as an outbox: each one is
// published and then flagged notified, so a failed publish is retried on
// the next dispatch.
package notify

import (
	"context"
	"errors"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/codr1/gotnext/internal/clock"
	"github.com/codr1/gotnext/internal/db"
	dbgen "github.com/codr1/gotnext/internal/db/generated"
)

// PromotionEvent tells a participant their group is up on a court.
type PromotionEvent struct {
	EntryID       string    `json:"entry_id"`
	QueueID       string    `json:"queue_id"`
	CourtID       string    `json:"court_id"`
	ParticipantID string    `json:"participant_id"`
	JoinedAt      time.Time `json:"joined_at"`
	PromotedAt    time.Time `json:"promoted_at"`
	SentAt        time.Time `json:"sent_at"`
}

// Publisher delivers promotion events to some downstream channel.
type Publisher interface {
	Publish(ctx context.Context, event PromotionEvent) error
}

const defaultBatchLimit = 100

// Dispatcher drains unnotified promotions through a Publisher.
type Dispatcher struct {
	db        *db.DB
	publisher Publisher
	limit     int
	clock     clock.Clock
}

func NewDispatcher(database *db.DB, publisher Publisher, limit int, clk clock.Clock) (*Dispatcher, error) {
	if database == nil {
		return nil, errors.New("dispatcher requires a database")
	}
	if publisher == nil {
		return nil, errors.New("dispatcher requires a publisher")
	}
	if limit <= 0 {
		limit = defaultBatchLimit
	}
	return &Dispatcher{db: database, publisher: publisher, limit: limit, clock: clock.OrReal(clk)}, nil
}

// Dispatch publishes up to the batch limit of pending promotions and returns
// how many were marked notified. A publish failure stops the batch; entries
// already marked stay marked.
func (d *Dispatcher) Dispatch(ctx context.Context) (int, error) {
	logger := log.Ctx(ctx).With().Str("component", "promotion_dispatcher").Logger()

	rows, err := d.db.Queries.ListPendingNotifications(ctx, int64(d.limit))
	if err != nil {
		return 0, db.Unavailable("list pending notifications", err)
	}

	sent := 0
	for _, row := range rows {
		event := eventFromRow(row, d.clock.Now())
		if err := d.publisher.Publish(ctx, event); err != nil {
			logger.Error().Err(err).Str("entry_id", row.ID).Msg("Failed to publish promotion event")
			return sent, err
		}

		// The entry may have been promoted again since it was listed.
		marked, err := d.db.Queries.MarkEntryNotified(ctx, dbgen.MarkEntryNotifiedParams{
			ID:      row.ID,
			QueueID: row.QueueID,
		})
		if err != nil {
			return sent, db.Unavailable("mark entry notified", err)
		}
		if marked == 0 {
			logger.Warn().Str("entry_id", row.ID).Msg("Promotion moved before it could be marked notified")
			continue
		}
		sent++
	}

	if sent > 0 {
		logger.Info().Int("sent", sent).Msg("Promotion events dispatched")
	}
	return sent, nil
}

func eventFromRow(row dbgen.GotNextEntry, now time.Time) PromotionEvent {
	event := PromotionEvent{
		EntryID:       row.ID,
		QueueID:       row.QueueID,
		CourtID:       row.CourtID,
		ParticipantID: row.ParticipantID,
		JoinedAt:      row.JoinedAt,
		SentAt:        now,
	}
	if row.PromotedAt != nil {
		event.PromotedAt = *row.PromotedAt
	}
	return event
}
