package notify

import (
	"context"

	"github.com/rs/zerolog/log"
)

// LogPublisher writes promotion events to the context logger. Used when no
// broker is configured.
type LogPublisher struct{}

func (LogPublisher) Publish(ctx context.Context, event PromotionEvent) error {
	log.Ctx(ctx).Info().
		Str("component", "promotion_publisher").
		Str("entry_id", event.EntryID).
		Str("queue_id", event.QueueID).
		Str("court_id", event.CourtID).
		Str("participant_id", event.ParticipantID).
		Time("promoted_at", event.PromotedAt).
		Msg("Participant promoted")
	return nil
}
