// Package gotnext implements the "Got Next" waiting list for a court: a
// single active queue per court, periodic rotation that promotes waiting
// participants in batches, and rank lookups for client status.
package gotnext

import (
	"errors"
	"time"

	"github.com/codr1/gotnext/internal/clock"
	dbgen "github.com/codr1/gotnext/internal/db/generated"
)

var (
	ErrAlreadyQueued       = errors.New("participant already queued on this court")
	ErrNotQueued           = errors.New("participant not queued")
	ErrNoActiveQueue       = errors.New("court has no active queue")
	ErrEntryNotFound       = errors.New("queue entry not found")
	ErrParticipantRequired = errors.New("participant id is required")
)

// State is the lifecycle of a court's waiting list.
type State string

const (
	StateNoQueue State = "no_queue"
	StateActive  State = "active"
	StateExpired State = "expired"
)

// Config holds queue policy and collaborators.
type Config struct {
	QueueTTL     time.Duration // Max age of an active queue (default: 20m)
	BatchSize    int           // Max entries promoted per court per tick (default: 5)
	StoreTimeout time.Duration // Bound on each storage round trip (default: 5s)
	Concurrency  int           // Courts rotated in parallel (default: 4)

	// Clock for testing (nil uses real time)
	Clock clock.Clock
}

func DefaultConfig() Config {
	return Config{
		QueueTTL:     20 * time.Minute,
		BatchSize:    5,
		StoreTimeout: 5 * time.Second,
		Concurrency:  4,
	}
}

func (c Config) withDefaults() Config {
	defaults := DefaultConfig()
	if c.QueueTTL <= 0 {
		c.QueueTTL = defaults.QueueTTL
	}
	if c.BatchSize <= 0 {
		c.BatchSize = defaults.BatchSize
	}
	if c.StoreTimeout <= 0 {
		c.StoreTimeout = defaults.StoreTimeout
	}
	if c.Concurrency <= 0 {
		c.Concurrency = defaults.Concurrency
	}
	c.Clock = clock.OrReal(c.Clock)
	return c
}

// expired reports whether a queue created at createdAt has reached the TTL.
// A queue exactly TTL old is expired.
func (c Config) expired(createdAt, now time.Time) bool {
	return now.Sub(createdAt) >= c.QueueTTL
}

type Queue struct {
	ID            string     `json:"id"`
	CourtID       string     `json:"court_id"`
	CreatedAt     time.Time  `json:"created_at"`
	Active        bool       `json:"active"`
	DeactivatedAt *time.Time `json:"deactivated_at,omitempty"`
}

type Entry struct {
	ID            string     `json:"id"`
	QueueID       string     `json:"queue_id"`
	CourtID       string     `json:"court_id"`
	ParticipantID string     `json:"participant_id"`
	JoinedAt      time.Time  `json:"joined_at"`
	Notified      bool       `json:"notified"`
	PromotedAt    *time.Time `json:"promoted_at,omitempty"`
}

// Waiting reports whether the entry has not been promoted yet.
func (e Entry) Waiting() bool {
	return e.PromotedAt == nil
}

func queueFromRow(row dbgen.GotNextQueue) Queue {
	return Queue{
		ID:            row.ID,
		CourtID:       row.CourtID,
		CreatedAt:     row.CreatedAt,
		Active:        row.Active,
		DeactivatedAt: row.DeactivatedAt,
	}
}

func entryFromRow(row dbgen.GotNextEntry) Entry {
	return Entry{
		ID:            row.ID,
		QueueID:       row.QueueID,
		CourtID:       row.CourtID,
		ParticipantID: row.ParticipantID,
		JoinedAt:      row.JoinedAt,
		Notified:      row.Notified,
		PromotedAt:    row.PromotedAt,
	}
}

func entriesFromRows(rows []dbgen.GotNextEntry) []Entry {
	out := make([]Entry, 0, len(rows))
	for _, row := range rows {
		out = append(out, entryFromRow(row))
	}
	return out
}
