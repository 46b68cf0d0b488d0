// Package booking admits court reservations. Checker answers advisory
// availability questions; Ledger is the authoritative conflict gate.
package booking

import (
	"errors"
	"time"

	"github.com/codr1/gotnext/internal/clock"
	"github.com/codr1/gotnext/internal/db"
	dbgen "github.com/codr1/gotnext/internal/db/generated"
	"github.com/codr1/gotnext/internal/timewindow"
)

type Reservation struct {
	ID        string
	CourtID   string
	OwnerID   string
	Window    timewindow.Window
	CreatedAt time.Time
}

// Config holds booking limits and collaborators.
type Config struct {
	MaxDuration  time.Duration // Longest admissible window (default: 2h)
	StoreTimeout time.Duration // Bound on each storage round trip (default: 5s)

	// Clock for testing (nil uses real time)
	Clock clock.Clock
}

func DefaultConfig() Config {
	return Config{
		MaxDuration:  timewindow.MaxReservationDuration,
		StoreTimeout: 5 * time.Second,
	}
}

func (c Config) withDefaults() Config {
	defaults := DefaultConfig()
	if c.MaxDuration <= 0 {
		c.MaxDuration = defaults.MaxDuration
	}
	if c.StoreTimeout <= 0 {
		c.StoreTimeout = defaults.StoreTimeout
	}
	c.Clock = clock.OrReal(c.Clock)
	return c
}

func reservationFromRow(row dbgen.Reservation) Reservation {
	return Reservation{
		ID:        row.ID,
		CourtID:   row.CourtID,
		OwnerID:   row.OwnerID,
		Window:    timewindow.New(row.StartAt, row.EndAt),
		CreatedAt: row.CreatedAt,
	}
}

func reservationsFromRows(rows []dbgen.Reservation) []Reservation {
	out := make([]Reservation, 0, len(rows))
	for _, row := range rows {
		out = append(out, reservationFromRow(row))
	}
	return out
}

func newDatabaseError(database *db.DB) error {
	if database == nil {
		return errors.New("booking requires a database")
	}
	return nil
}
