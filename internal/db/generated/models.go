package dbgen

import "time"

type Gym struct {
	ID        string
	Name      string
	Location  string
	CreatedAt time.Time
}

type Court struct {
	ID        string
	GymID     string
	Name      string
	Surface   string
	IsIndoor  bool
	CreatedAt time.Time
}

type Reservation struct {
	ID        string
	CourtID   string
	OwnerID   string
	StartAt   time.Time
	EndAt     time.Time
	CreatedAt time.Time
}

type GotNextQueue struct {
	ID            string
	CourtID       string
	CreatedAt     time.Time
	Active        bool
	DeactivatedAt *time.Time
}

type GotNextEntry struct {
	Seq           int64
	ID            string
	QueueID       string
	CourtID       string
	ParticipantID string
	JoinedAt      time.Time
	Notified      bool
	PromotedAt    *time.Time
}
