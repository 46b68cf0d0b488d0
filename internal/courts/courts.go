// Package courts is the catalog of gyms and their bookable courts.
package courts

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/codr1/gotnext/internal/clock"
	"github.com/codr1/gotnext/internal/db"
	dbgen "github.com/codr1/gotnext/internal/db/generated"
)

var (
	ErrGymNotFound   = errors.New("gym not found")
	ErrCourtNotFound = errors.New("court not found")
	ErrNameRequired  = errors.New("name is required")
)

type Gym struct {
	ID       string `json:"id"`
	Name     string `json:"name"`
	Location string `json:"location"`
}

type Court struct {
	ID       string `json:"id"`
	GymID    string `json:"gym_id"`
	Name     string `json:"name"`
	Surface  string `json:"surface"`
	IsIndoor bool   `json:"is_indoor"`
}

type CourtInput struct {
	Name     string
	Surface  string
	IsIndoor bool
}

type Service struct {
	db      *db.DB
	clock   clock.Clock
	timeout time.Duration
}

func NewService(database *db.DB, clk clock.Clock, timeout time.Duration) (*Service, error) {
	if database == nil {
		return nil, errors.New("court catalog requires a database")
	}
	if timeout <= 0 {
		timeout = 5 * time.Second
	}
	return &Service{db: database, clock: clock.OrReal(clk), timeout: timeout}, nil
}

func (s *Service) CreateGym(ctx context.Context, name, location string) (Gym, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return Gym{}, ErrNameRequired
	}
	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	gym := Gym{ID: uuid.NewString(), Name: name, Location: strings.TrimSpace(location)}
	if err := s.db.Queries.CreateGym(ctx, dbgen.CreateGymParams{
		ID:        gym.ID,
		Name:      gym.Name,
		Location:  gym.Location,
		CreatedAt: s.clock.Now(),
	}); err != nil {
		return Gym{}, db.Unavailable("create gym", err)
	}
	return gym, nil
}

func (s *Service) CreateCourt(ctx context.Context, gymID string, input CourtInput) (Court, error) {
	name := strings.TrimSpace(input.Name)
	if name == "" {
		return Court{}, ErrNameRequired
	}
	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	if _, err := s.db.Queries.GetGym(ctx, gymID); err != nil {
		if db.IsNoRows(err) {
			return Court{}, ErrGymNotFound
		}
		return Court{}, db.Unavailable("load gym", err)
	}

	court := Court{
		ID:       uuid.NewString(),
		GymID:    gymID,
		Name:     name,
		Surface:  strings.TrimSpace(input.Surface),
		IsIndoor: input.IsIndoor,
	}
	if err := s.db.Queries.CreateCourt(ctx, dbgen.CreateCourtParams{
		ID:        court.ID,
		GymID:     court.GymID,
		Name:      court.Name,
		Surface:   court.Surface,
		IsIndoor:  court.IsIndoor,
		CreatedAt: s.clock.Now(),
	}); err != nil {
		return Court{}, db.Unavailable("create court", err)
	}
	return court, nil
}

func (s *Service) ListGyms(ctx context.Context) ([]Gym, error) {
	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	rows, err := s.db.Queries.ListGyms(ctx)
	if err != nil {
		return nil, db.Unavailable("list gyms", err)
	}
	gyms := make([]Gym, 0, len(rows))
	for _, row := range rows {
		gyms = append(gyms, Gym{ID: row.ID, Name: row.Name, Location: row.Location})
	}
	return gyms, nil
}

func (s *Service) ListCourts(ctx context.Context, gymID string) ([]Court, error) {
	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	if _, err := s.db.Queries.GetGym(ctx, gymID); err != nil {
		if db.IsNoRows(err) {
			return nil, ErrGymNotFound
		}
		return nil, db.Unavailable("load gym", err)
	}
	rows, err := s.db.Queries.ListCourtsByGym(ctx, gymID)
	if err != nil {
		return nil, db.Unavailable("list courts", err)
	}
	courts := make([]Court, 0, len(rows))
	for _, row := range rows {
		courts = append(courts, courtFromRow(row))
	}
	return courts, nil
}

func (s *Service) GetCourt(ctx context.Context, courtID string) (Court, error) {
	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	row, err := s.db.Queries.GetCourt(ctx, courtID)
	if err != nil {
		if db.IsNoRows(err) {
			return Court{}, ErrCourtNotFound
		}
		return Court{}, db.Unavailable("load court", err)
	}
	return courtFromRow(row), nil
}

// ListCourtIDs returns every court, used by the rotation job to fan out.
func (s *Service) ListCourtIDs(ctx context.Context) ([]string, error) {
	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	ids, err := s.db.Queries.ListCourtIDs(ctx)
	if err != nil {
		return nil, db.Unavailable("list court ids", err)
	}
	return ids, nil
}

func courtFromRow(row dbgen.Court) Court {
	return Court{
		ID:       row.ID,
		GymID:    row.GymID,
		Name:     row.Name,
		Surface:  row.Surface,
		IsIndoor: row.IsIndoor,
	}
}
