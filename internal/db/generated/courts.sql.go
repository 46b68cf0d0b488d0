package dbgen

import (
	"context"
	"time"
)

const createGym = `
INSERT INTO gyms (id, name, location, created_at)
VALUES (?, ?, ?, ?)
`

type CreateGymParams struct {
	ID        string
	Name      string
	Location  string
	CreatedAt time.Time
}

func (q *Queries) CreateGym(ctx context.Context, arg CreateGymParams) error {
	_, err := q.db.ExecContext(ctx, createGym, arg.ID, arg.Name, arg.Location, toNanos(arg.CreatedAt))
	return err
}

const getGym = `
SELECT id, name, location, created_at FROM gyms WHERE id = ?
`

func (q *Queries) GetGym(ctx context.Context, id string) (Gym, error) {
	row := q.db.QueryRowContext(ctx, getGym, id)
	var i Gym
	var createdAt int64
	err := row.Scan(&i.ID, &i.Name, &i.Location, &createdAt)
	i.CreatedAt = fromNanos(createdAt)
	return i, err
}

const listGyms = `
SELECT id, name, location, created_at FROM gyms ORDER BY name, id
`

func (q *Queries) ListGyms(ctx context.Context) ([]Gym, error) {
	rows, err := q.db.QueryContext(ctx, listGyms)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var items []Gym
	for rows.Next() {
		var i Gym
		var createdAt int64
		if err := rows.Scan(&i.ID, &i.Name, &i.Location, &createdAt); err != nil {
			return nil, err
		}
		i.CreatedAt = fromNanos(createdAt)
		items = append(items, i)
	}
	if err := rows.Close(); err != nil {
		return nil, err
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return items, nil
}

const createCourt = `
INSERT INTO courts (id, gym_id, name, surface, is_indoor, created_at)
VALUES (?, ?, ?, ?, ?, ?)
`

type CreateCourtParams struct {
	ID        string
	GymID     string
	Name      string
	Surface   string
	IsIndoor  bool
	CreatedAt time.Time
}

func (q *Queries) CreateCourt(ctx context.Context, arg CreateCourtParams) error {
	_, err := q.db.ExecContext(ctx, createCourt,
		arg.ID,
		arg.GymID,
		arg.Name,
		arg.Surface,
		boolToInt(arg.IsIndoor),
		toNanos(arg.CreatedAt),
	)
	return err
}

const getCourt = `
SELECT id, gym_id, name, surface, is_indoor, created_at FROM courts WHERE id = ?
`

func (q *Queries) GetCourt(ctx context.Context, id string) (Court, error) {
	row := q.db.QueryRowContext(ctx, getCourt, id)
	return scanCourt(row)
}

const listCourtsByGym = `
SELECT id, gym_id, name, surface, is_indoor, created_at
FROM courts
WHERE gym_id = ?
ORDER BY name, id
`

func (q *Queries) ListCourtsByGym(ctx context.Context, gymID string) ([]Court, error) {
	rows, err := q.db.QueryContext(ctx, listCourtsByGym, gymID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var items []Court
	for rows.Next() {
		i, err := scanCourt(rows)
		if err != nil {
			return nil, err
		}
		items = append(items, i)
	}
	if err := rows.Close(); err != nil {
		return nil, err
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return items, nil
}

const listCourtIDs = `
SELECT id FROM courts ORDER BY id
`

func (q *Queries) ListCourtIDs(ctx context.Context) ([]string, error) {
	rows, err := q.db.QueryContext(ctx, listCourtIDs)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var items []string
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, err
		}
		items = append(items, id)
	}
	if err := rows.Close(); err != nil {
		return nil, err
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return items, nil
}

const courtExists = `
SELECT COUNT(1) FROM courts WHERE id = ?
`

func (q *Queries) CourtExists(ctx context.Context, id string) (int64, error) {
	row := q.db.QueryRowContext(ctx, courtExists, id)
	var count int64
	err := row.Scan(&count)
	return count, err
}

type scanner interface {
	Scan(dest ...any) error
}

func scanCourt(row scanner) (Court, error) {
	var i Court
	var isIndoor, createdAt int64
	err := row.Scan(&i.ID, &i.GymID, &i.Name, &i.Surface, &isIndoor, &createdAt)
	i.IsIndoor = isIndoor != 0
	i.CreatedAt = fromNanos(createdAt)
	return i, err
}
