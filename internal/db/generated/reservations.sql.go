package dbgen

import (
	"context"
	"time"
)

const insertReservationIfFree = `
INSERT INTO reservations (id, court_id, owner_id, start_at, end_at, created_at)
SELECT ?, ?, ?, ?, ?, ?
WHERE NOT EXISTS (
    SELECT 1 FROM reservations
    WHERE court_id = ?
      AND start_at < ?
      AND ? < end_at
)
`

type InsertReservationIfFreeParams struct {
	ID        string
	CourtID   string
	OwnerID   string
	StartAt   time.Time
	EndAt     time.Time
	CreatedAt time.Time
}

// InsertReservationIfFree inserts the row only when no reservation on the
// same court overlaps [StartAt, EndAt). It returns the number of rows inserted.
func (q *Queries) InsertReservationIfFree(ctx context.Context, arg InsertReservationIfFreeParams) (int64, error) {
	result, err := q.db.ExecContext(ctx, insertReservationIfFree,
		arg.ID,
		arg.CourtID,
		arg.OwnerID,
		toNanos(arg.StartAt),
		toNanos(arg.EndAt),
		toNanos(arg.CreatedAt),
		arg.CourtID,
		toNanos(arg.EndAt),
		toNanos(arg.StartAt),
	)
	if err != nil {
		return 0, err
	}
	return result.RowsAffected()
}

const getReservation = `
SELECT id, court_id, owner_id, start_at, end_at, created_at
FROM reservations
WHERE id = ?
`

func (q *Queries) GetReservation(ctx context.Context, id string) (Reservation, error) {
	row := q.db.QueryRowContext(ctx, getReservation, id)
	return scanReservation(row)
}

const listOverlappingReservations = `
SELECT id, court_id, owner_id, start_at, end_at, created_at
FROM reservations
WHERE court_id = ?
  AND start_at < ?
  AND ? < end_at
ORDER BY start_at, id
`

type ListOverlappingReservationsParams struct {
	CourtID string
	StartAt time.Time
	EndAt   time.Time
}

func (q *Queries) ListOverlappingReservations(ctx context.Context, arg ListOverlappingReservationsParams) ([]Reservation, error) {
	return q.listReservations(ctx, listOverlappingReservations,
		arg.CourtID,
		toNanos(arg.EndAt),
		toNanos(arg.StartAt),
	)
}

const countOverlappingReservations = `
SELECT COUNT(1)
FROM reservations
WHERE court_id = ?
  AND start_at < ?
  AND ? < end_at
`

func (q *Queries) CountOverlappingReservations(ctx context.Context, arg ListOverlappingReservationsParams) (int64, error) {
	row := q.db.QueryRowContext(ctx, countOverlappingReservations,
		arg.CourtID,
		toNanos(arg.EndAt),
		toNanos(arg.StartAt),
	)
	var count int64
	err := row.Scan(&count)
	return count, err
}

const listReservationsByOwner = `
SELECT id, court_id, owner_id, start_at, end_at, created_at
FROM reservations
WHERE owner_id = ?
ORDER BY start_at, id
`

func (q *Queries) ListReservationsByOwner(ctx context.Context, ownerID string) ([]Reservation, error) {
	return q.listReservations(ctx, listReservationsByOwner, ownerID)
}

const deleteReservationForOwner = `
DELETE FROM reservations
WHERE id = ? AND owner_id = ?
`

type DeleteReservationForOwnerParams struct {
	ID      string
	OwnerID string
}

func (q *Queries) DeleteReservationForOwner(ctx context.Context, arg DeleteReservationForOwnerParams) (int64, error) {
	result, err := q.db.ExecContext(ctx, deleteReservationForOwner, arg.ID, arg.OwnerID)
	if err != nil {
		return 0, err
	}
	return result.RowsAffected()
}

func (q *Queries) listReservations(ctx context.Context, query string, args ...interface{}) ([]Reservation, error) {
	rows, err := q.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var items []Reservation
	for rows.Next() {
		i, err := scanReservation(rows)
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

func scanReservation(row scanner) (Reservation, error) {
	var i Reservation
	var startAt, endAt, createdAt int64
	err := row.Scan(&i.ID, &i.CourtID, &i.OwnerID, &startAt, &endAt, &createdAt)
	i.StartAt = fromNanos(startAt)
	i.EndAt = fromNanos(endAt)
	i.CreatedAt = fromNanos(createdAt)
	return i, err
}
