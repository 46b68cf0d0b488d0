package dbgen

import (
	"context"
	"database/sql"
	"time"
)

const gotNextQueueColumns = `id, court_id, created_at, active, deactivated_at`

const getActiveQueue = `
SELECT ` + gotNextQueueColumns + `
FROM got_next_queues
WHERE court_id = ? AND active = 1
`

func (q *Queries) GetActiveQueue(ctx context.Context, courtID string) (GotNextQueue, error) {
	row := q.db.QueryRowContext(ctx, getActiveQueue, courtID)
	return scanQueue(row)
}

const getQueue = `
SELECT ` + gotNextQueueColumns + `
FROM got_next_queues
WHERE id = ?
`

func (q *Queries) GetQueue(ctx context.Context, id string) (GotNextQueue, error) {
	row := q.db.QueryRowContext(ctx, getQueue, id)
	return scanQueue(row)
}

const createQueue = `
INSERT INTO got_next_queues (id, court_id, created_at, active)
VALUES (?, ?, ?, 1)
RETURNING ` + gotNextQueueColumns

type CreateQueueParams struct {
	ID        string
	CourtID   string
	CreatedAt time.Time
}

func (q *Queries) CreateQueue(ctx context.Context, arg CreateQueueParams) (GotNextQueue, error) {
	row := q.db.QueryRowContext(ctx, createQueue, arg.ID, arg.CourtID, toNanos(arg.CreatedAt))
	return scanQueue(row)
}

const expireQueues = `
UPDATE got_next_queues
SET active = 0, deactivated_at = ?
WHERE court_id = ?
  AND active = 1
  AND created_at <= ?
`

type ExpireQueuesParams struct {
	CourtID string
	// CreatedAtOrBefore is now - TTL; queues at least TTL old are expired.
	CreatedAtOrBefore time.Time
	Now               time.Time
}

func (q *Queries) ExpireQueues(ctx context.Context, arg ExpireQueuesParams) (int64, error) {
	result, err := q.db.ExecContext(ctx, expireQueues,
		toNanos(arg.Now),
		arg.CourtID,
		toNanos(arg.CreatedAtOrBefore),
	)
	if err != nil {
		return 0, err
	}
	return result.RowsAffected()
}

const deactivateQueue = `
UPDATE got_next_queues
SET active = 0, deactivated_at = ?
WHERE id = ? AND active = 1
`

type DeactivateQueueParams struct {
	ID  string
	Now time.Time
}

func (q *Queries) DeactivateQueue(ctx context.Context, arg DeactivateQueueParams) (int64, error) {
	result, err := q.db.ExecContext(ctx, deactivateQueue, toNanos(arg.Now), arg.ID)
	if err != nil {
		return 0, err
	}
	return result.RowsAffected()
}

const countQueuesForCourt = `
SELECT COUNT(1) FROM got_next_queues WHERE court_id = ?
`

func (q *Queries) CountQueuesForCourt(ctx context.Context, courtID string) (int64, error) {
	row := q.db.QueryRowContext(ctx, countQueuesForCourt, courtID)
	var count int64
	err := row.Scan(&count)
	return count, err
}

const gotNextEntryColumns = `seq, id, queue_id, court_id, participant_id, joined_at, notified, promoted_at`

const insertEntry = `
INSERT INTO got_next_entries (id, queue_id, court_id, participant_id, joined_at, notified)
VALUES (?, ?, ?, ?, ?, 0)
RETURNING ` + gotNextEntryColumns

type InsertEntryParams struct {
	ID            string
	QueueID       string
	CourtID       string
	ParticipantID string
	JoinedAt      time.Time
}

func (q *Queries) InsertEntry(ctx context.Context, arg InsertEntryParams) (GotNextEntry, error) {
	row := q.db.QueryRowContext(ctx, insertEntry,
		arg.ID,
		arg.QueueID,
		arg.CourtID,
		arg.ParticipantID,
		toNanos(arg.JoinedAt),
	)
	return scanEntry(row)
}

const countParticipantQueued = `
SELECT COUNT(1)
FROM got_next_entries
WHERE court_id = ?
  AND participant_id = ?
  AND (promoted_at IS NULL OR queue_id = ?)
`

type CountParticipantQueuedParams struct {
	CourtID       string
	ParticipantID string
	// ActiveQueueID may be empty when the court has no active queue.
	ActiveQueueID string
}

func (q *Queries) CountParticipantQueued(ctx context.Context, arg CountParticipantQueuedParams) (int64, error) {
	row := q.db.QueryRowContext(ctx, countParticipantQueued, arg.CourtID, arg.ParticipantID, arg.ActiveQueueID)
	var count int64
	err := row.Scan(&count)
	return count, err
}

const getCurrentEntry = `
SELECT ` + gotNextEntryColumns + `
FROM got_next_entries
WHERE court_id = ?
  AND participant_id = ?
  AND (
    promoted_at IS NULL
    OR queue_id IN (SELECT id FROM got_next_queues WHERE court_id = ? AND active = 1)
  )
ORDER BY joined_at DESC, seq DESC
LIMIT 1
`

type GetCurrentEntryParams struct {
	CourtID       string
	ParticipantID string
}

// GetCurrentEntry returns the participant's waiting entry, or their entry in
// the court's active queue.
func (q *Queries) GetCurrentEntry(ctx context.Context, arg GetCurrentEntryParams) (GotNextEntry, error) {
	row := q.db.QueryRowContext(ctx, getCurrentEntry, arg.CourtID, arg.ParticipantID, arg.CourtID)
	return scanEntry(row)
}

const deleteEntry = `
DELETE FROM got_next_entries
WHERE queue_id = ? AND participant_id = ?
`

type DeleteEntryParams struct {
	QueueID       string
	ParticipantID string
}

func (q *Queries) DeleteEntry(ctx context.Context, arg DeleteEntryParams) (int64, error) {
	result, err := q.db.ExecContext(ctx, deleteEntry, arg.QueueID, arg.ParticipantID)
	if err != nil {
		return 0, err
	}
	return result.RowsAffected()
}

const listQueueEntries = `
SELECT ` + gotNextEntryColumns + `
FROM got_next_entries
WHERE queue_id = ?
ORDER BY joined_at, seq
`

func (q *Queries) ListQueueEntries(ctx context.Context, queueID string) ([]GotNextEntry, error) {
	return q.listEntries(ctx, listQueueEntries, queueID)
}

const countWaitingEntries = `
SELECT COUNT(1)
FROM got_next_entries
WHERE court_id = ? AND promoted_at IS NULL
`

func (q *Queries) CountWaitingEntries(ctx context.Context, courtID string) (int64, error) {
	row := q.db.QueryRowContext(ctx, countWaitingEntries, courtID)
	var count int64
	err := row.Scan(&count)
	return count, err
}

const listWaitingEntries = `
SELECT ` + gotNextEntryColumns + `
FROM got_next_entries
WHERE court_id = ? AND promoted_at IS NULL
ORDER BY joined_at, seq
LIMIT ?
`

type ListWaitingEntriesParams struct {
	CourtID string
	Limit   int64
}

// ListWaitingEntries scans every queue of the court, not only the latest one.
func (q *Queries) ListWaitingEntries(ctx context.Context, arg ListWaitingEntriesParams) ([]GotNextEntry, error) {
	return q.listEntries(ctx, listWaitingEntries, arg.CourtID, arg.Limit)
}

const reassignEntry = `
UPDATE got_next_entries
SET queue_id = ?, notified = 0, promoted_at = ?
WHERE id = ?
  AND queue_id = ?
  AND promoted_at IS NULL
`

type ReassignEntryParams struct {
	ID          string
	FromQueueID string
	ToQueueID   string
	PromotedAt  time.Time
}

// ReassignEntry is a no-op when the entry has already left FromQueueID.
func (q *Queries) ReassignEntry(ctx context.Context, arg ReassignEntryParams) (int64, error) {
	result, err := q.db.ExecContext(ctx, reassignEntry,
		arg.ToQueueID,
		toNanos(arg.PromotedAt),
		arg.ID,
		arg.FromQueueID,
	)
	if err != nil {
		return 0, err
	}
	return result.RowsAffected()
}

const listPendingNotifications = `
SELECT ` + gotNextEntryColumns + `
FROM got_next_entries
WHERE promoted_at IS NOT NULL AND notified = 0
ORDER BY promoted_at, joined_at, seq
LIMIT ?
`

func (q *Queries) ListPendingNotifications(ctx context.Context, limit int64) ([]GotNextEntry, error) {
	return q.listEntries(ctx, listPendingNotifications, limit)
}

const markEntryNotified = `
UPDATE got_next_entries
SET notified = 1
WHERE id = ? AND queue_id = ? AND notified = 0
`

type MarkEntryNotifiedParams struct {
	ID      string
	QueueID string
}

func (q *Queries) MarkEntryNotified(ctx context.Context, arg MarkEntryNotifiedParams) (int64, error) {
	result, err := q.db.ExecContext(ctx, markEntryNotified, arg.ID, arg.QueueID)
	if err != nil {
		return 0, err
	}
	return result.RowsAffected()
}

func (q *Queries) listEntries(ctx context.Context, query string, args ...interface{}) ([]GotNextEntry, error) {
	rows, err := q.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var items []GotNextEntry
	for rows.Next() {
		i, err := scanEntry(rows)
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

func scanQueue(row scanner) (GotNextQueue, error) {
	var i GotNextQueue
	var createdAt, active int64
	var deactivatedAt sql.NullInt64
	err := row.Scan(&i.ID, &i.CourtID, &createdAt, &active, &deactivatedAt)
	i.CreatedAt = fromNanos(createdAt)
	i.Active = active != 0
	i.DeactivatedAt = fromNullNanos(deactivatedAt)
	return i, err
}

func scanEntry(row scanner) (GotNextEntry, error) {
	var i GotNextEntry
	var joinedAt, notified int64
	var promotedAt sql.NullInt64
	err := row.Scan(&i.Seq, &i.ID, &i.QueueID, &i.CourtID, &i.ParticipantID, &joinedAt, &notified, &promotedAt)
	i.JoinedAt = fromNanos(joinedAt)
	i.Notified = notified != 0
	i.PromotedAt = fromNullNanos(promotedAt)
	return i, err
}
