package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/kalendar-app/kalendar/internal/apperror"
	"github.com/kalendar-app/kalendar/internal/model"
	"github.com/kalendar-app/kalendar/internal/repository"
)

// compile-time check that *DB implements repository.EventRepository
var _ repository.EventRepository = (*DB)(nil)

// CreateEvent inserts a new event for event.UserID.
//
// The owner-existence check and the insert share a transaction: the owner
// cannot disappear between the check and the write. A missing owner is
// NotFound — the service layer has already authorized the caller, so the
// only way to get here with an unknown owner is a stale id.
func (db *DB) CreateEvent(ctx context.Context, event *model.Event) error {
	tx, err := db.conn.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("sqlite: beginning transaction: %w", err)
	}
	defer tx.Rollback()

	var ownerExists bool
	err = tx.QueryRowContext(ctx,
		`SELECT EXISTS(SELECT 1 FROM users WHERE id = ?)`, event.UserID,
	).Scan(&ownerExists)
	if err != nil {
		return fmt.Errorf("sqlite: checking owner %d: %w", event.UserID, err)
	}
	if !ownerExists {
		return apperror.NotFound("user", event.UserID)
	}

	now := time.Now().UTC()
	event.CreatedAt = now
	event.UpdatedAt = now

	res, err := tx.ExecContext(ctx,
		`INSERT INTO events (title, description, event_date, event_time, color,
		                     user_id, created_by, created_at, updated_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		event.Title,
		event.Description,
		event.Date,
		nullString(event.Time),
		event.Color,
		event.UserID,
		nullInt(event.CreatedBy),
		event.CreatedAt,
		event.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("sqlite: inserting event for user %d: %w", event.UserID, err)
	}

	id, err := res.LastInsertId()
	if err != nil {
		return fmt.Errorf("sqlite: reading event id: %w", err)
	}
	event.ID = id

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("sqlite: committing event insert: %w", err)
	}
	return nil
}

// GetEventByID retrieves a single event.
// Returns apperror.ErrNotFound if the id is unknown.
func (db *DB) GetEventByID(ctx context.Context, id int64) (*model.Event, error) {
	row := db.conn.QueryRowContext(ctx,
		`SELECT id, title, description, event_date, event_time, color,
		        user_id, created_by, created_at, updated_at
		 FROM events WHERE id = ?`, id)

	event, err := scanEvent(row.Scan)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, apperror.NotFound("event", id)
		}
		return nil, fmt.Errorf("sqlite: getting event %d: %w", id, err)
	}
	return event, nil
}

// ListEvents returns the owner's events, date ascending. The id tiebreak
// keeps same-day events in insertion order, so the listing is stable across
// calls. With a range filter, only events in [StartDate, EndDate) qualify —
// the TEXT comparison is correct because both sides are zero-padded ISO
// dates.
func (db *DB) ListEvents(ctx context.Context, ownerID int64, filter repository.EventFilter) ([]model.Event, error) {
	query := `SELECT id, title, description, event_date, event_time, color,
	                 user_id, created_by, created_at, updated_at
	          FROM events WHERE user_id = ?`
	args := []any{ownerID}

	if filter.Range != nil {
		query += ` AND event_date >= ? AND event_date < ?`
		args = append(args, filter.Range.StartDate, filter.Range.EndDate)
	}
	query += ` ORDER BY event_date ASC, id ASC`

	rows, err := db.conn.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("sqlite: listing events for user %d: %w", ownerID, err)
	}
	defer rows.Close()

	events := []model.Event{}
	for rows.Next() {
		event, err := scanEvent(rows.Scan)
		if err != nil {
			return nil, fmt.Errorf("sqlite: scanning event row: %w", err)
		}
		events = append(events, *event)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("sqlite: iterating events: %w", err)
	}

	return events, nil
}

// UpdateEvent applies a partial update and returns the updated event.
//
// Read-modify-write runs in one transaction so two concurrent updates
// serialize instead of interleaving field-by-field. Only non-nil patch
// fields overwrite; updated_at is bumped on every successful write.
func (db *DB) UpdateEvent(ctx context.Context, id int64, patch repository.EventPatch) (*model.Event, error) {
	tx, err := db.conn.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("sqlite: beginning transaction: %w", err)
	}
	defer tx.Rollback()

	row := tx.QueryRowContext(ctx,
		`SELECT id, title, description, event_date, event_time, color,
		        user_id, created_by, created_at, updated_at
		 FROM events WHERE id = ?`, id)

	event, err := scanEvent(row.Scan)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, apperror.NotFound("event", id)
		}
		return nil, fmt.Errorf("sqlite: getting event %d: %w", id, err)
	}

	if patch.Title != nil {
		event.Title = *patch.Title
	}
	if patch.Description != nil {
		event.Description = *patch.Description
	}
	if patch.Date != nil {
		event.Date = *patch.Date
	}
	if patch.Time != nil {
		if *patch.Time == "" {
			event.Time = nil
		} else {
			t := *patch.Time
			event.Time = &t
		}
	}
	if patch.Color != nil {
		event.Color = *patch.Color
	}
	event.UpdatedAt = time.Now().UTC()

	_, err = tx.ExecContext(ctx,
		`UPDATE events
		 SET title = ?, description = ?, event_date = ?, event_time = ?,
		     color = ?, updated_at = ?
		 WHERE id = ?`,
		event.Title,
		event.Description,
		event.Date,
		nullString(event.Time),
		event.Color,
		event.UpdatedAt,
		event.ID,
	)
	if err != nil {
		return nil, fmt.Errorf("sqlite: updating event %d: %w", id, err)
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("sqlite: committing event update: %w", err)
	}
	return event, nil
}

// DeleteEvent removes an event. A second delete of the same id fails with
// NotFound — the RowsAffected check makes deletion deliberately not
// idempotent.
func (db *DB) DeleteEvent(ctx context.Context, id int64) error {
	result, err := db.conn.ExecContext(ctx, `DELETE FROM events WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("sqlite: deleting event %d: %w", id, err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("sqlite: checking rows affected: %w", err)
	}
	if rowsAffected == 0 {
		return apperror.NotFound("event", id)
	}

	return nil
}

// scanEvent reads one event row. It accepts the Scan func so the same code
// serves sql.Row and sql.Rows.
func scanEvent(scan func(...any) error) (*model.Event, error) {
	var (
		e         model.Event
		eventTime sql.NullString
		createdBy sql.NullInt64
	)
	err := scan(
		&e.ID, &e.Title, &e.Description, &e.Date, &eventTime, &e.Color,
		&e.UserID, &createdBy, &e.CreatedAt, &e.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	if eventTime.Valid {
		e.Time = &eventTime.String
	}
	if createdBy.Valid {
		e.CreatedBy = &createdBy.Int64
	}
	return &e, nil
}

func nullString(s *string) any {
	if s == nil {
		return nil
	}
	return *s
}

func nullInt(i *int64) any {
	if i == nil {
		return nil
	}
	return *i
}
