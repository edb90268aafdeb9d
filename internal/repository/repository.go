// Package repository declares the storage interfaces the service layer
// depends on. The sqlite subpackage is the production implementation; tests
// substitute in-memory mocks.
package repository

import (
	"context"

	"github.com/kalendar-app/kalendar/internal/dates"
	"github.com/kalendar-app/kalendar/internal/model"
)

// EventFilter narrows a ListEvents query. A nil Range means no date filter —
// all of the owner's events.
type EventFilter struct {
	Range *dates.Range
}

// EventPatch is a partial update. A nil field is left untouched; a non-nil
// field overwrites, which makes a present-but-empty description a real
// overwrite rather than a no-op. A non-nil empty Time clears the
// time-of-day.
type EventPatch struct {
	Title       *string
	Description *string
	Date        *string
	Time        *string
	Color       *string
}

// UserRepository owns User records. Usernames and emails are unique across
// all users; violating either on create fails with apperror.ErrConflict.
// DeleteUser cascades to every event the user owns.
type UserRepository interface {
	CreateUser(ctx context.Context, user *model.User) error
	GetUserByID(ctx context.Context, id int64) (*model.User, error)
	GetUserByUsername(ctx context.Context, username string) (*model.User, error)
	ListUsers(ctx context.Context) ([]model.User, error)
	DeleteUser(ctx context.Context, id int64) error
}

// EventRepository owns Event records, scoped by owner.
//
// ListEvents orders by date ascending with insertion order as the stable
// tiebreak. UpdateEvent and DeleteEvent fail with apperror.ErrNotFound for
// unknown ids — a second delete of the same id is an error, not a no-op.
// Every mutation is atomic: fully applied or fully rejected.
type EventRepository interface {
	CreateEvent(ctx context.Context, event *model.Event) error
	GetEventByID(ctx context.Context, id int64) (*model.Event, error)
	ListEvents(ctx context.Context, ownerID int64, filter EventFilter) ([]model.Event, error)
	UpdateEvent(ctx context.Context, id int64, patch EventPatch) (*model.Event, error)
	DeleteEvent(ctx context.Context, id int64) error
}
