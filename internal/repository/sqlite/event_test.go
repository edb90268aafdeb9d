package sqlite

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/kalendar-app/kalendar/internal/apperror"
	"github.com/kalendar-app/kalendar/internal/dates"
	"github.com/kalendar-app/kalendar/internal/model"
	"github.com/kalendar-app/kalendar/internal/repository"
)

func createTestEvent(t *testing.T, db *DB, ownerID int64, title, date string) *model.Event {
	t.Helper()
	event := &model.Event{
		Title:  title,
		Date:   date,
		Color:  model.DefaultEventColor,
		UserID: ownerID,
	}
	if err := db.CreateEvent(context.Background(), event); err != nil {
		t.Fatalf("failed to create test event: %v", err)
	}
	return event
}

func strPtr(s string) *string { return &s }

func TestCreateEvent(t *testing.T) {
	db := newTestDB(t)
	owner := createTestUser(t, db, "alice", "alice@example.com")

	eventTime := "09:30:00"
	event := &model.Event{
		Title:       "standup",
		Description: "daily sync",
		Date:        "2024-06-15",
		Time:        &eventTime,
		Color:       "#ff0000",
		UserID:      owner.ID,
		CreatedBy:   &owner.ID,
	}
	if err := db.CreateEvent(context.Background(), event); err != nil {
		t.Fatalf("CreateEvent() error = %v", err)
	}

	if event.ID == 0 {
		t.Error("CreateEvent() did not set event.ID")
	}
	if event.CreatedAt.IsZero() || event.UpdatedAt.IsZero() {
		t.Error("CreateEvent() did not set timestamps")
	}

	found, err := db.GetEventByID(context.Background(), event.ID)
	if err != nil {
		t.Fatalf("GetEventByID() error = %v", err)
	}
	if found.Title != "standup" || found.Date != "2024-06-15" {
		t.Errorf("persisted event = %+v", found)
	}
	if found.Time == nil || *found.Time != "09:30:00" {
		t.Errorf("Time = %v, want 09:30:00", found.Time)
	}
	if found.CreatedBy == nil || *found.CreatedBy != owner.ID {
		t.Errorf("CreatedBy = %v, want %d", found.CreatedBy, owner.ID)
	}
}

func TestCreateEvent_UnknownOwner(t *testing.T) {
	db := newTestDB(t)

	event := &model.Event{
		Title:  "orphan",
		Date:   "2024-06-15",
		Color:  model.DefaultEventColor,
		UserID: 999,
	}
	err := db.CreateEvent(context.Background(), event)
	if !errors.Is(err, apperror.ErrNotFound) {
		t.Errorf("CreateEvent(unknown owner) error = %v, want ErrNotFound", err)
	}
}

func TestListEvents_Ordering(t *testing.T) {
	db := newTestDB(t)
	owner := createTestUser(t, db, "alice", "alice@example.com")

	// Insert out of date order; two events share a date.
	createTestEvent(t, db, owner.ID, "third", "2024-06-20")
	first := createTestEvent(t, db, owner.ID, "first", "2024-06-01")
	second := createTestEvent(t, db, owner.ID, "second", "2024-06-01")

	events, err := db.ListEvents(context.Background(), owner.ID, repository.EventFilter{})
	if err != nil {
		t.Fatalf("ListEvents() error = %v", err)
	}
	if len(events) != 3 {
		t.Fatalf("len(events) = %d, want 3", len(events))
	}

	// Date ascending, insertion order within a day.
	if events[0].ID != first.ID || events[1].ID != second.ID {
		t.Errorf("same-day events out of insertion order: got ids %d, %d",
			events[0].ID, events[1].ID)
	}
	if events[2].Title != "third" {
		t.Errorf("events[2].Title = %q, want %q", events[2].Title, "third")
	}
}

func TestListEvents_MonthFilter(t *testing.T) {
	db := newTestDB(t)
	owner := createTestUser(t, db, "alice", "alice@example.com")

	createTestEvent(t, db, owner.ID, "may", "2024-05-31")
	inJune := createTestEvent(t, db, owner.ID, "june", "2024-06-15")
	createTestEvent(t, db, owner.ID, "july", "2024-07-01")

	r, ok := dates.MonthRange(2024, 6)
	if !ok {
		t.Fatal("MonthRange(2024, 6) not ok")
	}
	events, err := db.ListEvents(context.Background(), owner.ID, repository.EventFilter{Range: &r})
	if err != nil {
		t.Fatalf("ListEvents() error = %v", err)
	}
	if len(events) != 1 || events[0].ID != inJune.ID {
		t.Errorf("month filter returned %d events, want only the June one", len(events))
	}
}

func TestListEvents_ScopedToOwner(t *testing.T) {
	db := newTestDB(t)
	alice := createTestUser(t, db, "alice", "alice@example.com")
	bob := createTestUser(t, db, "bob", "bob@example.com")

	createTestEvent(t, db, alice.ID, "alice event", "2024-06-01")
	createTestEvent(t, db, bob.ID, "bob event", "2024-06-01")

	events, err := db.ListEvents(context.Background(), alice.ID, repository.EventFilter{})
	if err != nil {
		t.Fatalf("ListEvents() error = %v", err)
	}
	if len(events) != 1 || events[0].Title != "alice event" {
		t.Errorf("ListEvents leaked another calendar: %+v", events)
	}
}

func TestUpdateEvent_PartialPatch(t *testing.T) {
	db := newTestDB(t)
	owner := createTestUser(t, db, "alice", "alice@example.com")
	event := createTestEvent(t, db, owner.ID, "original", "2024-06-15")
	before := event.UpdatedAt

	// updated_at has millisecond-level resolution in practice; make sure the
	// bump is observable.
	time.Sleep(5 * time.Millisecond)

	updated, err := db.UpdateEvent(context.Background(), event.ID, repository.EventPatch{
		Color: strPtr("#00ff00"),
	})
	if err != nil {
		t.Fatalf("UpdateEvent() error = %v", err)
	}

	if updated.Color != "#00ff00" {
		t.Errorf("Color = %q, want %q", updated.Color, "#00ff00")
	}
	// Unpatched fields survive.
	if updated.Title != "original" || updated.Date != "2024-06-15" {
		t.Errorf("partial patch clobbered other fields: %+v", updated)
	}
	if !updated.UpdatedAt.After(before) {
		t.Errorf("UpdatedAt not bumped: %v <= %v", updated.UpdatedAt, before)
	}
}

func TestUpdateEvent_ClearTime(t *testing.T) {
	db := newTestDB(t)
	owner := createTestUser(t, db, "alice", "alice@example.com")

	eventTime := "14:00:00"
	event := &model.Event{
		Title:  "timed",
		Date:   "2024-06-15",
		Time:   &eventTime,
		Color:  model.DefaultEventColor,
		UserID: owner.ID,
	}
	if err := db.CreateEvent(context.Background(), event); err != nil {
		t.Fatalf("CreateEvent() error = %v", err)
	}

	// Empty string clears the time; the event becomes all-day.
	updated, err := db.UpdateEvent(context.Background(), event.ID, repository.EventPatch{
		Time: strPtr(""),
	})
	if err != nil {
		t.Fatalf("UpdateEvent() error = %v", err)
	}
	if updated.Time != nil {
		t.Errorf("Time = %q, want nil", *updated.Time)
	}

	found, err := db.GetEventByID(context.Background(), event.ID)
	if err != nil {
		t.Fatalf("GetEventByID() error = %v", err)
	}
	if found.Time != nil {
		t.Errorf("persisted Time = %q, want nil", *found.Time)
	}
}

func TestUpdateEvent_NotFound(t *testing.T) {
	db := newTestDB(t)

	_, err := db.UpdateEvent(context.Background(), 999, repository.EventPatch{
		Title: strPtr("nope"),
	})
	if !errors.Is(err, apperror.ErrNotFound) {
		t.Errorf("UpdateEvent(unknown) error = %v, want ErrNotFound", err)
	}
}

func TestDeleteEvent(t *testing.T) {
	db := newTestDB(t)
	owner := createTestUser(t, db, "alice", "alice@example.com")
	event := createTestEvent(t, db, owner.ID, "doomed", "2024-06-15")

	if err := db.DeleteEvent(context.Background(), event.ID); err != nil {
		t.Fatalf("DeleteEvent() error = %v", err)
	}

	if _, err := db.GetEventByID(context.Background(), event.ID); !errors.Is(err, apperror.ErrNotFound) {
		t.Errorf("GetEventByID(deleted) error = %v, want ErrNotFound", err)
	}

	// Not idempotent: the second delete reports the missing row.
	if err := db.DeleteEvent(context.Background(), event.ID); !errors.Is(err, apperror.ErrNotFound) {
		t.Errorf("second DeleteEvent() error = %v, want ErrNotFound", err)
	}
}
