package service

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/kalendar-app/kalendar/internal/apperror"
	"github.com/kalendar-app/kalendar/internal/dates"
	"github.com/kalendar-app/kalendar/internal/ics"
	"github.com/kalendar-app/kalendar/internal/model"
	"github.com/kalendar-app/kalendar/internal/policy"
	"github.com/kalendar-app/kalendar/internal/repository"
)

// MaxTitleLength mirrors the events table's title column size.
const MaxTitleLength = 200

// EventService handles the calendar-event business logic: validation, the
// access policy, the date-range planner, and the export serializer all meet
// here.
type EventService struct {
	events repository.EventRepository
	logger *slog.Logger
}

// NewEventService creates an EventService.
func NewEventService(events repository.EventRepository, logger *slog.Logger) *EventService {
	return &EventService{events: events, logger: logger}
}

// CreateEventInput carries the fields of a create request. UserID targets
// another user's calendar (admin acting on their behalf); zero means the
// actor's own calendar. Time and Color are optional.
type CreateEventInput struct {
	Title       string
	Description string
	Date        string
	Time        string
	Color       string
	UserID      int64
}

// UpdateEventInput is a partial update: nil fields are left alone. A present
// empty Description overwrites; a present empty Time clears the
// time-of-day.
type UpdateEventInput struct {
	Title       *string
	Description *string
	Date        *string
	Time        *string
	Color       *string
}

// List returns events on one calendar, date ascending.
//
// targetUserID selects whose calendar (zero = the actor's own); the policy
// denies non-admins anyone else's. year/month scope the listing to a single
// month — both must be present, otherwise no date filter applies at all.
func (s *EventService) List(ctx context.Context, actor policy.Identity, targetUserID int64, year, month int) ([]model.Event, error) {
	ownerID := targetUserID
	if ownerID == 0 {
		ownerID = actor.UserID
	}

	if err := authorize(actor, policy.ActionReadEvents, policy.EventTarget(ownerID)); err != nil {
		return nil, err
	}

	filter := repository.EventFilter{}
	if r, ok := dates.MonthRange(year, month); ok {
		filter.Range = &r
	}

	events, err := s.events.ListEvents(ctx, ownerID, filter)
	if err != nil {
		return nil, fmt.Errorf("listing events for user %d: %w", ownerID, err)
	}
	return events, nil
}

// Create validates and stores a new event.
//
// The owner is the target calendar; the creator is always the actor. All
// validation failures surface before any persistence write.
func (s *EventService) Create(ctx context.Context, actor policy.Identity, in CreateEventInput) (*model.Event, error) {
	ownerID := in.UserID
	if ownerID == 0 {
		ownerID = actor.UserID
	}

	if err := authorize(actor, policy.ActionCreateEvent, policy.EventTarget(ownerID)); err != nil {
		return nil, err
	}

	title := strings.TrimSpace(in.Title)
	if title == "" {
		return nil, apperror.ValidationFailed("title", "title is required")
	}
	if len(title) > MaxTitleLength {
		return nil, apperror.ValidationFailed("title",
			fmt.Sprintf("title must be %d characters or less", MaxTitleLength))
	}

	date, err := normalizeDate(in.Date)
	if err != nil {
		return nil, err
	}

	var eventTime *string
	if in.Time != "" {
		t, err := normalizeTime(in.Time)
		if err != nil {
			return nil, err
		}
		eventTime = &t
	}

	color := in.Color
	if color == "" {
		color = model.DefaultEventColor
	}

	creator := actor.UserID
	event := &model.Event{
		Title:       title,
		Description: in.Description,
		Date:        date,
		Time:        eventTime,
		Color:       color,
		UserID:      ownerID,
		CreatedBy:   &creator,
	}

	if err := s.events.CreateEvent(ctx, event); err != nil {
		return nil, err
	}

	s.logger.Info("event created",
		slog.Int64("eventID", event.ID),
		slog.Int64("ownerID", event.UserID),
		slog.Int64("createdBy", actor.UserID),
	)

	return event, nil
}

// Update applies a partial update to an event the actor may modify.
//
// The event is fetched first: an unknown id is NotFound regardless of who
// asks, and the policy check runs against the real owner. Fields absent from
// the input stay untouched; updatedAt is bumped on success.
func (s *EventService) Update(ctx context.Context, actor policy.Identity, id int64, in UpdateEventInput) (*model.Event, error) {
	event, err := s.events.GetEventByID(ctx, id)
	if err != nil {
		return nil, err
	}

	if err := authorize(actor, policy.ActionUpdateEvent, policy.EventTarget(event.UserID)); err != nil {
		return nil, err
	}

	patch := repository.EventPatch{
		Description: in.Description,
		Time:        in.Time,
		Color:       in.Color,
	}

	if in.Title != nil {
		title := strings.TrimSpace(*in.Title)
		if title == "" {
			return nil, apperror.ValidationFailed("title", "title must not be empty")
		}
		if len(title) > MaxTitleLength {
			return nil, apperror.ValidationFailed("title",
				fmt.Sprintf("title must be %d characters or less", MaxTitleLength))
		}
		patch.Title = &title
	}
	if in.Date != nil {
		date, err := normalizeDate(*in.Date)
		if err != nil {
			return nil, err
		}
		patch.Date = &date
	}
	if in.Time != nil && *in.Time != "" {
		t, err := normalizeTime(*in.Time)
		if err != nil {
			return nil, err
		}
		patch.Time = &t
	}

	updated, err := s.events.UpdateEvent(ctx, id, patch)
	if err != nil {
		return nil, err
	}

	s.logger.Info("event updated",
		slog.Int64("eventID", id),
		slog.Int64("updatedBy", actor.UserID),
	)

	return updated, nil
}

// Delete removes an event the actor may delete. Deleting an already-deleted
// id fails with NotFound.
func (s *EventService) Delete(ctx context.Context, actor policy.Identity, id int64) error {
	event, err := s.events.GetEventByID(ctx, id)
	if err != nil {
		return err
	}

	if err := authorize(actor, policy.ActionDeleteEvent, policy.EventTarget(event.UserID)); err != nil {
		return err
	}

	if err := s.events.DeleteEvent(ctx, id); err != nil {
		return err
	}

	s.logger.Info("event deleted",
		slog.Int64("eventID", id),
		slog.Int64("deletedBy", actor.UserID),
	)
	return nil
}

// Export renders one calendar as an iCalendar document, with the same
// scoping and month filter as List. Events render in date order.
func (s *EventService) Export(ctx context.Context, actor policy.Identity, targetUserID int64, year, month int) ([]byte, error) {
	ownerID := targetUserID
	if ownerID == 0 {
		ownerID = actor.UserID
	}

	if err := authorize(actor, policy.ActionExportEvents, policy.EventTarget(ownerID)); err != nil {
		return nil, err
	}

	filter := repository.EventFilter{}
	if r, ok := dates.MonthRange(year, month); ok {
		filter.Range = &r
	}

	events, err := s.events.ListEvents(ctx, ownerID, filter)
	if err != nil {
		return nil, fmt.Errorf("listing events for export (user %d): %w", ownerID, err)
	}

	doc, err := ics.Encode(events)
	if err != nil {
		return nil, fmt.Errorf("exporting events for user %d: %w", ownerID, err)
	}

	s.logger.Info("events exported",
		slog.Int64("ownerID", ownerID),
		slog.Int("count", len(events)),
	)

	return doc, nil
}

// normalizeDate parses a calendar date and returns it in canonical
// YYYY-MM-DD form.
func normalizeDate(s string) (string, error) {
	t, err := time.Parse(model.DateLayout, s)
	if err != nil {
		return "", apperror.ValidationFailed("date", "invalid date format, expected YYYY-MM-DD")
	}
	return t.Format(model.DateLayout), nil
}

// normalizeTime parses a wall-clock time, accepting HH:MM and HH:MM:SS, and
// returns the canonical HH:MM:SS form. Accepting the canonical form on input
// lets clients round-trip the values they read back.
func normalizeTime(s string) (string, error) {
	for _, layout := range []string{model.TimeInputLayout, model.TimeLayout} {
		if t, err := time.Parse(layout, s); err == nil {
			return t.Format(model.TimeLayout), nil
		}
	}
	return "", apperror.ValidationFailed("time", "invalid time format, expected HH:MM")
}
