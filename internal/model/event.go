package model

import "time"

// DefaultEventColor is applied when a create request carries no color.
const DefaultEventColor = "#3b82f6"

// Wire formats for the calendar fields. Dates are plain calendar dates and
// times are wall-clock times — neither carries a time zone.
const (
	DateLayout      = "2006-01-02"
	TimeInputLayout = "15:04"
	TimeLayout      = "15:04:05"
)

// Event is a single entry on a user's calendar.
//
// UserID is the owner — the calendar the event appears on. CreatedBy records
// who performed the creation; the two differ when an admin creates an event
// on another user's behalf. CreatedBy serializes as null once the creating
// account has been deleted.
//
// Date holds a DateLayout string and Time, when non-nil, a TimeLayout string.
// They stay strings end to end: the JSON shape, the TEXT columns, and the
// validation layer all speak the same normalized form, and ISO dates compare
// correctly as text (which is what the range queries rely on).
type Event struct {
	ID          int64     `json:"id"`
	Title       string    `json:"title"`
	Description string    `json:"description"`
	Date        string    `json:"date"`
	Time        *string   `json:"time"`
	Color       string    `json:"color"`
	UserID      int64     `json:"userId"`
	CreatedBy   *int64    `json:"createdBy"`
	CreatedAt   time.Time `json:"createdAt"`
	UpdatedAt   time.Time `json:"updatedAt"`
}
