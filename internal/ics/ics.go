// Package ics renders events into an iCalendar (RFC 5545) document for
// export to external calendar applications.
//
// The document is built with go-ical rather than string concatenation, so
// titles and descriptions containing commas, semicolons, or newlines are
// escaped and long lines folded per the format — free text can never corrupt
// the surrounding document.
package ics

import (
	"bytes"
	"fmt"

	"github.com/emersion/go-ical"

	"github.com/kalendar-app/kalendar/internal/model"
)

const (
	prodID = "-//Calendar App//EN"

	// uidDomain suffixes each event id into a globally unique, stable UID.
	uidDomain = "calendarapp.com"

	// noonPlaceholder stands in for DTSTAMP/DTSTART when the event has no
	// time-of-day. It is a deliberate placeholder, not a real start time:
	// consumers render the event on the right day without it floating to
	// midnight.
	noonPlaceholder = "120000"
)

// Encode renders events as a VCALENDAR document. Blocks appear in input
// order; callers pre-sort, normally by date.
func Encode(events []model.Event) ([]byte, error) {
	cal := ical.NewCalendar()
	cal.Props.SetText(ical.PropVersion, "2.0")
	cal.Props.SetText(ical.PropProductID, prodID)

	for i := range events {
		cal.Children = append(cal.Children, eventComponent(&events[i]))
	}

	var buf bytes.Buffer
	if err := ical.NewEncoder(&buf).Encode(cal); err != nil {
		return nil, fmt.Errorf("ics: encoding calendar: %w", err)
	}
	return buf.Bytes(), nil
}

func eventComponent(e *model.Event) *ical.Component {
	event := ical.NewEvent()
	event.Props.SetText(ical.PropUID, fmt.Sprintf("%d@%s", e.ID, uidDomain))

	// DTSTAMP and DTSTART both carry the event's own date and time in basic
	// format. They are set as raw props, not through SetText: a DATE-TIME
	// value takes no text escaping, and DATE-TIME is already the default
	// value type for both.
	stamp := timestamp(e)
	setRawProp(event.Props, ical.PropDateTimeStamp, stamp)
	setRawProp(event.Props, ical.PropDateTimeStart, stamp)

	event.Props.SetText(ical.PropSummary, e.Title)
	if e.Description != "" {
		event.Props.SetText(ical.PropDescription, e.Description)
	}

	return event.Component
}

// timestamp renders "YYYYMMDDTHHMMSSZ" from the event's normalized date and
// time strings, with noon as the placeholder for date-only events.
func timestamp(e *model.Event) string {
	date := stripRunes(e.Date, '-')
	tod := noonPlaceholder
	if e.Time != nil {
		tod = stripRunes(*e.Time, ':')
	}
	return date + "T" + tod + "Z"
}

func setRawProp(props ical.Props, name, value string) {
	prop := ical.NewProp(name)
	prop.Value = value
	props.Set(prop)
}

func stripRunes(s string, drop rune) string {
	out := make([]rune, 0, len(s))
	for _, r := range s {
		if r != drop {
			out = append(out, r)
		}
	}
	return string(out)
}
