// Package icsexport renders events as an iCalendar feed.
package icsexport

import (
	"fmt"
	"io"
	"time"

	"github.com/emersion/go-ical"

	"github.com/starford/jobtrail/internal/activity"
	"github.com/starford/jobtrail/internal/models"
)

// ProductID identifies the producer in exported calendars.
const ProductID = "-//jobtrail//EN"

// TimedDuration is the length given to events with a known time.
const TimedDuration = time.Hour

// Calendar builds a VCALENDAR with one VEVENT per event. Events without a
// time become all-day entries; events whose timestamp cannot be parsed are
// skipped.
func Calendar(events []models.Event, loc *time.Location, stamp time.Time) *ical.Calendar {
	cal := ical.NewCalendar()
	cal.Props.SetText(ical.PropVersion, "2.0")
	cal.Props.SetText(ical.PropProductID, ProductID)
	cal.Props.SetText("X-WR-CALNAME", "jobtrail")

	for _, ev := range events {
		ve, ok := toICal(ev, loc, stamp)
		if !ok {
			continue
		}
		cal.Children = append(cal.Children, ve)
	}
	return cal
}

// Encode writes the calendar for events to w.
func Encode(w io.Writer, events []models.Event, loc *time.Location) error {
	cal := Calendar(events, loc, time.Now())
	if err := ical.NewEncoder(w).Encode(cal); err != nil {
		return fmt.Errorf("icsexport: encode: %w", err)
	}
	return nil
}

// UID returns the stable identifier of an exported event.
func UID(ev models.Event) string {
	return ev.ID + "@jobtrail"
}

func toICal(ev models.Event, loc *time.Location, stamp time.Time) (*ical.Component, bool) {
	ve := ical.NewComponent(ical.CompEvent)
	ve.Props.SetText(ical.PropUID, UID(ev))
	ve.Props.SetDateTime(ical.PropDateTimeStamp, stamp.UTC())
	ve.Props.SetText(ical.PropSummary, fmt.Sprintf("%s: %s", ev.Kind.Label(), ev.Title))
	ve.Props.SetText(ical.PropCategories, string(ev.Kind))

	if ev.Time != "" {
		start, ok := activity.ParseTimestamp(activity.EffectiveTimestamp(ev, activity.StartOfDay), loc)
		if !ok {
			return nil, false
		}
		ve.Props.SetDateTime(ical.PropDateTimeStart, start.UTC())
		ve.Props.SetDateTime(ical.PropDateTimeEnd, start.Add(TimedDuration).UTC())
	} else {
		day, err := time.Parse(time.DateOnly, ev.Date)
		if err != nil {
			return nil, false
		}
		ve.Props.SetDate(ical.PropDateTimeStart, day)
		ve.Props.SetDate(ical.PropDateTimeEnd, day.AddDate(0, 0, 1))
	}

	if ev.Subtitle != "" {
		ve.Props.SetText(ical.PropDescription, ev.Subtitle)
	}
	if ev.Location != "" {
		ve.Props.SetText(ical.PropLocation, ev.Location)
	}
	return ve, true
}
