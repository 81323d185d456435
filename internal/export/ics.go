// Package export renders cached activities to the iCalendar format.
package export

import (
	"fmt"
	"io"
	"time"

	"github.com/emersion/go-ical"
	"github.com/google/uuid"

	"schedsync/internal/models"
)

// Calendar builds a VCALENDAR holding one VEVENT per activity. The
// activity id doubles as the iCalendar UID so repeated exports stay stable;
// an activity without an id gets a fresh one.
func Calendar(activities []models.Activity, organizer models.User) *ical.Calendar {
	cal := ical.NewCalendar()
	cal.Props.SetText(ical.PropVersion, "2.0")
	cal.Props.SetText(ical.PropProductID, "-//schedsync//EN")

	for _, a := range activities {
		cal.Children = append(cal.Children, toVEvent(a, organizer))
	}
	return cal
}

func toVEvent(a models.Activity, organizer models.User) *ical.Component {
	ve := ical.NewComponent(ical.CompEvent)

	uid := a.ID
	if uid == "" {
		uid = uuid.New().String()
	}
	ve.Props.SetText(ical.PropUID, uid)
	ve.Props.SetText(ical.PropSummary, a.Title)
	ve.Props.SetDateTime(ical.PropDateTimeStamp, time.Now().UTC())
	ve.Props.SetDateTime(ical.PropDateTimeStart, time.Unix(a.StartTime, 0).UTC())
	ve.Props.SetDateTime(ical.PropDateTimeEnd, time.Unix(a.EndTime, 0).UTC())

	if a.Description != "" {
		ve.Props.SetText(ical.PropDescription, a.Description)
	}
	if organizer.Email != "" {
		// ORGANIZER and ATTENDEE hold CAL-ADDRESS values, not TEXT, so the
		// value is assigned directly without a VALUE parameter.
		p := ical.NewProp(ical.PropOrganizer)
		p.Value = fmt.Sprintf("mailto:%s", organizer.Email)
		ve.Props.Add(p)
	}
	for _, target := range a.MeetingTargets {
		if target.Email == "" {
			continue
		}
		p := ical.NewProp(ical.PropAttendee)
		p.Value = fmt.Sprintf("mailto:%s", target.Email)
		ve.Props.Add(p)
	}
	return ve
}

// WriteICS encodes the activities as an iCalendar stream.
func WriteICS(w io.Writer, activities []models.Activity, organizer models.User) error {
	if err := ical.NewEncoder(w).Encode(Calendar(activities, organizer)); err != nil {
		return fmt.Errorf("failed to encode calendar: %w", err)
	}
	return nil
}
