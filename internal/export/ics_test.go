package export

import (
	"bytes"
	"strings"
	"testing"

	"github.com/emersion/go-ical"

	"schedsync/internal/models"
)

var organizer = models.User{ID: "user-a", Email: "alice@example.com", Name: "Alice"}

func TestWriteICS(t *testing.T) {
	activities := []models.Activity{
		{
			ID:        "act-1",
			Title:     "Quarterly review",
			StartTime: 1700000000,
			EndTime:   1700003600,
			MeetingTargets: []models.MeetingTarget{
				{Name: "Bob", Email: "bob@example.com"},
				{Name: "No mail yet"},
			},
			Description: "Numbers and next steps",
		},
		{ID: "act-2", Title: "Standup", StartTime: 1700090000, EndTime: 1700090900},
	}

	var buf bytes.Buffer
	if err := WriteICS(&buf, activities, organizer); err != nil {
		t.Fatalf("WriteICS failed: %v", err)
	}
	out := buf.String()

	for _, want := range []string{
		"BEGIN:VCALENDAR",
		"BEGIN:VEVENT",
		"UID:act-1",
		"SUMMARY:Quarterly review",
		"ORGANIZER:mailto:alice@example.com",
		"ATTENDEE:mailto:bob@example.com",
		"SUMMARY:Standup",
		"END:VCALENDAR",
	} {
		if !strings.Contains(out, want) {
			t.Errorf("output missing %q", want)
		}
	}
	// A target without an email address must not become an attendee.
	if got := strings.Count(out, "ATTENDEE"); got != 1 {
		t.Errorf("got %d attendees, want 1", got)
	}
	// ORGANIZER and ATTENDEE carry CAL-ADDRESS values and must not be
	// emitted with a VALUE=TEXT parameter.
	for _, stray := range []string{"ORGANIZER;", "ATTENDEE;"} {
		if strings.Contains(out, stray) {
			t.Errorf("output carries unexpected parameters on %q", stray)
		}
	}
}

func TestWriteICSRoundTrip(t *testing.T) {
	activities := []models.Activity{
		{ID: "act-1", Title: "Planning", StartTime: 1700000000, EndTime: 1700003600},
	}

	var buf bytes.Buffer
	if err := WriteICS(&buf, activities, organizer); err != nil {
		t.Fatalf("WriteICS failed: %v", err)
	}

	cal, err := ical.NewDecoder(&buf).Decode()
	if err != nil {
		t.Fatalf("decoding exported calendar: %v", err)
	}
	events := cal.Events()
	if len(events) != 1 {
		t.Fatalf("got %d events, want 1", len(events))
	}
	summary, err := events[0].Props.Text(ical.PropSummary)
	if err != nil {
		t.Fatalf("reading summary: %v", err)
	}
	if summary != "Planning" {
		t.Fatalf("got summary %q, want Planning", summary)
	}
	start, err := events[0].DateTimeStart(nil)
	if err != nil {
		t.Fatalf("reading start time: %v", err)
	}
	if start.Unix() != 1700000000 {
		t.Fatalf("got start %d, want 1700000000", start.Unix())
	}
}

func TestCalendarAssignsUIDWhenMissing(t *testing.T) {
	cal := Calendar([]models.Activity{{Title: "Draft", StartTime: 1, EndTime: 2}}, organizer)
	events := cal.Events()
	if len(events) != 1 {
		t.Fatalf("got %d events, want 1", len(events))
	}
	uid, err := events[0].Props.Text(ical.PropUID)
	if err != nil {
		t.Fatalf("reading uid: %v", err)
	}
	if uid == "" {
		t.Fatal("expected a generated uid")
	}
}
