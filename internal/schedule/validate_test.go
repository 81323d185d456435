package schedule

import (
	"errors"
	"testing"
	"time"

	"schedsync/internal/api"
	"schedsync/internal/models"
)

func TestStripTags(t *testing.T) {
	cases := []struct{ in, want string }{
		{"plain title", "plain title"},
		{"<script>alert(1)</script>team sync", "team sync"},
		{"launch <b>review</b>", "launch review"},
	}
	for _, tc := range cases {
		if got := StripTags(tc.in); got != tc.want {
			t.Fatalf("StripTags(%q) = %q, want %q", tc.in, got, tc.want)
		}
	}
}

func TestValidEmail(t *testing.T) {
	valid := []string{"alice@example.com", "bob.smith@mail.example.org"}
	invalid := []string{"", "not-an-email", "a@", "@example.com", "Alice <alice@example.com>"}

	for _, email := range valid {
		if !ValidEmail(email) {
			t.Fatalf("expected %q to be valid", email)
		}
	}
	for _, email := range invalid {
		if ValidEmail(email) {
			t.Fatalf("expected %q to be invalid", email)
		}
	}
}

func TestNormalizeTargets(t *testing.T) {
	input := []models.MeetingTarget{
		{Name: "  Alice ", Email: "alice@example.com"},
		{Name: "", Email: "ghost@example.com"},
		{Name: "Also Alice", Email: "alice@example.com"},
		{Name: "Bob"},
		{Name: "Carol", Email: "carol@example.com"},
		{Name: "Bob Again"},
	}

	got := NormalizeTargets(input)
	wantNames := []string{"Alice", "Bob", "Carol", "Bob Again"}
	if len(got) != len(wantNames) {
		t.Fatalf("expected %d targets, got %d: %+v", len(wantNames), len(got), got)
	}
	for i, name := range wantNames {
		if got[i].Name != name {
			t.Fatalf("position %d: got %q, want %q", i, got[i].Name, name)
		}
	}
	// The first occurrence of a duplicated email wins.
	if got[0].Email != "alice@example.com" {
		t.Fatalf("expected first alice entry kept, got %+v", got[0])
	}
	// The input is untouched.
	if input[0].Name != "  Alice " {
		t.Fatalf("input was mutated: %+v", input[0])
	}
}

func TestValidateDraft(t *testing.T) {
	now := time.Date(2026, time.June, 1, 12, 0, 0, 0, time.UTC)
	base := api.ActivityDraft{
		Title:     "Planning",
		StartTime: now.Add(time.Hour).Unix(),
		EndTime:   now.Add(2 * time.Hour).Unix(),
	}

	if err := ValidateDraft(base, now); err != nil {
		t.Fatalf("valid draft rejected: %v", err)
	}

	cases := []struct {
		name   string
		mutate func(*api.ActivityDraft)
		want   error
	}{
		{"blank title", func(d *api.ActivityDraft) { d.Title = "   " }, ErrTitleRequired},
		{"start after end", func(d *api.ActivityDraft) { d.StartTime, d.EndTime = d.EndTime, d.StartTime }, ErrBadTimeRange},
		{"in the past", func(d *api.ActivityDraft) {
			d.StartTime = now.Add(-2 * time.Hour).Unix()
			d.EndTime = now.Add(-time.Hour).Unix()
		}, ErrInPast},
		{"confirm without email", func(d *api.ActivityDraft) {
			d.SendConfirm = true
			d.MeetingTargets = []models.MeetingTarget{{Name: "Alice"}}
		}, ErrEmailRequired},
		{"illegal email", func(d *api.ActivityDraft) {
			d.MeetingTargets = []models.MeetingTarget{{Name: "Alice", Email: "nope"}}
		}, ErrInvalidEmail},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			draft := base
			tc.mutate(&draft)
			if err := ValidateDraft(draft, now); !errors.Is(err, tc.want) {
				t.Fatalf("got %v, want %v", err, tc.want)
			}
		})
	}
}

func TestValidateDraftIgnoresBlankNameTargets(t *testing.T) {
	now := time.Date(2026, time.June, 1, 12, 0, 0, 0, time.UTC)
	draft := api.ActivityDraft{
		Title:       "Planning",
		StartTime:   now.Add(time.Hour).Unix(),
		EndTime:     now.Add(2 * time.Hour).Unix(),
		SendConfirm: true,
		MeetingTargets: []models.MeetingTarget{
			{Name: "", Email: ""},
			{Name: "Alice", Email: "alice@example.com"},
		},
	}
	if err := ValidateDraft(draft, now); err != nil {
		t.Fatalf("blank-name target must not fail validation: %v", err)
	}
}
