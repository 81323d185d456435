package schedule

import (
	"reflect"
	"testing"
	"time"

	"schedsync/internal/models"
)

func activity(id string, start, end int64) models.Activity {
	return models.Activity{ID: id, StartTime: start, EndTime: end}
}

func TestSelectInclusion(t *testing.T) {
	const wStart, wEnd = int64(1000), int64(2000)

	cases := []struct {
		name     string
		activity models.Activity
		included bool
	}{
		{"fully inside", activity("a", 1200, 1800), true},
		{"exact match", activity("b", 1000, 2000), true},
		{"contains window", activity("c", 500, 2500), true},
		{"overlaps start edge", activity("d", 500, 1500), true},
		{"overlaps end edge", activity("e", 1500, 2500), true},
		{"starts at window start, ends inside", activity("f", 1000, 1500), true},
		{"disjoint before", activity("g", 100, 900), false},
		{"touching before", activity("h", 500, 1000), false},
		{"disjoint after", activity("i", 2100, 2500), false},
		{"touching after", activity("j", 2000, 2500), false},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			got := Select([]models.Activity{tc.activity}, wStart, wEnd)
			if included := len(got) == 1; included != tc.included {
				t.Fatalf("activity %s: included=%v, want %v", tc.activity.ID, included, tc.included)
			}
		})
	}
}

func TestSelectOrdersByStartTime(t *testing.T) {
	input := []models.Activity{
		activity("late", 1800, 1900),
		activity("early", 1100, 1200),
		activity("middle", 1500, 1600),
	}
	got := Select(input, 1000, 2000)
	want := []string{"early", "middle", "late"}
	for i, id := range want {
		if got[i].ID != id {
			t.Fatalf("position %d: got %s, want %s", i, got[i].ID, id)
		}
	}
}

func TestSelectStableOnEqualStartTimes(t *testing.T) {
	input := []models.Activity{
		activity("first", 1500, 1600),
		activity("second", 1500, 1700),
		activity("third", 1500, 1550),
	}
	got := Select(input, 1000, 2000)
	for i, id := range []string{"first", "second", "third"} {
		if got[i].ID != id {
			t.Fatalf("equal start times must keep input order, position %d: got %s, want %s", i, got[i].ID, id)
		}
	}
}

func TestSelectDoesNotMutateInput(t *testing.T) {
	input := []models.Activity{
		activity("z", 1900, 1950),
		activity("a", 1100, 1200),
	}
	original := make([]models.Activity, len(input))
	copy(original, input)

	Select(input, 1000, 2000)

	if !reflect.DeepEqual(input, original) {
		t.Fatalf("input was mutated: %+v", input)
	}
}

func TestDayWindow(t *testing.T) {
	day := time.Date(2026, time.March, 15, 13, 45, 0, 0, time.UTC)

	start, end := DayWindow(day, 1)
	wantStart := time.Date(2026, time.March, 15, 0, 0, 0, 0, time.UTC).Unix()
	if start != wantStart {
		t.Fatalf("window start must be local midnight: got %d, want %d", start, wantStart)
	}
	if end-start != 24*60*60 {
		t.Fatalf("one-day window must span 24h, got %d seconds", end-start)
	}

	start, end = DayWindow(day, 7)
	if end != time.Date(2026, time.March, 22, 0, 0, 0, 0, time.UTC).Unix() {
		t.Fatalf("seven-day window end is wrong: %d", end)
	}

	// Zero days falls back to a single day.
	start, end = DayWindow(day, 0)
	if end-start != 24*60*60 {
		t.Fatalf("zero days should behave as one day, got %d seconds", end-start)
	}
}
