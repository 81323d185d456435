// Package schedule holds the pure scheduling logic: window selection over
// the cached activity set and validation of activities before submission.
package schedule

import (
	"sort"
	"time"

	"schedsync/internal/models"
)

// Select returns the activities overlapping the half-open display window
// [windowStart, windowEnd), ordered ascending by start time. Activities
// with equal start times keep their input order. The input slice and its
// elements are never mutated.
func Select(activities []models.Activity, windowStart, windowEnd int64) []models.Activity {
	var selected []models.Activity
	for _, a := range activities {
		// Standard interval overlap: covers fully-inside, exact match,
		// containing the window, and both edge overlaps.
		if a.StartTime < windowEnd && a.EndTime > windowStart {
			selected = append(selected, a)
		}
	}
	sort.SliceStable(selected, func(i, j int) bool {
		return selected[i].StartTime < selected[j].StartTime
	})
	return selected
}

// DayWindow returns the window covering the given number of whole days
// starting at local midnight of day, as epoch seconds. This mirrors the
// default view of the scheduler: one day unless a range is requested.
func DayWindow(day time.Time, days int) (int64, int64) {
	if days < 1 {
		days = 1
	}
	start := time.Date(day.Year(), day.Month(), day.Day(), 0, 0, 0, 0, day.Location())
	return start.Unix(), start.AddDate(0, 0, days).Unix()
}
