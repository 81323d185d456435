package schedule

import (
	"errors"
	"fmt"
	"net/mail"
	"strings"
	"time"

	"github.com/microcosm-cc/bluemonday"

	"schedsync/internal/api"
	"schedsync/internal/models"
)

var (
	ErrTitleRequired = errors.New("title is required")
	ErrBadTimeRange  = errors.New("start time must be before end time")
	ErrInPast        = errors.New("cannot schedule an activity in the past")
	ErrEmailRequired = errors.New("confirmation emails requested but an invitee has no email")
	ErrInvalidEmail  = errors.New("invitee email is not a legal address")
)

// stripPolicy removes every markup element from free-text input before it
// is persisted or submitted.
var stripPolicy = bluemonday.StrictPolicy()

// StripTags removes HTML markup from free-text input.
func StripTags(s string) string {
	return stripPolicy.Sanitize(s)
}

// ValidEmail reports whether email is a single plain legal address.
func ValidEmail(email string) bool {
	addr, err := mail.ParseAddress(email)
	return err == nil && addr.Address == email
}

// NormalizeTargets drops invitees with a blank name and deduplicates the
// rest by non-empty email, keeping the first occurrence. Order of the kept
// entries is stable. Entries with no email are always kept. The input is
// not mutated.
func NormalizeTargets(targets []models.MeetingTarget) []models.MeetingTarget {
	var kept []models.MeetingTarget
	seen := make(map[string]bool)
	for _, t := range targets {
		name := strings.TrimSpace(t.Name)
		if name == "" {
			continue
		}
		t.Name = name
		if t.Email != "" {
			if seen[t.Email] {
				continue
			}
			seen[t.Email] = true
		}
		kept = append(kept, t)
	}
	return kept
}

// ValidateDraft checks a new or updated activity before any network call.
// Validation failures are local-only and never reach the reconciler.
func ValidateDraft(draft api.ActivityDraft, now time.Time) error {
	if strings.TrimSpace(draft.Title) == "" {
		return ErrTitleRequired
	}
	if draft.StartTime >= draft.EndTime {
		return ErrBadTimeRange
	}
	if draft.StartTime < now.Unix() || draft.EndTime < now.Unix() {
		return ErrInPast
	}
	for _, t := range draft.MeetingTargets {
		if strings.TrimSpace(t.Name) == "" {
			continue
		}
		if draft.SendConfirm && t.Email == "" {
			return fmt.Errorf("%w: %s", ErrEmailRequired, t.Name)
		}
		if t.Email != "" && !ValidEmail(t.Email) {
			return fmt.Errorf("%w: %s", ErrInvalidEmail, t.Email)
		}
	}
	return nil
}
