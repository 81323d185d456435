package models

// Activity represents a scheduled appointment.
// This is an internal representation, shared by the store, the reconciler
// and the remote API client.
type Activity struct {
	ID             string          `json:"id"`
	Title          string          `json:"title"`
	StartTime      int64           `json:"startTime"` // epoch seconds
	EndTime        int64           `json:"endTime"`   // epoch seconds
	MeetingTargets []MeetingTarget `json:"meetingTargets"`
	SendConfirm    bool            `json:"sendConfirm"`
	Description    string          `json:"description"`
	Created        string          `json:"created"` // server-assigned sync cursor, opaque
}

// MeetingTarget is one invitee of an activity.
type MeetingTarget struct {
	Name    string `json:"name"`
	Email   string `json:"email,omitempty"`
	Send    bool   `json:"send,omitempty"`
	Confirm bool   `json:"confirm,omitempty"`
}

// User is the authenticated account the cached activities belong to.
type User struct {
	ID        string `json:"id,omitempty"`
	Email     string `json:"email,omitempty"`
	Name      string `json:"name,omitempty"`
	LoginTime int64  `json:"logintime,omitempty"` // epoch seconds of the last login
}

// SyncState is the per-account sync bookkeeping persisted next to the
// activity set.
type SyncState struct {
	OwnerID        string `json:"ownerId"`
	RecentCursor   string `json:"recentCursor"`   // Created value of the most recently merged activity
	LastFetchEpoch int64  `json:"lastFetchEpoch"` // epoch seconds of the last successful remote fetch
}

// Delta is the set of changes the server reports since a given cursor.
// The wire field names match the scheduling API response.
type Delta struct {
	Upserts    []Activity `json:"result"`
	RemovedIDs []string   `json:"removedact"`
}

// Empty reports whether the delta carries no changes at all.
func (d Delta) Empty() bool {
	return len(d.Upserts) == 0 && len(d.RemovedIDs) == 0
}
