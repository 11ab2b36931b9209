package domain

import "time"

// PlayerSession records one presence interval for a player. A session is
// open while LeaveTime is nil; the storage layer guarantees at most one
// open session per username at a time.
type PlayerSession struct {
	ID              int64      `json:"id"`
	Username        string     `json:"username"`
	JoinTime        time.Time  `json:"joinTime"`
	LeaveTime       *time.Time `json:"leaveTime,omitempty"`
	DurationSeconds *int64     `json:"durationSeconds,omitempty"`
	IPAddress       string     `json:"-"`
}

// PlayerStats aggregates a player's session history for the profile view.
type PlayerStats struct {
	Username         string     `json:"username"`
	TotalSessions    int        `json:"totalSessions"`
	TotalPlaySeconds int64      `json:"totalPlaySeconds"`
	FirstSeen        *time.Time `json:"firstSeen,omitempty"`
	LastSeen         *time.Time `json:"lastSeen,omitempty"`
}
