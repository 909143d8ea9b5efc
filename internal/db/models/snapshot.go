package models

import "time"

// Snapshot is a channel's subscriber count on one calendar day.
type Snapshot struct {
	ChannelID   int64     `db:"channel_id" json:"channel_id"`
	Date        time.Time `db:"snapshot_date" json:"date"`
	Subscribers int64     `db:"subscribers" json:"subscribers"`
}

// Day truncates t to midnight UTC of its calendar day in loc.
// Snapshot dates are stored as DATE, so only the Y/M/D survive.
func Day(t time.Time, loc *time.Location) time.Time {
	if loc == nil {
		loc = time.UTC
	}
	y, m, d := t.In(loc).Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}
