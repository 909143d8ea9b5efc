package models

import (
	"strings"
	"time"
)

// Status is the moderation state of a channel.
type Status string

const (
	StatusPending  Status = "pending"
	StatusApproved Status = "approved"
	StatusRejected Status = "rejected"
)

// Valid reports whether s is one of the known moderation states.
func (s Status) Valid() bool {
	switch s {
	case StatusPending, StatusApproved, StatusRejected:
		return true
	}
	return false
}

// Channel is a Telegram channel submitted to the catalog.
type Channel struct {
	ID          int64     `db:"id" json:"id"`
	Handle      string    `db:"handle" json:"handle"`
	Title       string    `db:"title" json:"title"`
	Description string    `db:"description" json:"description"`
	SubmittedBy int64     `db:"submitted_by" json:"submitted_by"`
	Status      Status    `db:"status" json:"status"`
	Subscribers int64     `db:"subscribers" json:"subscribers"`
	Growth7d    float64   `db:"growth_7d" json:"growth_7d"`
	Growth30d   float64   `db:"growth_30d" json:"growth_30d"`
	CreatedAt   time.Time `db:"created_at" json:"created_at"`
	UpdatedAt   time.Time `db:"updated_at" json:"updated_at"`
}

// NewChannel creates a pending Channel for the given submitter.
func NewChannel(handle, title string, submittedBy int64) *Channel {
	now := time.Now()
	return &Channel{
		Handle:      handle,
		Title:       title,
		SubmittedBy: submittedBy,
		Status:      StatusPending,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
}

// Username returns the handle without its leading '@', the form used in t.me links.
func (c *Channel) Username() string {
	return Username(c.Handle)
}

// StatusCounts is the per-status breakdown shown on the admin summary.
type StatusCounts struct {
	Total    int64 `json:"total"`
	Pending  int64 `json:"pending"`
	Approved int64 `json:"approved"`
	Rejected int64 `json:"rejected"`
}

// Username strips the leading '@' from a handle.
func Username(handle string) string {
	return strings.TrimPrefix(handle, "@")
}
