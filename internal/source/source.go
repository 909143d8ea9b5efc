// Package source defines the contract of the external channel data source.
package source

import (
	"context"
	"errors"
	"iter"
	"time"
)

// ErrChannelNotFound is returned when a handle does not resolve to a public
// broadcast channel (unknown, private, or a group or user instead).
var ErrChannelNotFound = errors.New("channel not found")

// ChannelInfo is a fresh metadata sample of a channel.
type ChannelInfo struct {
	ID          int64
	Handle      string
	Title       string
	Description string
	Subscribers int64
}

// Message is one channel message with its engagement counters. Counters
// the source does not report are zero.
type Message struct {
	ID        int64
	Timestamp time.Time
	Views     int64
	Reactions int64
	Forwards  int64
	Text      string
}

// Source fetches channel data from the messaging platform.
type Source interface {
	// FetchChannelInfo resolves handle and returns its metadata, or
	// ErrChannelNotFound.
	FetchChannelInfo(ctx context.Context, handle string) (*ChannelInfo, error)

	// FetchRecentMessages yields messages newest first. The sequence ends
	// once a message older than since is reached or the caller stops
	// iterating; a non-nil error is yielded at most once, as the last element.
	FetchRecentMessages(ctx context.Context, handle string, since time.Time) iter.Seq2[Message, error]
}
