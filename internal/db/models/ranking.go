package models

import "time"

// Metric selects the post engagement counter a ranking is ordered by.
type Metric string

const (
	MetricReactions Metric = "reactions"
	MetricViews     Metric = "views"
	MetricForwards  Metric = "forwards"
)

// Valid reports whether m is a rankable metric.
func (m Metric) Valid() bool {
	switch m {
	case MetricReactions, MetricViews, MetricForwards:
		return true
	}
	return false
}

// Period selects the growth window a channel ranking is ordered by.
type Period string

const (
	Period7d  Period = "7d"
	Period30d Period = "30d"
)

// ParsePeriod maps "7d" to Period7d and anything else to Period30d.
func ParsePeriod(s string) Period {
	if s == string(Period7d) {
		return Period7d
	}
	return Period30d
}

// RankedPost is a post joined with the channel fields needed to render it.
type RankedPost struct {
	ChannelID    int64     `json:"channel_id"`
	Handle       string    `json:"handle"`
	ChannelTitle string    `json:"channel_title"`
	MessageID    int64     `json:"message_id"`
	PublishedAt  time.Time `json:"published_at"`
	Text         string    `json:"text"`
	Value        int64     `json:"value"`
}

// Username returns the handle without its leading '@'.
func (p RankedPost) Username() string {
	return Username(p.Handle)
}

// RankedChannel is an approved channel in a growth or size ranking.
type RankedChannel struct {
	ID          int64   `json:"id"`
	Handle      string  `json:"handle"`
	Title       string  `json:"title"`
	Subscribers int64   `json:"subscribers"`
	Growth      float64 `json:"growth"`
}

// Username returns the handle without its leading '@'.
func (c RankedChannel) Username() string {
	return Username(c.Handle)
}
