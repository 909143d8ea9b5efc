package models

import "time"

// Post is the latest observed state of one channel message.
type Post struct {
	ChannelID   int64     `db:"channel_id" json:"channel_id"`
	MessageID   int64     `db:"message_id" json:"message_id"`
	PublishedAt time.Time `db:"published_at" json:"published_at"`
	Views       int64     `db:"views" json:"views"`
	Reactions   int64     `db:"reactions" json:"reactions"`
	Forwards    int64     `db:"forwards" json:"forwards"`
	Text        string    `db:"text" json:"text"`
}
