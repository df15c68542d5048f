package models

import "time"

// Message represents a room-scoped chat message. AuthorID and AuthorName are
// bound to the caller's identity at creation and never change afterwards.
type Message struct {
	ID         string    `db:"id" json:"id"`
	Room       string    `db:"room" json:"room"`
	AuthorID   string    `db:"author_id" json:"author_id"`
	AuthorName string    `db:"author_name" json:"author_name"`
	Body       string    `db:"body" json:"body"`
	CreatedAt  time.Time `db:"created_at" json:"created_at"`
}
