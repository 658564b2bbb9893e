package model

import "time"

// Comment mirrors the `comments` table. A comment always references an
// existing user (author) and an existing photo at creation time; both
// foreign keys are immutable afterwards.
type Comment struct {
	ID        uint64    // comments.id
	UserID    uint64    // comments.user_id
	PhotoID   uint64    // comments.photo_id
	Content   string    // comments.content
	CreatedAt time.Time // comments.created_at
	UpdatedAt time.Time // comments.updated_at
}
