// Package queue defines message payloads exchanged over the message broker.
package queue

// PhotoUploadedEvent is published after a photo upload commits. It carries
// enough information for downstream consumers to log or notify without
// querying the primary database.
type PhotoUploadedEvent struct {
	PhotoID    uint64   `json:"photo_id"`
	UserID     uint64   `json:"user_id"`
	Username   string   `json:"username"`
	PublicID   string   `json:"public_id"`
	URL        string   `json:"url"`
	Tags       []string `json:"tags"`
	UploadedAt string   `json:"uploaded_at"`
}

// PhotoDeletedEvent is published after a photo row is removed. DeletedBy
// differs from OwnerID when an admin removed someone else's photo.
type PhotoDeletedEvent struct {
	PhotoID   uint64 `json:"photo_id"`
	OwnerID   uint64 `json:"owner_id"`
	DeletedBy uint64 `json:"deleted_by"`
	PublicID  string `json:"public_id"`
	DeletedAt string `json:"deleted_at"`
}
