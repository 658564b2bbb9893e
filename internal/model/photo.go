package model

import "time"

// Photo mirrors the `photos` table. A photo belongs to exactly one user;
// UserID is written once at creation and never updated afterwards. URL and
// PublicID address the asset on the external image host. TransformedURL and
// QRCodePath are filled in lazily by the transform and QR endpoints.
//
// Fields:
//  ID             – primary key identifier of the photo.
//  UserID         – owner reference into users.id (immutable).
//  URL            – delivery URL of the hosted original.
//  PublicID       – external host identifier, unique per asset.
//  TransformedURL – URL of the last requested transformation (nullable).
//  QRCodePath     – relative path of the generated QR artifact (nullable).
//  Description    – free-text description.
//  CreatedAt      – timestamp of creation.
//  UpdatedAt      – timestamp of last update.
type Photo struct {
	ID             uint64    // photos.id
	UserID         uint64    // photos.user_id
	URL            string    // photos.url
	PublicID       string    // photos.public_id
	TransformedURL *string   // photos.transformed_url (nullable)
	QRCodePath     *string   // photos.qr_code_path (nullable)
	Description    string    // photos.description
	CreatedAt      time.Time // photos.created_at
	UpdatedAt      time.Time // photos.updated_at
}

// Tag mirrors the `tags` table. Tag identity is case-insensitive: the
// column carries a case-insensitive unique index, and lookups go through
// LOWER(name). Name keeps the casing it was first seen with.
type Tag struct {
	ID   uint64 // tags.id
	Name string // tags.name
}

// PhotoTag mirrors the `photo_tags` join table linking photos and tags.
type PhotoTag struct {
	PhotoID uint64 // photo_tags.photo_id
	TagID   uint64 // photo_tags.tag_id
}
