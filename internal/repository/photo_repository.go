// This file defines repository methods for photos and their tag
// attachments. A photo belongs to a single owner; the owner reference is
// written at insert time and no update statement in this file touches it.
package repository

import (
	"context"
	"database/sql"
	"errors"
	"strings"

	"github.com/iliyamo/photo-share/internal/model"
)

const photoColumns = "id, user_id, url, public_id, transformed_url, qr_code_path, description, created_at, updated_at"

// PhotoRepo encapsulates all database queries related to photos and the
// photo_tags join table.
type PhotoRepo struct{ db *sql.DB }

func NewPhotoRepo(db *sql.DB) *PhotoRepo { return &PhotoRepo{db: db} }

func scanPhoto(scan func(dest ...any) error) (*model.Photo, error) {
	var (
		p        model.Photo
		transURL sql.NullString
		qrPath   sql.NullString
	)
	err := scan(&p.ID, &p.UserID, &p.URL, &p.PublicID, &transURL, &qrPath,
		&p.Description, &p.CreatedAt, &p.UpdatedAt)
	if err != nil {
		return nil, err
	}
	if transURL.Valid {
		p.TransformedURL = &transURL.String
	}
	if qrPath.Valid {
		p.QRCodePath = &qrPath.String
	}
	return &p, nil
}

// Create inserts a new photo row. On success the ID and timestamp fields
// of p are populated from a follow-up select so callers receive a fully
// populated record.
func (r *PhotoRepo) Create(ctx context.Context, p *model.Photo) error {
	res, err := r.db.ExecContext(ctx,
		"INSERT INTO photos (user_id, url, public_id, description) VALUES (?,?,?,?)",
		p.UserID, p.URL, p.PublicID, p.Description)
	if err != nil {
		return err
	}
	id, err := res.LastInsertId()
	if err != nil {
		return err
	}
	stored, err := r.GetByID(ctx, uint64(id))
	if err != nil {
		return err
	}
	*p = *stored
	return nil
}

// GetByID fetches a photo by id. Returns ErrPhotoNotFound when no row
// matches.
func (r *PhotoRepo) GetByID(ctx context.Context, id uint64) (*model.Photo, error) {
	row := r.db.QueryRowContext(ctx,
		"SELECT "+photoColumns+" FROM photos WHERE id=? LIMIT 1", id)
	p, err := scanPhoto(row.Scan)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrPhotoNotFound
		}
		return nil, err
	}
	return p, nil
}

// List returns all photos ordered newest first. When userID is non-zero
// only that owner's photos are returned.
func (r *PhotoRepo) List(ctx context.Context, userID uint64) ([]*model.Photo, error) {
	q := "SELECT " + photoColumns + " FROM photos ORDER BY id DESC"
	args := []any{}
	if userID != 0 {
		q = "SELECT " + photoColumns + " FROM photos WHERE user_id=? ORDER BY id DESC"
		args = append(args, userID)
	}
	rows, err := r.db.QueryContext(ctx, q, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []*model.Photo
	for rows.Next() {
		p, err := scanPhoto(rows.Scan)
		if err != nil {
			return nil, err
		}
		out = append(out, p)
	}
	return out, rows.Err()
}

// UpdateDescription changes only the description column.
func (r *PhotoRepo) UpdateDescription(ctx context.Context, id uint64, description string) error {
	_, err := r.db.ExecContext(ctx,
		"UPDATE photos SET description=? WHERE id=?", description, id)
	return err
}

// SetTransformedURL records the URL produced by the image host for the
// last requested transformation.
func (r *PhotoRepo) SetTransformedURL(ctx context.Context, id uint64, url string) error {
	_, err := r.db.ExecContext(ctx,
		"UPDATE photos SET transformed_url=? WHERE id=?", url, id)
	return err
}

// SetQRCodePath records the relative path of the generated QR artifact.
func (r *PhotoRepo) SetQRCodePath(ctx context.Context, id uint64, path string) error {
	_, err := r.db.ExecContext(ctx,
		"UPDATE photos SET qr_code_path=? WHERE id=?", path, id)
	return err
}

// Delete removes the photo row. Tag attachments and comments go with it
// via ON DELETE CASCADE on the join and comments tables.
func (r *PhotoRepo) Delete(ctx context.Context, id uint64) error {
	res, err := r.db.ExecContext(ctx, "DELETE FROM photos WHERE id=?", id)
	if err != nil {
		return err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return ErrPhotoNotFound
	}
	return nil
}

// CountByUser returns how many photos the user owns.
func (r *PhotoRepo) CountByUser(ctx context.Context, userID uint64) (int, error) {
	var n int
	err := r.db.QueryRowContext(ctx,
		"SELECT COUNT(*) FROM photos WHERE user_id=?", userID).Scan(&n)
	return n, err
}

// ReplaceTags swaps the photo's entire tag set for the given tag ids in
// one transaction. The position column preserves the caller's order so
// tags read back in the order they were submitted. An empty slice simply
// detaches everything.
func (r *PhotoRepo) ReplaceTags(ctx context.Context, photoID uint64, tagIDs []uint64) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer func() { _ = tx.Rollback() }()

	if _, err := tx.ExecContext(ctx, "DELETE FROM photo_tags WHERE photo_id=?", photoID); err != nil {
		return err
	}
	if len(tagIDs) > 0 {
		var b strings.Builder
		b.WriteString("INSERT INTO photo_tags (photo_id, tag_id, position) VALUES ")
		args := make([]any, 0, len(tagIDs)*3)
		for i, tagID := range tagIDs {
			if i > 0 {
				b.WriteString(",")
			}
			b.WriteString("(?,?,?)")
			args = append(args, photoID, tagID, i)
		}
		if _, err := tx.ExecContext(ctx, b.String(), args...); err != nil {
			return err
		}
	}
	return tx.Commit()
}

// TagsForPhoto returns the photo's tags in attachment order.
func (r *PhotoRepo) TagsForPhoto(ctx context.Context, photoID uint64) ([]model.Tag, error) {
	const q = `SELECT t.id, t.name FROM tags t
	           JOIN photo_tags pt ON pt.tag_id = t.id
	           WHERE pt.photo_id = ? ORDER BY pt.position`
	rows, err := r.db.QueryContext(ctx, q, photoID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []model.Tag
	for rows.Next() {
		var t model.Tag
		if err := rows.Scan(&t.ID, &t.Name); err != nil {
			return nil, err
		}
		out = append(out, t)
	}
	return out, rows.Err()
}
