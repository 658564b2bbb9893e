package repository

import (
	"context"
	"database/sql"
	"errors"

	"github.com/iliyamo/photo-share/internal/model"
)

const commentColumns = "id, user_id, photo_id, content, created_at, updated_at"

// CommentRepo encapsulates database queries against the comments table.
type CommentRepo struct{ db *sql.DB }

func NewCommentRepo(db *sql.DB) *CommentRepo { return &CommentRepo{db: db} }

// Create inserts a comment and populates c with the stored row.
func (r *CommentRepo) Create(ctx context.Context, c *model.Comment) error {
	res, err := r.db.ExecContext(ctx,
		"INSERT INTO comments (user_id, photo_id, content) VALUES (?,?,?)",
		c.UserID, c.PhotoID, c.Content)
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
	*c = *stored
	return nil
}

// GetByID fetches a comment by id. Returns ErrCommentNotFound when no row
// matches.
func (r *CommentRepo) GetByID(ctx context.Context, id uint64) (*model.Comment, error) {
	var c model.Comment
	err := r.db.QueryRowContext(ctx,
		"SELECT "+commentColumns+" FROM comments WHERE id=? LIMIT 1", id).
		Scan(&c.ID, &c.UserID, &c.PhotoID, &c.Content, &c.CreatedAt, &c.UpdatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrCommentNotFound
		}
		return nil, err
	}
	return &c, nil
}

// ListByPhoto returns a photo's comments oldest first.
func (r *CommentRepo) ListByPhoto(ctx context.Context, photoID uint64) ([]*model.Comment, error) {
	rows, err := r.db.QueryContext(ctx,
		"SELECT "+commentColumns+" FROM comments WHERE photo_id=? ORDER BY id", photoID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []*model.Comment
	for rows.Next() {
		var c model.Comment
		if err := rows.Scan(&c.ID, &c.UserID, &c.PhotoID, &c.Content, &c.CreatedAt, &c.UpdatedAt); err != nil {
			return nil, err
		}
		out = append(out, &c)
	}
	return out, rows.Err()
}

// UpdateContent replaces the comment text.
func (r *CommentRepo) UpdateContent(ctx context.Context, id uint64, content string) error {
	_, err := r.db.ExecContext(ctx,
		"UPDATE comments SET content=? WHERE id=?", content, id)
	return err
}

// Delete removes the comment row.
func (r *CommentRepo) Delete(ctx context.Context, id uint64) error {
	res, err := r.db.ExecContext(ctx, "DELETE FROM comments WHERE id=?", id)
	if err != nil {
		return err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return ErrCommentNotFound
	}
	return nil
}

// CountByPhoto returns how many comments a photo has.
func (r *CommentRepo) CountByPhoto(ctx context.Context, photoID uint64) (int, error) {
	var n int
	err := r.db.QueryRowContext(ctx,
		"SELECT COUNT(*) FROM comments WHERE photo_id=?", photoID).Scan(&n)
	return n, err
}
