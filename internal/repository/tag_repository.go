// This file defines tag resolution. Tags are created lazily the first
// time a photo references an unknown name and are never deleted. Identity
// is case-insensitive: "Sunset" and "sunset" must resolve to the same row,
// with the casing of the first writer preserved.
package repository

import (
	"context"
	"database/sql"
	"errors"
	"strings"

	"github.com/iliyamo/photo-share/internal/model"
)

// TagRepo encapsulates database queries against the tags table.
type TagRepo struct{ db *sql.DB }

func NewTagRepo(db *sql.DB) *TagRepo { return &TagRepo{db: db} }

// tagQueries is the seam between the resolve algorithm and the two SQL
// statements it needs. TagRepo implements it against MySQL; tests drive
// the duplicate-key race branches through a fake.
type tagQueries interface {
	lookupTag(ctx context.Context, name string) (model.Tag, error)
	insertTag(ctx context.Context, name string) (uint64, error)
}

// resolveTag returns the tag matching name case-insensitively, creating
// it when missing. The check-then-create sequence is not atomic: two
// requests can both discover the same missing name and race on the
// insert. The loser hits the unique index (1062) and re-queries once; a
// re-query miss surfaces ErrTagConflict, any other re-query failure is a
// plain database error and propagates as such.
func resolveTag(ctx context.Context, q tagQueries, name string) (model.Tag, error) {
	t, err := q.lookupTag(ctx, name)
	if err == nil {
		return t, nil
	}
	if !errors.Is(err, sql.ErrNoRows) {
		return model.Tag{}, err
	}

	id, err := q.insertTag(ctx, name)
	if err != nil {
		if isDup(err) {
			// Lost the creation race; the winner's row must be there now.
			t, err = q.lookupTag(ctx, name)
			if err != nil {
				if errors.Is(err, sql.ErrNoRows) {
					return model.Tag{}, ErrTagConflict
				}
				return model.Tag{}, err
			}
			return t, nil
		}
		return model.Tag{}, err
	}
	return model.Tag{ID: id, Name: name}, nil
}

// Resolve looks the name up case-insensitively, creating the tag when
// missing.
func (r *TagRepo) Resolve(ctx context.Context, name string) (model.Tag, error) {
	return resolveTag(ctx, r, name)
}

// ResolveAll resolves every name in order, creating missing tags.
func (r *TagRepo) ResolveAll(ctx context.Context, names []string) ([]model.Tag, error) {
	out := make([]model.Tag, 0, len(names))
	for _, name := range names {
		t, err := r.Resolve(ctx, name)
		if err != nil {
			return nil, err
		}
		out = append(out, t)
	}
	return out, nil
}

func (r *TagRepo) lookupTag(ctx context.Context, name string) (model.Tag, error) {
	var t model.Tag
	err := r.db.QueryRowContext(ctx,
		"SELECT id, name FROM tags WHERE LOWER(name)=LOWER(?) LIMIT 1", name).
		Scan(&t.ID, &t.Name)
	return t, err
}

func (r *TagRepo) insertTag(ctx context.Context, name string) (uint64, error) {
	res, err := r.db.ExecContext(ctx, "INSERT INTO tags (name) VALUES (?)", name)
	if err != nil {
		return 0, err
	}
	id, err := res.LastInsertId()
	if err != nil {
		return 0, err
	}
	return uint64(id), nil
}

// NormalizeTagNames splits a raw comma-separated tag input, trims
// whitespace, drops empty entries and de-duplicates case-insensitively
// while preserving first-seen casing and first-seen order.
func NormalizeTagNames(raw string) []string {
	seen := make(map[string]bool)
	var out []string
	for _, part := range strings.Split(raw, ",") {
		name := strings.TrimSpace(part)
		if name == "" {
			continue
		}
		key := strings.ToLower(name)
		if seen[key] {
			continue
		}
		seen[key] = true
		out = append(out, name)
	}
	return out
}
