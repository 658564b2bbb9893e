package repository

import (
	"context"
	"database/sql"
	"errors"
	"strings"
	"time"

	"github.com/iliyamo/photo-share/internal/model"
)

const userColumns = "id, username, email, password_hash, role, is_active, confirmed, refresh_token_hash, refresh_expires_at, created_at, updated_at"

// UserRepo encapsulates all database queries against the users table,
// including the refresh-token column that backs session rotation.
type UserRepo struct{ db *sql.DB }

func NewUserRepo(db *sql.DB) *UserRepo { return &UserRepo{db: db} }

func scanUser(row *sql.Row) (*model.User, error) {
	var (
		u       model.User
		tokHash sql.NullString
		tokExp  sql.NullTime
	)
	err := row.Scan(&u.ID, &u.Username, &u.Email, &u.PasswordHash, &u.Role,
		&u.IsActive, &u.Confirmed, &tokHash, &tokExp, &u.CreatedAt, &u.UpdatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrUserNotFound
		}
		return nil, err
	}
	if tokHash.Valid {
		u.RefreshTokenHash = &tokHash.String
	}
	if tokExp.Valid {
		u.RefreshExpiresAt = &tokExp.Time
	}
	return &u, nil
}

// Create inserts a new user and returns the stored record. The role is
// decided by a bootstrap rule: the very first account in the system becomes
// ADMIN, every later one USER. The row count and the insert run inside one
// transaction so two near-simultaneous first registrations cannot both
// observe an empty table and both become admin.
func (r *UserRepo) Create(ctx context.Context, username, email, passwordHash string) (*model.User, error) {
	username = strings.TrimSpace(username)
	email = strings.ToLower(strings.TrimSpace(email))

	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, err
	}
	defer func() { _ = tx.Rollback() }()

	var count int
	if err := tx.QueryRowContext(ctx, "SELECT COUNT(*) FROM users FOR UPDATE").Scan(&count); err != nil {
		return nil, err
	}
	role := model.RoleUser
	if count == 0 {
		role = model.RoleAdmin
	}

	res, err := tx.ExecContext(ctx,
		"INSERT INTO users (username, email, password_hash, role) VALUES (?,?,?,?)",
		username, email, passwordHash, role)
	if err != nil {
		if isDup(err) {
			if strings.Contains(err.Error(), "username") {
				return nil, ErrUsernameExists
			}
			return nil, ErrEmailExists
		}
		return nil, err
	}
	id, err := res.LastInsertId()
	if err != nil {
		return nil, err
	}
	if err := tx.Commit(); err != nil {
		return nil, err
	}
	return r.GetByID(ctx, uint64(id))
}

// GetByEmail fetches a user by normalized email.
func (r *UserRepo) GetByEmail(ctx context.Context, email string) (*model.User, error) {
	email = strings.ToLower(strings.TrimSpace(email))
	row := r.db.QueryRowContext(ctx,
		"SELECT "+userColumns+" FROM users WHERE email=? LIMIT 1", email)
	return scanUser(row)
}

// GetByUsername fetches a user by username.
func (r *UserRepo) GetByUsername(ctx context.Context, username string) (*model.User, error) {
	row := r.db.QueryRowContext(ctx,
		"SELECT "+userColumns+" FROM users WHERE username=? LIMIT 1", strings.TrimSpace(username))
	return scanUser(row)
}

// GetByID fetches a user by id.
func (r *UserRepo) GetByID(ctx context.Context, id uint64) (*model.User, error) {
	row := r.db.QueryRowContext(ctx,
		"SELECT "+userColumns+" FROM users WHERE id=? LIMIT 1", id)
	return scanUser(row)
}

// StoreRefresh overwrites the user's refresh-token hash and expiry. Each
// user holds at most one live refresh token, so every successful login or
// refresh replaces the previous value.
func (r *UserRepo) StoreRefresh(ctx context.Context, userID uint64, tokenHash string, exp time.Time) error {
	_, err := r.db.ExecContext(ctx,
		"UPDATE users SET refresh_token_hash=?, refresh_expires_at=? WHERE id=?",
		tokenHash, exp, userID)
	return err
}

// ClearRefresh drops the stored refresh token, forcing re-login. Used on
// logout and whenever a presented refresh token mismatches the stored one.
func (r *UserRepo) ClearRefresh(ctx context.Context, userID uint64) error {
	_, err := r.db.ExecContext(ctx,
		"UPDATE users SET refresh_token_hash=NULL, refresh_expires_at=NULL WHERE id=?", userID)
	return err
}

// SetActive flips the account's active flag.
func (r *UserRepo) SetActive(ctx context.Context, id uint64, active bool) error {
	res, err := r.db.ExecContext(ctx, "UPDATE users SET is_active=? WHERE id=?", active, id)
	if err != nil {
		return err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		// Distinguish "no such user" from "already in that state".
		var one int
		if err := r.db.QueryRowContext(ctx, "SELECT 1 FROM users WHERE id=?", id).Scan(&one); err != nil {
			if errors.Is(err, sql.ErrNoRows) {
				return ErrUserNotFound
			}
			return err
		}
	}
	return nil
}

// SetRole assigns a new role to the user. Role validity is checked by the
// handler against the closed role set before this is called.
func (r *UserRepo) SetRole(ctx context.Context, id uint64, role string) error {
	res, err := r.db.ExecContext(ctx, "UPDATE users SET role=? WHERE id=?", role, id)
	if err != nil {
		return err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		var one int
		if err := r.db.QueryRowContext(ctx, "SELECT 1 FROM users WHERE id=?", id).Scan(&one); err != nil {
			if errors.Is(err, sql.ErrNoRows) {
				return ErrUserNotFound
			}
			return err
		}
	}
	return nil
}

// UpdateProfile applies a partial self-service update. Nil fields keep
// their prior values; passing no fields is a no-op.
func (r *UserRepo) UpdateProfile(ctx context.Context, id uint64, email, passwordHash *string) error {
	if email == nil && passwordHash == nil {
		return nil
	}
	set := make([]string, 0, 2)
	args := make([]any, 0, 3)
	if email != nil {
		set = append(set, "email=?")
		args = append(args, strings.ToLower(strings.TrimSpace(*email)))
	}
	if passwordHash != nil {
		set = append(set, "password_hash=?")
		args = append(args, *passwordHash)
	}
	args = append(args, id)
	_, err := r.db.ExecContext(ctx, "UPDATE users SET "+strings.Join(set, ", ")+" WHERE id=?", args...)
	if err != nil && isDup(err) {
		return ErrEmailExists
	}
	return err
}

// List returns all users ordered by id. Used by the admin listing.
func (r *UserRepo) List(ctx context.Context) ([]*model.User, error) {
	rows, err := r.db.QueryContext(ctx,
		"SELECT "+userColumns+" FROM users ORDER BY id")
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []*model.User
	for rows.Next() {
		var (
			u       model.User
			tokHash sql.NullString
			tokExp  sql.NullTime
		)
		if err := rows.Scan(&u.ID, &u.Username, &u.Email, &u.PasswordHash, &u.Role,
			&u.IsActive, &u.Confirmed, &tokHash, &tokExp, &u.CreatedAt, &u.UpdatedAt); err != nil {
			return nil, err
		}
		if tokHash.Valid {
			u.RefreshTokenHash = &tokHash.String
		}
		if tokExp.Valid {
			u.RefreshExpiresAt = &tokExp.Time
		}
		out = append(out, &u)
	}
	return out, rows.Err()
}
