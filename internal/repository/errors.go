// Package repository contains data access logic separated from HTTP
// handlers. This file defines sentinel errors reused across the
// repositories so that handlers can map failure scenarios onto HTTP
// status codes without inspecting driver internals.
package repository

import (
	"errors"

	"github.com/go-sql-driver/mysql"
)

// ErrUserNotFound is returned when a user id, email or username does not
// resolve to a row. Handlers translate it into HTTP 404 (or 401 during
// credential checks, where user enumeration must be avoided).
var ErrUserNotFound = errors.New("user not found")

// ErrPhotoNotFound is returned when a photo id does not resolve to a row.
var ErrPhotoNotFound = errors.New("photo not found")

// ErrCommentNotFound is returned when a comment id does not resolve to a row.
var ErrCommentNotFound = errors.New("comment not found")

// ErrUsernameExists and ErrEmailExists signal registration conflicts on
// the corresponding unique indexes. Handlers translate them into HTTP 409.
var (
	ErrUsernameExists = errors.New("username already exists")
	ErrEmailExists    = errors.New("email already exists")
)

// ErrTagConflict is returned when a tag could not be resolved even after
// retrying a duplicate-key race. This indicates the losing side of an
// insert race whose winner disappeared between the insert and the
// re-query, which should not happen since tags are never deleted.
var ErrTagConflict = errors.New("tag conflict")

// isDup reports whether err is a MySQL duplicate-entry error (1062),
// meaning a unique index rejected the write.
func isDup(err error) bool {
	var me *mysql.MySQLError
	return errors.As(err, &me) && me.Number == 1062
}
