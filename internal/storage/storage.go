// Package storage defines the persistence interface and its implementations.
package storage

import (
	"context"
	"errors"
	"time"

	"schedule_manager/internal/model"
)

// ErrNotFound is returned when an update or lookup references an id that
// does not exist. Delete is exempt: it is an idempotent no-op.
var ErrNotFound = errors.New("not found")

// ErrEmailTaken is returned when registering a user with an email that is
// already in use.
var ErrEmailTaken = errors.New("email already registered")

// Storage is the interface for all persistence operations.
type Storage interface {
	CreateUser(ctx context.Context, u *model.User) error
	GetUser(ctx context.Context, id int64) (*model.User, error)
	GetUserByEmail(ctx context.Context, email string) (*model.User, error)

	CreateEntry(ctx context.Context, e *model.Entry) error
	GetEntry(ctx context.Context, id int64) (*model.Entry, error)
	UpdateEntry(ctx context.Context, e *model.Entry) error
	DeleteEntry(ctx context.Context, id int64) error
	ConfirmEntry(ctx context.Context, id int64) error
	QueryEntries(ctx context.Context, ownerID int64, keyword string, r model.TimeRange) ([]model.Entry, error)
	FindDue(ctx context.Context, ownerID int64, asOf time.Time, excluding []int64) ([]model.Entry, error)

	Close() error
}
