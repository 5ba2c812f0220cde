// Package users persists accounts and implements password login.
package users

import (
	"context"
	"errors"

	"moodtunes/internal/core"
)

var (
	// ErrNotFound indicates a requested user was not found.
	ErrNotFound = errors.New("user not found")
	// ErrExists indicates the username is already taken.
	ErrExists = errors.New("user already exists")
)

// Store defines persistence operations for accounts.
type Store interface {
	Create(ctx context.Context, user *core.User) error
	GetByUsername(ctx context.Context, username string) (*core.User, error)
	Close() error
}
