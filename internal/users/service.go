package users

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"regexp"
	"strings"
	"time"

	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"

	"moodtunes/internal/core"
)

var usernamePattern = regexp.MustCompile(`^[A-Za-z0-9_.-]{3,32}$`)

// MaxPasswordLength is bcrypt's input limit.
const MaxPasswordLength = 72

// Service implements login on top of a Store.
type Service struct {
	store Store
	cost  int
	now   func() time.Time
}

// NewService creates a login service. cost is the bcrypt cost;
// bcrypt.DefaultCost is used when cost is 0.
func NewService(store Store, cost int) *Service {
	if cost == 0 {
		cost = bcrypt.DefaultCost
	}
	return &Service{store: store, cost: cost, now: time.Now}
}

// NormalizeUsername trims and validates a username.
func NormalizeUsername(username string) (string, error) {
	username = strings.TrimSpace(username)
	if !usernamePattern.MatchString(username) {
		return "", core.NewInvalidRequestError("username must be 3-32 characters of letters, digits, '_', '.' or '-'", nil)
	}
	return username, nil
}

// Login authenticates username/password. There is no separate sign-up: the
// first login for an unknown username provisions the account with that
// password. created reports whether that happened.
func (s *Service) Login(ctx context.Context, username, password string) (user *core.User, created bool, err error) {
	username, err = NormalizeUsername(username)
	if err != nil {
		return nil, false, err
	}
	if password == "" {
		return nil, false, core.NewInvalidRequestError("password is required", nil)
	}
	if len(password) > MaxPasswordLength {
		return nil, false, core.NewInvalidRequestError(fmt.Sprintf("password must be at most %d bytes", MaxPasswordLength), nil)
	}

	existing, err := s.store.GetByUsername(ctx, username)
	switch {
	case err == nil:
		if bcrypt.CompareHashAndPassword([]byte(existing.PasswordHash), []byte(password)) != nil {
			return nil, false, core.NewAuthenticationError("invalid username or password")
		}
		return existing, false, nil
	case errors.Is(err, ErrNotFound):
		return s.provision(ctx, username, password)
	default:
		return nil, false, core.NewStorageError("failed to look up user", err)
	}
}

func (s *Service) provision(ctx context.Context, username, password string) (*core.User, bool, error) {
	hash, err := bcrypt.GenerateFromPassword([]byte(password), s.cost)
	if err != nil {
		return nil, false, core.NewInternalError("failed to hash password", err)
	}
	user := &core.User{
		ID:           uuid.NewString(),
		Username:     username,
		PasswordHash: string(hash),
		CreatedAt:    s.now().UTC(),
	}
	if err := s.store.Create(ctx, user); err != nil {
		if errors.Is(err, ErrExists) {
			// lost a race with a concurrent first login; retry as a normal login
			return s.Login(ctx, username, password)
		}
		return nil, false, core.NewStorageError("failed to create user", err)
	}
	core.Logger(ctx).Info("user provisioned", "username", username, "user_id", user.ID)
	return user, true, nil
}

// Close closes the underlying store.
func (s *Service) Close() error {
	if s.store == nil {
		return nil
	}
	if err := s.store.Close(); err != nil {
		slog.Warn("failed to close user store", "error", err)
		return err
	}
	return nil
}
