// Package identity handles user registration and authentication. It is the
// collaborator that supplies an owner id to the schedule core; no
// presentation concerns live here.
package identity

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"log/slog"
	"regexp"
	"strings"

	"schedule_manager/internal/model"
	"schedule_manager/internal/storage"
)

// Static salt keeps hashes compatible across restarts of the same database.
const passwordSalt = "sm7$pepper&41"

var emailRe = regexp.MustCompile(`^[^@\s]+@[^@\s]+\.[^@\s]+$`)

// ErrInvalidCredentials is returned by Authenticate for an unknown email or
// a wrong password. The two cases are deliberately indistinguishable.
var ErrInvalidCredentials = errors.New("invalid email or password")

// Service provides registration and login over the user store.
type Service struct {
	store storage.Storage
	log   *slog.Logger
}

// NewService creates a Service.
func NewService(store storage.Storage, log *slog.Logger) *Service {
	return &Service{store: store, log: log}
}

// Register creates a new user with a salted password hash. Returns
// storage.ErrEmailTaken when the email is already registered.
func (s *Service) Register(ctx context.Context, email, password string) (*model.User, error) {
	email = strings.TrimSpace(email)
	if !emailRe.MatchString(email) {
		return nil, &model.ValidationError{Field: "email", Reason: "malformed address"}
	}
	if password == "" {
		return nil, &model.ValidationError{Field: "password", Reason: "password is required"}
	}

	u := &model.User{
		Email:        email,
		PasswordHash: HashPassword(password),
	}
	if err := s.store.CreateUser(ctx, u); err != nil {
		return nil, fmt.Errorf("create user: %w", err)
	}
	s.log.Info("user registered", "user_id", u.ID)
	return u, nil
}

// Authenticate verifies the credentials and returns the matching user.
func (s *Service) Authenticate(ctx context.Context, email, password string) (*model.User, error) {
	u, err := s.store.GetUserByEmail(ctx, strings.TrimSpace(email))
	if errors.Is(err, storage.ErrNotFound) {
		return nil, ErrInvalidCredentials
	}
	if err != nil {
		return nil, fmt.Errorf("get user: %w", err)
	}
	if u.PasswordHash != HashPassword(password) {
		return nil, ErrInvalidCredentials
	}
	return u, nil
}

// HashPassword returns the hex-encoded salted SHA-256 digest of password.
func HashPassword(password string) string {
	h := sha256.Sum256([]byte(passwordSalt + password))
	return hex.EncodeToString(h[:])
}
