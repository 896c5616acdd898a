package services

import (
	"context"
	"errors"
	"log/slog"

	"golang.org/x/crypto/bcrypt"

	"github.com/lorrc/helpdesk-backend/internal/core/domain"
	apperrors "github.com/lorrc/helpdesk-backend/internal/core/errors"
	"github.com/lorrc/helpdesk-backend/internal/core/ports"
)

// AuthService verifies local credentials against the directory store.
// An unknown username and a wrong password are indistinguishable to the
// caller.
type AuthService struct {
	directory ports.DirectoryRepository
	logger    *slog.Logger
}

var _ ports.AuthService = (*AuthService)(nil)

// NewAuthService creates a new auth service.
func NewAuthService(directory ports.DirectoryRepository, logger *slog.Logger) ports.AuthService {
	if logger == nil {
		logger = slog.Default()
	}
	return &AuthService{directory: directory, logger: logger}
}

// Login checks the password against the stored bcrypt hash and returns
// the caller's user reference.
func (s *AuthService) Login(ctx context.Context, username, password string) (*domain.UserRef, error) {
	user, hash, err := s.directory.FindCredentials(ctx, username)
	if err != nil {
		if errors.Is(err, apperrors.ErrUserNotFound) {
			return nil, apperrors.ErrInvalidCredentials
		}
		return nil, err
	}

	if err := bcrypt.CompareHashAndPassword([]byte(hash), []byte(password)); err != nil {
		s.logger.Warn("failed login attempt", "username", username)
		return nil, apperrors.ErrInvalidCredentials
	}

	return user, nil
}
