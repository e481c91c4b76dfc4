package services

import (
	"context"
	"errors"
	"log/slog"
	"strings"

	"github.com/meditrack/identity/internal/models"
	"github.com/meditrack/identity/internal/session"
	"github.com/meditrack/identity/pkg/auth"
)

// AuthService verifies a (username, role, password) triple against the
// identity store and the approval gate, and owns the session slot.
type AuthService struct {
	users   UserStore
	session *session.Context
	logger  *slog.Logger
}

func NewAuthService(users UserStore, sess *session.Context, logger *slog.Logger) *AuthService {
	return &AuthService{
		users:   users,
		session: sess,
		logger:  logger,
	}
}

// VerifyCredentials authenticates the triple and, on success, installs the
// identity into the session context and returns it (including the forced
// password-change flag).
//
// A role mismatch is indistinguishable from a wrong password: both return
// ErrInvalidCredentials so callers cannot enumerate usernames or roles.
// PendingApproval and AccountDisabled are distinct so the UI can explain the
// state to a user who did present valid credentials; unauthenticated surfaces
// should collapse them via models.IsAuthFailure.
func (s *AuthService) VerifyCredentials(ctx context.Context, username, claimedRole, password string) (*models.User, error) {
	username = strings.TrimSpace(username)
	if username == "" {
		return nil, models.ErrInvalidCredentials
	}

	user, err := s.users.GetByUsername(ctx, username)
	if err != nil {
		if errors.Is(err, models.ErrNotFound) {
			s.logger.Info("login failed: invalid credentials")
			return nil, models.ErrInvalidCredentials
		}
		s.logger.Error("failed to get user by username", slog.Any("error", err))
		return nil, models.ErrInternalServer
	}

	if !strings.EqualFold(string(user.Role), strings.TrimSpace(claimedRole)) {
		s.logger.Info("login failed: invalid credentials")
		return nil, models.ErrInvalidCredentials
	}

	if err := auth.ComparePassword(user.PasswordHash, password); err != nil {
		s.logger.Info("login failed: invalid credentials")
		return nil, models.ErrInvalidCredentials
	}

	if err := user.CanAuthenticate(); err != nil {
		s.logger.Info("login blocked due to account state",
			slog.String("user_id", user.ID.String()),
			slog.Any("error", err))
		return nil, err
	}

	s.session.Set(user)
	s.logger.Info("user logged in",
		slog.String("user_id", user.ID.String()),
		slog.String("role", user.Role.String()),
		slog.Bool("must_change_password", user.MustChangePassword))

	return user, nil
}

// Logout clears the session slot.
func (s *AuthService) Logout() {
	if current := s.session.Current(); current != nil {
		s.logger.Info("user logged out", slog.String("user_id", current.ID.String()))
	}
	s.session.Clear()
}

// Session exposes the session context for collaborators that only need the
// derived predicates.
func (s *AuthService) Session() *session.Context {
	return s.session
}
