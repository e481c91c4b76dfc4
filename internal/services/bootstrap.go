package services

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/meditrack/identity/internal/config"
	"github.com/meditrack/identity/internal/models"
	"github.com/meditrack/identity/pkg/auth"
)

// EnsureBootstrapAdmin seeds the default admin account when the store holds
// no Admin rows, so an initialized store always contains at least one active,
// approved Admin. The seeded account uses the well-known temporary password
// from config and must change it at first login. Idempotent: a concurrent
// seeder losing the uniqueness race is treated as success. No audit entry is
// written; the seeding is system-generated, not an admin action.
func EnsureBootstrapAdmin(ctx context.Context, users UserStore, cfg config.BootstrapConfig, logger *slog.Logger) error {
	count, err := users.CountByRole(ctx, models.RoleAdmin)
	if err != nil {
		return fmt.Errorf("failed to count admin users: %w", err)
	}
	if count > 0 {
		logger.Info("admin account already present, skipping bootstrap")
		return nil
	}

	hash, err := auth.HashPassword(cfg.AdminPassword)
	if err != nil {
		return fmt.Errorf("failed to hash bootstrap admin password: %w", err)
	}

	now := time.Now().UTC()
	admin, err := users.Create(ctx, &models.User{
		Username:           cfg.AdminUsername,
		PasswordHash:       hash,
		Role:               models.RoleAdmin,
		IsActive:           true,
		LastPasswordReset:  &now,
		MustChangePassword: true,
		ApprovedByAdmin:    true,
	})
	if err != nil {
		if errors.Is(err, models.ErrDuplicateUsername) {
			logger.Info("bootstrap admin created concurrently, skipping")
			return nil
		}
		return fmt.Errorf("failed to create bootstrap admin: %w", err)
	}

	logger.Info("bootstrap admin created",
		slog.String("user_id", admin.ID.String()),
		slog.String("username", admin.Username))
	return nil
}
