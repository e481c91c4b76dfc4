package services

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/google/uuid"
	"github.com/meditrack/identity/internal/models"
	"github.com/meditrack/identity/pkg/auth"
)

// RegistrationService creates identities from self-service registration and
// drives the admin approval workflow for elevated roles.
type RegistrationService struct {
	stores StoreSet
	logger *slog.Logger
}

func NewRegistrationService(stores StoreSet, logger *slog.Logger) *RegistrationService {
	return &RegistrationService{
		stores: stores,
		logger: logger,
	}
}

// SelfRegister creates a new account. Patient accounts are approved from
// creation; Clinician and Admin accounts start unapproved and cannot
// authenticate until an admin approves them. The new user is not logged in.
func (s *RegistrationService) SelfRegister(ctx context.Context, username, password, desiredRole string) (*models.User, error) {
	username = strings.TrimSpace(username)

	if err := validateInput(registerInput{Username: username, Password: password, Role: desiredRole}); err != nil {
		return nil, err
	}
	if err := auth.ValidatePassword(password); err != nil {
		return nil, fmt.Errorf("%w: %s", models.ErrInvalidPassword, err)
	}
	role, err := models.ParseRole(desiredRole)
	if err != nil {
		return nil, err
	}

	exists, err := s.stores.Users().ExistsByUsername(ctx, username)
	if err != nil {
		s.logger.Error("failed to check username", slog.Any("error", err))
		return nil, models.ErrInternalServer
	}
	if exists {
		s.logger.Info("registration failed: username taken")
		return nil, models.ErrDuplicateUsername
	}

	hash, err := auth.HashPassword(password)
	if err != nil {
		s.logger.Error("failed to hash password", slog.Any("error", err))
		return nil, models.ErrInternalServer
	}

	user, err := s.stores.Users().Create(ctx, &models.User{
		Username:        username,
		PasswordHash:    hash,
		Role:            role,
		IsActive:        true,
		ApprovedByAdmin: role == models.RolePatient,
	})
	if err != nil {
		// Create re-checks uniqueness at the store level; a concurrent
		// registration surfaces here as ErrDuplicateUsername.
		s.logger.Info("registration failed", slog.Any("error", err))
		return nil, err
	}

	s.logger.Info("self registration",
		slog.String("user_id", user.ID.String()),
		slog.String("role", user.Role.String()),
		slog.Bool("pending_approval", !user.ApprovedByAdmin))

	return user, nil
}

// ListPending returns all unapproved elevated-role accounts for admin review.
func (s *RegistrationService) ListPending(ctx context.Context) ([]*models.User, error) {
	pending, err := s.stores.Users().ListPending(ctx)
	if err != nil {
		s.logger.Error("failed to list pending registrations", slog.Any("error", err))
		return nil, models.ErrInternalServer
	}
	return pending, nil
}

// Approve clears the approval gate on the target account and reactivates it.
// One ApproveRegistration audit entry is written in the same transaction.
func (s *RegistrationService) Approve(ctx context.Context, adminUsername string, targetID uuid.UUID) error {
	admin, err := requireAdmin(ctx, s.stores.Users(), adminUsername)
	if err != nil {
		return err
	}

	err = s.stores.InTx(ctx, func(users UserStore, actions ActionStore, _ AssignmentStore) error {
		if err := users.MarkApproved(ctx, targetID); err != nil {
			return err
		}
		return actions.Record(ctx, &models.AdminAction{
			AdminID:      &admin.ID,
			TargetUserID: &targetID,
			ActionType:   models.ActionApproveRegistration,
		})
	})
	if err != nil {
		return err
	}

	s.logger.Info("registration approved",
		slog.String("admin_id", admin.ID.String()),
		slog.String("target_user_id", targetID.String()))
	return nil
}

// Reject resolves a pending registration negatively. With del=true the record
// is removed permanently (logged as DeleteUser); otherwise the account is
// left inactive and unapproved so it can be re-approved later (logged as
// RejectRegistration).
func (s *RegistrationService) Reject(ctx context.Context, adminUsername string, targetID uuid.UUID, del bool) error {
	admin, err := requireAdmin(ctx, s.stores.Users(), adminUsername)
	if err != nil {
		return err
	}

	actionType := models.ActionRejectRegistration
	if del {
		actionType = models.ActionDeleteUser
	}

	err = s.stores.InTx(ctx, func(users UserStore, actions ActionStore, _ AssignmentStore) error {
		if del {
			if err := users.Delete(ctx, targetID); err != nil {
				return err
			}
		} else {
			if err := users.MarkRejected(ctx, targetID); err != nil {
				return err
			}
		}
		return actions.Record(ctx, &models.AdminAction{
			AdminID:      &admin.ID,
			TargetUserID: &targetID,
			ActionType:   actionType,
		})
	})
	if err != nil {
		return err
	}

	s.logger.Info("registration rejected",
		slog.String("admin_id", admin.ID.String()),
		slog.String("target_user_id", targetID.String()),
		slog.Bool("deleted", del))
	return nil
}
