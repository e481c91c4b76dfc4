package services

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/google/uuid"
	"github.com/meditrack/identity/internal/models"
	"github.com/meditrack/identity/pkg/auth"
)

// AdminService holds every administrator-privileged mutation. Each operation
// re-validates the caller's Admin role against the live store, performs
// exactly one mutation, and appends exactly one audit entry in the same
// transaction. A missing target fails with ErrNotFound before anything is
// logged.
type AdminService struct {
	stores StoreSet
	logger *slog.Logger
}

func NewAdminService(stores StoreSet, logger *slog.Logger) *AdminService {
	return &AdminService{
		stores: stores,
		logger: logger,
	}
}

// CreateUser provisions an account on behalf of an admin. The account is
// approved from creation, carries a temporary password, and must change it
// before its first session proceeds.
func (s *AdminService) CreateUser(ctx context.Context, callerUsername, username, tempPassword, role string) (*models.User, error) {
	admin, err := requireAdmin(ctx, s.stores.Users(), callerUsername)
	if err != nil {
		return nil, err
	}

	if err := validateInput(createUserInput{Username: username, Password: tempPassword, Role: role}); err != nil {
		return nil, err
	}
	if err := auth.ValidatePassword(tempPassword); err != nil {
		return nil, fmt.Errorf("%w: %s", models.ErrInvalidPassword, err)
	}
	parsedRole, err := models.ParseRole(role)
	if err != nil {
		return nil, err
	}

	exists, err := s.stores.Users().ExistsByUsername(ctx, username)
	if err != nil {
		s.logger.Error("failed to check username", slog.Any("error", err))
		return nil, models.ErrInternalServer
	}
	if exists {
		return nil, models.ErrDuplicateUsername
	}

	hash, err := auth.HashPassword(tempPassword)
	if err != nil {
		s.logger.Error("failed to hash password", slog.Any("error", err))
		return nil, models.ErrInternalServer
	}

	var created *models.User
	err = s.stores.InTx(ctx, func(users UserStore, actions ActionStore, _ AssignmentStore) error {
		created, err = users.Create(ctx, &models.User{
			Username:           username,
			PasswordHash:       hash,
			Role:               parsedRole,
			IsActive:           true,
			CreatedByAdminID:   &admin.ID,
			MustChangePassword: true,
			ApprovedByAdmin:    true,
		})
		if err != nil {
			return err
		}
		return actions.Record(ctx, &models.AdminAction{
			AdminID:      &admin.ID,
			TargetUserID: &created.ID,
			ActionType:   models.ActionCreateUser,
			Details:      fmt.Sprintf("username=%s; role=%s", created.Username, created.Role),
		})
	})
	if err != nil {
		return nil, err
	}

	s.logger.Info("user created by admin",
		slog.String("admin_id", admin.ID.String()),
		slog.String("user_id", created.ID.String()),
		slog.String("role", created.Role.String()))

	return created, nil
}

// EditRole changes the target's role. An admin may never remove their own
// Admin role; re-asserting it is allowed and still audited.
func (s *AdminService) EditRole(ctx context.Context, callerUsername string, targetID uuid.UUID, newRole string) error {
	admin, err := requireAdmin(ctx, s.stores.Users(), callerUsername)
	if err != nil {
		return err
	}

	parsedRole, err := models.ParseRole(newRole)
	if err != nil {
		return err
	}

	if admin.ID == targetID && parsedRole != models.RoleAdmin {
		return models.ErrSelfDemotion
	}

	err = s.stores.InTx(ctx, func(users UserStore, actions ActionStore, _ AssignmentStore) error {
		if err := users.UpdateRole(ctx, targetID, parsedRole); err != nil {
			return err
		}
		return actions.Record(ctx, &models.AdminAction{
			AdminID:      &admin.ID,
			TargetUserID: &targetID,
			ActionType:   models.ActionEditRole,
			Details:      fmt.Sprintf("newRole=%s", parsedRole),
		})
	})
	if err != nil {
		return err
	}

	s.logger.Info("user role changed",
		slog.String("admin_id", admin.ID.String()),
		slog.String("target_user_id", targetID.String()),
		slog.String("new_role", parsedRole.String()))
	return nil
}

// DeactivateUser blocks the target from authenticating.
func (s *AdminService) DeactivateUser(ctx context.Context, callerUsername string, targetID uuid.UUID) error {
	return s.setActive(ctx, callerUsername, targetID, false)
}

// ActivateUser re-enables a previously deactivated account.
func (s *AdminService) ActivateUser(ctx context.Context, callerUsername string, targetID uuid.UUID) error {
	return s.setActive(ctx, callerUsername, targetID, true)
}

func (s *AdminService) setActive(ctx context.Context, callerUsername string, targetID uuid.UUID, active bool) error {
	admin, err := requireAdmin(ctx, s.stores.Users(), callerUsername)
	if err != nil {
		return err
	}

	actionType := models.ActionDeactivateUser
	if active {
		actionType = models.ActionActivateUser
	}

	err = s.stores.InTx(ctx, func(users UserStore, actions ActionStore, _ AssignmentStore) error {
		if err := users.SetActive(ctx, targetID, active); err != nil {
			return err
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

	s.logger.Info("user active flag changed",
		slog.String("admin_id", admin.ID.String()),
		slog.String("target_user_id", targetID.String()),
		slog.Bool("active", active))
	return nil
}

// ResetPassword force-sets a temporary password on the target account and
// requires a change at next login.
func (s *AdminService) ResetPassword(ctx context.Context, callerUsername string, targetID uuid.UUID, tempPassword string) error {
	admin, err := requireAdmin(ctx, s.stores.Users(), callerUsername)
	if err != nil {
		return err
	}

	if err := auth.ValidatePassword(tempPassword); err != nil {
		return fmt.Errorf("%w: %s", models.ErrInvalidPassword, err)
	}

	hash, err := auth.HashPassword(tempPassword)
	if err != nil {
		s.logger.Error("failed to hash password", slog.Any("error", err))
		return models.ErrInternalServer
	}

	err = s.stores.InTx(ctx, func(users UserStore, actions ActionStore, _ AssignmentStore) error {
		if err := users.UpdatePasswordHash(ctx, targetID, hash, true); err != nil {
			return err
		}
		return actions.Record(ctx, &models.AdminAction{
			AdminID:      &admin.ID,
			TargetUserID: &targetID,
			ActionType:   models.ActionResetPassword,
		})
	})
	if err != nil {
		return err
	}

	s.logger.Info("password reset by admin",
		slog.String("admin_id", admin.ID.String()),
		slog.String("target_user_id", targetID.String()))
	return nil
}

// AssignPatientToClinician records the care relationship. The patient must
// hold exactly the Patient role and the clinician the Clinician role.
// Assigning an existing pair is a silent no-op, audited either way.
func (s *AdminService) AssignPatientToClinician(ctx context.Context, callerUsername string, patientID, clinicianID uuid.UUID) error {
	admin, err := requireAdmin(ctx, s.stores.Users(), callerUsername)
	if err != nil {
		return err
	}

	patient, err := s.stores.Users().GetByID(ctx, patientID)
	if err != nil {
		return err
	}
	clinician, err := s.stores.Users().GetByID(ctx, clinicianID)
	if err != nil {
		return err
	}
	if patient.Role != models.RolePatient || clinician.Role != models.RoleClinician {
		return models.ErrRoleMismatch
	}

	err = s.stores.InTx(ctx, func(_ UserStore, actions ActionStore, assignments AssignmentStore) error {
		if err := assignments.Assign(ctx, patientID, clinicianID, admin.ID); err != nil {
			return err
		}
		return actions.Record(ctx, &models.AdminAction{
			AdminID:      &admin.ID,
			TargetUserID: &patientID,
			ActionType:   models.ActionAssignPatient,
			Details:      fmt.Sprintf("clinicianId=%s", clinicianID),
		})
	})
	if err != nil {
		return err
	}

	s.logger.Info("patient assigned to clinician",
		slog.String("admin_id", admin.ID.String()),
		slog.String("patient_id", patientID.String()),
		slog.String("clinician_id", clinicianID.String()))
	return nil
}

// ForceChangePassword completes a mandatory password change. There is no
// admin check: the caller is the already-authenticated account owner working
// through the must-change gate.
func (s *AdminService) ForceChangePassword(ctx context.Context, userID uuid.UUID, newPassword string) error {
	if err := auth.ValidatePassword(newPassword); err != nil {
		return fmt.Errorf("%w: %s", models.ErrInvalidPassword, err)
	}

	hash, err := auth.HashPassword(newPassword)
	if err != nil {
		s.logger.Error("failed to hash password", slog.Any("error", err))
		return models.ErrInternalServer
	}

	if err := s.stores.Users().UpdatePasswordHash(ctx, userID, hash, false); err != nil {
		return err
	}

	s.logger.Info("forced password change completed", slog.String("user_id", userID.String()))
	return nil
}

// ListUsers returns all accounts, newest first, for the admin user-management
// view.
func (s *AdminService) ListUsers(ctx context.Context, callerUsername string, limit, offset int) ([]*models.User, error) {
	if _, err := requireAdmin(ctx, s.stores.Users(), callerUsername); err != nil {
		return nil, err
	}

	users, err := s.stores.Users().List(ctx, limit, offset)
	if err != nil {
		s.logger.Error("failed to list users", slog.Any("error", err))
		return nil, models.ErrInternalServer
	}
	return users, nil
}

// ListAdminActions returns audit entries matching the filter, newest first.
func (s *AdminService) ListAdminActions(ctx context.Context, callerUsername string, filter models.AdminActionFilter) ([]*models.AdminAction, error) {
	if _, err := requireAdmin(ctx, s.stores.Users(), callerUsername); err != nil {
		return nil, err
	}

	actions, err := s.stores.Actions().List(ctx, filter)
	if err != nil {
		s.logger.Error("failed to list admin actions", slog.Any("error", err))
		return nil, models.ErrInternalServer
	}
	return actions, nil
}

// StatsResponse contains aggregate counts for the admin dashboard.
type StatsResponse struct {
	TotalUsers       int64            `json:"total_users"`
	ActiveUsers      int64            `json:"active_users"`
	PendingApprovals int64            `json:"pending_approvals"`
	RoleBreakdown    map[string]int64 `json:"role_breakdown"`
}

// Stats returns aggregate user counts.
func (s *AdminService) Stats(ctx context.Context, callerUsername string) (*StatsResponse, error) {
	if _, err := requireAdmin(ctx, s.stores.Users(), callerUsername); err != nil {
		return nil, err
	}

	users := s.stores.Users()

	total, err := users.CountTotal(ctx)
	if err != nil {
		s.logger.Error("stats: failed to count users", slog.Any("error", err))
		return nil, models.ErrInternalServer
	}
	active, err := users.CountActive(ctx)
	if err != nil {
		s.logger.Error("stats: failed to count active users", slog.Any("error", err))
		return nil, models.ErrInternalServer
	}
	pending, err := users.CountPending(ctx)
	if err != nil {
		s.logger.Error("stats: failed to count pending users", slog.Any("error", err))
		return nil, models.ErrInternalServer
	}

	breakdown := make(map[string]int64, len(models.AllowedRoles))
	for _, role := range models.AllowedRoles {
		count, err := users.CountByRole(ctx, role)
		if err != nil {
			s.logger.Error("stats: failed to count users by role",
				slog.String("role", role.String()), slog.Any("error", err))
			return nil, models.ErrInternalServer
		}
		breakdown[role.String()] = count
	}

	return &StatsResponse{
		TotalUsers:       total,
		ActiveUsers:      active,
		PendingApprovals: pending,
		RoleBreakdown:    breakdown,
	}, nil
}

// PatientsForClinician exposes the assignment map to clinical-data views.
func (s *AdminService) PatientsForClinician(ctx context.Context, clinicianID uuid.UUID) ([]uuid.UUID, error) {
	return s.stores.Assignments().PatientsForClinician(ctx, clinicianID)
}

// CliniciansForPatient is the reverse lookup of PatientsForClinician.
func (s *AdminService) CliniciansForPatient(ctx context.Context, patientID uuid.UUID) ([]uuid.UUID, error) {
	return s.stores.Assignments().CliniciansForPatient(ctx, patientID)
}
