package services

import (
	"context"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/meditrack/identity/internal/models"
	"github.com/meditrack/identity/internal/session"
)

func newAuthService(users UserStore) (*AuthService, *session.Context) {
	sess := session.New()
	return NewAuthService(users, sess, slog.Default()), sess
}

func TestAuthService_VerifyCredentials_Success(t *testing.T) {
	user := NewTestUser("clin1", models.RoleClinician)

	svc, sess := newAuthService(&MockUserStore{
		GetByUsernameFunc: func(ctx context.Context, username string) (*models.User, error) {
			return user, nil
		},
	})

	result, err := svc.VerifyCredentials(context.Background(), "clin1", "Clinician", "Strong@123!")

	require.NoError(t, err)
	assert.Equal(t, user.ID, result.ID)
	assert.True(t, sess.IsAuthenticated())
	assert.True(t, sess.IsClinician())
	assert.False(t, sess.IsAdmin())
}

func TestAuthService_VerifyCredentials_ClaimedRoleCaseInsensitive(t *testing.T) {
	user := NewTestUser("clin1", models.RoleClinician)

	svc, _ := newAuthService(&MockUserStore{
		GetByUsernameFunc: func(ctx context.Context, username string) (*models.User, error) {
			return user, nil
		},
	})

	_, err := svc.VerifyCredentials(context.Background(), "clin1", "clinician", "Strong@123!")

	assert.NoError(t, err)
}

func TestAuthService_VerifyCredentials_UnknownUser(t *testing.T) {
	svc, sess := newAuthService(&MockUserStore{})

	result, err := svc.VerifyCredentials(context.Background(), "ghost", "Patient", "Strong@123!")

	assert.Nil(t, result)
	assert.ErrorIs(t, err, models.ErrInvalidCredentials)
	assert.False(t, sess.IsAuthenticated())
}

func TestAuthService_VerifyCredentials_RoleMismatchIndistinguishableFromBadPassword(t *testing.T) {
	user := NewTestUser("clin1", models.RoleClinician)

	svc, _ := newAuthService(&MockUserStore{
		GetByUsernameFunc: func(ctx context.Context, username string) (*models.User, error) {
			return user, nil
		},
	})

	_, roleErr := svc.VerifyCredentials(context.Background(), "clin1", "Admin", "Strong@123!")
	_, passErr := svc.VerifyCredentials(context.Background(), "clin1", "Clinician", "wrong-password!")

	assert.ErrorIs(t, roleErr, models.ErrInvalidCredentials)
	assert.Equal(t, roleErr, passErr)
}

func TestAuthService_VerifyCredentials_PendingApproval(t *testing.T) {
	user := NewTestUser("clin1", models.RoleClinician)
	user.ApprovedByAdmin = false

	svc, sess := newAuthService(&MockUserStore{
		GetByUsernameFunc: func(ctx context.Context, username string) (*models.User, error) {
			return user, nil
		},
	})

	result, err := svc.VerifyCredentials(context.Background(), "clin1", "Clinician", "Strong@123!")

	assert.Nil(t, result)
	assert.ErrorIs(t, err, models.ErrPendingApproval)
	assert.False(t, sess.IsAuthenticated())
}

func TestAuthService_VerifyCredentials_UnapprovedPatientStillAuthenticates(t *testing.T) {
	// The approval gate applies to elevated roles only.
	user := NewTestUser("pat1", models.RolePatient)
	user.ApprovedByAdmin = false

	svc, _ := newAuthService(&MockUserStore{
		GetByUsernameFunc: func(ctx context.Context, username string) (*models.User, error) {
			return user, nil
		},
	})

	_, err := svc.VerifyCredentials(context.Background(), "pat1", "Patient", "Strong@123!")

	assert.NoError(t, err)
}

func TestAuthService_VerifyCredentials_DisabledWinsOverPending(t *testing.T) {
	user := NewTestUser("clin1", models.RoleClinician)
	user.IsActive = false
	user.ApprovedByAdmin = false

	svc, _ := newAuthService(&MockUserStore{
		GetByUsernameFunc: func(ctx context.Context, username string) (*models.User, error) {
			return user, nil
		},
	})

	_, err := svc.VerifyCredentials(context.Background(), "clin1", "Clinician", "Strong@123!")

	assert.ErrorIs(t, err, models.ErrAccountDisabled)
}

func TestAuthService_VerifyCredentials_DeactivatedAccount(t *testing.T) {
	user := NewTestUser("pat1", models.RolePatient)
	user.IsActive = false

	svc, sess := newAuthService(&MockUserStore{
		GetByUsernameFunc: func(ctx context.Context, username string) (*models.User, error) {
			return user, nil
		},
	})

	result, err := svc.VerifyCredentials(context.Background(), "pat1", "Patient", "Strong@123!")

	assert.Nil(t, result)
	assert.ErrorIs(t, err, models.ErrAccountDisabled)
	assert.False(t, sess.IsAuthenticated())
}

func TestAuthService_VerifyCredentials_SurfacesMustChangeFlag(t *testing.T) {
	user := NewTestUser("pat1", models.RolePatient)
	user.MustChangePassword = true

	svc, _ := newAuthService(&MockUserStore{
		GetByUsernameFunc: func(ctx context.Context, username string) (*models.User, error) {
			return user, nil
		},
	})

	result, err := svc.VerifyCredentials(context.Background(), "pat1", "Patient", "Strong@123!")

	require.NoError(t, err)
	assert.True(t, result.MustChangePassword)
}

func TestAuthService_Logout(t *testing.T) {
	user := NewTestUser("pat1", models.RolePatient)

	svc, sess := newAuthService(&MockUserStore{
		GetByUsernameFunc: func(ctx context.Context, username string) (*models.User, error) {
			return user, nil
		},
	})

	_, err := svc.VerifyCredentials(context.Background(), "pat1", "Patient", "Strong@123!")
	require.NoError(t, err)
	require.True(t, sess.IsAuthenticated())

	svc.Logout()

	assert.False(t, sess.IsAuthenticated())
	assert.Nil(t, sess.Current())
}

func TestAuthService_VerifyCredentials_AuthFailuresAreOpaque(t *testing.T) {
	pending := NewTestUser("clin1", models.RoleClinician)
	pending.ApprovedByAdmin = false

	svc, _ := newAuthService(&MockUserStore{
		GetByUsernameFunc: func(ctx context.Context, username string) (*models.User, error) {
			return pending, nil
		},
	})

	_, err := svc.VerifyCredentials(context.Background(), "clin1", "Clinician", "Strong@123!")

	assert.True(t, models.IsAuthFailure(err))
}
