package services

import (
	"context"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/meditrack/identity/internal/config"
	"github.com/meditrack/identity/internal/models"
	"github.com/meditrack/identity/pkg/auth"
)

var testBootstrapConfig = config.BootstrapConfig{
	AdminUsername: "admin",
	AdminPassword: "Admin@123!",
}

func TestEnsureBootstrapAdmin_SeedsWhenEmpty(t *testing.T) {
	var created *models.User
	users := &MockUserStore{
		CreateFunc: func(ctx context.Context, user *models.User) (*models.User, error) {
			created = user
			return user, nil
		},
	}

	err := EnsureBootstrapAdmin(context.Background(), users, testBootstrapConfig, slog.Default())

	require.NoError(t, err)
	require.NotNil(t, created)
	assert.Equal(t, "admin", created.Username)
	assert.Equal(t, models.RoleAdmin, created.Role)
	assert.True(t, created.IsActive)
	assert.True(t, created.ApprovedByAdmin)
	assert.True(t, created.MustChangePassword, "seeded admin must change the well-known password")
	assert.NoError(t, auth.ComparePassword(created.PasswordHash, "Admin@123!"))
}

func TestEnsureBootstrapAdmin_SkipsWhenAdminExists(t *testing.T) {
	users := &MockUserStore{
		CountByRoleFunc: func(ctx context.Context, role models.Role) (int64, error) {
			return 1, nil
		},
		CreateFunc: func(ctx context.Context, user *models.User) (*models.User, error) {
			t.Fatal("must not create a second bootstrap admin")
			return nil, nil
		},
	}

	err := EnsureBootstrapAdmin(context.Background(), users, testBootstrapConfig, slog.Default())

	assert.NoError(t, err)
}

func TestEnsureBootstrapAdmin_ConcurrentSeedIsNotAnError(t *testing.T) {
	users := &MockUserStore{
		CreateFunc: func(ctx context.Context, user *models.User) (*models.User, error) {
			return nil, models.ErrDuplicateUsername
		},
	}

	err := EnsureBootstrapAdmin(context.Background(), users, testBootstrapConfig, slog.Default())

	assert.NoError(t, err)
}
