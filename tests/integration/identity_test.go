package integration

import (
	"context"
	"io"
	"log/slog"
	"os"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/meditrack/identity/internal/config"
	"github.com/meditrack/identity/internal/models"
	"github.com/meditrack/identity/internal/repositories"
	"github.com/meditrack/identity/internal/services"
	"github.com/meditrack/identity/internal/session"
	"github.com/meditrack/identity/pkg/auth"
)

var testDB *TestDB

func TestMain(m *testing.M) {
	ctx := context.Background()

	db, err := SetupTestDatabase(ctx)
	if err != nil {
		slog.Error("failed to set up test database", "error", err)
		os.Exit(1)
	}
	testDB = db

	code := m.Run()

	testDB.Teardown(ctx)
	os.Exit(code)
}

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func cleanTables(t *testing.T) {
	t.Helper()
	require.NoError(t, testDB.CleanupTables(context.Background()))
}

func TestSchema_RoleCheckConstraint(t *testing.T) {
	cleanTables(t)
	ctx := context.Background()

	_, err := testDB.Pool.Exec(ctx, `
		INSERT INTO users (user_id, username, password_hash, role, created_at, is_active)
		VALUES ($1, 'intruder', 'x', 'Guest', NOW(), true)
	`, uuid.New())
	require.Error(t, err, "unknown role must be rejected by the check constraint")
}

func TestSchema_UniqueUsername(t *testing.T) {
	cleanTables(t)
	ctx := context.Background()
	stores := testDB.NewStores()

	_, err := SeedUser(ctx, stores, "dr.jones", models.RoleClinician, "Strong@123!")
	require.NoError(t, err)

	_, err = stores.Users().Create(ctx, &models.User{
		Username:        "dr.jones",
		PasswordHash:    "hash",
		Role:            models.RolePatient,
		IsActive:        true,
		ApprovedByAdmin: true,
	})
	assert.ErrorIs(t, err, models.ErrDuplicateUsername)
}

func TestUserStore_UpdateMissingUser(t *testing.T) {
	cleanTables(t)
	ctx := context.Background()
	users := testDB.NewStores().Users()

	missing := uuid.New()

	assert.ErrorIs(t, users.UpdateRole(ctx, missing, models.RoleAdmin), models.ErrNotFound)
	assert.ErrorIs(t, users.SetActive(ctx, missing, false), models.ErrNotFound)
	assert.ErrorIs(t, users.UpdatePasswordHash(ctx, missing, "hash", true), models.ErrNotFound)
	assert.ErrorIs(t, users.Delete(ctx, missing), models.ErrNotFound)
}

func TestAssignments_Idempotent(t *testing.T) {
	cleanTables(t)
	ctx := context.Background()
	stores := testDB.NewStores()

	admin, err := SeedUser(ctx, stores, "admin1", models.RoleAdmin, "Strong@123!")
	require.NoError(t, err)
	clinician, err := SeedUser(ctx, stores, "dr.smith", models.RoleClinician, "Strong@123!")
	require.NoError(t, err)
	patient, err := SeedUser(ctx, stores, "patient1", models.RolePatient, "Strong@123!")
	require.NoError(t, err)

	assignments := repositories.NewAssignmentRepository(testDB.DB)
	require.NoError(t, assignments.Assign(ctx, patient.ID, clinician.ID, admin.ID))
	require.NoError(t, assignments.Assign(ctx, patient.ID, clinician.ID, admin.ID))

	count, err := assignments.CountForPair(ctx, patient.ID, clinician.ID)
	require.NoError(t, err)
	assert.Equal(t, int64(1), count, "repeated assignment must not duplicate rows")

	exists, err := assignments.Exists(ctx, patient.ID, clinician.ID)
	require.NoError(t, err)
	assert.True(t, exists)

	patients, err := assignments.PatientsForClinician(ctx, clinician.ID)
	require.NoError(t, err)
	assert.Equal(t, []uuid.UUID{patient.ID}, patients)

	rows, err := assignments.ListForClinician(ctx, clinician.ID)
	require.NoError(t, err)
	require.Len(t, rows, 1)
	assert.Equal(t, patient.ID, rows[0].PatientID)
	assert.Equal(t, admin.ID, rows[0].CreatedByAdminID)
}

func TestAdminService_AuditTrail(t *testing.T) {
	cleanTables(t)
	ctx := context.Background()
	stores := testDB.NewStores()

	_, err := SeedUser(ctx, stores, "admin1", models.RoleAdmin, "Strong@123!")
	require.NoError(t, err)

	svc := services.NewAdminService(stores, testLogger())

	created, err := svc.CreateUser(ctx, "admin1", "dr.smith", "Temp@123!", "Clinician")
	require.NoError(t, err)
	assert.True(t, created.MustChangePassword)

	count, err := testDB.CountAuditRows(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, count)

	require.NoError(t, svc.DeactivateUser(ctx, "admin1", created.ID))
	require.NoError(t, svc.ActivateUser(ctx, "admin1", created.ID))

	count, err = testDB.CountAuditRows(ctx)
	require.NoError(t, err)
	assert.Equal(t, 3, count, "each successful admin operation appends one entry")

	// A failed operation must not leave an audit entry behind.
	err = svc.EditRole(ctx, "admin1", uuid.New(), "Clinician")
	assert.ErrorIs(t, err, models.ErrNotFound)

	count, err = testDB.CountAuditRows(ctx)
	require.NoError(t, err)
	assert.Equal(t, 3, count)

	actions, err := svc.ListAdminActions(ctx, "admin1", models.AdminActionFilter{
		ActionType: models.ActionCreateUser,
	})
	require.NoError(t, err)
	require.Len(t, actions, 1)
	assert.Equal(t, "username=dr.smith; role=Clinician", actions[0].Details)
	require.NotNil(t, actions[0].TargetUserID)
	assert.Equal(t, created.ID, *actions[0].TargetUserID)
}

func TestBootstrap_SeedsSingleAdmin(t *testing.T) {
	cleanTables(t)
	ctx := context.Background()
	stores := testDB.NewStores()
	cfg := config.BootstrapConfig{AdminUsername: "admin", AdminPassword: "Admin@123!"}

	require.NoError(t, services.EnsureBootstrapAdmin(ctx, stores.Users(), cfg, testLogger()))
	require.NoError(t, services.EnsureBootstrapAdmin(ctx, stores.Users(), cfg, testLogger()))

	admins, err := stores.Users().CountByRole(ctx, models.RoleAdmin)
	require.NoError(t, err)
	assert.Equal(t, int64(1), admins)

	// Seeding is not an admin operation and leaves no audit trace.
	count, err := testDB.CountAuditRows(ctx)
	require.NoError(t, err)
	assert.Equal(t, 0, count)

	seeded, err := stores.Users().GetByUsername(ctx, "admin")
	require.NoError(t, err)
	assert.True(t, seeded.MustChangePassword)
	assert.NoError(t, auth.ComparePassword(seeded.PasswordHash, "Admin@123!"))
}

func TestRegistrationFlow_EndToEnd(t *testing.T) {
	cleanTables(t)
	ctx := context.Background()
	stores := testDB.NewStores()

	_, err := SeedUser(ctx, stores, "admin1", models.RoleAdmin, "Strong@123!")
	require.NoError(t, err)

	reg := services.NewRegistrationService(stores, testLogger())
	sess := session.New()
	authSvc := services.NewAuthService(stores.Users(), sess, testLogger())

	// Patients are approved on registration and can log in immediately.
	patient, err := reg.SelfRegister(ctx, "patient1", "Strong@123!", "Patient")
	require.NoError(t, err)
	assert.True(t, patient.ApprovedByAdmin)

	_, err = authSvc.VerifyCredentials(ctx, "patient1", "Patient", "Strong@123!")
	require.NoError(t, err)
	assert.True(t, sess.IsPatient())
	authSvc.Logout()

	// Clinicians wait for approval before their first login.
	clinician, err := reg.SelfRegister(ctx, "dr.smith", "Strong@123!", "Clinician")
	require.NoError(t, err)
	assert.False(t, clinician.ApprovedByAdmin)

	_, err = authSvc.VerifyCredentials(ctx, "dr.smith", "Clinician", "Strong@123!")
	assert.ErrorIs(t, err, models.ErrPendingApproval)
	assert.False(t, sess.IsAuthenticated())

	pending, err := reg.ListPending(ctx)
	require.NoError(t, err)
	require.Len(t, pending, 1)
	assert.Equal(t, clinician.ID, pending[0].ID)

	require.NoError(t, reg.Approve(ctx, "admin1", clinician.ID))

	_, err = authSvc.VerifyCredentials(ctx, "dr.smith", "Clinician", "Strong@123!")
	require.NoError(t, err)
	assert.True(t, sess.IsClinician())

	count, err := testDB.CountAuditRows(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, count, "approval is audited")
}

func TestRejectFlow_DeleteRemovesUser(t *testing.T) {
	cleanTables(t)
	ctx := context.Background()
	stores := testDB.NewStores()

	_, err := SeedUser(ctx, stores, "admin1", models.RoleAdmin, "Strong@123!")
	require.NoError(t, err)

	reg := services.NewRegistrationService(stores, testLogger())

	applicant, err := reg.SelfRegister(ctx, "dr.doe", "Strong@123!", "Clinician")
	require.NoError(t, err)

	require.NoError(t, reg.Reject(ctx, "admin1", applicant.ID, true))

	_, err = stores.Users().GetByID(ctx, applicant.ID)
	assert.ErrorIs(t, err, models.ErrNotFound)

	count, err := testDB.CountAuditRows(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, count)
}
