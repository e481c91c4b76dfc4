package services

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/meditrack/identity/internal/models"
	"github.com/meditrack/identity/pkg/auth"
)

// MockUserStore implements UserStore for testing
type MockUserStore struct {
	CreateFunc             func(ctx context.Context, user *models.User) (*models.User, error)
	GetByIDFunc            func(ctx context.Context, id uuid.UUID) (*models.User, error)
	GetByUsernameFunc      func(ctx context.Context, username string) (*models.User, error)
	ExistsByUsernameFunc   func(ctx context.Context, username string) (bool, error)
	ListFunc               func(ctx context.Context, limit, offset int) ([]*models.User, error)
	ListPendingFunc        func(ctx context.Context) ([]*models.User, error)
	UpdateRoleFunc         func(ctx context.Context, id uuid.UUID, role models.Role) error
	SetActiveFunc          func(ctx context.Context, id uuid.UUID, active bool) error
	MarkApprovedFunc       func(ctx context.Context, id uuid.UUID) error
	MarkRejectedFunc       func(ctx context.Context, id uuid.UUID) error
	UpdatePasswordHashFunc func(ctx context.Context, id uuid.UUID, hash string, mustChange bool) error
	DeleteFunc             func(ctx context.Context, id uuid.UUID) error
	CountByRoleFunc        func(ctx context.Context, role models.Role) (int64, error)
	CountActiveFunc        func(ctx context.Context) (int64, error)
	CountPendingFunc       func(ctx context.Context) (int64, error)
	CountTotalFunc         func(ctx context.Context) (int64, error)
}

func (m *MockUserStore) Create(ctx context.Context, user *models.User) (*models.User, error) {
	if m.CreateFunc != nil {
		return m.CreateFunc(ctx, user)
	}
	created := *user
	if created.ID == uuid.Nil {
		created.ID = uuid.New()
	}
	return &created, nil
}

func (m *MockUserStore) GetByID(ctx context.Context, id uuid.UUID) (*models.User, error) {
	if m.GetByIDFunc != nil {
		return m.GetByIDFunc(ctx, id)
	}
	return nil, models.ErrNotFound
}

func (m *MockUserStore) GetByUsername(ctx context.Context, username string) (*models.User, error) {
	if m.GetByUsernameFunc != nil {
		return m.GetByUsernameFunc(ctx, username)
	}
	return nil, models.ErrNotFound
}

func (m *MockUserStore) ExistsByUsername(ctx context.Context, username string) (bool, error) {
	if m.ExistsByUsernameFunc != nil {
		return m.ExistsByUsernameFunc(ctx, username)
	}
	return false, nil
}

func (m *MockUserStore) List(ctx context.Context, limit, offset int) ([]*models.User, error) {
	if m.ListFunc != nil {
		return m.ListFunc(ctx, limit, offset)
	}
	return []*models.User{}, nil
}

func (m *MockUserStore) ListPending(ctx context.Context) ([]*models.User, error) {
	if m.ListPendingFunc != nil {
		return m.ListPendingFunc(ctx)
	}
	return []*models.User{}, nil
}

func (m *MockUserStore) UpdateRole(ctx context.Context, id uuid.UUID, role models.Role) error {
	if m.UpdateRoleFunc != nil {
		return m.UpdateRoleFunc(ctx, id, role)
	}
	return nil
}

func (m *MockUserStore) SetActive(ctx context.Context, id uuid.UUID, active bool) error {
	if m.SetActiveFunc != nil {
		return m.SetActiveFunc(ctx, id, active)
	}
	return nil
}

func (m *MockUserStore) MarkApproved(ctx context.Context, id uuid.UUID) error {
	if m.MarkApprovedFunc != nil {
		return m.MarkApprovedFunc(ctx, id)
	}
	return nil
}

func (m *MockUserStore) MarkRejected(ctx context.Context, id uuid.UUID) error {
	if m.MarkRejectedFunc != nil {
		return m.MarkRejectedFunc(ctx, id)
	}
	return nil
}

func (m *MockUserStore) UpdatePasswordHash(ctx context.Context, id uuid.UUID, hash string, mustChange bool) error {
	if m.UpdatePasswordHashFunc != nil {
		return m.UpdatePasswordHashFunc(ctx, id, hash, mustChange)
	}
	return nil
}

func (m *MockUserStore) Delete(ctx context.Context, id uuid.UUID) error {
	if m.DeleteFunc != nil {
		return m.DeleteFunc(ctx, id)
	}
	return nil
}

func (m *MockUserStore) CountByRole(ctx context.Context, role models.Role) (int64, error) {
	if m.CountByRoleFunc != nil {
		return m.CountByRoleFunc(ctx, role)
	}
	return 0, nil
}

func (m *MockUserStore) CountActive(ctx context.Context) (int64, error) {
	if m.CountActiveFunc != nil {
		return m.CountActiveFunc(ctx)
	}
	return 0, nil
}

func (m *MockUserStore) CountPending(ctx context.Context) (int64, error) {
	if m.CountPendingFunc != nil {
		return m.CountPendingFunc(ctx)
	}
	return 0, nil
}

func (m *MockUserStore) CountTotal(ctx context.Context) (int64, error) {
	if m.CountTotalFunc != nil {
		return m.CountTotalFunc(ctx)
	}
	return 0, nil
}

// MockActionStore implements ActionStore for testing. Recorded collects every
// entry written through Record so tests can assert on audit behavior.
type MockActionStore struct {
	RecordFunc func(ctx context.Context, action *models.AdminAction) error
	ListFunc   func(ctx context.Context, filter models.AdminActionFilter) ([]*models.AdminAction, error)
	Recorded   []*models.AdminAction
}

func (m *MockActionStore) Record(ctx context.Context, action *models.AdminAction) error {
	if m.RecordFunc != nil {
		return m.RecordFunc(ctx, action)
	}
	m.Recorded = append(m.Recorded, action)
	return nil
}

func (m *MockActionStore) List(ctx context.Context, filter models.AdminActionFilter) ([]*models.AdminAction, error) {
	if m.ListFunc != nil {
		return m.ListFunc(ctx, filter)
	}
	return m.Recorded, nil
}

// MockAssignmentStore implements AssignmentStore for testing
type MockAssignmentStore struct {
	AssignFunc               func(ctx context.Context, patientID, clinicianID, createdByAdminID uuid.UUID) error
	PatientsForClinicianFunc func(ctx context.Context, clinicianID uuid.UUID) ([]uuid.UUID, error)
	CliniciansForPatientFunc func(ctx context.Context, patientID uuid.UUID) ([]uuid.UUID, error)
}

func (m *MockAssignmentStore) Assign(ctx context.Context, patientID, clinicianID, createdByAdminID uuid.UUID) error {
	if m.AssignFunc != nil {
		return m.AssignFunc(ctx, patientID, clinicianID, createdByAdminID)
	}
	return nil
}

func (m *MockAssignmentStore) PatientsForClinician(ctx context.Context, clinicianID uuid.UUID) ([]uuid.UUID, error) {
	if m.PatientsForClinicianFunc != nil {
		return m.PatientsForClinicianFunc(ctx, clinicianID)
	}
	return []uuid.UUID{}, nil
}

func (m *MockAssignmentStore) CliniciansForPatient(ctx context.Context, patientID uuid.UUID) ([]uuid.UUID, error) {
	if m.CliniciansForPatientFunc != nil {
		return m.CliniciansForPatientFunc(ctx, patientID)
	}
	return []uuid.UUID{}, nil
}

// MockStoreSet implements StoreSet over the three mocks. InTx simply invokes
// the callback with the same mocks; transactional semantics are covered by
// the integration tests.
type MockStoreSet struct {
	UserStore       *MockUserStore
	ActionStore     *MockActionStore
	AssignmentStore *MockAssignmentStore
}

func NewMockStoreSet() *MockStoreSet {
	return &MockStoreSet{
		UserStore:       &MockUserStore{},
		ActionStore:     &MockActionStore{},
		AssignmentStore: &MockAssignmentStore{},
	}
}

func (m *MockStoreSet) Users() UserStore             { return m.UserStore }
func (m *MockStoreSet) Actions() ActionStore         { return m.ActionStore }
func (m *MockStoreSet) Assignments() AssignmentStore { return m.AssignmentStore }

func (m *MockStoreSet) InTx(ctx context.Context, fn func(UserStore, ActionStore, AssignmentStore) error) error {
	return fn(m.UserStore, m.ActionStore, m.AssignmentStore)
}

// NewTestUser builds a valid active user for tests.
func NewTestUser(username string, role models.Role) *models.User {
	return &models.User{
		ID:              uuid.New(),
		Username:        username,
		PasswordHash:    auth.LegacyHash("Strong@123!"),
		Role:            role,
		CreatedAt:       time.Now().UTC(),
		IsActive:        true,
		ApprovedByAdmin: true,
	}
}
