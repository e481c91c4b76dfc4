package services

import (
	"context"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/meditrack/identity/internal/database"
	"github.com/meditrack/identity/internal/models"
	"github.com/meditrack/identity/internal/repositories"
)

// UserStore is the identity-store surface consumed by the services.
type UserStore interface {
	Create(ctx context.Context, user *models.User) (*models.User, error)
	GetByID(ctx context.Context, id uuid.UUID) (*models.User, error)
	GetByUsername(ctx context.Context, username string) (*models.User, error)
	ExistsByUsername(ctx context.Context, username string) (bool, error)
	List(ctx context.Context, limit, offset int) ([]*models.User, error)
	ListPending(ctx context.Context) ([]*models.User, error)
	UpdateRole(ctx context.Context, id uuid.UUID, role models.Role) error
	SetActive(ctx context.Context, id uuid.UUID, active bool) error
	MarkApproved(ctx context.Context, id uuid.UUID) error
	MarkRejected(ctx context.Context, id uuid.UUID) error
	UpdatePasswordHash(ctx context.Context, id uuid.UUID, hash string, mustChange bool) error
	Delete(ctx context.Context, id uuid.UUID) error
	CountByRole(ctx context.Context, role models.Role) (int64, error)
	CountActive(ctx context.Context) (int64, error)
	CountPending(ctx context.Context) (int64, error)
	CountTotal(ctx context.Context) (int64, error)
}

// ActionStore is the append-only audit trail surface.
type ActionStore interface {
	Record(ctx context.Context, action *models.AdminAction) error
	List(ctx context.Context, filter models.AdminActionFilter) ([]*models.AdminAction, error)
}

// AssignmentStore is the patient-clinician mapping surface.
type AssignmentStore interface {
	Assign(ctx context.Context, patientID, clinicianID, createdByAdminID uuid.UUID) error
	PatientsForClinician(ctx context.Context, clinicianID uuid.UUID) ([]uuid.UUID, error)
	CliniciansForPatient(ctx context.Context, patientID uuid.UUID) ([]uuid.UUID, error)
}

// StoreSet bundles the three stores. InTx hands the callback stores bound to
// a single transaction so that a mutation and its audit entry commit or roll
// back together.
type StoreSet interface {
	Users() UserStore
	Actions() ActionStore
	Assignments() AssignmentStore
	InTx(ctx context.Context, fn func(users UserStore, actions ActionStore, assignments AssignmentStore) error) error
}

// Stores is the production StoreSet over a pgx pool.
type Stores struct {
	db          *database.DB
	users       *repositories.UserRepository
	actions     *repositories.AdminActionRepository
	assignments *repositories.AssignmentRepository
}

func NewStores(db *database.DB) *Stores {
	return &Stores{
		db:          db,
		users:       repositories.NewUserRepository(db),
		actions:     repositories.NewAdminActionRepository(db),
		assignments: repositories.NewAssignmentRepository(db),
	}
}

func (s *Stores) Users() UserStore             { return s.users }
func (s *Stores) Actions() ActionStore         { return s.actions }
func (s *Stores) Assignments() AssignmentStore { return s.assignments }

func (s *Stores) InTx(ctx context.Context, fn func(UserStore, ActionStore, AssignmentStore) error) error {
	return s.db.WithTransaction(ctx, func(tx pgx.Tx) error {
		return fn(s.users.WithTx(tx), s.actions.WithTx(tx), s.assignments.WithTx(tx))
	})
}
