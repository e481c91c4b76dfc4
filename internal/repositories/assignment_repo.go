package repositories

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/meditrack/identity/internal/database"
	"github.com/meditrack/identity/internal/models"
)

// AssignmentRepository maps patients to clinicians, many-to-many. Rows are
// written only through AdminService.
type AssignmentRepository struct {
	q database.Querier
}

func NewAssignmentRepository(db *database.DB) *AssignmentRepository {
	return &AssignmentRepository{q: db.Pool}
}

func (r *AssignmentRepository) WithTx(tx pgx.Tx) *AssignmentRepository {
	return &AssignmentRepository{q: tx}
}

// Assign inserts the pair, silently ignoring duplicates.
func (r *AssignmentRepository) Assign(ctx context.Context, patientID, clinicianID, createdByAdminID uuid.UUID) error {
	query := `
		INSERT INTO clinician_patient_map (patient_id, clinician_id, created_at, created_by_admin_id)
		VALUES ($1, $2, $3, $4)
		ON CONFLICT (patient_id, clinician_id) DO NOTHING
	`

	_, err := r.q.Exec(ctx, query, patientID, clinicianID, time.Now().UTC(), createdByAdminID)
	if err != nil {
		return fmt.Errorf("failed to assign patient to clinician: %w", database.MapPostgresError(err))
	}
	return nil
}

func (r *AssignmentRepository) Exists(ctx context.Context, patientID, clinicianID uuid.UUID) (bool, error) {
	var exists bool
	err := r.q.QueryRow(ctx,
		`SELECT EXISTS (SELECT 1 FROM clinician_patient_map WHERE patient_id = $1 AND clinician_id = $2)`,
		patientID, clinicianID).Scan(&exists)
	if err != nil {
		return false, database.MapPostgresError(err)
	}
	return exists, nil
}

// PatientsForClinician lists patient ids assigned to the clinician. Consumed
// by clinical-data views to scope what a clinician may see.
func (r *AssignmentRepository) PatientsForClinician(ctx context.Context, clinicianID uuid.UUID) ([]uuid.UUID, error) {
	return r.listIDs(ctx,
		`SELECT patient_id FROM clinician_patient_map WHERE clinician_id = $1 ORDER BY created_at`, clinicianID)
}

// CliniciansForPatient lists clinician ids assigned to the patient.
func (r *AssignmentRepository) CliniciansForPatient(ctx context.Context, patientID uuid.UUID) ([]uuid.UUID, error) {
	return r.listIDs(ctx,
		`SELECT clinician_id FROM clinician_patient_map WHERE patient_id = $1 ORDER BY created_at`, patientID)
}

// ListForClinician returns the full assignment rows for a clinician, oldest
// first.
func (r *AssignmentRepository) ListForClinician(ctx context.Context, clinicianID uuid.UUID) ([]*models.Assignment, error) {
	query := `
		SELECT patient_id, clinician_id, created_at, created_by_admin_id
		FROM clinician_patient_map
		WHERE clinician_id = $1
		ORDER BY created_at
	`

	rows, err := r.q.Query(ctx, query, clinicianID)
	if err != nil {
		return nil, fmt.Errorf("failed to query assignments: %w", err)
	}
	defer rows.Close()

	assignments := make([]*models.Assignment, 0)
	for rows.Next() {
		var a models.Assignment
		if err := rows.Scan(&a.PatientID, &a.ClinicianID, &a.CreatedAt, &a.CreatedByAdminID); err != nil {
			return nil, fmt.Errorf("failed to scan assignment: %w", err)
		}
		assignments = append(assignments, &a)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating assignment rows: %w", err)
	}

	return assignments, nil
}

func (r *AssignmentRepository) listIDs(ctx context.Context, query string, arg any) ([]uuid.UUID, error) {
	rows, err := r.q.Query(ctx, query, arg)
	if err != nil {
		return nil, fmt.Errorf("failed to query assignments: %w", err)
	}
	defer rows.Close()

	ids := make([]uuid.UUID, 0)
	for rows.Next() {
		var id uuid.UUID
		if err := rows.Scan(&id); err != nil {
			return nil, fmt.Errorf("failed to scan assignment: %w", err)
		}
		ids = append(ids, id)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating assignment rows: %w", err)
	}

	return ids, nil
}

func (r *AssignmentRepository) CountForPair(ctx context.Context, patientID, clinicianID uuid.UUID) (int64, error) {
	var count int64
	err := r.q.QueryRow(ctx,
		`SELECT COUNT(*) FROM clinician_patient_map WHERE patient_id = $1 AND clinician_id = $2`,
		patientID, clinicianID).Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("failed to count assignments: %w", err)
	}
	return count, nil
}
