package repositories

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/meditrack/identity/internal/database"
	"github.com/meditrack/identity/internal/models"
	"github.com/meditrack/identity/pkg/auth"
)

const userColumns = `user_id, username, password_hash, role, created_at, is_active, created_by_admin_id, last_password_reset, must_change_password, approved_by_admin`

// UserRepository is the durable identity store. It owns username uniqueness
// and the closed role constraint; both are also enforced at the schema level.
type UserRepository struct {
	q database.Querier
}

func NewUserRepository(db *database.DB) *UserRepository {
	return &UserRepository{q: db.Pool}
}

// WithTx returns a copy bound to tx so writes join the caller's transaction.
func (r *UserRepository) WithTx(tx pgx.Tx) *UserRepository {
	return &UserRepository{q: tx}
}

// rowScanner interface for scanning user rows (supports both single row and multiple rows)
type rowScanner interface {
	Scan(dest ...interface{}) error
}

func scanUserRow(scanner rowScanner) (*models.User, error) {
	var user models.User
	var role string

	err := scanner.Scan(
		&user.ID, &user.Username, &user.PasswordHash, &role,
		&user.CreatedAt, &user.IsActive, &user.CreatedByAdminID,
		&user.LastPasswordReset, &user.MustChangePassword, &user.ApprovedByAdmin,
	)
	if err != nil {
		return nil, database.MapPostgresError(err)
	}

	user.Role = models.Role(role)
	return &user, nil
}

func scanUserRows(rows pgx.Rows) ([]*models.User, error) {
	defer rows.Close()

	users := make([]*models.User, 0)

	for rows.Next() {
		user, err := scanUserRow(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan user: %w", err)
		}
		users = append(users, user)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating rows: %w", err)
	}

	return users, nil
}

// Create inserts a new identity record. The username shape and role are
// validated here before anything is written; password validation happens at
// the service layer where the plaintext is still available.
func (r *UserRepository) Create(ctx context.Context, user *models.User) (*models.User, error) {
	if err := auth.ValidateUsername(user.Username); err != nil {
		return nil, fmt.Errorf("%w: %s", models.ErrInvalidUsername, err)
	}
	role, err := models.ParseRole(string(user.Role))
	if err != nil {
		return nil, err
	}
	user.Role = role

	if user.ID == uuid.Nil {
		user.ID = uuid.New()
	}
	if user.CreatedAt.IsZero() {
		user.CreatedAt = time.Now().UTC()
	}

	query := `
		INSERT INTO users (` + userColumns + `)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
		RETURNING ` + userColumns

	created, err := scanUserRow(r.q.QueryRow(ctx, query,
		user.ID, user.Username, user.PasswordHash, string(user.Role),
		user.CreatedAt, user.IsActive, user.CreatedByAdminID,
		user.LastPasswordReset, user.MustChangePassword, user.ApprovedByAdmin,
	))
	if err != nil {
		return nil, err
	}

	return created, nil
}

func (r *UserRepository) GetByID(ctx context.Context, id uuid.UUID) (*models.User, error) {
	query := `SELECT ` + userColumns + ` FROM users WHERE user_id = $1`
	return scanUserRow(r.q.QueryRow(ctx, query, id))
}

func (r *UserRepository) GetByUsername(ctx context.Context, username string) (*models.User, error) {
	query := `SELECT ` + userColumns + ` FROM users WHERE username = $1`
	return scanUserRow(r.q.QueryRow(ctx, query, username))
}

func (r *UserRepository) ExistsByUsername(ctx context.Context, username string) (bool, error) {
	var exists bool
	err := r.q.QueryRow(ctx, `SELECT EXISTS (SELECT 1 FROM users WHERE username = $1)`, username).Scan(&exists)
	if err != nil {
		return false, database.MapPostgresError(err)
	}
	return exists, nil
}

// List returns users newest first.
func (r *UserRepository) List(ctx context.Context, limit, offset int) ([]*models.User, error) {
	query := `SELECT ` + userColumns + ` FROM users ORDER BY created_at DESC LIMIT $1 OFFSET $2`

	rows, err := r.q.Query(ctx, query, limit, offset)
	if err != nil {
		return nil, fmt.Errorf("failed to query users: %w", err)
	}

	return scanUserRows(rows)
}

// ListPending returns elevated-role accounts still waiting on admin approval.
func (r *UserRepository) ListPending(ctx context.Context) ([]*models.User, error) {
	query := `
		SELECT ` + userColumns + ` FROM users
		WHERE approved_by_admin = false AND role IN ('Clinician', 'Admin')
		ORDER BY created_at DESC
	`

	rows, err := r.q.Query(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to query pending users: %w", err)
	}

	return scanUserRows(rows)
}

// exec runs an update statement, translating zero affected rows to ErrNotFound.
func (r *UserRepository) exec(ctx context.Context, query string, args ...any) error {
	tag, err := r.q.Exec(ctx, query, args...)
	if err != nil {
		return database.MapPostgresError(err)
	}
	if tag.RowsAffected() == 0 {
		return models.ErrNotFound
	}
	return nil
}

func (r *UserRepository) UpdateRole(ctx context.Context, id uuid.UUID, role models.Role) error {
	normalized, err := models.ParseRole(string(role))
	if err != nil {
		return err
	}
	return r.exec(ctx, `UPDATE users SET role = $1 WHERE user_id = $2`, string(normalized), id)
}

func (r *UserRepository) SetActive(ctx context.Context, id uuid.UUID, active bool) error {
	return r.exec(ctx, `UPDATE users SET is_active = $1 WHERE user_id = $2`, active, id)
}

// MarkApproved clears the approval gate and reactivates the account.
func (r *UserRepository) MarkApproved(ctx context.Context, id uuid.UUID) error {
	return r.exec(ctx, `UPDATE users SET approved_by_admin = true, is_active = true WHERE user_id = $1`, id)
}

// MarkRejected keeps the record but blocks authentication until re-approved.
func (r *UserRepository) MarkRejected(ctx context.Context, id uuid.UUID) error {
	return r.exec(ctx, `UPDATE users SET approved_by_admin = false, is_active = false WHERE user_id = $1`, id)
}

func (r *UserRepository) UpdatePasswordHash(ctx context.Context, id uuid.UUID, hash string, mustChange bool) error {
	return r.exec(ctx,
		`UPDATE users SET password_hash = $1, last_password_reset = $2, must_change_password = $3 WHERE user_id = $4`,
		hash, time.Now().UTC(), mustChange, id)
}

func (r *UserRepository) Delete(ctx context.Context, id uuid.UUID) error {
	return r.exec(ctx, `DELETE FROM users WHERE user_id = $1`, id)
}

func (r *UserRepository) CountByRole(ctx context.Context, role models.Role) (int64, error) {
	var count int64
	err := r.q.QueryRow(ctx, `SELECT COUNT(*) FROM users WHERE role = $1`, string(role)).Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("failed to count users by role: %w", err)
	}
	return count, nil
}

func (r *UserRepository) CountActive(ctx context.Context) (int64, error) {
	var count int64
	err := r.q.QueryRow(ctx, `SELECT COUNT(*) FROM users WHERE is_active = true`).Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("failed to count active users: %w", err)
	}
	return count, nil
}

func (r *UserRepository) CountPending(ctx context.Context) (int64, error) {
	var count int64
	err := r.q.QueryRow(ctx,
		`SELECT COUNT(*) FROM users WHERE approved_by_admin = false AND role IN ('Clinician', 'Admin')`).Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("failed to count pending users: %w", err)
	}
	return count, nil
}

func (r *UserRepository) CountTotal(ctx context.Context) (int64, error) {
	var count int64
	err := r.q.QueryRow(ctx, `SELECT COUNT(*) FROM users`).Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("failed to count users: %w", err)
	}
	return count, nil
}
