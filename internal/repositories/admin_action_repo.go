package repositories

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/meditrack/identity/internal/database"
	"github.com/meditrack/identity/internal/models"
)

const actionColumns = `action_id, admin_id, target_user_id, action_type, details, created_at`

// AdminActionRepository is the append-only audit trail. It exposes inserts
// and reads only; nothing in this subsystem updates or deletes entries.
type AdminActionRepository struct {
	q database.Querier
}

func NewAdminActionRepository(db *database.DB) *AdminActionRepository {
	return &AdminActionRepository{q: db.Pool}
}

func (r *AdminActionRepository) WithTx(tx pgx.Tx) *AdminActionRepository {
	return &AdminActionRepository{q: tx}
}

func scanActionRow(scanner rowScanner) (*models.AdminAction, error) {
	var action models.AdminAction
	var details *string

	err := scanner.Scan(
		&action.ActionID, &action.AdminID, &action.TargetUserID,
		&action.ActionType, &details, &action.CreatedAt,
	)
	if err != nil {
		return nil, database.MapPostgresError(err)
	}

	if details != nil {
		action.Details = *details
	}
	return &action, nil
}

// Record appends one audit entry.
func (r *AdminActionRepository) Record(ctx context.Context, action *models.AdminAction) error {
	if action.ActionID == uuid.Nil {
		action.ActionID = uuid.New()
	}
	if action.CreatedAt.IsZero() {
		action.CreatedAt = time.Now().UTC()
	}

	query := `
		INSERT INTO admin_actions (` + actionColumns + `)
		VALUES ($1, $2, $3, $4, $5, $6)
	`

	_, err := r.q.Exec(ctx, query,
		action.ActionID, action.AdminID, action.TargetUserID,
		action.ActionType, action.Details, action.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to record admin action: %w", database.MapPostgresError(err))
	}
	return nil
}

// List returns audit entries newest first, narrowed by the filter's set fields.
func (r *AdminActionRepository) List(ctx context.Context, filter models.AdminActionFilter) ([]*models.AdminAction, error) {
	where := make([]string, 0, 4)
	args := make([]any, 0, 4)

	addClause := func(clause string, arg any) {
		args = append(args, arg)
		where = append(where, fmt.Sprintf(clause, len(args)))
	}

	if filter.AdminID != nil {
		addClause("admin_id = $%d", *filter.AdminID)
	}
	if filter.TargetUserID != nil {
		addClause("target_user_id = $%d", *filter.TargetUserID)
	}
	if filter.ActionType != "" {
		addClause("action_type = $%d", filter.ActionType)
	}
	if filter.Start != nil {
		addClause("created_at >= $%d", *filter.Start)
	}
	if filter.End != nil {
		addClause("created_at <= $%d", *filter.End)
	}

	query := `SELECT ` + actionColumns + ` FROM admin_actions`
	if len(where) > 0 {
		query += " WHERE " + strings.Join(where, " AND ")
	}
	query += " ORDER BY created_at DESC"

	limit := filter.Limit
	if limit <= 0 {
		limit = 100
	}
	args = append(args, limit)
	query += fmt.Sprintf(" LIMIT $%d", len(args))
	if filter.Offset > 0 {
		args = append(args, filter.Offset)
		query += fmt.Sprintf(" OFFSET $%d", len(args))
	}

	rows, err := r.q.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query admin actions: %w", err)
	}
	defer rows.Close()

	actions := make([]*models.AdminAction, 0)
	for rows.Next() {
		action, err := scanActionRow(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan admin action: %w", err)
		}
		actions = append(actions, action)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating admin action rows: %w", err)
	}

	return actions, nil
}

func (r *AdminActionRepository) CountTotal(ctx context.Context) (int64, error) {
	var count int64
	err := r.q.QueryRow(ctx, `SELECT COUNT(*) FROM admin_actions`).Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("failed to count admin actions: %w", err)
	}
	return count, nil
}
