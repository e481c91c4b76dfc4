package models

import (
	"time"

	"github.com/google/uuid"
)

// Action types recorded in the admin audit trail
const (
	ActionCreateUser          = "CreateUser"
	ActionEditRole            = "EditRole"
	ActionDeactivateUser      = "DeactivateUser"
	ActionActivateUser        = "ActivateUser"
	ActionResetPassword       = "ResetPassword"
	ActionAssignPatient       = "AssignPatient"
	ActionApproveRegistration = "ApproveRegistration"
	ActionRejectRegistration  = "RejectRegistration"
	ActionDeleteUser          = "DeleteUser"
)

// AdminAction is a single append-only audit entry describing one privileged
// mutation. Entries are never updated or deleted by this subsystem.
type AdminAction struct {
	ActionID     uuid.UUID
	AdminID      *uuid.UUID // nil when the mutation was system-generated
	TargetUserID *uuid.UUID
	ActionType   string
	Details      string
	CreatedAt    time.Time
}

// AdminActionFilter narrows ListAdminActions queries. Zero-value fields are
// ignored.
type AdminActionFilter struct {
	AdminID      *uuid.UUID
	TargetUserID *uuid.UUID
	ActionType   string
	Start        *time.Time
	End          *time.Time
	Limit        int
	Offset       int
}
