package models

import (
	"time"

	"github.com/google/uuid"
)

type User struct {
	ID                 uuid.UUID
	Username           string
	PasswordHash       string
	Role               Role
	CreatedAt          time.Time
	IsActive           bool
	CreatedByAdminID   *uuid.UUID // set only for admin-created accounts
	LastPasswordReset  *time.Time
	MustChangePassword bool
	ApprovedByAdmin    bool
}

// CanAuthenticate reports whether the account passes the state checks that
// apply after the credentials themselves have been verified: the account must
// be active, and elevated roles must have cleared the approval gate.
func (u *User) CanAuthenticate() error {
	if !u.IsActive {
		return ErrAccountDisabled
	}
	if u.Role.Elevated() && !u.ApprovedByAdmin {
		return ErrPendingApproval
	}
	return nil
}
