package models

import "errors"

// Sentinel errors for common failure conditions
var (
	ErrNotFound       = errors.New("resource not found")
	ErrForbidden      = errors.New("forbidden")
	ErrInternalServer = errors.New("internal server error")

	// Validation errors, surfaced before anything is written
	ErrDuplicateUsername = errors.New("username already exists")
	ErrInvalidUsername   = errors.New("invalid username")
	ErrInvalidPassword   = errors.New("invalid password")
	ErrInvalidRole       = errors.New("invalid role")

	// Admin operation errors
	ErrSelfDemotion = errors.New("cannot remove own admin role")
	ErrRoleMismatch = errors.New("assignment target has wrong role")

	// Authentication errors
	ErrInvalidCredentials = errors.New("invalid credentials")
	ErrPendingApproval    = errors.New("account pending admin approval")
	ErrAccountDisabled    = errors.New("account is disabled")
)

// IsAuthFailure reports whether err is one of the credential-check outcomes.
// Unauthenticated callers should render all of these as a single
// undifferentiated message to avoid account enumeration.
func IsAuthFailure(err error) bool {
	return errors.Is(err, ErrInvalidCredentials) ||
		errors.Is(err, ErrPendingApproval) ||
		errors.Is(err, ErrAccountDisabled)
}
