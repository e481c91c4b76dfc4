package models

import "strings"

// Role is the closed set of account roles. Values are stored in canonical
// casing and the users table carries a matching CHECK constraint.
type Role string

const (
	RoleAdmin     Role = "Admin"
	RoleClinician Role = "Clinician"
	RolePatient   Role = "Patient"
)

// AllowedRoles lists every legal role in canonical casing.
var AllowedRoles = []Role{RoleAdmin, RoleClinician, RolePatient}

// ParseRole matches raw case-insensitively against the allowed roles and
// returns the canonical value, or ErrInvalidRole.
func ParseRole(raw string) (Role, error) {
	trimmed := strings.TrimSpace(raw)
	for _, r := range AllowedRoles {
		if strings.EqualFold(string(r), trimmed) {
			return r, nil
		}
	}
	return "", ErrInvalidRole
}

func (r Role) String() string { return string(r) }

// Elevated reports whether the role is subject to the admin approval gate.
func (r Role) Elevated() bool {
	return r == RoleAdmin || r == RoleClinician
}
