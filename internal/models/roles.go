package models

import "slices"

// Role is the authorization level attached to a user account.
type Role string

const (
	RoleAdmin   Role = "admin"
	RoleManager Role = "manager"
	RoleMember  Role = "member"
)

// Roles lists every role in descending privilege order.
var Roles = []Role{RoleAdmin, RoleManager, RoleMember}

// Valid reports whether r is one of the known roles.
func (r Role) Valid() bool {
	return slices.Contains(Roles, r)
}

// ParseRole returns the role matching s, defaulting to member when s is empty.
func ParseRole(s string) (Role, error) {
	if s == "" {
		return RoleMember, nil
	}
	r := Role(s)
	if !r.Valid() {
		return "", &ValidationError{Field: "role", Message: "must be one of admin, manager, member"}
	}
	return r, nil
}
