package domain

import "fmt"

// Role is the closed set of actor kinds taking part in an order.
type Role string

const (
	RoleCustomer Role = "customer"
	RoleCurator  Role = "curator"
	RoleExecutor Role = "executor"
)

// Roles lists every role.
var Roles = []Role{RoleCustomer, RoleCurator, RoleExecutor}

// Valid reports whether r is one of the three known roles.
func (r Role) Valid() bool {
	switch r {
	case RoleCustomer, RoleCurator, RoleExecutor:
		return true
	}
	return false
}

// ParseRole converts a stored role name into a Role.
func ParseRole(s string) (Role, error) {
	r := Role(s)
	if !r.Valid() {
		return "", fmt.Errorf("unknown role %q", s)
	}
	return r, nil
}

// Profile is an actor linked to one external user identity.
// It is owned by the authentication subsystem; the engine only reads it.
type Profile struct {
	ID          int64
	UserID      int64
	Role        Role
	CompanyName string
	FullName    string
}

// Platform is an executor production site.
// An executor's company name is the platform code it operates.
type Platform struct {
	Code        string
	CompanyName string
}

// Actor is a profile together with the platform its company resolves to.
// Platform is empty when the company operates no known platform.
type Actor struct {
	Profile
	Platform string
}
