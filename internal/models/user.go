// internal/models/user.go
package models

// Role is a functional role a user may hold. Membership is many-to-many.
type Role string

const (
	RoleEmployee   Role = "EMPLOYEE"
	RoleManager    Role = "MANAGER"
	RoleAccountant Role = "ACCOUNTANT"
	RoleAdmin      Role = "ADMIN"
)

// AllRoles lists every seeded role.
var AllRoles = []Role{RoleEmployee, RoleManager, RoleAccountant, RoleAdmin}

// Valid reports whether r is one of the seeded roles.
func (r Role) Valid() bool {
	for _, known := range AllRoles {
		if r == known {
			return true
		}
	}
	return false
}

type User struct {
	ID    string `json:"id"`
	Name  string `json:"name"`
	Email string `json:"email"`
}

// RoleSet is the set of roles resolved for a user.
type RoleSet map[Role]struct{}

func NewRoleSet(roles ...Role) RoleSet {
	set := make(RoleSet, len(roles))
	for _, r := range roles {
		set[r] = struct{}{}
	}
	return set
}

func (s RoleSet) Has(r Role) bool {
	_, ok := s[r]
	return ok
}
