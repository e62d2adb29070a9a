package models

// Role is a user's role inside a single project.
type Role string

const (
	RoleAdmin        Role = "admin"
	RoleProjectAdmin Role = "project-admin"
	RoleMember       Role = "member"
)

// AvailableRoles lists every role a membership may carry.
var AvailableRoles = []Role{RoleAdmin, RoleProjectAdmin, RoleMember}

func (r Role) IsValid() bool {
	switch r {
	case RoleAdmin, RoleProjectAdmin, RoleMember:
		return true
	default:
		return false
	}
}

func (r Role) String() string {
	return string(r)
}
