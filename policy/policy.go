// Package policy decides what a project member may do. Every function is pure:
// callers load the membership list and pass it in.
package policy

import (
	"project-camp/api/models"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

type Action string

const (
	ViewProject   Action = "project:view"
	UpdateProject Action = "project:update"
	DeleteProject Action = "project:delete"
	ManageMembers Action = "members:manage"

	CreateTask    Action = "task:create"
	UpdateTask    Action = "task:update"
	DeleteTask    Action = "task:delete"
	CreateSubTask Action = "subtask:create"
	UpdateSubTask Action = "subtask:update"
	DeleteSubTask Action = "subtask:delete"

	CreateNote Action = "note:create"
	UpdateNote Action = "note:update"
	DeleteNote Action = "note:delete"
)

var (
	everyone = []models.Role{models.RoleAdmin, models.RoleProjectAdmin, models.RoleMember}
	editors  = []models.Role{models.RoleAdmin, models.RoleProjectAdmin}
	admins   = []models.Role{models.RoleAdmin}
)

// matrix is the canonical permission table.
var matrix = map[Action][]models.Role{
	ViewProject:   everyone,
	UpdateProject: admins,
	DeleteProject: admins,
	ManageMembers: admins,

	CreateTask:    editors,
	UpdateTask:    editors,
	DeleteTask:    editors,
	CreateSubTask: editors,
	UpdateSubTask: everyone,
	DeleteSubTask: editors,

	CreateNote: editors,
	UpdateNote: editors,
	DeleteNote: editors,
}

// Reasons reported with a denied Decision.
const (
	ReasonNotMember     = "You are not a member of this project"
	ReasonForbidden     = "You do not have permission to perform this action"
	ReasonLastAdmin     = "A project must keep at least one admin"
	ReasonTargetMissing = "User is not a member of this project"
	ReasonInvalidRole   = "Invalid role"
)

// Decision is an allow/deny answer with the reason for a denial.
type Decision struct {
	Allowed bool
	Reason  string
}

func allow() Decision                { return Decision{Allowed: true} }
func deny(reason string) Decision    { return Decision{Reason: reason} }
func (d Decision) Denied() bool      { return !d.Allowed }
func (d Decision) IsLastAdmin() bool { return d.Reason == ReasonLastAdmin }

// Allows reports whether role may perform action.
func Allows(role models.Role, action Action) bool {
	for _, r := range matrix[action] {
		if r == role {
			return true
		}
	}
	return false
}

// RolesFor returns the roles permitted to perform action.
func RolesFor(action Action) []models.Role {
	roles := matrix[action]
	out := make([]models.Role, len(roles))
	copy(out, roles)
	return out
}

// RoleOf finds the role of user among members.
func RoleOf(user primitive.ObjectID, members []models.ProjectMember) (models.Role, bool) {
	for _, m := range members {
		if m.User == user {
			return m.Role, true
		}
	}
	return "", false
}

// AdminCount counts the admin memberships.
func AdminCount(members []models.ProjectMember) int {
	n := 0
	for _, m := range members {
		if m.Role == models.RoleAdmin {
			n++
		}
	}
	return n
}

// Check evaluates action for user against the project's members.
func Check(user primitive.ObjectID, members []models.ProjectMember, action Action) Decision {
	role, ok := RoleOf(user, members)
	if !ok {
		return deny(ReasonNotMember)
	}
	if !Allows(role, action) {
		return deny(ReasonForbidden)
	}
	return allow()
}

func Can(user primitive.ObjectID, members []models.ProjectMember, action Action) bool {
	return Check(user, members, action).Allowed
}

func CanManageMembers(user primitive.ObjectID, members []models.ProjectMember) bool {
	return Can(user, members, ManageMembers)
}

func CanUpdateProject(user primitive.ObjectID, members []models.ProjectMember) bool {
	return Can(user, members, UpdateProject)
}

func CanDeleteProject(user primitive.ObjectID, members []models.ProjectMember) bool {
	return Can(user, members, DeleteProject)
}

// CanRemoveMember applies member management rights and last-admin protection.
// Removing the sole admin is denied whoever asks, including that admin.
func CanRemoveMember(user, target primitive.ObjectID, members []models.ProjectMember) Decision {
	if d := Check(user, members, ManageMembers); d.Denied() {
		return d
	}
	targetRole, ok := RoleOf(target, members)
	if !ok {
		return deny(ReasonTargetMissing)
	}
	if targetRole == models.RoleAdmin && AdminCount(members) <= 1 {
		return deny(ReasonLastAdmin)
	}
	return allow()
}

// CanChangeRole is CanRemoveMember for a role change: demoting the last admin is
// the same as removing it.
func CanChangeRole(user, target primitive.ObjectID, newRole models.Role, members []models.ProjectMember) Decision {
	if !newRole.IsValid() {
		return deny(ReasonInvalidRole)
	}
	if d := Check(user, members, ManageMembers); d.Denied() {
		return d
	}
	targetRole, ok := RoleOf(target, members)
	if !ok {
		return deny(ReasonTargetMissing)
	}
	if targetRole == models.RoleAdmin && newRole != models.RoleAdmin && AdminCount(members) <= 1 {
		return deny(ReasonLastAdmin)
	}
	return allow()
}
