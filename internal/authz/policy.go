// Package authz decides whether a role may perform an operation. The policy
// is a fixed table with no state, so checks need no locking and no I/O.
package authz

import (
	"errors"

	"github.com/taskhub-dev/taskhub/internal/models"
)

// Sentinel errors; the authorization middleware returns their text with its
// 401 and 403 responses.
var (
	ErrUnauthenticated = errors.New("authentication required")
	ErrForbidden       = errors.New("insufficient role for this operation")
)

// Operation names a protected API action as "<entity>.<verb>".
type Operation string

const (
	ProjectRead   Operation = "project.read"
	ProjectCreate Operation = "project.create"
	ProjectUpdate Operation = "project.update"
	ProjectDelete Operation = "project.delete"

	TaskRead   Operation = "task.read"
	TaskCreate Operation = "task.create"
	TaskUpdate Operation = "task.update"
	TaskDelete Operation = "task.delete"

	MilestoneRead   Operation = "milestone.read"
	MilestoneCreate Operation = "milestone.create"
	MilestoneUpdate Operation = "milestone.update"
	MilestoneDelete Operation = "milestone.delete"
)

// policy is the full permission table. Reads are granted to members only;
// admins and managers hold no read permission. That asymmetry is the
// documented product policy, not an omission, so it is kept literal here.
var policy = map[Operation]map[models.Role]bool{
	ProjectRead:   {models.RoleMember: true},
	ProjectCreate: {models.RoleAdmin: true},
	ProjectUpdate: {models.RoleManager: true},
	ProjectDelete: {models.RoleAdmin: true},

	TaskRead:   {models.RoleMember: true},
	TaskCreate: {models.RoleAdmin: true},
	TaskUpdate: {models.RoleManager: true},
	TaskDelete: {models.RoleAdmin: true},

	MilestoneRead:   {models.RoleMember: true},
	MilestoneCreate: {models.RoleAdmin: true},
	MilestoneUpdate: {models.RoleManager: true},
	MilestoneDelete: {models.RoleAdmin: true},
}

// IsAuthorized reports whether role may perform op. Unknown operations and
// unknown roles are denied.
func IsAuthorized(role models.Role, op Operation) bool {
	return policy[op][role]
}

// Operations returns every operation the policy covers.
func Operations() []Operation {
	ops := make([]Operation, 0, len(policy))
	for op := range policy {
		ops = append(ops, op)
	}
	return ops
}
