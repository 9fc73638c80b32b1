package models

import "gorm.io/gorm"

// Role is the closed set of roles a principal can hold. There is no
// privilege inheritance between them; each role's allowed operations are
// listed explicitly in the authz policy table.
type Role string

const (
	RoleAdmin   Role = "admin"
	RoleManager Role = "manager"
	RoleMember  Role = "member"
)

// ValidRole reports whether s names one of the known roles.
func ValidRole(s string) bool {
	switch Role(s) {
	case RoleAdmin, RoleManager, RoleMember:
		return true
	}
	return false
}

// RoleAssignment maps a user to their single active role. The unique index
// on UserID enforces at most one assignment per user.
type RoleAssignment struct {
	gorm.Model

	UserID uint `gorm:"not null;uniqueIndex"`
	Role   Role `gorm:"not null"`

	// Relationships
	User          User      `gorm:"foreignKey:UserID;constraint:OnUpdate:Cascade,OnDelete:CASCADE"`
	OwnedProjects []Project `gorm:"foreignKey:OwnerID;constraint:OnUpdate:Cascade,OnDelete:CASCADE"`
}

// RoleGroup is a named collection of users sharing a role. One group exists
// per role; groups are seeded at startup.
type RoleGroup struct {
	gorm.Model

	Name Role `gorm:"uniqueIndex;not null"`

	// Relationships
	Members []RoleGroupMember `gorm:"foreignKey:GroupID;constraint:OnUpdate:Cascade,OnDelete:CASCADE"`
}

// RoleGroupMember is the join between users and role groups. The unique
// index on UserID enforces membership in at most one group at a time.
type RoleGroupMember struct {
	gorm.Model

	GroupID uint `gorm:"not null;index"`
	UserID  uint `gorm:"not null;uniqueIndex"`

	// Relationships
	Group RoleGroup `gorm:"foreignKey:GroupID;constraint:OnUpdate:Cascade,OnDelete:CASCADE"`
	User  User      `gorm:"foreignKey:UserID;constraint:OnUpdate:Cascade,OnDelete:CASCADE"`
}
