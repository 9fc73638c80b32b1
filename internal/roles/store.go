// Package roles is the source of truth for principal role assignments and
// role-group membership. Assignment and membership always change together in
// one transaction, so readers never observe a user in zero or two groups.
package roles

import (
	"errors"

	"github.com/taskhub-dev/taskhub/internal/models"
	"gorm.io/gorm"
)

// ErrNoAssignment is returned when a user has no role assignment.
var ErrNoAssignment = errors.New("no role assignment for user")

type Store struct {
	db *gorm.DB
}

func NewStore(db *gorm.DB) *Store {
	return &Store{db: db}
}

// SeedGroups ensures the three role groups exist. Called once at startup
// before any assignment is made.
func (s *Store) SeedGroups() error {
	for _, role := range []models.Role{models.RoleAdmin, models.RoleManager, models.RoleMember} {
		var group models.RoleGroup
		err := s.db.Where("name = ?", role).First(&group).Error
		if errors.Is(err, gorm.ErrRecordNotFound) {
			err = s.db.Create(&models.RoleGroup{Name: role}).Error
		}
		if err != nil {
			return err
		}
	}
	return nil
}

// AssignRole creates or replaces the user's single role assignment and swaps
// their role-group membership in the same transaction.
func (s *Store) AssignRole(userID uint, role models.Role) (*models.RoleAssignment, error) {
	var assignment models.RoleAssignment

	err := s.db.Transaction(func(tx *gorm.DB) error {
		var group models.RoleGroup

		if err := tx.Where("name = ?", role).First(&group).Error; err != nil {
			return err
		}

		err := tx.Where("user_id = ?", userID).First(&assignment).Error

		switch {
		case err == nil:
			assignment.Role = role
			if err := tx.Save(&assignment).Error; err != nil {
				return err
			}
		case errors.Is(err, gorm.ErrRecordNotFound):
			assignment = models.RoleAssignment{UserID: userID, Role: role}
			if err := tx.Create(&assignment).Error; err != nil {
				return err
			}
		default:
			return err
		}

		// Drop the old membership before adding the new one; the unique
		// index on user_id rejects any overlap.
		if err := tx.Unscoped().Where("user_id = ?", userID).Delete(&models.RoleGroupMember{}).Error; err != nil {
			return err
		}

		return tx.Create(&models.RoleGroupMember{GroupID: group.ID, UserID: userID}).Error
	})

	if err != nil {
		return nil, err
	}

	return &assignment, nil
}

// RoleOf returns the user's current role or ErrNoAssignment.
func (s *Store) RoleOf(userID uint) (models.Role, error) {
	var assignment models.RoleAssignment

	if err := s.db.Where("user_id = ?", userID).First(&assignment).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return "", ErrNoAssignment
		}
		return "", err
	}

	return assignment.Role, nil
}

// Members returns every user currently in the given role's group. Used for
// milestone notification fan-out.
func (s *Store) Members(role models.Role) ([]models.User, error) {
	var users []models.User

	err := s.db.
		Joins("JOIN role_group_members ON role_group_members.user_id = users.id AND role_group_members.deleted_at IS NULL").
		Joins("JOIN role_groups ON role_groups.id = role_group_members.group_id").
		Where("role_groups.name = ?", role).
		Find(&users).Error

	if err != nil {
		return nil, err
	}

	return users, nil
}

// GroupsOf returns the names of every group the user belongs to. Exposed for
// invariant checks; a user is expected to be in exactly one group.
func (s *Store) GroupsOf(userID uint) ([]models.Role, error) {
	var names []models.Role

	err := s.db.Model(&models.RoleGroupMember{}).
		Joins("JOIN role_groups ON role_groups.id = role_group_members.group_id").
		Where("role_group_members.user_id = ?", userID).
		Pluck("role_groups.name", &names).Error

	if err != nil {
		return nil, err
	}

	return names, nil
}
