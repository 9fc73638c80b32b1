package roles

import (
	"errors"
	"fmt"
	"sync"
	"testing"

	"github.com/glebarez/sqlite"
	"github.com/taskhub-dev/taskhub/internal/models"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

func setupStore(t *testing.T) (*Store, *gorm.DB) {
	t.Helper()

	gdb, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	if err != nil {
		t.Fatalf("failed to open in-memory database: %v", err)
	}

	// A single connection keeps every session on the same in-memory database.
	sqlDB, err := gdb.DB()
	if err != nil {
		t.Fatalf("failed to get sql.DB: %v", err)
	}
	sqlDB.SetMaxOpenConns(1)

	err = gdb.AutoMigrate(
		&models.User{},
		&models.RoleAssignment{},
		&models.RoleGroup{},
		&models.RoleGroupMember{},
	)
	if err != nil {
		t.Fatalf("failed to migrate: %v", err)
	}

	store := NewStore(gdb)
	if err := store.SeedGroups(); err != nil {
		t.Fatalf("failed to seed groups: %v", err)
	}

	return store, gdb
}

func createUser(t *testing.T, gdb *gorm.DB, username string) models.User {
	t.Helper()

	user := models.User{
		Username:     username,
		Email:        username + "@example.com",
		PasswordHash: "x",
	}
	if err := gdb.Create(&user).Error; err != nil {
		t.Fatalf("failed to create user: %v", err)
	}
	return user
}

func TestAssignRoleThenRoleOf(t *testing.T) {
	store, gdb := setupStore(t)
	user := createUser(t, gdb, "alice")

	assignment, err := store.AssignRole(user.ID, models.RoleManager)
	if err != nil {
		t.Fatalf("AssignRole failed: %v", err)
	}
	if assignment.Role != models.RoleManager {
		t.Errorf("assignment role = %s, want manager", assignment.Role)
	}

	role, err := store.RoleOf(user.ID)
	if err != nil {
		t.Fatalf("RoleOf failed: %v", err)
	}
	if role != models.RoleManager {
		t.Errorf("RoleOf = %s, want manager", role)
	}

	groups, err := store.GroupsOf(user.ID)
	if err != nil {
		t.Fatalf("GroupsOf failed: %v", err)
	}
	if len(groups) != 1 || groups[0] != models.RoleManager {
		t.Errorf("GroupsOf = %v, want exactly [manager]", groups)
	}
}

func TestRoleOfWithoutAssignment(t *testing.T) {
	store, gdb := setupStore(t)
	user := createUser(t, gdb, "bob")

	_, err := store.RoleOf(user.ID)
	if !errors.Is(err, ErrNoAssignment) {
		t.Errorf("RoleOf without assignment: got %v, want ErrNoAssignment", err)
	}
}

func TestReassignRoleSwapsGroupMembership(t *testing.T) {
	store, gdb := setupStore(t)
	user := createUser(t, gdb, "carol")

	if _, err := store.AssignRole(user.ID, models.RoleMember); err != nil {
		t.Fatalf("initial AssignRole failed: %v", err)
	}
	if _, err := store.AssignRole(user.ID, models.RoleAdmin); err != nil {
		t.Fatalf("reassign failed: %v", err)
	}

	role, err := store.RoleOf(user.ID)
	if err != nil {
		t.Fatalf("RoleOf failed: %v", err)
	}
	if role != models.RoleAdmin {
		t.Errorf("RoleOf = %s, want admin", role)
	}

	groups, err := store.GroupsOf(user.ID)
	if err != nil {
		t.Fatalf("GroupsOf failed: %v", err)
	}
	if len(groups) != 1 || groups[0] != models.RoleAdmin {
		t.Errorf("GroupsOf after reassign = %v, want exactly [admin]", groups)
	}

	// Assignment row count must stay at one.
	var count int64
	if err := gdb.Model(&models.RoleAssignment{}).Where("user_id = ?", user.ID).Count(&count).Error; err != nil {
		t.Fatalf("count failed: %v", err)
	}
	if count != 1 {
		t.Errorf("assignment rows = %d, want 1", count)
	}
}

func TestMembersReturnsRoleCohort(t *testing.T) {
	store, gdb := setupStore(t)

	for i := 0; i < 3; i++ {
		user := createUser(t, gdb, fmt.Sprintf("member-%d", i))
		if _, err := store.AssignRole(user.ID, models.RoleMember); err != nil {
			t.Fatalf("AssignRole failed: %v", err)
		}
	}
	manager := createUser(t, gdb, "the-manager")
	if _, err := store.AssignRole(manager.ID, models.RoleManager); err != nil {
		t.Fatalf("AssignRole failed: %v", err)
	}

	members, err := store.Members(models.RoleMember)
	if err != nil {
		t.Fatalf("Members failed: %v", err)
	}
	if len(members) != 3 {
		t.Errorf("Members(member) = %d users, want 3", len(members))
	}

	managers, err := store.Members(models.RoleManager)
	if err != nil {
		t.Fatalf("Members failed: %v", err)
	}
	if len(managers) != 1 {
		t.Errorf("Members(manager) = %d users, want 1", len(managers))
	}
}

func TestReassignUnderConcurrentReads(t *testing.T) {
	store, gdb := setupStore(t)
	user := createUser(t, gdb, "dave")

	if _, err := store.AssignRole(user.ID, models.RoleMember); err != nil {
		t.Fatalf("initial AssignRole failed: %v", err)
	}

	done := make(chan struct{})
	var wg sync.WaitGroup

	// Readers must always see exactly one group membership while roles flip.
	for i := 0; i < 4; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for {
				select {
				case <-done:
					return
				default:
				}
				groups, err := store.GroupsOf(user.ID)
				if err != nil {
					t.Errorf("GroupsOf failed: %v", err)
					return
				}
				if len(groups) != 1 {
					t.Errorf("observed %d group memberships, want 1", len(groups))
					return
				}
			}
		}()
	}

	next := []models.Role{models.RoleAdmin, models.RoleManager, models.RoleMember}
	for i := 0; i < 30; i++ {
		if _, err := store.AssignRole(user.ID, next[i%len(next)]); err != nil {
			t.Fatalf("reassign %d failed: %v", i, err)
		}
	}

	close(done)
	wg.Wait()
}
