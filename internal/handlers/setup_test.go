package handlers_test

import (
	"bytes"
	"encoding/json"
	"net/http/httptest"
	"sync"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/glebarez/sqlite"
	"github.com/taskhub-dev/taskhub/db"
	"github.com/taskhub-dev/taskhub/internal/auth"
	"github.com/taskhub-dev/taskhub/internal/events"
	"github.com/taskhub-dev/taskhub/internal/handlers"
	"github.com/taskhub-dev/taskhub/internal/models"
	"github.com/taskhub-dev/taskhub/internal/notify"
	"github.com/taskhub-dev/taskhub/internal/roles"
	"github.com/taskhub-dev/taskhub/internal/router"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

func init() {
	gin.SetMode(gin.TestMode)
	auth.SetJWTSecretForTesting("test-secret")
}

// captureEnqueuer records drafts handed to the dispatcher.
type captureEnqueuer struct {
	mu     sync.Mutex
	drafts []notify.Draft
}

func (c *captureEnqueuer) Enqueue(draft notify.Draft) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.drafts = append(c.drafts, draft)
}

func (c *captureEnqueuer) count() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.drafts)
}

type testApp struct {
	router   *gin.Engine
	store    *roles.Store
	enqueuer *captureEnqueuer
}

// setupApp wires the full stack against an in-memory database. The global
// db.DB follows the production wiring, so tests must not run in parallel.
func setupApp(t *testing.T) *testApp {
	t.Helper()

	gdb, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	if err != nil {
		t.Fatalf("failed to open in-memory database: %v", err)
	}
	sqlDB, err := gdb.DB()
	if err != nil {
		t.Fatalf("failed to get sql.DB: %v", err)
	}
	sqlDB.SetMaxOpenConns(1)
	t.Cleanup(func() { sqlDB.Close() })

	err = gdb.AutoMigrate(
		&models.User{},
		&models.RoleAssignment{},
		&models.RoleGroup{},
		&models.RoleGroupMember{},
		&models.Project{},
		&models.Task{},
		&models.Milestone{},
		&models.NotificationRecord{},
	)
	if err != nil {
		t.Fatalf("failed to migrate: %v", err)
	}

	db.DB = gdb

	store := roles.NewStore(gdb)
	if err := store.SeedGroups(); err != nil {
		t.Fatalf("failed to seed groups: %v", err)
	}

	enqueuer := &captureEnqueuer{}
	handlers.Configure(store, events.NewSource(gdb, store, enqueuer))

	return &testApp{
		router:   router.NewRouter(store),
		store:    store,
		enqueuer: enqueuer,
	}
}

// createUser registers a user with the given role and returns the user and a
// bearer token for it.
func (app *testApp) createUser(t *testing.T, username string, role models.Role) (models.User, string) {
	t.Helper()

	hash, err := bcrypt.GenerateFromPassword([]byte("password123"), bcrypt.MinCost)
	if err != nil {
		t.Fatalf("failed to hash password: %v", err)
	}

	user := models.User{
		Username:     username,
		Email:        username + "@example.com",
		PasswordHash: string(hash),
	}
	if err := db.DB.Create(&user).Error; err != nil {
		t.Fatalf("failed to create user: %v", err)
	}

	if _, err := app.store.AssignRole(user.ID, role); err != nil {
		t.Fatalf("failed to assign role: %v", err)
	}

	token, err := auth.GenerateJWT(user.ID, user.Email)
	if err != nil {
		t.Fatalf("failed to generate token: %v", err)
	}

	return user, token
}

// createProject inserts a project owned by the given user's role assignment.
func (app *testApp) createProject(t *testing.T, owner models.User, name string) models.Project {
	t.Helper()

	var assignment models.RoleAssignment
	if err := db.DB.Where("user_id = ?", owner.ID).First(&assignment).Error; err != nil {
		t.Fatalf("owner has no role assignment: %v", err)
	}

	project := models.Project{Name: name, OwnerID: assignment.ID}
	if err := db.DB.Create(&project).Error; err != nil {
		t.Fatalf("failed to create project: %v", err)
	}
	return project
}

// doJSON performs a request with an optional bearer token and JSON body.
func (app *testApp) doJSON(t *testing.T, method, path, token string, body interface{}) *httptest.ResponseRecorder {
	t.Helper()

	var reader *bytes.Buffer = bytes.NewBuffer(nil)
	if body != nil {
		payload, err := json.Marshal(body)
		if err != nil {
			t.Fatalf("failed to marshal body: %v", err)
		}
		reader = bytes.NewBuffer(payload)
	}

	req := httptest.NewRequest(method, path, reader)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	w := httptest.NewRecorder()
	app.router.ServeHTTP(w, req)
	return w
}

func decodeBody(t *testing.T, w *httptest.ResponseRecorder, out interface{}) {
	t.Helper()

	if err := json.Unmarshal(w.Body.Bytes(), out); err != nil {
		t.Fatalf("failed to decode response %q: %v", w.Body.String(), err)
	}
}

func mustStatus(t *testing.T, w *httptest.ResponseRecorder, want int) {
	t.Helper()

	if w.Code != want {
		t.Fatalf("status = %d, want %d (body: %s)", w.Code, want, w.Body.String())
	}
}
