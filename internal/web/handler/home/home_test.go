package home

import (
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/glebarez/sqlite"
	"github.com/gofiber/fiber/v2"
	"gorm.io/gorm"

	"github.com/GoLDAP-Portal/GoLDAP-Portal/internal/auth"
	"github.com/GoLDAP-Portal/GoLDAP-Portal/internal/config"
	"github.com/GoLDAP-Portal/GoLDAP-Portal/internal/db/models"
)

type noOpViews struct{}

func (noOpViews) Load() error { return nil }

func (noOpViews) Render(w io.Writer, name string, _ interface{}, _ ...string) error {
	_, _ = io.WriteString(w, name)
	return nil
}

func newTestDB(t *testing.T) *gorm.DB {
	t.Helper()

	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{})
	if err != nil {
		t.Fatalf("failed to open sqlite in-memory db: %v", err)
	}

	if err := db.AutoMigrate(
		&models.User{},
		&models.Group{},
		&models.UserGroup{},
		&models.Setting{},
	); err != nil {
		t.Fatalf("failed to migrate models: %v", err)
	}

	return db
}

func TestGet_WithoutSessionUser_RedirectsToLogin(t *testing.T) {
	db := newTestDB(t)
	app := fiber.New(fiber.Config{Views: noOpViews{}})
	cfg := &config.Config{
		Title:     "Portal",
		Webserver: config.Webserver{Session: config.Session{ExpiryTime: time.Minute}},
	}

	var s Service
	s.Init(app, cfg, db, auth.NewService(db))

	req := httptest.NewRequest(http.MethodGet, "/", nil)

	resp, err := app.Test(req, -1)
	if err != nil {
		t.Fatalf("app.Test failed: %v", err)
	}

	defer func() {
		_ = resp.Body.Close()
	}()

	if resp.StatusCode != http.StatusFound {
		t.Fatalf("expected 302 Found, got %d", resp.StatusCode)
	}

	if loc := resp.Header.Get("Location"); loc != "/login" {
		t.Fatalf("expected redirect to /login, got %s", loc)
	}
}

func TestGet_WithSessionUser_RendersHome(t *testing.T) {
	db := newTestDB(t)
	cfg := &config.Config{
		Title:     "Portal",
		Webserver: config.Webserver{Session: config.Session{ExpiryTime: time.Minute}},
	}

	local := auth.NewLocalProvider(db)

	user, err := local.CreateUser("alice", "alice@rule4.local", "pw", "Alice", "Doe", false, false)
	if err != nil {
		t.Fatalf("failed to create user: %v", err)
	}

	app := fiber.New(fiber.Config{Views: noOpViews{}})

	// Simulate the session middleware having resolved the user.
	app.Use(func(c *fiber.Ctx) error {
		c.Locals("CurrentUser", *user)
		return c.Next()
	})

	var s Service
	s.Init(app, cfg, db, auth.NewService(db))

	req := httptest.NewRequest(http.MethodGet, "/", nil)

	resp, errTest := app.Test(req, -1)
	if errTest != nil {
		t.Fatalf("app.Test failed: %v", errTest)
	}

	defer func() {
		_ = resp.Body.Close()
	}()

	if resp.StatusCode != http.StatusOK {
		t.Fatalf("expected 200 OK, got %d", resp.StatusCode)
	}

	body, _ := io.ReadAll(resp.Body)
	if !strings.Contains(string(body), TemplateName) {
		t.Fatalf("expected home template render, got %q", string(body))
	}
}
