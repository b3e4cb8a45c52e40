package fiber

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gofiber/fiber/v2"

	"github.com/GoLDAP-Portal/GoLDAP-Portal/internal/logger"
)

func TestConfigDefault(t *testing.T) {
	cfg := configDefault()
	if cfg.CacheControlError != "max-age=0" {
		t.Errorf("CacheControlError = %q, want max-age=0", cfg.CacheControlError)
	}

	custom := configDefault(Config{CacheControlError: "no-store"})
	if custom.CacheControlError != "no-store" {
		t.Errorf("CacheControlError = %q, want no-store", custom.CacheControlError)
	}
}

func TestMiddlewareSetsPerformanceHeader(t *testing.T) {
	app := fiber.New()
	app.Use(New(Config{Config: logger.Log{}}))
	app.Get("/ping", func(c *fiber.Ctx) error {
		return c.SendString("pong")
	})

	req := httptest.NewRequest(http.MethodGet, "/ping", nil)

	resp, err := app.Test(req, -1)
	if err != nil {
		t.Fatalf("app.Test failed: %v", err)
	}

	defer func() {
		_ = resp.Body.Close()
	}()

	if resp.StatusCode != http.StatusOK {
		t.Fatalf("status = %d, want 200", resp.StatusCode)
	}

	if resp.Header.Get("X-Performance") == "" {
		t.Error("expected X-Performance header to be set")
	}
}

func TestMiddlewareNextSkips(t *testing.T) {
	app := fiber.New()
	app.Use(New(Config{
		Config: logger.Log{},
		Next:   func(*fiber.Ctx) bool { return true },
	}))
	app.Get("/skip", func(c *fiber.Ctx) error {
		return c.SendString("ok")
	})

	req := httptest.NewRequest(http.MethodGet, "/skip", nil)

	resp, err := app.Test(req, -1)
	if err != nil {
		t.Fatalf("app.Test failed: %v", err)
	}

	defer func() {
		_ = resp.Body.Close()
	}()

	if resp.Header.Get("X-Performance") != "" {
		t.Error("middleware should be skipped when Next returns true")
	}
}
