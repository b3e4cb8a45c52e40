package ratelimit

import (
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"
	"time"

	"github.com/gofiber/fiber/v2"
)

func newLimitedApp(cfg Config, key KeyExtractor) *fiber.App {
	app := fiber.New()
	app.Post("/login", New(cfg, key), func(c *fiber.Ctx) error {
		return c.SendString("ok")
	})

	return app
}

func postForm(t *testing.T, app *fiber.App, form url.Values) *http.Response {
	t.Helper()

	req := httptest.NewRequest(http.MethodPost, "/login", strings.NewReader(form.Encode()))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	resp, err := app.Test(req, -1)
	if err != nil {
		t.Fatalf("app.Test failed: %v", err)
	}

	return resp
}

func TestLimiterBlocksAfterBurst(t *testing.T) {
	cfg := Config{Requests: 2, Window: time.Minute, Burst: 2}
	app := newLimitedApp(cfg, IPKey)

	for i := 0; i < 2; i++ {
		resp := postForm(t, app, url.Values{})
		resp.Body.Close()

		if resp.StatusCode != http.StatusOK {
			t.Fatalf("request %d: expected 200, got %d", i, resp.StatusCode)
		}
	}

	resp := postForm(t, app, url.Values{})
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusTooManyRequests {
		t.Fatalf("expected 429 after burst, got %d", resp.StatusCode)
	}

	if resp.Header.Get("Retry-After") == "" {
		t.Error("Retry-After header not set")
	}
}

func TestLimiterKeysByUsername(t *testing.T) {
	cfg := Config{Requests: 1, Window: time.Minute, Burst: 1}
	app := newLimitedApp(cfg, IPAndFormFieldKey("username"))

	resp := postForm(t, app, url.Values{"username": {"alice"}})
	resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		t.Fatalf("first alice request: expected 200, got %d", resp.StatusCode)
	}

	resp = postForm(t, app, url.Values{"username": {"alice"}})
	resp.Body.Close()

	if resp.StatusCode != http.StatusTooManyRequests {
		t.Fatalf("second alice request: expected 429, got %d", resp.StatusCode)
	}

	// A different username from the same IP has its own bucket.
	resp = postForm(t, app, url.Values{"username": {"bob"}})
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		t.Fatalf("bob request: expected 200, got %d", resp.StatusCode)
	}
}
