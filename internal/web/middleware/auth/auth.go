// Package auth provides the session-checking middleware for the web layer.
package auth

import (
	"strings"

	"github.com/gofiber/fiber/v2"

	"github.com/GoLDAP-Portal/GoLDAP-Portal/internal/web/handler/home"
	"github.com/GoLDAP-Portal/GoLDAP-Portal/internal/web/handler/login"
	"github.com/GoLDAP-Portal/GoLDAP-Portal/internal/web/session"
)

// Middleware is a Fiber middleware that checks for user authentication.
// Unauthenticated requests are redirected to the login page; authenticated
// requests hitting the login page are sent to the portal home instead.
func Middleware(c *fiber.Ctx) error {
	var (
		isLoginPage   = IsLoginPage(c)
		sessDataValid bool
	)

	originalURL := strings.ToLower(c.OriginalURL())
	if strings.HasPrefix(originalURL, "/static") {
		return c.Next()
	}

	// Logout and the OIDC flow manage their own session state.
	if strings.HasPrefix(originalURL, "/logout") || strings.HasPrefix(originalURL, "/auth/oidc") {
		return c.Next()
	}

	loginCookie := c.Cookies("session")

	if loginCookie == "" && !isLoginPage {
		return c.Redirect(login.Path)
	}

	sessData := new(session.Data)
	if err := sessData.Read(loginCookie); err != nil {
		// Avoid a redirect loop when the login page itself is requested.
		if isLoginPage {
			return c.Next()
		}

		return c.Redirect(login.Path)
	}

	if sessData.User.ID > 0 {
		sessDataValid = true
		// Add the current user to locals for template access
		c.Locals("CurrentUser", sessData.User)
	}

	if !sessDataValid && !isLoginPage {
		return c.Redirect(login.Path)
	}

	if sessDataValid && isLoginPage {
		return c.Redirect(home.Path)
	}

	return c.Next()
}

// IsLoginPage checks if the current request is for the login page.
func IsLoginPage(c *fiber.Ctx) bool {
	originalURL := strings.ToLower(c.OriginalURL())
	return strings.HasPrefix(originalURL, login.Path)
}
