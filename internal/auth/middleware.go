package auth

import (
	"github.com/gofiber/fiber/v2"
	"github.com/rs/zerolog/log"

	"github.com/GoLDAP-Portal/GoLDAP-Portal/internal/db/models"
	"github.com/GoLDAP-Portal/GoLDAP-Portal/internal/web/session"
)

// RequireStaff creates Fiber middleware that requires the staff flag.
// The flag is read from the database rather than the session so a
// directory-driven revocation takes effect without waiting for the
// session to expire.
func RequireStaff(authService *Service) fiber.Handler {
	return requireFlag(authService, "staff", func(u *models.User) bool {
		return u.IsStaff || u.IsSuperuser
	})
}

// RequireSuperuser creates Fiber middleware that requires the superuser flag.
func RequireSuperuser(authService *Service) fiber.Handler {
	return requireFlag(authService, "superuser", func(u *models.User) bool {
		return u.IsSuperuser
	})
}

// requireFlag builds middleware that loads the session user from the
// database and checks an access flag predicate.
func requireFlag(authService *Service, flagName string, allowed func(*models.User) bool) fiber.Handler {
	return func(c *fiber.Ctx) error {
		user, ok := currentUser(c, authService)
		if !ok {
			return c.Status(fiber.StatusUnauthorized).SendString("Unauthorized")
		}

		if !user.Active {
			log.Warn().Uint64("user_id", user.ID).Msg("disabled account attempted admin access")
			return c.Status(fiber.StatusUnauthorized).SendString("Unauthorized")
		}

		if !allowed(user) {
			log.Warn().Uint64("user_id", user.ID).Str("flag", flagName).
				Msg("user lacks required access flag")

			return c.Status(fiber.StatusForbidden).SendString("Forbidden: You don't have permission to access this resource")
		}

		c.Locals("CurrentUser", *user)

		return c.Next()
	}
}

// currentUser resolves the session cookie to a fresh user record.
func currentUser(c *fiber.Ctx, authService *Service) (*models.User, bool) {
	sessionID := c.Cookies("session")
	if sessionID == "" {
		return nil, false
	}

	sessionData := new(session.Data)
	if err := sessionData.Read(sessionID); err != nil {
		log.Error().Err(err).Msg("failed to read session")
		return nil, false
	}

	if sessionData.User.ID == 0 {
		return nil, false
	}

	user, err := authService.GetUserByID(sessionData.User.ID)
	if err != nil {
		log.Error().Err(err).Uint64("user_id", sessionData.User.ID).Msg("failed to load session user")
		return nil, false
	}

	return user, true
}

// IsStaffInContext reports whether the current session user holds the staff
// flag. Useful for conditional rendering in handlers.
func IsStaffInContext(c *fiber.Ctx, authService *Service) bool {
	user, ok := currentUser(c, authService)
	if !ok {
		return false
	}

	return user.IsStaff || user.IsSuperuser
}

// IsSuperuserInContext reports whether the current session user holds the
// superuser flag.
func IsSuperuserInContext(c *fiber.Ctx, authService *Service) bool {
	user, ok := currentUser(c, authService)
	if !ok {
		return false
	}

	return user.IsSuperuser
}
