// Package home provides the portal landing page for signed-in users.
package home

import (
	"github.com/gofiber/fiber/v2"
	"github.com/rs/zerolog/log"
	"gorm.io/gorm"

	"github.com/GoLDAP-Portal/GoLDAP-Portal/internal/auth"
	"github.com/GoLDAP-Portal/GoLDAP-Portal/internal/config"
	"github.com/GoLDAP-Portal/GoLDAP-Portal/internal/db/controller/setting"
	"github.com/GoLDAP-Portal/GoLDAP-Portal/internal/db/models"
	"github.com/GoLDAP-Portal/GoLDAP-Portal/internal/web/handler"
	"github.com/GoLDAP-Portal/GoLDAP-Portal/internal/web/navigation"
)

const (
	// Path is the path to the home page.
	Path = handler.RootPath

	// TemplateName is the name of the home template.
	TemplateName = "home"
)

// Service is the home handler service.
type Service struct {
	handler.Service
	cfg         *config.Config
	db          *gorm.DB
	authService *auth.Service
}

// Handler is the home handler.
var Handler = Service{}

// Init initializes the home handler.
func (s *Service) Init(app *fiber.App, cfg *config.Config, db *gorm.DB, authService *auth.Service) {
	if app == nil || cfg == nil || db == nil {
		log.Fatal().Msg(handler.ErrNilACDFatalLogMsg)
		return
	}

	s.cfg = cfg
	s.db = db
	s.authService = authService

	app.Get(Path, s.Get)
}

// Get renders the landing page with the signed-in user's profile, group
// memberships and access flags.
func (s *Service) Get(c *fiber.Ctx) error {
	user, ok := c.Locals("CurrentUser").(models.User)
	if !ok {
		return c.Redirect("/login")
	}

	nav := navigation.NewContext("Home", "home", "home").
		AddBreadcrumb("Home", Path, true)

	groups, err := s.authService.GetUserGroups(user.ID)
	if err != nil {
		log.Error().Err(err).Uint64("user_id", user.ID).Msg("failed to load user groups")
	}

	title, err := setting.GetString(s.db, setting.PortalTitle, s.cfg.Title)
	if err != nil {
		log.Error().Err(err).Msg("failed to load portal title")
	}

	return c.Render(TemplateName, fiber.Map{
		"Navigation": nav,
		"Title":      title,
		"User":       user,
		"Groups":     groups,
		"IsStaff":    user.IsStaff || user.IsSuperuser,
	}, handler.BaseLayout)
}
