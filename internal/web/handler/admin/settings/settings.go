// Package settings provides admin handlers for portal-wide settings stored
// in the database, such as the portal title and the login page banner.
package settings

import (
	"github.com/gofiber/fiber/v2"
	"github.com/rs/zerolog/log"
	"gorm.io/gorm"

	"github.com/GoLDAP-Portal/GoLDAP-Portal/internal/auth"
	"github.com/GoLDAP-Portal/GoLDAP-Portal/internal/config"
	"github.com/GoLDAP-Portal/GoLDAP-Portal/internal/db/controller/setting"
	"github.com/GoLDAP-Portal/GoLDAP-Portal/internal/web/handler"
	"github.com/GoLDAP-Portal/GoLDAP-Portal/internal/web/navigation"
)

const (
	// Path is the base path for portal settings.
	Path = handler.RootPath + "admin/settings"

	// TemplateName is the settings page template.
	TemplateName = "admin/settings"
)

// Service provides settings administration.
type Service struct {
	handler.Service
	cfg *config.Config
	db  *gorm.DB
}

// Handler is the exported instance.
var Handler = Service{}

// Init registers routes. Changing settings requires the superuser flag.
func (s *Service) Init(app *fiber.App, cfg *config.Config, db *gorm.DB, authService *auth.Service) {
	if app == nil || cfg == nil || db == nil {
		log.Fatal().Msg(handler.ErrNilACDFatalLogMsg)
		return
	}

	s.db = db
	s.cfg = cfg

	app.Get(Path,
		auth.RequireSuperuser(authService),
		s.Get,
	)
	app.Post(Path,
		auth.RequireSuperuser(authService),
		s.Post,
	)
}

func nav() *navigation.Context {
	return navigation.NewContext("Settings", "admin", "settings").
		AddBreadcrumb("Home", handler.RootPath, false).
		AddBreadcrumb("Admin", "#", false).
		AddBreadcrumb("Settings", Path, true)
}

// Get renders the settings form with the current values.
func (s *Service) Get(c *fiber.Ctx) error {
	return s.render(c, "", "")
}

// Post stores the submitted settings.
func (s *Service) Post(c *fiber.Ctx) error {
	var form struct {
		Title  string `form:"title"`
		Banner string `form:"banner"`
	}

	if err := c.BodyParser(&form); err != nil {
		return s.render(c, "Invalid form data", "")
	}

	if _, err := setting.Set(s.db, setting.PortalTitle, []byte(form.Title)); err != nil {
		log.Error().Err(err).Msg("failed to store portal title")
		return s.render(c, "Failed to save settings", "")
	}

	if _, err := setting.Set(s.db, setting.LoginBanner, []byte(form.Banner)); err != nil {
		log.Error().Err(err).Msg("failed to store login banner")
		return s.render(c, "Failed to save settings", "")
	}

	return s.render(c, "", "Settings saved")
}

func (s *Service) render(c *fiber.Ctx, errMsg, okMsg string) error {
	title, err := setting.GetString(s.db, setting.PortalTitle, s.cfg.Title)
	if err != nil {
		log.Error().Err(err).Msg("failed to load portal title")
	}

	banner, err := setting.GetString(s.db, setting.LoginBanner, "")
	if err != nil {
		log.Error().Err(err).Msg("failed to load login banner")
	}

	redacted := config.Redact(*s.cfg)

	data := fiber.Map{
		"Navigation": nav(),
		"Title":      title,
		"Banner":     banner,
		"Auth":       redacted.Auth,
	}

	if errMsg != "" {
		data["Error"] = errMsg
	}

	if okMsg != "" {
		data["Success"] = okMsg
	}

	return c.Render(TemplateName, data, handler.BaseLayout)
}
