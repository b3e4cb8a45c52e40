package login

import (
	"errors"

	"github.com/gofiber/fiber/v2"
	"github.com/rs/zerolog/log"
	"gorm.io/gorm"

	"github.com/GoLDAP-Portal/GoLDAP-Portal/internal/auth"
	"github.com/GoLDAP-Portal/GoLDAP-Portal/internal/config"
	"github.com/GoLDAP-Portal/GoLDAP-Portal/internal/db/controller/setting"
	"github.com/GoLDAP-Portal/GoLDAP-Portal/internal/web/handler"
	"github.com/GoLDAP-Portal/GoLDAP-Portal/internal/web/session"
)

const (
	// Path is the path to the login page.
	Path = "/login"

	// TemplateName is the name of the login template.
	TemplateName = "login"
)

// Service is the login handler service.
type Service struct {
	handler.Service
	cfg      *config.Config
	db       *gorm.DB
	resolver *auth.Resolver
}

// Handler is the login handler.
var Handler = Service{}

// Init initializes the login handler. The route-level rate limiter is
// registered by the web service, not here.
func (s *Service) Init(app *fiber.App, cfg *config.Config, db *gorm.DB, resolver *auth.Resolver, extra ...fiber.Handler) error {
	if app == nil || cfg == nil || db == nil || resolver == nil {
		return errors.New("app, cfg, db or resolver is nil")
	}

	s.db = db
	s.cfg = cfg
	s.resolver = resolver

	app.Route(Path, func(router fiber.Router) {
		router.Get(handler.RouterRootPath, s.Get)
		router.Post(handler.RouterRootPath, append(extra, s.Post)...)
	})

	return nil
}

// viewData builds the template data shared by all login page renders.
func (s *Service) viewData(errMsg string) fiber.Map {
	banner, err := setting.GetString(s.db, setting.LoginBanner, "")
	if err != nil {
		log.Error().Err(err).Msg("failed to load login banner")
	}

	title, err := setting.GetString(s.db, setting.PortalTitle, s.cfg.Title)
	if err != nil {
		log.Error().Err(err).Msg("failed to load portal title")
	}

	data := fiber.Map{
		"title":            title,
		"banner":           banner,
		"local_db_enabled": s.cfg.Auth.LocalDB.Enabled,
		"ldap_enabled":     s.cfg.Auth.LDAP.Enabled,
		"oidc_enabled":     s.cfg.Auth.OIDC.Enabled,
	}

	if errMsg != "" {
		data["error"] = errMsg
	}

	return data
}

// Get handles the login page rendering.
func (s *Service) Get(c *fiber.Ctx) error {
	return c.Render(TemplateName, s.viewData(""))
}

// Post handles the login form submission.
func (s *Service) Post(c *fiber.Ctx) error {
	var form struct {
		Username string `form:"username"`
		Password string `form:"password"`
	}

	if err := c.BodyParser(&form); err != nil {
		return c.Render(TemplateName, s.viewData(ErrInvalidFormData.Error()))
	}

	user, err := s.resolver.Authenticate(c.UserContext(), form.Username, form.Password)
	if err != nil {
		return s.renderAuthError(c, form.Username, err)
	}

	sessionID, err := session.GenerateSessionID()
	if err != nil {
		log.Error().Err(err).Msg("failed to generate session ID")
		return c.Render(TemplateName, s.viewData(ErrInternalServerError.Error()))
	}

	userSession := &session.Data{
		User: *user,
	}

	if err = userSession.Write(sessionID, s.cfg.Webserver.Session.ExpiryTime); err != nil {
		log.Error().Err(err).Msg("failed to write session")
		return c.Render(TemplateName, s.viewData(ErrInternalServerError.Error()))
	}

	cookieSettings := &fiber.Cookie{
		Name:     "session",
		Value:    sessionID,
		MaxAge:   int(s.cfg.Webserver.Session.ExpiryTime.Seconds()),
		Secure:   true,
		HTTPOnly: true,
		SameSite: "Lax", // TODO: make this configurable
	}

	if s.cfg.DevMode {
		cookieSettings.Secure = false
	}

	c.Cookie(cookieSettings)

	log.Info().Str("username", user.Username).Str("auth_source", string(user.AuthSource)).
		Msg("user logged in")

	return c.Redirect(handler.RootPath)
}

// renderAuthError maps a resolver error to the login page. Credential
// problems of any kind collapse into one message so the page never reveals
// whether the username exists, the password was wrong or the account is
// disabled.
func (s *Service) renderAuthError(c *fiber.Ctx, username string, err error) error {
	switch {
	case errors.Is(err, auth.ErrInvalidInput),
		errors.Is(err, auth.ErrInvalidCredentials),
		errors.Is(err, auth.ErrMultipleUsersFound),
		errors.Is(err, auth.ErrUserAccountDisabled):
		log.Info().Err(err).Str("username", username).Msg("login rejected")

		return c.Render(TemplateName, s.viewData(ErrInvalidCredentials.Error()))
	case errors.Is(err, auth.ErrDirectoryUnavailable):
		log.Error().Err(err).Str("username", username).Msg("directory unavailable and no fallback")

		return c.Render(TemplateName, s.viewData(ErrServiceUnavailable.Error()))
	default:
		log.Error().Err(err).Str("username", username).Msg("login failed")

		return c.Render(TemplateName, s.viewData(ErrInternalServerError.Error()))
	}
}
