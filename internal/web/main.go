package web

import (
	"errors"
	"net/http"
	"os"
	"os/signal"
	"sync/atomic"
	"syscall"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/filesystem"
	"github.com/gofiber/template/html/v2"
	"github.com/rs/zerolog/log"
	"gorm.io/gorm"

	"github.com/GoLDAP-Portal/GoLDAP-Portal/internal/auth"
	"github.com/GoLDAP-Portal/GoLDAP-Portal/internal/config"
	fiberlogger "github.com/GoLDAP-Portal/GoLDAP-Portal/internal/logger/adapter/fiber"
	"github.com/GoLDAP-Portal/GoLDAP-Portal/internal/web/handler/admin/group"
	"github.com/GoLDAP-Portal/GoLDAP-Portal/internal/web/handler/admin/settings"
	"github.com/GoLDAP-Portal/GoLDAP-Portal/internal/web/handler/admin/user"
	oidchandler "github.com/GoLDAP-Portal/GoLDAP-Portal/internal/web/handler/auth/oidc"
	"github.com/GoLDAP-Portal/GoLDAP-Portal/internal/web/handler/home"
	"github.com/GoLDAP-Portal/GoLDAP-Portal/internal/web/handler/login"
	"github.com/GoLDAP-Portal/GoLDAP-Portal/internal/web/handler/logout"
	middlewareauth "github.com/GoLDAP-Portal/GoLDAP-Portal/internal/web/middleware/auth"
	"github.com/GoLDAP-Portal/GoLDAP-Portal/internal/web/middleware/ratelimit"
)

// CheckAlivePath is used by load balancers and excluded from access logging.
const CheckAlivePath = "/checkalive"

// Service represents the web service.
type Service struct {
	App          *fiber.App
	cfg          *config.Config
	fastShutDown bool
	alive        atomic.Bool
	db           *gorm.DB
	authService  *auth.Service
}

// Start starts the web service on the given address.
func (s *Service) Start(addr string) error {
	var doneFiber = make(chan bool)

	s.alive.Store(true)

	go func() {
		if err := s.App.Listen(addr); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatal().Msgf("fiber listen error: %v", err)
		}

		doneFiber <- true
	}()

	<-doneFiber // wait for fiber to stop

	return nil
}

// WaitShutdown waits for graceful shutdown of the portal.
func (s *Service) WaitShutdown() {
	irqSig := make(chan os.Signal, 1)
	signal.Notify(irqSig, syscall.SIGINT, syscall.SIGTERM)

	sig := <-irqSig
	log.Info().Msgf("shutdown request (signal: %v)", sig)

	// Graceful shutdown for reverse proxies: set status to fail, so checkalive returns fail.
	if !s.fastShutDown {
		log.Info().Msgf(
			"graceful shutdown: return 503 while %d seconds to let LB to remove this pod from active targets",
			s.cfg.Webserver.ShutDownTime,
		)

		s.alive.Store(false)
		time.Sleep(time.Duration(s.cfg.Webserver.ShutDownTime) * time.Second)
	}

	// stop fiber http server
	serverShutdown := make(chan struct{})

	go func() {
		log.Info().Msg("stopping http server ...")

		err := s.App.Shutdown()
		if err != nil {
			log.Error().Err(err).Msg("")
		}

		serverShutdown <- struct{}{}
	}()

	<-serverShutdown
	log.Info().Msg("http server was stopped ... good bye...")
}

// New creates a new web service with the given configuration.
func New(cfg *config.Config, db *gorm.DB) *Service {
	if cfg == nil {
		panic("config cannot be nil")
	}

	if db == nil {
		panic("db cannot be nil")
	}

	httpFS := http.FS(templateEmbedFS{embeddedTemplates})
	templateEngine := html.NewFileSystem(httpFS, ".gohtml")

	// in debug mode, use local filesystem for templates
	if cfg.DevMode {
		templateEngine = html.New("./internal/web/templates", ".gohtml")
		templateEngine.ShouldReload = true

		log.Warn().Msg("debug mode enabled: using local filesystem for templates")
	}

	// Add template helper functions
	templateEngine.AddFunc("iterate", func(count int) []int {
		result := make([]int, count)
		for i := range result {
			result[i] = i
		}

		return result
	})
	templateEngine.AddFunc("add", func(a, b int) int {
		return a + b
	})
	templateEngine.AddFunc("sub", func(a, b int) int {
		return a - b
	})

	// create fiber app
	app := fiber.New(
		fiber.Config{
			ReadBufferSize: 8192,
			AppName:        "GoLDAP-Portal",
			CaseSensitive:  true,
			Prefork:        false,
			Immutable:      true,
			Views:          templateEngine,
		},
	)

	service := &Service{
		cfg: cfg,
		App: app,
		db:  db,
	}

	// access log, skipping LB health checks
	app.Use(fiberlogger.New(fiberlogger.Config{
		Config:        cfg.Log,
		CheckAliveURI: CheckAlivePath,
	}))

	app.Get(CheckAlivePath, func(c *fiber.Ctx) error {
		if !service.alive.Load() {
			return c.SendStatus(fiber.StatusServiceUnavailable)
		}

		return c.SendString("OK")
	})

	// serve embedded static files
	app.Use("/static",
		filesystem.New(
			filesystem.Config{
				Root:       http.FS(embeddedStaticFiles),
				PathPrefix: "static",
				Browse:     false,
			},
		),
	)

	// session auth middleware
	app.Use(middlewareauth.Middleware)

	authService := auth.NewService(db)
	service.authService = authService

	// Authentication chain: an optional directory, an optional local
	// fallback, and the resolver deciding between them.
	var directory auth.DirectoryClient

	if cfg.Auth.LDAP.Enabled {
		provider, err := auth.NewLDAPProvider(ldapConfig(&cfg.Auth.LDAP))
		if err != nil {
			log.Fatal().Err(err).Msg("invalid LDAP configuration")
		}

		directory = provider

		log.Info().Str("host", cfg.Auth.LDAP.Host).Msg("directory authentication enabled")
	}

	var local *auth.LocalProvider

	if cfg.Auth.LocalDB.Enabled {
		local = auth.NewLocalProvider(db)
	}

	if directory == nil && local == nil && !cfg.Auth.OIDC.Enabled {
		log.Fatal().Msg("no authentication source enabled, check the auth configuration")
	}

	resolver := auth.NewResolver(db, directory, local, auth.FlagMap{
		StaffGroupDN:     cfg.Auth.LDAP.StaffGroupDN,
		SuperuserGroupDN: cfg.Auth.LDAP.SuperuserGroupDN,
	})

	// init handlers (they register their own routes with access checks)
	loginLimiter := ratelimit.New(ratelimit.LoginLimit, ratelimit.IPAndFormFieldKey("username"))
	if err := login.Handler.Init(app, cfg, db, resolver, loginLimiter); err != nil {
		log.Fatal().Err(err).Msg("failed to init login handler")
	}

	logout.Handler.Init(app, cfg)
	oidchandler.Handler.Init(app, cfg, db)
	home.Handler.Init(app, cfg, db, authService)
	user.Handler.Init(app, cfg, db, authService)
	group.Handler.Init(app, cfg, db, authService)
	settings.Handler.Init(app, cfg, db, authService)

	return service
}

// ldapConfig maps the file configuration onto the provider configuration.
func ldapConfig(in *config.LDAPAuth) *auth.LDAPConfig {
	return &auth.LDAPConfig{
		Enabled:         in.Enabled,
		Host:            in.Host,
		Port:            in.Port,
		UseSSL:          in.UseSSL,
		UseTLS:          in.UseTLS,
		SkipVerify:      in.SkipVerify,
		BindDN:          in.BindDN,
		BindPassword:    in.BindPassword,
		BaseDN:          in.BaseDN,
		UserFilter:      in.UserFilter,
		GroupBaseDN:     in.GroupBaseDN,
		GroupFilter:     in.GroupFilter,
		GroupMemberAttr: in.GroupMemberAttr,
		UsernameAttr:    in.UsernameAttr,
		EmailAttr:       in.EmailAttr,
		FirstNameAttr:   in.FirstNameAttr,
		LastNameAttr:    in.LastNameAttr,
		GroupNameAttr:   in.GroupNameAttr,
		Timeout:         in.Timeout,
	}
}
