package config

import (
	"time"

	"github.com/GoLDAP-Portal/GoLDAP-Portal/internal/logger"
)

// Session settings.
type Session struct {
	ExpiryTime time.Duration
}

// Config overall data structure.
type Config struct {
	DevMode   bool // enable dev mode for development
	DB        DB
	Log       logger.Log
	Title     string
	Webserver Webserver
	Auth      Auth
}

// Webserver implement webserver settings.
type Webserver struct {
	Domain              string  // domain name for the webserver
	Port                int     // listening port for the webserver
	ShutDownTime        int     // wait time for shutdown
	URL                 string  // base url for the webserver
	CookieEncryptionKey string  // encryption key for cookies
	Session             Session // session settings
}

// Auth groups the available authentication sources.
type Auth struct {
	LocalDB LocalDBAuth
	LDAP    LDAPAuth
	OIDC    OIDCAuth
}

// LocalDBAuth holds settings for the local database fallback authentication.
type LocalDBAuth struct {
	Enabled bool
}

// LDAPAuth holds LDAP/Active Directory settings.
//
// UserFilter uses a {username} placeholder, GroupFilter a {userdn}
// placeholder; both are substituted with escaped values at search time.
type LDAPAuth struct {
	Enabled      bool
	Host         string
	Port         int
	UseSSL       bool
	UseTLS       bool
	SkipVerify   bool
	BindDN       string
	BindPassword string
	BaseDN       string
	UserFilter   string
	GroupBaseDN  string
	GroupFilter  string

	// Attribute names on the directory side.
	UsernameAttr    string
	EmailAttr       string
	FirstNameAttr   string
	LastNameAttr    string
	GroupNameAttr   string
	GroupMemberAttr string

	// Timeout in seconds for connect and per-request network operations.
	Timeout int

	// Group DNs that grant role flags. Membership is re-evaluated on every
	// directory login; an empty DN leaves the stored flag untouched.
	StaffGroupDN     string
	SuperuserGroupDN string
}

// OIDCAuth holds OpenID Connect settings.
type OIDCAuth struct {
	Enabled      bool
	ProviderURL  string
	ClientID     string
	ClientSecret string
	RedirectURL  string
	Scopes       []string
	GroupsClaim  string

	// Group claim values that grant role flags, mirroring the LDAP mapping.
	StaffGroup     string
	SuperuserGroup string
}
