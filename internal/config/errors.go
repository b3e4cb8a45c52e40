package config

import (
	"errors"
)

var (
	// ErrEmptyURL error if config webserver.URL is empty.
	ErrEmptyURL = errors.New("toml config webserver.url can not be empty")

	// ErrWebServerPortCanNotBeZero error if config webserver listening port is 0.
	ErrWebServerPortCanNotBeZero = errors.New("toml config webserver.port listening port can not be 0")

	// ErrNoAuthSourceEnabled error if neither local, LDAP nor OIDC authentication is enabled.
	ErrNoAuthSourceEnabled = errors.New("toml config auth: at least one authentication source must be enabled")

	// ErrLDAPHostEmpty error if LDAP is enabled without a host.
	ErrLDAPHostEmpty = errors.New("toml config auth.ldap.host can not be empty when ldap is enabled")

	// ErrLDAPBaseDNEmpty error if LDAP is enabled without a user search base.
	ErrLDAPBaseDNEmpty = errors.New("toml config auth.ldap.basedn can not be empty when ldap is enabled")

	// ErrUnknownGormEngine error if db.gormengine is not one of sqlite, mysql or postgres.
	ErrUnknownGormEngine = errors.New("toml config db.gormengine must be sqlite, mysql or postgres")
)
