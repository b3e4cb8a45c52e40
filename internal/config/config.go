// Package config handles input from etc/*.toml files
package config

import (
	"bytes"
	"encoding/json"
	"os"

	"github.com/pkg/errors"

	"github.com/BurntSushi/toml"
)

const (
	// EnvConfigJSON is the environment variable holding a JSON document that
	// is merged over the TOML configuration.
	EnvConfigJSON = "GO_LDAP_PORTAL_CONFIG_JSON"

	// EnvLDAPBindPassword overrides auth.ldap.bindpassword. The deployment
	// tooling injects the secret under this name, so it never has to live in
	// the config file.
	EnvLDAPBindPassword = "LDAP_BIND_PASSWORD"

	// EnvCookieEncryptionKey overrides webserver.cookieencryptionkey.
	EnvCookieEncryptionKey = "PORTAL_COOKIE_KEY"

	redacted = "<redacted>"
)

// ReadConfig from config file.
func ReadConfig(path string) (Config, error) {
	var (
		c   Config
		err error
	)

	// Read main configuration
	if path == "" {
		path = "./etc/"
	}

	if _, err = toml.DecodeFile(path+"main.toml", &c); err != nil {
		return Config{}, errors.Wrap(err, "failed to read main config file")
	}

	// override it from env
	if jsonConfigEnv := os.Getenv(EnvConfigJSON); jsonConfigEnv != "" {
		c, err = decodeAndMergeConfig(c, jsonConfigEnv)
		if err != nil {
			return c, err
		}
	}

	applySecretEnv(&c)

	return c, validate(c)
}

func decodeAndMergeConfig(c Config, configAsJSON string) (Config, error) {
	err := json.Unmarshal([]byte(configAsJSON), &c)
	if err != nil {
		return Config{}, errors.Wrap(err, "failed to merge config from environment")
	}

	return c, nil
}

// applySecretEnv overrides secret values from dedicated environment
// variables. Secrets are provisioned into the environment by the deployment
// (vault agent, systemd credentials or similar) and take precedence over
// anything in the config file.
func applySecretEnv(c *Config) {
	if v := os.Getenv(EnvLDAPBindPassword); v != "" {
		c.Auth.LDAP.BindPassword = v
	}

	if v := os.Getenv(EnvCookieEncryptionKey); v != "" {
		c.Webserver.CookieEncryptionKey = v
	}
}

// Redact returns a copy of the config with secret values replaced, suitable
// for dumping or rendering in the admin area.
func Redact(c Config) Config {
	if c.Auth.LDAP.BindPassword != "" {
		c.Auth.LDAP.BindPassword = redacted
	}

	if c.Auth.OIDC.ClientSecret != "" {
		c.Auth.OIDC.ClientSecret = redacted
	}

	if c.Webserver.CookieEncryptionKey != "" {
		c.Webserver.CookieEncryptionKey = redacted
	}

	if c.DB.Password != "" {
		c.DB.Password = redacted
	}

	return c
}

// DumpConfig config as TOML String.
func DumpConfig(c Config) (string, error) {
	var buffer bytes.Buffer
	t := toml.NewEncoder(&buffer)

	if err := t.Encode(c); err != nil {
		return "", err //nolint: wrapcheck
	}

	return buffer.String(), nil
}

// DumpConfigJSON config as JSON String.
func DumpConfigJSON(c Config) (string, error) {
	var buffer bytes.Buffer
	j := json.NewEncoder(&buffer)
	j.SetIndent("", "  ")

	if err := j.Encode(c); err != nil {
		return "", err //nolint: wrapcheck
	}

	return buffer.String(), nil
}

// validate minimal config settings for the portal.
func validate(c Config) error {
	invalidErrMessage := "invalid config"

	if c.Webserver.Port == 0 {
		return errors.Wrap(ErrWebServerPortCanNotBeZero, invalidErrMessage)
	}

	if c.Webserver.URL == "" {
		return errors.Wrap(ErrEmptyURL, invalidErrMessage)
	}

	if c.Webserver.ShutDownTime == 0 {
		c.Webserver.ShutDownTime = 5 // set default of 5 seconds
	}

	if !c.Auth.LocalDB.Enabled && !c.Auth.LDAP.Enabled && !c.Auth.OIDC.Enabled {
		return errors.Wrap(ErrNoAuthSourceEnabled, invalidErrMessage)
	}

	if c.Auth.LDAP.Enabled {
		if c.Auth.LDAP.Host == "" {
			return errors.Wrap(ErrLDAPHostEmpty, invalidErrMessage)
		}

		if c.Auth.LDAP.BaseDN == "" {
			return errors.Wrap(ErrLDAPBaseDNEmpty, invalidErrMessage)
		}
	}

	switch c.DB.GormEngine {
	case "", "sqlite", "mysql", "postgres":
	default:
		return errors.Wrap(ErrUnknownGormEngine, invalidErrMessage)
	}

	return nil
}
