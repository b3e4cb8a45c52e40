package config

import (
	"path/filepath"
	"strings"
	"testing"
	"time"
)

func testConfigPath(t *testing.T) string {
	t.Helper()

	projectRoot, err := filepath.Abs("../../")
	if err != nil {
		t.Fatalf("failed to get project root: %v", err)
	}

	return filepath.Join(projectRoot, "etc") + string(filepath.Separator)
}

func TestReadConfig(t *testing.T) {
	cfg, err := ReadConfig(testConfigPath(t))
	if err != nil {
		t.Fatalf("ReadConfig() error = %v", err)
	}

	if cfg.Title == "" {
		t.Error("Config.Title should not be empty")
	}

	if cfg.Webserver.Port == 0 {
		t.Error("Webserver.Port should not be 0")
	}

	if cfg.Webserver.URL == "" {
		t.Error("Webserver.URL should not be empty")
	}

	if cfg.Webserver.Session.ExpiryTime != 24*time.Hour {
		t.Errorf("Session.ExpiryTime = %v, want 24h", cfg.Webserver.Session.ExpiryTime)
	}

	if cfg.DB.GormEngine != "sqlite" {
		t.Errorf("DB.GormEngine = %q, want sqlite", cfg.DB.GormEngine)
	}
}

func TestReadConfigLDAPSection(t *testing.T) {
	cfg, err := ReadConfig(testConfigPath(t))
	if err != nil {
		t.Fatalf("ReadConfig() error = %v", err)
	}

	ldap := cfg.Auth.LDAP

	if !ldap.Enabled {
		t.Fatal("Auth.LDAP.Enabled should be true in the shipped example config")
	}

	if ldap.Host == "" {
		t.Error("Auth.LDAP.Host should not be empty")
	}

	if !strings.Contains(ldap.UserFilter, "{username}") {
		t.Errorf("Auth.LDAP.UserFilter = %q, want a {username} placeholder", ldap.UserFilter)
	}

	if !strings.Contains(ldap.GroupFilter, "{userdn}") {
		t.Errorf("Auth.LDAP.GroupFilter = %q, want a {userdn} placeholder", ldap.GroupFilter)
	}

	if ldap.SuperuserGroupDN == "" {
		t.Error("Auth.LDAP.SuperuserGroupDN should be set in the shipped example config")
	}
}

func TestReadConfigEnvOverrides(t *testing.T) {
	t.Setenv(EnvLDAPBindPassword, "s3cret-from-env")
	t.Setenv(EnvConfigJSON, `{"Title":"Overridden"}`)

	cfg, err := ReadConfig(testConfigPath(t))
	if err != nil {
		t.Fatalf("ReadConfig() error = %v", err)
	}

	if cfg.Title != "Overridden" {
		t.Errorf("Title = %q, want JSON env override to win", cfg.Title)
	}

	if cfg.Auth.LDAP.BindPassword != "s3cret-from-env" {
		t.Errorf("BindPassword = %q, want value from %s", cfg.Auth.LDAP.BindPassword, EnvLDAPBindPassword)
	}
}

func TestConfigValidation(t *testing.T) {
	base := func() Config {
		return Config{
			Webserver: Webserver{Port: 8080, URL: "http://localhost:8080"},
			Auth:      Auth{LocalDB: LocalDBAuth{Enabled: true}},
		}
	}

	tests := []struct {
		name    string
		mutate  func(*Config)
		wantErr bool
	}{
		{"valid minimal", func(*Config) {}, false},
		{"zero port", func(c *Config) { c.Webserver.Port = 0 }, true},
		{"empty url", func(c *Config) { c.Webserver.URL = "" }, true},
		{"no auth source", func(c *Config) { c.Auth.LocalDB.Enabled = false }, true},
		{"ldap without host", func(c *Config) {
			c.Auth.LDAP.Enabled = true
			c.Auth.LDAP.BaseDN = "DC=example,DC=org"
		}, true},
		{"ldap without basedn", func(c *Config) {
			c.Auth.LDAP.Enabled = true
			c.Auth.LDAP.Host = "ldap.example.org"
		}, true},
		{"bogus gorm engine", func(c *Config) { c.DB.GormEngine = "oracle" }, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := base()
			tt.mutate(&cfg)

			err := validate(cfg)
			if (err != nil) != tt.wantErr {
				t.Errorf("validate() error = %v, wantErr = %v", err, tt.wantErr)
			}
		})
	}
}

func TestRedact(t *testing.T) {
	cfg := Config{}
	cfg.Auth.LDAP.BindPassword = "topsecret"
	cfg.Auth.OIDC.ClientSecret = "alsosecret"
	cfg.DB.Password = "dbsecret"

	red := Redact(cfg)

	if red.Auth.LDAP.BindPassword == "topsecret" {
		t.Error("Redact() did not replace the LDAP bind password")
	}

	if red.Auth.OIDC.ClientSecret == "alsosecret" {
		t.Error("Redact() did not replace the OIDC client secret")
	}

	if red.DB.Password == "dbsecret" {
		t.Error("Redact() did not replace the DB password")
	}

	// original must be untouched
	if cfg.Auth.LDAP.BindPassword != "topsecret" {
		t.Error("Redact() must not mutate its input")
	}

	out, err := DumpConfig(red)
	if err != nil {
		t.Fatalf("DumpConfig() error = %v", err)
	}

	if strings.Contains(out, "topsecret") {
		t.Error("redacted dump still contains a secret")
	}
}
