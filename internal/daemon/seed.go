package daemon

import (
	"crypto/rand"
	"encoding/hex"
	"errors"
	"fmt"

	"github.com/rs/zerolog/log"
	"gorm.io/gorm"

	"github.com/GoLDAP-Portal/GoLDAP-Portal/internal/auth"
	"github.com/GoLDAP-Portal/GoLDAP-Portal/internal/config"
	"github.com/GoLDAP-Portal/GoLDAP-Portal/internal/db/controller/setting"
	"github.com/GoLDAP-Portal/GoLDAP-Portal/internal/db/models"
)

// seed creates the default settings rows on a fresh database. Existing
// values are never overwritten.
func seed(cfg *config.Config, db *gorm.DB) {
	defaults := map[string]string{
		setting.PortalTitle: cfg.Title,
		setting.LoginBanner: "",
	}

	for name, value := range defaults {
		if _, err := setting.Get(db, name); err == nil {
			continue
		} else if !errors.Is(err, setting.ErrSettingNotFound) {
			log.Error().Err(err).Str("setting", name).Msg("failed to read setting")
			continue
		}

		if _, err := setting.Set(db, name, []byte(value)); err != nil {
			log.Error().Err(err).Str("setting", name).Msg("failed to seed setting")
		}
	}

	var count int64

	db.Model(&models.User{}).Count(&count)

	if count == 0 {
		password, err := generatePassword()
		if err != nil {
			log.Error().Err(err).Msg("failed to generate bootstrap password")
			return
		}

		local := auth.NewLocalProvider(db)

		if _, err = local.CreateUser("admin", "admin@localhost", password, "", "", true, true); err != nil {
			log.Error().Err(err).Msg("failed to seed bootstrap superuser")
			return
		}

		// Logged once on first start; change it or create a personal
		// account with 'create-admin'.
		log.Warn().Str("username", "admin").Str("password", password).
			Msg("seeded bootstrap superuser")
	}
}

// CreateAdmin creates a local superuser account. When password is empty a
// random one is generated and returned. Returns false without error when the
// username already exists.
func CreateAdmin(cfg *config.Config, username, email, password string) (bool, string, error) {
	if username == "" {
		return false, "", fmt.Errorf("username is required")
	}

	db, err := openDB(cfg)
	if err != nil {
		return false, "", err
	}

	if err = db.AutoMigrate(
		&models.User{},
		&models.Group{},
		&models.UserGroup{},
		&models.Setting{},
	); err != nil {
		return false, "", fmt.Errorf("failed to migrate database: %w", err)
	}

	if email == "" {
		email = username + "@localhost"
	}

	if password == "" {
		if password, err = generatePassword(); err != nil {
			return false, "", err
		}
	}

	local := auth.NewLocalProvider(db)

	_, err = local.CreateUser(username, email, password, "", "", true, true)
	if errors.Is(err, auth.ErrUserNameOrEmailExists) {
		return false, "", nil
	}

	if err != nil {
		return false, "", err
	}

	return true, password, nil
}

func generatePassword() (string, error) {
	b := make([]byte, 12) //nolint:mnd
	if _, err := rand.Read(b); err != nil {
		return "", err
	}

	return hex.EncodeToString(b), nil
}
