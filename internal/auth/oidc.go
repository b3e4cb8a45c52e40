package auth

import (
	"context"
	"crypto/rand"
	"encoding/base64"
	"errors"
	"fmt"
	"time"

	"github.com/coreos/go-oidc/v3/oidc"
	"golang.org/x/oauth2"
	"gorm.io/gorm"

	"github.com/GoLDAP-Portal/GoLDAP-Portal/internal/db/models"
)

// ErrOIDCDisabled is returned when OIDC is disabled via configuration.
var ErrOIDCDisabled = errors.New("oidc authentication is disabled")

// OIDCConfig holds OpenID Connect (OIDC) configuration for authentication.
type OIDCConfig struct {
	// Enabled indicates if OIDC authentication is enabled.
	Enabled bool
	// ProviderURL is the OIDC provider's discovery URL (e.g., "https://accounts.google.com").
	ProviderURL string
	// ClientID is the OAuth2 client identifier.
	ClientID string
	// ClientSecret is the OAuth2 client secret.
	ClientSecret string
	// RedirectURL is the OAuth2 callback URL where the provider redirects after authentication.
	RedirectURL string
	// Scopes are the OAuth2 scopes to request (default: ["openid", "profile", "email"]).
	Scopes []string
	// GroupsClaim is the ID token claim name containing user groups (e.g., "groups", "roles").
	GroupsClaim string
	// StaffGroup grants IsStaff to members of this group claim value.
	StaffGroup string
	// SuperuserGroup grants IsSuperuser to members of this group claim value.
	SuperuserGroup string
}

// OIDCProvider handles OIDC authentication.
type OIDCProvider struct {
	config   *OIDCConfig
	provider *oidc.Provider
	verifier *oidc.IDTokenVerifier
	oauth2   oauth2.Config
	db       *gorm.DB
}

// NewOIDCProvider creates a new OIDC provider.
func NewOIDCProvider(ctx context.Context, config *OIDCConfig, db *gorm.DB) (*OIDCProvider, error) {
	if !config.Enabled {
		return nil, ErrOIDCDisabled
	}

	provider, err := oidc.NewProvider(ctx, config.ProviderURL)
	if err != nil {
		return nil, fmt.Errorf("failed to create OIDC provider: %w", err)
	}

	verifier := provider.Verifier(&oidc.Config{
		ClientID: config.ClientID,
	})

	scopes := config.Scopes
	if len(scopes) == 0 {
		scopes = []string{oidc.ScopeOpenID, "profile", "email"}
	}

	oauth2Config := oauth2.Config{
		ClientID:     config.ClientID,
		ClientSecret: config.ClientSecret,
		RedirectURL:  config.RedirectURL,
		Endpoint:     provider.Endpoint(),
		Scopes:       scopes,
	}

	return &OIDCProvider{
		config:   config,
		provider: provider,
		verifier: verifier,
		oauth2:   oauth2Config,
		db:       db,
	}, nil
}

// GenerateStateToken generates a random state token for CSRF protection.
func GenerateStateToken() (string, error) {
	b := make([]byte, 32)
	if _, err := rand.Read(b); err != nil {
		return "", err
	}

	return base64.URLEncoding.EncodeToString(b), nil
}

// GetAuthURL returns the OIDC authorization URL with state token.
func (p *OIDCProvider) GetAuthURL(state string) string {
	return p.oauth2.AuthCodeURL(state)
}

// HandleCallback handles the OIDC callback and returns the authenticated user.
// Like directory logins, the local record is keyed by username alone, and the
// access flags are re-derived from the token's group claim on every login.
func (p *OIDCProvider) HandleCallback(ctx context.Context, code string) (*models.User, []string, error) {
	oauth2Token, err := p.oauth2.Exchange(ctx, code)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to exchange token: %w", err)
	}

	rawIDToken, ok := oauth2Token.Extra("id_token").(string)
	if !ok {
		return nil, nil, ErrNoIDToken
	}

	idToken, err := p.verifier.Verify(ctx, rawIDToken)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to verify ID token: %w", err)
	}

	var claims struct {
		Sub           string   `json:"sub"`
		Email         string   `json:"email"`
		EmailVerified bool     `json:"email_verified"`
		Name          string   `json:"name"`
		GivenName     string   `json:"given_name"`
		FamilyName    string   `json:"family_name"`
		Groups        []string `json:"groups"`
	}

	if err = idToken.Claims(&claims); err != nil {
		return nil, nil, fmt.Errorf("failed to parse claims: %w", err)
	}

	groups := p.groupsFromToken(idToken, claims.Groups)

	user, err := p.upsertOIDCUser(claims.Sub, claims.Email, claims.GivenName, claims.FamilyName, groups)
	if err != nil {
		return nil, nil, err
	}

	return user, groups, nil
}

// upsertOIDCUser creates or refreshes the local record for an OIDC identity.
// The email doubles as the username.
func (p *OIDCProvider) upsertOIDCUser(sub, email, firstName, lastName string, groups []string) (*models.User, error) {
	var user models.User

	now := time.Now()

	err := p.db.Transaction(func(tx *gorm.DB) error {
		errFind := tx.Where("username = ?", email).First(&user).Error

		if errors.Is(errFind, gorm.ErrRecordNotFound) {
			user = models.User{
				Active:     true,
				Username:   email,
				Email:      email,
				FirstName:  firstName,
				LastName:   lastName,
				AuthSource: models.AuthSourceOIDC,
				ExternalID: sub,
				CreatedAt:  now,
				UpdatedAt:  now,
			}
			p.applyGroupFlags(&user, groups)
			user.LastSyncedAt = &now

			if errCreate := tx.Create(&user).Error; errCreate != nil {
				return fmt.Errorf("failed to create user: %w", errCreate)
			}

			return nil
		}

		if errFind != nil {
			return fmt.Errorf("failed to query user: %w", errFind)
		}

		if !user.Active {
			return ErrUserAccountDisabled
		}

		user.Email = email
		user.FirstName = firstName
		user.LastName = lastName
		user.AuthSource = models.AuthSourceOIDC
		user.ExternalID = sub
		p.applyGroupFlags(&user, groups)
		user.LastSyncedAt = &now
		user.UpdatedAt = now

		if errSave := tx.Save(&user).Error; errSave != nil {
			return fmt.Errorf("failed to update user: %w", errSave)
		}

		return nil
	})
	if err != nil {
		return nil, err
	}

	return &user, nil
}

// applyGroupFlags re-derives the access flags from the token's group claim.
// Flags without a configured group keep their stored value.
func (p *OIDCProvider) applyGroupFlags(user *models.User, groups []string) {
	if p.config.StaffGroup != "" {
		user.IsStaff = containsGroupDN(groups, p.config.StaffGroup)
	}

	if p.config.SuperuserGroup != "" {
		user.IsSuperuser = containsGroupDN(groups, p.config.SuperuserGroup)
	}
}

// VerifyToken verifies the signature and claims of an OIDC ID token.
// It validates the token was issued by the configured provider and hasn't expired.
func (p *OIDCProvider) VerifyToken(ctx context.Context, rawToken string) (*oidc.IDToken, error) {
	return p.verifier.Verify(ctx, rawToken)
}

// groupsFromToken determines the user's groups using the configured claim.
// It defaults to the provided defaultGroups and overrides them if a custom claim is set and present.
func (p *OIDCProvider) groupsFromToken(idToken *oidc.IDToken, defaultGroups []string) []string {
	gc := p.config.GroupsClaim
	if gc == "" || gc == "groups" {
		return defaultGroups
	}

	var allClaims map[string]interface{}
	if err := idToken.Claims(&allClaims); err != nil {
		return defaultGroups
	}

	v, ok := allClaims[gc]
	if !ok {
		return defaultGroups
	}

	switch vv := v.(type) {
	case []string:
		return vv
	case []interface{}:
		tmp := make([]string, 0, len(vv))
		for _, g := range vv {
			if s, ok := g.(string); ok {
				tmp = append(tmp, s)
			}
		}

		return tmp
	default:
		return defaultGroups
	}
}

// GetLogoutURL constructs the OIDC provider's logout URL if supported.
// It includes the ID token hint and post-logout redirect URI parameters.
// Returns an empty string if the provider doesn't support logout endpoints.
func (p *OIDCProvider) GetLogoutURL(idToken, postLogoutRedirectURI string) string {
	var claims struct {
		EndSessionEndpoint string `json:"end_session_endpoint"`
	}

	if err := p.provider.Claims(&claims); err != nil || claims.EndSessionEndpoint == "" {
		return ""
	}

	return fmt.Sprintf("%s?id_token_hint=%s&post_logout_redirect_uri=%s",
		claims.EndSessionEndpoint,
		idToken,
		postLogoutRedirectURI,
	)
}
