// Package oidc provides the web handlers for the OpenID Connect login flow.
//
// The flow uses the standard OAuth2 authorization code grant: /auth/oidc/login
// redirects to the provider with a random state token, and /auth/oidc/callback
// exchanges the returned code, verifies the ID token and establishes a portal
// session. Group claims from the token drive the same access flags as
// directory group memberships.
package oidc
