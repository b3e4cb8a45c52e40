// Package auth provides authentication functionality for the portal.
//
// This package implements directory-first authentication with a local
// database fallback:
//   - LDAP/Active Directory authentication with group synchronization
//   - Local database authentication with Argon2id password hashing
//   - OpenID Connect (OIDC) authentication with external identity providers
//
// # Authentication Providers
//
// LDAPProvider connects to LDAP or Active Directory servers, binds with a
// service account to locate users, verifies credentials with a user bind,
// and collects the user's profile attributes and group memberships.
//
// LocalProvider handles traditional username/password authentication against
// the local database with secure Argon2id password hashing.
//
// OIDCProvider implements OAuth2/OIDC flows for authentication with external
// identity providers like Okta, Keycloak, and Azure AD.
//
// # Resolver
//
// The Resolver ties the providers together. It attempts directory
// authentication first and falls back to the local database only when the
// directory is unreachable or does not know the user. A rejected password or
// an ambiguous directory match never falls through to the local store.
//
// On every successful directory login the resolver synchronizes the local
// user record: profile attributes are copied from the directory entry, the
// staff and superuser flags are re-derived from the configured group DNs,
// and group memberships are replaced transactionally. Stale privileges are
// therefore revoked on the next login after a group removal.
//
// # Authorization
//
// Access control uses two flags on the user record, matching the data model
// of the admin panel:
//   - IsStaff grants access to the admin panel
//   - IsSuperuser grants full administrative rights
//
// Fiber middleware functions are provided for route protection:
//   - RequireStaff: protect routes requiring the staff flag
//   - RequireSuperuser: protect routes requiring the superuser flag
//
// Example usage:
//
//	resolver, err := auth.NewResolver(db, ldapProvider, localProvider, &auth.FlagMap{
//	    StaffGroupDN:     "CN=DjangoStaff,CN=Users,DC=rule4,DC=local",
//	    SuperuserGroupDN: "CN=DjangoAdmins,CN=Users,DC=rule4,DC=local",
//	})
//
//	user, err := resolver.Authenticate(ctx, username, password)
package auth
