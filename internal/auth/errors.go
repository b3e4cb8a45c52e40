package auth

import "errors"

var (
	// ErrInvalidInput is returned when the username or password is empty.
	// Empty credentials are rejected before any directory traffic is sent,
	// as some directories treat an empty password bind as anonymous success.
	ErrInvalidInput = errors.New("username and password must not be empty")

	// ErrInvalidCredentials is returned when the provided credentials are rejected.
	// Callers must not reveal to the client which factor failed.
	ErrInvalidCredentials = errors.New("invalid credentials")

	// ErrUserNotFound is returned when a user cannot be found in the database or directory.
	ErrUserNotFound = errors.New("user not found")

	// ErrMultipleUsersFound is returned when a directory search expected one user but found multiple.
	// This typically indicates a misconfigured LDAP filter or duplicate entries.
	ErrMultipleUsersFound = errors.New("multiple users found")

	// ErrDirectoryUnavailable is returned when the directory server cannot be
	// reached or the service account bind fails. It signals a connectivity or
	// configuration problem rather than a credential problem.
	ErrDirectoryUnavailable = errors.New("directory unavailable")

	// ErrUserAccountDisabled is returned when attempting to authenticate a disabled user account.
	ErrUserAccountDisabled = errors.New("user account is disabled")

	// ErrStorage is returned when the local user store cannot be read or written
	// during authentication. The directory outcome is discarded in that case.
	ErrStorage = errors.New("user store failure")

	// ErrInvalidOldPassword is returned when the provided old password does not match the user's current password.
	ErrInvalidOldPassword = errors.New("invalid old password")

	// ErrUserNameOrEmailExists is returned when attempting to create a user with a username or email that already exists.
	ErrUserNameOrEmailExists = errors.New("user with username or email already exists")

	// ErrNoIDToken is returned when the OAuth2 token response doesn't contain an ID token.
	// This typically indicates a misconfigured OIDC provider or an incomplete authentication flow.
	ErrNoIDToken = errors.New("no id_token in token response")
)
