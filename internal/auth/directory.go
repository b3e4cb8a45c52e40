package auth

import "context"

// DirectoryIdentity describes a user as the directory sees them after a
// successful bind. Attributes and group DNs are copied out of the directory
// entry so the resolver never touches the connection itself.
type DirectoryIdentity struct {
	// DN is the user's distinguished name.
	DN string
	// Username is the login name the user authenticated with.
	Username string
	// Email is the value of the configured email attribute.
	Email string
	// FirstName is the value of the configured given name attribute.
	FirstName string
	// LastName is the value of the configured surname attribute.
	LastName string
	// Groups holds the DNs of all groups the user is a member of.
	Groups []string
}

// DirectoryClient authenticates credentials against an external directory.
//
// Implementations classify failures with the package sentinel errors:
// ErrDirectoryUnavailable for connectivity and service bind problems,
// ErrUserNotFound when the search matches nothing, ErrMultipleUsersFound
// when the search is ambiguous, and ErrInvalidCredentials when the user
// bind is rejected.
type DirectoryClient interface {
	Authenticate(ctx context.Context, username, password string) (*DirectoryIdentity, error)
}
