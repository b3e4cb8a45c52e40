// Package login provides HTTP handlers for the portal sign-in flow.
//
// This file defines exported error values used throughout the login flow.
package login

import "errors"

var (
	// ErrInvalidFormData is returned when the submitted login form cannot be parsed
	// or fails validation.
	ErrInvalidFormData = errors.New("invalid form data")

	// ErrInvalidCredentials is the single message shown for every credential
	// failure. It deliberately does not say whether the username, the
	// password or the account state was the problem.
	ErrInvalidCredentials = errors.New("invalid username or password")

	// ErrServiceUnavailable is returned when the directory is unreachable and
	// no local fallback can take over.
	ErrServiceUnavailable = errors.New("authentication service unavailable, please try again later")

	// ErrInternalServerError is returned for unexpected failures during the login
	// process.
	ErrInternalServerError = errors.New("internal server error")
)
