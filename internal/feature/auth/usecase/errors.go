// Package usecase implements the business logic for the auth feature.
package usecase

import "errors"

var (
	// ErrUserAlreadyExists is returned by Signup when the email is registered or already has a pending signup.
	ErrUserAlreadyExists = errors.New("user already exists")

	// ErrSignupNotFound is returned by ConfirmSignup when no pending signup exists for the email.
	ErrSignupNotFound = errors.New("user does not exist")

	// ErrInvalidCode is returned by ConfirmSignup when the code does not match.
	ErrInvalidCode = errors.New("invalid code")

	// ErrUserNotFound is returned when a user cannot be found by email.
	ErrUserNotFound = errors.New("no user found")

	// ErrIncorrectPassword is returned by Login when the password does not match.
	ErrIncorrectPassword = errors.New("incorrect password")

	// ErrInvalidSession is returned by Logout when the token is unknown.
	ErrInvalidSession = errors.New("invalid session")

	// ErrSessionNotFound is returned by session repositories when a token is unknown.
	ErrSessionNotFound = errors.New("session not found")

	// ErrNoUser is returned by GetSessionUser when the token or its user cannot be resolved.
	ErrNoUser = errors.New("no user")
)
