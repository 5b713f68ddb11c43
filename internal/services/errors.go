package services

import "errors"

var (
	// ErrDuplicateUser is returned when registering a username that is taken.
	ErrDuplicateUser = errors.New("username already exists")

	// ErrInvalidCredentials is returned when a username/password pair does
	// not authenticate. Unknown user and wrong password are indistinguishable
	// to the caller.
	ErrInvalidCredentials = errors.New("invalid credentials")

	// ErrForbidden is returned when the caller is not allowed to read or
	// mark a message.
	ErrForbidden = errors.New("forbidden")
)
