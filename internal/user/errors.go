package user

import "errors"

// Store errors.
var (
	ErrUserNotFound  = errors.New("user not found")
	ErrUsernameTaken = errors.New("username already exists")
)

// Service errors, translated to HTTP statuses by the controller.
var (
	ErrNotFound     = errors.New("user not found")
	ErrConflict     = errors.New("username already taken")
	ErrUnauthorized = errors.New("invalid username or password")
)
